package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wcimg/internal/mcp"
	"github.com/nvandessel/wcimg/internal/pathutil"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server over stdio",
		Long: `Serve the wcimg analyses as Model Context Protocol tools over stdio.

Tool calls may only read files inside the data roots. Relative paths
resolve against the first root.

Example:
  wcimg mcp-server --data-root /data/pdsp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, _ := cmd.Flags().GetStringSlice("data-root")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if len(roots) == 0 {
				roots, err = pathutil.DefaultRoots()
				if err != nil {
					return err
				}
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:      "wcimg",
				Version:   version,
				Roots:     roots,
				Params:    a.params,
				AuditDir:  a.cfg.Logging.Dir,
				Logger:    a.logger,
				Decisions: a.decisions,
				Metrics:   a.metrics,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a.logger.Info("mcp server starting", "roots", roots)
			return server.Run(ctx)
		},
	}
	cmd.Flags().StringSlice("data-root", nil, "Directory tool calls may read from (repeatable, default working directory)")
	addDriftFlags(cmd)
	addSignatureFlags(cmd)
	return cmd
}
