package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/wcimg/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and check wcimg configuration",
		Long: `Show the effective configuration or check it for errors.

Configuration is read from ~/.wcimg/config.yaml (or --config) and
WCIMG_* environment variables override it.

Examples:
  wcimg config list
  wcimg config validate --config analysis.yaml`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigValidateCmd(),
	)

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.WcimgConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, verr := cfg.Resolve()

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{"valid": verr == nil}
				if verr != nil {
					result["error"] = verr.Error()
				}
				if err := json.NewEncoder(out).Encode(result); err != nil {
					return err
				}
				return verr
			}
			if verr != nil {
				return fmt.Errorf("invalid configuration: %w", verr)
			}
			fmt.Fprintln(out, "Configuration is valid.")
			return nil
		},
	}
}
