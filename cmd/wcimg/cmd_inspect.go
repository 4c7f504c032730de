package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wcimg/internal/analysis"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Summarize the cluster graphs in tap files",
		Long: `Print node counts by kind and total blob and slice charge for every
cluster graph in the given files.

Examples:
  wcimg inspect clusters-apa0.tar.gz
  wcimg inspect --json clusters-*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			events, err := a.runner("inspect").LoadAll(args)
			if err != nil {
				return err
			}

			summaries := make([]analysis.Summary, 0, len(events))
			for _, ev := range events {
				summaries = append(summaries, analysis.Summarize(ev))
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"graphs": summaries,
					"count":  len(summaries),
				})
			}

			for i, s := range summaries {
				fmt.Fprintf(out, "%s: %d nodes, %d edges\n", eventName(events[i]), s.Nodes, s.Edges)
				kinds := make([]string, 0, len(s.Counts))
				for k := range s.Counts {
					kinds = append(kinds, k)
				}
				slices.Sort(kinds)
				for _, k := range kinds {
					fmt.Fprintf(out, "  %-12s %d\n", k, s.Counts[k])
				}
				fmt.Fprintf(out, "  blob charge  %g\n", s.BlobCharge)
				fmt.Fprintf(out, "  slice charge %g\n", s.SliceCharge)
			}
			return nil
		},
	}
	addDriftFlags(cmd)
	return cmd
}
