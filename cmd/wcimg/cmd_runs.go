package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs in the run catalog, newest first. Runs are recorded by
dump-blobs --record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.Runs(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			for _, r := range runs {
				label := r.Label
				if label == "" {
					label = "-"
				}
				fmt.Fprintf(out, "%s  %s  %-12s %s\n", r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Command, label)
			}
			return nil
		},
	}
}

func newDiffRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff-runs <run-a> <run-b>",
		Short: "Compare the signatures of two recorded runs",
		Long: `Compare the blob signatures of two runs as multisets. Rows are matched
on their signature columns; blob values and idents are ignored.

Example:
  wcimg diff-runs 0f8c... 7d21...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := st.DiffRuns(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(d)
			}
			fmt.Fprintf(out, "common: %d, only in %s: %d, only in %s: %d\n",
				d.Common, d.RunA, len(d.OnlyInA), d.RunB, len(d.OnlyInB))
			for _, r := range d.OnlyInA {
				fmt.Fprintf(out, "- %v\n", r)
			}
			for _, r := range d.OnlyInB {
				fmt.Fprintf(out, "+ %v\n", r)
			}
			return nil
		},
	}
}
