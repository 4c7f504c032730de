package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wcimg/internal/export"
	"github.com/nvandessel/wcimg/internal/signature"
	"github.com/nvandessel/wcimg/internal/store"
)

func newDumpBlobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-blobs <file>...",
		Short: "Dump sorted blob signatures",
		Long: `Extract one signature row per blob from every cluster graph and print
the rows sorted, followed by value threshold summaries.

Blobs lacking wires in any plane are skipped. With --record the rows are
also stored in the run catalog so later runs can be compared with
diff-runs.

Examples:
  wcimg dump-blobs clusters.tar.gz
  wcimg dump-blobs -o sigs.arrow clusters.tar.gz
  wcimg dump-blobs --record --label baseline clusters.tar.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			record, _ := cmd.Flags().GetBool("record")
			label, _ := cmd.Flags().GetString("label")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			r := a.runner("dump-blobs")
			events, err := r.LoadAll(args)
			if err != nil {
				return err
			}

			var st *store.SQLiteRunStore
			var runID string
			if record {
				st, err = a.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				runID, err = st.RecordRun(cmd.Context(), store.Run{
					Command: "dump-blobs",
					Label:   label,
					Params:  a.paramsSnapshot(),
				})
				if err != nil {
					return err
				}
			}

			all := &signature.Matrix{}
			for _, ev := range events {
				m, err := r.Signatures(nil, ev)
				if err != nil {
					return err
				}
				if st != nil {
					if err := st.RecordEvent(cmd.Context(), runID, store.Event{
						Source:  ev.Source,
						Graph:   ev.Graph,
						Blobs:   m.Len(),
						Skipped: m.Skipped,
					}, m); err != nil {
						return err
					}
				}
				if err := all.Merge(m); err != nil {
					return err
				}
			}

			if output != "" {
				if err := writeOutput(output, func(w io.Writer) error {
					return writeSignatures(w, strings.ToLower(filepath.Ext(output)), all)
				}); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{
					"rows":    all.Len(),
					"skipped": all.Skipped,
					"events":  len(events),
				}
				if output != "" {
					result["output"] = output
				}
				if runID != "" {
					result["run_id"] = runID
				}
				return json.NewEncoder(out).Encode(result)
			}

			if output == "" {
				if err := export.WriteSignatureText(out, all); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Wrote %d rows to %s (%d blobs skipped)\n", all.Len(), output, all.Skipped)
			}
			if runID != "" {
				fmt.Fprintf(out, "Recorded run %s\n", runID)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write rows to file (.arrow, .json or text)")
	cmd.Flags().Bool("record", false, "Record the rows in the run catalog")
	cmd.Flags().String("label", "", "Label for the recorded run")
	cmd.Flags().Float64("value-scale", 0, "Factor applied to blob values")
	addDriftFlags(cmd)
	addSignatureFlags(cmd)
	return cmd
}

// writeSignatures writes m in the format implied by ext.
func writeSignatures(w io.Writer, ext string, m *signature.Matrix) error {
	switch ext {
	case ".arrow":
		return export.WriteArrow(w, export.SignatureColumns(m))
	case ".json":
		rows := m.Rows
		if rows == nil {
			rows = [][]float64{}
		}
		return json.NewEncoder(w).Encode(map[string]interface{}{
			"columns": signature.Columns,
			"rows":    rows,
			"skipped": m.Skipped,
		})
	default:
		return export.WriteSignatureText(w, m)
	}
}
