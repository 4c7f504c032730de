package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wcimg/internal/export"
	"github.com/nvandessel/wcimg/internal/sampling"
)

func newBeeBlobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bee-blobs <file>...",
		Short: "Sample blobs into a Bee point cloud",
		Long: `Sample every blob of every cluster graph into 3D points carrying charge
and write them as one Bee upload document. Points from all files are
concatenated.

Examples:
  wcimg bee-blobs -o upload.json clusters-apa*.tar.gz
  wcimg bee-blobs --sampling center --rse 5141,23,42 -o upload.json clusters.json
  wcimg bee-blobs --density 20 -o points.arrow clusters.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			rseFlag, _ := cmd.Flags().GetString("rse")

			rse, err := parseRSE(rseFlag)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			r := a.runner("bee-blobs")
			events, err := r.LoadAll(args)
			if err != nil {
				return err
			}

			var pts []sampling.Point
			for _, ev := range events {
				pts = append(pts, r.Points(ev)...)
			}

			write := func(w io.Writer) error {
				if strings.ToLower(filepath.Ext(output)) == ".arrow" {
					return export.WriteArrow(w, export.PointColumns(pts))
				}
				bee := export.NewBee(rse[0], rse[1], rse[2], a.cfg.Bee.Geom)
				bee.Add(pts)
				return bee.WriteJSON(w)
			}

			out := cmd.OutOrStdout()
			if output == "" {
				if jsonOut {
					return write(out)
				}
				return fmt.Errorf("bee-blobs needs --output unless --json is set")
			}
			if err := writeOutput(output, write); err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"points": len(pts),
					"events": len(events),
					"output": output,
				})
			}
			fmt.Fprintf(out, "Wrote %d points from %d graphs to %s\n", len(pts), len(events), output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (.json for Bee, .arrow)")
	cmd.Flags().String("rse", "0,0,0", "Run, subrun and event numbers")
	cmd.Flags().String("geom", "", "Bee geometry name")
	addDriftFlags(cmd)
	addSamplingFlags(cmd)
	return cmd
}

// parseRSE parses "run,subrun,event".
func parseRSE(s string) ([3]int, error) {
	var rse [3]int
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return rse, fmt.Errorf("invalid --rse %q (want run,subrun,event)", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return rse, fmt.Errorf("invalid --rse %q: %w", s, err)
		}
		rse[i] = n
	}
	return rse, nil
}
