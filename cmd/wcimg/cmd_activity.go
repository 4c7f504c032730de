package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wcimg/internal/activity"
	"github.com/nvandessel/wcimg/internal/analysis"
	"github.com/nvandessel/wcimg/internal/export"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity <file>",
		Short: "Build the channel by slice activity histogram of a cluster graph",
		Long: `Fill a channel by slice histogram from the per-channel signal of every
slice in one cluster graph.

Examples:
  wcimg activity clusters.json
  wcimg activity --graph 2 --slices 100:400 -o act.json clusters.tar.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivity(cmd, args[0], "activity", false)
		},
	}
	addActivityFlags(cmd)
	return cmd
}

func newBlobActivityMaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob-activity-mask <file>",
		Short: "Compare channel activity against the blob mask",
		Long: `Fill the activity histogram, paint the channel range of every blob
into a mask of the same shape and split activity into the part covered by
blobs (found) and the part outside them (missed).

Examples:
  wcimg blob-activity-mask clusters.json
  wcimg blob-activity-mask --json -o mask.json clusters.tar.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivity(cmd, args[0], "blob-activity-mask", true)
		},
	}
	addActivityFlags(cmd)
	return cmd
}

func addActivityFlags(cmd *cobra.Command) {
	cmd.Flags().Int("graph", 0, "Index of the cluster graph within the file")
	cmd.Flags().String("slices", "", "Restrict to slice indices lo:hi")
	cmd.Flags().StringP("output", "o", "", "Write histograms to file (.json or .arrow)")
	addDriftFlags(cmd)
	addSignatureFlags(cmd)
}

func runActivity(cmd *cobra.Command, path, command string, mask bool) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	graph, _ := cmd.Flags().GetInt("graph")
	slicesFlag, _ := cmd.Flags().GetString("slices")
	output, _ := cmd.Flags().GetString("output")

	window, err := parseWindow(slicesFlag)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	r := a.runner(command)
	events, err := r.Load(path)
	if err != nil {
		return err
	}
	if graph < 0 || graph >= len(events) {
		return fmt.Errorf("graph %d out of range (%s has %d)", graph, path, len(events))
	}
	ev := events[graph]

	res, err := r.Activity(ev, mask, window)
	if err != nil {
		return err
	}

	if output != "" {
		if err := writeOutput(output, func(w io.Writer) error {
			return writeActivity(w, strings.ToLower(filepath.Ext(output)), res)
		}); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return json.NewEncoder(out).Encode(activitySummary(res))
	}

	h := res.Activity
	fmt.Fprintf(out, "%s\n", eventName(ev))
	fmt.Fprintf(out, "  channels [%d, %d)  slices [%d, %d)\n", h.Channels.Lo, h.Channels.Hi, h.Slices.Lo, h.Slices.Hi)
	fmt.Fprintf(out, "  total %g\n", h.Total())
	if res.RangeErr == nil {
		fmt.Fprintf(out, "  range [%g, %g]\n", res.Min, res.Max)
	}
	planes := "known"
	if !res.KnownPlanes {
		planes = "unknown"
	}
	fmt.Fprintf(out, "  plane groups %v (%s), boundaries %v\n", res.Groups, planes, res.Boundaries)
	if c := res.Comparison; c != nil {
		fmt.Fprintf(out, "  found  %d cells, %g\n", c.NFound, c.FoundTotal)
		fmt.Fprintf(out, "  missed %d cells, %g\n", c.NMissed, c.MissedTotal)
	}
	if output != "" {
		fmt.Fprintf(out, "Wrote %s\n", output)
	}
	return nil
}

// activitySummary is the JSON view of an activity result without the grids.
func activitySummary(res *analysis.ActivityResult) map[string]interface{} {
	h := res.Activity
	out := map[string]interface{}{
		"channels":         h.Channels,
		"slices":           h.Slices,
		"total":            h.Total(),
		"plane_groups":     res.Groups,
		"known_planes":     res.KnownPlanes,
		"plane_boundaries": res.Boundaries,
	}
	if res.RangeErr == nil {
		out["min"] = res.Min
		out["max"] = res.Max
	}
	if c := res.Comparison; c != nil {
		out["found"] = c.NFound
		out["missed"] = c.NMissed
		out["found_total"] = c.FoundTotal
		out["missed_total"] = c.MissedTotal
	}
	return out
}

type namedGrid struct {
	name string
	h    *activity.Histogram
}

// writeActivity writes the histograms of res in the format implied by ext.
// Arrow output lists the nonzero activity cells with the other grids
// sampled at the same cells.
func writeActivity(w io.Writer, ext string, res *analysis.ActivityResult) error {
	grids := []namedGrid{{"activity", res.Activity}}
	if res.Mask != nil {
		grids = append(grids, namedGrid{"blobs", res.Mask})
	}
	if c := res.Comparison; c != nil {
		grids = append(grids, namedGrid{"found", c.Found}, namedGrid{"missed", c.Missed})
	}

	if ext == ".arrow" {
		cols := export.HistogramColumns(res.Activity)
		chans, sids := cols[0].Int, cols[1].Int
		for _, g := range grids[1:] {
			vals := make([]float64, len(chans))
			for i := range chans {
				vals[i], _ = g.h.At(int(chans[i]), int(sids[i]))
			}
			cols = append(cols, export.Column{Name: g.name, Float: vals})
		}
		return export.WriteArrow(w, cols)
	}

	doc := export.NewHistogramDoc(res.Activity, res.Boundaries)
	for _, g := range grids {
		doc.Add(g.name, g.h)
	}
	return doc.WriteJSON(w)
}
