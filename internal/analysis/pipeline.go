// Package analysis runs the per-event analyses shared by the CLI and the
// MCP server: load, undrift and index each cluster graph, then extract
// signatures, fill activity histograms or sample blob points while
// reporting skipped blobs and timing to the logging and metrics layers.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvandessel/wcimg/internal/activity"
	"github.com/nvandessel/wcimg/internal/cluster"
	"github.com/nvandessel/wcimg/internal/config"
	"github.com/nvandessel/wcimg/internal/logging"
	"github.com/nvandessel/wcimg/internal/metrics"
	"github.com/nvandessel/wcimg/internal/sampling"
	"github.com/nvandessel/wcimg/internal/signature"
	"github.com/nvandessel/wcimg/internal/tap"
)

// Event is one undrifted cluster graph and its index.
type Event struct {
	// Source is the file the graph was read from.
	Source string
	// Graph is the position of the graph within Source.
	Graph int
	Index *cluster.Index
}

// Summary is the inspect view of one event.
type Summary struct {
	Source      string         `json:"source"`
	Graph       int            `json:"graph"`
	Nodes       int            `json:"nodes"`
	Edges       int            `json:"edges"`
	Counts      map[string]int `json:"counts"`
	BlobCharge  float64        `json:"blob_charge"`
	SliceCharge float64        `json:"slice_charge"`
}

// ActivityResult holds the histograms of one event.
type ActivityResult struct {
	Activity *activity.Histogram
	Mask     *activity.Histogram
	// Comparison is nil unless a mask was painted.
	Comparison *activity.Comparison
	Groups     []int
	// KnownPlanes is false when the channel count had no plane table.
	KnownPlanes bool
	Boundaries  []int
	// RangeErr is activity.ErrDegenerateRange when no cell is positive.
	RangeErr error
	Min, Max float64
}

// Runner carries the parameters and reporting sinks for a command.
// Logger must be set; Decisions and Metrics may be nil.
type Runner struct {
	Command   string
	Params    *config.Params
	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
	Metrics   *metrics.Registry
}

// NewRunner creates a runner for command. A nil logger discards output.
func NewRunner(command string, params *config.Params, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{Command: command, Params: params, Logger: logger}
}

// Load reads every graph in path, undrifts it and indexes it.
func (r *Runner) Load(path string) ([]Event, error) {
	stop := r.Metrics.Time("load")
	graphs, err := tap.Load(path)
	stop()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	events := make([]Event, 0, len(graphs))
	for i, g := range graphs {
		ev := Event{Source: path, Graph: i, Index: cluster.NewIndex(cluster.Undrift(g, r.Params.Drift))}
		r.Metrics.RecordEvent(r.Command, g.Len() == 0)
		if g.Len() == 0 {
			r.Logger.Debug("empty cluster graph", "source", path, "graph", i)
		}
		events = append(events, ev)
	}
	r.Logger.Debug("loaded cluster graphs", "source", path, "count", len(events), "drift", r.Params.Drift.String())
	return events, nil
}

// LoadAll loads several files in order.
func (r *Runner) LoadAll(paths []string) ([]Event, error) {
	var all []Event
	for _, p := range paths {
		events, err := r.Load(p)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return all, nil
}

// Summarize returns node counts and total charges for ev.
func Summarize(ev Event) Summary {
	g := ev.Index.Graph()
	counts := make(map[string]int)
	for k, n := range ev.Index.Counts() {
		counts[k.String()] = n
	}
	return Summary{
		Source:      ev.Source,
		Graph:       ev.Graph,
		Nodes:       g.Len(),
		Edges:       g.EdgeCount(),
		Counts:      counts,
		BlobCharge:  ev.Index.TotalBlobCharge(),
		SliceCharge: ev.Index.TotalSliceCharge(),
	}
}

// Signatures appends the signature rows of ev to m, creating m if nil.
func (r *Runner) Signatures(m *signature.Matrix, ev Event) (*signature.Matrix, error) {
	if m == nil {
		m = &signature.Matrix{}
	}
	defer r.Metrics.Time("signature")()

	rows, skipped := m.Len(), m.Skipped
	if err := m.Append(ev.Index, r.Params.Extractor, r.Params.ValueScale); err != nil {
		return nil, fmt.Errorf("%s graph %d: %w", ev.Source, ev.Graph, err)
	}
	kept, dropped := m.Len()-rows, m.Skipped-skipped
	r.Metrics.RecordBlobs(r.Command, kept, dropped)

	for _, ident := range m.SkippedIdents[len(m.SkippedIdents)-dropped:] {
		r.Logger.Log(context.Background(), logging.LevelTrace, "blob has no signature", "source", ev.Source, "graph", ev.Graph, "ident", ident)
		r.Decisions.SkippedBlob(ev.Source, ev.Graph, ident, "missing wires in a plane")
	}
	if dropped > 0 {
		r.Logger.Debug("skipped blobs without signature", "source", ev.Source, "graph", ev.Graph, "count", dropped)
	}
	return m, nil
}

// Activity fills the activity histogram of ev. With mask set it also
// paints the blob mask and compares the two. A non-nil window restricts
// the slice columns.
func (r *Runner) Activity(ev Event, mask bool, window *activity.Range) (*ActivityResult, error) {
	defer r.Metrics.Time("activity")()

	act, err := activity.Build(ev.Index, r.Params.Extractor.Focus)
	if err != nil {
		return nil, fmt.Errorf("%s graph %d: %w", ev.Source, ev.Graph, err)
	}
	res := &ActivityResult{Activity: act}
	if mask {
		res.Mask = act.Like()
		res.Mask.PaintBlobs(ev.Index, r.Params.Offsets)
	}
	if window != nil {
		res.Activity = res.Activity.Window(window.Lo, window.Hi)
		if res.Mask != nil {
			res.Mask = res.Mask.Window(window.Lo, window.Hi)
		}
	}
	if res.Mask != nil {
		cmp, err := activity.Compare(res.Activity, res.Mask)
		if err != nil {
			return nil, err
		}
		res.Comparison = cmp
	}

	res.Groups, res.KnownPlanes = cluster.DivinePlanes(act.Channels.Hi)
	if !res.KnownPlanes && !act.Empty() {
		r.Logger.Warn("no plane table for channel count, using one group", "source", ev.Source, "channels", act.Channels.Hi)
		r.Decisions.PlaneFallback(ev.Source, act.Channels.Hi)
		r.Metrics.RecordPlaneFallback()
	}
	res.Boundaries = res.Activity.PlaneBoundaries(res.Groups)

	res.Min, res.Max, res.RangeErr = res.Activity.ValueRange()
	if res.RangeErr != nil && !act.Empty() {
		r.Logger.Warn("activity histogram has no positive cells", "source", ev.Source, "graph", ev.Graph)
	}
	return res, nil
}

// Points samples every blob of ev.
func (r *Runner) Points(ev Event) []sampling.Point {
	defer r.Metrics.Time("sampling")()

	pts, skipped := sampling.BlobPoints(ev.Index, r.Params.Sampler)
	r.Metrics.RecordPoints(len(pts))
	r.Metrics.RecordBlobs(r.Command, len(ev.Index.NodesOfType(cluster.KindBlob))-skipped, skipped)
	if skipped > 0 {
		r.Logger.Debug("skipped blobs without corners", "source", ev.Source, "graph", ev.Graph, "count", skipped)
		r.Decisions.UnsampledBlobs(ev.Source, ev.Graph, skipped, "no corners")
	}
	return pts
}
