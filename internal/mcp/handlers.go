package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/wcimg/internal/activity"
	"github.com/nvandessel/wcimg/internal/analysis"
	"github.com/nvandessel/wcimg/internal/cluster"
	"github.com/nvandessel/wcimg/internal/pathutil"
	"github.com/nvandessel/wcimg/internal/ratelimit"
	"github.com/nvandessel/wcimg/internal/signature"
	"github.com/nvandessel/wcimg/internal/visualization"
)

// defaultRowLimit caps wcimg_signatures output when no limit is given.
const defaultRowLimit = 1000

// registerTools registers all wcimg MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "wcimg_inspect",
		Description: "Summarize the cluster graphs in a file: node counts per kind and total blob and slice charge",
	}, s.handleInspect)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "wcimg_signatures",
		Description: "Extract the sorted blob signature matrix (time bounds, wire bounds, channel status, measurements) from a cluster graph file",
	}, s.handleSignatures)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "wcimg_activity",
		Description: "Build the channel by slice activity histogram of a cluster graph, optionally compared against the blob mask",
	}, s.handleActivity)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "wcimg_graph",
		Description: "Render a cluster graph, or one node and its neighbors, as DOT (Graphviz) or JSON",
	}, s.handleGraph)
}

// params collects tool arguments for the audit log, dropping unset
// optional ones.
func params(kv ...interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		switch v := kv[i+1].(type) {
		case *int:
			if v != nil {
				out[kv[i].(string)] = *v
			}
		default:
			out[kv[i].(string)] = v
		}
	}
	return out
}

// load resolves path under the data roots and loads its events.
func (s *Server) load(command, path string) ([]analysis.Event, *analysis.Runner, error) {
	resolved, err := pathutil.ResolveDataFile(path, s.roots)
	if err != nil {
		return nil, nil, err
	}
	r := analysis.NewRunner(command, s.params, s.logger)
	r.Decisions = s.decisions
	r.Metrics = s.metrics
	events, err := r.Load(resolved)
	if err != nil {
		return nil, nil, err
	}
	return events, r, nil
}

func pick(events []analysis.Event, graph int) (analysis.Event, error) {
	if graph < 0 || graph >= len(events) {
		return analysis.Event{}, fmt.Errorf("graph %d out of range (file has %d)", graph, len(events))
	}
	return events[graph], nil
}

// handleInspect implements the wcimg_inspect tool.
func (s *Server) handleInspect(ctx context.Context, req *sdk.CallToolRequest, args InspectInput) (_ *sdk.CallToolResult, _ InspectOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("wcimg_inspect", start, retErr, sanitizeToolParams(params("path", args.Path)))
	}()

	if err := ratelimit.CheckLimit(s.limits, "wcimg_inspect"); err != nil {
		return nil, InspectOutput{}, err
	}

	events, _, err := s.load("inspect", args.Path)
	if err != nil {
		return nil, InspectOutput{}, err
	}

	out := InspectOutput{Graphs: make([]analysis.Summary, 0, len(events))}
	for _, ev := range events {
		sum := analysis.Summarize(ev)
		sum.Source = pathutil.RedactPath(sum.Source)
		out.Graphs = append(out.Graphs, sum)
	}
	out.Count = len(out.Graphs)
	return nil, out, nil
}

// handleSignatures implements the wcimg_signatures tool.
func (s *Server) handleSignatures(ctx context.Context, req *sdk.CallToolRequest, args SignaturesInput) (_ *sdk.CallToolResult, _ SignaturesOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("wcimg_signatures", start, retErr, sanitizeToolParams(params(
			"path", args.Path, "graph", args.Graph, "limit", args.Limit)))
	}()

	if err := ratelimit.CheckLimit(s.limits, "wcimg_signatures"); err != nil {
		return nil, SignaturesOutput{}, err
	}

	if args.Limit < 0 {
		return nil, SignaturesOutput{}, fmt.Errorf("limit must be non-negative, got %d", args.Limit)
	}
	limit := args.Limit
	if limit == 0 {
		limit = defaultRowLimit
	}

	events, r, err := s.load("dump-blobs", args.Path)
	if err != nil {
		return nil, SignaturesOutput{}, err
	}
	if args.Graph != nil {
		ev, err := pick(events, *args.Graph)
		if err != nil {
			return nil, SignaturesOutput{}, err
		}
		events = []analysis.Event{ev}
	}

	m := &signature.Matrix{}
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, SignaturesOutput{}, err
		}
		if m, err = r.Signatures(m, ev); err != nil {
			return nil, SignaturesOutput{}, err
		}
	}

	out := SignaturesOutput{
		Columns: signature.Columns,
		Rows:    m.Rows,
		Total:   m.Len(),
		Skipped: m.Skipped,
	}
	if out.Rows == nil {
		out.Rows = [][]float64{}
	}
	if len(out.Rows) > limit {
		out.Rows = out.Rows[:limit]
		out.Truncated = true
	}
	return nil, out, nil
}

// handleActivity implements the wcimg_activity tool.
func (s *Server) handleActivity(ctx context.Context, req *sdk.CallToolRequest, args ActivityInput) (_ *sdk.CallToolResult, _ ActivityOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("wcimg_activity", start, retErr, sanitizeToolParams(params(
			"path", args.Path, "graph", args.Graph, "mask", args.Mask, "slice_lo", args.SliceLo, "slice_hi", args.SliceHi)))
	}()

	if err := ratelimit.CheckLimit(s.limits, "wcimg_activity"); err != nil {
		return nil, ActivityOutput{}, err
	}

	var window *activity.Range
	if args.SliceLo != nil || args.SliceHi != nil {
		if args.SliceLo == nil || args.SliceHi == nil {
			return nil, ActivityOutput{}, fmt.Errorf("slice_lo and slice_hi must be given together")
		}
		window = &activity.Range{Lo: *args.SliceLo, Hi: *args.SliceHi}
	}

	command := "activity"
	if args.Mask {
		command = "blob-activity-mask"
	}
	events, r, err := s.load(command, args.Path)
	if err != nil {
		return nil, ActivityOutput{}, err
	}
	ev, err := pick(events, args.Graph)
	if err != nil {
		return nil, ActivityOutput{}, err
	}

	res, err := r.Activity(ev, args.Mask, window)
	if err != nil {
		return nil, ActivityOutput{}, err
	}

	h := res.Activity
	out := ActivityOutput{
		Channels:        [2]int{h.Channels.Lo, h.Channels.Hi},
		Slices:          [2]int{h.Slices.Lo, h.Slices.Hi},
		Total:           h.Total(),
		PlaneGroups:     res.Groups,
		KnownPlanes:     res.KnownPlanes,
		PlaneBoundaries: res.Boundaries,
	}
	if out.PlaneBoundaries == nil {
		out.PlaneBoundaries = []int{}
	}
	out.NonZero = h.NonZero()
	if res.RangeErr == nil {
		out.Min, out.Max = &res.Min, &res.Max
	}
	if c := res.Comparison; c != nil {
		out.Found, out.Missed = &c.NFound, &c.NMissed
		out.FoundTotal, out.MissedTotal = &c.FoundTotal, &c.MissedTotal
	}
	return nil, out, nil
}

// handleGraph implements the wcimg_graph tool.
func (s *Server) handleGraph(ctx context.Context, req *sdk.CallToolRequest, args GraphInput) (_ *sdk.CallToolResult, _ GraphOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("wcimg_graph", start, retErr, sanitizeToolParams(params(
			"path", args.Path, "graph", args.Graph, "format", args.Format, "node", args.Node)))
	}()

	if err := ratelimit.CheckLimit(s.limits, "wcimg_graph"); err != nil {
		return nil, GraphOutput{}, err
	}

	format := args.Format
	if format == "" {
		format = string(visualization.FormatJSON)
	}
	f, err := visualization.ParseFormat(format)
	if err != nil {
		return nil, GraphOutput{}, err
	}

	events, _, err := s.load("graph", args.Path)
	if err != nil {
		return nil, GraphOutput{}, err
	}
	ev, err := pick(events, args.Graph)
	if err != nil {
		return nil, GraphOutput{}, err
	}

	g := ev.Index.Graph()
	if args.Node != nil {
		if g, err = visualization.Subgraph(g, cluster.NodeID(*args.Node)); err != nil {
			return nil, GraphOutput{}, err
		}
	}

	out := GraphOutput{
		Format:    string(f),
		NodeCount: g.Len(),
		EdgeCount: len(visualization.CollectEdges(g)),
	}
	switch f {
	case visualization.FormatDOT:
		out.Graph = visualization.RenderDOT(g)
	default:
		out.Graph = visualization.RenderJSON(g)
	}
	return nil, out, nil
}
