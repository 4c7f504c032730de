package mcp

import "github.com/nvandessel/wcimg/internal/analysis"

// InspectInput defines the input for the wcimg_inspect tool.
type InspectInput struct {
	Path string `json:"path" jsonschema:"cluster graph file, absolute or relative to the data root"`
}

// InspectOutput defines the output for the wcimg_inspect tool.
type InspectOutput struct {
	Graphs []analysis.Summary `json:"graphs" jsonschema:"per-graph node counts and total charges"`
	Count  int                `json:"count" jsonschema:"number of graphs in the file"`
}

// SignaturesInput defines the input for the wcimg_signatures tool.
type SignaturesInput struct {
	Path  string `json:"path" jsonschema:"cluster graph file, absolute or relative to the data root"`
	Graph *int   `json:"graph,omitempty" jsonschema:"index of a single graph in the file (default: all graphs)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of rows returned (default: 1000)"`
}

// SignaturesOutput defines the output for the wcimg_signatures tool.
type SignaturesOutput struct {
	Columns   []string    `json:"columns" jsonschema:"column names of each row"`
	Rows      [][]float64 `json:"rows" jsonschema:"sorted signature rows"`
	Total     int         `json:"total" jsonschema:"number of rows before the limit"`
	Skipped   int         `json:"skipped" jsonschema:"blobs without a signature"`
	Truncated bool        `json:"truncated" jsonschema:"whether rows were cut at the limit"`
}

// ActivityInput defines the input for the wcimg_activity tool.
type ActivityInput struct {
	Path    string `json:"path" jsonschema:"cluster graph file, absolute or relative to the data root"`
	Graph   int    `json:"graph,omitempty" jsonschema:"index of the graph in the file (default: 0)"`
	Mask    bool   `json:"mask,omitempty" jsonschema:"also paint the blob mask and report found and missed activity"`
	SliceLo *int   `json:"slice_lo,omitempty" jsonschema:"first slice ident of the window"`
	SliceHi *int   `json:"slice_hi,omitempty" jsonschema:"slice ident one past the window"`
}

// ActivityOutput defines the output for the wcimg_activity tool.
type ActivityOutput struct {
	Channels        [2]int   `json:"channels" jsonschema:"channel range [lo, hi)"`
	Slices          [2]int   `json:"slices" jsonschema:"slice ident range [lo, hi)"`
	Total           float64  `json:"total" jsonschema:"sum of all activity cells"`
	NonZero         int      `json:"nonzero" jsonschema:"number of nonzero activity cells"`
	Min             *float64 `json:"min,omitempty" jsonschema:"smallest positive cell, absent when none is positive"`
	Max             *float64 `json:"max,omitempty" jsonschema:"largest cell, absent when none is positive"`
	PlaneGroups     []int    `json:"plane_groups" jsonschema:"channel counts of the readout plane groups"`
	KnownPlanes     bool     `json:"known_planes" jsonschema:"false when the channel count had no plane table"`
	PlaneBoundaries []int    `json:"plane_boundaries" jsonschema:"histogram rows where plane groups end"`
	Found           *int     `json:"found,omitempty" jsonschema:"active cells covered by a blob (mask only)"`
	Missed          *int     `json:"missed,omitempty" jsonschema:"active cells no blob covers (mask only)"`
	FoundTotal      *float64 `json:"found_total,omitempty" jsonschema:"activity in found cells (mask only)"`
	MissedTotal     *float64 `json:"missed_total,omitempty" jsonschema:"activity in missed cells (mask only)"`
}

// GraphInput defines the input for the wcimg_graph tool.
type GraphInput struct {
	Path   string `json:"path" jsonschema:"cluster graph file, absolute or relative to the data root"`
	Graph  int    `json:"graph,omitempty" jsonschema:"index of the graph in the file (default: 0)"`
	Format string `json:"format,omitempty" jsonschema:"output format: dot or json (default: json)"`
	Node   *int   `json:"node,omitempty" jsonschema:"render only this node and its neighbors"`
}

// GraphOutput defines the output for the wcimg_graph tool.
type GraphOutput struct {
	Format    string      `json:"format" jsonschema:"format of graph"`
	Graph     interface{} `json:"graph" jsonschema:"DOT text or JSON object"`
	NodeCount int         `json:"node_count" jsonschema:"number of rendered nodes"`
	EdgeCount int         `json:"edge_count" jsonschema:"number of rendered edges"`
}
