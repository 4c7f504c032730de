// Package store defines the RunStore interface for cataloging analysis runs
// and the signature matrices they produced, so dumps can be compared
// across runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/wcimg/internal/signature"
)

// ErrRunNotFound is returned when a run id is not in the catalog.
var ErrRunNotFound = errors.New("store: run not found")

// Run describes one invocation of an analysis command.
type Run struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Label     string    `json:"label,omitempty"`
	Params    string    `json:"params,omitempty"` // JSON snapshot of the resolved configuration
	CreatedAt time.Time `json:"created_at"`
}

// Event is one cluster graph processed within a run.
type Event struct {
	Source  string `json:"source"`
	Graph   int    `json:"graph"`
	Blobs   int    `json:"blobs"`
	Skipped int    `json:"skipped"`
}

// Diff lists signature rows present in only one of two runs. Rows are
// compared on their signature columns; blob value and ident are ignored.
type Diff struct {
	RunA    string      `json:"run_a"`
	RunB    string      `json:"run_b"`
	Common  int         `json:"common"`
	OnlyInA [][]float64 `json:"only_in_a"`
	OnlyInB [][]float64 `json:"only_in_b"`
}

// RunStore records runs, their events and signature matrices.
type RunStore interface {
	// RecordRun stores a run and returns its id. A fresh id is assigned
	// when run.ID is empty.
	RecordRun(ctx context.Context, run Run) (string, error)

	// RecordEvent stores one event of a run with its signature matrix.
	RecordEvent(ctx context.Context, runID string, ev Event, m *signature.Matrix) error

	// Runs lists all runs, newest first.
	Runs(ctx context.Context) ([]Run, error)

	// Signatures returns every signature row recorded for a run, sorted.
	Signatures(ctx context.Context, runID string) ([][]float64, error)

	// DiffRuns compares the signatures of two runs.
	DiffRuns(ctx context.Context, a, b string) (*Diff, error)

	Close() error
}
