// Package logging sets up wcimg's two log streams: a leveled slog.Logger
// on stderr for operational messages, and a DecisionLogger that appends
// one JSON record per analysis decision (skipped blobs, plane table
// fallbacks) to <dir>/decisions.jsonl when debug output is on.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-blob detail.
const LevelTrace = slog.LevelDebug - 4

// DecisionFile is the name of the decision log inside its directory.
const DecisionFile = "decisions.jsonl"

// Decision event names.
const (
	EventBlobSkipped   = "blob_skipped"
	EventBlobsUnsample = "blobs_unsampled"
	EventPlaneFallback = "plane_table_fallback"
)

// ParseLevel maps "info", "debug" or "trace" (any case) to a slog.Level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger writing to w at the given level. Trace
// records are labelled TRACE.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: labelTrace,
	}))
}

func labelTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// Decision is one record of the decision log. Zero-valued optional fields
// are omitted.
type Decision struct {
	Time     time.Time `json:"time"`
	Event    string    `json:"event"`
	Source   string    `json:"source,omitempty"`
	Graph    int       `json:"graph"`
	Ident    int       `json:"ident,omitempty"`
	Channels int       `json:"channels,omitempty"`
	Count    int       `json:"count,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

// DecisionLogger appends Decisions to a JSONL file. It is safe for
// concurrent use, and every method is a no-op on a nil receiver so callers
// never need to check whether decision logging is on.
type DecisionLogger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewDecisionLogger opens dir/decisions.jsonl for appending. It returns nil
// at info level or when the file cannot be opened.
func NewDecisionLogger(dir string, level string) *DecisionLogger {
	if ParseLevel(level) >= slog.LevelInfo {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, DecisionFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &DecisionLogger{file: f, now: time.Now}
}

// Record writes d as one line, stamping Time when it is zero.
func (dl *DecisionLogger) Record(d Decision) {
	if dl == nil {
		return
	}
	if d.Time.IsZero() {
		d.Time = dl.now().UTC()
	}
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	data = append(data, '\n')

	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		_, _ = dl.file.Write(data)
	}
}

// SkippedBlob records a blob left out of a signature dump.
func (dl *DecisionLogger) SkippedBlob(source string, graph, ident int, reason string) {
	dl.Record(Decision{Event: EventBlobSkipped, Source: source, Graph: graph, Ident: ident, Reason: reason})
}

// UnsampledBlobs records how many blobs of a graph produced no points.
func (dl *DecisionLogger) UnsampledBlobs(source string, graph, count int, reason string) {
	dl.Record(Decision{Event: EventBlobsUnsample, Source: source, Graph: graph, Count: count, Reason: reason})
}

// PlaneFallback records a channel count with no known plane table.
func (dl *DecisionLogger) PlaneFallback(source string, nch int) {
	dl.Record(Decision{Event: EventPlaneFallback, Source: source, Channels: nch})
}

// Close closes the file. Later records are dropped.
func (dl *DecisionLogger) Close() {
	if dl == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		dl.file.Close()
		dl.file = nil
	}
}
