package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/wcimg/internal/ratelimit"
)

// AuditFile is the audit log name inside the audit directory.
const AuditFile = "audit.jsonl"

// Audit statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusLimited = "rate_limited"
)

// AuditEntry records one MCP tool invocation. File contents and full
// paths are never recorded.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends entries to <dir>/audit.jsonl. Safe for concurrent
// use; a nil *AuditLogger discards everything.
type AuditLogger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewAuditLogger opens the audit log in dir, creating dir if needed.
func NewAuditLogger(dir string) (*AuditLogger, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, AuditFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &AuditLogger{f: f, enc: json.NewEncoder(f)}, nil
}

// Log appends entry as one JSON line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f != nil {
		_ = a.enc.Encode(entry)
	}
}

// Close closes the log. Later entries are dropped.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f, a.enc = nil, nil
	return err
}

type paramPolicy int

const (
	recordValue paramPolicy = iota + 1
	recordPresence
)

// auditParams lists the tool arguments that may appear in the audit log.
// Paths are recorded only as present.
var auditParams = map[string]paramPolicy{
	"path":     recordPresence,
	"graph":    recordValue,
	"limit":    recordValue,
	"mask":     recordValue,
	"slice_lo": recordValue,
	"slice_hi": recordValue,
	"format":   recordValue,
	"node":     recordValue,
}

// sanitizeToolParams applies auditParams to a tool's arguments, dropping
// unlisted ones. "_param_count" always holds the original count.
func sanitizeToolParams(params map[string]interface{}) map[string]string {
	if params == nil {
		return nil
	}
	out := map[string]string{"_param_count": strconv.Itoa(len(params))}
	for key, val := range params {
		switch auditParams[key] {
		case recordValue:
			out[key] = fmt.Sprint(val)
		case recordPresence:
			out[key] = "(set)"
		}
	}
	return out
}

func auditStatus(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ratelimit.ErrLimited):
		return StatusLimited
	default:
		return StatusError
	}
}

// auditTool logs a tool invocation to the audit log.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]string) {
	entry := AuditEntry{
		Timestamp:  start,
		Tool:       toolName,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     auditStatus(err),
		Params:     params,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.auditLogger.Log(entry)
}
