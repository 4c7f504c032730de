package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{" Debug ", slog.LevelDebug},
		{"warn", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%d) should be below LevelDebug", LevelTrace)
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level                 string
		trace, debug, warning bool
	}{
		{"info", false, false, true},
		{"debug", false, true, true},
		{"trace", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)
			logger.Log(context.Background(), LevelTrace, "per blob", "ident", 7)
			logger.Debug("per graph")
			logger.Warn("unknown plane table")
			out := buf.String()

			if got := strings.Contains(out, "per blob"); got != tt.trace {
				t.Errorf("trace visible = %v, want %v", got, tt.trace)
			}
			if got := strings.Contains(out, "per graph"); got != tt.debug {
				t.Errorf("debug visible = %v, want %v", got, tt.debug)
			}
			if got := strings.Contains(out, "unknown plane table"); got != tt.warning {
				t.Errorf("warn visible = %v, want %v", got, tt.warning)
			}
			if tt.trace && !strings.Contains(out, "level=TRACE") {
				t.Errorf("trace record not labelled: %q", out)
			}
		})
	}
}

func readDecisions(t *testing.T, dir string) []Decision {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, DecisionFile))
	if err != nil {
		t.Fatalf("open decision log: %v", err)
	}
	defer f.Close()

	var out []Decision
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var d Decision
		if err := json.Unmarshal(sc.Bytes(), &d); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		out = append(out, d)
	}
	return out
}

func TestNewDecisionLogger_InfoIsNil(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "info")
	if dl != nil {
		t.Fatal("expected nil DecisionLogger at info level")
	}

	dl.SkippedBlob("a.json", 0, 1, "nil")
	dl.UnsampledBlobs("a.json", 0, 1, "nil")
	dl.PlaneFallback("a.json", 1)
	dl.Record(Decision{Event: "x"})
	dl.Close()

	if _, err := os.Stat(filepath.Join(dir, DecisionFile)); !os.IsNotExist(err) {
		t.Errorf("decision log should not exist at info level, stat err = %v", err)
	}
}

func TestDecisionLogger_DomainEvents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	dl := NewDecisionLogger(dir, "trace")
	if dl == nil {
		t.Fatal("expected a decision logger at trace level")
	}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	dl.now = func() time.Time { return fixed }

	dl.SkippedBlob("event.json", 1, 42, "no wires in plane w")
	dl.UnsampledBlobs("event.json", 1, 3, "no corners")
	dl.PlaneFallback("event.json", 999)
	dl.Close()
	dl.PlaneFallback("event.json", 1000)

	got := readDecisions(t, dir)
	want := []Decision{
		{Time: fixed, Event: EventBlobSkipped, Source: "event.json", Graph: 1, Ident: 42, Reason: "no wires in plane w"},
		{Time: fixed, Event: EventBlobsUnsample, Source: "event.json", Graph: 1, Count: 3, Reason: "no corners"},
		{Time: fixed, Event: EventPlaneFallback, Source: "event.json", Channels: 999},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Time.Equal(want[i].Time) {
			t.Errorf("record %d time = %v, want %v", i, got[i].Time, want[i].Time)
		}
		got[i].Time = want[i].Time
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDecisionLogger_KeepsCallerTime(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "debug")
	defer dl.Close()

	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	dl.Record(Decision{Time: at, Event: "custom"})
	dl.Close()

	got := readDecisions(t, dir)
	if len(got) != 1 || !got[0].Time.Equal(at) || got[0].Event != "custom" {
		t.Errorf("records = %+v", got)
	}
}

func TestDecisionLogger_AppendsAndPermissions(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		dl := NewDecisionLogger(dir, "debug")
		dl.PlaneFallback("a.json", i)
		dl.Close()
	}
	if got := readDecisions(t, dir); len(got) != 2 {
		t.Errorf("expected records from both sessions, got %d", len(got))
	}

	info, err := os.Stat(filepath.Join(dir, DecisionFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestDecisionLogger_Concurrent(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "debug")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(ident int) {
			defer wg.Done()
			dl.SkippedBlob("a.json", 0, ident, "test")
		}(i)
	}
	wg.Wait()
	dl.Close()

	if got := readDecisions(t, dir); len(got) != 50 {
		t.Errorf("got %d records, want 50", len(got))
	}
}

func TestNewDecisionLogger_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if dl := NewDecisionLogger(filepath.Join(file, "sub"), "debug"); dl != nil {
		t.Error("expected nil logger when the directory cannot be created")
	}
}
