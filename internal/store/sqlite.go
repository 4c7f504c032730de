package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/wcimg/internal/signature"
)

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// Open opens or creates the catalog at path, creating parent directories.
func Open(path string) (*SQLiteRunStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: path}, nil
}

// Path returns the database path.
func (s *SQLiteRunStore) Path() string {
	return s.dbPath
}

// RecordRun implements RunStore.
func (s *SQLiteRunStore) RecordRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.Command == "" {
		return "", fmt.Errorf("run command is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, label, params, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Label, run.Params, run.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return run.ID, nil
}

// RecordEvent implements RunStore.
func (s *SQLiteRunStore) RecordEvent(ctx context.Context, runID string, ev Event, m *signature.Matrix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows [][]float64
	if m != nil {
		rows = m.Rows
	}
	width := signature.MatrixWidth
	blob, err := encodeMatrix(rows, width)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := runExists(ctx, tx, runID); err != nil {
		return err
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM events WHERE run_id = ?`, runID).Scan(&seq); err != nil {
		return fmt.Errorf("failed to allocate event sequence: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (run_id, seq, source, graph, blobs, skipped, width, nrows, matrix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, ev.Source, ev.Graph, ev.Blobs, ev.Skipped, width, len(rows), blob); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return tx.Commit()
}

// Runs implements RunStore.
func (s *SQLiteRunStore) Runs(ctx context.Context) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, COALESCE(label, ''), COALESCE(params, ''), created_at
		 FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Command, &r.Label, &r.Params, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run time %q: %w", created, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Signatures implements RunStore.
func (s *SQLiteRunStore) Signatures(ctx context.Context, runID string) ([][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signatures(ctx, runID)
}

func (s *SQLiteRunStore) signatures(ctx context.Context, runID string) ([][]float64, error) {
	if err := runExists(ctx, s.db, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT width, nrows, matrix FROM events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out [][]float64
	for rows.Next() {
		var width, nrows int
		var blob []byte
		if err := rows.Scan(&width, &nrows, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		m, err := decodeMatrix(blob, width, nrows)
		if err != nil {
			return nil, err
		}
		out = append(out, m...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := signature.Sort(out); err != nil {
		return nil, err
	}
	return out, nil
}

// DiffRuns implements RunStore.
func (s *SQLiteRunStore) DiffRuns(ctx context.Context, a, b string) (*Diff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rowsA, err := s.signatures(ctx, a)
	if err != nil {
		return nil, err
	}
	rowsB, err := s.signatures(ctx, b)
	if err != nil {
		return nil, err
	}
	return diffRows(a, b, rowsA, rowsB), nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func runExists(ctx context.Context, q querier, runID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	return nil
}

type sigKey [signature.RowWidth]float64

// diffRows compares two sorted row sets as multisets over their signature
// columns.
func diffRows(a, b string, rowsA, rowsB [][]float64) *Diff {
	d := &Diff{RunA: a, RunB: b, OnlyInA: [][]float64{}, OnlyInB: [][]float64{}}

	count := make(map[sigKey]int, len(rowsB))
	for _, r := range rowsB {
		count[sigKey(r[:signature.RowWidth])]++
	}
	for _, r := range rowsA {
		k := sigKey(r[:signature.RowWidth])
		if count[k] > 0 {
			count[k]--
			d.Common++
			continue
		}
		d.OnlyInA = append(d.OnlyInA, r)
	}
	for _, r := range rowsB {
		k := sigKey(r[:signature.RowWidth])
		if count[k] > 0 {
			count[k]--
			d.OnlyInB = append(d.OnlyInB, r)
		}
	}
	return d
}

func encodeMatrix(rows [][]float64, width int) ([]byte, error) {
	raw := make([]byte, 0, len(rows)*width*8)
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", signature.ErrShape, i, len(r), width)
		}
		for _, v := range r {
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
		}
	}
	return snappy.Encode(nil, raw), nil
}

func decodeMatrix(blob []byte, width, nrows int) ([][]float64, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress matrix: %w", err)
	}
	if len(raw) != width*nrows*8 {
		return nil, fmt.Errorf("matrix blob has %d bytes, want %d", len(raw), width*nrows*8)
	}
	rows := make([][]float64, nrows)
	for i := range rows {
		row := make([]float64, width)
		for j := range row {
			off := (i*width + j) * 8
			row[j] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
		}
		rows[i] = row
	}
	return rows, nil
}
