package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/nvandessel/wcimg/internal/signature"
)

func openTestStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func row(tmin, ident float64) []float64 {
	r := make([]float64, signature.MatrixWidth)
	r[signature.ColTmin] = tmin
	r[signature.ColTmax] = tmin + 2
	r[signature.ColValue] = 100 * tmin
	r[signature.ColIdent] = ident
	return r
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.RecordRun(ctx, Run{Command: "dump-blobs", Label: "baseline", Params: `{"tick":500}`})
	require.NoError(t, err)
	assert.Len(t, id, 36, "expected a uuid")

	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.RecordRun(ctx, Run{ID: "fixed", Command: "bee-blobs", CreatedAt: older})
	require.NoError(t, err)

	_, err = s.RecordRun(ctx, Run{ID: "fixed", Command: "bee-blobs"})
	assert.Error(t, err, "duplicate id should fail")

	_, err = s.RecordRun(ctx, Run{})
	assert.Error(t, err, "command is required")

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "baseline", runs[0].Label)
	assert.Equal(t, "fixed", runs[1].ID)
	assert.True(t, runs[1].CreatedAt.Equal(older))
}

func TestRecordEvent_Signatures(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	runID, err := s.RecordRun(ctx, Run{Command: "dump-blobs"})
	require.NoError(t, err)

	first := &signature.Matrix{Rows: [][]float64{row(5, 1), row(1, 2)}}
	second := &signature.Matrix{Rows: [][]float64{row(3, 3)}, Skipped: 1}
	require.NoError(t, s.RecordEvent(ctx, runID, Event{Source: "a.json", Blobs: 2}, first))
	require.NoError(t, s.RecordEvent(ctx, runID, Event{Source: "a.json", Graph: 1, Blobs: 1, Skipped: 1}, second))
	require.NoError(t, s.RecordEvent(ctx, runID, Event{Source: "empty.json"}, nil))

	rows, err := s.Signatures(ctx, runID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []float64{1, 3, 5}, []float64{rows[0][0], rows[1][0], rows[2][0]})
	assert.Equal(t, row(3, 3), rows[1])

	err = s.RecordEvent(ctx, "missing", Event{}, first)
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, err = s.Signatures(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	bad := &signature.Matrix{Rows: [][]float64{{1, 2, 3}}}
	err = s.RecordEvent(ctx, runID, Event{}, bad)
	assert.True(t, errors.Is(err, signature.ErrShape))
}

func TestDiffRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.RecordRun(ctx, Run{Command: "dump-blobs"})
	require.NoError(t, err)
	b, err := s.RecordRun(ctx, Run{Command: "dump-blobs"})
	require.NoError(t, err)

	// Identical signatures with different idents still match.
	require.NoError(t, s.RecordEvent(ctx, a, Event{}, &signature.Matrix{Rows: [][]float64{row(1, 1), row(2, 2), row(2, 3)}}))
	require.NoError(t, s.RecordEvent(ctx, b, Event{}, &signature.Matrix{Rows: [][]float64{row(1, 9), row(2, 8), row(4, 7)}}))

	d, err := s.DiffRuns(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Common)
	require.Len(t, d.OnlyInA, 1)
	require.Len(t, d.OnlyInB, 1)
	assert.Equal(t, 2.0, d.OnlyInA[0][signature.ColTmin])
	assert.Equal(t, 4.0, d.OnlyInB[0][signature.ColTmin])

	_, err = s.DiffRuns(ctx, a, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.RecordRun(ctx, Run{Command: "inspect"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, path, s.Path())
}

func TestInitSchema_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "twice.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InitSchema(ctx, db))
	require.NoError(t, InitSchema(ctx, db))

	var n, version int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(version) FROM schema_version`).Scan(&n, &version))
	assert.Equal(t, 1, n)
	assert.Equal(t, SchemaVersion, version)
}

func TestInitSchema_NewerVersion(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "future.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InitSchema(ctx, db))
	_, err = db.ExecContext(ctx, `INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, SchemaVersion+1)
	require.NoError(t, err)

	err = InitSchema(ctx, db)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestValidateIntegrity(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "ok.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InitSchema(ctx, db))
	assert.NoError(t, ValidateIntegrity(ctx, db))
}

func TestMatrixCodec(t *testing.T) {
	rows := [][]float64{row(1, 1), row(-1, 2)}
	blob, err := encodeMatrix(rows, signature.MatrixWidth)
	require.NoError(t, err)

	back, err := decodeMatrix(blob, signature.MatrixWidth, 2)
	require.NoError(t, err)
	assert.Equal(t, rows, back)

	_, err = decodeMatrix(blob, signature.MatrixWidth, 3)
	assert.Error(t, err)
	_, err = decodeMatrix([]byte("not snappy"), signature.MatrixWidth, 1)
	assert.Error(t, err)
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, DefaultDBName, filepath.Base(path))
	assert.Equal(t, ".wcimg", filepath.Base(filepath.Dir(path)))
}
