package signature

import (
	"fmt"
	"math"
	"slices"

	"github.com/nvandessel/wcimg/internal/cluster"
)

// DefaultValueScale converts blob charge to the reference scale used by
// the text dump.
const DefaultValueScale = 1 / 0.8

// Matrix is the sorted signature table of one or more graphs.
type Matrix struct {
	// Rows have MatrixWidth columns each.
	Rows [][]float64
	// Skipped is the number of blobs without a signature.
	Skipped int
	// SkippedIdents lists the idents of the skipped blobs in graph order.
	SkippedIdents []int
}

// Dump extracts the signature of every blob, appends the scaled blob
// value truncated toward zero and the blob ident, and sorts the rows.
func Dump(ix *cluster.Index, ext Extractor, valueScale float64) (*Matrix, error) {
	m := &Matrix{}
	if err := m.Append(ix, ext, valueScale); err != nil {
		return nil, err
	}
	return m, nil
}

// Append adds the rows of another graph and re-sorts.
func (m *Matrix) Append(ix *cluster.Index, ext Extractor, valueScale float64) error {
	for _, id := range ix.NodesOfType(cluster.KindBlob) {
		b, _ := ix.Blob(id)
		row, ok := ext.Extract(ix, id)
		if !ok {
			m.Skipped++
			m.SkippedIdents = append(m.SkippedIdents, b.Ident)
			continue
		}
		full := make([]float64, 0, MatrixWidth)
		full = append(full, row...)
		full = append(full, math.Trunc(b.Value*valueScale), float64(b.Ident))
		m.Rows = append(m.Rows, full)
	}
	return Sort(m.Rows)
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// Column returns a copy of column c.
func (m *Matrix) Column(c int) []float64 {
	out := make([]float64, len(m.Rows))
	for i, r := range m.Rows {
		out[i] = r[c]
	}
	return out
}

// CountAbove returns how many rows have a scaled value strictly above v.
func (m *Matrix) CountAbove(v float64) int {
	n := 0
	for _, r := range m.Rows {
		if r[ColValue] > v {
			n++
		}
	}
	return n
}

// Sort orders rows lexicographically over all their columns. Sorting is
// stable, so a sorted table is unchanged by a second Sort.
func Sort(rows [][]float64) error {
	for i, r := range rows {
		if len(r) < RowWidth {
			return fmt.Errorf("%w: row %d has %d columns", ErrShape, i, len(r))
		}
	}
	slices.SortStableFunc(rows, slices.Compare[[]float64])
	return nil
}

// Merge appends the rows and skip records of o and re-sorts.
func (m *Matrix) Merge(o *Matrix) error {
	m.Rows = append(m.Rows, o.Rows...)
	m.Skipped += o.Skipped
	m.SkippedIdents = append(m.SkippedIdents, o.SkippedIdents...)
	return Sort(m.Rows)
}
