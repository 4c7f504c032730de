package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/nvandessel/wcimg/internal/activity"
	"github.com/nvandessel/wcimg/internal/depo"
	"github.com/nvandessel/wcimg/internal/sampling"
	"github.com/nvandessel/wcimg/internal/signature"
)

// Column is one named column of a table. Exactly one of Float or Int is set.
type Column struct {
	Name  string
	Float []float64
	Int   []int64
}

func (c Column) len() int {
	if c.Int != nil {
		return len(c.Int)
	}
	return len(c.Float)
}

// WriteArrow writes the columns as a single-record Arrow IPC file.
func WriteArrow(w io.Writer, cols []Column) error {
	if len(cols) == 0 {
		return fmt.Errorf("export: no columns")
	}
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		if c.len() != cols[0].len() {
			return fmt.Errorf("export: column %s has %d rows, want %d", c.Name, c.len(), cols[0].len())
		}
		typ := arrow.DataType(arrow.PrimitiveTypes.Float64)
		if c.Int != nil {
			typ = arrow.PrimitiveTypes.Int64
		}
		fields[i] = arrow.Field{Name: c.Name, Type: typ}
	}

	pool := memory.NewGoAllocator()
	schema := arrow.NewSchema(fields, nil)
	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	for i, c := range cols {
		if c.Int != nil {
			b.Field(i).(*array.Int64Builder).AppendValues(c.Int, nil)
		} else {
			b.Field(i).(*array.Float64Builder).AppendValues(c.Float, nil)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		return fmt.Errorf("export: arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("export: writing arrow record: %w", err)
	}
	return fw.Close()
}

// SignatureColumns lays a signature matrix out column by column.
func SignatureColumns(m *signature.Matrix) []Column {
	cols := make([]Column, len(signature.Columns))
	for i, name := range signature.Columns {
		cols[i] = Column{Name: name, Float: m.Column(i)}
	}
	return cols
}

// PointColumns lays sampled points out as x, y, z, q.
func PointColumns(pts []sampling.Point) []Column {
	x := make([]float64, len(pts))
	y := make([]float64, len(pts))
	z := make([]float64, len(pts))
	q := make([]float64, len(pts))
	for i, p := range pts {
		x[i], y[i], z[i], q[i] = p.X, p.Y, p.Z, p.Q
	}
	return []Column{{Name: "x", Float: x}, {Name: "y", Float: y}, {Name: "z", Float: z}, {Name: "q", Float: q}}
}

// HistogramColumns lists the nonzero histogram cells as channel, slice, value.
func HistogramColumns(h *activity.Histogram) []Column {
	ch := []int64{}
	sl := []int64{}
	val := []float64{}
	for i, row := range h.Rows() {
		for j, v := range row {
			if v == 0 {
				continue
			}
			ch = append(ch, int64(h.Channels.Lo+i))
			sl = append(sl, int64(h.Slices.Lo+j))
			val = append(val, v)
		}
	}
	return []Column{{Name: "channel", Int: ch}, {Name: "slice", Int: sl}, {Name: "value", Float: val}}
}

// DepoColumns lays depositions out in depo.Columns order.
func DepoColumns(s depo.Set) []Column {
	cols := make([]Column, len(depo.Columns))
	for i, name := range depo.Columns {
		cols[i] = Column{Name: string(name), Float: make([]float64, len(s))}
	}
	for j, dp := range s {
		for i, v := range dp.Row() {
			cols[i].Float[j] = v
		}
	}
	return cols
}
