package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/wcimg/internal/activity"
	"github.com/nvandessel/wcimg/internal/depo"
	"github.com/nvandessel/wcimg/internal/sampling"
	"github.com/nvandessel/wcimg/internal/signature"
)

func sampleMatrix() *signature.Matrix {
	return &signature.Matrix{
		Rows: [][]float64{
			{0, 2, 5, 5, 7, 7, 3, 3, -1, -1, -1, 0, 0, 0, 1, 250, 7},
			{1, 3, 8, 9, 1, 2, 4, 6, 40, 0, 12, 1, 2, 3, 2, 12000, 8},
		},
		Skipped: 1,
	}
}

func TestWriteSignatureText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSignatureText(&buf, sampleMatrix()))
	out := buf.String()

	assert.Contains(t, out, "rows: 2, skipped: 1\n")
	assert.Contains(t, out, "[0 2] 5 : 6 , 7 : 8 , 3 : 4 [-1 -1 -1] [0 0 0] [1] 250\n")
	assert.Contains(t, out, "sum > -1 12250\n")
	assert.Contains(t, out, "sum > 300 12000\n")
	assert.Contains(t, out, "> 1000 1\n")
	assert.Contains(t, out, "> 100000 0\n")
	assert.Equal(t, 2+1+2+len(Thresholds), strings.Count(out, "\n"))
}

func TestWriteArrow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, SignatureColumns(sampleMatrix())))

	rdr, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer rdr.Close()

	require.Equal(t, 1, rdr.NumRecords())
	rec, err := rdr.Record(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, int64(signature.MatrixWidth), rec.NumCols())
	assert.Equal(t, "ident", rec.ColumnName(signature.ColIdent))
	assert.Equal(t, 8.0, rec.Column(signature.ColIdent).(*array.Float64).Value(1))
}

func TestWriteArrow_Histogram(t *testing.T) {
	h := activity.New(activity.Range{Lo: 10, Hi: 12}, activity.Range{Lo: 4, Hi: 6})
	h.Add(10, 5, 2)
	h.Add(11, 4, 3)
	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, HistogramColumns(h)))

	rdr, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer rdr.Close()
	rec, err := rdr.Record(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, int64(11), rec.Column(0).(*array.Int64).Value(1))
	assert.Equal(t, int64(4), rec.Column(1).(*array.Int64).Value(1))
}

func TestWriteArrow_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteArrow(&buf, nil))
	assert.Error(t, WriteArrow(&buf, []Column{
		{Name: "a", Float: []float64{1}},
		{Name: "b", Float: []float64{1, 2}},
	}))
}

func TestBee(t *testing.T) {
	b := NewBee(1, 2, 3, "uboone")
	b.Add([]sampling.Point{{X: 12.34567, Y: -5, Z: 1000, Q: 1.0 / 3}})

	var buf bytes.Buffer
	require.NoError(t, b.WriteJSON(&buf))
	out := buf.String()
	assert.Contains(t, out, `"x":[1.235]`)
	assert.Contains(t, out, `"y":[-0.500]`)
	assert.Contains(t, out, `"z":[100.000]`)
	assert.Contains(t, out, `"q":[0.333]`)
	assert.Contains(t, out, `"type":"wire-cell"`)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 3.0, doc["eventNo"])
	assert.Equal(t, 1, b.Len())
}

func TestBee_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewBee(0, 0, 0, "protodune").WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"x":[]`)
}

func TestHistogramDoc(t *testing.T) {
	h := activity.New(activity.Range{Lo: 0, Hi: 2}, activity.Range{Lo: 0, Hi: 2})
	h.Add(0, 1, 2)
	h.Add(1, 0, 3)
	doc := NewHistogramDoc(h, nil)
	doc.Add("activity", h)
	doc.Add("empty", &activity.Histogram{})

	var buf bytes.Buffer
	require.NoError(t, doc.WriteJSON(&buf))

	var back HistogramDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, [][]float64{{0, 2}, {3, 0}}, back.Grids["activity"])
	assert.Empty(t, back.Grids["empty"])
	require.NotNil(t, back.Range)
	assert.Equal(t, ValueRange{Min: 2, Max: 3}, *back.Range)
}

func TestDepoColumns(t *testing.T) {
	s := depo.Set{{T: 1, Q: 2, X: 3, Y: 4, Z: 5, L: 6, Tr: 7}, {T: 10, Q: 20}}
	cols := DepoColumns(s)
	require.Len(t, cols, 7)
	assert.Equal(t, "t", cols[0].Name)
	assert.Equal(t, "T", cols[6].Name)
	assert.Equal(t, []float64{3, 0}, cols[2].Float)
	assert.Equal(t, []float64{7, 0}, cols[6].Float)

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, cols))
}

func TestWriteDeposJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDeposJSON(&buf, depo.Set{{T: 1, Q: 2, Tr: 3}}))

	var doc struct {
		Depos []map[string]float64 `json:"depos"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Depos, 1)
	assert.Equal(t, 3.0, doc.Depos[0]["T"])
	assert.Equal(t, 1.0, doc.Depos[0]["t"])

	buf.Reset()
	require.NoError(t, WriteDeposJSON(&buf, nil))
	assert.JSONEq(t, `{"depos": []}`, buf.String())
}
