// Package export writes analysis results in the formats consumed by
// downstream viewers and scripts.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/wcimg/internal/signature"
)

// Thresholds are the blob value cuts summarized after a text dump.
var Thresholds = []float64{-1, 300, 1000, 10000, 100000}

// WriteSignatureText writes one line per signature row followed by
// threshold summaries. Wire upper bounds are printed as exclusive edges.
func WriteSignatureText(w io.Writer, m *signature.Matrix) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "rows: %d, skipped: %d\n", m.Len(), m.Skipped)
	for _, r := range m.Rows {
		fmt.Fprintf(bw, "[%s %s] %s : %s , %s : %s , %s : %s [%s %s %s] [%s %s %s] [%s] %s\n",
			num(r[signature.ColTmin]), num(r[signature.ColTmax]),
			num(r[signature.ColUMin]), num(r[signature.ColUMax]+1),
			num(r[signature.ColVMin]), num(r[signature.ColVMax]+1),
			num(r[signature.ColWMin]), num(r[signature.ColWMax]+1),
			num(r[signature.ColUStatus]), num(r[signature.ColVStatus]), num(r[signature.ColWStatus]),
			num(r[signature.ColUMeas]), num(r[signature.ColVMeas]), num(r[signature.ColWMeas]),
			num(r[signature.ColNSlices]),
			num(r[signature.ColValue]))
	}

	fmt.Fprintf(bw, "sum > -1 %s\n", num(sumAbove(m, -1)))
	fmt.Fprintf(bw, "sum > 300 %s\n", num(sumAbove(m, 300)))
	for _, th := range Thresholds {
		fmt.Fprintf(bw, "> %s %d\n", num(th), m.CountAbove(th))
	}
	return bw.Flush()
}

func sumAbove(m *signature.Matrix, v float64) float64 {
	var s float64
	for _, r := range m.Rows {
		if r[signature.ColValue] > v {
			s += r[signature.ColValue]
		}
	}
	return s
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
