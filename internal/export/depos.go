package export

import (
	"encoding/json"
	"io"

	"github.com/nvandessel/wcimg/internal/depo"
)

// WriteDeposJSON writes depositions in the same {"depos": [...]} form the
// loader reads.
func WriteDeposJSON(w io.Writer, s depo.Set) error {
	if s == nil {
		s = depo.Set{}
	}
	return json.NewEncoder(w).Encode(struct {
		Depos depo.Set `json:"depos"`
	}{s})
}
