package report

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/stackscope/pkg/goroutine"
)

type jsonGroup struct {
	Signature  string             `json:"signature"`
	Count      int                `json:"count"`
	MaxWait    int                `json:"max_wait_minutes"`
	MaxState   string             `json:"max_state"`
	Goroutines []goroutine.Record `json:"goroutines"`
}

type jsonReport struct {
	Total  int         `json:"total"`
	Groups []jsonGroup `json:"groups"`
}

// WriteJSON writes all groups, ranked by size with no minimum, as indented
// JSON.
func WriteJSON(w io.Writer, records []goroutine.Record) error {
	groups := Rank(GroupRecords(records), 0, false)
	out := jsonReport{Total: len(records), Groups: make([]jsonGroup, 0, len(groups))}
	for _, g := range groups {
		out.Groups = append(out.Groups, jsonGroup{
			Signature:  g.Signature,
			Count:      g.Count(),
			MaxWait:    g.MaxWait,
			MaxState:   g.MaxState,
			Goroutines: g.Records,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
