package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/matzehuels/stackscope/pkg/goroutine"
)

// CSVHeader is the fixed column order of [WriteCSV].
var CSVHeader = []string{
	"goroutine_id",
	"state",
	"time_minutes",
	"top_function",
	"created_by_function",
	"created_by_goroutine",
}

// WriteCSV writes one row per record after a header row. Missing creator
// fields, and a creator id of 0, are written as empty strings.
func WriteCSV(w io.Writer, records []goroutine.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		createdBy := ""
		if r.HasCreatedByTask && r.CreatedByTask != 0 {
			createdBy = strconv.Itoa(r.CreatedByTask)
		}
		row := []string{
			strconv.Itoa(r.ID),
			r.State,
			strconv.Itoa(r.WaitMinutes),
			r.TopFunction,
			r.CreatedByFunction,
			createdBy,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
