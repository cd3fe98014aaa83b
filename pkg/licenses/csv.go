package licenses

import (
	"encoding/csv"
	"io"
)

// WriteCSV prints the results as CSV with a Library,License header, plus a
// License File column when showPath is set.
func WriteCSV(w io.Writer, results []Result, showPath bool) error {
	cw := csv.NewWriter(w)
	header := []string{"Library", "License"}
	if showPath {
		header = append(header, "License File")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{r.Module, r.License}
		if showPath {
			row = append(row, r.File)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
