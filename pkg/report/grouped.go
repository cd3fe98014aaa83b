package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/stackscope/pkg/goroutine"
)

// WriteGrouped prints every group, unfiltered, with its five
// longest-waiting goroutines.
func WriteGrouped(w io.Writer, records []goroutine.Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "\nTop goroutines by time for each function:")
	fmt.Fprintln(bw, strings.Repeat("-", 80))

	for _, g := range GroupRecords(records) {
		fmt.Fprintf(bw, "\nFunction: %s (Total goroutines: %d)\n", g.Signature, g.Count())
		fmt.Fprintln(bw, strings.Repeat("-", 40))
		for _, r := range g.Longest(exampleCount) {
			fmt.Fprintf(bw, "Goroutine %d [%s]", r.ID, r.State)
			if r.WaitMinutes > 0 {
				fmt.Fprintf(bw, " (%d minutes)", r.WaitMinutes)
			}
			if r.CreatedByFunction != "" {
				fmt.Fprintf(bw, " created by %s", r.CreatedByFunction)
			}
			fmt.Fprintln(bw)
		}
	}
	return bw.Flush()
}
