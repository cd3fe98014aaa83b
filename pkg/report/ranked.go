package report

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/matzehuels/stackscope/pkg/goroutine"
)

const (
	// DefaultMinCount is the smallest group shown by [WriteRanked].
	DefaultMinCount = 10

	// exampleCount is how many members are listed per group.
	exampleCount = 5
)

// RankedOptions configures [WriteRanked].
type RankedOptions struct {
	MinCount   int  // Groups smaller than this are hidden
	SortByWait bool // Rank by longest wait, then size, instead of size only
	Examples   bool // List the longest-waiting members of each group
	Calls      int  // Frames after the first to print from a representative member
}

// Rank returns the groups with at least minCount members, largest first.
// With byWait the longest wait ranks first and size breaks ties. Equal
// groups keep first-appearance order.
func Rank(groups []*Group, minCount int, byWait bool) []*Group {
	var ranked []*Group
	for _, g := range groups {
		if g.Count() >= minCount {
			ranked = append(ranked, g)
		}
	}
	slices.SortStableFunc(ranked, func(a, b *Group) int {
		if byWait {
			if c := cmp.Compare(b.MaxWait, a.MaxWait); c != 0 {
				return c
			}
		}
		return cmp.Compare(b.Count(), a.Count())
	})
	return ranked
}

// WriteRanked prints one line per surviving group:
//
//	<signature>\t\t<count>   [<state> <wait> min]
//
// followed by the representative frames and examples requested in opts.
func WriteRanked(w io.Writer, records []goroutine.Record, opts RankedOptions) error {
	bw := bufio.NewWriter(w)
	for _, g := range Rank(GroupRecords(records), opts.MinCount, opts.SortByWait) {
		if g.MaxWait > 0 {
			fmt.Fprintf(bw, "%s\t\t%d   [%s %d min]\n", g.Signature, g.Count(), g.MaxState, g.MaxWait)
		} else {
			fmt.Fprintf(bw, "%s\t\t%d   [%s]\n", g.Signature, g.Count(), g.MaxState)
		}

		if opts.Calls > 0 {
			frames := g.Records[0].Frames[1:]
			for _, f := range frames[:min(opts.Calls, len(frames))] {
				fmt.Fprintf(bw, "\t%s\n", f)
			}
		}

		if opts.Examples {
			for _, r := range g.Longest(exampleCount) {
				if r.WaitMinutes > 0 {
					fmt.Fprintf(bw, "          %s, %d min\n", r.State, r.WaitMinutes)
				} else {
					fmt.Fprintf(bw, "          %s\n", r.State)
				}
			}
			fmt.Fprintln(bw)
		}
	}
	return bw.Flush()
}
