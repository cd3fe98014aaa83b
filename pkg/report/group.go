package report

import (
	"cmp"
	"slices"

	"github.com/matzehuels/stackscope/pkg/goroutine"
)

// Group holds goroutines sharing a signature, in dump order.
type Group struct {
	Signature string
	Records   []goroutine.Record

	// MaxWait is the longest wait in the group and MaxState the state of the
	// goroutine that set it. The first goroutine always initializes both,
	// even when it has not waited at all.
	MaxWait  int
	MaxState string
}

// Count returns the number of goroutines in the group.
func (g *Group) Count() int { return len(g.Records) }

func (g *Group) add(r goroutine.Record) {
	g.Records = append(g.Records, r)
	if g.MaxWait < r.WaitMinutes || (g.MaxWait == 0 && g.MaxState == "") {
		g.MaxWait = r.WaitMinutes
		g.MaxState = r.State
	}
}

// Longest returns up to n members ordered by descending wait. Members with
// equal waits keep dump order.
func (g *Group) Longest(n int) []goroutine.Record {
	sorted := slices.Clone(g.Records)
	slices.SortStableFunc(sorted, func(a, b goroutine.Record) int {
		return cmp.Compare(b.WaitMinutes, a.WaitMinutes)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// GroupRecords groups records by signature. Groups are returned in the order
// their signature first appears.
func GroupRecords(records []goroutine.Record) []*Group {
	var groups []*Group
	index := make(map[string]*Group)
	for _, r := range records {
		g, ok := index[r.TopFunction]
		if !ok {
			g = &Group{Signature: r.TopFunction}
			index[r.TopFunction] = g
			groups = append(groups, g)
		}
		g.add(r)
	}
	return groups
}
