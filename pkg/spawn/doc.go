// Package spawn builds the "who started whom" graph of a goroutine dump.
//
// Every goroutine that carries a "created by" line contributes an edge from
// the creating function to the goroutine's signature. Edges are weighted by
// the number of goroutines, so the graph shows which code paths fan out into
// the largest groups of waiters.
//
// # Rendering
//
// [ToDOT] emits Graphviz DOT text. [RenderSVG] lays the graph out with the
// embedded Graphviz (github.com/goccy/go-graphviz) and [ToPDF] or [ToPNG]
// convert the SVG further using rsvg-convert.
package spawn
