package spawn

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Options configures DOT output.
type Options struct {
	// MinCount hides edges carrying fewer goroutines, and nodes left with
	// neither enough goroutines of their own nor a visible edge.
	MinCount int
}

// ToDOT converts g to Graphviz DOT text. Signature nodes are boxes labelled
// with their goroutine count; functions that only create goroutines are
// ellipses.
func ToDOT(g *Graph, opts Options) string {
	visible := make(map[string]bool)
	var edges []*Edge
	for _, e := range g.Edges() {
		if e.Count < opts.MinCount {
			continue
		}
		edges = append(edges, e)
		visible[e.From], visible[e.To] = true, true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if !visible[n.ID] && (n.IsCreatorOnly() || n.Count < opts.MinCount) {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, penwidth=%s];\n", e.From, e.To, strconv.Itoa(e.Count), penWidth(e.Count))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n *Node) []string {
	if n.IsCreatorOnly() {
		return []string{fmt.Sprintf("label=%q", n.ID), "shape=ellipse", "fillcolor=lightgrey"}
	}
	return []string{fmt.Sprintf("label=%q", fmt.Sprintf("%s\n%d goroutines", n.ID, n.Count))}
}

// penWidth grows with the order of magnitude of count.
func penWidth(count int) string {
	w := 1
	for c := count; c >= 10; c /= 10 {
		w++
	}
	return strconv.Itoa(w)
}

// RenderSVG renders DOT text to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// viewBox so browsers scale the drawing.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
