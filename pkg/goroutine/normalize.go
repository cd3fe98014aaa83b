package goroutine

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/pprof/profile"
)

var (
	rowMatcher  = regexp.MustCompile(`(?s)<tr>.*?</tr>`)
	cellMatcher = regexp.MustCompile(`(?s)<td>(.*?)</td>`)

	htmlUnescaper = strings.NewReplacer("<br />", "\n", "&#43;", "+")
)

// NormalizeHTML converts the legacy HTML table capture into the native text
// format. Each table row needs at least three cells (id, header, stack);
// shorter rows are skipped.
func NormalizeHTML(content string) string {
	var blocks []string
	for _, row := range rowMatcher.FindAllString(content, -1) {
		cells := cellMatcher.FindAllStringSubmatch(row, -1)
		if len(cells) < 3 {
			continue
		}
		header := strings.TrimSpace(cells[1][1])
		stack := strings.TrimSpace(htmlUnescaper.Replace(cells[2][1]))
		blocks = append(blocks, header+":\n"+stack)
	}
	return strings.Join(blocks, "\n\n")
}

// ProfileState is the state given to goroutines read from a binary profile
// whose samples carry no "state" label.
const ProfileState = "profiled"

// NormalizeProfile reads a pprof goroutine profile (as served by
// /debug/pprof/goroutine without debug=2, gzipped or not) and renders it in
// the native text format. A sample counting n goroutines becomes n blocks;
// goroutine ids are synthetic and start at 1.
func NormalizeProfile(r io.Reader) (string, error) {
	p, err := profile.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse profile: %w", err)
	}

	var b strings.Builder
	id := 0
	for _, s := range p.Sample {
		count := int64(1)
		if len(s.Value) > 0 {
			count = s.Value[0]
		}
		state := ProfileState
		if v := s.Label["state"]; len(v) > 0 && v[0] != "" {
			state = v[0]
		}
		stack := profileStack(s)
		for i := int64(0); i < count; i++ {
			id++
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "goroutine %d [%s]:\n%s", id, state, stack)
		}
	}
	return b.String(), nil
}

// profileStack renders the locations of a sample, innermost first, with
// inlined calls expanded in place.
func profileStack(s *profile.Sample) string {
	var lines []string
	for _, loc := range s.Location {
		if len(loc.Line) == 0 {
			lines = append(lines, fmt.Sprintf("%#x(...)", loc.Address), "\t?:0")
			continue
		}
		for _, ln := range loc.Line {
			name, file := "?", "?"
			if ln.Function != nil {
				name, file = ln.Function.Name, ln.Function.Filename
			}
			lines = append(lines, name+"(...)", fmt.Sprintf("\t%s:%d", file, ln.Line))
		}
	}
	return strings.Join(lines, "\n")
}
