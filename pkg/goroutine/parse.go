package goroutine

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	headerMatcher    = regexp.MustCompile(`^goroutine (\d+) \[(.*?)(?:, (.*?))?\]:`)
	createdIDMatcher = regexp.MustCompile(`in goroutine (\d+)`)
)

const (
	createdByPrefix = "created by"
	createdByLead   = "created by "
	createdByTail   = " in goroutine"
)

// Parser converts dump text into records.
type Parser struct {
	Canon Canonicalizer
}

// NewParser returns a Parser that trims [DefaultTrimPrefixes] and then extra.
func NewParser(extraPrefixes ...string) *Parser {
	return &Parser{Canon: NewCanonicalizer(extraPrefixes...)}
}

var defaultParser = NewParser()

// Parse parses a whole dump with the default prefixes.
func Parse(content string) []Record {
	return defaultParser.Parse(content)
}

// ParseBlock parses a single block with the default prefixes.
func ParseBlock(block string) (Record, bool) {
	return defaultParser.ParseBlock(block)
}

// Parse splits content on blank lines and parses every block, dropping the
// ones that are not goroutines. Records keep dump order.
func (p *Parser) Parse(content string) []Record {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var records []Record
	for _, block := range strings.Split(content, "\n\n") {
		if r, ok := p.ParseBlock(block); ok {
			records = append(records, r)
		}
	}
	return records
}

// ParseBlock parses one goroutine block. It reports false when the header
// does not match or the block has no frame lines.
func (p *Parser) ParseBlock(block string) (Record, bool) {
	lines := strings.Split(strings.TrimSpace(block), "\n")

	m := headerMatcher.FindStringSubmatch(lines[0])
	if m == nil {
		return Record{}, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return Record{}, false
	}

	var frames []string
	for _, line := range lines[1:] {
		if isFrameLine(line) {
			frames = append(frames, p.Canon.Canonical(line))
		}
	}
	if len(frames) == 0 {
		return Record{}, false
	}

	r := Record{
		ID:          id,
		State:       m[2],
		WaitMinutes: ParseDuration(m[3]),
		TopFunction: Signature(frames),
		Frames:      frames,
	}
	r.CreatedByFunction, r.CreatedByTask, r.HasCreatedByTask = parseCreatedBy(lines)
	return r, true
}

// isFrameLine reports whether a line names a function: it is neither a
// tab-indented location line nor the "created by" line.
func isFrameLine(line string) bool {
	if strings.HasPrefix(line, "\t") {
		return false
	}
	return !strings.HasPrefix(strings.TrimSpace(line), createdByPrefix)
}

// parseCreatedBy looks at the first "created by" line of a block only.
// The function name is kept raw. A line without " in goroutine" yields
// nothing, and a line whose goroutine id is not numeric keeps the name only.
func parseCreatedBy(lines []string) (fn string, id int, hasID bool) {
	for _, line := range lines {
		info := strings.TrimSpace(line)
		if !strings.HasPrefix(info, createdByPrefix) {
			continue
		}
		start := strings.Index(info, createdByLead) + len(createdByLead)
		end := strings.Index(info, createdByTail)
		if end > start {
			fn = info[start:end]
			if m := createdIDMatcher.FindStringSubmatch(info); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					id, hasID = n, true
				}
			}
		}
		return fn, id, hasID
	}
	return "", 0, false
}

// ParseDuration converts the duration part of a header ("5 minutes",
// "2 hours", "90 seconds") to whole minutes, truncating. Anything it cannot
// read, including an empty string, is zero.
func ParseDuration(s string) int {
	parts := strings.Fields(strings.ToLower(s))
	if len(parts) != 2 {
		return 0
	}
	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}

	unit := parts[1]
	var minutes float64
	switch {
	case strings.Contains(unit, "hour"):
		minutes = value * 60
	case strings.Contains(unit, "minute"):
		minutes = value
	case strings.Contains(unit, "second"):
		minutes = value / 60
	default:
		return 0
	}
	if minutes > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(minutes)
}
