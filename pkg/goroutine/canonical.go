package goroutine

import "strings"

const (
	// CorePrefix marks first-party code after prefix trimming.
	CorePrefix = "core/"

	// SignatureSeparator joins the innermost frame with the first-party frame
	// in a signature.
	SignatureSeparator = "___"
)

// DefaultTrimPrefixes lists the package path prefixes removed from frame
// names, in priority order. Only the first matching prefix is removed.
var DefaultTrimPrefixes = []string{
	"github.com/towns-protocol/towns/",
	"github.com/ethereum/",
	"google.golang.org/",
	"golang.org/",
	"github.com/jackc/",
}

// Canonicalizer turns raw frame lines into short function names.
// The zero value trims no prefixes.
type Canonicalizer struct {
	Prefixes []string
}

// NewCanonicalizer returns a Canonicalizer using [DefaultTrimPrefixes]
// followed by extra. Defaults keep priority over extra prefixes.
func NewCanonicalizer(extra ...string) Canonicalizer {
	prefixes := make([]string, 0, len(DefaultTrimPrefixes)+len(extra))
	prefixes = append(prefixes, DefaultTrimPrefixes...)
	prefixes = append(prefixes, extra...)
	return Canonicalizer{Prefixes: prefixes}
}

// Canonical returns the function name of a frame line.
//
// Surrounding whitespace is trimmed, anything from the first tab on is
// dropped, the last opening parenthesis and everything after it (the
// argument list) is removed, and finally the first matching prefix is
// stripped:
//
//	github.com/towns-protocol/towns/core/node/rpc.(*Foo).Bar(0x1, 0x2)
//	=> core/node/rpc.(*Foo).Bar
func (c Canonicalizer) Canonical(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		line = line[:i]
	}
	if i := strings.LastIndexByte(line, '('); i >= 0 {
		line = line[:i]
	}
	return c.TrimPrefix(line)
}

// TrimPrefix strips the first matching prefix from an already bare function
// name, such as the one on a "created by" line.
func (c Canonicalizer) TrimPrefix(name string) string {
	for _, p := range c.Prefixes {
		if strings.HasPrefix(name, p) {
			return name[len(p):]
		}
	}
	return name
}

// Signature derives the grouping key from canonical frame names, innermost
// first.
//
// A first frame in first-party code is the signature on its own. Otherwise
// the first later frame under [CorePrefix] is appended; when there is none the
// last frame is appended instead. A single foreign frame stays as is.
//
//	[vendor/lib.Wait core/node/rpc.Handle main.run] => vendor/lib.Wait___core/node/rpc.Handle
//	[vendor/lib.Wait vendor/lib2.Spin]              => vendor/lib.Wait___vendor/lib2.Spin
func Signature(frames []string) string {
	if len(frames) == 0 {
		return ""
	}
	top := frames[0]
	if strings.HasPrefix(top, CorePrefix) || len(frames) == 1 {
		return top
	}
	for _, f := range frames[1:] {
		if strings.HasPrefix(f, CorePrefix) {
			return top + SignatureSeparator + f
		}
	}
	return top + SignatureSeparator + frames[len(frames)-1]
}
