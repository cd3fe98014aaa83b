// Package pipeline drives one analysis run: it reads goroutine dumps from a
// file, a directory of files or standard input, normalizes and parses them,
// optionally drops noise, and writes the requested report.
//
// # Usage
//
//	runner := pipeline.NewRunner(os.Stdout, os.Stdin, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Path = "dump.txt"
//	opts.Mode = pipeline.ModeTop
//	if err := runner.Run(ctx, opts); err != nil {
//	    return err
//	}
//
// In directory mode every regular file is handled on its own. A file that
// fails is logged and the batch moves on.
package pipeline

import (
	"slices"

	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/report"
)

// Output modes.
const (
	ModeGrouped = "grouped"
	ModeCSV     = "csv"
	ModeTop     = "top"
	ModeJSON    = "json"
)

// Input formats.
const (
	FormatText    = "text"
	FormatHTML    = "html"
	FormatProfile = "pprof"
)

// StdinPath is the placeholder path meaning "read standard input".
const StdinPath = "."

// ValidModes lists the supported output modes.
var ValidModes = []string{ModeGrouped, ModeCSV, ModeTop, ModeJSON}

// ValidFormats lists the supported input formats.
var ValidFormats = []string{FormatText, FormatHTML, FormatProfile}

// Options configures a run.
type Options struct {
	// Input
	Path   string `json:"path,omitempty"`
	Dir    bool   `json:"dir,omitempty"`
	Format string `json:"format"`

	// Output
	Mode       string `json:"mode"`
	MinCount   int    `json:"min_count"`
	SortByWait bool   `json:"sort_by_wait,omitempty"`
	Examples   bool   `json:"examples,omitempty"`
	Calls      int    `json:"calls,omitempty"`

	// Filtering and canonicalization
	Filter   bool     `json:"filter,omitempty"`
	Prefixes []string `json:"prefixes,omitempty"` // Extra trim prefixes, after the defaults
	Noise    []string `json:"noise,omitempty"`    // Extra noise signatures
}

// DefaultOptions returns the options of a bare invocation: standard input,
// native text, grouped output.
func DefaultOptions() Options {
	return Options{
		Path:     StdinPath,
		Format:   FormatText,
		Mode:     ModeGrouped,
		MinCount: report.DefaultMinCount,
	}
}

// ValidateMode checks that mode is a known output mode.
func ValidateMode(mode string) error {
	if !slices.Contains(ValidModes, mode) {
		return apperrors.New(apperrors.ErrCodeInvalidMode, "invalid mode: %q (must be one of: grouped, csv, top, json)", mode)
	}
	return nil
}

// ValidateFormat checks that format is a known input format.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: text, html, pprof)", format)
	}
	return nil
}

// Validate checks the options and fills in empty mode, format and path.
func (o *Options) Validate() error {
	if o.Path == "" {
		o.Path = StdinPath
	}
	if o.Mode == "" {
		o.Mode = ModeGrouped
	}
	if o.Format == "" {
		o.Format = FormatText
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.MinCount < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "min count must not be negative: %d", o.MinCount)
	}
	if o.Calls < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "calls must not be negative: %d", o.Calls)
	}
	return nil
}

// IsStdin reports whether the run reads standard input. In directory mode
// the placeholder path is the working directory instead.
func (o Options) IsStdin() bool {
	return !o.Dir && (o.Path == "" || o.Path == StdinPath)
}

func (o Options) rankedOptions() report.RankedOptions {
	return report.RankedOptions{
		MinCount:   o.MinCount,
		SortByWait: o.SortByWait,
		Examples:   o.Examples,
		Calls:      o.Calls,
	}
}
