package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscope/pkg/pipeline"
	"github.com/matzehuels/stackscope/pkg/report"
)

// inputOpts holds the flags shared by analyze and graph that select and
// prepare the input.
type inputOpts struct {
	dir      bool     // treat path as a directory of dumps
	old      bool     // legacy HTML capture
	format   string   // text, html or pprof
	filter   bool     // drop known-benign signatures
	prefixes []string // extra trim prefixes
	noise    []string // extra noise signatures
}

func (o *inputOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.dir, "dir", false, "process every file in the directory")
	cmd.Flags().BoolVar(&o.old, "old", false, "parse the legacy HTML capture format (same as --format html)")
	cmd.Flags().StringVar(&o.format, "format", pipeline.FormatText, "input format: text, html, pprof")
	cmd.Flags().BoolVar(&o.filter, "filter", false, "filter out common I/O wait and HTTP/2 goroutines")
	cmd.Flags().StringSliceVar(&o.prefixes, "trim-prefix", nil, "extra package prefix to strip from function names (repeatable)")
	cmd.Flags().StringSliceVar(&o.noise, "noise", nil, "extra signature to drop with --filter (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("old", "format")
}

// options builds pipeline options for path, falling back to standard input.
func (o *inputOpts) options(args []string) pipeline.Options {
	opts := pipeline.DefaultOptions()
	if len(args) > 0 {
		opts.Path = args[0]
	}
	opts.Dir = o.dir
	opts.Format = o.format
	if o.old {
		opts.Format = pipeline.FormatHTML
	}
	opts.Filter = o.filter
	opts.Prefixes = append(opts.Prefixes, o.prefixes...)
	opts.Noise = append(opts.Noise, o.noise...)
	return opts
}

// analyzeOpts holds the flags of the analyze command.
type analyzeOpts struct {
	input   inputOpts
	csv     bool
	top     bool
	json    bool
	longest bool
	example bool
	min     int
	calls   int
}

func (o *analyzeOpts) mode() string {
	switch {
	case o.csv:
		return pipeline.ModeCSV
	case o.top:
		return pipeline.ModeTop
	case o.json:
		return pipeline.ModeJSON
	}
	return pipeline.ModeGrouped
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	opts := analyzeOpts{min: report.DefaultMinCount}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Group goroutines by where they are blocked",
		Long: `Group the goroutines of a dump by signature: the innermost function, plus
the first first-party (core/) function when the innermost one is foreign.

Without a path the dump is read from standard input.

Output modes:
  (default)  every group with its five longest-waiting goroutines
  --top      one line per group, largest first, hiding groups below --min
  --csv      one row per goroutine
  --json     all groups as JSON

Examples:
  curl -s localhost:6060/debug/pprof/goroutine?debug=2 | stackscope analyze --top --filter
  stackscope analyze dump.txt --top --longest --example --calls 3
  stackscope analyze captures/ --dir --csv > goroutines.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			popts := opts.input.options(args)
			popts.Mode = opts.mode()
			popts.MinCount = opts.min
			popts.SortByWait = opts.longest
			popts.Examples = opts.example
			popts.Calls = opts.calls
			c.config.applyAnalyze(cmd.Flags(), &popts)

			if opts.longest && !opts.top {
				logger.Warn("--longest only affects --top output")
			}

			prog := newProgress(logger)
			if err := pipeline.NewRunner(c.Out, c.In, logger).Run(ctx, popts); err != nil {
				return err
			}
			logger.Debugf("Analyzed %s (%s)", popts.Path, prog.elapsed())
			return nil
		},
	}

	opts.input.register(cmd)
	cmd.Flags().BoolVar(&opts.csv, "csv", false, "output one CSV row per goroutine")
	cmd.Flags().BoolVar(&opts.top, "top", false, "print groups sorted by number of goroutines")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output groups as JSON")
	cmd.Flags().BoolVar(&opts.longest, "longest", false, "sort by longest wait first, then by count (only with --top)")
	cmd.Flags().BoolVar(&opts.example, "example", false, "show example goroutines for each group")
	cmd.Flags().IntVar(&opts.min, "min", opts.min, "minimum group size shown by --top")
	cmd.Flags().IntVar(&opts.calls, "calls", 0, "number of additional call stack functions to show")
	cmd.MarkFlagsMutuallyExclusive("csv", "top", "json")

	return cmd
}
