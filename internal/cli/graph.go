package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/goroutine"
	"github.com/matzehuels/stackscope/pkg/observability"
	"github.com/matzehuels/stackscope/pkg/pipeline"
	"github.com/matzehuels/stackscope/pkg/spawn"
)

// Graph output formats.
const (
	renderDOT = "dot"
	renderSVG = "svg"
	renderPDF = "pdf"
	renderPNG = "png"
)

var renderFormats = []string{renderDOT, renderSVG, renderPDF, renderPNG}

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	input  inputOpts
	min    int
	render string
	output string
	scale  float64
}

// graphCommand creates the spawn graph command.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{min: 1, render: renderDOT, scale: 2}

	cmd := &cobra.Command{
		Use:   "graph [path]",
		Short: "Draw which functions spawned which goroutine groups",
		Long: `Draw the spawn graph of a dump: an edge from each "created by" function to
the signature of the goroutines it started, labelled with their count.

The graph is printed as Graphviz DOT unless --render asks for svg, pdf or png.
PDF and PNG need rsvg-convert (librsvg).

Examples:
  stackscope graph dump.txt --filter --min 5 | dot -Tsvg > spawn.svg
  stackscope graph dump.txt --render svg -o spawn.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(renderFormats, opts.render) {
				return apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid render format: %q (must be one of: dot, svg, pdf, png)", opts.render)
			}
			if opts.render == renderPNG && opts.scale <= 0 {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "scale must be positive: %g", opts.scale)
			}
			return c.runGraph(cmd, args, opts)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().IntVar(&opts.min, "min", opts.min, "hide edges carrying fewer goroutines")
	cmd.Flags().StringVar(&opts.render, "render", opts.render, "output: dot, svg, pdf, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, args []string, opts graphOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	popts := opts.input.options(args)
	c.config.applyAnalyze(cmd.Flags(), &popts)

	prog := newProgress(logger)
	records, err := pipeline.NewRunner(c.Out, c.In, logger).Collect(ctx, popts)
	if err != nil {
		return err
	}
	g := spawn.Build(records, goroutine.NewCanonicalizer(popts.Prefixes...))
	prog.done(fmt.Sprintf("Built spawn graph from %d goroutines", len(records)))

	data, err := renderGraph(ctx, spawn.ToDOT(g, spawn.Options{MinCount: opts.min}), opts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess(c.Err, "Wrote spawn graph")
	printFile(c.Err, opts.output)
	printStats(c.Err, len(records), g.NodeCount(), g.EdgeCount())
	return nil
}

func renderGraph(ctx context.Context, dot string, opts graphOpts) (data []byte, err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.render)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.render, len(data), time.Since(start), err) }()

	if opts.render == renderDOT {
		return []byte(dot), nil
	}
	svg, err := spawn.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch opts.render {
	case renderPDF:
		return spawn.ToPDF(ctx, svg)
	case renderPNG:
		return spawn.ToPNG(ctx, svg, opts.scale)
	}
	return svg, nil
}
