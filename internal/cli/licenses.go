package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/licenses"
)

// licensesOpts holds the flags of the licenses command.
type licensesOpts struct {
	showPath bool
	noCache  bool
	table    bool
	workers  int
}

// licensesCommand creates the dependency license audit command.
func (c *CLI) licensesCommand() *cobra.Command {
	opts := licensesOpts{workers: licenses.DefaultWorkers}

	cmd := &cobra.Command{
		Use:   "licenses [go.mod]",
		Short: "List the licenses of a module's direct dependencies",
		Long: `List the license of every direct (non-indirect) requirement of a go.mod.

Module directories are located with "go mod download -json", so the go
command must be on PATH. Their locations are cached between runs; use
--no-cache to bypass the cache. Dependencies whose license cannot be
determined are reported as UNKNOWN.

Examples:
  stackscope licenses
  stackscope licenses ../service/go.mod --show-path > licenses.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			path := "go.mod"
			if len(args) > 0 {
				path = args[0]
			}
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				return apperrors.New(apperrors.ErrCodeFileNotFound, "%s not found", path)
			}

			store, err := newCache(opts.noCache)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			loc := licenses.NewCachedLocator(licenses.NewGoLocator(), store, c.config.cacheTTL())
			auditor := licenses.NewAuditor(loc, logger)
			auditor.Workers = opts.workers

			prog := newProgress(logger)
			spin := startSpinner(ctx, c.Err, isTerminal(c.Err), "Resolving module licenses...")
			results, err := auditor.Audit(ctx, path)
			if err != nil {
				spin.StopWithError("License audit of %s failed", path)
				return err
			}
			spin.StopWithSuccess("Resolved %d licenses (%s)", len(results), prog.elapsed())
			if n := countUnknown(results); n > 0 {
				printWarning(c.Err, "%d of %d modules have no recognized license", n, len(results))
			}

			showPath := c.config.showPath(cmd.Flags(), opts.showPath)
			if opts.table {
				fmt.Fprintln(c.Out, licensesTable(results, showPath))
				return nil
			}
			return licenses.WriteCSV(c.Out, results, showPath)
		},
	}

	cmd.Flags().BoolVar(&opts.showPath, "show-path", false, "show the path to each license file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the module directory cache")
	cmd.Flags().BoolVar(&opts.table, "table", false, "print a table instead of CSV")
	cmd.Flags().IntVar(&opts.workers, "workers", opts.workers, "concurrent module lookups")

	return cmd
}

func countUnknown(results []licenses.Result) int {
	n := 0
	for _, r := range results {
		if r.License == licenses.Unknown {
			n++
		}
	}
	return n
}

func licensesTable(results []licenses.Result, showPath bool) string {
	header := []string{"Library", "License"}
	if showPath {
		header = append(header, "License File")
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{r.Module, r.License}
		if showPath {
			row = append(row, r.File)
		}
		rows = append(rows, row)
	}
	return renderTable(header, rows, 1, licenses.Unknown)
}
