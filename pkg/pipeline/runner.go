package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/goroutine"
	"github.com/matzehuels/stackscope/pkg/observability"
	"github.com/matzehuels/stackscope/pkg/report"
)

// stdinName labels standard input in logs.
const stdinName = "<stdin>"

// Runner executes analysis runs against one output stream.
//
// The Runner holds no per-run state; a run is strictly sequential and files
// in a directory are processed one after another in name order.
type Runner struct {
	Out    io.Writer
	Stdin  io.Reader
	Logger *log.Logger

	readFile func(string) ([]byte, error)
}

// NewRunner creates a runner writing reports to out and reading the
// placeholder path from stdin. A nil logger means log.Default().
func NewRunner(out io.Writer, stdin io.Reader, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Out:      out,
		Stdin:    stdin,
		Logger:   logger,
		readFile: os.ReadFile,
	}
}

// Run validates opts and writes the report for every input they name.
//
// A failure on a single file or on standard input is returned. In directory
// mode a failing file is logged with its name and the batch continues.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.Dir {
		return r.eachFile(ctx, opts.Path, func(path string) error {
			if _, err := fmt.Fprintf(r.Out, "\n=== %s ===\n", path); err != nil {
				return err
			}
			records, err := r.load(ctx, path, opts)
			if err != nil {
				return err
			}
			return r.write(records, opts)
		})
	}

	records, err := r.loadInput(ctx, opts)
	if err != nil {
		return err
	}
	return r.write(records, opts)
}

// Collect returns the parsed and filtered records of every input opts
// names, without writing a report. Directory failures are logged and
// skipped as in [Runner.Run].
func (r *Runner) Collect(ctx context.Context, opts Options) ([]goroutine.Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !opts.Dir {
		return r.loadInput(ctx, opts)
	}

	var all []goroutine.Record
	err := r.eachFile(ctx, opts.Path, func(path string) error {
		records, err := r.load(ctx, path, opts)
		if err != nil {
			return err
		}
		all = append(all, records...)
		return nil
	})
	return all, err
}

// eachFile calls fn for every regular file in dir, sorted by name. Errors
// from fn are logged and do not stop the loop. The loop ends early when ctx
// is done or the output stream has been closed by its reader.
func (r *Runner) eachFile(ctx context.Context, dir string, fn func(path string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "directory not found: %s", dir)
		}
		return fmt.Errorf("read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.outputClosed() {
			return nil
		}

		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := fn(path); err != nil {
			r.Logger.Error("Error processing", "file", path, "err", err)
		}
	}
	return nil
}

func (r *Runner) loadInput(ctx context.Context, opts Options) ([]goroutine.Record, error) {
	if !opts.IsStdin() {
		return r.load(ctx, opts.Path, opts)
	}
	if r.Stdin == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "no standard input available")
	}
	content, err := io.ReadAll(r.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read standard input: %w", err)
	}
	return r.parse(ctx, stdinName, content, opts)
}

func (r *Runner) load(ctx context.Context, path string, opts Options) ([]goroutine.Record, error) {
	content, err := r.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "file not found: %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return r.parse(ctx, path, content, opts)
}

func (r *Runner) parse(ctx context.Context, name string, content []byte, opts Options) ([]goroutine.Record, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, name)
	start := time.Now()

	text, err := decode(content, opts.Format)
	if err != nil {
		hooks.OnParseComplete(ctx, name, 0, 0, time.Since(start), err)
		return nil, err
	}

	records := goroutine.NewParser(opts.Prefixes...).Parse(text)
	parsed := len(records)
	if opts.Filter {
		records = goroutine.NewFilter(opts.Noise...).Apply(records)
	}
	r.Logger.Debug("Parsed goroutines", "source", name, "records", parsed, "kept", len(records))
	hooks.OnParseComplete(ctx, name, parsed, len(records), time.Since(start), nil)
	return records, nil
}

// decode turns raw input into the native text dump format.
func decode(content []byte, format string) (string, error) {
	switch format {
	case FormatHTML:
		return goroutine.NormalizeHTML(string(content)), nil
	case FormatProfile:
		text, err := goroutine.NormalizeProfile(bytes.NewReader(content))
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode goroutine profile")
		}
		return text, nil
	default:
		return string(content), nil
	}
}

func (r *Runner) write(records []goroutine.Record, opts Options) error {
	switch opts.Mode {
	case ModeCSV:
		return report.WriteCSV(r.Out, records)
	case ModeTop:
		return report.WriteRanked(r.Out, records, opts.rankedOptions())
	case ModeJSON:
		return report.WriteJSON(r.Out, records)
	default:
		return report.WriteGrouped(r.Out, records)
	}
}

func (r *Runner) outputClosed() bool {
	c, ok := r.Out.(interface{ Closed() bool })
	return ok && c.Closed()
}
