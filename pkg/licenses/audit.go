package licenses

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/observability"
)

// DefaultWorkers bounds concurrent module lookups.
const DefaultWorkers = 8

// Result is the license of one dependency. File is empty when no license
// file was found.
type Result struct {
	Module  string `json:"module"`
	License string `json:"license"`
	File    string `json:"file,omitempty"`
}

// Auditor resolves licenses for the direct dependencies of a go.mod.
type Auditor struct {
	Locator Locator
	Logger  *log.Logger
	Workers int
}

// NewAuditor returns an auditor using loc. A nil logger means log.Default().
func NewAuditor(loc Locator, logger *log.Logger) *Auditor {
	if logger == nil {
		logger = log.Default()
	}
	return &Auditor{Locator: loc, Logger: logger, Workers: DefaultWorkers}
}

// Audit reads the go.mod at path and returns one result per direct
// dependency, in go.mod order. Only an unreadable manifest or a cancelled
// context fails the audit; any per-module failure is logged and reported
// as [Unknown].
func (a *Auditor) Audit(ctx context.Context, gomodPath string) ([]Result, error) {
	name, mods, err := ReadGoMod(gomodPath)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("Parsed go.mod", "module", name, "direct", len(mods))
	return a.AuditModules(ctx, mods)
}

// AuditModules resolves the license of every module.
func (a *Auditor) AuditModules(ctx context.Context, mods []Module) ([]Result, error) {
	results := make([]Result, len(mods))

	g, ctx := errgroup.WithContext(ctx)
	workers := a.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	g.SetLimit(workers)

	for i, m := range mods {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.audit(ctx, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Auditor) audit(ctx context.Context, m Module) (res Result) {
	res = Result{Module: m.Path, License: Unknown}

	hooks := observability.License()
	hooks.OnLookup(ctx, m.Path)
	start := time.Now()
	var err error
	defer func() { hooks.OnLookupComplete(ctx, m.Path, res.License, time.Since(start), err) }()

	dir, err := a.Locator.Locate(ctx, m)
	if err != nil {
		a.Logger.Warn("Failed to locate module", "module", m.Path, "err", err)
		return res
	}

	file, err := FindLicenseFile(dir)
	if err != nil {
		a.Logger.Warn("Failed to read module directory", "module", m.Path, "dir", dir, "err", err)
		return res
	}
	if file == "" {
		err = apperrors.New(apperrors.ErrCodeNoLicense, "no license file in %s", dir)
		a.Logger.Debug("No license file", "module", m.Path, "dir", dir)
		return res
	}

	text, err := os.ReadFile(file)
	if err != nil {
		a.Logger.Warn("Failed to read license file", "module", m.Path, "file", file, "err", err)
		return res
	}
	res.License = Classify(string(text))
	res.File = file
	return res
}
