package licenses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/matzehuels/stackscope/pkg/cache"
	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/observability"
)

// Locator finds the directory holding a module's source.
type Locator interface {
	Locate(ctx context.Context, m Module) (string, error)
}

// GoLocator resolves modules with `go mod download -json`, which also
// fetches modules missing from the local module cache.
type GoLocator struct {
	// GoBin is the go command to run. Empty means "go" from PATH.
	GoBin string

	run func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// NewGoLocator returns a GoLocator using the go command on PATH.
func NewGoLocator() *GoLocator {
	return &GoLocator{GoBin: "go", run: runCommand}
}

// downloadInfo is the part of `go mod download -json` output we use.
type downloadInfo struct {
	Path    string
	Version string
	Dir     string
	Error   string
}

// Locate returns the module's directory. Network failures of the go command
// are retried with backoff.
func (l *GoLocator) Locate(ctx context.Context, m Module) (string, error) {
	if err := apperrors.ValidateModulePath(m.Path); err != nil {
		return "", err
	}
	if err := apperrors.ValidateModuleVersion(m.Version); err != nil {
		return "", err
	}

	var dir string
	err := cache.RetryWithBackoff(ctx, func() error {
		d, err := l.download(ctx, m)
		dir = d
		return err
	})
	return dir, err
}

func (l *GoLocator) download(ctx context.Context, m Module) (string, error) {
	bin := l.GoBin
	if bin == "" {
		bin = "go"
	}
	run := l.run
	if run == nil {
		run = runCommand
	}

	stdout, stderr, runErr := run(ctx, bin, "mod", "download", "-json", m.String())

	var info downloadInfo
	if len(bytes.TrimSpace(stdout)) > 0 {
		if err := json.Unmarshal(stdout, &info); err != nil && runErr == nil {
			return "", apperrors.Wrap(apperrors.ErrCodeExternalTool, err, "decode go mod download output for %s", m)
		}
	}

	switch {
	case info.Error != "":
		err := apperrors.New(apperrors.ErrCodeModuleNotFound, "%s: %s", m, info.Error)
		if isNetworkFailure(info.Error) {
			return "", cache.Retryable(err)
		}
		return "", err
	case runErr != nil:
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(string(stderr))
		err := apperrors.Wrap(apperrors.ErrCodeExternalTool, runErr, "go mod download %s: %s", m, msg)
		if isNetworkFailure(msg) {
			return "", cache.Retryable(err)
		}
		return "", err
	case info.Dir == "":
		return "", apperrors.New(apperrors.ErrCodeModuleNotFound, "go mod download reported no directory for %s", m)
	}
	return info.Dir, nil
}

var networkMarkers = []string{
	"dial tcp",
	"i/o timeout",
	"connection reset",
	"connection refused",
	"TLS handshake timeout",
	"502 Bad Gateway",
	"503 Service Unavailable",
	"504 Gateway Timeout",
}

func isNetworkFailure(msg string) bool {
	for _, marker := range networkMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if errors.Is(err, exec.ErrNotFound) {
		err = apperrors.Wrap(apperrors.ErrCodeExternalTool, err, "the go command is required to locate modules")
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// CachedLocator remembers the directories found by another Locator.
// Entries pointing at directories that no longer exist are resolved again.
type CachedLocator struct {
	Inner Locator
	Cache cache.Cache
	TTL   time.Duration
}

// NewCachedLocator wraps inner with c. A nil cache disables caching.
func NewCachedLocator(inner Locator, c cache.Cache, ttl time.Duration) *CachedLocator {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &CachedLocator{Inner: inner, Cache: c, TTL: ttl}
}

// moddirKeyType prefixes module directory cache keys.
const moddirKeyType = "moddir"

type cachedDir struct {
	Dir string `json:"dir"`
}

func (l *CachedLocator) Locate(ctx context.Context, m Module) (string, error) {
	key := cache.Key(moddirKeyType, m.Path, m.Version)

	hooks := observability.Cache()

	var hit cachedDir
	if ok, _ := cache.GetJSON(ctx, l.Cache, key, &hit); ok {
		if info, err := os.Stat(hit.Dir); err == nil && info.IsDir() {
			hooks.OnCacheHit(ctx, moddirKeyType)
			return hit.Dir, nil
		}
		_ = l.Cache.Delete(ctx, key)
	}
	hooks.OnCacheMiss(ctx, moddirKeyType)

	dir, err := l.Inner.Locate(ctx, m)
	if err != nil {
		return "", err
	}
	if err := cache.SetJSON(ctx, l.Cache, key, cachedDir{Dir: dir}, l.TTL); err == nil {
		hooks.OnCacheSet(ctx, moddirKeyType, len(dir))
	}
	return dir, nil
}
