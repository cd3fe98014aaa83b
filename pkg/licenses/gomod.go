package licenses

import (
	"bufio"
	"io"
	"os"
	"strings"

	apperrors "github.com/matzehuels/stackscope/pkg/errors"
)

// Module is one requirement of a go.mod file.
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
}

// String returns path@version, or the bare path without a version.
func (m Module) String() string {
	if m.Version == "" {
		return m.Path
	}
	return m.Path + "@" + m.Version
}

// ReadGoMod parses the go.mod file at path.
func ReadGoMod(path string) (string, []Module, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "%s not found", path)
		}
		return "", nil, err
	}
	defer f.Close()
	return ParseGoMod(f)
}

// ParseGoMod returns the module path and the direct requirements of a
// go.mod file, from both require blocks and single-line require directives.
// Requirements whose comment mentions "indirect" are skipped. Each module
// path appears once, in first-seen order.
func ParseGoMod(r io.Reader) (string, []Module, error) {
	var (
		moduleName string
		mods       []Module
		seen       = make(map[string]bool)
		inRequire  bool
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "module ") {
			moduleName = strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "module ")), `"`)
			continue
		}

		if strings.HasPrefix(line, "require (") || line == "require(" {
			inRequire = true
			continue
		}
		if inRequire && line == ")" {
			inRequire = false
			continue
		}

		if strings.HasPrefix(line, "require ") && !strings.Contains(line, "(") {
			line = strings.TrimPrefix(line, "require ")
		} else if !inRequire {
			continue
		}

		if m, ok := parseRequireLine(line); ok && !seen[m.Path] {
			seen[m.Path] = true
			mods = append(mods, m)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrCodeInvalidManifest, err, "read go.mod")
	}
	return moduleName, mods, nil
}

// parseRequireLine reads "path version [// comment]". A line needs both a
// path and a version.
func parseRequireLine(line string) (Module, bool) {
	if i := strings.Index(line, "//"); i >= 0 {
		if strings.Contains(line[i:], "indirect") {
			return Module{}, false
		}
		line = line[:i]
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Module{}, false
	}
	return Module{Path: strings.Trim(fields[0], `"`), Version: fields[1]}, true
}
