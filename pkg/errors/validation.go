package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// goModulePathRegex matches valid Go module paths.
var goModulePathRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._~/+-]*$`)

// ValidateModulePath validates a Go module path before it is handed to the
// go command. It rejects names that could be read as flags or escape the
// module cache:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //)
//   - No leading dash
//   - Maximum length of 256 characters
func ValidateModulePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidModule, "module path cannot be empty")
	}
	if len(path) > 256 {
		return New(ErrCodeInvalidModule, "module path too long (max 256 characters)")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidModule, "module path contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(path, pattern) {
			return New(ErrCodeInvalidModule, "module path contains invalid characters: %q", pattern)
		}
	}
	if !goModulePathRegex.MatchString(path) {
		return New(ErrCodeInvalidModule, "invalid Go module path: %q", path)
	}
	return nil
}

// moduleVersionRegex matches semantic and pseudo versions (v1.2.3, v0.0.0-2024...-abcdef, +incompatible).
var moduleVersionRegex = regexp.MustCompile(`^v[0-9][0-9A-Za-z.+-]*$`)

// ValidateModuleVersion validates a module version string from a go.mod file.
// An empty version is allowed and means "whatever the go command selects".
func ValidateModuleVersion(version string) error {
	if version == "" {
		return nil
	}
	if !moduleVersionRegex.MatchString(version) {
		return New(ErrCodeInvalidModule, "invalid module version: %q", version)
	}
	return nil
}
