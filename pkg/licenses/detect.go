package licenses

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Unknown is reported when no license could be determined.
const Unknown = "UNKNOWN"

// FindLicenseFile returns the first regular file in dir, by name, whose
// lower-cased name starts with "license" or is exactly "copying". It
// returns "" when there is none.
func FindLicenseFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if !strings.HasPrefix(name, "license") && name != "copying" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", nil
}

var (
	goAuthorsRe  = regexp.MustCompile(`Copyright\s+\d+\s+The Go Authors`)
	mplVersionRe = regexp.MustCompile(`(?is)Mozilla Public License.*?Version\s+([\d.]+)`)
	gplRe        = regexp.MustCompile(`(?i)GNU GENERAL PUBLIC LICENSE`)
	versionRe    = regexp.MustCompile(`(?i)Version\s+([\d.]+)`)
)

// Classify guesses a license identifier from license text. The checks run
// in a fixed order and the first match wins:
//
//	Go Authors copyright  BSD-3-Clause
//	MIT wording           MIT
//	Apache License        Apache-2.0 or Apache
//	Mozilla Public        MPL <version> or MPL
//	GNU GPL               GPL <version> or GPL
//	"BSD"                 BSD
//
// Anything else is [Unknown].
func Classify(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.Contains(text, "The Go Authors. All rights reserved.") || goAuthorsRe.MatchString(text):
		return "BSD-3-Clause"
	case strings.Contains(text, "MIT License") || strings.Contains(text, "Permission is hereby granted, free of charge"):
		return "MIT"
	case strings.Contains(text, "Apache License"):
		if strings.Contains(text, "Version 2.0") {
			return "Apache-2.0"
		}
		return "Apache"
	case strings.Contains(text, "Mozilla Public License"):
		if m := mplVersionRe.FindStringSubmatch(text); m != nil {
			return "MPL " + m[1]
		}
		return "MPL"
	case gplRe.MatchString(text):
		// The first version anywhere in the text, not necessarily next to
		// the license name.
		if m := versionRe.FindStringSubmatch(text); m != nil {
			return "GPL " + m[1]
		}
		return "GPL"
	case strings.Contains(text, "BSD"):
		return "BSD"
	}
	return Unknown
}
