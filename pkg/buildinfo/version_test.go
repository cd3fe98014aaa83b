package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func reset(t *testing.T, v, c, d string) {
	t.Helper()
	oldV, oldC, oldD := Version, Commit, Date
	Version, Commit, Date = v, c, d
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })
}

func TestFillFromModuleInfo(t *testing.T) {
	reset(t, "dev", "none", "unknown")

	fillFrom(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
		},
	})

	if Version != "v0.3.0" || Commit != "abc123" || Date != "2025-01-02T03:04:05Z" {
		t.Errorf("fillFrom() = %s %s %s", Version, Commit, Date)
	}
}

func TestFillFromKeepsLdflags(t *testing.T) {
	reset(t, "v1.0.0", "deadbeef", "2024-12-31")

	fillFrom(&debug.BuildInfo{
		Main:     debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})

	if Version != "v1.0.0" || Commit != "deadbeef" || Date != "2024-12-31" {
		t.Errorf("ldflags values were overwritten: %s %s %s", Version, Commit, Date)
	}
}

func TestFillFromDevelBuild(t *testing.T) {
	reset(t, "dev", "none", "unknown")

	fillFrom(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	if Version != "dev" {
		t.Errorf("Version = %s, want dev", Version)
	}
}

func TestTemplate(t *testing.T) {
	reset(t, "v1.2.3", "abc", "today")

	got := Template()
	if !strings.HasPrefix(got, "{{.Name}} version v1.2.3\n") {
		t.Errorf("Template() = %q", got)
	}
	if !strings.Contains(String(), "commit: abc") {
		t.Errorf("String() = %q", String())
	}
}
