package licenses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackscope/pkg/cache"
	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/observability"
)

const sampleGoMod = `module github.com/example/app

go 1.24.0

// direct deps
require (
	github.com/spf13/cobra v1.10.1
	github.com/charmbracelet/log v0.4.2 // pinned
	github.com/mattn/go-isatty v0.0.20 // indirect
	github.com/spf13/cobra v1.10.1
	broken-line
)

require github.com/BurntSushi/toml v1.5.0
require golang.org/x/sys v0.36.0 // indirect

replace github.com/foo/bar => ../bar
`

func TestParseGoMod(t *testing.T) {
	name, mods, err := ParseGoMod(strings.NewReader(sampleGoMod))
	require.NoError(t, err)

	assert.Equal(t, "github.com/example/app", name)
	assert.Equal(t, []Module{
		{Path: "github.com/spf13/cobra", Version: "v1.10.1"},
		{Path: "github.com/charmbracelet/log", Version: "v0.4.2"},
		{Path: "github.com/BurntSushi/toml", Version: "v1.5.0"},
	}, mods)
}

func TestParseGoModEmpty(t *testing.T) {
	name, mods, err := ParseGoMod(strings.NewReader("module x\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", name)
	assert.Empty(t, mods)
}

func TestReadGoModMissing(t *testing.T) {
	_, _, err := ReadGoMod(filepath.Join(t.TempDir(), "go.mod"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeFileNotFound))
}

func TestModuleString(t *testing.T) {
	assert.Equal(t, "a/b@v1.0.0", Module{Path: "a/b", Version: "v1.0.0"}.String())
	assert.Equal(t, "a/b", Module{Path: "a/b"}.String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"go authors", "Copyright (c) 2009 The Go Authors. All rights reserved.", "BSD-3-Clause"},
		{"go authors regex", "Copyright 2018 The Go Authors\nRedistribution...", "BSD-3-Clause"},
		{"mit heading", "The MIT License (MIT)\n\nCopyright (c) 2014 someone", "MIT"},
		{"mit wording", "Permission is hereby granted, free of charge, to any person", "MIT"},
		{"apache 2", "Apache License\nVersion 2.0, January 2004", "Apache-2.0"},
		{"apache other", "Apache License\nVersion 1.1", "Apache"},
		{"mpl", "Mozilla Public License\n\n  Version 2.0\n", "MPL 2.0"},
		{"mpl no version", "Mozilla Public License", "MPL"},
		{"gpl", "GNU General Public License\nVersion 3, 29 June 2007", "GPL 3"},
		{"gpl first version anywhere", "Library version 1.2\nGNU GENERAL PUBLIC LICENSE\nVersion 2", "GPL 1.2"},
		{"gpl no version", "gnu general public license", "GPL"},
		{"bsd", "BSD 2-Clause License", "BSD"},
		{"mit beats bsd", "MIT License, not BSD", "MIT"},
		{"unknown", "All rights reserved.", Unknown},
		{"empty", "   ", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindLicenseFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "LICENSES"), 0o755))
	writeFile(t, filepath.Join(dir, "README.md"), "readme")
	writeFile(t, filepath.Join(dir, "LICENSE.txt"), "mit")
	writeFile(t, filepath.Join(dir, "LICENSE"), "mit")

	got, err := FindLicenseFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "LICENSE"), got)
}

func TestFindLicenseFileCopying(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "COPYING"), "gpl")
	writeFile(t, filepath.Join(dir, "COPYING.LESSER"), "lgpl")

	got, err := FindLicenseFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "COPYING"), got)
}

func TestFindLicenseFileNone(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main")

	got, err := FindLicenseFile(dir)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = FindLicenseFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

type fakeRun struct {
	mu     sync.Mutex
	calls  [][]string
	stdout string
	stderr string
	err    error
}

func (f *fakeRun) run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func TestGoLocator(t *testing.T) {
	fake := &fakeRun{stdout: `{"Path":"github.com/spf13/cobra","Version":"v1.10.1","Dir":"/gopath/pkg/mod/github.com/spf13/cobra@v1.10.1"}`}
	l := &GoLocator{GoBin: "go", run: fake.run}

	dir, err := l.Locate(context.Background(), Module{Path: "github.com/spf13/cobra", Version: "v1.10.1"})
	require.NoError(t, err)
	assert.Equal(t, "/gopath/pkg/mod/github.com/spf13/cobra@v1.10.1", dir)
	assert.Equal(t, [][]string{{"go", "mod", "download", "-json", "github.com/spf13/cobra@v1.10.1"}}, fake.calls)
}

func TestGoLocatorRejectsBadModules(t *testing.T) {
	fake := &fakeRun{}
	l := &GoLocator{run: fake.run}

	for _, m := range []Module{
		{Path: "-modfile=/etc/passwd"},
		{Path: "github.com/a/../b"},
		{Path: "github.com/a/b", Version: "latest; rm"},
	} {
		_, err := l.Locate(context.Background(), m)
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidModule), "module %v: %v", m, err)
	}
	assert.Empty(t, fake.calls)
}

func TestGoLocatorReportedError(t *testing.T) {
	fake := &fakeRun{
		stdout: `{"Path":"github.com/nope/nope","Version":"v1.0.0","Error":"github.com/nope/nope@v1.0.0: invalid version: unknown revision"}`,
		err:    errors.New("exit status 1"),
	}
	l := &GoLocator{run: fake.run}

	_, err := l.download(context.Background(), Module{Path: "github.com/nope/nope", Version: "v1.0.0"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeModuleNotFound))
	assert.False(t, cache.IsRetryable(err))
	assert.Contains(t, err.Error(), "unknown revision")
}

func TestGoLocatorNetworkErrorIsRetryable(t *testing.T) {
	fake := &fakeRun{
		stderr: "go: github.com/a/b@v1.0.0: Get \"https://proxy.golang.org/...\": dial tcp: lookup proxy.golang.org: no such host",
		err:    errors.New("exit status 1"),
	}
	l := &GoLocator{run: fake.run}

	_, err := l.download(context.Background(), Module{Path: "github.com/a/b", Version: "v1.0.0"})
	require.Error(t, err)
	assert.True(t, cache.IsRetryable(err))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeExternalTool))
}

func TestGoLocatorNoDir(t *testing.T) {
	l := &GoLocator{run: (&fakeRun{stdout: `{"Path":"a/b"}`}).run}

	_, err := l.Locate(context.Background(), Module{Path: "a/b"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeModuleNotFound))
}

type mapLocator struct {
	mu    sync.Mutex
	dirs  map[string]string
	calls int
}

func (m *mapLocator) Locate(_ context.Context, mod Module) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	dir, ok := m.dirs[mod.Path]
	if !ok {
		return "", fmt.Errorf("no such module %s", mod.Path)
	}
	return dir, nil
}

func TestCachedLocator(t *testing.T) {
	ctx := context.Background()
	modDir := t.TempDir()
	inner := &mapLocator{dirs: map[string]string{"a/b": modDir}}
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	l := NewCachedLocator(inner, fc, time.Hour)

	for range 3 {
		dir, err := l.Locate(ctx, Module{Path: "a/b", Version: "v1.0.0"})
		require.NoError(t, err)
		assert.Equal(t, modDir, dir)
	}
	assert.Equal(t, 1, inner.calls)

	// Another version is another entry.
	_, err = l.Locate(ctx, Module{Path: "a/b", Version: "v2.0.0"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	_, err = l.Locate(ctx, Module{Path: "c/d"})
	assert.Error(t, err)
}

func TestCachedLocatorStaleDir(t *testing.T) {
	ctx := context.Background()
	modDir := filepath.Join(t.TempDir(), "mod")
	require.NoError(t, os.Mkdir(modDir, 0o755))
	inner := &mapLocator{dirs: map[string]string{"a/b": modDir}}
	fc, _ := cache.NewFileCache(t.TempDir())
	l := NewCachedLocator(inner, fc, 0)

	_, err := l.Locate(ctx, Module{Path: "a/b"})
	require.NoError(t, err)
	require.NoError(t, os.Remove(modDir))

	_, err = l.Locate(ctx, Module{Path: "a/b"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedLocatorNilCache(t *testing.T) {
	inner := &mapLocator{dirs: map[string]string{"a/b": t.TempDir()}}
	l := NewCachedLocator(inner, nil, time.Hour)

	for range 2 {
		_, err := l.Locate(context.Background(), Module{Path: "a/b"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestAudit(t *testing.T) {
	root := t.TempDir()
	cobraDir := filepath.Join(root, "cobra")
	logDir := filepath.Join(root, "log")
	tomlDir := filepath.Join(root, "toml")
	writeFile(t, filepath.Join(cobraDir, "LICENSE.txt"), "Apache License\nVersion 2.0, January 2004")
	writeFile(t, filepath.Join(logDir, "LICENSE"), "MIT License")
	writeFile(t, filepath.Join(tomlDir, "main.go"), "package toml")

	gomod := filepath.Join(root, "go.mod")
	writeFile(t, gomod, `module example.com/app

require (
	github.com/spf13/cobra v1.10.1
	github.com/charmbracelet/log v0.4.2
	github.com/BurntSushi/toml v1.5.0
	github.com/missing/mod v0.1.0
)
`)

	var logs bytes.Buffer
	a := NewAuditor(&mapLocator{dirs: map[string]string{
		"github.com/spf13/cobra":       cobraDir,
		"github.com/charmbracelet/log": logDir,
		"github.com/BurntSushi/toml":   tomlDir,
	}}, log.New(&logs))
	a.Workers = 2

	results, err := a.Audit(context.Background(), gomod)
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Module: "github.com/spf13/cobra", License: "Apache-2.0", File: filepath.Join(cobraDir, "LICENSE.txt")},
		{Module: "github.com/charmbracelet/log", License: "MIT", File: filepath.Join(logDir, "LICENSE")},
		{Module: "github.com/BurntSushi/toml", License: Unknown},
		{Module: "github.com/missing/mod", License: Unknown},
	}, results)
	assert.Contains(t, logs.String(), "Failed to locate module")
	assert.Contains(t, logs.String(), "github.com/missing/mod")
}

func TestAuditMissingManifest(t *testing.T) {
	a := NewAuditor(&mapLocator{}, log.New(&bytes.Buffer{}))
	_, err := a.Audit(context.Background(), filepath.Join(t.TempDir(), "go.mod"))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeFileNotFound))
}

func TestAuditCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAuditor(&mapLocator{}, log.New(&bytes.Buffer{}))
	_, err := a.AuditModules(ctx, []Module{{Path: "a/b"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteCSV(t *testing.T) {
	results := []Result{
		{Module: "github.com/spf13/cobra", License: "Apache-2.0", File: "/mod/cobra/LICENSE.txt"},
		{Module: "github.com/x/y", License: Unknown},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results, false))
	assert.Equal(t, "Library,License\ngithub.com/spf13/cobra,Apache-2.0\ngithub.com/x/y,UNKNOWN\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, results, true))
	assert.Equal(t, "Library,License,License File\ngithub.com/spf13/cobra,Apache-2.0,/mod/cobra/LICENSE.txt\ngithub.com/x/y,UNKNOWN,\n", buf.String())
}

type recordingHooks struct {
	observability.NoopCacheHooks
	observability.NoopLicenseHooks

	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string)  { h.add("hit " + keyType) }
func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) { h.add("miss " + keyType) }
func (h *recordingHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.add("set " + keyType)
}
func (h *recordingHooks) OnLookupComplete(_ context.Context, module, license string, _ time.Duration, err error) {
	e := module + "=" + license
	if code := apperrors.GetCode(err); code != "" {
		e += " " + string(code)
	} else if err != nil {
		e += " error"
	}
	h.add(e)
}

func TestHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	observability.SetLicenseHooks(hooks)
	t.Cleanup(observability.Reset)

	modDir := t.TempDir()
	writeFile(t, filepath.Join(modDir, "LICENSE"), "MIT License")
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	l := NewCachedLocator(&mapLocator{dirs: map[string]string{"a/b": modDir}}, fc, time.Hour)

	a := NewAuditor(l, log.New(&bytes.Buffer{}))
	a.Workers = 1
	_, err = a.AuditModules(context.Background(), []Module{{Path: "a/b"}, {Path: "a/b"}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"miss moddir", "set moddir", "a/b=MIT",
		"hit moddir", "a/b=MIT",
	}, hooks.events)
}

func TestHooksLookupFailures(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetLicenseHooks(hooks)
	t.Cleanup(observability.Reset)

	bare := t.TempDir()
	writeFile(t, filepath.Join(bare, "main.go"), "package bare")

	a := NewAuditor(&mapLocator{dirs: map[string]string{"a/bare": bare}}, log.New(&bytes.Buffer{}))
	a.Workers = 1
	results, err := a.AuditModules(context.Background(), []Module{{Path: "a/bare"}, {Path: "a/gone"}})
	require.NoError(t, err)

	assert.Equal(t, Unknown, results[0].License)
	assert.Equal(t, []string{
		"a/bare=UNKNOWN LICENSE_NOT_FOUND",
		"a/gone=UNKNOWN error",
	}, hooks.events)
}
