// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	debounce = 50 * time.Millisecond
	timeout  = 5 * time.Second
)

// start runs w in the background and returns a channel that receives one
// value per build, plus a stop function that waits for Run to return.
func start(t *testing.T, w *Watcher, buildErr error) (<-chan struct{}, func()) {
	t.Helper()
	builds := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			builds <- struct{}{}
			return buildErr
		})
	}()
	stop := func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(timeout):
			require.FailNow(t, "Run did not return after cancel")
		}
	}
	return builds, stop
}

func waitBuild(t *testing.T, builds <-chan struct{}) {
	t.Helper()
	select {
	case <-builds:
	case <-time.After(timeout):
		require.FailNow(t, "timed out waiting for a build")
	}
}

func assertNoBuild(t *testing.T, builds <-chan struct{}, d time.Duration) {
	t.Helper()
	select {
	case <-builds:
		require.FailNow(t, "unexpected build")
	case <-time.After(d):
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunBuildsOnStartAndChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.wgsl")
	writeFile(t, src, "v1")

	w, err := New([]string{src}, Options{Debounce: debounce})
	require.NoError(t, err)
	builds, stop := start(t, w, nil)
	defer stop()

	waitBuild(t, builds)

	writeFile(t, src, "v2")
	waitBuild(t, builds)
	assert.Eventually(t, func() bool { return w.Builds() == 2 }, timeout, 10*time.Millisecond)
}

func TestRunIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.wgsl")
	writeFile(t, src, "v1")

	w, err := New([]string{src}, Options{Debounce: debounce})
	require.NoError(t, err)
	builds, stop := start(t, w, nil)
	defer stop()

	waitBuild(t, builds)
	writeFile(t, filepath.Join(dir, "other.wgsl"), "x")
	writeFile(t, filepath.Join(dir, "main.spv"), "x")
	assertNoBuild(t, builds, 10*debounce)
}

func TestRunDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.wgsl")
	writeFile(t, src, "v0")

	w, err := New([]string{src}, Options{Debounce: 200 * time.Millisecond})
	require.NoError(t, err)
	builds, stop := start(t, w, nil)
	defer stop()

	waitBuild(t, builds)
	for _, v := range []string{"v1", "v2", "v3", "v4"} {
		writeFile(t, src, v)
	}
	waitBuild(t, builds)
	assertNoBuild(t, builds, 500*time.Millisecond)
}

func TestRunSeesRenameOverFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.wgsl")
	writeFile(t, src, "v1")

	w, err := New([]string{src}, Options{Debounce: debounce})
	require.NoError(t, err)
	builds, stop := start(t, w, nil)
	defer stop()

	waitBuild(t, builds)
	tmp := filepath.Join(dir, ".main.wgsl.swp")
	writeFile(t, tmp, "v2")
	require.NoError(t, os.Rename(tmp, src))
	waitBuild(t, builds)
}

func TestRunLogsBuildErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.wgsl")
	writeFile(t, src, "v1")

	core, logs := observer.New(zapcore.ErrorLevel)
	w, err := New([]string{src}, Options{Debounce: debounce, Logger: zap.New(core)})
	require.NoError(t, err)
	builds, stop := start(t, w, errors.New("syntax error"))

	waitBuild(t, builds)
	writeFile(t, src, "v2")
	waitBuild(t, builds)
	stop()

	failed := logs.FilterMessage("build failed").All()
	require.Len(t, failed, 2, "a failed build must not stop the watcher")
	assert.Equal(t, "syntax error", failed[0].ContextMap()["error"])
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)

	_, err = New([]string{filepath.Join(t.TempDir(), "missing", "main.wgsl")}, Options{})
	assert.Error(t, err, "parent directory must exist")
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "a.wgsl"), filepath.Join(dir, "b.wgsl")}, Options{})
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
