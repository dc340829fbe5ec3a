// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvbuild

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeCompiler writes fixed artifacts into dir and records the request.
type fakeCompiler struct {
	dir     string
	entries []string
	got     *Request
}

func (f *fakeCompiler) Compile(_ context.Context, req Request) (Result, error) {
	f.got = &req
	if req.Mode() == ModeSingle {
		p := filepath.Join(f.dir, "module.spv")
		if err := os.WriteFile(p, []byte("single"), 0o644); err != nil {
			return nil, err
		}
		return &SingleModule{Path: p}, nil
	}
	m := &MultiModule{}
	for i, name := range f.entries {
		p := filepath.Join(f.dir, fmt.Sprintf("%d.bin", i))
		if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, EntryArtifact{Name: name, Path: p})
	}
	return m, nil
}

func TestBuildSingle(t *testing.T) {
	src := writeSource(t)
	req, err := NewRequest(Options{Source: src})
	require.NoError(t, err)
	fc := &fakeCompiler{dir: t.TempDir()}

	paths, err := Build(context.Background(), fc, req)
	require.NoError(t, err)
	want := []string{filepath.Join(filepath.Dir(src), "main.spv")}
	assert.Empty(t, cmp.Diff(want, paths), "paths (-want +got)")
	assertFile(t, want[0], []byte("single"))
	require.NotNil(t, fc.got)
	assert.Equal(t, src, fc.got.Source())
}

func TestBuildMulti(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	req, err := NewRequest(Options{Source: writeSource(t), Multimodule: true, OutputDir: out})
	require.NoError(t, err)
	fc := &fakeCompiler{dir: t.TempDir(), entries: []string{"main::vs_main", "main::fs_main"}}

	core, logs := observer.New(zapcore.InfoLevel)
	b := &Builder{Compiler: fc, Logger: zap.New(core)}
	paths, err := b.Build(context.Background(), req)
	require.NoError(t, err)

	want := []string{filepath.Join(out, "main_vs_main.spv"), filepath.Join(out, "main_fs_main.spv")}
	assert.Empty(t, cmp.Diff(want, paths), "paths (-want +got)")
	assertFile(t, want[0], []byte("main::vs_main"))
	assertFile(t, want[1], []byte("main::fs_main"))

	finished := logs.FilterMessage("build finished").All()
	require.Len(t, finished, 1)
	id, _ := finished[0].ContextMap()["build_id"].(string)
	assert.NotEmpty(t, id, "build_id missing from log entry")
}

func TestBuildCompileError(t *testing.T) {
	req, err := NewRequest(Options{Source: writeSource(t)})
	require.NoError(t, err)
	boom := errors.New("boom")
	_, err = Build(context.Background(), CompilerFunc(func(context.Context, Request) (Result, error) {
		return nil, boom
	}), req)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, req.Source(), cerr.Source)
}

func TestBuildShapeMismatchPanics(t *testing.T) {
	tests := []struct {
		name   string
		multi  bool
		result Result
	}{
		{"single requested, multi returned", false, &MultiModule{}},
		{"multi requested, single returned", true, &SingleModule{Path: "x"}},
		{"nil result", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest(Options{Source: writeSource(t), Multimodule: tt.multi})
			require.NoError(t, err)
			defer func() {
				r := recover()
				assert.IsType(t, &InvariantError{}, r)
			}()
			_, _ = Build(context.Background(), CompilerFunc(func(context.Context, Request) (Result, error) {
				return tt.result, nil
			}), req)
			assert.Fail(t, "Build did not panic")
		})
	}
}

func TestBuildPassesContext(t *testing.T) {
	req, err := NewRequest(Options{Source: writeSource(t)})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Build(ctx, CompilerFunc(func(ctx context.Context, _ Request) (Result, error) {
		return nil, ctx.Err()
	}), req)
	assert.ErrorIs(t, err, context.Canceled)
}
