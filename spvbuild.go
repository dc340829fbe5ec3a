// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package spvbuild builds shader sources into SPIR-V modules and places
// the resulting artifacts in an output directory.
//
// The translation itself is done by a Compiler. The package validates the
// build request, runs the compiler, and materializes its result: a single
// module is written as <output>/<source stem>.spv, and a multimodule build
// writes one <output>/<entry point>.spv per entry point, with "::" in entry
// point names replaced by "_".
//
// Example usage:
//
//	req, err := spvbuild.NewRequest(spvbuild.Options{
//		Source:      "shaders/main.wgsl",
//		Multimodule: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	paths, err := spvbuild.Build(ctx, wgslc.New(wgslc.Options{}), req)
//
// The wgslc package provides a Compiler backed by the naga WGSL compiler.
package spvbuild

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compiler turns a Request into compiled artifacts.
//
// The returned Result must have the shape requested by req.Mode(). The
// artifacts it names belong to the compiler; Build only reads them.
type Compiler interface {
	Compile(ctx context.Context, req Request) (Result, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(ctx context.Context, req Request) (Result, error)

// Compile calls f(ctx, req).
func (f CompilerFunc) Compile(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// Builder runs a Compiler and materializes its output.
type Builder struct {
	Compiler Compiler

	// Logger receives build progress. Nil disables logging.
	Logger *zap.Logger
}

// Build compiles req and copies the artifacts into req.OutputDir().
// It returns the paths written.
//
// A compiler that returns a result of the wrong shape is a bug in the
// compiler; Build panics with an *InvariantError in that case.
func (b *Builder) Build(ctx context.Context, req Request) ([]string, error) {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(
		zap.String("build_id", uuid.NewString()),
		zap.String("source", req.Source()),
	)
	log.Debug("build started",
		zap.Stringer("target", req.Target()),
		zap.Stringer("mode", req.Mode()),
		zap.Stringer("metadata", req.Metadata()),
		zap.Bool("release", req.Release()),
		zap.Strings("capabilities", req.Capabilities().Strings()),
		zap.Strings("extensions", req.Extensions()),
	)

	result, err := b.Compiler.Compile(ctx, req)
	if err != nil {
		return nil, &CompileError{Source: req.Source(), Err: err}
	}
	checkShape(req, result)

	m := &Materializer{Logger: log}
	paths, err := m.Materialize(result, req.OutputDir(), req.FileName())
	if err != nil {
		return nil, err
	}
	log.Info("build finished", zap.Strings("outputs", paths))
	return paths, nil
}

// Build is shorthand for (&Builder{Compiler: c}).Build(ctx, req).
func Build(ctx context.Context, c Compiler, req Request) ([]string, error) {
	b := &Builder{Compiler: c}
	return b.Build(ctx, req)
}

func checkShape(req Request, result Result) {
	if result == nil {
		panic(&InvariantError{Want: req.Mode(), Detail: "compiler returned a nil result"})
	}
	if result.Mode() != req.Mode() {
		panic(&InvariantError{
			Want:   req.Mode(),
			Got:    result.Mode(),
			Detail: fmt.Sprintf("compiler returned %T", result),
		})
	}
}
