// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package wgslc compiles WGSL sources to SPIR-V with naga.
//
// Compiler implements spvbuild.Compiler. Artifacts are written to a build
// directory under the user cache directory (or Options.CacheDir), keyed by
// the absolute source path, and are reused in place by later builds of
// the same source:
//
//	c := wgslc.New(wgslc.Options{})
//	paths, err := spvbuild.Build(ctx, c, req)
//
// In multimodule mode every entry point is generated into its own module,
// named <source stem>::<entry point>.
package wgslc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"go.uber.org/zap"

	"github.com/gogpu/spvbuild"
	"github.com/gogpu/spvbuild/capability"
	"github.com/gogpu/spvbuild/spvbin"
)

// ErrNoEntryPoints is returned for multimodule builds of sources that
// declare no entry points.
var ErrNoEntryPoints = errors.New("source declares no entry points")

// Options configures a Compiler.
type Options struct {
	// CacheDir is the root of the build directories. Empty selects
	// <user cache dir>/spvbuild.
	CacheDir string

	// SkipValidation disables IR validation before code generation.
	SkipValidation bool

	// Logger receives per-stage timings. Nil disables logging.
	Logger *zap.Logger
}

// Compiler is a spvbuild.Compiler backed by naga.
type Compiler struct {
	opts Options
	log  *zap.Logger
}

var _ spvbuild.Compiler = (*Compiler)(nil)

// New returns a Compiler with the given options.
func New(opts Options) *Compiler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{opts: opts, log: log.Named("wgslc")}
}

// Compile builds req.Source() and returns the artifacts in the shape
// req.Mode() asks for.
func (c *Compiler) Compile(ctx context.Context, req spvbuild.Request) (spvbuild.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(req.Source())
	if err != nil {
		return nil, err
	}
	source := string(data)

	start := time.Now()
	module, err := lower(source)
	if err != nil {
		return nil, err
	}
	c.log.Debug("lowered", zap.String("source", req.Source()),
		zap.Int("entry_points", len(module.EntryPoints)), zap.Duration("elapsed", time.Since(start)))

	if !c.opts.SkipValidation {
		if err := validate(module); err != nil {
			return nil, err
		}
	}

	dir, err := c.buildDir(req)
	if err != nil {
		return nil, err
	}
	opts := spirvOptions(req)

	if req.Mode() == spvbuild.ModeSingle {
		p := filepath.Join(dir, "module.spv")
		if err := c.generate(module, opts, req.Extensions(), p); err != nil {
			return nil, err
		}
		return &spvbuild.SingleModule{Path: p}, nil
	}

	if len(module.EntryPoints) == 0 {
		return nil, ErrNoEntryPoints
	}
	stem := stemOf(req.FileName())
	result := &spvbuild.MultiModule{}
	for i := range module.EntryPoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Each entry point gets a freshly lowered module so that code
		// generation never sees state left by a previous entry point.
		m, err := lower(source)
		if err != nil {
			return nil, err
		}
		ep := m.EntryPoints[i]
		m.EntryPoints = []ir.EntryPoint{ep}

		p := filepath.Join(dir, fmt.Sprintf("entry-%d.spv", i))
		if err := c.generate(m, opts, req.Extensions(), p); err != nil {
			return nil, fmt.Errorf("entry point %s: %w", ep.Name, err)
		}
		result.Entries = append(result.Entries, spvbuild.EntryArtifact{
			Name: stem + spvbuild.NamespaceSeparator + ep.Name,
			Path: p,
		})
	}
	return result, nil
}

func (c *Compiler) generate(module *ir.Module, opts spirv.Options, extensions []string, path string) error {
	start := time.Now()
	code, err := naga.GenerateSPIRV(module, opts)
	if err != nil {
		return err
	}
	if len(extensions) > 0 {
		code, err = spvbin.InsertExtensions(code, extensions)
		if err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, code, 0o644); err != nil {
		return err
	}
	c.log.Debug("generated", zap.String("artifact", path),
		zap.Int("bytes", len(code)), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// buildDir returns the build directory for req, creating it if needed.
func (c *Compiler) buildDir(req spvbuild.Request) (string, error) {
	root := c.opts.CacheDir
	if root == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("locate cache directory: %w", err)
		}
		root = filepath.Join(cache, "spvbuild")
	}

	sum := sha256.Sum256([]byte(req.Source()))
	profile := "release"
	if !req.Release() {
		profile = "debug"
	}
	dir := filepath.Join(root, hex.EncodeToString(sum[:8]), profile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func lower(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	return naga.LowerWithSource(ast, source)
}

func validate(module *ir.Module) error {
	issues, err := naga.Validate(module)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return nil
	}
	errs := make([]error, len(issues))
	for i := range issues {
		errs[i] = &issues[i]
	}
	return fmt.Errorf("validation failed: %w", errors.Join(errs...))
}

// spirvOptions maps a request onto naga's backend options. naga has a
// single debug switch, so debug builds and both metadata levels enable it.
func spirvOptions(req spvbuild.Request) spirv.Options {
	opts := spirv.Options{
		Version: req.Target().Version(),
		Debug:   !req.Release() || req.Metadata() != spvbuild.MetadataNone,
	}
	for _, c := range req.Capabilities().Slice() {
		// The backend always declares Shader, and Matrix is implied by it.
		if c == capability.Shader || c == capability.Matrix {
			continue
		}
		opts.Capabilities = append(opts.Capabilities, spirv.Capability(c))
	}
	return opts
}

// stemOf strips the extension from a file name.
func stemOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
