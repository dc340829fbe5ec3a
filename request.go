// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvbuild

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/gogpu/spvbuild/capability"
	"github.com/gogpu/spvbuild/target"
)

// Mode selects between one combined module and one module per entry point.
type Mode uint8

const (
	// ModeSingle produces one module holding every entry point.
	ModeSingle Mode = iota

	// ModeMulti produces one module per entry point.
	ModeMulti
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeMulti:
		return "multi"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Metadata controls how much debug metadata the compiler keeps.
type Metadata uint8

const (
	MetadataNone Metadata = iota
	MetadataFull
	MetadataNameVariables
)

// ErrBadMetadata is wrapped by ParseMetadata errors.
var ErrBadMetadata = errors.New("expecting one of none,full,name-variables")

// ParseMetadata parses "none", "full" or "name-variables".
func ParseMetadata(s string) (Metadata, error) {
	switch s {
	case "none":
		return MetadataNone, nil
	case "full":
		return MetadataFull, nil
	case "name-variables":
		return MetadataNameVariables, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrBadMetadata, s)
}

func (m Metadata) String() string {
	switch m {
	case MetadataNone:
		return "none"
	case MetadataFull:
		return "full"
	case MetadataNameVariables:
		return "name-variables"
	default:
		return fmt.Sprintf("Metadata(%d)", uint8(m))
	}
}

// Options are the raw inputs to NewRequest, typically straight from flags.
// Empty strings select defaults.
type Options struct {
	Source       string
	Target       string
	Debug        bool
	Multimodule  bool
	Metadata     string
	Capabilities []string
	Extensions   []string
	OutputDir    string
}

// Request is a validated, immutable build request.
type Request struct {
	source    string
	sourceDir string
	fileName  string
	target    target.Triple
	release   bool
	mode      Mode
	metadata  Metadata
	caps      capability.Set
	exts      []string
	outputDir string
}

// NewRequest validates opts and derives a Request from them. All failures
// are *ConfigError values.
func NewRequest(opts Options) (Request, error) {
	if opts.Source == "" {
		return Request{}, &ConfigError{Field: "path", Err: errors.New("no source path given")}
	}
	// Abs cleans the path, which would turn "." or "dir/.." into a
	// named directory.
	if e := lastElem(opts.Source); e == "." || e == ".." {
		return Request{}, &ConfigError{Field: "path", Value: opts.Source, Err: ErrNoFileName}
	}
	if b := filepath.Base(filepath.Clean(opts.Source)); b == "." || b == ".." {
		return Request{}, &ConfigError{Field: "path", Value: opts.Source, Err: ErrNoFileName}
	}
	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return Request{}, &ConfigError{Field: "path", Value: opts.Source, Err: err}
	}

	req := Request{source: source}
	dir, base := filepath.Split(source)
	if base == "" {
		// Only the file system root has no final element once the path is
		// absolute and clean.
		if opts.OutputDir == "" {
			return Request{}, &ConfigError{Field: "path", Value: opts.Source, Err: ErrNoParent}
		}
		return Request{}, &ConfigError{Field: "path", Value: opts.Source, Err: ErrNoFileName}
	}
	req.sourceDir = filepath.Clean(dir)
	req.fileName = base

	if _, err := os.Stat(source); err != nil {
		return Request{}, &ConfigError{Field: "path", Value: opts.Source, Err: err}
	}

	triple := opts.Target
	if triple == "" {
		triple = target.Default
	}
	req.target, err = target.Parse(triple)
	if err != nil {
		return Request{}, &ConfigError{Field: "target", Value: triple, Err: err}
	}

	req.release = !opts.Debug
	if opts.Multimodule {
		req.mode = ModeMulti
	}

	if opts.Metadata != "" {
		req.metadata, err = ParseMetadata(opts.Metadata)
		if err != nil {
			return Request{}, &ConfigError{Field: "spirv-metadata", Value: opts.Metadata, Err: err}
		}
	}

	for _, name := range opts.Capabilities {
		c, err := capability.Parse(strings.TrimSpace(name))
		if err != nil {
			return Request{}, &ConfigError{Field: "capability", Value: name, Err: err}
		}
		req.caps = req.caps.With(c)
	}

	for _, ext := range opts.Extensions {
		ext = strings.TrimSpace(ext)
		if err := checkExtension(ext); err != nil {
			return Request{}, &ConfigError{Field: "extension", Value: ext, Err: err}
		}
		if !slices.Contains(req.exts, ext) {
			req.exts = append(req.exts, ext)
		}
	}

	req.outputDir = req.sourceDir
	if opts.OutputDir != "" {
		req.outputDir, err = filepath.Abs(opts.OutputDir)
		if err != nil {
			return Request{}, &ConfigError{Field: "output", Value: opts.OutputDir, Err: err}
		}
	}
	return req, nil
}

// lastElem returns the final element of p as written, ignoring trailing
// separators.
func lastElem(p string) string {
	const seps = "/" + string(filepath.Separator)
	p = strings.TrimRight(p, seps)
	return p[strings.LastIndexAny(p, seps)+1:]
}

func checkExtension(name string) error {
	if name == "" {
		return errors.New("empty extension name")
	}
	if strings.IndexFunc(name, func(r rune) bool { return r == 0 || unicode.IsSpace(r) }) >= 0 {
		return errors.New("extension name contains whitespace or NUL")
	}
	return nil
}

// Source returns the absolute source path.
func (r Request) Source() string { return r.source }

// SourceDir returns the directory containing the source.
func (r Request) SourceDir() string { return r.sourceDir }

// FileName returns the final element of the source path.
func (r Request) FileName() string { return r.fileName }

// Target returns the parsed target triple.
func (r Request) Target() target.Triple { return r.target }

// Release reports whether this is a release (non-debug) build.
func (r Request) Release() bool { return r.release }

// Mode returns the requested module mode.
func (r Request) Mode() Mode { return r.mode }

// Metadata returns the requested metadata verbosity.
func (r Request) Metadata() Metadata { return r.metadata }

// PreserveBindings reports whether binding declarations must survive
// optimization, which is the case whenever metadata is kept.
func (r Request) PreserveBindings() bool { return r.metadata != MetadataNone }

// Capabilities returns the requested capabilities.
func (r Request) Capabilities() capability.Set { return r.caps }

// Extensions returns the requested extension names in first-seen order.
func (r Request) Extensions() []string { return slices.Clone(r.exts) }

// OutputDir returns the absolute directory outputs are written to.
func (r Request) OutputDir() string { return r.outputDir }
