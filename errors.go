// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvbuild

import (
	"errors"
	"fmt"
)

// Path decomposition errors, wrapped in a *ConfigError.
var (
	ErrNoParent   = errors.New("path has no parent")
	ErrNoFileName = errors.New("path has no file name")
)

// ConfigError reports an invalid build request. It is raised before the
// compiler runs.
type ConfigError struct {
	// Field names the offending input, e.g. "path" or "capability".
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CompileError wraps a failure reported by the Compiler.
type CompileError struct {
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Source, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// MaterializeError reports an I/O failure while placing artifacts.
type MaterializeError struct {
	// Op is "mkdir" or "copy".
	Op       string
	Artifact string
	Dest     string
	Err      error
}

func (e *MaterializeError) Error() string {
	if e.Op == "mkdir" {
		return fmt.Sprintf("create output directory %s: %v", e.Dest, e.Err)
	}
	return fmt.Sprintf("copy %s to %s: %v", e.Artifact, e.Dest, e.Err)
}

func (e *MaterializeError) Unwrap() error { return e.Err }

// InvariantError is the panic value used when a compiler result does not
// have the shape the request asked for.
type InvariantError struct {
	Want   Mode
	Got    Mode
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("spvbuild: requested %s module, %s", e.Want, e.Detail)
}
