// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvbuild

// Result is the output of a Compiler. It is either a *SingleModule or a
// *MultiModule; no other implementations exist.
type Result interface {
	// Mode reports which shape the result has.
	Mode() Mode

	isResult()
}

// SingleModule is one module holding every entry point.
type SingleModule struct {
	// Path is the compiler's artifact location.
	Path string
}

// MultiModule is one module per entry point.
type MultiModule struct {
	Entries []EntryArtifact
}

// EntryArtifact is the artifact compiled for one entry point.
type EntryArtifact struct {
	// Name is the fully qualified entry point name, e.g. "main::vs_main".
	Name string
	Path string
}

func (*SingleModule) Mode() Mode { return ModeSingle }
func (*MultiModule) Mode() Mode  { return ModeMulti }

func (*SingleModule) isResult() {}
func (*MultiModule) isResult()  {}
