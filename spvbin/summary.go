// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvbin

import (
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/spvbuild/capability"
)

// ExecutionModel is the execution model operand of OpEntryPoint.
type ExecutionModel uint32

var executionModels = map[ExecutionModel]string{
	0:    "Vertex",
	1:    "TessellationControl",
	2:    "TessellationEvaluation",
	3:    "Geometry",
	4:    "Fragment",
	5:    "GLCompute",
	6:    "Kernel",
	5267: "TaskNV",
	5268: "MeshNV",
	5313: "RayGenerationKHR",
	5314: "IntersectionKHR",
	5315: "AnyHitKHR",
	5316: "ClosestHitKHR",
	5317: "MissKHR",
	5318: "CallableKHR",
	5364: "TaskEXT",
	5365: "MeshEXT",
}

func (m ExecutionModel) String() string {
	if s, ok := executionModels[m]; ok {
		return s
	}
	return fmt.Sprintf("ExecutionModel(%d)", uint32(m))
}

// EntryPoint is a decoded OpEntryPoint.
type EntryPoint struct {
	Model    ExecutionModel
	Function uint32
	Name     string
}

// Summary describes the module-level declarations of a binary.
type Summary struct {
	Header         Header
	Capabilities   capability.Set
	Extensions     []string
	ExtInstImports []string
	EntryPoints    []EntryPoint

	// DebugNames counts OpName and OpMemberName instructions.
	DebugNames   int
	Instructions int
	Size         int
}

// Inspect walks data and collects its Summary.
func Inspect(data []byte) (*Summary, error) {
	s := &Summary{Size: len(data)}
	h, err := Walk(data, func(inst Instruction) error {
		s.Instructions++
		switch inst.Opcode {
		case spirv.OpCapability:
			if len(inst.Operands) < 1 {
				return fmt.Errorf("%w: OpCapability at word %d has no operand", ErrMalformed, inst.Word)
			}
			s.Capabilities = s.Capabilities.With(capability.Capability(inst.Operands[0]))
		case opExtension:
			name, _ := inst.LiteralString(0)
			s.Extensions = append(s.Extensions, name)
		case spirv.OpExtInstImport:
			name, _ := inst.LiteralString(1)
			s.ExtInstImports = append(s.ExtInstImports, name)
		case spirv.OpEntryPoint:
			if len(inst.Operands) < 3 {
				return fmt.Errorf("%w: OpEntryPoint at word %d is truncated", ErrMalformed, inst.Word)
			}
			name, _ := inst.LiteralString(2)
			s.EntryPoints = append(s.EntryPoints, EntryPoint{
				Model:    ExecutionModel(inst.Operands[0]),
				Function: inst.Operands[1],
				Name:     name,
			})
		case spirv.OpName, spirv.OpMemberName:
			s.DebugNames++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Header = h
	return s, nil
}

// HasExtension reports whether the module declares the named extension.
func (s *Summary) HasExtension(name string) bool {
	for _, e := range s.Extensions {
		if e == name {
			return true
		}
	}
	return false
}

// WriteText writes a human-readable report of s.
func (s *Summary) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "; SPIR-V\n")
	fmt.Fprintf(&b, "; Version: %d.%d\n", s.Header.Version.Major, s.Header.Version.Minor)
	fmt.Fprintf(&b, "; Generator: 0x%08X\n", s.Header.Generator)
	fmt.Fprintf(&b, "; Bound: %d\n", s.Header.Bound)
	fmt.Fprintf(&b, "; Size: %d bytes, %d instructions\n", s.Size, s.Instructions)
	fmt.Fprintf(&b, "capabilities: %s\n", strings.Join(s.Capabilities.Strings(), " "))
	if len(s.Extensions) > 0 {
		fmt.Fprintf(&b, "extensions: %s\n", strings.Join(s.Extensions, " "))
	}
	if len(s.ExtInstImports) > 0 {
		fmt.Fprintf(&b, "imports: %s\n", strings.Join(s.ExtInstImports, " "))
	}
	for _, ep := range s.EntryPoints {
		fmt.Fprintf(&b, "entry %s %q\n", ep.Model, ep.Name)
	}
	fmt.Fprintf(&b, "debug names: %d\n", s.DebugNames)
	_, err := io.WriteString(w, b.String())
	return err
}
