// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvbin

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga/spirv"
)

// InsertExtensions returns a copy of data with an OpExtension instruction
// for every name not already declared. New instructions go after the
// existing extension declarations, or after the capabilities when there
// are none, which keeps the logical layout section order intact.
func InsertExtensions(data []byte, names []string) ([]byte, error) {
	for _, name := range names {
		if name == "" || strings.ContainsRune(name, 0) {
			return nil, fmt.Errorf("invalid extension name %q", name)
		}
	}

	declared := make(map[string]bool)
	at := HeaderWords
	h, err := Walk(data, func(inst Instruction) error {
		switch inst.Opcode {
		case spirv.OpCapability:
			at = inst.Word + inst.WordCount()
		case opExtension:
			name, _ := inst.LiteralString(0)
			declared[name] = true
			at = inst.Word + inst.WordCount()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var extra []uint32
	for _, name := range names {
		if declared[name] {
			continue
		}
		declared[name] = true
		b := spirv.NewInstructionBuilder()
		b.AddString(name)
		extra = append(extra, b.Build(opExtension).Encode()...)
	}

	out := make([]byte, 0, len(data)+len(extra)*4)
	out = append(out, data[:at*4]...)
	var buf [4]byte
	for _, w := range extra {
		h.Order.PutUint32(buf[:], w)
		out = append(out, buf[:]...)
	}
	out = append(out, data[at*4:]...)
	return out, nil
}
