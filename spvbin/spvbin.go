// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package spvbin reads SPIR-V binaries at the instruction level.
//
// It decodes the module header, walks the instruction stream, summarizes
// the module-level declarations (capabilities, extensions, entry points),
// and can splice OpExtension instructions into an existing binary.
package spvbin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga/spirv"
)

// HeaderWords is the size of the SPIR-V module header in words.
const HeaderWords = 5

// opExtension is OpExtension; naga only emits it through ModuleBuilder.
const opExtension spirv.OpCode = 10

// ErrMalformed is returned for binaries that are not valid SPIR-V.
var ErrMalformed = errors.New("malformed SPIR-V")

// Header is the decoded five-word module header.
type Header struct {
	Version   spirv.Version
	Generator uint32
	Bound     uint32
	Schema    uint32

	// Order is the byte order of the binary, detected from the magic number.
	Order binary.ByteOrder
}

// Instruction is one decoded instruction.
type Instruction struct {
	Opcode   spirv.OpCode
	Operands []uint32

	// Word is the index of the instruction's first word in the binary.
	Word int
}

// WordCount returns the encoded size of the instruction in words.
func (i Instruction) WordCount() int { return len(i.Operands) + 1 }

// LiteralString decodes a literal string operand starting at operand index start.
// It returns the string and the number of operand words it occupied.
func (i Instruction) LiteralString(start int) (string, int) {
	var sb strings.Builder
	for n, w := range i.Operands[min(start, len(i.Operands)):] {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), n + 1
			}
			sb.WriteByte(b)
		}
	}
	return sb.String(), len(i.Operands) - min(start, len(i.Operands))
}

// DecodeHeader decodes and checks the module header.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderWords*4 {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(data))
	}
	if len(data)%4 != 0 {
		return Header{}, fmt.Errorf("%w: length %d is not a multiple of 4", ErrMalformed, len(data))
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(data) == spirv.MagicNumber:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(data) == spirv.MagicNumber:
		order = binary.BigEndian
	default:
		return Header{}, fmt.Errorf("%w: bad magic 0x%08X", ErrMalformed, binary.LittleEndian.Uint32(data))
	}

	version := order.Uint32(data[4:])
	return Header{
		Version: spirv.Version{
			Major: uint8(version >> 16),
			Minor: uint8(version >> 8),
		},
		Generator: order.Uint32(data[8:]),
		Bound:     order.Uint32(data[12:]),
		Schema:    order.Uint32(data[16:]),
		Order:     order,
	}, nil
}

// Walk decodes the header and calls fn for every instruction in order.
// Walking stops at the first error returned by fn.
func Walk(data []byte, fn func(Instruction) error) (Header, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return h, err
	}

	words := len(data) / 4
	for w := HeaderWords; w < words; {
		first := h.Order.Uint32(data[w*4:])
		count := int(first >> 16)
		if count == 0 || w+count > words {
			return h, fmt.Errorf("%w: invalid word count %d at word %d", ErrMalformed, count, w)
		}
		ops := make([]uint32, count-1)
		for i := range ops {
			ops[i] = h.Order.Uint32(data[(w+1+i)*4:])
		}
		inst := Instruction{
			Opcode:   spirv.OpCode(first & 0xFFFF),
			Operands: ops,
			Word:     w,
		}
		if err := fn(inst); err != nil {
			return h, err
		}
		w += count
	}
	return h, nil
}

// Decode returns the header and every instruction in the binary.
func Decode(data []byte) (Header, []Instruction, error) {
	var insts []Instruction
	h, err := Walk(data, func(inst Instruction) error {
		insts = append(insts, inst)
		return nil
	})
	if err != nil {
		return h, nil, err
	}
	return h, insts, nil
}
