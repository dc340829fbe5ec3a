// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spvbin

import (
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/naga/spirv"
)

// opNames maps opcodes to their names without the "Op" prefix.
var opNames = map[spirv.OpCode]string{
	0:   "Nop",
	1:   "Undef",
	2:   "SourceContinued",
	3:   "Source",
	4:   "SourceExtension",
	5:   "Name",
	6:   "MemberName",
	7:   "String",
	10:  "Extension",
	11:  "ExtInstImport",
	12:  "ExtInst",
	14:  "MemoryModel",
	15:  "EntryPoint",
	16:  "ExecutionMode",
	17:  "Capability",
	19:  "TypeVoid",
	20:  "TypeBool",
	21:  "TypeInt",
	22:  "TypeFloat",
	23:  "TypeVector",
	24:  "TypeMatrix",
	25:  "TypeImage",
	26:  "TypeSampler",
	27:  "TypeSampledImage",
	28:  "TypeArray",
	29:  "TypeRuntimeArray",
	30:  "TypeStruct",
	31:  "TypeOpaque",
	32:  "TypePointer",
	33:  "TypeFunction",
	41:  "ConstantTrue",
	42:  "ConstantFalse",
	43:  "Constant",
	44:  "ConstantComposite",
	45:  "ConstantSampler",
	46:  "ConstantNull",
	48:  "SpecConstantTrue",
	49:  "SpecConstantFalse",
	50:  "SpecConstant",
	51:  "SpecConstantComposite",
	52:  "SpecConstantOp",
	54:  "Function",
	55:  "FunctionParameter",
	56:  "FunctionEnd",
	57:  "FunctionCall",
	59:  "Variable",
	60:  "ImageTexelPointer",
	61:  "Load",
	62:  "Store",
	63:  "CopyMemory",
	64:  "CopyMemorySized",
	65:  "AccessChain",
	66:  "InBoundsAccessChain",
	67:  "PtrAccessChain",
	68:  "ArrayLength",
	69:  "GenericPtrMemSemantics",
	70:  "InBoundsPtrAccessChain",
	71:  "Decorate",
	72:  "MemberDecorate",
	73:  "DecorationGroup",
	74:  "GroupDecorate",
	75:  "GroupMemberDecorate",
	77:  "VectorExtractDynamic",
	78:  "VectorInsertDynamic",
	79:  "VectorShuffle",
	80:  "CompositeConstruct",
	81:  "CompositeExtract",
	82:  "CompositeInsert",
	83:  "CopyObject",
	84:  "Transpose",
	86:  "SampledImage",
	87:  "ImageSampleImplicitLod",
	88:  "ImageSampleExplicitLod",
	89:  "ImageSampleDrefImplicitLod",
	90:  "ImageSampleDrefExplicitLod",
	91:  "ImageSampleProjImplicitLod",
	92:  "ImageSampleProjExplicitLod",
	93:  "ImageSampleProjDrefImplicitLod",
	94:  "ImageSampleProjDrefExplicitLod",
	95:  "ImageFetch",
	96:  "ImageGather",
	97:  "ImageDrefGather",
	98:  "ImageRead",
	99:  "ImageWrite",
	100: "Image",
	101: "ImageQueryFormat",
	102: "ImageQueryOrder",
	103: "ImageQuerySizeLod",
	104: "ImageQuerySize",
	105: "ImageQueryLod",
	106: "ImageQueryLevels",
	107: "ImageQuerySamples",
	109: "ConvertFToU",
	110: "ConvertFToS",
	111: "ConvertSToF",
	112: "ConvertUToF",
	113: "UConvert",
	114: "SConvert",
	115: "FConvert",
	116: "QuantizeToF16",
	117: "ConvertPtrToU",
	118: "SatConvertSToU",
	119: "SatConvertUToS",
	120: "ConvertUToPtr",
	121: "PtrCastToGeneric",
	122: "GenericCastToPtr",
	123: "GenericCastToPtrExplicit",
	124: "Bitcast",
	126: "SNegate",
	127: "FNegate",
	128: "IAdd",
	129: "FAdd",
	130: "ISub",
	131: "FSub",
	132: "IMul",
	133: "FMul",
	134: "UDiv",
	135: "SDiv",
	136: "FDiv",
	137: "UMod",
	138: "SRem",
	139: "SMod",
	140: "FRem",
	141: "FMod",
	142: "VectorTimesScalar",
	143: "MatrixTimesScalar",
	144: "VectorTimesMatrix",
	145: "MatrixTimesVector",
	146: "MatrixTimesMatrix",
	147: "OuterProduct",
	148: "Dot",
	149: "IAddCarry",
	150: "ISubBorrow",
	151: "UMulExtended",
	152: "SMulExtended",
	164: "Any",
	165: "All",
	166: "IsNan",
	167: "IsInf",
	168: "IsFinite",
	169: "IsNormal",
	170: "SignBitSet",
	171: "LessOrGreater",
	172: "Ordered",
	173: "Unordered",
	174: "LogicalEqual",
	175: "LogicalNotEqual",
	176: "LogicalOr",
	177: "LogicalAnd",
	178: "LogicalNot",
	179: "Select",
	180: "IEqual",
	181: "INotEqual",
	182: "UGreaterThan",
	183: "SGreaterThan",
	184: "UGreaterThanEqual",
	185: "SGreaterThanEqual",
	186: "ULessThan",
	187: "SLessThan",
	188: "ULessThanEqual",
	189: "SLessThanEqual",
	190: "FOrdEqual",
	191: "FUnordEqual",
	192: "FOrdNotEqual",
	193: "FUnordNotEqual",
	194: "ShiftRightLogical",
	195: "ShiftRightArithmetic",
	196: "ShiftLeftLogical",
	197: "BitwiseOr",
	198: "BitwiseXor",
	199: "BitwiseAnd",
	200: "Not",
	201: "BitFieldInsert",
	202: "BitFieldSExtract",
	203: "BitFieldUExtract",
	204: "BitReverse",
	205: "BitCount",
	245: "Phi",
	246: "LoopMerge",
	247: "SelectionMerge",
	248: "Label",
	249: "Branch",
	250: "BranchConditional",
	251: "Switch",
	252: "Kill",
	253: "Return",
	254: "ReturnValue",
	255: "Unreachable",
	256: "LifetimeStart",
	257: "LifetimeStop",
}

// OpName returns the name of op, such as "OpEntryPoint".
func OpName(op spirv.OpCode) string {
	if s, ok := opNames[op]; ok {
		return "Op" + s
	}
	return fmt.Sprintf("Op(%d)", uint16(op))
}

// WriteListing writes one line per instruction of data: the word offset,
// the opcode name and the raw operand words. Literal strings of debug and
// mode-setting instructions are shown decoded.
func WriteListing(w io.Writer, data []byte) error {
	var werr error
	_, err := Walk(data, func(inst Instruction) error {
		var b strings.Builder
		fmt.Fprintf(&b, "%6d  %s", inst.Word, OpName(inst.Opcode))
		for i := 0; i < len(inst.Operands); i++ {
			if start, ok := literalOperand(inst.Opcode); ok && i == start {
				s, n := inst.LiteralString(i)
				fmt.Fprintf(&b, " %q", s)
				i += n - 1
				continue
			}
			fmt.Fprintf(&b, " %d", inst.Operands[i])
		}
		b.WriteByte('\n')
		_, werr = io.WriteString(w, b.String())
		return werr
	})
	if err != nil {
		return err
	}
	return werr
}

// literalOperand returns the operand index at which op carries a literal
// string.
func literalOperand(op spirv.OpCode) (int, bool) {
	switch op {
	case opExtension:
		return 0, true
	case spirv.OpExtInstImport, spirv.OpName:
		return 1, true
	case spirv.OpMemberName, spirv.OpEntryPoint:
		return 2, true
	}
	return 0, false
}
