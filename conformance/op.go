// Copyright 2020 Aleksandr Demakin. All rights reserved.

// Package conformance runs the same operations through an oracle, normally the hardware,
// and through the software model, and reports every disagreement.
package conformance

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Op is an instruction of the unit.
type Op int

// Supported operations.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpMin
	OpMax
	OpCvtWUS
	OpCvtWS
	OpCvtSWU
	OpCvtSW
	OpEq
	OpLt
	OpLe
	OpSgnj
	OpSgnjn
	OpSgnjx
	OpClass

	// Unsupported operations: the hardware raises an illegal instruction exception.

	OpDiv
	OpSqrt
	OpMAdd
	OpMSub
	OpNMSub
	OpNMAdd

	opCount
)

// Kind is a type of an operand or of a result, as it is kept in an integer register.
type Kind int

const (
	// KindFloat is a binary32 bit pattern.
	KindFloat Kind = iota
	// KindInt is a two's complement int32.
	KindInt
	// KindUint is an uint32.
	KindUint
	// KindBool is 0 or 1.
	KindBool
	// KindClass is a class mask.
	KindClass
)

const (
	opcodeOpFP  = 0b1010011
	opcodeMAdd  = 0b1000011
	opcodeMSub  = 0b1000111
	opcodeNMSub = 0b1001011
	opcodeNMAdd = 0b1001111

	regMask = 0x1f
	anyRS2  = -1

	opcodeField = 0x7f
	funct3Field = 0x7 << 12
	rs2Field    = regMask << 20
	funct7Field = 0x7f << 25
	fmtField    = 0x3 << 25
)

// Registers the vector files and the test programs of the unit use: rd = rs1 = a0, rs2 = a1, rs3 = a2.
const (
	regA0 = 10
	regA1 = 11
	regA2 = 12
)

type opInfo struct {
	name      string
	arity     int
	operand   Kind
	result    Kind
	supported bool
	opcode    uint32
	funct7    uint32
	funct3    uint32
	rs2       int // fixed rs2 field, or anyRS2
}

var (
	opTable = [opCount]opInfo{
		OpAdd:    {"fadd.s", 2, KindFloat, KindFloat, true, opcodeOpFP, 0b0000000, 0b000, anyRS2},
		OpSub:    {"fsub.s", 2, KindFloat, KindFloat, true, opcodeOpFP, 0b0000100, 0b000, anyRS2},
		OpMul:    {"fmul.s", 2, KindFloat, KindFloat, true, opcodeOpFP, 0b0001000, 0b000, anyRS2},
		OpMin:    {"fmin.s", 2, KindFloat, KindFloat, true, opcodeOpFP, 0b0010100, 0b000, anyRS2},
		OpMax:    {"fmax.s", 2, KindFloat, KindFloat, true, opcodeOpFP, 0b0010100, 0b001, anyRS2},
		OpCvtWUS: {"fcvt.wu.s", 1, KindFloat, KindUint, true, opcodeOpFP, 0b1100000, 0b000, 1},
		OpCvtWS:  {"fcvt.w.s", 1, KindFloat, KindInt, true, opcodeOpFP, 0b1100000, 0b000, 0},
		OpCvtSWU: {"fcvt.s.wu", 1, KindUint, KindFloat, true, opcodeOpFP, 0b1101000, 0b000, 1},
		OpCvtSW:  {"fcvt.s.w", 1, KindInt, KindFloat, true, opcodeOpFP, 0b1101000, 0b000, 0},
		OpEq:     {"feq.s", 2, KindFloat, KindBool, true, opcodeOpFP, 0b1010000, 0b010, anyRS2},
		OpLt:     {"flt.s", 2, KindFloat, KindBool, true, opcodeOpFP, 0b1010000, 0b001, anyRS2},
		OpLe:     {"fle.s", 2, KindFloat, KindBool, true, opcodeOpFP, 0b1010000, 0b000, anyRS2},
		OpSgnj:   {"fsgnj.s", 2, KindFloat, KindFloat, true, opcodeOpFP, 0b0010000, 0b000, anyRS2},
		OpSgnjn:  {"fsgnjn.s", 2, KindFloat, KindFloat, true, opcodeOpFP, 0b0010000, 0b001, anyRS2},
		OpSgnjx:  {"fsgnjx.s", 2, KindFloat, KindFloat, true, opcodeOpFP, 0b0010000, 0b010, anyRS2},
		OpClass:  {"fclass.s", 1, KindFloat, KindClass, true, opcodeOpFP, 0b1110000, 0b001, 0},
		OpDiv:    {"fdiv.s", 2, KindFloat, KindFloat, false, opcodeOpFP, 0b0001100, 0b000, anyRS2},
		OpSqrt:   {"fsqrt.s", 1, KindFloat, KindFloat, false, opcodeOpFP, 0b0101100, 0b000, 0},
		OpMAdd:   {"fmadd.s", 3, KindFloat, KindFloat, false, opcodeMAdd, 0, 0, anyRS2},
		OpMSub:   {"fmsub.s", 3, KindFloat, KindFloat, false, opcodeMSub, 0, 0, anyRS2},
		OpNMSub:  {"fnmsub.s", 3, KindFloat, KindFloat, false, opcodeNMSub, 0, 0, anyRS2},
		OpNMAdd:  {"fnmadd.s", 3, KindFloat, KindFloat, false, opcodeNMAdd, 0, 0, anyRS2},
	}

	kindNames = [...]string{"float", "int", "uint", "bool", "class"}
)

// AllOps returns all operations, supported ones first.
func AllOps() []Op {
	ops := make([]Op, 0, opCount)
	for op := Op(0); op < opCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

// SupportedOps returns operations the hardware implements.
func SupportedOps() []Op {
	var ops []Op
	for _, op := range AllOps() {
		if op.Supported() {
			ops = append(ops, op)
		}
	}
	return ops
}

// ParseOp returns an operation by its mnemonic. The `.s` suffix may be omitted.
func ParseOp(s string) (Op, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasSuffix(name, ".s") {
		name += ".s"
	}
	for op, info := range opTable {
		if info.name == name {
			return Op(op), nil
		}
	}
	return 0, errors.Errorf("unknown operation %q", s)
}

// ParseOps parses a comma separated list of mnemonics.
// An empty list or `all` means all operations, `supported` means supported ones.
func ParseOps(list string) ([]Op, error) {
	switch strings.ToLower(strings.TrimSpace(list)) {
	case "", "all":
		return AllOps(), nil
	case "supported":
		return SupportedOps(), nil
	}
	var ops []Op
	for _, name := range strings.Split(list, ",") {
		op, err := ParseOp(name)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (op Op) valid() bool {
	return op >= 0 && op < opCount
}

// String returns the mnemonic of op, like `fadd.s`.
func (op Op) String() string {
	if !op.valid() {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opTable[op].name
}

// Arity returns the number of source registers op reads.
func (op Op) Arity() int {
	if !op.valid() {
		return 0
	}
	return opTable[op].arity
}

// Operand returns the kind of the source operands.
func (op Op) Operand() Kind {
	if !op.valid() {
		return KindFloat
	}
	return opTable[op].operand
}

// Result returns the kind of the value written to the destination register.
func (op Op) Result() Kind {
	if !op.valid() {
		return KindFloat
	}
	return opTable[op].result
}

// Supported returns true, if the hardware implements op.
func (op Op) Supported() bool {
	return op.valid() && opTable[op].supported
}

// Encode returns the instruction word for op with the given register numbers.
// Only 5 low bits of each register number are used. Operations with a fixed rs2 field
// ignore rs2, unary and binary operations ignore rs3.
func (op Op) Encode(rd, rs1, rs2, rs3 uint8) uint32 {
	if !op.valid() {
		return 0
	}
	info := opTable[op]
	reg := func(r uint8) uint32 {
		return uint32(r & regMask)
	}
	if info.arity == 3 {
		// R4-type: rs3 | fmt=00 | rs2 | rs1 | rm=000 | rd | opcode.
		return reg(rs3)<<27 | reg(rs2)<<20 | reg(rs1)<<15 | reg(rd)<<7 | info.opcode
	}
	r2 := reg(rs2)
	if info.rs2 != anyRS2 {
		r2 = uint32(info.rs2)
	}
	return info.funct7<<25 | r2<<20 | reg(rs1)<<15 | info.funct3<<12 | reg(rd)<<7 | info.opcode
}

// Matches returns true, if word is an encoding of op with any registers
// and, for operations that round, any rounding mode.
func (op Op) Matches(word uint32) bool {
	if !op.valid() {
		return false
	}
	info := opTable[op]
	mask := uint32(opcodeField)
	if !op.hasRoundingMode() {
		mask |= funct3Field
	}
	switch {
	case info.arity == 3:
		mask |= fmtField
	case info.rs2 != anyRS2:
		mask |= funct7Field | rs2Field
	default:
		mask |= funct7Field
	}
	return word&mask == op.Encode(0, 0, 0, 0)&mask
}

// hasRoundingMode returns true, if the funct3 field of op is the rm field.
// Encode always writes rm = 000, round to nearest, ties to even.
func (op Op) hasRoundingMode() bool {
	switch op {
	case OpMin, OpMax, OpEq, OpLt, OpLe, OpSgnj, OpSgnjn, OpSgnjx, OpClass:
		return false
	}
	return true
}

// String returns the name of k.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}
