// Copyright 2020 Aleksandr Demakin. All rights reserved.

package conformance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	a := assert.New(t)
	const (
		a0 = 10
		a1 = 11
		a2 = 12
	)
	tests := []struct {
		op   Op
		word uint32
	}{
		{OpAdd, 0x00b50553},
		{OpSub, 0x08b50553},
		{OpMul, 0x10b50553},
		{OpDiv, 0x18b50553},
		{OpMin, 0x28b50553},
		{OpMax, 0x28b51553},
		{OpSgnj, 0x20b50553},
		{OpSgnjn, 0x20b51553},
		{OpSgnjx, 0x20b52553},
		{OpEq, 0xa0b52553},
		{OpLt, 0xa0b51553},
		{OpLe, 0xa0b50553},
		{OpCvtWS, 0xc0050553},
		{OpCvtWUS, 0xc0150553},
		{OpCvtSW, 0xd0050553},
		{OpCvtSWU, 0xd0150553},
		{OpClass, 0xe0051553},
		{OpSqrt, 0x58050553},
		{OpMAdd, 0x60b50543},
		{OpMSub, 0x60b50547},
		{OpNMSub, 0x60b5054b},
		{OpNMAdd, 0x60b5054f},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			word := test.op.Encode(a0, a0, a1, a2)
			a.Equal(test.word, word, "%s: want 0x%08x, got 0x%08x", test.op, test.word, word)
		})
	}
	a.Equal(len(tests), len(AllOps()))
	// only 5 bits of register numbers are used.
	a.Equal(uint32(0x00b50553), OpAdd.Encode(a0|0x20, a0|0xe0, a1, 0))
	a.Equal(uint32(0x00000053), OpAdd.Encode(0, 0, 0, 0))
	a.Equal(uint32(0), Op(-1).Encode(1, 2, 3, 4))
}

func TestMatches(t *testing.T) {
	a := assert.New(t)
	tests := []struct {
		word uint32
		op   Op
	}{
		{0x00b50553, OpAdd},
		{0x00b57553, OpAdd}, // rm = dyn
		{0x0820f0d3, OpSub},
		{0x28b50553, OpMin},
		{0x28b51553, OpMax},
		{0xc0050553, OpCvtWS},
		{0xc0150553, OpCvtWUS},
		{0xe0051553, OpClass},
		{0x60b50543, OpMAdd},
		{0x0020f1c3, OpMAdd},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			for _, op := range AllOps() {
				a.Equal(op == test.op, op.Matches(test.word), "%s: 0x%08x", op, test.word)
			}
		})
	}
	for _, op := range AllOps() {
		a.True(op.Matches(Case{Op: op}.Word()), op.String())
	}
	a.False(OpMAdd.Matches(0x62b50543)) // fmadd.d
	a.False(OpMin.Matches(0x28b52553))  // funct3 010 is not a min/max
	a.False(Op(-1).Matches(0))
}

func TestOpInfo(t *testing.T) {
	a := assert.New(t)
	a.Equal("fadd.s", OpAdd.String())
	a.Equal("fcvt.wu.s", OpCvtWUS.String())
	a.Equal("Op(100)", Op(100).String())
	a.Equal(2, OpAdd.Arity())
	a.Equal(1, OpSqrt.Arity())
	a.Equal(3, OpNMAdd.Arity())
	a.Equal(0, Op(100).Arity())
	a.Equal(KindUint, OpCvtSWU.Operand())
	a.Equal(KindInt, OpCvtSW.Operand())
	a.Equal(KindFloat, OpCvtSW.Result())
	a.Equal(KindInt, OpCvtWS.Result())
	a.Equal(KindBool, OpLe.Result())
	a.Equal(KindClass, OpClass.Result())
	a.Equal("class", KindClass.String())
	a.Equal("Kind(9)", Kind(9).String())
	a.Len(SupportedOps(), 16)
	for _, op := range SupportedOps() {
		a.True(op.Supported())
	}
	for _, op := range []Op{OpDiv, OpSqrt, OpMAdd, OpMSub, OpNMSub, OpNMAdd, Op(-1)} {
		a.False(op.Supported(), op.String())
	}
}

func TestParseOp(t *testing.T) {
	a := assert.New(t)
	for _, op := range AllOps() {
		parsed, err := ParseOp(op.String())
		if a.NoError(err) {
			a.Equal(op, parsed)
		}
	}
	op, err := ParseOp(" FMADD ")
	if a.NoError(err) {
		a.Equal(OpMAdd, op)
	}
	op, err = ParseOp("fcvt.w")
	if a.NoError(err) {
		a.Equal(OpCvtWS, op)
	}
	_, err = ParseOp("fadd.d")
	a.EqualError(err, `unknown operation "fadd.d"`)
}

func TestParseOps(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ops, err := ParseOps("")
	r.NoError(err)
	a.Equal(AllOps(), ops)
	ops, err = ParseOps("supported")
	r.NoError(err)
	a.Equal(SupportedOps(), ops)
	ops, err = ParseOps("fadd.s, fmin,fclass.s")
	r.NoError(err)
	a.Equal([]Op{OpAdd, OpMin, OpClass}, ops)
	_, err = ParseOps("fadd,fdivv")
	a.Error(err)
}
