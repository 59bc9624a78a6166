// Copyright 2020 Aleksandr Demakin. All rights reserved.

package zfinx

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	qNaN    = FromBits(0x7fc00000)
	negQNaN = FromBits(0xffc00000)
	sNaN    = FromBits(0x7fa00000)
	sNaN1   = FromBits(0x7f800001)
	posSub  = FromBits(0x00000001)
	negSub  = FromBits(0x80000001)
	maxSub  = FromBits(0x007fffff)
)

func fl(f float32) Float {
	return FromFloat32(f)
}

func TestPredicates(t *testing.T) {
	a := assert.New(t)
	tests := []struct {
		f                                      Float
		nan, snan, qnan, inf, zero, sub, norm bool
	}{
		{PosZero, false, false, false, false, true, false, false},
		{NegZero, false, false, false, false, true, false, false},
		{fl(1), false, false, false, false, false, false, true},
		{MinNormal, false, false, false, false, false, false, true},
		{MaxNormal, false, false, false, false, false, false, true},
		{posSub, false, false, false, false, false, true, false},
		{negSub, false, false, false, false, false, true, false},
		{maxSub, false, false, false, false, false, true, false},
		{PosInf, false, false, false, true, false, false, false},
		{NegInf, false, false, false, true, false, false, false},
		{qNaN, true, false, true, false, false, false, false},
		{negQNaN, true, false, true, false, false, false, false},
		{sNaN, true, true, false, false, false, false, false},
		{sNaN1, true, true, false, false, false, false, false},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			a.Equal(test.nan, test.f.IsNaN())
			a.Equal(test.snan, test.f.IsSNaN())
			a.Equal(test.qnan, test.f.IsQNaN())
			a.Equal(test.inf, test.f.IsInf(0))
			a.Equal(test.zero, test.f.IsZero())
			a.Equal(test.sub, test.f.IsSubnormal())
			a.Equal(test.norm, test.f.IsNormal())
			a.Equal(!test.nan && !test.inf, test.f.IsFinite())
		})
	}
	a.True(PosInf.IsInf(1))
	a.False(PosInf.IsInf(-1))
	a.True(NegInf.IsInf(-1))
	a.False(NegInf.IsInf(1))
	a.True(NegZero.Signbit())
	a.True(negQNaN.Signbit())
	a.False(qNaN.Signbit())
}

func TestDualView(t *testing.T) {
	a := assert.New(t)
	f := fl(1.5)
	a.Equal(uint32(0x3fc00000), f.Bits())
	a.Equal(float32(1.5), f.Float32())
	a.Equal(f, FromBits(math.Float32bits(f.Float32())))
	// a signaling NaN survives the float32 view.
	a.Equal(sNaN, FromFloat32(sNaN.Float32()))
	a.Equal(float32(math.MaxFloat32), MaxNormal.Float32())
	a.Equal(float32(1.1754944e-38), MinNormal.Float32())
}

func TestString(t *testing.T) {
	a := assert.New(t)
	tests := []struct {
		f Float
		s string
	}{
		{PosZero, "0"},
		{NegZero, "-0"},
		{fl(1.5), "1.5"},
		{fl(-0.1), "-0.1"},
		{MaxNormal, "3.4028235e+38"},
		{posSub, "1e-45"},
		{PosInf, "+inf"},
		{NegInf, "-inf"},
		{qNaN, "qnan(0x7fc00000)"},
		{negQNaN, "qnan(0xffc00000)"},
		{sNaN, "snan(0x7fa00000)"},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			a.Equal(test.s, test.f.String())
		})
	}
	a.Equal("1.5 {0x3fc00000}", fl(1.5).GoString())
	a.Equal("0x3fc00000", fl(1.5).HexString())
}

func TestFromString(t *testing.T) {
	a := assert.New(t)
	tests := []struct {
		s string
		f Float
		e string
	}{
		{"1.5", fl(1.5), ""},
		{" 1.5 ", fl(1.5), ""},
		{`"  -2.5"`, fl(-2.5), ""},
		{"0.1", fl(0.1), ""},
		{"-0", NegZero, ""},
		{"+0", PosZero, ""},
		{"1e39", PosInf, ""},
		{"-1e39", NegInf, ""},
		{"1e-50", PosZero, ""},
		{"1e-45", posSub, ""},
		{"0x7fa00000", sNaN, ""},
		{`"0x7FA00000"`, sNaN, ""},
		{"0X3F80_0000", fl(1), ""},
		{"0x1", posSub, ""},
		{"inf", PosInf, ""},
		{"+Inf", PosInf, ""},
		{"-infinity", NegInf, ""},
		{"nan", CanonicalNaN, ""},
		{"-qnan", negQNaN, ""},
		{"snan", sNaN, ""},
		{"-snan", FromBits(0xffa00000), ""},
		{"qnan(0x7fc00001)", FromBits(0x7fc00001), ""},
		{" snan(0x7f800001) ", sNaN1, ""},
		{"", 0, "empty input"},
		{`"`, 0, "empty input"},
		{`""`, 0, "empty input"},
		{"   ", 0, "empty input"},
		{"abc", 0, `parsing failed: bad number "abc"`},
		{"0x", 0, `parsing failed: bad number "0x"`},
		{"0x1g", 0, "parsing failed: unexpected symbol 'g' at pos 4"},
		{"  0x1g", 0, "parsing failed: unexpected symbol 'g' at pos 6"},
		{`"0x1g"`, 0, "parsing failed: unexpected symbol 'g' at pos 5"},
		{"0x123456789", 0, "parsing failed: too many digits at pos 11"},
		{"snan(0x7fc00000)", 0, "parsing failed: 0x7fc00000 is not a snan"},
		{"qnan(1)", 0, "parsing failed: bit pattern expected at pos 6"},
		{"nan(0x7fc00000)", 0, `parsing failed: unexpected name "nan" at pos 1`},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			f, err := FromString(test.s)
			if len(test.e) == 0 {
				if a.NoError(err, test.s) {
					a.Equal(test.f, f, "%s: want %#v, got %#v", test.s, test.f, f)
				}
			} else {
				a.EqualError(err, test.e)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	a := assert.New(t)
	rnd := rand.New(rand.NewSource(1))
	values := []Float{PosZero, NegZero, PosInf, NegInf, qNaN, negQNaN, sNaN, sNaN1, posSub, negSub, maxSub, MinNormal, MaxNormal}
	for i := 0; i < 1000; i++ {
		values = append(values, FromBits(rnd.Uint32()))
	}
	for _, f := range values {
		parsed, err := FromString(f.String())
		if a.NoError(err, f.String()) {
			a.Equal(f, parsed, f.String())
		}
		parsed, err = FromString(f.HexString())
		if a.NoError(err, f.HexString()) {
			a.Equal(f, parsed, f.HexString())
		}
	}
}

func TestJSON(t *testing.T) {
	a := assert.New(t)
	defer func(mode int) {
		JSONMode = mode
	}(JSONMode)
	type data struct {
		V Float `json:"v"`
	}
	tests := []struct {
		f       Float
		mode    int
		encoded string
	}{
		{fl(1.5), JSONModeBits, `{"v":"0x3fc00000"}`},
		{fl(1.5), JSONModeFloat, `{"v":1.5}`},
		{fl(1.5), JSONModeCompact, `{"v":1.5}`},
		{fl(-0.1), JSONModeFloat, `{"v":-0.1}`},
		{NegZero, JSONModeFloat, `{"v":-0}`},
		{NegZero, JSONModeCompact, `{"v":"0x80000000"}`},
		{PosInf, JSONModeFloat, `{"v":"0x7f800000"}`},
		{sNaN, JSONModeCompact, `{"v":"0x7fa00000"}`},
		{MaxNormal, JSONModeCompact, `{"v":3.4028235e+38}`},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			JSONMode = test.mode
			encoded, err := json.Marshal(data{V: test.f})
			if !a.NoError(err) {
				return
			}
			a.Equal(test.encoded, string(encoded))
			var decoded data
			if a.NoError(json.Unmarshal(encoded, &decoded)) {
				a.Equal(test.f, decoded.V)
			}
		})
	}
	var decoded data
	a.NoError(json.Unmarshal([]byte(`{"v":"-inf"}`), &decoded))
	a.Equal(NegInf, decoded.V)
	a.Error(json.Unmarshal([]byte(`{"v":{"m":1}}`), &decoded))
	a.Error(json.Unmarshal([]byte(`{"v":true}`), &decoded))
}

func BenchmarkFromString(b *testing.B) {
	inputs := []string{"1.5", "0x7fa00000", "-inf", "3.4028235e+38"}
	var dummy uint32
	for i := 0; i < b.N; i++ {
		f, _ := FromString(inputs[i%len(inputs)])
		dummy += f.Bits()
	}
	// this metric is just to prevent unwanted optimisations in calculations of `dummy.`
	b.ReportMetric(float64(dummy), "dummy_metric")
}
