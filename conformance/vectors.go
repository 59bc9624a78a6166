// Copyright 2020 Aleksandr Demakin. All rights reserved.

package conformance

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"
	"gopkg.in/yaml.v3"

	"github.com/avdva/zfinx"
)

// Case is a single test vector.
type Case struct {
	Op Op
	In Operands
	// Want is the expected destination register contents, if known.
	Want *uint32
}

// String returns the mnemonic with formatted operands, like `fadd.s 1.5 {0x3fc00000}, -inf {0xff800000}`.
func (c Case) String() string {
	var builder strings.Builder
	builder.WriteString(c.Op.String())
	for i, v := range []uint32{c.In.A, c.In.B, c.In.C}[:c.Op.Arity()] {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteByte(' ')
		builder.WriteString(formatValue(c.Op.Operand(), v, true))
	}
	return builder.String()
}

// Word returns the instruction word of c with the registers of the test programs:
// rd and rs1 are a0, rs2 is a1, rs3 is a2.
func (c Case) Word() uint32 {
	return c.Op.Encode(regA0, regA0, regA1, regA2)
}

// SpecialFloats returns values, which are most likely to reveal policy differences:
// signed zeros, subnormals, the limits of the normal range, halves for rounding,
// infinities and NaNs.
func SpecialFloats() []uint32 {
	positive := []uint32{
		0x00000000, // 0
		0x00000001, // smallest subnormal
		0x007fffff, // largest subnormal
		0x00800000, // smallest normal
		0x7f7fffff, // largest normal
		0x3f800000, // 1
		0x3f000000, // 0.5
		0x40200000, // 2.5
		0x40600000, // 3.5
		0x7f800000, // inf
	}
	values := make([]uint32, 0, 2*len(positive)+3)
	for _, v := range positive {
		values = append(values, v, v|0x80000000)
	}
	return append(values, 0x7fc00000, 0xffc00000, 0x7fa00000)
}

// SpecialInts returns integer operands around the limits of exact conversion and of the int32 range.
func SpecialInts() []uint32 {
	return []uint32{
		0,
		1,
		math.MaxUint32, // -1
		1 << 24,
		1<<24 + 1,
		1<<24 + 3,
		math.MaxInt32,
		math.MaxInt32 + 1, // MinInt32
	}
}

// Special returns all combinations of special operands for each op.
func Special(ops []Op) []Case {
	var cases []Case
	for _, op := range ops {
		values := SpecialFloats()
		if op.Operand() != KindFloat {
			values = SpecialInts()
		}
		cases = append(cases, combine(op, values)...)
	}
	return cases
}

func combine(op Op, values []uint32) []Case {
	var cases []Case
	switch op.Arity() {
	case 1:
		for _, a := range values {
			cases = append(cases, Case{Op: op, In: Operands{A: a}})
		}
	case 2:
		for _, a := range values {
			for _, b := range values {
				cases = append(cases, Case{Op: op, In: Operands{A: a, B: b}})
			}
		}
	case 3:
		for _, a := range values {
			for _, b := range values {
				for _, c := range values {
					cases = append(cases, Case{Op: op, In: Operands{A: a, B: b, C: c}})
				}
			}
		}
	}
	return cases
}

// Random returns n cases for each op. The same seed gives the same cases.
func Random(ops []Op, n int, seed int64) []Case {
	rnd := rand.New(rand.NewSource(seed))
	specialFloats, specialInts := SpecialFloats(), SpecialInts()
	operand := func(kind Kind) uint32 {
		if kind != KindFloat {
			switch rnd.Intn(3) {
			case 0:
				return specialInts[rnd.Intn(len(specialInts))]
			case 1:
				return uint32(rnd.Int31n(2001) - 1000)
			default:
				return rnd.Uint32()
			}
		}
		switch rnd.Intn(4) {
		case 0:
			return specialFloats[rnd.Intn(len(specialFloats))]
		case 1:
			// small values with few fraction bits, to hit ties and exact results.
			return zfinx.FromFloat32(float32(rnd.Int31n(2001)-1000) / 8).Bits()
		default:
			return rnd.Uint32()
		}
	}
	cases := make([]Case, 0, n*len(ops))
	for _, op := range ops {
		for i := 0; i < n; i++ {
			var in [3]uint32
			for j := 0; j < op.Arity(); j++ {
				in[j] = operand(op.Operand())
			}
			cases = append(cases, Case{Op: op, In: Operands{A: in[0], B: in[1], C: in[2]}})
		}
	}
	return cases
}

// Fingerprint returns a hash of the operations and operands of cases.
// Expected values are not hashed.
func Fingerprint(cases []Case) uint64 {
	h := murmur3.New64()
	var buf [16]byte
	for _, c := range cases {
		binary.LittleEndian.PutUint32(buf[0:], uint32(c.Op))
		binary.LittleEndian.PutUint32(buf[4:], c.In.A)
		binary.LittleEndian.PutUint32(buf[8:], c.In.B)
		binary.LittleEndian.PutUint32(buf[12:], c.In.C)
		h.Write(buf[:])
	}
	return h.Sum64()
}

type vectorFile struct {
	Vectors []vectorEntry `yaml:"vectors"`
}

type vectorEntry struct {
	Op   string `yaml:"op"`
	Word string `yaml:"word,omitempty"`
	A    string `yaml:"a,omitempty"`
	B    string `yaml:"b,omitempty"`
	C    string `yaml:"c,omitempty"`
	Want string `yaml:"want,omitempty"`
}

// LoadVectors reads cases from a yaml document:
//
//	vectors:
//	  - {op: fadd.s, a: 1.5, b: 0x7fa00000}
//	  - {op: fcvt.w.s, word: 0xc0050553, a: 2.5, want: 2}
//
// Float values may be in any form zfinx.FromString accepts, integers in Go syntax,
// booleans as true or false. An optional instruction word must encode op,
// register fields are not checked.
func LoadVectors(r io.Reader) ([]Case, error) {
	var file vectorFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "yaml decoding failed")
	}
	cases := make([]Case, 0, len(file.Vectors))
	for i, entry := range file.Vectors {
		c, err := entry.toCase()
		if err != nil {
			return nil, errors.Wrapf(err, "vector %d", i)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// WriteVectors writes cases in the format LoadVectors reads.
func WriteVectors(w io.Writer, cases []Case) error {
	file := vectorFile{Vectors: make([]vectorEntry, 0, len(cases))}
	for _, c := range cases {
		file.Vectors = append(file.Vectors, newVectorEntry(c))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return errors.Wrap(err, "yaml encoding failed")
	}
	return errors.Wrap(enc.Close(), "yaml encoding failed")
}

func newVectorEntry(c Case) vectorEntry {
	entry := vectorEntry{Op: c.Op.String(), Word: fmt.Sprintf("0x%08x", c.Word())}
	operands := [...]*string{&entry.A, &entry.B, &entry.C}
	for i, v := range []uint32{c.In.A, c.In.B, c.In.C}[:c.Op.Arity()] {
		*operands[i] = formatValue(c.Op.Operand(), v, false)
	}
	if c.Want != nil {
		entry.Want = formatValue(c.Op.Result(), *c.Want, false)
	}
	return entry
}

func (entry vectorEntry) toCase() (Case, error) {
	op, err := ParseOp(entry.Op)
	if err != nil {
		return Case{}, err
	}
	if len(entry.Word) > 0 {
		word, err := strconv.ParseUint(entry.Word, 0, 32)
		if err != nil {
			return Case{}, errors.Wrapf(err, "%s: bad word", op)
		}
		if !op.Matches(uint32(word)) {
			return Case{}, errors.Errorf("%s: word 0x%08x encodes another operation", op, word)
		}
	}
	c := Case{Op: op}
	operands := [...]*uint32{&c.In.A, &c.In.B, &c.In.C}
	for i, s := range []string{entry.A, entry.B, entry.C}[:op.Arity()] {
		if len(s) == 0 {
			return Case{}, errors.Errorf("%s: missing operand %c", op, 'a'+i)
		}
		if *operands[i], err = parseValue(op.Operand(), s); err != nil {
			return Case{}, errors.Wrapf(err, "%s: operand %c", op, 'a'+i)
		}
	}
	if len(entry.Want) > 0 {
		want, err := parseValue(op.Result(), entry.Want)
		if err != nil {
			return Case{}, errors.Wrapf(err, "%s: want", op)
		}
		c.Want = &want
	}
	return c, nil
}

// formatValue formats a register value of the given kind.
// Floats are printed with their bits, if verbose is set.
func formatValue(kind Kind, v uint32, verbose bool) string {
	switch kind {
	case KindInt:
		return strconv.FormatInt(int64(int32(v)), 10)
	case KindUint:
		return strconv.FormatUint(uint64(v), 10)
	case KindBool:
		return strconv.FormatBool(v != 0)
	case KindClass:
		if verbose {
			return zfinx.Class(v).String()
		}
		return fmt.Sprintf("0x%03x", v)
	default:
		if verbose {
			return zfinx.FromBits(v).GoString()
		}
		return zfinx.FromBits(v).String()
	}
}

func parseValue(kind Kind, s string) (uint32, error) {
	switch kind {
	case KindInt:
		v, err := strconv.ParseInt(s, 0, 32)
		return uint32(v), errors.Wrap(err, "bad int32")
	case KindUint:
		v, err := strconv.ParseUint(s, 0, 32)
		return uint32(v), errors.Wrap(err, "bad uint32")
	case KindBool:
		v, err := strconv.ParseBool(s)
		return boolValue(v), errors.Wrap(err, "bad bool")
	case KindClass:
		v, err := strconv.ParseUint(s, 0, 16)
		return uint32(v), errors.Wrap(err, "bad class")
	default:
		f, err := zfinx.FromString(s)
		return f.Bits(), err
	}
}
