// Package specval implements the closed specifier enums of spec §3.3:
// Integer, Access, ByteOrder, BitOrder, BaseType, ResetValue and Repeat.
// Each is modeled the way the teacher models its own closed type enum
// (pkg/corset/type.go): a small value type wrapping a tag, with the
// type-specific algorithms spec.md calls for as methods.
package specval

import "math/big"

// Integer is one of the eight fixed-width machine integer types.
type Integer uint8

const (
	U8 Integer = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
)

// String renders the canonical lower-case name, e.g. "u32".
func (i Integer) String() string {
	switch i {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	default:
		return "?"
	}
}

// IsSigned reports whether this integer type is signed.
func (i Integer) IsSigned() bool {
	return i == I8 || i == I16 || i == I32 || i == I64
}

// SizeBits returns the bit width of this integer type.
func (i Integer) SizeBits() uint32 {
	switch i {
	case U8, I8:
		return 8
	case U16, I16:
		return 16
	case U32, I32:
		return 32
	case U64, I64:
		return 64
	default:
		return 0
	}
}

// MinValue returns the minimum representable value as a big.Int, since
// spec addresses and reset values range over i128/u128.
func (i Integer) MinValue() *big.Int {
	if !i.IsSigned() {
		return big.NewInt(0)
	}

	bits := i.SizeBits()
	v := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))

	return v.Neg(v)
}

// MaxValue returns the maximum representable value as a big.Int.
func (i Integer) MaxValue() *big.Int {
	bits := i.SizeBits()
	if i.IsSigned() {
		bits--
	}

	v := new(big.Int).Lsh(big.NewInt(1), uint(bits))

	return v.Sub(v, big.NewInt(1))
}

// Contains reports whether v lies within [MinValue, MaxValue].
func (i Integer) Contains(v *big.Int) bool {
	return v.Cmp(i.MinValue()) >= 0 && v.Cmp(i.MaxValue()) <= 0
}

// allIntegers lists the eight variants in width-ascending, unsigned-first
// order within each width, used by FindSmallest's preference rule.
var allIntegers = []Integer{U8, I8, U16, I16, U32, I32, U64, I64}

// FindSmallest implements spec §3.3's Integer::find_smallest algorithm: the
// smallest integer type whose range covers [min,max] and whose width is at
// least sizeBits, preferring unsigned when min >= 0. Returns false if no
// integer type satisfies both constraints (the range needs more than 64
// bits).
func FindSmallest(min, max *big.Int, sizeBits uint32) (Integer, bool) {
	var best Integer

	found := false

	for _, cand := range allIntegers {
		if cand.SizeBits() < sizeBits {
			continue
		}

		if !cand.Contains(min) || !cand.Contains(max) {
			continue
		}

		if !found || better(cand, best, min) {
			best = cand
			found = true
		}
	}

	return best, found
}

// better reports whether cand should replace best as the preferred
// candidate: narrower width wins; among equal widths, unsigned wins when
// min >= 0 (mirrors the teacher's general "prefer the most specific variant
// that still fits" style used throughout pkg/corset/type.go).
func better(cand, best Integer, min *big.Int) bool {
	if cand.SizeBits() != best.SizeBits() {
		return cand.SizeBits() < best.SizeBits()
	}

	if min.Sign() >= 0 {
		return !cand.IsSigned() && best.IsSigned()
	}

	return false
}

// BitsRequired returns the minimum bit width needed to represent the
// inclusive range [min,max], treating the range as signed iff the receiver
// is a signed Integer type, per spec §3.3.
func (i Integer) BitsRequired(min, max *big.Int) uint32 {
	if i.IsSigned() {
		return bitsRequiredSigned(min, max)
	}

	return bitsRequiredUnsigned(max)
}

func bitsRequiredUnsigned(max *big.Int) uint32 {
	if max.Sign() <= 0 {
		return 1
	}

	return uint32(max.BitLen())
}

func bitsRequiredSigned(min, max *big.Int) uint32 {
	var bits uint32 = 1

	if max.Sign() > 0 {
		// Need BitLen+1 to keep the sign bit free for positive values.
		bits = uint32(max.BitLen()) + 1
	}

	if min.Sign() < 0 {
		// -2^(n-1) is representable in n bits; anything "more negative"
		// needs one extra bit beyond abs(min)-1's bit length.
		absMinMinusOne := new(big.Int).Neg(min)
		absMinMinusOne.Sub(absMinMinusOne, big.NewInt(1))

		needed := uint32(1)
		if absMinMinusOne.Sign() > 0 {
			needed = uint32(absMinMinusOne.BitLen()) + 1
		}

		if needed > bits {
			bits = needed
		}
	}

	return bits
}
