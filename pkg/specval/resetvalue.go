package specval

import "math/big"

// ResetValueKind is the tag of a ResetValue.
type ResetValueKind uint8

const (
	// ResetInteger holds a 128-bit unsigned integer, as manifested by a
	// parser that read a plain numeric literal.
	ResetInteger ResetValueKind = iota
	// ResetBytes holds an explicit byte array, as manifested by a parser
	// that read e.g. a hex-string or byte-list literal.
	ResetBytes
)

// ResetValue is the closed union described in spec §3.3: either a 128-bit
// unsigned integer or an explicit byte array. The reset_values_converted
// MIR pass (spec §4.3 pass 10) normalizes the Integer form into Bytes.
type ResetValue struct {
	Kind    ResetValueKind
	Integer *big.Int // only meaningful when Kind == ResetInteger
	Bytes   []byte   // only meaningful when Kind == ResetBytes
}

// NewResetInteger constructs an integer-form reset value.
func NewResetInteger(v *big.Int) ResetValue {
	return ResetValue{Kind: ResetInteger, Integer: v}
}

// NewResetBytes constructs a byte-array-form reset value.
func NewResetBytes(b []byte) ResetValue {
	return ResetValue{Kind: ResetBytes, Bytes: append([]byte(nil), b...)}
}

// ToBytes converts an integer-form reset value to a byte array of the given
// length in the given byte order, per spec §4.3 pass 10. It returns false
// if the integer does not fit in length bytes. If the receiver is already
// in byte form, it is returned verbatim (after checking/padding to length).
func (r ResetValue) ToBytes(length int, order ByteOrder) ([]byte, bool) {
	if r.Kind == ResetBytes {
		if len(r.Bytes) != length {
			return nil, false
		}

		return append([]byte(nil), r.Bytes...), true
	}

	maxVal := new(big.Int).Lsh(big.NewInt(1), uint(length*8))
	if r.Integer.Sign() < 0 || r.Integer.Cmp(maxVal) >= 0 {
		return nil, false
	}

	be := make([]byte, length)
	r.Integer.FillBytes(be)

	if order == LE {
		for i, j := 0, len(be)-1; i < j; i, j = i+1, j-1 {
			be[i], be[j] = be[j], be[i]
		}
	}

	return be, true
}
