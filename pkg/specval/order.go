package specval

// ByteOrder is the endianness with which a FieldSet's bytes are packed.
type ByteOrder uint8

const (
	LE ByteOrder = iota
	BE
)

func (o ByteOrder) String() string {
	if o == BE {
		return "BE"
	}

	return "LE"
}

// BitOrder governs whether bit zero of a FieldSet is its least- or
// most-significant bit. spec.md's AST/MIR shape (§3.5) carries an optional
// bit_order on FieldSet without separately enumerating the closed set it
// ranges over; this expansion adds it here (see SPEC_FULL.md §3) following
// original_source's LSB-first default.
type BitOrder uint8

const (
	// LSB0 numbers bits starting from the least-significant bit.
	LSB0 BitOrder = iota
	// MSB0 numbers bits starting from the most-significant bit.
	MSB0
)

func (o BitOrder) String() string {
	if o == MSB0 {
		return "MSB0"
	}

	return "LSB0"
}
