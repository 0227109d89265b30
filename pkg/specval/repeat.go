package specval

import "math/big"

// RepeatSourceKind is the tag of a RepeatSource.
type RepeatSourceKind uint8

const (
	// RepeatCount replicates an object a fixed number of times.
	RepeatCount RepeatSourceKind = iota
	// RepeatEnum replicates an object once per variant of a named Enum,
	// addressed at each variant's discriminant.
	RepeatEnum
)

// RepeatSource is the closed union Count(u64) | Enum(identifier-name), per
// spec §3.3.
type RepeatSource struct {
	Kind      RepeatSourceKind
	Count     uint64
	EnumName  string // only meaningful when Kind == RepeatEnum; resolved by name within the enclosing Device
}

// NewRepeatCount constructs a fixed-count repeat source.
func NewRepeatCount(n uint64) RepeatSource {
	return RepeatSource{Kind: RepeatCount, Count: n}
}

// NewRepeatEnum constructs an enum-driven repeat source.
func NewRepeatEnum(name string) RepeatSource {
	return RepeatSource{Kind: RepeatEnum, EnumName: name}
}

// Repeat is a declaration that an object is replicated at strided
// addresses, per spec §3.3.
type Repeat struct {
	Source RepeatSource
	Stride *big.Int
}

// New constructs a Repeat.
func NewRepeat(source RepeatSource, stride *big.Int) Repeat {
	return Repeat{source, stride}
}
