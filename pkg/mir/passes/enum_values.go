package passes

import (
	"fmt"
	"math/big"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
	"github.com/regspec/ddc/pkg/util"
)

// EnumValuesChecked is pass 5 of spec §4.3: assign each variant's
// discriminant, validate the assignment, and infer the enum's
// generation_style (Fallible, InfallibleWithinRange or Fallback).
func EnumValuesChecked(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	removal := mir.NewRemovalSet()

	for _, dev := range m.Devices {
		for _, e := range enumsIn(dev.Objects) {
			if !checkEnum(e, sink) {
				removal.RemoveObject(e.ID())
			}
		}
	}

	return removal
}

// checkEnum assigns discriminants and validates e in place, returning
// false if e must be removed entirely.
func checkEnum(e *mir.Enum, sink *diag.Sink) bool {
	var (
		counter     = big.NewInt(0)
		numDefault  int
		numCatchAll int
		assigned    []*big.Int
	)

	for _, v := range e.Variants {
		switch v.ValueKind {
		case mir.EnumValueSpecified:
			v.Discriminant = new(big.Int).Set(v.Specified)
			counter = new(big.Int).Add(v.Specified, big.NewInt(1))
		case mir.EnumValueUnspecified:
			v.Discriminant = new(big.Int).Set(counter)
			counter = new(big.Int).Add(counter, big.NewInt(1))
		case mir.EnumValueDefault:
			numDefault++
			v.Discriminant = new(big.Int).Set(counter)
			counter = new(big.Int).Add(counter, big.NewInt(1))
		case mir.EnumValueCatchAll:
			numCatchAll++
			v.Discriminant = new(big.Int).Set(counter)
			counter = new(big.Int).Add(counter, big.NewInt(1))
		}

		assigned = append(assigned, v.Discriminant)
	}

	if numDefault > 1 {
		sink.Add(diag.New("DuplicateEnumMarker",
			fmt.Sprintf("enum %q declares more than one Default variant", e.Name.Original()), e.Span))
		return false
	}

	if numCatchAll > 1 {
		sink.Add(diag.New("DuplicateEnumMarker",
			fmt.Sprintf("enum %q declares more than one CatchAll variant", e.Name.Original()), e.Span))
		return false
	}

	baseInt, haveBaseInt := baseInteger(e.BaseType.Value)

	if haveBaseInt {
		for _, d := range assigned {
			if !baseInt.Contains(d) {
				sink.Add(diag.New("DiscriminantOutOfRange",
					fmt.Sprintf("enum %q assigns a discriminant %s outside the range of %s", e.Name.Original(), d, baseInt),
					e.Span))
				return false
			}
		}
	}

	if hasDuplicateDiscriminant(assigned) {
		sink.Add(diag.New("DuplicateEnumDiscriminant",
			fmt.Sprintf("enum %q assigns the same discriminant to two variants", e.Name.Original()), e.Span))
		return false
	}

	style, sizeBits := inferGenerationStyle(assigned, numCatchAll > 0, baseInt, haveBaseInt)

	e.GenerationStyle = &style
	e.SizeBits = &sizeBits

	return true
}

func baseInteger(bt specval.BaseType) (specval.Integer, bool) {
	if bt.Kind != specval.FixedSize {
		return 0, false
	}

	return bt.Integer, true
}

func hasDuplicateDiscriminant(assigned []*big.Int) bool {
	for i := 0; i < len(assigned); i++ {
		for j := i + 1; j < len(assigned); j++ {
			if assigned[i].Cmp(assigned[j]) == 0 {
				return true
			}
		}
	}

	return false
}

// inferGenerationStyle implements spec §4.3 pass 5's inference rule:
// Fallback wins if a CatchAll exists; InfallibleWithinRange if the
// assigned discriminants are exactly [0, 2^k) for some k>=1; otherwise
// Fallible. size_bits is k for InfallibleWithinRange, else the base
// type's width.
func inferGenerationStyle(assigned []*big.Int, hasCatchAll bool, baseInt specval.Integer, haveBaseInt bool) (mir.GenerationStyle, uint32) {
	fallbackWidth := uint32(0)
	if haveBaseInt {
		fallbackWidth = baseInt.SizeBits()
	}

	if hasCatchAll {
		return mir.Fallback, fallbackWidth
	}

	if k, ok := isExactPow2Range(assigned); ok {
		return mir.InfallibleWithinRange, k
	}

	return mir.Fallible, fallbackWidth
}

// isExactPow2Range reports whether assigned is exactly the set
// {0,1,...,2^k - 1} for some k >= 1, returning k.
//
// A broader form exists in the wild: some generators also recognize a
// contiguous-but-offset range [base, base+2^k) as infallible, shifting
// before the range check instead of requiring base==0. This pass
// intentionally does not do that; spec.md's own wording for this
// algorithm names only the zero-based form.
func isExactPow2Range(assigned []*big.Int) (uint32, bool) {
	if len(assigned) == 0 {
		return 0, false
	}

	seen := util.NewHashSet[util.BytesKey](uint(len(assigned)))

	maxVal := assigned[0]

	for _, d := range assigned {
		if d.Sign() < 0 {
			return 0, false
		}

		seen.Insert(util.NewBytesKey(d.Bytes()))

		if d.Cmp(maxVal) > 0 {
			maxVal = d
		}
	}

	n := big.NewInt(int64(seen.Size()))

	// {0,...,n-1} has n elements; it is exactly [0,2^k) iff n is a power
	// of two and the max element is n-1.
	if maxVal.Cmp(new(big.Int).Sub(n, big.NewInt(1))) != 0 {
		return 0, false
	}

	k := uint32(0)
	pow := big.NewInt(1)

	for pow.Cmp(n) < 0 {
		pow = new(big.Int).Lsh(pow, 1)
		k++
	}

	if pow.Cmp(n) != 0 || k == 0 {
		return 0, false
	}

	return k, true
}
