package passes

import (
	"fmt"
	"math/big"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// BaseTypesSpecified is pass 1 of spec §4.3: resolve every field's base
// type to a concrete FixedSize(Integer). Unspecified becomes Bool for a
// single-bit field, else Uint; unsized Uint/Int are narrowed to the
// smallest Integer that fits the field's bit width. A field wider than 64
// bits is clamped to a 64-bit window and retried so later passes still see
// a resolved type.
func BaseTypesSpecified(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	for _, dev := range m.Devices {
		for _, fs := range fieldSetsIn(dev.Objects) {
			for _, f := range fs.Fields {
				resolveFieldBaseType(f, sink)
			}
		}
	}

	return nil
}

func resolveFieldBaseType(f *mir.Field, sink *diag.Sink) {
	bits := fieldBitWidth(f)
	bt := f.BaseType.Value

	if bt.Kind == specval.Unspecified {
		if bits == 1 {
			bt = specval.NewBool()
		} else {
			bt = specval.NewUint()
		}
	}

	if bt.Kind != specval.Uint && bt.Kind != specval.Int {
		f.BaseType.Value = bt
		return
	}

	min := big.NewInt(0)
	if bt.Kind == specval.Int {
		min = big.NewInt(-1)
	}

	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))

	integer, ok := specval.FindSmallest(min, max, bits)
	if !ok {
		sink.Add(diag.New("IntegerFieldSizeTooBig",
			fmt.Sprintf("field %q is %d bits wide, too big for any integer type", f.Name.Original(), bits),
			f.FieldAddress.Span).
			WithHelp("fields wider than 64 bits are not supported; the address has been clamped to 64 bits"))

		start := f.FieldAddress.Value.Start
		f.FieldAddress.Value.End = start + 64
		bits = 64
		max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))

		integer, ok = specval.FindSmallest(min, max, bits)
		if !ok {
			integer = specval.U64
		}
	}

	f.BaseType.Value = specval.NewFixedSize(integer)
}

func fieldBitWidth(f *mir.Field) uint32 {
	r := f.FieldAddress.Value
	if r.End <= r.Start {
		return 0
	}

	return r.End - r.Start
}
