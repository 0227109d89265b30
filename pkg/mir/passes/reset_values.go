package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// ResetValuesConverted is pass 10 of spec §4.3: a register's integer-form
// reset value is converted to a byte array of its field set's size (in its
// field set's byte order). A value too big to fit produces an error and is
// left unconverted, since removing the register over a cosmetic default is
// more disruptive than the diagnostic.
func ResetValuesConverted(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	for _, dev := range m.Devices {
		fieldSets := map[string]*mir.FieldSet{}
		for _, fs := range fieldSetsIn(dev.Objects) {
			fieldSets[fs.Name.Original()] = fs
		}

		for _, r := range registersIn(dev.Objects) {
			convertResetValue(r, fieldSets, sink)
		}
	}

	return nil
}

func convertResetValue(r *mir.Register, fieldSets map[string]*mir.FieldSet, sink *diag.Sink) {
	if r.ResetValue == nil || r.ResetValue.Kind != specval.ResetInteger {
		return
	}

	fs, ok := fieldSets[r.FieldSetRef]
	if !ok {
		return
	}

	order := specval.LE
	if fs.ByteOrder != nil {
		order = *fs.ByteOrder
	}

	length := int((fs.SizeBits.Value + 7) / 8)

	bytes, ok := r.ResetValue.ToBytes(length, order)
	if !ok {
		sink.Add(diag.New("ResetValueDoesNotFit",
			fmt.Sprintf("register %q's reset value does not fit in %d bytes", r.Name.Original(), length),
			r.Span))

		return
	}

	converted := specval.NewResetBytes(bytes)
	r.ResetValue = &converted
}
