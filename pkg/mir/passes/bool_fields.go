package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// BoolFieldsChecked is pass 11 of spec §4.3: a Bool field must occupy
// exactly one bit and carry no field_conversion. Either violation removes
// the field, since a multi-bit or converting "bool" has no coherent
// meaning to emit.
func BoolFieldsChecked(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	removal := mir.NewRemovalSet()

	for _, dev := range m.Devices {
		for _, fs := range fieldSetsIn(dev.Objects) {
			for _, f := range fs.Fields {
				if f.BaseType.Value.Kind != specval.Bool {
					continue
				}

				if fieldBitWidth(f) != 1 {
					sink.Add(diag.New("InvalidBoolField",
						fmt.Sprintf("bool field %q spans %d bits, expected exactly 1", f.Name.Original(), fieldBitWidth(f)),
						f.FieldAddress.Span))
					removal.RemoveChild(fs.ID(), f.Name.Original())

					continue
				}

				if f.FieldConversion != nil {
					sink.Add(diag.New("InvalidBoolField",
						fmt.Sprintf("bool field %q declares a field_conversion, which bool fields cannot have", f.Name.Original()),
						f.Span))
					removal.RemoveChild(fs.ID(), f.Name.Original())
				}
			}
		}
	}

	return removal
}
