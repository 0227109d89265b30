package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
)

// FieldConversionValid is pass 8 of spec §4.3: a field naming a
// field_conversion target must reference an existing Enum or Extern whose
// base type matches the field's own, and (when the conversion is declared
// infallible) the target must actually be able to support a total
// conversion. Any violation removes the field.
func FieldConversionValid(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	removal := mir.NewRemovalSet()

	for _, dev := range m.Devices {
		enums := map[string]*mir.Enum{}
		for _, e := range enumsIn(dev.Objects) {
			enums[e.Name.Original()] = e
		}

		externs := map[string]*mir.Extern{}
		for _, ext := range externsIn(dev.Objects) {
			externs[ext.Name.Original()] = ext
		}

		for _, fs := range fieldSetsIn(dev.Objects) {
			for _, f := range fs.Fields {
				if f.FieldConversion == nil {
					continue
				}

				if !checkFieldConversion(f, enums, externs, sink) {
					removal.RemoveChild(fs.ID(), f.Name.Original())
				}
			}
		}
	}

	return removal
}

func checkFieldConversion(f *mir.Field, enums map[string]*mir.Enum, externs map[string]*mir.Extern, sink *diag.Sink) bool {
	fc := f.FieldConversion
	target := fc.TypeName.Value

	if e, ok := enums[target]; ok {
		return checkEnumConversion(f, e, fc, sink)
	}

	if ext, ok := externs[target]; ok {
		return checkExternConversion(f, ext, fc, sink)
	}

	sink.Add(diag.New("ReferencedObjectDoesNotExist",
		fmt.Sprintf("field %q converts to unknown type %q", f.Name.Original(), target), fc.TypeName.Span))

	return false
}

func checkEnumConversion(f *mir.Field, e *mir.Enum, fc *mir.FieldConversion, sink *diag.Sink) bool {
	if f.BaseType.Value.Kind != e.BaseType.Value.Kind || f.BaseType.Value.Integer != e.BaseType.Value.Integer {
		sink.Add(diag.New("DifferentBaseTypes",
			fmt.Sprintf("field %q (%s) and enum %q (%s) have different base types",
				f.Name.Original(), f.BaseType.Value, e.Name.Original(), e.BaseType.Value),
			fc.TypeName.Span))

		return false
	}

	if fc.Fallible {
		return true
	}

	style := mir.Fallible
	if e.GenerationStyle != nil {
		style = *e.GenerationStyle
	}

	switch style {
	case mir.Fallback:
		return true
	case mir.InfallibleWithinRange:
		fieldBits := fieldBitWidth(f)

		sizeBits := uint32(0)
		if e.SizeBits != nil {
			sizeBits = *e.SizeBits
		}

		if fieldBits <= sizeBits {
			return true
		}

		sink.Add(diag.New("InvalidInfallibleConversion",
			fmt.Sprintf("field %q is %d bits wide but enum %q only covers %d bits infallibly",
				f.Name.Original(), fieldBits, e.Name.Original(), sizeBits),
			fc.TypeName.Span))

		return false
	default:
		sink.Add(diag.New("InvalidInfallibleConversion",
			fmt.Sprintf("enum %q does not support an infallible conversion; mark the field conversion fallible",
				e.Name.Original()),
			fc.TypeName.Span))

		return false
	}
}

func checkExternConversion(f *mir.Field, ext *mir.Extern, fc *mir.FieldConversion, sink *diag.Sink) bool {
	if f.BaseType.Value.Kind != ext.BaseType.Value.Kind || f.BaseType.Value.Integer != ext.BaseType.Value.Integer {
		sink.Add(diag.New("DifferentBaseTypes",
			fmt.Sprintf("field %q (%s) and extern %q (%s) have different base types",
				f.Name.Original(), f.BaseType.Value, ext.Name.Original(), ext.BaseType.Value),
			fc.TypeName.Span))

		return false
	}

	if fc.Fallible {
		return true
	}

	if !ext.SupportsInfallible {
		sink.Add(diag.New("InvalidInfallibleConversion",
			fmt.Sprintf("extern %q does not support an infallible conversion", ext.Name.Original()),
			fc.TypeName.Span))

		return false
	}

	return true
}
