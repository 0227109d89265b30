package passes

import (
	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
)

// Pass is one entry in the fixed-order pipeline (spec §4.3): it mutates m
// in place, records diagnostics into sink, and may return a RemovalSet the
// orchestrator applies before the next pass runs. A nil return means
// nothing needs removing.
type Pass struct {
	Name string
	Run  func(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet
}

// Pipeline returns the fifteen ordered passes of spec §4.3, in the fixed
// order later passes depend on.
func Pipeline() []Pass {
	return []Pass{
		{"base_types_specified", BaseTypesSpecified},
		{"device_name_is_pascal", DeviceNameIsPascal},
		{"names_checked", NamesChecked},
		{"names_unique", NamesUnique},
		{"enum_values_checked", EnumValuesChecked},
		{"repeat_with_enums_checked", RepeatWithEnumsChecked},
		{"extern_values_checked", ExternValuesChecked},
		{"field_conversion_valid", FieldConversionValid},
		{"byte_order_specified", ByteOrderSpecified},
		{"reset_values_converted", ResetValuesConverted},
		{"bool_fields_checked", BoolFieldsChecked},
		{"bit_ranges_validated", BitRangesValidated},
		{"address_types_specified", AddressTypesSpecified},
		{"address_types_big_enough", AddressTypesBigEnough},
		{"addresses_non_overlapping", AddressesNonOverlapping},
	}
}

// Run executes every pass in Pipeline() against m in order, applying each
// pass's RemovalSet before the next pass starts so every pass sees a
// structurally coherent tree, per spec §4.3's orchestration invariant.
func Run(m *mir.Manifest, sink *diag.Sink) {
	for _, p := range Pipeline() {
		removal := p.Run(m, sink)
		if removal != nil {
			removal.Apply(m)
		}
	}
}
