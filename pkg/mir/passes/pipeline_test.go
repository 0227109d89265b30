package passes

import (
	"math/big"
	"testing"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/ident"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
	"github.com/regspec/ddc/pkg/util/assert"
)

func mustIdent(t *testing.T, s string) ident.Identifier {
	id, err := ident.TryParse(s)
	assert.NoError(t, err)

	return id
}

func TestPipelineOrder(t *testing.T) {
	names := []string{}
	for _, p := range Pipeline() {
		names = append(names, p.Name)
	}

	expected := []string{
		"base_types_specified", "device_name_is_pascal", "names_checked",
		"names_unique", "enum_values_checked", "repeat_with_enums_checked",
		"extern_values_checked", "field_conversion_valid", "byte_order_specified",
		"reset_values_converted", "bool_fields_checked", "bit_ranges_validated",
		"address_types_specified", "address_types_big_enough", "addresses_non_overlapping",
	}

	assert.Equal(t, len(expected), len(names))

	for i := range expected {
		assert.Equal(t, expected[i], names[i])
	}
}

func TestDeviceNameIsPascalDropsInvalidDevice(t *testing.T) {
	m := &mir.Manifest{
		Devices: []*mir.Device{
			{Name: mustIdent(t, "Dev")},
			{Name: mustIdent(t, "not_pascal")},
		},
	}

	sink := diag.NewSink()
	removal := DeviceNameIsPascal(m, sink)

	assert.True(t, removal == nil, "DeviceNameIsPascal has no per-object removal set")
	assert.Equal(t, 1, len(m.Devices))
	assert.Equal(t, "Dev", m.Devices[0].Name.Original())
	assert.True(t, sink.HasError(), "expected an InvalidIdentifier diagnostic")
}

func TestExternValuesCheckedRemovesUnspecifiedExtern(t *testing.T) {
	ext := &mir.Extern{
		Name:     mustIdent(t, "E"),
		BaseType: span.Unspanned(specval.NewUnspecified()),
	}
	dev := &mir.Device{
		Name:    mustIdent(t, "Dev"),
		Objects: []mir.Object{ext},
	}
	m := &mir.Manifest{Devices: []*mir.Device{dev}}

	sink := diag.NewSink()
	removal := ExternValuesChecked(m, sink)

	found := false
	for _, d := range sink.All() {
		if d.Kind == "ExternBaseTypeUnspecified" {
			found = true
		}
	}

	assert.True(t, found, "expected an ExternBaseTypeUnspecified diagnostic")

	removal.Apply(m)
	assert.Equal(t, 0, len(dev.Objects))
}

func TestNamesUniqueTagsColliderWithDuplicateID(t *testing.T) {
	a := &mir.Register{Name: mustIdent(t, "Foo"), Span: span.New(0, 1)}
	b := &mir.Register{Name: mustIdent(t, "Foo"), Span: span.New(2, 3)}
	c := &mir.Register{Name: mustIdent(t, "Foo"), Span: span.New(4, 5)}
	dev := &mir.Device{Name: mustIdent(t, "Dev"), Objects: []mir.Object{a, b, c}}
	m := &mir.Manifest{Devices: []*mir.Device{dev}}

	sink := diag.NewSink()
	removal := NamesUnique(m, sink)

	assert.True(t, removal == nil, "NamesUnique has no per-object removal set")
	assert.Equal(t, "Foo", a.Name.Original())

	dupB, ok := b.Name.DuplicateID()
	assert.True(t, ok, "expected b to be tagged with a duplicate id")
	assert.Equal(t, uint64(0), dupB)

	dupC, ok := c.Name.DuplicateID()
	assert.True(t, ok, "expected c to be tagged with a duplicate id")
	assert.Equal(t, uint64(1), dupC)

	count := 0
	for _, d := range sink.All() {
		if d.Kind == "DuplicateName" {
			count++
		}
	}

	assert.Equal(t, 2, count)
}

func TestIsExactPow2RangeAcceptsZeroBasedPowerOfTwo(t *testing.T) {
	k, ok := isExactPow2Range([]*big.Int{big.NewInt(0), big.NewInt(1), big.NewInt(2), big.NewInt(3)})

	assert.True(t, ok, "expected {0,1,2,3} to be recognised as [0,2^2)")
	assert.Equal(t, uint32(2), k)
}

func TestIsExactPow2RangeRejectsDuplicates(t *testing.T) {
	_, ok := isExactPow2Range([]*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(1), big.NewInt(2)})

	assert.True(t, !ok, "expected a duplicate discriminant to break the power-of-two range")
}

func TestResetValuesConvertedFlagsOverflow(t *testing.T) {
	fs := &mir.FieldSet{
		Name:     mustIdent(t, "Foo"),
		SizeBits: span.Unspanned(uint32(8)),
	}
	reset := specval.NewResetInteger(big.NewInt(1000))
	reg := &mir.Register{
		Name:        mustIdent(t, "Foo"),
		FieldSetRef: "Foo",
		ResetValue:  &reset,
	}
	dev := &mir.Device{
		Name:    mustIdent(t, "Dev"),
		Objects: []mir.Object{fs, reg},
	}
	m := &mir.Manifest{Devices: []*mir.Device{dev}}

	sink := diag.NewSink()
	ResetValuesConverted(m, sink)

	found := false
	for _, d := range sink.All() {
		if d.Kind == "ResetValueDoesNotFit" {
			found = true
		}
	}

	assert.True(t, found, "expected a ResetValueDoesNotFit diagnostic")
	assert.True(t, reg.ResetValue.Kind == specval.ResetInteger,
		"expected the oversized reset value to be left unconverted")
}
