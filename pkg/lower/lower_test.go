package lower

import (
	"testing"

	"github.com/regspec/ddc/pkg/ident"
	"github.com/regspec/ddc/pkg/lir"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
	"github.com/regspec/ddc/pkg/util/assert"
)

func mustIdent(t *testing.T, s string) ident.Identifier {
	id, err := ident.TryParse(s)
	assert.NoError(t, err)

	return id.ApplyBoundaries(ident.Boundaries{ident.Underscore})
}

func TestLowerFlattensRegisterAndFieldSet(t *testing.T) {
	u8 := specval.U8
	fs := &mir.FieldSet{
		Name:     mustIdent(t, "Foo"),
		SizeBits: span.Unspanned(uint32(8)),
		Fields: []*mir.Field{{
			Name:         mustIdent(t, "value"),
			BaseType:     span.Unspanned(specval.NewFixedSize(specval.U8)),
			FieldAddress: span.Unspanned(mir.FieldRange{Start: 0, End: 8}),
		}},
	}
	reg := &mir.Register{
		Name:        mustIdent(t, "Foo"),
		FieldSetRef: "Foo",
	}
	dev := &mir.Device{
		Name:    mustIdent(t, "Dev"),
		Config:  mir.DeviceConfig{RegisterAddressType: &u8},
		Objects: []mir.Object{reg, fs},
	}
	m := &mir.Manifest{Devices: []*mir.Device{dev}}

	driver := Lower(m)

	assert.Equal(t, 1, len(driver.Devices))
	assert.Equal(t, 1, len(driver.FieldSets))
	assert.Equal(t, "DevFoo", driver.FieldSets[0].Name)

	lirDev := driver.Devices[0]
	assert.Equal(t, "Dev", lirDev.Name)

	var root lir.Block
	for _, b := range lirDev.Blocks {
		if b.Root {
			root = b
		}
	}

	assert.Equal(t, 1, len(root.Methods))
	assert.Equal(t, "Foo", root.Methods[0].Name)
	assert.True(t, root.Methods[0].MethodType.Kind == lir.MethodRegister,
		"expected a register method")
}
