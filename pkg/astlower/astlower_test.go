package astlower

import (
	"testing"

	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
	"github.com/regspec/ddc/pkg/util/assert"
)

func TestLowerDeviceCarriesNameAndConfig(t *testing.T) {
	u8 := specval.U8
	m := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   ast.Name{Text: "Dev"},
			Config: ast.DeviceConfig{RegisterAddressType: &u8, NameBoundaries: []string{"underscore"}},
			Objects: []ast.Object{
				&ast.Register{
					Name:        ast.Name{Text: "Foo"},
					Address:     span.Unspanned(&ast.AddrValue{}),
					FieldSetRef: ast.Name{Text: "Foo"},
				},
			},
		}},
	}

	out := Lower(m)

	assert.Equal(t, 1, len(out.Devices))

	dev := out.Devices[0]
	assert.Equal(t, "Dev", dev.Name.Original())
	assert.True(t, dev.Config.RegisterAddressType != nil && *dev.Config.RegisterAddressType == specval.U8,
		"expected the register address type to carry across")
	assert.Equal(t, 1, len(dev.Objects))

	reg, ok := dev.Objects[0].(*mir.Register)
	assert.True(t, ok, "expected a lowered *mir.Register")
	assert.Equal(t, "Foo", reg.Name.Original())
	assert.Equal(t, "Foo", reg.FieldSetRef)
}

func TestLowerNameFallsBackOnInvalidIdentifier(t *testing.T) {
	id := lowerName(ast.Name{Text: ""})
	assert.Equal(t, "_", id.Original())
}
