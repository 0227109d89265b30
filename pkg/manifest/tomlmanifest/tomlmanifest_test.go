package tomlmanifest

import (
	"testing"

	"github.com/regspec/ddc/pkg/specval"
	"github.com/regspec/ddc/pkg/util/assert"
)

const minimalManifest = `
[[device]]
name = "Dev"

[device.config]
register_address_type = "u8"

[[device.object]]
kind = "register"
name = "Foo"
address = "0"
field_set_ref = "Foo"

[[device.object]]
kind = "field_set"
name = "Foo"
size_bits = 8

[[device.object.field]]
name = "value"
base_type = "uint"
start = 0
end = 8
`

func TestParseMinimalManifest(t *testing.T) {
	m, diags := Parse("dev.toml", []byte(minimalManifest))

	assert.Equal(t, 0, len(diags))
	assert.Equal(t, 1, len(m.Devices))

	dev := m.Devices[0]
	assert.Equal(t, "Dev", dev.Name.Text)
	assert.True(t, dev.Config.RegisterAddressType != nil && *dev.Config.RegisterAddressType == specval.U8,
		"expected register_address_type to parse to u8")
	assert.Equal(t, 2, len(dev.Objects))
	assert.False(t, dev.Span.IsEmpty(), "expected a per-device span recovered from toml.MetaData")
}

func TestParseInvalidTOMLReportsParseError(t *testing.T) {
	_, diags := Parse("dev.toml", []byte("not = [valid"))

	assert.Equal(t, 1, len(diags))
	assert.Equal(t, "ParseError", diags[0].Kind)
}
