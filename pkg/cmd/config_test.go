package cmd

import (
	"testing"

	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/specval"
	"github.com/regspec/ddc/pkg/util/assert"
)

func TestApplyDefaultsFillsUnsetFields(t *testing.T) {
	m := &ast.Manifest{
		Devices: []ast.Device{{Name: ast.Name{Text: "Dev"}}},
	}

	cfg := &ProjectConfig{
		RegisterAddressType: "u16",
		ByteOrder:           "BE",
		Access:              "RO",
		NameBoundaries:      []string{"underscore"},
	}

	cfg.ApplyDefaults(m)

	dc := m.Devices[0].Config

	assert.True(t, dc.RegisterAddressType != nil && *dc.RegisterAddressType == specval.U16,
		"expected register address type u16, got %v", dc.RegisterAddressType)
	assert.True(t, dc.DefaultByteOrder != nil && *dc.DefaultByteOrder == specval.BE,
		"expected BE byte order, got %v", dc.DefaultByteOrder)
	assert.True(t, dc.DefaultAccess != nil && *dc.DefaultAccess == specval.RO,
		"expected RO access, got %v", dc.DefaultAccess)
	assert.Equal(t, []string{"underscore"}, dc.NameBoundaries)
}

func TestApplyDefaultsLeavesManifestValuesAlone(t *testing.T) {
	existing := specval.U8
	m := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   ast.Name{Text: "Dev"},
			Config: ast.DeviceConfig{RegisterAddressType: &existing},
		}},
	}

	cfg := &ProjectConfig{RegisterAddressType: "u32"}
	cfg.ApplyDefaults(m)

	dc := m.Devices[0].Config
	assert.True(t, *dc.RegisterAddressType == specval.U8,
		"expected manifest-specified type to survive, got %v", dc.RegisterAddressType)
}
