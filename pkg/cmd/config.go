package cmd

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/specval"
)

// ProjectConfig is the shape of an optional .ddc.toml file sitting next to a
// manifest: device-config fallbacks applied to every device in the
// manifest that leaves the corresponding field unset, the way
// lookbusy1344-arm_emulator's config.Config supplies zero-value defaults
// for anything its TOML file omits.
type ProjectConfig struct {
	RegisterAddressType string   `toml:"register_address_type"`
	CommandAddressType  string   `toml:"command_address_type"`
	BufferAddressType   string   `toml:"buffer_address_type"`
	ByteOrder           string   `toml:"byte_order"`
	BitOrder            string   `toml:"bit_order"`
	Access              string   `toml:"access"`
	NameBoundaries      []string `toml:"name_boundaries"`
	FeatureFlag         string   `toml:"feature_flag"`
}

// DefaultProjectConfig returns an empty config: every field left for the
// manifest (or the compiler's own defaults) to decide.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{}
}

// LoadProjectConfig reads path as a .ddc.toml file. A missing file is not
// an error: it just means no fallbacks apply.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	cfg := DefaultProjectConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills in any DeviceConfig field every device of m leaves
// unset with cfg's value, in place.
func (cfg *ProjectConfig) ApplyDefaults(m *ast.Manifest) {
	for i := range m.Devices {
		dc := &m.Devices[i].Config

		if dc.RegisterAddressType == nil {
			dc.RegisterAddressType = parseIntegerType(cfg.RegisterAddressType)
		}

		if dc.CommandAddressType == nil {
			dc.CommandAddressType = parseIntegerType(cfg.CommandAddressType)
		}

		if dc.BufferAddressType == nil {
			dc.BufferAddressType = parseIntegerType(cfg.BufferAddressType)
		}

		if dc.DefaultByteOrder == nil {
			dc.DefaultByteOrder = parseByteOrder(cfg.ByteOrder)
		}

		if dc.DefaultBitOrder == nil {
			dc.DefaultBitOrder = parseBitOrder(cfg.BitOrder)
		}

		if dc.DefaultAccess == nil {
			dc.DefaultAccess = parseAccess(cfg.Access)
		}

		if len(dc.NameBoundaries) == 0 {
			dc.NameBoundaries = cfg.NameBoundaries
		}

		if dc.FeatureFlag == nil && cfg.FeatureFlag != "" {
			flag := cfg.FeatureFlag
			dc.FeatureFlag = &flag
		}
	}
}

func parseIntegerType(s string) *specval.Integer {
	i, ok := map[string]specval.Integer{
		"u8": specval.U8, "u16": specval.U16, "u32": specval.U32, "u64": specval.U64,
		"i8": specval.I8, "i16": specval.I16, "i32": specval.I32, "i64": specval.I64,
	}[s]
	if !ok {
		return nil
	}

	return &i
}

func parseByteOrder(s string) *specval.ByteOrder {
	if s == "" {
		return nil
	}

	o := specval.LE
	if s == "BE" {
		o = specval.BE
	}

	return &o
}

func parseBitOrder(s string) *specval.BitOrder {
	if s == "" {
		return nil
	}

	o := specval.LSB0
	if s == "MSB0" {
		o = specval.MSB0
	}

	return &o
}

func parseAccess(s string) *specval.Access {
	var a specval.Access

	switch s {
	case "RO":
		a = specval.RO
	case "WO":
		a = specval.WO
	case "RW":
		a = specval.RW
	default:
		return nil
	}

	return &a
}
