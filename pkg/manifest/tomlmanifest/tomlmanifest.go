// Package tomlmanifest decodes a device manifest written as TOML into
// ast.Manifest, per SPEC_FULL.md §4.7. Grounded on
// lookbusy1344-arm_emulator's config/config.go, which decodes straight
// into a tagged struct with github.com/BurntSushi/toml — the pack's only
// TOML dependency, so the only plausible choice here.
//
// Unlike pkg/manifest/jsonmanifest, BurntSushi/toml's Decode (as opposed
// to DecodeFile) returns a toml.MetaData that can resolve a struct key's
// declaration to a line/column via Position; this package uses that to
// give every device its own span, a coarser granularity than per-field
// but a real improvement over "the whole file" for the top-level object
// most diagnostics in practice point at.
package tomlmanifest

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
)

type tomlManifest struct {
	Devices []tomlDevice `toml:"device"`
}

type tomlDevice struct {
	Name    string       `toml:"name"`
	Config  tomlConfig   `toml:"config"`
	Objects []tomlObject `toml:"object"`
}

type tomlConfig struct {
	RegisterAddressType *string  `toml:"register_address_type"`
	CommandAddressType  *string  `toml:"command_address_type"`
	BufferAddressType   *string  `toml:"buffer_address_type"`
	DefaultByteOrder    *string  `toml:"default_byte_order"`
	DefaultBitOrder     *string  `toml:"default_bit_order"`
	DefaultAccess       *string  `toml:"default_access"`
	NameBoundaries      []string `toml:"name_boundaries"`
	FeatureFlag         *string  `toml:"feature_flag"`
}

type tomlObject struct {
	Kind        string `toml:"kind"`
	Name        string `toml:"name"`
	Description string `toml:"description"`

	AddressOffset *string      `toml:"address_offset"`
	Objects       []tomlObject `toml:"object"`

	Address             *string `toml:"address"`
	Access              *string `toml:"access"`
	FieldSetRef         *string `toml:"field_set_ref"`
	FieldSetRefIn       *string `toml:"field_set_ref_in"`
	FieldSetRefOut      *string `toml:"field_set_ref_out"`
	ResetValue          *string `toml:"reset_value"`
	AllowAddressOverlap bool    `toml:"allow_address_overlap"`

	SizeBits        *uint32      `toml:"size_bits"`
	ByteOrder       *string      `toml:"byte_order"`
	BitOrder        *string      `toml:"bit_order"`
	AllowBitOverlap bool         `toml:"allow_bit_overlap"`
	Fields          []tomlField  `toml:"field"`

	Variants []tomlVariant `toml:"variant"`
	BaseType *string       `toml:"base_type"`

	SupportsInfallible bool `toml:"supports_infallible"`

	Repeat *tomlRepeat `toml:"repeat"`
}

type tomlField struct {
	Name            string      `toml:"name"`
	Description     string      `toml:"description"`
	Access          *string     `toml:"access"`
	BaseType        *string     `toml:"base_type"`
	FieldConversion *tomlConv   `toml:"field_conversion"`
	Start           uint32      `toml:"start"`
	End             uint32      `toml:"end"`
	Repeat          *tomlRepeat `toml:"repeat"`
}

type tomlConv struct {
	TypeName string `toml:"type_name"`
	Fallible bool   `toml:"fallible"`
}

type tomlVariant struct {
	Name        string  `toml:"name"`
	Description string  `toml:"description"`
	Kind        string  `toml:"kind"`
	Value       *string `toml:"value"`
}

type tomlRepeat struct {
	Count    *uint64 `toml:"count"`
	EnumName *string `toml:"enum_name"`
	Stride   string  `toml:"stride"`
}

// spanOf converts a toml.Position (which carries the byte offset and
// length of the key's value directly, since BurntSushi/toml v1.3) to a
// span.Span.
func spanOf(pos toml.Position) span.Span {
	if pos.Len == 0 {
		return span.Zero()
	}

	return span.New(pos.Start, pos.Start+pos.Len)
}

// Parse decodes src as a TOML manifest document.
func Parse(filename string, src []byte) (ast.Manifest, []diag.Diagnostic) {
	var m tomlManifest

	md, err := toml.Decode(string(src), &m)
	if err != nil {
		whole := span.New(0, len(src))
		return ast.Manifest{Span: whole}, []diag.Diagnostic{
			diag.New("ParseError", fmt.Sprintf("%s: invalid TOML: %v", filename, err), whole),
		}
	}

	whole := span.New(0, len(src))

	devices := make([]ast.Device, 0, len(m.Devices))
	for i, d := range m.Devices {
		sp := spanOf(md.Position(fmt.Sprintf("device.%d", i)))
		if sp.IsEmpty() {
			sp = whole
		}

		devices = append(devices, convertDevice(d, sp))
	}

	return ast.Manifest{Devices: devices, Span: whole}, nil
}

func convertDevice(d tomlDevice, sp span.Span) ast.Device {
	objs := make([]ast.Object, 0, len(d.Objects))
	for _, o := range d.Objects {
		if obj := convertObject(o, sp); obj != nil {
			objs = append(objs, obj)
		}
	}

	return ast.Device{
		Name:    ast.Name{Text: d.Name, Span: sp},
		Config:  convertConfig(d.Config, sp),
		Objects: objs,
		Span:    sp,
	}
}

func convertConfig(c tomlConfig, sp span.Span) ast.DeviceConfig {
	return ast.DeviceConfig{
		RegisterAddressType: parseIntegerType(c.RegisterAddressType),
		CommandAddressType:  parseIntegerType(c.CommandAddressType),
		BufferAddressType:   parseIntegerType(c.BufferAddressType),
		DefaultByteOrder:    parseByteOrder(c.DefaultByteOrder),
		DefaultBitOrder:     parseBitOrder(c.DefaultBitOrder),
		DefaultAccess:       parseAccess(c.DefaultAccess),
		NameBoundaries:      c.NameBoundaries,
		FeatureFlag:         c.FeatureFlag,
		Span:                sp,
	}
}

func parseAccess(s *string) *specval.Access {
	if s == nil {
		return nil
	}

	a := accessOr(s, specval.RW)

	return &a
}

func convertObject(o tomlObject, sp span.Span) ast.Object {
	name := ast.Name{Text: o.Name, Span: sp}

	switch o.Kind {
	case "block":
		objs := make([]ast.Object, 0, len(o.Objects))
		for _, child := range o.Objects {
			if c := convertObject(child, sp); c != nil {
				objs = append(objs, c)
			}
		}

		return &ast.Block{
			Description:   o.Description,
			Name:          name,
			AddressOffset: parseBig(o.AddressOffset),
			Repeat:        convertRepeat(o.Repeat, sp),
			Objects:       objs,
			Span:          sp,
		}
	case "register":
		return &ast.Register{
			Description:         o.Description,
			Name:                name,
			Address:             span.NewSpanned(&ast.AddrValue{V: parseBig(o.Address)}, sp),
			Access:              accessOr(o.Access, specval.RW),
			Repeat:              convertRepeat(o.Repeat, sp),
			FieldSetRef:         ast.Name{Text: derefStr(o.FieldSetRef), Span: sp},
			ResetValue:          parseReset(o.ResetValue),
			AllowAddressOverlap: o.AllowAddressOverlap,
			Span:                sp,
		}
	case "command":
		cmd := &ast.Command{
			Description: o.Description,
			Name:        name,
			Address:     span.NewSpanned(&ast.AddrValue{V: parseBig(o.Address)}, sp),
			Repeat:      convertRepeat(o.Repeat, sp),
			Span:        sp,
		}
		if o.FieldSetRefIn != nil {
			cmd.FieldSetRefIn = &ast.Name{Text: *o.FieldSetRefIn, Span: sp}
		}
		if o.FieldSetRefOut != nil {
			cmd.FieldSetRefOut = &ast.Name{Text: *o.FieldSetRefOut, Span: sp}
		}

		return cmd
	case "buffer":
		return &ast.Buffer{
			Description: o.Description,
			Name:        name,
			Access:      accessOr(o.Access, specval.RW),
			Address:     span.NewSpanned(&ast.AddrValue{V: parseBig(o.Address)}, sp),
			Span:        sp,
		}
	case "field_set":
		fields := make([]ast.Field, 0, len(o.Fields))
		for _, f := range o.Fields {
			fields = append(fields, convertField(f, sp))
		}

		return &ast.FieldSet{
			Description:     o.Description,
			Name:            name,
			SizeBits:        span.NewSpanned(derefU32(o.SizeBits), sp),
			ByteOrder:       parseByteOrder(o.ByteOrder),
			BitOrder:        parseBitOrder(o.BitOrder),
			AllowBitOverlap: o.AllowBitOverlap,
			Fields:          fields,
			Span:            sp,
		}
	case "enum":
		variants := make([]ast.EnumVariant, 0, len(o.Variants))
		for _, v := range o.Variants {
			variants = append(variants, convertVariant(v, sp))
		}

		return &ast.Enum{
			Description: o.Description,
			Name:        name,
			Variants:    variants,
			BaseType:    span.NewSpanned(parseBaseType(o.BaseType), sp),
			SizeBits:    o.SizeBits,
			Span:        sp,
		}
	case "extern":
		return &ast.Extern{
			Description:        o.Description,
			Name:               name,
			BaseType:           span.NewSpanned(parseBaseType(o.BaseType), sp),
			SupportsInfallible: o.SupportsInfallible,
			Span:               sp,
		}
	default:
		return nil
	}
}

func convertField(f tomlField, sp span.Span) ast.Field {
	field := ast.Field{
		Description:  f.Description,
		Name:         ast.Name{Text: f.Name, Span: sp},
		Access:       accessOr(f.Access, specval.RW),
		BaseType:     span.NewSpanned(parseBaseType(f.BaseType), sp),
		FieldAddress: span.NewSpanned(ast.FieldRange{Start: f.Start, End: f.End}, sp),
		Repeat:       convertRepeat(f.Repeat, sp),
		Span:         sp,
	}

	if f.FieldConversion != nil {
		field.FieldConversion = &ast.FieldConversion{
			TypeName: span.NewSpanned(ast.Name{Text: f.FieldConversion.TypeName, Span: sp}, sp),
			Fallible: f.FieldConversion.Fallible,
		}
	}

	return field
}

func convertVariant(v tomlVariant, sp span.Span) ast.EnumVariant {
	variant := ast.EnumVariant{
		Description: v.Description,
		Name:        ast.Name{Text: v.Name, Span: sp},
		Span:        sp,
	}

	switch v.Kind {
	case "specified":
		variant.ValueKind = ast.EnumValueSpecified
		variant.Specified = parseBig(v.Value)
	case "default":
		variant.ValueKind = ast.EnumValueDefault
	case "catch_all":
		variant.ValueKind = ast.EnumValueCatchAll
	default:
		variant.ValueKind = ast.EnumValueUnspecified
	}

	return variant
}

func convertRepeat(r *tomlRepeat, sp span.Span) *ast.Repeat {
	if r == nil {
		return nil
	}

	var source ast.RepeatSource
	if r.EnumName != nil {
		source = ast.RepeatSource{Kind: ast.RepeatSourceEnum, EnumName: ast.Name{Text: *r.EnumName, Span: sp}}
	} else {
		count := uint64(1)
		if r.Count != nil {
			count = *r.Count
		}

		source = ast.RepeatSource{Kind: ast.RepeatSourceCount, Count: count}
	}

	stride := big.NewInt(1)
	if r.Stride != "" {
		stride = parseBig(&r.Stride)
	}

	return &ast.Repeat{Source: source, Stride: stride, Span: sp}
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func derefU32(v *uint32) uint32 {
	if v == nil {
		return 0
	}

	return *v
}

func parseBig(s *string) *big.Int {
	if s == nil {
		return big.NewInt(0)
	}

	v, ok := new(big.Int).SetString(strings.TrimSpace(*s), 0)
	if !ok {
		return big.NewInt(0)
	}

	return v
}

func accessOr(s *string, fallback specval.Access) specval.Access {
	if s == nil {
		return fallback
	}

	switch *s {
	case "RO":
		return specval.RO
	case "WO":
		return specval.WO
	default:
		return specval.RW
	}
}

func parseByteOrder(s *string) *specval.ByteOrder {
	if s == nil {
		return nil
	}

	var o specval.ByteOrder
	if *s == "BE" {
		o = specval.BE
	}

	return &o
}

func parseBitOrder(s *string) *specval.BitOrder {
	if s == nil {
		return nil
	}

	var o specval.BitOrder
	if *s == "MSB0" {
		o = specval.MSB0
	}

	return &o
}

func parseIntegerType(s *string) *specval.Integer {
	if s == nil {
		return nil
	}

	i, ok := map[string]specval.Integer{
		"u8": specval.U8, "u16": specval.U16, "u32": specval.U32, "u64": specval.U64,
		"i8": specval.I8, "i16": specval.I16, "i32": specval.I32, "i64": specval.I64,
	}[*s]
	if !ok {
		return nil
	}

	return &i
}

func parseBaseType(s *string) specval.BaseType {
	if s == nil {
		return specval.NewUnspecified()
	}

	if *s == "bool" {
		return specval.NewBool()
	}

	if *s == "uint" {
		return specval.NewUint()
	}

	if *s == "int" {
		return specval.NewInt()
	}

	if i := parseIntegerType(s); i != nil {
		return specval.NewFixedSize(*i)
	}

	return specval.NewUnspecified()
}

func parseReset(s *string) *specval.ResetValue {
	if s == nil {
		return nil
	}

	v := specval.NewResetInteger(parseBig(s))

	return &v
}
