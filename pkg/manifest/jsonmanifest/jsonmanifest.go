// Package jsonmanifest decodes a device manifest written as JSON into
// ast.Manifest, per SPEC_FULL.md §4.7. It uses the stdlib encoding/json —
// no third-party JSON library appears anywhere in the example pack for
// config/manifest decoding, so there is nothing to ground a replacement
// on (see DESIGN.md).
//
// JSON carries no native position information once decoded into Go
// values, so fine-grained per-field spans aren't recoverable the way
// pkg/manifest/tomlmanifest and pkg/manifest/yamlmanifest can via their
// own position-aware decoders; every node here gets the whole-document
// span from json.Decoder.InputOffset, which is enough for a diagnostic to
// point a reader at "this file", even if not "this exact brace".
package jsonmanifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
)

type jsonManifest struct {
	Devices []jsonDevice `json:"devices"`
}

type jsonDevice struct {
	Name    string         `json:"name"`
	Config  jsonConfig     `json:"config"`
	Objects []jsonObject   `json:"objects"`
}

type jsonConfig struct {
	RegisterAddressType *string  `json:"register_address_type"`
	CommandAddressType  *string  `json:"command_address_type"`
	BufferAddressType   *string  `json:"buffer_address_type"`
	DefaultByteOrder    *string  `json:"default_byte_order"`
	DefaultBitOrder     *string  `json:"default_bit_order"`
	DefaultAccess       *string  `json:"default_access"`
	NameBoundaries      []string `json:"name_boundaries"`
	FeatureFlag         *string  `json:"feature_flag"`
}

// jsonObject is a loosely typed node; Kind selects which of the optional
// fields below apply, mirroring the closed ast.Object union.
type jsonObject struct {
	Kind string `json:"kind"`

	Name        string  `json:"name"`
	Description string  `json:"description"`

	// Block
	AddressOffset *string      `json:"address_offset"`
	Objects       []jsonObject `json:"objects"`

	// Register/Command/Buffer
	Address             *string `json:"address"`
	Access              *string `json:"access"`
	FieldSetRef         *string `json:"field_set_ref"`
	FieldSetRefIn       *string `json:"field_set_ref_in"`
	FieldSetRefOut      *string `json:"field_set_ref_out"`
	ResetValue          *string `json:"reset_value"`
	AllowAddressOverlap bool    `json:"allow_address_overlap"`

	// FieldSet
	SizeBits        *uint32     `json:"size_bits"`
	ByteOrder       *string     `json:"byte_order"`
	BitOrder        *string     `json:"bit_order"`
	AllowBitOverlap bool        `json:"allow_bit_overlap"`
	Fields          []jsonField `json:"fields"`

	// Enum
	Variants []jsonVariant `json:"variants"`
	BaseType *string       `json:"base_type"`

	// Extern
	SupportsInfallible bool `json:"supports_infallible"`

	// Repeat (shared by Block/Register/Command/Field)
	Repeat *jsonRepeat `json:"repeat"`
}

type jsonField struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Access          *string       `json:"access"`
	BaseType        *string       `json:"base_type"`
	FieldConversion *jsonConv     `json:"field_conversion"`
	Start           uint32        `json:"start"`
	End             uint32        `json:"end"`
	Repeat          *jsonRepeat   `json:"repeat"`
}

type jsonConv struct {
	TypeName string `json:"type_name"`
	Fallible bool   `json:"fallible"`
}

type jsonVariant struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Kind        string  `json:"kind"` // "unspecified" | "specified" | "default" | "catch_all"
	Value       *string `json:"value"`
}

type jsonRepeat struct {
	Count    *uint64 `json:"count"`
	EnumName *string `json:"enum_name"`
	Stride   string  `json:"stride"`
}

// Parse decodes src as a JSON manifest document.
func Parse(filename string, src []byte) (ast.Manifest, []diag.Diagnostic) {
	dec := json.NewDecoder(bytes.NewReader(src))

	var m jsonManifest
	if err := dec.Decode(&m); err != nil {
		whole := span.New(0, len(src))
		return ast.Manifest{Span: whole}, []diag.Diagnostic{
			diag.New("ParseError", fmt.Sprintf("%s: invalid JSON: %v", filename, err), whole),
		}
	}

	whole := span.New(0, int(dec.InputOffset()))

	devices := make([]ast.Device, 0, len(m.Devices))
	for _, d := range m.Devices {
		devices = append(devices, convertDevice(d, whole))
	}

	return ast.Manifest{Devices: devices, Span: whole}, nil
}

func convertDevice(d jsonDevice, sp span.Span) ast.Device {
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

func convertConfig(c jsonConfig, sp span.Span) ast.DeviceConfig {
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

func convertObject(o jsonObject, sp span.Span) ast.Object {
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

func convertField(f jsonField, sp span.Span) ast.Field {
	field := ast.Field{
		Description: f.Description,
		Name:        ast.Name{Text: f.Name, Span: sp},
		Access:      accessOr(f.Access, specval.RW),
		BaseType:    span.NewSpanned(parseBaseType(f.BaseType), sp),
		FieldAddress: span.NewSpanned(ast.FieldRange{Start: f.Start, End: f.End}, sp),
		Repeat:      convertRepeat(f.Repeat, sp),
		Span:        sp,
	}

	if f.FieldConversion != nil {
		field.FieldConversion = &ast.FieldConversion{
			TypeName: span.NewSpanned(ast.Name{Text: f.FieldConversion.TypeName, Span: sp}, sp),
			Fallible: f.FieldConversion.Fallible,
		}
	}

	return field
}

func convertVariant(v jsonVariant, sp span.Span) ast.EnumVariant {
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

func convertRepeat(r *jsonRepeat, sp span.Span) *ast.Repeat {
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

	v, ok := new(big.Int).SetString(*s, 0)
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

func parseAccess(s *string) *specval.Access {
	if s == nil {
		return nil
	}

	a := accessOr(s, specval.RW)

	return &a
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
