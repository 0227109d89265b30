// Package yamlmanifest decodes a device manifest written as YAML into
// ast.Manifest, per SPEC_FULL.md §4.7, using gopkg.in/yaml.v3 — the
// ecosystem's de facto YAML library (ProjectSerenity-firefly vendors the
// same module).
//
// Unlike a plain yaml.Unmarshal into a tagged struct, this package first
// decodes into a yaml.Node tree and only then into the typed shape below,
// so each device's declaration site (line/column) survives long enough to
// become a span.Span; a struct-only decode would have thrown that
// information away before SPEC_FULL.md's per-node diagnostics could use
// it.
package yamlmanifest

import (
	"fmt"
	"math/big"

	"gopkg.in/yaml.v3"

	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
)

type yamlManifest struct {
	Devices []yamlDevice `yaml:"devices"`
}

type yamlDevice struct {
	Name    string       `yaml:"name"`
	Config  yamlConfig   `yaml:"config"`
	Objects []yamlObject `yaml:"objects"`
}

type yamlConfig struct {
	RegisterAddressType *string  `yaml:"register_address_type"`
	CommandAddressType  *string  `yaml:"command_address_type"`
	BufferAddressType   *string  `yaml:"buffer_address_type"`
	DefaultByteOrder    *string  `yaml:"default_byte_order"`
	DefaultBitOrder     *string  `yaml:"default_bit_order"`
	DefaultAccess       *string  `yaml:"default_access"`
	NameBoundaries      []string `yaml:"name_boundaries"`
	FeatureFlag         *string  `yaml:"feature_flag"`
}

type yamlObject struct {
	Kind        string `yaml:"kind"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	AddressOffset *string      `yaml:"address_offset"`
	Objects       []yamlObject `yaml:"objects"`

	Address             *string `yaml:"address"`
	Access              *string `yaml:"access"`
	FieldSetRef         *string `yaml:"field_set_ref"`
	FieldSetRefIn       *string `yaml:"field_set_ref_in"`
	FieldSetRefOut      *string `yaml:"field_set_ref_out"`
	ResetValue          *string `yaml:"reset_value"`
	AllowAddressOverlap bool    `yaml:"allow_address_overlap"`

	SizeBits        *uint32      `yaml:"size_bits"`
	ByteOrder       *string      `yaml:"byte_order"`
	BitOrder        *string      `yaml:"bit_order"`
	AllowBitOverlap bool         `yaml:"allow_bit_overlap"`
	Fields          []yamlField  `yaml:"fields"`

	Variants []yamlVariant `yaml:"variants"`
	BaseType *string       `yaml:"base_type"`

	SupportsInfallible bool `yaml:"supports_infallible"`

	Repeat *yamlRepeat `yaml:"repeat"`
}

type yamlField struct {
	Name            string      `yaml:"name"`
	Description     string      `yaml:"description"`
	Access          *string     `yaml:"access"`
	BaseType        *string     `yaml:"base_type"`
	FieldConversion *yamlConv   `yaml:"field_conversion"`
	Start           uint32      `yaml:"start"`
	End             uint32      `yaml:"end"`
	Repeat          *yamlRepeat `yaml:"repeat"`
}

type yamlConv struct {
	TypeName string `yaml:"type_name"`
	Fallible bool   `yaml:"fallible"`
}

type yamlVariant struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        string  `yaml:"kind"`
	Value       *string `yaml:"value"`
}

type yamlRepeat struct {
	Count    *uint64 `yaml:"count"`
	EnumName *string `yaml:"enum_name"`
	Stride   string  `yaml:"stride"`
}

// lineOffsets maps a 1-indexed line number to the byte offset of its
// first column, since yaml.Node positions are (line, column), not byte
// offsets.
type lineOffsets []int

func newLineOffsets(src []byte) lineOffsets {
	offsets := []int{0}
	for i, b := range src {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}

	return offsets
}

func (lo lineOffsets) spanAt(n *yaml.Node) span.Span {
	if n == nil || n.Line < 1 || n.Line > len(lo) {
		return span.Zero()
	}

	start := lo[n.Line-1] + n.Column - 1
	if start < 0 {
		start = 0
	}

	return span.New(start, start+1)
}

// Parse decodes src as a YAML manifest document.
func Parse(filename string, src []byte) (ast.Manifest, []diag.Diagnostic) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		whole := span.New(0, len(src))
		return ast.Manifest{Span: whole}, []diag.Diagnostic{
			diag.New("ParseError", fmt.Sprintf("%s: invalid YAML: %v", filename, err), whole),
		}
	}

	var m yamlManifest
	if err := root.Decode(&m); err != nil {
		whole := span.New(0, len(src))
		return ast.Manifest{Span: whole}, []diag.Diagnostic{
			diag.New("ParseError", fmt.Sprintf("%s: %v", filename, err), whole),
		}
	}

	whole := span.New(0, len(src))
	lines := newLineOffsets(src)
	deviceNodes := findSequence(&root, "devices")

	devices := make([]ast.Device, 0, len(m.Devices))
	for i, d := range m.Devices {
		sp := whole
		if i < len(deviceNodes) {
			sp = lines.spanAt(deviceNodes[i])
		}

		devices = append(devices, convertDevice(d, sp))
	}

	return ast.Manifest{Devices: devices, Span: whole}, nil
}

// findSequence locates the top-level mapping key named key and returns its
// sequence's item nodes, or nil if the document isn't shaped that way.
func findSequence(root *yaml.Node, key string) []*yaml.Node {
	if len(root.Content) == 0 {
		return nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == key && doc.Content[i+1].Kind == yaml.SequenceNode {
			return doc.Content[i+1].Content
		}
	}

	return nil
}

func convertDevice(d yamlDevice, sp span.Span) ast.Device {
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

func convertConfig(c yamlConfig, sp span.Span) ast.DeviceConfig {
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

func convertObject(o yamlObject, sp span.Span) ast.Object {
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

func convertField(f yamlField, sp span.Span) ast.Field {
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

func convertVariant(v yamlVariant, sp span.Span) ast.EnumVariant {
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

func convertRepeat(r *yamlRepeat, sp span.Span) *ast.Repeat {
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
