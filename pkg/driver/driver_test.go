package driver

import (
	"math/big"
	"strings"
	"testing"

	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
	"github.com/regspec/ddc/pkg/util/assert"
)

func name(text string) ast.Name { return ast.Name{Text: text} }

func addr(v int64) span.Spanned[*ast.AddrValue] {
	return span.Unspanned(&ast.AddrValue{V: big.NewInt(v)})
}

func u8() *specval.Integer { v := specval.U8; return &v }

func fieldRange(start, end uint32) span.Spanned[ast.FieldRange] {
	return span.Unspanned(ast.FieldRange{Start: start, End: end})
}

func baseType(bt specval.BaseType) span.Spanned[specval.BaseType] { return span.Unspanned(bt) }

// S1: minimal register with a single 24-bit uint field.
func TestS1MinimalRegister(t *testing.T) {
	manifest := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   name("Dev"),
			Config: ast.DeviceConfig{RegisterAddressType: u8()},
			Objects: []ast.Object{
				&ast.Register{
					Name:        name("Foo"),
					Address:     addr(0),
					FieldSetRef: name("Foo"),
				},
				&ast.FieldSet{
					Name:     name("Foo"),
					SizeBits: span.Unspanned(uint32(24)),
					Fields: []ast.Field{{
						Name:         name("value"),
						BaseType:     baseType(specval.NewUint()),
						FieldAddress: fieldRange(0, 24),
					}},
				},
			},
		}},
	}

	sink := diag.NewSink()
	src := CompileManifest(manifest, "dev", sink)

	assert.True(t, sink.IsEmpty(), "expected no diagnostics, got %d", sink.Count())
	assert.True(t, strings.Contains(src, "func (d Dev) Foo()"), "expected a Foo method on Dev, got:\n%s", src)
	assert.True(t, strings.Contains(src, "type Foo struct"), "expected a Foo field set struct, got:\n%s", src)
	assert.False(t, strings.Contains(src, "ddc_compile_error"), "unexpected error sentinel in:\n%s", src)
}

// S2: an unspecified-base-type single-bit field resolves to Bool.
func TestS2UnspecifiedBoolField(t *testing.T) {
	manifest := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   name("Dev"),
			Config: ast.DeviceConfig{RegisterAddressType: u8()},
			Objects: []ast.Object{
				&ast.Register{Name: name("Foo"), Address: addr(0), FieldSetRef: name("Foo")},
				&ast.FieldSet{
					Name:     name("Foo"),
					SizeBits: span.Unspanned(uint32(8)),
					Fields: []ast.Field{{
						Name:         name("flag"),
						BaseType:     baseType(specval.NewUnspecified()),
						FieldAddress: fieldRange(3, 4),
					}},
				},
			},
		}},
	}

	sink := diag.NewSink()
	src := CompileManifest(manifest, "dev", sink)

	assert.True(t, sink.IsEmpty(), "expected no diagnostics, got %d", sink.Count())
	assert.True(t, strings.Contains(src, "func (f Foo) Flag() bool"), "expected a bool accessor, got:\n%s", src)
}

// S3: a two-variant enum with a default variant, field conversion Into.
func TestS3EnumWithDefault(t *testing.T) {
	manifest := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   name("Dev"),
			Config: ast.DeviceConfig{RegisterAddressType: u8()},
			Objects: []ast.Object{
				&ast.Register{Name: name("Foo"), Address: addr(0), FieldSetRef: name("Foo")},
				&ast.Enum{
					Name: name("E"),
					Variants: []ast.EnumVariant{
						{Name: name("A")},
						{Name: name("B"), ValueKind: ast.EnumValueDefault},
					},
				},
				&ast.FieldSet{
					Name:     name("Foo"),
					SizeBits: span.Unspanned(uint32(8)),
					Fields: []ast.Field{{
						Name:            name("f"),
						BaseType:        baseType(specval.NewUint()),
						FieldAddress:    fieldRange(0, 1),
						FieldConversion: &ast.FieldConversion{TypeName: span.Unspanned(name("E"))},
					}},
				},
			},
		}},
	}

	sink := diag.NewSink()
	src := CompileManifest(manifest, "dev", sink)

	assert.True(t, sink.IsEmpty(), "expected no diagnostics, got %d", sink.Count())
	assert.True(t, strings.Contains(src, "DevEA"), "expected a device-qualified enum variant, got:\n%s", src)
	assert.False(t, strings.Contains(src, "ddc_compile_error"), "unexpected error sentinel in:\n%s", src)
}

// S4: a register address outside the configured address type's range.
func TestS4AddressOutOfRange(t *testing.T) {
	manifest := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   name("Dev"),
			Config: ast.DeviceConfig{RegisterAddressType: u8()},
			Objects: []ast.Object{
				&ast.Register{Name: name("Foo"), Address: addr(300), FieldSetRef: name("Foo")},
				&ast.FieldSet{
					Name:     name("Foo"),
					SizeBits: span.Unspanned(uint32(8)),
					Fields: []ast.Field{{
						Name:         name("value"),
						BaseType:     baseType(specval.NewUint()),
						FieldAddress: fieldRange(0, 8),
					}},
				},
			},
		}},
	}

	sink := diag.NewSink()
	src := CompileManifest(manifest, "dev", sink)

	assert.True(t, sink.HasError(), "expected an error diagnostic")

	found := false
	for _, d := range sink.All() {
		if d.Kind == "AddressOutOfRange" {
			found = true
		}
	}

	assert.True(t, found, "expected an AddressOutOfRange diagnostic")
	assert.True(t, strings.HasPrefix(src, "//go:build ddc_compile_error"), "expected error sentinel, got:\n%s", src)
}

// S5: two buffers in the same device named Buf collide; the second is
// tagged with a duplicate id and renamed downstream.
func TestS5DuplicateNames(t *testing.T) {
	manifest := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   name("Dev"),
			Config: ast.DeviceConfig{BufferAddressType: u8()},
			Objects: []ast.Object{
				&ast.Buffer{Name: name("Buf"), Address: addr(0)},
				&ast.Buffer{Name: name("Buf"), Address: addr(16)},
			},
		}},
	}

	sink := diag.NewSink()
	src := CompileManifest(manifest, "dev", sink)

	found := false
	for _, d := range sink.All() {
		if d.Kind == "DuplicateName" {
			found = true
		}
	}

	assert.True(t, found, "expected a DuplicateName diagnostic")
	assert.True(t, strings.Contains(src, "Buf"), "expected Buf to survive emission, got:\n%s", src)
	assert.True(t, strings.Contains(src, "BufDup0"), "expected the second Buf to be disambiguated, got:\n%s", src)
}

// S6: a field whose bit range exceeds its field set's declared size is
// dropped; siblings still emit.
func TestS6FieldAddressExceedsFieldsetSize(t *testing.T) {
	manifest := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   name("Dev"),
			Config: ast.DeviceConfig{RegisterAddressType: u8()},
			Objects: []ast.Object{
				&ast.Register{Name: name("Foo"), Address: addr(0), FieldSetRef: name("Foo")},
				&ast.FieldSet{
					Name:     name("Foo"),
					SizeBits: span.Unspanned(uint32(10)),
					Fields: []ast.Field{
						{
							Name:         name("x"),
							BaseType:     baseType(specval.NewUint()),
							FieldAddress: fieldRange(0, 11),
						},
						{
							Name:         name("y"),
							BaseType:     baseType(specval.NewUint()),
							FieldAddress: fieldRange(0, 4),
						},
					},
				},
			},
		}},
	}

	sink := diag.NewSink()
	src := CompileManifest(manifest, "dev", sink)

	found := false
	for _, d := range sink.All() {
		if d.Kind == "FieldAddressExceedsFieldsetSize" {
			found = true
		}
	}

	assert.True(t, found, "expected a FieldAddressExceedsFieldsetSize diagnostic")
	assert.False(t, strings.Contains(src, "func (f Foo) X()"), "expected the overflowing field to be dropped, got:\n%s", src)
	assert.True(t, strings.Contains(src, "func (f Foo) Y()"), "expected the sibling field to survive, got:\n%s", src)
}

// S7: a register repeating by an enum that has a catch-all variant is
// invalid (the catch-all makes the repeat count ambiguous); the repeat is
// replaced with Count(1) and compilation proceeds with the sentinel.
func TestS7RepeatEnumWithCatchAll(t *testing.T) {
	manifest := &ast.Manifest{
		Devices: []ast.Device{{
			Name:   name("Dev"),
			Config: ast.DeviceConfig{RegisterAddressType: u8()},
			Objects: []ast.Object{
				&ast.Enum{
					Name: name("E"),
					Variants: []ast.EnumVariant{
						{Name: name("A")},
						{Name: name("Rest"), ValueKind: ast.EnumValueCatchAll},
					},
				},
				&ast.Register{
					Name:        name("Foo"),
					Address:     addr(0),
					FieldSetRef: name("Foo"),
					Repeat: &ast.Repeat{
						Source: ast.RepeatSource{Kind: ast.RepeatSourceEnum, EnumName: name("E")},
						Stride: big.NewInt(1),
					},
				},
				&ast.FieldSet{
					Name:     name("Foo"),
					SizeBits: span.Unspanned(uint32(8)),
					Fields: []ast.Field{{
						Name:         name("value"),
						BaseType:     baseType(specval.NewUint()),
						FieldAddress: fieldRange(0, 8),
					}},
				},
			},
		}},
	}

	sink := diag.NewSink()
	src := CompileManifest(manifest, "dev", sink)

	found := false
	for _, d := range sink.All() {
		if d.Kind == "RepeatEnumWithCatchAll" {
			found = true
		}
	}

	assert.True(t, found, "expected a RepeatEnumWithCatchAll diagnostic")
	assert.True(t, strings.Contains(src, "func (d Dev) Foo(index uint64)"),
		"expected the rejected enum repeat to fall back to a Count(1) indexed method, got:\n%s", src)
}
