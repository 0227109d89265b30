package emit

import (
	"strings"
	"testing"

	"github.com/regspec/ddc/pkg/lir"
	"github.com/regspec/ddc/pkg/specval"
	"github.com/regspec/ddc/pkg/util/assert"
)

func minimalDriver() *lir.Driver {
	return &lir.Driver{
		FieldSets: []lir.FieldSet{{
			Name:     "Foo",
			SizeBits: 8,
			Fields: []lir.Field{{
				Name:             "Value",
				AddressStart:     0,
				AddressEnd:       8,
				BaseType:         specval.U8,
				ConversionMethod: lir.FieldConversionMethod{Kind: lir.ConversionNone},
			}},
		}},
		Devices: []lir.Device{{
			Name:                "Dev",
			InternalAddressType: specval.U8,
			Blocks: []lir.Block{{
				Root: true,
				Name: "Dev",
				Methods: []lir.BlockMethod{{
					Name:   "Foo",
					Repeat: lir.Repeat{Kind: lir.RepeatNone},
					MethodType: lir.BlockMethodType{
						Kind:         lir.MethodRegister,
						FieldSetName: "Foo",
					},
				}},
			}},
		}},
	}
}

func TestEmitProducesValidSource(t *testing.T) {
	src, err := Emit(minimalDriver(), "dev", false)

	assert.NoError(t, err)
	assert.True(t, strings.Contains(src, "package dev"), "expected a package clause, got:\n%s", src)
	assert.True(t, strings.Contains(src, "type Foo struct"), "expected the Foo field set struct, got:\n%s", src)
	assert.True(t, strings.Contains(src, "func (d Dev) Foo()"), "expected a Foo method on Dev, got:\n%s", src)
	assert.False(t, strings.HasPrefix(src, "//go:build ddc_compile_error"), "unexpected error sentinel")
}

func TestEmitPrefixesSentinelOnError(t *testing.T) {
	src, err := Emit(minimalDriver(), "dev", true)

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(src, sentinelTag), "expected the error sentinel prefix, got:\n%s", src)
}

func TestRenderEnumChecked(t *testing.T) {
	e := lir.Enum{
		Name:     "E",
		BaseType: specval.U8,
		Variants: []lir.EnumVariant{
			{Name: "A", Discriminant: 0},
			{Name: "B", Discriminant: 1},
		},
	}

	ctx := &genContext{}
	out := ctx.RenderEnum(e)

	assert.True(t, strings.Contains(out, "func NewEChecked(v uint8) (E, bool)"),
		"expected a checked constructor when no catch-all/default variant exists, got:\n%s", out)
	assert.True(t, strings.Contains(out, "func (v E) RawValue() uint8"), "expected a RawValue accessor, got:\n%s", out)
}

func TestRenderEnumWithCatchAllIsInfallible(t *testing.T) {
	e := lir.Enum{
		Name:     "E",
		BaseType: specval.U8,
		Variants: []lir.EnumVariant{
			{Name: "A", Discriminant: 0},
			{Name: "Rest", Discriminant: 1, CatchAll: true},
		},
	}

	ctx := &genContext{}
	out := ctx.RenderEnum(e)

	assert.True(t, strings.Contains(out, "func NewE(v uint8) E"),
		"expected an infallible constructor when a catch-all variant exists, got:\n%s", out)
}

func TestBitMaskAtFullWidth(t *testing.T) {
	assert.Equal(t, "0xffffffffffffffff", bitMask(64))
	assert.Equal(t, "0xff", bitMask(8))
}
