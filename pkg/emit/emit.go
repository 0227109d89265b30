// Package emit renders a lir.Driver as Go source, the "minimal Go-source
// emitter" SPEC_FULL.md §4.8 adds to satisfy spec.md §6.2's emitter
// contract. Each register/field-set/enum becomes plain Go: the smart bit-
// packing and naming logic lives in ordinary Go methods on genContext,
// matching the teacher corpus's own code-generation precedent (a thin
// text/template skeleton that calls out to Go helper functions for the
// gnarly per-node rendering, rather than doing that work inside template
// actions), with go/format doing final layout instead of hand-rolled
// indentation.
package emit

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"go/format"

	"github.com/regspec/ddc/pkg/lir"
	"github.com/regspec/ddc/pkg/specval"
)

// sentinelTag is prefixed to the output whenever the compilation that
// produced it carries an error diagnostic, per spec §4.6/§7 and
// SPEC_FULL.md §4.8: a deliberate, unmissable "this must not build"
// marker expressed in Go's own idiom (a build tag that excludes the file
// from every ordinary build) rather than borrowing Rust's
// `compile_error!`.
const sentinelTag = "//go:build ddc_compile_error\n// +build ddc_compile_error\n\n"

const driverTemplate = `// Code generated by ddc. DO NOT EDIT.
package {{.Package}}

import "encoding/binary"

// ByteOrder selects how a field set's raw bits are packed to and from a
// byte slice.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func bytesToUint64(raw []byte, order ByteOrder) uint64 {
	var buf [8]byte
	copy(buf[:], raw)

	if order == BigEndian {
		shift := 8 - len(raw)
		if shift < 0 {
			shift = 0
		}

		var shifted [8]byte
		copy(shifted[shift:], raw)

		return binary.BigEndian.Uint64(shifted[:])
	}

	return binary.LittleEndian.Uint64(buf[:])
}

func uint64ToBytes(v uint64, length int, order ByteOrder) []byte {
	var buf [8]byte

	if order == BigEndian {
		binary.BigEndian.PutUint64(buf[:], v)
		return buf[8-length:]
	}

	binary.LittleEndian.PutUint64(buf[:], v)

	return buf[:length]
}

{{range .Driver.Enums}}
{{$.RenderEnum .}}
{{end}}
{{range .Driver.FieldSets}}
{{$.RenderFieldSet .}}
{{end}}
{{range .Driver.Devices}}
{{$.RenderDevice .}}
{{end}}
`

// Emit renders d as a single Go source file in package pkgName. If
// hasError is true (the compilation that produced d recorded at least one
// error diagnostic), the output is prefixed with sentinelTag so it cannot
// silently compile into a normal build.
func Emit(d *lir.Driver, pkgName string, hasError bool) (string, error) {
	ctx := &genContext{Driver: d, Package: pkgName}

	tmpl, err := template.New("ddc").Parse(driverTemplate)
	if err != nil {
		return "", fmt.Errorf("emit: parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("emit: executing template: %w", err)
	}

	src := buf.Bytes()
	if formatted, err := format.Source(src); err == nil {
		src = formatted
	}

	if hasError {
		return sentinelTag + string(src), nil
	}

	return string(src), nil
}

// genContext is the root template value; its methods do the actual
// rendering work, keeping template actions to plain ranges.
type genContext struct {
	Driver  *lir.Driver
	Package string
}

func goType(i specval.Integer) string {
	switch i {
	case specval.U8:
		return "uint8"
	case specval.U16:
		return "uint16"
	case specval.U32:
		return "uint32"
	case specval.U64:
		return "uint64"
	case specval.I8:
		return "int8"
	case specval.I16:
		return "int16"
	case specval.I32:
		return "int32"
	case specval.I64:
		return "int64"
	default:
		return "uint64"
	}
}

// RenderEnum renders e as a named integer type, its variant constants, an
// infallible constructor when a catch-all or default variant makes the
// conversion total, and a checked constructor otherwise, per spec §6.2's
// "From (Fallback/Default) or TryFrom (Fallible)" contract translated into
// Go's constructor-function idiom.
func (c *genContext) RenderEnum(e lir.Enum) string {
	base := goType(e.BaseType)

	var b strings.Builder

	fmt.Fprintf(&b, "// %s\ntype %s %s\n\nconst (\n", describeOr(e.Description, e.Name), e.Name, base)

	var (
		catchAll *lir.EnumVariant
		defVar   *lir.EnumVariant
	)

	for i := range e.Variants {
		v := &e.Variants[i]

		fmt.Fprintf(&b, "\t%s%s %s = %d\n", e.Name, v.Name, e.Name, v.Discriminant)

		if v.CatchAll {
			catchAll = v
		}

		if v.Default {
			defVar = v
		}
	}

	b.WriteString(")\n\n")

	switch {
	case catchAll != nil:
		fmt.Fprintf(&b, "func New%s(v %s) %s {\n\tswitch %s(v) {\n", e.Name, base, e.Name, e.Name)

		for i := range e.Variants {
			v := &e.Variants[i]
			if v == catchAll {
				continue
			}

			fmt.Fprintf(&b, "\tcase %s%s:\n\t\treturn %s%s\n", e.Name, v.Name, e.Name, v.Name)
		}

		fmt.Fprintf(&b, "\tdefault:\n\t\treturn %s%s\n\t}\n}\n", e.Name, catchAll.Name)
	case defVar != nil:
		fmt.Fprintf(&b, "func New%s(v %s) %s {\n\tswitch %s(v) {\n", e.Name, base, e.Name, e.Name)

		for i := range e.Variants {
			v := &e.Variants[i]
			if v == defVar {
				continue
			}

			fmt.Fprintf(&b, "\tcase %s%s:\n\t\treturn %s%s\n", e.Name, v.Name, e.Name, v.Name)
		}

		fmt.Fprintf(&b, "\tdefault:\n\t\treturn %s%s\n\t}\n}\n", e.Name, defVar.Name)
	default:
		fmt.Fprintf(&b, "func New%sChecked(v %s) (%s, bool) {\n\tswitch %s(v) {\n", e.Name, base, e.Name, e.Name)

		for i := range e.Variants {
			v := &e.Variants[i]
			fmt.Fprintf(&b, "\tcase %s%s:\n\t\treturn %s%s, true\n", e.Name, v.Name, e.Name, v.Name)
		}

		fmt.Fprintf(&b, "\t}\n\n\tvar zero %s\n\n\treturn zero, false\n}\n", e.Name)
	}

	fmt.Fprintf(&b, "\n// RawValue returns the underlying discriminant of v.\nfunc (v %s) RawValue() %s { return %s(v) }\n", e.Name, base, base)

	return b.String()
}

func describeOr(description, name string) string {
	if description != "" {
		return description
	}

	return name
}

// RenderFieldSet renders fs as a struct wrapping a single uint64 register
// value, with one reader/writer pair per field. Field sets wider than 64
// bits are out of scope for this minimal emitter (see DESIGN.md); their
// accessors still generate, just against a truncated backing word.
func (c *genContext) RenderFieldSet(fs lir.FieldSet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "// %s\ntype %s struct {\n\traw uint64\n}\n\n", describeOr(fs.Description, fs.Name), fs.Name)
	fmt.Fprintf(&b, "func New%s() %s { return %s{} }\n\n", fs.Name, fs.Name, fs.Name)
	fmt.Fprintf(&b, "func (f %s) Raw() uint64 { return f.raw }\n\n", fs.Name)
	fmt.Fprintf(&b, "func %sFromBytes(raw []byte, order %s) %s {\n\treturn %s{raw: bytesToUint64(raw, order)}\n}\n\n",
		fs.Name, "ByteOrder", fs.Name, fs.Name)
	fmt.Fprintf(&b, "func (f %s) ToBytes(length int, order ByteOrder) []byte {\n\treturn uint64ToBytes(f.raw, length, order)\n}\n\n",
		fs.Name)

	for _, f := range fs.Fields {
		b.WriteString(c.renderField(fs, f))
	}

	return b.String()
}

func bitMask(width uint32) string {
	if width >= 64 {
		return "0xffffffffffffffff"
	}

	return fmt.Sprintf("0x%x", (uint64(1)<<width)-1)
}

func (c *genContext) renderField(fs lir.FieldSet, f lir.Field) string {
	start, width := bitRange(fs, f)
	mask := bitMask(width)
	base := goType(f.BaseType)

	var b strings.Builder

	fmt.Fprintf(&b, "// %s\nfunc (f %s) %s() %s {\n\tv := (f.raw >> %d) & %s\n",
		describeOr(f.Description, f.Name), fs.Name, f.Name, returnType(f), start, mask)
	b.WriteString(c.readConversion(f, base))
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "func (f *%s) Set%s(v %s) {\n", fs.Name, f.Name, returnType(f))
	b.WriteString(c.writeConversion(f, base, mask))
	fmt.Fprintf(&b, "\tf.raw = (f.raw &^ (%s << %d)) | ((uint64(raw) & %s) << %d)\n}\n\n", mask, start, mask, start)

	return b.String()
}

// bitRange returns the LSB-numbered (start, width) of f within fs,
// converting from MSB0 numbering when the field set requests it.
func bitRange(fs lir.FieldSet, f lir.Field) (start, width uint32) {
	width = f.AddressEnd - f.AddressStart

	if fs.BitOrder == specval.MSB0 {
		return fs.SizeBits - f.AddressEnd, width
	}

	return f.AddressStart, width
}

func returnType(f lir.Field) string {
	switch f.ConversionMethod.Kind {
	case lir.ConversionBool:
		return "bool"
	case lir.ConversionNone:
		return goType(f.BaseType)
	case lir.ConversionTryInto:
		return f.ConversionMethod.Target
	default:
		return f.ConversionMethod.Target
	}
}

func (c *genContext) readConversion(f lir.Field, base string) string {
	switch f.ConversionMethod.Kind {
	case lir.ConversionBool:
		return "\treturn v != 0\n"
	case lir.ConversionNone:
		return fmt.Sprintf("\treturn %s(v)\n", base)
	case lir.ConversionTryInto:
		return fmt.Sprintf("\tresult, _ := New%sChecked(%s(v))\n\treturn result\n", f.ConversionMethod.Target, base)
	default: // Into, UnsafeInto
		return fmt.Sprintf("\treturn New%s(%s(v))\n", f.ConversionMethod.Target, base)
	}
}

func (c *genContext) writeConversion(f lir.Field, base, mask string) string {
	switch f.ConversionMethod.Kind {
	case lir.ConversionBool:
		return "\tvar raw uint64\n\tif v {\n\t\traw = 1\n\t}\n"
	case lir.ConversionNone:
		return "\traw := uint64(v)\n"
	default: // Into/UnsafeInto/TryInto all target an enum with a RawValue accessor
		return "\traw := uint64(v.RawValue())\n"
	}
}

// RenderDevice renders dev as one Go type per Block, with one method per
// BlockMethod dispatching to the method's target (nested block, register,
// command or buffer), per SPEC_FULL.md §4.8.
func (c *genContext) RenderDevice(dev lir.Device) string {
	var b strings.Builder

	fmt.Fprintf(&b, "type %s struct {\n\tbase %s\n}\n\n", dev.Name, goType(dev.InternalAddressType))
	fmt.Fprintf(&b, "func New%s(base %s) %s { return %s{base: base} }\n\n",
		dev.Name, goType(dev.InternalAddressType), dev.Name, dev.Name)

	for _, blk := range dev.Blocks {
		b.WriteString(c.renderBlock(dev, blk))
	}

	return b.String()
}

func blockTypeName(dev lir.Device, blk lir.Block) string {
	if blk.Root {
		return dev.Name
	}

	return dev.Name + blk.Name
}

func (c *genContext) renderBlock(dev lir.Device, blk lir.Block) string {
	var b strings.Builder

	typeName := blockTypeName(dev, blk)

	if !blk.Root {
		fmt.Fprintf(&b, "// %s\ntype %s struct {\n\tbase %s\n}\n\n",
			describeOr(blk.Description, blk.Name), typeName, goType(dev.InternalAddressType))
	}

	for _, m := range blk.Methods {
		b.WriteString(c.renderMethod(dev, typeName, m))
	}

	return b.String()
}

// renderMethod renders one BlockMethod as a method on recv. Register,
// Command and Buffer methods return the method's resolved address (of the
// device's internal address type); Block methods return the nested
// block's own struct, constructed at that address, so a caller chains
// straight through to the next level (dev.SomeBlock().SomeRegister()).
func (c *genContext) renderMethod(dev lir.Device, recv string, m lir.BlockMethod) string {
	addrType := goType(dev.InternalAddressType)

	resultType := addrType
	construct := func(addrExpr string) string { return fmt.Sprintf("return %s", addrExpr) }

	if m.MethodType.Kind == lir.MethodBlock {
		childType := dev.Name + m.MethodType.BlockName
		resultType = childType
		construct = func(addrExpr string) string { return fmt.Sprintf("return %s{base: %s}", childType, addrExpr) }
	}

	var b strings.Builder

	fmt.Fprintf(&b, "// %s\n", describeOr(m.Description, m.Name))
	c.renderRepeatMethod(&b, recv, addrType, m, resultType, construct)

	return b.String()
}

// renderRepeatMethod renders a BlockMethod's dispatch method, taking an
// index parameter when the method repeats (SPEC_FULL.md §4.8: "Repeat
// becomes an indexed method"), and computing the replicated address via
// index*stride or the matching enum variant's discriminant*stride.
func (c *genContext) renderRepeatMethod(b *strings.Builder, recv, addrType string, m lir.BlockMethod, resultType string, body func(addrExpr string) string) {
	switch m.Repeat.Kind {
	case lir.RepeatNone:
		fmt.Fprintf(b, "func (d %s) %s() %s {\n", recv, m.Name, resultType)
		addrExpr := fmt.Sprintf("%s(d.base) + %s(%d)", addrType, addrType, m.Address)
		fmt.Fprintf(b, "\t%s\n}\n\n", body(addrExpr))
	case lir.RepeatCountKind:
		fmt.Fprintf(b, "func (d %s) %s(index uint64) %s {\n", recv, m.Name, resultType)
		addrExpr := fmt.Sprintf("%s(d.base) + %s(%d) + %s(index)*%s(%d)", addrType, addrType, m.Address, addrType, addrType, m.Repeat.Stride)
		fmt.Fprintf(b, "\t%s\n}\n\n", body(addrExpr))
	case lir.RepeatEnumKind:
		fmt.Fprintf(b, "func (d %s) %s(variant %s) %s {\n\toffset := %s(variant.RawValue()) * %s(%d)\n",
			recv, m.Name, m.Repeat.EnumName, resultType, addrType, addrType, m.Repeat.Stride)
		addrExpr := fmt.Sprintf("%s(d.base) + %s(%d) + offset", addrType, addrType, m.Address)
		fmt.Fprintf(b, "\t%s\n}\n\n", body(addrExpr))
	}
}
