// Package lower implements MIR → LIR lowering, spec §4.5: the step that
// turns a mir.Manifest into the flat, emission-shaped lir.Driver. Per
// spec §4.6 this runs once, after the pass pipeline, regardless of
// whether the pipeline added any error diagnostics — the driver still
// wants a best-effort LIR to emit a deliberate compile_error sentinel
// around, so lowering must never panic on a manifest that removal sets
// left only partially normalized.
//
// Grounded on the teacher's pkg/corset/compiler/translator.go: a single
// walk that flattens a still-richly-typed tree into the builder's plain
// output structs, resolving every name reference by linear scan as it
// goes rather than pre-building an index.
package lower

import (
	"math/big"

	"github.com/regspec/ddc/pkg/ident"
	"github.com/regspec/ddc/pkg/lir"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// Lower flattens every device in m into a lir.Driver.
func Lower(m *mir.Manifest) *lir.Driver {
	driver := &lir.Driver{}

	for _, dev := range m.Devices {
		driver.Devices = append(driver.Devices, lowerDevice(dev))

		for _, fs := range fieldSetsIn(dev.Objects) {
			driver.FieldSets = append(driver.FieldSets, lowerFieldSet(dev, fs))
		}

		for _, e := range enumsIn(dev.Objects) {
			driver.Enums = append(driver.Enums, lowerEnum(dev, e))
		}
	}

	return driver
}

// isAddressable matches Register, Command and Buffer: the three object
// kinds computeInternalAddressType must cover, per spec §4.5.
func isAddressable(o mir.Object) bool {
	return mir.IsRegister(o) || mir.IsCommand(o) || mir.IsBuffer(o)
}

func lowerDevice(dev *mir.Device) lir.Device {
	var blocks []lir.Block

	rootMethods := lowerBlockMethods(dev, dev.Objects, &blocks)

	root := lir.Block{
		Root:    true,
		Name:    dev.Name.Original(),
		Methods: rootMethods,
	}

	return lir.Device{
		Name:                dev.Name.Original(),
		InternalAddressType: computeInternalAddressType(dev),
		Blocks:              append([]lir.Block{root}, blocks...),
		DefmtFeature:        dev.Config.FeatureFlag,
	}
}

// computeInternalAddressType implements spec §4.5's "take the device's
// min/max object address ... map to the smallest standard width"
// algorithm by reusing specval.FindSmallest, which already picks the
// narrowest of the eight standard widths covering a [min,max] range —
// the same search the spec's needs_signed/needs_bits/next_pow2 recipe
// arrives at by a different route. A device with no addressable objects
// at all gets the narrowest width, u8.
func computeInternalAddressType(dev *mir.Device) specval.Integer {
	min, max, ok := mir.FindMinMaxAddresses(dev, isAddressable)
	if !ok {
		return specval.U8
	}

	if t, ok := specval.FindSmallest(min.Address, max.Address, 8); ok {
		return t
	}

	return specval.U64
}

// lowerBlockMethods translates objs (the contents of one block, or of the
// device's own root) into BlockMethods, appending any nested blocks it
// encounters to out in DFS order as it goes.
func lowerBlockMethods(dev *mir.Device, objs []mir.Object, out *[]lir.Block) []lir.BlockMethod {
	var methods []lir.BlockMethod

	for _, o := range objs {
		switch v := o.(type) {
		case *mir.Block:
			methods = append(methods, lowerBlockObject(dev, v, out))
		case *mir.Register:
			methods = append(methods, lowerRegister(dev, v))
		case *mir.Command:
			methods = append(methods, lowerCommand(dev, v))
		case *mir.Buffer:
			methods = append(methods, lowerBuffer(dev, v))
		}
	}

	return methods
}

func lowerBlockObject(dev *mir.Device, b *mir.Block, out *[]lir.Block) lir.BlockMethod {
	name := b.Name.ToCase(ident.PascalCase)
	childMethods := lowerBlockMethods(dev, b.Objects, out)

	*out = append(*out, lir.Block{
		Description: b.Description,
		Name:        name,
		Methods:     childMethods,
	})

	return lir.BlockMethod{
		Description: b.Description,
		Name:        name,
		Address:     offsetInt64(b.AddressOffset),
		Repeat:      lowerRepeat(dev, b.Repeat),
		MethodType:  lir.BlockMethodType{Kind: lir.MethodBlock, BlockName: name},
	}
}

func lowerRegister(dev *mir.Device, r *mir.Register) lir.BlockMethod {
	addrType := specval.U32
	if dev.Config.RegisterAddressType != nil {
		addrType = *dev.Config.RegisterAddressType
	}

	var reset []byte
	if r.ResetValue != nil && r.ResetValue.Kind == specval.ResetBytes {
		reset = r.ResetValue.Bytes
	}

	return lir.BlockMethod{
		Description: r.Description,
		Name:        r.Name.ToCase(ident.PascalCase),
		Address:     r.Address.Value,
		Repeat:      lowerRepeat(dev, r.Repeat),
		MethodType: lir.BlockMethodType{
			Kind:         lir.MethodRegister,
			FieldSetName: resolveFieldSetName(dev, r.FieldSetRef),
			Access:       r.Access,
			AddressType:  addrType,
			ResetValue:   reset,
		},
	}
}

func lowerCommand(dev *mir.Device, c *mir.Command) lir.BlockMethod {
	addrType := specval.U32
	if dev.Config.CommandAddressType != nil {
		addrType = *dev.Config.CommandAddressType
	}

	return lir.BlockMethod{
		Description: c.Description,
		Name:        c.Name.ToCase(ident.PascalCase),
		Address:     c.Address.Value,
		Repeat:      lowerRepeat(dev, c.Repeat),
		MethodType: lir.BlockMethodType{
			Kind:            lir.MethodCommand,
			FieldSetNameIn:  resolveFieldSetName(dev, c.FieldSetRefIn),
			FieldSetNameOut: resolveFieldSetName(dev, c.FieldSetRefOut),
			AddressType:     addrType,
		},
	}
}

func lowerBuffer(dev *mir.Device, b *mir.Buffer) lir.BlockMethod {
	addrType := specval.U32
	if dev.Config.BufferAddressType != nil {
		addrType = *dev.Config.BufferAddressType
	}

	return lir.BlockMethod{
		Description: b.Description,
		Name:        b.Name.ToCase(ident.PascalCase),
		Address:     b.Address.Value,
		Repeat:      lir.Repeat{Kind: lir.RepeatNone},
		MethodType: lir.BlockMethodType{
			Kind:        lir.MethodBuffer,
			Access:      b.Access,
			AddressType: addrType,
		},
	}
}

// resolveFieldSetName looks ref up by name within dev (a FieldSet or, if
// none matches, an Extern — field_set_ref is name-based per spec §5) and
// returns its qualified LIR name. An unresolved ref (only reachable on a
// best-effort lowering of a still-erroring manifest) is passed through
// unqualified so the driver's error sentinel still has something to emit.
func resolveFieldSetName(dev *mir.Device, ref string) string {
	if ref == "" {
		return ""
	}

	for _, fs := range fieldSetsIn(dev.Objects) {
		if fs.Name.Original() == ref {
			return qualifiedName(dev, fs.Name)
		}
	}

	for _, e := range externsIn(dev.Objects) {
		if e.Name.Original() == ref {
			return qualifiedName(dev, e.Name)
		}
	}

	return ref
}

func lowerRepeat(dev *mir.Device, r *specval.Repeat) lir.Repeat {
	if r == nil {
		return lir.Repeat{Kind: lir.RepeatNone}
	}

	stride := int64(0)
	if r.Stride != nil {
		stride = r.Stride.Int64()
	}

	switch r.Source.Kind {
	case specval.RepeatCount:
		return lir.Repeat{Kind: lir.RepeatCountKind, Count: r.Source.Count, Stride: stride}
	case specval.RepeatEnum:
		target := findEnumByOriginalName(dev, r.Source.EnumName)

		var (
			enumName string
			variants []string
		)

		if target != nil {
			enumName = qualifiedName(dev, target.Name)
			for _, v := range target.Variants {
				variants = append(variants, v.Name.ToCase(ident.PascalCase))
			}
		}

		return lir.Repeat{Kind: lir.RepeatEnumKind, EnumName: enumName, EnumVariants: variants, Stride: stride}
	}

	return lir.Repeat{Kind: lir.RepeatNone}
}

func lowerFieldSet(dev *mir.Device, fs *mir.FieldSet) lir.FieldSet {
	byteOrder := specval.LE
	if fs.ByteOrder != nil {
		byteOrder = *fs.ByteOrder
	} else if dev.Config.DefaultByteOrder != nil {
		byteOrder = *dev.Config.DefaultByteOrder
	}

	bitOrder := specval.LSB0
	if fs.BitOrder != nil {
		bitOrder = *fs.BitOrder
	} else if dev.Config.DefaultBitOrder != nil {
		bitOrder = *dev.Config.DefaultBitOrder
	}

	fields := make([]lir.Field, 0, len(fs.Fields))
	for _, f := range fs.Fields {
		fields = append(fields, lowerField(dev, f))
	}

	return lir.FieldSet{
		Description:  fs.Description,
		Name:         qualifiedName(dev, fs.Name),
		ByteOrder:    byteOrder,
		BitOrder:     bitOrder,
		SizeBits:     fs.SizeBits.Value,
		Fields:       fields,
		DefmtFeature: dev.Config.FeatureFlag,
	}
}

func lowerField(dev *mir.Device, f *mir.Field) lir.Field {
	baseType := specval.U8
	if f.BaseType.Value.Kind == specval.FixedSize {
		baseType = f.BaseType.Value.Integer
	}

	return lir.Field{
		Description:      f.Description,
		Name:             f.Name.ToCase(ident.PascalCase),
		AddressStart:     f.FieldAddress.Value.Start,
		AddressEnd:       f.FieldAddress.Value.End,
		BaseType:         baseType,
		ConversionMethod: lowerFieldConversion(dev, f),
		Access:           f.Access,
		Repeat:           lowerRepeat(dev, f.Repeat),
	}
}

// lowerFieldConversion implements spec §4.5's conversion-method table.
func lowerFieldConversion(dev *mir.Device, f *mir.Field) lir.FieldConversionMethod {
	width := f.FieldAddress.Value.End - f.FieldAddress.Value.Start

	if f.FieldConversion == nil {
		if f.BaseType.Value.Kind == specval.Bool && width == 1 {
			return lir.FieldConversionMethod{Kind: lir.ConversionBool}
		}

		return lir.FieldConversionMethod{Kind: lir.ConversionNone}
	}

	targetRaw := f.FieldConversion.TypeName.Value
	target := qualifiedTargetName(dev, targetRaw)

	if f.FieldConversion.Fallible {
		return lir.FieldConversionMethod{Kind: lir.ConversionTryInto, Target: target}
	}

	if e := findEnumByOriginalName(dev, targetRaw); e != nil &&
		e.GenerationStyle != nil && *e.GenerationStyle == mir.InfallibleWithinRange &&
		e.SizeBits != nil && width <= *e.SizeBits {
		return lir.FieldConversionMethod{Kind: lir.ConversionUnsafeInto, Target: target}
	}

	return lir.FieldConversionMethod{Kind: lir.ConversionInto, Target: target}
}

func qualifiedTargetName(dev *mir.Device, targetRaw string) string {
	if e := findEnumByOriginalName(dev, targetRaw); e != nil {
		return qualifiedName(dev, e.Name)
	}

	for _, e := range externsIn(dev.Objects) {
		if e.Name.Original() == targetRaw {
			return qualifiedName(dev, e.Name)
		}
	}

	return targetRaw
}

func findEnumByOriginalName(dev *mir.Device, name string) *mir.Enum {
	for _, e := range enumsIn(dev.Objects) {
		if e.Name.Original() == name {
			return e
		}
	}

	return nil
}

func lowerEnum(dev *mir.Device, e *mir.Enum) lir.Enum {
	baseType := specval.U8
	if e.BaseType.Value.Kind == specval.FixedSize {
		baseType = e.BaseType.Value.Integer
	}

	variants := make([]lir.EnumVariant, 0, len(e.Variants))
	for _, v := range e.Variants {
		disc := int64(0)
		if v.Discriminant != nil {
			disc = v.Discriminant.Int64()
		}

		variants = append(variants, lir.EnumVariant{
			Description:  v.Description,
			Name:         v.Name.ToCase(ident.PascalCase),
			Discriminant: disc,
			Default:      v.ValueKind == mir.EnumValueDefault,
			CatchAll:     v.ValueKind == mir.EnumValueCatchAll,
		})
	}

	return lir.Enum{
		Description:  e.Description,
		Name:         qualifiedName(dev, e.Name),
		BaseType:     baseType,
		Variants:     variants,
		DefmtFeature: dev.Config.FeatureFlag,
	}
}

// qualifiedName prefixes a FieldSet/Enum's rendered name with its owning
// device's name, since spec §3.6 hoists Driver.field_sets/enums into two
// flat, device-agnostic lists: names unique only within a device (per
// spec §3.5's invariant list) would otherwise collide across devices.
func qualifiedName(dev *mir.Device, name ident.Identifier) string {
	return dev.Name.Original() + name.ToCase(ident.PascalCase)
}

func offsetInt64(v *big.Int) int64 {
	if v == nil {
		return 0
	}

	return v.Int64()
}

// objectsOf collects every object of type T reachable from objs, in
// declaration order, descending into Blocks.
func objectsOf[T mir.Object](objs []mir.Object) []T {
	var out []T

	for _, o := range objs {
		if b, ok := o.(*mir.Block); ok {
			out = append(out, objectsOf[T](b.Objects)...)
		} else if v, ok := o.(T); ok {
			out = append(out, v)
		}
	}

	return out
}

var (
	fieldSetsIn = objectsOf[*mir.FieldSet]
	enumsIn     = objectsOf[*mir.Enum]
	externsIn   = objectsOf[*mir.Extern]
)
