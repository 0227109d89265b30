// Package astlower turns a parser's ast.Manifest into the mutable mir.Manifest
// the pass pipeline operates on, per spec §3.5's description of MIR as the
// AST "mainly differing in that names are parsed identifiers and references
// are still unresolved name strings". Nothing here validates anything beyond
// what's needed to construct the MIR shape — every semantic check (name
// validity, uniqueness, range checks, address overlap, ...) belongs to
// pkg/mir/passes, not here.
//
// Grounded on the teacher's pkg/corset/resolver.go: a single recursive walk
// that copies the parse tree into a richer shape, carrying config down by
// value as it descends rather than back-referencing a parent pointer.
package astlower

import (
	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/ident"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
)

// Lower converts every device in m into its mir.Device counterpart.
func Lower(m *ast.Manifest) *mir.Manifest {
	out := &mir.Manifest{}

	for i := range m.Devices {
		out.Devices = append(out.Devices, lowerDevice(&m.Devices[i]))
	}

	return out
}

func lowerDevice(dev *ast.Device) *mir.Device {
	return &mir.Device{
		Name:    lowerName(dev.Name),
		Config:  lowerConfig(dev.Config),
		Objects: lowerObjects(dev.Objects, nil),
		Span:    dev.Span,
	}
}

func lowerConfig(c ast.DeviceConfig) mir.DeviceConfig {
	return mir.DeviceConfig{
		RegisterAddressType: c.RegisterAddressType,
		CommandAddressType:  c.CommandAddressType,
		BufferAddressType:   c.BufferAddressType,
		DefaultByteOrder:    c.DefaultByteOrder,
		DefaultBitOrder:     c.DefaultBitOrder,
		DefaultAccess:       c.DefaultAccess,
		Boundaries:          lowerBoundaries(c.NameBoundaries),
		FeatureFlag:         c.FeatureFlag,
		Span:                c.Span,
	}
}

var boundaryNames = map[string]ident.Boundary{
	"underscore":        ident.Underscore,
	"hyphen":            ident.Hyphen,
	"space":             ident.Space,
	"lower_upper":       ident.LowerUpper,
	"upper_upper_lower": ident.UpperUpperLower,
	"digit_letter":      ident.DigitLetter,
}

// lowerBoundaries maps each configured boundary-kind name to its
// ident.Boundary, in the order the config declared them, silently skipping
// any name it doesn't recognize — a parser is expected to have already
// rejected unknown boundary names at the surface-syntax level.
func lowerBoundaries(names []string) ident.Boundaries {
	var bs ident.Boundaries

	for _, n := range names {
		if b, ok := boundaryNames[n]; ok {
			bs = append(bs, b)
		}
	}

	return bs
}

// lowerName parses a surface Name into an ident.Identifier, falling back to
// a placeholder rather than panicking if it's empty — an empty name is
// caught downstream by names_checked, which needs the object to still exist
// in order to attach a diagnostic to its span.
func lowerName(n ast.Name) ident.Identifier {
	id, err := ident.TryParse(n.Text)
	if err != nil {
		id, _ = ident.TryParse("_")
	}

	return id
}

func lowerObjects(objs []ast.Object, scope []string) []mir.Object {
	out := make([]mir.Object, 0, len(objs))

	for _, o := range objs {
		out = append(out, lowerObject(o, scope))
	}

	return out
}

func lowerObject(o ast.Object, scope []string) mir.Object {
	switch v := o.(type) {
	case *ast.Block:
		return lowerBlock(v, scope)
	case *ast.Register:
		return lowerRegister(v, scope)
	case *ast.Command:
		return lowerCommand(v, scope)
	case *ast.Buffer:
		return lowerBuffer(v, scope)
	case *ast.FieldSet:
		return lowerFieldSet(v, scope)
	case *ast.Enum:
		return lowerEnum(v, scope)
	case *ast.Extern:
		return lowerExtern(v, scope)
	default:
		panic("astlower: unhandled ast.Object kind")
	}
}

func lowerBlock(b *ast.Block, scope []string) *mir.Block {
	name := lowerName(b.Name)
	childScope := append(append([]string{}, scope...), name.Original())

	return &mir.Block{
		Description:   b.Description,
		Name:          name,
		AddressOffset: b.AddressOffset,
		Repeat:        lowerRepeat(b.Repeat),
		Objects:       lowerObjects(b.Objects, childScope),
		Scope:         scope,
		Span:          b.Span,
	}
}

func lowerRegister(r *ast.Register, scope []string) *mir.Register {
	return &mir.Register{
		Description:         r.Description,
		Name:                lowerName(r.Name),
		Address:             lowerAddr(r.Address),
		Access:              r.Access,
		Repeat:              lowerRepeat(r.Repeat),
		FieldSetRef:         r.FieldSetRef.Text,
		ResetValue:          r.ResetValue,
		AllowAddressOverlap: r.AllowAddressOverlap,
		Scope:               scope,
		Span:                r.Span,
	}
}

func lowerCommand(c *ast.Command, scope []string) *mir.Command {
	cmd := &mir.Command{
		Description: c.Description,
		Name:        lowerName(c.Name),
		Address:     lowerAddr(c.Address),
		Repeat:      lowerRepeat(c.Repeat),
		Scope:       scope,
		Span:        c.Span,
	}

	if c.FieldSetRefIn != nil {
		cmd.FieldSetRefIn = c.FieldSetRefIn.Text
	}

	if c.FieldSetRefOut != nil {
		cmd.FieldSetRefOut = c.FieldSetRefOut.Text
	}

	return cmd
}

func lowerBuffer(b *ast.Buffer, scope []string) *mir.Buffer {
	return &mir.Buffer{
		Description: b.Description,
		Name:        lowerName(b.Name),
		Access:      b.Access,
		Address:     lowerAddr(b.Address),
		Scope:       scope,
		Span:        b.Span,
	}
}

func lowerFieldSet(fs *ast.FieldSet, scope []string) *mir.FieldSet {
	fields := make([]*mir.Field, 0, len(fs.Fields))
	for i := range fs.Fields {
		fields = append(fields, lowerField(&fs.Fields[i]))
	}

	return &mir.FieldSet{
		Description:     fs.Description,
		Name:            lowerName(fs.Name),
		SizeBits:        fs.SizeBits,
		ByteOrder:       fs.ByteOrder,
		BitOrder:        fs.BitOrder,
		AllowBitOverlap: fs.AllowBitOverlap,
		Fields:          fields,
		Scope:           scope,
		Span:            fs.Span,
	}
}

func lowerField(f *ast.Field) *mir.Field {
	return &mir.Field{
		Description: f.Description,
		Name:        lowerName(f.Name),
		Access:      f.Access,
		BaseType:    f.BaseType,
		FieldConversion: lowerFieldConversion(f.FieldConversion),
		FieldAddress: span.NewSpanned(mir.FieldRange{
			Start: f.FieldAddress.Value.Start,
			End:   f.FieldAddress.Value.End,
		}, f.FieldAddress.Span),
		Repeat: lowerRepeat(f.Repeat),
		Span:   f.Span,
	}
}

func lowerFieldConversion(fc *ast.FieldConversion) *mir.FieldConversion {
	if fc == nil {
		return nil
	}

	return &mir.FieldConversion{
		TypeName: span.NewSpanned(fc.TypeName.Value.Text, fc.TypeName.Span),
		Fallible: fc.Fallible,
	}
}

func lowerEnum(e *ast.Enum, scope []string) *mir.Enum {
	variants := make([]*mir.EnumVariant, 0, len(e.Variants))
	for i := range e.Variants {
		variants = append(variants, lowerEnumVariant(&e.Variants[i]))
	}

	return &mir.Enum{
		Description: e.Description,
		Name:        lowerName(e.Name),
		Variants:    variants,
		BaseType:    e.BaseType,
		SizeBits:    e.SizeBits,
		Scope:       scope,
		Span:        e.Span,
	}
}

func lowerEnumVariant(v *ast.EnumVariant) *mir.EnumVariant {
	return &mir.EnumVariant{
		Description: v.Description,
		Name:        lowerName(v.Name),
		ValueKind:   mir.EnumValueKind(v.ValueKind),
		Specified:   v.Specified,
		Span:        v.Span,
	}
}

func lowerExtern(e *ast.Extern, scope []string) *mir.Extern {
	return &mir.Extern{
		Description:        e.Description,
		Name:               lowerName(e.Name),
		BaseType:           e.BaseType,
		SupportsInfallible: e.SupportsInfallible,
		Scope:              scope,
		Span:               e.Span,
	}
}

func lowerAddr(a span.Spanned[*ast.AddrValue]) span.Spanned[int64] {
	var v int64
	if a.Value != nil && a.Value.V != nil {
		v = a.Value.V.Int64()
	}

	return span.NewSpanned(v, a.Span)
}

func lowerRepeat(r *ast.Repeat) *specval.Repeat {
	if r == nil {
		return nil
	}

	var source specval.RepeatSource

	switch r.Source.Kind {
	case ast.RepeatSourceCount:
		source = specval.NewRepeatCount(r.Source.Count)
	case ast.RepeatSourceEnum:
		source = specval.NewRepeatEnum(r.Source.EnumName.Text)
	}

	repeat := specval.NewRepeat(source, r.Stride)

	return &repeat
}
