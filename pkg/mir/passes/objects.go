// Package passes implements the fixed-order MIR pass pipeline of spec
// §4.3: normalization, validation and inference passes that mutate a
// mir.Manifest, record diagnostics, and schedule object removal rather
// than deleting mid-walk. The package is grounded on the teacher's
// preprocessor.go pass style (one function per declaration/expression
// kind, terse "// Done"-style comments, errors accumulated and returned
// rather than panicking).
package passes

import (
	"github.com/regspec/ddc/pkg/ident"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// nameOf extracts the Identifier naming o, for the object kinds that carry
// one directly (every mir.Object implementation does).
func nameOf(o mir.Object) ident.Identifier {
	switch v := o.(type) {
	case *mir.Block:
		return v.Name
	case *mir.Register:
		return v.Name
	case *mir.Command:
		return v.Name
	case *mir.Buffer:
		return v.Name
	case *mir.FieldSet:
		return v.Name
	case *mir.Enum:
		return v.Name
	case *mir.Extern:
		return v.Name
	default:
		panic("passes: unknown object kind")
	}
}

// setName replaces o's Identifier in place.
func setName(o mir.Object, name ident.Identifier) {
	switch v := o.(type) {
	case *mir.Block:
		v.Name = name
	case *mir.Register:
		v.Name = name
	case *mir.Command:
		v.Name = name
	case *mir.Buffer:
		v.Name = name
	case *mir.FieldSet:
		v.Name = name
	case *mir.Enum:
		v.Name = name
	case *mir.Extern:
		v.Name = name
	default:
		panic("passes: unknown object kind")
	}
}

// fieldSetsIn collects every *mir.FieldSet reachable from objs, descending
// into Blocks.
func fieldSetsIn(objs []mir.Object) []*mir.FieldSet {
	var out []*mir.FieldSet

	for _, o := range objs {
		switch v := o.(type) {
		case *mir.Block:
			out = append(out, fieldSetsIn(v.Objects)...)
		case *mir.FieldSet:
			out = append(out, v)
		}
	}

	return out
}

// enumsIn collects every *mir.Enum reachable from objs, descending into
// Blocks.
func enumsIn(objs []mir.Object) []*mir.Enum {
	var out []*mir.Enum

	for _, o := range objs {
		switch v := o.(type) {
		case *mir.Block:
			out = append(out, enumsIn(v.Objects)...)
		case *mir.Enum:
			out = append(out, v)
		}
	}

	return out
}

// externsIn collects every *mir.Extern reachable from objs, descending into
// Blocks.
func externsIn(objs []mir.Object) []*mir.Extern {
	var out []*mir.Extern

	for _, o := range objs {
		switch v := o.(type) {
		case *mir.Block:
			out = append(out, externsIn(v.Objects)...)
		case *mir.Extern:
			out = append(out, v)
		}
	}

	return out
}

// registersIn, commandsIn and buffersIn collect every object of the named
// kind reachable from objs, descending into Blocks.
func registersIn(objs []mir.Object) []*mir.Register {
	var out []*mir.Register

	for _, o := range objs {
		switch v := o.(type) {
		case *mir.Block:
			out = append(out, registersIn(v.Objects)...)
		case *mir.Register:
			out = append(out, v)
		}
	}

	return out
}

func commandsIn(objs []mir.Object) []*mir.Command {
	var out []*mir.Command

	for _, o := range objs {
		switch v := o.(type) {
		case *mir.Block:
			out = append(out, commandsIn(v.Objects)...)
		case *mir.Command:
			out = append(out, v)
		}
	}

	return out
}

func buffersIn(objs []mir.Object) []*mir.Buffer {
	var out []*mir.Buffer

	for _, o := range objs {
		switch v := o.(type) {
		case *mir.Block:
			out = append(out, buffersIn(v.Objects)...)
		case *mir.Buffer:
			out = append(out, v)
		}
	}

	return out
}

// repeatsIn collects every non-nil *specval.Repeat reachable from objs:
// those attached to Blocks, Registers, Commands and Fields (within any
// FieldSet).
func repeatsIn(objs []mir.Object) []repeatRef {
	var out []repeatRef

	for _, o := range objs {
		switch v := o.(type) {
		case *mir.Block:
			if v.Repeat != nil {
				out = append(out, repeatRef{v.Repeat, v})
			}

			out = append(out, repeatsIn(v.Objects)...)
		case *mir.Register:
			if v.Repeat != nil {
				out = append(out, repeatRef{v.Repeat, v})
			}
		case *mir.Command:
			if v.Repeat != nil {
				out = append(out, repeatRef{v.Repeat, v})
			}
		case *mir.FieldSet:
			for _, f := range v.Fields {
				if f.Repeat != nil {
					out = append(out, repeatRef{f.Repeat, v})
				}
			}
		}
	}

	return out
}

// repeatRef pairs a Repeat with the object it was declared on (used only
// for diagnostic spans).
type repeatRef struct {
	Repeat *specval.Repeat
	Owner  mir.Object
}
