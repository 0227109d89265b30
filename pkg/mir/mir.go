// Package mir implements the medium intermediate representation described
// in spec §3.5: a mutable semantic graph (Manifest -> Devices -> Objects)
// that an ordered pipeline of passes (see pkg/mir/passes) normalizes and
// validates before it is lowered to LIR (pkg/lir).
//
// The model follows the teacher's pkg/corset scope/environment idiom:
// objects are plain structs collected into slices (never linked by
// pointer across devices), and a device's configuration is recovered
// during traversal rather than back-referenced from every object, per
// spec §9's "inherited config during traversal" design note.
package mir

import (
	"math/big"

	"github.com/regspec/ddc/pkg/ident"
	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
)

// Manifest owns every Device produced by lowering the AST.
type Manifest struct {
	Devices []*Device
}

// DeviceConfig is the MIR-level counterpart of ast.DeviceConfig: still
// optional in every field (a pass may later reject a manifest that never
// resolves one), but now carrying a parsed ident.Boundaries instead of raw
// boundary-kind names.
type DeviceConfig struct {
	RegisterAddressType *specval.Integer
	CommandAddressType  *specval.Integer
	BufferAddressType   *specval.Integer
	DefaultByteOrder    *specval.ByteOrder
	DefaultBitOrder     *specval.BitOrder
	DefaultAccess       *specval.Access
	Boundaries          ident.Boundaries
	FeatureFlag         *string
	Span                span.Span
}

// Device is a top-level MIR object: a name, its own DeviceConfig, and a
// nested object tree, per spec §3.5.
type Device struct {
	Name    ident.Identifier
	Config  DeviceConfig
	Objects []Object
	Span    span.Span
	// RepeatDiscs associates each enum-driven Repeat within this device
	// with the discriminants of the Enum it refers to, once the
	// repeat_with_enums_checked pass (spec §4.3 pass 6) has confirmed the
	// reference is valid. Scoping this per-Device (rather than a global
	// registry) keeps compilations free of shared mutable state, per
	// spec §5.
	RepeatDiscs map[*specval.Repeat][]*big.Int
}

// SetRepeatDiscriminants records the resolved discriminants for an
// enum-driven repeat belonging to this device.
func (d *Device) SetRepeatDiscriminants(r *specval.Repeat, discs []*big.Int) {
	if d.RepeatDiscs == nil {
		d.RepeatDiscs = map[*specval.Repeat][]*big.Int{}
	}

	d.RepeatDiscs[r] = discs
}

// RepeatDiscriminants returns the discriminants previously recorded for r
// within this device, or nil if none have been resolved yet.
func (d *Device) RepeatDiscriminants(r *specval.Repeat) []*big.Int {
	return d.RepeatDiscs[r]
}

// Object is the closed set of MIR object kinds nestable inside a Device or
// Block: Block, Register, Command, Buffer, FieldSet, Enum, Extern.
type Object interface {
	ID() ID
	ObjSpan() span.Span
}

// Block groups a nested object tree under an address offset, optionally
// repeated.
type Block struct {
	Description   string
	Name          ident.Identifier
	AddressOffset *big.Int
	Repeat        *specval.Repeat
	Objects       []Object
	Scope         []string
	Span          span.Span
}

func (b *Block) ID() ID             { return NewID(b.Scope, b.Name) }
func (b *Block) ObjSpan() span.Span { return b.Span }

// Register describes one addressable, typed hardware register.
type Register struct {
	Description         string
	Name                ident.Identifier
	Address             span.Spanned[int64]
	Access              specval.Access
	Repeat              *specval.Repeat
	FieldSetRef         string // resolved by name within the enclosing device
	ResetValue          *specval.ResetValue
	AllowAddressOverlap bool
	Scope               []string
	Span                span.Span
}

func (r *Register) ID() ID             { return NewID(r.Scope, r.Name) }
func (r *Register) ObjSpan() span.Span { return r.Span }

// Command describes an operation with optional input/output field sets.
type Command struct {
	Description    string
	Name           ident.Identifier
	Address        span.Spanned[int64]
	Repeat         *specval.Repeat
	FieldSetRefIn  string
	FieldSetRefOut string
	Scope          []string
	Span           span.Span
}

func (c *Command) ID() ID             { return NewID(c.Scope, c.Name) }
func (c *Command) ObjSpan() span.Span { return c.Span }

// Buffer describes a variable-length read/write memory region.
type Buffer struct {
	Description string
	Name        ident.Identifier
	Access      specval.Access
	Address     span.Spanned[int64]
	Scope       []string
	Span        span.Span
}

func (b *Buffer) ID() ID             { return NewID(b.Scope, b.Name) }
func (b *Buffer) ObjSpan() span.Span { return b.Span }

// FieldSet is a named collection of bit fields packing into a fixed size.
type FieldSet struct {
	Description     string
	Name            ident.Identifier
	SizeBits        span.Spanned[uint32]
	ByteOrder       *specval.ByteOrder
	BitOrder        *specval.BitOrder
	AllowBitOverlap bool
	Fields          []*Field
	Scope           []string
	Span            span.Span
}

func (f *FieldSet) ID() ID             { return NewID(f.Scope, f.Name) }
func (f *FieldSet) ObjSpan() span.Span { return f.Span }

// FieldRange is a [Start,End) bit range within a FieldSet.
type FieldRange struct {
	Start uint32
	End   uint32
}

// Field is one bit-addressed member of a FieldSet.
type Field struct {
	Description     string
	Name            ident.Identifier
	Access          specval.Access
	BaseType        span.Spanned[specval.BaseType]
	FieldConversion *FieldConversion
	FieldAddress    span.Spanned[FieldRange]
	Repeat          *specval.Repeat
	Span            span.Span
}

// FieldConversion names an Enum or Extern a field's raw integer converts
// to/from, and whether the conversion may fail.
type FieldConversion struct {
	TypeName span.Spanned[string]
	Fallible bool
}

// GenerationStyle is the inferred strategy for converting an Enum's base
// type to/from the enum, per spec §4.3 pass 5.
type GenerationStyle uint8

const (
	// Fallible means not every base-type value maps to a variant; the
	// emitter must generate a TryFrom.
	Fallible GenerationStyle = iota
	// InfallibleWithinRange means the assigned discriminants are exactly
	// [0, 2^size_bits), so any size_bits-wide value is valid.
	InfallibleWithinRange
	// Fallback means a CatchAll variant absorbs every otherwise-unmapped
	// value, so conversion is total without needing a range proof.
	Fallback
)

// Enum is a named, closed set of integer-valued variants.
type Enum struct {
	Description     string
	Name            ident.Identifier
	Variants        []*EnumVariant
	BaseType        span.Spanned[specval.BaseType]
	SizeBits        *uint32
	GenerationStyle *GenerationStyle
	Scope           []string
	Span            span.Span
}

func (e *Enum) ID() ID             { return NewID(e.Scope, e.Name) }
func (e *Enum) ObjSpan() span.Span { return e.Span }

// EnumValueKind is the tag of an EnumVariant's declared value.
type EnumValueKind uint8

const (
	EnumValueUnspecified EnumValueKind = iota
	EnumValueSpecified
	EnumValueDefault
	EnumValueCatchAll
)

// EnumVariant is one member of an Enum. Discriminant is derived by the
// enum_values_checked pass (spec §4.3 pass 5); it is meaningless before
// that pass runs.
type EnumVariant struct {
	Description  string
	Name         ident.Identifier
	ValueKind    EnumValueKind
	Specified    *big.Int
	Discriminant *big.Int
	Span         span.Span
}

// Extern names an externally-defined type fields may convert to/from.
type Extern struct {
	Description        string
	Name               ident.Identifier
	BaseType           span.Spanned[specval.BaseType]
	SupportsInfallible bool
	Scope              []string
	Span               span.Span
}

func (e *Extern) ID() ID             { return NewID(e.Scope, e.Name) }
func (e *Extern) ObjSpan() span.Span { return e.Span }
