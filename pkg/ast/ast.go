// Package ast defines the language-agnostic AST shape that any surface-
// syntax parser (JSON, TOML, YAML, a textual DSL, or KDL) must produce to
// feed the compiler core, per spec §3.4/§6.1. Every node carries a byte
// span into the original source text; numeric literals are modeled as
// math/big values per §6.1's "addresses fit i128, reset values fit u128".
//
// This package intentionally stays structurally close to the MIR shape
// (spec §3.5): the AST differs from MIR mainly in that names are raw
// surface text (not yet parsed into pkg/ident.Identifier) and references
// are unresolved name strings, matching the teacher's own
// pkg/corset/ast.go style of one small struct per surface construct.
package ast

import (
	"math/big"

	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
)

// Name is a raw, not-yet-validated identifier as it appeared in the surface
// syntax, together with its span.
type Name struct {
	Text string
	Span span.Span
}

// Manifest is the parser's top-level output: a list of devices sharing one
// set of inherited defaults, per spec §3.4.
type Manifest struct {
	Devices []Device
	Span    span.Span
}

// DeviceConfig carries the inherited defaults spec §3.4 describes: address
// types for each of the three addressable object kinds, default byte/bit
// order, default access, name-boundary configuration, and an optional
// feature-flag tag threaded through to LIR as defmt_feature (spec §3.6).
type DeviceConfig struct {
	RegisterAddressType *specval.Integer
	CommandAddressType  *specval.Integer
	BufferAddressType   *specval.Integer
	DefaultByteOrder    *specval.ByteOrder
	DefaultBitOrder     *specval.BitOrder
	DefaultAccess       *specval.Access
	NameBoundaries      []string // boundary kind names, e.g. "underscore", "hyphen"
	FeatureFlag         *string
	Span                span.Span
}

// Object is the closed set of non-device nodes nestable inside a Device or
// a Block: Block, Register, Command, Buffer, FieldSet, Enum, Extern.
type Object interface {
	objectNode()
	NodeSpan() span.Span
}

// Device is a top-level object owning its own DeviceConfig and a nested
// object tree, per spec §3.5.
type Device struct {
	Name    Name
	Config  DeviceConfig
	Objects []Object
	Span    span.Span
}

// Block groups a nested object tree under an address offset, optionally
// repeated.
type Block struct {
	Description string
	Name        Name
	AddressOffset *big.Int
	Repeat        *Repeat
	Objects       []Object
	Span          span.Span
}

func (*Block) objectNode()            {}
func (b *Block) NodeSpan() span.Span  { return b.Span }

// Register describes one addressable, typed hardware register.
type Register struct {
	Description       string
	Name              Name
	Address           span.Spanned[*AddrValue]
	Access            specval.Access
	Repeat            *Repeat
	FieldSetRef       Name
	ResetValue        *specval.ResetValue
	AllowAddressOverlap bool
	Span              span.Span
}

func (*Register) objectNode()           {}
func (r *Register) NodeSpan() span.Span { return r.Span }

// AddrValue wraps a big.Int address so it can be used as the comparable
// payload of a span.Spanned (big.Int itself is not comparable).
type AddrValue struct{ V *big.Int }

// Command describes a bidirectional operation with optional input/output
// field sets.
type Command struct {
	Description    string
	Name           Name
	Address        span.Spanned[*AddrValue]
	Repeat         *Repeat
	FieldSetRefIn  *Name
	FieldSetRefOut *Name
	Span           span.Span
}

func (*Command) objectNode()           {}
func (c *Command) NodeSpan() span.Span { return c.Span }

// Buffer describes a variable-length read/write memory region.
type Buffer struct {
	Description string
	Name        Name
	Access      specval.Access
	Address     span.Spanned[*AddrValue]
	Span        span.Span
}

func (*Buffer) objectNode()           {}
func (b *Buffer) NodeSpan() span.Span { return b.Span }

// FieldSet is a named collection of bit fields packing into a fixed size.
type FieldSet struct {
	Description    string
	Name           Name
	SizeBits       span.Spanned[uint32]
	ByteOrder      *specval.ByteOrder
	BitOrder       *specval.BitOrder
	AllowBitOverlap bool
	Fields         []Field
	Span           span.Span
}

func (*FieldSet) objectNode()           {}
func (f *FieldSet) NodeSpan() span.Span { return f.Span }

// FieldRange is a [Start,End) bit range within a FieldSet, used as the
// comparable payload of a span.Spanned.
type FieldRange struct {
	Start uint32
	End   uint32
}

// Field is one bit-addressed member of a FieldSet.
type Field struct {
	Description      string
	Name             Name
	Access           specval.Access
	BaseType         span.Spanned[specval.BaseType]
	FieldConversion  *FieldConversion
	FieldAddress     span.Spanned[FieldRange]
	Repeat           *Repeat
	Span             span.Span
}

// FieldConversion names an Enum or Extern a field's raw integer converts
// to/from, and whether that conversion may fail.
type FieldConversion struct {
	TypeName span.Spanned[Name]
	Fallible bool
}

// Enum is a named, closed set of integer-valued variants.
type Enum struct {
	Description     string
	Name            Name
	Variants        []EnumVariant
	BaseType        span.Spanned[specval.BaseType]
	SizeBits        *uint32
	GenerationStyle *string // optional explicit override; normally inferred by a MIR pass
	Span            span.Span
}

func (*Enum) objectNode()           {}
func (e *Enum) NodeSpan() span.Span { return e.Span }

// EnumValueKind is the tag of an EnumVariant's declared value.
type EnumValueKind uint8

const (
	EnumValueUnspecified EnumValueKind = iota
	EnumValueSpecified
	EnumValueDefault
	EnumValueCatchAll
)

// EnumVariant is one member of an Enum; Value's Kind selects which of
// Unspecified/Specified(Specified)/Default/CatchAll was declared, per
// spec §3.5.
type EnumVariant struct {
	Description string
	Name        Name
	ValueKind   EnumValueKind
	Specified   *big.Int // only meaningful when ValueKind == EnumValueSpecified
	Span        span.Span
}

// Extern names an externally-defined type (outside the manifest) that
// fields may convert to/from.
type Extern struct {
	Description        string
	Name                Name
	BaseType            span.Spanned[specval.BaseType]
	SupportsInfallible  bool
	Span                span.Span
}

func (*Extern) objectNode()           {}
func (e *Extern) NodeSpan() span.Span { return e.Span }

// Repeat is the surface form of spec §3.3's Repeat specifier: either a
// fixed count or the name of an Enum whose variants drive repetition, plus
// a stride.
type Repeat struct {
	Source RepeatSource
	Stride *big.Int
	Span   span.Span
}

// RepeatSourceKind is the tag of a RepeatSource.
type RepeatSourceKind uint8

const (
	RepeatSourceCount RepeatSourceKind = iota
	RepeatSourceEnum
)

// RepeatSource is Count(u64) | Enum(name), per spec §3.3.
type RepeatSource struct {
	Kind     RepeatSourceKind
	Count    uint64
	EnumName Name
}
