// Package lir implements the low intermediate representation of spec
// §3.6: a flat, emission-shaped tree with every default already
// materialized by the MIR pass pipeline and the lowering step
// (pkg/lower). Unlike pkg/mir, nothing here is mutated further — the
// emitter (pkg/emit) only reads it.
//
// The shape follows the teacher's pkg/schema.Schema precedent: a fully
// resolved, ready-to-consume model with no further inference step, in
// contrast to MIR's still-being-validated tree.
package lir

import "github.com/regspec/ddc/pkg/specval"

// Driver is the lowering's top-level output: every device, plus the flat
// lists of field sets and enums they reference, per spec §3.6.
type Driver struct {
	Devices   []Device
	FieldSets []FieldSet
	Enums     []Enum
}

// Device carries the smallest integer type that covers every address this
// device's objects touch, its block tree, and an optional defmt feature
// flag threaded straight through from DeviceConfig.
type Device struct {
	Name                string
	InternalAddressType specval.Integer
	Blocks              []Block
	DefmtFeature        *string
}

// Block is one namespace of methods: the device's own root block, or a
// nested block reached through a BlockMethodType_Block method.
type Block struct {
	Description string
	Root        bool
	Name        string
	Methods     []BlockMethod
}

// BlockMethod is one callable surface within a Block: a nested block, a
// register, a command, or a buffer.
type BlockMethod struct {
	Description string
	Name        string
	Address     int64
	Repeat      Repeat
	MethodType  BlockMethodType
}

// RepeatKind is the tag of a Repeat.
type RepeatKind uint8

const (
	// RepeatNone means the method is not replicated.
	RepeatNone RepeatKind = iota
	// RepeatCountKind replicates Count times at Stride intervals.
	RepeatCountKind
	// RepeatEnumKind replicates once per named enum variant.
	RepeatEnumKind
)

// Repeat is the lowered form of specval.Repeat: None | Count{count,stride}
// | Enum{enum_name, enum_variants[], stride}, per spec §3.6. The Enum
// variant carries the resolved variant names (not just the enum's name) so
// the emitter can generate one accessor per variant without looking the
// enum back up.
type Repeat struct {
	Kind         RepeatKind
	Count        uint64
	EnumName     string
	EnumVariants []string
	Stride       int64
}

// BlockMethodTypeKind is the tag of a BlockMethodType.
type BlockMethodTypeKind uint8

const (
	MethodBlock BlockMethodTypeKind = iota
	MethodRegister
	MethodCommand
	MethodBuffer
)

// BlockMethodType is the closed union Block{name} | Register{...} |
// Command{...} | Buffer{...}, per spec §3.6.
type BlockMethodType struct {
	Kind BlockMethodTypeKind

	// Block
	BlockName string

	// Register
	FieldSetName string
	Access       specval.Access
	AddressType  specval.Integer
	ResetValue   []byte

	// Command
	FieldSetNameIn  string
	FieldSetNameOut string

	// Buffer reuses Access and AddressType above.
}

// FieldSet is a named, byte-ordered, bit-addressed collection of fields,
// ready for direct emission.
type FieldSet struct {
	Description  string
	Name         string
	ByteOrder    specval.ByteOrder
	BitOrder     specval.BitOrder
	SizeBits     uint32
	Fields       []Field
	DefmtFeature *string
}

// Field is one bit-addressed member of a FieldSet, its conversion strategy
// already decided.
type Field struct {
	Description      string
	Name             string
	AddressStart     uint32
	AddressEnd       uint32
	BaseType         specval.Integer
	ConversionMethod FieldConversionMethod
	Access           specval.Access
	Repeat           Repeat
}

// FieldConversionMethodKind is the tag of a FieldConversionMethod.
type FieldConversionMethodKind uint8

const (
	ConversionNone FieldConversionMethodKind = iota
	ConversionInto
	ConversionUnsafeInto
	ConversionTryInto
	ConversionBool
)

// FieldConversionMethod is the closed union None | Into(name) |
// UnsafeInto(name) | TryInto(name) | Bool, per spec §4.5.
type FieldConversionMethod struct {
	Kind   FieldConversionMethodKind
	Target string
}

// Enum is a named, closed set of integer-valued variants, ready for direct
// emission.
type Enum struct {
	Description  string
	Name         string
	BaseType     specval.Integer
	Variants     []EnumVariant
	DefmtFeature *string
}

// EnumVariant is one member of an emitted Enum.
type EnumVariant struct {
	Description  string
	Name         string
	Discriminant int64
	Default      bool
	CatchAll     bool
}
