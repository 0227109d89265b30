package specval

// BaseTypeKind is the tag of a BaseType value.
type BaseTypeKind uint8

const (
	Unspecified BaseTypeKind = iota
	Bool
	Uint
	Int
	FixedSize
)

// BaseType is a closed union: Unspecified | Bool | Uint | Int |
// FixedSize(Integer). Unspecified and the unsized Uint/Int variants are
// resolved to a concrete FixedSize by the base_types_specified MIR pass
// (spec §4.3 pass 1).
type BaseType struct {
	Kind    BaseTypeKind
	Integer Integer // only meaningful when Kind == FixedSize
}

// NewUnspecified constructs the Unspecified base type.
func NewUnspecified() BaseType { return BaseType{Kind: Unspecified} }

// NewBool constructs the Bool base type.
func NewBool() BaseType { return BaseType{Kind: Bool} }

// NewUint constructs the unsized Uint base type.
func NewUint() BaseType { return BaseType{Kind: Uint} }

// NewInt constructs the unsized Int base type.
func NewInt() BaseType { return BaseType{Kind: Int} }

// NewFixedSize constructs a FixedSize base type over the given integer.
func NewFixedSize(i Integer) BaseType { return BaseType{Kind: FixedSize, Integer: i} }

// IsResolved reports whether this base type is already a FixedSize.
func (b BaseType) IsResolved() bool { return b.Kind == FixedSize }

func (b BaseType) String() string {
	switch b.Kind {
	case Unspecified:
		return "unspecified"
	case Bool:
		return "bool"
	case Uint:
		return "uint"
	case Int:
		return "int"
	case FixedSize:
		return b.Integer.String()
	default:
		return "?"
	}
}
