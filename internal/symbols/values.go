package symbols

// CustomModifier is a modopt/modreq annotation on a signature position.
type CustomModifier struct {
	Modifier NamedTypeSymbol
	Optional bool
}

// TypeWithModifiers is a type together with the custom modifiers attached
// at one signature position.
type TypeWithModifiers struct {
	Type      TypeSymbol
	Modifiers []CustomModifier
}

// Plain wraps a type without modifiers.
func Plain(t TypeSymbol) TypeWithModifiers { return TypeWithModifiers{Type: t} }

// PlainAll wraps each type without modifiers.
func PlainAll[T TypeSymbol](ts []T) []TypeWithModifiers {
	if len(ts) == 0 {
		return nil
	}
	out := make([]TypeWithModifiers, len(ts))
	for i, t := range ts {
		out[i] = TypeWithModifiers{Type: t}
	}
	return out
}

// TypesOf strips modifiers.
func TypesOf(ts []TypeWithModifiers) []TypeSymbol {
	if len(ts) == 0 {
		return nil
	}
	out := make([]TypeSymbol, len(ts))
	for i, t := range ts {
		out[i] = t.Type
	}
	return out
}

type TypedConstantKind uint8

const (
	ConstError TypedConstantKind = iota
	ConstPrimitive
	ConstEnum
	ConstType
	ConstArray
)

// TypedConstant is an attribute argument. Type-valued constants keep a
// TypeSymbol in Value; arrays keep their elements in Values.
type TypedConstant struct {
	Kind   TypedConstantKind
	Type   TypeSymbol
	Value  any
	Values []TypedConstant
}

type NamedArgument struct {
	Name    string
	IsField bool
	Value   TypedConstant
}

// AttributeData is a decoded custom attribute application. Constructor may
// be nil when the constructor could not be bound.
type AttributeData struct {
	Class       NamedTypeSymbol
	Constructor MethodSymbol
	Args        []TypedConstant
	Named       []NamedArgument
}

// IsTargetAttribute reports whether the attribute class has the given
// namespace-qualified name.
func (a *AttributeData) IsTargetAttribute(fullName string) bool {
	if a == nil || a.Class == nil {
		return false
	}
	return FullName(a.Class) == fullName
}

// MarshalInfo describes interop marshalling of a field, parameter or return
// value.
type MarshalInfo struct {
	UnmanagedType               int
	SizeConst                   int
	SafeArrayVariant            int
	SafeArrayUserDefinedSubtype TypeSymbol
	CustomMarshaler             TypeSymbol
	CustomMarshalerCookie       string
}
