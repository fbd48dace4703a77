package symbols

import "fmt"

// SymbolKind classifies a symbol. The set is closed: every Symbol reports
// exactly one of these kinds and dispatch switches over it exhaustively.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolAssembly
	SymbolModule
	SymbolNamespace
	SymbolNamedType
	SymbolArrayType
	SymbolPointerType
	SymbolFunctionPointerType
	SymbolErrorType
	SymbolTypeParameter
	SymbolMethod
	SymbolField
	SymbolProperty
	SymbolEvent
	SymbolParameter
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolAssembly:
		return "assembly"
	case SymbolModule:
		return "module"
	case SymbolNamespace:
		return "namespace"
	case SymbolNamedType:
		return "named type"
	case SymbolArrayType:
		return "array type"
	case SymbolPointerType:
		return "pointer type"
	case SymbolFunctionPointerType:
		return "function pointer type"
	case SymbolErrorType:
		return "error type"
	case SymbolTypeParameter:
		return "type parameter"
	case SymbolMethod:
		return "method"
	case SymbolField:
		return "field"
	case SymbolProperty:
		return "property"
	case SymbolEvent:
		return "event"
	case SymbolParameter:
		return "parameter"
	default:
		return "invalid"
	}
}

// TypeKind refines type symbols.
type TypeKind uint8

const (
	TypeKindUnknown TypeKind = iota
	TypeKindClass
	TypeKindStruct
	TypeKindInterface
	TypeKindEnum
	TypeKindDelegate
	TypeKindArray
	TypeKindPointer
	TypeKindFunctionPointer
	TypeKindTypeParameter
	TypeKindError
)

var typeKindNames = [...]string{
	TypeKindUnknown:         "unknown",
	TypeKindClass:           "class",
	TypeKindStruct:          "struct",
	TypeKindInterface:       "interface",
	TypeKindEnum:            "enum",
	TypeKindDelegate:        "delegate",
	TypeKindArray:           "array",
	TypeKindPointer:         "pointer",
	TypeKindFunctionPointer: "function pointer",
	TypeKindTypeParameter:   "type parameter",
	TypeKindError:           "error",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", k)
}

// ParseTypeKind maps manifest spellings to kinds.
func ParseTypeKind(s string) (TypeKind, error) {
	switch s {
	case "", "class":
		return TypeKindClass, nil
	case "struct":
		return TypeKindStruct, nil
	case "interface":
		return TypeKindInterface, nil
	case "enum":
		return TypeKindEnum, nil
	case "delegate":
		return TypeKindDelegate, nil
	}
	return TypeKindUnknown, fmt.Errorf("invalid type kind %q (expected class|struct|interface|enum|delegate)", s)
}

type Accessibility uint8

const (
	AccessNotApplicable Accessibility = iota
	AccessPrivate
	AccessProtectedAndInternal
	AccessProtected
	AccessInternal
	AccessProtectedOrInternal
	AccessPublic
)

func (a Accessibility) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessProtectedAndInternal:
		return "private protected"
	case AccessProtected:
		return "protected"
	case AccessInternal:
		return "internal"
	case AccessProtectedOrInternal:
		return "protected internal"
	case AccessPublic:
		return "public"
	default:
		return "n/a"
	}
}

// ParseAccessibility maps manifest spellings; empty means public.
func ParseAccessibility(s string) (Accessibility, error) {
	switch s {
	case "", "public":
		return AccessPublic, nil
	case "private":
		return AccessPrivate, nil
	case "protected":
		return AccessProtected, nil
	case "internal":
		return AccessInternal, nil
	case "protected internal":
		return AccessProtectedOrInternal, nil
	case "private protected":
		return AccessProtectedAndInternal, nil
	}
	return AccessNotApplicable, fmt.Errorf("invalid accessibility %q", s)
}

type RefKind uint8

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

func (r RefKind) String() string {
	switch r {
	case RefRef:
		return "ref"
	case RefOut:
		return "out"
	case RefIn:
		return "in"
	default:
		return ""
	}
}

type MethodKind uint8

const (
	MethodOrdinary MethodKind = iota
	MethodConstructor
	MethodStaticConstructor
	MethodPropertyGet
	MethodPropertySet
	MethodEventAdd
	MethodEventRemove
	MethodExplicitInterfaceImplementation
	MethodUserDefinedOperator
	MethodConversion
	MethodDestructor
	MethodDelegateInvoke
)

// ParseMethodKind maps manifest spellings; empty means ordinary.
func ParseMethodKind(s string) (MethodKind, error) {
	switch s {
	case "", "ordinary":
		return MethodOrdinary, nil
	case "ctor", "constructor":
		return MethodConstructor, nil
	case "cctor":
		return MethodStaticConstructor, nil
	case "get":
		return MethodPropertyGet, nil
	case "set":
		return MethodPropertySet, nil
	case "add":
		return MethodEventAdd, nil
	case "remove":
		return MethodEventRemove, nil
	case "explicit":
		return MethodExplicitInterfaceImplementation, nil
	case "operator":
		return MethodUserDefinedOperator, nil
	case "conversion":
		return MethodConversion, nil
	case "dtor":
		return MethodDestructor, nil
	case "invoke":
		return MethodDelegateInvoke, nil
	}
	return MethodOrdinary, fmt.Errorf("invalid method kind %q", s)
}

type VarianceKind uint8

const (
	VarianceNone VarianceKind = iota
	VarianceOut
	VarianceIn
)

type TypeParameterKind uint8

const (
	TypeParameterOfType TypeParameterKind = iota
	TypeParameterOfMethod
	// TypeParameterIndexed marks ordinal placeholders used in signatures.
	TypeParameterIndexed
)

// ConstraintFlags encode the special constraints of a type parameter.
type ConstraintFlags uint8

const (
	ConstraintReferenceType ConstraintFlags = 1 << iota
	ConstraintValueType
	ConstraintConstructor
	ConstraintUnmanaged
	ConstraintNotNull
)

// MemberFlags encode modifiers shared by methods, fields, properties and
// events.
type MemberFlags uint16

const (
	MemberStatic MemberFlags = 1 << iota
	MemberVirtual
	MemberAbstract
	MemberOverride
	MemberSealed
	MemberExtern
	MemberReadOnly
	MemberConst
	MemberVolatile
	MemberVararg
)

var memberFlagNames = []struct {
	flag MemberFlags
	name string
}{
	{MemberStatic, "static"},
	{MemberVirtual, "virtual"},
	{MemberAbstract, "abstract"},
	{MemberOverride, "override"},
	{MemberSealed, "sealed"},
	{MemberExtern, "extern"},
	{MemberReadOnly, "readonly"},
	{MemberConst, "const"},
	{MemberVolatile, "volatile"},
	{MemberVararg, "vararg"},
}

// Strings returns a slice of textual flag labels.
func (f MemberFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, e := range memberFlagNames {
		if f&e.flag != 0 {
			labels = append(labels, e.name)
		}
	}
	return labels
}

// ParseMemberFlags turns manifest labels into flags.
func ParseMemberFlags(labels []string) (MemberFlags, error) {
	var f MemberFlags
	for _, l := range labels {
		found := false
		for _, e := range memberFlagNames {
			if e.name == l {
				f |= e.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("invalid member modifier %q", l)
		}
	}
	return f, nil
}

// Has reports whether all bits of mask are set.
func (f MemberFlags) Has(mask MemberFlags) bool { return f&mask == mask }

// TypeFlags encode modifiers of named types.
type TypeFlags uint8

const (
	TypeAbstract TypeFlags = 1 << iota
	TypeSealed
	TypeStatic
	TypeComImport
	TypeSerializable
)

var typeFlagNames = []struct {
	flag TypeFlags
	name string
}{
	{TypeAbstract, "abstract"},
	{TypeSealed, "sealed"},
	{TypeStatic, "static"},
	{TypeComImport, "comimport"},
	{TypeSerializable, "serializable"},
}

// ParseTypeFlags turns manifest labels into flags.
func ParseTypeFlags(labels []string) (TypeFlags, error) {
	var f TypeFlags
	for _, l := range labels {
		found := false
		for _, e := range typeFlagNames {
			if e.name == l {
				f |= e.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("invalid type modifier %q", l)
		}
	}
	return f, nil
}

// ParameterFlags encode parameter modifiers.
type ParameterFlags uint8

const (
	ParamOptional ParameterFlags = 1 << iota
	ParamParams
	ParamHasDefault
)

type CallingConvention uint8

const (
	CallDefault CallingConvention = iota
	CallVarargs
	CallCDecl
	CallStdCall
	CallThisCall
	CallFastCall
	CallUnmanaged
)
