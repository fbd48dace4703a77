package symbols

import (
	"context"

	"retarget/internal/diag"
)

// Symbol is the capability shared by every node of the graph. The set of
// implementations is closed: callers dispatch on Kind or on the kind
// interfaces below.
type Symbol interface {
	Kind() SymbolKind
	Name() string
	// ContainingSymbol is a back reference; assemblies return nil.
	ContainingSymbol() Symbol
	Attributes() []*AttributeData
	// UseSiteDiagnostic is nil for healthy symbols.
	UseSiteDiagnostic() *diag.Diagnostic
	Documentation(ctx context.Context) (string, error)
}

type AssemblySymbol interface {
	Symbol
	Identity() AssemblyIdentity
	Modules() []ModuleSymbol
	// GlobalNamespace is the global namespace of the manifest module.
	GlobalNamespace() NamespaceSymbol
	CorLibrary() AssemblySymbol
	// DeclaredSpecialType returns the special type declared by this
	// assembly. Only core libraries are asked.
	DeclaredSpecialType(st SpecialType) NamedTypeSymbol
	// LookupTopLevelType never returns nil: absent types come back as a
	// missing metadata type.
	LookupTopLevelType(name MetadataTypeName, digThroughForwarded bool) NamedTypeSymbol
	IsLinked() bool
	IsMissing() bool
	LinkedReferencedAssemblies() []AssemblySymbol
	NoPiaResolutionAssemblies() []AssemblySymbol
}

type ModuleSymbol interface {
	Symbol
	Ordinal() int
	GlobalNamespace() NamespaceSymbol
	// ReferencedAssemblies and ReferencedAssemblySymbols are parallel.
	ReferencedAssemblies() []AssemblyIdentity
	ReferencedAssemblySymbols() []AssemblySymbol
	// LookupTopLevelType returns nil when the module declares no such type.
	LookupTopLevelType(name MetadataTypeName) NamedTypeSymbol
	// HasExplicitLocalTypes reports whether any type in the module is an
	// embedded interop type.
	HasExplicitLocalTypes() bool
}

// ReloadableModule is implemented by modules that can be materialised again
// under a different owning assembly.
type ReloadableModule interface {
	ModuleSymbol
	Reload(owner AssemblySymbol, ordinal int) ModuleSymbol
}

type NamespaceSymbol interface {
	Symbol
	IsGlobal() bool
	Members() []Symbol
}

type TypeSymbol interface {
	Symbol
	TypeKind() TypeKind
}

type NamedTypeSymbol interface {
	TypeSymbol
	// Arity counts only the type's own type parameters.
	Arity() int
	MetadataName() string
	Accessibility() Accessibility
	Flags() TypeFlags
	SpecialType() SpecialType
	TypeParameters() []TypeParameterSymbol
	// TypeArguments are the own-level arguments; for definitions they are
	// the type parameters themselves.
	TypeArguments() []TypeWithModifiers
	OriginalDefinition() NamedTypeSymbol
	IsUnboundGeneric() bool
	// IsExplicitLocalType marks embedded interop definitions.
	IsExplicitLocalType() bool
	BaseType() NamedTypeSymbol
	Interfaces() []NamedTypeSymbol
	Members() []Symbol
	// NativeIntegerUnderlying is non-nil for nint/nuint views.
	NativeIntegerUnderlying() NamedTypeSymbol
	EnumUnderlyingType() NamedTypeSymbol
	MethodImpls() []MethodImpl
}

type ErrorTypeSymbol interface {
	NamedTypeSymbol
	ErrorInfo() *diag.Diagnostic
}

type TypeParameterSymbol interface {
	TypeSymbol
	Ordinal() int
	TypeParameterKind() TypeParameterKind
	Variance() VarianceKind
	Constraints() ConstraintFlags
	ConstraintTypes() []TypeWithModifiers
}

type MethodSymbol interface {
	Symbol
	MethodKind() MethodKind
	Accessibility() Accessibility
	Flags() MemberFlags
	CallingConvention() CallingConvention
	Arity() int
	TypeParameters() []TypeParameterSymbol
	TypeArguments() []TypeWithModifiers
	ReturnType() TypeWithModifiers
	RefKind() RefKind
	RefCustomModifiers() []CustomModifier
	Parameters() []ParameterSymbol
	ExplicitInterfaceImplementations() []MethodSymbol
	OverriddenMethod() MethodSymbol
	AssociatedSymbol() Symbol
	OriginalDefinition() MethodSymbol
	// ConstructedFrom is the generic method definition for instantiations
	// and the method itself otherwise.
	ConstructedFrom() MethodSymbol
	ReturnAttributes() []*AttributeData
	ReturnMarshalling() *MarshalInfo
}

type FieldSymbol interface {
	Symbol
	Accessibility() Accessibility
	Flags() MemberFlags
	Type() TypeWithModifiers
	ConstantValue() any
	Marshalling() *MarshalInfo
	AssociatedSymbol() Symbol
	OriginalDefinition() FieldSymbol
}

type PropertySymbol interface {
	Symbol
	Accessibility() Accessibility
	Flags() MemberFlags
	Type() TypeWithModifiers
	RefKind() RefKind
	RefCustomModifiers() []CustomModifier
	Parameters() []ParameterSymbol
	GetMethod() MethodSymbol
	SetMethod() MethodSymbol
	ExplicitInterfaceImplementations() []PropertySymbol
	OverriddenProperty() PropertySymbol
	IsIndexer() bool
	OriginalDefinition() PropertySymbol
}

type EventSymbol interface {
	Symbol
	Accessibility() Accessibility
	Flags() MemberFlags
	Type() TypeWithModifiers
	AddMethod() MethodSymbol
	RemoveMethod() MethodSymbol
	AssociatedField() FieldSymbol
	ExplicitInterfaceImplementations() []EventSymbol
	OverriddenEvent() EventSymbol
	OriginalDefinition() EventSymbol
}

type ParameterSymbol interface {
	Symbol
	Ordinal() int
	Type() TypeWithModifiers
	RefKind() RefKind
	RefCustomModifiers() []CustomModifier
	Flags() ParameterFlags
	DefaultValue() any
	Marshalling() *MarshalInfo
}

// MethodImpl pairs an interface method with the method that implements it
// on a type.
type MethodImpl struct {
	Body        MethodSymbol
	Declaration MethodSymbol
}
