package symbols

import (
	"context"
	"fmt"

	"retarget/internal/diag"
	"retarget/internal/lazy"
)

// errorTypeBase implements the NamedTypeSymbol surface of error types:
// no members, no base type, only type parameters for the declared arity.
type errorTypeBase struct {
	self      ErrorTypeSymbol
	container Symbol
	name      string
	arity     int
	mangle    bool
	info      *diag.Diagnostic

	tps lazy.Cell[[]TypeParameterSymbol]
}

func (e *errorTypeBase) Kind() SymbolKind             { return SymbolErrorType }
func (e *errorTypeBase) TypeKind() TypeKind           { return TypeKindError }
func (e *errorTypeBase) Name() string                 { return e.name }
func (e *errorTypeBase) ContainingSymbol() Symbol     { return e.container }
func (e *errorTypeBase) Attributes() []*AttributeData { return nil }
func (e *errorTypeBase) Arity() int                   { return e.arity }
func (e *errorTypeBase) Accessibility() Accessibility { return AccessPublic }
func (e *errorTypeBase) Flags() TypeFlags             { return 0 }
func (e *errorTypeBase) SpecialType() SpecialType     { return SpecialNone }
func (e *errorTypeBase) IsUnboundGeneric() bool       { return false }
func (e *errorTypeBase) IsExplicitLocalType() bool    { return false }
func (e *errorTypeBase) BaseType() NamedTypeSymbol    { return nil }
func (e *errorTypeBase) Interfaces() []NamedTypeSymbol {
	return nil
}
func (e *errorTypeBase) Members() []Symbol                        { return nil }
func (e *errorTypeBase) NativeIntegerUnderlying() NamedTypeSymbol { return nil }
func (e *errorTypeBase) EnumUnderlyingType() NamedTypeSymbol      { return nil }
func (e *errorTypeBase) MethodImpls() []MethodImpl                { return nil }
func (e *errorTypeBase) OriginalDefinition() NamedTypeSymbol      { return e.self }
func (e *errorTypeBase) UseSiteDiagnostic() *diag.Diagnostic      { return e.info }
func (e *errorTypeBase) ErrorInfo() *diag.Diagnostic              { return e.info }

func (e *errorTypeBase) Documentation(context.Context) (string, error) { return "", nil }

func (e *errorTypeBase) MetadataName() string {
	if e.mangle {
		return MangleName(e.name, e.arity)
	}
	return e.name
}

func (e *errorTypeBase) TypeParameters() []TypeParameterSymbol {
	if e.arity == 0 {
		return nil
	}
	return e.tps.Get(func() []TypeParameterSymbol {
		tps := make([]TypeParameterSymbol, e.arity)
		for i := range tps {
			tps[i] = &errorTypeParameter{owner: e.self, ordinal: i}
		}
		return tps
	})
}

func (e *errorTypeBase) TypeArguments() []TypeWithModifiers {
	return PlainAll(e.TypeParameters())
}

// errorTypeParameter stands in for the type parameters of error types so
// they can be constructed like any other generic definition.
type errorTypeParameter struct {
	owner   ErrorTypeSymbol
	ordinal int
}

func (p *errorTypeParameter) Kind() SymbolKind                     { return SymbolTypeParameter }
func (p *errorTypeParameter) Name() string                         { return fmt.Sprintf("T%d", p.ordinal+1) }
func (p *errorTypeParameter) ContainingSymbol() Symbol             { return p.owner }
func (p *errorTypeParameter) Attributes() []*AttributeData         { return nil }
func (p *errorTypeParameter) UseSiteDiagnostic() *diag.Diagnostic  { return nil }
func (p *errorTypeParameter) TypeKind() TypeKind                   { return TypeKindTypeParameter }
func (p *errorTypeParameter) Ordinal() int                         { return p.ordinal }
func (p *errorTypeParameter) TypeParameterKind() TypeParameterKind { return TypeParameterOfType }
func (p *errorTypeParameter) Variance() VarianceKind               { return VarianceNone }
func (p *errorTypeParameter) Constraints() ConstraintFlags         { return 0 }
func (p *errorTypeParameter) ConstraintTypes() []TypeWithModifiers { return nil }

func (p *errorTypeParameter) Documentation(context.Context) (string, error) { return "", nil }

func location(s Symbol, name string) diag.Location {
	loc := diag.Location{Symbol: name}
	if asm := ContainingAssembly(s); asm != nil {
		loc.Assembly = asm.Identity().Name
	}
	return loc
}

// ExtendedErrorType is a general error type. Info may be nil for error
// types that have not been diagnosed yet.
type ExtendedErrorType struct {
	errorTypeBase
	namespace string
	candidate NamedTypeSymbol
}

// NewExtendedErrorType builds an error type named name in container. The
// candidate, when present, is the type that was found but is unusable.
func NewExtendedErrorType(container Symbol, namespace, name string, arity int, info *diag.Diagnostic, candidate NamedTypeSymbol) *ExtendedErrorType {
	t := &ExtendedErrorType{namespace: namespace, candidate: candidate}
	t.errorTypeBase = errorTypeBase{self: t, container: container, name: name, arity: arity, mangle: true, info: info}
	return t
}

// ForceError wraps t in an error type that carries an error diagnostic
// naming the assembly t came from.
func ForceError(t NamedTypeSymbol, container Symbol) *ExtendedErrorType {
	name, arity := t.Name(), t.Arity()
	loc := location(t, FullName(t))
	msg := fmt.Sprintf("type '%s' from assembly '%s' could not be resolved", FullName(t), loc.Assembly)
	info := diag.Errorf(diag.RetErrorInReferencedAssembly, loc, msg)
	if container == nil {
		container = t.ContainingSymbol()
	}
	return NewExtendedErrorType(container, NamespaceOf(t), name, arity, info, t)
}

func (e *ExtendedErrorType) NamespaceName() string { return e.namespace }

// Candidate returns the unusable type this error replaced, if any.
func (e *ExtendedErrorType) Candidate() NamedTypeSymbol { return e.candidate }

// MissingMetadataType is the sentinel for a type that a module or a
// containing type was expected to declare but does not.
type MissingMetadataType struct {
	errorTypeBase
	module    ModuleSymbol
	namespace string
	nested    bool
}

// NewMissingTopLevelType builds a missing type in module with a mangled
// metadata name.
func NewMissingTopLevelType(module ModuleSymbol, name MetadataTypeName) *MissingMetadataType {
	plain, arity := name.Unmangled()
	t := &MissingMetadataType{module: module, namespace: name.Namespace}
	t.errorTypeBase = errorTypeBase{self: t, container: module, name: plain, arity: arity, mangle: true}
	t.info = missingInfo(t, module)
	return t
}

// NewMissingNestedType builds a missing type nested in container.
func NewMissingNestedType(container NamedTypeSymbol, name string, arity int) *MissingMetadataType {
	t := &MissingMetadataType{module: ContainingModule(container), nested: true}
	t.errorTypeBase = errorTypeBase{self: t, container: container, name: name, arity: arity, mangle: true}
	t.info = missingInfo(t, t.module)
	return t
}

func missingInfo(t *MissingMetadataType, module ModuleSymbol) *diag.Diagnostic {
	full := FullName(t)
	loc := location(t, full)
	if asm := ContainingAssembly(module); asm != nil && asm.IsMissing() {
		return diag.Errorf(diag.MetaMissingAssembly, loc,
			fmt.Sprintf("type '%s' is defined in assembly '%s' that is not referenced", full, asm.Identity()))
	}
	return diag.Errorf(diag.MetaMissingType, loc,
		fmt.Sprintf("type '%s' is not defined in assembly '%s'", full, loc.Assembly))
}

func (m *MissingMetadataType) NamespaceName() string { return m.namespace }
func (m *MissingMetadataType) IsNested() bool        { return m.nested }
func (m *MissingMetadataType) Module() ModuleSymbol  { return m.module }

// EqualsType treats missing types with the same location and name as equal.
func (m *MissingMetadataType) EqualsType(other TypeSymbol) bool {
	o, ok := other.(*MissingMetadataType)
	if !ok || o.nested != m.nested || o.name != m.name || o.arity != m.arity {
		return false
	}
	if m.nested {
		return TypesEqual(m.container.(NamedTypeSymbol), o.container.(NamedTypeSymbol))
	}
	return o.module == m.module && o.namespace == m.namespace
}

// UnsupportedMetadataType replaces a type whose shape cannot be represented,
// such as an embedded interop type nested in another type.
type UnsupportedMetadataType struct {
	errorTypeBase
	underlying NamedTypeSymbol
}

func NewUnsupportedMetadataType(underlying NamedTypeSymbol, code diag.Code, reason string) *UnsupportedMetadataType {
	t := &UnsupportedMetadataType{underlying: underlying}
	t.errorTypeBase = errorTypeBase{
		self: t, container: underlying.ContainingSymbol(),
		name: underlying.Name(), arity: underlying.Arity(), mangle: true,
	}
	full := FullName(underlying)
	t.info = diag.Errorf(code, location(underlying, full), fmt.Sprintf("type '%s' is not supported: %s", full, reason))
	return t
}

func (u *UnsupportedMetadataType) Underlying() NamedTypeSymbol { return u.underlying }
func (u *UnsupportedMetadataType) NamespaceName() string       { return NamespaceOf(u.underlying) }

// NoPiaIllegalGenericInstantiation marks a generic instantiation closed over
// embedded interop types, which cannot be emitted.
type NoPiaIllegalGenericInstantiation struct {
	errorTypeBase
	underlying NamedTypeSymbol
}

func NewNoPiaIllegalGenericInstantiation(underlying NamedTypeSymbol) *NoPiaIllegalGenericInstantiation {
	t := &NoPiaIllegalGenericInstantiation{underlying: underlying}
	t.errorTypeBase = errorTypeBase{
		self: t, container: underlying.ContainingSymbol(),
		name: underlying.Name(), arity: underlying.Arity(), mangle: true,
	}
	disp := DisplayString(underlying)
	t.info = diag.Errorf(diag.RetIllegalGenericInstantiation, location(underlying, disp),
		fmt.Sprintf("type '%s' cannot be used across assembly boundaries because it has a generic type argument that is an embedded interop type", disp))
	return t
}

// Underlying returns the instantiation that would have been produced.
func (n *NoPiaIllegalGenericInstantiation) Underlying() NamedTypeSymbol { return n.underlying }
func (n *NoPiaIllegalGenericInstantiation) NamespaceName() string {
	return NamespaceOf(n.underlying)
}

// NoPiaMissingCanonicalType is produced when no assembly supplies the
// canonical definition of an embedded interop type.
type NoPiaMissingCanonicalType struct {
	errorTypeBase
	embedding  AssemblySymbol
	fullName   string
	guid       string
	scope      string
	identifier string
}

func NewNoPiaMissingCanonicalType(embedding AssemblySymbol, fullName, guid, scope, identifier string) *NoPiaMissingCanonicalType {
	n := TopLevelName(fullName)
	t := &NoPiaMissingCanonicalType{embedding: embedding, fullName: fullName, guid: guid, scope: scope, identifier: identifier}
	t.errorTypeBase = errorTypeBase{self: t, container: manifestModule(embedding), name: n.Name}
	loc := diag.Location{Assembly: embedding.Identity().Name, Symbol: fullName}
	t.info = diag.Errorf(diag.RetMissingCanonicalType, loc,
		fmt.Sprintf("cannot find the interop type that matches the embedded interop type '%s'", fullName))
	return t
}

func (n *NoPiaMissingCanonicalType) NamespaceName() string { return TopLevelName(n.fullName).Namespace }
func (n *NoPiaMissingCanonicalType) EmbeddingAssembly() AssemblySymbol {
	return n.embedding
}
func (n *NoPiaMissingCanonicalType) FullTypeName() string { return n.fullName }
func (n *NoPiaMissingCanonicalType) Guid() string         { return n.guid }
func (n *NoPiaMissingCanonicalType) Scope() string        { return n.scope }
func (n *NoPiaMissingCanonicalType) Identifier() string   { return n.identifier }

// NoPiaAmbiguousCanonicalType is produced when more than one assembly
// supplies a canonical definition.
type NoPiaAmbiguousCanonicalType struct {
	errorTypeBase
	embedding     AssemblySymbol
	first, second NamedTypeSymbol
}

func NewNoPiaAmbiguousCanonicalType(embedding AssemblySymbol, first, second NamedTypeSymbol) *NoPiaAmbiguousCanonicalType {
	t := &NoPiaAmbiguousCanonicalType{embedding: embedding, first: first, second: second}
	t.errorTypeBase = errorTypeBase{self: t, container: manifestModule(embedding), name: first.Name(), arity: first.Arity(), mangle: true}
	full := FullName(first)
	loc := diag.Location{Assembly: embedding.Identity().Name, Symbol: full}
	d := diag.NewError(diag.RetAmbiguousCanonicalType, loc,
		fmt.Sprintf("the embedded interop type '%s' matches more than one canonical type", full)).
		WithNote(location(first, full), "first candidate").
		WithNote(location(second, FullName(second)), "second candidate")
	t.info = &d
	return t
}

func (n *NoPiaAmbiguousCanonicalType) NamespaceName() string { return NamespaceOf(n.first) }
func (n *NoPiaAmbiguousCanonicalType) EmbeddingAssembly() AssemblySymbol {
	return n.embedding
}
func (n *NoPiaAmbiguousCanonicalType) FirstCandidate() NamedTypeSymbol  { return n.first }
func (n *NoPiaAmbiguousCanonicalType) SecondCandidate() NamedTypeSymbol { return n.second }

func manifestModule(asm AssemblySymbol) Symbol {
	if asm == nil {
		return nil
	}
	if mods := asm.Modules(); len(mods) > 0 {
		return mods[0]
	}
	return asm
}
