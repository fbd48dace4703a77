package symbols

import (
	"context"

	"retarget/internal/diag"
	"retarget/internal/lazy"
)

// SubstitutedMethod is a method of a constructed type. Method-level type
// parameters are shared with the definition.
type SubstitutedMethod struct {
	container *ConstructedNamedType
	def       MethodSymbol

	params  lazy.Cell[[]ParameterSymbol]
	ret     lazy.Cell[TypeWithModifiers]
	impls   lazy.Cell[[]MethodSymbol]
	useSite lazy.Cell[*diag.Diagnostic]
}

func (m *SubstitutedMethod) Kind() SymbolKind                      { return SymbolMethod }
func (m *SubstitutedMethod) Name() string                          { return m.def.Name() }
func (m *SubstitutedMethod) ContainingSymbol() Symbol              { return m.container }
func (m *SubstitutedMethod) Attributes() []*AttributeData          { return m.def.Attributes() }
func (m *SubstitutedMethod) MethodKind() MethodKind                { return m.def.MethodKind() }
func (m *SubstitutedMethod) Accessibility() Accessibility          { return m.def.Accessibility() }
func (m *SubstitutedMethod) Flags() MemberFlags                    { return m.def.Flags() }
func (m *SubstitutedMethod) CallingConvention() CallingConvention  { return m.def.CallingConvention() }
func (m *SubstitutedMethod) Arity() int                            { return m.def.Arity() }
func (m *SubstitutedMethod) TypeParameters() []TypeParameterSymbol { return m.def.TypeParameters() }
func (m *SubstitutedMethod) TypeArguments() []TypeWithModifiers    { return m.def.TypeArguments() }
func (m *SubstitutedMethod) RefKind() RefKind                      { return m.def.RefKind() }
func (m *SubstitutedMethod) OriginalDefinition() MethodSymbol      { return m.def.OriginalDefinition() }
func (m *SubstitutedMethod) ConstructedFrom() MethodSymbol         { return m }
func (m *SubstitutedMethod) ReturnAttributes() []*AttributeData    { return m.def.ReturnAttributes() }
func (m *SubstitutedMethod) ReturnMarshalling() *MarshalInfo       { return m.def.ReturnMarshalling() }

func (m *SubstitutedMethod) Documentation(ctx context.Context) (string, error) {
	return m.def.Documentation(ctx)
}

func (m *SubstitutedMethod) RefCustomModifiers() []CustomModifier {
	return m.container.tmap.SubstituteModifiers(m.def.RefCustomModifiers())
}

func (m *SubstitutedMethod) ReturnType() TypeWithModifiers {
	return m.ret.Get(func() TypeWithModifiers {
		return m.container.tmap.Substitute(m.def.ReturnType())
	})
}

func (m *SubstitutedMethod) Parameters() []ParameterSymbol {
	return m.params.Get(func() []ParameterSymbol {
		return substituteParameters(m, m.def.Parameters(), m.container.tmap)
	})
}

func (m *SubstitutedMethod) ExplicitInterfaceImplementations() []MethodSymbol {
	return m.impls.Get(func() []MethodSymbol {
		defs := m.def.ExplicitInterfaceImplementations()
		if len(defs) == 0 {
			return nil
		}
		out := make([]MethodSymbol, 0, len(defs))
		for _, d := range defs {
			if s := substituteMemberRef(m.container.tmap, d); s != nil {
				out = append(out, s)
			}
		}
		return out
	})
}

func (m *SubstitutedMethod) OverriddenMethod() MethodSymbol {
	return substituteMemberRef(m.container.tmap, m.def.OverriddenMethod())
}

func (m *SubstitutedMethod) AssociatedSymbol() Symbol {
	return m.container.substitutedMember(m.def.AssociatedSymbol())
}

func (m *SubstitutedMethod) UseSiteDiagnostic() *diag.Diagnostic {
	return m.useSite.Get(func() *diag.Diagnostic {
		if d := m.def.UseSiteDiagnostic(); d != nil {
			return d
		}
		return methodSignatureError(m)
	})
}

func methodSignatureError(m MethodSymbol) *diag.Diagnostic {
	if d := FirstError(m.ReturnType()); d != nil {
		return d
	}
	for _, p := range m.Parameters() {
		if d := FirstError(p.Type()); d != nil {
			return d
		}
	}
	return nil
}

// ConstructedMethod is a generic method applied to type arguments.
type ConstructedMethod struct {
	from MethodSymbol
	args []TypeWithModifiers
	tmap *TypeMap

	params lazy.Cell[[]ParameterSymbol]
	ret    lazy.Cell[TypeWithModifiers]
}

// ConstructMethod instantiates the generic method from with args.
func ConstructMethod(from MethodSymbol, args []TypeWithModifiers) MethodSymbol {
	if len(args) == 0 {
		return from
	}
	if len(args) != from.Arity() {
		panic("symbols: wrong number of method type arguments for " + from.Name())
	}
	return &ConstructedMethod{from: from, args: args, tmap: NewTypeMap(from.TypeParameters(), args)}
}

func (m *ConstructedMethod) Kind() SymbolKind                      { return SymbolMethod }
func (m *ConstructedMethod) Name() string                          { return m.from.Name() }
func (m *ConstructedMethod) ContainingSymbol() Symbol              { return m.from.ContainingSymbol() }
func (m *ConstructedMethod) Attributes() []*AttributeData          { return m.from.Attributes() }
func (m *ConstructedMethod) MethodKind() MethodKind                { return m.from.MethodKind() }
func (m *ConstructedMethod) Accessibility() Accessibility          { return m.from.Accessibility() }
func (m *ConstructedMethod) Flags() MemberFlags                    { return m.from.Flags() }
func (m *ConstructedMethod) CallingConvention() CallingConvention  { return m.from.CallingConvention() }
func (m *ConstructedMethod) Arity() int                            { return m.from.Arity() }
func (m *ConstructedMethod) TypeParameters() []TypeParameterSymbol { return m.from.TypeParameters() }
func (m *ConstructedMethod) TypeArguments() []TypeWithModifiers    { return m.args }
func (m *ConstructedMethod) RefKind() RefKind                      { return m.from.RefKind() }
func (m *ConstructedMethod) OriginalDefinition() MethodSymbol      { return m.from.OriginalDefinition() }
func (m *ConstructedMethod) ConstructedFrom() MethodSymbol         { return m.from }
func (m *ConstructedMethod) ReturnAttributes() []*AttributeData    { return m.from.ReturnAttributes() }
func (m *ConstructedMethod) ReturnMarshalling() *MarshalInfo       { return m.from.ReturnMarshalling() }
func (m *ConstructedMethod) OverriddenMethod() MethodSymbol         { return nil }
func (m *ConstructedMethod) AssociatedSymbol() Symbol               { return nil }
func (m *ConstructedMethod) ExplicitInterfaceImplementations() []MethodSymbol {
	return nil
}

func (m *ConstructedMethod) Documentation(ctx context.Context) (string, error) {
	return m.from.Documentation(ctx)
}

func (m *ConstructedMethod) RefCustomModifiers() []CustomModifier {
	return m.tmap.SubstituteModifiers(m.from.RefCustomModifiers())
}

func (m *ConstructedMethod) ReturnType() TypeWithModifiers {
	return m.ret.Get(func() TypeWithModifiers { return m.tmap.Substitute(m.from.ReturnType()) })
}

func (m *ConstructedMethod) Parameters() []ParameterSymbol {
	return m.params.Get(func() []ParameterSymbol {
		return substituteParameters(m, m.from.Parameters(), m.tmap)
	})
}

func (m *ConstructedMethod) UseSiteDiagnostic() *diag.Diagnostic {
	if d := m.from.UseSiteDiagnostic(); d != nil {
		return d
	}
	if d := FirstError(m.args...); d != nil {
		return d
	}
	return methodSignatureError(m)
}

// SubstitutedParameter is a parameter whose type went through a TypeMap.
type SubstitutedParameter struct {
	owner Symbol
	def   ParameterSymbol
	typ   TypeWithModifiers
}

func substituteParameters(owner Symbol, defs []ParameterSymbol, tmap *TypeMap) []ParameterSymbol {
	if len(defs) == 0 {
		return nil
	}
	out := make([]ParameterSymbol, len(defs))
	for i, p := range defs {
		out[i] = &SubstitutedParameter{owner: owner, def: p, typ: tmap.Substitute(p.Type())}
	}
	return out
}

func (p *SubstitutedParameter) Kind() SymbolKind             { return SymbolParameter }
func (p *SubstitutedParameter) Name() string                 { return p.def.Name() }
func (p *SubstitutedParameter) ContainingSymbol() Symbol     { return p.owner }
func (p *SubstitutedParameter) Attributes() []*AttributeData { return p.def.Attributes() }
func (p *SubstitutedParameter) Ordinal() int                 { return p.def.Ordinal() }
func (p *SubstitutedParameter) Type() TypeWithModifiers      { return p.typ }
func (p *SubstitutedParameter) RefKind() RefKind             { return p.def.RefKind() }
func (p *SubstitutedParameter) RefCustomModifiers() []CustomModifier {
	return p.def.RefCustomModifiers()
}
func (p *SubstitutedParameter) Flags() ParameterFlags      { return p.def.Flags() }
func (p *SubstitutedParameter) DefaultValue() any          { return p.def.DefaultValue() }
func (p *SubstitutedParameter) Marshalling() *MarshalInfo  { return p.def.Marshalling() }

func (p *SubstitutedParameter) Documentation(ctx context.Context) (string, error) {
	return p.def.Documentation(ctx)
}

func (p *SubstitutedParameter) UseSiteDiagnostic() *diag.Diagnostic {
	if d := p.def.UseSiteDiagnostic(); d != nil {
		return d
	}
	return FirstError(p.typ)
}

type SubstitutedField struct {
	container *ConstructedNamedType
	def       FieldSymbol
	typ       lazy.Cell[TypeWithModifiers]
}

func (f *SubstitutedField) Kind() SymbolKind                 { return SymbolField }
func (f *SubstitutedField) Name() string                     { return f.def.Name() }
func (f *SubstitutedField) ContainingSymbol() Symbol         { return f.container }
func (f *SubstitutedField) Attributes() []*AttributeData     { return f.def.Attributes() }
func (f *SubstitutedField) Accessibility() Accessibility     { return f.def.Accessibility() }
func (f *SubstitutedField) Flags() MemberFlags               { return f.def.Flags() }
func (f *SubstitutedField) ConstantValue() any               { return f.def.ConstantValue() }
func (f *SubstitutedField) Marshalling() *MarshalInfo        { return f.def.Marshalling() }
func (f *SubstitutedField) OriginalDefinition() FieldSymbol  { return f.def.OriginalDefinition() }
func (f *SubstitutedField) AssociatedSymbol() Symbol {
	return f.container.substitutedMember(f.def.AssociatedSymbol())
}

func (f *SubstitutedField) Documentation(ctx context.Context) (string, error) {
	return f.def.Documentation(ctx)
}

func (f *SubstitutedField) Type() TypeWithModifiers {
	return f.typ.Get(func() TypeWithModifiers { return f.container.tmap.Substitute(f.def.Type()) })
}

func (f *SubstitutedField) UseSiteDiagnostic() *diag.Diagnostic {
	if d := f.def.UseSiteDiagnostic(); d != nil {
		return d
	}
	return FirstError(f.Type())
}

type SubstitutedProperty struct {
	container *ConstructedNamedType
	def       PropertySymbol
	typ       lazy.Cell[TypeWithModifiers]
	params    lazy.Cell[[]ParameterSymbol]
}

func (p *SubstitutedProperty) Kind() SymbolKind             { return SymbolProperty }
func (p *SubstitutedProperty) Name() string                 { return p.def.Name() }
func (p *SubstitutedProperty) ContainingSymbol() Symbol     { return p.container }
func (p *SubstitutedProperty) Attributes() []*AttributeData { return p.def.Attributes() }
func (p *SubstitutedProperty) Accessibility() Accessibility { return p.def.Accessibility() }
func (p *SubstitutedProperty) Flags() MemberFlags           { return p.def.Flags() }
func (p *SubstitutedProperty) RefKind() RefKind             { return p.def.RefKind() }
func (p *SubstitutedProperty) IsIndexer() bool              { return p.def.IsIndexer() }
func (p *SubstitutedProperty) OriginalDefinition() PropertySymbol {
	return p.def.OriginalDefinition()
}
func (p *SubstitutedProperty) RefCustomModifiers() []CustomModifier {
	return p.def.RefCustomModifiers()
}

func (p *SubstitutedProperty) Documentation(ctx context.Context) (string, error) {
	return p.def.Documentation(ctx)
}

func (p *SubstitutedProperty) Type() TypeWithModifiers {
	return p.typ.Get(func() TypeWithModifiers { return p.container.tmap.Substitute(p.def.Type()) })
}

func (p *SubstitutedProperty) Parameters() []ParameterSymbol {
	return p.params.Get(func() []ParameterSymbol {
		return substituteParameters(p, p.def.Parameters(), p.container.tmap)
	})
}

func (p *SubstitutedProperty) GetMethod() MethodSymbol {
	m, _ := p.container.substitutedMember(p.def.GetMethod()).(MethodSymbol)
	return m
}

func (p *SubstitutedProperty) SetMethod() MethodSymbol {
	m, _ := p.container.substitutedMember(p.def.SetMethod()).(MethodSymbol)
	return m
}

func (p *SubstitutedProperty) ExplicitInterfaceImplementations() []PropertySymbol {
	var out []PropertySymbol
	for _, d := range p.def.ExplicitInterfaceImplementations() {
		if s, ok := substituteOwned(p.container.tmap, d).(PropertySymbol); ok {
			out = append(out, s)
		}
	}
	return out
}

func (p *SubstitutedProperty) OverriddenProperty() PropertySymbol {
	s, _ := substituteOwned(p.container.tmap, p.def.OverriddenProperty()).(PropertySymbol)
	return s
}

func (p *SubstitutedProperty) UseSiteDiagnostic() *diag.Diagnostic {
	if d := p.def.UseSiteDiagnostic(); d != nil {
		return d
	}
	return FirstError(p.Type())
}

type SubstitutedEvent struct {
	container *ConstructedNamedType
	def       EventSymbol
	typ       lazy.Cell[TypeWithModifiers]
}

func (e *SubstitutedEvent) Kind() SymbolKind                { return SymbolEvent }
func (e *SubstitutedEvent) Name() string                    { return e.def.Name() }
func (e *SubstitutedEvent) ContainingSymbol() Symbol        { return e.container }
func (e *SubstitutedEvent) Attributes() []*AttributeData    { return e.def.Attributes() }
func (e *SubstitutedEvent) Accessibility() Accessibility    { return e.def.Accessibility() }
func (e *SubstitutedEvent) Flags() MemberFlags              { return e.def.Flags() }
func (e *SubstitutedEvent) OriginalDefinition() EventSymbol { return e.def.OriginalDefinition() }

func (e *SubstitutedEvent) Documentation(ctx context.Context) (string, error) {
	return e.def.Documentation(ctx)
}

func (e *SubstitutedEvent) Type() TypeWithModifiers {
	return e.typ.Get(func() TypeWithModifiers { return e.container.tmap.Substitute(e.def.Type()) })
}

func (e *SubstitutedEvent) AddMethod() MethodSymbol {
	m, _ := e.container.substitutedMember(e.def.AddMethod()).(MethodSymbol)
	return m
}

func (e *SubstitutedEvent) RemoveMethod() MethodSymbol {
	m, _ := e.container.substitutedMember(e.def.RemoveMethod()).(MethodSymbol)
	return m
}

func (e *SubstitutedEvent) AssociatedField() FieldSymbol {
	f, _ := e.container.substitutedMember(e.def.AssociatedField()).(FieldSymbol)
	return f
}

func (e *SubstitutedEvent) ExplicitInterfaceImplementations() []EventSymbol {
	var out []EventSymbol
	for _, d := range e.def.ExplicitInterfaceImplementations() {
		if s, ok := substituteOwned(e.container.tmap, d).(EventSymbol); ok {
			out = append(out, s)
		}
	}
	return out
}

func (e *SubstitutedEvent) OverriddenEvent() EventSymbol {
	s, _ := substituteOwned(e.container.tmap, e.def.OverriddenEvent()).(EventSymbol)
	return s
}

func (e *SubstitutedEvent) UseSiteDiagnostic() *diag.Diagnostic {
	if d := e.def.UseSiteDiagnostic(); d != nil {
		return d
	}
	return FirstError(e.Type())
}

// substituteOwned is substituteMemberRef for properties and events.
func substituteOwned(m *TypeMap, ref Symbol) Symbol {
	if ref == nil {
		return nil
	}
	owner := ContainingType(ref)
	if owner == nil {
		return ref
	}
	sub := m.SubstituteNamedType(owner)
	if sub == owner {
		return ref
	}
	return MemberIn(sub, OriginalDefinitionOf(ref))
}

// OriginalDefinitionOf returns the definition of any member kind.
func OriginalDefinitionOf(s Symbol) Symbol {
	switch v := s.(type) {
	case NamedTypeSymbol:
		return v.OriginalDefinition()
	case MethodSymbol:
		return v.OriginalDefinition()
	case FieldSymbol:
		return v.OriginalDefinition()
	case PropertySymbol:
		return v.OriginalDefinition()
	case EventSymbol:
		return v.OriginalDefinition()
	}
	return s
}
