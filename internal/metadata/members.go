package metadata

import (
	"context"
	"fmt"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
)

func parseRefKind(s string) (symbols.RefKind, error) {
	switch s {
	case "":
		return symbols.RefNone, nil
	case "ref":
		return symbols.RefRef, nil
	case "out":
		return symbols.RefOut, nil
	case "in":
		return symbols.RefIn, nil
	}
	return symbols.RefNone, fmt.Errorf("invalid ref kind %q", s)
}

func parseCallingConvention(s string) (symbols.CallingConvention, error) {
	switch s {
	case "", "default":
		return symbols.CallDefault, nil
	case "varargs":
		return symbols.CallVarargs, nil
	case "cdecl":
		return symbols.CallCDecl, nil
	case "stdcall":
		return symbols.CallStdCall, nil
	case "thiscall":
		return symbols.CallThisCall, nil
	case "fastcall":
		return symbols.CallFastCall, nil
	case "unmanaged":
		return symbols.CallUnmanaged, nil
	}
	return symbols.CallDefault, fmt.Errorf("invalid calling convention %q", s)
}

func signatureError(ret symbols.TypeWithModifiers, params []symbols.ParameterSymbol) *diag.Diagnostic {
	if d := symbols.FirstError(ret); d != nil {
		return d
	}
	for _, p := range params {
		if d := symbols.FirstError(p.Type()); d != nil {
			return d
		}
	}
	return nil
}

// Method is a method definition.
type Method struct {
	container  *NamedType
	def        *MethodDef
	kind       symbols.MethodKind
	access     symbols.Accessibility
	flags      symbols.MemberFlags
	cc         symbols.CallingConvention
	ref        symbols.RefKind
	tps        []symbols.TypeParameterSymbol
	associated symbols.Symbol

	ret        lazy.Cell[symbols.TypeWithModifiers]
	params     lazy.Cell[[]symbols.ParameterSymbol]
	impls      lazy.Cell[[]symbols.MethodSymbol]
	overridden lazy.Cell[symbols.MethodSymbol]
	attrs      lazy.Cell[[]*symbols.AttributeData]
	rattrs     lazy.Cell[[]*symbols.AttributeData]
	useSite    lazy.Cell[*diag.Diagnostic]
}

func newMethod(container *NamedType, def *MethodDef) *Method {
	m := &Method{container: container, def: def}
	m.kind, _ = symbols.ParseMethodKind(def.Kind)
	m.access, _ = symbols.ParseAccessibility(def.Access)
	m.flags, _ = symbols.ParseMemberFlags(def.Modifiers)
	m.cc, _ = parseCallingConvention(def.CallConv)
	m.ref, _ = parseRefKind(def.RefKind)
	if len(def.TypeParameters) > 0 {
		m.tps = make([]symbols.TypeParameterSymbol, len(def.TypeParameters))
		for i := range def.TypeParameters {
			m.tps[i] = newTypeParameter(m, i, &def.TypeParameters[i], symbols.TypeParameterOfMethod, m.bindContext)
		}
	}
	return m
}

func (m *Method) bindContext() bindContext {
	ctx := m.container.bindContext()
	ctx.methodParams = m.tps
	return ctx
}

func (m *Method) Kind() symbols.SymbolKind                      { return symbols.SymbolMethod }
func (m *Method) Name() string                                  { return m.def.Name }
func (m *Method) ContainingSymbol() symbols.Symbol              { return m.container }
func (m *Method) MethodKind() symbols.MethodKind                { return m.kind }
func (m *Method) Accessibility() symbols.Accessibility          { return m.access }
func (m *Method) Flags() symbols.MemberFlags                    { return m.flags }
func (m *Method) CallingConvention() symbols.CallingConvention  { return m.cc }
func (m *Method) Arity() int                                    { return len(m.tps) }
func (m *Method) TypeParameters() []symbols.TypeParameterSymbol { return m.tps }
func (m *Method) TypeArguments() []symbols.TypeWithModifiers    { return symbols.PlainAll(m.tps) }
func (m *Method) RefKind() symbols.RefKind                      { return m.ref }
func (m *Method) AssociatedSymbol() symbols.Symbol              { return m.associated }
func (m *Method) OriginalDefinition() symbols.MethodSymbol      { return m }
func (m *Method) ConstructedFrom() symbols.MethodSymbol         { return m }

func (m *Method) Documentation(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.def.Doc, nil
}

func (m *Method) ReturnType() symbols.TypeWithModifiers {
	return m.ret.Get(func() symbols.TypeWithModifiers {
		ref := m.def.Returns
		if ref == "" {
			ref = "void"
		}
		return m.container.module.bindType(ref, m.bindContext())
	})
}

// RefCustomModifiers are carried on the return type position.
func (m *Method) RefCustomModifiers() []symbols.CustomModifier {
	if m.ref == symbols.RefNone {
		return nil
	}
	return m.ReturnType().Modifiers
}

func (m *Method) Parameters() []symbols.ParameterSymbol {
	return m.params.Get(func() []symbols.ParameterSymbol {
		return newParameters(m, m.def.Parameters, m.bindContext)
	})
}

func (m *Method) ExplicitInterfaceImplementations() []symbols.MethodSymbol {
	return m.impls.Get(func() []symbols.MethodSymbol {
		if len(m.def.Implements) == 0 {
			return nil
		}
		ctx := m.bindContext()
		out := make([]symbols.MethodSymbol, 0, len(m.def.Implements))
		for _, ref := range m.def.Implements {
			if im, ok := m.container.module.bindMemberRef(ref, ctx, symbols.SymbolMethod).(symbols.MethodSymbol); ok {
				out = append(out, im)
			}
		}
		return out
	})
}

func (m *Method) OverriddenMethod() symbols.MethodSymbol {
	return m.overridden.Get(func() symbols.MethodSymbol {
		if m.def.Overrides == "" {
			return nil
		}
		om, _ := m.container.module.bindMemberRef(m.def.Overrides, m.bindContext(), symbols.SymbolMethod).(symbols.MethodSymbol)
		return om
	})
}

func (m *Method) Attributes() []*symbols.AttributeData {
	return m.attrs.Get(func() []*symbols.AttributeData {
		return m.container.module.bindAttributes(m.def.Attributes, m.bindContext())
	})
}

func (m *Method) ReturnAttributes() []*symbols.AttributeData {
	return m.rattrs.Get(func() []*symbols.AttributeData {
		return m.container.module.bindAttributes(m.def.ReturnAttributes, m.bindContext())
	})
}

func (m *Method) ReturnMarshalling() *symbols.MarshalInfo {
	return m.container.module.bindMarshal(m.def.ReturnMarshal, m.bindContext())
}

func (m *Method) UseSiteDiagnostic() *diag.Diagnostic {
	return m.useSite.Get(func() *diag.Diagnostic {
		return signatureError(m.ReturnType(), m.Parameters())
	})
}

// Parameter is a parameter of a method or indexer.
type Parameter struct {
	owner   symbols.Symbol
	ordinal int
	def     *ParamDef
	ref     symbols.RefKind
	ctx     func() bindContext

	typ   lazy.Cell[symbols.TypeWithModifiers]
	attrs lazy.Cell[[]*symbols.AttributeData]
	dflt  lazy.Cell[any]
}

func newParameters(owner symbols.Symbol, defs []ParamDef, ctx func() bindContext) []symbols.ParameterSymbol {
	if len(defs) == 0 {
		return nil
	}
	out := make([]symbols.ParameterSymbol, len(defs))
	for i := range defs {
		p := &Parameter{owner: owner, ordinal: i, def: &defs[i], ctx: ctx}
		p.ref, _ = parseRefKind(defs[i].RefKind)
		out[i] = p
	}
	return out
}

func (p *Parameter) Kind() symbols.SymbolKind            { return symbols.SymbolParameter }
func (p *Parameter) Name() string                        { return p.def.Name }
func (p *Parameter) ContainingSymbol() symbols.Symbol    { return p.owner }
func (p *Parameter) Ordinal() int                        { return p.ordinal }
func (p *Parameter) RefKind() symbols.RefKind            { return p.ref }
func (p *Parameter) UseSiteDiagnostic() *diag.Diagnostic { return nil }

func (p *Parameter) Documentation(ctx context.Context) (string, error) { return "", ctx.Err() }

func (p *Parameter) Type() symbols.TypeWithModifiers {
	return p.typ.Get(func() symbols.TypeWithModifiers {
		ctx := p.ctx()
		return ctx.module.bindType(p.def.Type, ctx)
	})
}

func (p *Parameter) RefCustomModifiers() []symbols.CustomModifier {
	if p.ref == symbols.RefNone {
		return nil
	}
	return p.Type().Modifiers
}

func (p *Parameter) Flags() symbols.ParameterFlags {
	var f symbols.ParameterFlags
	if p.def.Optional {
		f |= symbols.ParamOptional
	}
	if p.def.Params {
		f |= symbols.ParamParams
	}
	if p.def.Default != nil {
		f |= symbols.ParamHasDefault
	}
	return f
}

func (p *Parameter) DefaultValue() any {
	if p.def.Default == nil {
		return nil
	}
	return p.dflt.Get(func() any {
		ctx := p.ctx()
		return ctx.module.bindConstant(*p.def.Default, ctx).Value
	})
}

func (p *Parameter) Marshalling() *symbols.MarshalInfo {
	ctx := p.ctx()
	return ctx.module.bindMarshal(p.def.Marshal, ctx)
}

func (p *Parameter) Attributes() []*symbols.AttributeData {
	return p.attrs.Get(func() []*symbols.AttributeData {
		ctx := p.ctx()
		return ctx.module.bindAttributes(p.def.Attributes, ctx)
	})
}

// Field is a field definition.
type Field struct {
	container  *NamedType
	def        *FieldDef
	access     symbols.Accessibility
	flags      symbols.MemberFlags
	associated symbols.Symbol

	typ   lazy.Cell[symbols.TypeWithModifiers]
	attrs lazy.Cell[[]*symbols.AttributeData]
	value lazy.Cell[any]
}

func newField(container *NamedType, def *FieldDef) *Field {
	f := &Field{container: container, def: def}
	f.access, _ = symbols.ParseAccessibility(def.Access)
	f.flags, _ = symbols.ParseMemberFlags(def.Modifiers)
	if def.Constant != nil {
		f.flags |= symbols.MemberConst | symbols.MemberStatic
	}
	return f
}

func (f *Field) Kind() symbols.SymbolKind             { return symbols.SymbolField }
func (f *Field) Name() string                         { return f.def.Name }
func (f *Field) ContainingSymbol() symbols.Symbol     { return f.container }
func (f *Field) Accessibility() symbols.Accessibility { return f.access }
func (f *Field) Flags() symbols.MemberFlags           { return f.flags }
func (f *Field) AssociatedSymbol() symbols.Symbol     { return f.associated }
func (f *Field) OriginalDefinition() symbols.FieldSymbol {
	return f
}

func (f *Field) Documentation(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.def.Doc, nil
}

func (f *Field) Type() symbols.TypeWithModifiers {
	return f.typ.Get(func() symbols.TypeWithModifiers {
		return f.container.module.bindType(f.def.Type, f.container.bindContext())
	})
}

func (f *Field) ConstantValue() any {
	if f.def.Constant == nil {
		return nil
	}
	return f.value.Get(func() any {
		return f.container.module.bindConstant(*f.def.Constant, f.container.bindContext()).Value
	})
}

func (f *Field) Marshalling() *symbols.MarshalInfo {
	return f.container.module.bindMarshal(f.def.Marshal, f.container.bindContext())
}

func (f *Field) Attributes() []*symbols.AttributeData {
	return f.attrs.Get(func() []*symbols.AttributeData {
		return f.container.module.bindAttributes(f.def.Attributes, f.container.bindContext())
	})
}

func (f *Field) UseSiteDiagnostic() *diag.Diagnostic { return symbols.FirstError(f.Type()) }

// Property is a property or indexer definition. Accessors name methods
// of the declaring type.
type Property struct {
	container *NamedType
	def       *PropertyDef
	access    symbols.Accessibility
	flags     symbols.MemberFlags
	ref       symbols.RefKind
	get, set  *Method

	typ        lazy.Cell[symbols.TypeWithModifiers]
	params     lazy.Cell[[]symbols.ParameterSymbol]
	impls      lazy.Cell[[]symbols.PropertySymbol]
	overridden lazy.Cell[symbols.PropertySymbol]
	attrs      lazy.Cell[[]*symbols.AttributeData]
}

func newProperty(container *NamedType, def *PropertyDef, tab *memberTable) *Property {
	p := &Property{container: container, def: def}
	p.access, _ = symbols.ParseAccessibility(def.Access)
	p.flags, _ = symbols.ParseMemberFlags(def.Modifiers)
	p.ref, _ = parseRefKind(def.RefKind)
	if m := tab.methods[def.Get]; def.Get != "" && m != nil {
		p.get, m.associated = m, p
	}
	if m := tab.methods[def.Set]; def.Set != "" && m != nil {
		p.set, m.associated = m, p
	}
	return p
}

func (p *Property) Kind() symbols.SymbolKind             { return symbols.SymbolProperty }
func (p *Property) Name() string                         { return p.def.Name }
func (p *Property) ContainingSymbol() symbols.Symbol     { return p.container }
func (p *Property) Accessibility() symbols.Accessibility { return p.access }
func (p *Property) Flags() symbols.MemberFlags           { return p.flags }
func (p *Property) RefKind() symbols.RefKind             { return p.ref }
func (p *Property) IsIndexer() bool                      { return p.def.Indexer }
func (p *Property) OriginalDefinition() symbols.PropertySymbol {
	return p
}

func (p *Property) GetMethod() symbols.MethodSymbol {
	if p.get == nil {
		return nil
	}
	return p.get
}

func (p *Property) SetMethod() symbols.MethodSymbol {
	if p.set == nil {
		return nil
	}
	return p.set
}

func (p *Property) Documentation(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.def.Doc, nil
}

func (p *Property) Type() symbols.TypeWithModifiers {
	return p.typ.Get(func() symbols.TypeWithModifiers {
		return p.container.module.bindType(p.def.Type, p.container.bindContext())
	})
}

func (p *Property) RefCustomModifiers() []symbols.CustomModifier {
	if p.ref == symbols.RefNone {
		return nil
	}
	return p.Type().Modifiers
}

func (p *Property) Parameters() []symbols.ParameterSymbol {
	return p.params.Get(func() []symbols.ParameterSymbol {
		return newParameters(p, p.def.Parameters, p.container.bindContext)
	})
}

func (p *Property) ExplicitInterfaceImplementations() []symbols.PropertySymbol {
	return p.impls.Get(func() []symbols.PropertySymbol {
		if len(p.def.Implements) == 0 {
			return nil
		}
		ctx := p.container.bindContext()
		out := make([]symbols.PropertySymbol, 0, len(p.def.Implements))
		for _, ref := range p.def.Implements {
			if ip, ok := p.container.module.bindMemberRef(ref, ctx, symbols.SymbolProperty).(symbols.PropertySymbol); ok {
				out = append(out, ip)
			}
		}
		return out
	})
}

func (p *Property) OverriddenProperty() symbols.PropertySymbol {
	return p.overridden.Get(func() symbols.PropertySymbol {
		if p.def.Overrides == "" {
			return nil
		}
		op, _ := p.container.module.bindMemberRef(p.def.Overrides, p.container.bindContext(), symbols.SymbolProperty).(symbols.PropertySymbol)
		return op
	})
}

func (p *Property) Attributes() []*symbols.AttributeData {
	return p.attrs.Get(func() []*symbols.AttributeData {
		return p.container.module.bindAttributes(p.def.Attributes, p.container.bindContext())
	})
}

func (p *Property) UseSiteDiagnostic() *diag.Diagnostic {
	return signatureError(p.Type(), p.Parameters())
}

// Event is an event definition.
type Event struct {
	container   *NamedType
	def         *EventDef
	access      symbols.Accessibility
	flags       symbols.MemberFlags
	add, remove *Method
	field       *Field

	typ        lazy.Cell[symbols.TypeWithModifiers]
	impls      lazy.Cell[[]symbols.EventSymbol]
	overridden lazy.Cell[symbols.EventSymbol]
	attrs      lazy.Cell[[]*symbols.AttributeData]
}

func newEvent(container *NamedType, def *EventDef, tab *memberTable) *Event {
	e := &Event{container: container, def: def}
	e.access, _ = symbols.ParseAccessibility(def.Access)
	e.flags, _ = symbols.ParseMemberFlags(def.Modifiers)
	if m := tab.methods[def.Add]; def.Add != "" && m != nil {
		e.add, m.associated = m, e
	}
	if m := tab.methods[def.Remove]; def.Remove != "" && m != nil {
		e.remove, m.associated = m, e
	}
	if f := tab.fields[def.Field]; def.Field != "" && f != nil {
		e.field, f.associated = f, e
	}
	return e
}

func (e *Event) Kind() symbols.SymbolKind             { return symbols.SymbolEvent }
func (e *Event) Name() string                         { return e.def.Name }
func (e *Event) ContainingSymbol() symbols.Symbol     { return e.container }
func (e *Event) Accessibility() symbols.Accessibility { return e.access }
func (e *Event) Flags() symbols.MemberFlags           { return e.flags }
func (e *Event) OriginalDefinition() symbols.EventSymbol {
	return e
}

func (e *Event) AddMethod() symbols.MethodSymbol {
	if e.add == nil {
		return nil
	}
	return e.add
}

func (e *Event) RemoveMethod() symbols.MethodSymbol {
	if e.remove == nil {
		return nil
	}
	return e.remove
}

func (e *Event) AssociatedField() symbols.FieldSymbol {
	if e.field == nil {
		return nil
	}
	return e.field
}

func (e *Event) Documentation(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.def.Doc, nil
}

func (e *Event) Type() symbols.TypeWithModifiers {
	return e.typ.Get(func() symbols.TypeWithModifiers {
		return e.container.module.bindType(e.def.Type, e.container.bindContext())
	})
}

func (e *Event) ExplicitInterfaceImplementations() []symbols.EventSymbol {
	return e.impls.Get(func() []symbols.EventSymbol {
		if len(e.def.Implements) == 0 {
			return nil
		}
		ctx := e.container.bindContext()
		out := make([]symbols.EventSymbol, 0, len(e.def.Implements))
		for _, ref := range e.def.Implements {
			if ie, ok := e.container.module.bindMemberRef(ref, ctx, symbols.SymbolEvent).(symbols.EventSymbol); ok {
				out = append(out, ie)
			}
		}
		return out
	})
}

func (e *Event) OverriddenEvent() symbols.EventSymbol {
	return e.overridden.Get(func() symbols.EventSymbol {
		if e.def.Overrides == "" {
			return nil
		}
		oe, _ := e.container.module.bindMemberRef(e.def.Overrides, e.container.bindContext(), symbols.SymbolEvent).(symbols.EventSymbol)
		return oe
	})
}

func (e *Event) Attributes() []*symbols.AttributeData {
	return e.attrs.Get(func() []*symbols.AttributeData {
		return e.container.module.bindAttributes(e.def.Attributes, e.container.bindContext())
	})
}

func (e *Event) UseSiteDiagnostic() *diag.Diagnostic { return symbols.FirstError(e.Type()) }
