package retargeting

import (
	"context"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
)

// Method is a retargeted method definition of the underlying module.
type Method struct {
	module     *Module
	underlying symbols.MethodSymbol

	tps      lazy.Cell[[]symbols.TypeParameterSymbol]
	ret      lazy.Cell[symbols.TypeWithModifiers]
	refMods  lazy.Cell[[]symbols.CustomModifier]
	params   lazy.Cell[[]symbols.ParameterSymbol]
	explicit lazy.Cell[[]symbols.MethodSymbol]
	attrs    lazy.Cell[[]*symbols.AttributeData]
	retAttrs lazy.Cell[[]*symbols.AttributeData]
	retMarsh lazy.Cell[*symbols.MarshalInfo]
	override lazy.Cell[symbols.MethodSymbol]
	useSite  lazy.Cell[*diag.Diagnostic]
}

func (m *Method) Underlying() symbols.MethodSymbol { return m.underlying }

func (m *Method) Kind() symbols.SymbolKind                   { return symbols.SymbolMethod }
func (m *Method) Name() string                               { return m.underlying.Name() }
func (m *Method) MethodKind() symbols.MethodKind             { return m.underlying.MethodKind() }
func (m *Method) Accessibility() symbols.Accessibility       { return m.underlying.Accessibility() }
func (m *Method) Flags() symbols.MemberFlags                 { return m.underlying.Flags() }
func (m *Method) Arity() int                                 { return m.underlying.Arity() }
func (m *Method) RefKind() symbols.RefKind                   { return m.underlying.RefKind() }
func (m *Method) OriginalDefinition() symbols.MethodSymbol   { return m }
func (m *Method) ConstructedFrom() symbols.MethodSymbol      { return m }
func (m *Method) CallingConvention() symbols.CallingConvention {
	return m.underlying.CallingConvention()
}

func (m *Method) ContainingSymbol() symbols.Symbol {
	return m.module.Retarget(m.underlying.ContainingSymbol())
}

func (m *Method) Documentation(ctx context.Context) (string, error) {
	return m.underlying.Documentation(ctx)
}

func (m *Method) Attributes() []*symbols.AttributeData {
	return m.attrs.Get(func() []*symbols.AttributeData {
		return m.module.RetargetAttributes(m.underlying.Attributes())
	})
}

func (m *Method) ReturnAttributes() []*symbols.AttributeData {
	return m.retAttrs.Get(func() []*symbols.AttributeData {
		return m.module.RetargetAttributes(m.underlying.ReturnAttributes())
	})
}

func (m *Method) ReturnMarshalling() *symbols.MarshalInfo {
	return m.retMarsh.Get(func() *symbols.MarshalInfo {
		return m.module.RetargetMarshal(m.underlying.ReturnMarshalling())
	})
}

func (m *Method) TypeParameters() []symbols.TypeParameterSymbol {
	return m.tps.Get(func() []symbols.TypeParameterSymbol {
		return m.module.retargetTypeParameters(m.underlying.TypeParameters())
	})
}

func (m *Method) TypeArguments() []symbols.TypeWithModifiers {
	return symbols.PlainAll(m.TypeParameters())
}

func (m *Method) ReturnType() symbols.TypeWithModifiers {
	return m.ret.Get(func() symbols.TypeWithModifiers {
		return m.module.RetargetTypeWithModifiers(m.underlying.ReturnType(), ByTypeCode)
	})
}

func (m *Method) RefCustomModifiers() []symbols.CustomModifier {
	return m.refMods.Get(func() []symbols.CustomModifier {
		return m.module.RetargetModifiers(m.underlying.RefCustomModifiers())
	})
}

func (m *Method) Parameters() []symbols.ParameterSymbol {
	return m.params.Get(func() []symbols.ParameterSymbol {
		return m.module.wrapParameters(m, m.underlying.Parameters())
	})
}

// ExplicitInterfaceImplementations omits interface methods that no longer
// exist.
func (m *Method) ExplicitInterfaceImplementations() []symbols.MethodSymbol {
	return m.explicit.Get(func() []symbols.MethodSymbol {
		return m.module.retargetMethods(m.underlying.ExplicitInterfaceImplementations())
	})
}

func (m *Method) OverriddenMethod() symbols.MethodSymbol {
	return m.override.Get(func() symbols.MethodSymbol {
		return m.module.RetargetMethod(m.underlying.OverriddenMethod())
	})
}

func (m *Method) AssociatedSymbol() symbols.Symbol {
	return m.module.retargetAssociated(m.underlying.AssociatedSymbol())
}

func (m *Method) UseSiteDiagnostic() *diag.Diagnostic {
	return m.useSite.Get(func() *diag.Diagnostic {
		if d := m.underlying.UseSiteDiagnostic(); d != nil {
			return d
		}
		if d := symbols.FirstError(m.ReturnType(), symbols.TypeWithModifiers{Modifiers: m.RefCustomModifiers()}); d != nil {
			return d
		}
		return parametersError(m.Parameters())
	})
}

func parametersError(params []symbols.ParameterSymbol) *diag.Diagnostic {
	for _, p := range params {
		if d := p.UseSiteDiagnostic(); d.IsError() {
			return d
		}
	}
	return nil
}

// Parameter is a parameter of a retargeted method or property.
type Parameter struct {
	module     *Module
	underlying symbols.ParameterSymbol
	owner      symbols.Symbol

	typ     lazy.Cell[symbols.TypeWithModifiers]
	refMods lazy.Cell[[]symbols.CustomModifier]
	attrs   lazy.Cell[[]*symbols.AttributeData]
	marshal lazy.Cell[*symbols.MarshalInfo]
}

func (m *Module) wrapParameters(owner symbols.Symbol, src []symbols.ParameterSymbol) []symbols.ParameterSymbol {
	if len(src) == 0 {
		return nil
	}
	out := make([]symbols.ParameterSymbol, len(src))
	for i, p := range src {
		out[i] = &Parameter{module: m, underlying: p, owner: owner}
	}
	return out
}

func (p *Parameter) Underlying() symbols.ParameterSymbol { return p.underlying }

func (p *Parameter) Kind() symbols.SymbolKind         { return symbols.SymbolParameter }
func (p *Parameter) Name() string                     { return p.underlying.Name() }
func (p *Parameter) ContainingSymbol() symbols.Symbol { return p.owner }
func (p *Parameter) Ordinal() int                     { return p.underlying.Ordinal() }
func (p *Parameter) RefKind() symbols.RefKind         { return p.underlying.RefKind() }
func (p *Parameter) Flags() symbols.ParameterFlags    { return p.underlying.Flags() }
func (p *Parameter) DefaultValue() any                { return p.underlying.DefaultValue() }

func (p *Parameter) Documentation(ctx context.Context) (string, error) {
	return p.underlying.Documentation(ctx)
}

func (p *Parameter) Attributes() []*symbols.AttributeData {
	return p.attrs.Get(func() []*symbols.AttributeData {
		return p.module.RetargetAttributes(p.underlying.Attributes())
	})
}

func (p *Parameter) Type() symbols.TypeWithModifiers {
	return p.typ.Get(func() symbols.TypeWithModifiers {
		return p.module.RetargetTypeWithModifiers(p.underlying.Type(), ByTypeCode)
	})
}

func (p *Parameter) RefCustomModifiers() []symbols.CustomModifier {
	return p.refMods.Get(func() []symbols.CustomModifier {
		return p.module.RetargetModifiers(p.underlying.RefCustomModifiers())
	})
}

func (p *Parameter) Marshalling() *symbols.MarshalInfo {
	return p.marshal.Get(func() *symbols.MarshalInfo {
		return p.module.RetargetMarshal(p.underlying.Marshalling())
	})
}

func (p *Parameter) UseSiteDiagnostic() *diag.Diagnostic {
	if d := p.underlying.UseSiteDiagnostic(); d != nil {
		return d
	}
	return symbols.FirstError(p.Type(), symbols.TypeWithModifiers{Modifiers: p.RefCustomModifiers()})
}
