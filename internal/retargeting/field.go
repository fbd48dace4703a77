package retargeting

import (
	"context"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
)

type Field struct {
	module     *Module
	underlying symbols.FieldSymbol

	typ     lazy.Cell[symbols.TypeWithModifiers]
	attrs   lazy.Cell[[]*symbols.AttributeData]
	marshal lazy.Cell[*symbols.MarshalInfo]
}

func (f *Field) Underlying() symbols.FieldSymbol { return f.underlying }

func (f *Field) Kind() symbols.SymbolKind                 { return symbols.SymbolField }
func (f *Field) Name() string                             { return f.underlying.Name() }
func (f *Field) Accessibility() symbols.Accessibility     { return f.underlying.Accessibility() }
func (f *Field) Flags() symbols.MemberFlags               { return f.underlying.Flags() }
func (f *Field) ConstantValue() any                       { return f.underlying.ConstantValue() }
func (f *Field) OriginalDefinition() symbols.FieldSymbol  { return f }

func (f *Field) ContainingSymbol() symbols.Symbol {
	return f.module.Retarget(f.underlying.ContainingSymbol())
}

func (f *Field) Documentation(ctx context.Context) (string, error) {
	return f.underlying.Documentation(ctx)
}

func (f *Field) Attributes() []*symbols.AttributeData {
	return f.attrs.Get(func() []*symbols.AttributeData {
		return f.module.RetargetAttributes(f.underlying.Attributes())
	})
}

func (f *Field) Type() symbols.TypeWithModifiers {
	return f.typ.Get(func() symbols.TypeWithModifiers {
		return f.module.RetargetTypeWithModifiers(f.underlying.Type(), ByTypeCode)
	})
}

func (f *Field) Marshalling() *symbols.MarshalInfo {
	return f.marshal.Get(func() *symbols.MarshalInfo {
		return f.module.RetargetMarshal(f.underlying.Marshalling())
	})
}

func (f *Field) AssociatedSymbol() symbols.Symbol {
	return f.module.retargetAssociated(f.underlying.AssociatedSymbol())
}

func (f *Field) UseSiteDiagnostic() *diag.Diagnostic {
	if d := f.underlying.UseSiteDiagnostic(); d != nil {
		return d
	}
	return symbols.FirstError(f.Type())
}

type Property struct {
	module     *Module
	underlying symbols.PropertySymbol

	typ      lazy.Cell[symbols.TypeWithModifiers]
	refMods  lazy.Cell[[]symbols.CustomModifier]
	params   lazy.Cell[[]symbols.ParameterSymbol]
	explicit lazy.Cell[[]symbols.PropertySymbol]
	attrs    lazy.Cell[[]*symbols.AttributeData]
}

func (p *Property) Underlying() symbols.PropertySymbol { return p.underlying }

func (p *Property) Kind() symbols.SymbolKind                   { return symbols.SymbolProperty }
func (p *Property) Name() string                               { return p.underlying.Name() }
func (p *Property) Accessibility() symbols.Accessibility       { return p.underlying.Accessibility() }
func (p *Property) Flags() symbols.MemberFlags                 { return p.underlying.Flags() }
func (p *Property) RefKind() symbols.RefKind                   { return p.underlying.RefKind() }
func (p *Property) IsIndexer() bool                            { return p.underlying.IsIndexer() }
func (p *Property) OriginalDefinition() symbols.PropertySymbol { return p }

func (p *Property) ContainingSymbol() symbols.Symbol {
	return p.module.Retarget(p.underlying.ContainingSymbol())
}

func (p *Property) Documentation(ctx context.Context) (string, error) {
	return p.underlying.Documentation(ctx)
}

func (p *Property) Attributes() []*symbols.AttributeData {
	return p.attrs.Get(func() []*symbols.AttributeData {
		return p.module.RetargetAttributes(p.underlying.Attributes())
	})
}

func (p *Property) Type() symbols.TypeWithModifiers {
	return p.typ.Get(func() symbols.TypeWithModifiers {
		return p.module.RetargetTypeWithModifiers(p.underlying.Type(), ByTypeCode)
	})
}

func (p *Property) RefCustomModifiers() []symbols.CustomModifier {
	return p.refMods.Get(func() []symbols.CustomModifier {
		return p.module.RetargetModifiers(p.underlying.RefCustomModifiers())
	})
}

func (p *Property) Parameters() []symbols.ParameterSymbol {
	return p.params.Get(func() []symbols.ParameterSymbol {
		return p.module.wrapParameters(p, p.underlying.Parameters())
	})
}

func (p *Property) GetMethod() symbols.MethodSymbol {
	return p.module.RetargetMethod(p.underlying.GetMethod())
}

func (p *Property) SetMethod() symbols.MethodSymbol {
	return p.module.RetargetMethod(p.underlying.SetMethod())
}

func (p *Property) ExplicitInterfaceImplementations() []symbols.PropertySymbol {
	return p.explicit.Get(func() []symbols.PropertySymbol {
		return p.module.retargetProperties(p.underlying.ExplicitInterfaceImplementations())
	})
}

func (p *Property) OverriddenProperty() symbols.PropertySymbol {
	return p.module.RetargetProperty(p.underlying.OverriddenProperty())
}

func (p *Property) UseSiteDiagnostic() *diag.Diagnostic {
	if d := p.underlying.UseSiteDiagnostic(); d != nil {
		return d
	}
	if d := symbols.FirstError(p.Type(), symbols.TypeWithModifiers{Modifiers: p.RefCustomModifiers()}); d != nil {
		return d
	}
	return parametersError(p.Parameters())
}

type Event struct {
	module     *Module
	underlying symbols.EventSymbol

	typ      lazy.Cell[symbols.TypeWithModifiers]
	explicit lazy.Cell[[]symbols.EventSymbol]
	attrs    lazy.Cell[[]*symbols.AttributeData]
}

func (e *Event) Underlying() symbols.EventSymbol { return e.underlying }

func (e *Event) Kind() symbols.SymbolKind                { return symbols.SymbolEvent }
func (e *Event) Name() string                            { return e.underlying.Name() }
func (e *Event) Accessibility() symbols.Accessibility    { return e.underlying.Accessibility() }
func (e *Event) Flags() symbols.MemberFlags              { return e.underlying.Flags() }
func (e *Event) OriginalDefinition() symbols.EventSymbol { return e }

func (e *Event) ContainingSymbol() symbols.Symbol {
	return e.module.Retarget(e.underlying.ContainingSymbol())
}

func (e *Event) Documentation(ctx context.Context) (string, error) {
	return e.underlying.Documentation(ctx)
}

func (e *Event) Attributes() []*symbols.AttributeData {
	return e.attrs.Get(func() []*symbols.AttributeData {
		return e.module.RetargetAttributes(e.underlying.Attributes())
	})
}

func (e *Event) Type() symbols.TypeWithModifiers {
	return e.typ.Get(func() symbols.TypeWithModifiers {
		return e.module.RetargetTypeWithModifiers(e.underlying.Type(), ByTypeCode)
	})
}

func (e *Event) AddMethod() symbols.MethodSymbol {
	return e.module.RetargetMethod(e.underlying.AddMethod())
}

func (e *Event) RemoveMethod() symbols.MethodSymbol {
	return e.module.RetargetMethod(e.underlying.RemoveMethod())
}

func (e *Event) AssociatedField() symbols.FieldSymbol {
	return e.module.RetargetField(e.underlying.AssociatedField())
}

func (e *Event) ExplicitInterfaceImplementations() []symbols.EventSymbol {
	return e.explicit.Get(func() []symbols.EventSymbol {
		return e.module.retargetEvents(e.underlying.ExplicitInterfaceImplementations())
	})
}

func (e *Event) OverriddenEvent() symbols.EventSymbol {
	return e.module.RetargetEvent(e.underlying.OverriddenEvent())
}

func (e *Event) UseSiteDiagnostic() *diag.Diagnostic {
	if d := e.underlying.UseSiteDiagnostic(); d != nil {
		return d
	}
	return symbols.FirstError(e.Type())
}
