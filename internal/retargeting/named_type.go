package retargeting

import (
	"context"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
	"retarget/internal/trace"
)

// NamedType is a retargeted type definition of the underlying module.
type NamedType struct {
	module     *Module
	underlying symbols.NamedTypeSymbol

	tps       lazy.Cell[[]symbols.TypeParameterSymbol]
	base      lazy.Cell[symbols.NamedTypeSymbol]
	ifaces    lazy.Cell[[]symbols.NamedTypeSymbol]
	members   lazy.Cell[[]symbols.Symbol]
	impls     lazy.Cell[[]symbols.MethodImpl]
	enumUnder lazy.Cell[symbols.NamedTypeSymbol]
	attrs     lazy.Cell[[]*symbols.AttributeData]
	useSite   lazy.Cell[*diag.Diagnostic]
}

func newNamedType(m *Module, t symbols.NamedTypeSymbol) *NamedType {
	return &NamedType{module: m, underlying: t}
}

func (t *NamedType) Underlying() symbols.NamedTypeSymbol { return t.underlying }

func (t *NamedType) Kind() symbols.SymbolKind                    { return t.underlying.Kind() }
func (t *NamedType) TypeKind() symbols.TypeKind                  { return t.underlying.TypeKind() }
func (t *NamedType) Name() string                                { return t.underlying.Name() }
func (t *NamedType) MetadataName() string                        { return t.underlying.MetadataName() }
func (t *NamedType) Arity() int                                  { return t.underlying.Arity() }
func (t *NamedType) Accessibility() symbols.Accessibility        { return t.underlying.Accessibility() }
func (t *NamedType) Flags() symbols.TypeFlags                    { return t.underlying.Flags() }
func (t *NamedType) SpecialType() symbols.SpecialType            { return t.underlying.SpecialType() }
func (t *NamedType) OriginalDefinition() symbols.NamedTypeSymbol { return t }
func (t *NamedType) IsUnboundGeneric() bool                      { return false }
func (t *NamedType) IsExplicitLocalType() bool                   { return t.underlying.IsExplicitLocalType() }
func (t *NamedType) NativeIntegerUnderlying() symbols.NamedTypeSymbol {
	return nil
}

func (t *NamedType) ContainingSymbol() symbols.Symbol {
	return t.module.Retarget(t.underlying.ContainingSymbol())
}

func (t *NamedType) Documentation(ctx context.Context) (string, error) {
	return t.underlying.Documentation(ctx)
}

func (t *NamedType) Attributes() []*symbols.AttributeData {
	return t.attrs.Get(func() []*symbols.AttributeData {
		return t.module.RetargetAttributes(t.underlying.Attributes())
	})
}

func (t *NamedType) TypeParameters() []symbols.TypeParameterSymbol {
	return t.tps.Get(func() []symbols.TypeParameterSymbol {
		return t.module.retargetTypeParameters(t.underlying.TypeParameters())
	})
}

func (t *NamedType) TypeArguments() []symbols.TypeWithModifiers {
	return symbols.PlainAll(t.TypeParameters())
}

func (t *NamedType) BaseType() symbols.NamedTypeSymbol {
	return t.base.Get(func() symbols.NamedTypeSymbol {
		return t.module.RetargetNamedType(t.underlying.BaseType(), ByName)
	})
}

func (t *NamedType) Interfaces() []symbols.NamedTypeSymbol {
	return t.ifaces.Get(func() []symbols.NamedTypeSymbol {
		src := t.underlying.Interfaces()
		if len(src) == 0 {
			return nil
		}
		out := make([]symbols.NamedTypeSymbol, len(src))
		for i, it := range src {
			out[i] = t.module.RetargetNamedType(it, ByName)
		}
		return out
	})
}

func (t *NamedType) EnumUnderlyingType() symbols.NamedTypeSymbol {
	return t.enumUnder.Get(func() symbols.NamedTypeSymbol {
		return t.module.RetargetNamedType(t.underlying.EnumUnderlyingType(), ByTypeCode)
	})
}

func (t *NamedType) Members() []symbols.Symbol {
	return t.members.Get(func() []symbols.Symbol {
		src := t.underlying.Members()
		out := make([]symbols.Symbol, 0, len(src))
		for _, s := range src {
			if r := t.module.Retarget(s); r != nil {
				out = append(out, r)
			}
		}
		return out
	})
}

// MethodImpls drops pairs whose declaration no longer exists in the
// destination.
func (t *NamedType) MethodImpls() []symbols.MethodImpl {
	return t.impls.Get(func() []symbols.MethodImpl {
		src := t.underlying.MethodImpls()
		if len(src) == 0 {
			return nil
		}
		out := make([]symbols.MethodImpl, 0, len(src))
		for _, mi := range src {
			body := t.module.RetargetMethod(mi.Body)
			decl := t.module.RetargetMethod(mi.Declaration)
			if body == nil || decl == nil {
				trace.Point(t.module.tracer(), trace.ScopeSymbol, "retarget.dropped-impl", symbols.FullName(t.underlying), nil)
				continue
			}
			out = append(out, symbols.MethodImpl{Body: body, Declaration: decl})
		}
		return out
	})
}

func (t *NamedType) UseSiteDiagnostic() *diag.Diagnostic {
	return t.useSite.Get(func() *diag.Diagnostic {
		if d := t.underlying.UseSiteDiagnostic(); d != nil {
			return d
		}
		if b := t.BaseType(); b != nil {
			if d := b.UseSiteDiagnostic(); d.IsError() {
				return d
			}
		}
		for _, it := range t.Interfaces() {
			if d := it.UseSiteDiagnostic(); d.IsError() {
				return d
			}
		}
		return nil
	})
}

// TypeParameter is a retargeted type parameter of a type or method
// definition of the underlying module.
type TypeParameter struct {
	module     *Module
	underlying symbols.TypeParameterSymbol

	constraints lazy.Cell[[]symbols.TypeWithModifiers]
	attrs       lazy.Cell[[]*symbols.AttributeData]
}

func (p *TypeParameter) Underlying() symbols.TypeParameterSymbol { return p.underlying }

func (p *TypeParameter) Kind() symbols.SymbolKind       { return symbols.SymbolTypeParameter }
func (p *TypeParameter) TypeKind() symbols.TypeKind     { return symbols.TypeKindTypeParameter }
func (p *TypeParameter) Name() string                   { return p.underlying.Name() }
func (p *TypeParameter) Ordinal() int                   { return p.underlying.Ordinal() }
func (p *TypeParameter) Variance() symbols.VarianceKind { return p.underlying.Variance() }
func (p *TypeParameter) Constraints() symbols.ConstraintFlags {
	return p.underlying.Constraints()
}
func (p *TypeParameter) TypeParameterKind() symbols.TypeParameterKind {
	return p.underlying.TypeParameterKind()
}

func (p *TypeParameter) ContainingSymbol() symbols.Symbol {
	return p.module.Retarget(p.underlying.ContainingSymbol())
}

func (p *TypeParameter) Attributes() []*symbols.AttributeData {
	return p.attrs.Get(func() []*symbols.AttributeData {
		return p.module.RetargetAttributes(p.underlying.Attributes())
	})
}

func (p *TypeParameter) Documentation(ctx context.Context) (string, error) {
	return p.underlying.Documentation(ctx)
}

// ConstraintTypes are rebound by name: constraints are not signature
// positions.
func (p *TypeParameter) ConstraintTypes() []symbols.TypeWithModifiers {
	return p.constraints.Get(func() []symbols.TypeWithModifiers {
		src := p.underlying.ConstraintTypes()
		if len(src) == 0 {
			return nil
		}
		out := make([]symbols.TypeWithModifiers, len(src))
		for i, c := range src {
			out[i] = p.module.RetargetTypeWithModifiers(c, ByName)
		}
		return out
	})
}

func (p *TypeParameter) UseSiteDiagnostic() *diag.Diagnostic {
	if d := p.underlying.UseSiteDiagnostic(); d != nil {
		return d
	}
	return symbols.FirstError(p.ConstraintTypes()...)
}

func (m *Module) retargetTypeParameters(src []symbols.TypeParameterSymbol) []symbols.TypeParameterSymbol {
	if len(src) == 0 {
		return nil
	}
	out := make([]symbols.TypeParameterSymbol, len(src))
	for i, tp := range src {
		out[i] = m.RetargetTypeParameter(tp)
	}
	return out
}
