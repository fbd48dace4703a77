package retargeting

import (
	"context"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
)

// Namespace is a retargeted namespace. Embedded interop types are left out
// of its members; they are only reachable through unification.
type Namespace struct {
	module     *Module
	underlying symbols.NamespaceSymbol

	members lazy.Cell[[]symbols.Symbol]
	attrs   lazy.Cell[[]*symbols.AttributeData]
}

func (n *Namespace) Underlying() symbols.NamespaceSymbol { return n.underlying }

func (n *Namespace) Kind() symbols.SymbolKind            { return symbols.SymbolNamespace }
func (n *Namespace) Name() string                        { return n.underlying.Name() }
func (n *Namespace) IsGlobal() bool                      { return n.underlying.IsGlobal() }
func (n *Namespace) UseSiteDiagnostic() *diag.Diagnostic { return n.underlying.UseSiteDiagnostic() }

func (n *Namespace) ContainingSymbol() symbols.Symbol {
	return n.module.Retarget(n.underlying.ContainingSymbol())
}

func (n *Namespace) Attributes() []*symbols.AttributeData {
	return n.attrs.Get(func() []*symbols.AttributeData {
		return n.module.RetargetAttributes(n.underlying.Attributes())
	})
}

func (n *Namespace) Documentation(ctx context.Context) (string, error) {
	return n.underlying.Documentation(ctx)
}

func (n *Namespace) Members() []symbols.Symbol {
	return n.members.Get(func() []symbols.Symbol {
		src := n.underlying.Members()
		out := make([]symbols.Symbol, 0, len(src))
		for _, s := range src {
			switch v := s.(type) {
			case symbols.NamespaceSymbol:
				out = append(out, n.module.RetargetNamespace(v))
			case symbols.NamedTypeSymbol:
				if v.IsExplicitLocalType() {
					continue
				}
				out = append(out, n.module.RetargetNamedType(v, ByName))
			}
		}
		return out
	})
}
