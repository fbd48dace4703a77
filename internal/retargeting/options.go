package retargeting

import (
	"retarget/internal/symbols"
	"retarget/internal/trace"
)

// RetargetOptions selects how primitive types are rebound.
type RetargetOptions uint8

const (
	// ByName resolves primitives like any other type reference.
	ByName RetargetOptions = iota
	// ByTypeCode maps primitives straight to the destination core library.
	// Signature positions encode primitives as type codes, so they use it.
	ByTypeCode
)

func (o RetargetOptions) String() string {
	if o == ByTypeCode {
		return "by-type-code"
	}
	return "by-name"
}

// LocalTypePolicy decides whether t must be unified as an embedded interop
// type instead of being retargeted by identity or name.
type LocalTypePolicy func(m *Module, t symbols.NamedTypeSymbol) bool

// DefaultLocalTypePolicy treats explicit local types of the module itself
// and every type of a linked assembly as local.
func DefaultLocalTypePolicy(m *Module, t symbols.NamedTypeSymbol) bool {
	if symbols.ContainingModule(t) == m.underlying {
		return t.IsExplicitLocalType()
	}
	asm := symbols.ContainingAssembly(t)
	return asm != nil && asm.IsLinked()
}

// ExplicitOnlyLocalTypePolicy ignores linked assemblies.
func ExplicitOnlyLocalTypePolicy(m *Module, t symbols.NamedTypeSymbol) bool {
	return symbols.ContainingModule(t) == m.underlying && t.IsExplicitLocalType()
}

// Options configure an Assembly.
type Options struct {
	Tracer          trace.Tracer
	LocalTypePolicy LocalTypePolicy
}

func (o Options) withDefaults() Options {
	if o.Tracer == nil {
		o.Tracer = trace.Nop
	}
	if o.LocalTypePolicy == nil {
		o.LocalTypePolicy = DefaultLocalTypePolicy
	}
	return o
}
