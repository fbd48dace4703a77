package retargeting

import (
	"context"
	"sync/atomic"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
)

// Assembly presents an underlying assembly bound to a different set of
// references. Identity, documentation and diagnostics come from the
// underlying assembly; the module list and the embedded interop type
// caches belong to the wrapper.
type Assembly struct {
	underlying symbols.AssemblySymbol
	modules    []symbols.ModuleSymbol
	linked     bool
	opts       Options

	corlib     atomic.Pointer[symbols.AssemblySymbol]
	linkedRefs []symbols.AssemblySymbol
	resolution []symbols.AssemblySymbol

	// localTypes maps each physical local type to its unified type;
	// canonical maps logical identities to the shared result.
	localTypes lazy.Map[symbols.NamedTypeSymbol, symbols.NamedTypeSymbol]
	canonical  lazy.StringMap[symbols.NamedTypeSymbol]

	attrs lazy.Cell[[]*symbols.AttributeData]
}

// NewAssembly wraps underlying. The manifest module becomes a retargeting
// Module; added modules are reloaded under the wrapper when they support
// it and kept as they are otherwise.
func NewAssembly(underlying symbols.AssemblySymbol, isLinked bool, opts Options) *Assembly {
	if underlying == nil {
		panic("retargeting: nil underlying assembly")
	}
	if _, nested := underlying.(*Assembly); nested {
		panic("retargeting: cannot retarget a retargeting assembly")
	}
	a := &Assembly{underlying: underlying, linked: isLinked, opts: opts.withDefaults()}
	src := underlying.Modules()
	a.modules = make([]symbols.ModuleSymbol, len(src))
	for i, m := range src {
		switch {
		case i == 0:
			a.modules[i] = newModule(a, m)
		default:
			if r, ok := m.(symbols.ReloadableModule); ok {
				a.modules[i] = r.Reload(a, i)
			} else {
				a.modules[i] = m
			}
		}
	}
	return a
}

// Underlying returns the wrapped assembly.
func (a *Assembly) Underlying() symbols.AssemblySymbol { return a.underlying }

// RetargetingModule returns the manifest module's translation context.
func (a *Assembly) RetargetingModule() *Module { return a.modules[0].(*Module) }

func (a *Assembly) Kind() symbols.SymbolKind                  { return symbols.SymbolAssembly }
func (a *Assembly) Name() string                              { return a.underlying.Name() }
func (a *Assembly) ContainingSymbol() symbols.Symbol          { return nil }
func (a *Assembly) Identity() symbols.AssemblyIdentity        { return a.underlying.Identity() }
func (a *Assembly) Modules() []symbols.ModuleSymbol           { return a.modules }
func (a *Assembly) GlobalNamespace() symbols.NamespaceSymbol  { return a.modules[0].GlobalNamespace() }
func (a *Assembly) IsLinked() bool                            { return a.linked }
func (a *Assembly) IsMissing() bool                           { return false }
func (a *Assembly) UseSiteDiagnostic() *diag.Diagnostic       { return a.underlying.UseSiteDiagnostic() }
func (a *Assembly) LinkedReferencedAssemblies() []symbols.AssemblySymbol {
	return a.linkedRefs
}
func (a *Assembly) NoPiaResolutionAssemblies() []symbols.AssemblySymbol { return a.resolution }

// IsCoreLibrary is always false: core libraries have no references and are
// never retargeted.
func (a *Assembly) IsCoreLibrary() bool { return false }

func (a *Assembly) Documentation(ctx context.Context) (string, error) {
	return a.underlying.Documentation(ctx)
}

func (a *Assembly) Attributes() []*symbols.AttributeData {
	return a.attrs.Get(func() []*symbols.AttributeData {
		return a.RetargetingModule().RetargetAttributes(a.underlying.Attributes())
	})
}

// SetCorLibrary records the destination core library. It belongs to the
// same single-writer phase as Module.SetReferences.
func (a *Assembly) SetCorLibrary(corlib symbols.AssemblySymbol) {
	a.corlib.Store(&corlib)
}

// SetLinkedReferencedAssemblies stores the assemblies whose interop types
// the consumer embeds.
func (a *Assembly) SetLinkedReferencedAssemblies(asms []symbols.AssemblySymbol) {
	a.linkedRefs = asms
}

// SetNoPiaResolutionAssemblies stores the assemblies searched for canonical
// definitions of embedded interop types.
func (a *Assembly) SetNoPiaResolutionAssemblies(asms []symbols.AssemblySymbol) {
	a.resolution = asms
}

// CorLibrary returns the core library set by the resolver. Without one it
// is the underlying core library seen through the manifest module's
// assembly map.
func (a *Assembly) CorLibrary() symbols.AssemblySymbol {
	if p := a.corlib.Load(); p != nil {
		return *p
	}
	return a.RetargetingModule().RetargetAssembly(a.underlying.CorLibrary())
}

// DeclaredSpecialType must not be called: a retargeted assembly is never
// the core library.
func (a *Assembly) DeclaredSpecialType(st symbols.SpecialType) symbols.NamedTypeSymbol {
	panic("retargeting: special type " + st.String() + " requested from retargeting assembly " + a.Name())
}

// LookupTopLevelType searches the wrapper's modules, then follows the
// underlying assembly's forwarders and retargets what they lead to.
func (a *Assembly) LookupTopLevelType(name symbols.MetadataTypeName, digThroughForwarded bool) symbols.NamedTypeSymbol {
	for _, m := range a.modules {
		if t := m.LookupTopLevelType(name); t != nil {
			return t
		}
	}
	if digThroughForwarded {
		t := a.underlying.LookupTopLevelType(name, true)
		if t != nil && t.Kind() != symbols.SymbolErrorType && symbols.ContainingAssembly(t) != a.underlying {
			return a.RetargetingModule().RetargetNamedType(t, ByName)
		}
	}
	return symbols.NewMissingTopLevelType(a.modules[0], name)
}
