package metadata

import (
	"context"
	"fmt"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
)

// maxForwardingDepth bounds chains of type forwarders.
const maxForwardingDepth = 32

// Assembly is a metadata assembly materialised from an AssemblyDef.
// A linked instance is a second materialisation of the same definition
// used when a reference embeds its interop types.
type Assembly struct {
	def      *AssemblyDef
	identity symbols.AssemblyIdentity
	modules  []symbols.ModuleSymbol
	linked   bool

	linkedRefs []symbols.AssemblySymbol
	resolution []symbols.AssemblySymbol

	corlib  lazy.Cell[symbols.AssemblySymbol]
	special lazy.Map[symbols.SpecialType, symbols.NamedTypeSymbol]
	attrs   lazy.Cell[[]*symbols.AttributeData]
}

func newAssembly(def *AssemblyDef, linked bool) (*Assembly, error) {
	ver, err := symbols.ParseVersion(def.Version)
	if err != nil {
		return nil, fmt.Errorf("assembly %s: %w", def.Name, err)
	}
	a := &Assembly{
		def:      def,
		identity: symbols.AssemblyIdentity{Name: def.Name, Version: ver, PublicKeyToken: def.PublicKeyToken},
		linked:   linked,
	}
	a.modules = make([]symbols.ModuleSymbol, len(def.Modules))
	for i := range def.Modules {
		a.modules[i] = newModule(a, &def.Modules[i], i)
	}
	return a, nil
}

func (a *Assembly) Kind() symbols.SymbolKind                { return symbols.SymbolAssembly }
func (a *Assembly) Name() string                            { return a.identity.Name }
func (a *Assembly) ContainingSymbol() symbols.Symbol        { return nil }
func (a *Assembly) UseSiteDiagnostic() *diag.Diagnostic     { return nil }
func (a *Assembly) Identity() symbols.AssemblyIdentity      { return a.identity }
func (a *Assembly) Modules() []symbols.ModuleSymbol         { return a.modules }
func (a *Assembly) IsLinked() bool                          { return a.linked }
func (a *Assembly) IsMissing() bool                         { return false }
func (a *Assembly) IsCoreLibrary() bool                     { return a.def.CoreLibrary }
func (a *Assembly) Def() *AssemblyDef                       { return a.def }
func (a *Assembly) GlobalNamespace() symbols.NamespaceSymbol { return a.modules[0].GlobalNamespace() }

func (a *Assembly) LinkedReferencedAssemblies() []symbols.AssemblySymbol { return a.linkedRefs }
func (a *Assembly) NoPiaResolutionAssemblies() []symbols.AssemblySymbol  { return a.resolution }

func (a *Assembly) Documentation(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.def.Doc, nil
}

func (a *Assembly) Attributes() []*symbols.AttributeData {
	return a.attrs.Get(func() []*symbols.AttributeData {
		m := a.modules[0].(*Module)
		attrs := m.bindAttributes(a.def.Attributes, bindContext{module: m})
		if a.def.Guid != "" {
			attrs = append(attrs, m.guidAttribute(a.def.Guid))
		}
		return attrs
	})
}

// CorLibrary is the assembly itself for core libraries, otherwise the core
// library among the manifest module's references.
func (a *Assembly) CorLibrary() symbols.AssemblySymbol {
	return a.corlib.Get(func() symbols.AssemblySymbol {
		if a.def.CoreLibrary {
			return a
		}
		for _, r := range a.modules[0].ReferencedAssemblySymbols() {
			if c, ok := r.(interface{ IsCoreLibrary() bool }); ok && c.IsCoreLibrary() {
				return r
			}
		}
		return symbols.NewMissingAssembly(symbols.AssemblyIdentity{Name: "mscorlib"})
	})
}

// DeclaredSpecialType finds a special type among the assembly's own types.
// Absent special types come back as missing metadata types.
func (a *Assembly) DeclaredSpecialType(st symbols.SpecialType) symbols.NamedTypeSymbol {
	return a.special.GetOrAdd(st, func(st symbols.SpecialType) symbols.NamedTypeSymbol {
		name := symbols.TopLevelName(st.MetadataFullName())
		if t := a.LookupDeclared(name); t != nil {
			return t
		}
		return symbols.NewMissingTopLevelType(a.modules[0], name)
	})
}

// LookupDeclared searches the assembly's own modules and returns nil when
// no module declares the type.
func (a *Assembly) LookupDeclared(name symbols.MetadataTypeName) symbols.NamedTypeSymbol {
	for _, m := range a.modules {
		if t := m.LookupTopLevelType(name); t != nil {
			return t
		}
	}
	return nil
}

func (a *Assembly) LookupTopLevelType(name symbols.MetadataTypeName, digThroughForwarded bool) symbols.NamedTypeSymbol {
	return a.lookupTopLevel(name, digThroughForwarded, 0)
}

func (a *Assembly) lookupTopLevel(name symbols.MetadataTypeName, dig bool, depth int) symbols.NamedTypeSymbol {
	if t := a.LookupDeclared(name); t != nil {
		return t
	}
	if dig {
		if target := a.ForwardedTo(name); target != nil {
			if depth >= maxForwardingDepth {
				loc := diag.Location{Assembly: a.identity.Name, Symbol: name.FullName()}
				info := diag.Errorf(diag.MetaForwardingCycle, loc,
					fmt.Sprintf("type forwarding for '%s' forms a cycle", name.FullName()))
				plain, arity := name.Unmangled()
				return symbols.NewExtendedErrorType(a.modules[0], name.Namespace, plain, arity, info, nil)
			}
			if next, ok := target.(*Assembly); ok {
				return next.lookupTopLevel(name, true, depth+1)
			}
			return target.LookupTopLevelType(name, true)
		}
	}
	return symbols.NewMissingTopLevelType(a.modules[0], name)
}

// ForwardedTo returns the assembly a type forwarder sends name to, or nil.
func (a *Assembly) ForwardedTo(name symbols.MetadataTypeName) symbols.AssemblySymbol {
	full := name.FullName()
	for _, m := range a.modules {
		mod := m.(*Module)
		for _, f := range mod.def.Forwarders {
			if f.Type != full {
				continue
			}
			for _, r := range mod.ReferencedAssemblySymbols() {
				if r.Identity().Name == f.Assembly {
					return r
				}
			}
			return symbols.NewMissingAssembly(symbols.AssemblyIdentity{Name: f.Assembly})
		}
	}
	return nil
}

// ForwardedTypeNames lists every forwarded type name.
func (a *Assembly) ForwardedTypeNames() []symbols.MetadataTypeName {
	var out []symbols.MetadataTypeName
	for _, m := range a.modules {
		for _, f := range m.(*Module).def.Forwarders {
			out = append(out, symbols.TopLevelName(f.Type))
		}
	}
	return out
}
