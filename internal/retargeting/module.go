package retargeting

import (
	"context"
	"strconv"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
	"retarget/internal/trace"
)

// DestinationData is the retargeting target of one referenced assembly.
// Types reached through that assembly are resolved by metadata name and
// cached in a map of their own.
type DestinationData struct {
	To        symbols.AssemblySymbol
	SymbolMap lazy.Map[symbols.NamedTypeSymbol, symbols.NamedTypeSymbol]
}

// Module is the retargeting view of an assembly's manifest module and the
// context every translation runs in.
type Module struct {
	assembly   *Assembly
	underlying symbols.ModuleSymbol

	// symbolMap holds one wrapper per underlying symbol.
	symbolMap lazy.Map[symbols.Symbol, symbols.Symbol]

	refIDs      []symbols.AssemblyIdentity
	refSyms     []symbols.AssemblySymbol
	assemblyMap map[symbols.AssemblySymbol]*DestinationData

	// addedModules hold name-based caches for types of the assembly's
	// secondary modules, indexed by module ordinal.
	addedModules lazy.Map[int, *DestinationData]

	embedFrom lazy.Cell[[]symbols.AssemblySymbol]
}

func newModule(a *Assembly, underlying symbols.ModuleSymbol) *Module {
	return &Module{assembly: a, underlying: underlying}
}

// Underlying returns the wrapped module.
func (m *Module) Underlying() symbols.ModuleSymbol { return m.underlying }

// RetargetingAssembly returns the owning assembly.
func (m *Module) RetargetingAssembly() *Assembly { return m.assembly }

func (m *Module) tracer() trace.Tracer { return m.assembly.opts.Tracer }

func (m *Module) Kind() symbols.SymbolKind            { return symbols.SymbolModule }
func (m *Module) Name() string                        { return m.underlying.Name() }
func (m *Module) ContainingSymbol() symbols.Symbol    { return m.assembly }
func (m *Module) Ordinal() int                        { return m.underlying.Ordinal() }
func (m *Module) UseSiteDiagnostic() *diag.Diagnostic { return m.underlying.UseSiteDiagnostic() }
func (m *Module) HasExplicitLocalTypes() bool         { return m.underlying.HasExplicitLocalTypes() }

func (m *Module) ReferencedAssemblies() []symbols.AssemblyIdentity  { return m.refIDs }
func (m *Module) ReferencedAssemblySymbols() []symbols.AssemblySymbol { return m.refSyms }

func (m *Module) Documentation(ctx context.Context) (string, error) {
	return m.underlying.Documentation(ctx)
}

func (m *Module) Attributes() []*symbols.AttributeData {
	return m.RetargetAttributes(m.underlying.Attributes())
}

func (m *Module) GlobalNamespace() symbols.NamespaceSymbol {
	return m.RetargetNamespace(m.underlying.GlobalNamespace())
}

// LookupTopLevelType returns the retargeted type declared by the
// underlying module, or nil.
func (m *Module) LookupTopLevelType(name symbols.MetadataTypeName) symbols.NamedTypeSymbol {
	t := m.underlying.LookupTopLevelType(name)
	if t == nil {
		return nil
	}
	return m.RetargetNamedType(t, ByName)
}

// SetReferences binds the module to its resolved references and rebuilds
// the assembly map. The resolved lists omit linked references; they are
// matched in order against the underlying module's non-linked references
// and every position where the assembly differs is recorded.
//
// SetReferences must be called once, before any other method, by a single
// goroutine.
func (m *Module) SetReferences(ids []symbols.AssemblyIdentity, syms []symbols.AssemblySymbol) {
	if len(ids) != len(syms) {
		panic("retargeting: reference identities and symbols differ in length")
	}
	sp := trace.Begin(m.tracer(), trace.ScopeAssembly, "set-references", 0)
	defer func() {
		sp.Attr("mapped", strconv.Itoa(len(m.assemblyMap))).End(m.assembly.Name())
	}()

	m.refIDs = ids
	m.refSyms = syms
	m.assemblyMap = make(map[symbols.AssemblySymbol]*DestinationData)

	j := 0
	for _, from := range m.underlying.ReferencedAssemblySymbols() {
		if from != nil && from.IsLinked() {
			continue
		}
		if j >= len(syms) {
			panic("retargeting: fewer resolved references than underlying non-linked references")
		}
		to := syms[j]
		j++
		if from == nil || to == from {
			continue
		}
		if _, seen := m.assemblyMap[from]; !seen {
			m.assemblyMap[from] = &DestinationData{To: to}
		}
	}
	if j != len(syms) {
		panic("retargeting: more resolved references than underlying non-linked references")
	}
}

// AssemblyMap returns the destination recorded for each retargeted
// reference. The map must not be modified.
func (m *Module) AssemblyMap() map[symbols.AssemblySymbol]*DestinationData {
	return m.assemblyMap
}

// Destination returns the destination of from, or nil when types of from
// need no retargeting.
func (m *Module) Destination(from symbols.AssemblySymbol) *DestinationData {
	return m.assemblyMap[from]
}

// RetargetAssembly maps an assembly the way references are mapped: the
// underlying assembly becomes the wrapper and remapped references become
// their destination.
func (m *Module) RetargetAssembly(a symbols.AssemblySymbol) symbols.AssemblySymbol {
	if a == nil {
		return nil
	}
	if a == m.assembly.underlying {
		return m.assembly
	}
	if d := m.assemblyMap[a]; d != nil {
		return d.To
	}
	return a
}

// RetargetModule maps modules of the underlying assembly to the wrapper's
// modules and leaves every other module alone.
func (m *Module) RetargetModule(mod symbols.ModuleSymbol) symbols.ModuleSymbol {
	if mod == nil {
		return nil
	}
	if mod == m.underlying {
		return m
	}
	if symbols.ContainingAssembly(mod) == m.assembly.underlying {
		if i := mod.Ordinal(); i >= 0 && i < len(m.assembly.modules) {
			return m.assembly.modules[i]
		}
	}
	return mod
}

// assembliesToEmbedTypesFrom lists the linked references of the underlying
// module.
func (m *Module) assembliesToEmbedTypesFrom() []symbols.AssemblySymbol {
	return m.embedFrom.Get(func() []symbols.AssemblySymbol {
		var out []symbols.AssemblySymbol
		for _, r := range m.underlying.ReferencedAssemblySymbols() {
			if r.IsLinked() {
				out = append(out, r)
			}
		}
		return out
	})
}

// Cached reports how many underlying symbols have a wrapper.
func (m *Module) Cached() int { return m.symbolMap.Len() }
