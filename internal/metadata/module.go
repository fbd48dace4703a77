package metadata

import (
	"context"
	"sort"
	"strings"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
)

// Module is a metadata module. Its references are bound once by the
// universe (or by the reference resolver for reloaded modules) before any
// symbol is queried.
type Module struct {
	owner   symbols.AssemblySymbol
	def     *ModuleDef
	ordinal int

	refIDs  []symbols.AssemblyIdentity
	refSyms []symbols.AssemblySymbol

	tree     lazy.Cell[*namespaceTree]
	nint     lazy.Cell[symbols.NamedTypeSymbol]
	nuint    lazy.Cell[symbols.NamedTypeSymbol]
	hasLocal lazy.Cell[bool]
}

type namespaceTree struct {
	global *Namespace
	index  map[symbols.MetadataTypeName]*NamedType
}

func newModule(owner symbols.AssemblySymbol, def *ModuleDef, ordinal int) *Module {
	return &Module{owner: owner, def: def, ordinal: ordinal}
}

func (m *Module) Kind() symbols.SymbolKind               { return symbols.SymbolModule }
func (m *Module) Name() string                           { return m.def.Name }
func (m *Module) ContainingSymbol() symbols.Symbol       { return m.owner }
func (m *Module) Attributes() []*symbols.AttributeData   { return nil }
func (m *Module) UseSiteDiagnostic() *diag.Diagnostic    { return nil }
func (m *Module) Ordinal() int                           { return m.ordinal }
func (m *Module) Def() *ModuleDef                        { return m.def }
func (m *Module) ReferencedAssemblies() []symbols.AssemblyIdentity {
	return m.refIDs
}
func (m *Module) ReferencedAssemblySymbols() []symbols.AssemblySymbol { return m.refSyms }

func (m *Module) Documentation(ctx context.Context) (string, error) { return "", ctx.Err() }

// SetReferences binds the module's references. It must be called before
// the module is shared.
func (m *Module) SetReferences(ids []symbols.AssemblyIdentity, syms []symbols.AssemblySymbol) {
	if len(ids) != len(syms) {
		panic("metadata: reference identities and symbols differ in length")
	}
	m.refIDs = ids
	m.refSyms = syms
}

// Reload materialises the module again under owner.
func (m *Module) Reload(owner symbols.AssemblySymbol, ordinal int) symbols.ModuleSymbol {
	n := newModule(owner, m.def, ordinal)
	n.refIDs = m.refIDs
	n.refSyms = m.refSyms
	return n
}

func (m *Module) GlobalNamespace() symbols.NamespaceSymbol { return m.namespaces().global }

func (m *Module) LookupTopLevelType(name symbols.MetadataTypeName) symbols.NamedTypeSymbol {
	if t, ok := m.namespaces().index[name]; ok {
		return t
	}
	return nil
}

func (m *Module) HasExplicitLocalTypes() bool {
	return m.hasLocal.Get(func() bool {
		var walk func(ts []TypeDef) bool
		walk = func(ts []TypeDef) bool {
			for i := range ts {
				if ts[i].TypeIdentifier != nil || hasAttribute(ts[i].Attributes, symbols.TypeIdentifierAttributeName) || walk(ts[i].Nested) {
					return true
				}
			}
			return false
		}
		return walk(m.def.Types)
	})
}

func hasAttribute(attrs []AttributeDef, fullName string) bool {
	for _, a := range attrs {
		if strings.TrimSpace(a.Type[strings.IndexByte(a.Type, ']')+1:]) == fullName {
			return true
		}
	}
	return false
}

func (m *Module) namespaces() *namespaceTree {
	return m.tree.Get(func() *namespaceTree {
		tree := &namespaceTree{index: make(map[symbols.MetadataTypeName]*NamedType, len(m.def.Types))}
		global := &Namespace{module: m}
		tree.global = global
		byName := map[string]*Namespace{"": global}
		var ensure func(qualified string) *Namespace
		ensure = func(qualified string) *Namespace {
			if ns, ok := byName[qualified]; ok {
				return ns
			}
			parentName, simple := "", qualified
			if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
				parentName, simple = qualified[:i], qualified[i+1:]
			}
			parent := ensure(parentName)
			ns := &Namespace{module: m, parent: parent, name: simple}
			parent.children = append(parent.children, ns)
			byName[qualified] = ns
			return ns
		}
		for i := range m.def.Types {
			def := &m.def.Types[i]
			ns := ensure(def.Namespace)
			t := newNamedType(m, ns, def)
			ns.types = append(ns.types, t)
			tree.index[symbols.MetadataTypeName{Namespace: def.Namespace, Name: t.MetadataName()}] = t
		}
		for _, ns := range byName {
			ns.seal()
		}
		return tree
	})
}

func (m *Module) nativeInteger(unsigned bool) symbols.NamedTypeSymbol {
	cell, st := &m.nint, symbols.SpecialIntPtr
	if unsigned {
		cell, st = &m.nuint, symbols.SpecialUIntPtr
	}
	return cell.Get(func() symbols.NamedTypeSymbol {
		return symbols.NewNativeInteger(m.owner.CorLibrary().DeclaredSpecialType(st))
	})
}

// Namespace groups the top-level types of one module.
type Namespace struct {
	module   *Module
	parent   *Namespace
	name     string
	children []*Namespace
	types    []*NamedType
	members  []symbols.Symbol
}

func (n *Namespace) seal() {
	sort.Slice(n.children, func(i, j int) bool { return n.children[i].name < n.children[j].name })
	n.members = make([]symbols.Symbol, 0, len(n.children)+len(n.types))
	for _, c := range n.children {
		n.members = append(n.members, c)
	}
	for _, t := range n.types {
		n.members = append(n.members, t)
	}
}

func (n *Namespace) Kind() symbols.SymbolKind             { return symbols.SymbolNamespace }
func (n *Namespace) Name() string                         { return n.name }
func (n *Namespace) Attributes() []*symbols.AttributeData { return nil }
func (n *Namespace) UseSiteDiagnostic() *diag.Diagnostic  { return nil }
func (n *Namespace) IsGlobal() bool                       { return n.parent == nil }
func (n *Namespace) Members() []symbols.Symbol            { return n.members }

func (n *Namespace) Documentation(ctx context.Context) (string, error) { return "", ctx.Err() }

func (n *Namespace) ContainingSymbol() symbols.Symbol {
	if n.parent == nil {
		return n.module
	}
	return n.parent
}
