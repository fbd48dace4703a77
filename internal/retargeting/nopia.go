package retargeting

import (
	"strings"

	"retarget/internal/diag"
	"retarget/internal/symbols"
	"retarget/internal/trace"
)

// localTypeIdentity is the logical identity of an embedded interop type.
// Physically distinct local types with equal identities unify to the same
// canonical type.
type localTypeIdentity struct {
	fullName   string
	kind       symbols.TypeKind
	guid       string
	scope      string
	identifier string
}

func (k localTypeIdentity) key() string {
	return strings.Join([]string{k.fullName, k.kind.String(), k.guid, k.scope, k.identifier}, "|")
}

// retargetLocalType replaces an embedded interop type with its canonical
// definition from the resolution assemblies, or with a sentinel saying why
// there is none.
func (m *Module) retargetLocalType(t symbols.NamedTypeSymbol) symbols.NamedTypeSymbol {
	return m.assembly.localTypes.GetOrAdd(t, func(symbols.NamedTypeSymbol) symbols.NamedTypeSymbol {
		r := m.unifyLocalType(t)
		if r.Kind() == symbols.SymbolErrorType {
			trace.Point(m.tracer(), trace.ScopeSymbol, "retarget.local-type", symbols.FullName(t),
				map[string]string{"code": r.UseSiteDiagnostic().Code.ID()})
		}
		return r
	})
}

func (m *Module) unifyLocalType(t symbols.NamedTypeSymbol) symbols.NamedTypeSymbol {
	if symbols.ContainingType(t) != nil {
		return symbols.NewUnsupportedMetadataType(t, diag.RetUnsupportedLocalType, "embedded interop types cannot be nested")
	}
	if t.Arity() > 0 {
		return symbols.NewUnsupportedMetadataType(t, diag.RetUnsupportedLocalType, "embedded interop types cannot be generic")
	}
	switch t.TypeKind() {
	case symbols.TypeKindInterface, symbols.TypeKindStruct, symbols.TypeKindEnum, symbols.TypeKindDelegate:
	default:
		return symbols.NewUnsupportedMetadataType(t, diag.RetUnsupportedLocalType,
			"embedded interop types must be interfaces, structs, enums or delegates")
	}

	id := localTypeIdentity{fullName: symbols.FullName(t), kind: t.TypeKind()}
	if t.TypeKind() == symbols.TypeKindInterface {
		id.guid, _ = symbols.GuidOf(t)
	}
	if symbols.ContainingModule(t) == m.underlying {
		id.scope, id.identifier, _ = symbols.TypeIdentifierOf(t)
	}
	return m.assembly.canonical.GetOrAdd(id.key(), func(string) symbols.NamedTypeSymbol {
		return m.findCanonicalType(id)
	})
}

func (m *Module) findCanonicalType(id localTypeIdentity) symbols.NamedTypeSymbol {
	name := symbols.TopLevelName(id.fullName)
	var found []symbols.NamedTypeSymbol
	for _, asm := range m.assembly.NoPiaResolutionAssemblies() {
		if asm == nil || asm.IsMissing() || asm.IsLinked() ||
			asm == symbols.AssemblySymbol(m.assembly) || asm == m.assembly.underlying {
			continue
		}
		c := asm.LookupTopLevelType(name, false)
		if c == nil || !isCanonicalCandidate(c, id) {
			continue
		}
		found = append(found, c)
		if len(found) == 2 {
			break
		}
	}
	switch len(found) {
	case 0:
		return symbols.NewNoPiaMissingCanonicalType(m.assembly, id.fullName, id.guid, id.scope, id.identifier)
	case 1:
		return found[0]
	}
	return symbols.NewNoPiaAmbiguousCanonicalType(m.assembly, found[0], found[1])
}

func isCanonicalCandidate(c symbols.NamedTypeSymbol, id localTypeIdentity) bool {
	if c.Kind() == symbols.SymbolErrorType || c.Accessibility() != symbols.AccessPublic ||
		c.IsExplicitLocalType() || c.TypeKind() != id.kind {
		return false
	}
	if id.kind == symbols.TypeKindInterface {
		g, ok := symbols.GuidOf(c)
		return ok && g == id.guid
	}
	if id.identifier == "" {
		return true
	}
	scope, ok := symbols.GuidOf(symbols.ContainingAssembly(c))
	return ok && scope == id.scope && symbols.FullName(c) == id.identifier
}

// isNoPiaIllegalGenericInstantiation reports whether any argument up to the
// innermost non-interface level is closed over an embedded interop type.
// Arguments of nested interfaces are exempt.
func (m *Module) isNoPiaIllegalGenericInstantiation(t symbols.NamedTypeSymbol, args []symbols.TypeWithModifiers) bool {
	chain := symbols.TypeChain(t)
	end, pos := 0, 0
	for _, level := range chain {
		pos += level.Arity()
		if level.TypeKind() != symbols.TypeKindInterface {
			end = pos
		}
	}
	for _, a := range args[:end] {
		if m.isOrClosedOverLocalType(a.Type) {
			return true
		}
	}
	return false
}

func (m *Module) isOrClosedOverLocalType(t symbols.TypeSymbol) bool {
	switch v := t.(type) {
	case nil:
		return false
	case *symbols.ArrayType:
		return m.isOrClosedOverLocalType(v.Element.Type)
	case *symbols.PointerType:
		return m.isOrClosedOverLocalType(v.Pointee.Type)
	case symbols.NamedTypeSymbol:
		if m.isLocalTypeOrigin(v.OriginalDefinition()) {
			return true
		}
		for cur := v; cur != nil; cur = symbols.ContainingType(cur) {
			if cur.OriginalDefinition() == cur {
				continue
			}
			for _, a := range cur.TypeArguments() {
				if m.isOrClosedOverLocalType(a.Type) {
					return true
				}
			}
		}
	}
	return false
}

func (m *Module) isLocalTypeOrigin(def symbols.NamedTypeSymbol) bool {
	if symbols.ContainingModule(def) == m.underlying {
		return def.IsExplicitLocalType()
	}
	asm := symbols.ContainingAssembly(def)
	if asm == nil {
		return false
	}
	for _, l := range m.assembliesToEmbedTypesFrom() {
		if l == asm {
			return true
		}
	}
	for _, l := range m.assembly.LinkedReferencedAssemblies() {
		if l == asm {
			return true
		}
	}
	return false
}
