package symbols

import (
	"strings"

	"retarget/internal/diag"
)

// NamespaceNamer is implemented by types that know their namespace without
// being contained in a namespace symbol, such as missing metadata types.
type NamespaceNamer interface {
	NamespaceName() string
}

// ContainingAssembly walks the containment chain up to the assembly.
func ContainingAssembly(s Symbol) AssemblySymbol {
	for cur := s; cur != nil; cur = cur.ContainingSymbol() {
		if a, ok := cur.(AssemblySymbol); ok {
			return a
		}
	}
	return nil
}

// ContainingModule returns the module that declares s.
func ContainingModule(s Symbol) ModuleSymbol {
	for cur := s; cur != nil; cur = cur.ContainingSymbol() {
		if m, ok := cur.(ModuleSymbol); ok {
			return m
		}
	}
	return nil
}

// ContainingType returns the directly enclosing named type, or nil.
func ContainingType(s Symbol) NamedTypeSymbol {
	if s == nil {
		return nil
	}
	t, _ := s.ContainingSymbol().(NamedTypeSymbol)
	return t
}

// ContainingNamespace returns the nearest enclosing namespace.
func ContainingNamespace(s Symbol) NamespaceSymbol {
	if s == nil {
		return nil
	}
	for cur := s.ContainingSymbol(); cur != nil; cur = cur.ContainingSymbol() {
		if ns, ok := cur.(NamespaceSymbol); ok {
			return ns
		}
	}
	return nil
}

// QualifiedNamespaceName joins namespace names from the global namespace
// down to ns.
func QualifiedNamespaceName(ns NamespaceSymbol) string {
	var parts []string
	for cur := ns; cur != nil && !cur.IsGlobal(); {
		parts = append(parts, cur.Name())
		parent, ok := cur.ContainingSymbol().(NamespaceSymbol)
		if !ok {
			break
		}
		cur = parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// NamespaceOf returns the namespace of the outermost type of t.
func NamespaceOf(t NamedTypeSymbol) string {
	outer := t
	for {
		c := ContainingType(outer)
		if c == nil {
			break
		}
		outer = c
	}
	if n, ok := outer.(NamespaceNamer); ok {
		return n.NamespaceName()
	}
	return QualifiedNamespaceName(ContainingNamespace(outer))
}

// FullName returns the metadata name qualified by namespace, with nested
// types joined by '+'.
func FullName(t NamedTypeSymbol) string {
	if t == nil {
		return ""
	}
	if c := ContainingType(t); c != nil {
		return FullName(c) + "+" + t.MetadataName()
	}
	ns := NamespaceOf(t)
	if ns == "" {
		return t.MetadataName()
	}
	return ns + "." + t.MetadataName()
}

// MetadataTypeNameOf returns the lookup key of a top-level type.
func MetadataTypeNameOf(t NamedTypeSymbol) MetadataTypeName {
	return MetadataTypeName{Namespace: NamespaceOf(t), Name: t.MetadataName()}
}

// TypeMembers returns the nested types of t with the given name and arity.
func TypeMembers(t NamedTypeSymbol, name string, arity int) []NamedTypeSymbol {
	var out []NamedTypeSymbol
	for _, m := range t.Members() {
		nt, ok := m.(NamedTypeSymbol)
		if ok && nt.Name() == name && nt.Arity() == arity {
			out = append(out, nt)
		}
	}
	return out
}

// MembersNamed returns the non-type members of t with the given name.
func MembersNamed(t NamedTypeSymbol, name string) []Symbol {
	var out []Symbol
	for _, m := range t.Members() {
		if _, isType := m.(NamedTypeSymbol); isType {
			continue
		}
		if m.Name() == name {
			out = append(out, m)
		}
	}
	return out
}

// NamespaceMembers splits the members of ns into namespaces and types.
func NamespaceMembers(ns NamespaceSymbol) ([]NamespaceSymbol, []NamedTypeSymbol) {
	var nss []NamespaceSymbol
	var types []NamedTypeSymbol
	for _, m := range ns.Members() {
		switch v := m.(type) {
		case NamespaceSymbol:
			nss = append(nss, v)
		case NamedTypeSymbol:
			types = append(types, v)
		}
	}
	return nss, types
}

// IsDefinition reports whether s is its own original definition.
func IsDefinition(s Symbol) bool {
	switch v := s.(type) {
	case NamedTypeSymbol:
		return v.OriginalDefinition() == v
	case MethodSymbol:
		return v.OriginalDefinition() == v
	case FieldSymbol:
		return v.OriginalDefinition() == v
	case PropertySymbol:
		return v.OriginalDefinition() == v
	case EventSymbol:
		return v.OriginalDefinition() == v
	}
	return true
}

// IsGenericType reports whether t or any containing type has type
// arguments.
func IsGenericType(t NamedTypeSymbol) bool {
	for cur := t; cur != nil; cur = ContainingType(cur) {
		if cur.Arity() > 0 {
			return true
		}
	}
	return false
}

// AllTypeArguments returns the type arguments of t and its containers,
// outermost level first.
func AllTypeArguments(t NamedTypeSymbol) []TypeWithModifiers {
	var levels [][]TypeWithModifiers
	for cur := t; cur != nil; cur = ContainingType(cur) {
		levels = append(levels, cur.TypeArguments())
	}
	var out []TypeWithModifiers
	for i := len(levels) - 1; i >= 0; i-- {
		out = append(out, levels[i]...)
	}
	return out
}

// AllTypeParameters mirrors AllTypeArguments for the definition chain.
func AllTypeParameters(t NamedTypeSymbol) []TypeParameterSymbol {
	var levels [][]TypeParameterSymbol
	for cur := t; cur != nil; cur = ContainingType(cur) {
		levels = append(levels, cur.TypeParameters())
	}
	var out []TypeParameterSymbol
	for i := len(levels) - 1; i >= 0; i-- {
		out = append(out, levels[i]...)
	}
	return out
}

// TypeChain returns t and its containing types, outermost first.
func TypeChain(t NamedTypeSymbol) []NamedTypeSymbol {
	var chain []NamedTypeSymbol
	for cur := t; cur != nil; cur = ContainingType(cur) {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// SpecialTypeOf asks the core library of asm for a special type.
func SpecialTypeOf(asm AssemblySymbol, st SpecialType) NamedTypeSymbol {
	return asm.CorLibrary().DeclaredSpecialType(st)
}

// FirstError returns the first error-severity use-site diagnostic among the
// given types and their custom modifiers.
func FirstError(ts ...TypeWithModifiers) *diag.Diagnostic {
	for _, t := range ts {
		if t.Type != nil {
			if d := t.Type.UseSiteDiagnostic(); d.IsError() {
				return d
			}
		}
		for _, m := range t.Modifiers {
			if m.Modifier == nil {
				continue
			}
			if d := m.Modifier.UseSiteDiagnostic(); d.IsError() {
				return d
			}
		}
	}
	return nil
}
