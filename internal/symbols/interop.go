package symbols

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	GuidAttributeName           = "System.Runtime.InteropServices.GuidAttribute"
	TypeIdentifierAttributeName = "System.Runtime.InteropServices.TypeIdentifierAttribute"
)

// NormalizeGuid returns the canonical lower-case form of a COM GUID. Braced,
// URN and raw hex spellings are accepted.
func NormalizeGuid(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid guid %q: %w", s, err)
	}
	return id.String(), nil
}

func findAttribute(attrs []*AttributeData, fullName string) *AttributeData {
	for _, a := range attrs {
		if a.IsTargetAttribute(fullName) {
			return a
		}
	}
	return nil
}

// GuidOf reads the GuidAttribute applied to s. Malformed values count as
// absent.
func GuidOf(s Symbol) (string, bool) {
	if s == nil {
		return "", false
	}
	a := findAttribute(s.Attributes(), GuidAttributeName)
	if a == nil || len(a.Args) != 1 {
		return "", false
	}
	raw, ok := a.Args[0].Value.(string)
	if !ok {
		return "", false
	}
	g, err := NormalizeGuid(raw)
	if err != nil {
		return "", false
	}
	return g, true
}

// HasTypeIdentifier reports whether t carries a TypeIdentifierAttribute.
func HasTypeIdentifier(t NamedTypeSymbol) bool {
	return findAttribute(t.Attributes(), TypeIdentifierAttributeName) != nil
}

// TypeIdentifierOf returns the (scope, identifier) pair of an embedded
// interop type. A parameterless attribute takes the scope from the
// containing assembly's GUID and the identifier from the full name.
func TypeIdentifierOf(t NamedTypeSymbol) (scope, identifier string, ok bool) {
	a := findAttribute(t.Attributes(), TypeIdentifierAttributeName)
	if a == nil {
		return "", "", false
	}
	switch len(a.Args) {
	case 0:
		asm := ContainingAssembly(t)
		g, found := GuidOf(asm)
		if !found {
			return "", "", false
		}
		return g, FullName(t), true
	case 2:
		s, ok1 := a.Args[0].Value.(string)
		id, ok2 := a.Args[1].Value.(string)
		if !ok1 || !ok2 {
			return "", "", false
		}
		if g, err := NormalizeGuid(s); err == nil {
			s = g
		}
		return s, id, true
	}
	return "", "", false
}
