package symbols

// SignatureParam is one parameter position of a member signature.
type SignatureParam struct {
	Type         TypeWithModifiers
	RefKind      RefKind
	RefModifiers []CustomModifier
}

// MemberSignature is a value descriptor used to find the member of a type
// that corresponds to a member of another version of that type. Method
// type parameters are replaced with indexed placeholders so signatures of
// different methods can be compared.
type MemberSignature struct {
	Name         string
	Kind         SymbolKind
	Arity        int
	Static       bool
	Return       TypeWithModifiers
	RefKind      RefKind
	RefModifiers []CustomModifier
	Params       []SignatureParam
}

// TypeMapper rewrites a signature type, typically by retargeting it.
type TypeMapper func(TypeWithModifiers) TypeWithModifiers

// SignatureOf builds the signature of a method, field, property or event,
// passing every type through mapType after method type parameters have
// been replaced by placeholders. A nil mapType leaves types unchanged.
func SignatureOf(member Symbol, mapType TypeMapper) MemberSignature {
	if mapType == nil {
		mapType = func(t TypeWithModifiers) TypeWithModifiers { return t }
	}
	switch m := member.(type) {
	case MethodSymbol:
		var idx *TypeMap
		if m.Arity() > 0 {
			idx = NewTypeMap(m.TypeParameters(), PlainAll(IndexedTypeParameters(m.Arity())))
		}
		conv := func(t TypeWithModifiers) TypeWithModifiers { return mapType(idx.Substitute(t)) }
		sig := MemberSignature{
			Name:         m.Name(),
			Kind:         SymbolMethod,
			Arity:        m.Arity(),
			Static:       m.Flags().Has(MemberStatic),
			Return:       conv(m.ReturnType()),
			RefKind:      m.RefKind(),
			RefModifiers: mapModifiers(m.RefCustomModifiers(), conv),
		}
		sig.Params = signatureParams(m.Parameters(), conv)
		return sig
	case FieldSymbol:
		return MemberSignature{
			Name:   m.Name(),
			Kind:   SymbolField,
			Static: m.Flags().Has(MemberStatic),
			Return: mapType(m.Type()),
		}
	case PropertySymbol:
		return MemberSignature{
			Name:         m.Name(),
			Kind:         SymbolProperty,
			Static:       m.Flags().Has(MemberStatic),
			Return:       mapType(m.Type()),
			RefKind:      m.RefKind(),
			RefModifiers: mapModifiers(m.RefCustomModifiers(), mapType),
			Params:       signatureParams(m.Parameters(), mapType),
		}
	case EventSymbol:
		return MemberSignature{
			Name:   m.Name(),
			Kind:   SymbolEvent,
			Static: m.Flags().Has(MemberStatic),
			Return: mapType(m.Type()),
		}
	}
	return MemberSignature{Name: member.Name(), Kind: member.Kind()}
}

func signatureParams(params []ParameterSymbol, conv TypeMapper) []SignatureParam {
	if len(params) == 0 {
		return nil
	}
	out := make([]SignatureParam, len(params))
	for i, p := range params {
		out[i] = SignatureParam{
			Type:         conv(p.Type()),
			RefKind:      p.RefKind(),
			RefModifiers: mapModifiers(p.RefCustomModifiers(), conv),
		}
	}
	return out
}

func mapModifiers(mods []CustomModifier, conv TypeMapper) []CustomModifier {
	if len(mods) == 0 {
		return nil
	}
	out := make([]CustomModifier, len(mods))
	for i, m := range mods {
		mapped, _ := conv(Plain(m.Modifier)).Type.(NamedTypeSymbol)
		out[i] = CustomModifier{Modifier: mapped, Optional: m.Optional}
	}
	return out
}

// Matches reports whether two signatures describe the same member.
func (s MemberSignature) Matches(o MemberSignature) bool {
	if s.Name != o.Name || s.Kind != o.Kind || s.Arity != o.Arity ||
		s.Static != o.Static || s.RefKind != o.RefKind ||
		len(s.Params) != len(o.Params) {
		return false
	}
	if !TypeWithModifiersEqual(s.Return, o.Return) || !ModifiersEqual(s.RefModifiers, o.RefModifiers) {
		return false
	}
	for i := range s.Params {
		a, b := s.Params[i], o.Params[i]
		if a.RefKind != b.RefKind || !TypeWithModifiersEqual(a.Type, b.Type) ||
			!ModifiersEqual(a.RefModifiers, b.RefModifiers) {
			return false
		}
	}
	return true
}

// FindBySignature returns the member of t named like sig whose signature
// matches, or nil. Candidate signatures are taken as-is.
func FindBySignature(t NamedTypeSymbol, sig MemberSignature) Symbol {
	for _, cand := range MembersNamed(t, sig.Name) {
		if cand.Kind() != sig.Kind {
			continue
		}
		if SignatureOf(cand, nil).Matches(sig) {
			return cand
		}
	}
	return nil
}
