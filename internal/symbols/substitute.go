package symbols

// TypeMap substitutes type parameters with type arguments. Maps chain to a
// parent so a generic method inside a constructed type sees both levels.
type TypeMap struct {
	mapping map[TypeParameterSymbol]TypeWithModifiers
	parent  *TypeMap
}

// NewTypeMap pairs params with args positionally. Extra entries on either
// side are ignored.
func NewTypeMap(params []TypeParameterSymbol, args []TypeWithModifiers) *TypeMap {
	m := &TypeMap{mapping: make(map[TypeParameterSymbol]TypeWithModifiers, len(params))}
	for i, p := range params {
		if i >= len(args) {
			break
		}
		m.mapping[p] = args[i]
	}
	return m
}

// WithParent returns m chained to parent.
func (m *TypeMap) WithParent(parent *TypeMap) *TypeMap {
	if m == nil {
		return parent
	}
	return &TypeMap{mapping: m.mapping, parent: parent}
}

func (m *TypeMap) lookup(p TypeParameterSymbol) (TypeWithModifiers, bool) {
	for cur := m; cur != nil; cur = cur.parent {
		if t, ok := cur.mapping[p]; ok {
			return t, true
		}
	}
	return TypeWithModifiers{}, false
}

// Substitute applies the map to a type at a signature position, merging the
// position's modifiers in front of any modifiers the substitution carries.
func (m *TypeMap) Substitute(t TypeWithModifiers) TypeWithModifiers {
	if m == nil || t.Type == nil {
		return t
	}
	sub := m.SubstituteType(t.Type)
	mods := m.SubstituteModifiers(t.Modifiers)
	if len(sub.Modifiers) > 0 {
		mods = append(append([]CustomModifier(nil), mods...), sub.Modifiers...)
	}
	if sub.Type == t.Type && len(sub.Modifiers) == 0 && sameModifiers(mods, t.Modifiers) {
		return t
	}
	return TypeWithModifiers{Type: sub.Type, Modifiers: mods}
}

// SubstituteAll applies Substitute element-wise and returns ts itself when
// nothing changed.
func (m *TypeMap) SubstituteAll(ts []TypeWithModifiers) []TypeWithModifiers {
	var out []TypeWithModifiers
	for i, t := range ts {
		s := m.Substitute(t)
		if out == nil && !SameTypeWithModifiers(s, t) {
			out = make([]TypeWithModifiers, len(ts))
			copy(out, ts[:i])
		}
		if out != nil {
			out[i] = s
		}
	}
	if out == nil {
		return ts
	}
	return out
}

// SubstituteModifiers rewrites modifier types; modifiers are never generic
// in practice so this usually returns mods unchanged.
func (m *TypeMap) SubstituteModifiers(mods []CustomModifier) []CustomModifier {
	var out []CustomModifier
	for i, mod := range mods {
		sub := m.SubstituteNamedType(mod.Modifier)
		if out == nil && sub != mod.Modifier {
			out = make([]CustomModifier, len(mods))
			copy(out, mods[:i])
		}
		if out != nil {
			out[i] = CustomModifier{Modifier: sub, Optional: mod.Optional}
		}
	}
	if out == nil {
		return mods
	}
	return out
}

// SubstituteType substitutes a bare type. The result may carry modifiers
// when a type parameter is replaced by an argument that has them.
func (m *TypeMap) SubstituteType(t TypeSymbol) TypeWithModifiers {
	if m == nil || t == nil {
		return Plain(t)
	}
	switch v := t.(type) {
	case TypeParameterSymbol:
		if sub, ok := m.lookup(v); ok {
			return sub
		}
		return Plain(t)
	case *ArrayType:
		return Plain(v.WithElement(m.Substitute(v.Element)))
	case *PointerType:
		return Plain(v.WithPointee(m.Substitute(v.Pointee)))
	case *FunctionPointerType:
		sig := v.Signature
		sig.Return = m.Substitute(sig.Return)
		if len(sig.Params) > 0 {
			params := make([]FunctionPointerParam, len(sig.Params))
			for i, p := range sig.Params {
				p.Type = m.Substitute(p.Type)
				params[i] = p
			}
			sig.Params = params
		}
		return Plain(v.WithSignature(sig))
	case NamedTypeSymbol:
		return Plain(m.SubstituteNamedType(v))
	}
	return Plain(t)
}

// SubstituteNamedType substitutes the type arguments of every level of t.
func (m *TypeMap) SubstituteNamedType(t NamedTypeSymbol) NamedTypeSymbol {
	if m == nil || t == nil || t.IsUnboundGeneric() || !IsGenericType(t) {
		return t
	}
	args := AllTypeArguments(t)
	sub := m.SubstituteAll(args)
	if len(args) > 0 && &sub[0] == &args[0] {
		return t
	}
	return ConstructChain(t.OriginalDefinition(), sub)
}
