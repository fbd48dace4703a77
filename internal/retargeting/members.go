package retargeting

import (
	"retarget/internal/symbols"
	"retarget/internal/trace"
)

func (m *Module) ownsDefinition(s symbols.Symbol) bool {
	return symbols.ContainingModule(s) == m.underlying && symbols.IsDefinition(s)
}

func (m *Module) wrap(s symbols.Symbol, create func() symbols.Symbol) symbols.Symbol {
	return m.symbolMap.GetOrAdd(s, func(symbols.Symbol) symbols.Symbol { return create() })
}

// RetargetMethod returns nil when the destination no longer declares a
// matching method.
func (m *Module) RetargetMethod(meth symbols.MethodSymbol) symbols.MethodSymbol {
	if meth == nil {
		return nil
	}
	if _, own := meth.(*Method); own {
		return meth
	}
	if m.ownsDefinition(meth) {
		return m.wrap(meth, func() symbols.Symbol { return &Method{module: m, underlying: meth} }).(symbols.MethodSymbol)
	}
	if from := meth.ConstructedFrom(); from != meth {
		rf := m.RetargetMethod(from)
		if rf == nil {
			return nil
		}
		args := meth.TypeArguments()
		changed := rf != from
		newArgs := make([]symbols.TypeWithModifiers, len(args))
		for i, a := range args {
			newArgs[i] = m.RetargetTypeWithModifiers(a, ByTypeCode)
			if !symbols.SameTypeWithModifiers(newArgs[i], a) {
				changed = true
			}
		}
		if !changed {
			return meth
		}
		return symbols.ConstructMethod(rf, newArgs)
	}
	r, _ := m.relocateMember(meth).(symbols.MethodSymbol)
	return r
}

func (m *Module) RetargetField(f symbols.FieldSymbol) symbols.FieldSymbol {
	if f == nil {
		return nil
	}
	if _, own := f.(*Field); own {
		return f
	}
	if m.ownsDefinition(f) {
		return m.wrap(f, func() symbols.Symbol { return &Field{module: m, underlying: f} }).(symbols.FieldSymbol)
	}
	r, _ := m.relocateMember(f).(symbols.FieldSymbol)
	return r
}

func (m *Module) RetargetProperty(p symbols.PropertySymbol) symbols.PropertySymbol {
	if p == nil {
		return nil
	}
	if _, own := p.(*Property); own {
		return p
	}
	if m.ownsDefinition(p) {
		return m.wrap(p, func() symbols.Symbol { return &Property{module: m, underlying: p} }).(symbols.PropertySymbol)
	}
	r, _ := m.relocateMember(p).(symbols.PropertySymbol)
	return r
}

func (m *Module) RetargetEvent(e symbols.EventSymbol) symbols.EventSymbol {
	if e == nil {
		return nil
	}
	if _, own := e.(*Event); own {
		return e
	}
	if m.ownsDefinition(e) {
		return m.wrap(e, func() symbols.Symbol { return &Event{module: m, underlying: e} }).(symbols.EventSymbol)
	}
	r, _ := m.relocateMember(e).(symbols.EventSymbol)
	return r
}

// RetargetParameter returns the parameter at the same ordinal of the
// retargeted owner.
func (m *Module) RetargetParameter(p symbols.ParameterSymbol) symbols.ParameterSymbol {
	if p == nil {
		return nil
	}
	if _, own := p.(*Parameter); own {
		return p
	}
	var params []symbols.ParameterSymbol
	switch owner := p.ContainingSymbol().(type) {
	case symbols.MethodSymbol:
		r := m.RetargetMethod(owner)
		if r == nil {
			return nil
		}
		params = r.Parameters()
	case symbols.PropertySymbol:
		r := m.RetargetProperty(owner)
		if r == nil {
			return nil
		}
		params = r.Parameters()
	default:
		return p
	}
	if i := p.Ordinal(); i >= 0 && i < len(params) {
		return params[i]
	}
	return nil
}

// relocateMember finds member in the retargeted containing type. Own
// types are mapped through their definitions; foreign types are searched
// by signature with every type retargeted by type code.
func (m *Module) relocateMember(member symbols.Symbol) symbols.Symbol {
	ct := symbols.ContainingType(member)
	if ct == nil {
		return member
	}
	rt := m.RetargetNamedType(ct, ByName)
	if rt == ct {
		return member
	}
	if w, ok := rt.OriginalDefinition().(*NamedType); ok && w.module == m && w.underlying == ct.OriginalDefinition() {
		def := m.Retarget(symbols.OriginalDefinitionOf(member))
		return symbols.MemberIn(rt, def)
	}
	if rt.Kind() == symbols.SymbolErrorType {
		return nil
	}
	found := symbols.FindBySignature(rt, symbols.SignatureOf(member, m.signatureMapper))
	if found == nil {
		trace.Point(m.tracer(), trace.ScopeSymbol, "retarget.missing-member",
			symbols.FullName(ct)+"."+member.Name(), map[string]string{"in": symbols.DisplayString(rt)})
	}
	return found
}

func (m *Module) signatureMapper(t symbols.TypeWithModifiers) symbols.TypeWithModifiers {
	return m.RetargetTypeWithModifiers(t, ByTypeCode)
}

func (m *Module) retargetMethods(src []symbols.MethodSymbol) []symbols.MethodSymbol {
	if len(src) == 0 {
		return nil
	}
	out := make([]symbols.MethodSymbol, 0, len(src))
	for _, s := range src {
		if r := m.RetargetMethod(s); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m *Module) retargetProperties(src []symbols.PropertySymbol) []symbols.PropertySymbol {
	if len(src) == 0 {
		return nil
	}
	out := make([]symbols.PropertySymbol, 0, len(src))
	for _, s := range src {
		if r := m.RetargetProperty(s); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m *Module) retargetEvents(src []symbols.EventSymbol) []symbols.EventSymbol {
	if len(src) == 0 {
		return nil
	}
	out := make([]symbols.EventSymbol, 0, len(src))
	for _, s := range src {
		if r := m.RetargetEvent(s); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// retargetAssociated maps the property or event a method or field belongs
// to.
func (m *Module) retargetAssociated(s symbols.Symbol) symbols.Symbol {
	if s == nil {
		return nil
	}
	return m.Retarget(s)
}
