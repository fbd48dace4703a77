package retargeting

import "retarget/internal/symbols"

// RetargetAttributes rebuilds every attribute against the destination
// graph. Attributes whose constructor vanished keep their class and lose
// the constructor.
func (m *Module) RetargetAttributes(attrs []*symbols.AttributeData) []*symbols.AttributeData {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]*symbols.AttributeData, len(attrs))
	for i, a := range attrs {
		out[i] = m.retargetAttribute(a)
	}
	return out
}

func (m *Module) retargetAttribute(a *symbols.AttributeData) *symbols.AttributeData {
	r := &symbols.AttributeData{Constructor: m.RetargetMethod(a.Constructor)}
	if r.Constructor != nil {
		r.Class = symbols.ContainingType(r.Constructor)
	}
	if r.Class == nil {
		r.Class = m.RetargetNamedType(a.Class, ByName)
	}
	if len(a.Args) > 0 {
		r.Args = make([]symbols.TypedConstant, len(a.Args))
		for i, c := range a.Args {
			r.Args[i] = m.retargetConstant(c)
		}
	}
	if len(a.Named) > 0 {
		r.Named = make([]symbols.NamedArgument, len(a.Named))
		for i, n := range a.Named {
			r.Named[i] = symbols.NamedArgument{Name: n.Name, IsField: n.IsField, Value: m.retargetConstant(n.Value)}
		}
	}
	return r
}

func (m *Module) retargetConstant(c symbols.TypedConstant) symbols.TypedConstant {
	out := symbols.TypedConstant{Kind: c.Kind, Type: m.RetargetType(c.Type, ByTypeCode), Value: c.Value}
	switch c.Kind {
	case symbols.ConstType:
		if t, ok := c.Value.(symbols.TypeSymbol); ok {
			out.Value = m.RetargetType(t, ByTypeCode)
		}
	case symbols.ConstArray:
		if len(c.Values) > 0 {
			out.Values = make([]symbols.TypedConstant, len(c.Values))
			for i, v := range c.Values {
				out.Values[i] = m.retargetConstant(v)
			}
		}
	}
	return out
}

// RetargetMarshal returns mi itself unless one of its type references
// changed.
func (m *Module) RetargetMarshal(mi *symbols.MarshalInfo) *symbols.MarshalInfo {
	if mi == nil {
		return nil
	}
	sub := m.RetargetType(mi.SafeArrayUserDefinedSubtype, ByName)
	cm := m.RetargetType(mi.CustomMarshaler, ByName)
	if sub == mi.SafeArrayUserDefinedSubtype && cm == mi.CustomMarshaler {
		return mi
	}
	out := *mi
	out.SafeArrayUserDefinedSubtype = sub
	out.CustomMarshaler = cm
	return &out
}
