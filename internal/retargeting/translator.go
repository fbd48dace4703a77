package retargeting

import (
	"fmt"

	"retarget/internal/symbols"
	"retarget/internal/trace"
)

// Retarget maps any symbol into the module's destination graph. Types use
// ByName. The result is nil only for members that no longer exist.
func (m *Module) Retarget(s symbols.Symbol) symbols.Symbol {
	if s == nil {
		return nil
	}
	switch s.Kind() {
	case symbols.SymbolAssembly:
		return m.RetargetAssembly(s.(symbols.AssemblySymbol))
	case symbols.SymbolModule:
		return m.RetargetModule(s.(symbols.ModuleSymbol))
	case symbols.SymbolNamespace:
		return m.RetargetNamespace(s.(symbols.NamespaceSymbol))
	case symbols.SymbolNamedType, symbols.SymbolErrorType:
		return m.RetargetNamedType(s.(symbols.NamedTypeSymbol), ByName)
	case symbols.SymbolTypeParameter:
		return m.RetargetTypeParameter(s.(symbols.TypeParameterSymbol))
	case symbols.SymbolArrayType, symbols.SymbolPointerType, symbols.SymbolFunctionPointerType:
		return m.RetargetType(s.(symbols.TypeSymbol), ByName)
	case symbols.SymbolMethod:
		if r := m.RetargetMethod(s.(symbols.MethodSymbol)); r != nil {
			return r
		}
	case symbols.SymbolField:
		if r := m.RetargetField(s.(symbols.FieldSymbol)); r != nil {
			return r
		}
	case symbols.SymbolProperty:
		if r := m.RetargetProperty(s.(symbols.PropertySymbol)); r != nil {
			return r
		}
	case symbols.SymbolEvent:
		if r := m.RetargetEvent(s.(symbols.EventSymbol)); r != nil {
			return r
		}
	case symbols.SymbolParameter:
		if r := m.RetargetParameter(s.(symbols.ParameterSymbol)); r != nil {
			return r
		}
	default:
		panic(fmt.Sprintf("retargeting: unexpected symbol kind %s", s.Kind()))
	}
	return nil
}

// RetargetNamespace always succeeds: namespaces exist wherever they are
// asked for.
func (m *Module) RetargetNamespace(ns symbols.NamespaceSymbol) symbols.NamespaceSymbol {
	if ns == nil {
		return nil
	}
	if _, ok := ns.(*Namespace); ok {
		return ns
	}
	return m.symbolMap.GetOrAdd(ns, func(symbols.Symbol) symbols.Symbol {
		return &Namespace{module: m, underlying: ns}
	}).(symbols.NamespaceSymbol)
}

// RetargetType maps any type. Structural types are rebuilt only when one
// of their components changed.
func (m *Module) RetargetType(t symbols.TypeSymbol, opt RetargetOptions) symbols.TypeSymbol {
	switch v := t.(type) {
	case nil:
		return nil
	case symbols.TypeParameterSymbol:
		return m.RetargetTypeParameter(v)
	case *symbols.ArrayType:
		return v.WithElement(m.RetargetTypeWithModifiers(v.Element, ByTypeCode))
	case *symbols.PointerType:
		return v.WithPointee(m.RetargetTypeWithModifiers(v.Pointee, ByTypeCode))
	case *symbols.FunctionPointerType:
		return v.WithSignature(m.retargetFunctionPointerSignature(v.Signature))
	case symbols.NamedTypeSymbol:
		return m.RetargetNamedType(v, opt)
	}
	panic(fmt.Sprintf("retargeting: unexpected type %T", t))
}

func (m *Module) retargetFunctionPointerSignature(sig symbols.FunctionPointerSignature) symbols.FunctionPointerSignature {
	out := sig
	out.Return = m.RetargetTypeWithModifiers(sig.Return, ByTypeCode)
	out.ReturnRefModifiers = m.RetargetModifiers(sig.ReturnRefModifiers)
	if len(sig.Params) > 0 {
		out.Params = make([]symbols.FunctionPointerParam, len(sig.Params))
		for i, p := range sig.Params {
			out.Params[i] = symbols.FunctionPointerParam{
				Type:         m.RetargetTypeWithModifiers(p.Type, ByTypeCode),
				RefKind:      p.RefKind,
				RefModifiers: m.RetargetModifiers(p.RefModifiers),
			}
		}
	}
	return out
}

// RetargetTypeWithModifiers returns tw itself when neither the type nor
// any modifier changed.
func (m *Module) RetargetTypeWithModifiers(tw symbols.TypeWithModifiers, opt RetargetOptions) symbols.TypeWithModifiers {
	if tw.Type == nil && len(tw.Modifiers) == 0 {
		return tw
	}
	out := symbols.TypeWithModifiers{
		Type:      m.RetargetType(tw.Type, opt),
		Modifiers: m.RetargetModifiers(tw.Modifiers),
	}
	if symbols.SameTypeWithModifiers(out, tw) {
		return tw
	}
	return out
}

// RetargetModifiers rebinds modifier types by name and returns mods
// itself when nothing changed.
func (m *Module) RetargetModifiers(mods []symbols.CustomModifier) []symbols.CustomModifier {
	var out []symbols.CustomModifier
	for i, mod := range mods {
		r := m.RetargetNamedType(mod.Modifier, ByName)
		if out == nil && r != mod.Modifier {
			out = make([]symbols.CustomModifier, len(mods))
			copy(out, mods[:i])
		}
		if out != nil {
			out[i] = symbols.CustomModifier{Modifier: r, Optional: mod.Optional}
		}
	}
	if out == nil {
		return mods
	}
	return out
}

// RetargetNamedType implements the named type algorithm: native integers,
// primitives by type code, error types, embedded interop types, own and
// added module types, types of remapped references, constructed and
// unbound generics.
func (m *Module) RetargetNamedType(t symbols.NamedTypeSymbol, opt RetargetOptions) symbols.NamedTypeSymbol {
	if t == nil {
		return nil
	}
	if under := t.NativeIntegerUnderlying(); under != nil {
		r := m.RetargetNamedType(under, opt)
		if r == under {
			return t
		}
		return symbols.NewNativeInteger(r)
	}

	def := t.OriginalDefinition()
	newDef := m.retargetDefinition(def, opt)
	if t == def {
		return newDef
	}
	if t.IsUnboundGeneric() {
		if newDef == def {
			return t
		}
		return symbols.UnboundGeneric(newDef)
	}
	if newDef.Kind() == symbols.SymbolErrorType && !symbols.IsGenericType(newDef) {
		return newDef
	}
	return m.retargetConstructed(t, def, newDef)
}

func (m *Module) retargetConstructed(t, def, newDef symbols.NamedTypeSymbol) symbols.NamedTypeSymbol {
	args := symbols.AllTypeArguments(t)
	changed := newDef != def
	newArgs := make([]symbols.TypeWithModifiers, len(args))
	for i, a := range args {
		newArgs[i] = m.RetargetTypeWithModifiers(a, ByTypeCode)
		if !symbols.SameTypeWithModifiers(newArgs[i], a) {
			changed = true
		}
	}
	if !changed {
		return t
	}
	if len(symbols.AllTypeParameters(newDef)) != len(newArgs) {
		// The destination changed arity; nothing can be constructed.
		return symbols.ForceError(newDef, nil)
	}
	illegal := m.isNoPiaIllegalGenericInstantiation(t, args)
	constructed := symbols.ConstructChain(newDef, newArgs)
	if illegal {
		trace.Point(m.tracer(), trace.ScopeSymbol, "retarget.illegal-instantiation", symbols.DisplayString(constructed), nil)
		return symbols.NewNoPiaIllegalGenericInstantiation(constructed)
	}
	return constructed
}

// retargetDefinition handles steps that apply to generic definitions and
// non-generic types alike.
func (m *Module) retargetDefinition(t symbols.NamedTypeSymbol, opt RetargetOptions) symbols.NamedTypeSymbol {
	if opt == ByTypeCode {
		if st := t.SpecialType(); st.IsPrimitiveTypeCode() {
			return m.assembly.CorLibrary().DeclaredSpecialType(st)
		}
	}
	if t.Kind() == symbols.SymbolErrorType {
		return m.retargetErrorType(t)
	}
	if _, own := t.(*NamedType); own {
		return t
	}
	if m.assembly.opts.LocalTypePolicy(m, t) {
		return m.retargetLocalType(t)
	}

	mod := symbols.ContainingModule(t)
	if mod == m.underlying {
		return m.symbolMap.GetOrAdd(t, func(symbols.Symbol) symbols.Symbol {
			return newNamedType(m, t)
		}).(symbols.NamedTypeSymbol)
	}

	from := symbols.ContainingAssembly(t)
	if from == m.assembly.underlying {
		return m.retargetAddedModuleType(mod, t)
	}
	dest := m.assemblyMap[from]
	if dest == nil {
		return t
	}
	return m.performTypeRetargeting(dest, t, func(name symbols.MetadataTypeName) symbols.NamedTypeSymbol {
		return dest.To.LookupTopLevelType(name, true)
	})
}

// retargetErrorType keeps diagnosed errors and forces an error onto the
// rest so a failed binding never looks healthy downstream.
func (m *Module) retargetErrorType(t symbols.NamedTypeSymbol) symbols.NamedTypeSymbol {
	if t.UseSiteDiagnostic().IsError() {
		return t
	}
	return m.symbolMap.GetOrAdd(t, func(symbols.Symbol) symbols.Symbol {
		return symbols.ForceError(t, nil)
	}).(symbols.NamedTypeSymbol)
}

// retargetAddedModuleType resolves a type of a secondary module by name in
// the wrapper's corresponding module.
func (m *Module) retargetAddedModuleType(mod symbols.ModuleSymbol, t symbols.NamedTypeSymbol) symbols.NamedTypeSymbol {
	target := m.RetargetModule(mod)
	if target == mod {
		return t
	}
	dest := m.addedModules.GetOrAdd(mod.Ordinal(), func(int) *DestinationData {
		return &DestinationData{To: m.assembly}
	})
	return m.performTypeRetargeting(dest, t, func(name symbols.MetadataTypeName) symbols.NamedTypeSymbol {
		if r := target.LookupTopLevelType(name); r != nil {
			return r
		}
		return symbols.NewMissingTopLevelType(target, name)
	})
}

// performTypeRetargeting resolves t by metadata name: containers first,
// then the nested type by name and arity. Absent types become missing
// metadata types.
func (m *Module) performTypeRetargeting(dest *DestinationData, t symbols.NamedTypeSymbol, lookup func(symbols.MetadataTypeName) symbols.NamedTypeSymbol) symbols.NamedTypeSymbol {
	if r, ok := dest.SymbolMap.Load(t); ok {
		return r
	}
	var result symbols.NamedTypeSymbol
	if outer := symbols.ContainingType(t); outer != nil {
		container := m.performTypeRetargeting(dest, outer, lookup)
		if found := symbols.TypeMembers(container, t.Name(), t.Arity()); len(found) > 0 {
			result = found[0]
		} else {
			result = symbols.NewMissingNestedType(container, t.Name(), t.Arity())
		}
	} else {
		result = lookup(symbols.MetadataTypeNameOf(t))
	}
	if result.Kind() == symbols.SymbolErrorType {
		trace.Point(m.tracer(), trace.ScopeSymbol, "retarget.missing-type", symbols.FullName(t), nil)
	}
	return dest.SymbolMap.Add(t, result)
}

// RetargetTypeParameter maps own type parameters to wrappers and every
// other type parameter to the same ordinal of its retargeted owner.
func (m *Module) RetargetTypeParameter(tp symbols.TypeParameterSymbol) symbols.TypeParameterSymbol {
	if tp == nil || tp.TypeParameterKind() == symbols.TypeParameterIndexed {
		return tp
	}
	if _, own := tp.(*TypeParameter); own {
		return tp
	}
	owner := tp.ContainingSymbol()
	if owner == nil {
		return tp
	}
	if owner.Kind() != symbols.SymbolErrorType && symbols.ContainingModule(owner) == m.underlying && symbols.IsDefinition(owner) {
		return m.symbolMap.GetOrAdd(tp, func(symbols.Symbol) symbols.Symbol {
			return &TypeParameter{module: m, underlying: tp}
		}).(symbols.TypeParameterSymbol)
	}
	var tps []symbols.TypeParameterSymbol
	switch o := owner.(type) {
	case symbols.MethodSymbol:
		r := m.RetargetMethod(o)
		if r == nil || r == o {
			return tp
		}
		tps = r.TypeParameters()
	case symbols.NamedTypeSymbol:
		r := m.RetargetNamedType(o, ByName)
		if r == o {
			return tp
		}
		tps = r.TypeParameters()
	default:
		return tp
	}
	if i := tp.Ordinal(); i < len(tps) {
		return tps[i]
	}
	return tp
}
