package metadata

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"

	"retarget/internal/diag"
	"retarget/internal/symbols"
)

// bindContext is the scope a textual reference is bound in.
type bindContext struct {
	module       *Module
	declaring    symbols.NamedTypeSymbol
	typeParams   []symbols.TypeParameterSymbol
	methodParams []symbols.TypeParameterSymbol
	// indexed binds !!n to ordinal placeholders, as member reference
	// signatures do.
	indexed bool
}

func (m *Module) badTypeRef(src string, err error) symbols.TypeWithModifiers {
	loc := diag.Location{Assembly: m.owner.Identity().Name, Symbol: src}
	info := diag.Errorf(diag.MetaBadTypeRef, loc, err.Error())
	return symbols.Plain(symbols.NewExtendedErrorType(m, "", src, 0, info, nil))
}

// bindType resolves a type reference. Malformed references bind to an
// error type rather than failing.
func (m *Module) bindType(src string, ctx bindContext) symbols.TypeWithModifiers {
	expr, err := parseTypeRef(src)
	if err != nil {
		return m.badTypeRef(src, err)
	}
	return m.bindExpr(expr, ctx, src)
}

// bindNamedType binds a reference that must denote a named type.
func (m *Module) bindNamedType(src string, ctx bindContext) symbols.NamedTypeSymbol {
	t := m.bindType(src, ctx).Type
	if nt, ok := t.(symbols.NamedTypeSymbol); ok {
		return nt
	}
	return m.badTypeRef(src, fmt.Errorf("type reference %q does not name a class, struct, interface, enum or delegate", src)).Type.(symbols.NamedTypeSymbol)
}

func (m *Module) bindExpr(e *typeExpr, ctx bindContext, src string) symbols.TypeWithModifiers {
	var t symbols.TypeSymbol
	switch e.kind {
	case exprKeyword:
		t = m.owner.CorLibrary().DeclaredSpecialType(e.special)
	case exprNative:
		t = m.nativeInteger(e.unsigned)
	case exprTypeParam:
		if e.ordinal >= len(ctx.typeParams) {
			return m.badTypeRef(src, fmt.Errorf("type parameter !%d is out of range", e.ordinal))
		}
		t = ctx.typeParams[e.ordinal]
	case exprMethodTypeParam:
		switch {
		case ctx.indexed:
			t = symbols.IndexedTypeParameters(e.ordinal + 1)[e.ordinal]
		case e.ordinal < len(ctx.methodParams):
			t = ctx.methodParams[e.ordinal]
		default:
			return m.badTypeRef(src, fmt.Errorf("method type parameter !!%d is out of range", e.ordinal))
		}
	case exprError:
		name, arity := symbols.UnmangleName(e.names[len(e.names)-1])
		t = symbols.NewExtendedErrorType(m, e.namespace, name, arity, nil, nil)
	case exprNamed:
		named, err := m.bindNamed(e, ctx, src)
		if err != nil {
			return m.badTypeRef(src, err)
		}
		t = named
	case exprArray:
		elem := m.bindExpr(e.elem, ctx, src)
		if e.rank == 1 {
			t = symbols.NewSZArray(elem)
		} else {
			t = symbols.NewMDArray(elem, e.rank, nil, nil)
		}
	case exprPointer:
		t = symbols.NewPointer(m.bindExpr(e.elem, ctx, src))
	case exprFnPtr:
		sig := symbols.FunctionPointerSignature{
			Return:  m.bindExpr(e.fn.ret.t, ctx, src),
			RefKind: e.fn.ret.ref,
		}
		if sig.RefKind != symbols.RefNone {
			sig.ReturnRefModifiers = sig.Return.Modifiers
		}
		for _, p := range e.fn.params {
			pt := m.bindExpr(p.t, ctx, src)
			fp := symbols.FunctionPointerParam{Type: pt, RefKind: p.ref}
			if p.ref != symbols.RefNone {
				fp.RefModifiers = pt.Modifiers
			}
			sig.Params = append(sig.Params, fp)
		}
		t = symbols.NewFunctionPointer(sig)
	}
	out := symbols.TypeWithModifiers{Type: t}
	for _, mod := range e.mods {
		mt, ok := m.bindExpr(mod.t, ctx, src).Type.(symbols.NamedTypeSymbol)
		if !ok {
			return m.badTypeRef(src, fmt.Errorf("custom modifier must be a named type"))
		}
		out.Modifiers = append(out.Modifiers, symbols.CustomModifier{Modifier: mt, Optional: mod.optional})
	}
	return out
}

func (m *Module) bindNamed(e *typeExpr, ctx bindContext, src string) (symbols.NamedTypeSymbol, error) {
	first := e.names[0]
	if len(e.names) == 1 && len(e.args) > 0 && !strings.ContainsRune(first, '`') {
		first = symbols.MangleName(first, len(e.args))
	}
	top := symbols.MetadataTypeName{Namespace: e.namespace, Name: first}
	t := m.resolveTopLevel(e.assembly, top)
	for _, seg := range e.names[1:] {
		name, arity := symbols.UnmangleName(seg)
		if found := symbols.TypeMembers(t, name, arity); len(found) > 0 {
			t = found[0]
		} else {
			t = symbols.NewMissingNestedType(t, name, arity)
		}
	}
	if len(e.args) == 0 {
		return t, nil
	}
	total := 0
	for _, c := range symbols.TypeChain(t) {
		total += c.Arity()
	}
	if total != len(e.args) {
		return nil, fmt.Errorf("type reference %q has %d type arguments, want %d", src, len(e.args), total)
	}
	args := make([]symbols.TypeWithModifiers, len(e.args))
	for i, a := range e.args {
		args[i] = m.bindExpr(a, ctx, src)
	}
	return symbols.ConstructChain(t, args), nil
}

// resolveTopLevel finds a top-level type. Without an assembly prefix the
// owning assembly is searched first, then the references in order.
func (m *Module) resolveTopLevel(asm string, name symbols.MetadataTypeName) symbols.NamedTypeSymbol {
	owner := m.owner
	if asm != "" {
		if owner.Identity().Name == asm {
			return owner.LookupTopLevelType(name, true)
		}
		for _, r := range m.refSyms {
			if r.Identity().Name == asm {
				return r.LookupTopLevelType(name, true)
			}
		}
		return symbols.NewMissingAssembly(symbols.AssemblyIdentity{Name: asm}).LookupTopLevelType(name, true)
	}
	for _, mod := range owner.Modules() {
		if t := mod.LookupTopLevelType(name); t != nil {
			return t
		}
	}
	for _, r := range m.refSyms {
		if r.IsMissing() {
			continue
		}
		t := r.LookupTopLevelType(name, true)
		if _, missing := t.(*symbols.MissingMetadataType); missing {
			continue
		}
		return t
	}
	return symbols.NewMissingTopLevelType(m, name)
}

// bindMemberRef resolves a member reference of the given kind. Parameter
// types are bound in ctx with method type parameters as placeholders. It
// returns nil when no member matches.
func (m *Module) bindMemberRef(src string, ctx bindContext, kind symbols.SymbolKind) symbols.Symbol {
	ref, err := parseMemberRef(src)
	if err != nil {
		return nil
	}
	target := ctx.declaring
	if ref.typ != "" {
		target = m.bindNamedType(ref.typ, ctx)
	}
	if target == nil {
		return nil
	}
	var want []symbols.TypeWithModifiers
	if ref.hasSig {
		sigCtx := ctx
		sigCtx.indexed = true
		want = make([]symbols.TypeWithModifiers, len(ref.params))
		for i, p := range ref.params {
			want[i] = m.bindType(p, sigCtx)
		}
	}
	for _, cand := range symbols.MembersNamed(target, ref.name) {
		if cand.Kind() != kind {
			continue
		}
		if !ref.hasSig {
			return cand
		}
		sig := symbols.SignatureOf(cand, nil)
		if len(sig.Params) != len(want) {
			continue
		}
		match := true
		for i, p := range sig.Params {
			if !symbols.TypesEqual(p.Type.Type, want[i].Type) {
				match = false
				break
			}
		}
		if match {
			return cand
		}
	}
	return nil
}

func (m *Module) bindAttributes(defs []AttributeDef, ctx bindContext) []*symbols.AttributeData {
	if len(defs) == 0 {
		return nil
	}
	out := make([]*symbols.AttributeData, 0, len(defs))
	for _, d := range defs {
		a := &symbols.AttributeData{Class: m.bindNamedType(d.Type, ctx)}
		for _, arg := range d.Args {
			a.Args = append(a.Args, m.bindConstant(arg, ctx))
		}
		for _, arg := range d.Named {
			a.Named = append(a.Named, symbols.NamedArgument{Name: arg.Name, IsField: arg.Field, Value: m.bindConstant(arg, ctx)})
		}
		a.Constructor = attributeConstructor(a.Class, len(a.Args))
		out = append(out, a)
	}
	return out
}

func attributeConstructor(class symbols.NamedTypeSymbol, nargs int) symbols.MethodSymbol {
	for _, s := range symbols.MembersNamed(class, ".ctor") {
		if ctor, ok := s.(symbols.MethodSymbol); ok && len(ctor.Parameters()) == nargs {
			return ctor
		}
	}
	return nil
}

func (m *Module) interopAttribute(fullName string, args ...string) *symbols.AttributeData {
	corlib := m.owner.CorLibrary()
	class := corlib.LookupTopLevelType(symbols.TopLevelName(fullName), true)
	str := corlib.DeclaredSpecialType(symbols.SpecialString)
	a := &symbols.AttributeData{Class: class}
	for _, v := range args {
		a.Args = append(a.Args, symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: str, Value: v})
	}
	a.Constructor = attributeConstructor(class, len(args))
	return a
}

func (m *Module) guidAttribute(guid string) *symbols.AttributeData {
	return m.interopAttribute(symbols.GuidAttributeName, guid)
}

func (m *Module) typeIdentifierAttribute(ti *TypeIdentDef) *symbols.AttributeData {
	if ti.Scope == "" && ti.Identifier == "" {
		return m.interopAttribute(symbols.TypeIdentifierAttributeName)
	}
	return m.interopAttribute(symbols.TypeIdentifierAttributeName, ti.Scope, ti.Identifier)
}

func inferArgKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case float32, float64:
		return "double"
	case int, int8, int16, int32, uint, uint8, uint16, uint32:
		return "int"
	case int64, uint64:
		return "long"
	}
	return ""
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return safecast.Conv[int64](n)
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return safecast.Conv[int64](n)
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
}

// bindConstant decodes an attribute argument or constant. Values that do
// not fit their declared kind become error constants.
func (m *Module) bindConstant(a ArgDef, ctx bindContext) symbols.TypedConstant {
	corlib := m.owner.CorLibrary()
	special := func(st symbols.SpecialType) symbols.TypeSymbol { return corlib.DeclaredSpecialType(st) }
	kind := a.Kind
	if kind == "" {
		kind = inferArgKind(a.Value)
	}
	bad := symbols.TypedConstant{Kind: symbols.ConstError, Value: a.Value}
	switch kind {
	case "string":
		s, ok := a.Value.(string)
		if !ok && a.Value != nil {
			return bad
		}
		return symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: special(symbols.SpecialString), Value: s}
	case "bool":
		b, ok := a.Value.(bool)
		if !ok {
			return bad
		}
		return symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: special(symbols.SpecialBoolean), Value: b}
	case "double":
		switch f := a.Value.(type) {
		case float64:
			return symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: special(symbols.SpecialDouble), Value: f}
		case float32:
			return symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: special(symbols.SpecialDouble), Value: float64(f)}
		}
		if n, err := toInt64(a.Value); err == nil {
			return symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: special(symbols.SpecialDouble), Value: float64(n)}
		}
		return bad
	case "char":
		s, ok := a.Value.(string)
		if !ok || utf8.RuneCountInString(s) != 1 {
			return bad
		}
		r, _ := utf8.DecodeRuneInString(s)
		return symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: special(symbols.SpecialChar), Value: r}
	case "int":
		n, err := toInt64(a.Value)
		if err != nil {
			return bad
		}
		v, err := safecast.Conv[int32](n)
		if err != nil {
			return bad
		}
		return symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: special(symbols.SpecialInt32), Value: v}
	case "long":
		n, err := toInt64(a.Value)
		if err != nil {
			return bad
		}
		return symbols.TypedConstant{Kind: symbols.ConstPrimitive, Type: special(symbols.SpecialInt64), Value: n}
	case "enum":
		n, err := toInt64(a.Value)
		if err != nil {
			return bad
		}
		return symbols.TypedConstant{Kind: symbols.ConstEnum, Type: m.bindNamedType(a.Type, ctx), Value: n}
	case "type":
		s, ok := a.Value.(string)
		if !ok {
			return bad
		}
		return symbols.TypedConstant{
			Kind:  symbols.ConstType,
			Type:  corlib.LookupTopLevelType(symbols.TopLevelName("System.Type"), true),
			Value: m.bindType(s, ctx).Type,
		}
	case "array":
		elem := m.bindType(a.Type, ctx)
		c := symbols.TypedConstant{Kind: symbols.ConstArray, Type: symbols.NewSZArray(elem)}
		for _, v := range a.Values {
			c.Values = append(c.Values, m.bindConstant(v, ctx))
		}
		return c
	}
	return bad
}

func (m *Module) bindMarshal(d *MarshalDef, ctx bindContext) *symbols.MarshalInfo {
	if d == nil {
		return nil
	}
	info := &symbols.MarshalInfo{
		UnmanagedType:         d.UnmanagedType,
		SizeConst:             d.SizeConst,
		SafeArrayVariant:      d.SafeArrayVar,
		CustomMarshalerCookie: d.Cookie,
	}
	if d.SafeArrayType != "" {
		info.SafeArrayUserDefinedSubtype = m.bindType(d.SafeArrayType, ctx).Type
	}
	if d.CustomMarshaler != "" {
		info.CustomMarshaler = m.bindType(d.CustomMarshaler, ctx).Type
	}
	return info
}
