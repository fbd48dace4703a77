package symbols

// typeEqualer lets error sentinels define equality beyond identity.
type typeEqualer interface {
	EqualsType(other TypeSymbol) bool
}

// TypesEqual compares types structurally: constructed types by definition
// and arguments, arrays/pointers/function pointers by shape, and every
// other type by identity. Custom modifiers are compared too.
func TypesEqual(a, b TypeSymbol) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if e, ok := a.(typeEqualer); ok {
		return e.EqualsType(b)
	}
	switch x := a.(type) {
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && x.Rank == y.Rank && x.IsSZArray() == y.IsSZArray() &&
			intsEqual(x.Sizes, y.Sizes) && intsEqual(x.LowerBounds, y.LowerBounds) &&
			TypeWithModifiersEqual(x.Element, y.Element)
	case *PointerType:
		y, ok := b.(*PointerType)
		return ok && TypeWithModifiersEqual(x.Pointee, y.Pointee)
	case *FunctionPointerType:
		y, ok := b.(*FunctionPointerType)
		return ok && signaturesEqual(x.Signature, y.Signature)
	case *IndexedTypeParameter:
		y, ok := b.(*IndexedTypeParameter)
		return ok && x.ordinal == y.ordinal
	case *NativeIntegerType:
		y, ok := b.(*NativeIntegerType)
		return ok && TypesEqual(x.NamedTypeSymbol, y.NamedTypeSymbol)
	case TypeParameterSymbol:
		return false
	case NamedTypeSymbol:
		y, ok := b.(NamedTypeSymbol)
		if !ok {
			return false
		}
		if _, native := y.(*NativeIntegerType); native {
			return false
		}
		return namedTypesEqual(x, y)
	}
	return false
}

func namedTypesEqual(x, y NamedTypeSymbol) bool {
	if x.IsUnboundGeneric() != y.IsUnboundGeneric() {
		return false
	}
	if x.OriginalDefinition() != y.OriginalDefinition() {
		return false
	}
	if x.IsUnboundGeneric() {
		return true
	}
	ax, ay := AllTypeArguments(x), AllTypeArguments(y)
	if len(ax) != len(ay) {
		return false
	}
	for i := range ax {
		if !TypeWithModifiersEqual(ax[i], ay[i]) {
			return false
		}
	}
	return true
}

// TypeWithModifiersEqual compares the type and its modifiers structurally.
func TypeWithModifiersEqual(a, b TypeWithModifiers) bool {
	return TypesEqual(a.Type, b.Type) && ModifiersEqual(a.Modifiers, b.Modifiers)
}

func ModifiersEqual(a, b []CustomModifier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Optional != b[i].Optional || !TypesEqual(a[i].Modifier, b[i].Modifier) {
			return false
		}
	}
	return true
}

func signaturesEqual(a, b FunctionPointerSignature) bool {
	if a.CallingConvention != b.CallingConvention || a.RefKind != b.RefKind ||
		!TypeWithModifiersEqual(a.Return, b.Return) ||
		!ModifiersEqual(a.ReturnRefModifiers, b.ReturnRefModifiers) ||
		len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		pa, pb := a.Params[i], b.Params[i]
		if pa.RefKind != pb.RefKind || !TypeWithModifiersEqual(pa.Type, pb.Type) ||
			!ModifiersEqual(pa.RefModifiers, pb.RefModifiers) {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
