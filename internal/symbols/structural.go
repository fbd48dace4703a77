package symbols

import (
	"context"
	"strconv"

	"retarget/internal/diag"
)

// structuralType provides the Symbol methods that types without a
// declaration site share.
type structuralType struct{}

func (structuralType) Name() string                  { return "" }
func (structuralType) ContainingSymbol() Symbol      { return nil }
func (structuralType) Attributes() []*AttributeData  { return nil }
func (structuralType) Documentation(context.Context) (string, error) {
	return "", nil
}

// ArrayType is an array of Element. SZ arrays are single-dimensional with a
// zero lower bound; multi-dimensional arrays carry Rank and optional bounds.
type ArrayType struct {
	structuralType
	Element     TypeWithModifiers
	Rank        int
	Sizes       []int
	LowerBounds []int
}

// NewSZArray builds a T[] array.
func NewSZArray(elem TypeWithModifiers) *ArrayType {
	return &ArrayType{Element: elem, Rank: 1}
}

// NewMDArray builds a T[,..] array of the given rank.
func NewMDArray(elem TypeWithModifiers, rank int, sizes, lowerBounds []int) *ArrayType {
	return &ArrayType{Element: elem, Rank: rank, Sizes: sizes, LowerBounds: lowerBounds}
}

func (a *ArrayType) Kind() SymbolKind   { return SymbolArrayType }
func (a *ArrayType) TypeKind() TypeKind { return TypeKindArray }

// IsSZArray reports whether a is a vector (T[]).
func (a *ArrayType) IsSZArray() bool {
	return a.Rank == 1 && len(a.Sizes) == 0 && len(a.LowerBounds) == 0
}

func (a *ArrayType) UseSiteDiagnostic() *diag.Diagnostic { return FirstError(a.Element) }

// WithElement returns a when elem is unchanged.
func (a *ArrayType) WithElement(elem TypeWithModifiers) *ArrayType {
	if SameTypeWithModifiers(a.Element, elem) {
		return a
	}
	return &ArrayType{Element: elem, Rank: a.Rank, Sizes: a.Sizes, LowerBounds: a.LowerBounds}
}

type PointerType struct {
	structuralType
	Pointee TypeWithModifiers
}

func NewPointer(pointee TypeWithModifiers) *PointerType { return &PointerType{Pointee: pointee} }

func (p *PointerType) Kind() SymbolKind                    { return SymbolPointerType }
func (p *PointerType) TypeKind() TypeKind                  { return TypeKindPointer }
func (p *PointerType) UseSiteDiagnostic() *diag.Diagnostic { return FirstError(p.Pointee) }

func (p *PointerType) WithPointee(pointee TypeWithModifiers) *PointerType {
	if SameTypeWithModifiers(p.Pointee, pointee) {
		return p
	}
	return &PointerType{Pointee: pointee}
}

// FunctionPointerParam is one parameter of a function pointer signature.
type FunctionPointerParam struct {
	Type         TypeWithModifiers
	RefKind      RefKind
	RefModifiers []CustomModifier
}

// FunctionPointerSignature is the value signature of a function pointer.
type FunctionPointerSignature struct {
	CallingConvention  CallingConvention
	Return             TypeWithModifiers
	RefKind            RefKind
	ReturnRefModifiers []CustomModifier
	Params             []FunctionPointerParam
}

type FunctionPointerType struct {
	structuralType
	Signature FunctionPointerSignature
}

func NewFunctionPointer(sig FunctionPointerSignature) *FunctionPointerType {
	return &FunctionPointerType{Signature: sig}
}

func (f *FunctionPointerType) Kind() SymbolKind   { return SymbolFunctionPointerType }
func (f *FunctionPointerType) TypeKind() TypeKind { return TypeKindFunctionPointer }

func (f *FunctionPointerType) UseSiteDiagnostic() *diag.Diagnostic {
	if d := FirstError(f.Signature.Return); d != nil {
		return d
	}
	for _, p := range f.Signature.Params {
		if d := FirstError(p.Type); d != nil {
			return d
		}
	}
	return nil
}

// WithSignature returns f when sig is structurally identical by identity of
// every component.
func (f *FunctionPointerType) WithSignature(sig FunctionPointerSignature) *FunctionPointerType {
	if sameSignature(f.Signature, sig) {
		return f
	}
	return &FunctionPointerType{Signature: sig}
}

func sameSignature(a, b FunctionPointerSignature) bool {
	if a.CallingConvention != b.CallingConvention || a.RefKind != b.RefKind ||
		!SameTypeWithModifiers(a.Return, b.Return) ||
		!sameModifiers(a.ReturnRefModifiers, b.ReturnRefModifiers) ||
		len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		pa, pb := a.Params[i], b.Params[i]
		if pa.RefKind != pb.RefKind || !SameTypeWithModifiers(pa.Type, pb.Type) ||
			!sameModifiers(pa.RefModifiers, pb.RefModifiers) {
			return false
		}
	}
	return true
}

// SameTypeWithModifiers compares by reference identity, not structure.
func SameTypeWithModifiers(a, b TypeWithModifiers) bool {
	return a.Type == b.Type && sameModifiers(a.Modifiers, b.Modifiers)
}

func sameModifiers(a, b []CustomModifier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Optional != b[i].Optional || a[i].Modifier != b[i].Modifier {
			return false
		}
	}
	return true
}

// NativeIntegerType is the nint/nuint view of IntPtr/UIntPtr. Everything
// except the name forwards to the underlying type.
type NativeIntegerType struct {
	NamedTypeSymbol
}

// NewNativeInteger wraps an IntPtr or UIntPtr definition.
func NewNativeInteger(underlying NamedTypeSymbol) *NativeIntegerType {
	return &NativeIntegerType{NamedTypeSymbol: underlying}
}

func (n *NativeIntegerType) Name() string {
	if n.NamedTypeSymbol.SpecialType() == SpecialUIntPtr {
		return "nuint"
	}
	return "nint"
}

func (n *NativeIntegerType) NativeIntegerUnderlying() NamedTypeSymbol {
	return n.NamedTypeSymbol
}

// IndexedTypeParameter is an ordinal placeholder for a method type
// parameter, used when comparing signatures of members that belong to
// different methods.
type IndexedTypeParameter struct {
	structuralType
	ordinal int
}

// IndexedTypeParameters returns placeholders 0..n-1.
func IndexedTypeParameters(n int) []TypeParameterSymbol {
	out := make([]TypeParameterSymbol, n)
	for i := range out {
		out[i] = &IndexedTypeParameter{ordinal: i}
	}
	return out
}

func (p *IndexedTypeParameter) Kind() SymbolKind                     { return SymbolTypeParameter }
func (p *IndexedTypeParameter) Name() string                         { return "!!" + strconv.Itoa(p.ordinal) }
func (p *IndexedTypeParameter) TypeKind() TypeKind                   { return TypeKindTypeParameter }
func (p *IndexedTypeParameter) UseSiteDiagnostic() *diag.Diagnostic  { return nil }
func (p *IndexedTypeParameter) Ordinal() int                         { return p.ordinal }
func (p *IndexedTypeParameter) TypeParameterKind() TypeParameterKind { return TypeParameterIndexed }
func (p *IndexedTypeParameter) Variance() VarianceKind               { return VarianceNone }
func (p *IndexedTypeParameter) Constraints() ConstraintFlags         { return 0 }
func (p *IndexedTypeParameter) ConstraintTypes() []TypeWithModifiers { return nil }
