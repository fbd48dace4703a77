package symbols

import (
	"context"
	"fmt"

	"retarget/internal/diag"
	"retarget/internal/lazy"
)

// constructedView is implemented by constructed types so that nested
// constructions and member lookups can reach the substitution in effect.
type constructedView interface {
	NamedTypeSymbol
	typeMap() *TypeMap
	substitutedMember(def Symbol) Symbol
}

// Construct applies own-level type arguments to a generic definition whose
// containers are not generic.
func Construct(def NamedTypeSymbol, args []TypeWithModifiers) NamedTypeSymbol {
	if len(args) != def.Arity() {
		panic(fmt.Sprintf("symbols: %s expects %d type arguments, got %d", FullName(def), def.Arity(), len(args)))
	}
	if len(args) == 0 {
		return def
	}
	return newConstructed(def, def.ContainingSymbol(), args)
}

// ConstructChain applies type arguments to every level of a nested generic
// definition. Arguments are ordered outermost level first.
func ConstructChain(def NamedTypeSymbol, args []TypeWithModifiers) NamedTypeSymbol {
	chain := TypeChain(def)
	pos := 0
	var cur NamedTypeSymbol
	for i, level := range chain {
		n := level.Arity()
		if pos+n > len(args) {
			panic(fmt.Sprintf("symbols: too few type arguments for %s", FullName(def)))
		}
		own := args[pos : pos+n]
		pos += n
		switch {
		case i == 0 || cur == chain[i-1]:
			if n == 0 {
				cur = level
			} else {
				cur = newConstructed(level, level.ContainingSymbol(), own)
			}
		default:
			cv := cur.(constructedView)
			if n == 0 {
				cur = cv.substitutedMember(level).(NamedTypeSymbol)
			} else {
				cur = newConstructed(level, cur, own)
			}
		}
	}
	if pos != len(args) {
		panic(fmt.Sprintf("symbols: too many type arguments for %s", FullName(def)))
	}
	return cur
}

func newConstructed(def NamedTypeSymbol, container Symbol, args []TypeWithModifiers) NamedTypeSymbol {
	c := &ConstructedNamedType{def: def, container: container, args: args}
	var parent *TypeMap
	if cv, ok := container.(constructedView); ok {
		parent = cv.typeMap()
	}
	c.tmap = NewTypeMap(def.TypeParameters(), args).WithParent(parent)
	if _, isErr := def.(ErrorTypeSymbol); isErr {
		return &ConstructedErrorType{ConstructedNamedType: c}
	}
	return c
}

type memberSet struct {
	list  []Symbol
	byDef map[Symbol]Symbol
}

// ConstructedNamedType is a generic definition viewed through a type
// substitution. Members are substituted lazily and cached, so repeated
// access returns the same member objects.
type ConstructedNamedType struct {
	def       NamedTypeSymbol
	container Symbol
	args      []TypeWithModifiers
	tmap      *TypeMap

	base       lazy.Cell[NamedTypeSymbol]
	interfaces lazy.Cell[[]NamedTypeSymbol]
	members    lazy.Cell[*memberSet]
	impls      lazy.Cell[[]MethodImpl]
	useSite    lazy.Cell[*diag.Diagnostic]
}

func (c *ConstructedNamedType) typeMap() *TypeMap { return c.tmap }

func (c *ConstructedNamedType) Kind() SymbolKind                      { return SymbolNamedType }
func (c *ConstructedNamedType) TypeKind() TypeKind                    { return c.def.TypeKind() }
func (c *ConstructedNamedType) Name() string                          { return c.def.Name() }
func (c *ConstructedNamedType) MetadataName() string                  { return c.def.MetadataName() }
func (c *ConstructedNamedType) ContainingSymbol() Symbol              { return c.container }
func (c *ConstructedNamedType) Attributes() []*AttributeData          { return c.def.Attributes() }
func (c *ConstructedNamedType) Arity() int                            { return c.def.Arity() }
func (c *ConstructedNamedType) Accessibility() Accessibility          { return c.def.Accessibility() }
func (c *ConstructedNamedType) Flags() TypeFlags                      { return c.def.Flags() }
func (c *ConstructedNamedType) SpecialType() SpecialType              { return SpecialNone }
func (c *ConstructedNamedType) TypeParameters() []TypeParameterSymbol { return c.def.TypeParameters() }
func (c *ConstructedNamedType) TypeArguments() []TypeWithModifiers    { return c.args }
func (c *ConstructedNamedType) OriginalDefinition() NamedTypeSymbol   { return c.def.OriginalDefinition() }
func (c *ConstructedNamedType) IsUnboundGeneric() bool                { return false }
func (c *ConstructedNamedType) IsExplicitLocalType() bool             { return c.def.IsExplicitLocalType() }
func (c *ConstructedNamedType) NativeIntegerUnderlying() NamedTypeSymbol {
	return nil
}
func (c *ConstructedNamedType) EnumUnderlyingType() NamedTypeSymbol { return c.def.EnumUnderlyingType() }

func (c *ConstructedNamedType) Documentation(ctx context.Context) (string, error) {
	return c.def.Documentation(ctx)
}

func (c *ConstructedNamedType) UseSiteDiagnostic() *diag.Diagnostic {
	return c.useSite.Get(func() *diag.Diagnostic {
		if d := c.def.UseSiteDiagnostic(); d != nil {
			return d
		}
		return FirstError(AllTypeArguments(c)...)
	})
}

func (c *ConstructedNamedType) BaseType() NamedTypeSymbol {
	return c.base.Get(func() NamedTypeSymbol {
		return c.tmap.SubstituteNamedType(c.def.BaseType())
	})
}

func (c *ConstructedNamedType) Interfaces() []NamedTypeSymbol {
	return c.interfaces.Get(func() []NamedTypeSymbol {
		defs := c.def.Interfaces()
		if len(defs) == 0 {
			return nil
		}
		out := make([]NamedTypeSymbol, len(defs))
		for i, d := range defs {
			out[i] = c.tmap.SubstituteNamedType(d)
		}
		return out
	})
}

func (c *ConstructedNamedType) memberSet() *memberSet {
	return c.members.Get(func() *memberSet {
		defs := c.def.Members()
		set := &memberSet{list: make([]Symbol, 0, len(defs)), byDef: make(map[Symbol]Symbol, len(defs))}
		for _, d := range defs {
			var m Symbol
			switch v := d.(type) {
			case NamedTypeSymbol:
				m = newConstructed(v, c, PlainAll(v.TypeParameters()))
			case MethodSymbol:
				m = &SubstitutedMethod{container: c, def: v}
			case FieldSymbol:
				m = &SubstitutedField{container: c, def: v}
			case PropertySymbol:
				m = &SubstitutedProperty{container: c, def: v}
			case EventSymbol:
				m = &SubstitutedEvent{container: c, def: v}
			default:
				continue
			}
			set.list = append(set.list, m)
			set.byDef[d] = m
		}
		return set
	})
}

func (c *ConstructedNamedType) Members() []Symbol { return c.memberSet().list }

func (c *ConstructedNamedType) substitutedMember(def Symbol) Symbol {
	if def == nil {
		return nil
	}
	if m, ok := c.memberSet().byDef[def]; ok {
		return m
	}
	return def
}

func (c *ConstructedNamedType) MethodImpls() []MethodImpl {
	return c.impls.Get(func() []MethodImpl {
		defs := c.def.MethodImpls()
		if len(defs) == 0 {
			return nil
		}
		out := make([]MethodImpl, 0, len(defs))
		for _, mi := range defs {
			body, _ := c.substitutedMember(mi.Body).(MethodSymbol)
			decl := substituteMemberRef(c.tmap, mi.Declaration)
			if body == nil || decl == nil {
				continue
			}
			out = append(out, MethodImpl{Body: body, Declaration: decl})
		}
		return out
	})
}

// ConstructedErrorType is a constructed view of an error definition; it
// keeps reporting the definition's error.
type ConstructedErrorType struct {
	*ConstructedNamedType
}

func (c *ConstructedErrorType) Kind() SymbolKind   { return SymbolErrorType }
func (c *ConstructedErrorType) TypeKind() TypeKind { return TypeKindError }

func (c *ConstructedErrorType) ErrorInfo() *diag.Diagnostic {
	return c.def.(ErrorTypeSymbol).ErrorInfo()
}

// UnboundGenericType is the open form of a generic definition (typeof(C<>)).
type UnboundGenericType struct {
	NamedTypeSymbol
}

// UnboundGeneric wraps def as an unbound generic type.
func UnboundGeneric(def NamedTypeSymbol) *UnboundGenericType {
	return &UnboundGenericType{NamedTypeSymbol: def}
}

func (u *UnboundGenericType) IsUnboundGeneric() bool { return true }

// Definition returns the wrapped generic definition.
func (u *UnboundGenericType) Definition() NamedTypeSymbol { return u.NamedTypeSymbol }

// substituteMemberRef maps a method reference through m by substituting
// its containing type and locating the corresponding member there.
func substituteMemberRef(m *TypeMap, ref MethodSymbol) MethodSymbol {
	if ref == nil {
		return nil
	}
	owner := ContainingType(ref)
	if owner == nil {
		return ref
	}
	sub := m.SubstituteNamedType(owner)
	if sub == owner {
		return ref
	}
	out, _ := MemberIn(sub, ref.OriginalDefinition()).(MethodSymbol)
	return out
}

// MemberIn returns the member of t that corresponds to the definition def.
// For definitions this is def itself; constructed types return their
// substituted member.
func MemberIn(t NamedTypeSymbol, def Symbol) Symbol {
	if cv, ok := t.(constructedView); ok {
		return cv.substitutedMember(def)
	}
	return def
}
