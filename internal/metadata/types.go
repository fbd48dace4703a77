package metadata

import (
	"context"

	"retarget/internal/diag"
	"retarget/internal/lazy"
	"retarget/internal/symbols"
)

// NamedType is a type definition decoded from a TypeDef. Signatures and
// members are decoded on first access.
type NamedType struct {
	module    *Module
	container symbols.Symbol
	def       *TypeDef

	kind    symbols.TypeKind
	access  symbols.Accessibility
	flags   symbols.TypeFlags
	special symbols.SpecialType
	tps     []symbols.TypeParameterSymbol

	base      lazy.Cell[symbols.NamedTypeSymbol]
	ifaces    lazy.Cell[[]symbols.NamedTypeSymbol]
	members   lazy.Cell[*memberTable]
	attrs     lazy.Cell[[]*symbols.AttributeData]
	impls     lazy.Cell[[]symbols.MethodImpl]
	enumUnder lazy.Cell[symbols.NamedTypeSymbol]
	useSite   lazy.Cell[*diag.Diagnostic]
}

// Enumerations are validated when the universe is built, so parse errors
// cannot occur here.
func newNamedType(m *Module, container symbols.Symbol, def *TypeDef) *NamedType {
	t := &NamedType{module: m, container: container, def: def}
	t.kind, _ = symbols.ParseTypeKind(def.Kind)
	t.access, _ = symbols.ParseAccessibility(def.Access)
	t.flags, _ = symbols.ParseTypeFlags(def.Modifiers)
	if def.TypeIdentifier != nil && t.kind == symbols.TypeKindInterface {
		t.flags |= symbols.TypeComImport
	}
	t.special = t.computeSpecial()
	t.tps = make([]symbols.TypeParameterSymbol, len(def.TypeParameters))
	for i := range def.TypeParameters {
		t.tps[i] = newTypeParameter(t, i, &def.TypeParameters[i], symbols.TypeParameterOfType, t.bindContext)
	}
	return t
}

func (t *NamedType) computeSpecial() symbols.SpecialType {
	if t.def.Special != "" {
		return symbols.SpecialTypeFromFullName(t.def.Special)
	}
	if _, nested := t.container.(*NamedType); nested {
		return symbols.SpecialNone
	}
	if asm, ok := t.module.owner.(interface{ IsCoreLibrary() bool }); ok && asm.IsCoreLibrary() {
		full := symbols.MangleName(t.def.Name, len(t.def.TypeParameters))
		if t.def.Namespace != "" {
			full = t.def.Namespace + "." + full
		}
		return symbols.SpecialTypeFromFullName(full)
	}
	return symbols.SpecialNone
}

func (t *NamedType) bindContext() bindContext {
	return bindContext{module: t.module, declaring: t, typeParams: symbols.AllTypeParameters(t)}
}

func (t *NamedType) Kind() symbols.SymbolKind                   { return symbols.SymbolNamedType }
func (t *NamedType) TypeKind() symbols.TypeKind                 { return t.kind }
func (t *NamedType) Name() string                               { return t.def.Name }
func (t *NamedType) MetadataName() string                       { return symbols.MangleName(t.def.Name, len(t.tps)) }
func (t *NamedType) ContainingSymbol() symbols.Symbol           { return t.container }
func (t *NamedType) Arity() int                                 { return len(t.tps) }
func (t *NamedType) Accessibility() symbols.Accessibility       { return t.access }
func (t *NamedType) Flags() symbols.TypeFlags                   { return t.flags }
func (t *NamedType) SpecialType() symbols.SpecialType           { return t.special }
func (t *NamedType) TypeParameters() []symbols.TypeParameterSymbol { return t.tps }
func (t *NamedType) TypeArguments() []symbols.TypeWithModifiers { return symbols.PlainAll(t.tps) }
func (t *NamedType) OriginalDefinition() symbols.NamedTypeSymbol { return t }
func (t *NamedType) IsUnboundGeneric() bool                     { return false }
func (t *NamedType) NativeIntegerUnderlying() symbols.NamedTypeSymbol {
	return nil
}
func (t *NamedType) Def() *TypeDef { return t.def }

// IsExplicitLocalType reports an embedded interop type, one carrying a
// TypeIdentifierAttribute.
func (t *NamedType) IsExplicitLocalType() bool {
	return t.def.TypeIdentifier != nil || hasAttribute(t.def.Attributes, symbols.TypeIdentifierAttributeName)
}

func (t *NamedType) Documentation(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.def.Doc, nil
}

func (t *NamedType) UseSiteDiagnostic() *diag.Diagnostic {
	return t.useSite.Get(func() *diag.Diagnostic {
		if b := t.BaseType(); b != nil {
			if d := b.UseSiteDiagnostic(); d.IsError() {
				return d
			}
		}
		return nil
	})
}

func (t *NamedType) BaseType() symbols.NamedTypeSymbol {
	return t.base.Get(func() symbols.NamedTypeSymbol {
		ctx := t.bindContext()
		switch {
		case t.def.Base != "":
			return t.module.bindNamedType(t.def.Base, ctx)
		case t.kind == symbols.TypeKindInterface || t.special == symbols.SpecialObject:
			return nil
		case t.kind == symbols.TypeKindStruct:
			return t.module.owner.CorLibrary().DeclaredSpecialType(symbols.SpecialValueType)
		case t.kind == symbols.TypeKindEnum:
			return t.module.owner.CorLibrary().DeclaredSpecialType(symbols.SpecialEnum)
		case t.kind == symbols.TypeKindDelegate:
			return t.module.owner.CorLibrary().DeclaredSpecialType(symbols.SpecialMulticastDelegate)
		}
		return t.module.owner.CorLibrary().DeclaredSpecialType(symbols.SpecialObject)
	})
}

func (t *NamedType) Interfaces() []symbols.NamedTypeSymbol {
	return t.ifaces.Get(func() []symbols.NamedTypeSymbol {
		if len(t.def.Interfaces) == 0 {
			return nil
		}
		ctx := t.bindContext()
		out := make([]symbols.NamedTypeSymbol, len(t.def.Interfaces))
		for i, ref := range t.def.Interfaces {
			out[i] = t.module.bindNamedType(ref, ctx)
		}
		return out
	})
}

func (t *NamedType) EnumUnderlyingType() symbols.NamedTypeSymbol {
	if t.kind != symbols.TypeKindEnum {
		return nil
	}
	return t.enumUnder.Get(func() symbols.NamedTypeSymbol {
		ref := t.def.EnumUnderlying
		if ref == "" {
			ref = "int"
		}
		return t.module.bindNamedType(ref, t.bindContext())
	})
}

func (t *NamedType) Attributes() []*symbols.AttributeData {
	return t.attrs.Get(func() []*symbols.AttributeData {
		ctx := t.bindContext()
		attrs := t.module.bindAttributes(t.def.Attributes, ctx)
		if t.def.Guid != "" {
			attrs = append(attrs, t.module.guidAttribute(t.def.Guid))
		}
		if ti := t.def.TypeIdentifier; ti != nil {
			attrs = append(attrs, t.module.typeIdentifierAttribute(ti))
		}
		return attrs
	})
}

func (t *NamedType) Members() []symbols.Symbol { return t.table().list }

func (t *NamedType) MethodImpls() []symbols.MethodImpl {
	return t.impls.Get(func() []symbols.MethodImpl {
		if len(t.def.MethodImpls) == 0 {
			return nil
		}
		ctx := t.bindContext()
		out := make([]symbols.MethodImpl, 0, len(t.def.MethodImpls))
		for _, mi := range t.def.MethodImpls {
			body, _ := t.module.bindMemberRef(mi.Body, ctx, symbols.SymbolMethod).(symbols.MethodSymbol)
			decl, _ := t.module.bindMemberRef(mi.Declaration, ctx, symbols.SymbolMethod).(symbols.MethodSymbol)
			if body == nil || decl == nil {
				continue
			}
			out = append(out, symbols.MethodImpl{Body: body, Declaration: decl})
		}
		return out
	})
}

// memberTable holds the decoded members in declaration order: nested
// types, fields, methods, properties, events.
type memberTable struct {
	list    []symbols.Symbol
	methods map[string]*Method
	fields  map[string]*Field
}

func (t *NamedType) table() *memberTable {
	return t.members.Get(func() *memberTable {
		d := t.def
		tab := &memberTable{
			list:    make([]symbols.Symbol, 0, len(d.Nested)+len(d.Fields)+len(d.Methods)+len(d.Properties)+len(d.Events)),
			methods: make(map[string]*Method, len(d.Methods)),
			fields:  make(map[string]*Field, len(d.Fields)),
		}
		for i := range d.Nested {
			tab.list = append(tab.list, newNamedType(t.module, t, &d.Nested[i]))
		}
		for i := range d.Fields {
			f := newField(t, &d.Fields[i])
			tab.fields[f.Name()] = f
			tab.list = append(tab.list, f)
		}
		for i := range d.Methods {
			m := newMethod(t, &d.Methods[i])
			if _, dup := tab.methods[m.Name()]; !dup {
				tab.methods[m.Name()] = m
			}
			tab.list = append(tab.list, m)
		}
		for i := range d.Properties {
			p := newProperty(t, &d.Properties[i], tab)
			tab.list = append(tab.list, p)
		}
		for i := range d.Events {
			e := newEvent(t, &d.Events[i], tab)
			tab.list = append(tab.list, e)
		}
		return tab
	})
}

// TypeParameter is a type or method type parameter.
type TypeParameter struct {
	owner    symbols.Symbol
	ordinal  int
	def      *TypeParamDef
	kind     symbols.TypeParameterKind
	variance symbols.VarianceKind
	cons     symbols.ConstraintFlags
	ctx      func() bindContext
	ctypes   lazy.Cell[[]symbols.TypeWithModifiers]
}

func newTypeParameter(owner symbols.Symbol, ordinal int, def *TypeParamDef, kind symbols.TypeParameterKind, ctx func() bindContext) *TypeParameter {
	p := &TypeParameter{owner: owner, ordinal: ordinal, def: def, kind: kind, ctx: ctx}
	switch def.Variance {
	case "out":
		p.variance = symbols.VarianceOut
	case "in":
		p.variance = symbols.VarianceIn
	}
	for _, c := range def.Constraints {
		switch c {
		case "class":
			p.cons |= symbols.ConstraintReferenceType
		case "struct":
			p.cons |= symbols.ConstraintValueType
		case "new()":
			p.cons |= symbols.ConstraintConstructor
		case "unmanaged":
			p.cons |= symbols.ConstraintUnmanaged
		case "notnull":
			p.cons |= symbols.ConstraintNotNull
		}
	}
	return p
}

func (p *TypeParameter) Kind() symbols.SymbolKind                     { return symbols.SymbolTypeParameter }
func (p *TypeParameter) TypeKind() symbols.TypeKind                   { return symbols.TypeKindTypeParameter }
func (p *TypeParameter) Name() string                                 { return p.def.Name }
func (p *TypeParameter) ContainingSymbol() symbols.Symbol             { return p.owner }
func (p *TypeParameter) Attributes() []*symbols.AttributeData         { return nil }
func (p *TypeParameter) UseSiteDiagnostic() *diag.Diagnostic          { return nil }
func (p *TypeParameter) Ordinal() int                                 { return p.ordinal }
func (p *TypeParameter) TypeParameterKind() symbols.TypeParameterKind { return p.kind }
func (p *TypeParameter) Variance() symbols.VarianceKind               { return p.variance }
func (p *TypeParameter) Constraints() symbols.ConstraintFlags         { return p.cons }

func (p *TypeParameter) Documentation(ctx context.Context) (string, error) { return "", ctx.Err() }

func (p *TypeParameter) ConstraintTypes() []symbols.TypeWithModifiers {
	return p.ctypes.Get(func() []symbols.TypeWithModifiers {
		if len(p.def.ConstraintTypes) == 0 {
			return nil
		}
		ctx := p.ctx()
		out := make([]symbols.TypeWithModifiers, len(p.def.ConstraintTypes))
		for i, ref := range p.def.ConstraintTypes {
			out[i] = ctx.module.bindType(ref, ctx)
		}
		return out
	})
}
