package metadata

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"retarget/internal/diag"
	"retarget/internal/symbols"
)

func loadBasic(t *testing.T) *Universe {
	t.Helper()
	b, err := LoadFile(filepath.Join("testdata", "basic.toml"))
	require.NoError(t, err)
	defs := make([]*AssemblyDef, len(b.Assemblies))
	for i := range b.Assemblies {
		defs[i] = &b.Assemblies[i]
	}
	u, err := NewUniverse(defs)
	require.NoError(t, err)
	return u
}

func byName(t *testing.T, u *Universe, name string) *Assembly {
	t.Helper()
	as := u.ByName(name)
	require.Len(t, as, 1, "assembly %s", name)
	return as[0]
}

func typeNamed(t *testing.T, a symbols.AssemblySymbol, full string) symbols.NamedTypeSymbol {
	t.Helper()
	nt := a.LookupTopLevelType(symbols.TopLevelName(full), false)
	_, isErr := nt.(symbols.ErrorTypeSymbol)
	require.False(t, isErr, "type %s not found", full)
	return nt
}

func member[T symbols.Symbol](t *testing.T, nt symbols.NamedTypeSymbol, name string) T {
	t.Helper()
	for _, m := range symbols.MembersNamed(nt, name) {
		if v, ok := m.(T); ok {
			return v
		}
	}
	t.Fatalf("member %s not found in %s", name, symbols.FullName(nt))
	var zero T
	return zero
}

func corlibDef() *AssemblyDef {
	return &AssemblyDef{
		Name: "mscorlib", Version: "4.0.0.0", CoreLibrary: true,
		Modules: []ModuleDef{{
			Name: "mscorlib.dll",
			Types: []TypeDef{
				{Namespace: "System", Name: "Object", Kind: "class"},
				{Namespace: "System", Name: "ValueType", Kind: "class"},
				{Namespace: "System", Name: "Int32", Kind: "struct"},
				{Namespace: "System", Name: "String", Kind: "class"},
			},
		}},
	}
}

func TestLoadTOMLBundle(t *testing.T) {
	u := loadBasic(t)
	require.Len(t, u.Assemblies(), 2)
	lib := byName(t, u, "Lib")
	corlib := byName(t, u, "mscorlib")
	assert.Same(t, corlib, lib.CorLibrary())
	assert.Same(t, corlib, corlib.CorLibrary())
	assert.Equal(t, "Lib, Version=1.0.0.0", lib.Identity().String())

	doc, err := lib.Documentation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Library under test.", doc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lib.Documentation(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSpecialTypes(t *testing.T) {
	u := loadBasic(t)
	corlib := byName(t, u, "mscorlib")
	i32 := corlib.DeclaredSpecialType(symbols.SpecialInt32)
	assert.Equal(t, symbols.SpecialInt32, i32.SpecialType())
	assert.Equal(t, "Int32", i32.Name())
	assert.Same(t, i32, corlib.DeclaredSpecialType(symbols.SpecialInt32))

	decimal := corlib.DeclaredSpecialType(symbols.SpecialDecimal)
	missing, ok := decimal.(*symbols.MissingMetadataType)
	require.True(t, ok, "undeclared special type must be missing, got %T", decimal)
	assert.Equal(t, diag.MetaMissingType, missing.ErrorInfo().Code)

	shape := typeNamed(t, byName(t, u, "Lib"), "Lib.IShape")
	area := member[symbols.MethodSymbol](t, shape, "Area")
	assert.Equal(t, symbols.SpecialDouble, area.ReturnType().Type.(symbols.NamedTypeSymbol).SpecialType())
	assert.Nil(t, shape.BaseType())

	vt := typeNamed(t, corlib, "System.Int32").BaseType()
	assert.Equal(t, symbols.SpecialValueType, vt.SpecialType())
}

func TestGenericMembersAndNestedTypes(t *testing.T) {
	u := loadBasic(t)
	box := typeNamed(t, byName(t, u, "Lib"), "Lib.Box`1")
	require.Equal(t, 1, box.Arity())
	assert.Equal(t, "Box`1", box.MetadataName())
	tp := box.TypeParameters()[0]

	value := member[symbols.FieldSymbol](t, box, "Value")
	assert.Same(t, tp, value.Type().Type)

	mapM := member[symbols.MethodSymbol](t, box, "Map")
	require.Equal(t, 1, mapM.Arity())
	ret, ok := mapM.ReturnType().Type.(symbols.NamedTypeSymbol)
	require.True(t, ok)
	assert.Same(t, box, ret.OriginalDefinition())
	assert.Same(t, mapM.TypeParameters()[0], ret.TypeArguments()[0].Type)
	params := mapM.Parameters()
	require.Len(t, params, 2)
	assert.Same(t, tp, params[0].Type().Type)
	arr, ok := params[1].Type().Type.(*symbols.ArrayType)
	require.True(t, ok)
	assert.True(t, arr.IsSZArray())

	nodes := symbols.TypeMembers(box, "Node", 0)
	require.Len(t, nodes, 1)
	next := member[symbols.FieldSymbol](t, nodes[0], "Next")
	nt := next.Type().Type.(symbols.NamedTypeSymbol)
	assert.Same(t, nodes[0], nt.OriginalDefinition())
	args := symbols.AllTypeArguments(nt)
	require.Len(t, args, 1)
	assert.Same(t, tp, args[0].Type)
}

func TestExplicitImplementationsAndAccessors(t *testing.T) {
	u := loadBasic(t)
	lib := byName(t, u, "Lib")
	shape := typeNamed(t, lib, "Lib.IShape")
	square := typeNamed(t, lib, "Lib.Square")
	area := member[symbols.MethodSymbol](t, shape, "Area")

	impl := member[symbols.MethodSymbol](t, square, "Lib.IShape.Area")
	require.Len(t, impl.ExplicitInterfaceImplementations(), 1)
	assert.Same(t, area, impl.ExplicitInterfaceImplementations()[0])

	impls := square.MethodImpls()
	require.Len(t, impls, 1)
	assert.Same(t, impl, impls[0].Body)
	assert.Same(t, area, impls[0].Declaration)

	side := member[symbols.PropertySymbol](t, square, "Side")
	require.NotNil(t, side.GetMethod())
	assert.Nil(t, side.SetMethod())
	assert.Same(t, side, side.GetMethod().AssociatedSymbol())
	assert.Equal(t, []symbols.NamedTypeSymbol{shape}, square.Interfaces())
}

func TestInteropAttributes(t *testing.T) {
	u := loadBasic(t)
	lib := byName(t, u, "Lib")
	g, ok := symbols.GuidOf(lib)
	require.True(t, ok)
	assert.Equal(t, "6b29fc40-ca47-1067-b31d-00dd010662da", g)

	shape := typeNamed(t, lib, "Lib.IShape")
	g, ok = symbols.GuidOf(shape)
	require.True(t, ok)
	assert.Equal(t, "1f4c9a2e-1111-2222-3333-444455556666", g)
	attrs := shape.Attributes()
	require.Len(t, attrs, 1)
	require.NotNil(t, attrs[0].Constructor, "GuidAttribute(string) constructor must bind")
	assert.False(t, shape.IsExplicitLocalType())
}

func TestEnumConstants(t *testing.T) {
	u := loadBasic(t)
	color := typeNamed(t, byName(t, u, "Lib"), "Lib.Color")
	assert.Equal(t, symbols.TypeKindEnum, color.TypeKind())
	assert.Equal(t, symbols.SpecialInt64, color.EnumUnderlyingType().SpecialType())
	assert.Equal(t, symbols.SpecialEnum, color.BaseType().SpecialType())
	red := member[symbols.FieldSymbol](t, color, "Red")
	assert.Equal(t, int64(1), red.ConstantValue())
	assert.True(t, red.Flags().Has(symbols.MemberConst|symbols.MemberStatic))
}

func TestBrokenReferencesBecomeErrorTypes(t *testing.T) {
	u := loadBasic(t)
	broken := typeNamed(t, byName(t, u, "Lib"), "Lib.Broken")

	base, ok := broken.BaseType().(symbols.ErrorTypeSymbol)
	require.True(t, ok, "base must be an error type, got %T", broken.BaseType())
	assert.Equal(t, diag.MetaMissingAssembly, base.ErrorInfo().Code)
	require.NotNil(t, broken.UseSiteDiagnostic())
	assert.Equal(t, diag.MetaMissingAssembly, broken.UseSiteDiagnostic().Code)

	bad := member[symbols.MethodSymbol](t, broken, "Bad")
	errT, ok := bad.ReturnType().Type.(symbols.ErrorTypeSymbol)
	require.True(t, ok)
	assert.Equal(t, diag.MetaBadTypeRef, errT.ErrorInfo().Code)
	assert.Equal(t, diag.MetaBadTypeRef, bad.UseSiteDiagnostic().Code)
}

func TestForwarders(t *testing.T) {
	u := loadBasic(t)
	lib := byName(t, u, "Lib")
	name := symbols.TopLevelName("Lib.Moved")

	fwd := lib.LookupTopLevelType(name, true).(symbols.ErrorTypeSymbol)
	assert.Equal(t, diag.MetaMissingAssembly, fwd.ErrorInfo().Code)

	local := lib.LookupTopLevelType(name, false).(symbols.ErrorTypeSymbol)
	assert.Equal(t, diag.MetaMissingType, local.ErrorInfo().Code)
	assert.Equal(t, []symbols.MetadataTypeName{name}, lib.ForwardedTypeNames())
}

func TestForwardingCycleIsDiagnosed(t *testing.T) {
	a := &AssemblyDef{Name: "A", Version: "1.0", Modules: []ModuleDef{{
		Name:       "A.dll",
		References: []ReferenceDef{{Name: "mscorlib", Version: "4.0.0.0"}, {Name: "B", Version: "1.0"}},
		Forwarders: []ForwarderDef{{Type: "NS.X", Assembly: "B"}},
	}}}
	b := &AssemblyDef{Name: "B", Version: "1.0", Modules: []ModuleDef{{
		Name:       "B.dll",
		References: []ReferenceDef{{Name: "mscorlib", Version: "4.0.0.0"}, {Name: "A", Version: "1.0"}},
		Forwarders: []ForwarderDef{{Type: "NS.X", Assembly: "A"}},
	}}}
	u, err := NewUniverse([]*AssemblyDef{corlibDef(), a, b})
	require.NoError(t, err)
	got := byName(t, u, "A").LookupTopLevelType(symbols.TopLevelName("NS.X"), true)
	errT, ok := got.(symbols.ErrorTypeSymbol)
	require.True(t, ok)
	assert.Equal(t, diag.MetaForwardingCycle, errT.ErrorInfo().Code)
}

func TestUniverseRejectsDuplicatesAndBadLabels(t *testing.T) {
	_, err := NewUniverse([]*AssemblyDef{corlibDef(), corlibDef()})
	assert.ErrorIs(t, err, ErrDuplicateAssembly)

	bad := &AssemblyDef{Name: "Bad", Version: "1.0", Modules: []ModuleDef{{
		Name:  "Bad.dll",
		Types: []TypeDef{{Name: "T", Kind: "klass"}},
	}}}
	_, err = NewUniverse([]*AssemblyDef{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad T")
}

func TestReferenceBindingFallsBackByName(t *testing.T) {
	app := &AssemblyDef{Name: "App", Version: "1.0", Modules: []ModuleDef{{
		Name: "App.dll",
		References: []ReferenceDef{
			{Name: "mscorlib", Version: "2.0.0.0"},
			{Name: "Nowhere", Version: "1.0"},
		},
	}}}
	u, err := NewUniverse([]*AssemblyDef{corlibDef(), app})
	require.NoError(t, err)
	refs := byName(t, u, "App").Modules()[0].ReferencedAssemblySymbols()
	require.Len(t, refs, 2)
	assert.Same(t, byName(t, u, "mscorlib"), refs[0])
	assert.True(t, refs[1].IsMissing())
	assert.Equal(t, "Nowhere", refs[1].Identity().Name)
}

func TestEmbeddedReferenceBindsLinkedInstance(t *testing.T) {
	interop := &AssemblyDef{Name: "Interop", Version: "1.0", Guid: "aaaaaaaa-0000-0000-0000-000000000001", Modules: []ModuleDef{{
		Name:       "Interop.dll",
		References: []ReferenceDef{{Name: "mscorlib", Version: "4.0.0.0"}},
		Types:      []TypeDef{{Namespace: "Com", Name: "IThing", Kind: "interface", Guid: "aaaaaaaa-0000-0000-0000-000000000002"}},
	}}}
	app := &AssemblyDef{Name: "App", Version: "1.0", Modules: []ModuleDef{{
		Name: "App.dll",
		References: []ReferenceDef{
			{Name: "mscorlib", Version: "4.0.0.0"},
			{Name: "Interop", Version: "1.0", Embed: true},
		},
		Types: []TypeDef{{Namespace: "App", Name: "Uses", Kind: "class", Fields: []FieldDef{{Name: "F", Type: "[Interop]Com.IThing"}}}},
	}}}
	u, err := NewUniverse([]*AssemblyDef{corlibDef(), interop, app})
	require.NoError(t, err)
	a := byName(t, u, "App")
	linked := a.Modules()[0].ReferencedAssemblySymbols()[1]
	assert.True(t, linked.IsLinked())
	assert.NotSame(t, byName(t, u, "Interop"), linked)
	assert.Equal(t, []symbols.AssemblySymbol{linked}, a.LinkedReferencedAssemblies())
	assert.False(t, byName(t, u, "Interop").IsLinked())

	uses := typeNamed(t, a, "App.Uses")
	f := member[symbols.FieldSymbol](t, uses, "F")
	assert.True(t, symbols.ContainingAssembly(f.Type().Type).IsLinked())
	assert.Len(t, a.NoPiaResolutionAssemblies(), 3)

	assert.Same(t, linked, u.Linked(byName(t, u, "Interop")))
	assert.Same(t, linked, u.Linked(linked))
	corlib := byName(t, u, "mscorlib")
	lc := u.Linked(corlib)
	assert.True(t, lc.IsLinked())
	assert.Same(t, lc, u.Linked(corlib))
	missing := symbols.NewMissingAssembly(corlib.Identity())
	assert.Same(t, missing, u.Linked(missing))
}

func TestReloadKeepsReferences(t *testing.T) {
	u := loadBasic(t)
	lib := byName(t, u, "Lib")
	m := lib.Modules()[0].(*Module)
	re := m.Reload(lib, 3)
	assert.Equal(t, 3, re.Ordinal())
	assert.NotSame(t, m, re)
	assert.Equal(t, m.ReferencedAssemblySymbols(), re.ReferencedAssemblySymbols())
	assert.NotNil(t, re.LookupTopLevelType(symbols.TopLevelName("Lib.Square")))
}

func TestParseTypeRefRejectsMalformedInput(t *testing.T) {
	for _, src := range []string{"", "Foo<", "[Asm", "int[", "!x", "fnptr<int(>", "A.B extra"} {
		_, err := parseTypeRef(src)
		assert.Error(t, err, "input %q", src)
	}
	e, err := parseTypeRef("[Lib]NS.Outer`1/Inner<int, !!0[,]> modopt(NS.M)")
	require.NoError(t, err)
	assert.Equal(t, "Lib", e.assembly)
	assert.Equal(t, []string{"Outer`1", "Inner"}, e.names)
	require.Len(t, e.args, 2)
	assert.Equal(t, exprArray, e.args[1].kind)
	assert.Equal(t, 2, e.args[1].rank)
	require.Len(t, e.mods, 1)
	assert.True(t, e.mods[0].optional)
}

func TestParseMemberRef(t *testing.T) {
	ref, err := parseMemberRef("[Lib]NS.I<!0>::M(int, NS.C<string>)")
	require.NoError(t, err)
	assert.Equal(t, "[Lib]NS.I<!0>", ref.typ)
	assert.Equal(t, "M", ref.name)
	assert.Equal(t, []string{"int", "NS.C<string>"}, ref.params)

	ref, err = parseMemberRef("Lib.IShape.Area")
	require.NoError(t, err)
	assert.Empty(t, ref.typ)
	assert.False(t, ref.hasSig)

	_, err = parseMemberRef("NS.T::")
	assert.Error(t, err)
}

func TestImageRoundTripAndSchema(t *testing.T) {
	b, err := LoadFile(filepath.Join("testdata", "basic.toml"))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, b))
	got, err := DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got.Assemblies, 2)
	assert.Equal(t, b.Assemblies[1].Modules[0].Types[0].Methods[1].Parameters[1].Type, got.Assemblies[1].Modules[0].Types[0].Methods[1].Parameters[1].Type)

	path := filepath.Join(t.TempDir(), "out", "lib.rmd")
	require.NoError(t, WriteImage(path, b))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Lib", loaded.Assemblies[1].Name)

	var stale bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&stale).Encode(&Bundle{Schema: ImageSchema + 1}))
	_, err = DecodeImage(&stale)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("lib.dll")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	dir := t.TempDir()
	yml := filepath.Join(dir, "lib.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("schema: 9\nassemblies: []\n"), 0o600))
	_, err = LoadFile(yml)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	unknown := filepath.Join(dir, "lib.yml")
	require.NoError(t, os.WriteFile(unknown, []byte("assemblies:\n  - name: X\n    colour: red\n"), 0o600))
	_, err = LoadFile(unknown)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSchemaMismatch))
}

func TestLoadYAMLNormalizesNames(t *testing.T) {
	src := "assemblies:\n" +
		"  - name: \"Café\"\n" +
		"    version: \"1.0\"\n" +
		"    modules:\n" +
		"      - name: m.dll\n" +
		"        types:\n" +
		"          - namespace: N\n" +
		"            name: T\n" +
		"            kind: class\n"
	path := filepath.Join(t.TempDir(), "lib.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	b, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Café", b.Assemblies[0].Name)
}
