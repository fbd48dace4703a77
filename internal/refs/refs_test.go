package refs_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retarget/internal/diag"
	"retarget/internal/metadata"
	"retarget/internal/refs"
	"retarget/internal/retargeting"
	"retarget/internal/symbols"
	"retarget/internal/trace"
)

type fixture struct {
	u                                           *metadata.Universe
	ms1, ms2, lib1, lib2, pia, app, tool, multi *metadata.Assembly
}

func load(t *testing.T) *fixture {
	t.Helper()
	b, err := metadata.LoadFile(filepath.Join("testdata", "consumer.toml"))
	require.NoError(t, err)
	defs := make([]*metadata.AssemblyDef, len(b.Assemblies))
	for i := range b.Assemblies {
		defs[i] = &b.Assemblies[i]
	}
	u, err := metadata.NewUniverse(defs)
	require.NoError(t, err)
	get := func(name, version string) *metadata.Assembly {
		v, err := symbols.ParseVersion(version)
		require.NoError(t, err)
		a, ok := u.Lookup(symbols.AssemblyIdentity{Name: name, Version: v})
		require.True(t, ok, "assembly %s %s", name, version)
		return a
	}
	return &fixture{
		u:     u,
		ms1:   get("mscorlib", "1.0.0.0"),
		ms2:   get("mscorlib", "2.0.0.0"),
		lib1:  get("Lib", "1.0.0.0"),
		lib2:  get("Lib", "2.0.0.0"),
		pia:   get("Pia", "1.0.0.0"),
		app:   get("App", "1.0.0.0"),
		tool:  get("Tool", "1.0.0.0"),
		multi: get("Multi", "1.0.0.0"),
	}
}

func plain(as ...symbols.AssemblySymbol) []refs.Reference {
	out := make([]refs.Reference, len(as))
	for i, a := range as {
		out[i] = refs.Reference{Assembly: a}
	}
	return out
}

func typeIn(t *testing.T, a symbols.AssemblySymbol, full string) symbols.NamedTypeSymbol {
	t.Helper()
	nt := a.LookupTopLevelType(symbols.TopLevelName(full), false)
	require.NotEqual(t, symbols.SymbolErrorType, nt.Kind(), "type %s not found", full)
	return nt
}

func fieldType(t *testing.T, nt symbols.NamedTypeSymbol, name string) symbols.TypeSymbol {
	t.Helper()
	for _, m := range symbols.MembersNamed(nt, name) {
		if f, ok := m.(symbols.FieldSymbol); ok {
			return f.Type().Type
		}
	}
	t.Fatalf("field %s not found in %s", name, symbols.FullName(nt))
	return nil
}

func TestResolveWrapsOnlySkewedAssemblies(t *testing.T) {
	f := load(t)
	res, err := refs.Resolve(context.Background(), plain(f.ms2, f.lib2, f.app, f.tool), refs.Options{})
	require.NoError(t, err)

	assert.Same(t, f.ms2, res.Assemblies[0])
	assert.Same(t, f.lib2, res.Assemblies[1])
	assert.Same(t, f.ms2, res.CorLibrary)
	require.Len(t, res.Retargeted, 2)

	app, ok := res.Assemblies[2].(*retargeting.Assembly)
	require.True(t, ok)
	assert.Same(t, f.app, app.Underlying())
	assert.Same(t, app, res.Retargeted[f.app])
	assert.Same(t, app, res.ByName("App"))
	assert.Same(t, f.ms2, app.CorLibrary())

	mod := app.RetargetingModule()
	assert.Same(t, f.lib2, mod.Destination(f.lib1).To)
	assert.Same(t, f.ms2, mod.Destination(f.ms1).To)
	assert.Equal(t, []symbols.AssemblySymbol{f.ms2, f.lib2}, mod.ReferencedAssemblySymbols())

	assert.Same(t, typeIn(t, f.lib2, "Lib.IFoo"), typeIn(t, app, "App.Impl").Interfaces()[0])
	assert.Equal(t, []*retargeting.Assembly{app, res.Retargeted[f.tool]}, res.Wrappers())
}

func TestSkewPropagatesThroughReferencingAssemblies(t *testing.T) {
	f := load(t)
	res, err := refs.Resolve(context.Background(), plain(f.ms2, f.lib2, f.app, f.tool), refs.Options{})
	require.NoError(t, err)

	tool := res.Retargeted[f.tool]
	require.NotNil(t, tool, "Tool references App, which is retargeted")
	app := res.Retargeted[f.app]
	assert.Same(t, app, tool.RetargetingModule().Destination(f.app).To)

	runner := typeIn(t, tool, "Tool.Runner")
	assert.Same(t, typeIn(t, app, "App.Impl"), fieldType(t, runner, "Impl"))
}

func TestUnskewedReferencesAreLeftAlone(t *testing.T) {
	f := load(t)
	res, err := refs.Resolve(context.Background(), plain(f.ms1, f.lib1, f.app), refs.Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Retargeted)
	assert.Equal(t, []symbols.AssemblySymbol{f.ms1, f.lib1, f.app}, res.Assemblies)
	assert.Empty(t, res.Wrappers())
}

func TestAddedModulesAreRebound(t *testing.T) {
	f := load(t)
	res, err := refs.Resolve(context.Background(), plain(f.ms2, f.lib2, f.multi), refs.Options{})
	require.NoError(t, err)

	multi := res.Retargeted[f.multi]
	require.NotNil(t, multi)
	require.Len(t, multi.Modules(), 2)
	extra := multi.Modules()[1]
	assert.NotSame(t, f.multi.Modules()[1], extra)
	assert.Same(t, multi, extra.ContainingSymbol())
	assert.Equal(t, []symbols.AssemblySymbol{f.ms2, f.lib2}, extra.ReferencedAssemblySymbols())

	// The underlying added module keeps its own binding.
	assert.Equal(t, []symbols.AssemblySymbol{f.ms1, f.lib1}, f.multi.Modules()[1].ReferencedAssemblySymbols())

	assert.Same(t, typeIn(t, f.lib2, "Lib.IFoo"), fieldType(t, typeIn(t, multi, "Multi.Extra"), "Foo"))
}

func TestAbsentReferencesBecomeMissingAssemblies(t *testing.T) {
	f := load(t)
	res, err := refs.Resolve(context.Background(), plain(f.ms2, f.app), refs.Options{})
	require.NoError(t, err)

	app := res.Retargeted[f.app]
	require.NotNil(t, app)
	lib := app.RetargetingModule().ReferencedAssemblySymbols()[1]
	assert.True(t, lib.IsMissing())
	assert.Equal(t, f.lib1.Identity(), lib.Identity())

	ifoo := typeIn(t, app, "App.Impl").Interfaces()[0]
	require.Equal(t, symbols.SymbolErrorType, ifoo.Kind())
	assert.Equal(t, diag.MetaMissingAssembly, ifoo.UseSiteDiagnostic().Code)
}

func TestEmbeddedReferencesUseLinkedInstances(t *testing.T) {
	f := load(t)
	in := append(plain(f.ms2, f.lib2, f.app), refs.Reference{Assembly: f.pia, EmbedInteropTypes: true})

	_, err := refs.Resolve(context.Background(), in, refs.Options{})
	require.ErrorIs(t, err, refs.ErrNotLinkable)

	res, err := refs.Resolve(context.Background(), in, refs.Options{Linker: f.u})
	require.NoError(t, err)
	require.Len(t, res.Linked, 1)
	pia := res.Linked[0]
	assert.True(t, pia.IsLinked())
	assert.Same(t, pia, res.ByName("Pia"))

	// Pia was built against mscorlib 1, so its linked instance is wrapped.
	w, ok := pia.(*retargeting.Assembly)
	require.True(t, ok)
	assert.Same(t, f.u.Linked(f.pia), w.Underlying())

	app := res.Retargeted[f.app]
	assert.Equal(t, res.Linked, app.LinkedReferencedAssemblies())
	assert.Equal(t, res.Assemblies, app.NoPiaResolutionAssemblies())
}

func TestResolveRejectsBadInput(t *testing.T) {
	f := load(t)
	_, err := refs.Resolve(context.Background(), plain(f.ms1, f.ms2), refs.Options{})
	require.ErrorIs(t, err, refs.ErrDuplicateReference)

	_, err = refs.Resolve(context.Background(), []refs.Reference{{}}, refs.Options{})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = refs.Resolve(ctx, plain(f.ms2, f.app), refs.Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveTraces(t *testing.T) {
	f := load(t)
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	_, err := refs.Resolve(ctx, plain(f.ms2, f.lib2, f.app), refs.Options{})
	require.NoError(t, err)

	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "refs.resolve")
	assert.Contains(t, names, "refs.retargeted")
	assert.Contains(t, names, "set-references")
}
