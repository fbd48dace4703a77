package walk_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"retarget/internal/diag"
	"retarget/internal/metadata"
	"retarget/internal/refs"
	"retarget/internal/symbols"
	"retarget/internal/trace"
	"retarget/internal/walk"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// resolveApp binds App 1 against mscorlib 2 and Lib 2 and returns the
// consumer's view of App and Lib.
func resolveApp(t *testing.T) (app, lib symbols.AssemblySymbol) {
	t.Helper()
	b, err := metadata.LoadFile(filepath.Join("testdata", "skew.toml"))
	require.NoError(t, err)
	defs := make([]*metadata.AssemblyDef, len(b.Assemblies))
	for i := range b.Assemblies {
		defs[i] = &b.Assemblies[i]
	}
	u, err := metadata.NewUniverse(defs)
	require.NoError(t, err)

	var in []refs.Reference
	for _, id := range []string{"mscorlib 2.0.0.0", "Lib 2.0.0.0", "App 1.0.0.0", "Pia 1.0.0.0", "Pia2 1.0.0.0"} {
		name, version, _ := strings.Cut(id, " ")
		v, err := symbols.ParseVersion(version)
		require.NoError(t, err)
		a, ok := u.Lookup(symbols.AssemblyIdentity{Name: name, Version: v})
		require.True(t, ok, id)
		in = append(in, refs.Reference{Assembly: a})
	}
	res, err := refs.Resolve(context.Background(), in, refs.Options{Linker: u})
	require.NoError(t, err)
	return res.ByName("App"), res.ByName("Lib")
}

func findingFor(t *testing.T, r *walk.Report, symbol string) walk.Finding {
	t.Helper()
	for _, f := range r.Findings {
		if f.Symbol == symbol {
			return f
		}
	}
	t.Fatalf("no finding for %s", symbol)
	return walk.Finding{}
}

func TestWalkReportsEveryBrokenReference(t *testing.T) {
	app, _ := resolveApp(t)
	r, err := walk.Assembly(context.Background(), app, walk.Options{})
	require.NoError(t, err)

	assert.Equal(t, map[walk.Kind]int{
		walk.KindMissingType:           2,
		walk.KindUseSiteError:          1,
		walk.KindMissingCanonical:      1,
		walk.KindAmbiguousCanonical:    1,
		walk.KindIllegalInstantiation:  1,
		walk.KindDroppedImplementation: 1,
	}, r.ByKind())
	assert.Equal(t, 1, r.Counts.Modules)
	assert.Equal(t, 3, r.Counts.Types, "embedded interop types are hidden")
	assert.Equal(t, 15, r.Counts.Fields)
	assert.False(t, r.Truncated)
	assert.True(t, r.HasErrors())

	old := findingFor(t, r, "App.User.Old")
	assert.Equal(t, walk.KindMissingType, old.Kind)
	assert.Equal(t, "field type", old.Position)
	assert.Equal(t, diag.MetaMissingType, old.Diagnostic.Code)
	assert.Equal(t, "App", old.Diagnostic.Primary.Assembly)
	require.Len(t, old.Diagnostic.Notes, 1)
	assert.Equal(t, "Lib.Gone", symbols.FullName(old.Cause))

	assert.Equal(t, diag.RetMissingCanonicalType, findingFor(t, r, "App.User.Orphan").Diagnostic.Code)
	assert.Equal(t, diag.RetAmbiguousCanonicalType, findingFor(t, r, "App.User.Dup").Diagnostic.Code)
	assert.Equal(t, diag.RetIllegalGenericInstantiation, findingFor(t, r, "App.User.Illegal").Diagnostic.Code)
	assert.Equal(t, diag.RetErrorInReferencedAssembly, findingFor(t, r, "App.User.Unknown").Diagnostic.Code)

	var dropped walk.Finding
	for _, f := range r.Findings {
		if f.Kind == walk.KindDroppedImplementation {
			dropped = f
		}
	}
	assert.Equal(t, diag.RetDroppedImplementation, dropped.Diagnostic.Code)
	assert.Contains(t, dropped.Symbol, "Lib.IFoo.B")
	assert.Nil(t, dropped.Cause)
}

func TestWalkIsDeterministicAcrossJobs(t *testing.T) {
	app, _ := resolveApp(t)
	serial, err := walk.Assembly(context.Background(), app, walk.Options{Jobs: 1})
	require.NoError(t, err)

	app2, _ := resolveApp(t)
	parallel, err := walk.Assembly(context.Background(), app2, walk.Options{Jobs: 8})
	require.NoError(t, err)

	require.Equal(t, len(serial.Findings), len(parallel.Findings))
	for i := range serial.Findings {
		assert.Equal(t, serial.Findings[i].Symbol, parallel.Findings[i].Symbol)
		assert.Equal(t, serial.Findings[i].Kind, parallel.Findings[i].Kind)
	}
	assert.Equal(t, serial.Counts, parallel.Counts)
}

func TestUnchangedAssemblyIsClean(t *testing.T) {
	_, lib := resolveApp(t)
	r, err := walk.Assembly(context.Background(), lib, walk.Options{})
	require.NoError(t, err)
	assert.Empty(t, r.Findings)
	assert.False(t, r.HasErrors())
	assert.Equal(t, 4, r.Counts.Types)
}

func TestWalkStopsOnCancellation(t *testing.T) {
	app, _ := resolveApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := walk.Assembly(ctx, app, walk.Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMaxFindingsTruncates(t *testing.T) {
	app, _ := resolveApp(t)
	r, err := walk.Assembly(context.Background(), app, walk.Options{MaxFindings: 2})
	require.NoError(t, err)
	assert.Len(t, r.Findings, 2)
	assert.True(t, r.Truncated)
}

func TestReportRendering(t *testing.T) {
	app, _ := resolveApp(t)
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	r, err := walk.Assembly(context.Background(), app, walk.Options{Tracer: ring})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteTable(&buf, 20))
	out := buf.String()
	assert.Contains(t, out, "App, Version=1.0.0.0")
	assert.Contains(t, out, "7 findings")
	assert.Contains(t, out, "missing-canonical")
	assert.Contains(t, out, "RET2003")
	assert.Contains(t, out, "...")

	bag := r.Diagnostics()
	assert.Equal(t, 7, bag.Len())
	assert.True(t, bag.HasErrors())

	var findings int
	var end *trace.Event
	for _, ev := range ring.Snapshot() {
		if ev.Name == "walk.finding" {
			findings++
		}
		if ev.Name == "walk.assembly" && ev.Kind == trace.KindEnd {
			end = &ev
		}
	}
	assert.Equal(t, 7, findings)
	require.NotNil(t, end)
	assert.Equal(t, "7", end.Attrs["findings"])
	assert.Equal(t, strconv.Itoa(r.Counts.Types), end.Attrs["types"])
	assert.Equal(t, app.Identity().String(), end.Attrs["assembly"])
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "missing-type", walk.KindMissingType.String())
	assert.Equal(t, "use-site-error", walk.KindUseSiteError.String())
	assert.Equal(t, "Kind(42)", walk.Kind(42).String())
}
