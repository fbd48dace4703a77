package pipeline_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"retarget/internal/metadata"
	"retarget/internal/observ"
	"retarget/internal/pipeline"
	"retarget/internal/trace"
	"retarget/internal/walk"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func files() []string {
	return []string{
		filepath.Join("testdata", "framework.yaml"),
		filepath.Join("testdata", "app.toml"),
	}
}

func consumer() []pipeline.ConsumerRef {
	return []pipeline.ConsumerRef{
		{Name: "mscorlib", Version: "2.0.0.0"},
		{Name: "Lib", Version: "2.0.0.0"},
		{Name: "App"},
	}
}

func TestRunRetargetsAndWalks(t *testing.T) {
	sink := &pipeline.RecordingSink{}
	timer := observ.NewTimer()
	res, err := pipeline.Run(context.Background(), &pipeline.Request{
		Files:    files(),
		Consumer: consumer(),
		Progress: sink,
		Timer:    timer,
	})
	require.NoError(t, err)

	assert.Len(t, res.Universe.Assemblies(), 5)
	assert.Len(t, res.Resolution.Retargeted, 1)
	require.Len(t, res.Reports, 1)
	rep := res.Reports[0]
	assert.Equal(t, "App, Version=1.0.0.0", rep.Assembly)
	assert.Equal(t, map[walk.Kind]int{walk.KindMissingType: 1}, rep.ByKind())
	assert.Equal(t, "App.Holder.Old", rep.Findings[0].Symbol)
	assert.True(t, res.HasErrors())

	for _, s := range pipeline.Stages {
		assert.True(t, res.Timings.Has(s), s)
	}
	assert.Len(t, timer.Report().Phases, len(pipeline.Stages))

	var last pipeline.Event
	statuses := map[pipeline.Stage][]pipeline.Status{}
	for _, ev := range sink.Events() {
		if ev.Item == "" || ev.Stage != pipeline.StageLoad {
			statuses[ev.Stage] = append(statuses[ev.Stage], ev.Status)
		}
		last = ev
	}
	assert.Equal(t, []pipeline.Status{pipeline.StatusWorking, pipeline.StatusDone}, statuses[pipeline.StageBind])
	assert.Equal(t, []pipeline.Status{pipeline.StatusWorking, pipeline.StatusDone}, statuses[pipeline.StageRetarget])
	assert.Equal(t, pipeline.StageWalk, last.Stage)
	assert.Equal(t, pipeline.StatusDone, last.Status)
}

func TestRunWalkAll(t *testing.T) {
	res, err := pipeline.Run(context.Background(), &pipeline.Request{
		Files:    files(),
		Consumer: consumer(),
		WalkAll:  true,
		Jobs:     4,
	})
	require.NoError(t, err)
	require.Len(t, res.Reports, 3)
	assert.Empty(t, res.Reports[0].Findings)
	assert.Empty(t, res.Reports[1].Findings)
	assert.Len(t, res.Reports[2].Findings, 1)

	// Struct primitives derive from System.ValueType in both corlibs.
	for _, rep := range res.Reports {
		for _, f := range rep.Findings {
			assert.NotContains(t, f.Symbol, "System.Int32")
		}
	}
}

func TestRunWithoutWalk(t *testing.T) {
	sink := &pipeline.RecordingSink{}
	res, err := pipeline.Run(context.Background(), &pipeline.Request{
		Files:    files(),
		Consumer: consumer(),
		NoWalk:   true,
		Progress: sink,
	})
	require.NoError(t, err)
	assert.Len(t, res.Resolution.Retargeted, 1)
	assert.Empty(t, res.Reports)
	assert.False(t, res.Timings.Has(pipeline.StageWalk))
	for _, ev := range sink.Events() {
		assert.NotEqual(t, pipeline.StageWalk, ev.Stage)
	}
}

func TestRunCleanConsumer(t *testing.T) {
	res, err := pipeline.Run(context.Background(), &pipeline.Request{
		Files: files(),
		Consumer: []pipeline.ConsumerRef{
			{Name: "mscorlib", Version: "1.0.0.0"},
			{Name: "Lib", Version: "1.0.0.0"},
			{Name: "App"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Resolution.Retargeted)
	assert.Empty(t, res.Reports)
	assert.False(t, res.HasErrors())
}

func TestRunRejectsBadConsumers(t *testing.T) {
	cases := []struct {
		name string
		refs []pipeline.ConsumerRef
		want error
	}{
		{"unknown", []pipeline.ConsumerRef{{Name: "Nope"}}, pipeline.ErrUnknownAssembly},
		{"unknown version", []pipeline.ConsumerRef{{Name: "Lib", Version: "9.0.0.0"}}, pipeline.ErrUnknownAssembly},
		{"ambiguous", []pipeline.ConsumerRef{{Name: "Lib"}}, pipeline.ErrAmbiguousAssembly},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &pipeline.RecordingSink{}
			_, err := pipeline.Run(context.Background(), &pipeline.Request{
				Files:    files(),
				Consumer: tc.refs,
				Progress: sink,
			})
			require.ErrorIs(t, err, tc.want)
			events := sink.Events()
			last := events[len(events)-1]
			assert.Equal(t, pipeline.StageRetarget, last.Stage)
			assert.Equal(t, pipeline.StatusError, last.Status)
		})
	}
}

func TestRunReportsLoadErrors(t *testing.T) {
	sink := &pipeline.RecordingSink{}
	bad := filepath.Join("testdata", "bad.txt")
	res, err := pipeline.Run(context.Background(), &pipeline.Request{
		Files:    append(files(), bad),
		Consumer: consumer(),
		Progress: sink,
	})
	require.ErrorIs(t, err, metadata.ErrUnknownFormat)
	assert.Nil(t, res.Universe)

	events := sink.Events()
	last := events[len(events)-1]
	assert.Equal(t, bad, last.Item)
	assert.Equal(t, pipeline.StatusError, last.Status)

	_, err = pipeline.Run(context.Background(), &pipeline.Request{})
	require.Error(t, err)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Run(ctx, &pipeline.Request{Files: files(), Consumer: consumer()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunTraces(t *testing.T) {
	ring := trace.NewRingTracer(512, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	_, err := pipeline.Run(ctx, &pipeline.Request{Files: files(), Consumer: consumer()})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		seen[ev.Name] = true
	}
	for _, name := range []string{"pipeline.run", "refs.resolve", "walk.assembly", "walk.finding"} {
		assert.True(t, seen[name], name)
	}
}
