package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retarget/internal/metadata"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	s := &session{}
	root := newRootCmd(s)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	s.failed = err != nil
	s.close()
	return out.String(), errOut.String(), err
}

var fixture = []string{filepath.Join("testdata", "framework.yaml"), filepath.Join("testdata", "app.toml")}

func walkArgs(extra ...string) []string {
	args := []string{"walk", "--ui=off", "--ref", "mscorlib@2.0.0.0", "--ref", "Lib@2.0.0.0", "--ref", "App"}
	args = append(args, extra...)
	return append(args, fixture...)
}

func TestWalkPretty(t *testing.T) {
	out, _, err := execute(t, walkArgs()...)
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, out, "[App]App.Holder.Old: error MD1001")
	assert.Contains(t, out, "App, Version=1.0.0.0: 1 findings")

	_, _, err = execute(t, walkArgs("--allow-errors")...)
	require.NoError(t, err)
}

func TestWalkShort(t *testing.T) {
	out, _, err := execute(t, walkArgs("--format=short", "--allow-errors", "--all")...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ERROR MD1001 [App]App.Holder.Old: "), out)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestWalkJSON(t *testing.T) {
	out, _, err := execute(t, walkArgs("--format=json", "--allow-errors", "--timings", "--all")...)
	require.NoError(t, err)

	var doc walkOutputJSON
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.Equal(t, []string{"App, Version=1.0.0.0"}, doc.Retargeted)
	require.Len(t, doc.Reports, 3)
	app := doc.Reports[2]
	assert.Equal(t, 1, app.Counts.Types)
	assert.Equal(t, 3, app.Counts.Fields)
	require.Equal(t, 1, app.Findings.Count)
	assert.Equal(t, "MD1001", app.Findings.Diagnostics[0].Code)
	require.NotNil(t, doc.Timings)
	assert.Len(t, doc.Timings.Phases, 4)
}

func TestWalkTableAndQuietTimings(t *testing.T) {
	out, errOut, err := execute(t, walkArgs("--format=table", "--allow-errors", "--quiet", "--timings")...)
	require.NoError(t, err)
	assert.Contains(t, out, "missing-type")
	assert.Contains(t, out, "App.Holder.Old")
	assert.Contains(t, errOut, "walked ")
	assert.Contains(t, errOut, "total ")
}

func TestWalkFromManifest(t *testing.T) {
	t.Chdir(filepath.Join("testdata", "project"))
	out, _, err := execute(t, "walk", "--ui=off", "--max-findings=1")
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, out, "App.Holder.Old")

	_, _, err = execute(t, "walk", "--ui=off", "--ref", "mscorlib@1.0.0.0", "--ref", "Lib@1.0.0.0", "--ref", "App")
	require.NoError(t, err)
}

func TestWalkRejectsBadInput(t *testing.T) {
	_, _, err := execute(t, walkArgs("--format=xml")...)
	require.ErrorContains(t, err, "unsupported format")

	_, _, err = execute(t, "walk", "--ui=off", fixture[0])
	require.ErrorContains(t, err, "no consumer references")

	_, _, err = execute(t, walkArgs("--embed", "Nope")...)
	require.Error(t, err)

	_, _, err = execute(t, walkArgs("--local-types", "weird")...)
	require.ErrorContains(t, err, "local type policy")

	_, _, err = execute(t, walkArgs("--trace-level", "loud")...)
	require.ErrorContains(t, err, "invalid trace level")
}

func TestWalkWritesTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.ndjson")
	_, _, err := execute(t, walkArgs("--allow-errors", "--trace", path, "--trace-level", "debug")...)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline.run")
	assert.Contains(t, string(data), "walk.finding")
}

func TestRingTraceDumpsOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.ndjson")
	_, _, err := execute(t, walkArgs("--trace", path, "--trace-mode", "ring", "--trace-level", "detail")...)
	require.ErrorIs(t, err, errFindings)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"refs.retargeted"`)

	clean := filepath.Join(t.TempDir(), "clean.ndjson")
	_, _, err = execute(t, walkArgs("--allow-errors", "--trace", clean, "--trace-mode", "ring")...)
	require.NoError(t, err)
	assert.NoFileExists(t, clean)
}

func TestLookup(t *testing.T) {
	refs := []string{"--ref", "mscorlib@2.0.0.0", "--ref", "Lib@2.0.0.0", "--ref", "App"}

	args := append([]string{"lookup", "--in", "App", "App.Holder"}, refs...)
	out, _, err := execute(t, append(args, fixture...)...)
	require.ErrorContains(t, err, "1 members of App.Holder do not resolve")
	assert.Contains(t, out, "App.Holder (class) in App, Version=1.0.0.0 [retargeted]")
	assert.Contains(t, out, "!! MD1001")

	args = append([]string{"lookup", "--in", "Lib", "Lib.Widget"}, refs...)
	out, _, err = execute(t, append(args, fixture...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "[unchanged]")

	args = append([]string{"lookup", "--in", "Lib", "Lib.Gone"}, refs...)
	_, _, err = execute(t, append(args, fixture...)...)
	require.Error(t, err)

	args = append([]string{"lookup", "--in", "Tool", "Lib.Gone"}, refs...)
	_, _, err = execute(t, append(args, fixture...)...)
	require.ErrorContains(t, err, "not a consumer reference")
}

func TestPackRoundTrip(t *testing.T) {
	image := filepath.Join(t.TempDir(), "all.rmd")
	out, _, err := execute(t, append([]string{"pack", "--verify", "-o", image}, fixture...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "packed 5 assemblies")

	b, err := metadata.LoadFile(image)
	require.NoError(t, err)
	assert.Len(t, b.Assemblies, 5)

	out, _, err = execute(t, "walk", "--ui=off", "--allow-errors", "--ref", "mscorlib@2.0.0.0", "--ref", "Lib@2.0.0.0", "--ref", "App", image)
	require.NoError(t, err)
	assert.Contains(t, out, "App.Holder.Old")

	_, _, err = execute(t, append([]string{"pack", "-o", filepath.Join(t.TempDir(), "x.bin")}, fixture...)...)
	require.ErrorContains(t, err, ".rmd")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version", "--format=json", "--full")
	require.NoError(t, err)
	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "retarget", payload.Tool)
	assert.Equal(t, "unknown", payload.GitCommit)

	out, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "retarget "))
}

func TestSwitchFlags(t *testing.T) {
	for in, want := range map[string]switchMode{"": switchAuto, "ON": switchOn, " off ": switchOff} {
		got, err := parseSwitch("ui", in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, want, must(parseSwitch("ui", got.String())))
	}
	_, err := parseSwitch("color", "sometimes")
	require.ErrorContains(t, err, "--color")

	cases := []struct {
		mode   switchMode
		format string
		quiet  bool
		tty    bool
		want   bool
	}{
		{switchAuto, "text", false, true, true},
		{switchAuto, "text", false, false, false},
		{switchAuto, "text", true, true, false},
		{switchOn, "text", true, false, true},
		{switchOn, "json", false, true, false},
		{switchOff, "short", false, true, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, showProgress(tc.mode, tc.format, tc.quiet, tc.tty),
			"%s format=%s quiet=%v tty=%v", tc.mode, tc.format, tc.quiet, tc.tty)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
