package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeRun, false},
		{LevelError, ScopeRun, true},
		{LevelError, ScopeStage, false},
		{LevelPhase, ScopeStage, true},
		{LevelPhase, ScopeAssembly, false},
		{LevelDetail, ScopeAssembly, true},
		{LevelDetail, ScopeSymbol, false},
		{LevelDebug, ScopeSymbol, true},
		{Level(9), ScopeRun, false},
	}
	for _, c := range cases {
		if got := c.level.ShouldEmit(c.scope); got != c.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", c.level, c.scope, got, c.want)
		}
	}
}

func TestParseNames(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if f, err := ParseFormat("Chrome"); err != nil || f != FormatChrome {
		t.Fatalf("ParseFormat(Chrome) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
	if _, err := ParseMode(""); err == nil {
		t.Fatalf("expected error for empty mode")
	}
	for path, want := range map[string]Format{"t.ndjson": FormatNDJSON, "t.json": FormatChrome, "-": FormatText} {
		if got := FormatFor(path); got != want {
			t.Fatalf("FormatFor(%s) = %s, want %s", path, got, want)
		}
	}
}

func TestRingTracerKeepsNewest(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for i := range 5 {
		Point(r, ScopeSymbol, "ev", string(rune('a'+i)), nil)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d events, want 3", len(snap))
	}
	var got []string
	for _, ev := range snap {
		got = append(got, ev.Detail)
	}
	if strings.Join(got, "") != "cde" {
		t.Fatalf("snapshot order = %v, want [c d e]", got)
	}
	if snap[0].Seq >= snap[2].Seq {
		t.Fatalf("sequence not increasing: %d, %d", snap[0].Seq, snap[2].Seq)
	}
}

func TestSpanEmitsBeginAndEnd(t *testing.T) {
	r := NewRingTracer(16, LevelDetail)
	sp := Begin(r, ScopeAssembly, "set-references", 0)
	sp.Attr("mapped", "4").End("Lib")
	if d := sp.End("again"); d != 0 {
		t.Fatalf("second End recorded %v", d)
	}

	// symbol scope is filtered at detail level.
	inner := Begin(r, ScopeSymbol, "symbol", sp.ID())
	if inner.ID() != 0 {
		t.Fatalf("filtered span got id %d", inner.ID())
	}
	inner.Attr("k", "v").End("")

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("got %d events, want 2", len(snap))
	}
	if snap[0].Kind != KindBegin || snap[1].Kind != KindEnd {
		t.Fatalf("unexpected kinds %s, %s", snap[0].Kind, snap[1].Kind)
	}
	if snap[1].Attrs["mapped"] != "4" || snap[1].Detail != "Lib" {
		t.Fatalf("end event lost its payload: %+v", snap[1])
	}
	if snap[0].Span != snap[1].Span {
		t.Fatalf("span ids differ")
	}
}

func TestStartNestsUnderContextSpan(t *testing.T) {
	r := NewRingTracer(16, LevelPhase)
	ctx := WithTracer(context.Background(), r)
	outer, ctx := Start(ctx, ScopeRun, "pipeline.run")
	inner, innerCtx := Start(ctx, ScopeStage, "refs.resolve")
	if CurrentSpan(innerCtx).SpanID != inner.ID() {
		t.Fatalf("context does not carry the inner span")
	}
	// filtered spans leave the context alone.
	_, same := Start(innerCtx, ScopeSymbol, "ignored")
	if CurrentSpan(same).SpanID != inner.ID() {
		t.Fatalf("filtered span replaced the context span")
	}
	inner.End("")
	outer.End("")

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("got %d events, want 4", len(snap))
	}
	if snap[1].Parent != outer.ID() {
		t.Fatalf("inner parent = %d, want %d", snap[1].Parent, outer.ID())
	}
	if FromContext(same) != Tracer(r) {
		t.Fatalf("span context dropped the tracer")
	}
}

func TestStreamTracerChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatChrome)
	sp := Begin(st, ScopeStage, "walk.assembly", 0)
	Point(st, ScopeSymbol, "retarget.missing-type", "Lib.Box`1", map[string]string{"kind": "named"})
	sp.End("")
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	var doc struct {
		TraceEvents []struct {
			Name  string            `json:"name"`
			Phase string            `json:"ph"`
			TID   uint64            `json:"tid"`
			Args  map[string]string `json:"args"`
		} `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome trace: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 3 {
		t.Fatalf("got %d events, want 3", len(doc.TraceEvents))
	}
	phases := doc.TraceEvents[0].Phase + doc.TraceEvents[1].Phase + doc.TraceEvents[2].Phase
	if phases != "BiE" {
		t.Fatalf("phases = %q, want BiE", phases)
	}
	if doc.TraceEvents[0].TID != doc.TraceEvents[2].TID {
		t.Fatalf("begin and end on different tracks")
	}
	if doc.TraceEvents[1].Args["detail"] != "Lib.Box`1" || doc.TraceEvents[1].Args["kind"] != "named" {
		t.Fatalf("args not carried: %v", doc.TraceEvents[1].Args)
	}
}

func TestEmptyChromeDumpIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRingTracer(4, LevelPhase).Dump(&buf, FormatChrome); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Fatalf("invalid empty trace %q", buf.String())
	}
}

func TestTextFormatSortsAttrs(t *testing.T) {
	ev := &Event{
		Time:  time.Now(),
		Kind:  KindPoint,
		Scope: ScopeSymbol,
		Name:  "walk.finding",
		Attrs: map[string]string{"z": "1", "a": "2", "m": "3"},
	}
	out := string(FormatEvent(ev, FormatText))
	if !strings.Contains(out, "symbol         * walk.finding {a=2, m=3, z=1}") {
		t.Fatalf("unexpected text output %q", out)
	}
}

func TestNDJSONDump(t *testing.T) {
	r := NewRingTracer(8, LevelPhase)
	Begin(r, ScopeRun, "pipeline.run", 0).End("ok")
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var rec struct {
		Kind   string `json:"kind"`
		Scope  string `json:"scope"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("bad line %q: %v", lines[1], err)
	}
	if rec.Kind != "end" || rec.Scope != "run" || rec.Detail != "ok" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestTeeIsConcurrencySafe(t *testing.T) {
	a := NewRingTracer(1024, LevelDebug)
	b := NewRingTracer(1024, LevelPhase)
	tr := Tee(LevelDebug, a, b)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				Point(tr, ScopeSymbol, "p", "", nil)
			}
		}()
	}
	wg.Wait()

	if got := len(a.Snapshot()); got != 400 {
		t.Fatalf("ring a has %d events, want 400", got)
	}
	if got := len(b.Snapshot()); got != 0 {
		t.Fatalf("phase ring kept %d symbol events", got)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewHonoursConfig(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop {
		t.Fatalf("off config = %v, %v", tr, err)
	}
	if _, err := New(Config{Level: LevelPhase}); err == nil {
		t.Fatalf("expected error for missing mode")
	}

	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, Format: FormatNDJSON})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	Begin(tr, ScopeStage, "walk.assembly", 0).End("")
	var dumped bytes.Buffer
	if err := tr.(Dumper).Dump(&dumped, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if buf.String() != dumped.String() {
		t.Fatalf("stream and ring disagree:\n%s\n%s", buf.String(), dumped.String())
	}
}

func TestContextCarriesTracer(t *testing.T) {
	r := NewRingTracer(4, LevelPhase)
	ctx := WithTracer(t.Context(), r)
	if FromContext(ctx) != Tracer(r) {
		t.Fatalf("tracer not recovered from context")
	}
	if FromContext(t.Context()) != Nop {
		t.Fatalf("missing tracer should fall back to Nop")
	}
	if FromContext(WithTracer(ctx, nil)) != Nop {
		t.Fatalf("nil tracer should become Nop")
	}
}

func TestHeartbeatStops(t *testing.T) {
	r := NewRingTracer(64, LevelPhase)
	hb := StartHeartbeat(r, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	hb.Stop()
	hb.Stop()
	snap := r.Snapshot()
	if len(snap) == 0 {
		t.Fatalf("expected heartbeat events")
	}
	if snap[0].Kind != KindHeartbeat || snap[0].Attrs["open_spans"] == "" {
		t.Fatalf("unexpected beat %+v", snap[0])
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("heartbeat started on Nop")
	}
}
