package observ

import (
	"strings"
	"testing"

	"retarget/internal/diag"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	load := tm.Begin("load")
	tm.End(load, "3 files")
	walk := tm.Begin("walk")
	tm.End(walk, "")
	tm.End(99, "ignored")
	tm.End(load, "twice")
	tm.Begin("open")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(r.Phases))
	}
	if r.Phases[0].Name != "load" || r.Phases[0].Note != "3 files" {
		t.Fatalf("unexpected first phase: %+v", r.Phases[0])
	}
	if r.TotalMS < r.Phases[0].DurationMS {
		t.Fatalf("total %f below phase %f", r.TotalMS, r.Phases[0].DurationMS)
	}

	s := tm.Summary()
	for _, want := range []string{"timings:", "load", "// 3 files", "total"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestTimerDiagnostic(t *testing.T) {
	tm := NewTimer()
	tm.End(tm.Begin("bind"), "")
	d := tm.Diagnostic(diag.Location{Assembly: "App"})
	if d.Code != diag.ObsTimings || d.Severity != diag.SevInfo {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if len(d.Notes) != 1 || !strings.HasPrefix(d.Notes[0].Msg, "bind: ") {
		t.Fatalf("unexpected notes: %+v", d.Notes)
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported phases: %+v", r)
	}
}
