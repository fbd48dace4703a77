package ui

import (
	"errors"
	"strings"
	"testing"

	"retarget/internal/pipeline"
)

func apply(t *testing.T, m *progressModel, events ...pipeline.Event) {
	t.Helper()
	for _, ev := range events {
		m.applyEvent(ev)
	}
}

func TestProgressTracksItems(t *testing.T) {
	m := NewProgressModel("retarget", []string{"a.toml", "b.yaml"}, nil).(*progressModel)
	if got := m.percent(); got != 0 {
		t.Fatalf("initial percent = %v", got)
	}

	apply(t, m,
		pipeline.Event{Item: "a.toml", Stage: pipeline.StageLoad, Status: pipeline.StatusWorking},
		pipeline.Event{Item: "a.toml", Stage: pipeline.StageLoad, Status: pipeline.StatusDone},
		pipeline.Event{Item: "b.yaml", Stage: pipeline.StageLoad, Status: pipeline.StatusDone},
		pipeline.Event{Stage: pipeline.StageBind, Status: pipeline.StatusDone},
		pipeline.Event{Stage: pipeline.StageRetarget, Status: pipeline.StatusWorking},
	)
	if m.stageLabel != "retargeting" {
		t.Errorf("stage label = %q", m.stageLabel)
	}
	if got, want := m.percent(), 3.0/4.0; got != want {
		t.Errorf("percent = %v, want %v", got, want)
	}

	apply(t, m,
		pipeline.Event{Stage: pipeline.StageRetarget, Status: pipeline.StatusDone},
		pipeline.Event{Item: "App, Version=1.0.0.0", Stage: pipeline.StageWalk, Status: pipeline.StatusWorking},
	)
	if len(m.items) != 3 || m.items[2].status != "walking" {
		t.Fatalf("walk item not tracked: %+v", m.items)
	}
	if got, want := m.percent(), 4.0/5.0; got != want {
		t.Errorf("percent = %v, want %v", got, want)
	}

	m.Update(doneMsg{})
	view := m.View()
	if !strings.HasPrefix(stripANSI(view), "done: retarget") {
		t.Errorf("unexpected header:\n%s", view)
	}
	if !strings.Contains(view, "App, Version=1.0.0.0") {
		t.Errorf("walk item missing:\n%s", view)
	}
}

func TestProgressMarksFailure(t *testing.T) {
	m := NewProgressModel("retarget", []string{"bad.txt"}, nil).(*progressModel)
	apply(t, m, pipeline.Event{Item: "bad.txt", Stage: pipeline.StageLoad, Status: pipeline.StatusError, Err: errors.New("boom")})
	if m.items[0].status != "error" || !m.failed {
		t.Fatalf("failure not recorded: %+v", m.items)
	}
	m.Update(doneMsg{})
	if !strings.Contains(stripANSI(m.View()), "failed: retarget") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	ch := make(chan pipeline.Event)
	close(ch)
	m := NewProgressModel("retarget", nil, ch).(*progressModel)
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatal("closed channel should produce doneMsg")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	skip := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			skip = true
		case skip && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			skip = false
		case !skip:
			b.WriteRune(r)
		}
	}
	return b.String()
}
