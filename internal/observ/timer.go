// Package observ measures how long the stages of a retargeting run take.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"retarget/internal/diag"
)

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
	done  bool
}

// Timer records named phases in the order they begin. A nil *Timer
// accepts every call and records nothing. It is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []phase
}

func NewTimer() *Timer { return &Timer{phases: make([]phase, 0, 4)} }

// Begin starts a phase and returns the handle End expects.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, phase{name: name, start: time.Now()})
	return len(t.phases) - 1
}

// End stops the phase idx with an optional note such as "3 assemblies".
// Unknown or already ended handles are ignored.
func (t *Timer) End(idx int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) || t.phases[idx].done {
		return
	}
	p := &t.phases[idx]
	p.dur, p.note, p.done = time.Since(p.start), note, true
}

// PhaseReport is one finished phase in milliseconds.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report lists the finished phases. Phases still running are left out.
func (t *Timer) Report() Report {
	var r Report
	if t == nil {
		return r
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		total += p.dur
		r.Phases = append(r.Phases, PhaseReport{Name: p.name, DurationMS: millis(p.dur), Note: p.note})
	}
	r.TotalMS = millis(total)
	return r
}

// Summary renders the report as an aligned block for stderr.
func (t *Timer) Summary() string {
	r := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range r.Phases {
		fmt.Fprintf(&b, "  %-12s %9.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-12s %9.2f ms\n", "total", r.TotalMS)
	return b.String()
}

// Diagnostic reports the timings as an info diagnostic with one note per
// phase.
func (t *Timer) Diagnostic(loc diag.Location) *diag.Diagnostic {
	r := t.Report()
	d := diag.New(diag.SevInfo, diag.ObsTimings, loc, fmt.Sprintf("pipeline finished in %.2f ms", r.TotalMS))
	for _, p := range r.Phases {
		d = d.WithNote(loc, fmt.Sprintf("%s: %.2f ms", p.Name, p.DurationMS))
	}
	return &d
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
