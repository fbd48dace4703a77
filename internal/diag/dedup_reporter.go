package diag

import "sync"

type dedupKey struct {
	code     Code
	sev      Severity
	assembly string
	symbol   string
	msg      string
}

func keyOf(code Code, sev Severity, primary Location, msg string) dedupKey {
	return dedupKey{
		code:     code,
		sev:      sev,
		assembly: primary.Assembly,
		symbol:   primary.Symbol,
		msg:      msg,
	}
}

// DedupReporter wraps another Reporter and suppresses duplicate diagnostics
// with the same code, severity, location and message. The same retargeted
// type is usually reached from many signatures, so walkers report through it.
type DedupReporter struct {
	mu   sync.Mutex
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary Location, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := keyOf(code, sev, primary, msg)
	r.mu.Lock()
	if _, ok := r.seen[key]; ok {
		r.mu.Unlock()
		return
	}
	r.seen[key] = struct{}{}
	r.mu.Unlock()
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}
