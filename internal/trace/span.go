package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seq      atomic.Uint64
	spanIDs  atomic.Uint64
	openSpan atomic.Int64
)

// OpenSpans returns how many recorded spans have begun but not ended.
func OpenSpans() int64 { return openSpan.Load() }

func emit(t Tracer, ev Event) {
	ev.Seq = seq.Add(1)
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	t.Emit(&ev)
}

func recording(t Tracer, scope Scope) bool {
	return t != nil && t.Level().ShouldEmit(scope)
}

// Span is an interval of a run. Spans whose scope the tracer does not
// record are inert, as is a nil *Span.
type Span struct {
	t      Tracer
	id     uint64
	parent uint64
	scope  Scope
	name   string
	start  time.Time
	attrs  map[string]string
}

// Begin opens a span under parent (0 for a root span).
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !recording(t, scope) {
		return &Span{}
	}
	s := &Span{t: t, id: spanIDs.Add(1), parent: parent, scope: scope, name: name, start: time.Now()}
	openSpan.Add(1)
	emit(t, Event{Time: s.start, Kind: KindBegin, Scope: scope, Span: s.id, Parent: parent, Name: name})
	return s
}

// Start opens a span under the one carried by ctx and returns a context
// carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	s := Begin(FromContext(ctx), scope, name, CurrentSpan(ctx).SpanID)
	if s.id == 0 {
		return s, ctx
	}
	return s, WithSpanContext(ctx, SpanContext{SpanID: s.id})
}

// End closes the span and returns its duration. Later calls do nothing.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.t == nil {
		return 0
	}
	t := s.t
	s.t = nil
	openSpan.Add(-1)
	now := time.Now()
	emit(t, Event{
		Time:   now,
		Kind:   KindEnd,
		Scope:  s.scope,
		Span:   s.id,
		Parent: s.parent,
		Name:   s.name,
		Detail: detail,
		Attrs:  s.attrs,
	})
	return now.Sub(s.start)
}

// Attr attaches key=value to the span's end event.
func (s *Span) Attr(key, value string) *Span {
	if s == nil || s.t == nil {
		return s
	}
	if s.attrs == nil {
		s.attrs = make(map[string]string, 2)
	}
	s.attrs[key] = value
	return s
}

// ID returns the span's id, or 0 when it is not recorded.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point records an instant event.
func Point(t Tracer, scope Scope, name, detail string, attrs map[string]string) {
	if !recording(t, scope) {
		return
	}
	emit(t, Event{Kind: KindPoint, Scope: scope, Name: name, Detail: detail, Attrs: attrs})
}
