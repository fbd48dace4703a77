package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the newest events in a fixed buffer.
type RingTracer struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	size  int
	level Level
}

// NewRingTracer keeps up to capacity events (4096 when capacity <= 0).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

func (r *RingTracer) Emit(ev *Event) {
	r.mu.Lock()
	r.buf[r.next] = *ev
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
	r.mu.Unlock()
}

// Snapshot returns the kept events, oldest first.
func (r *RingTracer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, r.size)
	start := (r.next - r.size + len(r.buf)) % len(r.buf)
	for i := range r.size {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// Dump writes the kept events as one document in format.
func (r *RingTracer) Dump(w io.Writer, format Format) error {
	enc := newEncoder(w, format)
	for _, ev := range r.Snapshot() {
		if err := enc.write(&ev); err != nil {
			return err
		}
	}
	return enc.finish()
}

func (r *RingTracer) Level() Level { return r.level }

func (r *RingTracer) Close() error { return nil }

// StreamTracer writes each event as it arrives.
type StreamTracer struct {
	mu     sync.Mutex
	enc    *encoder
	level  Level
	closer io.Closer
	err    error
	closed bool
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{enc: newEncoder(w, format), level: level}
}

// Emit writes ev. The first write error is kept for Close and later
// events are dropped.
func (t *StreamTracer) Emit(ev *Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil || t.closed {
		return
	}
	t.err = t.enc.write(ev)
}

func (t *StreamTracer) Level() Level { return t.level }

// Close ends the document and closes a file opened by New.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return t.err
	}
	t.closed = true
	if t.err == nil {
		t.err = t.enc.finish()
	}
	if t.closer != nil {
		if err := t.closer.Close(); err != nil && t.err == nil {
			t.err = err
		}
	}
	return t.err
}
