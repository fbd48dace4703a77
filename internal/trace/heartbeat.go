package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a beat at a fixed interval carrying the number of open
// spans. Beats that keep reporting the same open spans mean a stuck walk.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat starts beating into t. It returns nil when t records
// nothing or every is not positive; Stop on nil is a no-op.
func StartHeartbeat(t Tracer, every time.Duration) *Heartbeat {
	if t == nil || t.Level() == LevelOff || every <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}
	go h.run(t, every)
	return h
}

func (h *Heartbeat) run(t Tracer, every time.Duration) {
	defer close(h.done)
	tick := time.NewTicker(every)
	defer tick.Stop()
	for n := 1; ; n++ {
		select {
		case <-h.stop:
			return
		case now := <-tick.C:
			emit(t, Event{
				Time:   now,
				Kind:   KindHeartbeat,
				Scope:  ScopeRun,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(n),
				Attrs:  map[string]string{"open_spans": strconv.FormatInt(OpenSpans(), 10)},
			})
		}
	}
}

// Stop ends the beat and waits for the goroutine. It is safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
