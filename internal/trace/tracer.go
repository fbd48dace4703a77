package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives events. Emit must be safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Level() Level
	// Close flushes buffered output and releases the destination.
	Close() error
}

type nop struct{}

func (nop) Emit(*Event) {}

func (nop) Level() Level { return LevelOff }

func (nop) Close() error { return nil }

// Nop records nothing.
var Nop Tracer = nop{}

// Mode selects where events are kept.
type Mode uint8

const (
	ModeStream Mode = iota + 1 // written as they happen
	ModeRing                   // last N kept in memory
	ModeBoth
)

var modeNames = [...]string{"", "stream", "ring", "both"}

func (m Mode) String() string {
	if m != 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames[1:] {
		if strings.EqualFold(s, name) {
			return Mode(i + 1), nil
		}
	}
	return 0, fmt.Errorf("invalid trace mode %q (expected stream|ring|both)", s)
}

type Config struct {
	Level      Level
	Mode       Mode
	Format     Format    // FormatAuto picks from OutputPath
	Output     io.Writer // overrides OutputPath
	OutputPath string    // "" or "-" is stderr
	RingSize   int
}

// New builds the tracer cfg describes. A LevelOff config yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Mode == ModeRing {
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	}
	if cfg.Mode != ModeStream && cfg.Mode != ModeBoth {
		return nil, fmt.Errorf("unknown trace mode %v", cfg.Mode)
	}
	format := cfg.Format
	if format == FormatAuto {
		format = FormatFor(cfg.OutputPath)
	}
	w, closer, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	st := NewStreamTracer(w, cfg.Level, format)
	st.closer = closer
	if cfg.Mode == ModeStream {
		return st, nil
	}
	return Tee(cfg.Level, st, NewRingTracer(cfg.RingSize, cfg.Level)), nil
}

// OpenOutput opens the destination named by path: stderr for "" and "-",
// else a new file the caller must close.
func OpenOutput(path string) (io.Writer, io.Closer, error) {
	if path == "" || path == "-" {
		return os.Stderr, nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, f, nil
}

func openOutput(cfg Config) (io.Writer, io.Closer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil, nil
	}
	return OpenOutput(cfg.OutputPath)
}

// Dumper is implemented by tracers that keep events in memory.
type Dumper interface {
	Dump(w io.Writer, format Format) error
}

type tee struct {
	level Level
	sinks []Tracer
}

// Tee fans every event out to sinks. Each sink still applies its own level.
func Tee(level Level, sinks ...Tracer) Tracer {
	return &tee{level: level, sinks: sinks}
}

func (t *tee) Emit(ev *Event) {
	for _, s := range t.sinks {
		if ev.Kind != KindHeartbeat && !s.Level().ShouldEmit(ev.Scope) {
			continue
		}
		cp := *ev
		s.Emit(&cp)
	}
}

func (t *tee) Level() Level { return t.level }

func (t *tee) Close() error {
	errs := make([]error, 0, len(t.sinks))
	for _, s := range t.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Dump writes the first in-memory sink.
func (t *tee) Dump(w io.Writer, format Format) error {
	for _, s := range t.sinks {
		if d, ok := s.(Dumper); ok {
			return d.Dump(w, format)
		}
	}
	return nil
}
