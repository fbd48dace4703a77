package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"
)

// Format is the encoding of a trace file.
type Format uint8

const (
	FormatAuto   Format = iota // chosen from the output path
	FormatText                 // one line per event
	FormatNDJSON               // one JSON object per line
	FormatChrome               // chrome://tracing and Perfetto
)

var formatNames = [...]string{"auto", "text", "ndjson", "chrome"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", f)
}

func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatAuto, nil
	}
	for i, name := range formatNames {
		if strings.EqualFold(s, name) {
			return Format(i), nil
		}
	}
	return FormatAuto, fmt.Errorf("invalid trace format %q (expected auto|text|ndjson|chrome)", s)
}

// FormatFor picks a format from a file extension: .ndjson, .json (chrome)
// or text for anything else.
func FormatFor(path string) Format {
	switch {
	case strings.HasSuffix(path, ".ndjson"):
		return FormatNDJSON
	case strings.HasSuffix(path, ".json"):
		return FormatChrome
	default:
		return FormatText
	}
}

var epoch = time.Now()

// encoder frames events into one document. Chrome output is a JSON object
// that is only valid after finish.
type encoder struct {
	w      io.Writer
	format Format
	n      int
}

func newEncoder(w io.Writer, format Format) *encoder {
	if format == FormatAuto {
		format = FormatText
	}
	return &encoder{w: w, format: format}
}

func (e *encoder) write(ev *Event) error {
	var prefix string
	if e.format == FormatChrome {
		prefix = ",\n"
		if e.n == 0 {
			prefix = "{\"traceEvents\":[\n"
		}
	}
	e.n++
	_, err := io.WriteString(e.w, prefix+string(FormatEvent(ev, e.format)))
	return err
}

func (e *encoder) finish() error {
	if e.format != FormatChrome {
		return nil
	}
	tail := "\n]}\n"
	if e.n == 0 {
		tail = "{\"traceEvents\":[]}\n"
	}
	_, err := io.WriteString(e.w, tail)
	return err
}

// FormatEvent encodes a single event. Chrome events carry no separator.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return ndjsonEvent(ev)
	case FormatChrome:
		return chromeEvent(ev)
	default:
		return textEvent(ev)
	}
}

type ndjsonRecord struct {
	Time   string            `json:"time"`
	Seq    uint64            `json:"seq"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Name   string            `json:"name"`
	Detail string            `json:"detail,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func ndjsonEvent(ev *Event) []byte {
	data, err := json.Marshal(ndjsonRecord{
		Time:   ev.Time.Format(time.RFC3339Nano),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Span:   ev.Span,
		Parent: ev.Parent,
		Name:   ev.Name,
		Detail: ev.Detail,
		Attrs:  ev.Attrs,
	})
	if err != nil {
		return fmt.Appendf(nil, "{\"error\":%q}\n", err.Error())
	}
	return append(data, '\n')
}

type chromeRecord struct {
	Name  string            `json:"name"`
	Cat   string            `json:"cat"`
	Phase string            `json:"ph"`
	TS    int64             `json:"ts"`
	PID   int               `json:"pid"`
	TID   uint64            `json:"tid"`
	Scope string            `json:"s,omitempty"`
	Args  map[string]string `json:"args,omitempty"`
}

// chromeEvent gives every span its own track so that spans opened on
// different goroutines never interleave on one.
func chromeEvent(ev *Event) []byte {
	rec := chromeRecord{
		Name: ev.Name,
		Cat:  ev.Scope.String(),
		TS:   ev.Time.Sub(epoch).Microseconds(),
		PID:  1,
		TID:  ev.Span,
	}
	switch ev.Kind {
	case KindBegin:
		rec.Phase = "B"
	case KindEnd:
		rec.Phase = "E"
	default:
		rec.Phase, rec.Scope = "i", "g"
	}
	if ev.Detail != "" || len(ev.Attrs) > 0 {
		rec.Args = maps.Clone(ev.Attrs)
		if rec.Args == nil {
			rec.Args = make(map[string]string, 1)
		}
		if ev.Detail != "" {
			rec.Args["detail"] = ev.Detail
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Appendf(nil, "{\"name\":\"error\",\"ph\":\"i\",\"s\":\"g\",\"args\":{\"error\":%q}}", err.Error())
	}
	return data
}

var textMarks = [...]string{KindBegin: ">", KindEnd: "<", KindPoint: "*", KindHeartbeat: "~"}

// textEvent renders "[   1.250ms] stage    > refs.resolve (detail) {k=v}",
// indented by scope depth.
func textEvent(ev *Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[%9.3fms] %-8s ", float64(ev.Time.Sub(epoch).Microseconds())/1000, ev.Scope)
	if ev.Scope > ScopeRun {
		b.WriteString(strings.Repeat("  ", int(ev.Scope-ScopeRun)))
	}
	if int(ev.Kind) < len(textMarks) && textMarks[ev.Kind] != "" {
		b.WriteString(textMarks[ev.Kind])
		b.WriteByte(' ')
	}
	b.WriteString(ev.Name)
	if ev.Detail != "" {
		b.WriteString(" (" + ev.Detail + ")")
	}
	if len(ev.Attrs) > 0 {
		b.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(ev.Attrs)) {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k + "=" + ev.Attrs[k])
		}
		b.WriteByte('}')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
