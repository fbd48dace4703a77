package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"retarget/internal/diag"
)

// Pretty writes one line per diagnostic:
//
//	[Assembly]Symbol: severity CODE: message
//
// followed by indented notes. It walks bag.Items() in order, so callers
// sort the bag first.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	items := bag.Items()
	shown := len(items)
	if opts.Max > 0 && opts.Max < shown {
		shown = opts.Max
	}
	for _, d := range items[:shown] {
		loc := location(d.Primary, opts.Width)
		if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.loc.Sprint(loc), p.severity(d.Severity), p.code.Sprint(d.Code.ID()), d.Message); err != nil {
			return err
		}
		// Timing notes are the payload of the diagnostic.
		if !opts.ShowNotes && d.Code != diag.ObsTimings {
			continue
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), location(n.Location, opts.Width), n.Msg); err != nil {
				return err
			}
		}
	}
	if hidden := len(items) - shown; hidden > 0 {
		if _, err := fmt.Fprintf(w, "... %d more diagnostics\n", hidden); err != nil {
			return err
		}
	}
	return nil
}

func location(l diag.Location, width int) string {
	s := l.String()
	if width > 0 && runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return s
}

type palette struct {
	loc, code, note *color.Color
	err, warn, info *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		loc:  color.New(color.Bold),
		code: color.New(color.FgCyan),
		note: color.New(color.FgBlue, color.Bold),
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.loc, p.code, p.note, p.err, p.warn, p.info} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return p.err.Sprint("error")
	case diag.SevWarning:
		return p.warn.Sprint("warning")
	default:
		return p.info.Sprint("info")
	}
}
