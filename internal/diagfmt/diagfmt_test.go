package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"retarget/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	missing := diag.NewError(diag.MetaMissingType, diag.Location{Assembly: "App", Symbol: "App.User.Old"},
		"field type: type 'Lib.Gone' is not defined in 'Lib, Version=2.0.0.0'").
		WithNote(diag.Location{Assembly: "Lib", Symbol: "Lib.Gone"}, "referenced type")
	bag.Add(&missing)
	dropped := diag.NewError(diag.RetDroppedImplementation, diag.Location{Assembly: "App", Symbol: "App.Impl"},
		"explicit implementation of 'Lib.IFoo.B()' was dropped")
	bag.Add(&dropped)
	timings := diag.New(diag.SevInfo, diag.ObsTimings, diag.Location{}, "pipeline finished in 1.00 ms").
		WithNote(diag.Location{}, "load: 0.50 ms")
	bag.Add(&timings)
	bag.Sort()
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleBag(), PrettyOpts{}); err != nil {
		t.Fatalf("Pretty() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"[App]App.User.Old: error MD1001: field type:",
		"[App]App.Impl: error RET2008:",
		"<unknown>: info OBS6001: pipeline finished",
		"note: <unknown>: load: 0.50 ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "referenced type") {
		t.Errorf("notes printed without ShowNotes:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("escape codes with Color=false:\n%s", out)
	}
}

func TestPrettyNotesAndLimits(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleBag(), PrettyOpts{ShowNotes: true, Max: 1}); err != nil {
		t.Fatalf("Pretty() error: %v", err)
	}
	want := "<unknown>: info OBS6001: pipeline finished in 1.00 ms\n" +
		"  note: <unknown>: load: 0.50 ms\n" +
		"... 2 more diagnostics\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyTruncatesSymbols(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleBag(), PrettyOpts{ShowNotes: true, Width: 12}); err != nil {
		t.Fatalf("Pretty() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[App]App....: error MD1001", "note: [Lib]Lib....: referenced type"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrettyColor(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleBag(), PrettyOpts{Color: true}); err != nil {
		t.Fatalf("Pretty() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected escape codes:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{IncludeNotes: true}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if output.Count != 3 || output.Total != 3 {
		t.Fatalf("count=%d total=%d", output.Count, output.Total)
	}
	var missing *DiagnosticJSON
	for i := range output.Diagnostics {
		if output.Diagnostics[i].Code == "MD1001" {
			missing = &output.Diagnostics[i]
		}
	}
	if missing == nil {
		t.Fatalf("MD1001 not found: %s", buf.String())
	}
	if missing.Severity != "ERROR" || missing.Location.Symbol != "App.User.Old" {
		t.Errorf("unexpected diagnostic %+v", missing)
	}
	if len(missing.Notes) != 1 || missing.Notes[0].Location.Assembly != "Lib" {
		t.Errorf("unexpected notes %+v", missing.Notes)
	}
}

func TestJSONMaxKeepsTimingNotes(t *testing.T) {
	out := BuildDiagnosticsOutput(sampleBag(), JSONOpts{Max: 1})
	if out.Count != 1 || out.Total != 3 {
		t.Fatalf("count=%d total=%d", out.Count, out.Total)
	}
	d := out.Diagnostics[0]
	if d.Code == "OBS6001" && len(d.Notes) != 1 {
		t.Errorf("timing notes dropped: %+v", d)
	}
	if d.Code != "OBS6001" && len(d.Notes) != 0 {
		t.Errorf("notes included without IncludeNotes: %+v", d)
	}
}
