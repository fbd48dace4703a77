package diag

import (
	"strings"
	"testing"
)

func TestBagLimitAndErrors(t *testing.T) {
	bag := NewBag(2)
	loc := Location{Assembly: "LibV2", Symbol: "NS.C"}
	if !bag.Add(Errorf(MetaMissingType, loc, "missing")) {
		t.Fatalf("first add must succeed")
	}
	w := New(SevWarning, RetInfo, loc, "warn")
	bag.Add(&w)
	if bag.Add(Errorf(MetaMissingType, loc, "third")) {
		t.Fatalf("bag must respect its limit")
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("expected both errors and warnings")
	}
	if bag.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", bag.Len())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	bag := NewBag(10)
	b := Location{Assembly: "B", Symbol: "T"}
	a := Location{Assembly: "A", Symbol: "T"}
	bag.Add(Errorf(RetBaseTypeError, b, "x"))
	bag.Add(Errorf(RetBaseTypeError, a, "x"))
	bag.Add(Errorf(RetBaseTypeError, a, "x"))
	bag.Dedup()
	bag.Sort()
	items := bag.Items()
	if len(items) != 2 {
		t.Fatalf("expected dedup to keep 2 items, got %d", len(items))
	}
	if items[0].Primary.Assembly != "A" {
		t.Fatalf("expected A first, got %s", items[0].Primary.Assembly)
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	loc := Location{Symbol: "C"}
	for range 3 {
		ReportError(r, RetMissingMember, loc, "gone").Emit()
	}
	ReportWarning(r, RetMissingMember, loc, "gone").Emit()
	if bag.Len() != 2 {
		t.Fatalf("expected 2 unique diagnostics, got %d", bag.Len())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	b := ReportInfo(BagReporter{Bag: bag}, RetInfo, Location{}, "info").
		WithNote(Location{Symbol: "x"}, "note")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("builder emitted %d times", bag.Len())
	}
	if got := bag.Items()[0].Notes; len(got) != 1 {
		t.Fatalf("expected note to be carried, got %v", got)
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[Code]string{
		MetaMissingType:                "MD1001",
		RetIllegalGenericInstantiation: "RET2002",
		IOLoadFileError:                "IO4001",
		ProjMissingAssembly:            "PRJ5002",
		UnknownCode:                    "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Fatalf("%d: got %s want %s", code, got, want)
		}
	}
	if Code(9999).Title() != "Unknown error" {
		t.Fatalf("unknown codes must fall back to the default title")
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	d1 := NewError(MetaMissingType, Location{Assembly: "B", Symbol: "T"}, "first\nsecond").
		WithNote(Location{Symbol: "U"}, "note")
	d2 := New(SevWarning, RetInfo, Location{Assembly: "A", Symbol: "T"}, "w")
	out := FormatShortDiagnostics([]*Diagnostic{&d1, &d2}, true)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "WARNING RET2000 [A]T") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "ERROR MD1001 [B]T: first" {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	if lines[2] != "  note U: note" {
		t.Fatalf("unexpected note line %q", lines[2])
	}
}
