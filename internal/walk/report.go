package walk

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"

	"retarget/internal/diag"
	"retarget/internal/symbols"
)

// Kind classifies a finding.
type Kind uint8

const (
	KindMissingType Kind = iota + 1
	KindUnsupportedType
	KindIllegalInstantiation
	KindMissingCanonical
	KindAmbiguousCanonical
	KindDroppedImplementation
	KindMissingMember
	KindUseSiteError
)

var kindNames = [...]string{
	KindMissingType:           "missing-type",
	KindUnsupportedType:       "unsupported-type",
	KindIllegalInstantiation:  "illegal-instantiation",
	KindMissingCanonical:      "missing-canonical",
	KindAmbiguousCanonical:    "ambiguous-canonical",
	KindDroppedImplementation: "dropped-implementation",
	KindMissingMember:         "missing-member",
	KindUseSiteError:          "use-site-error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Finding is one broken reference. Cause is the error type for type
// findings and nil for member findings.
type Finding struct {
	Kind       Kind
	Symbol     string
	Position   string
	Cause      symbols.NamedTypeSymbol
	Diagnostic *diag.Diagnostic
}

type Counts struct {
	Modules    int `json:"modules"`
	Namespaces int `json:"namespaces"`
	Types      int `json:"types"`
	Methods    int `json:"methods"`
	Fields     int `json:"fields"`
	Properties int `json:"properties"`
	Events     int `json:"events"`
}

func (c *Counts) add(o Counts) {
	c.Modules += o.Modules
	c.Namespaces += o.Namespaces
	c.Types += o.Types
	c.Methods += o.Methods
	c.Fields += o.Fields
	c.Properties += o.Properties
	c.Events += o.Events
}

type Report struct {
	Assembly  string
	Counts    Counts
	Findings  []Finding
	Truncated bool
}

func (r *Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Diagnostic.IsError() {
			return true
		}
	}
	return false
}

// ByKind counts findings per kind.
func (r *Report) ByKind() map[Kind]int {
	out := make(map[Kind]int)
	for _, f := range r.Findings {
		out[f.Kind]++
	}
	return out
}

// Diagnostics collects the findings' diagnostics into a sorted bag.
func (r *Report) Diagnostics() *diag.Bag {
	bag := diag.NewBag(max(len(r.Findings), 1))
	for _, f := range r.Findings {
		bag.Add(f.Diagnostic)
	}
	bag.Sort()
	return bag
}

// WriteTable prints one row per finding with aligned columns.
func (r *Report) WriteTable(w io.Writer, maxSymbolWidth int) error {
	members := r.Counts.Methods + r.Counts.Fields + r.Counts.Properties + r.Counts.Events
	if _, err := fmt.Fprintf(w, "%s: %d types, %d members, %d findings\n",
		r.Assembly, r.Counts.Types, members, len(r.Findings)); err != nil {
		return err
	}
	rows := make([][4]string, len(r.Findings))
	var widths [4]int
	for i, f := range r.Findings {
		sym := f.Symbol
		if maxSymbolWidth > 0 && runewidth.StringWidth(sym) > maxSymbolWidth {
			sym = runewidth.Truncate(sym, maxSymbolWidth, "...")
		}
		rows[i] = [4]string{f.Kind.String(), f.Diagnostic.Code.ID(), sym, f.Position}
		for j, cell := range rows[i] {
			widths[j] = max(widths[j], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "  %s  %s  %s  %s\n",
			runewidth.FillRight(row[0], widths[0]),
			runewidth.FillRight(row[1], widths[1]),
			runewidth.FillRight(row[2], widths[2]),
			row[3]); err != nil {
			return err
		}
	}
	if r.Truncated {
		_, err := fmt.Fprintln(w, "  (truncated)")
		return err
	}
	return nil
}
