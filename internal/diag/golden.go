package diag

import (
	"fmt"
	"sort"
	"strings"
)

// FormatShortDiagnostics renders diagnostics into a stable,
// single-line-per-entry representation used by tests and the CLI's short
// output. Entries are sorted by location, severity and code.
func FormatShortDiagnostics(diags []*Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	sorted := make([]*Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d != nil {
			sorted = append(sorted, d)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i], sorted[j]
		if li, lj := di.Primary.String(), dj.Primary.String(); li != lj {
			return li < lj
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})

	var b strings.Builder
	for _, d := range sorted {
		fmt.Fprintf(&b, "%s %s %s: %s\n", d.Severity, d.Code.ID(), d.Primary, firstLine(d.Message))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "  note %s: %s\n", n.Location, firstLine(n.Msg))
		}
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
