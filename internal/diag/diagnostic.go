package diag

// Location names the symbol a diagnostic is attached to.
type Location struct {
	Assembly string
	Symbol   string
}

func (l Location) String() string {
	switch {
	case l.Assembly == "" && l.Symbol == "":
		return "<unknown>"
	case l.Assembly == "":
		return l.Symbol
	case l.Symbol == "":
		return "[" + l.Assembly + "]"
	}
	return "[" + l.Assembly + "]" + l.Symbol
}

type Note struct {
	Location Location
	Msg      string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

// IsError reports whether d is non-nil and has error severity.
func (d *Diagnostic) IsError() bool {
	return d != nil && d.Severity >= SevError
}
