package diag

// Severity orders diagnostics; errors sort first.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	// SevError marks a reference that cannot be used by the consumer.
	SevError
)

var severityNames = [...]string{SevInfo: "INFO", SevWarning: "WARNING", SevError: "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}
