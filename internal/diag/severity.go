package diag

import "strings"

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	SevInfo Severity = iota
	// SevWarning is for advisories (FMT1901, FMT1301): the file is still
	// generated.
	SevWarning
	SevError
)

var severityLabels = [...]string{
	SevInfo:    "info",
	SevWarning: "warning",
	SevError:   "error",
}

// Label is the lower-case name used by short, golden and SARIF output.
func (s Severity) Label() string {
	if int(s) < len(severityLabels) {
		return severityLabels[s]
	}
	return "unknown"
}

func (s Severity) String() string {
	return strings.ToUpper(s.Label())
}

// Blocks reports whether a diagnostic of this severity stops generation.
func (s Severity) Blocks(warningsAsErrors bool) bool {
	return s >= SevError || (warningsAsErrors && s == SevWarning)
}
