package diag

import (
	"vprintf/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces the bytes under Span with NewText.
type FixEdit struct {
	Span    source.Span
	NewText string
	OldText string // optional guard, checked before applying
}

type Fix struct {
	Title string
	Edits []FixEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

func New(sev Severity, code Code, primary source.Span, msg string) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) *Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d *Diagnostic) WithNote(sp source.Span, msg string) *Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d *Diagnostic) WithFix(title string, edits ...FixEdit) *Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}

// WithSuggestion attaches the replacement for a rejected conversion, e.g.
// "%lld" for "%ld" at sp. The edit keeps old so fix refuses to apply it
// once the source has changed.
func (d *Diagnostic) WithSuggestion(sp source.Span, old, suggestion string) *Diagnostic {
	return d.WithFix("use "+suggestion, FixEdit{Span: sp, NewText: suggestion, OldText: old})
}
