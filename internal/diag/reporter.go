package diag

import "vprintf/internal/source"

// Reporter: куда фазы отдают готовые диагностики.
// Реализации: BagReporter (кладёт в Bag), DedupReporter.
type Reporter interface {
	Report(d *Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

func NewReportBuilder(r Reporter, sev Severity, code Code, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag: Diagnostic{
			Severity: sev,
			Code:     code,
			Message:  msg,
			Primary:  primary,
		},
	}
}

func ReportError(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, primary, msg)
}

func ReportWarning(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Notes = append(b.diag.Notes, Note{Span: sp, Msg: msg})
	return b
}

func (b *ReportBuilder) WithFix(title string, edits ...FixEdit) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Fixes = append(b.diag.Fixes, Fix{Title: title, Edits: edits})
	return b
}

// WithSuggestion is Diagnostic.WithSuggestion for the builder.
func (b *ReportBuilder) WithSuggestion(sp source.Span, old, suggestion string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.WithSuggestion(sp, old, suggestion)
	return b
}

// Emit sends the diagnostic exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	b.emitted = true
	if b.reporter != nil {
		d := b.diag
		b.reporter.Report(&d)
	}
}

func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter: адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d *Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}
