package diag

import "vprintf/internal/source"

// ключ: код, основной спан, первая заметка (спан конверсии) и текст
type dedupKey struct {
	code    Code
	sev     Severity
	primary source.Span
	conv    source.Span
	msg     string
}

// DedupReporter forwards each distinct diagnostic once. Two diagnostics are
// the same when code, severity, primary span, message and the conversion
// they point at (the first note) agree, so a format literal reached twice
// while nested call sites are rendered is reported once.
type DedupReporter struct {
	next    Reporter
	seen    map[dedupKey]struct{}
	dropped int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(d *Diagnostic) {
	if r == nil || d == nil {
		return
	}
	key := dedupKey{code: d.Code, sev: d.Severity, primary: d.Primary, msg: d.Message}
	if len(d.Notes) > 0 {
		key.conv = d.Notes[0].Span
	}
	if _, ok := r.seen[key]; ok {
		r.dropped++
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}

// Dropped returns how many duplicates were suppressed.
func (r *DedupReporter) Dropped() int {
	if r == nil {
		return 0
	}
	return r.dropped
}
