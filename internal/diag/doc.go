// Package diag defines the diagnostic model shared by the scan, resolve and
// emit phases of vprintf.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for problems found in
//     printf call sites (bad specifiers, arity mismatches, advisories).
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting layers.
//   - Model fix suggestions as plain text edits over source spans.
//
// # Scope
//
// Package diag does not format, print or apply anything. Rendering lives in
// internal/diagfmt; orchestration lives in internal/expand and cmd/vprintf.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – compact numeric identifier with a stable string form (FMT1001).
//   - Message – for format errors this is exactly `<reason>: "<substring>"`.
//   - Primary – span of the format literal in the Go source file.
//   - Notes – optional secondary spans, e.g. the offending specifier inside
//     the literal when its position can be mapped back to source bytes.
//   - Fixes – optional replacement suggestions (for example %ld -> %lld).
//
// # Emitting
//
// Phases call Reporter.Report directly or go through ReportBuilder:
//
//	diag.ReportError(r, diag.FmtSizeNotAllowed, litSpan, msg).
//		WithNote(specSpan, "offending specifier").
//		Emit()
//
// BagReporter stores diagnostics in a Bag, which supports sorting and
// deduplication so output order is stable across parallel runs.
package diag
