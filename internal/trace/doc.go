// Package trace records what vprintf is doing while it expands files, so a
// slow or stuck generate run can be diagnosed.
//
// Enable it from the command line:
//
//	vprintf generate --trace=- --trace-level=detail ./kernels
//
// Implementations:
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes every event immediately (stderr or a file)
//   - RingTracer: keeps the last N events for a dump on failure
//   - MultiTracer: fans out to several tracers
//
// Levels: off, error (ring dump only), phase (commands and stages),
// detail (plus per-file events), debug (plus per-call-site events).
//
// Scopes, coarse to fine: ScopeDriver (a CLI command), ScopePass (a stage:
// scan, resolve, emit, write), ScopeModule (one Go file), ScopeNode (one
// printf call site).
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeModule, path, parentID)
//	defer span.End("")
package trace
