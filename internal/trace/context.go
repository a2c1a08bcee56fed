package trace

import "context"

type (
	tracerKey   struct{}
	spanKey     struct{}
	progressKey struct{}
)

// FromContext returns the Tracer stored in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// SpanContext names the command span per-file spans hang off; the expander
// goroutines read it from their context.
type SpanContext struct {
	SpanID uint64
}

func CurrentSpan(ctx context.Context) SpanContext {
	if ctx != nil {
		if sc, ok := ctx.Value(spanKey{}).(SpanContext); ok {
			return sc
		}
	}
	return SpanContext{}
}

func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanKey{}, sc)
}

// ProgressFrom returns the Progress attached by WithProgress, or nil.
func ProgressFrom(ctx context.Context) *Progress {
	if ctx != nil {
		if p, ok := ctx.Value(progressKey{}).(*Progress); ok {
			return p
		}
	}
	return nil
}

func WithProgress(ctx context.Context, p *Progress) context.Context {
	return context.WithValue(ctx, progressKey{}, p)
}
