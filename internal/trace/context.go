package trace

import "context"

// SpanContext identifies the enclosing span of a call.
type SpanContext struct {
	SpanID uint64
}

type carrier struct {
	tracer Tracer
	span   SpanContext
}

type carrierKey struct{}

func load(ctx context.Context) carrier {
	if ctx == nil {
		return carrier{}
	}
	c, _ := ctx.Value(carrierKey{}).(carrier)
	return c
}

func store(ctx context.Context, c carrier) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, carrierKey{}, c)
}

// FromContext returns the context's tracer, or Nop.
func FromContext(ctx context.Context) Tracer {
	if t := load(ctx).tracer; t != nil {
		return t
	}
	return Nop
}

func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	c := load(ctx)
	c.tracer = t
	return store(ctx, c)
}

// CurrentSpan returns the enclosing span, zero at the root.
func CurrentSpan(ctx context.Context) SpanContext {
	return load(ctx).span
}

func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	c := load(ctx)
	c.span = sc
	return store(ctx, c)
}
