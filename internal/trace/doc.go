// Package trace records what a retargeting run is doing.
//
// Reference resolution, the retargeting wrappers and the symbol walker
// emit spans and point events into a Tracer carried by the context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span, ctx := trace.Start(ctx, trace.ScopeStage, "walk.assembly")
//	defer span.End("")
//
// The level picks the finest scope kept. Phase keeps the run and its
// stages, detail adds one event per assembly or module and debug adds
// per-symbol outcomes such as missing types or dropped implementations.
//
// Events go to a StreamTracer (text, NDJSON or Chrome trace files), to a
// RingTracer holding the newest events for a dump after a failure, or to
// both through Tee.
package trace
