package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is the W3C trace context of a span in string form, for storing next to a
// row that is published later.
type TraceContext struct {
	Traceparent string
	Tracestate  string
}

func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Traceparent: carrier.Get("traceparent"), Tracestate: carrier.Get("tracestate")}
}

func (tc TraceContext) IsZero() bool {
	return tc.Traceparent == "" && tc.Tracestate == ""
}

// Into returns parent carrying tc as its remote span context.
func (tc TraceContext) Into(parent context.Context) context.Context {
	if tc.IsZero() {
		return parent
	}
	carrier := propagation.MapCarrier{}
	if tc.Traceparent != "" {
		carrier.Set("traceparent", tc.Traceparent)
	}
	if tc.Tracestate != "" {
		carrier.Set("tracestate", tc.Tracestate)
	}
	return otel.GetTextMapPropagator().Extract(parent, carrier)
}
