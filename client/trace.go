package client

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xiaot623/gogo/sdapi/client"

// startSpan opens the span of one API operation on the global provider.
func startSpan(ctx context.Context, op, method, path string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, "sdapi."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("sdapi.path", path),
		))
}

// endSpan records the outcome of an operation and ends its span. A zero
// status means no response was received.
func endSpan(span trace.Span, status int, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
