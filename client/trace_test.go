package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestOperationSpans(t *testing.T) {
	recorder := recordSpans(t)
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == BasePath+"/breakpoints/9" {
			writeJSON(w, http.StatusNotFound, `{"fault":{"type":"BreakpointNotFoundException","message":"gone"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"script_threads":[]}`)
	})

	_, err := c.GetScriptThreads(context.Background())
	require.NoError(t, err)
	_, err = c.GetBreakpoint(context.Background(), 9)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "sdapi.GetScriptThreads", ok.Name())
	assert.Equal(t, trace.SpanKindClient, ok.SpanKind())
	assert.Equal(t, codes.Ok, ok.Status().Code)
	attrs := spanAttrs(ok)
	assert.Equal(t, "GET", attrs["http.method"].AsString())
	assert.Equal(t, "/threads", attrs["sdapi.path"].AsString())
	assert.Equal(t, int64(200), attrs["http.status_code"].AsInt64())

	failed := spans[1]
	assert.Equal(t, "sdapi.GetBreakpoint", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Equal(t, int64(404), spanAttrs(failed)["http.status_code"].AsInt64())
}
