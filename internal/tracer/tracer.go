// Package tracer installs the OpenTelemetry provider for the sdapi command.
// The client package creates its spans on whatever provider is global.
package tracer

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporters understood by Setup.
const (
	ExporterNoop   = "noop"
	ExporterStdout = "stdout"
)

// Options selects the span exporter.
type Options struct {
	Enabled  bool
	Exporter string
	// Writer receives stdout exporter output. Defaults to os.Stderr, keeping
	// spans out of the command's JSON output.
	Writer io.Writer
}

// Setup installs the global TracerProvider and returns its shutdown func.
func Setup(ctx context.Context, opts Options) (func(context.Context) error, error) {
	noopShutdown := func(context.Context) error { return nil }

	if !opts.Enabled || opts.Exporter == "" || opts.Exporter == ExporterNoop {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	}
	if opts.Exporter != ExporterStdout {
		return nil, fmt.Errorf("unsupported exporter: %s", opts.Exporter)
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", "sdapi"))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
