// Package obstrace wraps a script run (bind and execute together) in an
// OpenTelemetry span. Scoped down to the two exporters a local interpreter actually
// needs: stdout for a developer running a script by hand, and none at
// all when tracing is off. An OTLP gRPC exporter is deliberately absent
// since there is no collector endpoint here to talk to.
package obstrace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider owns the process-wide TracerProvider for one run.
type Provider struct {
	tp      *sdktrace.TracerProvider
	enabled bool
}

// Init installs a TracerProvider as the global one. When enabled is
// false it installs a no-op provider, so callers can unconditionally
// call StartSpan without branching on configuration.
func Init(serviceName string, enabled bool) (*Provider, error) {
	if !enabled {
		return &Provider{tp: sdktrace.NewTracerProvider(), enabled: false}, nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("obstrace: create exporter: %w", err)
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("obstrace: build resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp, enabled: true}, nil
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

func tracer() trace.Tracer { return otel.Tracer("asteria") }

// StartSpan opens a span named name; cmd/asteria opens one per script
// run, covering both the bind and the execute phase.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// WithSpan runs fn inside a span named name, recording fn's error on
// the span (if any) before closing it.
func WithSpan(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, name, attrs...)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// ScriptAttributes describes the script a run span is for.
func ScriptAttributes(path string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("asteria.script", path)}
}

// NativeCallAttributes describes one natives/* invocation inside a span.
func NativeCallAttributes(module, verb string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("asteria.native.module", module),
		attribute.String("asteria.native.verb", verb),
	}
}
