package main

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// setupTracing installs a process-wide TracerProvider so the spans
// journal.Emit creates for every event are actually sampled and held
// somewhere, rather than discarded by the no-op global provider. It
// returns a shutdown func to flush and release the provider on exit.
//
// No exporter is configured here: overseerd has no fixed backend opinion
// (Jaeger, Zipkin, etc. are all equally plausible), so spans are sampled
// but not exported anywhere by default. Operators wire an
// exporter by setting one up before calling setupTracing's equivalent in
// their own deployment, or by extending this function.
func setupTracing() func(context.Context) error {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
