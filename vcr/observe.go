package vcr

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName scopes the engine's tracer and meter.
const instrumentationName = "github.com/jonwraymond/httptape/vcr"

// instruments bundles the engine's telemetry primitives. Providers default
// to noop; callers inject real ones through engine options.
type instruments struct {
	tracer   trace.Tracer
	calls    metric.Int64Counter
	misses   metric.Int64Counter
	appends  metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments(tp trace.TracerProvider, mp metric.MeterProvider) (*instruments, error) {
	meter := mp.Meter(instrumentationName)

	calls, err := meter.Int64Counter(
		"vcr.calls.total",
		metric.WithDescription("Total number of calls handled by the engine"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"vcr.replay.misses",
		metric.WithDescription("Replay calls with no matching recorded request"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	appends, err := meter.Int64Counter(
		"vcr.record.appends",
		metric.WithDescription("Interactions appended to cassettes"),
		metric.WithUnit("{interaction}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"vcr.call.duration_ms",
		metric.WithDescription("Engine call handling duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		tracer:   tp.Tracer(instrumentationName),
		calls:    calls,
		misses:   misses,
		appends:  appends,
		duration: duration,
	}, nil
}

func engineAttributes(e *Engine) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("vcr.cassette", e.path),
		attribute.String("vcr.mode", e.mode.String()),
		attribute.String("vcr.engine_id", e.id),
	}
}

// startCall opens a span for one handled call.
func (in *instruments) startCall(ctx context.Context, e *Engine) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, "vcr."+e.mode.String(),
		trace.WithAttributes(engineAttributes(e)...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// endCall closes the span, recording the error status if present.
func (in *instruments) endCall(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// recordCall records the per-call counter and duration.
func (in *instruments) recordCall(ctx context.Context, e *Engine, d time.Duration) {
	opt := metric.WithAttributes(engineAttributes(e)...)
	in.calls.Add(ctx, 1, opt)
	in.duration.Record(ctx, float64(d.Milliseconds()), opt)
}

func (in *instruments) recordMiss(ctx context.Context, e *Engine) {
	in.misses.Add(ctx, 1, metric.WithAttributes(engineAttributes(e)...))
}

func (in *instruments) recordAppend(ctx context.Context, e *Engine) {
	in.appends.Add(ctx, 1, metric.WithAttributes(engineAttributes(e)...))
}
