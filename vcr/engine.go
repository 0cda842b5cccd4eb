package vcr

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/httptape/cassette"
	"github.com/jonwraymond/httptape/tape"
)

// Engine intercepts outgoing HTTP calls for one cassette file. It holds only
// its mode and borrowed registry handles; the registry owns all session
// data. Engines are safe for concurrent use, including several engines bound
// to the same cassette.
type Engine struct {
	mode Mode
	path string
	id   string

	registry *tape.Registry
	session  *tape.Session // replay only
	writer   *tape.Writer  // record only

	redactRequest  RequestRedactor
	redactResponse ResponseRedactor

	logger Logger
	inst   *instruments

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// EngineOption configures an Engine before it opens its cassette.
type EngineOption func(*Engine)

// WithRegistry binds the engine to a caller-owned registry instead of
// tape.DefaultRegistry. Engines sharing one cassette must share a registry.
func WithRegistry(r *tape.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithRequestRedactor applies a transform to every captured request before
// it is matched or persisted.
func WithRequestRedactor(r RequestRedactor) EngineOption {
	return func(e *Engine) {
		e.redactRequest = r
	}
}

// WithResponseRedactor applies a transform to every captured response before
// it is persisted. The live response returned to the caller is unaffected.
func WithResponseRedactor(r ResponseRedactor) EngineOption {
	return func(e *Engine) {
		e.redactResponse = r
	}
}

// WithLogger sets the engine's structured logger.
func WithLogger(l Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTracerProvider sets the tracer provider for per-call spans.
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		e.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider for engine metrics.
func WithMeterProvider(mp metric.MeterProvider) EngineOption {
	return func(e *Engine) {
		e.meterProvider = mp
	}
}

// New creates an engine bound to mode and the cassette at path, opening the
// cassette eagerly: in Replay mode the file is read and parsed now, so a
// malformed cassette fails construction instead of the first call; in Record
// mode the write handle is registered now and the file is not touched.
func New(mode Mode, path string, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		mode:           mode,
		path:           path,
		id:             uuid.NewString(),
		registry:       tape.DefaultRegistry,
		logger:         noopLogger{},
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(e)
	}

	inst, err := newInstruments(e.tracerProvider, e.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("vcr: instruments: %w", err)
	}
	e.inst = inst

	switch mode {
	case Replay:
		session, err := e.registry.OpenReplay(path)
		if err != nil {
			return nil, err
		}
		e.session = session
	case Record:
		writer, err := e.registry.OpenRecord(path)
		if err != nil {
			return nil, err
		}
		e.writer = writer
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}

	e.logger = e.logger.With(
		Field{Key: "cassette", Value: path},
		Field{Key: "mode", Value: mode.String()},
		Field{Key: "engine_id", Value: e.id},
	)
	return e, nil
}

// Mode returns the engine's fixed operating mode.
func (e *Engine) Mode() Mode { return e.mode }

// Cassette returns the cassette file path the engine is bound to.
func (e *Engine) Cassette() string { return e.path }

// RoundTripper wraps next with the engine. A nil next means
// http.DefaultTransport; in Replay mode next is never invoked.
func (e *Engine) RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{engine: e, next: next}
}

// Client returns an http.Client whose transport is the engine wrapped
// around next.
func (e *Engine) Client(next http.RoundTripper) *http.Client {
	return &http.Client{Transport: e.RoundTripper(next)}
}

type transport struct {
	engine *Engine
	next   http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.engine.handle(req, t.next)
}

func (e *Engine) handle(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	ctx, span := e.inst.startCall(req.Context(), e)
	start := time.Now()

	resp, err := e.dispatch(ctx, req, next)

	e.inst.recordCall(ctx, e, time.Since(start))
	e.inst.endCall(span, err)

	if err != nil {
		e.logger.Error(ctx, "call failed", Field{Key: "error", Value: err.Error()})
	} else {
		e.logger.Debug(ctx, "call handled",
			Field{Key: "url", Value: req.URL.String()},
			Field{Key: "status", Value: resp.StatusCode},
		)
	}
	return resp, err
}

func (e *Engine) dispatch(ctx context.Context, req *http.Request, next http.RoundTripper) (*http.Response, error) {
	record, err := cassette.CaptureRequest(req)
	if err != nil {
		return nil, err
	}
	if e.redactRequest != nil {
		e.redactRequest.RedactRequest(&record)
	}

	switch e.mode {
	case Record:
		return e.record(ctx, record, req, next)
	default:
		return e.replay(ctx, record)
	}
}

// record performs the real call and persists the pair. The caller receives
// the original response unchanged; redaction touches only the stored copy.
// If the real call fails or is cancelled, nothing is appended.
func (e *Engine) record(ctx context.Context, record cassette.Request, req *http.Request, next http.RoundTripper) (*http.Response, error) {
	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	stored, err := cassette.CaptureResponse(resp)
	if err != nil {
		return nil, err
	}
	if e.redactResponse != nil {
		e.redactResponse.RedactResponse(&stored)
	}

	if err := e.writer.Append(cassette.Interaction{Request: record, Response: stored}); err != nil {
		return nil, err
	}
	e.inst.recordAppend(ctx, e)
	return resp, nil
}

// replay answers from the session without touching the network.
func (e *Engine) replay(ctx context.Context, record cassette.Request) (*http.Response, error) {
	i, ok := e.session.Lookup(record)
	if !ok {
		e.inst.recordMiss(ctx, e)
		return nil, &LookupError{Cassette: e.path, Request: record}
	}
	return e.session.Response(i).HTTPResponse(), nil
}

var _ http.RoundTripper = (*transport)(nil)
