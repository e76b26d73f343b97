// Package telemetry exports scan metrics and traces over OTLP. The payload
// contract is strict: only enum labels, floats, and identifiers ever leave
// this package — never scanned text, matched substrings, or rule patterns.
package telemetry

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires tracer/meter providers and the scan instruments.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	scansCounter     metric.Int64Counter
	scanDuration     metric.Float64Histogram
	riskScore        metric.Float64Histogram
	threatVoteCounts metric.Int64Histogram

	shutdownTraceProvider func(context.Context) error
	shutdownMeterProvider func(context.Context) error
}

// Disabled returns a no-op provider.
func Disabled() *Provider {
	p := &Provider{
		Enabled: false,
		tracer:  trace.NewNoopTracerProvider().Tracer(""),
		meter:   noop.NewMeterProvider().Meter(""),
	}
	p.initInstruments()
	return p
}

// NewProvider configures OTEL exporters and providers. When disabled it
// returns no-op providers so callers never branch.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		return Disabled(), nil
	}

	log.Info().
		Str("protocol", strings.ToLower(cfg.Protocol)).
		Str("endpoint", cfg.Endpoint).
		Msg("telemetry enabled; upload warnings are expected when no collector is listening")

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	var tp *sdktrace.TracerProvider
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	case "http":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	default:
		return nil, nil
	}
	otel.SetTracerProvider(tp)

	var metricExporter sdkmetric.Reader
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		metricExporter = sdkmetric.NewPeriodicReader(exp)
	case "http":
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		metricExporter = sdkmetric.NewPeriodicReader(exp)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(metricExporter))
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:               true,
		tracer:                tp.Tracer("raxe"),
		meter:                 mp.Meter("raxe"),
		shutdownTraceProvider: tp.Shutdown,
		shutdownMeterProvider: mp.Shutdown,
	}
	p.initInstruments()
	return p, nil
}

func (p *Provider) initInstruments() {
	if p == nil {
		return
	}
	// Instrument creation errors are ignored to keep telemetry best-effort.
	p.scansCounter, _ = p.meter.Int64Counter("raxe_scans_total")
	p.scanDuration, _ = p.meter.Float64Histogram("raxe_scan_duration_ms")
	p.riskScore, _ = p.meter.Float64Histogram("raxe_risk_score")
	p.threatVoteCounts, _ = p.meter.Int64Histogram("raxe_threat_votes")
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return trace.NewNoopTracerProvider().Tracer("")
	}
	return p.tracer
}

// Shutdown flushes providers.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	if p.shutdownTraceProvider != nil {
		_ = p.shutdownTraceProvider(ctx)
	}
	if p.shutdownMeterProvider != nil {
		_ = p.shutdownMeterProvider(ctx)
	}
}

// RecordScan emits the scan metrics with result attributes.
func (p *Provider) RecordScan(ctx context.Context, res *schema.ScanResult) {
	if p == nil || res == nil {
		return
	}
	attrs := metric.WithAttributes(ResultAttributes(res)...)
	p.scansCounter.Add(ctx, 1, attrs)
	p.scanDuration.Record(ctx, res.DurationMS, attrs)
	p.riskScore.Record(ctx, res.RiskScore, attrs)
	if res.Voting != nil {
		p.threatVoteCounts.Record(ctx, int64(res.Voting.ThreatVoteCount), attrs)
	}
}

// ResultAttributes builds the metric label set for one scan result: enum
// labels and identifiers only. The values pass through the SafeAttributes
// deny-list, so every exported attribute is filtered on the hot path.
func ResultAttributes(res *schema.ScanResult) []attribute.KeyValue {
	values := map[string]interface{}{
		"raxe.classification": string(res.Classification),
		"raxe.action":         string(res.Action),
		"raxe.preset":         res.PresetUsed,
		"raxe.degraded":       res.Degraded,
	}
	if res.Voting != nil {
		values["raxe.decision"] = string(res.Voting.Decision)
		values["raxe.decision_rule"] = res.Voting.DecisionRule
	}
	return SafeAttributes(values)
}
