package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"liheapcli/internal/config"
)

const (
	ServiceName = "liheap-etl"
	MeterName   = "liheapcli"
)

// Telemetry holds the tracing and metrics providers for one run
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Metrics        *PipelineMetrics

	registry  *promclient.Registry
	traceFile *os.File
	logger    *slog.Logger
}

// InitializeTelemetry sets up metrics backed by a private Prometheus registry
// and, when enabled, span export to the configured trace file.
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)

	t := &Telemetry{
		registry: promclient.NewRegistry(),
		logger:   logger,
	}

	if err := t.initializeTracing(cfg, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(t.registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	metrics, err := NewPipelineMetrics(t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion)))
	if err != nil {
		return nil, err
	}
	t.Metrics = metrics

	logger.Info("Telemetry initialized",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.String("trace_file", cfg.TraceFile),
		slog.String("metrics_file", cfg.MetricsFile))
	return t, nil
}

// initializeTracing installs a stdout-format span exporter or a no-op tracer
func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	if !cfg.EnableTracing {
		t.Tracer = noop.NewTracerProvider().Tracer(MeterName)
		return nil
	}

	var w io.Writer = os.Stderr
	if cfg.TraceFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
			return err
		}
		file, err := os.Create(cfg.TraceFile)
		if err != nil {
			return err
		}
		t.traceFile = file
		w = file
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	t.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	return nil
}

// WriteMetrics writes the current metric values in Prometheus text format
func (t *Telemetry) WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := promclient.WriteToTextfile(path, t.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	t.logger.Info("Metrics written", slog.String("path", path))
	return nil
}

// Gatherer exposes the private registry, mainly for tests
func (t *Telemetry) Gatherer() promclient.Gatherer {
	return t.registry
}

// Shutdown flushes and closes the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var firstErr error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if t.traceFile != nil {
		if err := t.traceFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PipelineMetrics holds the instruments recorded by the stages.
// A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	StageExecutions metric.Int64Counter
	StageDuration   metric.Float64Histogram
	Rows            metric.Int64Counter
	RowsDropped     metric.Int64Counter
	SourcesSkipped  metric.Int64Counter
	GeoLookups      metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	stageExecutions, err := meter.Int64Counter(
		"liheap.stage.executions",
		metric.WithDescription("Stage executions by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage executions counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram(
		"liheap.stage.duration",
		metric.WithDescription("Stage execution duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	rows, err := meter.Int64Counter(
		"liheap.rows",
		metric.WithDescription("Rows read and written per stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rows counter: %w", err)
	}

	dropped, err := meter.Int64Counter(
		"liheap.rows.dropped",
		metric.WithDescription("Rows dropped per stage and reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dropped rows counter: %w", err)
	}

	skipped, err := meter.Int64Counter(
		"liheap.sources.skipped",
		metric.WithDescription("Files or sheets excluded from a stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create skipped sources counter: %w", err)
	}

	geo, err := meter.Int64Counter(
		"liheap.geonames.lookups",
		metric.WithDescription("ZIP to place-name reference loads by source"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create geonames counter: %w", err)
	}

	return &PipelineMetrics{
		StageExecutions: stageExecutions,
		StageDuration:   stageDuration,
		Rows:            rows,
		RowsDropped:     dropped,
		SourcesSkipped:  skipped,
		GeoLookups:      geo,
	}, nil
}

// RecordStage records one stage execution
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageExecutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status)))
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordRows records rows read and written by a stage
func (m *PipelineMetrics) RecordRows(ctx context.Context, stage string, in, out int) {
	if m == nil {
		return
	}
	m.Rows.Add(ctx, int64(in), metric.WithAttributes(
		attribute.String("stage", stage), attribute.String("direction", "in")))
	m.Rows.Add(ctx, int64(out), metric.WithAttributes(
		attribute.String("stage", stage), attribute.String("direction", "out")))
}

// RecordDropped records rows removed for a reason
func (m *PipelineMetrics) RecordDropped(ctx context.Context, stage, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RowsDropped.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("stage", stage), attribute.String("reason", reason)))
}

// RecordSkipped records excluded files or sheets
func (m *PipelineMetrics) RecordSkipped(ctx context.Context, stage, kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SourcesSkipped.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("stage", stage), attribute.String("kind", kind)))
}

// RecordGeoSource records which reference source served the city lookup
func (m *PipelineMetrics) RecordGeoSource(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.GeoLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
