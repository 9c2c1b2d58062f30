package observability

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/clinicleads"

// Metrics holds the HTTP metrics recorded by middleware
type Metrics struct {
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram
}

// Setup initializes OpenTelemetry tracing and metrics export over OTLP/gRPC
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes HTTP metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

type pipelineMetrics struct {
	generations        metric.Int64Counter
	generationDuration metric.Float64Histogram
	compactions        metric.Int64Counter
	persistFailures    metric.Int64Counter
}

var (
	pipelineOnce sync.Once
	pipelineOK   bool
	pipeline     pipelineMetrics
)

func ensurePipelineMetrics() bool {
	pipelineOnce.Do(func() {
		meter := otel.Meter(instrumentationName)

		generations, err := meter.Int64Counter(
			"landing.generation.count",
			metric.WithDescription("Generation attempts by outcome"),
		)
		if err != nil {
			return
		}
		generationDuration, err := meter.Float64Histogram(
			"landing.generation.duration",
			metric.WithDescription("Generation pipeline duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		compactions, err := meter.Int64Counter(
			"landing.store.duplicates_removed",
			metric.WithDescription("Duplicate landing content records removed by compaction"),
		)
		if err != nil {
			return
		}
		persistFailures, err := meter.Int64Counter(
			"landing.store.persist_failures",
			metric.WithDescription("Landing content writes that failed"),
		)
		if err != nil {
			return
		}

		pipeline = pipelineMetrics{
			generations:        generations,
			generationDuration: generationDuration,
			compactions:        compactions,
			persistFailures:    persistFailures,
		}
		pipelineOK = true
	})
	return pipelineOK
}

// RecordGeneration records one finished generation attempt. outcome is
// "success", "extraction_error", "generation_error" or "stale".
func RecordGeneration(ctx context.Context, quizType, outcome string, duration time.Duration) {
	if !ensurePipelineMetrics() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("quiz.type", quizType),
		attribute.String("outcome", outcome),
	)
	pipeline.generations.Add(ctx, 1, attrs)
	pipeline.generationDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordCompaction records duplicate records removed for a key.
func RecordCompaction(ctx context.Context, quizType string, removed int) {
	if removed <= 0 || !ensurePipelineMetrics() {
		return
	}
	pipeline.compactions.Add(ctx, int64(removed), metric.WithAttributes(attribute.String("quiz.type", quizType)))
}

// RecordPersistFailure records a failed content write.
func RecordPersistFailure(ctx context.Context, operation string) {
	if !ensurePipelineMetrics() {
		return
	}
	pipeline.persistFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
