package observability

import (
	"context"
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

const scopeName = "github.com/glowtrip/procedure-recommender"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount       metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	ResolveCount       metric.Int64Counter
	ResolveDuration    metric.Float64Histogram
	CacheHitCount      metric.Int64Counter
	CacheMissCount     metric.Int64Counter
	GroupsDroppedCount metric.Int64Counter
}

// Setup initializes OpenTelemetry trace and metric providers
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
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		if err := meterProvider.Shutdown(ctx); err != nil {
			return err
		}
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(scopeName)

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

	resolveCount, err := meter.Int64Counter(
		"taxonomy.resolve.count",
		metric.WithDescription("Recovery metadata resolutions by strategy and outcome"),
	)
	if err != nil {
		return nil, err
	}

	resolveDuration, err := meter.Float64Histogram(
		"taxonomy.resolve.duration",
		metric.WithDescription("Recovery metadata resolution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCount, err := meter.Int64Counter(
		"cache.hit.count",
		metric.WithDescription("Number of cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMissCount, err := meter.Int64Counter(
		"cache.miss.count",
		metric.WithDescription("Number of cache misses"),
	)
	if err != nil {
		return nil, err
	}

	groupsDropped, err := meter.Int64Counter(
		"recommendation.groups.dropped",
		metric.WithDescription("Category groups excluded by the itinerary filter"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:       requestCount,
		RequestDuration:    requestDuration,
		ResolveCount:       resolveCount,
		ResolveDuration:    resolveDuration,
		CacheHitCount:      cacheHitCount,
		CacheMissCount:     cacheMissCount,
		GroupsDroppedCount: groupsDropped,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(scopeName)
	return tracer.Start(ctx, spanName)
}

// SetSpanAttributes adds attributes to a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request metric with attributes
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

// RecordResolveMetric records one taxonomy resolution attempt
func RecordResolveMetric(ctx context.Context, metrics *Metrics, language, strategy string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("taxonomy.language", language),
		attribute.String("taxonomy.strategy", strategy),
	}
	metrics.ResolveCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.ResolveDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context, metrics *Metrics, cacheName string) {
	if metrics == nil {
		return
	}
	metrics.CacheHitCount.Add(ctx, 1,
		metric.WithAttributes(attribute.String("cache.name", cacheName)))
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context, metrics *Metrics, cacheName string) {
	if metrics == nil {
		return
	}
	metrics.CacheMissCount.Add(ctx, 1,
		metric.WithAttributes(attribute.String("cache.name", cacheName)))
}

// RecordGroupDropped counts a category group excluded for not fitting the
// traveler's window
func RecordGroupDropped(ctx context.Context, metrics *Metrics, reason string) {
	if metrics == nil {
		return
	}
	metrics.GroupsDroppedCount.Add(ctx, 1,
		metric.WithAttributes(attribute.String("drop.reason", reason)))
}
