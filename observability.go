package presignx

import (
	"context"
	"time"

	"github.com/gostratum/metricsx"
	"github.com/gostratum/tracingx"
)

// Instrumenter wraps provider operations with metrics and tracing. Both
// backends are optional; a zero Instrumenter only runs the wrapped function.
type Instrumenter struct {
	metrics metricsx.Metrics
	tracer  tracingx.Tracer
}

// NewInstrumenter creates a new instrumenter with optional metrics and tracing
func NewInstrumenter(metrics metricsx.Metrics, tracer tracingx.Tracer) *Instrumenter {
	return &Instrumenter{
		metrics: metrics,
		tracer:  tracer,
	}
}

// Enabled reports whether metrics or tracing is wired
func (i *Instrumenter) Enabled() bool {
	return i != nil && (i.metrics != nil || i.tracer != nil)
}

// TraceOperation wraps an operation with tracing and metrics
func (i *Instrumenter) TraceOperation(ctx context.Context, operation string, provider ProviderName, key string, fn func(ctx context.Context) error) error {
	if i == nil {
		return fn(ctx)
	}

	var span tracingx.Span
	if i.tracer != nil {
		ctx, span = i.tracer.Start(ctx, "presign."+operation,
			tracingx.WithSpanKind(tracingx.SpanKindClient),
			tracingx.WithAttributes(map[string]any{
				"presign.operation": operation,
				"presign.provider":  string(provider),
				"presign.key":       key,
			}),
		)
		defer span.End()
	}

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	if i.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}

		i.metrics.Counter("presign_operations_total",
			metricsx.WithHelp("Total number of presign operations"),
			metricsx.WithLabels("operation", "provider", "status"),
		).Inc(operation, string(provider), status)

		i.metrics.Histogram("presign_operation_duration_seconds",
			metricsx.WithHelp("Presign operation duration in seconds"),
			metricsx.WithLabels("operation", "provider"),
			metricsx.WithBuckets(.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10),
		).Observe(duration, operation, string(provider))
	}

	if span != nil && err != nil {
		span.SetError(err)
	}

	return err
}

// RecordPresignOperation counts generated URLs per provider and method
func (i *Instrumenter) RecordPresignOperation(provider ProviderName, method Method) {
	if i != nil && i.metrics != nil {
		i.metrics.Counter("presign_urls_total",
			metricsx.WithHelp("Total number of presigned URLs generated"),
			metricsx.WithLabels("provider", "method"),
		).Inc(string(provider), string(method))
	}
}

// RecordExpiration records the lifetime requested for a presigned URL
func (i *Instrumenter) RecordExpiration(provider ProviderName, expiration time.Duration) {
	if i != nil && i.metrics != nil {
		i.metrics.Histogram("presign_url_expiration_seconds",
			metricsx.WithHelp("Lifetime of generated presigned URLs in seconds"),
			metricsx.WithLabels("provider"),
			metricsx.WithBuckets(60, 300, 900, 1800, 3600, 7200, 21600, 43200, 86400, 604800),
		).Observe(expiration.Seconds(), string(provider))
	}
}

// RecordPublicOperation counts make-public calls per provider
func (i *Instrumenter) RecordPublicOperation(provider ProviderName) {
	if i != nil && i.metrics != nil {
		i.metrics.Counter("presign_public_operations_total",
			metricsx.WithHelp("Total number of make-public operations"),
			metricsx.WithLabels("provider"),
		).Inc(string(provider))
	}
}
