package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"moderation-service/internal/entity"
)

// Lifecycle counts submissions per stage and records time to completion.
type Lifecycle struct {
	started   metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewLifecycle registers the instruments on meter, or on the global provider
// when meter is nil.
func NewLifecycle(meter metric.Meter) (*Lifecycle, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	started, err := meter.Int64Counter("analyses.started",
		metric.WithDescription("Submissions accepted for analysis"))
	if err != nil {
		return nil, err
	}
	completed, err := meter.Int64Counter("analyses.completed",
		metric.WithDescription("Submissions that reached completed"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("analyses.failed",
		metric.WithDescription("Submissions that reached failed"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("analyses.duration",
		metric.WithDescription("Time from processing to completed"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Lifecycle{started: started, completed: completed, failed: failed, duration: duration}, nil
}

func (l *Lifecycle) Started(ctx context.Context, contentType entity.ContentType) {
	l.started.Add(ctx, 1, metric.WithAttributes(attribute.String("content_type", string(contentType))))
}

func (l *Lifecycle) Completed(ctx context.Context, risk entity.RiskLevel, took time.Duration) {
	attrs := metric.WithAttributes(attribute.String("risk_level", string(risk)))
	l.completed.Add(ctx, 1, attrs)
	l.duration.Record(ctx, float64(took.Microseconds())/1000, attrs)
}

func (l *Lifecycle) Failed(ctx context.Context) {
	l.failed.Add(ctx, 1)
}
