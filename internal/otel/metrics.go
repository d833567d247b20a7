package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/formbridge/formbridge"

// Counters recorded by the submit routes
type Metrics struct {
	submissions metric.Int64Counter
	fallbacks   metric.Int64Counter
}

// Instruments on the global meter provider
func NewMetrics() (*Metrics, error) {
	return NewMetricsFromProvider(otel.GetMeterProvider())
}

func NewMetricsFromProvider(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	submissions, err := meter.Int64Counter(
		"formbridge.submissions",
		metric.WithDescription("Form submissions by integration and envelope status"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"formbridge.fallback_emails",
		metric.WithDescription("Fallback emails sent for failed submissions"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{submissions: submissions, fallbacks: fallbacks}, nil
}

func (m *Metrics) Submission(ctx context.Context, integration string, status string, code int) {
	if m == nil {
		return
	}

	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("integration", integration),
		attribute.String("status", status),
		attribute.Int("code", code),
	))
}

func (m *Metrics) FallbackEmail(ctx context.Context, integration string, sent bool) {
	if m == nil {
		return
	}

	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("integration", integration),
		attribute.Bool("sent", sent),
	))
}
