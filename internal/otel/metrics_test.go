package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Sum[int64]{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum
			}
		}
	}

	return out
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetricsFromProvider(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.Submission(ctx, "hubspot", "success", 200)
	m.Submission(ctx, "hubspot", "success", 200)
	m.Submission(ctx, "mailchimp", "error", 400)
	m.FallbackEmail(ctx, "mailchimp", true)

	sums := collect(t, reader)

	submissions, ok := sums["formbridge.submissions"]
	require.True(t, ok)
	require.Len(t, submissions.DataPoints, 2)

	total := int64(0)
	for _, dp := range submissions.DataPoints {
		total += dp.Value
		integration, _ := dp.Attributes.Value("integration")
		if integration.AsString() == "hubspot" {
			assert.Equal(t, int64(2), dp.Value)
		}
	}
	assert.Equal(t, int64(3), total)

	fallbacks, ok := sums["formbridge.fallback_emails"]
	require.True(t, ok)
	require.Len(t, fallbacks.DataPoints, 1)
	assert.Equal(t, int64(1), fallbacks.DataPoints[0].Value)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Submission(context.Background(), "hubspot", "success", 200)
	m.FallbackEmail(context.Background(), "hubspot", false)
}
