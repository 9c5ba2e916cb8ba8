package observability

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"dreamforge/internal/ai"
	"dreamforge/internal/career"
	"dreamforge/internal/config"
	"dreamforge/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestManager(t *testing.T, full *config.Config) (*ObservabilityManager, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := newMetrics(mp.Meter("dreamforge-test"))
	require.NoError(t, err)

	return &ObservabilityManager{
		config:        ObservabilityConfig{Enabled: true, ServiceName: "dreamforge-test"},
		fullConfig:    full,
		meterProvider: mp,
		metrics:       metrics,
	}, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data map[string]metricdata.Aggregation, name string) int64 {
	t.Helper()
	agg, ok := data[name]
	if !ok {
		return 0
	}
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordBusinessEvent(t *testing.T) {
	om, reader := newTestManager(t, nil)
	ctx := context.Background()

	om.RecordBusinessEvent(ctx, career.EventCheckIn, true)
	om.RecordBusinessEvent(ctx, career.EventCheckIn, false)
	om.RecordBusinessEvent(ctx, career.EventResumeIngested, true, attribute.Int("skills", 3))
	om.RecordBusinessEvent(ctx, "unknown_event", true)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data, "dreamforge_checkins_total"))
	assert.Equal(t, int64(1), sumOf(t, data, "dreamforge_resumes_ingested_total"))
	assert.Equal(t, int64(0), sumOf(t, data, "dreamforge_job_searches_total"))
}

func TestRecordBusinessEventDisabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.CustomMetrics.BusinessMetrics.Enabled = false
	om, reader := newTestManager(t, cfg)

	om.RecordBusinessEvent(context.Background(), career.EventChatMessage, true)
	assert.Equal(t, int64(0), sumOf(t, collect(t, reader), "dreamforge_chat_messages_total"))
}

func TestTrackAIOperation(t *testing.T) {
	om, reader := newTestManager(t, nil)
	ctx := context.Background()

	err := om.TrackAIOperation(ctx, ai.OperationIngest, func(context.Context) (*ai.TokenUsage, error) {
		return &ai.TokenUsage{InputTokens: 100, OutputTokens: 40, TotalTokens: 140}, nil
	})
	require.NoError(t, err)

	failure := errors.NewParseError(errors.ErrCodeAIParseFailed, "bad json", nil)
	err = om.TrackAIOperation(ctx, ai.OperationGap, func(context.Context) (*ai.TokenUsage, error) {
		return nil, failure
	})
	assert.True(t, stderrors.Is(err, failure))

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data, "dreamforge_ai_requests_total"))
	assert.Equal(t, int64(1), sumOf(t, data, "dreamforge_ai_errors_total"))

	tokens, ok := data["dreamforge_ai_token_usage"].(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Len(t, tokens.DataPoints, 3)
}

func TestTrackAIOperationWithoutMetrics(t *testing.T) {
	om := &ObservabilityManager{}
	called := false
	err := om.TrackAIOperation(context.Background(), ai.OperationChat, func(context.Context) (*ai.TokenUsage, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// recording on a disabled manager is a no-op
	om.RecordBusinessEvent(context.Background(), career.EventCheckIn, true)
	om.RecordFeedCall(context.Background(), "adzuna", time.Second, nil)
	om.RecordRateLimitHit(context.Background(), "/api/chat", "POST")
}

func TestRecordFeedCallAndRateLimit(t *testing.T) {
	om, reader := newTestManager(t, nil)
	ctx := context.Background()

	om.RecordFeedCall(ctx, "adzuna", 120*time.Millisecond, nil)
	om.RecordFeedCall(ctx, "adzuna", 2*time.Second, errors.NewUnavailableError(errors.ErrCodeFeedUnavailable, "down", nil))
	om.RecordFeedCall(ctx, "remoteok", time.Second, stderrors.New("reset"))
	om.RecordRateLimitHit(ctx, "/api/chat", "POST")

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data, "dreamforge_job_feed_errors_total"))
	assert.Equal(t, int64(1), sumOf(t, data, "dreamforge_rate_limit_hits_total"))

	latency, ok := data["dreamforge_job_feed_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range latency.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "dreamforge"
	cfg.Observability.SampleRate = 0.5
	cfg.Observability.Tracing.SampleRate = 0.25
	cfg.Observability.Prometheus = config.PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9464"}

	got := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", got.ServiceVersion)
	assert.Equal(t, 0.25, got.SampleRate)
	assert.Equal(t, PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9464"}, got.Prometheus)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.Equal(t, "dreamforge", fallback.ServiceName)
	assert.Equal(t, "/metrics", fallback.Prometheus.Endpoint)
}
