package observability

import (
	"context"
	"fmt"
	"time"

	"dreamforge/internal/ai"
	"dreamforge/internal/career"
	"dreamforge/internal/errors"
	"dreamforge/internal/jobs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom instruments for DreamForge
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics, keyed by career event name
	BusinessEvents map[string]metric.Int64Counter

	// Job feed metrics
	JobFeedDuration metric.Float64Histogram
	JobFeedErrors   metric.Int64Counter

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

var businessCounters = []struct {
	event       string
	name        string
	description string
}{
	{career.EventResumeIngested, "dreamforge_resumes_ingested_total", "Total number of resumes ingested"},
	{career.EventCheckIn, "dreamforge_checkins_total", "Total number of daily check-ins"},
	{career.EventJobSearch, "dreamforge_job_searches_total", "Total number of job searches"},
	{career.EventInterviewAnalyzed, "dreamforge_interviews_analyzed_total", "Total number of interview answers analyzed"},
	{career.EventChatMessage, "dreamforge_chat_messages_total", "Total number of assistant chat replies"},
	{career.EventGapAnalyzed, "dreamforge_gap_analyses_total", "Total number of skill gap analyses"},
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{BusinessEvents: make(map[string]metric.Int64Counter, len(businessCounters))}
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"dreamforge_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"dreamforge_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"dreamforge_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"dreamforge_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	for _, bc := range businessCounters {
		counter, err := meter.Int64Counter(bc.name, metric.WithDescription(bc.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", bc.name, err)
		}
		m.BusinessEvents[bc.event] = counter
	}

	m.JobFeedDuration, err = meter.Float64Histogram(
		"dreamforge_job_feed_duration_seconds",
		metric.WithDescription("Latency of job feed calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job feed duration metric: %w", err)
	}

	m.JobFeedErrors, err = meter.Int64Counter(
		"dreamforge_job_feed_errors_total",
		metric.WithDescription("Total number of failed job feed calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job feed errors metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"dreamforge_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// TrackAIOperation instruments an AI call with a span, duration, request and token metrics
func (om *ObservabilityManager) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) (*ai.TokenUsage, error)) error {
	if om.metrics == nil {
		_, err := fn(ctx)
		return err
	}

	ctx, span := om.Tracer("dreamforge.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	usage, err := fn(ctx)
	duration := time.Since(start).Seconds()

	if om.aiMetricsEnabled() {
		attrs := []attribute.KeyValue{
			attribute.String("operation", operation),
			attribute.Bool("success", err == nil),
		}
		if om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.TrackDuration {
			om.metrics.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		om.metrics.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			om.metrics.AIErrorCount.Add(ctx, 1, metric.WithAttributes(append(attrs,
				attribute.String("error_type", string(errors.TypeOf(err))))...))
		}
		om.recordTokenUsage(ctx, operation, usage)
		span.SetAttributes(attrs...)
	}

	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}
	return err
}

func (om *ObservabilityManager) aiMetricsEnabled() bool {
	if om.fullConfig == nil {
		return true
	}
	return om.fullConfig.Observability.CustomMetrics.AIOperations.Enabled
}

func (om *ObservabilityManager) recordTokenUsage(ctx context.Context, operation string, usage *ai.TokenUsage) {
	if usage == nil {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.AIOperations.TrackTokenUsage {
		return
	}

	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		om.metrics.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordBusinessEvent counts a career event. Unknown events are ignored.
func (om *ObservabilityManager) RecordBusinessEvent(ctx context.Context, event string, success bool, attrs ...attribute.KeyValue) {
	if om.metrics == nil {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.BusinessMetrics.Enabled {
		return
	}

	counter, ok := om.metrics.BusinessEvents[event]
	if !ok {
		return
	}
	all := append([]attribute.KeyValue{attribute.Bool("success", success)}, attrs...)
	counter.Add(ctx, 1, metric.WithAttributes(all...))
}

// RecordFeedCall observes one job feed call
func (om *ObservabilityManager) RecordFeedCall(ctx context.Context, feed string, duration time.Duration, err error) {
	if om.metrics == nil {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackJobFeeds {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("feed", feed),
		attribute.Bool("success", err == nil),
	}
	om.metrics.JobFeedDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	if err != nil {
		om.metrics.JobFeedErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("feed", feed),
			attribute.String("error_type", string(errors.TypeOf(err))),
		))
	}
}

// RecordRateLimitHit counts a request rejected by the rate limiter
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, endpoint, method string) {
	if om.metrics == nil {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackRateLimits {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("method", method),
	))
}

// GetMetrics returns the instruments, or an empty set when metrics are off
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

var (
	_ career.Recorder  = (*ObservabilityManager)(nil)
	_ jobs.FeedMetrics = (*ObservabilityManager)(nil)
)
