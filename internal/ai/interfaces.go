package ai

import (
	"context"

	"dreamforge/internal/types"
)

// Operation names. They select the per-operation configuration and label breakers, spans and metrics.
const (
	OperationIngest    = "ingest"
	OperationInterview = "interview"
	OperationChat      = "chat"
	OperationGap       = "gap"
)

// Operations lists every AI operation
var Operations = []string{OperationIngest, OperationInterview, OperationChat, OperationGap}

// Provider is the completion service used by the career workflows.
// All methods return token usage information; callers can ignore it if not needed.
type Provider interface {
	AnalyzeResume(ctx context.Context, input types.ResumeAnalysisInput) (types.ResumeAnalysis, *TokenUsage, error)
	AnalyzeInterview(ctx context.Context, input types.InterviewInput) (types.InterviewFeedback, *TokenUsage, error)
	Chat(ctx context.Context, input types.ChatInput) (string, *TokenUsage, error)
	AnalyzeGap(ctx context.Context, input types.GapInput) (types.GapResult, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// StatsReporter is implemented by providers that keep circuit breaker state
type StatsReporter interface {
	GetCircuitBreakerStats() map[string]any
}
