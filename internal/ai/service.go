package ai

import (
	"context"
	"fmt"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"
)

// Service routes each AI operation to a provider built from that operation's configuration
type Service struct {
	providers map[string]Provider
	logger    *errors.Logger
}

var _ Provider = (*Service)(nil)

// NewService creates one provider per operation
func NewService(cfg *config.Config, logger *errors.Logger) (*Service, error) {
	providers := make(map[string]Provider, len(Operations))
	for _, op := range Operations {
		opCfg := cfg.GetOperationConfig(op)

		logger.Debug("Initializing AI service",
			"provider", opCfg.Provider,
			"operation_type", op,
			"model", opCfg.Model,
			"temperature", *opCfg.Temperature,
			"timeout", *opCfg.Timeout,
			"max_retries", *opCfg.MaxRetries,
			"use_system_prompts", *opCfg.UseSystemPrompts)

		provider, err := newProvider(&opCfg, op, logger)
		if err != nil {
			return nil, err
		}
		if g, ok := provider.(*GeminiProvider); ok {
			g.SetModelCheckTimeout(cfg.Observability.HealthCheck.AIModelCheckTimeout)
		}
		providers[op] = provider
	}

	return &Service{providers: providers, logger: logger}, nil
}

// NewServiceWithProviders builds a Service from ready providers. Missing operations fall back to fallback.
func NewServiceWithProviders(fallback Provider, overrides map[string]Provider, logger *errors.Logger) *Service {
	providers := make(map[string]Provider, len(Operations))
	for _, op := range Operations {
		providers[op] = fallback
		if p, ok := overrides[op]; ok && p != nil {
			providers[op] = p
		}
	}
	return &Service{providers: providers, logger: logger}
}

func newProvider(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		provider, err := NewGeminiProvider(cfg, operationType, logger)
		if err != nil {
			return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
				"Failed to create AI provider for "+operationType, err)
		}
		return provider, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// Provider returns the provider serving an operation
func (s *Service) Provider(operation string) Provider {
	return s.providers[operation]
}

// AnalyzeResume implements Provider
func (s *Service) AnalyzeResume(ctx context.Context, input types.ResumeAnalysisInput) (types.ResumeAnalysis, *TokenUsage, error) {
	return s.providers[OperationIngest].AnalyzeResume(ctx, input)
}

// AnalyzeInterview implements Provider
func (s *Service) AnalyzeInterview(ctx context.Context, input types.InterviewInput) (types.InterviewFeedback, *TokenUsage, error) {
	return s.providers[OperationInterview].AnalyzeInterview(ctx, input)
}

// Chat implements Provider
func (s *Service) Chat(ctx context.Context, input types.ChatInput) (string, *TokenUsage, error) {
	return s.providers[OperationChat].Chat(ctx, input)
}

// AnalyzeGap implements Provider
func (s *Service) AnalyzeGap(ctx context.Context, input types.GapInput) (types.GapResult, *TokenUsage, error) {
	return s.providers[OperationGap].AnalyzeGap(ctx, input)
}

// GetModelInfo reports on the model behind resume analysis, the operation every user hits first
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.providers[OperationIngest].GetModelInfo(ctx)
}

// GetCircuitBreakerStats collects breaker state per operation
func (s *Service) GetCircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(s.providers))
	healthy := true
	for op, p := range s.providers {
		reporter, ok := p.(StatsReporter)
		if !ok {
			continue
		}
		opStats := reporter.GetCircuitBreakerStats()
		stats[op] = opStats
		if h, ok := opStats["overall_healthy"].(bool); ok && !h {
			healthy = false
		}
	}
	stats["overall_healthy"] = healthy
	return stats
}

// Close closes every distinct provider
func (s *Service) Close() error {
	seen := make(map[Provider]bool, len(s.providers))
	var firstErr error
	for _, p := range s.providers {
		if p == nil || seen[p] {
			continue
		}
		seen[p] = true
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
