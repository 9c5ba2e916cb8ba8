package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const defaultModelCheckTimeout = 10 * time.Second

// GeminiProvider implements Provider for Google Gemini, bound to one operation's configuration
type GeminiProvider struct {
	client            *genai.Client
	config            *config.OperationAIConfig
	operation         string
	prompts           Prompts
	circuitBreaker    *AICircuitBreaker
	modelBreaker      *ModelCircuitBreaker
	modelCheckTimeout time.Duration
	logger            *errors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*GeminiProvider, error) {
	return newGeminiProvider(cfg, operationType, logger, genai.HTTPOptions{})
}

func newGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger, httpOptions genai.HTTPOptions) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured for "+operationType, nil)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	defaults := DefaultPrompts[operationType]
	return &GeminiProvider{
		client:    client,
		config:    cfg,
		operation: operationType,
		prompts: Prompts{
			System: resolvePrompt(cfg.Prompts.System, defaults.System),
			User:   resolvePrompt(cfg.Prompts.User, defaults.User),
		},
		circuitBreaker:    NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:      NewModelCircuitBreaker(operationType, cfg, logger),
		modelCheckTimeout: defaultModelCheckTimeout,
		logger:            logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// SetModelCheckTimeout bounds the model lookup done by health checks
func (g *GeminiProvider) SetModelCheckTimeout(d time.Duration) {
	if d > 0 {
		g.modelCheckTimeout = d
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, g.modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"operation", g.operation,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry executes an AI call with bounded exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(retryBackoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// retryBackoff doubles from one second with up to 10% jitter, capped at 30 seconds
func retryBackoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// isRetryableError reports whether a failed call is worth repeating
func isRetryableError(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return false
	}

	// timeouts, refused connections, resets
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	code := 0
	var apiErr genai.APIError
	var googleErr *googleapi.Error
	switch {
	case stderrors.As(err, &apiErr):
		code = apiErr.Code
	case stderrors.As(err, &googleErr):
		code = googleErr.Code
	}

	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// unavailableError classifies a transport failure for callers
func unavailableError(operation string, err error) *errors.AppError {
	code := errors.ErrCodeAIServiceFailed
	message := "AI service is unavailable for " + operation
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		code = errors.ErrCodeAITimeout
		message = "AI service timed out for " + operation
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		message = "AI service is temporarily disabled for " + operation
	}
	return errors.NewUnavailableError(code, message, err).WithContext("operation", operation)
}

// executeAIOperation runs one generation with tracing, timeout, circuit breaker and retry,
// then hands the reply text to parse.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	contents []*genai.Content,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	parse func(string) (Out, error),
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	operationName := g.operation

	tracer := otel.Tracer("dreamforge.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	callCtx := ctx
	if g.config.Timeout != nil && *g.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(callCtx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, contents, genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, unavailableError(operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	output, err = parse(result.Text())
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		g.logger.LogError(err, "AI response could not be parsed", "operation", operationName)
		return output, tokenUsage, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// AnalyzeResume extracts skills, seniority and career advice from resume text
func (g *GeminiProvider) AnalyzeResume(ctx context.Context, input types.ResumeAnalysisInput) (types.ResumeAnalysis, *TokenUsage, error) {
	userPrompt := fmt.Sprintf(g.prompts.User, input.ResumeText)

	output, tokenUsage, err := executeAIOperation(
		g,
		ctx,
		genai.Text(userPrompt),
		g.prompts.System,
		g.jsonConfig(resumeAnalysisSchema()),
		ParseResumeAnalysis,
		attribute.Int("input.resume_length", len(input.ResumeText)),
	)
	if err != nil {
		return types.ResumeAnalysis{}, tokenUsage, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.skills", len(output.Skills)),
			attribute.Int("output.level", output.Level),
		)
	}

	return output, tokenUsage, nil
}

// AnalyzeInterview grades a transcript against its question
func (g *GeminiProvider) AnalyzeInterview(ctx context.Context, input types.InterviewInput) (types.InterviewFeedback, *TokenUsage, error) {
	userPrompt := fmt.Sprintf(g.prompts.User, input.Question, input.Transcript)

	output, tokenUsage, err := executeAIOperation(
		g,
		ctx,
		genai.Text(userPrompt),
		g.prompts.System,
		g.jsonConfig(interviewSchema()),
		ParseInterviewFeedback,
		attribute.Int("input.transcript_length", len(input.Transcript)),
	)
	if err != nil {
		return types.InterviewFeedback{}, tokenUsage, err
	}
	return output, tokenUsage, nil
}

// Chat continues a conversation with the career assistant
func (g *GeminiProvider) Chat(ctx context.Context, input types.ChatInput) (string, *TokenUsage, error) {
	contents := make([]*genai.Content, 0, len(input.Messages))
	for _, m := range input.Messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	systemPrompt := g.prompts.System
	if strings.Contains(systemPrompt, "%s") {
		systemPrompt = fmt.Sprintf(systemPrompt, chatContextBlock(input.Context))
	}

	return executeAIOperation(
		g,
		ctx,
		contents,
		systemPrompt,
		g.textConfig(),
		parseChatReply,
		attribute.Int("input.messages", len(input.Messages)),
	)
}

// AnalyzeGap names the skills missing for a target role
func (g *GeminiProvider) AnalyzeGap(ctx context.Context, input types.GapInput) (types.GapResult, *TokenUsage, error) {
	skills := strings.Join(input.CurrentSkills, ", ")
	if skills == "" {
		skills = "(none listed)"
	}
	userPrompt := fmt.Sprintf(g.prompts.User, skills, input.TargetRole)

	return executeAIOperation(
		g,
		ctx,
		genai.Text(userPrompt),
		g.prompts.System,
		g.jsonConfig(gapSchema()),
		func(raw string) (types.GapResult, error) { return ParseGapResult(raw, input.TargetRole) },
		attribute.Int("input.skills", len(input.CurrentSkills)),
		attribute.String("input.target_role", input.TargetRole),
	)
}

func parseChatReply(raw string) (string, error) {
	reply := strings.TrimSpace(raw)
	if reply == "" {
		return "", errors.NewParseError(errors.ErrCodeAIParseFailed, "AI returned an empty chat reply", nil)
	}
	return reply, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy(),
	}
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// the genai client holds no connections outside of in-flight calls
	return nil
}

func (g *GeminiProvider) textConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	if g.config.MaxOutputTokens != nil && *g.config.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = *g.config.MaxOutputTokens
	}
	return cfg
}

func (g *GeminiProvider) jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	cfg := g.textConfig()
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = schema
	return cfg
}

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func resumeAnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"level":       {Type: genai.TypeInteger},
			"currentRole": {Type: genai.TypeString},
			"location":    {Type: genai.TypeString},
			"skills": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        {Type: genai.TypeString},
						"category":    {Type: genai.TypeString, Enum: []string{"frontend", "backend", "core", "cloud", "ai"}},
						"proficiency": {Type: genai.TypeInteger},
					},
					Required: []string{"name", "category", "proficiency"},
				},
			},
			"analysis": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"strengths":      stringArray(),
					"weaknesses":     stringArray(),
					"marketPosition": {Type: genai.TypeString},
				},
				Required: []string{"strengths", "weaknesses", "marketPosition"},
			},
			"insights": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"immediate":   {Type: genai.TypeString},
					"strategic":   {Type: genai.TypeString},
					"targetRoles": stringArray(),
					"recommendedResources": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"title": {Type: genai.TypeString},
								"url":   {Type: genai.TypeString},
								"type":  {Type: genai.TypeString},
							},
							Required: []string{"title", "url", "type"},
						},
					},
				},
				Required: []string{"immediate", "strategic", "targetRoles"},
			},
			"matchScore": {Type: genai.TypeInteger},
		},
		Required: []string{"level", "currentRole", "skills", "analysis", "insights", "matchScore"},
	}
}

func interviewSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"percentile":   {Type: genai.TypeInteger},
			"pace":         {Type: genai.TypeString, Enum: interviewPaces},
			"fillers":      {Type: genai.TypeInteger},
			"sentiment":    {Type: genai.TypeString, Enum: interviewSentiments},
			"feedback":     {Type: genai.TypeString},
			"strengths":    stringArray(),
			"improvements": stringArray(),
		},
		Required: []string{"percentile", "pace", "fillers", "sentiment", "feedback", "strengths", "improvements"},
	}
}

func gapSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"missingSkills": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":   {Type: genai.TypeString},
						"reason": {Type: genai.TypeString},
					},
					Required: []string{"name", "reason"},
				},
			},
		},
		Required: []string{"missingSkills"},
	}
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
