package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"dreamforge/internal/ai"
	"dreamforge/internal/errors"
)

const (
	defaultHealthTimeout = 5 * time.Second
	errCodeTooLarge      = "REQUEST_TOO_LARGE"
	errCodeInternal      = "INTERNAL_ERROR"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig == nil || s.AppConfig.Observability.HealthCheck.Timeout <= 0 {
		return defaultHealthTimeout
	}
	return s.AppConfig.Observability.HealthCheck.Timeout
}

func (s *Server) getModelCheckTimeout() time.Duration {
	if s.AppConfig == nil || s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout <= 0 {
		return s.getHealthCheckTimeout()
	}
	return s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout
}

// healthHandler reports database reachability, AI model availability and breaker state.
// Any unhealthy dependency turns the response into a 503 "degraded".
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "dreamforge",
		"version": s.Version,
	}
	overallHealthy := true

	if s.deps.PingDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
		err := s.deps.PingDB(ctx)
		cancel()
		dbStatus := map[string]any{"healthy": err == nil}
		if err != nil {
			dbStatus["error"] = err.Error()
			overallHealthy = false
		}
		response["database"] = dbStatus
	}

	if s.deps.Provider != nil {
		modelInfo := s.checkAIModelHealth(r.Context())
		response["ai_model"] = modelInfo
		if modelInfo != nil && !modelInfo.Available {
			overallHealthy = false
		}
	}

	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (s *Server) checkAIModelHealth(ctx context.Context) *ai.ModelInfo {
	ctx, cancel := context.WithTimeout(ctx, s.getModelCheckTimeout())
	defer cancel()
	return s.deps.Provider.GetModelInfo(ctx)
}

// checkCircuitBreakerHealth collects breaker state from the AI provider and the job feeds
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	status := make(map[string]any)
	if reporter, ok := s.deps.Provider.(ai.StatsReporter); ok {
		status["ai"] = reporter.GetCircuitBreakerStats()
	}
	if s.deps.Jobs != nil {
		status["job_feeds"] = s.deps.Jobs.BreakerStats()
	}
	return status
}

// statsHandler provides server statistics including rate limiting and job cache info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "dreamforge",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_upload_size_bytes":  s.uploadLimit(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_user":          s.RateLimit.ByUser,
		}
	}

	if s.deps.Jobs != nil {
		cache := s.deps.Jobs.Cache()
		hits, misses := cache.Stats()
		response["job_cache"] = map[string]any{
			"enabled": cache != nil,
			"entries": cache.Len(),
			"hits":    hits,
			"misses":  misses,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", err)
	}

	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return err
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "request body is not valid JSON", err)
	}

	return nil
}

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}

	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		if errors.CodeOf(err) == errors.ErrCodeUserExists {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case errors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrorTypeParse:
		return http.StatusBadGateway
	case errors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the error body for err. Causes and stack detail never leave the process.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		writeJSON(w, status, ErrorResponse{Error: errCodeTooLarge, Message: "request body too large"})
		return
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		writeErrorResponse(w, errCodeInternal, "internal server error", status)
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	})
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
