package server

import (
	"context"
	"net/http"
	"time"

	"dreamforge/internal/ai"
	"dreamforge/internal/auth"
	"dreamforge/internal/config"
	"dreamforge/internal/errors"
	"dreamforge/internal/jobs"
	"dreamforge/internal/types"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// CareerAPI is the set of career operations exposed over HTTP
type CareerAPI interface {
	Register(ctx context.Context, input types.RegisterInput) (types.UserProfile, error)
	SignIn(ctx context.Context, email, password string) (types.Session, error)
	Profile(ctx context.Context, p auth.Principal) (types.ProfileView, error)
	Onboard(ctx context.Context, p auth.Principal, input types.OnboardingInput) (types.UserProfile, error)
	Ingest(ctx context.Context, p auth.Principal, resumeText string) (types.AnalysisResult, error)
	UploadResume(ctx context.Context, p auth.Principal, filename, contentType string, data []byte) (types.AnalysisResult, error)
	CheckIn(ctx context.Context, p auth.Principal) (types.CheckInResult, error)
	SearchJobs(ctx context.Context, p auth.Principal, query string) (types.JobSearchResult, error)
	AnalyzeInterview(ctx context.Context, p auth.Principal, question, transcript string) (types.InterviewFeedback, error)
	Chat(ctx context.Context, p auth.Principal, messages []types.ChatMessage) (types.ChatReply, error)
	GapAnalysis(ctx context.Context, p auth.Principal, targetRole string) (types.GapResult, error)
}

// SessionVerifier turns a bearer token into a principal
type SessionVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// JobStats exposes job searcher state for /health and /stats
type JobStats interface {
	BreakerStats() map[string]any
	Cache() *jobs.Cache
}

// RateLimitRecorder counts rejected requests
type RateLimitRecorder interface {
	RecordRateLimitHit(ctx context.Context, endpoint, method string)
}

// Dependencies are the collaborators the HTTP layer calls into.
// Career and Sessions are required; the rest only feed /health, /stats and metrics.
type Dependencies struct {
	Career     CareerAPI
	Sessions   SessionVerifier
	Provider   ai.Provider
	PingDB     func(ctx context.Context) error
	Jobs       JobStats
	RateLimits RateLimitRecorder
	Middleware func(http.Handler) http.Handler
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limits; uploads get their own, larger limit
	MaxRequestSize int64
	MaxUploadSize  int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	deps   Dependencies
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	MaxUploadSize  int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		MaxUploadSize:  cfg.MaxUploadSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		deps:           deps,
		Logger:         logger,
	}
}

// ServerConfigFrom reads the server section of the application config
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}
