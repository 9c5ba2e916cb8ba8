// Package career implements the user-facing workflows: accounts, resume ingestion,
// check-ins, job matching and the AI coaching features.
package career

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"dreamforge/internal/ai"
	"dreamforge/internal/auth"
	"dreamforge/internal/common"
	"dreamforge/internal/config"
	"dreamforge/internal/documents"
	"dreamforge/internal/errors"
	"dreamforge/internal/jobs"
	"dreamforge/internal/store"
	"dreamforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// Business events reported to the Recorder
const (
	EventResumeIngested    = "resume_ingested"
	EventCheckIn           = "checkin"
	EventJobSearch         = "job_search"
	EventInterviewAnalyzed = "interview_analyzed"
	EventChatMessage       = "chat_message"
	EventGapAnalyzed       = "gap_analyzed"
)

// JobSearcher fetches unscored postings from the job feeds
type JobSearcher interface {
	Search(ctx context.Context, q jobs.Query) ([]types.JobPosting, string, error)
}

// RulesSource supplies the active scoring table
type RulesSource interface {
	Current() *jobs.RuleSet
}

// Recorder receives business events and AI call measurements
type Recorder interface {
	RecordBusinessEvent(ctx context.Context, event string, success bool, attrs ...attribute.KeyValue)
	TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) (*ai.TokenUsage, error)) error
}

// Dependencies are the collaborators of a Service. Searcher, Rules, Archiver,
// Recorder and Clock are optional.
type Dependencies struct {
	Config   *config.Config
	Repo     store.Repository
	Provider ai.Provider
	Tokens   *auth.TokenIssuer
	Searcher JobSearcher
	Rules    RulesSource
	Archiver documents.Archiver
	Recorder Recorder
	Clock    func() time.Time
	Logger   *errors.Logger
}

// Service runs every career operation. It holds no per-user state.
type Service struct {
	cfg       *config.Config
	repo      store.Repository
	provider  ai.Provider
	tokens    *auth.TokenIssuer
	searcher  JobSearcher
	rules     RulesSource
	archiver  documents.Archiver
	recorder  Recorder
	now       func() time.Time
	validator *common.Validator
	logger    *errors.Logger
}

// NewService checks the required dependencies and builds a Service
func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "career service requires configuration", nil)
	case deps.Repo == nil:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "career service requires a repository", nil)
	case deps.Provider == nil:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "career service requires an AI provider", nil)
	case deps.Tokens == nil:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "career service requires a token issuer", nil)
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = errors.NewLogger(slog.LevelInfo)
	}

	return &Service{
		cfg:       deps.Config,
		repo:      deps.Repo,
		provider:  deps.Provider,
		tokens:    deps.Tokens,
		searcher:  deps.Searcher,
		rules:     deps.Rules,
		archiver:  deps.Archiver,
		recorder:  deps.Recorder,
		now:       clock,
		validator: common.NewValidator(),
		logger:    logger,
	}, nil
}

func (s *Service) record(ctx context.Context, event string, success bool, attrs ...attribute.KeyValue) {
	if s.recorder != nil {
		s.recorder.RecordBusinessEvent(ctx, event, success, attrs...)
	}
}

func (s *Service) trackAI(ctx context.Context, operation string, fn func(context.Context) (*ai.TokenUsage, error)) error {
	if s.recorder == nil {
		_, err := fn(ctx)
		return err
	}
	return s.recorder.TrackAIOperation(ctx, operation, fn)
}

// loadUser reads the principal's row. A principal whose user vanished is treated as signed out.
func (s *Service) loadUser(ctx context.Context, repo store.Repository, p auth.Principal) (*store.User, error) {
	user, err := repo.Users().FindByID(ctx, p.UserID)
	if err != nil {
		return nil, s.storeError(err, "failed to load user")
	}
	return user, nil
}

// storeError converts repository errors into application errors
func (s *Service) storeError(err error, msg string) error {
	var appErr *errors.AppError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &appErr):
		return err
	case stderrors.Is(err, store.ErrUserNotFound):
		return errors.NewUnauthorizedError(errors.ErrCodeUserNotFound, "account no longer exists", err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewUnavailableError(errors.ErrCodeDatabase, "request cancelled", err)
	default:
		return errors.NewInternalError(errors.ErrCodeDatabase, msg, err)
	}
}
