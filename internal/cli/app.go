package cli

import (
	"context"
	"fmt"

	"dreamforge/internal/ai"
	"dreamforge/internal/auth"
	"dreamforge/internal/career"
	"dreamforge/internal/config"
	"dreamforge/internal/documents"
	"dreamforge/internal/errors"
	"dreamforge/internal/jobs"
	"dreamforge/internal/observability"
	"dreamforge/internal/store"

	"gorm.io/gorm"
)

// application is the wired object graph shared by serve and the one-shot commands
type application struct {
	cfg      *config.Config
	logger   *errors.Logger
	db       *gorm.DB
	repo     *store.GormRepository
	ai       *ai.Service
	searcher *jobs.Searcher
	rules    *jobs.RulesStore
	tokens   *auth.TokenIssuer
	career   *career.Service
	om       *observability.ObservabilityManager

	closers []func() error
}

// newApplication opens the store and builds every collaborator of the career service.
// withObservability also starts the OpenTelemetry providers and the Prometheus server.
func newApplication(ctx context.Context, cfg *config.Config, logger *errors.Logger, withObservability bool) (*application, error) {
	app := &application{cfg: cfg, logger: logger}
	if err := app.build(ctx, withObservability); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *application) build(ctx context.Context, withObservability bool) (err error) {
	cfg, logger := a.cfg, a.logger

	a.db, err = store.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { return store.Close(a.db) })

	if cfg.Database.AutoMigrate {
		if err = store.Migrate(ctx, a.db); err != nil {
			return err
		}
	}
	a.repo = store.NewRepository(a.db)

	a.ai, err = ai.NewService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	a.closers = append(a.closers, a.ai.Close)

	a.searcher, err = jobs.NewSearcherFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.searcher.Cache().Close)

	a.rules, err = jobs.NewRulesStore(cfg.Jobs.RulesFile, logger)
	if err != nil {
		return err
	}

	a.tokens = auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, nil)

	deps := career.Dependencies{
		Config:   cfg,
		Repo:     a.repo,
		Provider: a.ai,
		Tokens:   a.tokens,
		Searcher: a.searcher,
		Rules:    a.rules,
		Logger:   logger,
	}

	if cfg.Storage.S3.Enabled {
		archiver, err := documents.NewS3Archiver(ctx, cfg.Storage.S3)
		if err != nil {
			return err
		}
		deps.Archiver = archiver
	}

	if withObservability {
		a.om, err = observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize observability: %w", err)
		}
		a.closers = append(a.closers, a.shutdownObservability)
		a.searcher.SetMetrics(a.om)
		deps.Recorder = a.om
	}

	a.career, err = career.NewService(deps)
	return err
}

func (a *application) shutdownObservability() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.om.Shutdown(ctx)
}

// resolvePrincipal acts as the account registered under email
func (a *application) resolvePrincipal(ctx context.Context, email string) (auth.Principal, error) {
	user, err := a.repo.Users().FindByEmail(ctx, email)
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.Principal{UserID: user.ID, Email: user.Email}, nil
}

// Close releases resources in reverse order of acquisition
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.LogError(err, "Failed to release resource during shutdown")
		}
	}
	a.closers = nil
}
