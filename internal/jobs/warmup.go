package jobs

import (
	"context"
	"fmt"
	"sync"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"

	"github.com/robfig/cron/v3"
)

// Warmer refreshes the job cache for common queries on a cron schedule
type Warmer struct {
	cron     *cron.Cron
	searcher *Searcher
	schedule string
	queries  []Query
	logger   *errors.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewWarmer returns nil when warm-up is disabled or there is nothing to warm
func NewWarmer(cfg config.JobsConfig, searcher *Searcher, logger *errors.Logger) *Warmer {
	if !cfg.Warmup.Enabled || len(cfg.Warmup.Queries) == 0 || searcher == nil || searcher.Cache() == nil {
		return nil
	}

	queries := make([]Query, 0, len(cfg.Warmup.Queries))
	for _, term := range cfg.Warmup.Queries {
		queries = append(queries, Query{Term: term, Location: cfg.DefaultLocation, Limit: cfg.ResultsPerPage})
	}

	return &Warmer{
		cron:     cron.New(),
		searcher: searcher,
		schedule: cfg.Warmup.Schedule,
		queries:  queries,
		logger:   logger,
	}
}

// Start registers the job and runs one pass immediately
func (w *Warmer) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid warm-up schedule %q: %w", w.schedule, err)
	}

	w.cancel = cancel
	w.running = true
	w.cron.Start()
	if w.logger != nil {
		w.logger.Info("Job cache warm-up started", "schedule", w.schedule, "queries", len(w.queries))
	}

	go w.RunOnce(ctx)
	return nil
}

// Stop halts the schedule and waits for a running pass to finish
func (w *Warmer) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.cancel()
	<-w.cron.Stop().Done()
	w.running = false
	if w.logger != nil {
		w.logger.Info("Job cache warm-up stopped")
	}
}

// RunOnce warms every configured query
func (w *Warmer) RunOnce(ctx context.Context) {
	for _, q := range w.queries {
		if ctx.Err() != nil {
			return
		}
		if err := w.searcher.Warm(ctx, q); err != nil && w.logger != nil {
			w.logger.Warn("Job cache warm-up failed", "query", q.Term, "error", err.Error())
		}
	}
}
