package jobs

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"math"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"time"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SourceCache is reported when results were served from the cache without a feed hit
const SourceCache = "cache"

// FeedMetrics receives one observation per feed call
type FeedMetrics interface {
	RecordFeedCall(ctx context.Context, feed string, duration time.Duration, err error)
}

// SearcherConfig tunes how feeds are called
type SearcherConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	CircuitBreaker config.CircuitBreakerConfig
}

// Searcher queries interchangeable feeds in order and returns the first success
type Searcher struct {
	feeds      []feedRunner
	cache      *Cache
	timeout    time.Duration
	maxRetries int
	metrics    FeedMetrics
	logger     *errors.Logger

	// sleep waits between retries; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

type feedRunner struct {
	feed    Feed
	breaker *gobreaker.CircuitBreaker[[]types.JobPosting]
}

// NewSearcher wires feeds in the given order. cache may be nil.
func NewSearcher(feeds []Feed, cfg SearcherConfig, cache *Cache, logger *errors.Logger) *Searcher {
	s := &Searcher{
		cache:      cache,
		timeout:    cfg.Timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
		sleep:      sleepContext,
	}
	for _, f := range feeds {
		s.feeds = append(s.feeds, feedRunner{feed: f, breaker: newFeedBreaker(f.Name(), cfg.CircuitBreaker, logger)})
	}
	return s
}

// NewSearcherFromConfig builds the configured feeds, cache and breakers
func NewSearcherFromConfig(cfg *config.Config, logger *errors.Logger) (*Searcher, error) {
	client := &http.Client{Timeout: cfg.Jobs.Timeout}

	feeds := make([]Feed, 0, len(cfg.Jobs.Feeds))
	for _, name := range cfg.Jobs.Feeds {
		switch name {
		case FeedAdzuna:
			feeds = append(feeds, NewAdzunaFeed(cfg.Jobs.Adzuna, cfg.Jobs.ResultsPerPage, client))
		case FeedRemoteOK:
			feeds = append(feeds, NewRemoteOKFeed(cfg.Jobs.RemoteOK, client))
		default:
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "unknown job feed", nil).
				WithContext("feed", name)
		}
	}

	return NewSearcher(feeds, SearcherConfig{
		Timeout:        cfg.Jobs.Timeout,
		MaxRetries:     cfg.Jobs.MaxRetries,
		CircuitBreaker: cfg.Jobs.CircuitBreaker,
	}, NewCache(cfg.Jobs.Cache, logger), logger), nil
}

// SetMetrics attaches a metrics sink
func (s *Searcher) SetMetrics(m FeedMetrics) {
	s.metrics = m
}

// Cache returns the result cache, nil when caching is off
func (s *Searcher) Cache() *Cache {
	return s.cache
}

// Search returns unscored postings and the name of the feed that produced them.
// When every feed fails the error is ServiceUnavailable.
func (s *Searcher) Search(ctx context.Context, q Query) ([]types.JobPosting, string, error) {
	tracer := otel.Tracer("dreamforge.jobs")
	ctx, span := tracer.Start(ctx, "jobs.search")
	defer span.End()
	span.SetAttributes(attribute.String("jobs.term", q.Term), attribute.String("jobs.location", q.Location))

	key := CacheKey(q.Term, q.Location, strconv.Itoa(q.Limit))
	if cached, ok := s.cache.Get(ctx, key); ok {
		source := SourceCache
		if len(cached) > 0 && cached[0].Source != "" {
			source = cached[0].Source
		}
		span.SetAttributes(attribute.Bool("jobs.cache_hit", true))
		return cached, source, nil
	}

	var lastErr error
	for _, runner := range s.feeds {
		name := runner.feed.Name()
		start := time.Now()
		postings, err := s.callFeed(ctx, runner, q)
		if s.metrics != nil {
			s.metrics.RecordFeedCall(ctx, name, time.Since(start), err)
		}
		if err != nil {
			lastErr = err
			if s.logger != nil {
				s.logger.Warn("Job feed failed, trying next", "feed", name, "error", err.Error())
			}
			continue
		}

		if postings == nil {
			postings = []types.JobPosting{}
		}
		s.cache.Set(ctx, key, postings)
		span.SetAttributes(attribute.String("jobs.source", name), attribute.Int("jobs.count", len(postings)))
		return postings, name, nil
	}

	err := errors.NewUnavailableError(errors.ErrCodeFeedUnavailable, "Could not fetch real-time jobs.", lastErr).
		WithContext("feeds", len(s.feeds))
	span.RecordError(err)
	span.SetStatus(codes.Error, "all job feeds failed")
	return []types.JobPosting{}, "", err
}

// Warm fetches q and stores it in the cache, bypassing any cached copy
func (s *Searcher) Warm(ctx context.Context, q Query) error {
	if s.cache == nil {
		return nil
	}
	var lastErr error
	for _, runner := range s.feeds {
		postings, err := s.callFeed(ctx, runner, q)
		if err != nil {
			lastErr = err
			continue
		}
		s.cache.Set(ctx, CacheKey(q.Term, q.Location, strconv.Itoa(q.Limit)), postings)
		return nil
	}
	return lastErr
}

// BreakerStats reports the state of every feed breaker
func (s *Searcher) BreakerStats() map[string]any {
	stats := make(map[string]any, len(s.feeds))
	for _, r := range s.feeds {
		if r.breaker == nil {
			stats[r.feed.Name()] = map[string]any{"enabled": false}
			continue
		}
		stats[r.feed.Name()] = map[string]any{
			"name":    r.breaker.Name(),
			"state":   r.breaker.State().String(),
			"counts":  r.breaker.Counts(),
			"enabled": true,
		}
	}
	return stats
}

func (s *Searcher) callFeed(ctx context.Context, runner feedRunner, q Query) ([]types.JobPosting, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, feedBackoff(attempt)); err != nil {
				return nil, err
			}
		}

		postings, err := s.execute(ctx, runner, q)
		if err == nil {
			return postings, nil
		}
		lastErr = err
		if !isRetryableFeedError(err) {
			break
		}
	}
	return nil, lastErr
}

func (s *Searcher) execute(ctx context.Context, runner feedRunner, q Query) ([]types.JobPosting, error) {
	call := func() ([]types.JobPosting, error) {
		callCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return runner.feed.Search(callCtx, q)
	}
	if runner.breaker == nil {
		return call()
	}
	return runner.breaker.Execute(call)
}

func newFeedBreaker(feed string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *gobreaker.CircuitBreaker[[]types.JobPosting] {
	if !cfg.Enabled {
		return nil
	}
	return gobreaker.NewCircuitBreaker[[]types.JobPosting](gobreaker.Settings{
		Name:        "jobs-" + feed,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		// missing credentials and cancelled callers do not count against the feed
		IsSuccessful: func(err error) bool {
			return err == nil || stderrors.Is(err, context.Canceled) || errors.CodeOf(err) == errors.ErrCodeFeedNotConfigured
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Info("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			}
		},
	})
}

// isRetryableFeedError retries transport failures, throttling and server errors
func isRetryableFeedError(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return false
	}
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return false
}

// feedBackoff is 500ms doubled per attempt with up to 10% jitter, capped at 5s
func feedBackoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * 500 * time.Millisecond
	jitter := time.Duration(0)
	if jitterMax := int64(float64(base) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(base+jitter, 5*time.Second)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
