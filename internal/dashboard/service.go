package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service assembles the dashboard overview. Aggregates are recomputed per
// read and fronted by the versioned cache.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. cache may be nil, which disables caching.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Overview returns the dashboard payload for the date window. A zero from
// defaults to the first of the current month; a zero to defaults to now.
func (s *Service) Overview(ctx context.Context, from, to time.Time) (Overview, error) {
	now := s.now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	if s.cache == nil {
		return s.compute(ctx, from, to)
	}
	key := s.cache.Key(ctx, from, to)
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (Overview, error) {
		return s.compute(ctx, from, to)
	})
}

// Warmup primes the cache for the default window.
func (s *Service) Warmup(ctx context.Context) error {
	_, err := s.Overview(ctx, time.Time{}, time.Time{})
	return err
}

// WatchChanges bumps the cache version for every change signal. Blocks until
// the signal channel closes.
func (s *Service) WatchChanges(ctx context.Context, signals <-chan string) {
	if s.cache == nil {
		return
	}
	for range signals {
		if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
			s.logger.Warn("bump dashboard cache version", slog.Any("error", err))
		}
	}
}

func (s *Service) compute(ctx context.Context, from, to time.Time) (Overview, error) {
	overview := Overview{From: from, To: to, GeneratedAt: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.repo.Financials(gctx, from, to)
		overview.Financials = f
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.OrdersByStatus(gctx)
		overview.OrdersByStatus = counts
		return err
	})
	g.Go(func() error {
		count, err := s.repo.PendingUsers(gctx)
		overview.PendingUsers = count
		return err
	})
	g.Go(func() error {
		count, err := s.repo.OpenLeads(gctx)
		overview.OpenLeads = count
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return overview, nil
}
