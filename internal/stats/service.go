package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/learn-tracker/internal/curriculum"
	"github.com/p-n-ai/learn-tracker/internal/progress"
	"github.com/p-n-ai/learn-tracker/internal/roster"
)

// CacheKey is where the snapshot is kept in the cache.
const CacheKey = "stats:snapshot"

const (
	defaultTTL         = time.Minute
	maxConcurrentLoads = 4
)

// CurriculumSource loads the shared curriculum.
type CurriculumSource interface {
	Load() (*curriculum.Curriculum, error)
}

// Cache is the subset of the Redis wrapper the service needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ServiceConfig holds dependencies for the statistics service.
type ServiceConfig struct {
	Curriculum CurriculumSource
	Progress   progress.Store
	Roster     *roster.Roster
	Cache      Cache         // optional
	TTL        time.Duration // default 1m
	Now        func() time.Time
}

// Service builds snapshots for the whole roster.
type Service struct {
	curricula CurriculumSource
	store     progress.Store
	roster    *roster.Roster
	cache     Cache
	ttl       time.Duration
	now       func() time.Time
}

// NewService creates a statistics service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		curricula: cfg.Curriculum,
		store:     cfg.Progress,
		roster:    cfg.Roster,
		cache:     cfg.Cache,
		ttl:       ttl,
		now:       now,
	}
}

// Snapshot returns the cached snapshot when present, otherwise loads every
// user's document, refreshes its derived values against the current
// curriculum and builds a new one. Cache failures are logged and
// otherwise ignored.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.cached(ctx); snap != nil {
		return snap, nil
	}

	c, err := s.curricula.Load()
	if err != nil {
		return nil, err
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range users {
		progress.Recompute(doc, c)
	}
	snap := BuildSnapshot(c, users, s.roster.DisplayName, s.now())

	if s.cache != nil {
		data, err := json.Marshal(snap)
		if err == nil {
			err = s.cache.Set(ctx, CacheKey, data, s.ttl)
		}
		if err != nil {
			slog.Warn("failed to cache stats snapshot", "error", err)
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKey); err != nil {
		slog.Warn("failed to invalidate stats snapshot", "error", err)
	}
}

// loadUsers loads every roster user's document concurrently, keeping roster
// order.
func (s *Service) loadUsers(ctx context.Context) ([]*progress.Document, error) {
	ids := s.roster.IDs()
	users := make([]*progress.Document, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, id := range ids {
		g.Go(func() error {
			doc, err := s.store.Load(gctx, id)
			if err != nil {
				return fmt.Errorf("loading progress for %s: %w", id, err)
			}
			users[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) cached(ctx context.Context) *Snapshot {
	if s.cache == nil {
		return nil
	}
	data, ok, err := s.cache.Get(ctx, CacheKey)
	if err != nil {
		slog.Warn("stats cache read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("discarding unreadable stats snapshot", "error", err)
		return nil
	}
	return &snap
}
