package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/learn-tracker/internal/curriculum"
	"github.com/p-n-ai/learn-tracker/internal/feed"
	"github.com/p-n-ai/learn-tracker/internal/platform/cache"
	"github.com/p-n-ai/learn-tracker/internal/platform/config"
	"github.com/p-n-ai/learn-tracker/internal/platform/database"
	"github.com/p-n-ai/learn-tracker/internal/progress"
	"github.com/p-n-ai/learn-tracker/internal/roster"
	"github.com/p-n-ai/learn-tracker/internal/session"
	"github.com/p-n-ai/learn-tracker/internal/stats"
)

// readinessCheck is one dependency checked by /readyz.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

// app holds the wired services behind the HTTP handlers.
type app struct {
	roster    *roster.Roster
	curricula *curriculum.Store
	sessions  *session.Manager
	stats     *stats.Service
	hub       *feed.Hub
	checks    []readinessCheck
}

// appDeps are the already-constructed backends an app is assembled from.
type appDeps struct {
	Roster     *roster.Roster
	Curriculum *curriculum.Store
	Progress   progress.Store
	Events     session.EventLogger
	Cache      stats.Cache // optional
	Config     *config.Config
	Checks     []readinessCheck
}

func newApp(deps appDeps) *app {
	hub := feed.NewHub()
	svc := stats.NewService(stats.ServiceConfig{
		Curriculum: deps.Curriculum,
		Progress:   deps.Progress,
		Roster:     deps.Roster,
		Cache:      deps.Cache,
		TTL:        deps.Config.Cache.StatsTTL,
	})
	notifier := session.NotifierFunc(func(ctx context.Context, userID string, overall progress.Overall) {
		svc.Invalidate(ctx)
		hub.ProgressSaved(ctx, userID, overall)
	})
	return &app{
		roster:    deps.Roster,
		curricula: deps.Curriculum,
		sessions: session.NewManager(session.ManagerConfig{
			Curriculum: deps.Curriculum,
			Progress:   deps.Progress,
			Roster:     deps.Roster,
			Events:     deps.Events,
			Notifier:   notifier,
		}),
		stats:  svc,
		hub:    hub,
		checks: deps.Checks,
	}
}

// build connects the configured backends. The returned cleanup closes them;
// on error everything opened so far is already closed.
func build(ctx context.Context, cfg *config.Config) (_ *app, _ func(), err error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	r, err := roster.FromConfig(cfg.Users)
	if err != nil {
		return nil, nil, fmt.Errorf("loading roster: %w", err)
	}

	curricula := curriculum.NewStore(cfg.Data.CurriculumPath)
	n, err := curricula.Normalize()
	if err != nil {
		return nil, nil, err
	}
	if n > 0 {
		slog.Warn("curriculum has subtopics without ids, run cmd/migrate to persist them", "count", n)
	}

	deps := appDeps{
		Roster:     r,
		Curriculum: curricula,
		Events:     session.NopEventLogger{},
		Config:     cfg,
	}
	defaults := progress.DefaultsFor(r.DisplayName, r.Email, nil)

	switch cfg.Progress.Backend {
	case "postgres":
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		store, err := progress.NewPostgresStore(db.Pool, defaults)
		if err != nil {
			return nil, nil, err
		}
		deps.Progress = store
		deps.Events = session.NewPostgresEventLogger(db.Pool)
		deps.Checks = append(deps.Checks, readinessCheck{"database", db.HealthCheck})
	case "sqlite":
		store, err := progress.OpenSQLiteStore(cfg.Progress.SQLitePath, defaults)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { store.Close() })
		deps.Progress = store
	default:
		deps.Progress = progress.NewFileStore(cfg.Data.Dir, defaults)
	}

	if cfg.HasCache() {
		cc, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("stats cache unavailable, continuing without it", "error", err)
		} else {
			closers = append(closers, func() { cc.Close() })
			deps.Cache = cc
			deps.Checks = append(deps.Checks, readinessCheck{"cache", cc.HealthCheck})
		}
	}

	slog.Info("backends ready",
		"progress_backend", cfg.Progress.Backend,
		"cache", deps.Cache != nil,
		"curriculum", cfg.Data.CurriculumPath,
	)
	return newApp(deps), closeAll, nil
}
