package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/learn-tracker/internal/progress"
	"github.com/p-n-ai/learn-tracker/internal/roster"
)

// ManagerConfig holds dependencies for the session manager.
type ManagerConfig struct {
	Curriculum CurriculumStore
	Progress   progress.Store
	Roster     *roster.Roster
	Events     EventLogger // default NopEventLogger
	Notifier   Notifier    // optional
	Now        func() time.Time
}

// Manager keeps at most one open session per user.
type Manager struct {
	curricula CurriculumStore
	store     progress.Store
	roster    *roster.Roster
	events    EventLogger
	notifier  Notifier
	now       func() time.Time

	writeMu sync.Mutex

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		curricula: cfg.Curriculum,
		store:     cfg.Progress,
		roster:    cfg.Roster,
		events:    events,
		notifier:  cfg.Notifier,
		now:       now,
		sessions:  make(map[string]*Session),
	}
}

// Open returns the user's open session, loading a new one when none exists.
// Users outside the roster are a NotFoundError.
func (m *Manager) Open(ctx context.Context, userID string) (*Session, error) {
	if _, err := m.roster.Get(userID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}

	c, err := m.curricula.Load()
	if err != nil {
		return nil, fmt.Errorf("opening session for %s: %w", userID, err)
	}
	doc, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("opening session for %s: %w", userID, err)
	}
	progress.Recompute(doc, c)

	s := &Session{
		id:         uuid.NewString(),
		userID:     userID,
		curricula:  m.curricula,
		store:      m.store,
		events:     m.events,
		notifier:   m.notifier,
		now:        m.now,
		writeMu:    &m.writeMu,
		curriculum: c,
		doc:        doc,
	}
	s.onCurriculumSaved = m.refreshOthers
	m.sessions[userID] = s
	s.logEvent(EventSessionOpened, map[string]any{"categories": len(c.LearningPath)})

	slog.Info("session opened", "user_id", userID, "session_id", s.id)
	return s, nil
}

// Close discards the user's session. It reports whether unsaved edits were
// dropped with it.
func (m *Manager) Close(userID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	dirty := s.Dirty()
	if dirty {
		slog.Warn("session closed with unsaved edits", "user_id", userID, "session_id", s.ID())
	}
	return dirty
}

// refreshOthers brings every other open session up to date with a
// curriculum that from just wrote.
func (m *Manager) refreshOthers(from *Session) {
	m.mu.Lock()
	others := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s != from {
			others = append(others, s)
		}
	}
	m.mu.Unlock()

	for _, s := range others {
		s.refresh()
	}
}
