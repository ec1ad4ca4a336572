// Package session holds one user's in-progress edits between explicit saves.
// A Session owns private copies of the curriculum and the user's progress;
// nothing reaches the stores until Save. Curriculum edits are kept as a
// pending list and replayed onto the latest stored curriculum when saved,
// so saves by different users never overwrite each other.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/learn-tracker/internal/curriculum"
	"github.com/p-n-ai/learn-tracker/internal/progress"
)

// CurriculumStore loads and persists the shared curriculum.
type CurriculumStore interface {
	Load() (*curriculum.Curriculum, error)
	Save(c *curriculum.Curriculum) error
}

// Notifier is told about every successful save.
type Notifier interface {
	ProgressSaved(ctx context.Context, userID string, overall progress.Overall)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID string, overall progress.Overall)

func (f NotifierFunc) ProgressSaved(ctx context.Context, userID string, overall progress.Overall) {
	f(ctx, userID, overall)
}

// View is a read-only copy of a session's state.
type View struct {
	SessionID    string                 `json:"session_id"`
	UserID       string                 `json:"user_id"`
	Name         string                 `json:"name"`
	Curriculum   *curriculum.Curriculum `json:"curriculum"`
	Progress     *progress.Document     `json:"progress"`
	Overall      progress.Overall       `json:"overall"`
	DaysLearning int                    `json:"days_learning"`
	Dirty        bool                   `json:"dirty"`
}

// Session is the mutable state of one user's open tracker.
type Session struct {
	id     string
	userID string

	curricula CurriculumStore
	store     progress.Store
	events    EventLogger
	notifier  Notifier
	now       func() time.Time

	// writeMu serializes load, replay and write of the shared curriculum
	// across every session of a Manager.
	writeMu *sync.Mutex
	// onCurriculumSaved runs after a save wrote the curriculum, outside mu.
	onCurriculumSaved func(from *Session)

	mu         sync.Mutex
	curriculum *curriculum.Curriculum
	doc        *progress.Document
	pending    []curriculumEdit
	dirty      bool
}

// curriculumEdit is a resource or notes change waiting to be written.
type curriculumEdit func(c *curriculum.Curriculum) error

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// UserID returns the id of the user the session belongs to.
func (s *Session) UserID() string { return s.userID }

// Dirty reports whether there are unsaved edits.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// View returns a copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		SessionID:    s.id,
		UserID:       s.userID,
		Name:         s.doc.Name,
		Curriculum:   s.curriculum.Clone(),
		Progress:     s.doc.Clone(),
		Overall:      progress.OverallProgress(s.curriculum, s.doc),
		DaysLearning: s.doc.DaysLearning(s.now()),
		Dirty:        s.dirty,
	}
}

// ToggleSubtopic marks one subtopic, given by id or name, done or not done.
func (s *Session) ToggleSubtopic(catID, topicID, subtopic string, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic, err := s.curriculum.Topic(catID, topicID)
	if err != nil {
		return err
	}
	sub, err := topic.Subtopic(subtopic)
	if err != nil {
		return err
	}

	var current []string
	if tp := s.doc.Topic(catID, topicID); tp != nil {
		current = tp.SubtopicsCompleted
	}
	next := make([]string, 0, len(current)+1)
	for _, name := range current {
		if name == sub.Name {
			continue
		}
		if _, err := topic.Subtopic(name); err == nil {
			next = append(next, name)
		}
	}
	if done {
		next = append(next, sub.Name)
	}

	if err := progress.MergeSubtopicEdit(s.doc, s.curriculum, catID, topicID, next); err != nil {
		return err
	}
	s.touch(EventSubtopicsUpdated, map[string]any{
		"category_id": catID, "topic_id": topicID, "subtopic": sub.Name, "done": done,
	})
	return nil
}

// SetCompletedSubtopics replaces a topic's completed set. Entries may be
// subtopic ids or names.
func (s *Session) SetCompletedSubtopics(catID, topicID string, subtopics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic, err := s.curriculum.Topic(catID, topicID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(subtopics))
	for _, key := range subtopics {
		sub, err := topic.Subtopic(key)
		if err != nil {
			return err
		}
		names = append(names, sub.Name)
	}

	if err := progress.MergeSubtopicEdit(s.doc, s.curriculum, catID, topicID, names); err != nil {
		return err
	}
	s.touch(EventSubtopicsUpdated, map[string]any{
		"category_id": catID, "topic_id": topicID, "completed": len(names),
	})
	return nil
}

// SetCategoryCompleted sets a category's manual completed flag.
func (s *Session) SetCategoryCompleted(catID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := progress.SetCategoryCompleted(s.doc, s.curriculum, catID, completed); err != nil {
		return err
	}
	s.touch(EventCategoryCompleted, map[string]any{"category_id": catID, "completed": completed})
	return nil
}

// AddResource appends a resource to a subtopic.
func (s *Session) AddResource(catID, topicID, subtopic string, r curriculum.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.curriculum.AddResource(catID, topicID, subtopic, r); err != nil {
		return err
	}
	s.pending = append(s.pending, func(c *curriculum.Curriculum) error {
		return c.AddResource(catID, topicID, subtopic, r)
	})
	s.touch(EventResourceAdded, map[string]any{
		"category_id": catID, "topic_id": topicID, "subtopic": subtopic, "url": r.URL,
	})
	return nil
}

// RemoveResource deletes the resource at index from a subtopic.
func (s *Session) RemoveResource(catID, topicID, subtopic string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.curriculum.Subtopic(catID, topicID, subtopic)
	if err != nil {
		return err
	}
	var removed curriculum.Resource
	if index >= 0 && index < len(sub.Resources) {
		removed = sub.Resources[index]
	}
	if err := s.curriculum.RemoveResource(catID, topicID, subtopic, index); err != nil {
		return err
	}
	s.pending = append(s.pending, func(c *curriculum.Curriculum) error {
		return removeMatching(c, catID, topicID, subtopic, removed)
	})
	s.touch(EventResourceRemoved, map[string]any{
		"category_id": catID, "topic_id": topicID, "subtopic": subtopic, "index": index,
	})
	return nil
}

// EditNotes replaces a subtopic's notes.
func (s *Session) EditNotes(catID, topicID, subtopic, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.curriculum.EditNotes(catID, topicID, subtopic, notes); err != nil {
		return err
	}
	s.pending = append(s.pending, func(c *curriculum.Curriculum) error {
		return c.EditNotes(catID, topicID, subtopic, notes)
	})
	s.touch(EventNotesEdited, map[string]any{
		"category_id": catID, "topic_id": topicID, "subtopic": subtopic, "notes_len": len(notes),
	})
	return nil
}

// Save writes pending curriculum edits, if any, and then the progress
// document. Curriculum edits are replayed onto the latest stored curriculum
// rather than overwriting it with this session's copy. On failure the
// session keeps its unsaved edits and stays dirty, so Save can be retried.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	wroteCurriculum, err := s.save(ctx)
	s.mu.Unlock()

	if wroteCurriculum && s.onCurriculumSaved != nil {
		s.onCurriculumSaved(s)
	}
	return err
}

func (s *Session) save(ctx context.Context) (wroteCurriculum bool, err error) {
	if len(s.pending) > 0 {
		merged, err := s.writeCurriculum()
		if err != nil {
			s.logEvent(EventSaveFailed, map[string]any{"stage": "curriculum", "error": err.Error()})
			return false, fmt.Errorf("saving curriculum: %w", err)
		}
		s.curriculum = merged
		s.pending = nil
		wroteCurriculum = true
		progress.Recompute(s.doc, s.curriculum)
	}

	if err := s.store.Save(ctx, s.userID, s.doc.Clone()); err != nil {
		s.logEvent(EventSaveFailed, map[string]any{"stage": "progress", "error": err.Error()})
		return wroteCurriculum, fmt.Errorf("saving progress: %w", err)
	}

	s.dirty = false
	overall := progress.OverallProgress(s.curriculum, s.doc)
	s.logEvent(EventProgressSaved, map[string]any{
		"completed": overall.Completed, "total": overall.Total, "percentage": overall.Percentage,
	})
	slog.Info("progress saved",
		"user_id", s.userID,
		"session_id", s.id,
		"overall_pct", overall.Percentage,
	)

	if s.notifier != nil {
		s.notifier.ProgressSaved(ctx, s.userID, overall)
	}
	return wroteCurriculum, nil
}

// writeCurriculum replays pending edits onto a fresh load and stores the
// result. Callers hold mu.
func (s *Session) writeCurriculum() (*curriculum.Curriculum, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	latest, err := s.curricula.Load()
	if err != nil {
		return nil, err
	}
	for _, edit := range s.pending {
		if err := edit(latest); err != nil {
			return nil, err
		}
	}
	if err := s.curricula.Save(latest.Clone()); err != nil {
		return nil, err
	}
	return latest, nil
}

// refresh swaps in the latest stored curriculum and reapplies this
// session's unsaved curriculum edits on top of it. Edits that no longer
// apply are dropped.
func (s *Session) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.curricula.Load()
	if err != nil {
		slog.Warn("failed to refresh session curriculum", "user_id", s.userID, "error", err)
		return
	}

	kept := s.pending[:0]
	for _, edit := range s.pending {
		if err := edit(latest); err != nil {
			slog.Warn("dropping unsaved curriculum edit", "user_id", s.userID, "session_id", s.id, "error", err)
			continue
		}
		kept = append(kept, edit)
	}
	s.pending = kept
	s.curriculum = latest
	progress.Recompute(s.doc, s.curriculum)
}

// removeMatching removes the first resource equal to r. A resource that is
// already gone is not an error.
func removeMatching(c *curriculum.Curriculum, catID, topicID, subtopic string, r curriculum.Resource) error {
	sub, err := c.Subtopic(catID, topicID, subtopic)
	if err != nil {
		return err
	}
	for i, have := range sub.Resources {
		if have == r {
			return c.RemoveResource(catID, topicID, subtopic, i)
		}
	}
	return nil
}

// touch marks the session dirty and journals the edit. Callers hold mu.
func (s *Session) touch(eventType string, data map[string]any) {
	s.dirty = true
	s.logEvent(eventType, data)
}

func (s *Session) logEvent(eventType string, data map[string]any) {
	err := s.events.LogEvent(Event{
		ID:        uuid.NewString(),
		SessionID: s.id,
		UserID:    s.userID,
		EventType: eventType,
		Data:      data,
		CreatedAt: s.now(),
	})
	if err != nil {
		slog.Warn("failed to log session event", "type", eventType, "user_id", s.userID, "error", err)
	}
}
