// Package progress holds per-user completion state, the pure functions that
// derive percentages from it, and the stores that persist it.
package progress

import (
	"fmt"
	"time"
)

// DateLayout is the format of Document.StartedDate.
const DateLayout = "2006-01-02"

// Document is one user's progress file.
type Document struct {
	Username    string                       `json:"username"`
	Name        string                       `json:"name"`
	Email       string                       `json:"email"`
	StartedDate string                       `json:"started_date"`
	Progress    map[string]*CategoryProgress `json:"progress"`
}

// CategoryProgress is keyed by category id in Document.Progress. Completed is
// the manual flag; CompletionPercentage is derived from Topics.
type CategoryProgress struct {
	Completed            bool                      `json:"completed"`
	CompletionPercentage float64                   `json:"completion_percentage"`
	CategoryName         string                    `json:"category_name"`
	Topics               map[string]*TopicProgress `json:"topics,omitempty"`
}

// TopicProgress is keyed by topic id in CategoryProgress.Topics.
type TopicProgress struct {
	TopicName          string   `json:"topic_name"`
	Completed          bool     `json:"completed"`
	SubtopicsCompleted []string `json:"subtopics_completed"`
}

// NewDocument returns a document with no progress, started on now's date.
// An empty name falls back to userID and an empty email to
// userID@example.com.
func NewDocument(userID, name, email string, now time.Time) *Document {
	if name == "" {
		name = userID
	}
	if email == "" {
		email = userID + "@example.com"
	}
	return &Document{
		Username:    userID,
		Name:        name,
		Email:       email,
		StartedDate: now.Format(DateLayout),
		Progress:    map[string]*CategoryProgress{},
	}
}

// Started parses StartedDate.
func (d *Document) Started() (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, d.StartedDate, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse started_date %q: %w", d.StartedDate, err)
	}
	return t, nil
}

// DaysLearning returns whole days elapsed between StartedDate and now.
func (d *Document) DaysLearning(now time.Time) int {
	start, err := d.Started()
	if err != nil {
		return 0
	}
	days := int(now.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Category returns the progress entry for a category id, or nil.
func (d *Document) Category(id string) *CategoryProgress {
	if d == nil || d.Progress == nil {
		return nil
	}
	return d.Progress[id]
}

// Topic returns the progress entry for a topic, or nil.
func (d *Document) Topic(catID, topicID string) *TopicProgress {
	cp := d.Category(catID)
	if cp == nil || cp.Topics == nil {
		return nil
	}
	return cp.Topics[topicID]
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.Progress != nil {
		out.Progress = make(map[string]*CategoryProgress, len(d.Progress))
		for id, cp := range d.Progress {
			out.Progress[id] = cp.clone()
		}
	}
	return &out
}

func (cp *CategoryProgress) clone() *CategoryProgress {
	if cp == nil {
		return nil
	}
	out := *cp
	if cp.Topics != nil {
		out.Topics = make(map[string]*TopicProgress, len(cp.Topics))
		for id, tp := range cp.Topics {
			if tp == nil {
				out.Topics[id] = nil
				continue
			}
			t := *tp
			if tp.SubtopicsCompleted != nil {
				t.SubtopicsCompleted = append([]string{}, tp.SubtopicsCompleted...)
			}
			out.Topics[id] = &t
		}
	}
	return &out
}
