package stats

import (
	"time"

	"github.com/p-n-ai/learn-tracker/internal/curriculum"
	"github.com/p-n-ai/learn-tracker/internal/progress"
)

// Snapshot is the statistics page at one point in time.
type Snapshot struct {
	GeneratedAt     time.Time                 `json:"generated_at"`
	TotalUsers      int                       `json:"total_users"`
	AverageProgress float64                   `json:"average_progress"`
	Totals          curriculum.Totals         `json:"totals"`
	Users           []UserRow                 `json:"users"`
	Engagement      []EngagementRow           `json:"engagement"`
	Dashboards      map[string][]DashboardRow `json:"dashboards"`
}

// BuildSnapshot computes every table for users against c.
func BuildSnapshot(c *curriculum.Curriculum, users []*progress.Document, name func(string) string, now time.Time) *Snapshot {
	s := &Snapshot{
		GeneratedAt:     now.UTC(),
		TotalUsers:      len(users),
		AverageProgress: AverageProgressAcrossUsers(users, c),
		Totals:          c.Totals(),
		Users:           Compare(c, users, name),
		Engagement:      Engagements(c, users),
		Dashboards:      make(map[string][]DashboardRow, len(users)),
	}
	for _, doc := range users {
		s.Dashboards[doc.Username] = Dashboard(c, doc)
	}
	return s
}
