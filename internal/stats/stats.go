// Package stats derives cross-user statistics from progress documents.
package stats

import (
	"github.com/p-n-ai/learn-tracker/internal/curriculum"
	"github.com/p-n-ai/learn-tracker/internal/progress"
)

// Engagement counts users per category.
type Engagement struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
}

// UserRow is one line of the user comparison table.
type UserRow struct {
	UserID              string  `json:"user_id"`
	Name                string  `json:"name"`
	CompletedCategories int     `json:"completed_categories"`
	TotalCategories     int     `json:"total_categories"`
	Percentage          float64 `json:"percentage"`
}

// EngagementRow is one line of the category engagement table.
type EngagementRow struct {
	CategoryID string `json:"category_id"`
	Category   string `json:"category"`
	Engagement
	TotalUsers int `json:"total_users"`
}

// DashboardRow is one category on a single user's dashboard.
type DashboardRow struct {
	CategoryID string          `json:"category_id"`
	Category   string          `json:"category"`
	Percentage float64         `json:"percentage"`
	Status     progress.Status `json:"status"`
}

// AverageProgressAcrossUsers sums every user's stored category percentage
// and divides by users times categories. It is 0 when there are no users or
// no categories.
func AverageProgressAcrossUsers(users []*progress.Document, c *curriculum.Curriculum) float64 {
	categories := len(c.LearningPath)
	if len(users) == 0 || categories == 0 {
		return 0
	}
	var sum float64
	for _, doc := range users {
		for _, cat := range c.LearningPath {
			if cp := doc.Category(string(cat.ID)); cp != nil {
				sum += cp.CompletionPercentage
			}
		}
	}
	return sum / float64(len(users)*categories)
}

// CategoryEngagement counts users who started the category (percentage above
// zero) and users who marked it complete.
func CategoryEngagement(cat *curriculum.Category, users []*progress.Document) Engagement {
	var e Engagement
	for _, doc := range users {
		cp := doc.Category(string(cat.ID))
		if cp == nil {
			continue
		}
		if cp.CompletionPercentage > 0 {
			e.Started++
		}
		if cp.Completed {
			e.Completed++
		}
	}
	return e
}

// Compare builds one UserRow per document, in the given order. name maps a
// user id to its display name.
func Compare(c *curriculum.Curriculum, users []*progress.Document, name func(string) string) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for _, doc := range users {
		o := progress.OverallProgress(c, doc)
		display := doc.Name
		if name != nil {
			display = name(doc.Username)
		}
		rows = append(rows, UserRow{
			UserID:              doc.Username,
			Name:                display,
			CompletedCategories: o.Completed,
			TotalCategories:     o.Total,
			Percentage:          o.Percentage,
		})
	}
	return rows
}

// Engagements builds one EngagementRow per category in curriculum order.
func Engagements(c *curriculum.Curriculum, users []*progress.Document) []EngagementRow {
	rows := make([]EngagementRow, 0, len(c.LearningPath))
	for i := range c.LearningPath {
		cat := &c.LearningPath[i]
		rows = append(rows, EngagementRow{
			CategoryID: string(cat.ID),
			Category:   cat.Name,
			Engagement: CategoryEngagement(cat, users),
			TotalUsers: len(users),
		})
	}
	return rows
}

// Dashboard lists every category with the user's percentage and status.
func Dashboard(c *curriculum.Curriculum, doc *progress.Document) []DashboardRow {
	rows := make([]DashboardRow, 0, len(c.LearningPath))
	for _, cat := range c.LearningPath {
		id := string(cat.ID)
		row := DashboardRow{
			CategoryID: id,
			Category:   cat.Name,
			Status:     progress.CategoryStatus(doc, id),
		}
		if cp := doc.Category(id); cp != nil {
			row.Percentage = cp.CompletionPercentage
		}
		rows = append(rows, row)
	}
	return rows
}
