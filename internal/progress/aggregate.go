package progress

import (
	"github.com/p-n-ai/learn-tracker/internal/apperr"
	"github.com/p-n-ai/learn-tracker/internal/curriculum"
)

// Status summarizes a category for the dashboard.
type Status string

const (
	StatusComplete   Status = "Complete"
	StatusInProgress Status = "In Progress"
	StatusNotStarted Status = "Not Started"
)

// Overall is the share of categories whose manual completed flag is set.
type Overall struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// TopicCompletion reports whether every subtopic is done and the share done.
// A topic with no subtopics is complete at 0%.
func TopicCompletion(subtopicCount int, completed []string) (bool, float64) {
	done := len(completed)
	if subtopicCount == 0 {
		return done == 0, 0
	}
	return done == subtopicCount, float64(done) / float64(subtopicCount) * 100
}

// CategoryPercentage is completed subtopics over total subtopics across the
// category's topics, as a percentage. Completed names that are not
// subtopics of their topic are not counted.
func CategoryPercentage(cat *curriculum.Category, topics map[string]*TopicProgress) float64 {
	total, done := 0, 0
	for i := range cat.Topics {
		t := &cat.Topics[i]
		total += len(t.Subtopics)
		if tp := topics[string(t.ID)]; tp != nil {
			done += len(knownNames(t, tp.SubtopicsCompleted))
		}
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

// OverallProgress counts categories marked complete against all categories.
func OverallProgress(c *curriculum.Curriculum, doc *Document) Overall {
	o := Overall{Total: len(c.LearningPath)}
	for _, cat := range c.LearningPath {
		if cp := doc.Category(string(cat.ID)); cp != nil && cp.Completed {
			o.Completed++
		}
	}
	if o.Total > 0 {
		o.Percentage = float64(o.Completed) / float64(o.Total) * 100
	}
	return o
}

// MergeSubtopicEdit replaces a topic's completed set and recomputes the
// topic flag and the category percentage together. The set is deduplicated
// and stored in curriculum order. An unknown category, topic or subtopic
// name is a NotFoundError and leaves doc untouched.
func MergeSubtopicEdit(doc *Document, c *curriculum.Curriculum, catID, topicID string, completed []string) error {
	cat, err := c.Category(catID)
	if err != nil {
		return err
	}
	topic, err := cat.Topic(topicID)
	if err != nil {
		return err
	}
	for _, name := range completed {
		if !hasSubtopic(topic, name) {
			return apperr.NotFound("subtopic", topicID+"/"+name)
		}
	}

	names := knownNames(topic, completed)
	done, _ := TopicCompletion(len(topic.Subtopics), names)

	cp := doc.Category(catID)
	var next CategoryProgress
	if cp != nil {
		next = *cp.clone()
	}
	next.CategoryName = cat.Name
	if next.Topics == nil {
		next.Topics = make(map[string]*TopicProgress)
	}
	next.Topics[topicID] = &TopicProgress{
		TopicName:          topic.Name,
		Completed:          done,
		SubtopicsCompleted: names,
	}
	next.CompletionPercentage = CategoryPercentage(cat, next.Topics)

	if doc.Progress == nil {
		doc.Progress = make(map[string]*CategoryProgress)
	}
	doc.Progress[catID] = &next
	return nil
}

// SetCategoryCompleted sets the manual flag. The derived percentage is not
// touched.
func SetCategoryCompleted(doc *Document, c *curriculum.Curriculum, catID string, completed bool) error {
	cat, err := c.Category(catID)
	if err != nil {
		return err
	}
	if doc.Progress == nil {
		doc.Progress = make(map[string]*CategoryProgress)
	}
	cp := doc.Progress[catID]
	if cp == nil {
		cp = &CategoryProgress{}
		doc.Progress[catID] = cp
	}
	cp.Completed = completed
	cp.CategoryName = cat.Name
	return nil
}

// CategoryStatus is Complete when the manual flag is set, In Progress when
// any subtopic is done, and Not Started otherwise.
func CategoryStatus(doc *Document, catID string) Status {
	cp := doc.Category(catID)
	switch {
	case cp == nil:
		return StatusNotStarted
	case cp.Completed:
		return StatusComplete
	case cp.CompletionPercentage > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// Recompute refreshes denormalized names and every derived value in doc
// from the curriculum. Completed names that no longer exist are dropped.
// Categories and topics missing from the curriculum are left as they are.
func Recompute(doc *Document, c *curriculum.Curriculum) {
	for i := range c.LearningPath {
		cat := &c.LearningPath[i]
		cp := doc.Category(string(cat.ID))
		if cp == nil {
			continue
		}
		cp.CategoryName = cat.Name
		for j := range cat.Topics {
			t := &cat.Topics[j]
			tp := cp.Topics[string(t.ID)]
			if tp == nil {
				continue
			}
			tp.TopicName = t.Name
			tp.SubtopicsCompleted = knownNames(t, tp.SubtopicsCompleted)
			tp.Completed, _ = TopicCompletion(len(t.Subtopics), tp.SubtopicsCompleted)
		}
		cp.CompletionPercentage = CategoryPercentage(cat, cp.Topics)
	}
}

// knownNames filters names to the topic's subtopics, in curriculum order,
// without duplicates. The result is never nil.
func knownNames(t *curriculum.Topic, names []string) []string {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make([]string, 0, len(names))
	for _, s := range t.Subtopics {
		if want[s.Name] {
			out = append(out, s.Name)
			delete(want, s.Name)
		}
	}
	return out
}

func hasSubtopic(t *curriculum.Topic, name string) bool {
	for _, s := range t.Subtopics {
		if s.Name == name {
			return true
		}
	}
	return false
}
