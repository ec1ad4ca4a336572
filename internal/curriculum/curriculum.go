// Package curriculum holds the shared learning path: its data model, the
// file-backed store and the edits applied to subtopic resources and notes.
package curriculum

import (
	"strconv"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
)

// Category returns the category with the given id.
func (c *Curriculum) Category(id string) (*Category, error) {
	for i := range c.LearningPath {
		if string(c.LearningPath[i].ID) == id {
			return &c.LearningPath[i], nil
		}
	}
	return nil, apperr.NotFound("category", id)
}

// Topic returns the topic topicID inside category catID.
func (c *Curriculum) Topic(catID, topicID string) (*Topic, error) {
	cat, err := c.Category(catID)
	if err != nil {
		return nil, err
	}
	return cat.Topic(topicID)
}

// Subtopic resolves a subtopic by stable id or, failing that, by name.
func (c *Curriculum) Subtopic(catID, topicID, key string) (*Subtopic, error) {
	topic, err := c.Topic(catID, topicID)
	if err != nil {
		return nil, err
	}
	return topic.Subtopic(key)
}

// CheckNames rejects a topic that lists the same subtopic name twice.
// Completion is tracked by name, so such a topic could never be complete.
func (c *Curriculum) CheckNames() error {
	for _, cat := range c.LearningPath {
		for _, t := range cat.Topics {
			seen := make(map[string]bool, len(t.Subtopics))
			for _, s := range t.Subtopics {
				if seen[s.Name] {
					return apperr.Invalid("subtopic",
						"duplicate name "+strconv.Quote(s.Name)+" in topic "+string(cat.ID)+"/"+string(t.ID))
				}
				seen[s.Name] = true
			}
		}
	}
	return nil
}

// Totals counts categories, topics and subtopics.
func (c *Curriculum) Totals() Totals {
	t := Totals{Categories: len(c.LearningPath)}
	for _, cat := range c.LearningPath {
		t.Topics += len(cat.Topics)
		t.Subtopics += cat.SubtopicCount()
	}
	return t
}

// Clone returns a deep copy.
func (c *Curriculum) Clone() *Curriculum {
	if c == nil {
		return nil
	}
	out := &Curriculum{LearningPath: make([]Category, len(c.LearningPath))}
	for i, cat := range c.LearningPath {
		cat.Topics = cloneTopics(cat.Topics)
		out.LearningPath[i] = cat
	}
	return out
}

func cloneTopics(in []Topic) []Topic {
	if in == nil {
		return nil
	}
	out := make([]Topic, len(in))
	for i, t := range in {
		if t.Subtopics != nil {
			subs := make([]Subtopic, len(t.Subtopics))
			for j, s := range t.Subtopics {
				if s.Resources != nil {
					s.Resources = append([]Resource(nil), s.Resources...)
				}
				subs[j] = s
			}
			t.Subtopics = subs
		}
		out[i] = t
	}
	return out
}

// Topic returns the topic with the given id.
func (cat *Category) Topic(id string) (*Topic, error) {
	for i := range cat.Topics {
		if string(cat.Topics[i].ID) == id {
			return &cat.Topics[i], nil
		}
	}
	return nil, apperr.NotFound("topic", string(cat.ID)+"/"+id)
}

// SubtopicCount sums the subtopics of every topic in the category.
func (cat *Category) SubtopicCount() int {
	n := 0
	for _, t := range cat.Topics {
		n += len(t.Subtopics)
	}
	return n
}

// Subtopic resolves key against subtopic ids first, then names.
func (t *Topic) Subtopic(key string) (*Subtopic, error) {
	for i := range t.Subtopics {
		if t.Subtopics[i].ID != "" && t.Subtopics[i].ID == key {
			return &t.Subtopics[i], nil
		}
	}
	for i := range t.Subtopics {
		if t.Subtopics[i].Name == key {
			return &t.Subtopics[i], nil
		}
	}
	return nil, apperr.NotFound("subtopic", string(t.ID)+"/"+key)
}
