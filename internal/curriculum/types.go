package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ResourceType classifies a learning resource.
type ResourceType string

const (
	ResourceVideo         ResourceType = "Video"
	ResourceArticle       ResourceType = "Article"
	ResourceCourse        ResourceType = "Course"
	ResourceDocumentation ResourceType = "Documentation"
	ResourceTutorial      ResourceType = "Tutorial"
	ResourceOther         ResourceType = "Other"
)

// ResourceTypes lists the accepted resource types in display order.
var ResourceTypes = []ResourceType{
	ResourceVideo,
	ResourceArticle,
	ResourceCourse,
	ResourceDocumentation,
	ResourceTutorial,
	ResourceOther,
}

// Valid reports whether t is one of ResourceTypes.
func (t ResourceType) Valid() bool {
	for _, known := range ResourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ID is a category or topic identifier. Documents may store ids as JSON
// numbers or strings; both decode to the string form used as a map key.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integer ids as numbers, everything else as a
// string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// Curriculum is the shared catalog of categories, topics and subtopics.
type Curriculum struct {
	LearningPath []Category `json:"learning_path"`
}

// Category is the top level of the learning path.
type Category struct {
	ID          ID      `json:"id"`
	Name        string  `json:"category"`
	Description string  `json:"description"`
	Topics      []Topic `json:"topics"`
}

// Topic groups subtopics within a category.
type Topic struct {
	ID        ID         `json:"id"`
	Name      string     `json:"name"`
	Subtopics []Subtopic `json:"subtopics"`
}

// Subtopic is the atomic trackable unit. ID is optional; documents written
// before normalization identify subtopics by name only.
type Subtopic struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Resources []Resource `json:"resources"`
	Notes     string     `json:"notes"`
}

// subtopicFields breaks the UnmarshalJSON recursion.
type subtopicFields Subtopic

// UnmarshalJSON accepts both the object form and the legacy bare-string form.
func (s *Subtopic) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = Subtopic{Name: name}
		return nil
	}

	var f subtopicFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Subtopic(f)
	return nil
}

// MarshalJSON always writes the object form with a resources list.
func (s Subtopic) MarshalJSON() ([]byte, error) {
	f := subtopicFields(s)
	if f.Resources == nil {
		f.Resources = []Resource{}
	}
	return json.Marshal(f)
}

// Resource is a link with metadata attached to a subtopic.
type Resource struct {
	Type        ResourceType `json:"type"`
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Description string       `json:"description"`
}

// Totals counts the nodes of a curriculum.
type Totals struct {
	Categories int `json:"categories"`
	Topics     int `json:"topics"`
	Subtopics  int `json:"subtopics"`
}
