package curriculum_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
	"github.com/p-n-ai/learn-tracker/internal/curriculum"
)

const legacyTopics = `{
  "learning_path": [
    {
      "id": 1,
      "category": "Mathematics for ML",
      "description": "Linear algebra, calculus and probability",
      "topics": [
        {"id": 1, "name": "Linear Algebra", "subtopics": ["Vectors", "Matrices"]},
        {"id": 2, "name": "Calculus", "subtopics": [
          {"name": "Derivatives", "resources": [
            {"type": "Video", "title": "Essence of Calculus", "url": "https://example.com/calc", "description": ""}
          ], "notes": "review chain rule"}
        ]}
      ]
    },
    {
      "id": "2",
      "category": "Deep Learning",
      "description": "Neural networks",
      "topics": []
    }
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestStore_Load(t *testing.T) {
	store := curriculum.NewStore(writeFile(t, "topics.json", legacyTopics))

	c, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(c.LearningPath) != 2 {
		t.Fatalf("len(LearningPath) = %d, want 2", len(c.LearningPath))
	}
	if c.LearningPath[0].ID != "1" || c.LearningPath[1].ID != "2" {
		t.Errorf("category ids = %q, %q; want 1, 2", c.LearningPath[0].ID, c.LearningPath[1].ID)
	}

	sub, err := c.Subtopic("1", "1", "Matrices")
	if err != nil {
		t.Fatalf("Subtopic() error = %v", err)
	}
	if sub.Name != "Matrices" || len(sub.Resources) != 0 {
		t.Errorf("legacy subtopic = %+v, want name only", sub)
	}

	deriv, err := c.Subtopic("1", "2", "Derivatives")
	if err != nil {
		t.Fatalf("Subtopic() error = %v", err)
	}
	if deriv.Notes != "review chain rule" || len(deriv.Resources) != 1 {
		t.Errorf("object subtopic = %+v", deriv)
	}

	want := curriculum.Totals{Categories: 2, Topics: 2, Subtopics: 3}
	if got := c.Totals(); got != want {
		t.Errorf("Totals() = %+v, want %+v", got, want)
	}
}

func TestStore_LoadIsCached(t *testing.T) {
	path := writeFile(t, "topics.json", legacyTopics)
	store := curriculum.NewStore(path)

	if _, err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := store.Load(); err != nil {
		t.Errorf("second Load() should be served from cache, got error = %v", err)
	}
}

func TestStore_NormalizeUpdatesCacheOnly(t *testing.T) {
	path := writeFile(t, "topics.json", legacyTopics)
	store := curriculum.NewStore(path)

	n, err := store.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Normalize() = %d, want 3", n)
	}

	c, _ := store.Load()
	for _, key := range []string{"Vectors", "Matrices"} {
		sub, err := c.Subtopic("1", "1", key)
		if err != nil || sub.ID == "" {
			t.Errorf("Subtopic(%s) = %+v, %v, want an id", key, sub, err)
		}
	}

	data, _ := os.ReadFile(path)
	if string(data) != legacyTopics {
		t.Error("Normalize() should not rewrite the document")
	}
	if n, _ := store.Normalize(); n != 0 {
		t.Errorf("second Normalize() = %d, want 0", n)
	}
}

func TestStore_LoadReturnsPrivateCopies(t *testing.T) {
	store := curriculum.NewStore(writeFile(t, "topics.json", legacyTopics))

	first, _ := store.Load()
	if err := first.EditNotes("1", "1", "Vectors", "scratch"); err != nil {
		t.Fatalf("EditNotes() error = %v", err)
	}

	second, _ := store.Load()
	sub, _ := second.Subtopic("1", "1", "Vectors")
	if sub.Notes != "" {
		t.Errorf("Notes = %q, edits to one copy must not leak into the cache", sub.Notes)
	}
}

func TestStore_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"malformed", func(t *testing.T) string { return writeFile(t, "topics.json", `{"learning_path": [`) }},
		{"schema violation", func(t *testing.T) string { return writeFile(t, "topics.json", `{"learning_path": [{"id": 1}]}`) }},
		{"bad yaml", func(t *testing.T) string { return writeFile(t, "topics.yaml", "learning_path: [\n  - id: 1\n   bad") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := curriculum.NewStore(tt.path(t)).Load()

			var le *apperr.LoadError
			if !errors.As(err, &le) {
				t.Fatalf("Load() error = %v, want *apperr.LoadError", err)
			}
		})
	}
}

func TestStore_LoadRejectsDuplicateSubtopicNames(t *testing.T) {
	path := writeFile(t, "topics.json", `{"learning_path": [{
		"id": 1, "category": "Python", "description": "",
		"topics": [{"id": 1, "name": "Basics", "subtopics": ["Intro", {"name": "Intro"}]}]
	}]}`)

	_, err := curriculum.NewStore(path).Load()

	var le *apperr.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Load() error = %v, want *apperr.LoadError", err)
	}
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Field != "subtopic" {
		t.Errorf("Load() error = %v, want a subtopic *apperr.ValidationError inside", err)
	}
}

func TestCheckNames_SameNameInDifferentTopics(t *testing.T) {
	c := &curriculum.Curriculum{LearningPath: []curriculum.Category{{
		ID: "1",
		Topics: []curriculum.Topic{
			{ID: "1", Subtopics: []curriculum.Subtopic{{Name: "Intro"}}},
			{ID: "2", Subtopics: []curriculum.Subtopic{{Name: "Intro"}}},
		},
	}}}
	if err := c.CheckNames(); err != nil {
		t.Errorf("CheckNames() error = %v, want nil", err)
	}
}

func TestStore_LoadYAML(t *testing.T) {
	store := curriculum.NewStore(writeFile(t, "topics.yaml", `
learning_path:
  - id: 1
    category: Python
    description: Language basics
    topics:
      - id: 1
        name: Syntax
        subtopics:
          - Variables
          - name: Functions
            notes: closures too
`))

	c, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	sub, err := c.Subtopic("1", "1", "Functions")
	if err != nil {
		t.Fatalf("Subtopic() error = %v", err)
	}
	if sub.Notes != "closures too" {
		t.Errorf("Notes = %q, want closures too", sub.Notes)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	want := &curriculum.Curriculum{LearningPath: []curriculum.Category{{
		ID:          "1",
		Name:        "Math",
		Description: "numbers",
		Topics: []curriculum.Topic{{
			ID:   "a",
			Name: "Algebra",
			Subtopics: []curriculum.Subtopic{
				{ID: "s1", Name: "Groups", Resources: []curriculum.Resource{}, Notes: ""},
				{Name: "Rings", Resources: []curriculum.Resource{{
					Type: curriculum.ResourceArticle, Title: "Rings", URL: "https://example.com/rings",
				}}, Notes: "hard"},
			},
		}},
	}}}

	if err := curriculum.NewStore(path).Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := curriculum.NewStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestStore_SaveError(t *testing.T) {
	store := curriculum.NewStore(filepath.Join(t.TempDir(), "missing-dir", "topics.json"))

	err := store.Save(&curriculum.Curriculum{})

	var se *apperr.SaveError
	if !errors.As(err, &se) {
		t.Fatalf("Save() error = %v, want *apperr.SaveError", err)
	}
}
