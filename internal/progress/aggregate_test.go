package progress_test

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
	"github.com/p-n-ai/learn-tracker/internal/curriculum"
	"github.com/p-n-ai/learn-tracker/internal/progress"
)

// scenarioCurriculum has one category "1": topic "A" with two subtopics and
// topic "B" with one, plus an empty category "2".
func scenarioCurriculum() *curriculum.Curriculum {
	return &curriculum.Curriculum{LearningPath: []curriculum.Category{
		{
			ID:   "1",
			Name: "Foundations",
			Topics: []curriculum.Topic{
				{ID: "A", Name: "Topic A", Subtopics: []curriculum.Subtopic{{Name: "a1"}, {Name: "a2"}}},
				{ID: "B", Name: "Topic B", Subtopics: []curriculum.Subtopic{{Name: "b1"}}},
			},
		},
		{ID: "2", Name: "Empty"},
	}}
}

func newDoc() *progress.Document {
	return progress.NewDocument("babu", "Babu", "", time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local))
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestMergeSubtopicEdit_Scenario(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()

	if err := progress.MergeSubtopicEdit(doc, c, "1", "A", []string{"a1", "a2"}); err != nil {
		t.Fatalf("MergeSubtopicEdit() error = %v", err)
	}

	cp := doc.Category("1")
	if cp == nil {
		t.Fatal("category 1 progress missing")
	}
	if !approx(cp.CompletionPercentage, 66.67) {
		t.Errorf("CompletionPercentage = %.2f, want 66.67", cp.CompletionPercentage)
	}
	if !doc.Topic("1", "A").Completed {
		t.Error("topic A should be completed")
	}
	if cp.Completed {
		t.Error("manual completed flag must stay false until toggled")
	}
	if cp.CategoryName != "Foundations" || doc.Topic("1", "A").TopicName != "Topic A" {
		t.Errorf("denormalized names = %q / %q", cp.CategoryName, doc.Topic("1", "A").TopicName)
	}
}

func TestMergeSubtopicEdit_NormalizesSet(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()

	if err := progress.MergeSubtopicEdit(doc, c, "1", "A", []string{"a2", "a1", "a2"}); err != nil {
		t.Fatalf("MergeSubtopicEdit() error = %v", err)
	}

	got := doc.Topic("1", "A").SubtopicsCompleted
	if want := []string{"a1", "a2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SubtopicsCompleted = %v, want %v", got, want)
	}
}

func TestMergeSubtopicEdit_EmptySetIsStoredAsEmptyList(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()

	if err := progress.MergeSubtopicEdit(doc, c, "1", "B", nil); err != nil {
		t.Fatalf("MergeSubtopicEdit() error = %v", err)
	}

	tp := doc.Topic("1", "B")
	if tp.SubtopicsCompleted == nil {
		t.Error("SubtopicsCompleted should be an empty list, not nil")
	}
	if tp.Completed {
		t.Error("topic B should not be completed")
	}
}

func TestMergeSubtopicEdit_NotFoundLeavesDocUntouched(t *testing.T) {
	tests := []struct {
		name    string
		catID   string
		topicID string
		names   []string
	}{
		{"unknown category", "9", "A", []string{"a1"}},
		{"unknown topic", "1", "Z", []string{"a1"}},
		{"unknown subtopic", "1", "A", []string{"a1", "zz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scenarioCurriculum()
			doc := newDoc()
			if err := progress.MergeSubtopicEdit(doc, c, "1", "B", []string{"b1"}); err != nil {
				t.Fatalf("setup error = %v", err)
			}
			before := doc.Clone()

			err := progress.MergeSubtopicEdit(doc, c, tt.catID, tt.topicID, tt.names)

			var nf *apperr.NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("error = %v, want *apperr.NotFoundError", err)
			}
			if !reflect.DeepEqual(doc, before) {
				t.Error("document changed after a failed merge")
			}
		})
	}
}

func TestMergeSubtopicEdit_PreservesManualFlag(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()

	if err := progress.SetCategoryCompleted(doc, c, "1", true); err != nil {
		t.Fatalf("SetCategoryCompleted() error = %v", err)
	}
	if err := progress.MergeSubtopicEdit(doc, c, "1", "B", []string{"b1"}); err != nil {
		t.Fatalf("MergeSubtopicEdit() error = %v", err)
	}

	cp := doc.Category("1")
	if !cp.Completed {
		t.Error("manual flag was cleared by a subtopic edit")
	}
	if !approx(cp.CompletionPercentage, 33.33) {
		t.Errorf("CompletionPercentage = %.2f, want 33.33", cp.CompletionPercentage)
	}
}

// Every merge leaves each topic flag equal to "all subtopics done" and the
// category percentage equal to a fresh computation.
func TestMergeSubtopicEdit_Consistency(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()
	rng := rand.New(rand.NewSource(7))
	cat, _ := c.Category("1")

	for i := 0; i < 200; i++ {
		topic := &cat.Topics[rng.Intn(len(cat.Topics))]
		var names []string
		for _, s := range topic.Subtopics {
			if rng.Intn(2) == 0 {
				names = append(names, s.Name)
			}
		}

		if err := progress.MergeSubtopicEdit(doc, c, "1", string(topic.ID), names); err != nil {
			t.Fatalf("MergeSubtopicEdit() error = %v", err)
		}

		cp := doc.Category("1")
		for _, tt := range cat.Topics {
			tp := cp.Topics[string(tt.ID)]
			if tp == nil {
				continue
			}
			if tp.Completed != (len(tp.SubtopicsCompleted) == len(tt.Subtopics)) {
				t.Fatalf("step %d: topic %s Completed = %v with %d/%d done",
					i, tt.ID, tp.Completed, len(tp.SubtopicsCompleted), len(tt.Subtopics))
			}
		}
		if want := progress.CategoryPercentage(cat, cp.Topics); cp.CompletionPercentage != want {
			t.Fatalf("step %d: CompletionPercentage = %v, want %v", i, cp.CompletionPercentage, want)
		}
	}
}

func TestCategoryPercentage_Monotonic(t *testing.T) {
	c := scenarioCurriculum()
	cat, _ := c.Category("1")

	order := [][2]string{{"B", "b1"}, {"A", "a2"}, {"A", "a1"}}
	topics := map[string]*progress.TopicProgress{}
	prev := progress.CategoryPercentage(cat, topics)
	if prev != 0 {
		t.Fatalf("empty set percentage = %v, want 0", prev)
	}

	for i, step := range order {
		tp := topics[step[0]]
		if tp == nil {
			tp = &progress.TopicProgress{}
			topics[step[0]] = tp
		}
		tp.SubtopicsCompleted = append(tp.SubtopicsCompleted, step[1])

		got := progress.CategoryPercentage(cat, topics)
		if got < prev {
			t.Errorf("step %d: percentage decreased %v -> %v", i, prev, got)
		}
		full := i == len(order)-1
		if (got == 100) != full {
			t.Errorf("step %d: percentage = %v, full coverage = %v", i, got, full)
		}
		prev = got
	}
}

func TestCategoryPercentage_IgnoresUnknownNames(t *testing.T) {
	c := scenarioCurriculum()
	cat, _ := c.Category("1")

	got := progress.CategoryPercentage(cat, map[string]*progress.TopicProgress{
		"A": {SubtopicsCompleted: []string{"a1", "renamed", "a1"}},
	})
	if !approx(got, 33.33) {
		t.Errorf("CategoryPercentage() = %.2f, want 33.33", got)
	}
}

func TestCategoryPercentage_NoSubtopics(t *testing.T) {
	c := scenarioCurriculum()
	cat, _ := c.Category("2")

	if got := progress.CategoryPercentage(cat, nil); got != 0 {
		t.Errorf("CategoryPercentage() = %v, want 0", got)
	}
}

func TestTopicCompletion(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		done     []string
		wantDone bool
		wantPct  float64
	}{
		{"none", 2, nil, false, 0},
		{"half", 2, []string{"a"}, false, 50},
		{"all", 2, []string{"a", "b"}, true, 100},
		{"empty topic", 0, nil, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done, pct := progress.TopicCompletion(tt.count, tt.done)
			if done != tt.wantDone || pct != tt.wantPct {
				t.Errorf("TopicCompletion() = (%v, %v), want (%v, %v)", done, pct, tt.wantDone, tt.wantPct)
			}
		})
	}
}

func TestOverallProgress(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()

	if got := progress.OverallProgress(c, doc); got != (progress.Overall{Completed: 0, Total: 2}) {
		t.Errorf("OverallProgress() = %+v, want 0/2", got)
	}

	// A fully done category still counts only once its manual flag is set.
	_ = progress.MergeSubtopicEdit(doc, c, "1", "A", []string{"a1", "a2"})
	_ = progress.MergeSubtopicEdit(doc, c, "1", "B", []string{"b1"})
	if got := progress.OverallProgress(c, doc); got.Completed != 0 {
		t.Errorf("Completed = %d, want 0 before manual toggle", got.Completed)
	}

	_ = progress.SetCategoryCompleted(doc, c, "2", true)
	got := progress.OverallProgress(c, doc)
	if got.Completed != 1 || got.Total != 2 || got.Percentage != 50 {
		t.Errorf("OverallProgress() = %+v, want 1/2 50%%", got)
	}
}

func TestOverallProgress_EmptyCurriculum(t *testing.T) {
	got := progress.OverallProgress(&curriculum.Curriculum{}, newDoc())
	if got.Percentage != 0 || got.Total != 0 {
		t.Errorf("OverallProgress() = %+v, want zero", got)
	}
}

func TestSetCategoryCompleted(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()

	if err := progress.SetCategoryCompleted(doc, c, "1", true); err != nil {
		t.Fatalf("SetCategoryCompleted() error = %v", err)
	}
	if cp := doc.Category("1"); !cp.Completed || cp.CompletionPercentage != 0 {
		t.Errorf("category = %+v, want completed at 0%%", cp)
	}

	if err := progress.SetCategoryCompleted(doc, c, "1", false); err != nil {
		t.Fatalf("SetCategoryCompleted() error = %v", err)
	}
	if doc.Category("1").Completed {
		t.Error("flag should be cleared")
	}

	var nf *apperr.NotFoundError
	if err := progress.SetCategoryCompleted(doc, c, "42", true); !errors.As(err, &nf) {
		t.Errorf("error = %v, want *apperr.NotFoundError", err)
	}
}

func TestCategoryStatus(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()

	if got := progress.CategoryStatus(doc, "1"); got != progress.StatusNotStarted {
		t.Errorf("status = %q, want Not Started", got)
	}

	_ = progress.MergeSubtopicEdit(doc, c, "1", "B", []string{"b1"})
	if got := progress.CategoryStatus(doc, "1"); got != progress.StatusInProgress {
		t.Errorf("status = %q, want In Progress", got)
	}

	_ = progress.SetCategoryCompleted(doc, c, "1", true)
	if got := progress.CategoryStatus(doc, "1"); got != progress.StatusComplete {
		t.Errorf("status = %q, want Complete", got)
	}
}

func TestRecompute_AfterRename(t *testing.T) {
	c := scenarioCurriculum()
	doc := newDoc()
	_ = progress.MergeSubtopicEdit(doc, c, "1", "A", []string{"a1", "a2"})

	c.LearningPath[0].Name = "Basics"
	c.LearningPath[0].Topics[0].Name = "Renamed A"
	c.LearningPath[0].Topics[0].Subtopics[1].Name = "a2-new"

	progress.Recompute(doc, c)

	cp := doc.Category("1")
	tp := doc.Topic("1", "A")
	if cp.CategoryName != "Basics" || tp.TopicName != "Renamed A" {
		t.Errorf("names = %q / %q, want refreshed", cp.CategoryName, tp.TopicName)
	}
	if !reflect.DeepEqual(tp.SubtopicsCompleted, []string{"a1"}) {
		t.Errorf("SubtopicsCompleted = %v, want [a1]", tp.SubtopicsCompleted)
	}
	if tp.Completed {
		t.Error("topic A should no longer be complete")
	}
	if !approx(cp.CompletionPercentage, 33.33) {
		t.Errorf("CompletionPercentage = %.2f, want 33.33", cp.CompletionPercentage)
	}
}
