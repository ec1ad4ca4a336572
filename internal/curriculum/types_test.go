package curriculum_test

import (
	"encoding/json"
	"testing"

	"github.com/p-n-ai/learn-tracker/internal/curriculum"
)

func TestID_JSON(t *testing.T) {
	tests := []struct {
		in      string
		want    curriculum.ID
		encoded string
	}{
		{`1`, "1", `1`},
		{`"1"`, "1", `1`},
		{`"intro"`, "intro", `"intro"`},
		{`"007"`, "007", `"007"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id curriculum.ID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if id != tt.want {
				t.Errorf("id = %q, want %q", id, tt.want)
			}

			out, err := json.Marshal(id)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(out) != tt.encoded {
				t.Errorf("Marshal() = %s, want %s", out, tt.encoded)
			}
		})
	}
}

func TestID_RejectsBool(t *testing.T) {
	var id curriculum.ID
	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Error("Unmarshal(true) should fail")
	}
}

func TestSubtopic_MarshalWritesEmptyResources(t *testing.T) {
	out, err := json.Marshal(curriculum.Subtopic{Name: "Vectors"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := string(out), `{"name":"Vectors","resources":[],"notes":""}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestResourceType_Valid(t *testing.T) {
	for _, rt := range curriculum.ResourceTypes {
		if !rt.Valid() {
			t.Errorf("%q should be valid", rt)
		}
	}
	if curriculum.ResourceType("Podcast").Valid() {
		t.Error("Podcast should not be valid")
	}
}
