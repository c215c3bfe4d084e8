package gemini

import (
	"testing"
)

func TestSchemaFromStruct_Basic(t *testing.T) {
	type correction struct {
		CorrectedText string `json:"correctedText" desc:"The corrected sentence."`
		Explanation   string `json:"explanation"`
	}

	s := SchemaFromStruct[correction]()
	if s.Type != "object" {
		t.Fatalf("type = %q, want object", s.Type)
	}
	if len(s.Properties) != 2 {
		t.Fatalf("properties = %d, want 2", len(s.Properties))
	}
	prop, ok := s.Properties["correctedText"]
	if !ok {
		t.Fatalf("correctedText property missing: %v", s.Properties)
	}
	if prop.Type != "string" || prop.Description != "The corrected sentence." {
		t.Fatalf("correctedText schema = %+v", prop)
	}
	if len(s.Required) != 2 {
		t.Fatalf("required = %v, want both fields", s.Required)
	}
}

func TestSchemaFromStruct_ArraysAndNumbers(t *testing.T) {
	type score struct {
		Score    int      `json:"score"`
		Feedback []string `json:"feedback"`
	}

	s := SchemaFromStruct[score]()
	if got := s.Properties["score"].Type; got != "integer" {
		t.Fatalf("score type = %q, want integer", got)
	}
	fb := s.Properties["feedback"]
	if fb.Type != "array" || fb.Items == nil || fb.Items.Type != "string" {
		t.Fatalf("feedback schema = %+v", fb)
	}
}

func TestSchemaFromStruct_OptionalFields(t *testing.T) {
	type entry struct {
		Mode  string `json:"mode"`
		Score *int   `json:"score,omitempty"`
		Note  string `json:"note,omitempty"`
	}

	s := SchemaFromStruct[entry]()
	if len(s.Required) != 1 || s.Required[0] != "mode" {
		t.Fatalf("required = %v, want [mode]", s.Required)
	}
}

func TestSchemaFromStruct_EnumTag(t *testing.T) {
	type pick struct {
		Level string `json:"level" enum:"beginner, intermediate, advanced"`
	}

	s := SchemaFromStruct[pick]()
	got := s.Properties["level"].Enum
	want := []string{"beginner", "intermediate", "advanced"}
	if len(got) != len(want) {
		t.Fatalf("enum = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("enum[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSchemaFromStruct_SkipsUnexportedAndIgnored(t *testing.T) {
	type s struct {
		Visible string `json:"visible"`
		Hidden  string `json:"-"`
		secret  string
	}

	_ = s{}.secret

	schema := SchemaFromStruct[s]()
	if len(schema.Properties) != 1 {
		t.Fatalf("properties = %v, want only visible", schema.Properties)
	}
}
