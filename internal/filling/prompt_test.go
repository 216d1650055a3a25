package filling

import (
	"encoding/json"
	"strings"
	"testing"

	"dashweave/internal/tools"
)

func TestBuildSystemPromptLayers(t *testing.T) {
	descriptors := []tools.Descriptor{
		{Name: "websearch.web_search", Description: "Search the web"},
	}
	got := buildSystemPrompt("page about jazz", "title: use the artist name", descriptors)

	for _, want := range []string{
		"Do NOT add or remove any keys",
		"GLOBAL PAGE CONTEXT:\npage about jazz",
		"FIELD-SPECIFIC CONTEXT:\ntitle: use the artist name",
		"websearch.web_search: Search the web",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestBuildSystemPromptOmitsEmptyLayers(t *testing.T) {
	got := buildSystemPrompt("", "", nil)
	if strings.Contains(got, "GLOBAL PAGE CONTEXT") {
		t.Error("empty page context should be omitted")
	}
	if strings.Contains(got, "FIELD-SPECIFIC CONTEXT") {
		t.Error("empty field context should be omitted")
	}
	if strings.Contains(got, "AVAILABLE TOOLS") {
		t.Error("empty tool list should be omitted")
	}
}

func TestBuildUserPromptRendersTemplate(t *testing.T) {
	got, err := buildUserPrompt(map[string]any{"title": "TBD"})
	if err != nil {
		t.Fatalf("buildUserPrompt failed: %v", err)
	}
	if !strings.Contains(got, `"title": "TBD"`) {
		t.Errorf("user prompt missing template: %s", got)
	}
	if !strings.Contains(got, "Return ONLY the filled JSON") {
		t.Error("user prompt missing output instruction")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"leading prose", `Here you go: {"a":1} done`, `{"a":1}`},
		{"nested", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}"}`, `{"a":"}"}`},
		{"escaped quote", `{"a":"\"}"}`, `{"a":"\"}"}`},
		{"no object", `nothing here`, ""},
		{"unbalanced", `{"a":1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSONObject(tt.in)
			if got != tt.want {
				t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got != "" {
				var v any
				if err := json.Unmarshal([]byte(got), &v); err != nil {
					t.Errorf("extracted text is not valid JSON: %v", err)
				}
			}
		})
	}
}
