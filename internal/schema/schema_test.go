package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return v
}

func TestDeriveKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{"object", `{"a":1}`, KindObject},
		{"array", `[1,2]`, KindArray},
		{"string", `"x"`, KindString},
		{"number", `3.5`, KindNumber},
		{"boolean", `true`, KindBoolean},
		{"null", `null`, KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(mustDecode(t, tt.raw))
			if got.Kind != tt.want {
				t.Errorf("Derive(%s).Kind = %s, want %s", tt.raw, got.Kind, tt.want)
			}
		})
	}
}

func TestDeriveObjectProps(t *testing.T) {
	shape := Derive(mustDecode(t, `{"title":"TBD","count":2,"tags":["a"]}`))

	if len(shape.Props) != 3 {
		t.Fatalf("expected 3 props, got %d", len(shape.Props))
	}
	if shape.Props["title"].Kind != KindString {
		t.Errorf("title kind = %s, want string", shape.Props["title"].Kind)
	}
	if shape.Props["count"].Kind != KindNumber {
		t.Errorf("count kind = %s, want number", shape.Props["count"].Kind)
	}
	tags := shape.Props["tags"]
	if tags.Kind != KindArray || tags.Items == nil || tags.Items.Kind != KindString {
		t.Errorf("tags shape wrong: %+v", tags)
	}
}

func TestDeriveEmptyArrayIsUnshaped(t *testing.T) {
	shape := Derive(mustDecode(t, `{"items":[]}`))
	if shape.Props["items"].Items != nil {
		t.Error("empty array should have nil Items")
	}
}

func TestDeriveDepthCap(t *testing.T) {
	// Build a document nested beyond MaxDepth.
	doc := "1"
	for i := 0; i < MaxDepth+3; i++ {
		doc = `{"inner":` + doc + `}`
	}

	shape := Derive(mustDecode(t, doc))
	depth := 0
	for shape.Props != nil {
		next, ok := shape.Props["inner"]
		if !ok {
			break
		}
		shape = next
		depth++
	}
	if depth > MaxDepth+1 {
		t.Errorf("shape depth %d exceeds cap", depth)
	}
	if shape.Kind != KindObject {
		t.Errorf("collapsed shape kind = %s, want object", shape.Kind)
	}
}

func TestValidateConforming(t *testing.T) {
	template := mustDecode(t, `{"title":"TBD","items":[{"name":"x","score":1}]}`)
	instance := mustDecode(t, `{"title":"Daily News","items":[{"name":"a","score":2},{"name":"b","score":3}]}`)

	shape := Derive(template)
	if violations := Validate(instance, shape); len(violations) != 0 {
		t.Errorf("expected no violations, got %v", violations)
	}
}

func TestValidateViolations(t *testing.T) {
	shape := Derive(mustDecode(t, `{"title":"TBD","count":0}`))

	tests := []struct {
		name     string
		instance string
		contains string
	}{
		{"type mismatch", `{"title":5,"count":0}`, "expected string"},
		{"unexpected key", `{"title":"x","count":0,"extra":true}`, "unexpected keys"},
		{"not an object", `[1,2]`, "expected object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := Validate(mustDecode(t, tt.instance), shape)
			if len(violations) == 0 {
				t.Fatal("expected violations, got none")
			}
			found := false
			for _, v := range violations {
				if strings.Contains(v, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Errorf("violations %v missing %q", violations, tt.contains)
			}
		})
	}
}

func TestValidateArrayElements(t *testing.T) {
	shape := Derive(mustDecode(t, `[{"name":"x"}]`))
	violations := Validate(mustDecode(t, `[{"name":"ok"},{"name":42}]`), shape)

	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0], "root[1].name") {
		t.Errorf("violation path wrong: %s", violations[0])
	}
}

func TestValidateMissingKeysAllowed(t *testing.T) {
	// Absent keys are the merger's concern, not the validator's; only
	// unexpected keys violate the closed-shape policy.
	shape := Derive(mustDecode(t, `{"a":1,"b":2}`))
	if violations := Validate(mustDecode(t, `{"a":1}`), shape); len(violations) != 0 {
		t.Errorf("missing key should not violate, got %v", violations)
	}
}

func TestEqual(t *testing.T) {
	a := Derive(mustDecode(t, `{"x":[{"y":"s"}],"z":null}`))
	b := Derive(mustDecode(t, `{"x":[{"y":"other"}],"z":null}`))
	c := Derive(mustDecode(t, `{"x":[{"y":1}],"z":null}`))

	if !Equal(a, b) {
		t.Error("shapes with same structure should be equal")
	}
	if Equal(a, c) {
		t.Error("shapes with different leaf types should differ")
	}
}
