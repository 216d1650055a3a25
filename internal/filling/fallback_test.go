package filling

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dashweave/internal/merge"
)

// fakeSearcher returns a canned search response and counts calls.
type fakeSearcher struct {
	calls   atomic.Int64
	results map[string]any
	err     error
}

func (f *fakeSearcher) WebSearch(ctx context.Context, query string, count int) (map[string]any, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func searchResponse(title string) map[string]any {
	return map[string]any{
		"web": map[string]any{
			"results": []any{
				map[string]any{"title": title, "url": "https://example.com"},
			},
		},
	}
}

func TestFillerReplacesPlaceholders(t *testing.T) {
	s := &fakeSearcher{results: searchResponse("Miles Davis")}
	f := NewDeterministicFiller(s, merge.New(nil))

	template := map[string]any{"title": "TBD", "footer": "Keep me"}
	got := f.Fill(context.Background(), template, "jazz trumpet legends")

	want := map[string]any{"title": "Miles Davis", "footer": "Keep me"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fill (-want +got):\n%s", diff)
	}
}

func TestFillerMemoizesSearches(t *testing.T) {
	s := &fakeSearcher{results: searchResponse("Answer")}
	f := NewDeterministicFiller(s, merge.New(nil))

	template := map[string]any{"a": "TBD", "b": "TBD", "c": "TBD"}
	f.Fill(context.Background(), template, "same context")

	// All three slots share the field/context pair key per field name,
	// so at most one search per distinct field.
	if n := s.calls.Load(); n > 3 {
		t.Errorf("searches = %d, want at most one per field", n)
	}

	s.calls.Store(0)
	f.Fill(context.Background(), template, "same context")
	if n := s.calls.Load(); n != 0 {
		t.Errorf("second fill ran %d searches, want 0 (cached)", n)
	}
}

func TestFillerNoSearcherIsNoOp(t *testing.T) {
	f := NewDeterministicFiller(nil, merge.New(nil))
	template := map[string]any{"title": "TBD", "note": nil}
	got := f.Fill(context.Background(), template, "some context")

	if diff := cmp.Diff(template, got); diff != "" {
		t.Errorf("no searcher should leave template unchanged:\n%s", diff)
	}
}

func TestFillerSearchErrorLeavesValues(t *testing.T) {
	s := &fakeSearcher{err: errors.New("rate limited")}
	f := NewDeterministicFiller(s, merge.New(nil))

	got := f.Fill(context.Background(), map[string]any{"title": "TBD"}, "ctx")
	if got.(map[string]any)["title"] != "TBD" {
		t.Error("search failure must not invent a value")
	}
}

func TestFillerFillsNullWithContext(t *testing.T) {
	s := &fakeSearcher{results: searchResponse("Found")}
	f := NewDeterministicFiller(s, merge.New(nil))

	got := f.Fill(context.Background(), map[string]any{"subtitle": nil}, "ctx")
	if got.(map[string]any)["subtitle"] != "Found" {
		t.Errorf("null slot should be filled, got %v", got)
	}

	// Without context the null stays.
	got = f.Fill(context.Background(), map[string]any{"subtitle": nil}, "")
	if got.(map[string]any)["subtitle"] != nil {
		t.Error("null slot must stay null without context")
	}
}

func TestFillerExtraSentinels(t *testing.T) {
	s := &fakeSearcher{results: searchResponse("Real Title")}
	f := NewDeterministicFiller(s, merge.New(nil))

	template := map[string]any{"a": "Untitled", "b": "none"}
	got := f.Fill(context.Background(), template, "ctx").(map[string]any)
	if got["a"] != "Real Title" || got["b"] != "Real Title" {
		t.Errorf("untitled/none should be fillable, got %v", got)
	}
}

func TestFillerPreservesStructure(t *testing.T) {
	s := &fakeSearcher{results: searchResponse("V")}
	f := NewDeterministicFiller(s, merge.New(nil))

	template := map[string]any{
		"items": []any{
			map[string]any{"name": "", "count": float64(3)},
			map[string]any{"name": "set", "count": float64(4)},
		},
		"empty": []any{},
	}
	got := f.Fill(context.Background(), template, "ctx").(map[string]any)

	items := got["items"].([]any)
	if items[0].(map[string]any)["name"] != "V" {
		t.Error("empty name in array element should be filled")
	}
	if items[1].(map[string]any)["name"] != "set" {
		t.Error("filled name must be untouched")
	}
	if items[0].(map[string]any)["count"] != float64(3) {
		t.Error("numbers must pass through unchanged")
	}
	if len(got["empty"].([]any)) != 0 {
		t.Error("empty array must stay empty")
	}
}

func TestExtractBestMatch(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"direct title", map[string]any{"title": "Hit"}, "Hit"},
		{"prefers content keys", map[string]any{"zzz": "other", "name": "Named"}, "Named"},
		{"skips short strings", map[string]any{"title": "ab", "name": "Long Enough"}, "Long Enough"},
		{"nested", map[string]any{"data": map[string]any{"results": []any{map[string]any{"heading": "Deep"}}}}, "Deep"},
		{"nothing", map[string]any{"count": float64(2)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractBestMatch(tt.in); got != tt.want {
				t.Errorf("extractBestMatch = %q, want %q", got, tt.want)
			}
		})
	}
}
