package filling

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"dashweave/internal/logging"
	"dashweave/internal/merge"
)

// Searcher is the search collaborator the fallback filler consumes.
// *websearch.Client satisfies it.
type Searcher interface {
	WebSearch(ctx context.Context, query string, count int) (map[string]any, error)
}

// The fallback path treats a couple of extra sentinels as fillable on
// top of the shared placeholder set.
var fallbackExtras = map[string]struct{}{
	"untitled": {},
	"none":     {},
}

// contentKeys are checked first, in order, when mining search results
// for a usable value.
var contentKeys = []string{"title", "name", "heading", "description", "body"}

// DeterministicFiller fills placeholder slots with values mined from
// web search results. It never invents content: with no searcher or no
// usable result, slots are left as they were.
type DeterministicFiller struct {
	searcher Searcher
	merger   *merge.Merger

	mu    sync.Mutex
	cache map[string]string
	group singleflight.Group
}

// NewDeterministicFiller creates a filler. searcher may be nil, in
// which case Fill is a structural no-op.
func NewDeterministicFiller(searcher Searcher, merger *merge.Merger) *DeterministicFiller {
	if merger == nil {
		merger = merge.New(nil)
	}
	return &DeterministicFiller{
		searcher: searcher,
		merger:   merger,
		cache:    make(map[string]string),
	}
}

// Fill walks the template and replaces placeholder strings and null
// leaves with values found for pageContext. The returned document has
// the same structure as the input.
func (f *DeterministicFiller) Fill(ctx context.Context, template any, pageContext string) any {
	return f.fill(ctx, template, pageContext, "")
}

func (f *DeterministicFiller) fill(ctx context.Context, node any, pageContext, fieldName string) any {
	switch v := node.(type) {
	case string:
		if f.isFillable(v) {
			if found := f.findValue(ctx, fieldName, pageContext); found != "" {
				return found
			}
		}
		return v

	case nil:
		if pageContext != "" {
			if found := f.findValue(ctx, fieldName, pageContext); found != "" {
				return found
			}
		}
		return nil

	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = f.fill(ctx, value, pageContext, key)
		}
		return out

	case []any:
		if len(v) == 0 {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = f.fill(ctx, item, pageContext, fieldName)
		}
		return out

	default:
		return v
	}
}

func (f *DeterministicFiller) isFillable(s string) bool {
	if f.merger.IsPlaceholderString(s) {
		return true
	}
	_, ok := fallbackExtras[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// findValue resolves a value for a field from web search, memoizing
// per field/context pair. Concurrent lookups for the same pair share
// one search call.
func (f *DeterministicFiller) findValue(ctx context.Context, fieldName, pageContext string) string {
	if f.searcher == nil || pageContext == "" {
		return ""
	}

	sum := md5.Sum([]byte(fieldName + ":" + pageContext))
	key := hex.EncodeToString(sum[:])

	f.mu.Lock()
	if cached, ok := f.cache[key]; ok {
		f.mu.Unlock()
		return cached
	}
	f.mu.Unlock()

	value, _, _ := f.group.Do(key, func() (any, error) {
		results, err := f.searcher.WebSearch(ctx, pageContext, 10)
		if err != nil {
			logging.FillingDebug("Search failed for field %q: %v", fieldName, err)
			return "", nil
		}
		return extractBestMatch(results), nil
	})

	found, _ := value.(string)
	f.mu.Lock()
	f.cache[key] = found
	f.mu.Unlock()
	return found
}

// extractBestMatch walks a search result structure and returns the
// first usable content string.
func extractBestMatch(results any) string {
	switch v := results.(type) {
	case []any:
		for _, element := range v {
			if found := extractBestMatch(element); found != "" {
				return found
			}
		}
	case map[string]any:
		for _, key := range contentKeys {
			if s, ok := v[key].(string); ok && len(s) > 2 {
				return s
			}
		}
		// Walk nested values in a stable order.
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if found := extractBestMatch(v[key]); found != "" {
				return found
			}
		}
	}
	return ""
}
