// Package merge implements structure-preserving merging of a candidate
// document into a template.
//
// The template is the single source of truth for structure: merging can
// never add keys, remove keys, or change the type of any node. Only
// placeholder leaves are replaceable; every other template value
// survives the merge verbatim. This is the pipeline's core correctness
// property and it holds for any candidate, including adversarial LLM
// output.
package merge

import "strings"

// DefaultSentinels is the default set of string values treated as
// placeholders. A template string whose trimmed, lowercased form is in
// this set is considered "not yet filled". Kept as configuration rather
// than a constant because locale variants may need to extend it.
var DefaultSentinels = []string{"", "tbd", "placeholder", "n/a", "text", "title"}

// Merger merges candidate documents into templates.
type Merger struct {
	sentinels map[string]struct{}
}

// New creates a Merger with the given placeholder sentinel set.
// An empty slice selects DefaultSentinels.
func New(sentinels []string) *Merger {
	if len(sentinels) == 0 {
		sentinels = DefaultSentinels
	}
	set := make(map[string]struct{}, len(sentinels))
	for _, s := range sentinels {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return &Merger{sentinels: set}
}

// IsPlaceholderString reports whether a string value is a placeholder.
func (m *Merger) IsPlaceholderString(s string) bool {
	_, ok := m.sentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// IsPlaceholder reports whether a leaf value counts as unfilled:
// a sentinel string or a JSON null.
func (m *Merger) IsPlaceholder(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return m.IsPlaceholderString(s)
	}
	return false
}

// Merge merges candidate into template, preserving template structure
// exactly. The result validates against the template's derived shape
// for any candidate whatsoever.
func (m *Merger) Merge(template, candidate any) any {
	switch tmpl := template.(type) {
	case map[string]any:
		cand, ok := candidate.(map[string]any)
		if !ok {
			return template
		}
		result := make(map[string]any, len(tmpl))
		for key, tmplValue := range tmpl {
			if candValue, present := cand[key]; present {
				result[key] = m.Merge(tmplValue, candValue)
			} else {
				result[key] = tmplValue
			}
		}
		// Candidate-only keys are dropped: the schema never widens.
		return result

	case []any:
		cand, ok := candidate.([]any)
		if !ok {
			return template
		}
		if len(tmpl) > 0 {
			// First template element is the prototype; every candidate
			// element merges against it (homogeneous-array assumption).
			proto := tmpl[0]
			_, protoIsObject := proto.(map[string]any)
			merged := make([]any, 0, len(cand))
			for _, item := range cand {
				_, itemIsObject := item.(map[string]any)
				switch {
				case protoIsObject && itemIsObject:
					merged = append(merged, m.Merge(proto, item))
				case !protoIsObject && !itemIsObject:
					merged = append(merged, item)
				}
			}
			return merged
		}
		// Empty template array has no prototype: accept only candidate
		// arrays with no object elements.
		for _, item := range cand {
			if _, isObject := item.(map[string]any); isObject {
				return template
			}
		}
		return cand

	case string:
		if m.IsPlaceholderString(tmpl) {
			if candStr, ok := candidate.(string); ok {
				return candStr
			}
		}
		return template

	case nil:
		if candidate != nil {
			return candidate
		}
		return nil

	default:
		// Numbers, booleans: template value wins.
		return template
	}
}

// PlaceholderRatio returns the fraction of scalar leaves in doc that are
// still placeholders, in [0,1]. A document with no scalar leaves has
// ratio 0.
func (m *Merger) PlaceholderRatio(doc any) float64 {
	placeholders, leaves := m.countLeaves(doc)
	if leaves == 0 {
		return 0
	}
	return float64(placeholders) / float64(leaves)
}

func (m *Merger) countLeaves(node any) (placeholders, leaves int) {
	switch n := node.(type) {
	case map[string]any:
		for _, value := range n {
			p, l := m.countLeaves(value)
			placeholders += p
			leaves += l
		}
	case []any:
		for _, item := range n {
			p, l := m.countLeaves(item)
			placeholders += p
			leaves += l
		}
	default:
		leaves = 1
		if m.IsPlaceholder(n) {
			placeholders = 1
		}
	}
	return placeholders, leaves
}
