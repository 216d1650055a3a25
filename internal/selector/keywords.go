package selector

import "strings"

const maxKeywords = 20

var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "also": {},
	"because": {}, "been": {}, "before": {}, "being": {},
	"could": {}, "does": {}, "doing": {}, "down": {},
	"from": {}, "have": {}, "having": {}, "here": {},
	"into": {}, "just": {}, "like": {}, "make": {},
	"more": {}, "most": {}, "need": {}, "only": {},
	"over": {}, "page": {}, "please": {}, "show": {},
	"some": {}, "something": {}, "than": {}, "that": {},
	"their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "want": {},
	"what": {}, "when": {}, "where": {}, "which": {},
	"will": {}, "with": {}, "would": {}, "your": {},
}

// ExtractKeywords pulls scoring keywords out of the user prompt and
// tab titles. Words are lowercased, short words and stop words are
// dropped, duplicates removed, and the result capped at 20 entries in
// first-seen order.
func ExtractKeywords(userPrompt string, tabTitles []string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(text string) {
		for _, word := range strings.Fields(text) {
			word = strings.ToLower(strings.Trim(word, ".,!?;:\"'()[]{}"))
			if len(word) <= 3 {
				continue
			}
			if _, stop := stopWords[word]; stop {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			if len(out) >= maxKeywords {
				return
			}
			seen[word] = struct{}{}
			out = append(out, word)
		}
	}

	add(userPrompt)
	for _, title := range tabTitles {
		add(title)
	}
	return out
}
