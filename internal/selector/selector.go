// Package selector chooses the best UI template for a request using
// weighted scoring over declared matching metadata.
package selector

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"dashweave/internal/logging"
)

// Matching is the per-template metadata scores are computed from.
type Matching struct {
	Keywords        []string `yaml:"keywords"`
	Domains         []string `yaml:"domains"`
	FallbackDomains []string `yaml:"fallback_domains"`
	URLPatterns     []string `yaml:"url_patterns"`
	MinTabCount     int      `yaml:"min_tab_count"`
	Priority        int      `yaml:"priority"`
}

// Template is one selectable template bundle entry.
type Template struct {
	ID       string   `yaml:"-"`
	Name     string   `yaml:"name"`
	Document string   `yaml:"document"`
	Matching Matching `yaml:"matching"`
}

// Weights distributes the total score across the four match signals.
// They are configuration and should sum to 1.0.
type Weights struct {
	KeywordMatch    float64 `yaml:"keyword_match"`
	DomainMatch     float64 `yaml:"domain_match"`
	URLPatternMatch float64 `yaml:"url_pattern_match"`
	TabCountMatch   float64 `yaml:"tab_count_match"`
}

// DefaultWeights mirrors the standard selection tuning.
func DefaultWeights() Weights {
	return Weights{
		KeywordMatch:    0.4,
		DomainMatch:     0.3,
		URLPatternMatch: 0.2,
		TabCountMatch:   0.1,
	}
}

// Options configures a Selector.
type Options struct {
	Weights           Weights
	MinScoreThreshold float64
	DefaultTemplateID string
}

// Query carries the per-request signals scoring runs on.
type Query struct {
	Domain     string
	Keywords   []string
	UserPrompt string
	TabCount   int
	TabURLs    []string
}

// ScoreResult is the outcome of scoring one template.
type ScoreResult struct {
	TemplateID   string
	Score        float64
	MatchedHints []string
}

// Selector scores templates and picks the best one.
type Selector struct {
	opts Options
}

// New creates a Selector. Zero weights fall back to the defaults.
func New(opts Options) *Selector {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	return &Selector{opts: opts}
}

// Score computes the weighted score of one template for a query.
func (s *Selector) Score(tpl Template, q Query) ScoreResult {
	var hints []string

	// Keyword overlap, normalized by the template's declared set.
	keywordScore := 0.0
	if len(tpl.Matching.Keywords) > 0 {
		declared := make(map[string]struct{}, len(tpl.Matching.Keywords))
		for _, kw := range tpl.Matching.Keywords {
			declared[strings.ToLower(kw)] = struct{}{}
		}
		matches := 0
		for _, kw := range q.Keywords {
			if _, ok := declared[strings.ToLower(kw)]; ok {
				matches++
				hints = append(hints, "keyword:"+strings.ToLower(kw))
			}
		}
		keywordScore = float64(matches) / float64(len(tpl.Matching.Keywords))
		if keywordScore > 1.0 {
			keywordScore = 1.0
		}
	}

	domainScore := 0.0
	switch {
	case containsFold(tpl.Matching.Domains, q.Domain):
		domainScore = 1.0
		hints = append(hints, "domain:"+q.Domain)
	case containsFold(tpl.Matching.FallbackDomains, q.Domain):
		domainScore = 0.5
		hints = append(hints, "fallback-domain:"+q.Domain)
	}

	// Fraction of tab URLs hitting any declared wildcard pattern.
	urlScore := 0.0
	if len(tpl.Matching.URLPatterns) > 0 && len(q.TabURLs) > 0 {
		matched := 0
		for _, tabURL := range q.TabURLs {
			for _, pattern := range tpl.Matching.URLPatterns {
				if matchURLPattern(pattern, tabURL) {
					matched++
					hints = append(hints, "url:"+pattern)
					break
				}
			}
		}
		urlScore = float64(matched) / float64(len(q.TabURLs))
		if urlScore > 1.0 {
			urlScore = 1.0
		}
	}

	tabCountScore := 0.5
	if q.TabCount >= tpl.Matching.MinTabCount {
		tabCountScore = 1.0
		hints = append(hints, "tab-count")
	}

	w := s.opts.Weights
	total := keywordScore*w.KeywordMatch +
		domainScore*w.DomainMatch +
		urlScore*w.URLPatternMatch +
		tabCountScore*w.TabCountMatch

	total *= float64(priorityOf(tpl)) / 10.0

	return ScoreResult{TemplateID: tpl.ID, Score: total, MatchedHints: hints}
}

// SelectBest scores all templates and returns the winner. Templates
// are visited in sorted-ID order so ties resolve deterministically.
// When the best score falls below the configured threshold the default
// template id is returned instead.
func (s *Selector) SelectBest(templates []Template, q Query) ScoreResult {
	byID := make(map[string]ScoreResult, len(templates))
	ids := make([]string, 0, len(templates))
	for _, tpl := range templates {
		byID[tpl.ID] = s.Score(tpl, q)
		ids = append(ids, tpl.ID)
	}
	sort.Strings(ids)

	var best ScoreResult
	found := false
	for _, id := range ids {
		r := byID[id]
		if !found || r.Score > best.Score {
			best = r
			found = true
		}
	}

	if !found || best.Score < s.opts.MinScoreThreshold {
		logging.Selector("Best score %.2f below threshold %.2f, using default %s",
			best.Score, s.opts.MinScoreThreshold, s.opts.DefaultTemplateID)
		fallback := ScoreResult{TemplateID: s.opts.DefaultTemplateID}
		if r, ok := byID[s.opts.DefaultTemplateID]; ok {
			fallback.Score = r.Score
		}
		return fallback
	}

	logging.Selector("Selected template %s (score %.2f, %d hints)",
		best.TemplateID, best.Score, len(best.MatchedHints))
	return best
}

func priorityOf(tpl Template) int {
	p := tpl.Matching.Priority
	if p <= 0 {
		return 5
	}
	if p > 10 {
		return 10
	}
	return p
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// matchURLPattern does case-insensitive wildcard matching where "*"
// spans any run of characters and the pattern may hit anywhere in the
// URL.
func matchURLPattern(pattern, u string) bool {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile("(?i)" + strings.Join(parts, ".*"))
	if err != nil {
		logging.SelectorDebug("Bad URL pattern %q: %v", pattern, err)
		return false
	}
	return re.MatchString(u)
}

// String renders a score result for logs.
func (r ScoreResult) String() string {
	return fmt.Sprintf("%s (%.2f)", r.TemplateID, r.Score)
}
