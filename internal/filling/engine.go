// Package filling implements the content filling pipeline: an LLM
// completion pass merged back into the template under structure
// preservation, with a deterministic search-driven fallback.
package filling

import (
	"context"
	"encoding/json"
	"fmt"

	"dashweave/internal/llm"
	"dashweave/internal/logging"
	"dashweave/internal/merge"
	"dashweave/internal/tools"
)

// Engine fills JSON templates with real content.
type Engine struct {
	client    llm.Client
	fallback  *DeterministicFiller
	merger    *merge.Merger
	registry  *tools.Registry
	whitelist *tools.Whitelist
}

// EngineConfig wires an Engine's collaborators. Client may be nil, in
// which case only the fallback path runs. Merger defaults to the
// standard sentinel set.
type EngineConfig struct {
	Client    llm.Client
	Searcher  Searcher
	Merger    *merge.Merger
	Registry  *tools.Registry
	Whitelist *tools.Whitelist
}

// NewEngine creates a content filling engine.
func NewEngine(cfg EngineConfig) *Engine {
	merger := cfg.Merger
	if merger == nil {
		merger = merge.New(nil)
	}
	return &Engine{
		client:    cfg.Client,
		fallback:  NewDeterministicFiller(cfg.Searcher, merger),
		merger:    merger,
		registry:  cfg.Registry,
		whitelist: cfg.Whitelist,
	}
}

// FillTemplate fills a JSON template string and returns the result as
// pretty-printed JSON with the same structure as the input. Content
// that does not parse as JSON is returned unchanged. The page context
// describes the whole document; the field context carries per-field
// instructions.
func (e *Engine) FillTemplate(ctx context.Context, content, pageContext, fieldContext string) string {
	var template any
	if err := json.Unmarshal([]byte(content), &template); err != nil {
		logging.FillingWarn("Template is not valid JSON, returning unchanged: %v", err)
		return content
	}

	pageCtx := Sanitize(pageContext)
	fieldCtx := Sanitize(fieldContext)

	if e.client != nil {
		filled, err := e.fillWithModel(ctx, template, pageCtx, fieldCtx)
		if err == nil {
			merged := e.merger.Merge(template, filled)
			if out, err := renderJSON(merged); err == nil {
				logging.Filling("Template filled via model")
				return out
			}
		} else {
			logging.FillingWarn("Model filling failed, falling back: %v", err)
		}
	}

	merged := e.fallback.Fill(ctx, template, pageCtx)
	out, err := renderJSON(merged)
	if err != nil {
		return content
	}
	logging.Filling("Template filled via deterministic fallback")
	return out
}

// fillWithModel runs one completion and parses the candidate document
// out of the response.
func (e *Engine) fillWithModel(ctx context.Context, template any, pageCtx, fieldCtx string) (any, error) {
	var descriptors []tools.Descriptor
	if e.registry != nil {
		descriptors = e.registry.Allowed(e.whitelist)
	}

	system := buildSystemPrompt(pageCtx, fieldCtx, descriptors)
	user, err := buildUserPrompt(template)
	if err != nil {
		return nil, err
	}

	raw, err := e.client.CompleteWithSystem(ctx, system, user)
	if err != nil {
		return nil, err
	}

	jsonText := ExtractJSONObject(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	var candidate any
	if err := json.Unmarshal([]byte(jsonText), &candidate); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	return candidate, nil
}

func renderJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
