// Package llm defines the model client used by the content filling
// engine, plus the Gemini implementation.
package llm

import (
	"context"
	"errors"
)

// Sentinel errors for model calls.
var (
	ErrEmptyResponse = errors.New("model returned empty response")
	ErrNoAPIKey      = errors.New("model API key is required")
)

// Client is the minimal surface the filling engine needs from a model.
type Client interface {
	// CompleteWithSystem sends a system prompt and a user prompt and
	// returns the raw model text.
	CompleteWithSystem(ctx context.Context, system, user string) (string, error)
}
