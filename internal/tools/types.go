// Package tools provides the registry of external collaborator tools
// exposed to the filling LLM, and the whitelist gate in front of them.
//
// Tools are registered explicitly at startup by collaborator packages
// (see websearch.Register); there is no runtime introspection, so the
// available tool set is checkable at compile time.
//
// Architecture:
//
//	collaborator Register() → Registry → Whitelist filter → LLM prompt
//	LLM tool call → Registry.Invoke() → JSON result envelope
package tools

import (
	"context"
)

// ExecuteFunc is the signature for tool execution. The args map comes
// from a parsed JSON object; the result must be JSON-serializable.
type ExecuteFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool is a callable wrapper around one collaborator method.
// Identity is the qualified Name, "collaborator.method".
type Tool struct {
	// Name is the unique qualified identifier, e.g. "websearch.web_search".
	Name string

	// Description explains what the tool does. Exposed to the LLM and
	// used as the default whitelist-file documentation string.
	Description string

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Descriptor is the prompt-facing view of a tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
