package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"dashweave/internal/logging"
)

// Registry holds all registered tools. It is populated once at startup
// and read-only afterward; the RWMutex only guards against misuse.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name already exists.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = tool

	logging.ToolsDebug("Registered tool: %s", tool.Name)
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static tool registration at startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by qualified name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Allowed returns descriptors for every registered tool the whitelist
// admits, sorted by name so prompt construction is deterministic.
// This is the single authorization checkpoint before a tool reaches
// the LLM.
func (r *Registry) Allowed(wl *Whitelist) []Descriptor {
	var out []Descriptor
	for _, name := range r.Names() {
		if wl != nil && !wl.IsAllowed(name) {
			continue
		}
		tool := r.Get(name)
		desc := tool.Description
		if wl != nil {
			if d := wl.Description(name); d != "" {
				desc = d
			}
		}
		out = append(out, Descriptor{Name: name, Description: desc})
	}
	return out
}

// invokeResult is the wire envelope every tool invocation returns.
type invokeResult struct {
	Status  string `json:"status"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// Invoke runs a tool by qualified name with arguments given as a JSON
// object string, and returns a JSON envelope string. It never lets an
// error cross the boundary as anything but a tagged envelope:
//
//	{"status":"success","result":...}
//	{"status":"error","message":"..."}
func (r *Registry) Invoke(ctx context.Context, name string, jsonArgs string) string {
	tool := r.Get(name)
	if tool == nil {
		return errorEnvelope(fmt.Errorf("%w: %s", ErrToolNotFound, name))
	}

	args := map[string]any{}
	if jsonArgs != "" {
		var parsed any
		if err := json.Unmarshal([]byte(jsonArgs), &parsed); err != nil {
			return errorEnvelope(fmt.Errorf("%w: %v", ErrBadArguments, err))
		}
		obj, ok := parsed.(map[string]any)
		if !ok {
			return errorEnvelope(fmt.Errorf("%w: got %T", ErrBadArguments, parsed))
		}
		args = obj
	}

	start := time.Now()
	logging.ToolsDebug("Invoking tool: %s", name)

	result, err := func() (result any, err error) {
		// A collaborator panic must not escape the invoke boundary.
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("tool panicked: %v", rec)
			}
		}()
		return tool.Execute(ctx, args)
	}()

	logging.ToolsDebug("Tool %s completed in %v (success=%v)", name, time.Since(start), err == nil)

	if err != nil {
		return errorEnvelope(err)
	}
	data, err := json.Marshal(invokeResult{Status: "success", Result: result})
	if err != nil {
		return errorEnvelope(fmt.Errorf("tool result not serializable: %w", err))
	}
	return string(data)
}

func errorEnvelope(err error) string {
	data, marshalErr := json.Marshal(invokeResult{Status: "error", Message: err.Error()})
	if marshalErr != nil {
		return `{"status":"error","message":"internal error"}`
	}
	return string(data)
}
