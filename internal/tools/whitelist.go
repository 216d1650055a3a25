package tools

import (
	"encoding/json"
	"fmt"
	"os"

	"dashweave/internal/logging"
)

// DefaultWhitelist is the built-in allow list of tools the filling
// agent may call. Keys are qualified tool names, values are the
// descriptions exposed to the model.
var DefaultWhitelist = map[string]string{
	"websearch.web_search": "Search the web for information",
}

// Whitelist is the set of tool names the agent is permitted to invoke.
// Anything not listed here is invisible to the model even when it is
// registered.
type Whitelist struct {
	entries map[string]string
}

// NewWhitelist returns a whitelist seeded with the built-in defaults.
func NewWhitelist() *Whitelist {
	entries := make(map[string]string, len(DefaultWhitelist))
	for name, desc := range DefaultWhitelist {
		entries[name] = desc
	}
	return &Whitelist{entries: entries}
}

// LoadWhitelist reads a flat JSON object of name -> description pairs
// from path and merges it over the defaults. A missing file is not an
// error; the defaults stand alone.
func LoadWhitelist(path string) (*Whitelist, error) {
	wl := NewWhitelist()
	if path == "" {
		return wl, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.ToolsDebug("Whitelist file %s not found, using defaults", path)
		return wl, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading whitelist %s: %w", path, err)
	}

	var extra map[string]string
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parsing whitelist %s: %w", path, err)
	}
	for name, desc := range extra {
		wl.entries[name] = desc
	}

	logging.Tools("Loaded whitelist from %s (%d entries)", path, len(wl.entries))
	return wl, nil
}

// IsAllowed reports whether the named tool may be invoked.
func (w *Whitelist) IsAllowed(name string) bool {
	_, ok := w.entries[name]
	return ok
}

// Description returns the whitelisted description for a tool, or ""
// if the tool is not allowed.
func (w *Whitelist) Description(name string) string {
	return w.entries[name]
}

// Len returns the number of whitelisted tools.
func (w *Whitelist) Len() int {
	return len(w.entries)
}
