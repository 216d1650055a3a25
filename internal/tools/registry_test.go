package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func echoTool() *Tool {
	return &Tool{
		Name:        "test.echo",
		Description: "Echo arguments back",
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return args, nil
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !r.Has("test.echo") {
		t.Error("expected tool to be registered")
	}
	if r.Get("test.echo") == nil {
		t.Error("Get returned nil for registered tool")
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool()); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	err := r.Register(echoTool())
	if !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Errorf("expected ErrToolAlreadyRegistered, got %v", err)
	}
}

func TestRegisterInvalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Tool{Name: "", Execute: nil}); err == nil {
		t.Error("expected error for empty tool name")
	}
	if err := r.Register(&Tool{Name: "x", Execute: nil}); err == nil {
		t.Error("expected error for nil Execute")
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c.third", "a.first", "b.second"} {
		n := name
		r.MustRegister(&Tool{
			Name:        n,
			Description: "d",
			Execute: func(ctx context.Context, args map[string]any) (any, error) {
				return nil, nil
			},
		})
	}
	names := r.Names()
	want := []string{"a.first", "b.second", "c.third"}
	if len(names) != len(want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func decodeEnvelope(t *testing.T, raw string) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("envelope is not valid JSON: %v\n%s", err, raw)
	}
	return env
}

func TestInvokeSuccess(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool())

	env := decodeEnvelope(t, r.Invoke(context.Background(), "test.echo", `{"q":"hello"}`))
	if env["status"] != "success" {
		t.Fatalf("status = %v, want success", env["status"])
	}
	result, ok := env["result"].(map[string]any)
	if !ok || result["q"] != "hello" {
		t.Errorf("result = %v, want echo of args", env["result"])
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	r := NewRegistry()
	env := decodeEnvelope(t, r.Invoke(context.Background(), "nope.missing", "{}"))
	if env["status"] != "error" {
		t.Fatalf("status = %v, want error", env["status"])
	}
	if msg, _ := env["message"].(string); !strings.Contains(msg, "nope.missing") {
		t.Errorf("message %q should name the missing tool", msg)
	}
}

func TestInvokeBadArguments(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool())

	for _, args := range []string{`not json`, `[1,2,3]`, `"a string"`} {
		env := decodeEnvelope(t, r.Invoke(context.Background(), "test.echo", args))
		if env["status"] != "error" {
			t.Errorf("args %q: status = %v, want error", args, env["status"])
		}
	}
}

func TestInvokeEmptyArgs(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool())

	env := decodeEnvelope(t, r.Invoke(context.Background(), "test.echo", ""))
	if env["status"] != "success" {
		t.Errorf("empty args should invoke with empty map, got %v", env)
	}
}

func TestInvokeToolError(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:        "test.fail",
		Description: "always fails",
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("backend unavailable")
		},
	})

	env := decodeEnvelope(t, r.Invoke(context.Background(), "test.fail", "{}"))
	if env["status"] != "error" {
		t.Fatalf("status = %v, want error", env["status"])
	}
	if msg, _ := env["message"].(string); !strings.Contains(msg, "backend unavailable") {
		t.Errorf("message %q should carry the tool error", msg)
	}
}

func TestInvokeToolPanic(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:        "test.panic",
		Description: "panics",
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			panic("boom")
		},
	})

	env := decodeEnvelope(t, r.Invoke(context.Background(), "test.panic", "{}"))
	if env["status"] != "error" {
		t.Fatalf("panic must surface as error envelope, got %v", env)
	}
	if msg, _ := env["message"].(string); !strings.Contains(msg, "boom") {
		t.Errorf("message %q should mention the panic value", msg)
	}
}

func TestAllowedFiltersByWhitelist(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:        "websearch.web_search",
		Description: "registry description",
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, nil
		},
	})
	r.MustRegister(echoTool())

	wl := NewWhitelist()
	descs := r.Allowed(wl)
	if len(descs) != 1 {
		t.Fatalf("Allowed returned %d descriptors, want 1", len(descs))
	}
	if descs[0].Name != "websearch.web_search" {
		t.Errorf("Allowed[0].Name = %s", descs[0].Name)
	}
	// Whitelist description wins over the tool's own.
	if descs[0].Description != DefaultWhitelist["websearch.web_search"] {
		t.Errorf("Allowed[0].Description = %q", descs[0].Description)
	}
}
