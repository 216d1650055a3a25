// Package schema derives structural shapes from JSON template documents
// and validates instances against them.
//
// A template is self-describing: its shape is derived by inspection, so
// there is no separate schema-authoring step. Shapes ignore leaf content
// and capture only structure and types.
package schema

import (
	"fmt"
	"sort"
)

// Kind classifies a node in a shape tree.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
)

// MaxDepth caps shape derivation. Nodes beyond this depth collapse to a
// generic object shape, which guards against pathological inputs.
const MaxDepth = 10

// Shape is a structural descriptor of a JSON value.
//
// Objects carry an exact key set with per-key shapes. Arrays carry the
// shape of their first element; Items is nil for an empty (unshaped)
// array. A KindObject shape with nil Props is the generic object used
// past MaxDepth and accepts any object.
type Shape struct {
	Kind  Kind
	Props map[string]*Shape
	Items *Shape
}

// Derive builds a Shape from a decoded JSON value.
func Derive(v any) *Shape {
	return derive(v, 0)
}

func derive(v any, depth int) *Shape {
	if depth > MaxDepth {
		return &Shape{Kind: KindObject}
	}

	switch node := v.(type) {
	case map[string]any:
		props := make(map[string]*Shape, len(node))
		for key, value := range node {
			props[key] = derive(value, depth+1)
		}
		return &Shape{Kind: KindObject, Props: props}
	case []any:
		if len(node) > 0 {
			return &Shape{Kind: KindArray, Items: derive(node[0], depth+1)}
		}
		return &Shape{Kind: KindArray}
	case string:
		return &Shape{Kind: KindString}
	case bool:
		return &Shape{Kind: KindBoolean}
	case float64:
		return &Shape{Kind: KindNumber}
	case int:
		return &Shape{Kind: KindNumber}
	case int64:
		return &Shape{Kind: KindNumber}
	case nil:
		return &Shape{Kind: KindNull}
	default:
		return &Shape{Kind: KindObject}
	}
}

// Validate checks an instance against a shape and returns all violations
// found. It never fails fast and never panics; an empty slice means the
// instance conforms.
func Validate(instance any, shape *Shape) []string {
	return validate(instance, shape, "root")
}

func validate(instance any, shape *Shape, path string) []string {
	if shape == nil {
		return nil
	}

	var violations []string

	switch shape.Kind {
	case KindObject:
		obj, ok := instance.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %s", path, typeName(instance))}
		}
		if shape.Props == nil {
			// Generic object past the depth cap: any keys accepted.
			return nil
		}

		// Closed-shape policy: keys outside the template are violations.
		var extra []string
		for key := range obj {
			if _, allowed := shape.Props[key]; !allowed {
				extra = append(extra, key)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			violations = append(violations, fmt.Sprintf("%s: unexpected keys %v", path, extra))
		}

		keys := make([]string, 0, len(shape.Props))
		for key := range shape.Props {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if value, present := obj[key]; present {
				violations = append(violations, validate(value, shape.Props[key], path+"."+key)...)
			}
		}

	case KindArray:
		arr, ok := instance.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %s", path, typeName(instance))}
		}
		if shape.Items != nil {
			for i, item := range arr {
				violations = append(violations, validate(item, shape.Items, fmt.Sprintf("%s[%d]", path, i))...)
			}
		}

	case KindString:
		if _, ok := instance.(string); !ok {
			violations = append(violations, fmt.Sprintf("%s: expected string, got %s", path, typeName(instance)))
		}

	case KindNumber:
		if !isNumber(instance) {
			violations = append(violations, fmt.Sprintf("%s: expected number, got %s", path, typeName(instance)))
		}

	case KindBoolean:
		if _, ok := instance.(bool); !ok {
			violations = append(violations, fmt.Sprintf("%s: expected boolean, got %s", path, typeName(instance)))
		}

	case KindNull:
		// A null template slot is untyped and may be filled with any
		// value, so nothing to check.
	}

	return violations
}

// Equal reports whether two shapes describe the same structure.
func Equal(a, b *Shape) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if (a.Items == nil) != (b.Items == nil) {
		return false
	}
	if a.Items != nil && !Equal(a.Items, b.Items) {
		return false
	}
	if len(a.Props) != len(b.Props) {
		return false
	}
	for key, as := range a.Props {
		bs, ok := b.Props[key]
		if !ok || !Equal(as, bs) {
			return false
		}
	}
	return true
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		return true
	default:
		return false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
