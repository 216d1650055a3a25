package tools

import "errors"

// Tool registry errors.
var (
	// ErrToolNotFound is returned when a tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolNameEmpty is returned when a tool has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolExecuteNil is returned when a tool has no execute function.
	ErrToolExecuteNil = errors.New("tool execute function cannot be nil")

	// ErrToolAlreadyRegistered is returned when registering a duplicate.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrToolNotAllowed is returned when a tool is not whitelisted.
	ErrToolNotAllowed = errors.New("tool not in whitelist")

	// ErrBadArguments is returned when tool arguments are not a JSON object.
	ErrBadArguments = errors.New("tool arguments must be a JSON object")
)
