package dossier

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrTimeout      = errors.New("tool execution timeout")
	ErrValidation   = errors.New("validation failed")
	ErrTurnLimit    = errors.New("turn limit exceeded")
	ErrProvider     = errors.New("completion provider failed")
)

// ClientError is an error that should be sent back to the LLM for
// self-correction (invalid JSON, schema validation failure, unknown person
// name). Do not expose stack traces or internal details to the LLM.
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrValidation)).
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (panic, marshal failure, etc.).
// The LLM should not see the underlying error message or stack.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// TurnLimitError is returned by Agent when the model keeps requesting tools
// past the configured turn limit. History holds everything exchanged up to the
// abort, for diagnostics; the Context keeps whatever mutations handlers made.
type TurnLimitError struct {
	Turns   int
	History []Message
}

func (e *TurnLimitError) Error() string {
	return fmt.Sprintf("turn limit exceeded after %d provider calls", e.Turns)
}

func (e *TurnLimitError) Unwrap() error { return ErrTurnLimit }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapJSONParseError returns a ClientError for JSON unmarshal failures.
// Used by Extractor.ParseAndValidate and NewDynamicTool so parse errors are consistent.
func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error()}
}
