package dossier

import (
	"context"
	"encoding/json"
	"time"
)

// Tool is the contract for an LLM-callable instrument. It is provider-agnostic
// (no knowledge of OpenAI, Anthropic, etc.). Execute receives the shared
// Context explicitly; tools must not keep state of their own.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a valid JSON Schema as map (compatible with LLM tool definitions).
	Parameters() map[string]any
	// Execute runs the tool against the shared Context and returns the result
	// as JSON. A ClientError return is fed back to the model; any other error
	// is treated as internal.
	Execute(ctx context.Context, argsJSON []byte, cx *Context) ([]byte, error)
}

// ToolMetadata is implemented by tools created with NewTool and provides
// optional per-tool settings. Registry uses Timeout() to override the default
// execution timeout when set.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	Version() string
}

// ToolCall is a single execution request as produced by the LLM. It lives for
// one loop iteration only.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage // JSON payload of arguments
}

// ToolResult is the outcome of one ToolCall. Exactly one of Result and Error
// is meaningful. Registry sets CallID and ToolName when dispatching.
type ToolResult struct {
	CallID   string
	ToolName string
	Result   json.RawMessage
	Error    error
	Duration time.Duration
}
