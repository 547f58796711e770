package dossier

import (
	"context"
	"encoding/json"
)

// Message roles. The system prompt travels in Request.System, not as a
// history message, so history stays a pure record of the exchange.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation history. History is append-only
// and ordered: a tool-result message always immediately follows the assistant
// message whose ToolCalls requested it, in request order.
type Message struct {
	Role       string            `json:"role"`
	Content    string            `json:"content,omitempty"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"` // set on RoleTool messages
}

// ToolCallRequest is the provider's instruction to invoke a tool. It exists
// for the duration of one loop iteration.
type ToolCallRequest struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolSchema is the static descriptor of a tool as advertised to the
// provider. It is consumed only by the provider request, never executed.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is one completion request: full history, tool schema list, model
// identifier, and sampling parameters.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolSchema
	Temperature float64
	MaxTokens   int
}

// Response is the provider's answer: either plain text or one or more tool
// call requests (both may be present; tool calls take precedence in the loop).
type Response struct {
	Text         string
	ToolCalls    []ToolCallRequest
	FinishReason string
	TokensUsed   int
}

// Provider is the external completion collaborator. The core depends only on
// this shape, not on any specific provider's wire format.
type Provider interface {
	// Complete performs one synchronous request/response round-trip.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name identifies the provider in logs.
	Name() string
}

// UserMessage builds a user history entry.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a plain assistant history entry.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// assistantToolCallMessage records the assistant turn that requested tools.
func assistantToolCallMessage(resp *Response) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   resp.Text,
		ToolCalls: append([]ToolCallRequest(nil), resp.ToolCalls...),
	}
}

// toolResultMessage renders one ToolResult as a history entry tagged with the
// originating call id. Errors become {"error": ...} so the model can react;
// ClientError carries the reason, SystemError only a generic notice.
func toolResultMessage(res ToolResult) Message {
	var payload map[string]any
	if res.Error != nil {
		payload = map[string]any{"error": res.Error.Error()}
	} else {
		result := res.Result
		if len(result) == 0 {
			result = json.RawMessage("null")
		}
		payload = map[string]any{"result": result}
	}
	content, err := json.Marshal(payload)
	if err != nil {
		content = []byte(`{"error":"failed to encode tool result"}`)
	}
	return Message{
		Role:       RoleTool,
		Content:    string(content),
		ToolCallID: res.CallID,
	}
}
