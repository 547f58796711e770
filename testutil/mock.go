// Package testutil provides test helpers for dossier (MockProvider, MockTool).
package testutil

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/dossierkit/dossier"
)

// MockProvider is a scripted dossier.Provider for tests. Complete returns the
// scripted responses in order and records every request it receives. When the
// script is exhausted, the last response repeats (convenient for turn-limit
// tests where the model keeps asking for tools); when Err is set, it is
// returned once the script is exhausted instead.
type MockProvider struct {
	NameVal   string
	Responses []*dossier.Response
	Err       error
	Requests  []*dossier.Request
	idx       int
}

// Name returns NameVal or "mock".
func (m *MockProvider) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Complete records req and returns the next scripted response.
func (m *MockProvider) Complete(_ context.Context, req *dossier.Request) (*dossier.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.idx >= len(m.Responses) {
		if m.Err != nil {
			return nil, m.Err
		}
		if len(m.Responses) == 0 {
			return &dossier.Response{Text: "ok"}, nil
		}
		return m.Responses[len(m.Responses)-1], nil
	}
	r := m.Responses[m.idx]
	m.idx++
	return r, nil
}

// TextResponse builds a plain-text response.
func TextResponse(text string) *dossier.Response {
	return &dossier.Response{Text: text, FinishReason: "stop"}
}

// ToolCallResponse builds a response requesting the given calls in order.
func ToolCallResponse(calls ...dossier.ToolCallRequest) *dossier.Response {
	return &dossier.Response{ToolCalls: calls, FinishReason: "tool_calls"}
}

// Call builds a ToolCallRequest with a fresh uuid call id.
func Call(toolName, argsJSON string) dossier.ToolCallRequest {
	return dossier.ToolCallRequest{
		ID:   uuid.NewString(),
		Name: toolName,
		Args: json.RawMessage(argsJSON),
	}
}

// MockTool is a configurable Tool implementation for tests.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	ExecuteFn func(ctx context.Context, args []byte, cx *dossier.Context) ([]byte, error)
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Parameters returns the parameters schema (or empty map).
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{}
}

// Execute runs ExecuteFn if set, otherwise returns an empty object.
func (m *MockTool) Execute(ctx context.Context, args []byte, cx *dossier.Context) ([]byte, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args, cx)
	}
	return []byte("{}"), nil
}

var (
	_ dossier.Provider = (*MockProvider)(nil)
	_ dossier.Tool     = (*MockTool)(nil)
)
