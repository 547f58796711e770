package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dossierkit/dossier"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(&Config{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "gpt-4o-mini",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
	})
	// Keep-alive connections outlive the test otherwise.
	t.Cleanup(c.client.CloseIdleConnections)
	return c
}

func textBody(text string) string {
	return `{"choices":[{"message":{"role":"assistant","content":"` + text + `"},"finish_reason":"stop"}],"usage":{"total_tokens":42}}`
}

func TestClient_Complete_Text(t *testing.T) {
	var got wireRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(textBody("hello")))
	}, 0)

	resp, err := client.Complete(context.Background(), &dossier.Request{
		System:   "You track people.",
		Messages: []dossier.Message{dossier.UserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 42, resp.TokensUsed)
	assert.Empty(t, resp.ToolCalls)

	assert.Equal(t, "gpt-4o-mini", got.Model, "config model used when request names none")
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role, "system prompt becomes the first wire message")
	assert.Equal(t, "You track people.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Empty(t, got.ToolChoice, "no tool_choice without tools")
}

func TestClient_Complete_ToolsOnWire(t *testing.T) {
	var got wireRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(textBody("ok")))
	}, 0)

	_, err := client.Complete(context.Background(), &dossier.Request{
		Model:    "gpt-4o",
		Messages: []dossier.Message{dossier.UserMessage("hi")},
		Tools: []dossier.ToolSchema{{
			Name:        "lookup_person",
			Description: "Find a person.",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", got.Model, "request model overrides config model")
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)
	assert.Equal(t, "lookup_person", got.Tools[0].Function.Name)
	assert.Equal(t, "auto", got.ToolChoice)
}

func TestClient_Complete_ToolCallHistoryOnWire(t *testing.T) {
	var got wireRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(textBody("ok")))
	}, 0)

	history := []dossier.Message{
		dossier.UserMessage("record her"),
		{
			Role: dossier.RoleAssistant,
			ToolCalls: []dossier.ToolCallRequest{{
				ID:   "call_1",
				Name: "create_person",
				Args: json.RawMessage(`{"name":"Sarah Chen"}`),
			}},
		},
		{Role: dossier.RoleTool, Content: `{"result":{"status":"success"}}`, ToolCallID: "call_1"},
	}
	_, err := client.Complete(context.Background(), &dossier.Request{Messages: history})
	require.NoError(t, err)

	require.Len(t, got.Messages, 3)
	asst := got.Messages[1]
	require.Len(t, asst.ToolCalls, 1)
	assert.Equal(t, "call_1", asst.ToolCalls[0].ID)
	assert.Equal(t, "function", asst.ToolCalls[0].Type)
	assert.Equal(t, "create_person", asst.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"name":"Sarah Chen"}`, asst.ToolCalls[0].Function.Arguments)
	assert.Equal(t, "call_1", got.Messages[2].ToolCallID)
}

func TestClient_Complete_DecodesToolCalls(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"",
			"tool_calls":[{"id":"call_9","type":"function","function":{"name":"lookup_person","arguments":"{\"keyword\":\"chen\"}"}}]},
			"finish_reason":"tool_calls"}]}`))
	}, 0)

	resp, err := client.Complete(context.Background(), &dossier.Request{
		Messages: []dossier.Message{dossier.UserMessage("who?")},
	})
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_9", resp.ToolCalls[0].ID)
	assert.Equal(t, "lookup_person", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"keyword":"chen"}`, string(resp.ToolCalls[0].Args))
}

func TestClient_Complete_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(textBody("recovered")))
	}, 3)

	resp, err := client.Complete(context.Background(), &dossier.Request{
		Messages: []dossier.Message{dossier.UserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Complete_DoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}, 3)

	_, err := client.Complete(context.Background(), &dossier.Request{
		Messages: []dossier.Message{dossier.UserMessage("hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Complete_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, 2)

	_, err := client.Complete(context.Background(), &dossier.Request{
		Messages: []dossier.Message{dossier.UserMessage("hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted 2 retries")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Complete_APIErrorBody(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}, 0)

	_, err := client.Complete(context.Background(), &dossier.Request{
		Messages: []dossier.Message{dossier.UserMessage("hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_request_error")
	assert.Contains(t, err.Error(), "model not found")
}

func TestClient_Complete_NoChoices(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}, 0)

	_, err := client.Complete(context.Background(), &dossier.Request{
		Messages: []dossier.Message{dossier.UserMessage("hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("key")
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
}
