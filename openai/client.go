// Package openai provides a completion provider client for OpenAI-compatible
// chat completion APIs (OpenAI, OpenRouter, Z.AI, local gateways). It maps the
// provider-agnostic dossier request/response shapes onto the chat completions
// wire format, including function calling.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/dossierkit/dossier"
)

// Config configures the client.
type Config struct {
	APIKey     string
	BaseURL    string // default https://api.openai.com/v1
	Model      string // default model when the request does not name one
	Timeout    time.Duration
	MaxRetries int // additional attempts on 429/5xx/transport errors; 0 disables retry
}

// DefaultConfig returns a config pointed at the OpenAI API.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		Timeout: 60 * time.Second,
	}
}

// Client implements dossier.Provider against a chat completions endpoint.
type Client struct {
	cfg    *Config
	client *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (e.g. for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLogger sets the logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client from cfg.
func NewClient(cfg *Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider in logs.
func (c *Client) Name() string { return "openai" }

// wire types for the chat completions format.

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string      `json:"type"`
	Function wireToolDef `json:"function"`
}

type wireToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete performs one chat completions round-trip.
func (c *Client) Complete(ctx context.Context, req *dossier.Request) (*dossier.Response, error) {
	wr := c.buildRequest(req)
	body, err := json.Marshal(wr)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	data, err := c.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}

	var payload wireResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("api error (%s): %s", payload.Error.Type, payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	choice := payload.Choices[0]
	resp := &dossier.Response{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		TokensUsed:   payload.Usage.TotalTokens,
	}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, dossier.ToolCallRequest{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: json.RawMessage(tc.Function.Arguments),
		})
	}
	return resp, nil
}

func (c *Client) buildRequest(req *dossier.Request) *wireRequest {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	wr := &wireRequest{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		wr.Messages = append(wr.Messages, wireMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireFunction{
					Name:      tc.Name,
					Arguments: string(tc.Args),
				},
			})
		}
		wr.Messages = append(wr.Messages, wm)
	}
	for _, t := range req.Tools {
		wr.Tools = append(wr.Tools, wireTool{
			Type: "function",
			Function: wireToolDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if len(wr.Tools) > 0 {
		wr.ToolChoice = "auto"
	}
	return wr
}

// doWithRetry posts the request and retries transport errors, 429, and 5xx
// with exponential backoff and jitter. MaxRetries 0 means a single attempt.
func (c *Client) doWithRetry(ctx context.Context, body []byte) ([]byte, error) {
	delay := 200 * time.Millisecond
	const maxDelay = 10 * time.Second

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			jittered := delay/2 + time.Duration(rand.Int63n(int64(delay)))
			c.logger.Warn("retrying completion request", "attempt", attempt, "delay", jittered, "error", lastErr)
			select {
			case <-time.After(jittered):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay = min(delay*2, maxDelay)
		}

		data, retryable, err := c.doOnce(ctx, body)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("exhausted %d retries: %w", c.cfg.MaxRetries, lastErr)
}

func (c *Client) doOnce(ctx context.Context, body []byte) (data []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("rate limited: %s", truncate(data, 200))
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(data, 200))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data, 200))
	}
	return data, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ dossier.Provider = (*Client)(nil)
