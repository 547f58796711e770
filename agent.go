package dossier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Agent runs the orchestration loop: send history plus tool schemas to the
// provider, dispatch requested tool calls against the shared Context, feed the
// results back, repeat until the provider returns a plain answer.
//
// The loop commits the assistant tool-call message to history before any
// dispatch begins, so a tool can never run ahead of the history that
// requested it. All calls of one response are dispatched sequentially in the
// order the provider emitted them.
type Agent struct {
	provider Provider
	registry *Registry
	opts     agentOptions
}

// DefaultMaxTurns bounds the number of provider calls per invocation unless
// WithMaxTurns overrides it.
const DefaultMaxTurns = 8

type agentOptions struct {
	maxTurns    int
	system      string
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*agentOptions)

// WithMaxTurns sets the provider-call ceiling per invocation. Exceeding it is
// a fatal TurnLimitError, never a silent truncation.
func WithMaxTurns(n int) AgentOption {
	return func(o *agentOptions) {
		o.maxTurns = n
	}
}

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(prompt string) AgentOption {
	return func(o *agentOptions) {
		o.system = prompt
	}
}

// WithModel sets the model identifier passed to the provider.
func WithModel(model string) AgentOption {
	return func(o *agentOptions) {
		o.model = model
	}
}

// WithTemperature sets the sampling temperature passed to the provider.
func WithTemperature(t float64) AgentOption {
	return func(o *agentOptions) {
		o.temperature = t
	}
}

// WithMaxTokens caps the response length requested from the provider.
func WithMaxTokens(n int) AgentOption {
	return func(o *agentOptions) {
		o.maxTokens = n
	}
}

// WithLogger sets the logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) AgentOption {
	return func(o *agentOptions) {
		o.logger = logger
	}
}

// NewAgent creates an Agent over the given provider and tool registry.
func NewAgent(provider Provider, registry *Registry, opts ...AgentOption) *Agent {
	o := agentOptions{
		maxTurns: DefaultMaxTurns,
		system:   DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Agent{provider: provider, registry: registry, opts: o}
}

// RunResult is the outcome of one invocation. On fatal errors the result is
// still returned alongside the error, with the partial history for
// diagnostics; the Context keeps whatever mutations handlers made (no
// rollback).
type RunResult struct {
	Answer  string
	History []Message
	Turns   int
}

// Run answers a single user query against a fresh Context and returns the
// final natural-language answer.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	res, err := a.RunWithContext(ctx, query, NewContext())
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// RunWithContext answers a query against a caller-supplied Context, so state
// persists across invocations. The Context is mutated in place by tool
// handlers.
func (a *Agent) RunWithContext(ctx context.Context, query string, cx *Context) (*RunResult, error) {
	return a.Resume(ctx, []Message{UserMessage(query)}, cx)
}

// Resume continues the loop from an existing history (e.g. a prior
// RunResult.History with a new user message appended). History must end with
// a message the provider can respond to.
func (a *Agent) Resume(ctx context.Context, history []Message, cx *Context) (*RunResult, error) {
	if cx == nil {
		cx = NewContext()
	}
	log := a.opts.logger.With("run_id", uuid.NewString(), "provider", a.provider.Name())
	tools := a.exportTools()

	turns := 0
	for {
		if turns >= a.opts.maxTurns {
			err := &TurnLimitError{Turns: turns, History: history}
			log.Error("turn limit exceeded", "turns", turns)
			return &RunResult{History: history, Turns: turns}, err
		}
		turns++

		resp, err := a.provider.Complete(ctx, &Request{
			Model:       a.opts.model,
			System:      a.opts.system,
			Messages:    history,
			Tools:       tools,
			Temperature: a.opts.temperature,
			MaxTokens:   a.opts.maxTokens,
		})
		if err != nil {
			return &RunResult{History: history, Turns: turns},
				fmt.Errorf("turn %d: %w: %w", turns, ErrProvider, err)
		}

		if len(resp.ToolCalls) == 0 {
			history = append(history, AssistantMessage(resp.Text))
			log.Info("run complete", "turns", turns, "history_len", len(history))
			return &RunResult{Answer: resp.Text, History: history, Turns: turns}, nil
		}

		// Commit the requesting assistant message before any dispatch.
		history = append(history, assistantToolCallMessage(resp))
		calls := make([]ToolCall, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			calls[i] = ToolCall{ID: tc.ID, ToolName: tc.Name, Args: tc.Args}
		}
		log.Info("dispatching tool calls", "turn", turns, "calls", len(calls))

		var unknown error
		for _, res := range a.registry.ExecuteBatch(ctx, calls, cx) {
			history = append(history, toolResultMessage(res))
			if res.Error != nil {
				log.Warn("tool call failed", "tool", res.ToolName, "call_id", res.CallID, "error", res.Error)
				if unknown == nil && errors.Is(res.Error, ErrToolNotFound) {
					unknown = res.Error
				}
			}
		}
		// An unknown tool is a registry/schema mismatch bug, not a runtime
		// condition to retry: the rest of the batch has executed and is in
		// history, but the invocation aborts.
		if unknown != nil {
			return &RunResult{History: history, Turns: turns}, unknown
		}
	}
}

func (a *Agent) exportTools() []ToolSchema {
	all := a.registry.GetAllTools()
	schemas := make([]ToolSchema, len(all))
	for i, t := range all {
		schemas[i] = ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return schemas
}
