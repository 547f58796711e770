// Package dossier implements an LLM tool-calling loop over a shared mutable
// context of person records.
//
// # Overview
//
// A transcript (or any caller-built state) is loaded into a Context: a generic
// key-value store plus a named collection of Person records. An Agent sends the
// conversation history and the registered tool schemas to a completion
// Provider; when the model requests tool calls, the Agent dispatches them in
// order against the shared Context, feeds the results back, and repeats until
// the model answers in plain text or the turn limit is hit.
//
// Pipeline: argument struct → NewTool (reflection + JSON Schema) → Registry →
// Agent.Run → Provider → ExecuteBatch (unmarshal, validate, call handler,
// marshal) → tool-result messages → Provider → final answer.
//
// # Key concepts
//
//   - Explicit context passing: every handler receives the Context as a
//     parameter; there is no ambient singleton, so handlers stay testable.
//   - Single source of truth: one set of struct tags drives both the schema
//     shown to the model and the validation of incoming JSON.
//   - Self-correction: a ClientError (bad arguments, unknown person) becomes a
//     tool-result error the model can fix in its next turn; a SystemError hides
//     internals; unknown tools, provider failures, and the turn limit are fatal.
//
// # Example
//
//	reg := dossier.NewRegistry()
//	if err := dossier.RegisterPersonTools(reg); err != nil { ... }
//	agent := dossier.NewAgent(provider, reg, dossier.WithMaxTurns(8))
//	answer, err := agent.Run(ctx, "Who is Officer Johnson?")
//
// See Context, Person, Tool, Registry, Agent, and Provider for the core types.
package dossier
