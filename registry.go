package dossier

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Registry holds tools and executes them with timeout, optional panic
// recovery, and before/after hooks. Registration is safe for concurrent use;
// dispatch against a shared Context is strictly sequential (ExecuteBatch), as
// handlers may both read and write the same Context.
type Registry struct {
	tools       map[string]Tool // wrapped with middlewares, used by Execute
	rawTools    map[string]Tool // unwrapped, used by Use() to re-apply middlewares from scratch
	opts        registryOptions
	mu          sync.Mutex
	middlewares []Middleware
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:       5 * time.Second,
		recoverPanics: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		tools:    make(map[string]Tool),
		rawTools: make(map[string]Tool),
		opts:     o,
	}
}

// Register adds a tool. Stored middlewares (see Use) are applied to the tool
// before registration. If a tool with the same name already exists, it is
// replaced.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	r.rawTools[name] = t
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		t = r.middlewares[i](t)
	}
	r.tools[name] = t
}

// GetAllTools returns all registered tools (e.g. for exporting to LLM
// providers), sorted by name for deterministic order.
func (r *Registry) GetAllTools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// GetTool returns the tool with the given name (after middlewares are
// applied), or (nil, false) if not found.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Verify checks that every given tool name is registered. Call it at startup
// so a registry/schema mismatch is caught before any provider request is sent.
func (r *Registry) Verify(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.tools[name]; !ok {
			return fmt.Errorf("tool %q: %w", name, ErrToolNotFound)
		}
	}
	return nil
}

// Execute runs one tool call against the shared Context and returns its
// ToolResult. The after-execution hook (WithOnAfterExecute) is always invoked
// via defer with the final result. An unknown tool name yields
// ErrToolNotFound.
func (r *Registry) Execute(ctx context.Context, call ToolCall, cx *Context) (res ToolResult) {
	res.CallID = call.ID
	res.ToolName = call.ToolName

	r.mu.Lock()
	tool, ok := r.tools[call.ToolName]
	r.mu.Unlock()
	if !ok {
		res.Error = fmt.Errorf("tool %q: %w", call.ToolName, ErrToolNotFound)
		return res
	}

	timeout := r.opts.timeout
	if tm, ok := tool.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, res)
		}
	}()
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				res.Result = nil
				res.Error = &SystemError{Err: &panicError{p: p}}
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	res.Result, res.Error = tool.Execute(ctx, call.Args, cx)
	if res.Error != nil && ctx.Err() == context.DeadlineExceeded {
		res.Error = fmt.Errorf("tool %q: %w", call.ToolName, ErrTimeout)
	}
	return res
}

// ExecuteBatch dispatches all calls strictly sequentially, in the order the
// provider emitted them, against the same shared Context. Results are returned
// in the same order. Partial success: a failing call (unknown tool, validation
// error) does not stop the remaining calls from executing.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall, cx *Context) []ToolResult {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, r.Execute(ctx, call, cx))
	}
	return results
}

// panicError wraps a recovered panic value for SystemError; used by Registry
// and the WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
