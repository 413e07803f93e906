// Package tools defines the tools available to the agent and the registry
// that dispatches the model's tool calls to them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nugget/paperscout/internal/papers"
)

// Result is what a tool hands back to the agent loop.
type Result struct {
	Papers []papers.Record `json:"papers"`
}

// JSON returns the serialized result used in the conversation history.
// An empty result encodes as {"papers":[]}.
func (r Result) JSON() string {
	if r.Papers == nil {
		r.Papers = []papers.Record{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		// Records are plain strings; Marshal cannot fail on them.
		return `{"papers":[]}`
	}
	return string(b)
}

// Tool is a named operation the model may invoke.
type Tool interface {
	// Name is the identifier the model uses in TOOL_CALL lines.
	Name() string

	// Description is shown to the model in the tool catalogue.
	Description() string

	// Execute runs the tool with the decoded parameters.
	Execute(ctx context.Context, params map[string]any) (Result, error)
}

// Registry holds available tools.
type Registry struct {
	logger *slog.Logger
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger.With("component", "tools"),
		tools:  make(map[string]Tool),
	}
}

// Register adds a tool. Registering a second tool under an existing name
// fails with [ErrDuplicateTool].
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tools: register: empty tool name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return &ErrDuplicateTool{ToolName: name}
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Catalogue renders the registered tools as a bulleted list for the
// system prompt.
func (r *Registry) Catalogue() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&sb, "- %s: %s\n", name, r.tools[name].Description())
	}
	return sb.String()
}

// Dispatch executes the named tool. Unknown names return
// [*ErrUnknownTool]; tool errors are wrapped with the tool name.
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]any) (Result, error) {
	t, ok := r.Get(name)
	if !ok {
		return Result{}, &ErrUnknownTool{ToolName: name}
	}
	if params == nil {
		params = map[string]any{}
	}

	start := time.Now()
	res, err := t.Execute(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s: %w", name, err)
	}

	r.logger.Debug("tool executed",
		"tool", name,
		"papers", len(res.Papers),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// StringParam returns params[key] as a trimmed string. Non-string values
// yield "".
func StringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return strings.TrimSpace(s)
}
