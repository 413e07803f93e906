// Package agent implements the paper search agent: a bounded loop that
// asks a model what to do, dispatches the tool calls it makes, and
// returns the papers the last successful search found.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nugget/paperscout/internal/events"
	"github.com/nugget/paperscout/internal/llm"
	"github.com/nugget/paperscout/internal/papers"
	"github.com/nugget/paperscout/internal/prompts"
	"github.com/nugget/paperscout/internal/tools"
	"github.com/nugget/paperscout/internal/usage"
)

// DefaultMaxIterations bounds the number of model calls per query.
const DefaultMaxIterations = 5

// KeySource supplies the model API key. credentials.Provider satisfies it.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// UsageRecorder persists per-call token usage. usage.Store satisfies it.
type UsageRecorder interface {
	Record(ctx context.Context, rec usage.Record) error
}

// Config holds the loop's tunables.
type Config struct {
	MaxIterations   int
	Temperature     float64
	MaxOutputTokens int
}

// Deps are the collaborators a Service needs. LLM and Tools are
// required; the rest may be nil.
type Deps struct {
	Logger *slog.Logger
	LLM    llm.Client
	Tools  *tools.Registry
	// Keys is checked before any network call. Nil means the provider
	// needs no key.
	Keys   KeySource
	Events *events.Bus
	Usage  UsageRecorder
}

// Result is what callers of ProcessQuery receive.
type Result struct {
	Success bool            `json:"success"`
	Papers  []papers.Record `json:"results"`
	Error   string          `json:"error,omitempty"`
}

// MarshalJSON always writes "results" on success, as [] when nothing was
// found, and leaves it out of failures.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Success bool             `json:"success"`
		Papers  *[]papers.Record `json:"results,omitempty"`
		Error   string           `json:"error,omitempty"`
	}
	w := wire{Success: r.Success, Error: r.Error}
	if r.Success {
		found := r.Papers
		if found == nil {
			found = []papers.Record{}
		}
		w.Papers = &found
	}
	return json.Marshal(w)
}

// Service runs queries. It holds only immutable collaborators, so
// concurrent queries are safe; each gets its own Session.
type Service struct {
	logger *slog.Logger
	llm    llm.Client
	tools  *tools.Registry
	keys   KeySource
	bus    *events.Bus
	usage  UsageRecorder
	cfg    Config
	system string
}

// NewService creates a Service. A non-positive MaxIterations uses
// DefaultMaxIterations.
func NewService(deps Deps, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Service{
		logger: logger.With("component", "agent"),
		llm:    deps.LLM,
		tools:  deps.Tools,
		keys:   deps.Keys,
		bus:    deps.Events,
		usage:  deps.Usage,
		cfg:    cfg,
		system: prompts.SystemPrompt(deps.Tools.Catalogue()),
	}
}

// MaxIterations returns the effective iteration bound.
func (s *Service) MaxIterations() int { return s.cfg.MaxIterations }

// ProcessQuery answers one user message. The credential is checked
// first, so a missing key fails without any network traffic. Every
// failure is reported in the Result rather than returned.
func (s *Service) ProcessQuery(ctx context.Context, message string, prior []Turn) Result {
	if s.keys != nil {
		if _, err := s.keys.APIKey(ctx); err != nil {
			s.logger.Warn("query rejected", "error", err)
			return Result{Success: false, Error: err.Error()}
		}
	}

	found, err := s.Run(ctx, NewSession(message, prior))
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	if found == nil {
		found = []papers.Record{}
	}
	return Result{Success: true, Papers: found}
}

// RunAgent runs the loop for query with no prior history.
func (s *Service) RunAgent(ctx context.Context, query string) ([]papers.Record, error) {
	return s.Run(ctx, NewSession(query, nil))
}

// Run drives sess until the model gives a final answer or the iteration
// budget is spent, and returns the session's result set. Model failures
// are returned as *ModelError, unknown tools as *tools.ErrUnknownTool,
// and cancellation as the context's error.
func (s *Service) Run(ctx context.Context, sess *Session) (found []papers.Record, err error) {
	log := s.logger.With("session", sess.ID)
	log.Info("query started", "query", sess.Query, "history", len(sess.Turns)-1)
	s.bus.Emit(events.SourceAgent, events.KindRequestStart, map[string]any{
		"session_id": sess.ID,
		"query":      sess.Query,
	})

	defer func() {
		data := map[string]any{
			"session_id": sess.ID,
			"state":      sess.State.String(),
			"iterations": sess.Iteration,
			"papers":     len(found),
			"elapsed_ms": time.Since(sess.Started).Milliseconds(),
		}
		if err != nil {
			data["error"] = err.Error()
			log.Warn("query failed", "iterations", sess.Iteration, "error", err)
		} else {
			log.Info("query complete",
				"state", sess.State,
				"iterations", sess.Iteration,
				"papers", len(found),
				"elapsed", time.Since(sess.Started).Round(time.Millisecond),
			)
		}
		s.bus.Emit(events.SourceAgent, events.KindRequestComplete, data)
	}()

	current := sess.Query
	for sess.Iteration < s.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		iter := sess.Iteration
		s.bus.Emit(events.SourceAgent, events.KindIterationStart, map[string]any{
			"session_id": sess.ID,
			"iter":       iter,
		})

		prompt := prompts.BuildContext(s.system, sess.Turns, current)
		resp, err := s.llm.Generate(ctx, llm.Request{
			Prompt:          prompt,
			Temperature:     s.cfg.Temperature,
			MaxOutputTokens: s.cfg.MaxOutputTokens,
		})
		if err != nil {
			return nil, &ModelError{Iteration: iter, Err: err}
		}
		s.recordUsage(ctx, sess, iter, resp)

		s.bus.Emit(events.SourceAgent, events.KindLLMResponse, map[string]any{
			"session_id": sess.ID,
			"iter":       iter,
			"model":      resp.Model,
			"text":       resp.Text,
			"tokens_in":  resp.InputTokens,
			"tokens_out": resp.OutputTokens,
		})

		parsed := Parse(resp.Text)
		log.Debug("model replied", "iter", iter, "kind", parsed.Kind, "tool", parsed.Tool)

		if parsed.Kind != KindToolCall {
			sess.State = StateFinal
			return sess.Results, nil
		}

		if err := s.dispatch(ctx, sess, parsed); err != nil {
			return nil, err
		}
		current = prompts.NextQuery(sess.Query, parsed.Tool, sess.lastParamsJSON, sess.lastResultJSON)
		sess.Iteration++
	}

	sess.State = StateExhausted
	log.Info("iteration budget exhausted", "max", s.cfg.MaxIterations)
	return sess.Results, nil
}

// dispatch executes a tool call and records it on the session.
func (s *Service) dispatch(ctx context.Context, sess *Session, call Response) error {
	s.bus.Emit(events.SourceAgent, events.KindToolCall, map[string]any{
		"session_id": sess.ID,
		"tool":       call.Tool,
		"params":     call.Params,
	})

	start := time.Now()
	res, err := s.tools.Dispatch(ctx, call.Tool, call.Params)
	s.bus.Emit(events.SourceAgent, events.KindToolDone, map[string]any{
		"session_id":  sess.ID,
		"tool":        call.Tool,
		"papers":      len(res.Papers),
		"results":     res.Papers,
		"ok":          err == nil,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		return err
	}

	paramsJSON, err := json.Marshal(call.Params)
	if err != nil {
		paramsJSON = []byte("{}")
	}
	resultJSON := res.JSON()
	sess.recordToolCall(call.Tool, string(paramsJSON), resultJSON, res.Papers)
	sess.lastParamsJSON = string(paramsJSON)
	sess.lastResultJSON = resultJSON
	return nil
}

func (s *Service) recordUsage(ctx context.Context, sess *Session, iter int, resp *llm.Response) {
	if s.usage == nil {
		return
	}
	err := s.usage.Record(ctx, usage.Record{
		SessionID:    sess.ID,
		Iteration:    iter,
		Provider:     s.llm.Provider(),
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		LatencyMS:    resp.Latency.Milliseconds(),
	})
	if err != nil {
		s.logger.Warn("failed to record usage", "session", sess.ID, "error", err)
	}
}
