package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nugget/paperscout/internal/papers"
)

type stubTool struct {
	name   string
	result Result
	err    error
	got    map[string]any
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub " + s.name }
func (s *stubTool) Execute(_ context.Context, params map[string]any) (Result, error) {
	s.got = params
	return s.result, s.err
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&stubTool{name: "SEARCH_PAPERS"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	err := r.Register(&stubTool{name: "SEARCH_PAPERS"})
	var dup *ErrDuplicateTool
	if !errors.As(err, &dup) {
		t.Fatalf("expected *ErrDuplicateTool, got %v", err)
	}
	if got := r.Names(); len(got) != 1 {
		t.Errorf("Names() = %v, want one entry", got)
	}
}

func TestRegister_EmptyName(t *testing.T) {
	if err := NewRegistry(nil).Register(&stubTool{}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Dispatch(context.Background(), "FETCH_PDF", nil)

	var unknown *ErrUnknownTool
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *ErrUnknownTool, got %v", err)
	}
	if unknown.ToolName != "FETCH_PDF" {
		t.Errorf("ToolName = %q", unknown.ToolName)
	}
}

func TestDispatch_PassesParams(t *testing.T) {
	stub := &stubTool{
		name:   "SEARCH_PAPERS",
		result: Result{Papers: []papers.Record{{Title: "A"}}},
	}
	r := NewRegistry(nil)
	if err := r.Register(stub); err != nil {
		t.Fatal(err)
	}

	res, err := r.Dispatch(context.Background(), "SEARCH_PAPERS", map[string]any{"query": "q"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(res.Papers) != 1 {
		t.Errorf("papers = %d, want 1", len(res.Papers))
	}
	if stub.got["query"] != "q" {
		t.Errorf("params not forwarded: %v", stub.got)
	}
}

func TestDispatch_NilParamsBecomeEmpty(t *testing.T) {
	stub := &stubTool{name: "T"}
	r := NewRegistry(nil)
	_ = r.Register(stub)

	if _, err := r.Dispatch(context.Background(), "T", nil); err != nil {
		t.Fatal(err)
	}
	if stub.got == nil {
		t.Error("tool received nil params")
	}
}

func TestDispatch_WrapsToolError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry(nil)
	_ = r.Register(&stubTool{name: "T", err: boom})

	_, err := r.Dispatch(context.Background(), "T", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "tool T") {
		t.Errorf("error should name the tool: %v", err)
	}
}

func TestCatalogue_RegistrationOrder(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&stubTool{name: "B"})
	_ = r.Register(&stubTool{name: "A"})

	want := "- B: stub B\n- A: stub A\n"
	if got := r.Catalogue(); got != want {
		t.Errorf("Catalogue() = %q, want %q", got, want)
	}
}

func TestResultJSON(t *testing.T) {
	if got := (Result{}).JSON(); got != `{"papers":[]}` {
		t.Errorf("empty JSON = %s", got)
	}

	res := Result{Papers: []papers.Record{{Title: "T", Source: papers.SourceArxiv}}}
	got := res.JSON()
	if !strings.Contains(got, `"title":"T"`) || !strings.Contains(got, `"source":"arXiv"`) {
		t.Errorf("JSON = %s", got)
	}
}

func TestStringParam(t *testing.T) {
	params := map[string]any{"query": "  transformers ", "n": 3.0}
	if got := StringParam(params, "query"); got != "transformers" {
		t.Errorf("query = %q", got)
	}
	if got := StringParam(params, "n"); got != "" {
		t.Errorf("non-string = %q", got)
	}
	if got := StringParam(params, "missing"); got != "" {
		t.Errorf("missing = %q", got)
	}
}
