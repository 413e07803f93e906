package prompts

import (
	"strings"
	"testing"
)

func TestSystemPrompt_IncludesCatalogue(t *testing.T) {
	got := SystemPrompt("- SEARCH_PAPERS: Search academic papers.")
	if !strings.Contains(got, "Available tools:\n- SEARCH_PAPERS: Search academic papers.\n- FINAL_ANSWER") {
		t.Errorf("catalogue not rendered as expected:\n%s", got)
	}
	if !strings.Contains(got, `TOOL_CALL: SEARCH_PAPERS|{"query": "machine learning", "source": "all"}`) {
		t.Error("missing tool call example")
	}
}

func TestBuildContext_Layout(t *testing.T) {
	turns := []Turn{
		{Role: "user", Content: "find papers on GNNs"},
		{Role: "assistant", Content: `Called SEARCH_PAPERS with params: {"query":"GNN"}`},
		{Role: "system", Content: `Tool result: {"papers":[]}`},
	}
	got := BuildContext("SYS", turns, "what next")

	want := "SYS\n\n" +
		"USER: find papers on GNNs\n" +
		`ASSISTANT: Called SEARCH_PAPERS with params: {"query":"GNN"}` + "\n" +
		`SYSTEM: Tool result: {"papers":[]}` + "\n" +
		"\nCurrent query: what next\n"
	if got != want {
		t.Errorf("BuildContext =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildContext_NoTurns(t *testing.T) {
	if got := BuildContext("S", nil, "q"); got != "S\n\n\nCurrent query: q\n" {
		t.Errorf("got %q", got)
	}
}

func TestNextQuery(t *testing.T) {
	got := NextQuery("transformers", "SEARCH_PAPERS", `{"query":"transformers"}`, `{"papers":[]}`)
	want := "Previous query: transformers\nTool called: SEARCH_PAPERS\nParameters: {\"query\":\"transformers\"}\nTool result: {\"papers\":[]}\nWhat should I do next?"
	if got != want {
		t.Errorf("NextQuery = %q, want %q", got, want)
	}
}

func TestTurnText(t *testing.T) {
	if got := ToolCallTurn("T", `{"a":1}`); got != `Called T with params: {"a":1}` {
		t.Errorf("ToolCallTurn = %q", got)
	}
	if got := ToolResultTurn(`{}`); got != "Tool result: {}" {
		t.Errorf("ToolResultTurn = %q", got)
	}
}
