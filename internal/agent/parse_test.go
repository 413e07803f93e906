package agent

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Response
	}{
		{
			name: "tool call with JSON params",
			raw:  `TOOL_CALL: SEARCH_PAPERS|{"query": "graph neural networks", "source": "arxiv"}`,
			want: Response{
				Kind:   KindToolCall,
				Tool:   "SEARCH_PAPERS",
				Params: map[string]any{"query": "graph neural networks", "source": "arxiv"},
			},
		},
		{
			name: "tool call with plain text params",
			raw:  "TOOL_CALL: SEARCH_PAPERS|quantum error correction",
			want: Response{
				Kind:   KindToolCall,
				Tool:   "SEARCH_PAPERS",
				Params: map[string]any{"query": "quantum error correction", "source": "all"},
			},
		},
		{
			name: "tool call with JSON array params",
			raw:  `TOOL_CALL: SEARCH_PAPERS|["a","b"]`,
			want: Response{
				Kind:   KindToolCall,
				Tool:   "SEARCH_PAPERS",
				Params: map[string]any{"query": `["a","b"]`, "source": "all"},
			},
		},
		{
			name: "tool call with nothing after bar",
			raw:  "TOOL_CALL: searchArxiv|",
			want: Response{Kind: KindToolCall, Tool: "searchArxiv", Params: map[string]any{}},
		},
		{
			name: "tool call without bar",
			raw:  "TOOL_CALL: searchIEEE",
			want: Response{Kind: KindToolCall, Tool: "searchIEEE", Params: map[string]any{}},
		},
		{
			name: "tool call keeps colons in params",
			raw:  `TOOL_CALL: SEARCH_PAPERS|{"query": "title: attention"}`,
			want: Response{
				Kind:   KindToolCall,
				Tool:   "SEARCH_PAPERS",
				Params: map[string]any{"query": "title: attention"},
			},
		},
		{
			name: "only the first line is inspected",
			raw:  "  TOOL_CALL: SEARCH_PAPERS|{\"query\": \"x\"}\nI will now search.\nFINAL_ANSWER: no",
			want: Response{Kind: KindToolCall, Tool: "SEARCH_PAPERS", Params: map[string]any{"query": "x"}},
		},
		{
			name: "final answer",
			raw:  "FINAL_ANSWER: Here are the papers.",
			want: Response{Kind: KindFinalAnswer, Text: "Here are the papers."},
		},
		{
			name: "unprefixed text is a final answer",
			raw:  "  I could not decide.\nSorry.  ",
			want: Response{Kind: KindFinalAnswer, Text: "I could not decide.\nSorry."},
		},
		{
			name: "empty output",
			raw:  "",
			want: Response{Kind: KindFinalAnswer, Text: ""},
		},
		{
			name: "prefix must start the line",
			raw:  "Sure. TOOL_CALL: SEARCH_PAPERS|{}",
			want: Response{Kind: KindFinalAnswer, Text: "Sure. TOOL_CALL: SEARCH_PAPERS|{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindToolCall.String() != "TOOL_CALL" || KindFinalAnswer.String() != "FINAL_ANSWER" {
		t.Errorf("unexpected kind names %q %q", KindToolCall, KindFinalAnswer)
	}
	if Kind(9).String() != "UNKNOWN" {
		t.Errorf("Kind(9) = %q", Kind(9))
	}
}
