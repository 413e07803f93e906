package agent

import (
	"encoding/json"
	"strings"
)

// Line-protocol prefixes the model answers with.
const (
	toolCallPrefix    = "TOOL_CALL:"
	finalAnswerPrefix = "FINAL_ANSWER:"
)

// Kind identifies which arm of a parsed model response is populated.
type Kind int

const (
	// KindFinalAnswer ends the loop. It is also the fallback for output
	// that matches neither prefix.
	KindFinalAnswer Kind = iota
	// KindToolCall asks the loop to dispatch a tool.
	KindToolCall
)

// String returns the protocol name of the kind.
func (k Kind) String() string {
	switch k {
	case KindToolCall:
		return "TOOL_CALL"
	case KindFinalAnswer:
		return "FINAL_ANSWER"
	}
	return "UNKNOWN"
}

// Response is a parsed model reply. Tool and Params are set for
// KindToolCall; Text is set for KindFinalAnswer.
type Response struct {
	Kind   Kind
	Tool   string
	Params map[string]any
	Text   string
}

// Parse classifies raw model output. It never fails: only the first line
// is inspected, and anything that is not a tool call is a final answer.
//
// A tool call has the form "TOOL_CALL: NAME|{json}". The JSON part is
// optional; when present but not a JSON object it is used verbatim as
// {"query": <text>, "source": "all"}.
func Parse(raw string) Response {
	clean := strings.TrimSpace(raw)
	first, _, _ := strings.Cut(clean, "\n")
	first = strings.TrimSpace(first)

	switch {
	case strings.HasPrefix(first, toolCallPrefix):
		rest := first[len(toolCallPrefix):]
		tool, paramText, _ := strings.Cut(rest, "|")
		return Response{
			Kind:   KindToolCall,
			Tool:   strings.TrimSpace(tool),
			Params: parseParams(strings.TrimSpace(paramText)),
		}

	case strings.HasPrefix(first, finalAnswerPrefix):
		return Response{
			Kind: KindFinalAnswer,
			Text: strings.TrimSpace(first[len(finalAnswerPrefix):]),
		}
	}

	return Response{Kind: KindFinalAnswer, Text: clean}
}

// parseParams decodes a tool-call parameter object. Empty text yields an
// empty map; anything that is not a JSON object becomes a query string.
func parseParams(text string) map[string]any {
	if text == "" {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return map[string]any{"query": text, "source": "all"}
}
