package prompts

import (
	"fmt"
	"strings"
)

// Turn is one entry of the conversation history as rendered into the
// prompt.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const systemTemplate = `You are a research paper search agent. You can search for academic papers from IEEE, arXiv, Google Scholar, and Semantic Scholar.

Available tools:
%s- FINAL_ANSWER: Provide the final results

IMPORTANT: You MUST respond with EXACTLY ONE of these formats:

For tool calls:
TOOL_CALL: tool_name|{"param1": "value1", "param2": "value2"}

For final answers:
FINAL_ANSWER: your final response here

Examples:
- TOOL_CALL: SEARCH_PAPERS|{"query": "machine learning", "source": "all"}
- FINAL_ANSWER: Here are the research papers I found...

Search strategy:
1. First, analyze the user's query to understand what they're looking for
2. Search multiple sources to get comprehensive results
3. Filter and rank the most relevant papers
4. Return the best matches

Always respond with exactly one action per iteration. Do not include any other text or formatting.`

// SystemPrompt returns the fixed agent instruction. catalogue is the
// bulleted tool list from the tool registry, one "- NAME: description"
// line per tool.
func SystemPrompt(catalogue string) string {
	if catalogue != "" && !strings.HasSuffix(catalogue, "\n") {
		catalogue += "\n"
	}
	return fmt.Sprintf(systemTemplate, catalogue)
}

// BuildContext assembles the prompt for one model call: the system
// instruction, a blank line, each turn as "ROLE: content", then the
// current query.
func BuildContext(system string, turns []Turn, current string) string {
	var sb strings.Builder
	sb.WriteString(system)
	sb.WriteString("\n\n")
	for _, t := range turns {
		sb.WriteString(strings.ToUpper(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nCurrent query: ")
	sb.WriteString(current)
	sb.WriteString("\n")
	return sb.String()
}

// NextQuery is the context handed to the model after a tool call.
func NextQuery(query, tool, paramsJSON, resultJSON string) string {
	return fmt.Sprintf("Previous query: %s\nTool called: %s\nParameters: %s\nTool result: %s\nWhat should I do next?",
		query, tool, paramsJSON, resultJSON)
}

// ToolCallTurn is the assistant turn recorded for a tool call.
func ToolCallTurn(tool, paramsJSON string) string {
	return fmt.Sprintf("Called %s with params: %s", tool, paramsJSON)
}

// ToolResultTurn is the system turn recorded for a tool result.
func ToolResultTurn(resultJSON string) string {
	return "Tool result: " + resultJSON
}
