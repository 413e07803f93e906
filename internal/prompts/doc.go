// Package prompts contains the prompt text the agent sends to models.
//
// Prompt text is Go code rather than config files because it is program
// logic: the agent's line protocol (TOOL_CALL / FINAL_ANSWER) is parsed
// by code that must agree with the instructions given here, and tests
// pin the exact layout.
package prompts
