package tools

import "fmt"

// ErrUnknownTool is returned when the model calls a tool that is not
// registered. The agent loop stops and reports it to the caller.
type ErrUnknownTool struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrUnknownTool) Error() string {
	return fmt.Sprintf("Unknown tool: %s", e.ToolName)
}

// ErrDuplicateTool is returned by [Registry.Register] when the name is
// already taken.
type ErrDuplicateTool struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrDuplicateTool) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.ToolName)
}
