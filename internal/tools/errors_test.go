package tools

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrUnknownTool_Error(t *testing.T) {
	err := &ErrUnknownTool{ToolName: "FETCH_PDF"}
	want := "Unknown tool: FETCH_PDF"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrUnknownTool_WrappedErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("iteration 2: %w", &ErrUnknownTool{ToolName: "x"})

	var target *ErrUnknownTool
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As failed to match wrapped *ErrUnknownTool")
	}
	if target.ToolName != "x" {
		t.Errorf("ToolName = %q, want %q", target.ToolName, "x")
	}
}

func TestErrUnknownTool_NotMatchOtherErrors(t *testing.T) {
	var target *ErrUnknownTool
	if errors.As(fmt.Errorf("some other error"), &target) {
		t.Error("errors.As should not match non-ErrUnknownTool error")
	}
}
