package tui

import (
	"fmt"
	"strings"
)

// Run starts the appropriate TUI based on the view type.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	if strings.HasPrefix(viewType, "inspect_") {
		return RunInspectTUI(viewType, data)
	}
	if strings.HasPrefix(viewType, "stats_") {
		return RunStatsTUI(viewType, data)
	}
	return fmt.Errorf("unknown view type: %s", viewType)
}

// IsTUISupported returns true if the view type supports TUI mode. Only
// inspect and stats commands are read-only deep views that benefit from
// an interactive browser; generate and list render their payload directly.
func IsTUISupported(viewType string) bool {
	return strings.HasPrefix(viewType, "inspect_") || strings.HasPrefix(viewType, "stats_")
}

// SupportedTUIViews returns the list of view types that support TUI.
func SupportedTUIViews() []string {
	return []string{"inspect_summary", "inspect_string", "stats_generate"}
}
