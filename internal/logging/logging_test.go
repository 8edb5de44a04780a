package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
		warnOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"WARN", false, true},
		{" error ", false, false},
		{"nonsense", false, true},
		{"", false, true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		logger := Setup(tt.level)
		if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.debugOn {
			t.Errorf("Setup(%q) debug enabled = %v, want %v", tt.level, got, tt.debugOn)
		}
		if got := logger.Enabled(ctx, slog.LevelWarn); got != tt.warnOn {
			t.Errorf("Setup(%q) warn enabled = %v, want %v", tt.level, got, tt.warnOn)
		}
	}
}

func TestComponentTagsChild(t *testing.T) {
	parent := Setup("info")
	child := Component(parent, "calendar")
	if child == parent {
		t.Error("Component should return a derived logger")
	}
}
