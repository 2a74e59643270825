package logging

import (
	"testing"

	"github.com/charmbracelet/log"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"debug", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"nonsense", log.InfoLevel},
	}
	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv("MTSLAB_LOG_LEVEL", tc.env)
			if got := levelFromEnv(); got != tc.want {
				t.Errorf("levelFromEnv() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLoggerIsTagged(t *testing.T) {
	a := Logger(SourceAPI)
	b := Logger(SourceStore)
	if a == nil || b == nil {
		t.Fatal("expected non-nil loggers")
	}
	if a == b {
		t.Error("expected distinct loggers per source")
	}
}
