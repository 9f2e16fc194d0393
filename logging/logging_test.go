package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "WARN", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo},
		{in: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardrail.log")

	logger := New(Options{
		Level:       "info",
		Format:      "json",
		File:        true,
		Path:        path,
		MaxBytes:    1 << 20,
		BackupCount: 2,
	})

	logger.Info("detection completed", "detections", 3)
	logger.Debug("dropped below level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "detection completed")
	assert.NotContains(t, string(data), "dropped below level")
}

func TestNew_NoOutputs(t *testing.T) {
	logger := New(Options{})
	// Must not panic writing to the discard logger.
	logger.Info("into the void")
}
