package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf})

	logger.Info().Str("raid", "Nerub-ar Palace").Msg("job succeeded")

	output := buf.String()
	if !strings.Contains(output, "job succeeded") {
		t.Errorf("Expected output to contain message, got %q", output)
	}
	if !strings.Contains(output, `"raid":"Nerub-ar Palace"`) {
		t.Errorf("Expected structured field in output, got %q", output)
	}
}

func TestSetup_LevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelWarn, Output: buf})

	logger.Info().Msg("filtered out")
	logger.Warn().Msg("kept")

	output := buf.String()
	if strings.Contains(output, "filtered out") {
		t.Errorf("Info message should be filtered at warn level, got %q", output)
	}
	if !strings.Contains(output, "kept") {
		t.Errorf("Warn message missing, got %q", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
