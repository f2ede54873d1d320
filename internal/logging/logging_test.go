package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(WARN, FormatText, &buf)
	log.Info("hidden")
	log.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record leaked past a warn threshold")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn record was dropped")
	}
}

func TestJSONFormatRenamesTime(t *testing.T) {
	var buf bytes.Buffer
	log := New(INFO, FormatJSON, &buf)
	log.Info("linked", "module", "./a.loom")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := record["timestamp"]; !ok {
		t.Error("time key was not renamed to timestamp")
	}
	if record["module"] != "./a.loom" {
		t.Errorf("module attr = %v", record["module"])
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	log := Discard()
	log.Error("nothing should happen")
}
