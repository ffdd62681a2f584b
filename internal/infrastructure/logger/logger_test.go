package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "info", Format: "json", Service: "ledgerd"}, &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("entry_id", "je-1").Msg("journal posted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one log line, got %d: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if record["entry_id"] != "je-1" || record["message"] != "journal posted" {
		t.Fatalf("unexpected record: %v", record)
	}
	if record["service"] != "ledgerd" {
		t.Fatalf("expected service field, got %v", record)
	}
	if _, ok := record["time"]; !ok {
		t.Fatalf("expected timestamp field: %v", record)
	}
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "debug", Format: "Console"}, &buf)

	log.Debug().Msg("console output")

	out := buf.String()
	if !strings.Contains(out, "console output") {
		t.Fatalf("expected console output, got %q", out)
	}
	if strings.HasPrefix(out, "{") {
		t.Fatalf("expected human readable output, got %q", out)
	}
}
