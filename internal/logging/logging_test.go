package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "warn", "json")
	logger.Info().Msg("hidden")
	child := Component(logger, "collector")
	child.Warn().Str("symbol", "AAPL").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at warn level, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["component"] != "collector" || entry["symbol"] != "AAPL" || entry["level"] != "warn" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestSetupWriter_ConsoleAndBadLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "loud", "console")
	logger.Debug().Msg("dropped")
	logger.Info().Msg("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("unexpected console output %q", out)
	}
}
