package bootloader

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("sending packet", "type", "START")
	logger.Info("transfer starting", "session", "01J0000000000000000000000", "chunks", 3)
	logger.Error("transfer failed", "error", "start phase: device rejected")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2 (debug filtered):\n%s", len(lines), buf.String())
	}

	var info map[string]interface{}
	if err := json.Unmarshal(lines[0], &info); err != nil {
		t.Fatalf("invalid json %q: %v", lines[0], err)
	}
	if info["level"] != "info" || info["message"] != "transfer starting" {
		t.Errorf("info entry = %v", info)
	}
	if info["chunks"] != float64(3) {
		t.Errorf("chunks field = %v, want 3", info["chunks"])
	}

	var failed map[string]interface{}
	if err := json.Unmarshal(lines[1], &failed); err != nil {
		t.Fatalf("invalid json %q: %v", lines[1], err)
	}
	if failed["level"] != "error" || failed["error"] != "start phase: device rejected" {
		t.Errorf("error entry = %v", failed)
	}
}
