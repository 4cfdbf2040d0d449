package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/learnup/learnup/internal/config"
)

func TestNewLoggerWritesStdoutAndFile(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	logger, closer, err := NewLogger("ui-server", config.LoggingConfig{Level: "debug", Dir: dir}, &stdout)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("general", "hello", map[string]any{"k": "v"})
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &entry); err != nil {
		t.Fatalf("decode stdout entry %q: %v", stdout.String(), err)
	}
	if entry["message"] != "hello" || entry["component"] != "ui-server" {
		t.Fatalf("unexpected entry %v", entry)
	}

	content, err := os.ReadFile(filepath.Join(dir, "ui-server.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"message":"hello"`) {
		t.Fatalf("expected entry in log file, got %q", content)
	}
}

func TestNewLoggerWithoutDir(t *testing.T) {
	var stdout bytes.Buffer
	logger, closer, err := NewLogger("dev-api", config.LoggingConfig{Level: "warn"}, &stdout)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer closer.Close()
	logger.Info("general", "filtered", nil)
	if stdout.Len() != 0 {
		t.Fatalf("info entry should be filtered at warn, got %q", stdout.String())
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, _, err := NewLogger("x", config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSignalContextStopCancels(t *testing.T) {
	ctx, stop := SignalContext(context.Background(), nil)
	stop()
	stop()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected context to be cancelled after stop")
	}
}
