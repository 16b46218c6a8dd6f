package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "info", "warn", "error"} {
		if _, err := NewLogger(lvl); err != nil {
			t.Errorf("NewLogger(%q): %v", lvl, err)
		}
	}
	if _, err := NewLogger("chatty"); err == nil {
		t.Error("NewLogger accepted an unknown level")
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "signer.log")
	logger, err := NewLoggerWithFile(path, "info")
	if err != nil {
		t.Fatalf("NewLoggerWithFile: %v", err)
	}
	logger.Info("order_signed")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"order_signed"`) {
		t.Errorf("log file missing entry: %s", data)
	}
}
