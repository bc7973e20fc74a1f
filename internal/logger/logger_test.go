package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/quantbrief/quantbrief/internal/config"
)

func TestNewWithWriterTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	log.Info("server started", "port", 8000)

	out := buf.String()
	if !strings.Contains(out, "server started") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "port=8000") {
		t.Errorf("output missing attr: %q", out)
	}
}

func TestNewWithWriterJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	log.Info("quote fetched", "ticker", "AAPL")

	out := buf.String()
	if !strings.Contains(out, `"msg":"quote fetched"`) {
		t.Errorf("output not JSON formatted: %q", out)
	}
	if !strings.Contains(out, `"ticker":"AAPL"`) {
		t.Errorf("output missing attr: %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)

	log.Debug("noise")
	log.Info("noise")
	log.Warn("important")

	out := buf.String()
	if strings.Contains(out, "noise") {
		t.Errorf("debug/info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "important") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: "bogus", Format: "text"}, &buf)

	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug should be filtered at default info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info message missing: %q", out)
	}
}

func TestWithAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	With(log, "market").Info("chain selected")

	if !strings.Contains(buf.String(), "component=market") {
		t.Errorf("component attr missing: %q", buf.String())
	}
}
