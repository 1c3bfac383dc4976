package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peymanj-dashabr/dashabr/internal/config"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	logger.Info("segment fetched", slog.String("url", "https://cdn.example/seg.m4s"))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "segment fetched", parsed["msg"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	logger.Info("manifest loaded")

	assert.Contains(t, buf.String(), "manifest loaded")
}

func TestNew_RedactsQueryCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	logger.Info("fetching", slog.String("url", "https://cdn.example/seg.m4s?token=abc123&rep=1"))

	output := buf.String()
	assert.NotContains(t, output, "abc123")
	assert.Contains(t, output, "[REDACTED]")
}

func TestNew_RedactsNamedTokenField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	logger.Info("proxy auth", slog.String("token", "super-secret"))

	assert.NotContains(t, buf.String(), "super-secret")
}

func TestNew_LevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	logger.Info("should not appear")
	logger.Warn("should appear")

	output := buf.String()
	assert.NotContains(t, output, "should not appear")
	assert.Contains(t, output, "should appear")
}
