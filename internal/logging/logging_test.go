package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ubxgnss/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestNewCore_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := zap.New(newCore(config.LoggingConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf)))
	log.Info("dropped")
	log.Warn("ack timeout", zap.String("class", "0x06"))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "ack timeout", entry["msg"])
	assert.Equal(t, "0x06", entry["class"])
}

func TestNewCore_TeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gnss.log")
	var buf bytes.Buffer
	log := zap.New(newCore(config.LoggingConfig{Level: "info", File: config.LogFileConfig{Filename: path, MaxSizeMB: 1}}, zapcore.AddSync(&buf)))
	log.Info("receiver ready")
	require.NoError(t, log.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "receiver ready")
	assert.Contains(t, buf.String(), "receiver ready")
}
