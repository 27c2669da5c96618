package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ersonp/lore-chronicle/internal/infrastructure/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("relationship added", zap.String("id", "r1"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "chronicle", entry["logger"])
	assert.Equal(t, "relationship added", entry["msg"])
	assert.Equal(t, "r1", entry["id"])
}

func TestNewWithWriter_InvalidLevel(t *testing.T) {
	_, err := NewWithWriter(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing log level")
}

func TestNewWithWriter_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "chronicle.log")
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: "debug", File: file, MaxSize: 1}, &buf)
	require.NoError(t, err)

	logger.Debug("written to both")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written to both"`)
	assert.Contains(t, buf.String(), "written to both")
}
