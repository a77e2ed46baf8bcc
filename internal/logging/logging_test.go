package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johan/sads-console/internal/config"
)

func TestConfigure_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()

	closer, err := configure(logger, config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.WithField("component", "test").Debug("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigure_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()

	_, err := configure(logger, config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestConfigure_File(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "sads.log")
	logger := logrus.New()

	closer, err := configure(logger, config.LoggingConfig{
		Level: "info", Format: "text", File: path, MaxSizeMB: 1,
	}, &buf)
	require.NoError(t, err)

	logger.Info("to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}

func TestConfigure_BadLevel(t *testing.T) {
	_, err := configure(logrus.New(), config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
