package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONWithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{AppEnv: "staging", LogFormat: "json", LogLevel: "warn"}, &buf)

	logger.Info("dropped")
	require.Zero(t, buf.Len())

	logger.Warn("stock low", "item_id", 4)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "stock low", entry["msg"])
	require.Equal(t, "staging", entry["env"])
	require.EqualValues(t, 4, entry["item_id"])
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogLevel: "verbose"}, &buf)
	logger.Debug("hidden")
	require.Zero(t, buf.Len())
	logger.Info("shown")
	require.Contains(t, buf.String(), "msg=shown")
}
