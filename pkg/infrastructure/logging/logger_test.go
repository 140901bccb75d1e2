package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, lvl)

	lvl, err = ParseLogLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, lvl)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: WarnLevel, Format: TextFormat, Output: &buf})

	logger.Debug("not shown")
	logger.Info("not shown either")
	logger.Warn("shown")
	logger.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "not shown")
	assert.Contains(t, out, "[WARN] shown")
	assert.Contains(t, out, "[ERROR] also shown")
}

func TestTextFormatFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: InfoLevel, Format: TextFormat, Output: &buf})

	logger.WithComponent("worker").WithField("worker_id", 3).Info("started")

	out := buf.String()
	assert.Contains(t, out, "started")
	assert.Contains(t, out, "worker_id=3")
	assert.Contains(t, out, "component=worker")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: &buf, Component: "pipeline"})

	logger.Info("run complete", map[string]interface{}{"tasks": 10})

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "run complete", entry.Message)
	assert.Equal(t, float64(10), entry.Fields["tasks"])
	assert.Equal(t, "pipeline", entry.Fields["component"])
}

func TestFieldLoggerAccumulatesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: DebugLevel, Format: TextFormat, Output: &buf})

	fl := logger.WithField("worker_id", 1).WithField("task_id", 4)
	fl.Debug("processing")

	out := buf.String()
	assert.Contains(t, out, "worker_id=1")
	assert.Contains(t, out, "task_id=4")
}
