package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "JSON", &buf)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithFields(logrus.Fields{"stage": "bake"}).Info("done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bake", entry["stage"])
	assert.Equal(t, "done", entry["msg"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New("loud", "text", &buf)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestInitReadsEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	Init()
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, Log.Formatter)
}
