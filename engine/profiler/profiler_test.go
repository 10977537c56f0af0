package profiler

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickLogsAfterInterval(t *testing.T) {
	log, hook := test.NewNullLogger()
	p := NewProfiler(log, time.Hour)

	assert.False(t, p.Tick(nil))
	assert.Empty(t, hook.AllEntries())

	p.lastTime = time.Now().Add(-2 * time.Hour)
	assert.True(t, p.Tick(logrus.Fields{"draws": 3}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "profiler", entry.Message)
	assert.Equal(t, 3, entry.Data["draws"])
	assert.Contains(t, entry.Data, "fps")
	assert.Contains(t, entry.Data, "heap_mb")
	assert.Zero(t, p.frameCount)
}

func TestNewProfilerDefaults(t *testing.T) {
	p := NewProfiler(nil, 0)
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.log)
}
