package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"enemy_*", "enemy_1", true},
		{"enemy_*", "player", false},
		{"[ab]?", "bx", true},
		{"[ab]?", "cx", false},
		{"re:enemy_[0-9]+", "enemy_12", true},
		{"re:enemy", "enemy_1", false},
		{"re:(?i)PLAYER", "player", true},
	}
	for _, tt := range tests {
		m, err := CompilePattern(tt.pattern)
		require.NoError(t, err, tt.pattern)
		assert.Equal(t, tt.want, m.Match(tt.name), "%s ~ %s", tt.pattern, tt.name)
	}

	_, err := CompilePattern("{a,b")
	assert.Error(t, err)
}

func TestPatternCacheReusesMatchers(t *testing.T) {
	c := newPatternCache()
	m1, err := c.get("a*")
	require.NoError(t, err)
	m2, err := c.get("a*")
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
	assert.Len(t, c.matchers, 1)

	_, err = c.get("[")
	assert.Error(t, err)
	assert.Len(t, c.matchers, 1)
}

func TestPipelineCache(t *testing.T) {
	dev := device.NewRecordingDevice()
	eh, err := dev.CreateEffect(device.EffectDescriptor{Label: "lit", VertexShader: "v", FragmentShader: "f"})
	require.NoError(t, err)

	effect := &Effect{Name: "lit", handle: EffectHandle{index: 0, generation: 1}, deviceHandle: eh}
	main := &RenderPass{
		Name:          "main",
		SampleCount:   4,
		ColourFormats: []device.PixelFormat{device.PixelFormatBGRA8Unorm},
		handle:        RenderPassHandle{index: 0, generation: 1},
	}
	overlay := &RenderPass{
		Name:          "overlay",
		SampleCount:   1,
		ColourFormats: []device.PixelFormat{device.PixelFormatBGRA8Unorm},
		handle:        RenderPassHandle{index: 1, generation: 1},
	}

	c := NewPipelineCache(dev)
	p1, err := c.FindOrBuild(effect, main)
	require.NoError(t, err)
	p2, err := c.FindOrBuild(effect, main)
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	desc, ok := dev.Pipeline(p1.DeviceHandle())
	require.True(t, ok)
	assert.Equal(t, "main/lit", desc.Label)
	assert.Equal(t, uint32(4), desc.SampleCount)
	assert.Equal(t, eh, desc.Effect)

	_, err = c.FindOrBuild(effect, overlay)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	c.ReleaseAll()
	assert.Zero(t, c.Len())
	_, ok = dev.Pipeline(p1.DeviceHandle())
	assert.False(t, ok)
	assert.Equal(t, 1, dev.Live(), "only the effect remains")

	p3, err := c.FindOrBuild(effect, main)
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)
}

func TestPipelineCacheDoesNotCacheFailures(t *testing.T) {
	dev := device.NewRecordingDevice()
	c := NewPipelineCache(dev)

	effect := &Effect{Name: "ghost", handle: EffectHandle{generation: 1}, deviceHandle: 99}
	pass := &RenderPass{Name: "main", SampleCount: 1, ColourFormats: []device.PixelFormat{device.PixelFormatSurface}, handle: RenderPassHandle{generation: 1}}

	_, err := c.FindOrBuild(effect, pass)
	var compileErr *PipelineCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.ErrorIs(t, err, device.ErrPipelineCompile)
	assert.Zero(t, c.Len())
}
