package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
)

type pipelineKey struct {
	effect EffectHandle
	pass   RenderPassHandle
}

// PipelineCache owns the device pipelines of a scene, one per (effect, render pass) pair.
type PipelineCache struct {
	dev       device.Device
	pipelines map[pipelineKey]*Pipeline
}

// NewPipelineCache creates an empty cache building pipelines on dev.
//
// Parameters:
//   - dev: the device pipelines are created on
//
// Returns:
//   - *PipelineCache: the cache
func NewPipelineCache(dev device.Device) *PipelineCache {
	if dev == nil {
		panic("scene: NewPipelineCache requires a non-nil Device")
	}
	return &PipelineCache{
		dev:       dev,
		pipelines: make(map[pipelineKey]*Pipeline),
	}
}

// FindOrBuild returns the cached pipeline for (effect, pass) or creates it. A device
// failure is returned as a *PipelineCompileError and nothing is cached.
//
// Parameters:
//   - effect: a baked effect
//   - pass: the render pass the pipeline targets
//
// Returns:
//   - *Pipeline: the pipeline, the same instance for every call with the same pair
//   - error: a *PipelineCompileError
func (c *PipelineCache) FindOrBuild(effect *Effect, pass *RenderPass) (*Pipeline, error) {
	key := pipelineKey{effect: effect.handle, pass: pass.handle}
	if p, ok := c.pipelines[key]; ok {
		return p, nil
	}

	h, err := c.dev.CreatePipeline(device.PipelineDescriptor{
		Label:              fmt.Sprintf("%s/%s", pass.Name, effect.Name),
		Effect:             effect.deviceHandle,
		SampleCount:        pass.SampleCount,
		ColourFormats:      pass.ColourFormats,
		DepthStencilFormat: pass.DepthStencilFormat,
	})
	if err != nil {
		return nil, &PipelineCompileError{Effect: effect.Name, Pass: pass.Name, Err: err}
	}

	p := &Pipeline{Effect: key.effect, Pass: key.pass, handle: h}
	c.pipelines[key] = p
	return p, nil
}

// Len returns the number of cached pipelines.
func (c *PipelineCache) Len() int {
	return len(c.pipelines)
}

// ReleaseAll destroys every cached pipeline.
func (c *PipelineCache) ReleaseAll() {
	for _, p := range c.pipelines {
		c.dev.ReleasePipeline(p.handle)
	}
	clear(c.pipelines)
}
