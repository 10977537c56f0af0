package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
)

func (sm *sceneMan) BuildCommandBuffers(h RenderPassHandle) error {
	pass, ok := sm.reg.renderPasses.get(h)
	if !ok {
		return fmt.Errorf("scene: unknown render pass handle %s", h)
	}

	draws := make([]Draw, 0, len(pass.actors))
	for _, ah := range pass.actors {
		actor, ok := sm.reg.actors.get(ah)
		if !ok {
			return fmt.Errorf("render pass %q: stale actor handle %s", pass.Name, ah)
		}
		p, err := sm.FindOrBuildPipeline(actor.Effect, h)
		if err != nil {
			return err
		}
		draws = append(draws, Draw{Actor: ah, Pipeline: p})
	}

	cbh, err := sm.dev.CreateCommandBuffer(device.CommandBufferDescriptor{
		Label:              pass.Name,
		SampleCount:        pass.SampleCount,
		ColourFormats:      pass.ColourFormats,
		DepthStencilFormat: pass.DepthStencilFormat,
	})
	if err != nil {
		return fmt.Errorf("render pass %q: failed to create command buffer: %w", pass.Name, err)
	}

	previous := pass.commandBuffers
	pass.commandBuffers = []*CommandBuffer{{handle: cbh, draws: draws}}
	for _, cb := range previous {
		sm.dev.ReleaseCommandBuffer(cb.handle)
	}
	return nil
}

// releaseCommandBuffers destroys the pass's command buffers.
func (sm *sceneMan) releaseCommandBuffers(pass *RenderPass) {
	for _, cb := range pass.commandBuffers {
		sm.dev.ReleaseCommandBuffer(cb.handle)
	}
	pass.commandBuffers = nil
}

// recordCommandBuffer rebuilds the device draw list of cb from current actor state and
// submits it.
func (sm *sceneMan) recordCommandBuffer(cb *CommandBuffer) error {
	sm.drawScratch = sm.drawScratch[:0]
	for _, d := range cb.draws {
		actor, ok := sm.reg.actors.get(d.Actor)
		if !ok {
			return fmt.Errorf("stale actor handle %s in command buffer", d.Actor)
		}
		m, ok := sm.reg.models.get(actor.Model)
		if !ok {
			return fmt.Errorf("actor %q: stale model handle %s", actor.Name, actor.Model)
		}
		for _, mesh := range m.Source.Meshes() {
			sm.drawScratch = append(sm.drawScratch, device.DrawCommand{
				Pipeline:     d.Pipeline.handle,
				VertexBuffer: mesh.VertexBuffer(),
				IndexBuffer:  mesh.IndexBuffer(),
				IndexCount:   uint32(mesh.IndexCount()),
				Position:     actor.Body.Position,
			})
		}
	}

	if err := sm.dev.Record(cb.handle, sm.drawScratch); err != nil {
		return fmt.Errorf("failed to record command buffer: %w", err)
	}
	if err := sm.dev.Submit(cb.handle); err != nil {
		return fmt.Errorf("failed to submit command buffer: %w", err)
	}
	return nil
}
