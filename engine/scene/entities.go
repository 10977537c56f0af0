package scene

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// Effect pairs a vertex and a fragment shader. The device effect is created on Bake.
type Effect struct {
	Name           string
	VertexShader   string
	FragmentShader string
	UniformBlocks  []string

	handle       EffectHandle
	deviceHandle device.EffectHandle
}

// Handle returns the registry handle of the effect.
func (e *Effect) Handle() EffectHandle {
	return e.handle
}

// DeviceHandle returns the device effect, device.InvalidHandle before Bake.
func (e *Effect) DeviceHandle() device.EffectHandle {
	return e.deviceHandle
}

// Model is a registered model. Source is the caller's geometry; the scene uploads it on
// Load and releases its GPU buffers on Release.
type Model struct {
	Name   string
	Source model.Model

	handle ModelHandle
}

// Handle returns the registry handle of the model.
func (m *Model) Handle() ModelHandle {
	return m.handle
}

// PhysicsBody is the per-actor state integrated by Update. W components are carried
// through untouched.
type PhysicsBody struct {
	Position mgl32.Vec4
	Velocity mgl32.Vec4
}

// Integrate advances the position by velocity*dt in x, y and z.
//
// Parameters:
//   - dt: the time step in seconds
func (b *PhysicsBody) Integrate(dt float32) {
	p := b.Position.Vec3().Add(b.Velocity.Vec3().Mul(dt))
	b.Position = p.Vec4(b.Position.W())
}

// Actor is a placed instance of a model drawn with an effect.
type Actor struct {
	Name            string
	Body            PhysicsBody
	Model           ModelHandle
	Effect          EffectHandle
	AttributeBlocks []string

	handle ActorHandle
}

// Handle returns the registry handle of the actor.
func (a *Actor) Handle() ActorHandle {
	return a.handle
}

// RenderPass selects actors by name pattern and owns the command buffers drawing them.
type RenderPass struct {
	Name               string
	Pattern            string
	SampleCount        uint32
	ColourFormats      []device.PixelFormat
	DepthStencilFormat device.PixelFormat

	handle         RenderPassHandle
	actors         []ActorHandle
	commandBuffers []*CommandBuffer
}

// Handle returns the registry handle of the render pass.
func (p *RenderPass) Handle() RenderPassHandle {
	return p.handle
}

// Actors returns the actors matched by the last successful resolve, in registry order.
//
// Returns:
//   - []ActorHandle: a copy of the matched actors
func (p *RenderPass) Actors() []ActorHandle {
	return slices.Clone(p.actors)
}

// CommandBuffers returns the pass's baked command buffers.
//
// Returns:
//   - []*CommandBuffer: the command buffers, empty before the first successful bake of the pass
func (p *RenderPass) CommandBuffers() []*CommandBuffer {
	return slices.Clone(p.commandBuffers)
}

// Pipeline is the device pipeline for one (effect, render pass) pair.
type Pipeline struct {
	Effect EffectHandle
	Pass   RenderPassHandle

	handle device.PipelineHandle
}

// DeviceHandle returns the device pipeline.
func (p *Pipeline) DeviceHandle() device.PipelineHandle {
	return p.handle
}

// Draw binds one actor to the pipeline it is drawn with.
type Draw struct {
	Actor    ActorHandle
	Pipeline *Pipeline
}

// CommandBuffer is an ordered draw list backed by a device command buffer.
type CommandBuffer struct {
	handle device.CommandBufferHandle
	draws  []Draw
}

// DeviceHandle returns the device command buffer.
func (c *CommandBuffer) DeviceHandle() device.CommandBufferHandle {
	return c.handle
}

// Draws returns the draws in actor match order.
//
// Returns:
//   - []Draw: a copy of the draw list
func (c *CommandBuffer) Draws() []Draw {
	return slices.Clone(c.draws)
}
