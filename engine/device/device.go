// Package device defines the graphics-device boundary consumed by the scene build pipeline.
// The scene core only ever talks to a Device; backends (WebGPU, headless recording) live
// behind it and own every GPU object they hand out as an opaque handle.
package device

import (
	"errors"
	"fmt"
)

// EffectHandle identifies a compiled shader program pairing created by CreateEffect.
type EffectHandle uint64

// BufferHandle identifies a GPU buffer created by CreateBuffer.
type BufferHandle uint64

// PipelineHandle identifies a compiled pipeline state created by CreatePipeline.
type PipelineHandle uint64

// CommandBufferHandle identifies a command buffer created by CreateCommandBuffer.
type CommandBufferHandle uint64

// InvalidHandle is the zero value of every handle type. Backends never return it for a live object.
const InvalidHandle = 0

// BackendType identifies the Device implementation.
type BackendType int

const (
	// BackendTypeRecording selects the headless, in-memory recording backend.
	BackendTypeRecording BackendType = iota

	// BackendTypeWGPU selects the WebGPU backend.
	BackendTypeWGPU
)

// String returns the lower-case backend name.
func (b BackendType) String() string {
	switch b {
	case BackendTypeRecording:
		return "recording"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// BufferUsage describes how a buffer created by CreateBuffer will be bound.
type BufferUsage int

const (
	// BufferUsageVertex marks a buffer holding vertex data.
	BufferUsageVertex BufferUsage = iota

	// BufferUsageIndex marks a buffer holding 32-bit index data.
	BufferUsageIndex

	// BufferUsageUniform marks a buffer holding uniform data.
	BufferUsageUniform
)

var (
	// ErrPipelineCompile is wrapped by backends when the device rejects a
	// shader / target format combination.
	ErrPipelineCompile = errors.New("device: pipeline compilation failed")

	// ErrEffectCompile is wrapped by backends when an effect's shaders cannot be created.
	ErrEffectCompile = errors.New("device: effect creation failed")

	// ErrUnknownHandle means a handle was not created by this device or was already released.
	ErrUnknownHandle = errors.New("device: unknown handle")

	// ErrEmptyBuffer means CreateBuffer was called with no data.
	ErrEmptyBuffer = errors.New("device: buffer data is empty")

	// ErrUnknownPixelFormat is returned by ParsePixelFormat for unrecognised names.
	ErrUnknownPixelFormat = errors.New("device: unknown pixel format")
)

// EffectDescriptor describes a shader program pairing.
type EffectDescriptor struct {
	// Label is a debug name for the effect, usually the effect name from the scene description.
	Label string
	// VertexShader is the name of the vertex shader to resolve.
	VertexShader string
	// FragmentShader is the name of the fragment shader to resolve.
	FragmentShader string
	// UniformBlocks lists the uniform block names the effect declares.
	UniformBlocks []string
}

// PipelineDescriptor combines an effect with a render target configuration.
type PipelineDescriptor struct {
	// Label is a debug name for the pipeline.
	Label string
	// Effect is the compiled shader pairing.
	Effect EffectHandle
	// SampleCount is the MSAA sample count of the render target (1 = off).
	SampleCount uint32
	// ColourFormats lists the colour attachment formats in attachment order.
	ColourFormats []PixelFormat
	// DepthStencilFormat is the depth/stencil attachment format, PixelFormatUndefined for none.
	DepthStencilFormat PixelFormat
}

// CommandBufferDescriptor describes the render target a command buffer draws into.
type CommandBufferDescriptor struct {
	// Label is a debug name for the command buffer.
	Label string
	// SampleCount is the MSAA sample count of the render target (1 = off).
	SampleCount uint32
	// ColourFormats lists the colour attachment formats in attachment order.
	ColourFormats []PixelFormat
	// DepthStencilFormat is the depth/stencil attachment format, PixelFormatUndefined for none.
	DepthStencilFormat PixelFormat
}

// DrawCommand is one indexed draw recorded into a command buffer.
type DrawCommand struct {
	// Pipeline is the pipeline state to bind.
	Pipeline PipelineHandle
	// VertexBuffer is bound at vertex slot 0.
	VertexBuffer BufferHandle
	// IndexBuffer holds uint32 indices.
	IndexBuffer BufferHandle
	// IndexCount is the number of indices to draw.
	IndexCount uint32
	// Position is the world position of the drawn object, exposed to the vertex stage as a uniform.
	Position [4]float32
}

// Device is the graphics-device abstraction the scene build pipeline is written against.
// A Device is safe for use from one goroutine at a time per scene; backends serialize
// their own internal state.
type Device interface {
	// Backend reports which implementation this is.
	//
	// Returns:
	//   - BackendType: the backend type
	Backend() BackendType

	// CreateEffect creates the GPU program objects for a vertex/fragment shader pairing.
	//
	// Parameters:
	//   - desc: the effect descriptor
	//
	// Returns:
	//   - EffectHandle: handle to the created effect
	//   - error: an error wrapping ErrEffectCompile if the shaders cannot be created
	CreateEffect(desc EffectDescriptor) (EffectHandle, error)

	// CreateBuffer creates a GPU buffer and uploads data into it.
	//
	// Parameters:
	//   - label: debug name for the buffer
	//   - data: the bytes to upload; must not be empty
	//   - usage: how the buffer will be bound
	//
	// Returns:
	//   - BufferHandle: handle to the created buffer
	//   - error: an error if creation fails
	CreateBuffer(label string, data []byte, usage BufferUsage) (BufferHandle, error)

	// CreatePipeline compiles an effect against a render target configuration.
	//
	// Parameters:
	//   - desc: the pipeline descriptor
	//
	// Returns:
	//   - PipelineHandle: handle to the compiled pipeline
	//   - error: an error wrapping ErrPipelineCompile if the combination is rejected
	CreatePipeline(desc PipelineDescriptor) (PipelineHandle, error)

	// CreateCommandBuffer creates an empty command buffer for a render target.
	//
	// Parameters:
	//   - desc: the command buffer descriptor
	//
	// Returns:
	//   - CommandBufferHandle: handle to the created command buffer
	//   - error: an error if creation fails
	CreateCommandBuffer(desc CommandBufferDescriptor) (CommandBufferHandle, error)

	// Record replaces the draw list of a command buffer.
	//
	// Parameters:
	//   - cb: the command buffer to record into
	//   - draws: the draws in submission order
	//
	// Returns:
	//   - error: an error if the command buffer or a referenced handle is unknown
	Record(cb CommandBufferHandle, draws []DrawCommand) error

	// Submit submits a recorded command buffer for execution.
	//
	// Parameters:
	//   - cb: the command buffer to submit
	//
	// Returns:
	//   - error: an error if submission fails
	Submit(cb CommandBufferHandle) error

	// ReleaseEffect destroys an effect. Unknown handles are ignored.
	ReleaseEffect(h EffectHandle)

	// ReleaseBuffer destroys a buffer. Unknown handles are ignored.
	ReleaseBuffer(h BufferHandle)

	// ReleasePipeline destroys a pipeline. Unknown handles are ignored.
	ReleasePipeline(h PipelineHandle)

	// ReleaseCommandBuffer destroys a command buffer. Unknown handles are ignored.
	ReleaseCommandBuffer(h CommandBufferHandle)
}

// Presenter is implemented by devices that render to a swapchain and need an explicit
// end-of-frame present after all command buffers of a frame were submitted.
type Presenter interface {
	// Present presents the current frame, if any command buffer was submitted since the last call.
	Present()

	// Resize reconfigures the swapchain for a new surface size in pixels.
	Resize(width, height int)
}
