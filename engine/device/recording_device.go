package device

import (
	"fmt"
	"slices"
	"sync"
)

// Submission is one Submit call captured by the recording device.
type Submission struct {
	// CommandBuffer is the submitted handle.
	CommandBuffer CommandBufferHandle
	// Label is the command buffer's label.
	Label string
	// Draws is a copy of the draws recorded at submit time.
	Draws []DrawCommand
}

// CallCounts tallies how many times each creating Device method succeeded.
type CallCounts struct {
	Effects        int
	Buffers        int
	Pipelines      int
	CommandBuffers int
	Records        int
	Submits        int
}

type recordedCommandBuffer struct {
	desc  CommandBufferDescriptor
	draws []DrawCommand
}

// recordingDevice is a headless Device that keeps every created object in memory.
// It is used by tests and by the offline CLI commands.
type recordingDevice struct {
	mu *sync.Mutex

	next uint64

	effects        map[EffectHandle]EffectDescriptor
	buffers        map[BufferHandle][]byte
	pipelines      map[PipelineHandle]PipelineDescriptor
	commandBuffers map[CommandBufferHandle]*recordedCommandBuffer

	submissions []Submission
	counts      CallCounts

	effectFailure   func(EffectDescriptor) error
	pipelineFailure func(PipelineDescriptor) error
}

// RecordingDevice is a Device that records every call for later inspection.
type RecordingDevice interface {
	Device

	// Submissions returns a copy of every Submit call in order.
	//
	// Returns:
	//   - []Submission: the captured submissions
	Submissions() []Submission

	// ResetSubmissions clears the captured submissions.
	ResetSubmissions()

	// Counts returns the successful call tallies.
	//
	// Returns:
	//   - CallCounts: the tallies
	Counts() CallCounts

	// Live returns the number of live (created and not released) objects of every kind.
	//
	// Returns:
	//   - int: the number of live objects
	Live() int

	// Pipeline returns the descriptor a pipeline handle was created with.
	//
	// Parameters:
	//   - h: the pipeline handle
	//
	// Returns:
	//   - PipelineDescriptor: the descriptor
	//   - bool: false if the handle is unknown
	Pipeline(h PipelineHandle) (PipelineDescriptor, bool)

	// BufferData returns the bytes a buffer was created with.
	//
	// Parameters:
	//   - h: the buffer handle
	//
	// Returns:
	//   - []byte: the data
	//   - bool: false if the handle is unknown
	BufferData(h BufferHandle) ([]byte, bool)
}

var _ RecordingDevice = &recordingDevice{}

// NewRecordingDevice creates a headless recording Device.
//
// Parameters:
//   - options: functional options configuring failure injection
//
// Returns:
//   - RecordingDevice: the device
func NewRecordingDevice(options ...RecordingDeviceBuilderOption) RecordingDevice {
	d := &recordingDevice{
		mu:             &sync.Mutex{},
		effects:        make(map[EffectHandle]EffectDescriptor),
		buffers:        make(map[BufferHandle][]byte),
		pipelines:      make(map[PipelineHandle]PipelineDescriptor),
		commandBuffers: make(map[CommandBufferHandle]*recordedCommandBuffer),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *recordingDevice) nextHandle() uint64 {
	d.next++
	return d.next
}

func (d *recordingDevice) Backend() BackendType {
	return BackendTypeRecording
}

func (d *recordingDevice) CreateEffect(desc EffectDescriptor) (EffectHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if desc.VertexShader == "" || desc.FragmentShader == "" {
		return InvalidHandle, fmt.Errorf("%w: effect %q needs both a vertex and a fragment shader", ErrEffectCompile, desc.Label)
	}
	if d.effectFailure != nil {
		if err := d.effectFailure(desc); err != nil {
			return InvalidHandle, fmt.Errorf("%w: %w", ErrEffectCompile, err)
		}
	}
	h := EffectHandle(d.nextHandle())
	desc.UniformBlocks = slices.Clone(desc.UniformBlocks)
	d.effects[h] = desc
	d.counts.Effects++
	return h, nil
}

func (d *recordingDevice) CreateBuffer(label string, data []byte, usage BufferUsage) (BufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(data) == 0 {
		return InvalidHandle, fmt.Errorf("buffer %q: %w", label, ErrEmptyBuffer)
	}
	h := BufferHandle(d.nextHandle())
	d.buffers[h] = slices.Clone(data)
	d.counts.Buffers++
	return h, nil
}

func (d *recordingDevice) CreatePipeline(desc PipelineDescriptor) (PipelineHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.effects[desc.Effect]; !ok {
		return InvalidHandle, fmt.Errorf("%w: pipeline %q references effect %d: %w", ErrPipelineCompile, desc.Label, desc.Effect, ErrUnknownHandle)
	}
	if len(desc.ColourFormats) == 0 && desc.DepthStencilFormat == PixelFormatUndefined {
		return InvalidHandle, fmt.Errorf("%w: pipeline %q has no attachments", ErrPipelineCompile, desc.Label)
	}
	for _, f := range desc.ColourFormats {
		if f.IsDepth() || f == PixelFormatUndefined {
			return InvalidHandle, fmt.Errorf("%w: pipeline %q uses %s as a colour format", ErrPipelineCompile, desc.Label, f)
		}
	}
	if desc.DepthStencilFormat != PixelFormatUndefined && !desc.DepthStencilFormat.IsDepth() {
		return InvalidHandle, fmt.Errorf("%w: pipeline %q uses %s as a depth format", ErrPipelineCompile, desc.Label, desc.DepthStencilFormat)
	}
	if d.pipelineFailure != nil {
		if err := d.pipelineFailure(desc); err != nil {
			return InvalidHandle, fmt.Errorf("%w: %w", ErrPipelineCompile, err)
		}
	}
	h := PipelineHandle(d.nextHandle())
	desc.ColourFormats = slices.Clone(desc.ColourFormats)
	d.pipelines[h] = desc
	d.counts.Pipelines++
	return h, nil
}

func (d *recordingDevice) CreateCommandBuffer(desc CommandBufferDescriptor) (CommandBufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := CommandBufferHandle(d.nextHandle())
	desc.ColourFormats = slices.Clone(desc.ColourFormats)
	d.commandBuffers[h] = &recordedCommandBuffer{desc: desc}
	d.counts.CommandBuffers++
	return h, nil
}

func (d *recordingDevice) Record(cb CommandBufferHandle, draws []DrawCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.commandBuffers[cb]
	if !ok {
		return fmt.Errorf("record into command buffer %d: %w", cb, ErrUnknownHandle)
	}
	for i, dc := range draws {
		if _, ok := d.pipelines[dc.Pipeline]; !ok {
			return fmt.Errorf("draw %d references pipeline %d: %w", i, dc.Pipeline, ErrUnknownHandle)
		}
		if _, ok := d.buffers[dc.VertexBuffer]; !ok {
			return fmt.Errorf("draw %d references vertex buffer %d: %w", i, dc.VertexBuffer, ErrUnknownHandle)
		}
		if _, ok := d.buffers[dc.IndexBuffer]; !ok {
			return fmt.Errorf("draw %d references index buffer %d: %w", i, dc.IndexBuffer, ErrUnknownHandle)
		}
	}
	rec.draws = append(rec.draws[:0], draws...)
	d.counts.Records++
	return nil
}

func (d *recordingDevice) Submit(cb CommandBufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.commandBuffers[cb]
	if !ok {
		return fmt.Errorf("submit command buffer %d: %w", cb, ErrUnknownHandle)
	}
	d.submissions = append(d.submissions, Submission{
		CommandBuffer: cb,
		Label:         rec.desc.Label,
		Draws:         slices.Clone(rec.draws),
	})
	d.counts.Submits++
	return nil
}

func (d *recordingDevice) ReleaseEffect(h EffectHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.effects, h)
}

func (d *recordingDevice) ReleaseBuffer(h BufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, h)
}

func (d *recordingDevice) ReleasePipeline(h PipelineHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipelines, h)
}

func (d *recordingDevice) ReleaseCommandBuffer(h CommandBufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.commandBuffers, h)
}

func (d *recordingDevice) Submissions() []Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.submissions)
}

func (d *recordingDevice) ResetSubmissions() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submissions = nil
}

func (d *recordingDevice) Counts() CallCounts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts
}

func (d *recordingDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.effects) + len(d.buffers) + len(d.pipelines) + len(d.commandBuffers)
}

func (d *recordingDevice) Pipeline(h PipelineHandle) (PipelineDescriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.pipelines[h]
	return desc, ok
}

func (d *recordingDevice) BufferData(h BufferHandle) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.buffers[h]
	return data, ok
}
