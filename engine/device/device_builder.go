package device

// RecordingDeviceBuilderOption is a functional option applied to a recording device during NewRecordingDevice.
type RecordingDeviceBuilderOption func(*recordingDevice)

// WithPipelineFailure installs a hook that can reject pipeline creation. A non-nil error
// returned by fn is wrapped with ErrPipelineCompile.
//
// Parameters:
//   - fn: called with every pipeline descriptor before a pipeline is created
//
// Returns:
//   - RecordingDeviceBuilderOption: a function that applies the hook to a recording device
func WithPipelineFailure(fn func(PipelineDescriptor) error) RecordingDeviceBuilderOption {
	return func(d *recordingDevice) {
		d.pipelineFailure = fn
	}
}

// WithEffectFailure installs a hook that can reject effect creation. A non-nil error
// returned by fn is wrapped with ErrEffectCompile.
//
// Parameters:
//   - fn: called with every effect descriptor before an effect is created
//
// Returns:
//   - RecordingDeviceBuilderOption: a function that applies the hook to a recording device
func WithEffectFailure(fn func(EffectDescriptor) error) RecordingDeviceBuilderOption {
	return func(d *recordingDevice) {
		d.effectFailure = fn
	}
}

// WGPUDeviceBuilderOption is a functional option applied to the WebGPU device during NewWGPUDevice.
type WGPUDeviceBuilderOption func(*wgpuDevice)

// WithPresentMode sets whether frames wait for vertical blank.
//
// Parameters:
//   - vsync: true for FIFO presentation, false for immediate (default)
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that applies the present mode to the device
func WithPresentMode(vsync bool) WGPUDeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.vsync = vsync
	}
}

// WithForceSoftwareAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD (e.g. lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that applies the adapter option to the device
func WithForceSoftwareAdapter(force bool) WGPUDeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.forceFallbackAdapter = force
	}
}

// WithClearColour sets the colour the first render pass of every frame clears to.
//
// Parameters:
//   - rgba: the clear colour
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that applies the clear colour to the device
func WithClearColour(rgba [4]float64) WGPUDeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.clearColour = rgba
	}
}

// WithSurfaceSize sets the initial swapchain size in pixels.
//
// Parameters:
//   - width: surface width in pixels
//   - height: surface height in pixels
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that applies the size to the device
func WithSurfaceSize(width, height int) WGPUDeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.width = width
		d.height = height
	}
}
