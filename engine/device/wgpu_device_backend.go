package device

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// actorUniformSize is the byte size of the per-draw uniform block (one vec4f).
const actorUniformSize = 16

type wgpuEffect struct {
	vs, fs       *wgpu.ShaderModule
	vsEntry      string
	fsEntry      string
	vertexLayout wgpu.VertexBufferLayout
}

type wgpuPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
}

type wgpuCommandBuffer struct {
	desc  CommandBufferDescriptor
	draws []DrawCommand

	// uniforms[i] and bindGroups[i] hold the actor uniform for draw i and grow on demand.
	uniforms   []*wgpu.Buffer
	bindGroups []*wgpu.BindGroup
}

type targetKey struct {
	sampleCount uint32
	depth       PixelFormat
}

type renderTargets struct {
	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
}

func (t *renderTargets) release() {
	if t.msaaView != nil {
		t.msaaView.Release()
	}
	if t.msaaTexture != nil {
		t.msaaTexture.Release()
	}
	if t.depthView != nil {
		t.depthView.Release()
	}
	if t.depthTexture != nil {
		t.depthTexture.Release()
	}
}

// wgpuDevice is the WebGPU implementation of Device. It renders every command buffer into
// the presentation surface; the first submit of a frame clears it.
type wgpuDevice struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	shaders  shader.Library

	surfaceFormat wgpu.TextureFormat
	width, height int

	vsync                bool
	forceFallbackAdapter bool
	clearColour          [4]float64

	actorLayout *wgpu.BindGroupLayout

	next           uint64
	effects        map[EffectHandle]*wgpuEffect
	buffers        map[BufferHandle]*wgpu.Buffer
	pipelines      map[PipelineHandle]*wgpuPipeline
	commandBuffers map[CommandBufferHandle]*wgpuCommandBuffer
	targets        map[targetKey]*renderTargets

	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameCleared bool
}

// WGPUDevice is a Device backed by WebGPU that presents to a window surface.
type WGPUDevice interface {
	Device
	Presenter

	// Destroy releases every object the device still owns, then the device itself.
	Destroy()
}

var _ WGPUDevice = &wgpuDevice{}

// NewWGPUDevice creates a WebGPU device bound to a window surface. It locks the calling
// goroutine to its OS thread, so it must be called from the render goroutine.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor, usually from window.SurfaceDescriptor
//   - shaders: the library effect shader names are resolved against
//   - options: functional options configuring the device
//
// Returns:
//   - WGPUDevice: the device
//   - error: an error if no adapter or device could be acquired
func NewWGPUDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, shaders shader.Library, options ...WGPUDeviceBuilderOption) (WGPUDevice, error) {
	if shaders == nil {
		panic("device: NewWGPUDevice requires a non-nil shader.Library")
	}
	runtime.LockOSThread()

	d := &wgpuDevice{
		mu:             &sync.Mutex{},
		instance:       wgpu.CreateInstance(nil),
		shaders:        shaders,
		width:          1280,
		height:         720,
		clearColour:    [4]float64{0.1, 0.1, 0.1, 1.0},
		effects:        make(map[EffectHandle]*wgpuEffect),
		buffers:        make(map[BufferHandle]*wgpu.Buffer),
		pipelines:      make(map[PipelineHandle]*wgpuPipeline),
		commandBuffers: make(map[CommandBufferHandle]*wgpuCommandBuffer),
		targets:        make(map[targetKey]*renderTargets),
	}
	for _, opt := range options {
		opt(d)
	}

	d.surface = d.instance.CreateSurface(surfaceDescriptor)

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Scene Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	d.actorLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Actor Uniform Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: actorUniformSize,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create actor bind group layout: %w", err)
	}

	d.configureSurface()
	return d, nil
}

func (d *wgpuDevice) nextHandle() uint64 {
	d.next++
	return d.next
}

// configureSurface must be called with mu held or before the device is shared.
func (d *wgpuDevice) configureSurface() {
	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surfaceFormat = capabilities.Formats[0]

	presentMode := wgpu.PresentModeImmediate
	if d.vsync {
		presentMode = wgpu.PresentModeFifo
	}
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(d.width),
		Height:      uint32(d.height),
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	// Attachments are sized to the surface and recreated lazily.
	for k, t := range d.targets {
		t.release()
		delete(d.targets, k)
	}
}

func (d *wgpuDevice) Backend() BackendType {
	return BackendTypeWGPU
}

func (d *wgpuDevice) Resize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	d.width, d.height = width, height
	d.configureSurface()
}

func (d *wgpuDevice) CreateEffect(desc EffectDescriptor) (EffectHandle, error) {
	vsShader, err := d.shaders.Lookup(desc.VertexShader)
	if err != nil {
		return InvalidHandle, fmt.Errorf("%w: effect %q: %w", ErrEffectCompile, desc.Label, err)
	}
	fsShader, err := d.shaders.Lookup(desc.FragmentShader)
	if err != nil {
		return InvalidHandle, fmt.Errorf("%w: effect %q: %w", ErrEffectCompile, desc.Label, err)
	}
	if vsShader.Stage() != shader.StageVertex || fsShader.Stage() != shader.StageFragment {
		return InvalidHandle, fmt.Errorf("%w: effect %q pairs %s/%s shaders", ErrEffectCompile, desc.Label, vsShader.Stage(), fsShader.Stage())
	}
	layout, ok := vsShader.VertexLayout()
	if !ok {
		return InvalidHandle, fmt.Errorf("%w: vertex shader %q declares no vertex input struct", ErrEffectCompile, desc.VertexShader)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	vs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vsShader.Name(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vsShader.Source(),
		},
	})
	if err != nil {
		return InvalidHandle, fmt.Errorf("%w: %w", ErrEffectCompile, err)
	}
	fs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fsShader.Name(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fsShader.Source(),
		},
	})
	if err != nil {
		vs.Release()
		return InvalidHandle, fmt.Errorf("%w: %w", ErrEffectCompile, err)
	}

	h := EffectHandle(d.nextHandle())
	d.effects[h] = &wgpuEffect{
		vs:           vs,
		fs:           fs,
		vsEntry:      vsShader.EntryPoint(),
		fsEntry:      fsShader.EntryPoint(),
		vertexLayout: layout,
	}
	return h, nil
}

func (d *wgpuDevice) CreateBuffer(label string, data []byte, usage BufferUsage) (BufferHandle, error) {
	if len(data) == 0 {
		return InvalidHandle, fmt.Errorf("buffer %q: %w", label, ErrEmptyBuffer)
	}

	var u wgpu.BufferUsage
	switch usage {
	case BufferUsageVertex:
		u = wgpu.BufferUsageVertex
	case BufferUsageIndex:
		u = wgpu.BufferUsageIndex
	case BufferUsageUniform:
		u = wgpu.BufferUsageUniform
	default:
		return InvalidHandle, fmt.Errorf("buffer %q: unknown usage %d", label, usage)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: u | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return InvalidHandle, err
	}
	d.queue.WriteBuffer(buf, 0, data)

	h := BufferHandle(d.nextHandle())
	d.buffers[h] = buf
	return h, nil
}

func (d *wgpuDevice) CreatePipeline(desc PipelineDescriptor) (PipelineHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	effect, ok := d.effects[desc.Effect]
	if !ok {
		return InvalidHandle, fmt.Errorf("%w: pipeline %q references effect %d: %w", ErrPipelineCompile, desc.Label, desc.Effect, ErrUnknownHandle)
	}
	if len(desc.ColourFormats) != 1 {
		return InvalidHandle, fmt.Errorf("%w: pipeline %q needs exactly one colour target, got %d", ErrPipelineCompile, desc.Label, len(desc.ColourFormats))
	}
	colour := desc.ColourFormats[0].toWGPU(d.surfaceFormat)
	if colour != d.surfaceFormat {
		return InvalidHandle, fmt.Errorf("%w: pipeline %q colour format %s does not match the surface", ErrPipelineCompile, desc.Label, desc.ColourFormats[0])
	}
	if desc.DepthStencilFormat != PixelFormatUndefined && !desc.DepthStencilFormat.IsDepth() {
		return InvalidHandle, fmt.Errorf("%w: pipeline %q uses %s as a depth format", ErrPipelineCompile, desc.Label, desc.DepthStencilFormat)
	}
	sampleCount := common.Coalesce(desc.SampleCount, 1)
	if sampleCount != 1 && sampleCount != 4 {
		return InvalidHandle, fmt.Errorf("%w: pipeline %q sample count %d is not 1 or 4", ErrPipelineCompile, desc.Label, sampleCount)
	}

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{d.actorLayout},
	})
	if err != nil {
		return InvalidHandle, fmt.Errorf("%w: %w", ErrPipelineCompile, err)
	}

	var depthStencil *wgpu.DepthStencilState
	if desc.DepthStencilFormat != PixelFormatUndefined {
		depthStencil = &wgpu.DepthStencilState{
			Format:            desc.DepthStencilFormat.toWGPU(d.surfaceFormat),
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     effect.vs,
			EntryPoint: effect.vsEntry,
			Buffers:    []wgpu.VertexBufferLayout{effect.vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     effect.fs,
			EntryPoint: effect.fsEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    colour,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		layout.Release()
		return InvalidHandle, fmt.Errorf("%w: %w", ErrPipelineCompile, err)
	}

	h := PipelineHandle(d.nextHandle())
	d.pipelines[h] = &wgpuPipeline{pipeline: created, layout: layout}
	return h, nil
}

func (d *wgpuDevice) CreateCommandBuffer(desc CommandBufferDescriptor) (CommandBufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	desc.SampleCount = common.Coalesce(desc.SampleCount, 1)
	h := CommandBufferHandle(d.nextHandle())
	d.commandBuffers[h] = &wgpuCommandBuffer{desc: desc}
	return h, nil
}

func (d *wgpuDevice) Record(cb CommandBufferHandle, draws []DrawCommand) error {
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
	return d.ensureUniforms(rec, len(draws))
}

// ensureUniforms grows the per-draw uniform pool of a command buffer to n entries.
func (d *wgpuDevice) ensureUniforms(rec *wgpuCommandBuffer, n int) error {
	for len(rec.uniforms) < n {
		buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s Actor Uniform %d", rec.desc.Label, len(rec.uniforms)),
			Size:  actorUniformSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  rec.desc.Label + " Actor Bind Group",
			Layout: d.actorLayout,
			Entries: []wgpu.BindGroupEntry{
				{
					Binding: 0,
					Buffer:  buf,
					Offset:  0,
					Size:    wgpu.WholeSize,
				},
			},
		})
		if err != nil {
			buf.Release()
			return err
		}
		rec.uniforms = append(rec.uniforms, buf)
		rec.bindGroups = append(rec.bindGroups, bg)
	}
	return nil
}

// targetsFor returns the MSAA and depth attachments for a render target configuration,
// creating them at the current surface size on first use.
func (d *wgpuDevice) targetsFor(sampleCount uint32, depth PixelFormat) (*renderTargets, error) {
	key := targetKey{sampleCount: sampleCount, depth: depth}
	if t, ok := d.targets[key]; ok {
		return t, nil
	}

	t := &renderTargets{}
	size := wgpu.Extent3D{
		Width:              uint32(d.width),
		Height:             uint32(d.height),
		DepthOrArrayLayers: 1,
	}
	var err error
	if sampleCount > 1 {
		t.msaaTexture, err = d.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   sampleCount,
			Dimension:     wgpu.TextureDimension2D,
			Format:        d.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return nil, err
		}
		if t.msaaView, err = t.msaaTexture.CreateView(nil); err != nil {
			t.release()
			return nil, err
		}
	}
	if depth != PixelFormatUndefined {
		t.depthTexture, err = d.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "Depth Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   sampleCount,
			Dimension:     wgpu.TextureDimension2D,
			Format:        depth.toWGPU(d.surfaceFormat),
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			t.release()
			return nil, err
		}
		if t.depthView, err = t.depthTexture.CreateView(nil); err != nil {
			t.release()
			return nil, err
		}
	}
	d.targets[key] = t
	return t, nil
}

// beginFrame acquires the swapchain texture for the current frame if none is held.
func (d *wgpuDevice) beginFrame() error {
	if d.frameSurface != nil {
		return nil
	}
	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	d.frameSurface = surfaceTexture
	d.frameView = view
	d.frameCleared = false
	return nil
}

func (d *wgpuDevice) Submit(cb CommandBufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.commandBuffers[cb]
	if !ok {
		return fmt.Errorf("submit command buffer %d: %w", cb, ErrUnknownHandle)
	}
	if err := d.beginFrame(); err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
	targets, err := d.targetsFor(rec.desc.SampleCount, rec.desc.DepthStencilFormat)
	if err != nil {
		return fmt.Errorf("failed to create render targets: %w", err)
	}

	for i, dc := range rec.draws {
		d.queue.WriteBuffer(rec.uniforms[i], 0, common.SliceToBytes(dc.Position[:]))
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	loadOp := wgpu.LoadOpLoad
	if !d.frameCleared {
		loadOp = wgpu.LoadOpClear
	}
	colour := wgpu.RenderPassColorAttachment{
		View:    d.frameView,
		LoadOp:  loadOp,
		StoreOp: wgpu.StoreOpStore,
		ClearValue: wgpu.Color{
			R: d.clearColour[0], G: d.clearColour[1], B: d.clearColour[2], A: d.clearColour[3],
		},
	}
	if targets.msaaView != nil {
		colour.View = targets.msaaView
		colour.ResolveTarget = d.frameView
		colour.StoreOp = wgpu.StoreOpDiscard
	}
	passDesc := &wgpu.RenderPassDescriptor{
		Label:            rec.desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{colour},
	}
	if targets.depthView != nil {
		passDesc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            targets.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}

	pass := encoder.BeginRenderPass(passDesc)
	for i, dc := range rec.draws {
		p, pok := d.pipelines[dc.Pipeline]
		vb, vok := d.buffers[dc.VertexBuffer]
		ib, iok := d.buffers[dc.IndexBuffer]
		if !pok || !vok || !iok {
			pass.End()
			return fmt.Errorf("draw %d of %q: %w", i, rec.desc.Label, ErrUnknownHandle)
		}
		pass.SetPipeline(p.pipeline)
		pass.SetBindGroup(0, rec.bindGroups[i], nil)
		pass.SetVertexBuffer(0, vb, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(ib, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(dc.IndexCount, 1, 0, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	d.frameCleared = true
	return nil
}

func (d *wgpuDevice) Present() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameSurface == nil {
		return
	}
	d.surface.Present()
	d.frameView.Release()
	d.frameSurface.Release()
	d.frameView = nil
	d.frameSurface = nil
}

func (d *wgpuDevice) ReleaseEffect(h EffectHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.effects[h]; ok {
		e.vs.Release()
		e.fs.Release()
		delete(d.effects, h)
	}
}

func (d *wgpuDevice) ReleaseBuffer(h BufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[h]; ok {
		b.Release()
		delete(d.buffers, h)
	}
}

func (d *wgpuDevice) ReleasePipeline(h PipelineHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pipelines[h]; ok {
		p.pipeline.Release()
		p.layout.Release()
		delete(d.pipelines, h)
	}
}

func (d *wgpuDevice) ReleaseCommandBuffer(h CommandBufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.commandBuffers[h]; ok {
		releaseCommandBuffer(rec)
		delete(d.commandBuffers, h)
	}
}

func releaseCommandBuffer(rec *wgpuCommandBuffer) {
	for _, bg := range rec.bindGroups {
		bg.Release()
	}
	for _, buf := range rec.uniforms {
		buf.Release()
	}
	rec.bindGroups = nil
	rec.uniforms = nil
}

func (d *wgpuDevice) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameSurface != nil {
		d.frameView.Release()
		d.frameSurface.Release()
	}
	for _, rec := range d.commandBuffers {
		releaseCommandBuffer(rec)
	}
	for _, p := range d.pipelines {
		p.pipeline.Release()
		p.layout.Release()
	}
	for _, e := range d.effects {
		e.vs.Release()
		e.fs.Release()
	}
	for _, b := range d.buffers {
		b.Release()
	}
	for _, t := range d.targets {
		t.release()
	}
	clear(d.commandBuffers)
	clear(d.pipelines)
	clear(d.effects)
	clear(d.buffers)
	clear(d.targets)

	d.actorLayout.Release()
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.surface.Release()
	d.instance.Release()
}
