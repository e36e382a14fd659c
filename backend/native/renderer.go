package native

import (
	"context"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/f3d/backend"
	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/shader"
	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/texture"
)

const (
	depthFormat = gputypes.TextureFormatDepth32Float

	// copyRowAlignment is the required bytes-per-row alignment of
	// texture-to-buffer copies.
	copyRowAlignment = 256
)

func init() {
	backend.Register(backend.BackendNative, func() backend.Renderer {
		r, err := New()
		if err != nil {
			slogger().Debug("native: backend unavailable", "err", err)
			return nil
		}
		return r
	})
}

var _ backend.Renderer = (*Renderer)(nil)

// draw is a recorded draw call and the per-frame resources it owns.
type draw struct {
	pipeline hal.RenderPipeline
	group    hal.BindGroup
	uniforms hal.Buffer
	vertices hal.Buffer
	indices  hal.Buffer
	count    uint32
	scissor  [4]uint32
}

// Stats reports renderer resource usage.
type Stats struct {
	Frames         int
	Pipelines      int
	PipelineHits   uint64
	PipelineMisses uint64
	TextureUploads int
}

// Renderer draws batches with the wgpu HAL into an offscreen target.
type Renderer struct {
	mu  sync.Mutex
	cfg config
	dev *gpuDevice

	groupLayout hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipelines   *pipelineCache
	textures    *textureCache
	white       *gpuTexture

	color      hal.Texture
	colorView  hal.TextureView
	colorUsage gputypes.TextureUsage
	depth      hal.Texture
	depthView  hal.TextureView
	staging    hal.Buffer
	stride     uint32

	draws     []draw
	triangles int
	frames    int
	active    bool
	closed    bool
}

// New opens a device, or borrows one per the options, and creates the
// render target.
func New(opts ...Option) (*Renderer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.width <= 0 || cfg.height <= 0 || cfg.width > maxTarget || cfg.height > maxTarget {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTarget, cfg.width, cfg.height)
	}
	dev, err := openDevice(&cfg)
	if err != nil {
		return nil, err
	}
	r := &Renderer{cfg: cfg, dev: dev}
	if err := r.init(); err != nil {
		r.destroy()
		return nil, err
	}
	slogger().Info("native: renderer ready", "adapter", dev.name, "width", cfg.width, "height", cfg.height, "readback", cfg.readback)
	return r, nil
}

func (r *Renderer) init() error {
	device := r.dev.device
	vis := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment

	var err error
	r.groupLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "f3d_bind_group_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: vis, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: vis, Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}},
			{Binding: 2, Visibility: vis, Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
		},
	})
	if err != nil {
		return fmt.Errorf("native: create bind group layout: %w", err)
	}
	r.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "f3d_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.groupLayout},
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout: %w", err)
	}

	r.pipelines = newPipelineCache(device, r.pipeLayout, r.cfg.format)
	r.textures = newTextureCache(device, r.dev.queue)
	r.white, err = r.textures.upload("f3d_white", &texture.Buffer{Width: 1, Height: 1, Pix: []byte{0xFF, 0xFF, 0xFF, 0xFF}})
	if err != nil {
		return err
	}
	return r.createTargets()
}

func (r *Renderer) createTargets() error {
	device := r.dev.device
	w, h := uint32(r.cfg.width), uint32(r.cfg.height) //nolint:gosec // bounded by maxTarget
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	var err error
	r.color, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "f3d_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        r.cfg.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("native: create color target: %w", err)
	}
	r.colorView, err = device.CreateTextureView(r.color, &hal.TextureViewDescriptor{
		Label:           "f3d_color_view",
		Format:          r.cfg.format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fmt.Errorf("native: create color view: %w", err)
	}

	r.depth, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "f3d_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("native: create depth target: %w", err)
	}
	r.depthView, err = device.CreateTextureView(r.depth, &hal.TextureViewDescriptor{
		Label:           "f3d_depth_view",
		Format:          depthFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fmt.Errorf("native: create depth view: %w", err)
	}

	if !r.cfg.readback {
		return nil
	}
	r.stride = (w*4 + copyRowAlignment - 1) &^ (copyRowAlignment - 1)
	r.staging, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "f3d_readback",
		Size:  uint64(r.stride) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create readback buffer: %w", err)
	}
	return nil
}

// Name returns "native".
func (r *Renderer) Name() string { return backend.BackendNative }

// BeginFrame starts recording a frame.
func (r *Renderer) BeginFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return backend.ErrClosed
	case r.active:
		return backend.ErrFrameActive
	}
	r.active = true
	r.triangles = 0
	return nil
}

// Submit uploads the batch geometry and records one indexed draw. The batch
// is not retained.
func (r *Renderer) Submit(b *batch.Batch, p *shader.Program) error {
	if p == nil {
		return backend.ErrNilProgram
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return fmt.Errorf("native: submit: %w", backend.ErrNotInitialized)
	}
	if len(b.Indices) == 0 {
		return nil
	}
	scissor, ok := r.scissorRect(b.State.Scissor)
	if !ok || backend.ScissorEmpty(b.State.Scissor) {
		return backend.ErrEmptyScissor
	}

	pipeline, err := r.pipelines.get(p, backend.PipelineFor(b))
	if err != nil {
		return err
	}
	d := draw{pipeline: pipeline, scissor: scissor, count: uint32(len(b.Indices))} //nolint:gosec // batches hold at most 64K indices
	if err := r.upload(&d, b); err != nil {
		r.freeDraw(&d)
		return err
	}
	if err := r.bind(&d, b, p); err != nil {
		r.freeDraw(&d)
		return err
	}
	r.draws = append(r.draws, d)
	r.triangles += b.Triangles()
	return nil
}

func (r *Renderer) upload(d *draw, b *batch.Batch) error {
	var err error
	d.vertices, err = r.buffer("f3d_vertices", gputypes.BufferUsageVertex, batch.VertexBytes(b.Vertices))
	if err != nil {
		return err
	}
	d.indices, err = r.buffer("f3d_indices", gputypes.BufferUsageIndex, batch.IndexBytes(b.Indices))
	if err != nil {
		return err
	}
	u := shader.UniformsFor(&b.State)
	d.uniforms, err = r.buffer("f3d_uniforms", gputypes.BufferUsageUniform, u.Bytes())
	return err
}

func (r *Renderer) buffer(label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	buf, err := r.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create %s: %w", label, err)
	}
	if err := r.dev.queue.WriteBuffer(buf, 0, data); err != nil {
		r.dev.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("native: write %s: %w", label, err)
	}
	return buf, nil
}

// bind creates the draw's bind group. Textured programs without a decoded
// texture sample the 1x1 white texture.
func (r *Renderer) bind(d *draw, b *batch.Batch, p *shader.Program) error {
	desc := b.State.Texture
	view := r.white.view
	if p.Key.Textured() && desc != nil && desc.Buffer != nil {
		v, err := r.textures.view(desc)
		if err != nil {
			return err
		}
		view = v
	}
	sampler, err := r.textures.sampler(desc, b.State.OtherMode.Filter())
	if err != nil {
		return err
	}

	d.group, err = r.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "f3d_bind_group",
		Layout: r.groupLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: d.uniforms.NativeHandle(), Size: shader.UniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("native: create bind group: %w", err)
	}
	return nil
}

// scissorRect scales a scissor in 320x240 screen space to the target. It
// reports false for an empty rectangle.
func (r *Renderer) scissorRect(s state.Scissor) ([4]uint32, bool) {
	sx := float64(r.cfg.width) / batch.DefaultScreenWidth
	sy := float64(r.cfg.height) / batch.DefaultScreenHeight
	clampTo := func(v float64, hi int) uint32 {
		return uint32(max(0, min(v, float64(hi))))
	}
	x0 := clampTo(math.Floor(float64(s.X0)*sx), r.cfg.width)
	y0 := clampTo(math.Floor(float64(s.Y0)*sy), r.cfg.height)
	x1 := clampTo(math.Ceil(float64(s.X1)*sx), r.cfg.width)
	y1 := clampTo(math.Ceil(float64(s.Y1)*sy), r.cfg.height)
	if x1 <= x0 || y1 <= y0 {
		return [4]uint32{}, false
	}
	return [4]uint32{x0, y0, x1 - x0, y1 - y0}, true
}

// EndFrame encodes the recorded draws into one render pass, submits it and
// waits for completion.
func (r *Renderer) EndFrame() (*backend.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil, fmt.Errorf("native: end frame: %w", backend.ErrNotInitialized)
	}
	r.active = false
	defer r.releaseFrame()

	frame := &backend.Frame{
		Width:     r.cfg.width,
		Height:    r.cfg.height,
		Draws:     len(r.draws),
		Triangles: r.triangles,
	}
	if err := r.encodeAndSubmit(); err != nil {
		return nil, err
	}
	if r.cfg.readback {
		pix, err := r.readPixels()
		if err != nil {
			return nil, err
		}
		frame.Pixels = pix
	}
	r.frames++
	return frame, nil
}

func (r *Renderer) encodeAndSubmit() error {
	device := r.dev.device
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "f3d_frame"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding("f3d_frame"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	r.transitionColor(enc, gputypes.TextureUsageRenderAttachment)
	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "f3d_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       r.colorView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{A: 1},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1,
		},
	})
	pass.SetViewport(0, 0, float32(r.cfg.width), float32(r.cfg.height), 0, 1)
	for i := range r.draws {
		d := &r.draws[i]
		pass.SetPipeline(d.pipeline)
		pass.SetBindGroup(0, d.group, nil)
		pass.SetVertexBuffer(0, d.vertices, 0)
		pass.SetIndexBuffer(d.indices, gputypes.IndexFormatUint16, 0)
		pass.SetScissorRect(d.scissor[0], d.scissor[1], d.scissor[2], d.scissor[3])
		pass.DrawIndexed(d.count, 1, 0, 0, 0)
	}
	pass.End()

	if r.cfg.readback {
		r.transitionColor(enc, gputypes.TextureUsageCopySrc)
		w, h := uint32(r.cfg.width), uint32(r.cfg.height) //nolint:gosec // bounded by maxTarget
		enc.CopyTextureToBuffer(r.color, r.staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{BytesPerRow: r.stride, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: r.color, Aspect: gputypes.TextureAspectAll},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
	}

	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmd)
	if _, err := r.dev.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	if err := device.WaitIdle(); err != nil {
		return fmt.Errorf("native: wait idle: %w", err)
	}
	return nil
}

func (r *Renderer) transitionColor(enc hal.CommandEncoder, usage gputypes.TextureUsage) {
	if r.colorUsage == usage {
		return
	}
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.color,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1, ArrayLayerCount: 1},
		Usage:   hal.TextureUsageTransition{OldUsage: r.colorUsage, NewUsage: usage},
	}})
	r.colorUsage = usage
}

// readPixels maps the staging buffer and strips the row padding.
func (r *Renderer) readPixels() ([]byte, error) {
	size := uint64(r.stride) * uint64(r.cfg.height)
	m, err := r.dev.device.MapBuffer(r.staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("native: map readback buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(m.Ptr), size)
	row := r.cfg.width * 4
	pix := make([]byte, row*r.cfg.height)
	for y := range r.cfg.height {
		copy(pix[y*row:(y+1)*row], src[y*int(r.stride):])
	}
	if err := r.dev.device.UnmapBuffer(r.staging); err != nil {
		return nil, fmt.Errorf("native: unmap readback buffer: %w", err)
	}
	return pix, nil
}

func (r *Renderer) freeDraw(d *draw) {
	device := r.dev.device
	if d.group != nil {
		device.DestroyBindGroup(d.group)
	}
	for _, buf := range [...]hal.Buffer{d.uniforms, d.vertices, d.indices} {
		if buf != nil {
			device.DestroyBuffer(buf)
		}
	}
}

func (r *Renderer) releaseFrame() {
	for i := range r.draws {
		r.freeDraw(&r.draws[i])
	}
	clear(r.draws)
	r.draws = r.draws[:0]
	r.triangles = 0
	r.textures.release()
}

// Stats returns resource usage counters.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	hits, misses := r.pipelines.stats()
	r.textures.mu.Lock()
	uploads := r.textures.uploads
	r.textures.mu.Unlock()
	return Stats{
		Frames:         r.frames,
		Pipelines:      r.pipelines.len(),
		PipelineHits:   hits,
		PipelineMisses: misses,
		TextureUploads: uploads,
	}
}

// Close releases every GPU resource. A device opened by New is destroyed;
// a borrowed one is left to its owner.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.active {
		r.active = false
		r.releaseFrame()
	}
	r.destroy()
}

func (r *Renderer) destroy() {
	if r.dev == nil {
		return
	}
	device := r.dev.device
	if r.pipelines != nil {
		r.pipelines.destroy()
	}
	if r.textures != nil {
		if r.white != nil {
			r.textures.destroyTexture(r.white)
			r.white = nil
		}
		r.textures.destroy()
	}
	if r.staging != nil {
		device.DestroyBuffer(r.staging)
	}
	if r.depthView != nil {
		device.DestroyTextureView(r.depthView)
	}
	if r.depth != nil {
		device.DestroyTexture(r.depth)
	}
	if r.colorView != nil {
		device.DestroyTextureView(r.colorView)
	}
	if r.color != nil {
		device.DestroyTexture(r.color)
	}
	if r.pipeLayout != nil {
		device.DestroyPipelineLayout(r.pipeLayout)
	}
	if r.groupLayout != nil {
		device.DestroyBindGroupLayout(r.groupLayout)
	}
	r.dev.destroy()
	r.dev = nil
}
