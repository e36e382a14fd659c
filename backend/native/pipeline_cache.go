package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/f3d/backend"
	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/shader"
)

// Depth bias applied to decal geometry so it wins the depth test against
// the surface it lies on.
const (
	decalDepthBias      = -2
	decalDepthBiasSlope = -1
)

type pipelineKey struct {
	shader shader.Key
	state  backend.PipelineState
}

// pipelineCache caches shader modules per shader key and render pipelines
// per (shader key, pipeline state). It is safe for concurrent use.
type pipelineCache struct {
	mu        sync.RWMutex
	modules   map[shader.Key]hal.ShaderModule
	pipelines map[pipelineKey]hal.RenderPipeline

	device hal.Device
	layout hal.PipelineLayout
	format gputypes.TextureFormat

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newPipelineCache(device hal.Device, layout hal.PipelineLayout, format gputypes.TextureFormat) *pipelineCache {
	return &pipelineCache{
		modules:   make(map[shader.Key]hal.ShaderModule),
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
		device:    device,
		layout:    layout,
		format:    format,
	}
}

// get returns the pipeline for p drawn with ps, creating it on first use.
func (c *pipelineCache) get(p *shader.Program, ps backend.PipelineState) (hal.RenderPipeline, error) {
	key := pipelineKey{shader: p.Key, state: ps}

	c.mu.RLock()
	if pl, ok := c.pipelines[key]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return pl, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if pl, ok := c.pipelines[key]; ok {
		c.hits.Add(1)
		return pl, nil
	}

	module, err := c.moduleLocked(p)
	if err != nil {
		return nil, err
	}
	pl, err := c.device.CreateRenderPipeline(c.descriptor(module, p.Key, ps))
	if err != nil {
		return nil, fmt.Errorf("native: create pipeline %s/%s: %w", p.Key, ps, err)
	}
	c.pipelines[key] = pl
	c.misses.Add(1)
	slogger().Debug("native: pipeline created", "shader", p.Key.String(), "state", ps.String())
	return pl, nil
}

func (c *pipelineCache) moduleLocked(p *shader.Program) (hal.ShaderModule, error) {
	if m, ok := c.modules[p.Key]; ok {
		return m, nil
	}
	var src hal.ShaderSource
	switch {
	case len(p.SPIRV) > 0:
		src.SPIRV = p.SPIRV
	case p.WGSL != "":
		src.WGSL = p.WGSL
	default:
		return nil, ErrEmptyShader
	}
	m, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "f3d_" + p.Key.String(),
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %s: %w", p.Key, err)
	}
	c.modules[p.Key] = m
	return m, nil
}

func (c *pipelineCache) descriptor(module hal.ShaderModule, key shader.Key, ps backend.PipelineState) *hal.RenderPipelineDescriptor {
	target := gputypes.ColorTargetState{
		Format:    c.format,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if ps.Blend == backend.BlendAlpha {
		blend := gputypes.BlendStateAlpha()
		target.Blend = &blend
	}

	return &hal.RenderPipelineDescriptor{
		Label:  "f3d_" + key.String() + "_" + ps.String(),
		Layout: c.layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: shader.VertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{vertexLayout()},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  cullMode(ps.Cull),
		},
		DepthStencil: depthState(ps.Depth),
		Multisample:  gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: shader.FragmentEntry,
			Targets:    []gputypes.ColorTargetState{target},
		},
	}
}

func vertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: batch.VertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x4, Offset: batch.OffsetPosition, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: batch.OffsetUV, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x4, Offset: batch.OffsetColor, ShaderLocation: 2},
			{Format: gputypes.VertexFormatFloat32, Offset: batch.OffsetFog, ShaderLocation: 3},
		},
	}
}

func cullMode(c backend.Cull) gputypes.CullMode {
	switch c {
	case backend.CullFront:
		return gputypes.CullModeFront
	case backend.CullBack:
		return gputypes.CullModeBack
	default:
		return gputypes.CullModeNone
	}
}

// depthState always returns a state because every pass has a depth
// attachment; untested draws use CompareFunctionAlways.
func depthState(d backend.Depth) *hal.DepthStencilState {
	keep := hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways}
	ds := &hal.DepthStencilState{
		Format:            depthFormat,
		DepthWriteEnabled: d.Write,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      keep,
		StencilBack:       keep,
	}
	if d.Test {
		ds.DepthCompare = gputypes.CompareFunctionLessEqual
	}
	if d.Decal {
		ds.DepthBias = decalDepthBias
		ds.DepthBiasSlopeScale = decalDepthBiasSlope
	}
	return ds
}

// stats returns the cache hit and miss counts.
func (c *pipelineCache) stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *pipelineCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

func (c *pipelineCache) destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, pl := range c.pipelines {
		c.device.DestroyRenderPipeline(pl)
		delete(c.pipelines, k)
	}
	for k, m := range c.modules {
		c.device.DestroyShaderModule(m)
		delete(c.modules, k)
	}
}
