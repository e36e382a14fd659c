package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/texture"
)

// gpuTexture is an uploaded texture and its default view.
type gpuTexture struct {
	tex  hal.Texture
	view hal.TextureView
	src  *texture.Buffer
}

type samplerKey struct {
	wrapS, wrapT texture.Wrap
	filter       state.TextureFilter
}

// textureCache owns uploaded textures keyed by texture.Key and samplers
// keyed by addressing and filter mode.
//
// A key whose decoded buffer changed is uploaded again. The stale texture
// stays alive until release, since draws recorded earlier in the frame may
// still reference it.
type textureCache struct {
	mu       sync.Mutex
	device   hal.Device
	queue    hal.Queue
	textures map[texture.Key]*gpuTexture
	samplers map[samplerKey]hal.Sampler
	retired  []*gpuTexture
	uploads  int
}

func newTextureCache(device hal.Device, queue hal.Queue) *textureCache {
	return &textureCache{
		device:   device,
		queue:    queue,
		textures: make(map[texture.Key]*gpuTexture),
		samplers: make(map[samplerKey]hal.Sampler),
	}
}

// view returns the view for d, uploading its buffer when needed.
func (c *textureCache) view(d *texture.Descriptor) (hal.TextureView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.textures[d.Key]; ok {
		if t.src == d.Buffer {
			return t.view, nil
		}
		c.retired = append(c.retired, t)
		delete(c.textures, d.Key)
	}
	t, err := c.upload(fmt.Sprintf("f3d_tex_%08x", d.Key.Offset), d.Buffer)
	if err != nil {
		return nil, err
	}
	c.textures[d.Key] = t
	return t.view, nil
}

// upload creates a texture holding buf. A nil buffer is not valid.
func (c *textureCache) upload(label string, buf *texture.Buffer) (*gpuTexture, error) {
	w, h := uint32(buf.Width), uint32(buf.Height) //nolint:gosec // decoded sizes are at most 1024
	if w == 0 || h == 0 || len(buf.Pix) < int(w*h*4) {
		return nil, fmt.Errorf("native: texture %s: bad buffer %dx%d", label, w, h)
	}
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %s: %w", label, err)
	}
	err = c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		buf.Pix[:w*h*4],
		&hal.ImageDataLayout{BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: write texture %s: %w", label, err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label + "_view",
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: create texture view %s: %w", label, err)
	}
	c.uploads++
	return &gpuTexture{tex: tex, view: view, src: buf}, nil
}

// sampler returns the sampler for the descriptor's wrap modes and filter.
// A nil descriptor gets a clamped point sampler.
func (c *textureCache) sampler(d *texture.Descriptor, filter state.TextureFilter) (hal.Sampler, error) {
	key := samplerKey{wrapS: texture.WrapClamp, wrapT: texture.WrapClamp, filter: filter}
	if d != nil {
		key.wrapS, key.wrapT = d.WrapS, d.WrapT
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.samplers[key]; ok {
		return s, nil
	}
	mode := gputypes.FilterModeLinear
	if filter == state.FilterPoint {
		mode = gputypes.FilterModeNearest
	}
	s, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "f3d_sampler",
		AddressModeU: addressMode(key.wrapS),
		AddressModeV: addressMode(key.wrapT),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create sampler: %w", err)
	}
	c.samplers[key] = s
	return s, nil
}

func addressMode(w texture.Wrap) gputypes.AddressMode {
	switch w {
	case texture.WrapClamp:
		return gputypes.AddressModeClampToEdge
	case texture.WrapMirror:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeRepeat
	}
}

// release destroys textures retired during the frame.
func (c *textureCache) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.retired {
		c.destroyTexture(t)
	}
	c.retired = c.retired[:0]
}

func (c *textureCache) destroyTexture(t *gpuTexture) {
	c.device.DestroyTextureView(t.view)
	c.device.DestroyTexture(t.tex)
}

func (c *textureCache) destroy() {
	c.release()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, t := range c.textures {
		c.destroyTexture(t)
		delete(c.textures, k)
	}
	for k, s := range c.samplers {
		c.device.DestroySampler(s)
		delete(c.samplers, k)
	}
}
