package recording

import "github.com/gogpu/f3d/texture"

// InvalidRef marks a submission without a texture.
const InvalidRef = ^uint32(0)

// TextureRef is a reference to a pooled texture.
type TextureRef uint32

// IsValid returns true if the reference is valid (not InvalidRef).
func (r TextureRef) IsValid() bool {
	return uint32(r) != InvalidRef
}

// ResourcePool stores the textures referenced by submissions. A texture
// buffer is stored once no matter how many draws bind it.
//
// ResourcePool is not safe for concurrent use.
type ResourcePool struct {
	textures []*texture.Buffer
	index    map[*texture.Buffer]TextureRef
}

// NewResourcePool creates an empty resource pool.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{
		textures: make([]*texture.Buffer, 0, 16),
		index:    make(map[*texture.Buffer]TextureRef, 16),
	}
}

// AddTexture adds buf to the pool and returns its reference. A nil buffer
// yields InvalidRef.
func (p *ResourcePool) AddTexture(buf *texture.Buffer) TextureRef {
	if buf == nil {
		return TextureRef(InvalidRef)
	}
	if ref, ok := p.index[buf]; ok {
		return ref
	}
	// #nosec G115 -- pool size is bounded by the number of draws
	ref := TextureRef(uint32(len(p.textures)))
	p.textures = append(p.textures, buf)
	p.index[buf] = ref
	return ref
}

// Texture returns the texture for the given reference.
// Returns nil if the reference is invalid.
func (p *ResourcePool) Texture(ref TextureRef) *texture.Buffer {
	if !ref.IsValid() || int(ref) >= len(p.textures) {
		return nil
	}
	return p.textures[ref]
}

// TextureCount returns the number of distinct textures in the pool.
func (p *ResourcePool) TextureCount() int {
	return len(p.textures)
}

// Clear removes all resources from the pool.
func (p *ResourcePool) Clear() {
	clear(p.textures)
	p.textures = p.textures[:0]
	clear(p.index)
}
