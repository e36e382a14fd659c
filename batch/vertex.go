package batch

import (
	"encoding/binary"
	"math"
)

// Vertex is the GPU vertex layout shared by every batch kind.
//
// Position is in clip space. U and V are normalized texture coordinates.
// Clip is informational and is not uploaded as an attribute.
type Vertex struct {
	X, Y, Z, W float32
	U, V       float32
	R, G, B, A float32
	Fog        float32
	Clip       ClipCode
}

// VertexSize is the byte stride of Vertex in a vertex buffer.
const VertexSize = 48

// Attribute byte offsets within a vertex.
const (
	OffsetPosition = 0
	OffsetUV       = 16
	OffsetColor    = 24
	OffsetFog      = 40
)

// ClipCode flags the clip-space planes a vertex lies outside of.
type ClipCode uint32

const (
	ClipLeft ClipCode = 1 << iota
	ClipRight
	ClipBottom
	ClipTop
	ClipNear
	ClipFar
)

func clipCode(x, y, z, w float32) ClipCode {
	var c ClipCode
	if x < -w {
		c |= ClipLeft
	}
	if x > w {
		c |= ClipRight
	}
	if y < -w {
		c |= ClipBottom
	}
	if y > w {
		c |= ClipTop
	}
	if z < -w {
		c |= ClipNear
	}
	if z > w {
		c |= ClipFar
	}
	return c
}

// AppendBytes appends the little-endian encoding of v.
func (v *Vertex) AppendBytes(dst []byte) []byte {
	for _, f := range [...]float32{v.X, v.Y, v.Z, v.W, v.U, v.V, v.R, v.G, v.B, v.A, v.Fog} {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return binary.LittleEndian.AppendUint32(dst, uint32(v.Clip))
}

// VertexBytes encodes vs for upload.
func VertexBytes(vs []Vertex) []byte {
	out := make([]byte, 0, len(vs)*VertexSize)
	for i := range vs {
		out = vs[i].AppendBytes(out)
	}
	return out
}

// IndexBytes encodes indices for upload, padded to a multiple of 4 bytes.
func IndexBytes(idx []uint16) []byte {
	n := len(idx) * 2
	out := make([]byte, n, (n+3)&^3)
	for i, v := range idx {
		binary.LittleEndian.PutUint16(out[2*i:], v)
	}
	return out[:cap(out)]
}
