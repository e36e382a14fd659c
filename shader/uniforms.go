package shader

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/f3d/state"
)

// UniformSize is the byte size of the uniform block.
const UniformSize = 64

// Uniforms mirrors the WGSL Uniforms struct.
type Uniforms struct {
	Prim, Env, FogColor [4]float32
	PrimLODFrac         float32
	AlphaRef            float32
	TexSize             [2]float32
}

// UniformsFor fills the uniform block from a render state snapshot.
func UniformsFor(rs *state.RenderState) Uniforms {
	u := Uniforms{
		Prim:        rs.Colors.Primitive.Floats(),
		Env:         rs.Colors.Environment.Floats(),
		FogColor:    rs.Colors.Fog.Floats(),
		PrimLODFrac: float32(rs.Colors.PrimLODFrac) / 255,
	}
	switch rs.OtherMode.AlphaCompare() {
	case state.AlphaCompareThreshold:
		u.AlphaRef = float32(rs.Colors.Blend[3]) / 255
	case state.AlphaCompareDither:
		u.AlphaRef = 0.5
	}
	if rs.Texture != nil {
		u.TexSize = [2]float32{float32(rs.Texture.Width()), float32(rs.Texture.Height())}
	}
	return u
}

// Bytes encodes u in the little-endian std140 layout of the WGSL struct.
func (u Uniforms) Bytes() []byte {
	vals := [16]float32{
		u.Prim[0], u.Prim[1], u.Prim[2], u.Prim[3],
		u.Env[0], u.Env[1], u.Env[2], u.Env[3],
		u.FogColor[0], u.FogColor[1], u.FogColor[2], u.FogColor[3],
		u.PrimLODFrac, u.AlphaRef, u.TexSize[0], u.TexSize[1],
	}
	out := make([]byte, 0, UniformSize)
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}
