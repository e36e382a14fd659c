package state

import "fmt"

// ColorKind selects a constant color register.
type ColorKind uint8

const (
	ColorPrimitive ColorKind = iota
	ColorEnvironment
	ColorFog
	ColorBlend
	ColorFill
)

func (k ColorKind) String() string {
	switch k {
	case ColorPrimitive:
		return "prim"
	case ColorEnvironment:
		return "env"
	case ColorFog:
		return "fog"
	case ColorBlend:
		return "blend"
	case ColorFill:
		return "fill"
	}
	return fmt.Sprintf("ColorKind(%d)", uint8(k))
}

// RGBA is an 8-bit-per-channel color.
type RGBA [4]uint8

// UnpackRGBA splits a 0xRRGGBBAA word.
func UnpackRGBA(v uint32) RGBA {
	return RGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}
}

// Pack returns c as 0xRRGGBBAA.
func (c RGBA) Pack() uint32 {
	return uint32(c[0])<<24 | uint32(c[1])<<16 | uint32(c[2])<<8 | uint32(c[3])
}

// Floats returns c normalized to [0, 1].
func (c RGBA) Floats() [4]float32 {
	return [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
}

// Colors holds the constant color registers.
type Colors struct {
	Primitive   RGBA
	Environment RGBA
	Fog         RGBA
	Blend       RGBA

	// Fill is the raw fill word: two packed RGBA5551 pixels or one RGBA8888.
	Fill uint32

	PrimMinLOD  uint8
	PrimLODFrac uint8
}

// FillColor interprets the fill word as RGBA5551 (the common 16-bit framebuffer).
func (c Colors) FillColor() RGBA {
	p := uint16(c.Fill >> 16)
	ex := func(v uint16) uint8 {
		v &= 0x1F
		return uint8(v<<3 | v>>2)
	}
	return RGBA{ex(p >> 11), ex(p >> 6), ex(p >> 1), uint8(p&1) * 0xFF}
}
