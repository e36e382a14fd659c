package state

import (
	"strconv"
	"strings"
)

// GeometryFlags is the geometry-mode bit set.
type GeometryFlags uint32

// Geometry mode bits.
const (
	ZBuffer          GeometryFlags = 0x00000001
	Shade            GeometryFlags = 0x00000004
	ShadingSmooth    GeometryFlags = 0x00000200
	CullFront        GeometryFlags = 0x00001000
	CullBack         GeometryFlags = 0x00002000
	Fog              GeometryFlags = 0x00010000
	Lighting         GeometryFlags = 0x00020000
	TextureGen       GeometryFlags = 0x00040000
	TextureGenLinear GeometryFlags = 0x00080000
	LOD              GeometryFlags = 0x00100000
	Clipping         GeometryFlags = 0x00800000

	CullBoth = CullFront | CullBack
)

// RenderFlags selects the geometry bits that change how a batch is drawn.
// The remaining bits (lighting, texture generation, LOD, clipping) are
// consumed when vertices are appended and never reach the GPU.
const RenderFlags = ZBuffer | Shade | ShadingSmooth | CullFront | CullBack | Fog

// DefaultGeometry is the geometry mode at the start of a frame.
const DefaultGeometry = Shade | ShadingSmooth | Clipping

var geometryNames = []struct {
	bit  GeometryFlags
	name string
}{
	{ZBuffer, "ZBUFFER"},
	{Shade, "SHADE"},
	{ShadingSmooth, "SMOOTH"},
	{CullFront, "CULL_FRONT"},
	{CullBack, "CULL_BACK"},
	{Fog, "FOG"},
	{Lighting, "LIGHTING"},
	{TextureGen, "TEXGEN"},
	{TextureGenLinear, "TEXGEN_LINEAR"},
	{LOD, "LOD"},
	{Clipping, "CLIPPING"},
}

// Has reports whether all bits in mask are set.
func (f GeometryFlags) Has(mask GeometryFlags) bool {
	return f&mask == mask
}

// Apply clears then sets bits.
func (f GeometryFlags) Apply(clearBits, setBits GeometryFlags) GeometryFlags {
	return f&^clearBits | setBits
}

func (f GeometryFlags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	for _, g := range geometryNames {
		if f&g.bit != 0 {
			parts = append(parts, g.name)
		}
	}
	if rest := f &^ (RenderFlags | Lighting | TextureGen | TextureGenLinear | LOD | Clipping); rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(parts, "|")
}
