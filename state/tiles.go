package state

import (
	"github.com/gogpu/f3d/segment"
	"github.com/gogpu/f3d/texture"
)

// Tile descriptor indices used by the standard load macros.
const (
	RenderTile = 0
	LoadTile   = 7
	NumTiles   = 8
)

// TextureImage is the SETTIMG source image register.
type TextureImage struct {
	Addr   uint32 // segmented
	ImgFmt uint8
	Size   uint8 // pixel size code: 4 << Size bits per texel
	Width  uint16
}

// BitsPerTexel returns the texel size of the source image.
func (t TextureImage) BitsPerTexel() int { return 4 << t.Size }

// Tile is one of the eight tile descriptors.
type Tile struct {
	ImgFmt, Size    uint8
	Line            uint16 // row stride in 64-bit words
	TMem            uint16 // TMEM address in 64-bit words
	Palette         uint8
	ClampS, MirrorS bool
	ClampT, MirrorT bool
	MaskS, MaskT    uint8
	ShiftS, ShiftT  uint8
	ULS, ULT        uint16 // 10.2 fixed point
	LRS, LRT        uint16
}

// Format returns the decoded texel format of the tile.
func (t Tile) Format() texture.Format {
	return texture.FromHardware(t.ImgFmt, t.Size)
}

// Dimensions returns the tile size in texels, falling back to the wrap masks
// when no size has been set.
func (t Tile) Dimensions() (w, h int) {
	if t.LRS >= t.ULS {
		w = int(t.LRS-t.ULS)>>2 + 1
	}
	if t.LRT >= t.ULT {
		h = int(t.LRT-t.ULT)>>2 + 1
	}
	if t.LRS == 0 && t.ULS == 0 && t.MaskS > 0 {
		w = 1 << t.MaskS
	}
	if t.LRT == 0 && t.ULT == 0 && t.MaskT > 0 {
		h = 1 << t.MaskT
	}
	return w, h
}

func wrapOf(clamp, mirror bool) texture.Wrap {
	switch {
	case mirror:
		return texture.WrapMirror
	case clamp:
		return texture.WrapClamp
	default:
		return texture.WrapRepeat
	}
}

// tmemLoad records where the texels at a TMEM address came from.
type tmemLoad struct {
	tmem   uint16
	addr   uint32
	stride int // source row stride in bytes; 0 for block loads
	valid  bool
}

// TextureRequest describes the texture the render tile currently samples.
// Equal requests resolve to the same Descriptor.
type TextureRequest struct {
	Addr         uint32 // segmented source address
	Stride       int    // source row stride in bytes, 0 when packed
	Format       texture.Format
	Width        int
	Height       int
	WrapS, WrapT texture.Wrap
	MaskS, MaskT uint8
	OriginS      float32
	OriginT      float32
}

// Key returns the memoization key for the request.
func (r TextureRequest) Key() texture.Key {
	seg, off := segment.Split(r.Addr)
	return texture.Key{
		Segment: seg,
		Offset:  off,
		Format:  r.Format,
		Width:   uint16(r.Width),
		Height:  uint16(r.Height),
		Stride:  uint16(r.Stride),
	}
}

// Descriptor builds a texture descriptor around a decoded buffer.
func (r TextureRequest) Descriptor(buf *texture.Buffer) *texture.Descriptor {
	return &texture.Descriptor{
		Key:     r.Key(),
		WrapS:   r.WrapS,
		WrapT:   r.WrapT,
		MaskS:   r.MaskS,
		MaskT:   r.MaskT,
		OriginS: r.OriginS,
		OriginT: r.OriginT,
		Buffer:  buf,
	}
}
