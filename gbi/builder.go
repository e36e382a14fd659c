package gbi

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/texture"
	"github.com/gogpu/f3d/vertex"
)

// Builder assembles a display list. Methods append one command each and
// return the builder so calls can be chained.
//
//	dl := gbi.NewBuilder().
//		Vtx(verts, 0, 3).
//		Tri1(0, 1, 2).
//		EndDL().
//		Bytes()
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded list. The slice aliases the builder.
func (b *Builder) Bytes() []byte { return b.buf }

// Len returns the encoded length in bytes.
func (b *Builder) Len() int { return len(b.buf) }

// Raw appends one command from its two words.
func (b *Builder) Raw(w0, w1 uint32) *Builder {
	b.buf = binary.BigEndian.AppendUint32(b.buf, w0)
	b.buf = binary.BigEndian.AppendUint32(b.buf, w1)
	return b
}

func (b *Builder) op(op Opcode, w0, w1 uint32) *Builder {
	return b.Raw(uint32(op)<<24|w0&0x00FFFFFF, w1)
}

// Vtx loads count vertices from addr into slots starting at first.
func (b *Builder) Vtx(addr uint32, first, count int) *Builder {
	return b.op(OpVtx, uint32(first*2)<<16|uint32(count)<<10|uint32(count*vertex.RecordSize-1), addr)
}

func triWord(a, b, c uint8) uint32 {
	return uint32(a)*2<<16 | uint32(b)*2<<8 | uint32(c)*2
}

// Tri1 draws one triangle.
func (b *Builder) Tri1(v0, v1, v2 uint8) *Builder {
	return b.op(OpTri1, 0, triWord(v0, v1, v2))
}

// Tri2 draws two triangles.
func (b *Builder) Tri2(t0, t1 Triangle) *Builder {
	return b.op(OpTri2, triWord(t0.A, t0.B, t0.C), triWord(t1.A, t1.B, t1.C))
}

// Quad draws v0-v1-v2-v3 as two triangles.
func (b *Builder) Quad(v0, v1, v2, v3 uint8) *Builder {
	return b.op(OpQuad, 0, uint32(v0)*2<<24|uint32(v1)*2<<16|uint32(v2)*2<<8|uint32(v3)*2)
}

// SetGeometryMode sets geometry mode bits.
func (b *Builder) SetGeometryMode(f state.GeometryFlags) *Builder {
	return b.op(OpSetGeom, 0, uint32(f))
}

// ClearGeometryMode clears geometry mode bits.
func (b *Builder) ClearGeometryMode(f state.GeometryFlags) *Builder {
	return b.op(OpClearGeom, 0, uint32(f))
}

// SetOtherMode replaces length bits at shift of the high or low word.
func (b *Builder) SetOtherMode(high bool, shift, length uint8, v uint32) *Builder {
	op := OpSetOtherModeL
	if high {
		op = OpSetOtherModeH
	}
	return b.op(op, uint32(shift)<<8|uint32(length), v)
}

// SetCycleType selects the pipeline cycle mode.
func (b *Builder) SetCycleType(c state.CycleType) *Builder {
	return b.SetOtherMode(true, state.ShiftCycleType, 2, uint32(c)<<state.ShiftCycleType)
}

// SetRenderMode replaces the render mode bits of the low word.
func (b *Builder) SetRenderMode(mode uint32) *Builder {
	return b.SetOtherMode(false, state.ShiftRenderMode, 29, mode)
}

// RDPSetOtherMode replaces both other-mode words.
func (b *Builder) RDPSetOtherMode(h, l uint32) *Builder {
	return b.op(OpRDPSetOtherMode, h, l)
}

// SetCombine loads the color combiner.
func (b *Builder) SetCombine(d state.CombineDescriptor) *Builder {
	w0, w1 := d.Pack()
	return b.op(OpSetCombine, w0, w1)
}

// SetTextureImage sets the texture source image.
func (b *Builder) SetTextureImage(imgFmt, size uint8, width int, addr uint32) *Builder {
	return b.op(OpSetTImg, uint32(imgFmt&7)<<21|uint32(size&3)<<19|uint32(width-1)&0xFFF, addr)
}

// SetTile configures tile descriptor i. The window fields of t are ignored.
func (b *Builder) SetTile(i int, t state.Tile) *Builder {
	w0 := uint32(t.ImgFmt&7)<<21 | uint32(t.Size&3)<<19 | uint32(t.Line&0x1FF)<<9 | uint32(t.TMem&0x1FF)
	w1 := uint32(i&7)<<24 | uint32(t.Palette&0xF)<<20 |
		uint32(t.MaskT&0xF)<<14 | uint32(t.ShiftT&0xF)<<10 |
		uint32(t.MaskS&0xF)<<4 | uint32(t.ShiftS&0xF)
	if t.MirrorT {
		w1 |= 1 << 18
	}
	if t.ClampT {
		w1 |= 1 << 19
	}
	if t.MirrorS {
		w1 |= 1 << 8
	}
	if t.ClampS {
		w1 |= 1 << 9
	}
	return b.op(OpSetTile, w0, w1)
}

func rectWords(tile int, uls, ult, lrs, lrt uint16) (uint32, uint32) {
	return uint32(uls&0xFFF)<<12 | uint32(ult&0xFFF),
		uint32(tile&7)<<24 | uint32(lrs&0xFFF)<<12 | uint32(lrt&0xFFF)
}

// SetTileSize sets tile i's window in 10.2 fixed point.
func (b *Builder) SetTileSize(i int, uls, ult, lrs, lrt uint16) *Builder {
	w0, w1 := rectWords(i, uls, ult, lrs, lrt)
	return b.op(OpSetTileSize, w0, w1)
}

// LoadBlock loads texels+1 texels linearly into tile i.
func (b *Builder) LoadBlock(i int, uls, ult, texels, dxt uint16) *Builder {
	w0, w1 := rectWords(i, uls, ult, texels, dxt)
	return b.op(OpLoadBlock, w0, w1)
}

// LoadTile loads a rectangle (10.2 fixed point) into tile i.
func (b *Builder) LoadTile(i int, uls, ult, lrs, lrt uint16) *Builder {
	w0, w1 := rectWords(i, uls, ult, lrs, lrt)
	return b.op(OpLoadTile, w0, w1)
}

// LoadTextureBlock emits the standard sequence that loads a whole
// width x height image at addr and configures the render tile to sample it.
func (b *Builder) LoadTextureBlock(addr uint32, f texture.Format, width, height int, wrapS, wrapT texture.Wrap) *Builder {
	imgFmt, size := f.Hardware()
	loadSize := size
	if size < 2 {
		loadSize = 2
	}
	texels := width * height
	bpt := f.BitsPerTexel()
	if bpt < 16 {
		texels = (texels*bpt + 15) / 16
	}
	lineBytes := width * bpt / 8
	dxt := 0
	if words := lineBytes / 8; words > 0 {
		dxt = (2048 + words - 1) / words
	}
	render := state.Tile{
		ImgFmt: imgFmt,
		Size:   size,
		Line:   uint16((lineBytes + 7) / 8),
		MaskS:  log2(width),
		MaskT:  log2(height),
	}
	setWrap(&render.ClampS, &render.MirrorS, wrapS)
	setWrap(&render.ClampT, &render.MirrorT, wrapT)

	return b.SetTextureImage(imgFmt, loadSize, 1, addr).
		SetTile(state.LoadTile, state.Tile{ImgFmt: imgFmt, Size: loadSize}).
		Raw(uint32(OpLoadSync)<<24, 0).
		LoadBlock(state.LoadTile, 0, 0, uint16(min(texels, 2048)-1), uint16(dxt)).
		Raw(uint32(OpPipeSync)<<24, 0).
		SetTile(state.RenderTile, render).
		SetTileSize(state.RenderTile, 0, 0, uint16(width-1)<<2, uint16(height-1)<<2)
}

func setWrap(clamp, mirror *bool, w texture.Wrap) {
	*clamp = w == texture.WrapClamp
	*mirror = w == texture.WrapMirror
}

func log2(n int) uint8 {
	if n <= 1 {
		return 0
	}
	return uint8(bits.Len(uint(n - 1)))
}

// SetColor sets a constant color register.
func (b *Builder) SetColor(kind state.ColorKind, rgba uint32) *Builder {
	return b.Raw(uint32(SetConstantColor{Kind: kind}.Opcode())<<24, rgba)
}

// SetPrimColor sets the primitive color with its LOD fields.
func (b *Builder) SetPrimColor(minLOD, lodFrac uint8, rgba uint32) *Builder {
	return b.op(OpSetPrimColor, uint32(minLOD)<<8|uint32(lodFrac), rgba)
}

// Matrix loads or multiplies the matrix at addr; params is a combination of
// MtxProjection, MtxLoad and MtxPush.
func (b *Builder) Matrix(addr uint32, params uint8) *Builder {
	return b.op(OpMtx, uint32(params)<<16|state.MatrixSize, addr)
}

// PopMatrix pops the modelview stack.
func (b *Builder) PopMatrix() *Builder {
	return b.op(OpPopMtx, 0, 0)
}

// Texture enables texturing on tile with scales in [0, 1].
func (b *Builder) Texture(s, t float32, level, tile uint8, on bool) *Builder {
	w0 := uint32(level&7)<<11 | uint32(tile&7)<<8
	if on {
		w0 |= 1
	}
	return b.op(OpTexture, w0, uint32(scaleWord(s))<<16|uint32(scaleWord(t)))
}

func scaleWord(v float32) uint16 {
	if v >= 1 {
		return 0xFFFF
	}
	if v <= 0 {
		return 0
	}
	return uint16(v * 65536)
}

func fixed2Word(v float32) uint32 {
	return uint32(math.Round(float64(v)*4)) & 0xFFF
}

// SetScissor sets the scissor rectangle in pixels.
func (b *Builder) SetScissor(mode uint8, x0, y0, x1, y1 float32) *Builder {
	return b.op(OpSetScissor,
		fixed2Word(x0)<<12|fixed2Word(y0),
		uint32(mode&3)<<24|fixed2Word(x1)<<12|fixed2Word(y1))
}

// MoveWord writes one word of geometry state.
func (b *Builder) MoveWord(index uint8, offset uint16, v uint32) *Builder {
	return b.op(OpMoveWord, uint32(offset)<<8|uint32(index), v)
}

// NumLights sets the number of directional lights.
func (b *Builder) NumLights(n int) *Builder {
	return b.MoveWord(MWNumLight, 0, 0x80000000+uint32(n+1)*32)
}

// FogFactor sets the fog multiplier and offset.
func (b *Builder) FogFactor(mul, off int16) *Builder {
	return b.MoveWord(MWFog, 0, uint32(uint16(mul))<<16|uint32(uint16(off)))
}

// MoveMem loads size bytes of geometry state from addr.
func (b *Builder) MoveMem(index uint8, size int, addr uint32) *Builder {
	return b.op(OpMoveMem, uint32(index)<<16|uint32(size)&0xFFFF, addr)
}

// Viewport loads the viewport at addr.
func (b *Builder) Viewport(addr uint32) *Builder {
	return b.MoveMem(MVViewport, state.ViewportSize, addr)
}

// Light loads light slot i from addr.
func (b *Builder) Light(i int, addr uint32) *Builder {
	return b.MoveMem(uint8(MVLight0+2*i), state.LightSize, addr)
}

// Call calls the display list at addr.
func (b *Builder) Call(addr uint32) *Builder {
	return b.op(OpDL, DLCall<<16, addr)
}

// Branch jumps to the display list at addr without returning.
func (b *Builder) Branch(addr uint32) *Builder {
	return b.op(OpDL, DLBranch<<16, addr)
}

// EndDL ends the current display list.
func (b *Builder) EndDL() *Builder {
	return b.op(OpEndDL, 0, 0)
}

// PipeSync appends a pipeline sync.
func (b *Builder) PipeSync() *Builder {
	return b.op(OpPipeSync, 0, 0)
}

// FullSync ends the frame.
func (b *Builder) FullSync() *Builder {
	return b.op(OpFullSync, 0, 0)
}

// FillRect fills a rectangle with the fill color.
func (b *Builder) FillRect(x0, y0, x1, y1 float32) *Builder {
	return b.op(OpFillRect, fixed2Word(x1)<<12|fixed2Word(y1), fixed2Word(x0)<<12|fixed2Word(y0))
}

// TexRect draws a textured rectangle. s and t are texel coordinates at the
// upper-left corner; dsdx and dtdy the per-pixel steps.
func (b *Builder) TexRect(x0, y0, x1, y1 float32, tile int, s, t, dsdx, dtdy float32, flip bool) *Builder {
	op := OpTexRect
	if flip {
		op = OpTexRectFlip
	}
	b.op(op, fixed2Word(x1)<<12|fixed2Word(y1), uint32(tile&7)<<24|fixed2Word(x0)<<12|fixed2Word(y0))
	b.op(OpRDPHalf1, 0, fixedWord(s, 32)<<16|fixedWord(t, 32))
	return b.op(OpRDPHalf2, 0, fixedWord(dsdx, 1024)<<16|fixedWord(dtdy, 1024))
}

func fixedWord(v, one float32) uint32 {
	return uint32(uint16(int16(math.Round(float64(v * one)))))
}

// EncodeVertices encodes vertex records for a Vtx load.
func EncodeVertices(vs ...vertex.Vertex) []byte {
	out := make([]byte, len(vs)*vertex.RecordSize)
	for i, v := range vs {
		vertex.Encode(out[i*vertex.RecordSize:], v)
	}
	return out
}

// EncodeMatrix encodes a matrix for a Matrix load.
func EncodeMatrix(m state.Mat4) []byte {
	out := make([]byte, state.MatrixSize)
	state.EncodeMatrix(out, m)
	return out
}
