package state

import "github.com/gogpu/f3d/texture"

// TextureScale is the TEXTURE command state.
type TextureScale struct {
	S, T  float32
	Tile  uint8
	Level uint8
	On    bool
}

// Transform is the matrix state vertices are transformed with.
type Transform struct {
	MVP       Mat4
	ModelView Mat4
	Seq       uint32
}

// RenderState is an immutable snapshot of the render state.
//
// The first group of fields decides how a batch is drawn and takes part in
// Compatible. The second group is consumed when vertices are appended.
type RenderState struct {
	Geometry  GeometryFlags
	Combine   CombineDescriptor
	Texture   *texture.Descriptor
	Colors    Colors
	OtherMode OtherMode
	Scissor   Scissor

	Transform Transform
	Lights    Lights
	TexScale  TextureScale
	Fog       FogParams
	Viewport  Viewport
}

// Compatible reports whether geometry built under a and b can share a batch:
// every field that affects rasterization must match. Matrices, lights and
// texture scale are excluded because they are baked into vertices.
func Compatible(a, b *RenderState) bool {
	return a.Geometry&RenderFlags == b.Geometry&RenderFlags &&
		a.Combine == b.Combine &&
		a.Texture == b.Texture &&
		a.Colors == b.Colors &&
		a.OtherMode == b.OtherMode &&
		a.Scissor == b.Scissor
}

// TwoCycle reports whether the combiner runs both cycles.
func (rs *RenderState) TwoCycle() bool {
	return rs.OtherMode.CycleType() == TwoCycle
}

// Textured reports whether the combiner samples a texture.
func (rs *RenderState) Textured() bool {
	return rs.Combine.UsesTexel(rs.TwoCycle())
}

// Tracker holds the live render state and applies state-setting commands.
// It is not safe for concurrent use.
type Tracker struct {
	cur      RenderState
	matrices Matrices

	image TextureImage
	tiles [NumTiles]Tile
	loads [NumTiles]tmemLoad
	next  int

	texSerial uint32
}

// NewTracker returns a tracker in the default frame state.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Reset restores the documented start-of-frame state.
func (t *Tracker) Reset() {
	t.matrices = newMatrices()
	t.cur = RenderState{
		Geometry:  DefaultGeometry,
		Combine:   ShadeCombine,
		OtherMode: DefaultOtherMode,
		Scissor:   DefaultScissor,
		Viewport:  DefaultViewport,
		TexScale:  TextureScale{S: 1, T: 1},
	}
	t.syncTransform()
	t.image = TextureImage{}
	t.tiles = [NumTiles]Tile{}
	t.loads = [NumTiles]tmemLoad{}
	t.next = 0
	t.texSerial++
}

// Capture returns a snapshot of the current state. The bound texture is
// omitted when the combiner does not sample it.
func (t *Tracker) Capture() RenderState {
	rs := t.cur
	if !rs.Textured() {
		rs.Texture = nil
	}
	return rs
}

// Geometry returns the current geometry flags.
func (t *Tracker) Geometry() GeometryFlags { return t.cur.Geometry }

// OtherMode returns the current other-mode words.
func (t *Tracker) OtherMode() OtherMode { return t.cur.OtherMode }

// SetGeometry clears then sets geometry bits.
func (t *Tracker) SetGeometry(clearBits, setBits GeometryFlags) {
	t.cur.Geometry = t.cur.Geometry.Apply(clearBits, setBits)
}

// SetCombine replaces the combiner descriptor.
func (t *Tracker) SetCombine(d CombineDescriptor) {
	t.cur.Combine = d
}

// SetColor replaces a constant color register. For ColorFill the raw word is
// stored. minLOD and lodFrac only apply to the primitive color.
func (t *Tracker) SetColor(kind ColorKind, value uint32, minLOD, lodFrac uint8) {
	c := &t.cur.Colors
	switch kind {
	case ColorPrimitive:
		c.Primitive = UnpackRGBA(value)
		c.PrimMinLOD = minLOD
		c.PrimLODFrac = lodFrac
	case ColorEnvironment:
		c.Environment = UnpackRGBA(value)
	case ColorFog:
		c.Fog = UnpackRGBA(value)
	case ColorBlend:
		c.Blend = UnpackRGBA(value)
	case ColorFill:
		c.Fill = value
	}
}

// SetOtherMode replaces a bit field of one other-mode word.
func (t *Tracker) SetOtherMode(high bool, shift, length uint8, bits uint32) {
	t.cur.OtherMode = t.cur.OtherMode.SetBits(high, shift, length, bits)
}

// SetOtherModeWords replaces both other-mode words.
func (t *Tracker) SetOtherModeWords(h, l uint32) {
	t.cur.OtherMode = OtherMode{H: h, L: l}
}

// SetScissor replaces the scissor rectangle.
func (t *Tracker) SetScissor(s Scissor) {
	t.cur.Scissor = s
}

// SetViewport replaces the viewport.
func (t *Tracker) SetViewport(v Viewport) {
	t.cur.Viewport = v
}

// SetFog replaces the fog multiplier and offset.
func (t *Tracker) SetFog(f FogParams) {
	t.cur.Fog = f
}

// SetLightCount sets the number of directional lights, clamped to MaxLights.
func (t *Tracker) SetLightCount(n int) {
	t.cur.Lights.Count = min(max(n, 0), MaxLights)
}

// SetLight replaces light slot i. Out-of-range slots are ignored.
func (t *Tracker) SetLight(i int, l Light) {
	if i >= 0 && i <= MaxLights {
		t.cur.Lights.Slots[i] = l
	}
}

// SetLightColor replaces the color of light slot i.
func (t *Tracker) SetLightColor(i int, c [3]uint8) {
	if i >= 0 && i <= MaxLights {
		t.cur.Lights.Slots[i].Color = c
	}
}

// LoadMatrix applies a matrix command.
func (t *Tracker) LoadMatrix(m Mat4, projection, load, push bool) error {
	err := t.matrices.Load(m, projection, load, push)
	t.syncTransform()
	return err
}

// PopMatrix pops the modelview stack.
func (t *Tracker) PopMatrix() error {
	if err := t.matrices.Pop(); err != nil {
		return err
	}
	t.syncTransform()
	return nil
}

// MatrixDepth returns the modelview stack depth.
func (t *Tracker) MatrixDepth() int { return t.matrices.Depth() }

func (t *Tracker) syncTransform() {
	t.cur.Transform = Transform{
		MVP:       t.matrices.MVP(),
		ModelView: t.matrices.ModelView,
		Seq:       t.matrices.Seq,
	}
}

// SetTextureScale applies the TEXTURE command.
func (t *Tracker) SetTextureScale(s TextureScale) {
	if s.Tile != t.cur.TexScale.Tile {
		t.texSerial++
	}
	t.cur.TexScale = s
}

// SetTextureImage applies SETTIMG.
func (t *Tracker) SetTextureImage(img TextureImage) {
	t.image = img
}

// SetTile applies SETTILE. The tile's size is preserved.
func (t *Tracker) SetTile(i int, tile Tile) {
	i &= NumTiles - 1
	tile.ULS, tile.ULT, tile.LRS, tile.LRT = t.tiles[i].ULS, t.tiles[i].ULT, t.tiles[i].LRS, t.tiles[i].LRT
	t.tiles[i] = tile
	t.texSerial++
}

// SetTileSize applies SETTILESIZE.
func (t *Tracker) SetTileSize(i int, uls, ult, lrs, lrt uint16) {
	tile := &t.tiles[i&(NumTiles-1)]
	tile.ULS, tile.ULT, tile.LRS, tile.LRT = uls, ult, lrs, lrt
	t.texSerial++
}

// Tile returns tile descriptor i.
func (t *Tracker) Tile(i int) Tile { return t.tiles[i&(NumTiles-1)] }

// LoadBlock records a linear load of the current image into tile i's TMEM.
func (t *Tracker) LoadBlock(i int, uls, ult uint16) {
	bits := t.image.BitsPerTexel()
	off := (int(ult)*int(t.image.Width) + int(uls)) * bits / 8
	t.recordLoad(t.tiles[i&(NumTiles-1)].TMem, t.image.Addr+uint32(off), 0)
}

// LoadTileRect records a rectangular load (10.2 coordinates) of the current
// image into tile i's TMEM.
func (t *Tracker) LoadTileRect(i int, uls, ult uint16) {
	bits := t.image.BitsPerTexel()
	stride := int(t.image.Width) * bits / 8
	off := int(ult>>2)*stride + int(uls>>2)*bits/8
	t.recordLoad(t.tiles[i&(NumTiles-1)].TMem, t.image.Addr+uint32(off), stride)
}

func (t *Tracker) recordLoad(tmem uint16, addr uint32, stride int) {
	slot := -1
	for i := range t.loads {
		if t.loads[i].valid && t.loads[i].tmem == tmem {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = t.next
		t.next = (t.next + 1) % len(t.loads)
	}
	t.loads[slot] = tmemLoad{tmem: tmem, addr: addr, stride: stride, valid: true}
	t.texSerial++
}

// TextureSerial changes whenever the texture registers change. Callers use
// it to skip re-resolving an unchanged texture.
func (t *Tracker) TextureSerial() uint32 { return t.texSerial }

// TextureRequest describes the texture sampled through tile i, or reports
// false when no load has filled that tile's TMEM address.
func (t *Tracker) TextureRequest(i int) (TextureRequest, bool) {
	tile := t.tiles[i&(NumTiles-1)]
	var load *tmemLoad
	for j := range t.loads {
		if t.loads[j].valid && t.loads[j].tmem == tile.TMem {
			load = &t.loads[j]
			break
		}
	}
	if load == nil {
		return TextureRequest{}, false
	}
	w, h := tile.Dimensions()
	if w <= 0 || h <= 0 {
		return TextureRequest{}, false
	}
	f := tile.Format()
	if f == texture.FormatUnknown {
		f = texture.FromHardware(t.image.ImgFmt, t.image.Size)
	}
	stride := load.stride
	if stride == texture.SizeBytes(f, w, 1) {
		stride = 0
	}
	return TextureRequest{
		Addr:    load.addr,
		Stride:  stride,
		Format:  f,
		Width:   w,
		Height:  h,
		WrapS:   wrapOf(tile.ClampS, tile.MirrorS),
		WrapT:   wrapOf(tile.ClampT, tile.MirrorT),
		MaskS:   tile.MaskS,
		MaskT:   tile.MaskT,
		OriginS: float32(tile.ULS) / 4,
		OriginT: float32(tile.ULT) / 4,
	}, true
}

// SetTexture binds a resolved texture descriptor (nil unbinds).
func (t *Tracker) SetTexture(d *texture.Descriptor) {
	t.cur.Texture = d
}

// Texture returns the bound texture descriptor.
func (t *Tracker) Texture() *texture.Descriptor { return t.cur.Texture }
