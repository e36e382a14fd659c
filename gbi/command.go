package gbi

import "github.com/gogpu/f3d/state"

// Command is one decoded display-list command. Concrete types are the
// exported structs in this file; callers dispatch with a type switch.
// Commands are values and hold no references into the stream.
type Command interface {
	Opcode() Opcode
}

// Triangle is three vertex-cache slot indices.
type Triangle struct {
	A, B, C uint8
}

// LoadVertices loads Count vertex records from Addr into slots
// [First, First+Count).
type LoadVertices struct {
	Addr  uint32
	First int
	Count int
}

// DrawTriangles draws one (TRI1) or two (TRI2) triangles.
type DrawTriangles struct {
	Op   Opcode
	Tris [2]Triangle
	N    int
}

// Triangles returns the triangles in draw order.
func (c DrawTriangles) Triangles() []Triangle { return c.Tris[:c.N] }

// DrawQuad draws the quad A-B-C-D as triangles (A,B,C) and (A,C,D).
type DrawQuad struct {
	A, B, C, D uint8
}

// Triangles returns the two triangles of the quad.
func (c DrawQuad) Triangles() [2]Triangle {
	return [2]Triangle{{c.A, c.B, c.C}, {c.A, c.C, c.D}}
}

// SetGeometryFlags clears then sets geometry mode bits. Exactly one of the
// two masks is non-zero for a decoded command.
type SetGeometryFlags struct {
	Clear state.GeometryFlags
	Set   state.GeometryFlags
}

// SetOtherMode replaces a bit field of one other-mode word.
type SetOtherMode struct {
	High   bool
	Shift  uint8
	Length uint8
	Bits   uint32
}

// SetOtherModeWords replaces both other-mode words.
type SetOtherModeWords struct {
	H, L uint32
}

// SetCombineDescriptor loads the color combiner.
type SetCombineDescriptor struct {
	Desc state.CombineDescriptor
}

// SetBoundTexture sets the texture image that subsequent loads read from.
type SetBoundTexture struct {
	Image state.TextureImage
}

// SetTile configures a tile descriptor.
type SetTile struct {
	Tile int
	Desc state.Tile
}

// SetTileWindow sets a tile's texel window in 10.2 fixed point.
type SetTileWindow struct {
	Tile               int
	ULS, ULT, LRS, LRT uint16
}

// LoadTileTexels copies texels from the texture image into a tile.
// Block loads are linear; LRT then holds dxt.
type LoadTileTexels struct {
	Tile               int
	Block              bool
	ULS, ULT, LRS, LRT uint16
}

// SetConstantColor replaces a constant color register.
type SetConstantColor struct {
	Kind    state.ColorKind
	Value   uint32
	MinLOD  uint8
	LODFrac uint8
}

// SetMatrix loads or multiplies a matrix read from Addr.
type SetMatrix struct {
	Addr       uint32
	Projection bool
	Load       bool
	Push       bool
}

// PopMatrix pops the modelview stack.
type PopMatrix struct{}

// SetTextureScale enables texturing and sets the coordinate scale.
type SetTextureScale struct {
	Scale state.TextureScale
}

// SetScissor sets the clip rectangle.
type SetScissor struct {
	Scissor state.Scissor
	Mode    uint8
}

// MoveWord index values.
const (
	MWMatrix    = 0x00
	MWNumLight  = 0x02
	MWClip      = 0x04
	MWSegment   = 0x06
	MWFog       = 0x08
	MWLightCol  = 0x0A
	MWPoints    = 0x0C
	MWPerspNorm = 0x0E
)

// MoveWord writes one word of geometry processor state.
type MoveWord struct {
	Index  uint8
	Offset uint16
	Value  uint32
}

// MoveMem index values.
const (
	MVViewport = 0x80
	MVLookAtY  = 0x82
	MVLookAtX  = 0x84
	MVLight0   = 0x86
	MVLight7   = 0x94
)

// MoveMem loads a block of geometry processor state from Addr.
type MoveMem struct {
	Index uint8
	Addr  uint32
	Size  int
}

// LightIndex returns the light slot a MoveMem targets, or -1.
func (c MoveMem) LightIndex() int {
	if c.Index < MVLight0 || c.Index > MVLight7 || (c.Index-MVLight0)%2 != 0 {
		return -1
	}
	return int(c.Index-MVLight0) / 2
}

// CallSublist redirects decoding to Addr. A call returns to the next command
// at ReturnFromSublist; a branch does not.
type CallSublist struct {
	Addr   uint32
	Branch bool
}

// ReturnFromSublist ends the current display list.
type ReturnFromSublist struct{}

// FillRect fills a screen rectangle with the fill color. Coordinates are
// in pixels with the lower-right corner exclusive.
type FillRect struct {
	X0, Y0, X1, Y1 float32
}

// TexturedRect draws a screen rectangle textured from Tile.
// S and T are the texel coordinates at (X0, Y0); DsDx and DtDy the
// per-pixel steps.
type TexturedRect struct {
	X0, Y0, X1, Y1 float32
	Tile           int
	S, T           float32
	DsDx, DtDy     float32
	Flip           bool
}

// EndStream ends the frame. Implicit is set when the top-level stream ran
// out without a FULLSYNC.
type EndStream struct {
	Implicit bool
}

// Skip is an opcode with no typed command. Known is set for opcodes the
// table recognizes as having no effect.
type Skip struct {
	Op    Opcode
	Words int
	Known bool
}

func (LoadVertices) Opcode() Opcode         { return OpVtx }
func (DrawQuad) Opcode() Opcode             { return OpQuad }
func (SetOtherModeWords) Opcode() Opcode    { return OpRDPSetOtherMode }
func (SetCombineDescriptor) Opcode() Opcode { return OpSetCombine }
func (SetBoundTexture) Opcode() Opcode      { return OpSetTImg }
func (SetTile) Opcode() Opcode              { return OpSetTile }
func (SetTileWindow) Opcode() Opcode        { return OpSetTileSize }
func (SetMatrix) Opcode() Opcode            { return OpMtx }
func (PopMatrix) Opcode() Opcode            { return OpPopMtx }
func (SetTextureScale) Opcode() Opcode      { return OpTexture }
func (SetScissor) Opcode() Opcode           { return OpSetScissor }
func (MoveWord) Opcode() Opcode             { return OpMoveWord }
func (MoveMem) Opcode() Opcode              { return OpMoveMem }
func (CallSublist) Opcode() Opcode          { return OpDL }
func (ReturnFromSublist) Opcode() Opcode    { return OpEndDL }
func (FillRect) Opcode() Opcode             { return OpFillRect }
func (EndStream) Opcode() Opcode            { return OpFullSync }
func (c DrawTriangles) Opcode() Opcode      { return c.Op }
func (c Skip) Opcode() Opcode               { return c.Op }

func (c SetGeometryFlags) Opcode() Opcode {
	if c.Set != 0 {
		return OpSetGeom
	}
	return OpClearGeom
}

func (c SetOtherMode) Opcode() Opcode {
	if c.High {
		return OpSetOtherModeH
	}
	return OpSetOtherModeL
}

func (c LoadTileTexels) Opcode() Opcode {
	if c.Block {
		return OpLoadBlock
	}
	return OpLoadTile
}

func (c SetConstantColor) Opcode() Opcode {
	switch c.Kind {
	case state.ColorEnvironment:
		return OpSetEnvColor
	case state.ColorFog:
		return OpSetFogColor
	case state.ColorBlend:
		return OpSetBlendColor
	case state.ColorFill:
		return OpSetFillColor
	}
	return OpSetPrimColor
}

func (c TexturedRect) Opcode() Opcode {
	if c.Flip {
		return OpTexRectFlip
	}
	return OpTexRect
}
