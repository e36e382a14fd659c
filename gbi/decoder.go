package gbi

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/f3d/segment"
	"github.com/gogpu/f3d/state"
)

// DefaultMaxDepth bounds nested display-list calls.
const DefaultMaxDepth = 10

// DefaultMaxJumps bounds the calls and branches followed in one stream.
const DefaultMaxJumps = 1 << 16

// Errors returned by Decoder.Next. All of them halt the decoder.
var (
	// ErrCallDepth is returned when a call would exceed the maximum nesting.
	ErrCallDepth = errors.New("gbi: display list call depth exceeded")

	// ErrTruncated is returned when a multi-word command runs past the end
	// of its display list.
	ErrTruncated = errors.New("gbi: truncated command")

	// ErrLoop is returned when a stream follows more calls and branches
	// than the jump limit, as a list that branches into itself does.
	ErrLoop = errors.New("gbi: display list jump limit exceeded")

	// ErrHalted is returned by Next after the stream has ended.
	ErrHalted = errors.New("gbi: decoder halted")
)

// State is the decoder state.
type State uint8

const (
	StateDecoding State = iota
	StateHalted
)

func (s State) String() string {
	if s == StateHalted {
		return "halted"
	}
	return "decoding"
}

// Position locates a command in the stream.
type Position struct {
	Segment  segment.ID
	Offset   uint32
	Depth    int
	TopLevel bool
}

func (p Position) String() string {
	if p.TopLevel {
		return fmt.Sprintf("stream+0x%x", p.Offset)
	}
	return fmt.Sprintf("seg%d+0x%06x (depth %d)", p.Segment, p.Offset, p.Depth)
}

type cursor struct {
	data []byte
	pos  int
	seg  segment.ID
	base uint32
	top  bool
}

func (c *cursor) position(depth int) Position {
	return Position{Segment: c.seg, Offset: c.base + uint32(c.pos), Depth: depth, TopLevel: c.top}
}

// Decoder walks a display list one command at a time, following calls into
// segment memory with an explicit, bounded call stack.
type Decoder struct {
	segs     *segment.Table
	maxDepth int
	maxJumps int
	jumps    int

	cur   cursor
	stack []cursor
	state State
	last  Position
}

// NewDecoder returns a decoder over the top-level stream. Call addresses
// resolve through segs. maxDepth <= 0 selects DefaultMaxDepth.
func NewDecoder(stream []byte, segs *segment.Table, maxDepth int) *Decoder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	d := &Decoder{maxDepth: maxDepth, maxJumps: DefaultMaxJumps, stack: make([]cursor, 0, maxDepth)}
	d.Reset(stream, segs)
	return d
}

// Reset restarts decoding on a new stream.
func (d *Decoder) Reset(stream []byte, segs *segment.Table) {
	if segs == nil {
		segs = segment.NewTable()
	}
	d.segs = segs
	d.cur = cursor{data: stream, top: true}
	d.stack = d.stack[:0]
	d.state = StateDecoding
	d.last = Position{}
	d.jumps = 0
}

// SetMaxJumps sets how many calls and branches one stream may follow.
// n <= 0 selects DefaultMaxJumps.
func (d *Decoder) SetMaxJumps(n int) {
	if n <= 0 {
		n = DefaultMaxJumps
	}
	d.maxJumps = n
}

// State returns the decoder state.
func (d *Decoder) State() State { return d.state }

// Depth returns the number of active calls.
func (d *Decoder) Depth() int { return len(d.stack) }

// Position returns the location of the command last returned by Next.
func (d *Decoder) Position() Position { return d.last }

// Next decodes the next command.
//
// Calls and returns are followed before Next returns, so the command after a
// CallSublist comes from the callee. Reaching the end of the top-level
// stream yields an implicit EndStream; reaching the end of a called list
// returns to its caller. After EndStream or an error the decoder is halted.
func (d *Decoder) Next() (Command, error) {
	if d.state == StateHalted {
		return nil, ErrHalted
	}
	for d.cur.pos+8 > len(d.cur.data) {
		if len(d.stack) == 0 {
			d.last = d.cur.position(0)
			d.state = StateHalted
			return EndStream{Implicit: true}, nil
		}
		d.pop()
	}

	d.last = d.cur.position(len(d.stack))
	buf := d.cur.data[d.cur.pos:]
	w0 := binary.BigEndian.Uint32(buf)
	w1 := binary.BigEndian.Uint32(buf[4:])
	op := Opcode(w0 >> 24)
	info := op.Info()
	if d.cur.pos+info.Size() > len(d.cur.data) {
		d.state = StateHalted
		return nil, fmt.Errorf("%w: %v at %v needs %d bytes", ErrTruncated, op, d.last, info.Size())
	}
	var extra [2]uint32
	for i := 1; i < info.Words/2 && i <= len(extra); i++ {
		extra[i-1] = binary.BigEndian.Uint32(buf[8*i+4:])
	}
	d.cur.pos += info.Size()

	if info.Class != ClassDecoded {
		return Skip{Op: op, Words: info.Words, Known: info.Class == ClassIgnored}, nil
	}
	cmd := decode(op, w0, w1, extra)

	switch c := cmd.(type) {
	case CallSublist:
		if err := d.call(c); err != nil {
			d.state = StateHalted
			return nil, err
		}
	case ReturnFromSublist:
		if len(d.stack) == 0 {
			d.state = StateHalted
		} else {
			d.pop()
		}
	case EndStream:
		d.state = StateHalted
	}
	return cmd, nil
}

func (d *Decoder) call(c CallSublist) error {
	if !c.Branch && len(d.stack) >= d.maxDepth {
		return fmt.Errorf("%w: depth %d at %v", ErrCallDepth, d.maxDepth, d.last)
	}
	if d.jumps >= d.maxJumps {
		return fmt.Errorf("%w: %d jumps at %v", ErrLoop, d.maxJumps, d.last)
	}
	d.jumps++
	view, err := d.segs.Remaining(c.Addr)
	if err != nil {
		return fmt.Errorf("gbi: display list 0x%08x at %v: %w", c.Addr, d.last, err)
	}
	if !c.Branch {
		d.stack = append(d.stack, d.cur)
	}
	d.cur = cursor{data: view.Bytes(), seg: view.Segment(), base: view.Offset()}
	return nil
}

func (d *Decoder) pop() {
	n := len(d.stack) - 1
	d.cur = d.stack[n]
	d.stack = d.stack[:n]
}

func decode(op Opcode, w0, w1 uint32, extra [2]uint32) Command {
	switch op {
	case OpVtx:
		return LoadVertices{Addr: w1, First: int((w0>>16)&0xFF) / 2, Count: int((w0 >> 10) & 0x3F)}
	case OpTri1:
		return DrawTriangles{Op: op, N: 1, Tris: [2]Triangle{tri(w1)}}
	case OpTri2:
		return DrawTriangles{Op: op, N: 2, Tris: [2]Triangle{tri(w0), tri(w1)}}
	case OpQuad:
		return DrawQuad{A: uint8(w1>>24) / 2, B: uint8(w1>>16) / 2, C: uint8(w1>>8) / 2, D: uint8(w1) / 2}
	case OpClearGeom:
		return SetGeometryFlags{Clear: state.GeometryFlags(w1)}
	case OpSetGeom:
		return SetGeometryFlags{Set: state.GeometryFlags(w1)}
	case OpSetOtherModeL, OpSetOtherModeH:
		return SetOtherMode{High: op == OpSetOtherModeH, Shift: uint8(w0 >> 8), Length: uint8(w0), Bits: w1}
	case OpRDPSetOtherMode:
		return SetOtherModeWords{H: w0 & 0x00FFFFFF, L: w1}
	case OpSetCombine:
		return SetCombineDescriptor{Desc: state.ParseCombine(w0&0x00FFFFFF, w1)}
	case OpSetTImg:
		return SetBoundTexture{Image: state.TextureImage{
			Addr:   w1,
			ImgFmt: uint8(w0>>21) & 7,
			Size:   uint8(w0>>19) & 3,
			Width:  uint16(w0&0xFFF) + 1,
		}}
	case OpSetTile:
		return SetTile{Tile: int(w1>>24) & 7, Desc: state.Tile{
			ImgFmt:  uint8(w0>>21) & 7,
			Size:    uint8(w0>>19) & 3,
			Line:    uint16(w0>>9) & 0x1FF,
			TMem:    uint16(w0) & 0x1FF,
			Palette: uint8(w1>>20) & 0xF,
			MirrorT: w1&(1<<18) != 0,
			ClampT:  w1&(1<<19) != 0,
			MaskT:   uint8(w1>>14) & 0xF,
			ShiftT:  uint8(w1>>10) & 0xF,
			MirrorS: w1&(1<<8) != 0,
			ClampS:  w1&(1<<9) != 0,
			MaskS:   uint8(w1>>4) & 0xF,
			ShiftS:  uint8(w1) & 0xF,
		}}
	case OpSetTileSize:
		uls, ult, tile, lrs, lrt := rect(w0, w1)
		return SetTileWindow{Tile: tile, ULS: uls, ULT: ult, LRS: lrs, LRT: lrt}
	case OpLoadBlock, OpLoadTile:
		uls, ult, tile, lrs, lrt := rect(w0, w1)
		return LoadTileTexels{Tile: tile, Block: op == OpLoadBlock, ULS: uls, ULT: ult, LRS: lrs, LRT: lrt}
	case OpSetPrimColor:
		return SetConstantColor{Kind: state.ColorPrimitive, Value: w1, MinLOD: uint8(w0 >> 8), LODFrac: uint8(w0)}
	case OpSetEnvColor:
		return SetConstantColor{Kind: state.ColorEnvironment, Value: w1}
	case OpSetFogColor:
		return SetConstantColor{Kind: state.ColorFog, Value: w1}
	case OpSetBlendColor:
		return SetConstantColor{Kind: state.ColorBlend, Value: w1}
	case OpSetFillColor:
		return SetConstantColor{Kind: state.ColorFill, Value: w1}
	case OpMtx:
		p := (w0 >> 16) & 0xFF
		return SetMatrix{Addr: w1, Projection: p&MtxProjection != 0, Load: p&MtxLoad != 0, Push: p&MtxPush != 0}
	case OpPopMtx:
		return PopMatrix{}
	case OpTexture:
		return SetTextureScale{Scale: state.TextureScale{
			S:     textureScale(uint16(w1 >> 16)),
			T:     textureScale(uint16(w1)),
			Level: uint8(w0>>11) & 7,
			Tile:  uint8(w0>>8) & 7,
			On:    w0&0xFF != 0,
		}}
	case OpSetScissor:
		return SetScissor{Mode: uint8(w1>>24) & 3, Scissor: state.Scissor{
			X0: fixed2(w0 >> 12), Y0: fixed2(w0),
			X1: fixed2(w1 >> 12), Y1: fixed2(w1),
		}}
	case OpMoveWord:
		return MoveWord{Index: uint8(w0), Offset: uint16(w0 >> 8), Value: w1}
	case OpMoveMem:
		return MoveMem{Index: uint8(w0 >> 16), Size: int(w0 & 0xFFFF), Addr: w1}
	case OpDL:
		return CallSublist{Addr: w1, Branch: (w0>>16)&0xFF == DLBranch}
	case OpEndDL:
		return ReturnFromSublist{}
	case OpFillRect:
		return FillRect{X0: fixed2(w1 >> 12), Y0: fixed2(w1), X1: fixed2(w0 >> 12), Y1: fixed2(w0)}
	case OpTexRect, OpTexRectFlip:
		return TexturedRect{
			X0: fixed2(w1 >> 12), Y0: fixed2(w1),
			X1: fixed2(w0 >> 12), Y1: fixed2(w0),
			Tile: int(w1>>24) & 7,
			S:    float32(int16(extra[0]>>16)) / 32,
			T:    float32(int16(extra[0])) / 32,
			DsDx: float32(int16(extra[1]>>16)) / 1024,
			DtDy: float32(int16(extra[1])) / 1024,
			Flip: op == OpTexRectFlip,
		}
	case OpFullSync:
		return EndStream{}
	}
	return Skip{Op: op, Words: 2}
}

// Matrix command parameter bits.
const (
	MtxProjection = 0x01
	MtxLoad       = 0x02
	MtxPush       = 0x04
)

// Display-list call parameters.
const (
	DLCall   = 0
	DLBranch = 1
)

func tri(w uint32) Triangle {
	return Triangle{A: uint8(w>>16) / 2, B: uint8(w>>8) / 2, C: uint8(w) / 2}
}

func rect(w0, w1 uint32) (uls, ult uint16, tile int, lrs, lrt uint16) {
	return uint16(w0>>12) & 0xFFF, uint16(w0) & 0xFFF, int(w1>>24) & 7, uint16(w1>>12) & 0xFFF, uint16(w1) & 0xFFF
}

// fixed2 converts the low 12 bits of v from 10.2 fixed point.
func fixed2(v uint32) float32 {
	return float32(v&0xFFF) / 4
}

// textureScale converts a 0.16 scale; 0xFFFF stands for 1.
func textureScale(v uint16) float32 {
	if v == 0xFFFF {
		return 1
	}
	return float32(v) / 65536
}
