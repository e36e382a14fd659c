// Package gbi decodes display lists: big-endian streams of 64-bit commands
// for the fixed-function geometry and rasterizer pipeline.
//
// Each command is a pair of 32-bit words (w0, w1) whose top byte is the
// opcode. A few commands span several pairs; the static opcode table records
// every command's length so unknown opcodes can be skipped without losing
// synchronization.
package gbi

import "fmt"

// Opcode is the first byte of a command.
type Opcode uint8

// Geometry processor opcodes.
const (
	OpSPNoop        Opcode = 0x00
	OpMtx           Opcode = 0x01
	OpMoveMem       Opcode = 0x03
	OpVtx           Opcode = 0x04
	OpDL            Opcode = 0x06
	OpTri2          Opcode = 0xB1
	OpRDPHalfCont   Opcode = 0xB2
	OpRDPHalf2      Opcode = 0xB3
	OpRDPHalf1      Opcode = 0xB4
	OpQuad          Opcode = 0xB5
	OpClearGeom     Opcode = 0xB6
	OpSetGeom       Opcode = 0xB7
	OpEndDL         Opcode = 0xB8
	OpSetOtherModeL Opcode = 0xB9
	OpSetOtherModeH Opcode = 0xBA
	OpTexture       Opcode = 0xBB
	OpMoveWord      Opcode = 0xBC
	OpPopMtx        Opcode = 0xBD
	OpCullDL        Opcode = 0xBE
	OpTri1          Opcode = 0xBF
	OpNoop          Opcode = 0xC0
)

// Rasterizer opcodes.
const (
	OpTexRect         Opcode = 0xE4
	OpTexRectFlip     Opcode = 0xE5
	OpLoadSync        Opcode = 0xE6
	OpPipeSync        Opcode = 0xE7
	OpTileSync        Opcode = 0xE8
	OpFullSync        Opcode = 0xE9
	OpSetKeyGB        Opcode = 0xEA
	OpSetKeyR         Opcode = 0xEB
	OpSetConvert      Opcode = 0xEC
	OpSetScissor      Opcode = 0xED
	OpSetPrimDepth    Opcode = 0xEE
	OpRDPSetOtherMode Opcode = 0xEF
	OpLoadTLUT        Opcode = 0xF0
	OpSetTileSize     Opcode = 0xF2
	OpLoadBlock       Opcode = 0xF3
	OpLoadTile        Opcode = 0xF4
	OpSetTile         Opcode = 0xF5
	OpFillRect        Opcode = 0xF6
	OpSetFillColor    Opcode = 0xF7
	OpSetFogColor     Opcode = 0xF8
	OpSetBlendColor   Opcode = 0xF9
	OpSetPrimColor    Opcode = 0xFA
	OpSetEnvColor     Opcode = 0xFB
	OpSetCombine      Opcode = 0xFC
	OpSetTImg         Opcode = 0xFD
	OpSetZImg         Opcode = 0xFE
	OpSetCImg         Opcode = 0xFF
)

// Class says how the decoder treats an opcode it does not turn into a
// typed command.
type Class uint8

const (
	// ClassUnknown opcodes are skipped and reported.
	ClassUnknown Class = iota
	// ClassDecoded opcodes produce a typed command.
	ClassDecoded
	// ClassIgnored opcodes are understood but have no effect here
	// (syncs, framebuffer setup); they are skipped silently.
	ClassIgnored
)

// OpInfo is the static description of an opcode.
type OpInfo struct {
	Name  string
	Words int // total 32-bit words, always even
	Class Class
}

// Size returns the command length in bytes.
func (i OpInfo) Size() int { return i.Words * 4 }

var opTable = buildOpTable()

func buildOpTable() [256]OpInfo {
	var t [256]OpInfo
	for i := range t {
		t[i] = OpInfo{Name: fmt.Sprintf("UNKNOWN_%02X", i), Words: 2, Class: ClassUnknown}
	}
	decoded := func(op Opcode, name string) { t[op] = OpInfo{Name: name, Words: 2, Class: ClassDecoded} }
	ignored := func(op Opcode, name string) { t[op] = OpInfo{Name: name, Words: 2, Class: ClassIgnored} }

	decoded(OpMtx, "MTX")
	decoded(OpMoveMem, "MOVEMEM")
	decoded(OpVtx, "VTX")
	decoded(OpDL, "DL")
	decoded(OpTri2, "TRI2")
	decoded(OpQuad, "QUAD")
	decoded(OpClearGeom, "CLEARGEOMETRYMODE")
	decoded(OpSetGeom, "SETGEOMETRYMODE")
	decoded(OpEndDL, "ENDDL")
	decoded(OpSetOtherModeL, "SETOTHERMODE_L")
	decoded(OpSetOtherModeH, "SETOTHERMODE_H")
	decoded(OpTexture, "TEXTURE")
	decoded(OpMoveWord, "MOVEWORD")
	decoded(OpPopMtx, "POPMTX")
	decoded(OpTri1, "TRI1")
	decoded(OpFullSync, "FULLSYNC")
	decoded(OpSetScissor, "SETSCISSOR")
	decoded(OpRDPSetOtherMode, "RDPSETOTHERMODE")
	decoded(OpSetTileSize, "SETTILESIZE")
	decoded(OpLoadBlock, "LOADBLOCK")
	decoded(OpLoadTile, "LOADTILE")
	decoded(OpSetTile, "SETTILE")
	decoded(OpFillRect, "FILLRECT")
	decoded(OpSetFillColor, "SETFILLCOLOR")
	decoded(OpSetFogColor, "SETFOGCOLOR")
	decoded(OpSetBlendColor, "SETBLENDCOLOR")
	decoded(OpSetPrimColor, "SETPRIMCOLOR")
	decoded(OpSetEnvColor, "SETENVCOLOR")
	decoded(OpSetCombine, "SETCOMBINE")
	decoded(OpSetTImg, "SETTIMG")
	t[OpTexRect] = OpInfo{Name: "TEXRECT", Words: 6, Class: ClassDecoded}
	t[OpTexRectFlip] = OpInfo{Name: "TEXRECTFLIP", Words: 6, Class: ClassDecoded}

	ignored(OpSPNoop, "SPNOOP")
	ignored(OpNoop, "NOOP")
	ignored(OpCullDL, "CULLDL")
	ignored(OpRDPHalfCont, "RDPHALF_CONT")
	ignored(OpRDPHalf1, "RDPHALF_1")
	ignored(OpRDPHalf2, "RDPHALF_2")
	ignored(OpLoadSync, "LOADSYNC")
	ignored(OpPipeSync, "PIPESYNC")
	ignored(OpTileSync, "TILESYNC")
	ignored(OpSetKeyGB, "SETKEYGB")
	ignored(OpSetKeyR, "SETKEYR")
	ignored(OpSetConvert, "SETCONVERT")
	ignored(OpSetPrimDepth, "SETPRIMDEPTH")
	ignored(OpLoadTLUT, "LOADTLUT")
	ignored(OpSetZImg, "SETZIMG")
	ignored(OpSetCImg, "SETCIMG")
	return t
}

// Info returns the static table entry for op.
func (op Opcode) Info() OpInfo { return opTable[op] }

func (op Opcode) String() string { return opTable[op].Name }
