package gbi

import (
	"errors"
	"testing"

	"github.com/gogpu/f3d/segment"
	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/texture"
)

func decodeAll(t *testing.T, d *Decoder) []Command {
	t.Helper()
	var out []Command
	for d.State() == StateDecoding {
		cmd, err := d.Next()
		if err != nil {
			t.Fatalf("Next at %v: %v", d.Position(), err)
		}
		out = append(out, cmd)
	}
	return out
}

func opcodes(cmds []Command) []Opcode {
	ops := make([]Opcode, len(cmds))
	for i, c := range cmds {
		ops[i] = c.Opcode()
	}
	return ops
}

func equalOps(a, b []Opcode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDecodeCommands(t *testing.T) {
	tests := []struct {
		name string
		emit func(b *Builder)
		want Command
	}{
		{
			name: "vtx",
			emit: func(b *Builder) { b.Vtx(0x06000100, 4, 12) },
			want: LoadVertices{Addr: 0x06000100, First: 4, Count: 12},
		},
		{
			name: "tri2",
			emit: func(b *Builder) { b.Tri2(Triangle{0, 1, 2}, Triangle{3, 4, 31}) },
			want: DrawTriangles{Op: OpTri2, N: 2, Tris: [2]Triangle{{0, 1, 2}, {3, 4, 31}}},
		},
		{
			name: "quad",
			emit: func(b *Builder) { b.Quad(0, 1, 2, 3) },
			want: DrawQuad{A: 0, B: 1, C: 2, D: 3},
		},
		{
			name: "clear geometry",
			emit: func(b *Builder) { b.ClearGeometryMode(state.Lighting | state.Fog) },
			want: SetGeometryFlags{Clear: state.Lighting | state.Fog},
		},
		{
			name: "texture scale",
			emit: func(b *Builder) { b.Texture(1, 0.5, 0, 1, true) },
			want: SetTextureScale{Scale: state.TextureScale{S: 1, T: 0.5, Tile: 1, On: true}},
		},
		{
			name: "scissor",
			emit: func(b *Builder) { b.SetScissor(0, 10.25, 8, 300, 220.5) },
			want: SetScissor{Scissor: state.Scissor{X0: 10.25, Y0: 8, X1: 300, Y1: 220.5}},
		},
		{
			name: "prim color",
			emit: func(b *Builder) { b.SetPrimColor(3, 0x80, 0x11223344) },
			want: SetConstantColor{Kind: state.ColorPrimitive, Value: 0x11223344, MinLOD: 3, LODFrac: 0x80},
		},
		{
			name: "push matrix",
			emit: func(b *Builder) { b.Matrix(0x06000040, MtxLoad|MtxPush) },
			want: SetMatrix{Addr: 0x06000040, Load: true, Push: true},
		},
		{
			name: "light",
			emit: func(b *Builder) { b.Light(2, 0x06000200) },
			want: MoveMem{Index: MVLight0 + 4, Addr: 0x06000200, Size: state.LightSize},
		},
		{
			name: "fill rect",
			emit: func(b *Builder) { b.FillRect(0, 0, 319, 239) },
			want: FillRect{X0: 0, Y0: 0, X1: 319, Y1: 239},
		},
		{
			name: "tex rect",
			emit: func(b *Builder) { b.TexRect(16, 32, 48, 64, 0, 1.5, -2, 4, 0.25, false) },
			want: TexturedRect{X0: 16, Y0: 32, X1: 48, Y1: 64, S: 1.5, T: -2, DsDx: 4, DtDy: 0.25},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.emit(b)
			d := NewDecoder(b.Bytes(), nil, 0)
			got, err := d.Next()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %#v\nwant %#v", got, tt.want)
			}
			if _, ok := mustNext(t, d).(EndStream); !ok {
				t.Error("expected implicit end after one command")
			}
		})
	}
}

func mustNext(t *testing.T, d *Decoder) Command {
	t.Helper()
	c, err := d.Next()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDecodeSetTile(t *testing.T) {
	want := state.Tile{
		ImgFmt: 2, Size: 1, Line: 4, TMem: 256, Palette: 3,
		ClampS: true, MirrorT: true, MaskS: 5, MaskT: 4, ShiftS: 1, ShiftT: 15,
	}
	d := NewDecoder(NewBuilder().SetTile(7, want).Bytes(), nil, 0)
	got, ok := mustNext(t, d).(SetTile)
	if !ok {
		t.Fatalf("got %T", got)
	}
	if got.Tile != 7 || got.Desc != want {
		t.Errorf("got tile %d %+v, want %+v", got.Tile, got.Desc, want)
	}
}

func TestLoadTextureBlockSequence(t *testing.T) {
	b := NewBuilder().LoadTextureBlock(0x05000000, texture.RGBA16, 32, 32, texture.WrapRepeat, texture.WrapClamp)
	cmds := decodeAll(t, NewDecoder(b.Bytes(), nil, 0))
	want := []Opcode{OpSetTImg, OpSetTile, OpLoadSync, OpLoadBlock, OpPipeSync, OpSetTile, OpSetTileSize, OpFullSync}
	if got := opcodes(cmds); !equalOps(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	load := cmds[3].(LoadTileTexels)
	if !load.Block || load.Tile != state.LoadTile || load.LRS != 32*32-1 {
		t.Errorf("load = %+v", load)
	}
	render := cmds[5].(SetTile)
	if render.Tile != state.RenderTile || render.Desc.MaskS != 5 || !render.Desc.ClampT || render.Desc.ClampS {
		t.Errorf("render tile = %+v", render)
	}
	size := cmds[6].(SetTileWindow)
	if size.LRS != 31<<2 || size.LRT != 31<<2 {
		t.Errorf("tile size = %+v", size)
	}
}

func TestCallAndReturn(t *testing.T) {
	sub := NewBuilder().Tri1(0, 1, 2).EndDL().Bytes()
	segs := segment.NewTable()
	if err := segs.Bind(6, sub); err != nil {
		t.Fatal(err)
	}
	main := NewBuilder().Vtx(0x06000000, 0, 3).Call(0x06000000).Tri1(2, 1, 0).FullSync().Bytes()

	d := NewDecoder(main, segs, 0)
	var depths []int
	var ops []Opcode
	for d.State() == StateDecoding {
		c := mustNext(t, d)
		ops = append(ops, c.Opcode())
		depths = append(depths, d.Position().Depth)
	}
	wantOps := []Opcode{OpVtx, OpDL, OpTri1, OpEndDL, OpTri1, OpFullSync}
	if !equalOps(ops, wantOps) {
		t.Fatalf("ops = %v, want %v", ops, wantOps)
	}
	wantDepths := []int{0, 0, 1, 1, 0, 0}
	for i := range wantDepths {
		if depths[i] != wantDepths[i] {
			t.Errorf("command %d (%v) depth = %d, want %d", i, ops[i], depths[i], wantDepths[i])
		}
	}
	if _, err := d.Next(); !errors.Is(err, ErrHalted) {
		t.Errorf("Next after end = %v, want ErrHalted", err)
	}
}

func TestSublistEndReturns(t *testing.T) {
	// A sublist that runs off the end of its segment returns to the caller.
	segs := segment.NewTable()
	if err := segs.Bind(6, NewBuilder().Tri1(0, 1, 2).Bytes()); err != nil {
		t.Fatal(err)
	}
	main := NewBuilder().Call(0x06000000).Tri1(3, 4, 5).Bytes()
	cmds := decodeAll(t, NewDecoder(main, segs, 0))
	want := []Opcode{OpDL, OpTri1, OpTri1, OpFullSync}
	if got := opcodes(cmds); !equalOps(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	if end := cmds[3].(EndStream); !end.Implicit {
		t.Error("end of top-level stream should be implicit")
	}
}

func TestBranchDoesNotReturn(t *testing.T) {
	segs := segment.NewTable()
	_ = segs.Bind(6, NewBuilder().Tri1(0, 1, 2).EndDL().Bytes())
	_ = segs.Bind(7, NewBuilder().Branch(0x06000000).Bytes())
	main := NewBuilder().Call(0x07000000).Quad(0, 1, 2, 3).FullSync().Bytes()

	d := NewDecoder(main, segs, 0)
	cmds := decodeAll(t, d)
	want := []Opcode{OpDL, OpDL, OpTri1, OpEndDL, OpQuad, OpFullSync}
	if got := opcodes(cmds); !equalOps(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
}

func TestCallDepthExceeded(t *testing.T) {
	segs := segment.NewTable()
	// Segment 6 calls itself forever.
	_ = segs.Bind(6, NewBuilder().Call(0x06000000).Bytes())

	d := NewDecoder(NewBuilder().Call(0x06000000).Bytes(), segs, 4)
	calls := 0
	for {
		_, err := d.Next()
		if err != nil {
			if !errors.Is(err, ErrCallDepth) {
				t.Fatalf("err = %v, want ErrCallDepth", err)
			}
			break
		}
		calls++
		if calls > 100 {
			t.Fatal("no depth error")
		}
	}
	if calls != 4 {
		t.Errorf("successful calls = %d, want 4", calls)
	}
	if d.State() != StateHalted {
		t.Error("decoder not halted after fatal error")
	}
}

func TestBranchLoop(t *testing.T) {
	tests := []struct {
		name  string
		bind  map[segment.ID][]byte
		limit int
	}{
		{"self", map[segment.ID][]byte{6: NewBuilder().Branch(0x06000000).Bytes()}, 0},
		{"cycle", map[segment.ID][]byte{
			6: NewBuilder().Tri1(0, 1, 2).Branch(0x07000000).Bytes(),
			7: NewBuilder().Branch(0x06000000).Bytes(),
		}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := segment.NewTable()
			for id, data := range tt.bind {
				if err := segs.Bind(id, data); err != nil {
					t.Fatal(err)
				}
			}
			d := NewDecoder(NewBuilder().Call(0x06000000).FullSync().Bytes(), segs, 0)
			d.SetMaxJumps(tt.limit)
			limit := tt.limit
			if limit <= 0 {
				limit = DefaultMaxJumps
			}
			jumps := 0
			for n := 0; ; n++ {
				cmd, err := d.Next()
				if err != nil {
					if !errors.Is(err, ErrLoop) {
						t.Fatalf("err = %v, want ErrLoop", err)
					}
					break
				}
				if _, ok := cmd.(CallSublist); ok {
					jumps++
				}
				if n > 4*limit {
					t.Fatal("decoder never gave up on the loop")
				}
			}
			if jumps != limit {
				t.Errorf("jumps followed = %d, want %d", jumps, limit)
			}
			if d.State() != StateHalted {
				t.Error("decoder not halted")
			}

			// Reset restores the budget.
			d.Reset(NewBuilder().Call(0x06000000).Bytes(), segs)
			if _, err := d.Next(); err != nil {
				t.Errorf("first call after Reset = %v", err)
			}
		})
	}
}

func TestCallUnresolved(t *testing.T) {
	segs := segment.NewTable()
	_ = segs.Bind(6, make([]byte, 16))
	tests := []struct {
		name string
		addr uint32
		want error
	}{
		{"unbound", 0x09000000, segment.ErrUnbound},
		{"out of range", 0x06000100, segment.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(NewBuilder().Call(tt.addr).Bytes(), segs, 0)
			if _, err := d.Next(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if d.State() != StateHalted {
				t.Error("decoder not halted")
			}
		})
	}
}

func TestUnknownAndIgnoredOpcodes(t *testing.T) {
	b := NewBuilder().Raw(0x2A000000, 0).PipeSync().Tri1(0, 1, 2)
	cmds := decodeAll(t, NewDecoder(b.Bytes(), nil, 0))
	if len(cmds) != 4 {
		t.Fatalf("got %d commands, want 4", len(cmds))
	}
	unknown := cmds[0].(Skip)
	if unknown.Known || unknown.Op != 0x2A || unknown.Words != 2 {
		t.Errorf("unknown = %+v", unknown)
	}
	if sync := cmds[1].(Skip); !sync.Known {
		t.Errorf("pipe sync = %+v, want known", sync)
	}
	if _, ok := cmds[2].(DrawTriangles); !ok {
		t.Errorf("decoding did not resume after skips: %T", cmds[2])
	}
}

func TestTruncatedTexRect(t *testing.T) {
	b := NewBuilder().TexRect(0, 0, 8, 8, 0, 0, 0, 1, 1, false)
	stream := b.Bytes()[:16]
	d := NewDecoder(stream, nil, 0)
	if _, err := d.Next(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestTopLevelEndDLHalts(t *testing.T) {
	d := NewDecoder(NewBuilder().EndDL().Tri1(0, 1, 2).Bytes(), nil, 0)
	if _, ok := mustNext(t, d).(ReturnFromSublist); !ok {
		t.Fatal("want ReturnFromSublist")
	}
	if d.State() != StateHalted {
		t.Error("ENDDL at top level should halt")
	}
}
