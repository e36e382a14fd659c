package state

import (
	"errors"
	"testing"

	"github.com/gogpu/f3d/segment"
	"github.com/gogpu/f3d/texture"
)

func TestGeometryApply(t *testing.T) {
	tr := NewTracker()
	tr.SetGeometry(0, ZBuffer|CullBack)
	tr.SetGeometry(Shade, Lighting)

	want := (DefaultGeometry | ZBuffer | CullBack | Lighting) &^ Shade
	if got := tr.Geometry(); got != want {
		t.Errorf("Geometry = %v, want %v", got, want)
	}
}

func TestCompatibleIgnoresMatrices(t *testing.T) {
	tr := NewTracker()
	a := tr.Capture()

	m := Identity()
	m[3][0] = 10
	if err := tr.LoadMatrix(m, false, true, false); err != nil {
		t.Fatal(err)
	}
	tr.SetLightCount(2)
	tr.SetGeometry(0, Lighting)
	b := tr.Capture()

	if !Compatible(&a, &b) {
		t.Error("matrix and lighting changes broke compatibility")
	}
	if a.Transform.Seq == b.Transform.Seq {
		t.Error("matrix load did not advance the sequence number")
	}
}

func TestCompatibleRenderFields(t *testing.T) {
	base := NewTracker().Capture()
	tex := &texture.Descriptor{}

	tests := []struct {
		name   string
		mutate func(*RenderState)
	}{
		{"geometry", func(rs *RenderState) { rs.Geometry |= ZBuffer }},
		{"combine", func(rs *RenderState) { rs.Combine.Cycle[0].D = CCPrimitive }},
		{"texture", func(rs *RenderState) { rs.Texture = tex }},
		{"prim color", func(rs *RenderState) { rs.Colors.Primitive = RGBA{1, 2, 3, 4} }},
		{"env color", func(rs *RenderState) { rs.Colors.Environment = RGBA{1, 2, 3, 4} }},
		{"fog color", func(rs *RenderState) { rs.Colors.Fog = RGBA{1, 2, 3, 4} }},
		{"blend mode", func(rs *RenderState) { rs.OtherMode.L |= RMForceBlend }},
		{"scissor", func(rs *RenderState) { rs.Scissor.X1 = 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if Compatible(&base, &other) {
				t.Errorf("change to %s should break compatibility", tt.name)
			}
		})
	}
}

func TestCaptureDropsUnusedTexture(t *testing.T) {
	tr := NewTracker()
	tex := &texture.Descriptor{}
	tr.SetTexture(tex)

	if rs := tr.Capture(); rs.Texture != nil {
		t.Error("shade-only combiner kept a texture binding")
	}

	d := ShadeCombine
	d.Cycle[0].C = CCTexel0
	tr.SetCombine(d)
	if rs := tr.Capture(); rs.Texture != tex {
		t.Error("texturing combiner lost its texture binding")
	}
}

func TestMatrixStack(t *testing.T) {
	tr := NewTracker()
	if err := tr.PopMatrix(); !errors.Is(err, ErrMatrixStackEmpty) {
		t.Fatalf("pop on empty stack: err = %v", err)
	}

	scale := Identity()
	scale[0][0], scale[1][1], scale[2][2] = 2, 2, 2
	for i := range MaxMatrixStack {
		if err := tr.LoadMatrix(scale, false, false, true); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := tr.LoadMatrix(scale, false, false, true); !errors.Is(err, ErrMatrixStackFull) {
		t.Fatalf("push past depth: err = %v", err)
	}
	if tr.MatrixDepth() != MaxMatrixStack {
		t.Errorf("depth = %d", tr.MatrixDepth())
	}

	for range MaxMatrixStack {
		if err := tr.PopMatrix(); err != nil {
			t.Fatal(err)
		}
	}
	// Popping every push restores the matrix saved by the first one.
	rs := tr.Capture()
	if got := rs.Transform.ModelView[0][0]; got != 1 {
		t.Errorf("modelview[0][0] = %v, want 1", got)
	}
}

func TestMatrixMulOrder(t *testing.T) {
	tr := NewTracker()
	translate := Identity()
	translate[3][0] = 5
	scale := Identity()
	scale[0][0] = 3

	_ = tr.LoadMatrix(translate, false, true, false)
	_ = tr.LoadMatrix(scale, false, false, false) // scale × translate

	p := tr.Capture().Transform.MVP.Transform(1, 0, 0)
	if p[0] != 8 {
		t.Errorf("x = %v, want 8 (scale then translate)", p[0])
	}
}

func TestDecodeMatrix(t *testing.T) {
	m := Identity()
	m[0][0] = -1.5
	m[3][1] = 100.25
	buf := make([]byte, MatrixSize)
	EncodeMatrix(buf, m)

	tab := segment.NewTable()
	_ = tab.Bind(1, buf)
	v, _ := tab.Resolve(1, 0, MatrixSize)
	got, err := DecodeMatrix(v)
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Errorf("DecodeMatrix = %v, want %v", got, m)
	}
}

func TestOtherMode(t *testing.T) {
	tr := NewTracker()
	if tr.OtherMode().CycleType() != OneCycle {
		t.Fatal("default cycle type should be one-cycle")
	}
	tr.SetOtherMode(true, ShiftCycleType, 2, uint32(TwoCycle)<<ShiftCycleType)
	if tr.OtherMode().CycleType() != TwoCycle {
		t.Error("SetOtherMode did not switch to two-cycle")
	}
	if tr.OtherMode().Filter() != FilterBilinear {
		t.Error("SetOtherMode clobbered the texture filter")
	}

	// G_RM_XLU_SURF: FORCE_BL, blender (CLR_IN, A_IN, CLR_MEM, 1MA).
	xlu := uint32(RMImageRead|RMZModeXlu|RMForceBlend) | 1<<22
	tr.SetOtherModeWords(0, xlu)
	if !tr.OtherMode().Translucent() {
		t.Error("XLU surface not translucent")
	}
	// G_RM_OPA_SURF: (CLR_IN, 0, CLR_IN, 1).
	tr.SetOtherModeWords(0, 1<<18)
	if tr.OtherMode().Translucent() {
		t.Error("opaque surface reported translucent")
	}
}

func TestTextureRequest(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.TextureRequest(RenderTile); ok {
		t.Fatal("request without load should fail")
	}

	// I8 32x32 via load block: image as 16b, load tile 7, render tile 0.
	tr.SetTextureImage(TextureImage{Addr: segment.Address(3, 0x100), ImgFmt: 4, Size: 2, Width: 1})
	tr.SetTile(LoadTile, Tile{ImgFmt: 4, Size: 2})
	tr.LoadBlock(LoadTile, 0, 0)
	serial := tr.TextureSerial()
	tr.SetTile(RenderTile, Tile{ImgFmt: 4, Size: 1, Line: 4, ClampS: true, MirrorT: true})
	tr.SetTileSize(RenderTile, 0, 0, 31<<2, 31<<2)
	if tr.TextureSerial() == serial {
		t.Error("tile changes did not advance the texture serial")
	}

	req, ok := tr.TextureRequest(RenderTile)
	if !ok {
		t.Fatal("TextureRequest failed")
	}
	want := TextureRequest{
		Addr:   segment.Address(3, 0x100),
		Format: texture.I8,
		Width:  32, Height: 32,
		WrapS: texture.WrapClamp, WrapT: texture.WrapMirror,
	}
	if req != want {
		t.Errorf("request = %+v, want %+v", req, want)
	}
	if k := req.Key(); k.Segment != 3 || k.Offset != 0x100 || k.Width != 32 {
		t.Errorf("key = %v", k)
	}
}

func TestTextureRequestLoadTileStride(t *testing.T) {
	tr := NewTracker()
	// RGBA16 image 64 texels wide; load a 16x8 tile starting at (8, 4).
	tr.SetTextureImage(TextureImage{Addr: segment.Address(2, 0), ImgFmt: 0, Size: 2, Width: 64})
	tr.SetTile(LoadTile, Tile{ImgFmt: 0, Size: 2})
	tr.LoadTileRect(LoadTile, 8<<2, 4<<2)
	tr.SetTile(RenderTile, Tile{ImgFmt: 0, Size: 2})
	tr.SetTileSize(RenderTile, 8<<2, 4<<2, 23<<2, 11<<2)

	req, ok := tr.TextureRequest(RenderTile)
	if !ok {
		t.Fatal("TextureRequest failed")
	}
	if req.Stride != 128 {
		t.Errorf("stride = %d, want 128", req.Stride)
	}
	if _, off := segment.Split(req.Addr); off != 4*128+8*2 {
		t.Errorf("offset = %d", off)
	}
	if req.Width != 16 || req.Height != 8 || req.OriginS != 8 || req.OriginT != 4 {
		t.Errorf("request = %+v", req)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	tr := NewTracker()
	tr.SetGeometry(0, ZBuffer)
	tr.SetColor(ColorPrimitive, 0x11223344, 1, 2)
	tr.SetTexture(&texture.Descriptor{})
	tr.Reset()

	rs := tr.Capture()
	def := NewTracker().Capture()
	if !Compatible(&rs, &def) {
		t.Error("Reset did not restore the default state")
	}
	if tr.Texture() != nil {
		t.Error("Reset kept the texture binding")
	}
}
