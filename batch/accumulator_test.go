package batch

import (
	"errors"
	"testing"

	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/texture"
	"github.com/gogpu/f3d/vertex"
)

// collector records flushed batches.
type collector struct {
	batches []*Batch
	err     error
}

func (c *collector) Flush(b *Batch) error {
	if c.err != nil {
		return c.err
	}
	c.batches = append(c.batches, b)
	return nil
}

func (c *collector) sizes() []int {
	out := make([]int, len(c.batches))
	for i, b := range c.batches {
		out[i] = b.Triangles()
	}
	return out
}

func newAcc(t *testing.T, opts ...Option) (*Accumulator, *collector) {
	t.Helper()
	c := &collector{}
	a, err := New(c, append([]Option{WithPool(NewPool())}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return a, c
}

func loadRefs(t *testing.T, vc *vertex.Cache, start int, vs ...vertex.Vertex) []vertex.Ref {
	t.Helper()
	if err := vc.Load(start, vs); err != nil {
		t.Fatal(err)
	}
	refs := make([]vertex.Ref, len(vs))
	for i := range vs {
		r, err := vc.Ref(start + i)
		if err != nil {
			t.Fatal(err)
		}
		refs[i] = r
	}
	return refs
}

var tri = []vertex.Vertex{
	{X: -10, Y: -10, Z: 0, Shade: [4]uint8{255, 0, 0, 255}},
	{X: 10, Y: -10, Z: 0, Shade: [4]uint8{0, 255, 0, 255}},
	{X: 0, Y: 10, Z: 5, Shade: [4]uint8{0, 0, 255, 255}},
	{X: 20, Y: 20, Z: 0, Shade: [4]uint8{9, 9, 9, 255}},
}

func equalInts(a, b []int) bool {
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

func TestCapBoundary(t *testing.T) {
	tests := []struct {
		cap, tris int
		want      []int
	}{
		{2, 2, []int{2}},
		{2, 3, []int{2, 1}},
		{2, 5, []int{2, 2, 1}},
		{1000, 1000, []int{1000}},
		{1000, 1001, []int{1000, 1}},
	}
	for _, tt := range tests {
		a, c := newAcc(t, WithCap(tt.cap))
		rs := state.NewTracker().Capture()
		refs := loadRefs(t, vertex.NewCache(0), 0, tri[:3]...)
		for range tt.tris {
			if err := a.AppendTriangle(&rs, refs[0], refs[1], refs[2]); err != nil {
				t.Fatal(err)
			}
		}
		if err := a.Finish(); err != nil {
			t.Fatal(err)
		}
		if got := c.sizes(); !equalInts(got, tt.want) {
			t.Errorf("cap %d, %d triangles: batches %v, want %v", tt.cap, tt.tris, got, tt.want)
		}
		if st := a.Stats(); st.Triangles != tt.tris || st.CapFlushes != len(tt.want)-1 {
			t.Errorf("cap %d: stats %+v", tt.cap, st)
		}
	}
}

func TestTextureChangeSplitsBatch(t *testing.T) {
	a, c := newAcc(t)
	tr := state.NewTracker()
	tr.SetCombine(state.CombineDescriptor{Cycle: [2]state.CombineCycle{
		{A: state.CCTexel0, B: state.CCZeroAB, C: state.CCShade, D: state.CCZeroD},
	}})
	refs := loadRefs(t, vertex.NewCache(0), 0, tri[:3]...)
	texA := &texture.Descriptor{Buffer: &texture.Buffer{Width: 8, Height: 8}}
	texB := &texture.Descriptor{Buffer: &texture.Buffer{Width: 8, Height: 8}}

	tr.SetTexture(texA)
	rs := tr.Capture()
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	rs2 := tr.Capture()
	_ = a.AppendTriangle(&rs2, refs[0], refs[1], refs[2])
	tr.SetTexture(texB)
	rs3 := tr.Capture()
	_ = a.AppendTriangle(&rs3, refs[0], refs[1], refs[2])
	if err := a.Finish(); err != nil {
		t.Fatal(err)
	}
	if got := c.sizes(); !equalInts(got, []int{2, 1}) {
		t.Fatalf("batches %v, want [2 1]", got)
	}
	if c.batches[0].State.Texture != texA || c.batches[1].State.Texture != texB {
		t.Error("batches carry the wrong textures")
	}
	if c.batches[0].Reason != ReasonStateChange || c.batches[1].Reason != ReasonEnd {
		t.Errorf("reasons = %v, %v", c.batches[0].Reason, c.batches[1].Reason)
	}
}

func TestIdentityTransformKeepsPositions(t *testing.T) {
	a, c := newAcc(t)
	rs := state.NewTracker().Capture()
	refs := loadRefs(t, vertex.NewCache(0), 0, tri[:3]...)
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	_ = a.Finish()

	b := c.batches[0]
	if len(b.Vertices) != 3 || b.Triangles() != 1 {
		t.Fatalf("got %d vertices, %d triangles", len(b.Vertices), b.Triangles())
	}
	for i, v := range b.Vertices {
		src := tri[i]
		if v.X != float32(src.X) || v.Y != float32(src.Y) || v.Z != float32(src.Z) || v.W != 1 {
			t.Errorf("vertex %d = (%v %v %v %v), want (%d %d %d 1)", i, v.X, v.Y, v.Z, v.W, src.X, src.Y, src.Z)
		}
		if want := float32(src.Shade[0]) / 255; v.R != want {
			t.Errorf("vertex %d red = %v, want %v", i, v.R, want)
		}
	}
}

func TestVertexSharing(t *testing.T) {
	a, c := newAcc(t)
	rs := state.NewTracker().Capture()
	vc := vertex.NewCache(0)
	refs := loadRefs(t, vc, 0, tri...)

	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	_ = a.AppendTriangle(&rs, refs[0], refs[2], refs[3])
	// Reloading slot 0 gives a new generation: not shared.
	reloaded := loadRefs(t, vc, 0, tri[3])
	_ = a.AppendTriangle(&rs, reloaded[0], refs[1], refs[2])
	_ = a.Finish()

	b := c.batches[0]
	if len(b.Vertices) != 5 {
		t.Errorf("vertices = %d, want 5", len(b.Vertices))
	}
	if got := a.Stats().Shared; got != 4 {
		t.Errorf("shared = %d, want 4", got)
	}
	if b.Indices[6] == b.Indices[0] {
		t.Error("reloaded slot reused the stale vertex")
	}
}

func TestFlatShading(t *testing.T) {
	a, c := newAcc(t)
	tr := state.NewTracker()
	tr.SetGeometry(state.ShadingSmooth, 0)
	rs := tr.Capture()
	refs := loadRefs(t, vertex.NewCache(0), 0, tri[:3]...)
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	_ = a.Finish()

	b := c.batches[0]
	if len(b.Vertices) != 6 {
		t.Errorf("flat triangles shared vertices: %d", len(b.Vertices))
	}
	for i, v := range b.Vertices[:3] {
		if v.R != 1 || v.G != 0 || v.B != 0 {
			t.Errorf("vertex %d color = (%v %v %v), want first vertex red", i, v.R, v.G, v.B)
		}
	}
}

func TestDiscard(t *testing.T) {
	a, c := newAcc(t)
	rs := state.NewTracker().Capture()
	refs := loadRefs(t, vertex.NewCache(0), 0, tri[:3]...)
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	a.Discard()
	if err := a.Finish(); err != nil {
		t.Fatal(err)
	}
	if len(c.batches) != 0 {
		t.Errorf("discarded batch was flushed")
	}
	if st := a.Stats(); st.Discards != 1 || st.Batches != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestAppendRect(t *testing.T) {
	a, c := newAcc(t)
	rs := state.NewTracker().Capture()
	refs := loadRefs(t, vertex.NewCache(0), 0, tri[:3]...)
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])

	err := a.AppendRect(&rs, Rect{X0: 0, Y0: 0, X1: 320, Y1: 240, Color: [4]float32{1, 1, 1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(c.batches))
	}
	if c.batches[0].Reason != ReasonRect {
		t.Errorf("open batch flushed with %v", c.batches[0].Reason)
	}
	r := c.batches[1]
	if r.Kind != KindFillRect || r.Triangles() != 2 || len(r.Vertices) != 4 {
		t.Fatalf("rect batch = kind %v, %d tris, %d verts", r.Kind, r.Triangles(), len(r.Vertices))
	}
	corners := [4][2]float32{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}}
	for i, want := range corners {
		if v := r.Vertices[i]; v.X != want[0] || v.Y != want[1] {
			t.Errorf("corner %d = (%v, %v), want %v", i, v.X, v.Y, want)
		}
	}
}

func TestTexRectCoordinates(t *testing.T) {
	a, c := newAcc(t)
	tr := state.NewTracker()
	tr.SetTexture(&texture.Descriptor{Buffer: &texture.Buffer{Width: 16, Height: 16}})
	rs := tr.Capture()
	// The shade combiner does not sample; bind the texture for the rect anyway.
	rs.Texture = tr.Texture()

	err := a.AppendRect(&rs, Rect{X0: 10, Y0: 10, X1: 26, Y1: 18, Textured: true, S: 0, T: 0, DsDx: 1, DtDy: 1})
	if err != nil {
		t.Fatal(err)
	}
	v := c.batches[0].Vertices
	if v[2].U != 1 || v[2].V != 0.5 {
		t.Errorf("lower-right uv = (%v, %v), want (1, 0.5)", v[2].U, v[2].V)
	}
	if c.batches[0].Kind != KindTexRect {
		t.Errorf("kind = %v", c.batches[0].Kind)
	}
}

func TestLighting(t *testing.T) {
	a, c := newAcc(t)
	tr := state.NewTracker()
	tr.SetGeometry(0, state.Lighting)
	tr.SetLightCount(1)
	tr.SetLight(0, state.Light{Color: [3]uint8{200, 100, 0}, Dir: [3]int8{0, 0, 127}})
	tr.SetLight(1, state.Light{Color: [3]uint8{20, 20, 20}})
	rs := tr.Capture()

	facing := vertex.Vertex{Shade: [4]uint8{0, 0, 127, 255}}
	away := vertex.Vertex{Shade: [4]uint8{0, 0, 0x81, 255}}
	refs := loadRefs(t, vertex.NewCache(0), 0, facing, away, facing)
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	_ = a.Finish()

	v := c.batches[0].Vertices
	if got, want := v[0].R, float32(220)/255; got < want-1e-3 || got > want+1e-3 {
		t.Errorf("lit red = %v, want %v", got, want)
	}
	if got, want := v[1].R, float32(20)/255; got != want {
		t.Errorf("unlit red = %v, want ambient %v", got, want)
	}
}

func TestFog(t *testing.T) {
	a, c := newAcc(t)
	tr := state.NewTracker()
	tr.SetGeometry(0, state.Fog)
	tr.SetFog(state.FogParams{Multiplier: 128, Offset: 128})
	rs := tr.Capture()
	refs := loadRefs(t, vertex.NewCache(0), 0,
		vertex.Vertex{Z: 0}, vertex.Vertex{Z: -1}, vertex.Vertex{Z: 1})
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	_ = a.Finish()

	v := c.batches[0].Vertices
	want := []float32{128.0 / 255, 0, 1}
	for i := range want {
		if d := v[i].Fog - want[i]; d < -1e-3 || d > 1e-3 {
			t.Errorf("vertex %d fog = %v, want %v", i, v[i].Fog, want[i])
		}
	}
}

func TestSinkError(t *testing.T) {
	a, c := newAcc(t)
	c.err = errors.New("device lost")
	rs := state.NewTracker().Capture()
	refs := loadRefs(t, vertex.NewCache(0), 0, tri[:3]...)
	_ = a.AppendTriangle(&rs, refs[0], refs[1], refs[2])
	if err := a.Finish(); !errors.Is(err, c.err) {
		t.Errorf("err = %v, want wrapped sink error", err)
	}
}

func TestNewNilSink(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoSink) {
		t.Errorf("err = %v", err)
	}
}
