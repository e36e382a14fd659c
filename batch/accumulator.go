package batch

import (
	"errors"
	"fmt"

	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/vertex"
)

// DefaultCap is the default number of triangles per batch.
const DefaultCap = 1000

// Screen size used to map rectangle coordinates to clip space.
const (
	DefaultScreenWidth  = 320
	DefaultScreenHeight = 240
)

// maxVertices keeps indices within uint16.
const maxVertices = 1 << 16

// ErrNoSink is returned by New when sink is nil.
var ErrNoSink = errors.New("batch: nil sink")

// Sink receives flushed batches. It takes ownership of the batch and should
// Release it when done.
type Sink interface {
	Flush(*Batch) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(*Batch) error

// Flush calls f.
func (f SinkFunc) Flush(b *Batch) error { return f(b) }

// Stats counts accumulator activity since the last Reset.
type Stats struct {
	Batches      int
	Triangles    int
	Vertices     int
	Rects        int
	StateFlushes int
	CapFlushes   int
	RectFlushes  int
	EndFlushes   int
	Discards     int
	Shared       int // vertex references served from the remap table
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithCap sets the triangle limit per batch. Values <= 0 are ignored.
func WithCap(n int) Option {
	return func(a *Accumulator) {
		if n > 0 {
			a.cap = n
		}
	}
}

// WithPool sets the pool batches are taken from.
func WithPool(p *Pool) Option {
	return func(a *Accumulator) {
		if p != nil {
			a.pool = p
		}
	}
}

// WithScreen sets the screen size used for rectangles.
func WithScreen(width, height int) Option {
	return func(a *Accumulator) {
		if width > 0 && height > 0 {
			a.screenW, a.screenH = float32(width), float32(height)
		}
	}
}

type remapKey struct {
	slot uint8
	gen  uint32
	mtx  uint32
	bake uint32
}

// bakeState is the part of a render state baked into vertices besides the
// matrices. A change invalidates shared vertices.
type bakeState struct {
	geometry state.GeometryFlags
	lights   state.Lights
	scale    state.TextureScale
	fog      state.FogParams
	origin   [2]float32
	size     [2]int
}

func bakeOf(rs *state.RenderState) bakeState {
	b := bakeState{
		geometry: rs.Geometry,
		lights:   rs.Lights,
		scale:    rs.TexScale,
		fog:      rs.Fog,
	}
	if t := rs.Texture; t != nil {
		b.origin = [2]float32{t.OriginS, t.OriginT}
		b.size = [2]int{t.Width(), t.Height()}
	}
	return b
}

// Accumulator groups consecutive compatible triangles into batches.
// It is not safe for concurrent use.
type Accumulator struct {
	sink    Sink
	pool    *Pool
	cap     int
	screenW float32
	screenH float32

	cur   *Batch
	remap map[remapKey]uint16
	bake  bakeState
	bakeN uint32
	seq   int
	stats Stats
}

// New returns an accumulator flushing to sink.
func New(sink Sink, opts ...Option) (*Accumulator, error) {
	if sink == nil {
		return nil, ErrNoSink
	}
	a := &Accumulator{
		sink:    sink,
		pool:    DefaultPool,
		cap:     DefaultCap,
		screenW: DefaultScreenWidth,
		screenH: DefaultScreenHeight,
		remap:   make(map[remapKey]uint16, 64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Cap returns the triangle limit per batch.
func (a *Accumulator) Cap() int { return a.cap }

// Pending returns the number of triangles in the open batch.
func (a *Accumulator) Pending() int {
	if a.cur == nil {
		return 0
	}
	return a.cur.Triangles()
}

// Stats returns the counters since the last Reset.
func (a *Accumulator) Stats() Stats { return a.stats }

// Reset discards any open batch and zeroes the counters.
func (a *Accumulator) Reset() {
	a.drop()
	a.seq = 0
	a.bakeN = 0
	a.stats = Stats{}
}

// AppendTriangle adds the triangle (v0, v1, v2) drawn under rs.
//
// The open batch is flushed first when rs is not compatible with it or when
// it already holds Cap triangles.
func (a *Accumulator) AppendTriangle(rs *state.RenderState, v0, v1, v2 vertex.Ref) error {
	if a.cur != nil {
		switch {
		case !state.Compatible(&a.cur.State, rs):
			if err := a.flush(ReasonStateChange); err != nil {
				return err
			}
		case a.cur.Triangles() >= a.cap || len(a.cur.Vertices)+3 > maxVertices:
			if err := a.flush(ReasonCap); err != nil {
				return err
			}
		}
	}
	if a.cur == nil {
		a.open(rs, KindTriangles)
	}
	if b := bakeOf(rs); b != a.bake {
		a.bake = b
		a.bakeN++
	}

	b := a.cur
	if !rs.Geometry.Has(state.ShadingSmooth) {
		// Flat shading takes the first vertex's color, so the three
		// vertices cannot be shared with other triangles.
		first := transform(rs, v0.Vertex)
		for i, r := range [3]vertex.Ref{v0, v1, v2} {
			gv := first
			if i > 0 {
				gv = transform(rs, r.Vertex)
				gv.R, gv.G, gv.B, gv.A = first.R, first.G, first.B, first.A
			}
			b.Indices = append(b.Indices, uint16(len(b.Vertices)))
			b.Vertices = append(b.Vertices, gv)
		}
	} else {
		for _, r := range [3]vertex.Ref{v0, v1, v2} {
			b.Indices = append(b.Indices, a.index(rs, r))
		}
	}
	a.stats.Triangles++
	return nil
}

// index returns the batch index for r, appending the transformed vertex on
// first use.
func (a *Accumulator) index(rs *state.RenderState, r vertex.Ref) uint16 {
	k := remapKey{slot: r.Slot, gen: r.Generation, mtx: rs.Transform.Seq, bake: a.bakeN}
	if i, ok := a.remap[k]; ok {
		a.stats.Shared++
		return i
	}
	i := uint16(len(a.cur.Vertices))
	a.cur.Vertices = append(a.cur.Vertices, transform(rs, r.Vertex))
	a.remap[k] = i
	return i
}

// Rect is a screen-space rectangle in pixels, lower-right exclusive.
type Rect struct {
	X0, Y0, X1, Y1 float32

	// Texture coordinates in texels at (X0, Y0) and their per-pixel steps.
	// Flip swaps the axes the steps apply to.
	Textured   bool
	S, T       float32
	DsDx, DtDy float32
	Flip       bool

	Color [4]float32
}

// AppendRect flushes the open batch and submits r as its own batch.
func (a *Accumulator) AppendRect(rs *state.RenderState, r Rect) error {
	if a.cur != nil {
		if err := a.flush(ReasonRect); err != nil {
			return err
		}
	}
	kind := KindFillRect
	if r.Textured {
		kind = KindTexRect
	}
	b := a.open(rs, kind)

	w, h := r.X1-r.X0, r.Y1-r.Y0
	xs := [4]float32{r.X0, r.X1, r.X1, r.X0}
	ys := [4]float32{r.Y0, r.Y0, r.Y1, r.Y1}
	for i := range 4 {
		v := Vertex{
			X: xs[i]/a.screenW*2 - 1,
			Y: 1 - ys[i]/a.screenH*2,
			W: 1,
			R: r.Color[0], G: r.Color[1], B: r.Color[2], A: r.Color[3],
		}
		if r.Textured {
			dx, dy := xs[i]-r.X0, ys[i]-r.Y0
			if r.Flip {
				dx, dy = dy, dx
			}
			v.U, v.V = normalizeUV(rs, r.S+dx*r.DsDx, r.T+dy*r.DtDy)
		}
		b.Vertices = append(b.Vertices, v)
	}
	b.Indices = append(b.Indices, 0, 1, 2, 0, 2, 3)
	a.stats.Triangles += 2
	a.stats.Rects++
	if w <= 0 || h <= 0 {
		slogger().Debug("degenerate rectangle", "x0", r.X0, "y0", r.Y0, "x1", r.X1, "y1", r.Y1)
	}
	return a.flush(ReasonRect)
}

// Finish flushes the open batch at the end of a stream.
func (a *Accumulator) Finish() error {
	if a.cur == nil || len(a.cur.Indices) == 0 {
		a.drop()
		return nil
	}
	return a.flush(ReasonEnd)
}

// Discard drops the open batch without submitting it.
func (a *Accumulator) Discard() {
	if a.cur != nil {
		a.stats.Discards++
		slogger().Debug("batch discarded", "triangles", a.cur.Triangles())
	}
	a.drop()
}

func (a *Accumulator) drop() {
	if a.cur != nil {
		a.cur.Release()
		a.cur = nil
	}
	clear(a.remap)
}

func (a *Accumulator) open(rs *state.RenderState, kind Kind) *Batch {
	b := a.pool.Get()
	b.Kind = kind
	b.State = *rs
	a.cur = b
	clear(a.remap)
	return b
}

func (a *Accumulator) flush(reason Reason) error {
	b := a.cur
	a.cur = nil
	clear(a.remap)

	b.Reason = reason
	b.Seq = a.seq
	a.seq++
	a.stats.Batches++
	a.stats.Vertices += len(b.Vertices)
	switch reason {
	case ReasonStateChange:
		a.stats.StateFlushes++
	case ReasonCap:
		a.stats.CapFlushes++
	case ReasonRect:
		a.stats.RectFlushes++
	case ReasonEnd:
		a.stats.EndFlushes++
	}
	slogger().Debug("batch flushed",
		"seq", b.Seq, "kind", b.Kind.String(), "reason", reason.String(),
		"triangles", b.Triangles(), "vertices", len(b.Vertices))
	if err := a.sink.Flush(b); err != nil {
		return fmt.Errorf("batch: flush %d: %w", b.Seq, err)
	}
	return nil
}
