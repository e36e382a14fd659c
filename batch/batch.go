package batch

import (
	"sync"

	"github.com/gogpu/f3d/state"
)

// Kind is the primitive a batch draws.
type Kind uint8

const (
	KindTriangles Kind = iota
	KindFillRect
	KindTexRect
)

func (k Kind) String() string {
	switch k {
	case KindFillRect:
		return "fillrect"
	case KindTexRect:
		return "texrect"
	default:
		return "triangles"
	}
}

// Reason records why a batch was flushed.
type Reason uint8

const (
	ReasonStateChange Reason = iota
	ReasonCap
	ReasonRect
	ReasonEnd
)

func (r Reason) String() string {
	switch r {
	case ReasonStateChange:
		return "state"
	case ReasonCap:
		return "cap"
	case ReasonRect:
		return "rect"
	default:
		return "end"
	}
}

// Batch is a run of geometry drawn with one render state.
type Batch struct {
	Kind     Kind
	State    state.RenderState
	Vertices []Vertex
	Indices  []uint16

	// Reason is set when the batch is flushed; Seq numbers the batches of
	// a frame from 0.
	Reason Reason
	Seq    int

	pool *Pool
}

// Triangles returns the number of triangles in the batch.
func (b *Batch) Triangles() int { return len(b.Indices) / 3 }

// Reset empties b, keeping its buffers.
func (b *Batch) Reset() {
	b.Kind = KindTriangles
	b.State = state.RenderState{}
	b.Vertices = b.Vertices[:0]
	b.Indices = b.Indices[:0]
	b.Reason = 0
	b.Seq = 0
}

// Release returns b to the pool it came from. b must not be used afterwards.
func (b *Batch) Release() {
	if b != nil && b.pool != nil {
		b.pool.Put(b)
	}
}

// Pool manages reusable batches.
type Pool struct {
	pool sync.Pool
}

// NewPool creates a batch pool.
func NewPool() *Pool {
	p := &Pool{}
	p.pool.New = func() any {
		return &Batch{
			Vertices: make([]Vertex, 0, 96),
			Indices:  make([]uint16, 0, 96),
			pool:     p,
		}
	}
	return p
}

// Get retrieves an empty batch.
func (p *Pool) Get() *Batch {
	b := p.pool.Get().(*Batch)
	b.Reset()
	return b
}

// Put returns a batch for reuse.
func (p *Pool) Put(b *Batch) {
	if b == nil {
		return
	}
	p.pool.Put(b)
}

// DefaultPool is shared by accumulators created without WithPool.
var DefaultPool = NewPool()
