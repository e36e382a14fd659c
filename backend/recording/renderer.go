package recording

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/f3d/backend"
	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/shader"
	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/texture"
)

func init() {
	backend.Register(backend.BackendRecording, func() backend.Renderer { return New() })
}

var _ backend.Renderer = (*Renderer)(nil)

// Submission is one recorded draw.
type Submission struct {
	Seq       int
	Kind      batch.Kind
	ShaderKey shader.Key
	Variant   shader.Variant
	Fallback  bool

	// Texture is the bound texture, nil for untextured draws. TextureRef
	// indexes the same texture in Resources.
	Texture    *texture.Buffer
	TextureKey texture.Key
	TextureRef TextureRef

	Vertices []batch.Vertex
	Indices  []uint16

	Pipeline backend.PipelineState
	Uniforms shader.Uniforms
	Scissor  state.Scissor
	Reason   batch.Reason
}

// Triangles returns the number of triangles drawn.
func (s *Submission) Triangles() int { return len(s.Indices) / 3 }

// Renderer records submissions. It is safe for concurrent use, although the
// translator drives it from a single goroutine.
type Renderer struct {
	mu        sync.Mutex
	subs      []Submission
	resources *ResourcePool
	active    bool
	closed    bool
	frames    int
	width     int
	height    int
}

// New returns an empty recording renderer for a 320x240 target.
func New() *Renderer {
	return &Renderer{
		resources: NewResourcePool(),
		width:     batch.DefaultScreenWidth,
		height:    batch.DefaultScreenHeight,
	}
}

// Name returns "recording".
func (r *Renderer) Name() string { return backend.BackendRecording }

// BeginFrame clears the previous frame's submissions.
func (r *Renderer) BeginFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return backend.ErrClosed
	case r.active:
		return backend.ErrFrameActive
	}
	r.active = true
	clear(r.subs)
	r.subs = r.subs[:0]
	r.resources.Clear()
	return nil
}

// Submit records b. Vertices and indices are copied.
func (r *Renderer) Submit(b *batch.Batch, p *shader.Program) error {
	if p == nil {
		return backend.ErrNilProgram
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return fmt.Errorf("recording: submit: %w", backend.ErrNotInitialized)
	}
	if backend.ScissorEmpty(b.State.Scissor) {
		return backend.ErrEmptyScissor
	}

	s := Submission{
		Seq:        len(r.subs),
		Kind:       b.Kind,
		ShaderKey:  p.Key,
		Variant:    p.Variant,
		Fallback:   p.Fallback,
		TextureRef: TextureRef(InvalidRef),
		Vertices:   slices.Clone(b.Vertices),
		Indices:    slices.Clone(b.Indices),
		Pipeline:   backend.PipelineFor(b),
		Uniforms:   shader.UniformsFor(&b.State),
		Scissor:    b.State.Scissor,
		Reason:     b.Reason,
	}
	if tex := b.State.Texture; tex != nil {
		s.Texture = tex.Buffer
		s.TextureKey = tex.Key
		s.TextureRef = r.resources.AddTexture(tex.Buffer)
	}
	r.subs = append(r.subs, s)
	return nil
}

// EndFrame closes the frame. The returned frame has no pixels.
func (r *Renderer) EndFrame() (*backend.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil, fmt.Errorf("recording: end frame: %w", backend.ErrNotInitialized)
	}
	r.active = false
	r.frames++
	f := &backend.Frame{Width: r.width, Height: r.height, Draws: len(r.subs)}
	for i := range r.subs {
		f.Triangles += r.subs[i].Triangles()
	}
	return f, nil
}

// Submissions returns a copy of the draws recorded since the last BeginFrame.
func (r *Renderer) Submissions() []Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.subs)
}

// Resources returns the texture pool of the current frame.
func (r *Renderer) Resources() *ResourcePool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resources
}

// Frames returns the number of completed frames.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Reset drops all recorded data and ends any open frame.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = nil
	r.resources.Clear()
	r.active = false
	r.frames = 0
}

// Close marks the renderer closed.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.active = false
}
