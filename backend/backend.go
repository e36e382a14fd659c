package backend

import (
	"context"
	"errors"

	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/shader"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when Submit or EndFrame is called outside
	// a BeginFrame/EndFrame pair.
	ErrNotInitialized = errors.New("backend: frame not begun")

	// ErrFrameActive is returned by BeginFrame when the previous frame was
	// not ended.
	ErrFrameActive = errors.New("backend: frame already begun")

	// ErrNilProgram is returned by Submit when no shader program is given.
	ErrNilProgram = errors.New("backend: nil shader program")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("backend: renderer closed")

	// ErrEmptyScissor is returned by Submit when the batch scissor covers
	// no pixels. Nothing is drawn and the frame stays open.
	ErrEmptyScissor = errors.New("backend: empty scissor")
)

// Renderer executes batches produced by the translator. It makes no batching
// decisions of its own: every Submit becomes one draw.
//
// Renderers must be registered via Register() and are selected via Get() or
// Default().
type Renderer interface {
	// Name returns the backend identifier (e.g., "native", "recording").
	Name() string

	// BeginFrame starts a frame. Batches may be submitted until EndFrame.
	BeginFrame(ctx context.Context) error

	// Submit draws b with program p. The renderer must not retain b after
	// Submit returns; the caller releases it to the batch pool. A batch
	// whose scissor is empty is skipped with ErrEmptyScissor.
	Submit(b *batch.Batch, p *shader.Program) error

	// EndFrame completes the frame and returns its summary.
	EndFrame() (*Frame, error)

	// Close releases all backend resources.
	// The renderer should not be used after Close is called.
	Close()
}

// Frame summarizes a rendered frame.
type Frame struct {
	Width, Height int

	// Pixels holds the frame as tightly packed RGBA8 rows when the backend
	// reads the target back; nil otherwise.
	Pixels []byte

	Draws     int
	Triangles int
}

// At returns the RGBA value of pixel (x, y), or zero when out of range or
// when the frame has no pixels.
func (f *Frame) At(x, y int) [4]uint8 {
	if f == nil || x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return [4]uint8{}
	}
	i := (y*f.Width + x) * 4
	if i+4 > len(f.Pixels) {
		return [4]uint8{}
	}
	return [4]uint8{f.Pixels[i], f.Pixels[i+1], f.Pixels[i+2], f.Pixels[i+3]}
}
