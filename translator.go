package f3d

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/f3d/backend"
	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/gbi"
	"github.com/gogpu/f3d/segment"
	"github.com/gogpu/f3d/shader"
	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/texture"
	"github.com/gogpu/f3d/vertex"
)

// cancelCheckInterval is the number of commands between context checks.
const cancelCheckInterval = 64

// FrameReport summarizes one translated frame.
type FrameReport struct {
	// Commands is the number of commands decoded, sublists included.
	Commands int

	// Triangles is the number of triangles submitted, rectangles counting
	// two each. DroppedTriangles were skipped for invalid vertex references;
	// CulledTriangles were discarded because both faces were culled.
	Triangles        int
	DroppedTriangles int
	CulledTriangles  int

	Batches int
	Rects   int
	Flushes batch.Stats

	Diagnostics []Diagnostic
	Counts      map[DiagKind]int

	// Frame is the renderer's result. It is nil when the frame was aborted
	// before EndFrame could run.
	Frame *backend.Frame
}

// Count returns the number of diagnostics of kind k.
func (r *FrameReport) Count(k DiagKind) int { return r.Counts[k] }

// Translator runs display lists through decoding, state tracking and
// batching into a backend.Renderer.
//
// A Translator is not safe for concurrent use. Translators may share a
// texture cache and a shader manager.
type Translator struct {
	opts     options
	renderer backend.Renderer
	log      *slog.Logger

	decoder  *gbi.Decoder
	tracker  *state.Tracker
	vertices *vertex.Cache
	acc      *batch.Accumulator
	textures *texture.Cache
	shaders  *shader.Manager

	// Per-frame state.
	segs     *segment.Table
	report   *FrameReport
	op       gbi.Opcode
	texMemo  map[state.TextureRequest]*texture.Descriptor
	texBound bool
	texTile  int
	texSer   uint32
}

// New returns a translator that submits batches to r.
func New(r backend.Renderer, opts ...Option) (*Translator, error) {
	if r == nil {
		return nil, ErrNilRenderer
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.textures == nil {
		o.textures = texture.NewCache(defaultTextureEntries)
	}
	if o.shaders == nil {
		o.shaders = shader.NewManager()
	}

	t := &Translator{
		opts:     o,
		renderer: r,
		log:      o.logger,
		decoder:  gbi.NewDecoder(nil, nil, o.maxDepth),
		tracker:  state.NewTracker(),
		vertices: vertex.NewCache(o.vertexSlots),
		textures: o.textures,
		shaders:  o.shaders,
		texMemo:  make(map[state.TextureRequest]*texture.Descriptor),
	}
	t.decoder.SetMaxJumps(o.maxJumps)
	accOpts := []batch.Option{batch.WithCap(o.batchCap)}
	if o.pool != nil {
		accOpts = append(accOpts, batch.WithPool(o.pool))
	}
	acc, err := batch.New(t, accOpts...)
	if err != nil {
		return nil, err
	}
	t.acc = acc
	return t, nil
}

// Renderer returns the renderer batches are submitted to.
func (t *Translator) Renderer() backend.Renderer { return t.renderer }

// Textures returns the texture decode cache.
func (t *Translator) Textures() *texture.Cache { return t.textures }

// Shaders returns the shader manager.
func (t *Translator) Shaders() *shader.Manager { return t.shaders }

func (t *Translator) logger() *slog.Logger {
	if t.log != nil {
		return t.log
	}
	return Logger()
}

// RunFrame translates one display list.
//
// The tracker, vertex cache and accumulator are reset, the renderer frame
// is begun, and commands are decoded until the stream ends. Every batch is
// submitted before RunFrame returns.
//
// A fatal error discards the open batch and returns a *StreamError. The
// context is checked periodically; cancellation is reported the same way,
// wrapping ctx.Err(). The report is returned in both cases.
func (t *Translator) RunFrame(ctx context.Context, stream []byte, segs *segment.Table) (*FrameReport, error) {
	if segs == nil {
		segs = segment.NewTable()
	}
	t.beginFrame(stream, segs)
	defer t.release()
	report := t.report

	if err := t.renderer.BeginFrame(ctx); err != nil {
		return report, fmt.Errorf("f3d: begin frame: %w", err)
	}

	if err := t.decode(ctx); err != nil {
		t.acc.Discard()
		t.finishReport()
		if frame, endErr := t.renderer.EndFrame(); endErr == nil {
			report.Frame = frame
		}
		t.logger().Error("f3d: frame aborted", "err", err)
		return report, err
	}

	if err := t.acc.Finish(); err != nil {
		t.finishReport()
		_, _ = t.renderer.EndFrame()
		return report, t.streamError(err)
	}
	t.finishReport()
	frame, err := t.renderer.EndFrame()
	if err != nil {
		return report, fmt.Errorf("f3d: end frame: %w", err)
	}
	report.Frame = frame
	return report, nil
}

func (t *Translator) beginFrame(stream []byte, segs *segment.Table) {
	t.segs = segs
	t.decoder.Reset(stream, segs)
	t.report = &FrameReport{Counts: make(map[DiagKind]int)}
	t.tracker.Reset()
	t.vertices.Reset()
	t.acc.Reset()
	clear(t.texMemo)
	t.texBound = false
}

func (t *Translator) finishReport() {
	st := t.acc.Stats()
	t.report.Flushes = st
	t.report.Rects = st.Rects
}

// decode runs the decoder until it halts.
func (t *Translator) decode(ctx context.Context) error {
	for t.decoder.State() == gbi.StateDecoding {
		if t.report.Commands%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return t.streamError(err)
			}
		}
		cmd, err := t.decoder.Next()
		if err != nil {
			return t.streamError(err)
		}
		t.report.Commands++
		t.op = cmd.Opcode()
		if err := t.execute(cmd); err != nil {
			return t.streamError(err)
		}
	}
	return nil
}

func (t *Translator) streamError(err error) *StreamError {
	var se *StreamError
	if errors.As(err, &se) {
		return se
	}
	return &StreamError{Op: t.op, Pos: t.decoder.Position(), Err: err}
}

// diag records a recoverable problem with the current command.
func (t *Translator) diag(kind DiagKind, err error) {
	r := t.report
	r.Counts[kind]++
	if len(r.Diagnostics) < t.opts.diagLimit {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{Kind: kind, Op: t.op, Pos: t.decoder.Position(), Err: err})
	}
	if l := t.logger(); l.Enabled(context.Background(), slog.LevelWarn) {
		l.Warn("f3d: "+kind.String(), "op", t.op.String(), "pos", t.decoder.Position().String(), "err", err)
	}
}

// Flush implements batch.Sink. The program for the batch is looked up and
// the batch is submitted, then released.
func (t *Translator) Flush(b *batch.Batch) error {
	defer b.Release()
	p, err := t.shaders.Get(shader.KeyFor(&b.State))
	if err != nil {
		return err
	}
	if p.Fallback {
		t.diag(DiagShaderFallback, fmt.Errorf("combiner %v drawn as %v", p.Requested, p.Key))
	}
	if err := t.renderer.Submit(b, p); err != nil {
		if errors.Is(err, backend.ErrEmptyScissor) {
			t.diag(DiagEmptyScissor, fmt.Errorf("batch %d with %d triangles: %w", b.Seq, b.Triangles(), err))
			return nil
		}
		return fmt.Errorf("f3d: submit batch %d: %w", b.Seq, err)
	}
	t.report.Batches++
	t.report.Triangles += b.Triangles()
	t.logger().Debug("f3d: batch", "seq", b.Seq, "kind", b.Kind.String(), "reason", b.Reason.String(),
		"triangles", b.Triangles(), "shader", p.Key.String())
	return nil
}

// release drops per-frame references to caller memory.
func (t *Translator) release() {
	t.segs = nil
	t.decoder.Reset(nil, nil)
}
