package backend

import (
	"context"
	"slices"
	"testing"

	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/shader"
	"github.com/gogpu/f3d/state"
)

type fakeRenderer struct{ name string }

func (f *fakeRenderer) Name() string { return f.name }
func (f *fakeRenderer) BeginFrame(context.Context) error { return nil }
func (f *fakeRenderer) Submit(*batch.Batch, *shader.Program) error { return nil }
func (f *fakeRenderer) EndFrame() (*Frame, error) { return &Frame{}, nil }
func (f *fakeRenderer) Close() {}

// withRegistry swaps the global registry for the duration of a test.
func withRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = make(map[string]Factory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})
}

func TestRegistry(t *testing.T) {
	withRegistry(t)

	if r := Default(); r != nil {
		t.Fatalf("Default() on empty registry = %v", r.Name())
	}
	Register("zeta", func() Renderer { return &fakeRenderer{"zeta"} })
	Register(BackendRecording, func() Renderer { return &fakeRenderer{BackendRecording} })

	if got := Available(); !slices.Equal(got, []string{BackendRecording, "zeta"}) {
		t.Errorf("Available() = %v", got)
	}
	if !IsRegistered("zeta") || IsRegistered("missing") {
		t.Error("IsRegistered mismatch")
	}
	if r := Get("missing"); r != nil {
		t.Errorf("Get(missing) = %v", r)
	}
	if r := Default(); r.Name() != BackendRecording {
		t.Errorf("Default() = %q, want %q", r.Name(), BackendRecording)
	}

	// A native factory that cannot run is skipped.
	Register(BackendNative, func() Renderer { return nil })
	if r := Default(); r.Name() != BackendRecording {
		t.Errorf("Default() with unavailable native = %q", r.Name())
	}
	Register(BackendNative, func() Renderer { return &fakeRenderer{BackendNative} })
	if r := Default(); r.Name() != BackendNative {
		t.Errorf("Default() = %q, want native", r.Name())
	}

	Unregister(BackendNative)
	Unregister(BackendRecording)
	if r := Default(); r.Name() != "zeta" {
		t.Errorf("Default() fallback = %q, want zeta", r.Name())
	}
}

func TestMustDefaultPanics(t *testing.T) {
	withRegistry(t)
	defer func() {
		if recover() == nil {
			t.Error("MustDefault() did not panic on empty registry")
		}
	}()
	MustDefault()
}

func TestPipelineFor(t *testing.T) {
	translucent := state.OtherMode{L: state.RMForceBlend | 1<<22}
	zbuf := state.OtherMode{L: state.RMZCompare | state.RMZUpdate}

	tests := []struct {
		name string
		kind batch.Kind
		geom state.GeometryFlags
		mode state.OtherMode
		want PipelineState
	}{
		{"default", batch.KindTriangles, state.DefaultGeometry, state.DefaultOtherMode, PipelineState{}},
		{"cull back", batch.KindTriangles, state.CullBack, state.OtherMode{}, PipelineState{Cull: CullBack}},
		{"cull front", batch.KindTriangles, state.CullFront, state.OtherMode{}, PipelineState{Cull: CullFront}},
		{"translucent", batch.KindTriangles, 0, translucent, PipelineState{Blend: BlendAlpha}},
		{"depth", batch.KindTriangles, state.ZBuffer, zbuf, PipelineState{Depth: Depth{Test: true, Write: true}}},
		{"depth without zbuffer", batch.KindTriangles, 0, zbuf, PipelineState{}},
		{"rect ignores cull and depth", batch.KindFillRect, state.ZBuffer | state.CullBack, zbuf, PipelineState{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &batch.Batch{Kind: tt.kind}
			b.State.Geometry = tt.geom
			b.State.OtherMode = tt.mode
			if got := PipelineFor(b); got != tt.want {
				t.Errorf("PipelineFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScissorEmpty(t *testing.T) {
	tests := []struct {
		name string
		in   state.Scissor
		want bool
	}{
		{"default", state.DefaultScissor, false},
		{"inner", state.Scissor{X0: 10, Y0: 10, X1: 20, Y1: 12}, false},
		{"zero width", state.Scissor{X0: 50, Y0: 50, X1: 50, Y1: 60}, true},
		{"inverted", state.Scissor{X0: 60, Y0: 50, X1: 50, Y1: 60}, true},
		{"right of screen", state.Scissor{X0: 320, Y0: 0, X1: 400, Y1: 240}, true},
		{"above screen", state.Scissor{X0: 0, Y0: -20, X1: 320, Y1: 0}, true},
		{"partly off screen", state.Scissor{X0: -10, Y0: -10, X1: 5, Y1: 5}, false},
		{"zero value", state.Scissor{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScissorEmpty(tt.in); got != tt.want {
				t.Errorf("ScissorEmpty(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFrameAt(t *testing.T) {
	f := &Frame{Width: 2, Height: 1, Pixels: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	if got := f.At(1, 0); got != [4]uint8{5, 6, 7, 8} {
		t.Errorf("At(1, 0) = %v", got)
	}
	if got := f.At(2, 0); got != [4]uint8{} {
		t.Errorf("At out of range = %v", got)
	}
	var nilFrame *Frame
	if got := nilFrame.At(0, 0); got != [4]uint8{} {
		t.Errorf("nil frame At = %v", got)
	}
}
