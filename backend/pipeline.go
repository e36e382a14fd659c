package backend

import (
	"fmt"

	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/state"
)

// ScissorEmpty reports whether s covers no part of the screen.
func ScissorEmpty(s state.Scissor) bool {
	x0, x1 := max(s.X0, 0), min(s.X1, batch.DefaultScreenWidth)
	y0, y1 := max(s.Y0, 0), min(s.Y1, batch.DefaultScreenHeight)
	return x1 <= x0 || y1 <= y0
}

// Blend is the framebuffer blend mode of a draw.
type Blend uint8

const (
	// BlendOpaque replaces the framebuffer color.
	BlendOpaque Blend = iota
	// BlendAlpha mixes with the framebuffer using the fragment alpha.
	BlendAlpha
)

func (b Blend) String() string {
	if b == BlendAlpha {
		return "alpha"
	}
	return "opaque"
}

// Cull selects the faces a draw discards.
type Cull uint8

const (
	CullNone Cull = iota
	CullFront
	CullBack
)

func (c Cull) String() string {
	switch c {
	case CullFront:
		return "front"
	case CullBack:
		return "back"
	default:
		return "none"
	}
}

// Depth is the depth test configuration of a draw.
type Depth struct {
	Test  bool
	Write bool
	Decal bool // polygon offset toward the viewer
}

// PipelineState is the fixed-function state a backend needs besides the
// shader: it selects the render pipeline variant.
type PipelineState struct {
	Blend Blend
	Cull  Cull
	Depth Depth
}

func (p PipelineState) String() string {
	return fmt.Sprintf("blend=%v cull=%v z=%t/%t", p.Blend, p.Cull, p.Depth.Test, p.Depth.Write)
}

// PipelineFor derives the pipeline state of b from its render state.
//
// Rectangles are never culled and never depth tested. A triangle batch with
// both cull bits set should not reach a backend; it maps to CullBack.
func PipelineFor(b *batch.Batch) PipelineState {
	rs := &b.State
	var p PipelineState
	if rs.OtherMode.Translucent() {
		p.Blend = BlendAlpha
	}
	if b.Kind != batch.KindTriangles {
		return p
	}
	switch {
	case rs.Geometry.Has(state.CullBack):
		p.Cull = CullBack
	case rs.Geometry.Has(state.CullFront):
		p.Cull = CullFront
	}
	if rs.Geometry.Has(state.ZBuffer) {
		p.Depth = Depth{
			Test:  rs.OtherMode.DepthCompare(),
			Write: rs.OtherMode.DepthUpdate(),
			Decal: rs.OtherMode.Decal(),
		}
	}
	return p
}
