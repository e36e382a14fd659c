package f3d

import (
	"errors"
	"fmt"

	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/gbi"
	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/vertex"
)

// quietOps are skipped opcodes that need no diagnostic: syncs, no-ops and
// commands whose effect the translator does not depend on.
var quietOps = map[gbi.Opcode]bool{
	gbi.OpSPNoop:      true,
	gbi.OpNoop:        true,
	gbi.OpCullDL:      true,
	gbi.OpRDPHalfCont: true,
	gbi.OpRDPHalf1:    true,
	gbi.OpRDPHalf2:    true,
	gbi.OpLoadSync:    true,
	gbi.OpPipeSync:    true,
	gbi.OpTileSync:    true,
	gbi.OpSetZImg:     true,
	gbi.OpSetCImg:     true,
}

// execute applies one command. Errors it returns are fatal.
func (t *Translator) execute(cmd gbi.Command) error {
	switch c := cmd.(type) {
	case gbi.LoadVertices:
		return t.loadVertices(c)
	case gbi.DrawTriangles:
		for _, tri := range c.Triangles() {
			if err := t.drawTriangle(tri); err != nil {
				return err
			}
		}
	case gbi.DrawQuad:
		for _, tri := range c.Triangles() {
			if err := t.drawTriangle(tri); err != nil {
				return err
			}
		}
	case gbi.SetGeometryFlags:
		t.tracker.SetGeometry(c.Clear, c.Set)
	case gbi.SetOtherMode:
		t.tracker.SetOtherMode(c.High, c.Shift, c.Length, c.Bits)
	case gbi.SetOtherModeWords:
		t.tracker.SetOtherModeWords(c.H, c.L)
	case gbi.SetCombineDescriptor:
		t.tracker.SetCombine(c.Desc)
	case gbi.SetBoundTexture:
		t.tracker.SetTextureImage(c.Image)
	case gbi.SetTile:
		t.tracker.SetTile(c.Tile, c.Desc)
	case gbi.SetTileWindow:
		t.tracker.SetTileSize(c.Tile, c.ULS, c.ULT, c.LRS, c.LRT)
	case gbi.LoadTileTexels:
		if c.Block {
			t.tracker.LoadBlock(c.Tile, c.ULS, c.ULT)
		} else {
			t.tracker.LoadTileRect(c.Tile, c.ULS, c.ULT)
		}
	case gbi.SetConstantColor:
		t.tracker.SetColor(c.Kind, c.Value, c.MinLOD, c.LODFrac)
	case gbi.SetMatrix:
		return t.setMatrix(c)
	case gbi.PopMatrix:
		if err := t.tracker.PopMatrix(); err != nil {
			t.diag(DiagMatrixStack, err)
		}
	case gbi.SetTextureScale:
		t.tracker.SetTextureScale(c.Scale)
	case gbi.SetScissor:
		t.tracker.SetScissor(c.Scissor)
	case gbi.MoveWord:
		t.moveWord(c)
	case gbi.MoveMem:
		return t.moveMem(c)
	case gbi.FillRect:
		return t.fillRect(c)
	case gbi.TexturedRect:
		return t.texRect(c)
	case gbi.CallSublist, gbi.ReturnFromSublist, gbi.EndStream:
		// Control flow is handled by the decoder.
	case gbi.Skip:
		switch {
		case !c.Known:
			t.diag(DiagUnknownOpcode, fmt.Errorf("skipped %d words", c.Words))
		case !quietOps[c.Op]:
			t.diag(DiagUnsupported, nil)
		}
	default:
		t.diag(DiagUnsupported, fmt.Errorf("unhandled command %T", cmd))
	}
	return nil
}

func (t *Translator) loadVertices(c gbi.LoadVertices) error {
	view, err := t.segs.ResolveAddress(c.Addr, c.Count*vertex.RecordSize)
	if err != nil {
		return err
	}
	vs, err := vertex.Decode(view, c.Count)
	if err != nil {
		return err
	}
	if err := t.vertices.Load(c.First, vs); err != nil {
		if errors.Is(err, vertex.ErrCapacity) {
			t.diag(DiagVertexOverflow, err)
			return nil
		}
		return err
	}
	return nil
}

func (t *Translator) drawTriangle(tri gbi.Triangle) error {
	var refs [3]vertex.Ref
	for i, slot := range [3]uint8{tri.A, tri.B, tri.C} {
		r, err := t.vertices.Ref(int(slot))
		if err != nil {
			t.report.DroppedTriangles++
			t.diag(DiagStaleVertex, err)
			return nil
		}
		refs[i] = r
	}
	if t.tracker.Geometry().Has(state.CullBoth) {
		t.report.CulledTriangles++
		return nil
	}
	rs, err := t.capture(-1, false)
	if err != nil {
		return err
	}
	return t.acc.AppendTriangle(&rs, refs[0], refs[1], refs[2])
}

func (t *Translator) setMatrix(c gbi.SetMatrix) error {
	view, err := t.segs.ResolveAddress(c.Addr, state.MatrixSize)
	if err != nil {
		return err
	}
	m, err := state.DecodeMatrix(view)
	if err != nil {
		return err
	}
	if err := t.tracker.LoadMatrix(m, c.Projection, c.Load, c.Push); err != nil {
		t.diag(DiagMatrixStack, err)
	}
	return nil
}

func (t *Translator) moveWord(c gbi.MoveWord) {
	switch c.Index {
	case gbi.MWNumLight:
		t.tracker.SetLightCount(int((c.Value-0x80000000)/32) - 1)
	case gbi.MWFog:
		t.tracker.SetFog(state.FogParams{Multiplier: int16(c.Value >> 16), Offset: int16(c.Value)})
	case gbi.MWLightCol:
		if c.Offset%0x20 == 0 {
			t.tracker.SetLightColor(int(c.Offset/0x20), [3]uint8{uint8(c.Value >> 24), uint8(c.Value >> 16), uint8(c.Value >> 8)})
		}
	case gbi.MWSegment:
		t.diag(DiagIgnoredSegmentWrite, fmt.Errorf("segment %d <- 0x%08x", c.Offset/4, c.Value))
	case gbi.MWClip, gbi.MWPerspNorm:
		// Clipping ratios and perspective normalization do not apply to
		// float transforms.
	default:
		t.diag(DiagUnsupported, fmt.Errorf("moveword index 0x%02x", c.Index))
	}
}

func (t *Translator) moveMem(c gbi.MoveMem) error {
	switch {
	case c.Index == gbi.MVViewport:
		view, err := t.segs.ResolveAddress(c.Addr, state.ViewportSize)
		if err != nil {
			return err
		}
		vp, err := state.DecodeViewport(view)
		if err != nil {
			return err
		}
		t.tracker.SetViewport(vp)
	case c.LightIndex() >= 0:
		view, err := t.segs.ResolveAddress(c.Addr, state.LightSize)
		if err != nil {
			return err
		}
		l, err := state.DecodeLight(view)
		if err != nil {
			return err
		}
		t.tracker.SetLight(c.LightIndex(), l)
	default:
		t.diag(DiagUnsupported, fmt.Errorf("movemem index 0x%02x", c.Index))
	}
	return nil
}

// rectExtent widens a rectangle by one pixel in fill and copy modes, where
// the lower-right edge is inclusive.
func rectExtent(mode state.CycleType, x1, y1 float32) (float32, float32) {
	if mode == state.FillMode || mode == state.CopyMode {
		return x1 + 1, y1 + 1
	}
	return x1, y1
}

func (t *Translator) fillRect(c gbi.FillRect) error {
	rs, err := t.capture(-1, false)
	if err != nil {
		return err
	}
	mode := rs.OtherMode.CycleType()
	r := batch.Rect{X0: c.X0, Y0: c.Y0}
	r.X1, r.Y1 = rectExtent(mode, c.X1, c.Y1)
	if mode == state.FillMode {
		r.Color = rs.Colors.FillColor().Floats()
	} else {
		r.Color = rs.Colors.Primitive.Floats()
	}
	return t.acc.AppendRect(&rs, r)
}

func (t *Translator) texRect(c gbi.TexturedRect) error {
	rs, err := t.capture(c.Tile, true)
	if err != nil {
		return err
	}
	mode := rs.OtherMode.CycleType()
	r := batch.Rect{
		X0:       c.X0,
		Y0:       c.Y0,
		Textured: rs.Texture != nil,
		S:        c.S,
		T:        c.T,
		DsDx:     c.DsDx,
		DtDy:     c.DtDy,
		Flip:     c.Flip,
		Color:    [4]float32{1, 1, 1, 1},
	}
	r.X1, r.Y1 = rectExtent(mode, c.X1, c.Y1)
	if mode == state.CopyMode {
		// Copy mode steps four texels per pixel as encoded.
		r.DsDx /= 4
	}
	return t.acc.AppendRect(&rs, r)
}
