package f3d

import (
	"errors"

	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/texture"
)

// capture snapshots the render state, resolving the texture sampled through
// tile first. tile < 0 selects the tile named by the TEXTURE command. With
// force set the texture is kept even when the combiner does not sample it,
// as rectangles in copy mode sample regardless of the combiner.
func (t *Translator) capture(tile int, force bool) (state.RenderState, error) {
	rs := t.tracker.Capture()
	if !force && !rs.Textured() {
		return rs, nil
	}
	if tile < 0 {
		tile = int(rs.TexScale.Tile)
	}
	if err := t.bindTexture(tile); err != nil {
		return rs, err
	}
	rs.Texture = t.tracker.Texture()
	return rs, nil
}

// bindTexture resolves the texture of tile when the texture registers or
// the tile changed since the last resolution. Equal requests within a frame
// share one descriptor, so batches split only on real texture changes.
func (t *Translator) bindTexture(tile int) error {
	serial := t.tracker.TextureSerial()
	if t.texBound && t.texSer == serial && t.texTile == tile {
		return nil
	}
	t.texBound, t.texSer, t.texTile = true, serial, tile

	req, ok := t.tracker.TextureRequest(tile)
	if !ok {
		t.tracker.SetTexture(nil)
		t.diag(DiagTextureUnavailable, errNoTileLoad)
		return nil
	}
	if d, ok := t.texMemo[req]; ok {
		t.tracker.SetTexture(d)
		return nil
	}
	d, err := t.resolveTexture(req)
	if err != nil {
		return err
	}
	t.texMemo[req] = d
	t.tracker.SetTexture(d)
	return nil
}

var errNoTileLoad = errors.New("no texels loaded for tile")

// resolveTexture decodes the texels of req through the texture cache.
// Segment errors are fatal. Decode failures yield a descriptor without a
// buffer, which renderers draw with a white texture.
func (t *Translator) resolveTexture(req state.TextureRequest) (*texture.Descriptor, error) {
	key := req.Key()
	length := texture.SizeBytes(key.Format, req.Width, req.Height)
	if req.Stride != 0 {
		length = req.Stride*(req.Height-1) + texture.SizeBytes(key.Format, req.Width, 1)
	}
	view, err := t.segs.ResolveAddress(req.Addr, length)
	if err != nil {
		return nil, err
	}

	buf, err := t.textures.Lookup(key, view)
	switch {
	case err == nil:
	case errors.Is(err, texture.ErrPaletteUnsupported):
		t.diag(DiagPaletteTexture, err)
	case errors.Is(err, texture.ErrUnsupportedFormat):
		t.diag(DiagUnsupportedTexture, err)
	default:
		t.diag(DiagTextureUnavailable, err)
		return req.Descriptor(nil), nil
	}
	return req.Descriptor(buf), nil
}
