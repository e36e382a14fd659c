package batch

import (
	"math"

	"github.com/gogpu/f3d/state"
	"github.com/gogpu/f3d/vertex"
)

// texgenRange is the texel span a generated coordinate covers at scale 1.
const texgenRange = 1024

// transform converts a cache vertex to its GPU form under rs.
func transform(rs *state.RenderState, v vertex.Vertex) Vertex {
	p := rs.Transform.MVP.Transform(float32(v.X), float32(v.Y), float32(v.Z))
	out := Vertex{X: p[0], Y: p[1], Z: p[2], W: p[3]}
	out.Clip = clipCode(p[0], p[1], p[2], p[3])

	lit := rs.Geometry.Has(state.Lighting)
	if lit {
		n := normalVector(rs, v)
		c := light(&rs.Lights, n)
		out.R, out.G, out.B = c[0], c[1], c[2]
	} else {
		out.R = float32(v.Shade[0]) / 255
		out.G = float32(v.Shade[1]) / 255
		out.B = float32(v.Shade[2]) / 255
	}
	out.A = float32(v.Shade[3]) / 255

	s, t := v.TexCoord()
	s *= rs.TexScale.S
	t *= rs.TexScale.T
	if lit && rs.Geometry.Has(state.TextureGen) {
		n := normalVector(rs, v)
		s = (n[0] + 1) * 0.5 * rs.TexScale.S * texgenRange
		t = (n[1] + 1) * 0.5 * rs.TexScale.T * texgenRange
	}
	out.U, out.V = normalizeUV(rs, s, t)

	if rs.Geometry.Has(state.Fog) && p[3] != 0 {
		out.Fog = rs.Fog.Factor(p[2] / p[3])
	}
	return out
}

// normalizeUV maps texel coordinates into the bound texture's [0, 1] range.
func normalizeUV(rs *state.RenderState, s, t float32) (float32, float32) {
	tex := rs.Texture
	if tex == nil || tex.Width() == 0 || tex.Height() == 0 {
		return s, t
	}
	return (s - tex.OriginS) / float32(tex.Width()), (t - tex.OriginT) / float32(tex.Height())
}

// normalVector returns the vertex normal in eye space, normalized.
func normalVector(rs *state.RenderState, v vertex.Vertex) [3]float32 {
	nx, ny, nz := v.Normal()
	return normalize(rs.Transform.ModelView.TransformDir(float32(nx), float32(ny), float32(nz)))
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// light sums the ambient term and every directional light facing n.
func light(ls *state.Lights, n [3]float32) [3]float32 {
	amb := ls.Ambient()
	c := [3]float32{float32(amb[0]), float32(amb[1]), float32(amb[2])}
	for i := range min(ls.Count, state.MaxLights) {
		l := ls.Slots[i]
		d := normalize([3]float32{float32(l.Dir[0]), float32(l.Dir[1]), float32(l.Dir[2])})
		k := n[0]*d[0] + n[1]*d[1] + n[2]*d[2]
		if k <= 0 {
			continue
		}
		for j := range c {
			c[j] += k * float32(l.Color[j])
		}
	}
	for j := range c {
		c[j] = min(c[j], 255) / 255
	}
	return c
}
