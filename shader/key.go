package shader

import (
	"strings"

	"github.com/gogpu/f3d/internal/cache"
	"github.com/gogpu/f3d/state"
)

// Formula is one (A-B)*C+D combiner expression.
type Formula struct {
	A, B, C, D Source
}

// fold reduces formulas whose product term is zero to their D term.
func (f Formula) fold() Formula {
	if f.C == Zero || f.A == f.B {
		return Formula{D: f.D}
	}
	return f
}

// Constant reports whether only the D term contributes.
func (f Formula) Constant() bool {
	return f.A == Zero && f.B == Zero && f.C == Zero
}

func (f Formula) replace(from, to Source) Formula {
	for _, s := range []*Source{&f.A, &f.B, &f.C, &f.D} {
		if *s == from {
			*s = to
		}
	}
	return f.fold()
}

func (f Formula) sources() [4]Source { return [4]Source{f.A, f.B, f.C, f.D} }

func (f Formula) String() string {
	switch {
	case f.Constant():
		return f.D.String()
	case f.B == Zero && f.D == Zero:
		return f.A.String() + "*" + f.C.String()
	case f.B == Zero:
		return f.A.String() + "*" + f.C.String() + "+" + f.D.String()
	}
	return "(" + f.A.String() + "-" + f.B.String() + ")*" + f.C.String() + "+" + f.D.String()
}

// isProduct reports whether f is x*y in either order.
func (f Formula) isProduct(x, y Source) bool {
	return f == Formula{A: x, C: y} || f == Formula{A: y, C: x}
}

// Stage is one combiner cycle.
type Stage struct {
	Color, Alpha Formula
}

func (s Stage) String() string { return s.Color.String() + "/" + s.Alpha.String() }

var identityStage = Stage{Color: Formula{D: Combined}, Alpha: Formula{D: Combined}}

// Flags are the fixed-function switches a program depends on besides its
// formulas.
type Flags uint8

const (
	FlagTextured Flags = 1 << iota
	FlagFog
	FlagAlphaTest
	FlagTranslucent
	FlagTextureEdge
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagTextured, "tex"},
	{FlagFog, "fog"},
	{FlagAlphaTest, "atest"},
	{FlagTranslucent, "xlu"},
	{FlagTextureEdge, "edge"},
}

// Key identifies a normalized shader program.
type Key struct {
	Stages   [2]Stage
	TwoStage bool
	Flags    Flags
}

// Normalize maps a combiner descriptor and the relevant mode state to a key.
// Descriptors that compute the same output under the same modes yield equal
// keys.
func Normalize(desc state.CombineDescriptor, mode state.OtherMode, geom state.GeometryFlags) Key {
	var k Key
	switch mode.CycleType() {
	case state.CopyMode:
		k.Stages[0] = Stage{Color: Formula{D: Texel0}, Alpha: Formula{D: Texel0}}
	case state.FillMode:
		k.Stages[0] = Stage{Color: Formula{D: Shade}, Alpha: Formula{D: Shade}}
	default:
		for i := range k.Stages {
			c := desc.Cycle[i]
			k.Stages[i] = Stage{
				Color: Formula{colorA(c.A), colorB(c.B), colorC(c.C), colorD(c.D)}.fold(),
				Alpha: Formula{alphaABD(c.AlphaA), alphaABD(c.AlphaB), alphaC(c.AlphaC), alphaABD(c.AlphaD)}.fold(),
			}
		}
		// The first stage has no previous output to read.
		s0 := &k.Stages[0]
		s0.Color = s0.Color.replace(Combined, Zero)
		s0.Alpha = s0.Alpha.replace(Combined, Zero)
		k.TwoStage = mode.CycleType() == state.TwoCycle && k.Stages[1] != identityStage
		if !k.TwoStage {
			k.Stages[1] = Stage{}
		}
	}

	if k.usesTexel() {
		k.Flags |= FlagTextured
	}
	if geom.Has(state.Fog) {
		k.Flags |= FlagFog
	}
	if mode.AlphaCompare() != state.AlphaCompareNone {
		k.Flags |= FlagAlphaTest
	}
	if mode.Translucent() {
		k.Flags |= FlagTranslucent
	}
	if mode.TextureEdge() {
		k.Flags |= FlagTextureEdge
	}
	return k
}

// KeyFor normalizes the combiner of a render state snapshot.
func KeyFor(rs *state.RenderState) Key {
	return Normalize(rs.Combine, rs.OtherMode, rs.Geometry)
}

func (k Key) stages() []Stage {
	if k.TwoStage {
		return k.Stages[:2]
	}
	return k.Stages[:1]
}

func (k Key) eachSource(fn func(Source) bool) bool {
	for _, st := range k.stages() {
		for _, f := range [2]Formula{st.Color, st.Alpha} {
			for _, s := range f.sources() {
				if !fn(s) {
					return false
				}
			}
		}
	}
	return true
}

func (k Key) usesTexel() bool {
	return !k.eachSource(func(s Source) bool { return !s.Texel() })
}

// Supported reports whether every input of k can be generated.
func (k Key) Supported() bool {
	return k.eachSource(Source.Supported)
}

// Textured reports whether the program samples a texture.
func (k Key) Textured() bool { return k.Flags&FlagTextured != 0 }

// Has reports whether all bits of f are set.
func (k Key) Has(f Flags) bool { return k.Flags&f == f }

// Fallback returns the texture-modulate key used in place of k. The mode
// flags of k are kept.
func Fallback(k Key) Key {
	mod := Formula{A: Texel0, C: Shade}
	return Key{
		Stages: [2]Stage{{Color: mod, Alpha: mod}},
		Flags:  k.Flags | FlagTextured,
	}
}

func (k Key) String() string {
	var sb strings.Builder
	for i, st := range k.stages() {
		if i > 0 {
			sb.WriteString(" ; ")
		}
		sb.WriteString(st.String())
	}
	first := true
	for _, fn := range flagNames {
		if k.Flags&fn.flag == 0 {
			continue
		}
		if first {
			sb.WriteString(" [")
			first = false
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(fn.name)
	}
	if !first {
		sb.WriteByte(']')
	}
	return sb.String()
}

func packFormula(f Formula) uint64 {
	return uint64(f.A) | uint64(f.B)<<8 | uint64(f.C)<<16 | uint64(f.D)<<24
}

func hashKey(k Key) uint64 {
	var two uint64
	if k.TwoStage {
		two = 1
	}
	return cache.Mix(
		packFormula(k.Stages[0].Color)|packFormula(k.Stages[0].Alpha)<<32,
		packFormula(k.Stages[1].Color)|packFormula(k.Stages[1].Alpha)<<32,
		uint64(k.Flags)|two<<8,
	)
}

// Variant is the family a key belongs to.
type Variant uint8

const (
	// VariantFlat reads no texture.
	VariantFlat Variant = iota
	// VariantTexture outputs the texel unchanged.
	VariantTexture
	// VariantModulate multiplies the texel by the shade color.
	VariantModulate
	// VariantTexturePrimShade multiplies texel, primitive and shade colors.
	VariantTexturePrimShade
	// VariantCustom is any other supported formula.
	VariantCustom
)

func (v Variant) String() string {
	switch v {
	case VariantFlat:
		return "flat"
	case VariantTexture:
		return "texture"
	case VariantModulate:
		return "modulate"
	case VariantTexturePrimShade:
		return "texture-prim-shade"
	default:
		return "custom"
	}
}

// Variant classifies k by its color formulas.
func (k Key) Variant() Variant {
	if !k.Textured() {
		return VariantFlat
	}
	c0 := k.Stages[0].Color
	if !k.TwoStage {
		switch {
		case c0 == (Formula{D: Texel0}):
			return VariantTexture
		case c0.isProduct(Texel0, Shade):
			return VariantModulate
		}
		return VariantCustom
	}
	c1 := k.Stages[1].Color
	if (c0.isProduct(Texel0, Prim) && c1.isProduct(Combined, Shade)) ||
		(c0.isProduct(Texel0, Shade) && c1.isProduct(Combined, Prim)) {
		return VariantTexturePrimShade
	}
	return VariantCustom
}
