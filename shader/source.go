package shader

import "github.com/gogpu/f3d/state"

// Source is a normalized combiner input.
type Source uint8

const (
	Zero Source = iota
	One
	Combined
	Texel0
	Texel1
	Prim
	Shade
	Env
	CombinedAlpha
	Texel0Alpha
	Texel1Alpha
	PrimAlpha
	ShadeAlpha
	EnvAlpha
	PrimLODFrac
	LODFrac
	Noise
	K4
	K5
	Center
	Scale
)

var sourceNames = [...]string{
	Zero:          "0",
	One:           "1",
	Combined:      "comb",
	Texel0:        "tex0",
	Texel1:        "tex1",
	Prim:          "prim",
	Shade:         "shade",
	Env:           "env",
	CombinedAlpha: "comb.a",
	Texel0Alpha:   "tex0.a",
	Texel1Alpha:   "tex1.a",
	PrimAlpha:     "prim.a",
	ShadeAlpha:    "shade.a",
	EnvAlpha:      "env.a",
	PrimLODFrac:   "primlod",
	LODFrac:       "lod",
	Noise:         "noise",
	K4:            "k4",
	K5:            "k5",
	Center:        "center",
	Scale:         "scale",
}

func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return "?"
}

// Supported reports whether the WGSL generator can express s.
func (s Source) Supported() bool {
	switch s {
	case Texel1, Texel1Alpha, CombinedAlpha, LODFrac, Noise, K4, K5, Center, Scale:
		return false
	}
	return true
}

// Texel reports whether s samples a texture.
func (s Source) Texel() bool {
	return s == Texel0 || s == Texel1 || s == Texel0Alpha || s == Texel1Alpha
}

// Shared by the color A, B and D selectors.
var colorBase = [...]Source{
	state.CCCombined:    Combined,
	state.CCTexel0:      Texel0,
	state.CCTexel1:      Texel1,
	state.CCPrimitive:   Prim,
	state.CCShade:       Shade,
	state.CCEnvironment: Env,
}

func colorA(code uint8) Source {
	switch {
	case int(code) < len(colorBase):
		return colorBase[code]
	case code == state.CCOne:
		return One
	case code == state.CCNoise:
		return Noise
	}
	return Zero
}

func colorB(code uint8) Source {
	switch {
	case int(code) < len(colorBase):
		return colorBase[code]
	case code == state.CCCenter:
		return Center
	case code == state.CCK4:
		return K4
	}
	return Zero
}

func colorC(code uint8) Source {
	if int(code) < len(colorBase) {
		return colorBase[code]
	}
	switch code {
	case state.CCScale:
		return Scale
	case state.CCCombinedA:
		return CombinedAlpha
	case state.CCTexel0Alpha:
		return Texel0Alpha
	case state.CCTexel1Alpha:
		return Texel1Alpha
	case state.CCPrimAlpha:
		return PrimAlpha
	case state.CCShadeAlpha:
		return ShadeAlpha
	case state.CCEnvAlpha:
		return EnvAlpha
	case state.CCLODFraction:
		return LODFrac
	case state.CCPrimLODFrac:
		return PrimLODFrac
	case state.CCK5:
		return K5
	}
	return Zero
}

func colorD(code uint8) Source {
	switch {
	case int(code) < len(colorBase):
		return colorBase[code]
	case code == state.CCOne:
		return One
	}
	return Zero
}

// Alpha selectors name the alpha channel of each input; the Source value
// is the same as for color.
func alphaABD(code uint8) Source {
	switch {
	case int(code) < len(colorBase):
		return colorBase[code]
	case code == state.ACOne:
		return One
	}
	return Zero
}

func alphaC(code uint8) Source {
	switch code {
	case state.ACLODFraction:
		return LODFrac
	case state.ACPrimLODFrac:
		return PrimLODFrac
	}
	if int(code) < len(colorBase) {
		return colorBase[code]
	}
	return Zero
}
