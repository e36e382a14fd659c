package shader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedSource is returned by GenerateWGSL for keys that read an
// input the generator cannot express. Use Fallback for such keys.
var ErrUnsupportedSource = errors.New("shader: unsupported combiner source")

// Entry points of every generated program.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Bindings of group 0 shared by every generated program.
const (
	BindingUniforms = 0
	BindingTexture  = 1
	BindingSampler  = 2
)

const wgslPrelude = `struct Uniforms {
    prim: vec4<f32>,
    env: vec4<f32>,
    fog_color: vec4<f32>,
    // x: primitive LOD fraction, y: alpha reference, zw: texture size
    params: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var samp0: sampler;

struct VertexInput {
    @location(0) position: vec4<f32>,
    @location(1) uv: vec2<f32>,
    @location(2) color: vec4<f32>,
    @location(3) fog: f32,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) color: vec4<f32>,
    @location(2) fog: f32,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = in.position;
    out.uv = in.uv;
    out.color = in.color;
    out.fog = in.fog;
    return out;
}
`

// GenerateWGSL returns the WGSL source of the program for k.
func GenerateWGSL(k Key) (string, error) {
	if !k.Supported() {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedSource, k)
	}
	var sb strings.Builder
	sb.WriteString(wgslPrelude)
	sb.WriteString("\n// combine: ")
	sb.WriteString(k.String())
	sb.WriteString("\n@fragment\nfn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {\n")
	if k.Textured() {
		sb.WriteString("    let texel0 = textureSample(tex0, samp0, in.uv);\n")
	}
	prev := ""
	for i, st := range k.stages() {
		name := fmt.Sprintf("c%d", i)
		fmt.Fprintf(&sb, "    let %s = vec4<f32>(%s, %s);\n",
			name, formulaExpr(st.Color, prev, colorExpr), formulaExpr(st.Alpha, prev, alphaExpr))
		prev = name
	}
	fmt.Fprintf(&sb, "    var color = clamp(%s, vec4<f32>(0.0), vec4<f32>(1.0));\n", prev)
	if k.Has(FlagAlphaTest) {
		sb.WriteString("    if (color.a < u.params.y) {\n        discard;\n    }\n")
	}
	if k.Has(FlagTextureEdge) {
		sb.WriteString("    if (color.a < 0.5) {\n        discard;\n    }\n")
	}
	if k.Has(FlagFog) {
		sb.WriteString("    color = vec4<f32>(mix(color.rgb, u.fog_color.rgb, in.fog), color.a);\n")
	}
	sb.WriteString("    return color;\n}\n")
	return sb.String(), nil
}

func formulaExpr(f Formula, prev string, expr func(Source, string) string) string {
	switch {
	case f.Constant():
		return expr(f.D, prev)
	case f.B == Zero && f.D == Zero:
		return "(" + expr(f.A, prev) + " * " + expr(f.C, prev) + ")"
	}
	return "((" + expr(f.A, prev) + " - " + expr(f.B, prev) + ") * " + expr(f.C, prev) + " + " + expr(f.D, prev) + ")"
}

func colorExpr(s Source, prev string) string {
	switch s {
	case One:
		return "vec3<f32>(1.0)"
	case Combined:
		if prev != "" {
			return prev + ".rgb"
		}
	case Texel0:
		return "texel0.rgb"
	case Prim:
		return "u.prim.rgb"
	case Shade:
		return "in.color.rgb"
	case Env:
		return "u.env.rgb"
	case Texel0Alpha:
		return "vec3<f32>(texel0.a)"
	case PrimAlpha:
		return "vec3<f32>(u.prim.a)"
	case ShadeAlpha:
		return "vec3<f32>(in.color.a)"
	case EnvAlpha:
		return "vec3<f32>(u.env.a)"
	case PrimLODFrac:
		return "vec3<f32>(u.params.x)"
	}
	return "vec3<f32>(0.0)"
}

func alphaExpr(s Source, prev string) string {
	switch s {
	case One:
		return "1.0"
	case Combined:
		if prev != "" {
			return prev + ".a"
		}
	case Texel0:
		return "texel0.a"
	case Prim:
		return "u.prim.a"
	case Shade:
		return "in.color.a"
	case Env:
		return "u.env.a"
	case PrimLODFrac:
		return "u.params.x"
	}
	return "0.0"
}
