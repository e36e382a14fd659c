package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/f3d/state"
)

func TestGenerateWGSL(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		want    []string
		notWant []string
	}{
		{
			name:    "flat",
			key:     Normalize(state.ShadeCombine, state.DefaultOtherMode, 0),
			want:    []string{"@vertex", "@fragment", "vs_main", "fs_main", "let c0 = vec4<f32>(in.color.rgb, in.color.a);"},
			notWant: []string{"textureSample", "discard", "fog_color.rgb, in.fog"},
		},
		{
			name: "modulate with fog",
			key:  Normalize(desc(modulate, modulate), state.DefaultOtherMode, state.Fog),
			want: []string{
				"textureSample(tex0, samp0, in.uv)",
				"(texel0.rgb * in.color.rgb)",
				"mix(color.rgb, u.fog_color.rgb, in.fog)",
			},
		},
		{
			name: "two stages",
			key:  Normalize(desc(texPrim, combShade), twoCycle(), 0),
			want: []string{"let c0 = ", "let c1 = vec4<f32>((c0.rgb * in.color.rgb), (c0.a * in.color.a));", "clamp(c1,"},
		},
		{
			name: "alpha test",
			key: Normalize(state.ShadeCombine,
				state.DefaultOtherMode.SetBits(false, state.ShiftAlphaCompare, 2, uint32(state.AlphaCompareThreshold)), 0),
			want: []string{"if (color.a < u.params.y)", "discard;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := GenerateWGSL(tt.key)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(src, w) {
					t.Errorf("source missing %q\n%s", w, src)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(src, w) {
					t.Errorf("source unexpectedly contains %q", w)
				}
			}
		})
	}
}

func TestGenerateWGSLUnsupported(t *testing.T) {
	_, err := GenerateWGSL(Normalize(desc(noise, noise), state.DefaultOtherMode, 0))
	if !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("err = %v, want ErrUnsupportedSource", err)
	}
}

func TestNagaCompile(t *testing.T) {
	keys := map[string]Key{
		"flat":     Normalize(state.ShadeCombine, state.DefaultOtherMode, 0),
		"modulate": Normalize(desc(modulate, modulate), state.DefaultOtherMode, state.Fog),
		"twostage": Normalize(desc(texPrim, combShade), twoCycle(), 0),
	}
	for name, key := range keys {
		t.Run(name, func(t *testing.T) {
			src, err := GenerateWGSL(key)
			if err != nil {
				t.Fatal(err)
			}
			code, err := NagaCompiler{}.Compile(src)
			if err != nil {
				t.Skipf("naga limitation: %v", err)
			}
			if len(code) < 5 || code[0] != 0x07230203 {
				t.Errorf("output is not a SPIR-V module (len %d)", len(code))
			}
		})
	}
}

func TestUniformsBytes(t *testing.T) {
	rs := state.NewTracker().Capture()
	rs.Colors.Primitive = state.RGBA{255, 0, 0, 255}
	rs.Colors.Blend = state.RGBA{0, 0, 0, 128}
	rs.OtherMode = rs.OtherMode.SetBits(false, state.ShiftAlphaCompare, 2, uint32(state.AlphaCompareThreshold))

	u := UniformsFor(&rs)
	if u.Prim != [4]float32{1, 0, 0, 1} {
		t.Errorf("prim = %v", u.Prim)
	}
	if u.AlphaRef < 0.5 || u.AlphaRef > 0.51 {
		t.Errorf("alpha ref = %v", u.AlphaRef)
	}
	if b := u.Bytes(); len(b) != UniformSize {
		t.Errorf("len = %d, want %d", len(b), UniformSize)
	}
}
