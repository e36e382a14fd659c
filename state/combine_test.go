package state

import "testing"

func TestParseCombineRoundTrip(t *testing.T) {
	// G_CC_MODULATEIDECALA, G_CC_MODULATEIDECALA: (TEXEL0-0)*SHADE+0, alpha TEXEL0.
	d := CombineDescriptor{Cycle: [2]CombineCycle{
		{A: CCTexel0, B: CCZeroAB, C: CCShade, D: CCZeroD, AlphaA: ACZero, AlphaB: ACZero, AlphaC: ACZero, AlphaD: ACTexel0},
		{A: CCTexel0, B: CCZeroAB, C: CCShade, D: CCZeroD, AlphaA: ACZero, AlphaB: ACZero, AlphaC: ACZero, AlphaD: ACTexel0},
	}}
	w0, w1 := d.Pack()
	if got := ParseCombine(w0, w1); got != d {
		t.Errorf("ParseCombine(Pack()) = %+v, want %+v", got, d)
	}
}

func TestParseCombineKnownWords(t *testing.T) {
	// Shade passthrough in both cycles with every unused input at its zero code.
	w0 := uint32(15)<<20 | uint32(31)<<15 | uint32(7)<<12 | uint32(7)<<9 | uint32(15)<<5 | uint32(31)
	w1 := uint32(15)<<28 | uint32(15)<<24 | uint32(7)<<21 | uint32(7)<<18 |
		uint32(CCShade)<<15 | uint32(7)<<12 | uint32(ACShade)<<9 |
		uint32(CCShade)<<6 | uint32(7)<<3 | uint32(ACShade)
	if got := ParseCombine(w0, w1); got != ShadeCombine {
		t.Errorf("shade combine = %+v, want %+v", got, ShadeCombine)
	}
}

func TestUsesTexel(t *testing.T) {
	tex := ShadeCombine
	tex.Cycle[1].A = CCTexel0

	tests := []struct {
		name     string
		d        CombineDescriptor
		twoCycle bool
		want     bool
	}{
		{"shade only", ShadeCombine, true, false},
		{"texel in cycle 2, one-cycle mode", tex, false, false},
		{"texel in cycle 2, two-cycle mode", tex, true, true},
		{"texel alpha in C", CombineDescriptor{Cycle: [2]CombineCycle{{C: CCTexel0Alpha}}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.UsesTexel(tt.twoCycle); got != tt.want {
				t.Errorf("UsesTexel = %v, want %v", got, tt.want)
			}
		})
	}
}
