package state

import "fmt"

// CombineCycle holds the raw selector codes of one combiner cycle. Each
// output is (A-B)*C+D, computed separately for color and alpha.
type CombineCycle struct {
	A, B, C, D                     uint8 // color selectors (4, 4, 5, 3 bits)
	AlphaA, AlphaB, AlphaC, AlphaD uint8 // alpha selectors (3 bits each)
}

// CombineDescriptor is the two-cycle combiner configuration as loaded by
// SETCOMBINE. Two descriptors are batch-compatible iff they are equal.
type CombineDescriptor struct {
	Cycle [2]CombineCycle
}

// Color selector codes. A, B and D share the low codes; C extends them with
// alpha channels, LOD fraction and K5. Unused codes read as zero.
const (
	CCCombined    = 0
	CCTexel0      = 1
	CCTexel1      = 2
	CCPrimitive   = 3
	CCShade       = 4
	CCEnvironment = 5
	CCOne         = 6 // A and D only
	CCNoise       = 7 // A only
	CCCenter      = 6 // B only
	CCK4          = 7 // B only
	CCScale       = 6 // C only
	CCCombinedA   = 7 // C only
	CCTexel0Alpha = 8
	CCTexel1Alpha = 9
	CCPrimAlpha   = 10
	CCShadeAlpha  = 11
	CCEnvAlpha    = 12
	CCLODFraction = 13
	CCPrimLODFrac = 14
	CCK5          = 15
	CCZeroD       = 7  // D only
	CCZeroAB      = 15 // canonical zero for A and B
	CCZeroC       = 31 // canonical zero for C
)

// Alpha selector codes. A, B and D share one table; C replaces Combined with
// LOD fraction and One with primitive LOD fraction.
const (
	ACCombined    = 0
	ACTexel0      = 1
	ACTexel1      = 2
	ACPrimitive   = 3
	ACShade       = 4
	ACEnvironment = 5
	ACOne         = 6
	ACZero        = 7
	ACLODFraction = 0 // C only
	ACPrimLODFrac = 6 // C only
)

// ShadeCombine passes the shade color and alpha through both cycles.
var ShadeCombine = CombineDescriptor{Cycle: [2]CombineCycle{
	{A: CCZeroAB, B: CCZeroAB, C: CCZeroC, D: CCShade, AlphaA: ACZero, AlphaB: ACZero, AlphaC: ACZero, AlphaD: ACShade},
	{A: CCZeroAB, B: CCZeroAB, C: CCZeroC, D: CCShade, AlphaA: ACZero, AlphaB: ACZero, AlphaC: ACZero, AlphaD: ACShade},
}}

// ParseCombine decodes the SETCOMBINE command words.
func ParseCombine(w0, w1 uint32) CombineDescriptor {
	var d CombineDescriptor
	c0, c1 := &d.Cycle[0], &d.Cycle[1]

	c0.A = uint8(w0>>20) & 0x0F
	c0.C = uint8(w0>>15) & 0x1F
	c0.AlphaA = uint8(w0>>12) & 0x07
	c0.AlphaC = uint8(w0>>9) & 0x07
	c1.A = uint8(w0>>5) & 0x0F
	c1.C = uint8(w0) & 0x1F

	c0.B = uint8(w1>>28) & 0x0F
	c1.B = uint8(w1>>24) & 0x0F
	c1.AlphaA = uint8(w1>>21) & 0x07
	c1.AlphaC = uint8(w1>>18) & 0x07
	c0.D = uint8(w1>>15) & 0x07
	c0.AlphaB = uint8(w1>>12) & 0x07
	c0.AlphaD = uint8(w1>>9) & 0x07
	c1.D = uint8(w1>>6) & 0x07
	c1.AlphaB = uint8(w1>>3) & 0x07
	c1.AlphaD = uint8(w1) & 0x07
	return d
}

// Pack encodes d into SETCOMBINE words. The opcode byte of w0 is left zero.
func (d CombineDescriptor) Pack() (w0, w1 uint32) {
	c0, c1 := d.Cycle[0], d.Cycle[1]
	w0 = uint32(c0.A&0x0F)<<20 | uint32(c0.C&0x1F)<<15 |
		uint32(c0.AlphaA&0x07)<<12 | uint32(c0.AlphaC&0x07)<<9 |
		uint32(c1.A&0x0F)<<5 | uint32(c1.C&0x1F)
	w1 = uint32(c0.B&0x0F)<<28 | uint32(c1.B&0x0F)<<24 |
		uint32(c1.AlphaA&0x07)<<21 | uint32(c1.AlphaC&0x07)<<18 |
		uint32(c0.D&0x07)<<15 | uint32(c0.AlphaB&0x07)<<12 | uint32(c0.AlphaD&0x07)<<9 |
		uint32(c1.D&0x07)<<6 | uint32(c1.AlphaB&0x07)<<3 | uint32(c1.AlphaD&0x07)
	return w0, w1
}

// UsesTexel reports whether any selector reads a texel input, counting only
// the first cycle in one-cycle mode.
func (d CombineDescriptor) UsesTexel(twoCycle bool) bool {
	n := 1
	if twoCycle {
		n = 2
	}
	for i := range n {
		c := d.Cycle[i]
		if isTexelAB(c.A) || isTexelAB(c.B) || isTexelAB(c.D) ||
			isTexelC(c.C) ||
			isTexelAB(c.AlphaA) || isTexelAB(c.AlphaB) || isTexelAB(c.AlphaC) || isTexelAB(c.AlphaD) {
			return true
		}
	}
	return false
}

func isTexelAB(code uint8) bool { return code == CCTexel0 || code == CCTexel1 }

func isTexelC(code uint8) bool {
	return isTexelAB(code) || code == CCTexel0Alpha || code == CCTexel1Alpha
}

func (d CombineDescriptor) String() string {
	w0, w1 := d.Pack()
	return fmt.Sprintf("combine(%06x:%08x)", w0, w1)
}
