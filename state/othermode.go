package state

// CycleType is the rasterizer pipeline mode.
type CycleType uint8

const (
	OneCycle CycleType = iota
	TwoCycle
	CopyMode
	FillMode
)

func (c CycleType) String() string {
	switch c {
	case OneCycle:
		return "1cycle"
	case TwoCycle:
		return "2cycle"
	case CopyMode:
		return "copy"
	default:
		return "fill"
	}
}

// Other-mode field positions.
const (
	ShiftAlphaCompare = 0  // L, 2 bits
	ShiftZSrcSel      = 2  // L, 1 bit
	ShiftRenderMode   = 3  // L, 29 bits
	ShiftTextFilt     = 12 // H, 2 bits
	ShiftCycleType    = 20 // H, 2 bits
)

// Render-mode bits of the low word.
const (
	RMAntiAlias   = 0x0008
	RMZCompare    = 0x0010
	RMZUpdate     = 0x0020
	RMImageRead   = 0x0040
	RMZModeXlu    = 0x0800
	RMZModeDecal  = 0x0C00
	RMCvgXAlpha   = 0x1000
	RMAlphaCvgSel = 0x2000
	RMForceBlend  = 0x4000

	rmZModeMask = 0x0C00
)

// AlphaCompare is the alpha test mode.
type AlphaCompare uint8

const (
	AlphaCompareNone AlphaCompare = iota
	AlphaCompareThreshold
	_
	AlphaCompareDither
)

// TextureFilter is the texture sampling mode.
type TextureFilter uint8

const (
	FilterPoint TextureFilter = iota
	_
	FilterBilinear
	FilterAverage
)

// OtherMode holds the high and low other-mode words.
type OtherMode struct {
	H, L uint32
}

// DefaultOtherMode is one-cycle, bilinear filtering, opaque surface.
var DefaultOtherMode = OtherMode{
	H: uint32(OneCycle)<<ShiftCycleType | uint32(FilterBilinear)<<ShiftTextFilt,
	L: 0,
}

// SetBits replaces length bits at shift in the selected word.
func (m OtherMode) SetBits(high bool, shift, length uint8, bits uint32) OtherMode {
	if length == 0 {
		return m
	}
	var mask uint32
	if length >= 32 {
		mask = ^uint32(0)
	} else {
		mask = (uint32(1)<<length - 1) << shift
	}
	if high {
		m.H = m.H&^mask | bits&mask
	} else {
		m.L = m.L&^mask | bits&mask
	}
	return m
}

// CycleType returns the pipeline mode.
func (m OtherMode) CycleType() CycleType {
	return CycleType(m.H>>ShiftCycleType) & 3
}

// Filter returns the texture filter.
func (m OtherMode) Filter() TextureFilter {
	return TextureFilter(m.H>>ShiftTextFilt) & 3
}

// AlphaCompare returns the alpha test mode.
func (m OtherMode) AlphaCompare() AlphaCompare {
	return AlphaCompare(m.L>>ShiftAlphaCompare) & 3
}

// RenderMode returns the render-mode bits (blender and coverage control).
func (m OtherMode) RenderMode() uint32 {
	return m.L &^ 0x7
}

// DepthCompare reports whether the Z test is enabled in the render mode.
func (m OtherMode) DepthCompare() bool { return m.L&RMZCompare != 0 }

// DepthUpdate reports whether Z writes are enabled.
func (m OtherMode) DepthUpdate() bool { return m.L&RMZUpdate != 0 }

// Decal reports whether the Z mode is decal (coplanar surfaces).
func (m OtherMode) Decal() bool { return m.L&rmZModeMask == RMZModeDecal }

// TextureEdge reports whether coverage is multiplied by texel alpha
// (cutout textures).
func (m OtherMode) TextureEdge() bool {
	return m.L&(RMCvgXAlpha|RMAlphaCvgSel) == RMCvgXAlpha|RMAlphaCvgSel
}

// Blender multiplexer positions for cycle 1; cycle 2 is 2 bits lower.
const (
	blendM = 22
	blendB = 18

	blendMem       = 1 // M: framebuffer color
	blendOneMinusA = 0 // B: 1 - A
)

// Translucent reports whether the blender mixes with framebuffer memory
// using the incoming alpha (FORCE_BL with M=memory, B=1-A in either cycle).
func (m OtherMode) Translucent() bool {
	if m.L&RMForceBlend == 0 {
		return false
	}
	for cyc := range 2 {
		shift := uint32(cyc * 2)
		if (m.L>>(blendM-shift))&3 == blendMem && (m.L>>(blendB-shift))&3 == blendOneMinusA {
			return true
		}
	}
	return false
}
