package texture

// Wrap is the addressing mode along one texture axis.
type Wrap uint8

const (
	WrapRepeat Wrap = iota
	WrapClamp
	WrapMirror
)

func (w Wrap) String() string {
	switch w {
	case WrapClamp:
		return "clamp"
	case WrapMirror:
		return "mirror"
	default:
		return "repeat"
	}
}

// Descriptor is the bound texture as seen by a draw: its source key, the
// per-axis addressing and the decoded texels.
//
// Descriptors are immutable once built. Two draws use the same texture iff
// their Descriptor pointers are equal.
type Descriptor struct {
	Key          Key
	WrapS, WrapT Wrap
	MaskS, MaskT uint8

	// Tile window origin in texels, subtracted from texture coordinates.
	OriginS, OriginT float32

	Buffer *Buffer
}

// Width returns the decoded width, or 0 when no buffer is attached.
func (d *Descriptor) Width() int {
	if d == nil || d.Buffer == nil {
		return 0
	}
	return d.Buffer.Width
}

// Height returns the decoded height, or 0 when no buffer is attached.
func (d *Descriptor) Height() int {
	if d == nil || d.Buffer == nil {
		return 0
	}
	return d.Buffer.Height
}
