package texture

import (
	"errors"
	"fmt"
)

// Errors returned by Decode.
var (
	ErrInvalidSize   = errors.New("texture: invalid dimensions")
	ErrShortInput    = errors.New("texture: input shorter than texture")
	ErrUnknownFormat = errors.New("texture: unknown format")

	// ErrPaletteUnsupported accompanies a placeholder buffer for indexed-color
	// formats. It is a warning: the returned buffer is usable.
	ErrPaletteUnsupported = errors.New("texture: palette formats unsupported, using placeholder")

	// ErrUnsupportedFormat accompanies a placeholder buffer for formats that
	// are recognized but not decoded (YUV).
	ErrUnsupportedFormat = errors.New("texture: format unsupported, using placeholder")
)

// MaxDimension bounds width and height.
const MaxDimension = 1024

// Buffer is a decoded RGBA8 image. Pix is row-major, 4 bytes per texel.
// Buffers returned from a Cache are shared and must be treated as read-only.
type Buffer struct {
	Width, Height int
	Pix           []byte

	// Placeholder is set when Pix is the flat substitute for an unsupported format.
	Placeholder bool
}

// Stride returns the row length in bytes.
func (b *Buffer) Stride() int { return b.Width * 4 }

// At returns the RGBA value of the texel at (x, y).
func (b *Buffer) At(x, y int) [4]uint8 {
	i := (y*b.Width + x) * 4
	return [4]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

// Magenta is the placeholder color for formats that cannot be decoded.
var Magenta = [4]uint8{0xFF, 0x00, 0xFF, 0xFF}

// Decode converts a raw texel block into an RGBA8 buffer.
//
// Decode is pure: raw is never modified and identical inputs give identical
// output. For palette and YUV formats it returns a magenta placeholder
// together with ErrPaletteUnsupported or ErrUnsupportedFormat.
func Decode(raw []byte, f Format, width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	switch {
	case f.Palette():
		return placeholder(width, height), ErrPaletteUnsupported
	case f == YUV16:
		return placeholder(width, height), ErrUnsupportedFormat
	case f.BitsPerTexel() == 0:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	if need := SizeBytes(f, width, height); len(raw) < need {
		return nil, fmt.Errorf("%w: %v %dx%d needs %d bytes, have %d",
			ErrShortInput, f, width, height, need, len(raw))
	}

	n := width * height
	dst := &Buffer{Width: width, Height: height, Pix: make([]byte, n*4)}
	pix := dst.Pix

	switch f {
	case RGBA16:
		for i := range n {
			c := uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
			pix[4*i+0] = expand5(uint8(c >> 11))
			pix[4*i+1] = expand5(uint8(c >> 6))
			pix[4*i+2] = expand5(uint8(c >> 1))
			pix[4*i+3] = 0xFF * uint8(c&1)
		}
	case RGBA32:
		copy(pix, raw[:n*4])
	case IA4:
		for i := range n {
			v := nibble(raw, i)
			in := expand3(v >> 1)
			pix[4*i+0], pix[4*i+1], pix[4*i+2] = in, in, in
			pix[4*i+3] = 0xFF * (v & 1)
		}
	case IA8:
		for i := range n {
			v := raw[i]
			in := expand4(v >> 4)
			pix[4*i+0], pix[4*i+1], pix[4*i+2] = in, in, in
			pix[4*i+3] = expand4(v & 0x0F)
		}
	case IA16:
		for i := range n {
			in := raw[2*i]
			pix[4*i+0], pix[4*i+1], pix[4*i+2] = in, in, in
			pix[4*i+3] = raw[2*i+1]
		}
	case I4:
		for i := range n {
			in := expand4(nibble(raw, i))
			pix[4*i+0], pix[4*i+1], pix[4*i+2] = in, in, in
			pix[4*i+3] = 0xFF
		}
	case I8:
		for i := range n {
			in := raw[i]
			pix[4*i+0], pix[4*i+1], pix[4*i+2] = in, in, in
			pix[4*i+3] = 0xFF
		}
	}
	return dst, nil
}

func placeholder(width, height int) *Buffer {
	b := &Buffer{Width: width, Height: height, Pix: make([]byte, width*height*4), Placeholder: true}
	for i := 0; i < len(b.Pix); i += 4 {
		copy(b.Pix[i:i+4], Magenta[:])
	}
	return b
}

// nibble returns the i-th 4-bit texel; the high nibble comes first.
func nibble(raw []byte, i int) uint8 {
	b := raw[i>>1]
	if i&1 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

func expand3(v uint8) uint8 {
	v &= 0x07
	return v<<5 | v<<2 | v>>1
}

func expand4(v uint8) uint8 {
	v &= 0x0F
	return v<<4 | v
}

func expand5(v uint8) uint8 {
	v &= 0x1F
	return v<<3 | v>>2
}
