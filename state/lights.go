package state

import (
	"fmt"

	"github.com/gogpu/f3d/segment"
)

// MaxLights is the number of directional lights; one more slot holds ambient.
const MaxLights = 7

// LightSize is the size of a light record in segment memory.
const LightSize = 16

// Light is a directional light (or the ambient term, whose Dir is unused).
type Light struct {
	Color [3]uint8
	Dir   [3]int8
}

// Lights holds the active directional lights. Slot Count is the ambient light.
type Lights struct {
	Count int
	Slots [MaxLights + 1]Light
}

// Ambient returns the ambient light color.
func (l *Lights) Ambient() [3]uint8 {
	return l.Slots[l.Count].Color
}

// DecodeLight reads a 16-byte light record: color, copy of color, direction.
func DecodeLight(v segment.View) (Light, error) {
	if v.Len() < LightSize {
		return Light{}, fmt.Errorf("state: light needs %d bytes, view has %d: %w", LightSize, v.Len(), segment.ErrOutOfRange)
	}
	b := v.Bytes()
	return Light{
		Color: [3]uint8{b[0], b[1], b[2]},
		Dir:   [3]int8{int8(b[8]), int8(b[9]), int8(b[10])},
	}, nil
}

// EncodeLight writes l as a 16-byte record.
func EncodeLight(dst []byte, l Light) {
	copy(dst[0:3], l.Color[:])
	copy(dst[4:7], l.Color[:])
	dst[8], dst[9], dst[10] = byte(l.Dir[0]), byte(l.Dir[1]), byte(l.Dir[2])
}

// Viewport maps normalized device coordinates to screen pixels.
type Viewport struct {
	Scale     [3]float32
	Translate [3]float32
}

// ViewportSize is the size of a viewport record in segment memory.
const ViewportSize = 16

// DefaultViewport covers a 320x240 screen.
var DefaultViewport = NewViewport(320, 240)

// NewViewport returns a full-screen viewport of w×h pixels.
func NewViewport(w, h int) Viewport {
	return Viewport{
		Scale:     [3]float32{float32(w) / 2, float32(h) / 2, 0.5},
		Translate: [3]float32{float32(w) / 2, float32(h) / 2, 0.5},
	}
}

// Width returns the viewport width in pixels.
func (v Viewport) Width() float32 { return 2 * v.Scale[0] }

// Height returns the viewport height in pixels.
func (v Viewport) Height() float32 { return 2 * v.Scale[1] }

// DecodeViewport reads a viewport record: four scale and four translate
// halves in quarter-pixel units.
func DecodeViewport(v segment.View) (Viewport, error) {
	if v.Len() < ViewportSize {
		return Viewport{}, fmt.Errorf("state: viewport needs %d bytes, view has %d: %w", ViewportSize, v.Len(), segment.ErrOutOfRange)
	}
	var vp Viewport
	for i := range 3 {
		s, _ := v.Int16(2 * i)
		t, _ := v.Int16(8 + 2*i)
		vp.Scale[i] = float32(s) / 4
		vp.Translate[i] = float32(t) / 4
	}
	// Z is stored in depth units, not quarter pixels.
	vp.Scale[2] = vp.Scale[2] * 4 / 0x3FF
	vp.Translate[2] = vp.Translate[2] * 4 / 0x3FF
	return vp, nil
}

// ToNDC maps a screen position to normalized device coordinates.
func (v Viewport) ToNDC(x, y float32) (float32, float32) {
	nx := (x - v.Translate[0]) / v.Scale[0]
	ny := -(y - v.Translate[1]) / v.Scale[1]
	return nx, ny
}

// Scissor is the screen-space clip rectangle in pixels.
type Scissor struct {
	X0, Y0, X1, Y1 float32
}

// DefaultScissor covers a 320x240 screen.
var DefaultScissor = Scissor{0, 0, 320, 240}

// FogParams holds the fog multiplier and offset loaded with MOVEWORD.
type FogParams struct {
	Multiplier, Offset int16
}

// Factor returns the fog amount in [0, 1] for a normalized depth.
func (f FogParams) Factor(zndc float32) float32 {
	v := zndc*float32(f.Multiplier) + float32(f.Offset)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 1
	}
	return v / 255
}
