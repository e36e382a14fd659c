// Package vertex implements the fixed-capacity vertex cache that load
// commands fill and triangle commands index into.
package vertex

import (
	"errors"
	"fmt"

	"github.com/gogpu/f3d/segment"
)

// DefaultSlots is the historical vertex cache capacity.
const DefaultSlots = 32

// RecordSize is the size of one vertex record in segment memory.
const RecordSize = 16

// Errors returned by Cache.
var (
	// ErrCapacity is returned when a load or lookup falls outside the cache.
	ErrCapacity = errors.New("vertex: slot out of capacity")

	// ErrStale is returned for a slot not written during the current stream.
	ErrStale = errors.New("vertex: slot not loaded")
)

// Vertex is one decoded vertex record.
//
// Shade holds either an RGBA color or, when lighting is enabled, a signed
// normal in the first three bytes and alpha in the fourth.
type Vertex struct {
	X, Y, Z int16
	Flag    uint16
	S, T    int16 // S10.5 fixed point
	Shade   [4]uint8
}

// Normal interprets Shade as a signed normal.
func (v Vertex) Normal() (nx, ny, nz int8) {
	return int8(v.Shade[0]), int8(v.Shade[1]), int8(v.Shade[2])
}

// TexCoord returns S and T in texels.
func (v Vertex) TexCoord() (s, t float32) {
	return float32(v.S) / 32, float32(v.T) / 32
}

// Decode parses count vertex records from view.
func Decode(view segment.View, count int) ([]Vertex, error) {
	if need := count * RecordSize; view.Len() < need {
		return nil, fmt.Errorf("vertex: %d records need %d bytes, view has %d: %w",
			count, need, view.Len(), segment.ErrOutOfRange)
	}
	b := view.Bytes()
	out := make([]Vertex, count)
	for i := range out {
		r := b[i*RecordSize : (i+1)*RecordSize]
		out[i] = Vertex{
			X:     int16(be16(r[0:])),
			Y:     int16(be16(r[2:])),
			Z:     int16(be16(r[4:])),
			Flag:  be16(r[6:]),
			S:     int16(be16(r[8:])),
			T:     int16(be16(r[10:])),
			Shade: [4]uint8{r[12], r[13], r[14], r[15]},
		}
	}
	return out, nil
}

// Encode writes v as a 16-byte record.
func Encode(dst []byte, v Vertex) {
	put16(dst[0:], uint16(v.X))
	put16(dst[2:], uint16(v.Y))
	put16(dst[4:], uint16(v.Z))
	put16(dst[6:], v.Flag)
	put16(dst[8:], uint16(v.S))
	put16(dst[10:], uint16(v.T))
	copy(dst[12:16], v.Shade[:])
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

func put16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}
