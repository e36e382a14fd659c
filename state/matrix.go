package state

import (
	"errors"
	"fmt"

	"github.com/gogpu/f3d/segment"
)

// MatrixSize is the size of a fixed-point matrix record in segment memory.
const MatrixSize = 64

// MaxMatrixStack is the modelview stack depth.
const MaxMatrixStack = 10

// Matrix errors.
var (
	ErrMatrixStackFull  = errors.New("state: modelview stack overflow")
	ErrMatrixStackEmpty = errors.New("state: modelview stack underflow")
)

// Mat4 is a row-major 4x4 matrix applied to row vectors: p' = p × M.
type Mat4 [4][4]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}

// Mul returns a × b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var r Mat4
	for i := range 4 {
		for j := range 4 {
			r[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j] + a[i][3]*b[3][j]
		}
	}
	return r
}

// Transform maps the point (x, y, z, 1).
func (a Mat4) Transform(x, y, z float32) [4]float32 {
	return [4]float32{
		x*a[0][0] + y*a[1][0] + z*a[2][0] + a[3][0],
		x*a[0][1] + y*a[1][1] + z*a[2][1] + a[3][1],
		x*a[0][2] + y*a[1][2] + z*a[2][2] + a[3][2],
		x*a[0][3] + y*a[1][3] + z*a[2][3] + a[3][3],
	}
}

// TransformDir maps the direction (x, y, z, 0).
func (a Mat4) TransformDir(x, y, z float32) [3]float32 {
	return [3]float32{
		x*a[0][0] + y*a[1][0] + z*a[2][0],
		x*a[0][1] + y*a[1][1] + z*a[2][1],
		x*a[0][2] + y*a[1][2] + z*a[2][2],
	}
}

// DecodeMatrix reads an s15.16 matrix record: sixteen big-endian integer
// halves followed by sixteen fractional halves, both row-major.
func DecodeMatrix(v segment.View) (Mat4, error) {
	if v.Len() < MatrixSize {
		return Mat4{}, fmt.Errorf("state: matrix needs %d bytes, view has %d: %w", MatrixSize, v.Len(), segment.ErrOutOfRange)
	}
	b := v.Bytes()
	var m Mat4
	for i := range 16 {
		hi := int32(int16(uint16(b[2*i])<<8 | uint16(b[2*i+1])))
		lo := int32(uint16(b[32+2*i])<<8 | uint16(b[32+2*i+1]))
		m[i/4][i%4] = float32(hi<<16|lo) / 65536
	}
	return m, nil
}

// EncodeMatrix writes m as a 64-byte s15.16 record.
func EncodeMatrix(dst []byte, m Mat4) {
	for i := range 16 {
		fixed := int32(m[i/4][i%4] * 65536)
		hi := uint16(uint32(fixed) >> 16)
		lo := uint16(uint32(fixed))
		dst[2*i], dst[2*i+1] = byte(hi>>8), byte(hi)
		dst[32+2*i], dst[32+2*i+1] = byte(lo>>8), byte(lo)
	}
}

// Matrices is the projection matrix and the modelview stack.
type Matrices struct {
	Projection Mat4
	ModelView  Mat4
	stack      [MaxMatrixStack]Mat4
	depth      int
	// Seq changes on every matrix write; vertices transformed under
	// different sequence numbers are never shared.
	Seq uint32
}

func newMatrices() Matrices {
	return Matrices{Projection: Identity(), ModelView: Identity()}
}

// MVP returns modelview × projection.
func (m *Matrices) MVP() Mat4 {
	return m.ModelView.Mul(m.Projection)
}

// Depth returns the number of pushed modelview matrices.
func (m *Matrices) Depth() int { return m.depth }

// Load applies a matrix command. With load unset, mat is pre-multiplied
// onto the current matrix. push saves the current modelview first; it is
// ignored for the projection matrix.
func (m *Matrices) Load(mat Mat4, projection, load, push bool) error {
	m.Seq++
	if projection {
		if load {
			m.Projection = mat
		} else {
			m.Projection = mat.Mul(m.Projection)
		}
		return nil
	}
	var err error
	if push {
		if m.depth == MaxMatrixStack {
			err = ErrMatrixStackFull
		} else {
			m.stack[m.depth] = m.ModelView
			m.depth++
		}
	}
	if load {
		m.ModelView = mat
	} else {
		m.ModelView = mat.Mul(m.ModelView)
	}
	return err
}

// Pop restores the last pushed modelview matrix.
func (m *Matrices) Pop() error {
	if m.depth == 0 {
		return ErrMatrixStackEmpty
	}
	m.depth--
	m.ModelView = m.stack[m.depth]
	m.Seq++
	return nil
}
