package f3d

import (
	"errors"
	"fmt"

	"github.com/gogpu/f3d/gbi"
)

// ErrNilRenderer is returned by New without a renderer.
var ErrNilRenderer = errors.New("f3d: nil renderer")

// StreamError is a fatal error that aborted a frame. It records the command
// being processed when the error occurred.
type StreamError struct {
	Op  gbi.Opcode
	Pos gbi.Position
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("f3d: %v at %v: %v", e.Op, e.Pos, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// DiagKind classifies a recoverable problem.
type DiagKind uint8

const (
	// DiagUnknownOpcode: an opcode with no known meaning was skipped.
	DiagUnknownOpcode DiagKind = iota
	// DiagUnsupported: a recognized command variant that is not emulated.
	DiagUnsupported
	// DiagPaletteTexture: a CI4/CI8 texture was replaced by the placeholder.
	DiagPaletteTexture
	// DiagUnsupportedTexture: a texture format without a decoder was
	// replaced by the placeholder.
	DiagUnsupportedTexture
	// DiagTextureUnavailable: a textured draw had no decodable texture.
	DiagTextureUnavailable
	// DiagShaderFallback: a batch was drawn with the fallback program.
	DiagShaderFallback
	// DiagStaleVertex: a triangle referenced an unloaded slot and was dropped.
	DiagStaleVertex
	// DiagVertexOverflow: a vertex load past the cache capacity was dropped.
	DiagVertexOverflow
	// DiagIgnoredSegmentWrite: a segment rebinding from the stream was ignored.
	DiagIgnoredSegmentWrite
	// DiagMatrixStack: a matrix push overflowed or a pop underflowed.
	DiagMatrixStack
	// DiagEmptyScissor: a batch was dropped because its scissor covers no
	// pixels.
	DiagEmptyScissor

	numDiagKinds
)

var diagNames = [numDiagKinds]string{
	DiagUnknownOpcode:       "unknown-opcode",
	DiagUnsupported:         "unsupported",
	DiagPaletteTexture:      "palette-texture",
	DiagUnsupportedTexture:  "unsupported-texture",
	DiagTextureUnavailable:  "texture-unavailable",
	DiagShaderFallback:      "shader-fallback",
	DiagStaleVertex:         "stale-vertex",
	DiagVertexOverflow:      "vertex-overflow",
	DiagIgnoredSegmentWrite: "ignored-segment-write",
	DiagMatrixStack:         "matrix-stack",
	DiagEmptyScissor:        "empty-scissor",
}

func (k DiagKind) String() string {
	if k < numDiagKinds {
		return diagNames[k]
	}
	return fmt.Sprintf("DiagKind(%d)", uint8(k))
}

// Diagnostic is one recoverable problem found while translating a frame.
type Diagnostic struct {
	Kind DiagKind
	Op   gbi.Opcode
	Pos  gbi.Position
	Err  error
}

func (d Diagnostic) String() string {
	if d.Err == nil {
		return fmt.Sprintf("%v: %v at %v", d.Kind, d.Op, d.Pos)
	}
	return fmt.Sprintf("%v: %v at %v: %v", d.Kind, d.Op, d.Pos, d.Err)
}
