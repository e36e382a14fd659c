// Package f3d translates N64 Fast3D display lists into GPU draw calls.
//
// # Overview
//
// A display list is a stream of 64-bit commands that drives a fixed-function
// geometry and raster pipeline: it loads vertices into a small cache, sets
// combiner and texture state, and draws triangles that index the cache.
// f3d decodes the stream, tracks the render state, and groups triangles
// drawn under compatible state into batches. Each batch is submitted to a
// backend.Renderer together with the shader program selected for its
// combiner.
//
// # Quick Start
//
//	segs := segment.NewTable()
//	segs.Bind(4, vertexData)
//	segs.Bind(6, textureData)
//
//	tr, err := f3d.New(recording.New())
//	if err != nil {
//	    return err
//	}
//	report, err := tr.RunFrame(ctx, displayList, segs)
//
// RunFrame returns a FrameReport with batch and triangle counts and the
// recoverable diagnostics of the frame. Fatal problems (a call depth
// overflow, an out-of-range segment access, a shader that cannot be
// compiled) abort the frame with a *StreamError.
//
// # Architecture
//
// The packages, leaves first:
//   - segment: bounds-checked segmented addressing
//   - texture: texel decoding and the decode cache
//   - vertex: the vertex cache
//   - state: the render state tracker
//   - gbi: the command decoder and a stream builder
//   - batch: the batch accumulator
//   - shader: combiner normalization, WGSL generation, program cache
//   - backend: renderer interface, registry, native and recording renderers
//
// # Logging
//
// f3d is silent by default. SetLogger enables structured logging through
// log/slog for this package and its sub-packages.
package f3d
