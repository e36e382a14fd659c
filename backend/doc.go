// Package backend defines the Renderer that executes batches and a registry
// of renderer implementations.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime:
//
//	import _ "github.com/gogpu/f3d/backend/recording"
//
// # Backend Selection
//
// Use Default() to get the best available renderer, or Get() to request
// a specific backend by name:
//
//	r := backend.Default()
//	r := backend.Get(backend.BackendRecording)
//
// # Frame Protocol
//
// A renderer draws one frame at a time:
//
//	if err := r.BeginFrame(ctx); err != nil {
//		return err
//	}
//	for _, b := range batches {
//		if err := r.Submit(b, program); err != nil {
//			return err
//		}
//	}
//	frame, err := r.EndFrame()
//
// Submit issues exactly one draw per batch. Grouping geometry into batches
// is the job of package batch.
//
// # Available Backends
//
//   - "native": wgpu HAL renderer drawing into an offscreen target
//   - "recording": keeps every submission in memory for inspection
package backend
