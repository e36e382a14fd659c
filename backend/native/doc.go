// Package native provides a GPU renderer built on the gogpu/wgpu HAL.
//
// The renderer draws every submitted batch into an offscreen RGBA8 target
// with a depth buffer. Pipelines are created per (shader key, blend, cull,
// depth) combination and cached; decoded textures are uploaded once per
// texture key and reused across frames.
//
// # Device Selection
//
// The renderer either borrows a device from a host application:
//
//	r, err := native.New(native.WithDeviceProvider(app))
//
// or opens its own on the best registered HAL backend. Programs must link a
// backend, for example:
//
//	import _ "github.com/gogpu/wgpu/hal/vulkan"
//
// # Readback
//
// With WithReadback(true), EndFrame copies the target into Frame.Pixels.
// Readback stalls until the GPU finishes the frame.
//
// Importing the package registers the "native" backend. Its factory returns
// nil when no device can be opened, so backend.Default falls through to the
// next backend.
package native
