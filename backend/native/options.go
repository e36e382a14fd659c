package native

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/f3d/batch"
)

// maxTarget bounds the render target edge.
const maxTarget = 8192

type config struct {
	provider gpucontext.DeviceProvider
	device   hal.Device
	queue    hal.Queue

	width, height int
	format        gputypes.TextureFormat
	readback      bool
}

func defaultConfig() config {
	return config{
		width:  batch.DefaultScreenWidth,
		height: batch.DefaultScreenHeight,
		format: gputypes.TextureFormatRGBA8Unorm,
	}
}

// Option configures a Renderer.
type Option func(*config)

// WithDeviceProvider borrows the device and queue of a host application.
// The provider must also expose HalDevice() and HalQueue().
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(c *config) {
		c.provider = p
	}
}

// WithDevice uses an already opened HAL device and queue. The renderer does
// not destroy them on Close.
func WithDevice(device hal.Device, queue hal.Queue) Option {
	return func(c *config) {
		c.device, c.queue = device, queue
	}
}

// WithTarget sets the render target size in pixels. The 320x240 display-list
// coordinate space is scaled to fit.
func WithTarget(width, height int) Option {
	return func(c *config) {
		c.width, c.height = width, height
	}
}

// WithReadback makes EndFrame copy the target into Frame.Pixels.
func WithReadback(on bool) Option {
	return func(c *config) {
		c.readback = on
	}
}
