package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// gpuDevice is an opened or borrowed HAL device.
type gpuDevice struct {
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	name     string
	external bool
}

func (d *gpuDevice) destroy() {
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

// openDevice resolves the device named by cfg: an explicit device, then a
// provider, then a standalone device on the best registered backend.
func openDevice(cfg *config) (*gpuDevice, error) {
	switch {
	case cfg.device != nil:
		if cfg.queue == nil {
			return nil, fmt.Errorf("native: device given without queue: %w", ErrProvider)
		}
		return &gpuDevice{device: cfg.device, queue: cfg.queue, name: "external", external: true}, nil
	case cfg.provider != nil:
		return fromProvider(cfg)
	}
	return openStandalone()
}

func fromProvider(cfg *config) (*gpuDevice, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := cfg.provider.(halProvider)
	if !ok {
		return nil, ErrProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("native: HalDevice is not hal.Device: %w", ErrProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("native: HalQueue is not hal.Queue: %w", ErrProvider)
	}
	if f := cfg.provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		cfg.format = f
	}
	return &gpuDevice{
		device:   device,
		queue:    queue,
		name:     cfg.provider.AdapterInfo().Name,
		external: true,
	}, nil
}

// openStandalone opens a device on the most capable registered backend,
// preferring discrete and integrated GPUs over other adapters. The noop
// backend is refused; pass its device explicitly with WithDevice.
func openStandalone() (*gpuDevice, error) {
	backend, err := hal.SelectBestBackend()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	if backend.Variant() == gputypes.BackendEmpty {
		return nil, fmt.Errorf("%w: only the noop backend is linked", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}
	slogger().Info("native: GPU initialized", "backend", backend.Variant().String(), "adapter", selected.Info.Name)
	return &gpuDevice{
		device:   openDev.Device,
		queue:    openDev.Queue,
		instance: instance,
		name:     selected.Info.Name,
	}, nil
}
