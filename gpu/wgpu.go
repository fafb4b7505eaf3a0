// SPDX-License-Identifier: Unlicense OR MIT

//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/david7a68/plinth/internal/debug"
)

func init() {
	register(BackendWGPU, func() Backend { return &wgpuBackend{} })
}

// wgpuBackend runs on the pure Go WebGPU implementation. Queue
// operations there complete synchronously, so the fence advances as
// submissions are made. Surface presentation is not exposed by wgpu
// yet; surfaces are tracked device-side.
type wgpuBackend struct {
	mu sync.Mutex

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	completed   uint64
	surfaces    map[SurfaceID]*wgpuSurface
	textures    map[uint64]wgpuTexture
	nextSurface SurfaceID
	nextTexture uint64
	initialized bool
}

type wgpuSurface struct {
	backing Extent
	visible Extent
}

type wgpuTexture struct {
	extent Extent
	format gputypes.TextureFormat
}

func (b *wgpuBackend) Name() string { return BackendWGPU }

func (b *wgpuBackend) Init(cfg Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}

	b.instance = core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
		Flags:    0,
	})

	adapterID, err := b.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: powerPreference(cfg.PowerPreference),
	})
	if err != nil {
		return fmt.Errorf("gpu: no suitable adapter: %w", err)
	}
	b.adapter = adapterID

	if info, err := core.GetAdapterInfo(adapterID); err == nil {
		debug.Log().Info().
			Str("name", info.Name).
			Str("driver", info.Driver).
			Log("wgpu adapter selected")
	}

	deviceID, err := core.RequestDevice(adapterID, &gputypes.DeviceDescriptor{
		Label:            "plinth-device",
		RequiredFeatures: nil,
		RequiredLimits:   gputypes.DefaultLimits(),
	})
	if err != nil {
		return fmt.Errorf("gpu: device creation failed: %w", err)
	}
	b.device = deviceID

	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		_ = core.DeviceDrop(deviceID)
		return fmt.Errorf("gpu: queue retrieval failed: %w", err)
	}
	b.queue = queueID

	if limits, err := core.GetDeviceLimits(deviceID); err == nil {
		debug.Log().Debug().
			Int("maxTexture2D", int(limits.MaxTextureDimension2D)).
			Log("wgpu device limits")
	}

	b.surfaces = make(map[SurfaceID]*wgpuSurface)
	b.textures = make(map[uint64]wgpuTexture)
	b.initialized = true
	return nil
}

func (b *wgpuBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil
	}
	if !b.device.IsZero() {
		if err := core.DeviceDrop(b.device); err != nil {
			debug.Log().Err().
				Err(err).
				Log("wgpu device release")
		}
		b.device = core.DeviceID{}
	}
	if !b.adapter.IsZero() {
		if err := core.AdapterDrop(b.adapter); err != nil {
			debug.Log().Err().
				Err(err).
				Log("wgpu adapter release")
		}
		b.adapter = core.AdapterID{}
	}
	b.instance = nil
	b.queue = core.QueueID{}
	b.initialized = false
	return nil
}

func (b *wgpuBackend) Execute(s SurfaceID, list *DrawList, id SubmissionID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return ErrDeviceLost
	}
	if _, ok := b.surfaces[s]; s != 0 && !ok {
		return fmt.Errorf("gpu: execute against unknown surface %d", s)
	}
	for range list.Commands() {
	}
	// Queue work completes synchronously on the pure Go
	// implementation.
	if uint64(id) > b.completed {
		b.completed = uint64(id)
	}
	return nil
}

func (b *wgpuBackend) Completed() SubmissionID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return SubmissionID(b.completed)
}

func (b *wgpuBackend) WaitFor(id SubmissionID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if uint64(id) > b.completed {
		b.completed = uint64(id)
	}
	return nil
}

func (b *wgpuBackend) CreateSurface(_ WindowHandle, extent Extent) (SurfaceID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return 0, ErrDeviceLost
	}
	b.nextSurface++
	b.surfaces[b.nextSurface] = &wgpuSurface{backing: extent, visible: extent}
	return b.nextSurface, nil
}

func (b *wgpuBackend) ResizeSurface(s SurfaceID, extent Extent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	surf, ok := b.surfaces[s]
	if !ok {
		return fmt.Errorf("gpu: resize of unknown surface %d", s)
	}
	surf.backing = extent
	return nil
}

func (b *wgpuBackend) SetSurfaceSource(s SurfaceID, extent Extent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	surf, ok := b.surfaces[s]
	if !ok {
		return fmt.Errorf("gpu: source change on unknown surface %d", s)
	}
	surf.visible = extent
	return nil
}

func (b *wgpuBackend) Present(s SurfaceID, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.surfaces[s]; !ok {
		return fmt.Errorf("gpu: present of unknown surface %d", s)
	}
	return nil
}

func (b *wgpuBackend) DestroySurface(s SurfaceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.surfaces, s)
}

func (b *wgpuBackend) CreateTexture(extent Extent, format TextureFormat, pixels []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return 0, ErrDeviceLost
	}
	b.nextTexture++
	b.textures[b.nextTexture] = wgpuTexture{
		extent: extent,
		format: wgpuFormat(format),
	}
	return b.nextTexture, nil
}

func (b *wgpuBackend) DestroyTexture(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.textures, id)
}

func powerPreference(p PowerPreference) gputypes.PowerPreference {
	if p == PowerHighPerformance {
		return gputypes.PowerPreferenceHighPerformance
	}
	return gputypes.PowerPreference(0)
}

func wgpuFormat(f TextureFormat) gputypes.TextureFormat {
	switch f {
	case FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	case FormatA8:
		return gputypes.TextureFormatR8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}
