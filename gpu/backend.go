// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import "sync"

// SurfaceID names a backend presentation surface.
type SurfaceID uint64

// WindowHandle is an opaque OS window reference (an HWND on
// Windows, zero for offscreen surfaces).
type WindowHandle uintptr

// Backend is one rendering implementation. Backends register
// themselves from init functions; the device picks one by name or
// by priority.
//
// Fence semantics: Execute signals the device fence with the given
// submission id once the commands have completed. Completed and
// WaitFor observe that fence.
type Backend interface {
	Name() string
	Init(cfg Config) error
	Close() error

	Execute(s SurfaceID, list *DrawList, id SubmissionID) error
	Completed() SubmissionID
	WaitFor(id SubmissionID) error

	CreateSurface(win WindowHandle, extent Extent) (SurfaceID, error)
	// ResizeSurface reallocates the surface backing.
	ResizeSurface(s SurfaceID, extent Extent) error
	// SetSurfaceSource restricts the visible region without
	// reallocating.
	SetSurfaceSource(s SurfaceID, extent Extent) error
	Present(s SurfaceID, restart bool) error
	DestroySurface(s SurfaceID)

	CreateTexture(extent Extent, format TextureFormat, pixels []byte) (uint64, error)
	DestroyTexture(id uint64)
}

// Backend names, in selection priority order.
const (
	BackendWGPU = "wgpu"
	BackendNull = "null"
)

type backendFactory func() Backend

var (
	registryMu sync.RWMutex
	registry   = make(map[string]backendFactory)
	priority   = []string{BackendWGPU, BackendNull}
)

// register adds a backend factory under name, replacing any
// previous registration. Called from init functions.
func register(name string, factory backendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Backends returns the registered backend names.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// newBackend instantiates the backend cfg names, or the first
// available by priority when unset.
func newBackend(cfg Config) (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if cfg.Backend != "" {
		factory, ok := registry[cfg.Backend]
		if !ok {
			return nil, ErrNoBackend
		}
		return factory(), nil
	}
	for _, name := range priority {
		if factory, ok := registry[name]; ok {
			return factory(), nil
		}
	}
	return nil, ErrNoBackend
}
