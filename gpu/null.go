// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"sync"
)

func init() {
	register(BackendNull, func() Backend { return newNullBackend() })
}

// nullBackend executes nothing and completes submissions as soon as
// they are made. It backs headless windows and offscreen use, and
// with manual completion enabled it lets tests exercise fence
// ordering deterministically.
type nullBackend struct {
	mu   sync.Mutex
	cond *sync.Cond

	completed uint64
	// When manual, submissions complete only via complete().
	manual bool

	surfaces    map[SurfaceID]*nullSurface
	textures    map[uint64]Extent
	nextSurface SurfaceID
	nextTexture uint64
}

type nullSurface struct {
	backing  Extent
	visible  Extent
	presents int
	restarts int
}

func newNullBackend() *nullBackend {
	b := &nullBackend{
		surfaces: make(map[SurfaceID]*nullSurface),
		textures: make(map[uint64]Extent),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *nullBackend) Name() string { return BackendNull }

func (b *nullBackend) Init(Config) error { return nil }

func (b *nullBackend) Close() error { return nil }

func (b *nullBackend) Execute(s SurfaceID, list *DrawList, id SubmissionID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.surfaces[s]; s != 0 && !ok {
		return fmt.Errorf("gpu: execute against unknown surface %d", s)
	}
	// Drain the commands so recording mistakes surface in tests.
	for range list.Commands() {
	}
	if !b.manual {
		b.completeLocked(uint64(id))
	}
	return nil
}

func (b *nullBackend) Completed() SubmissionID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return SubmissionID(b.completed)
}

func (b *nullBackend) WaitFor(id SubmissionID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.completed < uint64(id) {
		if !b.manual {
			// Auto mode completes at Execute; reaching here means
			// the id was never submitted.
			b.completeLocked(uint64(id))
			break
		}
		b.cond.Wait()
	}
	return nil
}

func (b *nullBackend) CreateSurface(_ WindowHandle, extent Extent) (SurfaceID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSurface++
	b.surfaces[b.nextSurface] = &nullSurface{backing: extent, visible: extent}
	return b.nextSurface, nil
}

func (b *nullBackend) ResizeSurface(s SurfaceID, extent Extent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	surf, ok := b.surfaces[s]
	if !ok {
		return fmt.Errorf("gpu: resize of unknown surface %d", s)
	}
	surf.backing = extent
	return nil
}

func (b *nullBackend) SetSurfaceSource(s SurfaceID, extent Extent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	surf, ok := b.surfaces[s]
	if !ok {
		return fmt.Errorf("gpu: source change on unknown surface %d", s)
	}
	if extent.Width > surf.backing.Width || extent.Height > surf.backing.Height {
		return fmt.Errorf("gpu: source %dx%d exceeds backing %dx%d",
			extent.Width, extent.Height, surf.backing.Width, surf.backing.Height)
	}
	surf.visible = extent
	return nil
}

func (b *nullBackend) Present(s SurfaceID, restart bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	surf, ok := b.surfaces[s]
	if !ok {
		return fmt.Errorf("gpu: present of unknown surface %d", s)
	}
	surf.presents++
	if restart {
		surf.restarts++
	}
	return nil
}

func (b *nullBackend) DestroySurface(s SurfaceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.surfaces, s)
}

func (b *nullBackend) CreateTexture(extent Extent, _ TextureFormat, _ []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTexture++
	b.textures[b.nextTexture] = extent
	return b.nextTexture, nil
}

func (b *nullBackend) DestroyTexture(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.textures, id)
}

// complete marks submissions up to id as done. Used with manual
// completion.
func (b *nullBackend) complete(id SubmissionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completeLocked(uint64(id))
}

func (b *nullBackend) completeLocked(id uint64) {
	if id > b.completed {
		b.completed = id
	}
	b.cond.Broadcast()
}
