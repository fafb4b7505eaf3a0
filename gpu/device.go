// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"sync"

	"github.com/david7a68/plinth/internal/debug"
	"github.com/david7a68/plinth/internal/pool"
)

// CommandList is a draw list bound to a device, reused across
// frames once the submission that consumed it completes.
type CommandList struct {
	DrawList
	// Submission that last consumed the list, zero when never
	// submitted.
	sync SubmissionID
}

// Device owns a backend, the submission tracker and the texture
// table. It is safe for concurrent use by several window handlers.
type Device struct {
	backend Backend
	tracker *Tracker

	mu       sync.Mutex
	textures *pool.SlotMap[TextureKey, texture]
	// In-flight command lists, oldest first.
	inflight []*CommandList
	lost     bool
}

// NewDevice initializes a backend per cfg and wraps it in a Device.
func NewDevice(cfg Config) (*Device, error) {
	b, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	if err := b.Init(cfg); err != nil {
		return nil, err
	}
	// Slot 0 of the texture table holds a 1x1 white texture so the
	// zero TextureKey is always drawable.
	defID, err := b.CreateTexture(Extent{Width: 1, Height: 1}, FormatRGBA8, []byte{0xff, 0xff, 0xff, 0xff})
	if err != nil {
		b.Close()
		return nil, err
	}
	debug.Log().Info().
		Str("backend", b.Name()).
		Log("gpu device initialized")
	return &Device{
		backend: b,
		tracker: newTracker(b),
		textures: textureTable(texture{
			backendID: defID,
			extent:    Extent{Width: 1, Height: 1},
			format:    FormatRGBA8,
		}),
	}, nil
}

// AcquireCommandList returns a command list ready for Begin. The
// oldest in-flight list is recycled if the device has finished with
// it, otherwise a new list is allocated.
func (d *Device) AcquireCommandList() *CommandList {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.inflight) > 0 {
		cl := d.inflight[0]
		if d.tracker.IsDone(cl.sync) {
			copy(d.inflight, d.inflight[1:])
			d.inflight[len(d.inflight)-1] = nil
			d.inflight = d.inflight[:len(d.inflight)-1]
			return cl
		}
	}
	cl := &CommandList{}
	cl.Discard()
	return cl
}

// Submit executes cl against surface s and queues it for reuse. The
// list must be finished.
func (d *Device) Submit(cl *CommandList, s SurfaceID) (SubmissionID, error) {
	if !cl.Closed() {
		panic("gpu: Submit of an unfinished command list")
	}
	d.mu.Lock()
	if d.lost {
		d.mu.Unlock()
		return 0, ErrDeviceLost
	}
	d.mu.Unlock()
	id, err := d.tracker.Submit(s, &cl.DrawList)
	if err != nil {
		d.markLost(err)
		return 0, err
	}
	cl.sync = id
	d.mu.Lock()
	d.inflight = append(d.inflight, cl)
	d.mu.Unlock()
	return id, nil
}

// Backend returns the backend the device runs on.
func (d *Device) Backend() Backend {
	return d.backend
}

// IsDone reports whether submission id has completed.
func (d *Device) IsDone(id SubmissionID) bool {
	return d.tracker.IsDone(id)
}

// Wait blocks until submission id has completed.
func (d *Device) Wait(id SubmissionID) error {
	return d.tracker.Wait(id)
}

// WaitIdle blocks until all submitted work has completed.
func (d *Device) WaitIdle() error {
	return d.tracker.WaitIdle()
}

// Close waits for outstanding work and releases the backend.
func (d *Device) Close() error {
	if err := d.tracker.WaitIdle(); err != nil {
		debug.Log().Err().
			Err(err).
			Log("wait for idle before device close")
	}
	d.mu.Lock()
	d.textures.Range(func(_ TextureKey, t *texture) bool {
		d.backend.DestroyTexture(t.backendID)
		return true
	})
	d.inflight = nil
	d.mu.Unlock()
	return d.backend.Close()
}

func (d *Device) markLost(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return
	}
	d.lost = true
	debug.Log().Err().
		Err(err).
		Log("gpu device lost")
}
