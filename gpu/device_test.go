// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"sync"
	"testing"
)

func newTestDevice(t *testing.T, manual bool) (*Device, *nullBackend) {
	t.Helper()
	d, err := NewDevice(Config{Backend: BackendNull})
	if err != nil {
		t.Fatal(err)
	}
	nb := d.Backend().(*nullBackend)
	nb.mu.Lock()
	nb.manual = manual
	nb.mu.Unlock()
	return d, nb
}

func submitFrame(t *testing.T, d *Device, cl *CommandList, s SurfaceID) SubmissionID {
	t.Helper()
	cl.Begin(testView, testView)
	cl.Clear(Color{})
	cl.Finish()
	id, err := d.Submit(cl, s)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSubmissionIDsIncrease(t *testing.T) {
	d, _ := newTestDevice(t, false)
	defer d.Close()
	var last SubmissionID
	for i := 0; i < 5; i++ {
		id := submitFrame(t, d, d.AcquireCommandList(), 0)
		if id <= last {
			t.Fatalf("submission %d is %d, not after %d", i, id, last)
		}
		last = id
	}
}

func TestCommandListNotRecycledEarly(t *testing.T) {
	d, nb := newTestDevice(t, true)
	first := d.AcquireCommandList()
	id := submitFrame(t, d, first, 0)

	// The submission is still in flight, so a fresh list is
	// allocated.
	second := d.AcquireCommandList()
	if second == first {
		t.Fatal("in-flight command list recycled")
	}
	id2 := submitFrame(t, d, second, 0)

	nb.complete(id)
	third := d.AcquireCommandList()
	if third != first {
		t.Error("completed command list not recycled")
	}
	nb.complete(id2)
	if err := d.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRecycledListIsReset(t *testing.T) {
	d, _ := newTestDevice(t, false)
	defer d.Close()
	cl := d.AcquireCommandList()
	cl.Begin(testView, testView)
	tex := TextureKey{}.FromParts(1, 1)
	for i := 0; i < 10; i++ {
		cl.DrawRect(Rect{Texture: tex})
	}
	cl.Finish()
	if _, err := d.Submit(cl, 0); err != nil {
		t.Fatal(err)
	}
	again := d.AcquireCommandList()
	if again != cl {
		t.Fatal("completed command list not recycled")
	}
	again.Begin(testView, testView)
	again.Finish()
	if got := len(collect(&again.DrawList)); got != 2 {
		t.Errorf("recycled list has %d commands, want 2", got)
	}
}

func TestUnsubmittedZeroIDIsDone(t *testing.T) {
	d, _ := newTestDevice(t, true)
	if !d.IsDone(0) {
		t.Error("zero submission id not done")
	}
}

func TestSubmitUnfinishedPanics(t *testing.T) {
	d, _ := newTestDevice(t, false)
	defer d.Close()
	cl := d.AcquireCommandList()
	cl.Begin(testView, testView)
	defer func() {
		if recover() == nil {
			t.Error("Submit of an open list did not panic")
		}
	}()
	d.Submit(cl, 0)
}

func TestTrackerWaitBlocksUntilComplete(t *testing.T) {
	d, nb := newTestDevice(t, true)
	cl := d.AcquireCommandList()
	id := submitFrame(t, d, cl, 0)
	if d.IsDone(id) {
		t.Fatal("submission done before completion")
	}
	done := make(chan struct{})
	go func() {
		d.Wait(id)
		close(done)
	}()
	nb.complete(id)
	<-done
	if !d.IsDone(id) {
		t.Error("submission not done after completion")
	}
}

func TestDeviceTextures(t *testing.T) {
	d, _ := newTestDevice(t, false)
	defer d.Close()
	px := make([]byte, 4*4*4)
	key, err := d.CreateTexture(Extent{Width: 4, Height: 4}, FormatRGBA8, px)
	if err != nil {
		t.Fatal(err)
	}
	if ext, ok := d.TextureExtent(key); !ok || ext != (Extent{Width: 4, Height: 4}) {
		t.Errorf("TextureExtent = %v, %v", ext, ok)
	}
	d.DestroyTexture(key)
	if _, ok := d.TextureExtent(key); ok {
		t.Error("texture resolves after destroy")
	}
	// Stale destroy is ignored.
	d.DestroyTexture(key)
}

func TestDefaultTexture(t *testing.T) {
	d, _ := newTestDevice(t, false)
	defer d.Close()
	ext, ok := d.TextureExtent(TextureKey{})
	if !ok || ext != (Extent{Width: 1, Height: 1}) {
		t.Fatalf("zero key = %v, %v, want the 1x1 default", ext, ok)
	}
	// The default survives destroy attempts, whatever the epoch.
	d.DestroyTexture(TextureKey{})
	d.DestroyTexture(TextureKey{}.FromParts(0, 5))
	if _, ok := d.TextureExtent(TextureKey{}); !ok {
		t.Error("default texture destroyed")
	}
}

func TestTextureTableConcurrentUse(t *testing.T) {
	d, _ := newTestDevice(t, false)
	defer d.Close()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			key, err := d.CreateTexture(Extent{Width: 1, Height: 1}, FormatA8, []byte{0xff})
			if err != nil {
				return
			}
			d.DestroyTexture(key)
		}
	}()
	for i := 0; i < 10000; i++ {
		d.TextureExtent(TextureKey{}.FromParts(uint32(i%16)+1, 1))
	}
	close(stop)
	wg.Wait()
}

func TestCreateTextureSizeMismatch(t *testing.T) {
	d, _ := newTestDevice(t, false)
	defer d.Close()
	if _, err := d.CreateTexture(Extent{Width: 4, Height: 4}, FormatRGBA8, make([]byte, 7)); err == nil {
		t.Error("mismatched pixel data accepted")
	}
}
