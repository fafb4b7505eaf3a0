// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import "sync/atomic"

// SubmissionID orders GPU work. Ids are issued in strictly
// increasing order per device; zero means never submitted.
type SubmissionID uint64

// Tracker issues submission ids and answers completion queries
// against the backend fence. The completed value is cached so that
// queries for old submissions never touch the backend.
type Tracker struct {
	backend      Backend
	numSubmitted atomic.Uint64
	numCompleted atomic.Uint64
}

func newTracker(b Backend) *Tracker {
	return &Tracker{backend: b}
}

// Submit executes list against s under a fresh submission id.
func (t *Tracker) Submit(s SurfaceID, list *DrawList) (SubmissionID, error) {
	id := SubmissionID(t.numSubmitted.Add(1))
	if err := t.backend.Execute(s, list, id); err != nil {
		return 0, err
	}
	return id, nil
}

// IsDone reports whether the device has completed submission id.
// Unsubmitted ids (including zero) are trivially done.
func (t *Tracker) IsDone(id SubmissionID) bool {
	if uint64(id) <= t.numCompleted.Load() {
		return true
	}
	return t.poll() >= id
}

// Wait blocks until the device has completed submission id.
func (t *Tracker) Wait(id SubmissionID) error {
	if t.IsDone(id) {
		return nil
	}
	if err := t.backend.WaitFor(id); err != nil {
		return err
	}
	t.poll()
	return nil
}

// WaitIdle blocks until every issued submission has completed.
func (t *Tracker) WaitIdle() error {
	return t.Wait(SubmissionID(t.numSubmitted.Load()))
}

func (t *Tracker) poll() SubmissionID {
	done := t.backend.Completed()
	// Keep the cache monotonic against concurrent polls.
	for {
		cur := t.numCompleted.Load()
		if uint64(done) <= cur || t.numCompleted.CompareAndSwap(cur, uint64(done)) {
			return SubmissionID(max(cur, uint64(done)))
		}
	}
}
