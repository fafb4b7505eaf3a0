// SPDX-License-Identifier: Unlicense OR MIT

package app

import "sync"

// eventQueue is an unbounded FIFO from the event thread to the
// handler. Pushes never block, so the OS message pump is never held
// up by a slow handler. Closing the queue is the termination
// signal: the handler drains remaining events, then sees ok=false.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []Event
	head   int
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends e. Push after close is a usage error.
func (q *eventQueue) push(e Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		panic("app: push to a closed event queue")
	}
	q.buf = append(q.buf, e)
	q.mu.Unlock()
	q.cond.Signal()
}

// close marks the sender gone. Pending events remain readable.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
}

// next blocks for the next event. It returns ok=false only once
// the queue is closed and drained.
func (q *eventQueue) next() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head == len(q.buf) && !q.closed {
		q.cond.Wait()
	}
	if q.head == len(q.buf) {
		return nil, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = nil
	q.head++
	if q.head == len(q.buf) {
		// Drained; recycle the buffer.
		q.buf = q.buf[:0]
		q.head = 0
	}
	return e, true
}
