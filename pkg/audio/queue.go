package audio

import "sync"

// FrameQueue is an unbounded FIFO between a device callback (producer) and
// the node polling it (consumer). Push never blocks the callback thread.
type FrameQueue struct {
	mu      sync.Mutex
	frames  []Frame
	closed  bool
	pushed  int64
	dropped int64
}

// NewFrameQueue creates an empty queue.
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

// Push appends f. It reports false and counts a drop once the queue is closed.
func (q *FrameQueue) Push(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.dropped++
		return false
	}
	q.frames = append(q.frames, f)
	q.pushed++
	return true
}

// Drop counts a frame the producer discarded without queueing it.
func (q *FrameQueue) Drop() {
	q.mu.Lock()
	q.dropped++
	q.mu.Unlock()
}

// TryPop removes the oldest frame. It never blocks.
func (q *FrameQueue) TryPop() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return Frame{}, false
	}
	f := q.frames[0]
	q.frames[0] = Frame{}
	q.frames = q.frames[1:]
	return f, true
}

// DrainTo appends every queued frame to dst in order and returns it.
func (q *FrameQueue) DrainTo(dst []Frame) []Frame {
	q.mu.Lock()
	defer q.mu.Unlock()
	dst = append(dst, q.frames...)
	q.frames = nil
	return dst
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Pushed returns how many frames were accepted.
func (q *FrameQueue) Pushed() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed
}

// Dropped returns how many frames were discarded.
func (q *FrameQueue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close rejects further pushes. Queued frames stay available.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
