package forecast

import "github.com/wonny/limitrade/internal/contracts"

// Ring is a fixed-capacity buffer of aggregate points. Pushing onto a full
// ring overwrites the oldest point; nothing else removes points.
type Ring struct {
	buf   []contracts.AggregatePoint
	start int // index of the oldest point
	size  int
}

// NewRing creates a ring holding at most capacity points (minimum 1)
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]contracts.AggregatePoint, capacity)}
}

// Push appends p and reports whether the oldest point was evicted
func (r *Ring) Push(p contracts.AggregatePoint) bool {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = p
		r.size++
		return false
	}
	r.buf[r.start] = p
	r.start = (r.start + 1) % len(r.buf)
	return true
}

// Len returns the number of stored points
func (r *Ring) Len() int { return r.size }

// Cap returns the fixed capacity
func (r *Ring) Cap() int { return len(r.buf) }

// At returns the i-th oldest point
func (r *Ring) At(i int) contracts.AggregatePoint {
	return r.buf[(r.start+i)%len(r.buf)]
}

// Points copies the stored points, oldest first
func (r *Ring) Points() []contracts.AggregatePoint {
	out := make([]contracts.AggregatePoint, r.size)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Reset drops every point
func (r *Ring) Reset() {
	r.start, r.size = 0, 0
}
