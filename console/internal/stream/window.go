package stream

import "time"

// DefaultWindowCapacity is the number of samples kept per metric.
const DefaultWindowCapacity = 20

// Sample is one point in a rolling window.
type Sample struct {
	Label string    `json:"label"`
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// Window is a bounded FIFO of samples, oldest first. Not safe for concurrent
// use on its own; the Client guards it.
type Window struct {
	capacity int
	samples  []Sample
}

// NewWindow returns an empty window. capacity <= 0 means DefaultWindowCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &Window{capacity: capacity, samples: make([]Sample, 0, capacity)}
}

// Append adds s, evicting the oldest sample when the window is full.
func (w *Window) Append(s Sample) {
	if len(w.samples) >= w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:len(w.samples)-1]
	}
	w.samples = append(w.samples, s)
}

// Samples returns a copy of the window, oldest first.
func (w *Window) Samples() []Sample {
	out := make([]Sample, len(w.samples))
	copy(out, w.samples)
	return out
}
