package dashboard

import "time"

// PriceWindow is a fixed-capacity FIFO of (time, price) points. Labels and
// prices are kept as parallel sequences; pushing past capacity evicts the
// oldest point from both.
type PriceWindow struct {
	capacity int
	times    []time.Time
	labels   []string
	prices   []float64
}

// NewPriceWindow creates a window holding at most capacity points.
func NewPriceWindow(capacity int) *PriceWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &PriceWindow{capacity: capacity}
}

// Push appends a point and evicts the oldest when over capacity.
func (w *PriceWindow) Push(t time.Time, price float64) {
	w.times = append(w.times, t)
	w.labels = append(w.labels, FormatClock(t))
	w.prices = append(w.prices, price)
	if len(w.prices) > w.capacity {
		w.times = w.times[1:]
		w.labels = w.labels[1:]
		w.prices = w.prices[1:]
	}
}

// Reset drops every point.
func (w *PriceWindow) Reset() {
	w.times, w.labels, w.prices = nil, nil, nil
}

// Len returns the number of points held.
func (w *PriceWindow) Len() int { return len(w.prices) }

// Cap returns the window capacity.
func (w *PriceWindow) Cap() int { return w.capacity }

// Labels returns a copy of the formatted time labels, oldest first.
func (w *PriceWindow) Labels() []string {
	return append([]string(nil), w.labels...)
}

// Prices returns a copy of the prices, oldest first.
func (w *PriceWindow) Prices() []float64 {
	return append([]float64(nil), w.prices...)
}

// Times returns a copy of the point times, oldest first.
func (w *PriceWindow) Times() []time.Time {
	return append([]time.Time(nil), w.times...)
}

// Clone returns an independent copy of the window.
func (w *PriceWindow) Clone() *PriceWindow {
	return &PriceWindow{
		capacity: w.capacity,
		times:    w.Times(),
		labels:   w.Labels(),
		prices:   w.Prices(),
	}
}
