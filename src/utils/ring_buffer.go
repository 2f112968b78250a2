package utils

import (
	"sync"

	"vai-alert/src/models"
)

// -----------------------------------------------------------------------------
// MagnitudeRing is a fixed-size circular trace of recent motion magnitudes.
// True ring buffer - no resizing. One writer (the gate's pump goroutine),
// any number of readers.
// -----------------------------------------------------------------------------

type MagnitudeRing struct {
	// Row storage (rows x features)
	data     [][models.RB_NUM_FEATURES]float64
	capacity int
	index    int // Next write position
	size     int // Current number of elements
	mu       sync.RWMutex
}

// -----------------------------------------------------------------------------

// NewMagnitudeRing creates a ring with fixed capacity
func NewMagnitudeRing(capacity int) *MagnitudeRing {
	if capacity <= 0 {
		capacity = 300 // 30s of trace at the 100ms sample interval
	}

	return &MagnitudeRing{
		data:     make([][models.RB_NUM_FEATURES]float64, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append records one trace point
func (r *MagnitudeRing) Append(p models.MMagnitudePoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[r.index] = [models.RB_NUM_FEATURES]float64{
		float64(p.Timestamp),
		p.Magnitude,
	}

	r.index = (r.index + 1) % r.capacity

	// Size never exceeds capacity
	if r.size < r.capacity {
		r.size++
	}
}

// -----------------------------------------------------------------------------

// Latest returns up to n newest points, oldest first
func (r *MagnitudeRing) Latest(n int) []models.MMagnitudePoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 || n <= 0 {
		return []models.MMagnitudePoint{}
	}

	count := n
	if count > r.size {
		count = r.size
	}

	result := make([]models.MMagnitudePoint, count)

	// Newest entry sits at index-1
	startIdx := (r.index - count + r.capacity) % r.capacity

	for i := 0; i < count; i++ {
		row := r.data[(startIdx+i)%r.capacity]
		result[i] = models.MMagnitudePoint{
			Timestamp: int64(row[models.RB_IDX_TIMESTAMP]),
			Magnitude: row[models.RB_IDX_MAGNITUDE],
		}
	}

	return result
}

// -----------------------------------------------------------------------------

// Peak returns the largest magnitude currently held
func (r *MagnitudeRing) Peak() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peak := 0.0
	for i := 0; i < r.size; i++ {
		if m := r.data[i][models.RB_IDX_MAGNITUDE]; m > peak {
			peak = m
		}
	}
	return peak
}

// -----------------------------------------------------------------------------

// Size returns the current number of elements
func (r *MagnitudeRing) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// -----------------------------------------------------------------------------

// Capacity returns the fixed capacity
func (r *MagnitudeRing) Capacity() int {
	return r.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the trace
func (r *MagnitudeRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = 0
	r.size = 0
}
