package models

import (
	"math"
	"time"
)

// MSensorSample is a single accelerometer reading in g units.
type MSensorSample struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Timestamp time.Time `json:"timestamp"`
}

// Magnitude returns the length of the acceleration vector in g.
func (s MSensorSample) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

// MShakeEvent is a sample accepted by the gesture gate.
// Consumed exactly once by the coordinator.
type MShakeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Magnitude float64   `json:"magnitude"`
}
