package interfaces

import "vai-alert/src/models"

// -----------------------------------------------------------------------------
// IMagnitudeSource exposes the bounded magnitude trace kept by the gesture
// gate for the status surface.
// -----------------------------------------------------------------------------

type IMagnitudeSource interface {

	// RecentMagnitudes returns up to n latest trace points, oldest first.
	RecentMagnitudes(n int) []models.MMagnitudePoint

	// -----------------------------------------------------------------------------

	// PeakMagnitude returns the largest magnitude currently in the trace.
	PeakMagnitude() float64
}
