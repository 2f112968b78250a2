package interfaces

import "vai-alert/src/models"

// -----------------------------------------------------------------------------
// ILocationProvider is the positioning driver boundary: authorization tier,
// a start/stop position stream, and tier-change notifications.
// -----------------------------------------------------------------------------

type ILocationProvider interface {

	// Authorization returns the current permission tier.
	Authorization() models.MAuthStatus

	// -----------------------------------------------------------------------------

	// AuthorizationChanges delivers tier changes as they happen.
	// May return nil when the driver cannot observe changes.
	AuthorizationChanges() <-chan models.MAuthStatus

	// -----------------------------------------------------------------------------

	// Start begins one position stream. Fixes arrive on the returned channel
	// until Stop; the channel is closed when the stream ends.
	Start() (<-chan models.MLocation, error)

	// -----------------------------------------------------------------------------

	// Stop halts the position stream. Safe to call more than once.
	Stop()
}
