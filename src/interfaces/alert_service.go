package interfaces

import "vai-alert/src/models"

// -----------------------------------------------------------------------------
// IAlertService is the outward control surface of the coordinator. All other
// state is read-only through Snapshot.
// -----------------------------------------------------------------------------

type IAlertService interface {

	// Start arms monitoring. No-op when already active.
	Start() error

	// -----------------------------------------------------------------------------

	// Stop disarms monitoring and tears down in-flight work. No-op when idle.
	Stop()

	// -----------------------------------------------------------------------------

	// Toggle starts when idle and stops when active.
	Toggle() error

	// -----------------------------------------------------------------------------

	// IsActive reports whether monitoring is armed.
	IsActive() bool

	// -----------------------------------------------------------------------------

	// Snapshot returns the current outward status view.
	Snapshot() models.MStatusSnapshot
}
