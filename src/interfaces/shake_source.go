package interfaces

import (
	"context"

	"vai-alert/src/models"
)

// -----------------------------------------------------------------------------
// IShakeSource is the coordinator's view of the gesture gate.
// -----------------------------------------------------------------------------

type IShakeSource interface {

	// Arm begins sample delivery and gating until Disarm or ctx cancellation.
	Arm(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Disarm stops sample delivery. The cooldown baseline is retained, so a
	// quick re-arm does not reopen the gate early.
	Disarm() error

	// -----------------------------------------------------------------------------

	// Events is the stream of accepted shakes.
	Events() <-chan models.MShakeEvent
}
