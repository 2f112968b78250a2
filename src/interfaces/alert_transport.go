package interfaces

import "vai-alert/src/models"

// -----------------------------------------------------------------------------
// IAlertTransport is the persistent alert socket boundary.
// -----------------------------------------------------------------------------

type IAlertTransport interface {

	// Connect opens the socket unless already connected or connecting,
	// re-enables automatic reconnection, and resets the attempt counter.
	// Progress is visible through State.
	Connect()

	// -----------------------------------------------------------------------------

	// Disconnect suppresses reconnection, disarms the keepalive, and closes
	// the socket.
	Disconnect()

	// -----------------------------------------------------------------------------

	// Send serializes and writes one alert frame. Fails unless the state is
	// exactly Connected. Success means handed to the socket, not delivered.
	Send(msg models.MAlertMessage) error

	// -----------------------------------------------------------------------------

	// State returns the current connection state.
	State() models.MConnectionState
}
