package models

import "time"

// -----------------------------------------------------------------------------
// Coordinator display states
// -----------------------------------------------------------------------------

type MServicePhase string

const (
	PhaseIdle            MServicePhase = "idle"
	PhaseMonitoring      MServicePhase = "monitoring"
	PhaseProcessingAlert MServicePhase = "processing_alert"
	PhaseSendingAlert    MServicePhase = "sending_alert"
	PhaseAlertSent       MServicePhase = "alert_sent"
	PhaseError           MServicePhase = "error"
)

// MServiceStatus is the user-visible state: a phase plus the display text
// carried by error states. Owned exclusively by the coordinator loop.
type MServiceStatus struct {
	Phase   MServicePhase `json:"phase"`
	Message string        `json:"message,omitempty"`
}

// -----------------------------------------------------------------------------
// Transport connection states
// -----------------------------------------------------------------------------

type MConnectionPhase string

const (
	ConnDisconnected MConnectionPhase = "disconnected"
	ConnConnecting   MConnectionPhase = "connecting"
	ConnConnected    MConnectionPhase = "connected"
	ConnReconnecting MConnectionPhase = "reconnecting"
	ConnFailed       MConnectionPhase = "failed"
)

// MConnectionState is the transport state with the visible retry counter.
// Owned exclusively by the transport; everyone else only reads it.
type MConnectionState struct {
	Phase   MConnectionPhase `json:"phase"`
	Attempt int              `json:"attempt,omitempty"`
}

// -----------------------------------------------------------------------------
// Outward surface
// -----------------------------------------------------------------------------

// MStats counts delivered alerts since process start. Reset only on restart.
type MStats struct {
	AlertCount  int        `json:"alert_count"`
	LastAlertAt *time.Time `json:"last_alert_at,omitempty"`
}

// MStatusSnapshot is the read-only view handed to the presentation layer.
type MStatusSnapshot struct {
	Active        bool           `json:"active"`
	Status        MServiceStatus `json:"status"`
	Stats         MStats         `json:"stats"`
	LastError     string         `json:"last_error,omitempty"`
	Authorization MAuthStatus    `json:"authorization,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
