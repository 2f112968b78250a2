package models

import "time"

// -----------------------------------------------------------------------------
// Location authorization tiers (mirrors the platform permission model)
// -----------------------------------------------------------------------------

type MAuthStatus string

const (
	AuthGrantedForeground MAuthStatus = "granted_foreground"
	AuthGrantedAlways     MAuthStatus = "granted_always"
	AuthDenied            MAuthStatus = "denied"
	AuthUndetermined      MAuthStatus = "undetermined"
	AuthUnknown           MAuthStatus = "unknown"
)

// Granted reports whether this tier allows starting a position stream.
func (a MAuthStatus) Granted() bool {
	return a == AuthGrantedForeground || a == AuthGrantedAlways
}

// -----------------------------------------------------------------------------

// MLocation is a single position fix. Owned by the caller that requested
// it; never cached across requests.
type MLocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Timestamp time.Time `json:"timestamp"`
}
