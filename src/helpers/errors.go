package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Pipeline error taxonomy
// -----------------------------------------------------------------------------

// ErrorKind classifies every failure the alert pipeline can produce.
type ErrorKind string

const (
	KindAuthorizationDenied    ErrorKind = "authorization_denied"
	KindLocationTimeout        ErrorKind = "location_timeout"
	KindLocationUnavailable    ErrorKind = "location_unavailable"
	KindLocationUnknown        ErrorKind = "location_unknown"
	KindTransportNotConnected  ErrorKind = "transport_not_connected"
	KindTransportSerialization ErrorKind = "transport_serialization_failed"
	KindTransportConnection    ErrorKind = "transport_connection_failed"
	KindInternal               ErrorKind = "internal"
)

// -----------------------------------------------------------------------------

// AlertError is the error type carried across the pipeline. Kind drives
// recovery and display; Cause keeps the underlying fault for logs.
type AlertError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *AlertError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AlertError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// NewAlertError builds a classified pipeline error.
func NewAlertError(kind ErrorKind, message string, cause error) *AlertError {
	return &AlertError{Kind: kind, Message: message, Cause: cause}
}

// -----------------------------------------------------------------------------

// KindOf extracts the taxonomy kind from any error in a wrap chain.
// Foreign errors classify as KindInternal.
func KindOf(err error) ErrorKind {
	var ae *AlertError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// -----------------------------------------------------------------------------

// DisplayText maps a pipeline failure to the transient status line shown to
// the user. Location failures read "Location: ...", transport failures
// "Network: ...". Never returns an empty string for a non-nil error.
func DisplayText(err error) string {
	var ae *AlertError
	if !errors.As(err, &ae) {
		return "Error: " + err.Error()
	}

	switch ae.Kind {
	case KindAuthorizationDenied:
		return "Location: permission denied"
	case KindLocationTimeout:
		return "Location: request timed out"
	case KindLocationUnavailable:
		return "Location: position unavailable"
	case KindLocationUnknown:
		return "Location: " + ae.Message
	case KindTransportNotConnected:
		return "Network: not connected"
	case KindTransportSerialization:
		return "Network: could not encode alert"
	case KindTransportConnection:
		return "Network: " + ae.Message
	default:
		return "Error: " + ae.Error()
	}
}
