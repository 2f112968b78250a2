package helpers

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------

func TestDisplayText(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"authorization denied", NewAlertError(KindAuthorizationDenied, "permission refused", nil), "Location: permission denied"},
		{"location timeout", NewAlertError(KindLocationTimeout, "no fix within deadline", nil), "Location: request timed out"},
		{"location unavailable", NewAlertError(KindLocationUnavailable, "provider would not start", nil), "Location: position unavailable"},
		{"location unknown", NewAlertError(KindLocationUnknown, "position stream ended before a fix", nil), "Location: position stream ended before a fix"},
		{"transport not connected", NewAlertError(KindTransportNotConnected, "socket is not connected", nil), "Network: not connected"},
		{"transport serialization", NewAlertError(KindTransportSerialization, "marshal failed", nil), "Network: could not encode alert"},
		{"transport connection", NewAlertError(KindTransportConnection, "write failed", nil), "Network: write failed"},
		{"foreign error", errors.New("disk on fire"), "Error: disk on fire"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DisplayText(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestDisplayTextUnwrapsChains(t *testing.T) {
	inner := NewAlertError(KindLocationTimeout, "no fix within deadline", nil)
	wrapped := fmt.Errorf("requesting position: %w", inner)

	if got := DisplayText(wrapped); got != "Location: request timed out" {
		t.Fatalf("expected the wrapped kind to win, got %q", got)
	}
}

// -----------------------------------------------------------------------------

func TestKindOf(t *testing.T) {
	err := NewAlertError(KindTransportConnection, "write failed", errors.New("broken pipe"))

	if got := KindOf(err); got != KindTransportConnection {
		t.Fatalf("expected transport connection kind, got %s", got)
	}
	if got := KindOf(fmt.Errorf("outer: %w", err)); got != KindTransportConnection {
		t.Fatalf("expected kind through the wrap chain, got %s", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Fatalf("foreign errors should classify internal, got %s", got)
	}
}

// -----------------------------------------------------------------------------

func TestAlertErrorUnwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := NewAlertError(KindTransportConnection, "write failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
	if err.Error() != "write failed: broken pipe" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	bare := NewAlertError(KindInternal, "no cause", nil)
	if bare.Error() != "no cause" {
		t.Fatalf("unexpected bare message: %q", bare.Error())
	}
	if bare.Unwrap() != nil {
		t.Fatal("expected nil unwrap without a cause")
	}
}
