package helpers

import (
	"testing"
	"time"
)

// -----------------------------------------------------------------------------

func TestBackoffDelayFixed(t *testing.T) {
	for attempt := 1; attempt <= 5; attempt++ {
		if got := BackoffDelay(BackoffFixed, 2*time.Second, attempt); got != 2*time.Second {
			t.Fatalf("attempt %d: expected 2s, got %v", attempt, got)
		}
	}
}

// -----------------------------------------------------------------------------

func TestBackoffDelayExponential(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // 32s capped
		{6, 30 * time.Second},
		{40, 30 * time.Second}, // shift guard
	}

	for _, tc := range cases {
		if got := BackoffDelay(BackoffExponential, 2*time.Second, tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

// -----------------------------------------------------------------------------

func TestBackoffDelayDefaults(t *testing.T) {
	if got := BackoffDelay(BackoffFixed, 0, 1); got != 2*time.Second {
		t.Fatalf("zero base should default to 2s, got %v", got)
	}
	if got := BackoffDelay("jittered", 3*time.Second, 4); got != 3*time.Second {
		t.Fatalf("unknown policy should behave as fixed, got %v", got)
	}
	if got := BackoffDelay(BackoffExponential, time.Second, 0); got != time.Second {
		t.Fatalf("attempt below one should clamp to the base, got %v", got)
	}
}
