package helpers

import "time"

// -----------------------------------------------------------------------------
// Reconnect backoff policies
// -----------------------------------------------------------------------------

const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// MaxBackoff caps the exponential curve.
const MaxBackoff = 30 * time.Second

// -----------------------------------------------------------------------------

// BackoffDelay returns the wait before reconnect attempt n (1-based).
// The fixed policy waits the base delay every time; the exponential policy
// doubles it per attempt (base * 2^(n-1)), capped at MaxBackoff. Unknown
// policy names behave as fixed.
func BackoffDelay(policy string, base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 2 * time.Second
	}
	if policy != BackoffExponential {
		return base
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return MaxBackoff
	}

	delay := base * (1 << uint(attempt-1))
	if delay <= 0 || delay > MaxBackoff {
		return MaxBackoff
	}
	return delay
}
