package interfaces

import (
	"context"
	"sync"

	"vai-alert/src/models"
)

// -----------------------------------------------------------------------------
// ISensorFeed is the motion-sensor driver boundary. While started it delivers
// samples at a fixed interval from its own goroutine.
// -----------------------------------------------------------------------------

type ISensorFeed interface {

	// IsAvailable reports whether the underlying sensor can deliver samples.
	IsAvailable() bool

	// -----------------------------------------------------------------------------

	// Start begins sample delivery.
	// ctx: controls the lifecycle (cancellation stops the feed)
	// outputChan: channel samples are pushed to
	// wg: signals when the feed goroutine has fully stopped
	Start(ctx context.Context, outputChan chan<- models.MSensorSample, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Stop terminates sample delivery (cancelling the Start context is equivalent).
	Stop() error
}
