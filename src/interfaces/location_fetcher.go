package interfaces

import (
	"context"

	"vai-alert/src/models"
)

// -----------------------------------------------------------------------------
// ILocationFetcher is the one-shot position acquisition boundary.
// -----------------------------------------------------------------------------

type ILocationFetcher interface {

	// RequestOnce resolves exactly once with the first fix or a classified
	// error. Cancelling ctx abandons the request and stops the underlying
	// stream. A second call while one is outstanding is rejected.
	RequestOnce(ctx context.Context) (models.MLocation, error)
}
