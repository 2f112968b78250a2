package location

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"vai-alert/src/helpers"
	"vai-alert/src/interfaces"
	"vai-alert/src/logger"
	"vai-alert/src/models"
)

// -----------------------------------------------------------------------------
// LocationFetcher acquires a single position fix per request. Authorization
// is checked before the stream is touched, the first fix races the deadline,
// and the stream is stopped on every exit path.
// -----------------------------------------------------------------------------

// ErrAlreadyPending rejects an overlapping request while one is in flight.
var ErrAlreadyPending = errors.New("location request already pending")

type LocationFetcher struct {
	Config   *models.MConfig
	Provider interfaces.ILocationProvider
	Logger   *logger.Logger

	timeout time.Duration
	pending atomic.Bool
}

// -----------------------------------------------------------------------------

func NewLocationFetcher(cfg *models.MConfig, provider interfaces.ILocationProvider) *LocationFetcher {
	return &LocationFetcher{
		Config:   cfg,
		Provider: provider,
		Logger:   logger.NewLogger(cfg.LogLevel, "LocationFetcher"),
		timeout:  time.Duration(cfg.Location.TimeoutSeconds) * time.Second,
	}
}

// -----------------------------------------------------------------------------

// RequestOnce resolves exactly once with the first fix or a classified error
func (f *LocationFetcher) RequestOnce(ctx context.Context) (models.MLocation, error) {
	// 1. Single in-flight request
	if !f.pending.CompareAndSwap(false, true) {
		return models.MLocation{}, ErrAlreadyPending
	}
	defer f.pending.Store(false)

	// 2. Authorization before touching the stream; denial is not retried
	if auth := f.Provider.Authorization(); !auth.Granted() {
		f.Logger.Warning("Location request refused, authorization is %s", auth)
		return models.MLocation{}, helpers.NewAlertError(helpers.KindAuthorizationDenied, "location permission not granted", nil)
	}

	// 3. Open the position stream
	stream, err := f.Provider.Start()
	if err != nil {
		f.Logger.Error("Position stream failed to start: %v", err)
		return models.MLocation{}, helpers.NewAlertError(helpers.KindLocationUnavailable, "position stream could not start", err)
	}
	defer f.Provider.Stop()

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	// 4. First fix, deadline, or caller abandonment, whichever wins
	select {
	case loc, ok := <-stream:
		if !ok {
			return models.MLocation{}, helpers.NewAlertError(helpers.KindLocationUnknown, "position stream ended before a fix", nil)
		}
		f.Logger.Info("Fix acquired (%.5f, %.5f) accuracy %.0fm", loc.Latitude, loc.Longitude, loc.Accuracy)
		return loc, nil

	case <-timer.C:
		f.Logger.Warning("Location request timed out after %v", f.timeout)
		return models.MLocation{}, helpers.NewAlertError(helpers.KindLocationTimeout, "no position fix within the deadline", nil)

	case <-ctx.Done():
		f.Logger.Debug("Location request abandoned: %v", ctx.Err())
		return models.MLocation{}, ctx.Err()
	}
}
