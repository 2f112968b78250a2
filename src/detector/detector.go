package detector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vai-alert/src/interfaces"
	"vai-alert/src/logger"
	"vai-alert/src/models"
	"vai-alert/src/utils"
)

// -----------------------------------------------------------------------------
// ShakeDetector turns a raw accelerometer stream into discrete shake events.
// A sample fires when its magnitude strictly exceeds the threshold and the
// cooldown window since the last accepted shake has elapsed. The cooldown
// baseline survives Disarm/Arm cycles, so re-arming cannot double-fire on
// the same physical gesture.
// -----------------------------------------------------------------------------

type ShakeDetector struct {
	Config *models.MConfig
	Sensor interfaces.ISensorFeed
	Logger *logger.Logger

	threshold float64
	cooldown  time.Duration

	// Gate state, owned by the pump goroutine at runtime
	gateMu       sync.Mutex
	lastAccepted time.Time
	hasAccepted  bool

	trace  *utils.MagnitudeRing
	events chan models.MShakeEvent

	armed       atomic.Bool
	feedRunning bool
	cancelFunc  context.CancelFunc
	feedWg      sync.WaitGroup
	mu          sync.Mutex
}

// -----------------------------------------------------------------------------

func NewShakeDetector(cfg *models.MConfig, feed interfaces.ISensorFeed) *ShakeDetector {
	return &ShakeDetector{
		Config:    cfg,
		Sensor:    feed,
		Logger:    logger.NewLogger(cfg.LogLevel, "ShakeDetector"),
		threshold: cfg.Detector.ThresholdG,
		cooldown:  time.Duration(cfg.Detector.CooldownSeconds * float64(time.Second)),
		trace:     utils.NewMagnitudeRing(cfg.Detector.HistorySize),
		events:    make(chan models.MShakeEvent, 8),
	}
}

// -----------------------------------------------------------------------------

// Events returns the stream of accepted shakes
func (d *ShakeDetector) Events() <-chan models.MShakeEvent {
	return d.events
}

// -----------------------------------------------------------------------------

// Arm starts the sensor feed and begins gating samples. An absent sensor is
// not an error: the gate arms but never fires.
func (d *ShakeDetector) Arm(parentCtx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.armed.Load() {
		return fmt.Errorf("detector is already armed")
	}

	if !d.Sensor.IsAvailable() {
		d.armed.Store(true)
		d.feedRunning = false
		d.Logger.Warning("Motion sensor unavailable, gate armed but will not fire")
		return nil
	}

	ctx, cancel := context.WithCancel(parentCtx)
	d.cancelFunc = cancel

	samples := make(chan models.MSensorSample, 64)
	if err := d.Sensor.Start(ctx, samples, &d.feedWg); err != nil {
		cancel()
		return fmt.Errorf("failed to start sensor feed: %w", err)
	}

	d.feedWg.Add(1)
	go d.pump(ctx, samples)

	d.armed.Store(true)
	d.feedRunning = true
	d.Logger.Info("Armed (threshold %.2fg, cooldown %v)", d.threshold, d.cooldown)
	return nil
}

// -----------------------------------------------------------------------------

// Disarm stops the sensor feed. The cooldown baseline is kept.
func (d *ShakeDetector) Disarm() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.armed.Load() {
		return fmt.Errorf("detector is not armed")
	}

	if d.cancelFunc != nil {
		d.cancelFunc()
		d.cancelFunc = nil
	}
	if d.feedRunning {
		if err := d.Sensor.Stop(); err != nil {
			d.Logger.Warning("Sensor feed stop: %v", err)
		}
		d.feedWg.Wait()
		d.feedRunning = false
	}

	d.armed.Store(false)
	d.Logger.Info("Disarmed")
	return nil
}

// -----------------------------------------------------------------------------

// IsArmed reports whether the gate is currently accepting samples
func (d *ShakeDetector) IsArmed() bool {
	return d.armed.Load()
}

// -----------------------------------------------------------------------------

// pump forwards feed samples into the gate until the context is cancelled
func (d *ShakeDetector) pump(ctx context.Context, samples <-chan models.MSensorSample) {
	defer d.feedWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-samples:
			d.Feed(s)
		}
	}
}

// -----------------------------------------------------------------------------

// Feed runs one sample through the gate and reports whether it fired.
// Decisions use the sample's own timestamp, so the gate is a pure function
// of the stream.
func (d *ShakeDetector) Feed(sample models.MSensorSample) bool {
	magnitude := sample.Magnitude()

	d.trace.Append(models.MMagnitudePoint{
		Timestamp: sample.Timestamp.UnixMilli(),
		Magnitude: magnitude,
	})

	if !d.armed.Load() {
		return false
	}

	// Strict greater-than: a sample exactly at the threshold does not fire
	if magnitude <= d.threshold {
		return false
	}

	d.gateMu.Lock()
	if d.hasAccepted && sample.Timestamp.Sub(d.lastAccepted) < d.cooldown {
		d.gateMu.Unlock()
		return false
	}
	d.lastAccepted = sample.Timestamp
	d.hasAccepted = true
	d.gateMu.Unlock()

	event := models.MShakeEvent{
		Timestamp: sample.Timestamp,
		Magnitude: magnitude,
	}

	select {
	case d.events <- event:
		d.Logger.Info("Shake detected (%.2fg)", magnitude)
	default:
		// Consumer is behind; the gesture is stale by the time it would drain
		d.Logger.Warning("Shake event dropped, consumer not keeping up")
	}
	return true
}

// -----------------------------------------------------------------------------

// RecentMagnitudes returns up to n recent trace points, oldest first
func (d *ShakeDetector) RecentMagnitudes(n int) []models.MMagnitudePoint {
	return d.trace.Latest(n)
}

// -----------------------------------------------------------------------------

// PeakMagnitude returns the largest magnitude in the retained trace
func (d *ShakeDetector) PeakMagnitude() float64 {
	return d.trace.Peak()
}
