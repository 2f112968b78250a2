package sensor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"vai-alert/src/logger"
	"vai-alert/src/models"
)

// -----------------------------------------------------------------------------
// SimFeed is a simulated accelerometer. It emits baseline samples around 1 g
// on a fixed tick and can be told to emit a short high-magnitude burst, which
// is what a wrist shake looks like at the sampling rate.
// -----------------------------------------------------------------------------

type SimFeed struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	rng        *rand.Rand
	available  atomic.Bool
	cancelFunc context.CancelFunc // To support Stop()
	ctx        context.Context    // Lifecycle context for push safety
	outputChan chan<- models.MSensorSample
	isRunning  atomic.Bool

	burstMu   sync.Mutex
	burstLeft int // Remaining high-magnitude samples to emit

	mu sync.Mutex
}

// -----------------------------------------------------------------------------

func NewSimFeed(cfg *models.MConfig) *SimFeed {
	f := &SimFeed{
		Config: cfg,
		Logger: logger.NewLogger(cfg.LogLevel, "SimFeed"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	f.available.Store(true)
	return f
}

// -----------------------------------------------------------------------------

// IsAvailable reports whether the sensor hardware is present
func (f *SimFeed) IsAvailable() bool {
	return f.available.Load()
}

// -----------------------------------------------------------------------------

// SetAvailable toggles the simulated hardware presence
func (f *SimFeed) SetAvailable(v bool) {
	f.available.Store(v)
}

// -----------------------------------------------------------------------------

// Start begins the sampling loop
func (f *SimFeed) Start(parentCtx context.Context, outputChan chan<- models.MSensorSample, wg *sync.WaitGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isRunning.Load() {
		return fmt.Errorf("sensor feed is already running")
	}
	if !f.available.Load() {
		return fmt.Errorf("sensor hardware is not available")
	}

	// Derive a context so we can stop just this feed via Stop()
	ctx, cancel := context.WithCancel(parentCtx)
	f.cancelFunc = cancel
	f.ctx = ctx
	f.outputChan = outputChan
	f.isRunning.Store(true)

	wg.Add(1)
	go f.runLoop(ctx, outputChan, wg)
	f.Logger.Info("Started sensor feed (interval %dms)", f.Config.Sensor.IntervalMs)
	return nil
}

// -----------------------------------------------------------------------------

// Stop signals the sampling loop to exit
func (f *SimFeed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isRunning.Load() {
		return fmt.Errorf("sensor feed is not running")
	}

	if f.cancelFunc != nil {
		f.cancelFunc()
	}
	f.isRunning.Store(false)
	f.Logger.Info("Stopped sensor feed")
	return nil
}

// -----------------------------------------------------------------------------

// InjectShake queues one burst of high-magnitude samples
func (f *SimFeed) InjectShake() {
	f.burstMu.Lock()
	f.burstLeft = f.Config.Sensor.ShakeSamples
	f.burstMu.Unlock()
	f.Logger.Debug("Shake burst queued (%d samples at %.2fg)", f.Config.Sensor.ShakeSamples, f.Config.Sensor.ShakePeakG)
}

// -----------------------------------------------------------------------------

// runLoop emits one sample per tick until the context is cancelled
func (f *SimFeed) runLoop(ctx context.Context, outputChan chan<- models.MSensorSample, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Duration(f.Config.Sensor.IntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample := f.nextSample()

			// Push without blocking shutdown
			select {
			case outputChan <- sample:
			case <-ctx.Done():
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

// nextSample produces the next reading. Burst samples take priority over the
// baseline signal.
func (f *SimFeed) nextSample() models.MSensorSample {
	magnitude := f.Config.Sensor.BaselineG + f.rng.NormFloat64()*f.Config.Sensor.NoiseG

	f.burstMu.Lock()
	if f.burstLeft > 0 {
		magnitude = f.Config.Sensor.ShakePeakG + f.rng.NormFloat64()*f.Config.Sensor.NoiseG
		f.burstLeft--
	}
	f.burstMu.Unlock()

	if magnitude < 0 {
		magnitude = 0
	}

	// Spread the magnitude over the three axes. Gravity dominates Z at rest,
	// so X and Y carry only small noise terms.
	x := f.rng.NormFloat64() * f.Config.Sensor.NoiseG
	y := f.rng.NormFloat64() * f.Config.Sensor.NoiseG

	zSquared := magnitude*magnitude - x*x - y*y
	z := 0.0
	if zSquared > 0 {
		z = math.Sqrt(zSquared)
	}

	return models.MSensorSample{
		X:         x,
		Y:         y,
		Z:         z,
		Timestamp: time.Now(),
	}
}
