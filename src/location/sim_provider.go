package location

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"vai-alert/src/logger"
	"vai-alert/src/models"
)

// -----------------------------------------------------------------------------
// SimProvider is a simulated positioning driver. It holds an authorization
// tier, delivers the first fix after a configurable delay, then keeps
// streaming jittered fixes around a fixed coordinate until stopped.
// -----------------------------------------------------------------------------

type SimProvider struct {
	Config *models.MConfig
	Logger *logger.Logger
	rng    *rand.Rand

	mu          sync.Mutex
	auth        models.MAuthStatus
	authChanges chan models.MAuthStatus
	cancelFunc  context.CancelFunc
	running     bool
}

// -----------------------------------------------------------------------------

func NewSimProvider(cfg *models.MConfig) *SimProvider {
	auth := models.MAuthStatus(cfg.Location.Provider.Authorization)
	switch auth {
	case models.AuthGrantedForeground, models.AuthGrantedAlways, models.AuthDenied, models.AuthUndetermined:
	default:
		auth = models.AuthUnknown
	}

	return &SimProvider{
		Config:      cfg,
		Logger:      logger.NewLogger(cfg.LogLevel, "SimProvider"),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		auth:        auth,
		authChanges: make(chan models.MAuthStatus, 4),
	}
}

// -----------------------------------------------------------------------------

// Authorization returns the current permission tier
func (p *SimProvider) Authorization() models.MAuthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.auth
}

// -----------------------------------------------------------------------------

// SetAuthorization simulates the user changing the permission in settings
func (p *SimProvider) SetAuthorization(a models.MAuthStatus) {
	p.mu.Lock()
	p.auth = a
	p.mu.Unlock()

	select {
	case p.authChanges <- a:
	default:
		// Nobody draining change notifications; drop rather than block
	}
	p.Logger.Info("Authorization changed to %s", a)
}

// -----------------------------------------------------------------------------

// AuthorizationChanges delivers tier changes as they happen
func (p *SimProvider) AuthorizationChanges() <-chan models.MAuthStatus {
	return p.authChanges
}

// -----------------------------------------------------------------------------

// Start begins one position stream
func (p *SimProvider) Start() (<-chan models.MLocation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil, fmt.Errorf("position stream is already running")
	}
	if !p.auth.Granted() {
		return nil, fmt.Errorf("authorization not granted: %s", p.auth)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancelFunc = cancel
	p.running = true

	stream := make(chan models.MLocation, 4)
	go p.streamLoop(ctx, stream)

	p.Logger.Debug("Position stream started")
	return stream, nil
}

// -----------------------------------------------------------------------------

// Stop halts the position stream. Safe to call more than once.
func (p *SimProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	if p.cancelFunc != nil {
		p.cancelFunc()
		p.cancelFunc = nil
	}
	p.running = false
	p.Logger.Debug("Position stream stopped")
}

// -----------------------------------------------------------------------------

// streamLoop emits the first fix after the configured delay, then one fix
// per update interval. The channel closes when the stream ends.
func (p *SimProvider) streamLoop(ctx context.Context, stream chan<- models.MLocation) {
	defer close(stream)

	fixDelay := time.Duration(p.Config.Location.Provider.FixDelayMs) * time.Millisecond
	interval := time.Duration(p.Config.Location.Provider.UpdateIntervalMs) * time.Millisecond

	select {
	case <-ctx.Done():
		return
	case <-time.After(fixDelay):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case stream <- p.nextFix():
		case <-ctx.Done():
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// -----------------------------------------------------------------------------

// nextFix produces one jittered fix around the configured coordinate
func (p *SimProvider) nextFix() models.MLocation {
	provider := p.Config.Location.Provider

	// Roughly a meter of wander per fix
	const jitterDegrees = 0.00001

	return models.MLocation{
		Latitude:  provider.Latitude + p.rng.NormFloat64()*jitterDegrees,
		Longitude: provider.Longitude + p.rng.NormFloat64()*jitterDegrees,
		Accuracy:  provider.AccuracyM,
		Timestamp: time.Now(),
	}
}
