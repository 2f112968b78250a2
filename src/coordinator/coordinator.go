package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vai-alert/src/helpers"
	"vai-alert/src/interfaces"
	"vai-alert/src/logger"
	"vai-alert/src/models"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// AlertCoordinator drives the shake-to-alert pipeline. A single event loop
// owns every status and stats mutation; shakes, control commands, async
// completions and hold expirations all funnel through it. Async work carries
// the status sequence number it was spawned under, so completions that arrive
// after the world has moved on are discarded instead of clobbering state.
// -----------------------------------------------------------------------------

type command struct {
	action string
	reply  chan error
}

const (
	cmdStart  = "start"
	cmdStop   = "stop"
	cmdToggle = "toggle"
)

type AlertCoordinator struct {
	Config    *models.MConfig
	Gate      interfaces.IShakeSource
	Fetcher   interfaces.ILocationFetcher
	Transport interfaces.IAlertTransport
	Provider  interfaces.ILocationProvider
	Logger    *logger.Logger

	successHold time.Duration
	errorHold   time.Duration

	// Loop-owned state. Only the Run goroutine touches these.
	active    bool
	status    models.MServiceStatus
	stats     models.MStats
	lastError string
	auth      models.MAuthStatus
	seq       uint64
	holdTimer *time.Timer
	locCancel context.CancelFunc
	runCtx    context.Context

	cmds        chan command
	apply       chan func()
	changes     chan models.MStatusSnapshot
	authChanges <-chan models.MAuthStatus

	isRunning atomic.Bool
	loopDone  chan struct{}

	snapMu   sync.RWMutex
	snapshot models.MStatusSnapshot
}

// -----------------------------------------------------------------------------

func NewAlertCoordinator(
	cfg *models.MConfig,
	gate interfaces.IShakeSource,
	fetcher interfaces.ILocationFetcher,
	transport interfaces.IAlertTransport,
	provider interfaces.ILocationProvider,
) *AlertCoordinator {
	c := &AlertCoordinator{
		Config:      cfg,
		Gate:        gate,
		Fetcher:     fetcher,
		Transport:   transport,
		Provider:    provider,
		Logger:      logger.NewLogger(cfg.LogLevel, "AlertCoordinator"),
		successHold: time.Duration(cfg.Coordinator.SuccessHoldSeconds * float64(time.Second)),
		errorHold:   time.Duration(cfg.Coordinator.ErrorHoldSeconds * float64(time.Second)),
		status:      models.MServiceStatus{Phase: models.PhaseIdle},
		cmds:        make(chan command),
		apply:       make(chan func(), 16),
		changes:     make(chan models.MStatusSnapshot, 64),
		loopDone:    make(chan struct{}),
	}

	if provider != nil {
		c.auth = provider.Authorization()
		c.authChanges = provider.AuthorizationChanges()
	}

	c.snapshot = models.MStatusSnapshot{
		Status:        c.status,
		Authorization: c.auth,
		UpdatedAt:     time.Now(),
	}
	return c
}

// -----------------------------------------------------------------------------

// Run executes the event loop until ctx is cancelled. Everything else on
// this type is safe to call from other goroutines while Run is live.
func (c *AlertCoordinator) Run(ctx context.Context) error {
	if !c.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("coordinator is already running")
	}
	defer c.isRunning.Store(false)

	select {
	case <-c.loopDone:
		return fmt.Errorf("coordinator loop already finished")
	default:
	}
	defer close(c.loopDone)

	c.runCtx = ctx
	c.publish()
	c.Logger.Info("Coordinator loop running")

	for {
		select {
		case <-ctx.Done():
			c.stopMonitoring()
			c.Logger.Info("Coordinator loop stopped")
			return nil

		case cmd := <-c.cmds:
			cmd.reply <- c.handleCommand(cmd.action)

		case ev := <-c.Gate.Events():
			c.handleShake(ev)

		case fn := <-c.apply:
			fn()

		case a := <-c.authChanges:
			c.handleAuthChange(a)
		}
	}
}

// -----------------------------------------------------------------------------

// Start begins monitoring. No-op when already active.
func (c *AlertCoordinator) Start() error {
	return c.command(cmdStart)
}

// -----------------------------------------------------------------------------

// Stop halts monitoring and abandons any alert in flight. No-op when idle.
func (c *AlertCoordinator) Stop() {
	_ = c.command(cmdStop)
}

// -----------------------------------------------------------------------------

// Toggle flips between monitoring and idle
func (c *AlertCoordinator) Toggle() error {
	return c.command(cmdToggle)
}

// -----------------------------------------------------------------------------

// IsActive reports whether monitoring is on
func (c *AlertCoordinator) IsActive() bool {
	return c.Snapshot().Active
}

// -----------------------------------------------------------------------------

// Snapshot returns the latest published state
func (c *AlertCoordinator) Snapshot() models.MStatusSnapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snapshot
}

// -----------------------------------------------------------------------------

// StatusChanges streams one snapshot per transition. The channel is buffered;
// when a consumer lags, the oldest snapshots are dropped first.
func (c *AlertCoordinator) StatusChanges() <-chan models.MStatusSnapshot {
	return c.changes
}

// -----------------------------------------------------------------------------

// command marshals a control action onto the loop and waits for the result
func (c *AlertCoordinator) command(action string) error {
	cmd := command{action: action, reply: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
		return <-cmd.reply
	case <-c.loopDone:
		return fmt.Errorf("coordinator is not running")
	}
}

// -----------------------------------------------------------------------------

// post marshals an async completion onto the loop
func (c *AlertCoordinator) post(fn func()) {
	select {
	case c.apply <- fn:
	case <-c.loopDone:
	}
}

// -----------------------------------------------------------------------------
// Everything below runs on the loop goroutine.
// -----------------------------------------------------------------------------

func (c *AlertCoordinator) handleCommand(action string) error {
	switch action {
	case cmdStart:
		return c.startMonitoring()
	case cmdStop:
		c.stopMonitoring()
		return nil
	case cmdToggle:
		if c.active {
			c.stopMonitoring()
			return nil
		}
		return c.startMonitoring()
	default:
		return fmt.Errorf("unknown command: %s", action)
	}
}

// -----------------------------------------------------------------------------

func (c *AlertCoordinator) startMonitoring() error {
	if c.active {
		return nil
	}

	if err := c.Gate.Arm(c.runCtx); err != nil {
		c.Logger.Error("Failed to arm shake gate: %v", err)
		return fmt.Errorf("failed to arm shake gate: %w", err)
	}
	c.Transport.Connect()

	c.active = true
	c.clearHold()
	c.setStatus(models.PhaseMonitoring, "")
	c.Logger.Info("Monitoring started")
	return nil
}

// -----------------------------------------------------------------------------

func (c *AlertCoordinator) stopMonitoring() {
	if !c.active {
		return
	}

	c.active = false

	// Abandon a pending location request; its completion will arrive with a
	// stale sequence and be discarded
	if c.locCancel != nil {
		c.locCancel()
		c.locCancel = nil
	}

	if err := c.Gate.Disarm(); err != nil {
		c.Logger.Warning("Gate disarm: %v", err)
	}
	c.Transport.Disconnect()

	c.clearHold()
	c.setStatus(models.PhaseIdle, "")
	c.Logger.Info("Monitoring stopped")
}

// -----------------------------------------------------------------------------

// handleShake runs the pipeline for one accepted gesture. Anything arriving
// while an alert is already in flight, or while a hold is displayed, is
// dropped.
func (c *AlertCoordinator) handleShake(ev models.MShakeEvent) {
	if !c.active || c.status.Phase != models.PhaseMonitoring {
		c.Logger.Debug("Shake ignored in phase %s", c.status.Phase)
		return
	}

	c.Logger.Info("Shake accepted (%.2fg), acquiring location", ev.Magnitude)
	c.setStatus(models.PhaseProcessingAlert, "")

	seq := c.seq
	ctx, cancel := context.WithCancel(c.runCtx)
	c.locCancel = cancel

	go func() {
		defer cancel()
		loc, err := c.Fetcher.RequestOnce(ctx)
		c.post(func() { c.completeLocation(seq, loc, err) })
	}()
}

// -----------------------------------------------------------------------------

func (c *AlertCoordinator) completeLocation(seq uint64, loc models.MLocation, err error) {
	if seq != c.seq || !c.active {
		c.Logger.Debug("Stale location completion discarded")
		return
	}
	c.locCancel = nil

	if err != nil {
		c.failPipeline(err)
		return
	}

	c.setStatus(models.PhaseSendingAlert, "")
	sendSeq := c.seq

	msg := models.NewMAlertMessage(uuid.NewString(), loc)
	go func() {
		sendErr := c.Transport.Send(msg)
		c.post(func() { c.completeSend(sendSeq, sendErr) })
	}()
}

// -----------------------------------------------------------------------------

func (c *AlertCoordinator) completeSend(seq uint64, err error) {
	if seq != c.seq || !c.active {
		c.Logger.Debug("Stale send completion discarded")
		return
	}

	if err != nil {
		c.failPipeline(err)
		return
	}

	now := time.Now()
	c.stats.AlertCount++
	c.stats.LastAlertAt = &now

	c.setStatus(models.PhaseAlertSent, "")
	c.armHold(c.successHold)
	c.Logger.Info("Alert delivered (#%d)", c.stats.AlertCount)
}

// -----------------------------------------------------------------------------

// failPipeline surfaces a classified error as a transient display state.
// Monitoring keeps running underneath.
func (c *AlertCoordinator) failPipeline(err error) {
	text := helpers.DisplayText(err)
	c.lastError = text
	c.Logger.Error("Alert pipeline failed: %v", err)

	c.setStatus(models.PhaseError, text)
	c.armHold(c.errorHold)
}

// -----------------------------------------------------------------------------

// armHold schedules the fall back to Monitoring after a display hold. The
// captured sequence makes the expiration a no-op if anything else changed
// the status in the meantime.
func (c *AlertCoordinator) armHold(d time.Duration) {
	c.clearHold()
	seq := c.seq
	c.holdTimer = time.AfterFunc(d, func() {
		c.post(func() { c.completeHold(seq) })
	})
}

// -----------------------------------------------------------------------------

func (c *AlertCoordinator) completeHold(seq uint64) {
	if seq != c.seq || !c.active {
		return
	}
	c.holdTimer = nil
	c.setStatus(models.PhaseMonitoring, "")
}

// -----------------------------------------------------------------------------

func (c *AlertCoordinator) clearHold() {
	if c.holdTimer != nil {
		c.holdTimer.Stop()
		c.holdTimer = nil
	}
}

// -----------------------------------------------------------------------------

func (c *AlertCoordinator) handleAuthChange(a models.MAuthStatus) {
	c.auth = a
	c.Logger.Warning("Location authorization changed to %s", a)
	// Snapshot refresh only; holds and in-flight work are untouched
	c.publish()
}

// -----------------------------------------------------------------------------

// setStatus replaces the display state, advances the sequence and publishes
func (c *AlertCoordinator) setStatus(phase models.MServicePhase, message string) {
	c.seq++
	c.status = models.MServiceStatus{Phase: phase, Message: message}
	c.publish()
}

// -----------------------------------------------------------------------------

// publish copies the loop state into the shared snapshot and fans it out
func (c *AlertCoordinator) publish() {
	snap := models.MStatusSnapshot{
		Active:        c.active,
		Status:        c.status,
		Stats:         models.MStats{AlertCount: c.stats.AlertCount},
		LastError:     c.lastError,
		Authorization: c.auth,
		UpdatedAt:     time.Now(),
	}
	if c.stats.LastAlertAt != nil {
		at := *c.stats.LastAlertAt
		snap.Stats.LastAlertAt = &at
	}

	c.snapMu.Lock()
	c.snapshot = snap
	c.snapMu.Unlock()

	select {
	case c.changes <- snap:
	default:
		// Lagging consumer: shed the oldest snapshot, keep the newest
		select {
		case <-c.changes:
		default:
		}
		select {
		case c.changes <- snap:
		default:
		}
	}
}
