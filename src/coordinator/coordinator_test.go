package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"vai-alert/src/helpers"
	"vai-alert/src/models"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Stub collaborators
// -----------------------------------------------------------------------------

type stubGate struct {
	events chan models.MShakeEvent

	mu      sync.Mutex
	armed   bool
	arms    int
	disarms int
	armErr  error
}

func (g *stubGate) Arm(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.armErr != nil {
		return g.armErr
	}
	g.armed = true
	g.arms++
	return nil
}

func (g *stubGate) Disarm() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = false
	g.disarms++
	return nil
}

func (g *stubGate) Events() <-chan models.MShakeEvent { return g.events }

func (g *stubGate) fire() {
	g.events <- models.MShakeEvent{Timestamp: time.Now(), Magnitude: 3.0}
}

func (g *stubGate) counters() (arms, disarms int, armed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.arms, g.disarms, g.armed
}

type stubFetcher struct {
	mu    sync.Mutex
	loc   models.MLocation
	err   error
	block chan struct{}
	calls int
}

func (f *stubFetcher) RequestOnce(ctx context.Context) (models.MLocation, error) {
	f.mu.Lock()
	f.calls++
	loc, err, block := f.loc, f.err, f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return models.MLocation{}, ctx.Err()
		}
	}
	return loc, err
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type stubTransport struct {
	mu          sync.Mutex
	state       models.MConnectionState
	sendErr     error
	sent        []models.MAlertMessage
	connects    int
	disconnects int
}

func (t *stubTransport) Connect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++
	t.state = models.MConnectionState{Phase: models.ConnConnected}
}

func (t *stubTransport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnects++
	t.state = models.MConnectionState{Phase: models.ConnDisconnected}
}

func (t *stubTransport) Send(msg models.MAlertMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *stubTransport) State() models.MConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *stubTransport) sentMessages() []models.MAlertMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.MAlertMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *stubTransport) counters() (connects, disconnects int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects, t.disconnects
}

type stubAuthProvider struct {
	auth models.MAuthStatus
	ch   chan models.MAuthStatus
}

func (p *stubAuthProvider) Authorization() models.MAuthStatus { return p.auth }

func (p *stubAuthProvider) AuthorizationChanges() <-chan models.MAuthStatus { return p.ch }
func (p *stubAuthProvider) Start() (<-chan models.MLocation, error) {
	return nil, errors.New("not used by the coordinator")
}
func (p *stubAuthProvider) Stop() {}

// -----------------------------------------------------------------------------
// Harness
// -----------------------------------------------------------------------------

type harness struct {
	coord     *AlertCoordinator
	gate      *stubGate
	fetcher   *stubFetcher
	transport *stubTransport
	provider  *stubAuthProvider
	cancel    context.CancelFunc
}

func coordConfig() *models.MConfig {
	return &models.MConfig{
		LogLevel: "error",
		Coordinator: models.MCoordinatorConfig{
			SuccessHoldSeconds: 0.1,
			ErrorHoldSeconds:   0.15,
		},
	}
}

func newHarness(t *testing.T, cfg *models.MConfig) *harness {
	t.Helper()

	h := &harness{
		gate:      &stubGate{events: make(chan models.MShakeEvent, 8)},
		fetcher:   &stubFetcher{loc: models.MLocation{Latitude: 45.4642, Longitude: 9.19, Accuracy: 10, Timestamp: time.Now()}},
		transport: &stubTransport{},
		provider:  &stubAuthProvider{auth: models.AuthGrantedForeground, ch: make(chan models.MAuthStatus, 4)},
	}
	h.coord = NewAlertCoordinator(cfg, h.gate, h.fetcher, h.transport, h.provider)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.coord.Run(ctx)
	t.Cleanup(cancel)

	return h
}

func waitForPhase(t *testing.T, c *AlertCoordinator, phase models.MServicePhase) models.MStatusSnapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap := c.Snapshot()
		if snap.Status.Phase == phase {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %s, stuck at %s", phase, c.Snapshot().Status.Phase)
	return models.MStatusSnapshot{}
}

// assertPhaseOrder drains the change stream looking for the given phases as
// an ordered subsequence.
func assertPhaseOrder(t *testing.T, c *AlertCoordinator, want []models.MServicePhase) {
	t.Helper()
	idx := 0
	deadline := time.After(3 * time.Second)
	for idx < len(want) {
		select {
		case snap := <-c.StatusChanges():
			if snap.Status.Phase == want[idx] {
				idx++
			}
		case <-deadline:
			t.Fatalf("change stream never reached %s (matched %d of %d)", want[idx], idx, len(want))
		}
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func TestStartStopToggle(t *testing.T) {
	h := newHarness(t, coordConfig())

	if h.coord.IsActive() {
		t.Fatal("fresh coordinator should be idle")
	}

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	snap := waitForPhase(t, h.coord, models.PhaseMonitoring)
	if !snap.Active {
		t.Fatal("expected active after start")
	}

	// Idempotent start
	if err := h.coord.Start(); err != nil {
		t.Fatalf("second start should be a no-op: %v", err)
	}
	arms, _, _ := h.gate.counters()
	connects, _ := h.transport.counters()
	if arms != 1 || connects != 1 {
		t.Fatalf("second start must not re-arm or re-connect: arms=%d connects=%d", arms, connects)
	}

	h.coord.Stop()
	waitForPhase(t, h.coord, models.PhaseIdle)

	// Idempotent stop
	h.coord.Stop()
	_, disarms, _ := h.gate.counters()
	_, disconnects := h.transport.counters()
	if disarms != 1 || disconnects != 1 {
		t.Fatalf("second stop must be a no-op: disarms=%d disconnects=%d", disarms, disconnects)
	}

	// Toggle both ways
	if err := h.coord.Toggle(); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	if err := h.coord.Toggle(); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseIdle)
}

func TestStartFailsWhenGateCannotArm(t *testing.T) {
	h := newHarness(t, coordConfig())
	h.gate.mu.Lock()
	h.gate.armErr = errors.New("no sensor")
	h.gate.mu.Unlock()

	if err := h.coord.Start(); err == nil {
		t.Fatal("expected start to fail")
	}
	if h.coord.IsActive() {
		t.Fatal("coordinator must stay idle when arming fails")
	}

	// The transport is only touched after the gate armed
	connects, _ := h.transport.counters()
	if connects != 0 {
		t.Fatalf("transport should not connect, got %d connects", connects)
	}
}

func TestCommandsAfterShutdown(t *testing.T) {
	h := newHarness(t, coordConfig())

	h.cancel()
	<-h.coord.loopDone

	if err := h.coord.Start(); err == nil {
		t.Fatal("expected an error once the loop has stopped")
	}
}

// -----------------------------------------------------------------------------
// Happy path
// -----------------------------------------------------------------------------

func TestShakeToAlertSequence(t *testing.T) {
	h := newHarness(t, coordConfig())

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()

	assertPhaseOrder(t, h.coord, []models.MServicePhase{
		models.PhaseProcessingAlert,
		models.PhaseSendingAlert,
		models.PhaseAlertSent,
		models.PhaseMonitoring, // Display hold expired
	})

	snap := h.coord.Snapshot()
	if snap.Stats.AlertCount != 1 {
		t.Fatalf("expected alert count 1, got %d", snap.Stats.AlertCount)
	}
	if snap.Stats.LastAlertAt == nil {
		t.Fatal("expected last alert time to be set")
	}

	sent := h.transport.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one frame, got %d", len(sent))
	}
	msg := sent[0]
	if msg.Event != "alert" {
		t.Fatalf("expected event 'alert', got '%s'", msg.Event)
	}
	if _, err := uuid.Parse(msg.Data.UserID); err != nil {
		t.Fatalf("user_id is not a valid uuid: %s", msg.Data.UserID)
	}
	if msg.Data.Coords.Latitude != "45.4642" || msg.Data.Coords.Longitude != "9.19" {
		t.Fatalf("unexpected coords: %+v", msg.Data.Coords)
	}
}

func TestEachAlertGetsFreshUserID(t *testing.T) {
	h := newHarness(t, coordConfig())

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()
	waitForPhase(t, h.coord, models.PhaseAlertSent)
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()
	waitForPhase(t, h.coord, models.PhaseAlertSent)

	sent := h.transport.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("expected two frames, got %d", len(sent))
	}
	if sent[0].Data.UserID == sent[1].Data.UserID {
		t.Fatalf("user_id must be fresh per alert, got %s twice", sent[0].Data.UserID)
	}
}

// -----------------------------------------------------------------------------
// Failure paths
// -----------------------------------------------------------------------------

func TestLocationFailureIsTransient(t *testing.T) {
	h := newHarness(t, coordConfig())
	h.fetcher.mu.Lock()
	h.fetcher.err = helpers.NewAlertError(helpers.KindLocationTimeout, "no position fix within the deadline", nil)
	h.fetcher.mu.Unlock()

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()

	snap := waitForPhase(t, h.coord, models.PhaseError)
	if snap.Status.Message != "Location: request timed out" {
		t.Fatalf("unexpected error text: %q", snap.Status.Message)
	}
	if !snap.Active {
		t.Fatal("errors must not stop monitoring")
	}

	// The hold expires back to Monitoring
	snap = waitForPhase(t, h.coord, models.PhaseMonitoring)
	if snap.Stats.AlertCount != 0 {
		t.Fatalf("failed pipeline must not count an alert, got %d", snap.Stats.AlertCount)
	}
	if snap.LastError != "Location: request timed out" {
		t.Fatalf("last error should persist, got %q", snap.LastError)
	}

	_, _, armed := h.gate.counters()
	if !armed {
		t.Fatal("gate must stay armed through an error")
	}
	_, disconnects := h.transport.counters()
	if disconnects != 0 {
		t.Fatal("transport must stay connected through an error")
	}
}

func TestSendFailureIsTransient(t *testing.T) {
	h := newHarness(t, coordConfig())
	h.transport.mu.Lock()
	h.transport.sendErr = helpers.NewAlertError(helpers.KindTransportNotConnected, "alert socket is not connected", nil)
	h.transport.mu.Unlock()

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()

	snap := waitForPhase(t, h.coord, models.PhaseError)
	if snap.Status.Message != "Network: not connected" {
		t.Fatalf("unexpected error text: %q", snap.Status.Message)
	}

	waitForPhase(t, h.coord, models.PhaseMonitoring)
	if h.coord.Snapshot().Stats.AlertCount != 0 {
		t.Fatal("failed send must not count an alert")
	}
}

// -----------------------------------------------------------------------------
// Overlap and staleness
// -----------------------------------------------------------------------------

func TestShakeDuringPipelineIsDropped(t *testing.T) {
	h := newHarness(t, coordConfig())
	block := make(chan struct{})
	h.fetcher.mu.Lock()
	h.fetcher.block = block
	h.fetcher.mu.Unlock()

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()
	waitForPhase(t, h.coord, models.PhaseProcessingAlert)

	// A second gesture while the first is still in flight
	h.gate.fire()
	time.Sleep(50 * time.Millisecond)

	close(block)
	waitForPhase(t, h.coord, models.PhaseAlertSent)

	if calls := h.fetcher.callCount(); calls != 1 {
		t.Fatalf("overlapping shake must be dropped, fetcher called %d times", calls)
	}
	if sent := h.transport.sentMessages(); len(sent) != 1 {
		t.Fatalf("expected one frame, got %d", len(sent))
	}
}

func TestStopCancelsPendingLocation(t *testing.T) {
	h := newHarness(t, coordConfig())
	block := make(chan struct{})
	defer close(block)
	h.fetcher.mu.Lock()
	h.fetcher.block = block
	h.fetcher.mu.Unlock()

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()
	waitForPhase(t, h.coord, models.PhaseProcessingAlert)

	h.coord.Stop()
	waitForPhase(t, h.coord, models.PhaseIdle)

	// The cancelled request resolves with a stale sequence; nothing may move
	time.Sleep(100 * time.Millisecond)
	snap := h.coord.Snapshot()
	if snap.Status.Phase != models.PhaseIdle {
		t.Fatalf("stale completion mutated state: %s", snap.Status.Phase)
	}
	if snap.Stats.AlertCount != 0 {
		t.Fatal("no alert may be counted after stop")
	}
}

func TestStopDuringHoldSuppressesRevert(t *testing.T) {
	cfg := coordConfig()
	cfg.Coordinator.SuccessHoldSeconds = 0.3
	h := newHarness(t, cfg)

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()
	waitForPhase(t, h.coord, models.PhaseAlertSent)

	h.coord.Stop()
	waitForPhase(t, h.coord, models.PhaseIdle)

	// Outlive the original hold; the expiration must not resurrect Monitoring
	time.Sleep(400 * time.Millisecond)
	if phase := h.coord.Snapshot().Status.Phase; phase != models.PhaseIdle {
		t.Fatalf("hold expiration mutated state after stop: %s", phase)
	}
}

func TestShakeDuringErrorHoldIsDropped(t *testing.T) {
	cfg := coordConfig()
	cfg.Coordinator.ErrorHoldSeconds = 0.3
	h := newHarness(t, cfg)
	h.fetcher.mu.Lock()
	h.fetcher.err = helpers.NewAlertError(helpers.KindLocationUnavailable, "position stream could not start", nil)
	h.fetcher.mu.Unlock()

	if err := h.coord.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForPhase(t, h.coord, models.PhaseMonitoring)

	h.gate.fire()
	waitForPhase(t, h.coord, models.PhaseError)

	h.gate.fire()
	time.Sleep(50 * time.Millisecond)

	if calls := h.fetcher.callCount(); calls != 1 {
		t.Fatalf("shake during error hold must be dropped, fetcher called %d times", calls)
	}

	waitForPhase(t, h.coord, models.PhaseMonitoring)
}

// -----------------------------------------------------------------------------
// Authorization observation
// -----------------------------------------------------------------------------

func TestAuthorizationChangeReflectedInSnapshot(t *testing.T) {
	h := newHarness(t, coordConfig())

	if got := h.coord.Snapshot().Authorization; got != models.AuthGrantedForeground {
		t.Fatalf("expected initial tier granted_foreground, got %s", got)
	}

	h.provider.ch <- models.AuthDenied

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.coord.Snapshot().Authorization == models.AuthDenied {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("authorization change never reached the snapshot")
}

func TestCommandsReportLoopErrors(t *testing.T) {
	h := newHarness(t, coordConfig())

	if err := h.coord.command("bogus"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}
