package transport

import (
	"encoding/json"
	"sync"
	"time"

	"vai-alert/src/helpers"
	"vai-alert/src/logger"
	"vai-alert/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// AlertTransport keeps one websocket to the alert endpoint. It reconnects on
// its own after unexpected drops, up to the attempt cap, and goes quiet after
// an intentional Disconnect until the next explicit Connect. The keepalive
// ping runs only while a connection is established.
// -----------------------------------------------------------------------------

type AlertTransport struct {
	Config *models.MConfig
	Logger *logger.Logger
	dialer *websocket.Dialer

	maxAttempts   int
	backoffPolicy string
	backoffBase   time.Duration
	keepalive     time.Duration
	writeTimeout  time.Duration
	pongTimeout   time.Duration

	// Connection state. generation invalidates dials from a previous
	// connect/disconnect cycle.
	mu             sync.Mutex
	conn           *websocket.Conn
	phase          models.MConnectionPhase
	attempt        int
	suppressed     bool
	generation     int
	reconnectTimer *time.Timer

	// gorilla allows one concurrent writer per connection
	writeMu sync.Mutex
}

// -----------------------------------------------------------------------------

func NewAlertTransport(cfg *models.MConfig) *AlertTransport {
	return &AlertTransport{
		Config: cfg,
		Logger: logger.NewLogger(cfg.LogLevel, "AlertTransport"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: time.Duration(cfg.Transport.HandshakeTimeoutSeconds) * time.Second,
		},
		maxAttempts:   cfg.Transport.MaxAttempts,
		backoffPolicy: cfg.Transport.BackoffPolicy,
		backoffBase:   time.Duration(cfg.Transport.BackoffSeconds * float64(time.Second)),
		keepalive:     time.Duration(cfg.Transport.KeepaliveSeconds) * time.Second,
		writeTimeout:  time.Duration(cfg.Transport.WriteTimeoutSeconds) * time.Second,
		pongTimeout:   time.Duration(cfg.Transport.PongTimeoutSeconds) * time.Second,
		phase:         models.ConnDisconnected,
	}
}

// -----------------------------------------------------------------------------

// State returns the current connection state
func (t *AlertTransport) State() models.MConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.MConnectionState{Phase: t.phase, Attempt: t.attempt}
}

// -----------------------------------------------------------------------------

// Connect opens the socket. Re-enables automatic reconnection and resets the
// attempt counter; a no-op while already connected or connecting.
func (t *AlertTransport) Connect() {
	t.mu.Lock()

	t.suppressed = false
	t.attempt = 0

	if t.phase == models.ConnConnecting || t.phase == models.ConnConnected {
		t.mu.Unlock()
		return
	}

	// A pending retry timer belongs to the old cycle
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
	t.mu.Unlock()

	go t.dial()
}

// -----------------------------------------------------------------------------

// Disconnect closes the socket and suppresses reconnection until the next
// explicit Connect
func (t *AlertTransport) Disconnect() {
	t.mu.Lock()
	t.suppressed = true
	t.generation++
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
	conn := t.conn
	t.conn = nil
	t.phase = models.ConnDisconnected
	t.attempt = 0
	t.mu.Unlock()

	if conn == nil {
		return
	}

	// Polite close frame, then tear the socket down
	t.writeMu.Lock()
	deadline := time.Now().Add(t.writeTimeout)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	t.writeMu.Unlock()
	conn.Close()

	t.Logger.Info("Disconnected")
}

// -----------------------------------------------------------------------------

// Send serializes one alert frame onto the socket. Fails unless the state is
// exactly Connected. Success means handed to the socket, not delivered.
func (t *AlertTransport) Send(msg models.MAlertMessage) error {
	t.mu.Lock()
	if t.phase != models.ConnConnected || t.conn == nil {
		t.mu.Unlock()
		return helpers.NewAlertError(helpers.KindTransportNotConnected, "alert socket is not connected", nil)
	}
	conn := t.conn
	t.mu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		return helpers.NewAlertError(helpers.KindTransportSerialization, "failed to encode alert", err)
	}

	t.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	err = conn.WriteMessage(websocket.TextMessage, payload)
	t.writeMu.Unlock()

	if err != nil {
		// The read loop notices the broken socket and runs the drop path
		return helpers.NewAlertError(helpers.KindTransportConnection, "alert write failed", err)
	}

	t.Logger.Info("Alert frame sent (%d bytes)", len(payload))
	return nil
}

// -----------------------------------------------------------------------------

// dial performs one connection attempt
func (t *AlertTransport) dial() {
	t.mu.Lock()
	if t.suppressed || t.phase == models.ConnConnecting || t.phase == models.ConnConnected {
		// Another dial already owns this cycle
		t.mu.Unlock()
		return
	}
	t.phase = models.ConnConnecting
	t.reconnectTimer = nil
	gen := t.generation
	url := t.Config.Transport.URL
	t.mu.Unlock()

	t.Logger.Info("Dialing %s", url)

	conn, _, err := t.dialer.Dial(url, nil)
	if err != nil {
		t.handleDialFailure(gen, err)
		return
	}

	t.mu.Lock()
	if t.suppressed || t.generation != gen {
		// Disconnected while the handshake was in flight
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.conn = conn
	t.phase = models.ConnConnected
	t.attempt = 0
	t.mu.Unlock()

	t.Logger.Info("Connected")

	done := make(chan struct{})

	// The pong deadline only makes sense while pings are flowing
	if t.keepalive > 0 {
		conn.SetReadDeadline(time.Now().Add(t.pongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(t.pongTimeout))
		})
		go t.keepaliveLoop(conn, done)
	}

	go t.readLoop(conn, done)
}

// -----------------------------------------------------------------------------

// handleDialFailure schedules the next attempt or gives up at the cap
func (t *AlertTransport) handleDialFailure(gen int, err error) {
	t.mu.Lock()
	if t.suppressed || t.generation != gen {
		t.mu.Unlock()
		return
	}

	t.attempt++
	if t.attempt >= t.maxAttempts {
		t.phase = models.ConnFailed
		attempts := t.attempt
		t.mu.Unlock()
		t.Logger.Error("Giving up after %d attempts: %v", attempts, err)
		return
	}

	attempt := t.attempt
	delay := helpers.BackoffDelay(t.backoffPolicy, t.backoffBase, attempt)
	t.phase = models.ConnReconnecting
	t.reconnectTimer = time.AfterFunc(delay, t.dial)
	t.mu.Unlock()

	t.Logger.Warning("Dial failed (attempt %d/%d), retrying in %v: %v", attempt, t.maxAttempts, delay, err)
}

// -----------------------------------------------------------------------------

// readLoop drains inbound frames until the connection dies. The endpoint is
// write-mostly; anything it sends back is logged and discarded.
func (t *AlertTransport) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.Logger.Warning("Socket closed: %v", err)
			}
			t.handleDrop(conn)
			return
		}
		t.Logger.Debug("Inbound frame discarded (%d bytes)", len(data))
	}
}

// -----------------------------------------------------------------------------

// handleDrop restarts the connect cycle after an unexpected drop
func (t *AlertTransport) handleDrop(conn *websocket.Conn) {
	t.mu.Lock()
	if t.conn != conn {
		// Already torn down by Disconnect, or replaced
		t.mu.Unlock()
		return
	}
	t.conn = nil
	t.phase = models.ConnDisconnected
	t.attempt = 0
	suppressed := t.suppressed
	t.mu.Unlock()

	conn.Close()

	if suppressed {
		return
	}

	t.Logger.Warning("Connection dropped, reconnecting")
	go t.dial()
}

// -----------------------------------------------------------------------------

// keepaliveLoop pings the endpoint while the connection is established
func (t *AlertTransport) keepaliveLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(t.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(t.writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
				t.Logger.Warning("Keepalive ping failed: %v", err)
				conn.Close()
				return
			}
			t.Logger.Debug("Keepalive ping sent")
		}
	}
}
