package server

import (
	"fmt"
	"strconv"
	"strings"

	"vai-alert/src/interfaces"
	"vai-alert/src/logger"
	"vai-alert/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// StatusAPIServer
// -----------------------------------------------------------------------------

type StatusAPIServer struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	Service    interfaces.IAlertService
	Magnitudes interfaces.IMagnitudeSource
	Transport  interfaces.IAlertTransport
	Injector   interfaces.IShakeInjector
	engine     *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MStatusSnapshot // Strongly typed and buffered queue
	register   chan *Client
	unregister chan *Client
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewStatusAPIServer(
	cfg *models.MConfig,
	log *logger.Logger,
	service interfaces.IAlertService,
	magnitudes interfaces.IMagnitudeSource,
	transport interfaces.IAlertTransport,
	injector interfaces.IShakeInjector,
) *StatusAPIServer {
	// Set Gin mode
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &StatusAPIServer{
		Config:     cfg,
		Logger:     log,
		Service:    service,
		Magnitudes: magnitudes,
		Transport:  transport,
		Injector:   injector,
		engine:     gin.Default(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan models.MStatusSnapshot, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *StatusAPIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/status", s.getStatus)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/magnitude", s.getMagnitude)

	// Control endpoints
	s.engine.POST("/api/control/start", s.postStart)
	s.engine.POST("/api/control/stop", s.postStop)
	s.engine.POST("/api/control/toggle", s.postToggle)

	// Debug trigger (simulated feed only)
	s.engine.POST("/api/debug/shake", s.postDebugShake)

	// WebSocket status stream
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *StatusAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting status server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Handler exposes the router for in-process serving
func (s *StatusAPIServer) Handler() *gin.Engine {
	return s.engine
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *StatusAPIServer) getStatus(c *gin.Context) {
	c.JSON(200, s.Service.Snapshot())
}

// -----------------------------------------------------------------------------

func (s *StatusAPIServer) getHealth(c *gin.Context) {
	snap := s.Service.Snapshot()

	c.JSON(200, gin.H{
		"status":        "ok",
		"active":        snap.Active,
		"phase":         snap.Status.Phase,
		"connection":    s.Transport.State(),
		"authorization": snap.Authorization,
	})
}

// -----------------------------------------------------------------------------

func (s *StatusAPIServer) getConfig(c *gin.Context) {
	// Sanitized view: tunables only, no host/port internals
	c.JSON(200, gin.H{
		"name": s.Config.Name,
		"detector": gin.H{
			"threshold_g":      s.Config.Detector.ThresholdG,
			"cooldown_seconds": s.Config.Detector.CooldownSeconds,
			"history_size":     s.Config.Detector.HistorySize,
		},
		"location": gin.H{
			"timeout_seconds": s.Config.Location.TimeoutSeconds,
		},
		"transport": gin.H{
			"url":               s.Config.Transport.URL,
			"max_attempts":      s.Config.Transport.MaxAttempts,
			"backoff_policy":    s.Config.Transport.BackoffPolicy,
			"backoff_seconds":   s.Config.Transport.BackoffSeconds,
			"keepalive_seconds": s.Config.Transport.KeepaliveSeconds,
		},
		"coordinator": gin.H{
			"success_hold_seconds": s.Config.Coordinator.SuccessHoldSeconds,
			"error_hold_seconds":   s.Config.Coordinator.ErrorHoldSeconds,
			"auto_start":           s.Config.Coordinator.AutoStart,
		},
	})
}

// -----------------------------------------------------------------------------

func (s *StatusAPIServer) getMagnitude(c *gin.Context) {
	n := 100
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(400, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	c.JSON(200, gin.H{
		"points": s.Magnitudes.RecentMagnitudes(n),
		"peak":   s.Magnitudes.PeakMagnitude(),
	})
}

// -----------------------------------------------------------------------------

func (s *StatusAPIServer) postStart(c *gin.Context) {
	if err := s.Service.Start(); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"active": s.Service.IsActive()})
}

// -----------------------------------------------------------------------------

func (s *StatusAPIServer) postStop(c *gin.Context) {
	s.Service.Stop()
	c.JSON(200, gin.H{"active": s.Service.IsActive()})
}

// -----------------------------------------------------------------------------

func (s *StatusAPIServer) postToggle(c *gin.Context) {
	if err := s.Service.Toggle(); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"active": s.Service.IsActive()})
}

// -----------------------------------------------------------------------------

func (s *StatusAPIServer) postDebugShake(c *gin.Context) {
	if s.Injector == nil {
		c.JSON(503, gin.H{"error": "no simulated feed wired"})
		return
	}
	s.Injector.InjectShake()
	c.JSON(202, gin.H{"queued": true})
}
