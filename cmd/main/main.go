package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"vai-alert/src/config"
	"vai-alert/src/coordinator"
	"vai-alert/src/detector"
	"vai-alert/src/interfaces"
	"vai-alert/src/location"
	"vai-alert/src/logger"
	"vai-alert/src/sensor"
	"vai-alert/src/server"
	"vai-alert/src/transport"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.LogLevel, config.Name)

	// 2. Setup Components
	feed := sensor.NewSimFeed(config.MConfig)
	gate := detector.NewShakeDetector(config.MConfig, feed)

	provider := location.NewSimProvider(config.MConfig)
	fetcher := location.NewLocationFetcher(config.MConfig, provider)

	var trans interfaces.IAlertTransport = transport.NewAlertTransport(config.MConfig)

	// 3. Coordinator owns the shake-to-alert pipeline
	coord := coordinator.NewAlertCoordinator(config.MConfig, gate, fetcher, trans, provider)

	// 4. Status Server (REST + WebSocket stream)
	srv := server.NewStatusAPIServer(config.MConfig, appLogger, coord, gate, trans, feed)

	// 5. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 6. Run Coordinator Loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wrapWg := &sync.WaitGroup{}
	wrapWg.Add(1)
	go func() {
		defer wrapWg.Done()
		if err := coord.Run(ctx); err != nil {
			appLogger.Error("Coordinator loop ended: %v", err)
		}
	}()

	// 7. Arm monitoring when configured to start hot
	if config.Coordinator.AutoStart {
		if err := coord.Start(); err != nil {
			appLogger.Warning("Auto start failed: %v", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	appLogger.Info("Alert pipeline ready on %s:%d", config.Host, config.Port)

	// 8. Main Loop (Push Model): forward status transitions to connected clients
	for {
		select {
		case snap, ok := <-coord.StatusChanges():
			if !ok {
				appLogger.Info("Status stream closed.")
				return
			}
			srv.Broadcast(snap)

		case <-quit:
			appLogger.Info("Shutting down...")
			cancel()      // Signal coordinator to stop
			wrapWg.Wait() // Wait for the loop to wind down
			return
		}
	}
}
