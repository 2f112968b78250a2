package config

import (
	"fmt"
	"os"
	"strings"

	"vai-alert/src/helpers"
	"vai-alert/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Sensor configuration
	if c.Sensor.IntervalMs <= 0 {
		return fmt.Errorf("sensor interval must be greater than 0")
	}
	if c.Sensor.ShakePeakG <= 0 {
		return fmt.Errorf("sensor shake peak must be greater than 0")
	}
	if c.Sensor.ShakeSamples <= 0 {
		return fmt.Errorf("sensor shake samples must be greater than 0")
	}

	// Validate Detector configuration
	if c.Detector.ThresholdG <= 0 {
		return fmt.Errorf("detector threshold must be greater than 0")
	}
	if c.Detector.CooldownSeconds < 0 {
		return fmt.Errorf("detector cooldown cannot be negative")
	}
	if c.Detector.HistorySize <= 0 {
		return fmt.Errorf("detector history size must be greater than 0")
	}

	// Validate Location configuration
	if c.Location.TimeoutSeconds <= 0 {
		return fmt.Errorf("location timeout must be greater than 0")
	}
	if c.Location.Provider.Latitude < -90 || c.Location.Provider.Latitude > 90 {
		return fmt.Errorf("invalid provider latitude: %f", c.Location.Provider.Latitude)
	}
	if c.Location.Provider.Longitude < -180 || c.Location.Provider.Longitude > 180 {
		return fmt.Errorf("invalid provider longitude: %f", c.Location.Provider.Longitude)
	}

	// Validate Transport configuration
	if c.Transport.URL == "" {
		return fmt.Errorf("transport url cannot be empty")
	}
	if !strings.HasPrefix(c.Transport.URL, "ws://") && !strings.HasPrefix(c.Transport.URL, "wss://") {
		return fmt.Errorf("transport url must use the ws or wss scheme: '%s'", c.Transport.URL)
	}
	if c.Transport.MaxAttempts <= 0 {
		return fmt.Errorf("transport max attempts must be greater than 0")
	}
	if c.Transport.BackoffPolicy != helpers.BackoffFixed && c.Transport.BackoffPolicy != helpers.BackoffExponential {
		return fmt.Errorf("unknown transport backoff policy: '%s'", c.Transport.BackoffPolicy)
	}
	if c.Transport.BackoffSeconds <= 0 {
		return fmt.Errorf("transport backoff must be greater than 0")
	}
	if c.Transport.KeepaliveSeconds < 0 {
		return fmt.Errorf("transport keepalive cannot be negative")
	}
	if c.Transport.WriteTimeoutSeconds <= 0 {
		return fmt.Errorf("transport write timeout must be greater than 0")
	}
	if c.Transport.HandshakeTimeoutSeconds <= 0 {
		return fmt.Errorf("transport handshake timeout must be greater than 0")
	}
	if c.Transport.PongTimeoutSeconds <= 0 {
		return fmt.Errorf("transport pong timeout must be greater than 0")
	}

	// Validate Coordinator configuration
	if c.Coordinator.SuccessHoldSeconds <= 0 {
		return fmt.Errorf("coordinator success hold must be greater than 0")
	}
	if c.Coordinator.ErrorHoldSeconds <= 0 {
		return fmt.Errorf("coordinator error hold must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
