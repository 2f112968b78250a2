package models

// MConfig Structure
type MConfig struct {
	Name        string             `yaml:"name"`
	Host        string             `yaml:"host"`
	Port        int                `yaml:"port"`
	LogLevel    string             `yaml:"log_level"`
	Sensor      MSensorConfig      `yaml:"sensor"`
	Detector    MDetectorConfig    `yaml:"detector"`
	Location    MLocationConfig    `yaml:"location"`
	Transport   MTransportConfig   `yaml:"transport"`
	Coordinator MCoordinatorConfig `yaml:"coordinator"`
}

type MSensorConfig struct {
	IntervalMs   int     `yaml:"interval_ms"`
	BaselineG    float64 `yaml:"baseline_g"`
	NoiseG       float64 `yaml:"noise_g"`
	ShakePeakG   float64 `yaml:"shake_peak_g"`
	ShakeSamples int     `yaml:"shake_samples"`
}

type MDetectorConfig struct {
	ThresholdG      float64 `yaml:"threshold_g"`
	CooldownSeconds float64 `yaml:"cooldown_seconds"`
	HistorySize     int     `yaml:"history_size"`
}

type MLocationConfig struct {
	TimeoutSeconds int                     `yaml:"timeout_seconds"`
	Provider       MLocationProviderConfig `yaml:"provider"`
}

// MLocationProviderConfig drives the simulated positioning driver.
type MLocationProviderConfig struct {
	Authorization    string  `yaml:"authorization"`
	Latitude         float64 `yaml:"latitude"`
	Longitude        float64 `yaml:"longitude"`
	AccuracyM        float64 `yaml:"accuracy_m"`
	FixDelayMs       int     `yaml:"fix_delay_ms"`
	UpdateIntervalMs int     `yaml:"update_interval_ms"`
}

type MTransportConfig struct {
	URL                     string  `yaml:"url"`
	MaxAttempts             int     `yaml:"max_attempts"`
	BackoffPolicy           string  `yaml:"backoff_policy"` // "fixed" or "exponential"
	BackoffSeconds          float64 `yaml:"backoff_seconds"`
	KeepaliveSeconds        int     `yaml:"keepalive_seconds"`
	WriteTimeoutSeconds     int     `yaml:"write_timeout_seconds"`
	HandshakeTimeoutSeconds int     `yaml:"handshake_timeout_seconds"`
	PongTimeoutSeconds      int     `yaml:"pong_timeout_seconds"`
}

type MCoordinatorConfig struct {
	SuccessHoldSeconds float64 `yaml:"success_hold_seconds"`
	ErrorHoldSeconds   float64 `yaml:"error_hold_seconds"`
	AutoStart          bool    `yaml:"auto_start"`
}
