package config

import (
	"strings"
	"time"

	"github.com/cbarrick/nx584bridge/internal/serialport"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applySerialDefaults(&cfg.Serial)
	applyPanelDefaults(&cfg.Panel)
	applyMQTTDefaults(&cfg.MQTT)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

// applySerialDefaults sets serial link defaults.
func applySerialDefaults(cfg *SerialConfig) {
	if cfg.Baud == 0 {
		cfg.Baud = serialport.DefaultBaud
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = serialport.DefaultReadTimeout
	}
}

// applyPanelDefaults sets panel layout defaults.
func applyPanelDefaults(cfg *PanelConfig) {
	if cfg.RepublishInterval == 0 {
		cfg.RepublishInterval = 60 * time.Minute
	}
}

// applyMQTTDefaults sets MQTT broker defaults.
func applyMQTTDefaults(cfg *MQTTConfig) {
	if cfg.ClientID == "" {
		cfg.ClientID = "nx584bridge"
	}
	if cfg.TopicRoot == "" {
		cfg.TopicRoot = "homeassistant"
	}
	if cfg.QoS == 0 {
		cfg.QoS = 1
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 5 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in).

	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Insecure defaults to false (require TLS); local development setups
	// must opt in explicitly with insecure: true.

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in).

	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

// applyMetricsDefaults sets Prometheus metrics server defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a fully populated default configuration.
// Callers must still set Serial.Device, Panel.ID, Panel.ZoneCount, MQTT.Broker,
// and a credential (Panel.DefaultPIN or Panel.DefaultUserNumber) before use;
// Validate rejects the zero values for those fields.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Serial: SerialConfig{
			Baud:        serialport.DefaultBaud,
			ReadTimeout: serialport.DefaultReadTimeout,
		},
		Panel: PanelConfig{
			ZoneCount:         48,
			RepublishInterval: 60 * time.Minute,
		},
		MQTT: MQTTConfig{
			Broker:         "tcp://localhost:1883",
			ClientID:       "nx584bridge",
			TopicRoot:      "homeassistant",
			QoS:            1,
			ConnectTimeout: 30 * time.Second,
			CommandTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
		ShutdownTimeout: 10 * time.Second,
	}

	ApplyDefaults(cfg)
	return cfg
}
