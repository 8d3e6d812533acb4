package config

import (
	"testing"
	"time"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Serial.Baud != 38400 {
		t.Errorf("expected default baud 38400, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadTimeout != 2*time.Second {
		t.Errorf("expected default read timeout 2s, got %s", cfg.Serial.ReadTimeout)
	}
	if cfg.Panel.RepublishInterval != 60*time.Minute {
		t.Errorf("expected default republish interval 60m, got %s", cfg.Panel.RepublishInterval)
	}
	if cfg.MQTT.TopicRoot != "homeassistant" {
		t.Errorf("expected default topic root homeassistant, got %q", cfg.MQTT.TopicRoot)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("expected default QoS 1, got %d", cfg.MQTT.QoS)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default log level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format text, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout 10s, got %s", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Serial: SerialConfig{Baud: 9600},
		Logging: LoggingConfig{
			Level: "debug",
		},
	}
	ApplyDefaults(cfg)

	if cfg.Serial.Baud != 9600 {
		t.Errorf("expected explicit baud 9600 to survive, got %d", cfg.Serial.Baud)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected log level normalized to uppercase, got %q", cfg.Logging.Level)
	}
}

func TestGetDefaultConfigIsSelfConsistent(t *testing.T) {
	cfg := GetDefaultConfig()
	if cfg.Serial.Baud == 0 {
		t.Error("expected GetDefaultConfig to populate serial baud")
	}
	if cfg.MQTT.Broker == "" {
		t.Error("expected GetDefaultConfig to populate an MQTT broker")
	}
}
