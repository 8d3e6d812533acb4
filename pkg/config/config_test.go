package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := validConfig()
	cfg.MQTT.Password = "secret"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat saved config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected config file mode 0600, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Serial.Device != cfg.Serial.Device {
		t.Errorf("serial device mismatch: got %q want %q", loaded.Serial.Device, cfg.Serial.Device)
	}
	if loaded.Panel.ID != cfg.Panel.ID {
		t.Errorf("panel id mismatch: got %q want %q", loaded.Panel.ID, cfg.Panel.ID)
	}
	if loaded.MQTT.Password != "secret" {
		t.Errorf("expected mqtt password to round-trip, got %q", loaded.MQTT.Password)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", dir)
	defer os.Unsetenv("XDG_CONFIG_HOME")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default log level, got %q", cfg.Logging.Level)
	}
}

func TestMustLoadMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.yaml")

	if _, err := MustLoad(path); err == nil {
		t.Fatal("expected MustLoad to fail for a nonexistent explicit path")
	}
}

func TestGetDefaultConfigPathUsesXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", dir)
	defer os.Unsetenv("XDG_CONFIG_HOME")

	want := filepath.Join(dir, "nx584bridge", "config.yaml")
	if got := GetDefaultConfigPath(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
