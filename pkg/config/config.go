package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the nx584bridge configuration.
//
// This structure captures everything the bridge needs to run:
//   - The serial link to the NX-584 interface module
//   - The panel's static layout (zone count, ignored zones, credentials)
//   - The MQTT broker it publishes Home Assistant discovery/state to
//   - Ambient concerns: logging, telemetry, metrics
//
// Configuration sources (in order of precedence):
//  1. Environment variables (NX584BRIDGE_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// Serial configures the RS-232 link to the NX-584 interface module.
	Serial SerialConfig `mapstructure:"serial" yaml:"serial"`

	// Panel describes the panel's static layout and credentials.
	Panel PanelConfig `mapstructure:"panel" yaml:"panel"`

	// MQTT configures the Home Assistant MQTT Discovery bridge.
	MQTT MQTTConfig `mapstructure:"mqtt" yaml:"mqtt"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// SerialConfig describes how to open the link to the panel.
type SerialConfig struct {
	// Device is the path to the serial device, e.g. /dev/ttyUSB0.
	Device string `mapstructure:"device" validate:"required" yaml:"device"`

	// Baud is the link speed. Default: 38400 (the NX-584 factory default).
	Baud int `mapstructure:"baud" validate:"omitempty,gt=0" yaml:"baud"`

	// ReadTimeout bounds how long a single frame read blocks before the
	// command queue treats it as a timeout and retries.
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"omitempty,gt=0" yaml:"read_timeout"`
}

// PanelConfig describes the panel's static layout: which partitions and
// zones exist, and the credentials used to arm/disarm them.
type PanelConfig struct {
	// ID uniquely identifies this panel among any others sharing the same
	// MQTT broker. Used as the Home Assistant device identifier.
	ID string `mapstructure:"id" validate:"required" yaml:"id"`

	// ZoneCount is the highest zone number to sync and track.
	ZoneCount int `mapstructure:"zone_count" validate:"required,gt=0,lte=192" yaml:"zone_count"`

	// IgnoreZones lists zone numbers to skip during sync, for panel zones
	// that are wired but not actually in use.
	IgnoreZones []int `mapstructure:"ignore_zones" yaml:"ignore_zones,omitempty"`

	// DefaultPIN is the installer/master PIN used to arm and disarm when no
	// per-request PIN is supplied. Either this or DefaultUserNumber must be
	// set.
	DefaultPIN string `mapstructure:"default_pin" validate:"omitempty,numeric" yaml:"default_pin,omitempty"`

	// DefaultUserNumber selects the no-PIN keypad function path instead,
	// for panels configured to allow it. Either this or DefaultPIN must be
	// set.
	DefaultUserNumber int `mapstructure:"default_user_number" validate:"omitempty,gt=0" yaml:"default_user_number,omitempty"`

	// RepublishInterval controls how often zone and partition state is
	// republished to MQTT even without a panel-driven transition, so that a
	// restarted Home Assistant always picks up current state within one
	// interval.
	RepublishInterval time.Duration `mapstructure:"republish_interval" validate:"omitempty,gt=0" yaml:"republish_interval"`
}

// MQTTConfig configures the Home Assistant MQTT Discovery bridge.
type MQTTConfig struct {
	// Broker is the MQTT broker URL, e.g. tcp://localhost:1883.
	Broker string `mapstructure:"broker" validate:"required" yaml:"broker"`

	// ClientID identifies this bridge's MQTT session.
	ClientID string `mapstructure:"client_id" yaml:"client_id"`

	// Username and Password authenticate to the broker, if required.
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// TopicRoot is the Home Assistant discovery prefix. Default: homeassistant.
	TopicRoot string `mapstructure:"topic_root" yaml:"topic_root"`

	// QoS is the MQTT quality of service used for all publishes.
	QoS byte `mapstructure:"qos" validate:"omitempty,min=0,max=2" yaml:"qos"`

	// ConnectTimeout bounds the initial broker connection attempt.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"omitempty,gt=0" yaml:"connect_timeout"`

	// CommandTimeout bounds how long an inbound MQTT arm/disarm command has
	// to complete before the bridge gives up waiting on the panel.
	CommandTimeout time.Duration `mapstructure:"command_timeout" validate:"omitempty,gt=0" yaml:"command_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written.
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled.
	// Default: false (opt-in)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL).
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect.
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint. Default: 9090.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NX584BRIDGE_*)
//  2. Configuration file
//  3. Default values
//
// When no configuration file is found, Load returns GetDefaultConfig()
// as is: environment variables are not read and nothing is validated.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please create a configuration file first:\n"+
				"  nx584bridge init\n\n"+
				"Or specify a custom config file:\n"+
				"  nx584bridge start --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  nx584bridge init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Config may carry a broker password or panel PIN, so keep it owner-only.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NX584BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nx584bridge")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "nx584bridge")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}

// InitConfig writes a sample configuration file to the default location.
// It refuses to overwrite an existing file unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a sample configuration file to path. It refuses
// to overwrite an existing file unless force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()
	cfg.Serial.Device = "/dev/ttyUSB0"
	cfg.Panel.ID = "home"
	cfg.Panel.ZoneCount = 16
	cfg.Panel.DefaultPIN = "1234"

	return SaveConfig(cfg, path)
}
