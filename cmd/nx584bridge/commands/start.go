package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cbarrick/nx584bridge/internal/logger"
	"github.com/cbarrick/nx584bridge/internal/nx584"
	"github.com/cbarrick/nx584bridge/internal/serialport"
	"github.com/cbarrick/nx584bridge/internal/telemetry"
	"github.com/cbarrick/nx584bridge/pkg/bus/mqttsink"
	"github.com/cbarrick/nx584bridge/pkg/config"
	"github.com/cbarrick/nx584bridge/pkg/metrics"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the NX-584/MQTT bridge",
	RunE:  runStart,
}

// controllerHandler forwards mqttsink.CommandHandler calls to a Controller
// that does not exist yet at the time the sink is constructed; runStart fills
// in ctrl once nx584.New has built the Controller.
type controllerHandler struct {
	ctrl *nx584.Controller
}

func (h *controllerHandler) Disarm(ctx context.Context, partition int) error {
	return h.ctrl.Disarm(ctx, partition)
}

func (h *controllerHandler) ArmHome(ctx context.Context, partition int) error {
	return h.ctrl.ArmHome(ctx, partition)
}

func (h *controllerHandler) ArmAway(ctx context.Context, partition int) error {
	return h.ctrl.ArmAway(ctx, partition)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return err
	}

	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "nx584bridge",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "nx584bridge",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("nx584bridge starting", "panel_id", cfg.Panel.ID, "device", cfg.Serial.Device)
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	var collector nx584.Metrics = nx584.NopMetrics{}
	metricsDone := make(chan error, 1)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector = metrics.New(reg)
		metricsServer := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), reg)
		go func() { metricsDone <- metricsServer.Run(ctx) }()
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	port, err := serialport.Open(serialport.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial device: %w", err)
	}
	defer port.Close()

	framer := nx584.NewFramer(port, cfg.Serial.ReadTimeout)

	handler := &controllerHandler{}
	sink, err := mqttsink.New(mqttsink.Config{
		Broker:          cfg.MQTT.Broker,
		ClientID:        cfg.MQTT.ClientID,
		Username:        cfg.MQTT.Username,
		Password:        cfg.MQTT.Password,
		TopicRoot:       cfg.MQTT.TopicRoot,
		PanelUniqueID:   cfg.Panel.ID,
		PanelName:       cfg.Panel.ID,
		SoftwareVersion: Version,
		QoS:             cfg.MQTT.QoS,
		ConnectTimeout:  cfg.MQTT.ConnectTimeout,
		CommandTimeout:  cfg.MQTT.CommandTimeout,
	}, handler)
	if err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	ignoreZones := make(map[int]bool, len(cfg.Panel.IgnoreZones))
	for _, z := range cfg.Panel.IgnoreZones {
		ignoreZones[z] = true
	}

	ctrl := nx584.New(framer, sink, collector, nx584.Config{
		PanelID:           cfg.Panel.ID,
		ZoneCount:         cfg.Panel.ZoneCount,
		IgnoreZones:       ignoreZones,
		DefaultPIN:        cfg.Panel.DefaultPIN,
		DefaultUserNumber: cfg.Panel.DefaultUserNumber,
		RepublishInterval: cfg.Panel.RepublishInterval,
	})
	handler.ctrl = ctrl

	runDone := make(chan error, 1)
	go func() { runDone <- ctrl.Run(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("nx584bridge running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received")
		cancel()
		if err := <-runDone; err != nil {
			return fmt.Errorf("controller shutdown error: %w", err)
		}
	case err := <-runDone:
		signal.Stop(sigChan)
		if err != nil {
			return fmt.Errorf("controller error: %w", err)
		}
	case err := <-metricsDone:
		signal.Stop(sigChan)
		if err != nil {
			return fmt.Errorf("metrics server error: %w", err)
		}
	}

	logger.Info("nx584bridge stopped")
	return nil
}
