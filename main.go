package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquasense/as7265x-stream/pkg/config"
	"github.com/aquasense/as7265x-stream/pkg/logging"
	"github.com/aquasense/as7265x-stream/pkg/output"
	"github.com/aquasense/as7265x-stream/pkg/output/console"
	"github.com/aquasense/as7265x-stream/pkg/output/mqtt"
	"github.com/aquasense/as7265x-stream/pkg/output/serial"
	"github.com/aquasense/as7265x-stream/pkg/sampler"
	"github.com/aquasense/as7265x-stream/pkg/sensor"
)

func main() {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting",
		"i2c_bus", cfg.I2CBus,
		"i2c_address", fmt.Sprintf("0x%02X", cfg.I2CAddress),
		"sensor_type", cfg.SensorType,
		"interval", cfg.Interval(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	driver, err := newDriver(cfg)
	if err != nil {
		return fmt.Errorf("init driver: %w", err)
	}
	defer driver.Close()

	outputs, err := initOutputs(cfg)
	if err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	defer closeOutputs(outputs, logger)

	return sampler.New(driver, outputs, cfg.Interval(), logger).Run(ctx)
}

func newDriver(cfg config.Config) (sensor.Driver, error) {
	if cfg.SensorType == "simulation" {
		return sensor.NewFakeDriver(cfg)
	}
	return sensor.NewAS7265X(cfg)
}

// initOutputs builds one sink per configured output entry.
func initOutputs(cfg config.Config) ([]output.Output, error) {
	outputs := make([]output.Output, 0, len(cfg.Outputs))
	for _, oc := range cfg.Outputs {
		switch oc.Type {
		case "serial":
			sc := config.SerialConfig{Port: "/dev/serial0", Baud: 9600}
			if oc.Serial != nil {
				sc = *oc.Serial
			}
			o, err := serial.NewSerial(sc)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, o)
		case "console":
			outputs = append(outputs, console.NewConsole())
		case "mqtt":
			mc := config.MQTTConfig{}
			if oc.MQTT != nil {
				mc = *oc.MQTT
			}
			o, err := mqtt.NewMQTT(mc)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, o)
		default:
			return nil, fmt.Errorf("unknown output type %q", oc.Type)
		}
	}
	return outputs, nil
}

func closeOutputs(outputs []output.Output, logger *slog.Logger) {
	for _, o := range outputs {
		if err := o.Close(); err != nil {
			logger.Warn("output close failed", "error", err)
		}
	}
}
