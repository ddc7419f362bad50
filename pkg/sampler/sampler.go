package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aquasense/as7265x-stream/pkg/output"
	"github.com/aquasense/as7265x-stream/pkg/sensor"
)

// Boot diagnostics, kept byte-for-byte compatible with what the
// downstream host already recognizes.
const (
	StatusNotDetected = "AS7265x not detected!"
	StatusInitialized = "AS7265x Initialized"
)

// ErrInitFailed marks the terminal fail-halt state: the sensor never
// answered at boot and no readings were ever produced.
var ErrInitFailed = errors.New("sensor initialization failed")

type Sampler struct {
	driver   sensor.Driver
	outputs  []output.Output
	interval time.Duration
	logger   *slog.Logger
}

func New(driver sensor.Driver, outputs []output.Output, interval time.Duration, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{driver: driver, outputs: outputs, interval: interval, logger: logger}
}

// Run executes the boot sequence and then the sampling loop until ctx
// is cancelled. If the sensor fails to initialize, the failure
// diagnostic is emitted once and Run holds the fail-halt state (no
// further output) until cancellation, then returns ErrInitFailed.
func (s *Sampler) Run(ctx context.Context) error {
	if err := s.driver.Begin(); err != nil {
		s.logger.Error("sensor init failed", "error", err)
		s.status(StatusNotDetected)
		<-ctx.Done()
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	s.logger.Info("sensor initialized", "interval", s.interval)
	s.status(StatusInitialized)

	for {
		if err := s.cycle(); err != nil {
			s.logger.Warn("measurement cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

// cycle blocks on one full measurement, then fans the reading out.
func (s *Sampler) cycle() error {
	if err := s.driver.TakeMeasurements(); err != nil {
		return fmt.Errorf("take measurements: %w", err)
	}
	r, err := sensor.ReadCalibrated(s.driver)
	if err != nil {
		return fmt.Errorf("read calibrated: %w", err)
	}
	for _, o := range s.outputs {
		if err := o.Publish(r); err != nil {
			s.logger.Warn("publish failed", "error", err)
		}
	}
	return nil
}

func (s *Sampler) status(msg string) {
	for _, o := range s.outputs {
		if err := o.PublishStatus(msg); err != nil {
			s.logger.Warn("status publish failed", "error", err)
		}
	}
}
