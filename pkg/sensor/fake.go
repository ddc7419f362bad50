package sensor

import (
	"errors"
	"sync"

	"github.com/aquasense/as7265x-stream/pkg/config"
)

// FakeDriver serves fixed channel values without hardware. Used by
// simulation mode and by tests.
type FakeDriver struct {
	Values    [6]float64
	FailBegin bool

	mu       sync.Mutex
	begun    bool
	measured int
}

func NewFakeDriver(cfg config.Config) (Driver, error) {
	return &FakeDriver{Values: [6]float64{160.5, 170.25, 155.75, 182.0, 190.5, 175.25}}, nil
}

func (f *FakeDriver) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailBegin {
		return ErrNotDetected
	}
	f.begun = true
	return nil
}

func (f *FakeDriver) TakeMeasurements() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.begun {
		return errors.New("begin not called")
	}
	f.measured++
	return nil
}

// Measurements reports how many cycles have been triggered.
func (f *FakeDriver) Measurements() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.measured
}

func (f *FakeDriver) CalibratedA() (float64, error) { return f.channel(0) }
func (f *FakeDriver) CalibratedB() (float64, error) { return f.channel(1) }
func (f *FakeDriver) CalibratedC() (float64, error) { return f.channel(2) }
func (f *FakeDriver) CalibratedD() (float64, error) { return f.channel(3) }
func (f *FakeDriver) CalibratedE() (float64, error) { return f.channel(4) }
func (f *FakeDriver) CalibratedF() (float64, error) { return f.channel(5) }

func (f *FakeDriver) channel(i int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.measured == 0 {
		return 0, errors.New("no measurement taken")
	}
	return f.Values[i], nil
}

func (f *FakeDriver) Close() error { return nil }
