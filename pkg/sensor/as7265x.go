package sensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aquasense/as7265x-stream/pkg/config"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// The AS7265x exposes its register file indirectly: three physical I2C
// registers (status, write, read) gate access to a bank of virtual
// registers shared by the three sensor devices on the module.
const (
	statusReg = 0x00
	writeReg  = 0x01
	readReg   = 0x02

	txValid = 0x02
	rxValid = 0x01

	vregHWVersionHigh = 0x00
	vregHWVersionLow  = 0x01
	vregConfig        = 0x04
	vregIntTime       = 0x05
	vregDevSelect     = 0x4F

	// Calibrated channel values, 4-byte big-endian IEEE754 each.
	vregCalA = 0x14
	vregCalB = 0x18
	vregCalC = 0x1C
	vregCalD = 0x20
	vregCalE = 0x24
	vregCalF = 0x28

	deviceType = 0x41

	// Device selector values. Channels A-F (410-535nm) live on the
	// AS72653 die.
	deviceAS72651 = 0x00
	deviceAS72652 = 0x01
	deviceAS72653 = 0x02

	configDataRdy   = 0x02
	modeOneShot     = 0x03 // 6-channel one-shot measurement bank
	virtualWriteBit = 0x80

	pollDelay   = 5 * time.Millisecond
	pollTimeout = 5 * time.Second
)

var ErrNotDetected = errors.New("as7265x not detected")

type AS7265X struct {
	dev       *i2c.Dev
	bus       i2c.BusCloser
	gain      byte
	intCycles byte
}

// NewAS7265X opens the configured I2C bus and returns an uninitialized
// driver handle. Begin must be called before measurements.
func NewAS7265X(cfg config.Config) (Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}
	dev := &i2c.Dev{Addr: uint16(cfg.I2CAddress), Bus: bus}
	return &AS7265X{dev: dev, bus: bus, gain: byte(cfg.Gain), intCycles: byte(cfg.IntegrationCycles)}, nil
}

func (s *AS7265X) Close() error {
	if s.bus != nil {
		return s.bus.Close()
	}
	return nil
}

// Begin verifies the device type byte and applies gain, integration
// time and one-shot measurement mode to all three devices.
func (s *AS7265X) Begin() error {
	dt, err := s.virtualRead(vregHWVersionHigh)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotDetected, err)
	}
	if dt != deviceType {
		return fmt.Errorf("%w: device type 0x%02X", ErrNotDetected, dt)
	}
	if err := s.setGain(s.gain); err != nil {
		return fmt.Errorf("set gain: %w", err)
	}
	if err := s.setIntegrationCycles(s.intCycles); err != nil {
		return fmt.Errorf("set integration cycles: %w", err)
	}
	if err := s.setMeasurementMode(modeOneShot); err != nil {
		return fmt.Errorf("set measurement mode: %w", err)
	}
	return nil
}

// TakeMeasurements starts a one-shot 6-channel conversion and blocks
// until the sensor raises DATA_RDY.
func (s *AS7265X) TakeMeasurements() error {
	// Re-arming one-shot mode triggers a new conversion.
	if err := s.setMeasurementMode(modeOneShot); err != nil {
		return fmt.Errorf("start measurement: %w", err)
	}
	deadline := time.Now().Add(pollTimeout)
	for {
		v, err := s.virtualRead(vregConfig)
		if err != nil {
			return fmt.Errorf("poll data ready: %w", err)
		}
		if v&configDataRdy != 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timeout waiting for measurement")
		}
		time.Sleep(pollDelay)
	}
}

func (s *AS7265X) CalibratedA() (float64, error) { return s.calibrated(vregCalA) }
func (s *AS7265X) CalibratedB() (float64, error) { return s.calibrated(vregCalB) }
func (s *AS7265X) CalibratedC() (float64, error) { return s.calibrated(vregCalC) }
func (s *AS7265X) CalibratedD() (float64, error) { return s.calibrated(vregCalD) }
func (s *AS7265X) CalibratedE() (float64, error) { return s.calibrated(vregCalE) }
func (s *AS7265X) CalibratedF() (float64, error) { return s.calibrated(vregCalF) }

func (s *AS7265X) calibrated(base byte) (float64, error) {
	if err := s.selectDevice(deviceAS72653); err != nil {
		return 0, err
	}
	var raw [4]byte
	for i := range raw {
		v, err := s.virtualRead(base + byte(i))
		if err != nil {
			return 0, fmt.Errorf("read calibrated 0x%02X: %w", base, err)
		}
		raw[i] = v
	}
	bits := binary.BigEndian.Uint32(raw[:])
	return float64(math.Float32frombits(bits)), nil
}

func (s *AS7265X) selectDevice(dev byte) error {
	return s.virtualWrite(vregDevSelect, dev)
}

// setGain applies the gain bits (CONFIG 5:4) on every device.
func (s *AS7265X) setGain(gain byte) error {
	if gain > 0x03 {
		gain = 0x03
	}
	return s.forEachDevice(func() error {
		v, err := s.virtualRead(vregConfig)
		if err != nil {
			return err
		}
		v = (v &^ 0x30) | gain<<4
		return s.virtualWrite(vregConfig, v)
	})
}

// setMeasurementMode applies the bank bits (CONFIG 3:2) on every device.
func (s *AS7265X) setMeasurementMode(mode byte) error {
	return s.forEachDevice(func() error {
		v, err := s.virtualRead(vregConfig)
		if err != nil {
			return err
		}
		v = (v &^ 0x0C) | mode<<2
		return s.virtualWrite(vregConfig, v)
	})
}

func (s *AS7265X) setIntegrationCycles(cycles byte) error {
	return s.forEachDevice(func() error {
		return s.virtualWrite(vregIntTime, cycles)
	})
}

func (s *AS7265X) forEachDevice(fn func() error) error {
	for _, dev := range []byte{deviceAS72651, deviceAS72652, deviceAS72653} {
		if err := s.selectDevice(dev); err != nil {
			return err
		}
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// virtualRead reads one virtual register through the indirection
// registers: flush any stale byte, wait for the write slot, post the
// address, wait for the response.
func (s *AS7265X) virtualRead(addr byte) (byte, error) {
	st, err := s.readPhysical(statusReg)
	if err != nil {
		return 0, err
	}
	if st&rxValid != 0 {
		if _, err := s.readPhysical(readReg); err != nil {
			return 0, err
		}
	}
	if err := s.waitStatus(func(st byte) bool { return st&txValid == 0 }); err != nil {
		return 0, err
	}
	if err := s.writePhysical(writeReg, addr); err != nil {
		return 0, err
	}
	if err := s.waitStatus(func(st byte) bool { return st&rxValid != 0 }); err != nil {
		return 0, err
	}
	return s.readPhysical(readReg)
}

// virtualWrite writes one virtual register: the address with the write
// bit set, then the value, each gated on the write slot being free.
func (s *AS7265X) virtualWrite(addr, value byte) error {
	if err := s.waitStatus(func(st byte) bool { return st&txValid == 0 }); err != nil {
		return err
	}
	if err := s.writePhysical(writeReg, addr|virtualWriteBit); err != nil {
		return err
	}
	if err := s.waitStatus(func(st byte) bool { return st&txValid == 0 }); err != nil {
		return err
	}
	return s.writePhysical(writeReg, value)
}

func (s *AS7265X) waitStatus(ok func(byte) bool) error {
	deadline := time.Now().Add(pollTimeout)
	for {
		st, err := s.readPhysical(statusReg)
		if err != nil {
			return err
		}
		if ok(st) {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timeout waiting for status register")
		}
		time.Sleep(pollDelay)
	}
}

func (s *AS7265X) readPhysical(reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := s.dev.Tx([]byte{reg}, buf); err != nil {
		return 0, fmt.Errorf("read reg 0x%02X: %w", reg, err)
	}
	return buf[0], nil
}

func (s *AS7265X) writePhysical(reg, value byte) error {
	if err := s.dev.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("write reg 0x%02X: %w", reg, err)
	}
	return nil
}
