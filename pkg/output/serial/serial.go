package serial

import (
	"fmt"
	"io"

	goserial "go.bug.st/serial"

	"github.com/aquasense/as7265x-stream/pkg/config"
	"github.com/aquasense/as7265x-stream/pkg/output"
	"github.com/aquasense/as7265x-stream/pkg/sensor"
)

// SerialOutput writes reading lines to a serial port. The line
// terminator is CRLF; the host side trims it.
type SerialOutput struct {
	port io.WriteCloser
}

// NewSerial opens the port at the configured rate, 8N1. The rate must
// match what the downstream consumer expects.
func NewSerial(cfg config.SerialConfig) (output.Output, error) {
	mode := &goserial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	port, err := goserial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}
	return &SerialOutput{port: port}, nil
}

// NewWithWriter wraps an already-open writer. Used by tests.
func NewWithWriter(w io.WriteCloser) output.Output {
	return &SerialOutput{port: w}
}

func (s *SerialOutput) Publish(r sensor.Reading) error {
	return s.writeLine(r.CSV())
}

func (s *SerialOutput) PublishStatus(msg string) error {
	return s.writeLine(msg)
}

func (s *SerialOutput) writeLine(line string) error {
	if _, err := io.WriteString(s.port, line+"\r\n"); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (s *SerialOutput) Close() error {
	if s.port != nil {
		return s.port.Close()
	}
	return nil
}
