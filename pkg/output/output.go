package output

import "github.com/aquasense/as7265x-stream/pkg/sensor"

// Output is a sink for reading lines and boot diagnostics.
type Output interface {
	Publish(sensor.Reading) error
	PublishStatus(msg string) error
	Close() error
}

// constructors live in subpackages
