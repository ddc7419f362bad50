package console

import (
	"fmt"

	"github.com/aquasense/as7265x-stream/pkg/output"
	"github.com/aquasense/as7265x-stream/pkg/sensor"
)

type ConsoleOutput struct{}

func NewConsole() output.Output { return &ConsoleOutput{} }

func (c *ConsoleOutput) Publish(r sensor.Reading) error {
	_, err := fmt.Println(r.CSV())
	return err
}

func (c *ConsoleOutput) PublishStatus(msg string) error {
	_, err := fmt.Println(msg)
	return err
}

func (c *ConsoleOutput) Close() error { return nil }
