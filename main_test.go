package main

import (
	"testing"

	"github.com/aquasense/as7265x-stream/pkg/config"
	"github.com/aquasense/as7265x-stream/pkg/output/console"
	"github.com/aquasense/as7265x-stream/pkg/sensor"
)

func TestInitOutputsConsole(t *testing.T) {
	cfg := config.Config{Outputs: []config.OutputConfig{{Type: "console"}}}
	outputs, err := initOutputs(cfg)
	if err != nil {
		t.Fatalf("initOutputs: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("outputs len: %d", len(outputs))
	}
	if _, ok := outputs[0].(*console.ConsoleOutput); !ok {
		t.Fatalf("output type: %T", outputs[0])
	}
}

func TestInitOutputsUnknownType(t *testing.T) {
	cfg := config.Config{Outputs: []config.OutputConfig{{Type: "carrier-pigeon"}}}
	if _, err := initOutputs(cfg); err == nil {
		t.Fatalf("expected error for unknown output type")
	}
}

func TestNewDriverSimulation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SensorType = "simulation"
	d, err := newDriver(cfg)
	if err != nil {
		t.Fatalf("newDriver: %v", err)
	}
	if _, ok := d.(*sensor.FakeDriver); !ok {
		t.Fatalf("driver type: %T", d)
	}
}
