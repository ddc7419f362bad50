package config

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalConfigJSON(t *testing.T) {
	js := `{
        "i2c_bus": "1",
        "i2c_address": 73,
        "interval_ms": 2000,
        "sensor_type": "simulation",
        "gain": 2,
        "integration_cycles": 36,
        "outputs": [
            {"type": "serial", "serial": {"port": "/dev/ttyUSB0", "baud": 9600}},
            {"type": "mqtt", "mqtt": {"server": "tcp://192.168.1.103:1883", "topic": "group1/water_quality", "location": "raspberry_pi_1"}}
        ]
    }`

	var cfg Config
	if err := json.Unmarshal([]byte(js), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.I2CAddress != 73 {
		t.Fatalf("i2c address: got %d", cfg.I2CAddress)
	}
	if cfg.IntervalMs != 2000 {
		t.Fatalf("interval_ms: got %d", cfg.IntervalMs)
	}
	if cfg.SensorType != "simulation" {
		t.Fatalf("sensor_type: got %q", cfg.SensorType)
	}
	if cfg.Gain != 2 || cfg.IntegrationCycles != 36 {
		t.Fatalf("driver settings: gain=%d cycles=%d", cfg.Gain, cfg.IntegrationCycles)
	}
	if len(cfg.Outputs) != 2 {
		t.Fatalf("outputs len: %d", len(cfg.Outputs))
	}
	if cfg.Outputs[0].Serial == nil || cfg.Outputs[0].Serial.Port != "/dev/ttyUSB0" {
		t.Fatalf("serial output: %+v", cfg.Outputs[0])
	}
	if cfg.Outputs[1].MQTT == nil || cfg.Outputs[1].MQTT.Location != "raspberry_pi_1" {
		t.Fatalf("mqtt output: %+v", cfg.Outputs[1])
	}
}
