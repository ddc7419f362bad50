package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type SerialConfig struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

type MQTTConfig struct {
	Server   string `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
	Location string `json:"location"`
}

type OutputConfig struct {
	Type   string        `json:"type"`
	Serial *SerialConfig `json:"serial,omitempty"`
	MQTT   *MQTTConfig   `json:"mqtt,omitempty"`
}

type Config struct {
	I2CBus            string         `json:"i2c_bus"`
	I2CAddress        int            `json:"i2c_address"`
	IntervalMs        int            `json:"interval_ms"`
	SensorType        string         `json:"sensor_type"`
	Gain              int            `json:"gain"`
	IntegrationCycles int            `json:"integration_cycles"`
	LogLevel          string         `json:"log_level"`
	Outputs           []OutputConfig `json:"outputs"`
}

func DefaultConfig() Config {
	return Config{
		I2CBus:            "1",
		I2CAddress:        0x49,
		IntervalMs:        1000,
		SensorType:        "real",
		Gain:              3, // 64x
		IntegrationCycles: 49,
		LogLevel:          "info",
		Outputs: []OutputConfig{
			{Type: "serial", Serial: &SerialConfig{Port: "/dev/serial0", Baud: 9600}},
		},
	}
}

// Interval returns the configured publish delay.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// LoadFromFlags loads configuration in increasing precedence: defaults,
// JSON file, environment (a .env file is honored if present), flags.
func LoadFromFlags() (Config, error) {
	_ = godotenv.Load()
	return load(flag.CommandLine, os.Args[1:], os.Getenv)
}

func load(fs *flag.FlagSet, args []string, getenv func(string) string) (Config, error) {
	cfgPath := fs.String("config", "", "Path to JSON config file")
	flagI2CBus := fs.String("i2c-bus", "", "I2C bus (e.g., '1' -> /dev/i2c-1)")
	flagI2CAddr := fs.String("i2c-address", "", "I2C address (decimal or 0x hex)")
	flagInterval := fs.Int("interval-ms", -1, "Delay between readings in ms")
	flagSensorType := fs.String("sensor-type", "", "sensor type: real|simulation")
	flagGain := fs.Int("gain", -1, "Sensor gain setting 0-3 (1x,3.7x,16x,64x)")
	flagIntCycles := fs.Int("integration-cycles", -1, "Integration cycles per measurement (0-255)")
	flagLogLevel := fs.String("log-level", "", "Log level: debug|info|warn|error")
	flagOutputs := fs.String("outputs", "", "Comma-separated outputs (serial,console,mqtt)")
	flagSerialPort := fs.String("serial-port", "", "Serial output device (e.g., /dev/serial0)")
	flagSerialBaud := fs.Int("serial-baud", -1, "Serial output baud rate")
	flagMQTTServer := fs.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := fs.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := fs.String("mqtt-pass", "", "MQTT password")
	flagMQTTClientID := fs.String("mqtt-client-id", "", "MQTT client id")
	flagMQTTTopic := fs.String("mqtt-topic", "", "MQTT topic")
	flagMQTTLocation := fs.String("mqtt-location", "", "Location tag for MQTT payloads")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}

	if *flagI2CBus != "" {
		cfg.I2CBus = *flagI2CBus
	}
	if *flagI2CAddr != "" {
		v, err := parseIntOrHex(*flagI2CAddr)
		if err != nil {
			return cfg, fmt.Errorf("i2c-address: %w", err)
		}
		cfg.I2CAddress = v
	}
	if *flagInterval != -1 {
		cfg.IntervalMs = *flagInterval
	}
	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagGain != -1 {
		cfg.Gain = *flagGain
	}
	if *flagIntCycles != -1 {
		cfg.IntegrationCycles = *flagIntCycles
	}
	if *flagLogLevel != "" {
		cfg.LogLevel = *flagLogLevel
	}
	if *flagOutputs != "" {
		types := parseCSV(*flagOutputs)
		outs := make([]OutputConfig, 0, len(types))
		for _, t := range types {
			outs = append(outs, OutputConfig{Type: t})
		}
		cfg.Outputs = outs
	}
	applySerialFlags(&cfg, *flagSerialPort, *flagSerialBaud)
	applyMQTTFlags(&cfg, *flagMQTTServer, *flagMQTTUser, *flagMQTTPass, *flagMQTTClientID, *flagMQTTTopic, *flagMQTTLocation)

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("AS7265X_I2C_BUS"); v != "" {
		cfg.I2CBus = v
	}
	if v := getenv("AS7265X_I2C_ADDRESS"); v != "" {
		addr, err := parseIntOrHex(v)
		if err != nil {
			return fmt.Errorf("AS7265X_I2C_ADDRESS: %w", err)
		}
		cfg.I2CAddress = addr
	}
	if v := getenv("AS7265X_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AS7265X_INTERVAL_MS: %w", err)
		}
		cfg.IntervalMs = ms
	}
	if v := getenv("AS7265X_SENSOR_TYPE"); v != "" {
		cfg.SensorType = v
	}
	if v := getenv("AS7265X_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("AS7265X_SERIAL_PORT"); v != "" {
		applySerialFlags(cfg, v, -1)
	}
	if v := getenv("AS7265X_SERIAL_BAUD"); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AS7265X_SERIAL_BAUD: %w", err)
		}
		applySerialFlags(cfg, "", baud)
	}
	return nil
}

// applySerialFlags applies port/baud to every serial output, creating
// one if the list has none.
func applySerialFlags(cfg *Config, port string, baud int) {
	if port == "" && baud == -1 {
		return
	}
	applied := false
	for i := range cfg.Outputs {
		if strings.ToLower(cfg.Outputs[i].Type) != "serial" {
			continue
		}
		if cfg.Outputs[i].Serial == nil {
			cfg.Outputs[i].Serial = &SerialConfig{}
		}
		if port != "" {
			cfg.Outputs[i].Serial.Port = port
		}
		if baud != -1 {
			cfg.Outputs[i].Serial.Baud = baud
		}
		applied = true
	}
	if !applied && port != "" {
		sc := &SerialConfig{Port: port, Baud: 9600}
		if baud != -1 {
			sc.Baud = baud
		}
		cfg.Outputs = append(cfg.Outputs, OutputConfig{Type: "serial", Serial: sc})
	}
}

// applyMQTTFlags applies MQTT settings to every mqtt output, creating
// one if the list has none and a server was given.
func applyMQTTFlags(cfg *Config, server, user, pass, clientID, topic, location string) {
	if server == "" && user == "" && pass == "" && clientID == "" && topic == "" && location == "" {
		return
	}
	apply := func(m *MQTTConfig) {
		if server != "" {
			m.Server = server
		}
		if user != "" {
			m.Username = user
		}
		if pass != "" {
			m.Password = pass
		}
		if clientID != "" {
			m.ClientID = clientID
		}
		if topic != "" {
			m.Topic = topic
		}
		if location != "" {
			m.Location = location
		}
	}
	applied := false
	for i := range cfg.Outputs {
		if strings.ToLower(cfg.Outputs[i].Type) != "mqtt" {
			continue
		}
		if cfg.Outputs[i].MQTT == nil {
			cfg.Outputs[i].MQTT = &MQTTConfig{}
		}
		apply(cfg.Outputs[i].MQTT)
		applied = true
	}
	if !applied && server != "" {
		m := &MQTTConfig{}
		apply(m)
		cfg.Outputs = append(cfg.Outputs, OutputConfig{Type: "mqtt", MQTT: m})
	}
}

func validate(cfg Config) error {
	if cfg.IntervalMs <= 0 {
		return errors.New("interval-ms must be > 0")
	}
	switch cfg.SensorType {
	case "real", "simulation":
	default:
		return fmt.Errorf("invalid sensor-type %q (allowed: real, simulation)", cfg.SensorType)
	}
	if cfg.Gain < 0 || cfg.Gain > 3 {
		return fmt.Errorf("gain must be 0-3, got %d", cfg.Gain)
	}
	if cfg.IntegrationCycles < 0 || cfg.IntegrationCycles > 255 {
		return fmt.Errorf("integration-cycles must be 0-255, got %d", cfg.IntegrationCycles)
	}
	if len(cfg.Outputs) == 0 {
		return errors.New("at least one output is required")
	}
	for _, o := range cfg.Outputs {
		if o.Type == "serial" && o.Serial != nil && o.Serial.Baud <= 0 {
			return fmt.Errorf("serial baud must be > 0, got %d", o.Serial.Baud)
		}
	}
	return nil
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	v, err := strconv.Atoi(s)
	return v, err
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
