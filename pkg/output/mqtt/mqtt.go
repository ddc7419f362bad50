package mqtt

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aquasense/as7265x-stream/pkg/config"
	"github.com/aquasense/as7265x-stream/pkg/output"
	"github.com/aquasense/as7265x-stream/pkg/sensor"
)

const (
	DefaultServer   = "tcp://localhost:1883"
	DefaultClientID = "as7265x-client"
	DefaultTopic    = "as7265x/spectral"

	sensorType     = "AS7265X_Spectral"
	publishTimeout = 5 * time.Second
)

type MQTTOutput struct {
	client   mqtt.Client
	topic    string
	location string
}

func NewMQTT(cfg config.MQTTConfig) (output.Output, error) {
	server := cfg.Server
	if server == "" {
		server = DefaultServer
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	opts := mqtt.NewClientOptions().AddBroker(server).SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTOutput{client: client, topic: topic, location: cfg.Location}, nil
}

func (m *MQTTOutput) Publish(r sensor.Reading) error {
	return m.publishJSON(buildPayload(r, m.location))
}

func (m *MQTTOutput) PublishStatus(msg string) error {
	return m.publishJSON(map[string]interface{}{"status": msg})
}

func (m *MQTTOutput) publishJSON(payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 1, false, b)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", m.topic)
	}
	return token.Error()
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

// buildPayload mirrors the schema the downstream water-quality
// consumer expects: per-channel values plus the spectrum average.
func buildPayload(r sensor.Reading, location string) map[string]interface{} {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	payload := map[string]interface{}{
		"timestamp":   ts.Format(time.RFC3339),
		"sensor_type": sensorType,
		"channels": map[string]float64{
			"A": round2(r.A),
			"B": round2(r.B),
			"C": round2(r.C),
			"D": round2(r.D),
			"E": round2(r.E),
			"F": round2(r.F),
		},
		"spectrum_average": round2(r.SpectrumAverage()),
	}
	if location != "" {
		payload["location"] = location
	}
	return payload
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
