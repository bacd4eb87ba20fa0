package scaler

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// TelemetrySink bridges reading updates to an MQTT broker, for gateways
// that forward lab telemetry (e.g. a ThingsBoard-style platform). It
// satisfies ReadingSink.
type TelemetrySink struct {
	client mqtt.Client
	topic  string
	log    *log.Logger
}

// NewTelemetrySink connects to the broker and returns a sink publishing on
// the given topic at QoS 1. brokerURL takes the usual tcp://host:port form.
func NewTelemetrySink(brokerURL, clientID, topic string, logger *log.Logger) (*TelemetrySink, error) {
	if logger == nil {
		logger = ProblemLogger
	}
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", brokerURL, token.Error())
	}
	return &TelemetrySink{client: client, topic: topic, log: logger}, nil
}

// Publish sends one update as a JSON payload of name→counts pairs plus the
// elapsed time and rate statistics, keyed the way telemetry dashboards
// expect flat fields.
func (ts *TelemetrySink) Publish(update *ReadingUpdate) error {
	if !ts.client.IsConnected() {
		return fmt.Errorf("mqtt client is not connected")
	}
	data := map[string]any{
		"ts":      update.Time.UnixMilli(),
		"elapsed": update.Elapsed,
	}
	for _, ch := range update.Channels {
		key := ch.Name
		if key == "" {
			key = ch.Attr
		}
		data[key] = ch.Counts
		if rs, ok := update.Rates[ch.Attr]; ok {
			data[key+"_rate"] = rs.Mean
		}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	token := ts.client.Publish(ts.topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt publish to %s: %w", ts.topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (ts *TelemetrySink) Close() {
	ts.client.Disconnect(250)
}
