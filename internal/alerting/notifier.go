package alerting

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-workboard/internal/models"
)

// MQTTNotifier publishes alert payloads to an MQTT topic for delivery
// to operator clients.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
}

// NewMQTTNotifier connects to the broker and returns a ready notifier.
func NewMQTTNotifier(broker, clientID, topic string) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", token.Error())
	}
	log.WithFields(log.Fields{"broker": broker, "topic": topic}).Info("Connected to MQTT broker")
	return &MQTTNotifier{client: client, topic: topic}, nil
}

// Notify publishes the alert as JSON.
func (n *MQTTNotifier) Notify(_ context.Context, alert models.Alert) error {
	payload, err := alertPayload(alert)
	if err != nil {
		return err
	}
	token := n.client.Publish(n.topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt publish error: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}

func alertPayload(alert models.Alert) ([]byte, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert: %w", err)
	}
	return data, nil
}

// LogNotifier writes alerts to the structured log; used when no broker
// is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, alert models.Alert) error {
	log.WithFields(log.Fields{
		"rule":     alert.Rule,
		"severity": alert.Severity,
		"title":    alert.Title,
		"vehicles": alert.Vehicles,
	}).Warn(alert.Description)
	return nil
}
