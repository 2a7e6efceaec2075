package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/caskettrack/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttDisconnectQuiesce     = 250 // milliseconds
	defaultMQTTPublishTimeout = 5 * time.Second
)

// MQTTPublisher sends events to an MQTT broker with at-least-once delivery.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher connects to the configured broker. The client reconnects
// automatically after the initial connection succeeds.
func NewMQTTPublisher(cfg config.MQTTConfig, topic string, timeout time.Duration) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		client.Disconnect(mqttDisconnectQuiesce)
		return nil, fmt.Errorf("connecting to mqtt broker %s: timed out after %s", cfg.BrokerURL, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to mqtt broker %s: %w", cfg.BrokerURL, err)
	}

	return newMQTTPublisher(client, topic, cfg.QoS, timeout), nil
}

func newMQTTPublisher(client mqtt.Client, topic string, qos byte, timeout time.Duration) *MQTTPublisher {
	if qos > 2 {
		qos = 1
	}
	if timeout <= 0 {
		timeout = defaultMQTTPublishTimeout
	}
	return &MQTTPublisher{client: client, topic: topic, qos: qos, timeout: timeout}
}

func (p *MQTTPublisher) Name() string { return config.NotifyDriverMQTT }

func (p *MQTTPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := evt.Marshal()
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("mqtt publish timed out")
	}
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(mqttDisconnectQuiesce)
	return nil
}
