// internal/transport/mqtt.go
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/racketlab/swingsense/internal/imu"
)

var (
	// ErrConnectTimeout indicates the broker did not answer in time
	ErrConnectTimeout = errors.New("broker connect timeout")
)

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 5 * time.Second
	disconnectMs     = 250
)

// MQTTConfig holds the broker connection settings.
type MQTTConfig struct {
	// Broker is the broker URL (from config: mqtt.broker)
	Broker string
	// Topic carries one JSON-encoded sample per message (from config: mqtt.topic)
	Topic string
	// ClientID identifies this subscriber (from config: mqtt.client_id)
	ClientID string
}

// MQTTSource subscribes to a broker topic where the racket dongle
// publishes one JSON sample per message.
type MQTTSource struct {
	cfg MQTTConfig
}

// NewMQTTSource creates a sample source for the given broker settings.
func NewMQTTSource(cfg MQTTConfig) *MQTTSource {
	return &MQTTSource{cfg: cfg}
}

// Run connects, subscribes, and delivers samples until the context is
// canceled. Paho delivers the messages of one subscription in order on
// a single goroutine, which keeps the sample stream single-writer.
// Undecodable payloads are logged and skipped.
func (m *MQTTSource) Run(ctx context.Context, fn SampleFunc) error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID)

	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("mqtt: connection lost: %v (will auto-reconnect)", err)
	}
	// Subscribing from OnConnect restores the subscription after every
	// reconnect, not just the first connect.
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(m.cfg.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var s imu.Sample
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("mqtt: sample unmarshal error: %v", err)
				return
			}
			fn(s)
		})
		if !token.WaitTimeout(subscribeTimeout) {
			log.Printf("mqtt: subscribe timeout for %s", m.cfg.Topic)
			return
		}
		if token.Error() != nil {
			log.Printf("mqtt: subscribe error: %v", token.Error())
			return
		}
		log.Printf("mqtt: subscribed to %s", m.cfg.Topic)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("%w: %s", ErrConnectTimeout, m.cfg.Broker)
	}
	if token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(disconnectMs)

	<-ctx.Done()
	return nil
}
