package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/airsync/pkg/engine"
)

// DefaultPrefix roots every bridge topic.
const DefaultPrefix = "airsync"

const (
	topicState  = "state"
	topicSelect = "select"
	topicToggle = "toggle"

	qos            = 1
	publishTimeout = 5 * time.Second
	quiesceMillis  = 250
)

// Config configures the broker connection.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Prefix   string
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Broker) != ""
}

// Connect dials the broker, retrying with exponential backoff until it
// succeeds, the retry budget runs out or ctx is done.
func Connect(ctx context.Context, cfg Config) (mqtt.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mqtt broker not configured")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "airsync-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Str("broker", cfg.Broker).Msg("MQTT connection lost")
		})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		token := client.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			log.Warn().Err(err).Str("broker", cfg.Broker).Msg("Failed to connect to MQTT broker")
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	log.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("Connected to MQTT broker")
	return client, nil
}

// Bridge mirrors engine state to MQTT and accepts selection and toggle
// requests from it.
type Bridge struct {
	client  mqtt.Client
	monitor engine.Monitor
	prefix  string
}

// New creates a bridge over an already connected client.
func New(client mqtt.Client, monitor engine.Monitor, prefix string) *Bridge {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Bridge{client: client, monitor: monitor, prefix: prefix}
}

// Topic returns the full topic for name.
func (b *Bridge) Topic(name string) string {
	return b.prefix + "/" + name
}

// Run publishes every state change until ctx is done or the engine closes,
// then unsubscribes and disconnects.
func (b *Bridge) Run(ctx context.Context) error {
	handlers := map[string]mqtt.MessageHandler{
		b.Topic(topicSelect): b.handleSelect,
		b.Topic(topicToggle): func(_ mqtt.Client, msg mqtt.Message) { b.handleToggle(ctx, msg) },
	}
	for topic, handler := range handlers {
		token := b.client.Subscribe(topic, qos, handler)
		token.Wait()
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		log.Info().Str("topic", topic).Msg("Subscribed to MQTT topic")
	}

	defer func() {
		topics := make([]string, 0, len(handlers))
		for topic := range handlers {
			topics = append(topics, topic)
		}
		b.client.Unsubscribe(topics...).WaitTimeout(publishTimeout)
		b.client.Disconnect(quiesceMillis)
		log.Info().Msg("MQTT bridge stopped")
	}()

	states := b.monitor.Subscribe()
	defer b.monitor.Unsubscribe(states)

	b.publish(b.monitor.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-states:
			if !ok {
				return nil
			}
			b.publish(s)
		}
	}
}

func (b *Bridge) publish(s engine.State) {
	payload, err := json.Marshal(s.View())
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode state")
		return
	}

	token := b.client.Publish(b.Topic(topicState), qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Msg("Timed out publishing state")
		return
	}
	if err := token.Error(); err != nil {
		log.Warn().Err(err).Msg("Failed to publish state")
	}
}

func (b *Bridge) handleSelect(_ mqtt.Client, msg mqtt.Message) {
	deviceID := strings.TrimSpace(string(msg.Payload()))
	if err := b.monitor.SetSelection(deviceID); err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("Failed to select device")
	}
}

// handleToggle dispatches off the client's callback goroutine since a
// submission may take as long as the HTTP timeout.
func (b *Bridge) handleToggle(ctx context.Context, _ mqtt.Message) {
	go func() {
		cmd, err := b.monitor.ToggleFan(ctx)
		switch {
		case errors.Is(err, engine.ErrNoSelection), errors.Is(err, engine.ErrCommandInFlight):
			log.Info().Err(err).Msg("Ignoring toggle request")
		case err != nil:
			log.Warn().Err(err).Str("device_id", cmd.DeviceID).Msg("Toggle request failed")
		default:
			log.Debug().Str("device_id", cmd.DeviceID).Bool("power", cmd.Power).Msg("Toggle request queued")
		}
	}()
}
