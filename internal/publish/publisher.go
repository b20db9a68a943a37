package publish

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
	"github.com/farcomiot/enviropi/internal/sensor"
	"github.com/farcomiot/enviropi/internal/store"
)

const (
	// DefaultBroker is the public broker used when none is configured.
	DefaultBroker = "tcp://broker.hivemq.com:1883"
	// DefaultTopic carries the 2 s sensor payloads.
	DefaultTopic = "farcom/enviro"
	// DefaultHistoryTopic carries the retained 15 minute summaries.
	DefaultHistoryTopic = "farcom/enviro/history"

	qos         = 1
	waitTimeout = 2 * time.Second
)

// Config holds broker connection settings.
type Config struct {
	Broker       string
	ClientID     string
	Topic        string
	HistoryTopic string
}

// Publisher delivers sensor payloads over MQTT. Connection state is
// tracked from the paho callbacks, which run on the client's own
// goroutines.
type Publisher struct {
	client       mqtt.Client
	topic        string
	historyTopic string
	log          zerolog.Logger
	connected    atomic.Bool
}

// Connect builds the MQTT client and starts connecting. A failed initial
// connect is logged, not fatal; the client keeps retrying in the
// background and readings are still collected and displayed meanwhile.
func Connect(cfg Config, log zerolog.Logger) *Publisher {
	if cfg.Broker == "" {
		cfg.Broker = DefaultBroker
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.HistoryTopic == "" {
		cfg.HistoryTopic = DefaultHistoryTopic
	}

	p := &Publisher{
		topic:        cfg.Topic,
		historyTopic: cfg.HistoryTopic,
		log:          log,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(func(mqtt.Client) {
			p.connected.Store(true)
			log.Info().Str("broker", cfg.Broker).Msg("mqtt connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			p.connected.Store(false)
			log.Warn().Err(err).Msg("mqtt connection lost")
		})

	p.client = mqtt.NewClient(opts)
	if t := p.client.Connect(); t.WaitTimeout(waitTimeout) && t.Error() != nil {
		log.Error().Err(t.Error()).Msg("mqtt initial connect failed")
	}
	return p
}

// Connected reports whether the broker connection is currently up.
func (p *Publisher) Connected() bool {
	return p.connected.Load()
}

// PublishSnapshot publishes one sensor payload at QoS 1. uptimeStart is
// the process start time as epoch seconds.
func (p *Publisher) PublishSnapshot(snap sensor.Snapshot, uptimeStart int64) error {
	payload := NewPayload(snap, p.Connected(), uptimeStart)
	return p.publish(p.topic, false, payload)
}

// PublishHistory publishes the retained summary to the history topic.
func (p *Publisher) PublishHistory(summary map[channel.Channel]store.Stats, rows int, windowStart, now time.Time) error {
	payload := NewHistoryPayload(summary, rows, windowStart, now)
	if err := p.publish(p.historyTopic, true, payload); err != nil {
		return err
	}
	p.log.Info().Int("rows", rows).Msg("history published")
	return nil
}

func (p *Publisher) publish(topic string, retain bool, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	t := p.client.Publish(topic, qos, retain, body)
	if !t.WaitTimeout(waitTimeout) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	if t.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, t.Error())
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight messages a short
// grace period.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
