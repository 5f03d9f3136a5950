package mqtt

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/interval-timer/internal/logic"
)

// DefaultBufferSize is how many messages the outbox keeps while the broker
// is unreachable.
const DefaultBufferSize = 100

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string // defaults to "interval-timer"
	BufferSize int    // defaults to DefaultBufferSize
	Logger     *log.Logger
	Now        func() time.Time
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	outbox   *outbox
	connects int
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	if opts.ClientID == "" {
		opts.ClientID = "interval-timer"
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	p := &RealPublisher{
		logger: opts.Logger,
		now:    opts.Now,
		outbox: newOutbox(opts.BufferSize, opts.Logger),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: opts.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.logger.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(clientOpts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect replays the outbox and, after a reconnect, follows the replay
// with a RECONNECTED event whose reason carries the number of messages lost
// to eviction.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connects++
	reconnect := p.connects > 1
	pending, dropped := p.outbox.drain()
	p.mu.Unlock()

	for _, msg := range pending {
		c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	}
	if !reconnect {
		return
	}

	p.logger.Printf("mqtt: reconnected, replayed %d messages (%d dropped)", len(pending), dropped)
	event := SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"}
	if dropped > 0 {
		event.Reason = fmt.Sprintf("DROPPED_%d", dropped)
	}
	payload, _ := FormatSystemPayload(event)
	c.Publish(TopicSystem, 1, false, payload)
}

// publish sends payload, or queues it in the outbox while the connection is
// down. QoS 0 messages are not queued.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		if qos == 0 {
			return nil
		}
		p.mu.Lock()
		p.outbox.push(pendingMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Announce sends an announcement. QoS 0: a late announcement is useless.
func (p *RealPublisher) Announce(text string) error {
	payload, err := FormatAnnouncePayload(p.now(), text)
	if err != nil {
		return fmt.Errorf("format announce payload: %w", err)
	}
	return p.publish(TopicAnnounce, 0, false, payload)
}

// Notify sends a user notification.
func (p *RealPublisher) Notify(title, body string) error {
	payload, err := FormatNotifyPayload(p.now(), title, body)
	if err != nil {
		return fmt.Errorf("format notify payload: %w", err)
	}
	return p.publish(TopicNotify, 1, false, payload)
}

// WorkoutTransition sends a workout phase change.
func (p *RealPublisher) WorkoutTransition(event logic.Event, cue string) error {
	payload, err := FormatWorkoutPayload(event, cue)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(Topic, 1, false, payload)
}

// ProtectionTransition sends a protection phase change.
func (p *RealPublisher) ProtectionTransition(event logic.ProtectionEvent, cue string) error {
	payload, err := FormatProtectionPayload(event, cue)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(Topic, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns how many messages are waiting for a reconnect.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
