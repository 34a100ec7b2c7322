package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

// Publisher is the slice of paho.Client the event sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// EventSink publishes every engine event as JSON on <prefix>/<event type>.
type EventSink struct {
	pub     Publisher
	prefix  string
	qos     byte
	timeout time.Duration
	closer  func()
}

func NewEventSink(pub Publisher, prefix string, qos byte, timeout time.Duration) *EventSink {
	if prefix == "" {
		prefix = DefaultEventPrefix
	}
	return &EventSink{pub: pub, prefix: prefix, qos: qos, timeout: timeout}
}

// DialEventSink opens a dedicated broker connection for publishing.
func DialEventSink(cfg Config) (*EventSink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Collector{cfg: cfg}
	client := paho.NewClient(c.clientOptions(cfg.ClientID + "-events"))
	tok := client.Connect()
	if !tok.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", cfg.BrokerURL())
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.BrokerURL(), err)
	}
	s := NewEventSink(client, cfg.EventPrefix, cfg.QoS, cfg.PublishTimeout)
	s.closer = func() { client.Disconnect(250) }
	return s, nil
}

func (s *EventSink) Name() string { return "mqtt-events" }

// topicNames overrides the topic segment for event types whose subscribers
// predate the type name.
var topicNames = map[domain.EventType]string{
	domain.EventTorqueAnomaly: "anomaly",
}

// Topic returns the topic an event type is published on.
func (s *EventSink) Topic(t domain.EventType) string {
	if name, ok := topicNames[t]; ok {
		return s.prefix + "/" + name
	}
	return s.prefix + "/" + string(t)
}

func (s *EventSink) WriteFrame(f *domain.Frame) error {
	var errs []error
	for _, ev := range f.Events {
		body, err := json.Marshal(ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tok := s.pub.Publish(s.Topic(ev.Type), s.qos, false, body)
		if s.timeout > 0 && !tok.WaitTimeout(s.timeout) {
			errs = append(errs, fmt.Errorf("mqtt publish %s: timed out", s.Topic(ev.Type)))
			continue
		}
		if err := tok.Error(); err != nil {
			errs = append(errs, fmt.Errorf("mqtt publish %s: %w", s.Topic(ev.Type), err))
		}
	}
	return errors.Join(errs...)
}

func (s *EventSink) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}

var _ ports.Sink = (*EventSink)(nil)
