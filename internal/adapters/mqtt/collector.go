package mqtt

import (
	"errors"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
	"github.com/NkanyeziNgobese/ares-1/internal/telemetry"
)

// Collector subscribes to telemetry topics. Combined and per-signal
// payloads are decoded and merged into whole samples before they leave the
// paho callback goroutine.
type Collector struct {
	cfg Config
	obs ports.Observability
	asm *telemetry.Assembler

	newClient func(*paho.ClientOptions) paho.Client

	mu      sync.Mutex
	client  paho.Client
	out     chan<- domain.Sample
	stop    chan struct{}
	started bool
}

func NewCollector(cfg Config, obs ports.Observability) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, errors.New("mqtt: observability is required")
	}
	return &Collector{
		cfg:       cfg,
		obs:       obs,
		asm:       &telemetry.Assembler{},
		newClient: paho.NewClient,
	}, nil
}

func (c *Collector) Start(out chan<- domain.Sample) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("mqtt collector already started")
	}
	c.out = out
	c.stop = make(chan struct{})
	c.mu.Unlock()

	opts := c.clientOptions(c.cfg.ClientID + "-collector")
	// Subscriptions are re-established on every (re)connect.
	opts.SetOnConnectHandler(func(cl paho.Client) {
		for _, topic := range c.cfg.Topics {
			tok := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
			if !tok.WaitTimeout(c.cfg.ConnectTimeout) || tok.Error() != nil {
				c.obs.LogError("mqtt: subscribe failed", tok.Error(), ports.Field{Key: "topic", Value: topic})
				continue
			}
			c.obs.LogInfo("mqtt: subscribed", ports.Field{Key: "topic", Value: topic})
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.obs.LogError("mqtt: connection lost", err, ports.Field{Key: "broker", Value: c.cfg.BrokerURL()})
	})

	client := c.newClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt connect %s: timed out after %s", c.cfg.BrokerURL(), c.cfg.ConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", c.cfg.BrokerURL(), err)
	}

	c.mu.Lock()
	c.client = client
	c.started = true
	c.mu.Unlock()
	return nil
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	client := c.client
	close(c.stop)
	c.started = false
	c.client = nil
	c.mu.Unlock()

	client.Disconnect(250)
	return nil
}

func (c *Collector) onMessage(_ paho.Client, msg paho.Message) {
	c.handle(msg.Topic(), msg.Payload())
}

// handle decodes one broker message. Rejected payloads never reach the
// assembler, so they cannot disturb downstream state. Per-signal updates merge
// into the running sample; a combined record replaces it whole.
func (c *Collector) handle(topic string, payload []byte) {
	update, err := telemetry.DecodeMessage(topic, payload)
	if err != nil {
		c.obs.RecordRejected("mqtt:"+topic, payload, err)
		return
	}
	var (
		sample domain.Sample
		ok     bool
	)
	if _, signal := telemetry.SignalTopic(topic); signal {
		sample, ok = c.asm.Apply(update)
	} else {
		sample, ok = c.asm.Replace(update)
	}
	if !ok {
		return
	}

	c.mu.Lock()
	out, stop := c.out, c.stop
	c.mu.Unlock()
	if out == nil {
		return
	}
	select {
	case out <- sample:
	case <-stop:
	}
}

func (c *Collector) clientOptions(clientID string) *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(c.cfg.BrokerURL()).
		SetClientID(clientID).
		SetKeepAlive(c.cfg.KeepAlive).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}
	return opts
}

var _ ports.Collector = (*Collector)(nil)
