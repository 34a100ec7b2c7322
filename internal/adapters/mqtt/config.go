// Package mqtt connects the runtime to the telemetry broker: a collector for
// the ares1/telemetry topics and a sink that publishes engine events.
package mqtt

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultTelemetryFilter = "ares1/telemetry/#"
	DefaultEventPrefix     = "ares1/events"
)

type Config struct {
	Host           string        `yaml:"host" env:"MQTT_BROKER_HOST"`
	Port           int           `yaml:"port" env:"MQTT_BROKER_PORT"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Topics         []string      `yaml:"topics"`
	EventPrefix    string        `yaml:"event_prefix"`
	QoS            byte          `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 1883
	}
	if c.ClientID == "" {
		c.ClientID = "ares1-edge"
	}
	if len(c.Topics) == 0 {
		c.Topics = []string{DefaultTelemetryFilter}
	}
	if c.EventPrefix == "" {
		c.EventPrefix = DefaultEventPrefix
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 2 * time.Second
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 60 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("mqtt host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("mqtt port %d out of range", c.Port)
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt qos %d must be 0, 1 or 2", c.QoS)
	}
	return nil
}

// BrokerURL is the paho broker address.
func (c Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}
