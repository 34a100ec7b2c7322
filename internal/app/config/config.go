package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/NkanyeziNgobese/ares-1/internal/adapters/mqtt"
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/opcua"
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/terrain"
	"github.com/NkanyeziNgobese/ares-1/internal/anomaly"
	"github.com/NkanyeziNgobese/ares-1/internal/engine"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
	"github.com/NkanyeziNgobese/ares-1/internal/replay"
)

const (
	SourceMQTT   = "mqtt"
	SourceOPCUA  = "opcua"
	SourceReplay = "replay"
)

type Config struct {
	Source    string               `yaml:"source"`
	Engine    engine.Config        `yaml:"engine"`
	Policy    ports.Policy         `yaml:"policy"`
	MQTT      mqtt.Config          `yaml:"mqtt"`
	OPCUA     opcua.Config         `yaml:"opcua"`
	Replay    ReplayConfig         `yaml:"replay"`
	Terrain   TerrainConfig        `yaml:"terrain"`
	Anomaly   anomaly.TorqueConfig `yaml:"anomaly"`
	Outputs   OutputsConfig        `yaml:"outputs"`
	Timescale TimescaleConfig      `yaml:"timescale"`
	Metrics   MetricsConfig        `yaml:"metrics"`
	Log       LogConfig            `yaml:"log"`
}

// ReplayConfig drives the table replay source. Origin and TD default to the
// terrain wellbore datum.
type ReplayConfig struct {
	File    string         `yaml:"file"`
	Hz      float64        `yaml:"hz"`
	Options replay.Options `yaml:"options"`
	Origin  float64        `yaml:"origin"`
	TD      float64        `yaml:"td"`
}

// TerrainConfig points at the terrain metrics workbook. When Path is set the
// workbook's geology boundaries replace engine.zones.
type TerrainConfig struct {
	Path string `yaml:"path"`
}

// OutputsConfig controls the local file logs and whether engine events are
// published back to the broker under mqtt.event_prefix.
type OutputsConfig struct {
	Dir           string `yaml:"dir" env:"ARES_OUTPUTS_DIR"`
	Disabled      bool   `yaml:"disabled"`
	PublishEvents bool   `yaml:"publish_events"`
}

// TimescaleConfig enables the Postgres/Timescale sink when DSN is set.
type TimescaleConfig struct {
	DSN       string `yaml:"dsn" env:"ARES_TIMESCALE_DSN"`
	Table     string `yaml:"table"`
	BatchSize int    `yaml:"batch_size"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Source:  SourceMQTT,
		Engine:  engine.DefaultConfig(),
		Anomaly: anomaly.DefaultTorqueConfig(),
	}
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes YAML over the defaults, applies environment overrides and
// validates the result.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.applyTerrain(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyTerrain() error {
	metrics := terrain.Defaults()
	if c.Terrain.Path != "" {
		m, err := terrain.Load(c.Terrain.Path)
		if err != nil {
			return fmt.Errorf("config: terrain: %w", err)
		}
		metrics = m
		c.Engine.Zones = m.Zones
	}
	if c.Replay.Origin == 0 {
		c.Replay.Origin = metrics.Origin
	}
	if c.Replay.TD == 0 {
		c.Replay.TD = metrics.TD
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	c.Engine.ApplyDefaults()

	c.Policy.TickInterval = c.Engine.TickInterval()
	if c.Policy.MaxBacklog == 0 {
		c.Policy.MaxBacklog = 64
	}
	if c.Policy.CollectorBuf == 0 {
		c.Policy.CollectorBuf = 256
	}
	if c.Replay.Hz == 0 {
		c.Replay.Hz = c.Engine.TickHz
	}
	if c.Outputs.Dir == "" {
		c.Outputs.Dir = "./outputs"
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = "drilling_frames"
	}
	if c.Timescale.BatchSize == 0 {
		c.Timescale.BatchSize = 50
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.MQTT.ApplyDefaults()
	if c.Source == SourceOPCUA {
		c.OPCUA.ApplyDefaults()
	}
}

// UsesBroker reports whether the runtime needs an MQTT connection.
func (c *Config) UsesBroker() bool {
	return c.Source == SourceMQTT || c.Outputs.PublishEvents
}

func (c *Config) validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if c.UsesBroker() {
		if err := c.MQTT.Validate(); err != nil {
			return fmt.Errorf("mqtt config: %w", err)
		}
	}

	switch c.Source {
	case SourceMQTT:
	case SourceOPCUA:
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	case SourceReplay:
		if c.Replay.File == "" {
			return errors.New("replay.file is required")
		}
		if c.Replay.Hz < 0 {
			return fmt.Errorf("replay.hz must be positive, got %g", c.Replay.Hz)
		}
	default:
		return fmt.Errorf("source %q must be one of mqtt, opcua, replay", c.Source)
	}

	if c.Anomaly.Enabled {
		if _, err := anomaly.NewTorqueDetector(c.Anomaly); err != nil {
			return fmt.Errorf("anomaly config: %w", err)
		}
	}
	if c.Policy.MaxBacklog < 0 || c.Policy.CollectorBuf < 0 {
		return errors.New("policy sizes must not be negative")
	}
	if c.Timescale.BatchSize < 0 {
		return errors.New("timescale.batch_size must not be negative")
	}
	if c.Metrics.Addr == "" {
		return errors.New("metrics.addr is required")
	}
	switch c.Log.Level {
	case "info", "debug":
	default:
		return fmt.Errorf("log.level %q must be info or debug", c.Log.Level)
	}
	return nil
}
