package ares

import (
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/mqtt"
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/opcua"
	"github.com/NkanyeziNgobese/ares-1/internal/anomaly"
	"github.com/NkanyeziNgobese/ares-1/internal/app/config"
	"github.com/NkanyeziNgobese/ares-1/internal/engine"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy sizes the collector buffer and mailbox backlog.
	Policy = ports.Policy
	// EngineConfig is the tick engine configuration surface.
	EngineConfig = engine.Config
	// ThresholdRule is one per-channel alarm rule.
	ThresholdRule = engine.ThresholdRule
	// ZoneConfig holds the geology classification constants.
	ZoneConfig = engine.ZoneConfig
	// MQTTConfig configures the broker connection.
	MQTTConfig = mqtt.Config
	// OPCUAConfig holds connection + node details.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig binds a monitored tag to a channel.
	OPCUANodeConfig = opcua.NodeConfig
	ReplayConfig    = config.ReplayConfig
	TerrainConfig   = config.TerrainConfig
	AnomalyConfig   = anomaly.TorqueConfig
	OutputsConfig   = config.OutputsConfig
	// TimescaleConfig configures the SQL sink.
	TimescaleConfig = config.TimescaleConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	LogConfig     = config.LogConfig
)

const (
	SourceMQTT   = config.SourceMQTT
	SourceOPCUA  = config.SourceOPCUA
	SourceReplay = config.SourceReplay
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes and validates YAML held in memory.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}

// DefaultConfig returns an unvalidated configuration with every default set.
func DefaultConfig() Config {
	return config.Default()
}

// DefaultAnomalyConfig returns the torque detector defaults.
func DefaultAnomalyConfig() AnomalyConfig {
	return anomaly.DefaultTorqueConfig()
}
