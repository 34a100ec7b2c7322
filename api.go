package ares

import (
	base "github.com/NkanyeziNgobese/ares-1/pkg/ares"
)

// Re-exported errors for convenience.
var (
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
	ErrChannelSinkFull   = base.ErrChannelSinkFull
	ErrEmptySample       = base.ErrEmptySample
	ErrPublisherClosed   = base.ErrPublisherClosed
	ErrRuntimeClosed     = base.ErrRuntimeClosed
)

// Type aliases so consumers can import github.com/NkanyeziNgobese/ares-1 directly.
type (
	Config                  = base.Config
	Policy                  = base.Policy
	EngineConfig            = base.EngineConfig
	ThresholdRule           = base.ThresholdRule
	ZoneConfig              = base.ZoneConfig
	MQTTConfig              = base.MQTTConfig
	OPCUAConfig             = base.OPCUAConfig
	OPCUANodeConfig         = base.OPCUANodeConfig
	ReplayConfig            = base.ReplayConfig
	TerrainConfig           = base.TerrainConfig
	AnomalyConfig           = base.AnomalyConfig
	OutputsConfig           = base.OutputsConfig
	TimescaleConfig         = base.TimescaleConfig
	MetricsConfig           = base.MetricsConfig
	LogConfig               = base.LogConfig
	Flow                    = base.Flow
	SourceOption            = base.SourceOption
	TuneOption              = base.TuneOption
	OutputOption            = base.OutputOption
	Runtime                 = base.Runtime
	RuntimeOption           = base.RuntimeOption
	Sample                  = base.Sample
	Frame                   = base.Frame
	Event                   = base.Event
	FrameHandler            = base.FrameHandler
	Collector               = base.Collector
	Mailbox                 = base.Mailbox
	Sink                    = base.Sink
	Transformer             = base.Transformer
	Observability           = base.Observability
	Field                   = base.Field
	TerrainMetrics          = base.TerrainMetrics
	ReplayTable             = base.ReplayTable
	ReplayOptions           = base.ReplayOptions
	Channel                 = base.Channel
	ExternalPublisher       = base.ExternalPublisher
	ExternalPublisherConfig = base.ExternalPublisherConfig
)

const (
	SourceMQTT   = base.SourceMQTT
	SourceOPCUA  = base.SourceOPCUA
	SourceReplay = base.SourceReplay
)

// Channels in wire order.
const (
	Depth   = base.Depth
	ROP     = base.ROP
	WOB     = base.WOB
	RPM     = base.RPM
	Torque  = base.Torque
	FlowIn  = base.FlowIn
	FlowOut = base.FlowOut
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

func DefaultConfig() Config {
	return base.DefaultConfig()
}

func DefaultAnomalyConfig() AnomalyConfig {
	return base.DefaultAnomalyConfig()
}

// Flow builder helpers.
func Conf(path string) (*Flow, error) {
	return base.Conf(path)
}

func ConfFromConfig(cfg *Config) (*Flow, error) {
	return base.ConfFromConfig(cfg)
}

func FromReplay(file string, hz float64) SourceOption {
	return base.FromReplay(file, hz)
}

func FromBroker(host string, port int) SourceOption {
	return base.FromBroker(host, port)
}

func FromCollector(col Collector) SourceOption {
	return base.FromCollector(col)
}

func TuneTickHz(hz float64) TuneOption {
	return base.TuneTickHz(hz)
}

func TuneSmoothing(enabled bool, alpha float64) TuneOption {
	return base.TuneSmoothing(enabled, alpha)
}

func TuneThresholds(rules ...ThresholdRule) TuneOption {
	return base.TuneThresholds(rules...)
}

func TuneZones(z ZoneConfig) TuneOption {
	return base.TuneZones(z)
}

func TuneTorqueAnomaly(cfg AnomalyConfig) TuneOption {
	return base.TuneTorqueAnomaly(cfg)
}

func ToSink(s Sink) OutputOption {
	return base.ToSink(s)
}

func ToCallback(name string, fn FrameHandler) OutputOption {
	return base.ToCallback(name, fn)
}

func ToFiles(dir string) OutputOption {
	return base.ToFiles(dir)
}

func ToTimescale(dsn string) OutputOption {
	return base.ToTimescale(dsn)
}

func ToEventTopics() OutputOption {
	return base.ToEventTopics()
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithCollector(col Collector) RuntimeOption {
	return base.WithCollector(col)
}

func WithSink(s Sink) RuntimeOption {
	return base.WithSink(s)
}

func WithMailbox(mb Mailbox) RuntimeOption {
	return base.WithMailbox(mb)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

// Sink adapters.
func NewCallbackSink(name string, fn FrameHandler) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan Frame, func()) {
	return base.NewChannelSink(name, buffer)
}

// Samples and geology.
func NewSample(depth, rop, wob, rpm, torque, flowIn, flowOut float64) Sample {
	return base.NewSample(depth, rop, wob, rpm, torque, flowIn, flowOut)
}

func DefaultZones() ZoneConfig {
	return base.DefaultZones()
}

func LoadTerrain(path string) (TerrainMetrics, error) {
	return base.LoadTerrain(path)
}

func LoadReplayTable(path string, opts ReplayOptions) (*ReplayTable, error) {
	return base.LoadReplayTable(path, opts)
}

// External publisher.
func NewExternalPublisher(cfg *ExternalPublisherConfig, handler FrameHandler) (*ExternalPublisher, error) {
	return base.NewExternalPublisher(cfg, handler)
}
