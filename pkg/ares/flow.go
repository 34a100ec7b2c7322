package ares

import (
	"context"
	"errors"
	"fmt"
)

// Flow assembles a Runtime in three steps: where samples come from (From),
// how the engine is tuned (Tune) and where frames go (To). The loaded Config
// is copied, so the caller's value is never modified.
//
//	flow, err := ares.Conf("config.yaml")
//	rt, err := flow.
//		From(ares.FromReplay("volve.csv", 20)).
//		Tune(ares.TuneSmoothing(true, 0.3), ares.TuneTorqueAnomaly(ares.DefaultAnomalyConfig())).
//		To(ares.ToCallback("hud", render)).
//		Build()
type Flow struct {
	cfg  Config
	opts []RuntimeOption
	err  error
}

// SourceOption picks where samples come from.
type SourceOption func(*Flow) error

// TuneOption adjusts the engine and detector settings.
type TuneOption func(*Config) error

// OutputOption adds a frame destination.
type OutputOption func(*Flow) error

// Conf loads YAML from disk and returns a Flow over it.
func Conf(path string) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg)
}

// ConfFromConfig starts a Flow from a copy of cfg.
func ConfFromConfig(cfg *Config) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &Flow{cfg: *cfg}, nil
}

// Config returns the Flow's working copy of the configuration.
func (f *Flow) Config() *Config { return &f.cfg }

// From sets the sample source. The last call wins.
func (f *Flow) From(src SourceOption) *Flow {
	if src != nil {
		f.record(src(f))
	}
	return f
}

// Tune applies engine settings in order.
func (f *Flow) Tune(opts ...TuneOption) *Flow {
	for _, opt := range opts {
		if opt != nil {
			f.record(opt(&f.cfg))
		}
	}
	return f
}

// To adds frame destinations. Once a sink or callback is added the file,
// Timescale and event outputs from the config are not opened.
func (f *Flow) To(opts ...OutputOption) *Flow {
	for _, opt := range opts {
		if opt != nil {
			f.record(opt(f))
		}
	}
	return f
}

// Observe replaces the default zap/Prometheus observability.
func (f *Flow) Observe(obs Observability) *Flow {
	if obs != nil {
		f.opts = append(f.opts, WithObservability(obs))
	}
	return f
}

// Options appends raw RuntimeOption values, such as WithMailbox.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
	return f
}

// Build returns the first error recorded by any stage, or a Runtime ready to
// Start.
func (f *Flow) Build() (*Runtime, error) {
	if f.err != nil {
		return nil, f.err
	}
	cfg := f.cfg
	return NewRuntime(&cfg, f.opts...)
}

// Run builds the Runtime and blocks until ctx is cancelled.
func (f *Flow) Run(ctx context.Context) error {
	rt, err := f.Build()
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

func (f *Flow) record(err error) {
	if err != nil && f.err == nil {
		f.err = err
	}
}

// FromReplay replays a CSV/XLSX drilling table at hz rows per second. A zero
// hz keeps replay.hz from the config.
func FromReplay(file string, hz float64) SourceOption {
	return func(f *Flow) error {
		if file == "" {
			return errors.New("ares: replay file is required")
		}
		if hz < 0 {
			return fmt.Errorf("ares: replay hz must be positive, got %g", hz)
		}
		f.cfg.Source = SourceReplay
		f.cfg.Replay.File = file
		if hz > 0 {
			f.cfg.Replay.Hz = hz
		}
		return nil
	}
}

// FromBroker subscribes to the telemetry topics on host:port.
func FromBroker(host string, port int) SourceOption {
	return func(f *Flow) error {
		if host == "" {
			return errors.New("ares: broker host is required")
		}
		f.cfg.Source = SourceMQTT
		f.cfg.MQTT.Host = host
		f.cfg.MQTT.Port = port
		f.cfg.MQTT.ApplyDefaults()
		return f.cfg.MQTT.Validate()
	}
}

// FromCollector reads samples from col, for simulators or other transports.
func FromCollector(col Collector) SourceOption {
	return func(f *Flow) error {
		if col == nil {
			return errors.New("ares: collector is nil")
		}
		f.opts = append(f.opts, WithCollector(col))
		return nil
	}
}

// TuneTickHz sets the engine tick rate.
func TuneTickHz(hz float64) TuneOption {
	return func(c *Config) error {
		if hz <= 0 {
			return fmt.Errorf("ares: tick_hz must be positive, got %g", hz)
		}
		c.Engine.TickHz = hz
		return nil
	}
}

// TuneSmoothing sets the global smoothing switch and factor. A zero alpha
// keeps the configured one.
func TuneSmoothing(enabled bool, alpha float64) TuneOption {
	return func(c *Config) error {
		if alpha < 0 || alpha > 1 {
			return fmt.Errorf("ares: smoothing alpha must be in [0, 1], got %g", alpha)
		}
		c.Engine.Smoothing.Enabled = enabled
		if alpha != 0 {
			c.Engine.Smoothing.Alpha = alpha
		}
		return nil
	}
}

// TuneThresholds replaces the alarm rules.
func TuneThresholds(rules ...ThresholdRule) TuneOption {
	return func(c *Config) error {
		c.Engine.Thresholds = append([]ThresholdRule(nil), rules...)
		return nil
	}
}

// TuneZones replaces the geology zone constants.
func TuneZones(z ZoneConfig) TuneOption {
	return func(c *Config) error {
		c.Engine.Zones = z
		return nil
	}
}

// TuneTorqueAnomaly enables the torque anomaly detector with cfg.
func TuneTorqueAnomaly(cfg AnomalyConfig) TuneOption {
	return func(c *Config) error {
		cfg.Enabled = true
		c.Anomaly = cfg
		return nil
	}
}

// ToSink sends every frame to s.
func ToSink(s Sink) OutputOption {
	return func(f *Flow) error {
		if s == nil {
			return errors.New("ares: sink is nil")
		}
		f.opts = append(f.opts, WithSink(s))
		return nil
	}
}

// ToCallback calls fn with a copy of every frame.
func ToCallback(name string, fn FrameHandler) OutputOption {
	return func(f *Flow) error {
		if fn == nil {
			return errors.New("ares: callback is nil")
		}
		f.opts = append(f.opts, WithSink(NewCallbackSink(name, fn)))
		return nil
	}
}

// ToFiles writes the raw, latest and event logs under dir.
func ToFiles(dir string) OutputOption {
	return func(f *Flow) error {
		if dir == "" {
			return errors.New("ares: outputs dir is required")
		}
		f.cfg.Outputs.Dir = dir
		f.cfg.Outputs.Disabled = false
		return nil
	}
}

// ToTimescale batches frames into a Postgres/Timescale table.
func ToTimescale(dsn string) OutputOption {
	return func(f *Flow) error {
		if dsn == "" {
			return errors.New("ares: timescale dsn is required")
		}
		f.cfg.Timescale.DSN = dsn
		return nil
	}
}

// ToEventTopics publishes engine events to the broker's events topics.
func ToEventTopics() OutputOption {
	return func(f *Flow) error {
		f.cfg.Outputs.PublishEvents = true
		f.cfg.MQTT.ApplyDefaults()
		return f.cfg.MQTT.Validate()
	}
}
