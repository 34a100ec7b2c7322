package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NkanyeziNgobese/ares-1/internal/adapters/terrain"
	"github.com/NkanyeziNgobese/ares-1/internal/engine"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
source: replay
replay:
  file: ./data/karoo.csv
engine:
  tick_hz: 20
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Policy.TickInterval != 50*time.Millisecond {
		t.Fatalf("expected tick interval 50ms, got %s", cfg.Policy.TickInterval)
	}
	if cfg.Replay.Hz != 20 {
		t.Fatalf("expected replay hz to follow tick_hz, got %g", cfg.Replay.Hz)
	}
	if cfg.Replay.Origin != terrain.DefaultOrigin || cfg.Replay.TD != terrain.DefaultTD {
		t.Fatalf("expected terrain datum defaults, got %g..%g", cfg.Replay.Origin, cfg.Replay.TD)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Outputs.Dir != "./outputs" {
		t.Fatalf("expected default outputs dir, got %s", cfg.Outputs.Dir)
	}
	if len(cfg.Engine.Thresholds) != len(engine.DefaultConfig().Thresholds) {
		t.Fatalf("expected default threshold rules to survive a partial engine block")
	}
	if !cfg.Anomaly.Enabled {
		t.Fatalf("expected torque anomaly detection on by default")
	}
	if cfg.UsesBroker() {
		t.Fatalf("replay without publish_events should not need a broker")
	}
}

func TestEnvOverridesBrokerAndOutputs(t *testing.T) {
	t.Setenv("MQTT_BROKER_HOST", "broker.rig.local")
	t.Setenv("MQTT_BROKER_PORT", "8883")
	t.Setenv("ARES_OUTPUTS_DIR", "/var/lib/ares")

	cfg, err := Parse([]byte("source: mqtt\nmqtt:\n  host: ignored\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MQTT.Host != "broker.rig.local" || cfg.MQTT.Port != 8883 {
		t.Fatalf("expected env broker override, got %s", cfg.MQTT.BrokerURL())
	}
	if cfg.Outputs.Dir != "/var/lib/ares" {
		t.Fatalf("expected env outputs dir, got %s", cfg.Outputs.Dir)
	}
	if cfg.MQTT.Topics[0] != "ares1/telemetry/#" {
		t.Fatalf("expected default telemetry filter, got %v", cfg.MQTT.Topics)
	}
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown source", "source: serial", "source"},
		{"replay without file", "source: replay", "replay.file"},
		{"opcua without endpoint", "source: opcua", "opcua config"},
		{"bad log level", "source: replay\nreplay: {file: a.csv}\nlog: {level: trace}", "log.level"},
		{"bad anomaly window", "source: replay\nreplay: {file: a.csv}\nanomaly: {window: 1}", "anomaly config"},
		{"bad qos", "source: mqtt\nmqtt: {qos: 3}", "qos"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestParseSurfacesEngineConfigError(t *testing.T) {
	data := `
source: replay
replay: {file: a.csv}
engine:
  freshness:
    stale_after: 5s
    disconnected_after: 2s
`
	_, err := Parse([]byte(data))
	if !errors.Is(err, engine.ErrInvalidConfig) {
		t.Fatalf("expected engine config error, got %v", err)
	}
	var cerr *engine.ConfigError
	if !errors.As(err, &cerr) || cerr.Path != "freshness.stale_after" {
		t.Fatalf("expected freshness path, got %v", err)
	}
}

func TestLoadMissingTerrainWorkbook(t *testing.T) {
	_, err := Parse([]byte("source: replay\nreplay: {file: a.csv}\nterrain: {path: /nonexistent/terrain.xlsx}"))
	if err == nil || !strings.Contains(err.Error(), "terrain") {
		t.Fatalf("expected terrain error, got %v", err)
	}
}
