package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

type recordingObs struct {
	mu       sync.Mutex
	rejected []string
}

func (r *recordingObs) LogInfo(string, ...ports.Field)         {}
func (r *recordingObs) LogError(string, error, ...ports.Field) {}
func (r *recordingObs) LogCritical(string, error, ...ports.Field) {
}
func (r *recordingObs) IncCounter(string, float64)     {}
func (r *recordingObs) ObserveLatency(string, float64) {}
func (r *recordingObs) SetGauge(string, float64)       {}
func (r *recordingObs) RecordRejected(source string, _ []byte, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, source)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	p.sent = append(p.sent, published{topic: topic, payload: payload.([]byte)})
	return fakeToken{err: p.err}
}

func newWiredCollector(t *testing.T) (*Collector, *recordingObs, chan domain.Sample) {
	t.Helper()
	obs := &recordingObs{}
	c, err := NewCollector(Config{}, obs)
	require.NoError(t, err)
	out := make(chan domain.Sample, 16)
	c.out = out
	c.stop = make(chan struct{})
	return c, obs, out
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "tcp://localhost:1883", cfg.BrokerURL())
	assert.Equal(t, []string{DefaultTelemetryFilter}, cfg.Topics)

	cfg.QoS = 3
	assert.Error(t, cfg.Validate())
	cfg.QoS = 1
	cfg.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestCollectorCombinedTopic(t *testing.T) {
	c, _, out := newWiredCollector(t)

	c.onMessage(nil, fakeMessage{
		topic:   "ares1/telemetry/main",
		payload: []byte(`{"depth":-1250.5,"rop":28.3,"wob":14.7,"rpm":132,"torque":24.9,"flowIn":805,"flowOut":796,"status":"x"}`),
	})

	require.Len(t, out, 1)
	s := <-out
	assert.Equal(t, domain.NewSample(-1250.5, 28.3, 14.7, 132, 24.9, 805, 796), s)
}

func TestCollectorPerSignalTopicsAssemble(t *testing.T) {
	c, _, out := newWiredCollector(t)

	c.onMessage(nil, fakeMessage{topic: "ares1/telemetry/depth", payload: []byte(`{"value":-100,"unit":"m"}`)})
	c.onMessage(nil, fakeMessage{topic: "ares1/telemetry/rpm", payload: []byte(`{"value":90,"unit":"rpm"}`)})
	c.onMessage(nil, fakeMessage{topic: "ares1/telemetry/hookload", payload: []byte(`{"value":1}`)})

	require.Len(t, out, 2)
	<-out
	s := <-out
	assert.Equal(t, -100.0, s.Get(domain.Depth))
	assert.Equal(t, 90.0, s.Get(domain.RPM))
}

func TestCollectorCombinedPayloadReplacesWholeSample(t *testing.T) {
	c, _, out := newWiredCollector(t)

	c.onMessage(nil, fakeMessage{
		topic:   "ares1/telemetry/main",
		payload: []byte(`{"depth":-1250.5,"rop":28.3,"wob":14.7,"rpm":132,"torque":24.9,"flowIn":805,"flowOut":796}`),
	})
	c.onMessage(nil, fakeMessage{topic: "ares1/telemetry/main", payload: []byte(`{"depth":-1251,"flowIn":805}`)})

	require.Len(t, out, 2)
	<-out
	s := <-out
	assert.Equal(t, -1251.0, s.Get(domain.Depth))
	assert.Equal(t, 805.0, s.Get(domain.FlowIn))
	for _, ch := range []domain.Channel{domain.ROP, domain.WOB, domain.RPM, domain.Torque, domain.FlowOut} {
		_, ok := s.Value(ch)
		assert.False(t, ok, "%s carried over from the earlier record", ch)
	}

	// Per-signal updates build on the latest combined record.
	c.onMessage(nil, fakeMessage{topic: "ares1/telemetry/rop", payload: []byte(`{"value":3.5}`)})
	require.Len(t, out, 1)
	s = <-out
	assert.Equal(t, -1251.0, s.Get(domain.Depth))
	assert.Equal(t, 3.5, s.Get(domain.ROP))
	_, ok := s.Value(domain.WOB)
	assert.False(t, ok)
}

func TestCollectorRejectsMalformedPayload(t *testing.T) {
	c, obs, out := newWiredCollector(t)

	c.onMessage(nil, fakeMessage{topic: "ares1/telemetry/main", payload: []byte(`{"depth":`)})
	c.onMessage(nil, fakeMessage{topic: "ares1/telemetry/torque", payload: []byte(`{"unit":"kNm"}`)})

	assert.Empty(t, out)
	assert.Equal(t, []string{"mqtt:ares1/telemetry/main", "mqtt:ares1/telemetry/torque"}, obs.rejected)
}

func TestCollectorStopBeforeStart(t *testing.T) {
	c, err := NewCollector(Config{}, &recordingObs{})
	require.NoError(t, err)
	assert.NoError(t, c.Stop())

	_, err = NewCollector(Config{}, nil)
	assert.Error(t, err)
}

func TestEventSinkPublishesPerType(t *testing.T) {
	pub := &fakePublisher{}
	s := NewEventSink(pub, "", 0, time.Second)

	f := &domain.Frame{Events: []domain.Event{
		{ID: "1", Type: domain.EventMissionState, From: "unknown", To: "drilling"},
		{ID: "2", Type: domain.EventTorqueAnomaly, Value: 4.2},
	}}
	require.NoError(t, s.WriteFrame(f))
	require.NoError(t, s.WriteFrame(&domain.Frame{}))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "ares1/events/mission_state", pub.sent[0].topic)
	assert.Equal(t, "ares1/events/torque_anomaly", pub.sent[1].topic)

	var ev domain.Event
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &ev))
	assert.Equal(t, "drilling", ev.To)
	assert.NoError(t, s.Close())
}

func TestEventSinkReportsPublishErrors(t *testing.T) {
	boom := errors.New("not connected")
	s := NewEventSink(&fakePublisher{err: boom}, "rig/events", 1, 0)

	err := s.WriteFrame(&domain.Frame{Events: []domain.Event{{Type: domain.EventLink}}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "rig/events/link", s.Topic(domain.EventLink))
	assert.Equal(t, "rig/events/anomaly", s.Topic(domain.EventTorqueAnomaly))
}
