// Package telemetry turns transport payloads into domain samples and back.
//
// Two payload shapes are understood. The combined shape is a flat JSON object
// keyed by channel name (depth, rop, wob, rpm, torque, flowIn, flowOut) and is
// published on a single topic. The per-signal shape is {"value": <number>}
// published on one topic per channel, where the last topic segment names the
// channel. Unknown keys and unknown signal topics are ignored.
package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

// ErrDecode is matched by every DecodeError.
var ErrDecode = errors.New("telemetry: decode failed")

// DecodeError describes why a payload was rejected. Field is empty when the
// payload as a whole could not be parsed.
type DecodeError struct {
	Field  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "telemetry: decode"
	if e.Field != "" {
		msg += " field " + strconv.Quote(e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// aliases lists accepted keys per channel; the canonical key wins when a
// payload carries more than one.
var aliases = [domain.ChannelCount][]string{
	domain.Depth:   {"depth"},
	domain.ROP:     {"rop"},
	domain.WOB:     {"wob"},
	domain.RPM:     {"rpm"},
	domain.Torque:  {"torque"},
	domain.FlowIn:  {"flowIn", "flow_in"},
	domain.FlowOut: {"flowOut", "flow_out"},
}

// Decode parses a combined payload. Channels missing from the payload are
// left absent; a channel that is present but not a finite number rejects the
// whole payload.
func Decode(payload []byte) (domain.Sample, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return domain.Sample{}, &DecodeError{Reason: "payload is not a JSON object", Err: err}
	}
	if fields == nil {
		return domain.Sample{}, &DecodeError{Reason: "payload is null"}
	}

	var s domain.Sample
	for _, c := range domain.Channels() {
		for _, key := range aliases[c] {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			v, present, err := parseNumber(raw)
			if err != nil {
				return domain.Sample{}, &DecodeError{Field: key, Reason: "not a finite number", Err: err}
			}
			if present {
				s = s.With(c, v)
			}
			break
		}
	}
	return s, nil
}

// DecodeValue parses a per-signal payload. Both {"value": x} and a bare
// number are accepted.
func DecodeValue(payload []byte) (float64, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		v, present, err := parseNumber(trimmed)
		if err != nil {
			return 0, &DecodeError{Field: "value", Reason: "not a finite number", Err: err}
		}
		if !present {
			return 0, &DecodeError{Field: "value", Reason: "missing"}
		}
		return v, nil
	}

	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return 0, &DecodeError{Reason: "payload is not a JSON object", Err: err}
	}
	if body.Value == nil {
		return 0, &DecodeError{Field: "value", Reason: "missing"}
	}
	v, present, err := parseNumber(body.Value)
	if err != nil {
		return 0, &DecodeError{Field: "value", Reason: "not a finite number", Err: err}
	}
	if !present {
		return 0, &DecodeError{Field: "value", Reason: "missing"}
	}
	return v, nil
}

// DecodeMessage routes a payload by topic. When the last topic segment names
// a channel the payload is read as a per-signal value, otherwise as a combined
// record. The returned sample may be partial or empty.
func DecodeMessage(topic string, payload []byte) (domain.Sample, error) {
	if c, ok := SignalTopic(topic); ok {
		v, err := DecodeValue(payload)
		if err != nil {
			return domain.Sample{}, err
		}
		return domain.Sample{}.With(c, v), nil
	}
	return Decode(payload)
}

type wireSample struct {
	Depth   *float64 `json:"depth,omitempty"`
	ROP     *float64 `json:"rop,omitempty"`
	WOB     *float64 `json:"wob,omitempty"`
	RPM     *float64 `json:"rpm,omitempty"`
	Torque  *float64 `json:"torque,omitempty"`
	FlowIn  *float64 `json:"flowIn,omitempty"`
	FlowOut *float64 `json:"flowOut,omitempty"`
}

// Encode writes the present channels of s as a combined payload.
func Encode(s domain.Sample) ([]byte, error) {
	pick := func(c domain.Channel) *float64 {
		v, ok := s.Value(c)
		if !ok {
			return nil
		}
		return &v
	}
	for _, c := range domain.Channels() {
		if v, ok := s.Value(c); ok && !isFinite(v) {
			return nil, fmt.Errorf("telemetry: encode %s: value %v is not finite", c, v)
		}
	}
	return json.Marshal(wireSample{
		Depth:   pick(domain.Depth),
		ROP:     pick(domain.ROP),
		WOB:     pick(domain.WOB),
		RPM:     pick(domain.RPM),
		Torque:  pick(domain.Torque),
		FlowIn:  pick(domain.FlowIn),
		FlowOut: pick(domain.FlowOut),
	})
}

// EncodeValue writes a per-signal payload.
func EncodeValue(v float64, unit string) ([]byte, error) {
	if !isFinite(v) {
		return nil, fmt.Errorf("telemetry: encode value %v is not finite", v)
	}
	return json.Marshal(struct {
		Value float64 `json:"value"`
		Unit  string  `json:"unit,omitempty"`
	}{Value: v, Unit: unit})
}

// parseNumber accepts JSON numbers and numeric strings. A JSON null counts
// as an absent field.
func parseNumber(raw json.RawMessage) (float64, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}

	var v float64
	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false, err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0, false, err
		}
		v = parsed
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false, err
	}

	if !isFinite(v) {
		return 0, false, fmt.Errorf("value %v out of range", v)
	}
	return v, true, nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// SignalTopic reports the channel a per-signal topic carries. Combined and
// unknown signal topics report false.
func SignalTopic(topic string) (domain.Channel, bool) {
	return domain.ParseChannel(lastSegment(topic))
}

func lastSegment(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
