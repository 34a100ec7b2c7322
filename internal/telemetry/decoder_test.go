package telemetry

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

func TestDecodeCombinedPayload(t *testing.T) {
	payload := []byte(`{"depth":-1250.5,"rop":28.3,"wob":14.7,"rpm":132,"torque":24.9,"flowIn":805,"flowOut":796,"status":"DRILLING"}`)

	s, err := Decode(payload)
	require.NoError(t, err)

	want := domain.NewSample(-1250.5, 28.3, 14.7, 132, 24.9, 805, 796)
	assert.Equal(t, want, s)
}

func TestDecodeMissingFieldsAreAbsent(t *testing.T) {
	s, err := Decode([]byte(`{"depth":-12,"rop":3}`))
	require.NoError(t, err)

	_, ok := s.Value(domain.WOB)
	assert.False(t, ok)
	assert.Equal(t, 0.0, s.Get(domain.WOB))
	assert.Equal(t, -12.0, s.Get(domain.Depth))
}

func TestDecodeAcceptsNumericStringsAndAliases(t *testing.T) {
	s, err := Decode([]byte(`{"rop":"18.5","flow_in":700}`))
	require.NoError(t, err)
	assert.Equal(t, 18.5, s.Get(domain.ROP))
	assert.Equal(t, 700.0, s.Get(domain.FlowIn))
}

func TestDecodeCanonicalKeyWinsOverAlias(t *testing.T) {
	s, err := Decode([]byte(`{"flow_in":1,"flowIn":2}`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Get(domain.FlowIn))
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{'depth': 1.0}`,
		"array":         `[1,2,3]`,
		"null":          `null`,
		"text field":    `{"rop":"fast"}`,
		"nan string":    `{"rop":"NaN"}`,
		"inf string":    `{"torque":"+Inf"}`,
		"overflow":      `{"depth":1e400}`,
		"bool field":    `{"wob":true}`,
		"truncated":     `{"depth":-1`,
		"nested object": `{"rpm":{"value":1}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))

			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}

func TestDecodeErrorNamesField(t *testing.T) {
	_, err := Decode([]byte(`{"depth":1,"rpm":"x"}`))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "rpm", de.Field)
	assert.Contains(t, err.Error(), `"rpm"`)
}

func TestDecodeNullFieldIsAbsent(t *testing.T) {
	s, err := Decode([]byte(`{"depth":null,"rop":1}`))
	require.NoError(t, err)
	_, ok := s.Value(domain.Depth)
	assert.False(t, ok)
}

func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue([]byte(`{"timestamp":"2026-01-24T10:00:00Z","value":120.5,"unit":"rpm","source":"synthetic"}`))
	require.NoError(t, err)
	assert.Equal(t, 120.5, v)

	v, err = DecodeValue([]byte(` 42 `))
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)

	_, err = DecodeValue([]byte(`{"unit":"rpm"}`))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodeValue([]byte(`{"value":null}`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeMessageRoutesByTopic(t *testing.T) {
	s, err := DecodeMessage("ares1/telemetry/torque", []byte(`{"value":31.2}`))
	require.NoError(t, err)
	assert.Equal(t, domain.Sample{}.With(domain.Torque, 31.2), s)

	s, err = DecodeMessage("ares1/telemetry/main", []byte(`{"depth":-5,"rop":2}`))
	require.NoError(t, err)
	assert.Equal(t, -5.0, s.Get(domain.Depth))

	s, err = DecodeMessage("ares1/telemetry/hookload", []byte(`{"value":300}`))
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		var s domain.Sample
		for _, c := range domain.Channels() {
			if rng.Intn(4) == 0 {
				continue
			}
			v := (rng.Float64() - 0.5) * math.Pow(10, float64(rng.Intn(12)-4))
			s = s.With(c, v)
		}

		payload, err := Encode(s)
		require.NoError(t, err)

		got, err := Decode(payload)
		require.NoError(t, err)
		if diff := cmp.Diff(s, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestEncodeRejectsNonFinite(t *testing.T) {
	_, err := Encode(domain.Sample{}.With(domain.ROP, math.NaN()))
	assert.Error(t, err)

	_, err = EncodeValue(math.Inf(1), "m")
	assert.Error(t, err)
}

func TestEncodeValueRoundTrip(t *testing.T) {
	payload, err := EncodeValue(-1300.25, "m")
	require.NoError(t, err)

	v, err := DecodeValue(payload)
	require.NoError(t, err)
	assert.Equal(t, -1300.25, v)
}

func TestAssemblerMergesPerSignalUpdates(t *testing.T) {
	var a Assembler

	_, ok := a.Apply(domain.Sample{})
	assert.False(t, ok)

	first, ok := a.Apply(domain.Sample{}.With(domain.Depth, -100))
	require.True(t, ok)
	second, ok := a.Apply(domain.Sample{}.With(domain.ROP, 20))
	require.True(t, ok)

	_, hasROP := first.Value(domain.ROP)
	assert.False(t, hasROP, "earlier snapshot must not change")
	assert.Equal(t, -100.0, second.Get(domain.Depth))
	assert.Equal(t, 20.0, second.Get(domain.ROP))
}

func TestAssemblerReplaceDropsEarlierChannels(t *testing.T) {
	var a Assembler
	a.Apply(domain.NewSample(-100, 20, 10, 90, 15, 800, 790))

	_, ok := a.Replace(domain.Sample{})
	assert.False(t, ok)
	assert.Equal(t, domain.AllChannels, a.Current().Present)

	got, ok := a.Replace(domain.Sample{}.With(domain.Depth, -101))
	require.True(t, ok)
	assert.Equal(t, domain.Sample{}.With(domain.Depth, -101), got)
	assert.Equal(t, got, a.Current())
}

func TestSignalTopic(t *testing.T) {
	c, ok := SignalTopic("ares1/telemetry/torque")
	assert.True(t, ok)
	assert.Equal(t, domain.Torque, c)

	_, ok = SignalTopic("ares1/telemetry/main")
	assert.False(t, ok)
	_, ok = SignalTopic("ares1/telemetry/hookload")
	assert.False(t, ok)
}

func TestAssemblerConcurrentApply(t *testing.T) {
	var (
		a  Assembler
		wg sync.WaitGroup
	)
	for _, c := range domain.Channels() {
		wg.Add(1)
		go func(c domain.Channel) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				a.Apply(domain.Sample{}.With(c, float64(i)))
			}
		}(c)
	}
	wg.Wait()

	got := a.Current()
	assert.Equal(t, domain.AllChannels, got.Present)
	for _, c := range domain.Channels() {
		assert.Equal(t, 99.0, got.Get(c))
	}
}
