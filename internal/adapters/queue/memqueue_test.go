package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

func TestMemQueueDrainKeepsLatest(t *testing.T) {
	q := NewMemQueue(4)

	q.Offer(domain.Sample{}.With(domain.Depth, -1))
	q.Offer(domain.Sample{}.With(domain.Depth, -2))
	q.Offer(domain.Sample{}.With(domain.Depth, -3))
	require.Equal(t, 3, q.Len())

	latest, superseded, ok := q.Drain()
	require.True(t, ok)
	assert.Equal(t, -3.0, latest.Get(domain.Depth))
	assert.Equal(t, 2, superseded)
	assert.Equal(t, 0, q.Len())

	_, _, ok = q.Drain()
	assert.False(t, ok)
}

func TestMemQueueCapacityDropsOldest(t *testing.T) {
	q := NewMemQueue(2)

	for i := 1; i <= 5; i++ {
		q.Offer(domain.Sample{}.With(domain.ROP, float64(i)))
	}
	assert.Equal(t, 2, q.Len())

	latest, superseded, ok := q.Drain()
	require.True(t, ok)
	assert.Equal(t, 5.0, latest.Get(domain.ROP))
	assert.Equal(t, 4, superseded)

	q.Offer(domain.Sample{}.With(domain.ROP, 6))
	_, superseded, _ = q.Drain()
	assert.Equal(t, 0, superseded)
}

func TestMemQueueConcurrentProducersNeverTear(t *testing.T) {
	q := NewMemQueue(8)

	const producers = 8
	const perProducer = 500
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := float64(p*perProducer + i)
				q.Offer(domain.NewSample(v, v, v, v, v, v, v))
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	check := func(s domain.Sample) {
		want := s.Get(domain.Depth)
		for _, c := range domain.Channels() {
			assert.Equal(t, want, s.Get(c), "channel %s", c)
		}
	}
	for {
		select {
		case <-done:
			if s, _, ok := q.Drain(); ok {
				check(s)
			}
			return
		default:
			if s, _, ok := q.Drain(); ok {
				check(s)
			}
		}
	}
}
