package queue

import (
	"sync"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

// MemQueue is a bounded in-memory latest-wins mailbox. Producers append
// whole samples; the consumer drains the backlog and keeps only the newest.
// When the backlog is full the oldest entry is dropped and counted as
// superseded.
type MemQueue struct {
	mu      sync.Mutex
	data    []domain.Sample
	cap     int
	dropped int
}

func NewMemQueue(capacity int) *MemQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemQueue{
		data: make([]domain.Sample, 0, capacity),
		cap:  capacity,
	}
}

func (q *MemQueue) Offer(s domain.Sample) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		q.data = append(q.data[:0], q.data[1:]...)
		q.dropped++
	}
	q.data = append(q.data, s)
}

func (q *MemQueue) Drain() (domain.Sample, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return domain.Sample{}, 0, false
	}
	latest := q.data[len(q.data)-1]
	superseded := len(q.data) - 1 + q.dropped
	q.data = q.data[:0]
	q.dropped = 0
	return latest, superseded, true
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.Mailbox = (*MemQueue)(nil)
