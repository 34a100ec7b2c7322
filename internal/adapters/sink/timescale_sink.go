package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

const frameColumns = 14

// TimescaleSink stores one row per applied frame. Rows are buffered and
// written as a single multi-row insert once batchSize frames are pending.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
	batchSize int
	ownsDB    bool

	mu      sync.Mutex
	pending []domain.Frame
}

func NewTimescaleSink(db *sql.DB, table string, batchSize int) *TimescaleSink {
	if batchSize < 1 {
		batchSize = 1
	}
	return &TimescaleSink{db: db, tableName: table, batchSize: batchSize}
}

// OpenTimescale connects to Postgres/Timescale with lib/pq.
func OpenTimescale(dsn, table string, batchSize int) (*TimescaleSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("timescale: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("timescale: ping: %w", err)
	}
	s := NewTimescaleSink(db, table, batchSize)
	s.ownsDB = true
	return s, nil
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

func (t *TimescaleSink) WriteFrame(f *domain.Frame) error {
	if !f.Applied {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, *f)
	if len(t.pending) < t.batchSize {
		return nil
	}
	return t.flushLocked()
}

// Flush writes any buffered frames.
func (t *TimescaleSink) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked()
}

func (t *TimescaleSink) flushLocked() error {
	if len(t.pending) == 0 {
		return nil
	}

	// INSERT ... ON CONFLICT DO NOTHING keeps replays of the same tick idempotent.
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pq.QuoteIdentifier(t.tableName))
	b.WriteString(" (ts, tick, depth, rop, wob, rpm, torque, flow_in, flow_out, smoothed, mission_state, zone, freshness, max_severity) VALUES ")

	args := make([]any, 0, len(t.pending)*frameColumns)
	for i, f := range t.pending {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for c := 1; c <= frameColumns; c++ {
			if c > 1 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "$%d", len(args)+c)
		}
		b.WriteString(")")

		smoothed, err := json.Marshal(channelMap(f.Smoothed))
		if err != nil {
			return fmt.Errorf("marshal smoothed: %w", err)
		}
		args = append(args, f.At, int64(f.Tick))
		for _, c := range domain.Channels() {
			args = append(args, nullable(f.Raw, c))
		}
		zone := any(nil)
		if f.HasZone {
			zone = f.Zone.String()
		}
		args = append(args, smoothed, f.Mission.String(), zone, f.Freshness.String(), f.MaxSeverity.String())
	}

	b.WriteString(" ON CONFLICT (ts, tick) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	t.pending = t.pending[:0]
	return err
}

// Close flushes pending rows and closes the connection pool when the sink
// opened it.
func (t *TimescaleSink) Close() error {
	err := t.Flush()
	if t.ownsDB {
		if cerr := t.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func nullable(s domain.Sample, c domain.Channel) any {
	if v, ok := s.Value(c); ok {
		return v
	}
	return nil
}

func channelMap(s domain.Sample) map[string]float64 {
	out := make(map[string]float64, domain.ChannelCount)
	for _, c := range domain.Channels() {
		if v, ok := s.Value(c); ok {
			out[c.Key()] = v
		}
	}
	return out
}

var _ ports.Sink = (*TimescaleSink)(nil)
