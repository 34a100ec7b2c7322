package sink

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

const insertPrefix = `INSERT INTO "frames" (ts, tick, depth, rop, wob, rpm, torque, flow_in, flow_out, smoothed, mission_state, zone, freshness, max_severity) VALUES `

func appliedFrame(tick uint64, at time.Time) *domain.Frame {
	raw := domain.Sample{}.With(domain.Depth, -1250.5).With(domain.ROP, 28.3)
	return &domain.Frame{
		Tick:      tick,
		At:        at,
		Applied:   true,
		Freshness: domain.Live,
		Raw:       raw,
		Smoothed:  raw,
		Mission:   domain.Drilling,
		Zone:      domain.ZoneDoleriteSill,
		HasZone:   true,
	}
}

func TestTimescaleSinkWriteFrame(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "frames", 1)
	ts := time.Now()

	expectedQuery := regexp.QuoteMeta(insertPrefix + "($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) ON CONFLICT (ts, tick) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs(ts, int64(7), -1250.5, 28.3, nil, nil, nil, nil, nil,
			sqlmock.AnyArg(), "drilling", "dolerite_sill", "live", "safe").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := sink.WriteFrame(appliedFrame(7, ts)); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkBatchesAndFlushesOnClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "frames", 3)
	ts := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(insertPrefix) + `\(\$1,.*\$14\),\(\$15,.*\$28\) ON CONFLICT`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	for i := uint64(1); i <= 2; i++ {
		if err := sink.WriteFrame(appliedFrame(i, ts)); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkSkipsUnappliedFrames(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "frames", 1)
	if err := sink.WriteFrame(&domain.Frame{Tick: 1, Paused: true}); err != nil {
		t.Fatalf("expected nil error for unapplied frame, got %v", err)
	}
	if err := sink.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkReportsExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO").WillReturnError(boom)

	sink := NewTimescaleSink(db, "frames", 1)
	if err := sink.WriteFrame(appliedFrame(1, time.Now())); !errors.Is(err, boom) {
		t.Fatalf("expected exec error, got %v", err)
	}
	if sink.Name() != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %s", sink.Name())
	}
}
