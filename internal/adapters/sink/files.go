package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
	"github.com/NkanyeziNgobese/ares-1/internal/ports"
)

const (
	RowLogFile   = "telemetry_log.csv"
	LatestFile   = "telemetry_latest.json"
	EventLogFile = "events_log.jsonl"
)

var rowHeader = []string{
	"timestamp", "tick",
	"depth", "rop", "wob", "rpm", "torque", "flowIn", "flowOut",
	"mission_state", "zone", "freshness",
}

// RowLog appends one CSV row of raw values per applied frame.
type RowLog struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

func NewRowLog(path string) (*RowLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("row log: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	l := &RowLog{f: f, w: csv.NewWriter(f)}
	if st.Size() == 0 {
		if err := l.w.Write(rowHeader); err != nil {
			f.Close()
			return nil, err
		}
		l.w.Flush()
	}
	return l, nil
}

func (l *RowLog) Name() string { return "csv" }

func (l *RowLog) WriteFrame(f *domain.Frame) error {
	if !f.Applied {
		return nil
	}
	row := make([]string, 0, len(rowHeader))
	row = append(row, f.At.UTC().Format(time.RFC3339Nano), strconv.FormatUint(f.Tick, 10))
	for _, c := range domain.Channels() {
		if v, ok := f.Raw.Value(c); ok {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		} else {
			row = append(row, "")
		}
	}
	zone := ""
	if f.HasZone {
		zone = f.Zone.String()
	}
	row = append(row, f.Mission.String(), zone, f.Freshness.String())

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *RowLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	return l.f.Close()
}

// Snapshot is the JSON shape of the latest-state file.
type Snapshot struct {
	Tick        uint64                  `json:"tick"`
	Timestamp   time.Time               `json:"timestamp"`
	Paused      bool                    `json:"paused"`
	Freshness   domain.FreshnessState   `json:"freshness"`
	SinceSample float64                 `json:"since_sample_s"`
	Mission     domain.MissionState     `json:"mission_state"`
	Candidate   domain.MissionState     `json:"candidate_state"`
	Zone        *domain.ZoneStatus      `json:"zone,omitempty"`
	MaxSeverity domain.Severity         `json:"max_severity"`
	Channels    []domain.ChannelReading `json:"channels"`
}

func NewSnapshot(f *domain.Frame) Snapshot {
	s := Snapshot{
		Tick:        f.Tick,
		Timestamp:   f.At.UTC(),
		Paused:      f.Paused,
		Freshness:   f.Freshness,
		SinceSample: f.SinceSample,
		Mission:     f.Mission,
		Candidate:   f.Candidate,
		MaxSeverity: f.MaxSeverity,
		Channels:    f.Readings(),
	}
	if f.HasZone {
		z := f.Zone
		s.Zone = &z
	}
	return s
}

// LatestSnapshot rewrites a JSON file with the newest frame. Writes go to a
// temp file that is renamed into place so readers never see a partial file.
type LatestSnapshot struct {
	mu   sync.Mutex
	path string
}

func NewLatestSnapshot(path string) (*LatestSnapshot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &LatestSnapshot{path: path}, nil
}

func (l *LatestSnapshot) Name() string { return "latest" }

// WriteFrame skips frames that neither applied a sample nor changed state.
func (l *LatestSnapshot) WriteFrame(f *domain.Frame) error {
	if !f.Applied && len(f.Events) == 0 {
		return nil
	}
	body, err := json.MarshalIndent(NewSnapshot(f), "", "  ")
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".latest-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}

// EventLog appends every event as one JSON line.
type EventLog struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func NewEventLog(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("event log: open %s: %w", path, err)
	}
	return &EventLog{w: f}, nil
}

func (l *EventLog) Name() string { return "events" }

func (l *EventLog) WriteFrame(f *domain.Frame) error {
	if len(f.Events) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	enc := json.NewEncoder(l.w)
	for _, ev := range f.Events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

func (l *EventLog) Close() error { return l.w.Close() }

// OpenOutputs opens the three file sinks under dir.
func OpenOutputs(dir string) ([]ports.Sink, error) {
	rows, err := NewRowLog(filepath.Join(dir, RowLogFile))
	if err != nil {
		return nil, err
	}
	latest, err := NewLatestSnapshot(filepath.Join(dir, LatestFile))
	if err != nil {
		rows.Close()
		return nil, err
	}
	events, err := NewEventLog(filepath.Join(dir, EventLogFile))
	if err != nil {
		rows.Close()
		return nil, err
	}
	return []ports.Sink{rows, latest, events}, nil
}

var (
	_ ports.Sink = (*RowLog)(nil)
	_ ports.Sink = (*LatestSnapshot)(nil)
	_ ports.Sink = (*EventLog)(nil)
)
