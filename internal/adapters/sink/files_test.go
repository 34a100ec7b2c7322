package sink

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

func closeAll(t *testing.T, sinks ...any) {
	t.Helper()
	for _, s := range sinks {
		if c, ok := s.(io.Closer); ok {
			require.NoError(t, c.Close())
		}
	}
}

func TestRowLogAppendsWithSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", RowLogFile)
	at := time.Date(2026, 1, 24, 10, 0, 0, 0, time.UTC)

	for run := 0; run < 2; run++ {
		l, err := NewRowLog(path)
		require.NoError(t, err)
		require.NoError(t, l.WriteFrame(appliedFrame(uint64(run+1), at)))
		require.NoError(t, l.WriteFrame(&domain.Frame{Tick: 99}))
		require.NoError(t, l.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, rowHeader, records[0])
	assert.Equal(t, []string{
		"2026-01-24T10:00:00Z", "1",
		"-1250.5", "28.3", "", "", "", "", "",
		"drilling", "dolerite_sill", "live",
	}, records[1])
	assert.Equal(t, "2", records[2][1])
}

func TestLatestSnapshotReplacesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLatestSnapshot(filepath.Join(dir, LatestFile))
	require.NoError(t, err)

	require.NoError(t, l.WriteFrame(appliedFrame(1, time.Now())))
	second := appliedFrame(2, time.Now())
	second.Severity[domain.ROP] = domain.Warning
	require.NoError(t, l.WriteFrame(second))

	body, err := os.ReadFile(filepath.Join(dir, LatestFile))
	require.NoError(t, err)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 2.0, snap["tick"])
	assert.Equal(t, "drilling", snap["mission_state"])
	assert.Equal(t, "dolerite_sill", snap["zone"])
	assert.Equal(t, "live", snap["freshness"])

	channels := snap["channels"].([]any)
	require.Len(t, channels, 2)
	rop := channels[1].(map[string]any)
	assert.Equal(t, "rop", rop["channel"])
	assert.Equal(t, "warning", rop["severity"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLatestSnapshotSkipsIdleFrames(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLatestSnapshot(filepath.Join(dir, LatestFile))
	require.NoError(t, err)

	require.NoError(t, l.WriteFrame(&domain.Frame{Tick: 1}))
	_, err = os.Stat(filepath.Join(dir, LatestFile))
	assert.True(t, os.IsNotExist(err))
}

func TestEventLogWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), EventLogFile)
	l, err := NewEventLog(path)
	require.NoError(t, err)

	f := &domain.Frame{Tick: 4, Events: []domain.Event{
		{ID: "a", Type: domain.EventLink, From: "disconnected", To: "live"},
		{ID: "b", Type: domain.EventZone, To: "ecca_hazard", Depth: -1500},
	}}
	require.NoError(t, l.WriteFrame(f))
	require.NoError(t, l.WriteFrame(&domain.Frame{Tick: 5}))
	closeAll(t, l)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var got []domain.Event
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		var ev domain.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, domain.EventZone, got[1].Type)
	assert.Equal(t, -1500.0, got[1].Depth)
}

func TestOpenOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	sinks, err := OpenOutputs(dir)
	require.NoError(t, err)
	require.Len(t, sinks, 3)

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
		closeAll(t, s)
	}
	assert.Equal(t, []string{"csv", "latest", "events"}, names)
	_, err = os.Stat(filepath.Join(dir, RowLogFile))
	assert.NoError(t, err)
}
