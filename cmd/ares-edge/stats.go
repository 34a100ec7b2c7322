package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

var statMetrics = []string{
	"ares_samples_accepted_total",
	"ares_samples_rejected_total",
	"ares_samples_superseded_total",
	"ares_events_total",
	"ares_sink_errors_total",
	"ares_mission_state",
	"ares_freshness_state",
	"ares_mailbox_backlog",
}

var missionNames = []string{"unknown", "drilling", "circulating", "connection", "off_bottom"}
var freshnessNames = []string{"live", "stale", "disconnected"}

func streamStats(ctx context.Context, w io.Writer, url string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	client := &http.Client{Timeout: interval}
	fmt.Fprintf(w, "Streaming metrics from %s (Ctrl+C to stop)\n", url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			values, err := fetchMetrics(ctx, client, url)
			if err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
				continue
			}
			fmt.Fprintln(w, formatStats(time.Now(), values))
		}
	}
}

func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return parseMetrics(resp.Body, statMetrics)
}

// parseMetrics picks unlabelled samples of the wanted metrics out of the
// Prometheus text format.
func parseMetrics(r io.Reader, wanted []string) (map[string]float64, error) {
	out := make(map[string]float64, len(wanted))
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		for _, key := range wanted {
			if name != key {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				out[key] = v
			}
		}
	}
	return out, scanner.Err()
}

func formatStats(at time.Time, v map[string]float64) string {
	return fmt.Sprintf("[%s] state=%s link=%s accepted=%.0f rejected=%.0f superseded=%.0f events=%.0f sink_errors=%.0f backlog=%.0f",
		at.Format(time.RFC3339),
		label(missionNames, v["ares_mission_state"]),
		label(freshnessNames, v["ares_freshness_state"]),
		v["ares_samples_accepted_total"],
		v["ares_samples_rejected_total"],
		v["ares_samples_superseded_total"],
		v["ares_events_total"],
		v["ares_sink_errors_total"],
		v["ares_mailbox_backlog"],
	)
}

func label(names []string, v float64) string {
	i := int(v)
	if i < 0 || i >= len(names) {
		return "?"
	}
	return names[i]
}
