package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"beautybot/internal/storage"
)

const (
	aiIntent           = "ai_fallback"
	unavailableFailure = "unavailable"
)

// DailyStats summarises one day of routed messages.
type DailyStats struct {
	Date           string                  `json:"date"`
	TotalMessages  int                     `json:"total_messages"`
	UniqueSessions int                     `json:"unique_sessions"`
	Intents        map[string]int          `json:"intents"`
	AIFailures     map[string]int          `json:"ai_failures"`
	AILatency      LatencySummary          `json:"ai_latency"`
	SessionStats   map[string]SessionStats `json:"session_stats"`
}

type SessionStats struct {
	SessionID string         `json:"session_id"`
	Messages  int            `json:"messages"`
	Intents   map[string]int `json:"intents"`
}

// AnalyzeDailyLogs aggregates the events that fall on targetDate.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		Intents:      make(map[string]int),
		AIFailures:   make(map[string]int),
		SessionStats: make(map[string]SessionStats),
	}
	latency := NewLatencyRecorder()

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		// rejected empty messages never reach the log, but be tolerant
		if event.UserMessage == "" {
			continue
		}
		stats.TotalMessages++
		stats.Intents[event.Intent]++
		if event.Failure != "" {
			stats.AIFailures[event.Failure]++
		}
		// an unconfigured model never made a call, so there is nothing to time
		if event.Intent == aiIntent && event.Failure != unavailableFailure {
			latency.Observe(time.Duration(event.AILatencyMS)*time.Millisecond, event.Failure == "")
		}

		s, ok := stats.SessionStats[event.SessionID]
		if !ok {
			s = SessionStats{SessionID: event.SessionID, Intents: make(map[string]int)}
		}
		s.Messages++
		s.Intents[event.Intent]++
		stats.SessionStats[event.SessionID] = s
	}

	stats.UniqueSessions = len(stats.SessionStats)
	stats.AILatency = latency.Summary()
	return stats
}

// GenerateReportSummary renders the stats as a short plain-text report.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "BeautyBot usage for %s:\n\n", ds.Date)
	fmt.Fprintf(&b, "- Messages: %d\n", ds.TotalMessages)
	fmt.Fprintf(&b, "- Unique sessions: %d\n", ds.UniqueSessions)

	if len(ds.Intents) > 0 {
		b.WriteString("\nIntents:\n")
		for _, k := range sortedKeys(ds.Intents) {
			fmt.Fprintf(&b, "- %s: %d\n", k, ds.Intents[k])
		}
	}

	if ds.AILatency.Count > 0 {
		fmt.Fprintf(&b, "\nAI fallback: %d calls, %d failed, p50 %s, p95 %s, p99 %s\n",
			ds.AILatency.Count, ds.AILatency.Failures,
			ds.AILatency.P50, ds.AILatency.P95, ds.AILatency.P99)
		for _, k := range sortedKeys(ds.AIFailures) {
			fmt.Fprintf(&b, "- %s: %d\n", k, ds.AIFailures[k])
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
