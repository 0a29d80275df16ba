package analytics

import (
	"strings"
	"testing"
	"time"

	"beautybot/internal/storage"
)

func TestAnalyzeDailyLogs(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{Timestamp: testDate.Add(2 * time.Hour), SessionID: "s1", UserMessage: "Hi", BotResponse: "Hi there!", Intent: "faq_exact"},
		{Timestamp: testDate.Add(3 * time.Hour), SessionID: "s1", UserMessage: "order sunscreen", BotResponse: "✅ Order", Intent: "placement"},
		{Timestamp: testDate.Add(4 * time.Hour), SessionID: "s2", UserMessage: "why is the sky blue", BotResponse: "Rayleigh", Intent: "ai_fallback", AILatencyMS: 200},
		{Timestamp: testDate.Add(5 * time.Hour), SessionID: "s2", UserMessage: "and the sea?", BotResponse: "Network error.", Intent: "ai_fallback", Failure: "timeout", AILatencyMS: 600},
		// next day, ignored
		{Timestamp: testDate.AddDate(0, 0, 1), SessionID: "s3", UserMessage: "tomorrow", Intent: "browse"},
		// no user message, ignored
		{Timestamp: testDate.Add(8 * time.Hour), SessionID: "s1", BotResponse: "[system]"},
	}

	stats := AnalyzeDailyLogs(events, testDate)

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalMessages != 4 {
		t.Errorf("Expected 4 total messages, got %d", stats.TotalMessages)
	}
	if stats.UniqueSessions != 2 {
		t.Errorf("Expected 2 unique sessions, got %d", stats.UniqueSessions)
	}

	expectedIntents := map[string]int{"faq_exact": 1, "placement": 1, "ai_fallback": 2}
	for intent, want := range expectedIntents {
		if got := stats.Intents[intent]; got != want {
			t.Errorf("Expected %d %s messages, got %d", want, intent, got)
		}
	}
	if stats.AIFailures["timeout"] != 1 {
		t.Errorf("Expected 1 timeout failure, got %d", stats.AIFailures["timeout"])
	}

	if stats.AILatency.Count != 2 || stats.AILatency.Failures != 1 {
		t.Errorf("Expected 2 AI calls with 1 failure, got %+v", stats.AILatency)
	}
	if stats.AILatency.Max != 600*time.Millisecond {
		t.Errorf("Expected max latency 600ms, got %s", stats.AILatency.Max)
	}

	s2, ok := stats.SessionStats["s2"]
	if !ok {
		t.Fatal("Expected stats for session s2")
	}
	if s2.Messages != 2 || s2.Intents["ai_fallback"] != 2 {
		t.Errorf("Unexpected s2 stats: %+v", s2)
	}
}

func TestAnalyzeDailyLogsEmptyData(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	stats := AnalyzeDailyLogs(nil, testDate)

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalMessages != 0 || stats.UniqueSessions != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
	if stats.AILatency.Count != 0 {
		t.Errorf("Expected no AI latency samples, got %d", stats.AILatency.Count)
	}
}

func TestGenerateReportSummary(t *testing.T) {
	stats := &DailyStats{
		Date:           "2024-01-15",
		TotalMessages:  5,
		UniqueSessions: 2,
		Intents:        map[string]int{"tracking": 3, "browse": 2},
		AIFailures:     map[string]int{"transport": 1},
		AILatency:      LatencySummary{Count: 4, Failures: 1, P50: 150 * time.Millisecond},
	}

	summary := stats.GenerateReportSummary()

	for _, expected := range []string{"2024-01-15", "Messages: 5", "Unique sessions: 2", "tracking: 3", "browse: 2", "transport: 1", "150ms"} {
		if !strings.Contains(summary, expected) {
			t.Errorf("Expected summary to contain '%s'. Summary: %s", expected, summary)
		}
	}
	// browse sorts before tracking
	if strings.Index(summary, "browse") > strings.Index(summary, "tracking") {
		t.Errorf("Expected intents in sorted order. Summary: %s", summary)
	}
}

func TestToJSON(t *testing.T) {
	stats := AnalyzeDailyLogs([]storage.Event{
		{Timestamp: time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC), SessionID: "s", UserMessage: "hi", Intent: "faq_exact"},
	}, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	js, err := stats.ToJSON()
	if err != nil {
		t.Fatalf("Failed to convert to JSON: %v", err)
	}
	for _, expected := range []string{`"date": "2024-01-15"`, `"total_messages": 1`, `"faq_exact": 1`} {
		if !strings.Contains(js, expected) {
			t.Errorf("Expected JSON to contain %s, got %s", expected, js)
		}
	}
}

func TestLatencyRecorder(t *testing.T) {
	r := NewLatencyRecorder()
	for i := 1; i <= 100; i++ {
		r.Observe(time.Duration(i)*time.Millisecond, i%10 != 0)
	}
	r.Observe(time.Hour, false)

	s := r.Summary()
	if s.Count != 101 {
		t.Errorf("Expected 101 samples, got %d", s.Count)
	}
	if s.Failures != 11 {
		t.Errorf("Expected 11 failures, got %d", s.Failures)
	}
	if s.P50 != 51*time.Millisecond {
		t.Errorf("Expected p50 51ms, got %s", s.P50)
	}
	if s.Max < 10*time.Minute || s.Max > 10*time.Minute+time.Second {
		t.Errorf("Expected max clamped to about 10m, got %s", s.Max)
	}

	r.Reset()
	if got := r.Summary().Count; got != 0 {
		t.Errorf("Expected empty recorder after reset, got %d", got)
	}
}
