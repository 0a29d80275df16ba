package storage

import "time"

// Event is one routed message: what the user said, what the bot answered and
// which branch produced the answer. Events are appended in arrival order.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	Channel     string    `json:"channel,omitempty"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Intent      string    `json:"intent"`
	// Failure is the AI failure kind when the fallback degraded.
	Failure string `json:"failure,omitempty"`
	// AILatencyMS is set only for events answered by the AI fallback.
	AILatencyMS int64 `json:"ai_latency_ms,omitempty"`
}

// Recorder abstracts persistence of interaction events.
// LoadInteractions returns events in the order they were appended.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
