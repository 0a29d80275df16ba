package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "interactions.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	defer rec.Close()

	ev1 := Event{Timestamp: time.Unix(1, 0).UTC(), SessionID: "a", UserMessage: "hi", BotResponse: "hello", Intent: "faq_exact"}
	ev2 := Event{Timestamp: time.Unix(2, 0).UTC(), SessionID: "b", UserMessage: "why", BotResponse: "because", Intent: "ai_fallback", AILatencyMS: 120}
	if err := rec.AppendInteraction(ev1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := rec.AppendInteraction(ev2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	events, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2, got %d", len(events))
	}
	if events[0].SessionID != "a" || events[1].SessionID != "b" {
		t.Fatalf("order mismatch: %+v", events)
	}
	if events[1].AILatencyMS != 120 || events[1].Intent != "ai_fallback" {
		t.Fatalf("fields lost: %+v", events[1])
	}

	st, err := os.Stat(p)
	if err != nil || st.Size() == 0 {
		t.Fatalf("file not written")
	}
}

func TestFileRecorder_SkipsCorruptLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "interactions.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	defer rec.Close()
	if err := rec.AppendInteraction(Event{SessionID: "ok"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString("{\"session_id\": \"torn\n\n")
	_ = f.Close()

	events, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 1 || events[0].SessionID != "ok" {
		t.Fatalf("want only the intact event, got %+v", events)
	}
}

func TestMemoryRecorder(t *testing.T) {
	rec := NewMemoryRecorder()
	_ = rec.AppendInteraction(Event{SessionID: "x"})
	events, _ := rec.LoadInteractions()
	events[0].SessionID = "mutated"
	again, _ := rec.LoadInteractions()
	if again[0].SessionID != "x" {
		t.Fatalf("recorder returned shared slice")
	}
}

func TestFileRecorder_CloseAndReopen(t *testing.T) {
	p := filepath.Join(t.TempDir(), "interactions.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	if err := rec.AppendInteraction(Event{SessionID: "first"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rec.AppendInteraction(Event{SessionID: "late"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}

	again, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if err := again.AppendInteraction(Event{SessionID: "second"}); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	events, err := again.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 || events[0].SessionID != "first" || events[1].SessionID != "second" {
		t.Fatalf("unexpected events after reopen: %+v", events)
	}
}
