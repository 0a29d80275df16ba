package history

import (
	"fmt"
	"testing"
	"time"
)

func TestHistoryAppendGetReset(t *testing.T) {
	h := NewManager(0)
	userA := "a"
	userB := "b"

	h.Append(userA, Turn{User: "hello", Bot: "hi"})
	h.Append(userB, Turn{User: "foo", Bot: "bar"})

	msgsA := h.Get(userA)
	msgsB := h.Get(userB)

	if len(msgsA) != 1 || len(msgsB) != 1 {
		t.Fatalf("unexpected lengths: A=%d B=%d", len(msgsA), len(msgsB))
	}
	if msgsA[0].User != "hello" || msgsA[0].Bot != "hi" {
		t.Fatalf("unexpected A[0]: %+v", msgsA[0])
	}
	if msgsB[0].User != "foo" || msgsB[0].Bot != "bar" {
		t.Fatalf("unexpected B[0]: %+v", msgsB[0])
	}

	// Ensure copy semantics (modifying returned slice does not affect internal state)
	msgsA[0] = Turn{User: "mutated"}
	if h.Get(userA)[0].User != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}

	h.Reset(userA)
	if len(h.Get(userA)) != 0 {
		t.Fatalf("reset did not clear user A")
	}
	if len(h.Get(userB)) != 1 {
		t.Fatalf("reset should not affect other users")
	}
}

func TestHistoryCapAndRecent(t *testing.T) {
	h := NewManager(3)
	for _, u := range []string{"1", "2", "3", "4", "5"} {
		h.Append("s", Turn{User: u})
	}
	all := h.Get("s")
	if len(all) != 3 || all[0].User != "3" || all[2].User != "5" {
		t.Fatalf("cap not applied: %+v", all)
	}
	recent := h.Recent("s", 2)
	if len(recent) != 2 || recent[0].User != "4" || recent[1].User != "5" {
		t.Fatalf("unexpected recent: %+v", recent)
	}
	if got := h.Recent("missing", 2); got != nil {
		t.Fatalf("expected nil for unknown session, got %+v", got)
	}
}

func TestSessionDirtyFlag(t *testing.T) {
	h := NewManager(10)
	s := h.Session("x")
	if h.TakeDirty("x") {
		t.Fatalf("new session must not be dirty")
	}
	s.Append(Turn{User: "q", Bot: "a"})
	if !h.TakeDirty("x") {
		t.Fatalf("append must mark the session dirty")
	}
	if h.TakeDirty("x") {
		t.Fatalf("dirty flag must clear after TakeDirty")
	}
	if len(s.Recent(5)) != 1 {
		t.Fatalf("session handle does not see its turns")
	}
}

func TestIdleSessionsExpire(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	h := NewManager(20, WithIdleTTL(time.Hour), WithClock(func() time.Time { return now }))

	for i := 0; i < 1000; i++ {
		h.Append(fmt.Sprintf("visitor-%d", i), Turn{User: "hi", Bot: "hello"})
	}
	if got := h.Sessions(); got != 1000 {
		t.Fatalf("want 1000 sessions, got %d", got)
	}

	now = now.Add(30 * time.Minute)
	h.Append("regular", Turn{User: "products"})

	now = now.Add(45 * time.Minute)
	if got := h.Recent("visitor-1", 0); got != nil {
		t.Fatalf("idle session still readable: %+v", got)
	}
	h.Append("newcomer", Turn{User: "hi"})
	if got := h.Sessions(); got != 2 {
		t.Fatalf("idle sessions not swept: %d left", got)
	}
	if len(h.Get("regular")) != 1 {
		t.Fatalf("active session was dropped")
	}
}

func TestNoIdleTTLKeepsSessions(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	h := NewManager(20, WithClock(func() time.Time { return now }))
	h.Append("a", Turn{User: "hi"})
	now = now.Add(1000 * time.Hour)
	h.Append("b", Turn{User: "hi"})
	if h.Sessions() != 2 || len(h.Get("a")) != 1 {
		t.Fatalf("sessions must persist without an idle TTL")
	}
}
