package fallback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"beautybot/internal/llm"
)

// Kind classifies why the AI fallback produced no answer.
type Kind int

const (
	KindUnavailable Kind = iota + 1
	KindTimeout
	KindTransport
	KindEmptyResponse
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failure is the only error Respond returns.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return "ai fallback " + f.Kind.String()
	}
	return fmt.Sprintf("ai fallback %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf returns the failure kind carried by err, or 0 when err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

func classify(callCtx context.Context, err error) Kind {
	if errors.Is(err, llm.ErrEmptyResponse) {
		return KindEmptyResponse
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		return KindUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}

const (
	// DegradedMessage answers every AI failure except an empty response.
	DegradedMessage = "Network error. Please check your connection."
	// EmptyResponseMessage answers a model reply with no usable text.
	EmptyResponseMessage = "I received an empty or unreadable response from the AI. Please try again."
	// UnavailableWarning is surfaced when no model was ever configured.
	UnavailableWarning = "AI assistant is not configured; free-form questions cannot be answered right now."
)

var suggestions = []string{
	"Ask about products",
	"Try 'order sunscreen'",
	"Track with 'where is order BEAUTY1234?'",
}

// Suggestions returns the fixed list of canned actions offered on failure.
func Suggestions() []string {
	return append([]string(nil), suggestions...)
}

// Degraded is the user-facing payload for a failed AI call.
type Degraded struct {
	Message     string
	Suggestions []string
	// Warning is set when the failure is a service-level condition.
	Warning string
}

// Degrade maps an error from Respond to its user-facing payload.
func Degrade(err error) Degraded {
	d := Degraded{Message: DegradedMessage, Suggestions: Suggestions()}
	switch KindOf(err) {
	case KindEmptyResponse:
		d.Message = EmptyResponseMessage
	case KindUnavailable:
		d.Warning = UnavailableWarning
	}
	return d
}

// Text flattens the payload into a single reply.
func (d Degraded) Text() string {
	if len(d.Suggestions) == 0 {
		return d.Message
	}
	var b strings.Builder
	b.WriteString(d.Message)
	b.WriteString("\n\nYou can:")
	for _, s := range d.Suggestions {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}
