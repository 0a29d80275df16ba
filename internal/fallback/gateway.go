// Package fallback wraps the generative model used for free-form questions.
// Every failure comes back as a *Failure value; nothing panics or blocks past
// the configured timeout.
package fallback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"beautybot/internal/history"
	"beautybot/internal/llm"
)

const (
	DefaultTimeout      = 60 * time.Second
	DefaultMaxChars     = 500
	DefaultContextTurns = 2
	MaxContextTurns     = 5
)

// Observer receives the duration and outcome of every model call.
type Observer interface {
	Observe(d time.Duration, ok bool)
}

type Options struct {
	Timeout      time.Duration
	MaxChars     int
	ContextTurns int
	MaxAttempts  int
	// Products are the catalog names the model may mention.
	Products []string
	Observer Observer
	Logger   *zap.Logger
}

type Gateway struct {
	client       llm.Client
	timeout      time.Duration
	maxChars     int
	contextTurns int
	maxAttempts  int
	products     []string
	observer     Observer
	log          *zap.Logger
}

// New wraps client. A nil client gives a gateway that always reports
// KindUnavailable without any I/O.
func New(client llm.Client, opts Options) *Gateway {
	g := &Gateway{
		client:       client,
		timeout:      opts.Timeout,
		maxChars:     opts.MaxChars,
		contextTurns: opts.ContextTurns,
		maxAttempts:  opts.MaxAttempts,
		products:     append([]string(nil), opts.Products...),
		observer:     opts.Observer,
		log:          opts.Logger,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.maxChars <= 0 {
		g.maxChars = DefaultMaxChars
	}
	if g.contextTurns < DefaultContextTurns {
		g.contextTurns = DefaultContextTurns
	}
	if g.contextTurns > MaxContextTurns {
		g.contextTurns = MaxContextTurns
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = 1
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	return g
}

// Available reports whether a model client was configured.
func (g *Gateway) Available() bool { return g.client != nil }

// ContextTurns is how many recent turns Respond sends as context.
func (g *Gateway) ContextTurns() int { return g.contextTurns }

// Respond asks the model about utterance with the most recent turns as context.
// Transport failures are retried up to the configured number of attempts;
// timeouts, empty answers and a missing model are returned immediately.
func (g *Gateway) Respond(ctx context.Context, utterance string, recent []history.Turn) (string, error) {
	if g.client == nil {
		return "", &Failure{Kind: KindUnavailable, Err: llm.ErrNotConfigured}
	}
	if len(recent) > g.contextTurns {
		recent = recent[len(recent)-g.contextTurns:]
	}
	msgs := BuildMessages(g.products, recent, utterance)
	g.log.Debug("prompt prepared", zap.Int("messages", len(msgs)), zap.String("query", utterance))

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		text, err := g.once(ctx, msgs)
		if err == nil {
			g.log.Info("ai fallback answered", zap.Int("attempt", attempt), zap.Int("chars", len([]rune(text))))
			return text, nil
		}
		lastErr = err
		kind := KindOf(err)
		g.log.Warn("ai fallback failed", zap.Int("attempt", attempt), zap.Stringer("kind", kind), zap.Error(err))
		if kind != KindTransport || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

type result struct {
	resp llm.Response
	err  error
}

func (g *Gateway) once(ctx context.Context, msgs []llm.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("llm client panicked: %v", r)}
			}
		}()
		resp, err := g.client.Generate(callCtx, msgs)
		done <- result{resp: resp, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = result{err: callCtx.Err()}
	}
	g.observe(time.Since(start), res.err == nil)

	if res.err != nil {
		return "", &Failure{Kind: classify(callCtx, res.err), Err: res.err}
	}
	text := strings.TrimSpace(res.resp.Content)
	if text == "" {
		return "", &Failure{Kind: KindEmptyResponse, Err: llm.ErrEmptyResponse}
	}
	return truncate(text, g.maxChars), nil
}

func (g *Gateway) observe(d time.Duration, ok bool) {
	if g.observer != nil {
		g.observer.Observe(d, ok)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
