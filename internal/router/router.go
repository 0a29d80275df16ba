// Package router turns one line of user input into one reply. Intents are
// checked in a fixed order and the first match wins:
//
//	tracking > placement > browse > exact FAQ > fuzzy FAQ > AI fallback
//
// Every accepted message produces exactly one text reply, which is appended to
// the caller's session history.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"beautybot/internal/catalog"
	"beautybot/internal/fallback"
	"beautybot/internal/history"
	"beautybot/internal/knowledge"
	"beautybot/internal/orders"
	"beautybot/internal/shop"
	"beautybot/internal/storage"
)

// ErrInvalidInput is returned for empty or whitespace-only messages. Nothing is
// recorded or changed when it is returned.
var ErrInvalidInput = errors.New("invalid input: empty message")

const (
	// InvalidInputMessage is what transports show for ErrInvalidInput.
	InvalidInputMessage = "Please enter a valid question."
	unprocessableText   = "Sorry, I couldn't process that request."
)

type Intent string

const (
	IntentTracking  Intent = "tracking"
	IntentPlacement Intent = "placement"
	IntentBrowse    Intent = "browse"
	IntentFAQExact  Intent = "faq_exact"
	IntentFAQFuzzy  Intent = "faq_fuzzy"
	IntentAI        Intent = "ai_fallback"
)

var (
	trackingKeywords  = []string{"track", "where is", "status"}
	placementKeywords = []string{"order", "buy", "purchase"}
	browseKeywords    = []string{"products", "what do you sell"}
)

// Request is one inbound message.
type Request struct {
	SessionID string
	// Channel names the transport, e.g. "web" or "telegram".
	Channel string
	Message string
}

// Reply is the single payload produced for a Request. Degraded AI answers are
// already folded into Text; Suggestions and Warning are kept for transports
// that can render them separately.
type Reply struct {
	Text        string
	Suggestions []string
	Warning     string
	Intent      Intent
}

// Recorder receives every routed interaction.
type Recorder interface {
	AppendInteraction(event storage.Event) error
}

type Options struct {
	Recorder Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

type Router struct {
	shop     *shop.Shop
	faq      *knowledge.Base
	ai       *fallback.Gateway
	sessions *history.Manager
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

func New(s *shop.Shop, faq *knowledge.Base, ai *fallback.Gateway, sessions *history.Manager, opts Options) *Router {
	r := &Router{
		shop:     s,
		faq:      faq,
		ai:       ai,
		sessions: sessions,
		recorder: opts.Recorder,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Reset forgets the conversation history of one session.
func (r *Router) Reset(sessionID string) {
	r.sessions.Reset(sessionID)
	r.log.Info("session reset", zap.String("session", sessionID))
}

// TakeDirty reports whether the session got a new turn since the last call.
// Transports use it to extend the session's lifetime on activity.
func (r *Router) TakeDirty(sessionID string) bool {
	return r.sessions.TakeDirty(sessionID)
}

// Classify returns the intent Handle would pick for utterance. It has no side
// effects and never calls the AI.
func (r *Router) Classify(utterance string) Intent {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	if intent, ok := keywordIntent(lower); ok {
		return intent
	}
	if _, ok := r.faq.ExactMatch(lower); ok {
		return IntentFAQExact
	}
	if _, ok := r.faq.FuzzyMatch(lower); ok {
		return IntentFAQFuzzy
	}
	return IntentAI
}

func keywordIntent(lower string) (Intent, bool) {
	switch {
	case containsAny(lower, trackingKeywords):
		return IntentTracking, true
	case containsAny(lower, placementKeywords):
		return IntentPlacement, true
	case containsAny(lower, browseKeywords):
		return IntentBrowse, true
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Handle routes one message. The only error it returns is ErrInvalidInput;
// every other outcome, including AI failures, is a Reply.
func (r *Router) Handle(ctx context.Context, req Request) (Reply, error) {
	utterance := strings.TrimSpace(req.Message)
	if utterance == "" {
		return Reply{}, ErrInvalidInput
	}
	lower := strings.ToLower(utterance)
	log := r.log.With(zap.String("session", req.SessionID), zap.String("channel", req.Channel))
	log.Info("message received", zap.String("message", utterance))

	session := r.sessions.Session(req.SessionID)
	ev := storage.Event{
		Timestamp:   r.now(),
		SessionID:   req.SessionID,
		Channel:     req.Channel,
		UserMessage: utterance,
	}

	var reply Reply
	if intent, ok := keywordIntent(lower); ok {
		reply = r.handleKeyword(intent, utterance, log)
	} else if answer, ok := r.faq.ExactMatch(lower); ok {
		reply = Reply{Text: answer, Intent: IntentFAQExact}
	} else if answer, ok := r.faq.FuzzyMatch(lower); ok {
		reply = Reply{Text: answer, Intent: IntentFAQFuzzy}
	} else {
		reply = r.askAI(ctx, utterance, session, &ev, log)
	}

	if reply.Text == "" {
		reply.Text = unprocessableText
	}

	session.Append(history.Turn{User: utterance, Bot: reply.Text})

	ev.BotResponse = reply.Text
	ev.Intent = string(reply.Intent)
	if r.recorder != nil {
		if err := r.recorder.AppendInteraction(ev); err != nil {
			log.Warn("failed to record interaction", zap.Error(err))
		}
	}
	log.Info("reply sent", zap.String("intent", string(reply.Intent)), zap.Int("chars", len([]rune(reply.Text))))
	return reply, nil
}

func (r *Router) handleKeyword(intent Intent, utterance string, log *zap.Logger) Reply {
	switch intent {
	case IntentTracking:
		return Reply{Text: r.track(utterance, log), Intent: IntentTracking}
	case IntentPlacement:
		return Reply{Text: r.place(utterance, log), Intent: IntentPlacement}
	default:
		return Reply{Text: renderBrowse(r.shop.Catalog().List()), Intent: IntentBrowse}
	}
}

func (r *Router) track(utterance string, log *zap.Logger) string {
	id, ok := orders.ParseOrderID(utterance)
	if !ok {
		return renderNotFound("")
	}
	o, err := r.shop.Track(id)
	if err != nil {
		log.Info("order not found", zap.String("order_id", id))
		return renderNotFound(id)
	}
	return renderStatus(o)
}

func (r *Router) place(utterance string, log *zap.Logger) string {
	pl, err := r.shop.Place(utterance)
	switch {
	case err == nil:
		return renderConfirmation(pl.Product, pl.Order)
	case errors.Is(err, catalog.ErrUnknownProduct):
		return renderUnknownProduct(r.shop.Catalog().List())
	case errors.Is(err, catalog.ErrOutOfStock):
		return renderOutOfStock(pl.Product)
	default:
		log.Error("order placement failed", zap.Error(err))
		return unprocessableText
	}
}

func (r *Router) askAI(ctx context.Context, utterance string, session *history.Session, ev *storage.Event, log *zap.Logger) Reply {
	recent := session.Recent(r.ai.ContextTurns())

	start := time.Now()
	text, err := r.ai.Respond(ctx, utterance, recent)
	if r.ai.Available() {
		ev.AILatencyMS = time.Since(start).Milliseconds()
	}
	if err == nil {
		return Reply{Text: text, Intent: IntentAI}
	}

	kind := fallback.KindOf(err)
	ev.Failure = kind.String()
	log.Warn("ai fallback degraded", zap.Stringer("kind", kind), zap.Error(err))

	d := fallback.Degrade(err)
	return Reply{
		Text:        d.Text(),
		Suggestions: d.Suggestions,
		Warning:     d.Warning,
		Intent:      IntentAI,
	}
}
