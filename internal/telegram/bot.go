// Package telegram exposes the chat router as a Telegram bot. Each Telegram
// user gets their own conversation session.
package telegram

import (
	"context"
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"beautybot/internal/router"
)

const (
	resetCmd     = "reset_ctx"
	resetLabel   = "Reset conversation"
	resetDone    = "Conversation reset. Ask me anything about skincare!"
	startMessage = "Hi there!💖 I'm BeautyBot.\n" +
		"- Ask about products\n" +
		"- Place an order (like: order Calming Serum)\n" +
		"- Track an order (like: where is order BEAUTY1234?)"
)

// Chatter is the part of the router the bot needs.
type Chatter interface {
	Handle(ctx context.Context, req router.Request) (router.Reply, error)
	Reset(sessionID string)
}

type Bot struct {
	api  botAPI
	chat Chatter
	log  *zap.Logger
}

func New(botToken string, chat Chatter, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Bot{api: api, chat: chat, log: logger}, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("telegram bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

func sessionID(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	log := b.log.With(zap.Int64("user_id", msg.From.ID), zap.String("username", msg.From.UserName))

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.sendMessage(msg.Chat.ID, startMessage, false)
		case "reset":
			b.chat.Reset(sessionID(msg.From.ID))
			b.sendMessage(msg.Chat.ID, resetDone, false)
		default:
			b.sendMessage(msg.Chat.ID, startMessage, false)
		}
		return
	}

	reply, err := b.chat.Handle(ctx, router.Request{
		SessionID: sessionID(msg.From.ID),
		Channel:   "telegram",
		Message:   msg.Text,
	})
	if errors.Is(err, router.ErrInvalidInput) {
		b.sendMessage(msg.Chat.ID, router.InvalidInputMessage, false)
		return
	}
	if err != nil {
		log.Error("failed to handle message", zap.Error(err))
		b.sendMessage(msg.Chat.ID, "Sorry, I couldn't process that request.", false)
		return
	}

	text := reply.Text
	if reply.Warning != "" {
		text += "\n\n⚠️ " + reply.Warning
	}
	b.sendMessage(msg.Chat.ID, text, true)
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Data != resetCmd || cb.From == nil {
		return
	}
	b.chat.Reset(sessionID(cb.From.ID))
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, resetDone)); err != nil {
		b.log.Warn("failed to answer callback", zap.Error(err))
	}
	if cb.Message != nil {
		b.sendMessage(cb.Message.Chat.ID, resetDone, false)
	}
}

func (b *Bot) sendMessage(chatID int64, text string, withReset bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if withReset {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(resetLabel, resetCmd),
			),
		)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
