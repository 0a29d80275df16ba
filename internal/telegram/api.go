package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// botAPI is the subset of *tgbotapi.BotAPI the bot uses, so tests can feed
// updates and capture outgoing messages without the network.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ botAPI = (*tgbotapi.BotAPI)(nil)

// pollTimeout is the long-poll wait, in seconds, for getUpdates.
const pollTimeout = 60
