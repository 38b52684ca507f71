package bot

import (
	"fmt"

	"github.com/chxlky/trello-telegram-bridge/database"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sender is the slice of the Telegram API the bot uses for outbound calls.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api sender
	db  *gorm.DB
}

func New(token string, db *gorm.DB) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot client: %w", err)
	}

	zap.L().Info("Authorised on Telegram", zap.String("username", api.Self.UserName))

	return &Bot{api: api, db: db}, nil
}

// SetWebhook points the Telegram bot webhook at the given URL.
func (b *Bot) SetWebhook(webhookURL string) error {
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}

	if _, err := b.api.Request(webhook); err != nil {
		return fmt.Errorf("failed to set bot webhook: %w", err)
	}

	return nil
}

// HandleUpdate routes an inbound Telegram update to its command handler.
// Only /start is handled; every other update is dropped.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	from := msg.From
	if from == nil {
		return
	}

	if err := database.EnsureUser(b.db, from.ID, from.UserName, from.FirstName); err != nil {
		zap.L().Error("Failed to register user", zap.Int64("tgID", from.ID), zap.Error(err))
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("Hello %s!", from.FirstName))
	if _, err := b.api.Send(reply); err != nil {
		zap.L().Error("Failed to send greeting", zap.Int64("chatID", msg.Chat.ID), zap.Error(err))
	}
}

// SendMessage delivers a plain-text message to the chat.
func (b *Bot) SendMessage(chatID int64, text string) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}
