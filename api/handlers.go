package api

import (
	"fmt"
	"net/http"

	"github.com/chxlky/trello-telegram-bridge/internal/models"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier is the outbound side of the bot as seen by the webhook handlers.
type Notifier interface {
	HandleUpdate(update tgbotapi.Update)
	SendMessage(chatID int64, text string) error
}

type Handler struct {
	Bot      Notifier
	BotToken string
	ChatID   int64
}

// BotWebhookHandler receives Telegram update deliveries. The trailing path
// segment must equal the bot token; that check doubles as authentication.
func (h *Handler) BotWebhookHandler(c *gin.Context) {
	if c.Param("token") != h.BotToken || c.ContentType() != "application/json" {
		c.Status(http.StatusForbidden)
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		zap.L().Debug("Could not bind Telegram update payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	h.Bot.HandleUpdate(update)
	c.Status(http.StatusOK)
}

// TrelloValidationHandler answers the HEAD probe Trello sends when a
// webhook is registered.
func (h *Handler) TrelloValidationHandler(c *gin.Context) {
	zap.L().Info("Trello webhook validation request was received")
	c.Status(http.StatusOK)
}

// TrelloWebhookHandler receives Trello change events and relays card moves
// to the configured chat. Trello expects a 200 for every delivered event,
// so unhandled action types still succeed.
func (h *Handler) TrelloWebhookHandler(c *gin.Context) {
	var payload models.TrelloWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		zap.L().Debug("Could not bind Trello webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	if !payload.IsCardMove() {
		c.Status(http.StatusOK)
		return
	}

	data := payload.Action.Data
	message := fmt.Sprintf("Card '%s' was moved from list '%s' to list '%s' on board '%s' by %s",
		data.Card.Name, data.ListBefore.Name, data.ListAfter.Name,
		data.Board.Name, payload.Action.MemberCreator.FullName)

	if err := h.Bot.SendMessage(h.ChatID, message); err != nil {
		zap.L().Error("Failed to relay card move to chat", zap.Int64("chatID", h.ChatID), zap.Error(err))
	}

	c.Status(http.StatusOK)
}
