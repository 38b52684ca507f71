package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123456:test-token"

type fakeBot struct {
	updates  []tgbotapi.Update
	messages []string
	chatIDs  []int64
}

func (f *fakeBot) HandleUpdate(update tgbotapi.Update) {
	f.updates = append(f.updates, update)
}

func (f *fakeBot) SendMessage(chatID int64, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.messages = append(f.messages, text)
	return nil
}

func newTestRouter(bot *fakeBot) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := &Handler{Bot: bot, BotToken: testToken, ChatID: -100200}
	router.POST("/:token", handler.BotWebhookHandler)
	router.HEAD("/trello", handler.TrelloValidationHandler)
	router.POST("/trello", handler.TrelloWebhookHandler)

	return router
}

func doRequest(router *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBotWebhookAcceptsValidUpdate(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot)

	body := `{"update_id": 1, "message": {"message_id": 2, "text": "/start", "chat": {"id": 100}}}`
	w := doRequest(router, http.MethodPost, "/"+testToken, "application/json", body)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, bot.updates, 1)
	assert.Equal(t, 1, bot.updates[0].UpdateID)
}

func TestBotWebhookRejectsWrongToken(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot)

	w := doRequest(router, http.MethodPost, "/wrong-token", "application/json", `{"update_id": 1}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, bot.updates)
}

func TestBotWebhookRejectsNonJSONContentType(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot)

	w := doRequest(router, http.MethodPost, "/"+testToken, "text/plain", `{"update_id": 1}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, bot.updates)
}

func TestBotWebhookRejectsMalformedBody(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot)

	w := doRequest(router, http.MethodPost, "/"+testToken, "application/json", `{"update_id": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, bot.updates)
}

func TestTrelloValidationProbe(t *testing.T) {
	router := newTestRouter(&fakeBot{})

	w := doRequest(router, http.MethodHead, "/trello", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

const cardMovePayload = `{
	"action": {
		"type": "updateCard",
		"data": {
			"card": {"id": "c1", "name": "Fix bug"},
			"board": {"id": "b1", "name": "Trello-Telegram-Board"},
			"listBefore": {"id": "l1", "name": "InProgress"},
			"listAfter": {"id": "l2", "name": "Done"}
		},
		"memberCreator": {"id": "m1", "fullName": "Alice"}
	}
}`

func TestTrelloWebhookRelaysCardMove(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot)

	w := doRequest(router, http.MethodPost, "/trello", "application/json", cardMovePayload)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, bot.messages, 1)
	assert.Equal(t,
		"Card 'Fix bug' was moved from list 'InProgress' to list 'Done' on board 'Trello-Telegram-Board' by Alice",
		bot.messages[0])
	assert.Equal(t, int64(-100200), bot.chatIDs[0])
}

func TestTrelloWebhookIgnoresOtherActionTypes(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot)

	body := `{"action": {"type": "createCard", "data": {"card": {"id": "c1", "name": "Fix bug"}}}}`
	w := doRequest(router, http.MethodPost, "/trello", "application/json", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, bot.messages)
}

func TestTrelloWebhookIgnoresUpdateCardWithoutListChange(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot)

	// updateCard also fires for due date and description edits, which
	// carry no listBefore/listAfter.
	body := `{"action": {"type": "updateCard", "data": {"card": {"id": "c1", "name": "Fix bug"}, "board": {"id": "b1", "name": "Board"}}}}`
	w := doRequest(router, http.MethodPost, "/trello", "application/json", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, bot.messages)
}

func TestTrelloWebhookRejectsMalformedBody(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot)

	w := doRequest(router, http.MethodPost, "/trello", "application/json", `not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, bot.messages)
}
