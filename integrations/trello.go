package integrations

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const trelloAPIBase = "https://api.trello.com/1"

type TrelloClient struct {
	Client   *http.Client
	BaseURL  string
	APIKey   string
	APIToken string
}

type TrelloBoard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloWebhook struct {
	ID          string `json:"id"`
	IDModel     string `json:"idModel"`
	CallbackURL string `json:"callbackURL"`
}

func NewTrelloClient(key, token string) *TrelloClient {
	return &TrelloClient{
		Client:   &http.Client{},
		BaseURL:  trelloAPIBase,
		APIKey:   key,
		APIToken: token,
	}
}

// EnsureBoard returns the ID of the board with the given name, creating the
// board when no board of that name exists yet. The first name match in
// Trello's listing order wins.
func (tc *TrelloClient) EnsureBoard(name string) (string, error) {
	boards, err := tc.ListBoards()
	if err != nil {
		// A failed listing is not fatal on its own; creation below still
		// decides whether provisioning can proceed.
		zap.L().Error("Failed to list boards", zap.Error(err))
	}

	for _, board := range boards {
		if board.Name == name {
			zap.L().Info("Board already exists", zap.String("name", name), zap.String("boardID", board.ID))
			return board.ID, nil
		}
	}

	return tc.CreateBoard(name)
}

// ListBoards fetches all boards owned by the credential's account.
func (tc *TrelloClient) ListBoards() ([]TrelloBoard, error) {
	apiURL := tc.BaseURL + "/members/me/boards?" + tc.credentials().Encode()

	resp, err := tc.Client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boards: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trello API returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var boards []TrelloBoard
	if err := json.NewDecoder(resp.Body).Decode(&boards); err != nil {
		return nil, fmt.Errorf("failed to decode boards response: %w", err)
	}

	return boards, nil
}

// CreateBoard creates a board without Trello's default lists and returns
// its ID.
func (tc *TrelloClient) CreateBoard(name string) (string, error) {
	params := tc.credentials()
	params.Set("name", name)
	params.Set("defaultLists", "false")
	apiURL := tc.BaseURL + "/boards/?" + params.Encode()

	resp, err := tc.Client.Post(apiURL, "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("failed to send create board request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("trello API returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var board TrelloBoard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return "", fmt.Errorf("failed to decode create board response: %w", err)
	}

	zap.L().Info("Board created successfully", zap.String("name", name), zap.String("boardID", board.ID))

	return board.ID, nil
}

// EnsureLists creates each named list on the board unless a list with that
// exact name already exists. A creation failure aborts the remaining names;
// the name guard makes a rerun fill in whatever is missing.
func (tc *TrelloClient) EnsureLists(boardID string, names []string) error {
	existing, err := tc.ListLists(boardID)
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(existing))
	for _, list := range existing {
		present[list.Name] = true
	}

	for _, name := range names {
		if present[name] {
			zap.L().Info("List already exists on board", zap.String("name", name))
			continue
		}
		if err := tc.CreateList(boardID, name); err != nil {
			return err
		}
	}

	return nil
}

// ListLists fetches all lists on the given board.
func (tc *TrelloClient) ListLists(boardID string) ([]TrelloList, error) {
	apiURL := fmt.Sprintf("%s/boards/%s/lists?%s", tc.BaseURL, boardID, tc.credentials().Encode())

	resp, err := tc.Client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lists for board %s: %w", boardID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trello API returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var lists []TrelloList
	if err := json.NewDecoder(resp.Body).Decode(&lists); err != nil {
		return nil, fmt.Errorf("failed to decode lists response: %w", err)
	}

	return lists, nil
}

// CreateList creates a single named list on the board.
func (tc *TrelloClient) CreateList(boardID, name string) error {
	params := tc.credentials()
	params.Set("name", name)
	params.Set("idBoard", boardID)
	apiURL := tc.BaseURL + "/lists?" + params.Encode()

	resp, err := tc.Client.Post(apiURL, "application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to send create list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("list %q wasn't created: %s, body: %s", name, resp.Status, string(bodyBytes))
	}

	var list TrelloList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("failed to decode create list response: %w", err)
	}

	zap.L().Info("List created successfully", zap.String("name", name), zap.String("listID", list.ID))

	return nil
}

// RegisterWebhook subscribes the callback URL to changes on the board. An
// already-registered subscription for the same board and URL is reused
// instead of creating a duplicate.
func (tc *TrelloClient) RegisterWebhook(boardID, callbackURL string) (string, error) {
	existing, err := tc.ListWebhooks()
	if err != nil {
		zap.L().Error("Failed to list existing webhooks", zap.Error(err))
	}
	for _, hook := range existing {
		if hook.IDModel == boardID && hook.CallbackURL == callbackURL {
			zap.L().Info("Webhook already registered for board", zap.String("boardID", boardID), zap.String("webhookID", hook.ID))
			return hook.ID, nil
		}
	}

	params := tc.credentials()
	params.Set("idModel", boardID)
	params.Set("callbackURL", callbackURL)
	params.Set("description", "Webhook for Trello-Telegram bridge")
	apiURL := tc.BaseURL + "/webhooks?" + params.Encode()

	resp, err := tc.Client.Post(apiURL, "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("failed to send create webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("trello API returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var webhook TrelloWebhook
	if err := json.NewDecoder(resp.Body).Decode(&webhook); err != nil {
		return "", fmt.Errorf("failed to decode create webhook response: %w", err)
	}

	zap.L().Info("Successfully registered webhook", zap.String("webhookID", webhook.ID), zap.String("boardID", boardID))

	return webhook.ID, nil
}

// ListWebhooks fetches all webhooks registered for the API token.
func (tc *TrelloClient) ListWebhooks() ([]TrelloWebhook, error) {
	params := url.Values{}
	params.Set("key", tc.APIKey)
	apiURL := fmt.Sprintf("%s/tokens/%s/webhooks?%s", tc.BaseURL, tc.APIToken, params.Encode())

	resp, err := tc.Client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch webhooks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trello API returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var webhooks []TrelloWebhook
	if err := json.NewDecoder(resp.Body).Decode(&webhooks); err != nil {
		return nil, fmt.Errorf("failed to decode webhooks response: %w", err)
	}

	return webhooks, nil
}

func (tc *TrelloClient) credentials() url.Values {
	params := url.Values{}
	params.Set("key", tc.APIKey)
	params.Set("token", tc.APIToken)
	return params
}
