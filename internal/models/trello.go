package models

type TrelloCardData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloBoardData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloListData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloMemberData struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

// TrelloWebhookPayload is the body Trello POSTs to the callback URL.
// listBefore/listAfter are only present when a card changed lists;
// other "updateCard" actions (due date, description, ...) omit them.
type TrelloWebhookPayload struct {
	Action struct {
		Type string `json:"type"` // e.g. "updateCard"
		Data struct {
			Card       TrelloCardData  `json:"card"`
			Board      TrelloBoardData `json:"board"`
			ListBefore TrelloListData  `json:"listBefore"`
			ListAfter  TrelloListData  `json:"listAfter"`
		} `json:"data"`
		MemberCreator TrelloMemberData `json:"memberCreator"`
	} `json:"action"`
}

// IsCardMove reports whether the payload describes a card moved between
// lists on a board.
func (p *TrelloWebhookPayload) IsCardMove() bool {
	return p.Action.Type == "updateCard" &&
		p.Action.Data.ListBefore.Name != "" &&
		p.Action.Data.ListAfter.Name != ""
}
