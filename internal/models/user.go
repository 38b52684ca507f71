package models

// TGUser is a Telegram user registered through the /start command.
// Rows are insert-only: a later username change on Telegram's side is
// not reflected here.
type TGUser struct {
	ID       uint   `gorm:"primaryKey"`
	TgID     int64  `gorm:"uniqueIndex"`
	Username string `gorm:"size:63"`
	Name     string `gorm:"size:63"`
}

func (TGUser) TableName() string {
	return "tg_users"
}
