package database

import (
	"errors"
	"fmt"

	"github.com/chxlky/trello-telegram-bridge/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnsureUser stores a Telegram user if no row with that tg_id exists yet.
// Existing rows are left untouched. The unique index on tg_id makes the
// check-then-insert safe against concurrent first contacts: a duplicate-key
// error from the insert means another request won the race, which is the
// same outcome as finding the row up front.
func EnsureUser(db *gorm.DB, tgID int64, username, name string) error {
	var user models.TGUser
	err := db.Where("tg_id = ?", tgID).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up user %d: %w", tgID, err)
	}

	user = models.TGUser{TgID: tgID, Username: username, Name: name}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to create user %d: %w", tgID, err)
	}

	zap.L().Info("Registered new user", zap.Int64("tgID", tgID), zap.String("username", username))
	return nil
}
