package db

import (
	"fmt"

	"github.com/deepgram/courier/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every model that AutoMigrate manages.
func AllModels() []interface{} {
	return []interface{}{
		&models.Conversation{},
		&models.Message{},
	}
}

// AutoMigrate creates or updates the conversation tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
