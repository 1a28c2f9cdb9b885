package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"babel-bridge/internal/infrastructure/database/entities"
)

// AutoMigrate applies the session schema.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	models := []any{
		&entities.User{},
		&entities.Room{},
		&entities.RoomMember{},
		&entities.Conversation{},
		&entities.ConversationParticipant{},
		&entities.ConversationTurn{},
	}
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return err
	}
	log.Debug().Int("tables", len(models)).Msg("database schema migrated")
	return nil
}
