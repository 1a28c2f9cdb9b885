package conversation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/infrastructure/database/entities"
)

// PostgresRepository persists conversations via GORM.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a repository backed by the provided DB.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the conversation with its participants and turns in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, conv domain.Conversation) error {
	record := toEntity(conv)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (domain.Conversation, error) {
	var record entities.Conversation
	err := r.preloaded(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Conversation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return toDomain(record), nil
}

// ListByRoom returns the room's conversations, newest first.
func (r *PostgresRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Conversation, error) {
	var records []entities.Conversation
	err := r.preloaded(ctx).Where("room_id = ?", roomID).Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Conversation, len(records))
	for i, rec := range records {
		out[i] = toDomain(rec)
	}
	return out, nil
}

// CommitTurn writes the response for expectedTurn and advances the
// conversation, guarded by a conditional update on current_turn and status.
func (r *PostgresRepository) CommitTurn(ctx context.Context, expectedTurn int, next domain.Conversation) error {
	turn, ok := next.Turn(expectedTurn)
	if !ok || turn.Response == nil {
		return fmt.Errorf("commit turn %d: no response to write", expectedTurn)
	}
	resp := turn.Response

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.Conversation{}).
			Where("id = ? AND current_turn = ? AND status = ?", next.ID, expectedTurn, string(domain.StatusActive)).
			Updates(map[string]any{
				"current_turn": next.CurrentTurn,
				"status":       string(next.Status),
				"version":      gorm.Expr("version + 1"),
				"updated_at":   next.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}

		res = tx.Model(&entities.ConversationTurn{}).
			Where("conversation_id = ? AND turn_number = ? AND response_text IS NULL", next.ID, expectedTurn).
			Updates(map[string]any{
				"response_user_id":      resp.UserID,
				"response_display_name": resp.DisplayName,
				"response_text":         resp.Text,
				"response_input_mode":   string(resp.InputMode),
				"response_score":        resp.Score,
				"response_label":        resp.Label,
				"response_breakdown":    resp.Breakdown,
				"responded_at":          resp.SubmittedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}
		return nil
	})
}

func (r *PostgresRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("role ASC") }).
		Preload("Turns", func(db *gorm.DB) *gorm.DB { return db.Order("turn_number ASC") })
}
