package room

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "babel-bridge/internal/domain/room"
	"babel-bridge/internal/infrastructure/database/entities"
)

// PostgresRepository persists rooms and their members via GORM.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a repository backed by the provided DB.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, room domain.Room) error {
	record := toEntity(room)
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (domain.Room, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *PostgresRepository) FindByJoinCode(ctx context.Context, code string) (domain.Room, error) {
	return r.findOne(ctx, "join_code = ?", code)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (domain.Room, error) {
	var record entities.Room
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("seat ASC") }).
		Where(query, arg).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Room{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	return toDomain(record), nil
}

// ListByMember returns the rooms userID has joined, newest first.
func (r *PostgresRepository) ListByMember(ctx context.Context, userID string) ([]domain.Room, error) {
	db := r.db.WithContext(ctx)
	var records []entities.Room
	err := db.
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("seat ASC") }).
		Where("id IN (?)", db.Model(&entities.RoomMember{}).Select("room_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, len(records))
	for i, rec := range records {
		rooms[i] = toDomain(rec)
	}
	return rooms, nil
}

// AddMember appends member to the next free seat.
func (r *PostgresRepository) AddMember(ctx context.Context, roomID string, member domain.Member) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seats int64
		if err := tx.Model(&entities.RoomMember{}).Where("room_id = ?", roomID).Count(&seats).Error; err != nil {
			return err
		}
		record := memberEntity(roomID, int(seats), member)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.Model(&entities.Room{}).Where("id = ?", roomID).Update("updated_at", time.Now().UTC()).Error
	})
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, roomID string, status domain.Status) error {
	res := r.db.WithContext(ctx).Model(&entities.Room{}).Where("id = ?", roomID).Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) RecordConversation(ctx context.Context, roomID, conversationID, scenario string, status domain.Status) error {
	res := r.db.WithContext(ctx).Model(&entities.Room{}).Where("id = ?", roomID).Updates(map[string]any{
		"status":               string(status),
		"last_conversation_id": conversationID,
		"last_scenario":        scenario,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toEntity(room domain.Room) entities.Room {
	members := make([]entities.RoomMember, len(room.Members))
	for i, m := range room.Members {
		members[i] = memberEntity(room.ID, i, m)
	}
	return entities.Room{
		ID:                 room.ID,
		Language:           room.Language,
		Level:              room.Level,
		MaxPlayers:         room.MaxPlayers,
		JoinCode:           room.JoinCode,
		Status:             string(room.Status),
		CreatedBy:          room.CreatedBy,
		LastConversationID: room.LastConversationID,
		LastScenario:       room.LastScenario,
		Members:            members,
		CreatedAt:          room.CreatedAt,
		UpdatedAt:          room.UpdatedAt,
	}
}

func memberEntity(roomID string, seat int, m domain.Member) entities.RoomMember {
	return entities.RoomMember{
		RoomID:      roomID,
		UserID:      m.UserID,
		Seat:        seat,
		Username:    m.Username,
		DisplayName: m.DisplayName,
		JoinedAt:    m.JoinedAt,
	}
}

func toDomain(record entities.Room) domain.Room {
	members := make([]domain.Member, len(record.Members))
	for i, m := range record.Members {
		members[i] = domain.Member{
			UserID:      m.UserID,
			Username:    m.Username,
			DisplayName: m.DisplayName,
			JoinedAt:    m.JoinedAt,
		}
	}
	return domain.Room{
		ID:                 record.ID,
		Language:           record.Language,
		Level:              record.Level,
		MaxPlayers:         record.MaxPlayers,
		JoinCode:           record.JoinCode,
		Status:             domain.Status(record.Status),
		CreatedBy:          record.CreatedBy,
		Members:            members,
		LastConversationID: record.LastConversationID,
		LastScenario:       record.LastScenario,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}
