package entities

import "time"

// Room is the persisted form of a practice room.
type Room struct {
	ID                 string       `gorm:"size:36;primaryKey"`
	Language           string       `gorm:"size:32;not null"`
	Level              string       `gorm:"size:8;not null"`
	MaxPlayers         int          `gorm:"not null"`
	JoinCode           string       `gorm:"size:6;not null;uniqueIndex"`
	Status             string       `gorm:"size:16;not null;index"`
	CreatedBy          string       `gorm:"size:36;not null;index"`
	LastConversationID string       `gorm:"size:36"`
	LastScenario       string       `gorm:"type:text"`
	Members            []RoomMember `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time    `gorm:"autoCreateTime;index"`
	UpdatedAt          time.Time    `gorm:"autoUpdateTime"`
}

func (Room) TableName() string {
	return "rooms"
}

// RoomMember is one seat taken in a room. Seat keeps join order.
type RoomMember struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	RoomID      string    `gorm:"size:36;not null;uniqueIndex:idx_room_member"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_room_member;index"`
	Seat        int       `gorm:"not null"`
	Username    string    `gorm:"size:32;not null"`
	DisplayName string    `gorm:"size:32;not null"`
	JoinedAt    time.Time `gorm:"not null"`
}

func (RoomMember) TableName() string {
	return "room_members"
}
