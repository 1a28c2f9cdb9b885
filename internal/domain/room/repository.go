package room

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when no room matches.
var ErrNotFound = errors.New("room not found")

// Repository persists rooms and their members.
type Repository interface {
	Create(ctx context.Context, room Room) error
	FindByID(ctx context.Context, id string) (Room, error)
	FindByJoinCode(ctx context.Context, code string) (Room, error)
	ListByMember(ctx context.Context, userID string) ([]Room, error)
	AddMember(ctx context.Context, roomID string, member Member) error
	UpdateStatus(ctx context.Context, roomID string, status Status) error
	RecordConversation(ctx context.Context, roomID, conversationID, scenario string, status Status) error
}

// Locker serializes work on a named resource across service instances.
type Locker interface {
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// LockName is the lock guarding membership and conversation starts for a room.
func LockName(roomID string) string {
	return "room:" + roomID
}
