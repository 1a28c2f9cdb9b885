package room

import (
	"context"
	"sort"
	"sync"

	domain "babel-bridge/internal/domain/room"
)

// InMemoryRepository is a thread-safe room store for tests and local runs without a database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	rooms map[string]domain.Room
}

// NewInMemoryRepository creates an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{rooms: make(map[string]domain.Room)}
}

func (r *InMemoryRepository) Create(ctx context.Context, room domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = copyRoom(room)
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return copyRoom(room), nil
}

func (r *InMemoryRepository) FindByJoinCode(ctx context.Context, code string) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if room.JoinCode == code {
			return copyRoom(room), nil
		}
	}
	return domain.Room{}, domain.ErrNotFound
}

func (r *InMemoryRepository) ListByMember(ctx context.Context, userID string) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Room
	for _, room := range r.rooms {
		if room.IsMember(userID) {
			out = append(out, copyRoom(room))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) AddMember(ctx context.Context, roomID string, member domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return domain.ErrNotFound
	}
	room.Members = append(append([]domain.Member(nil), room.Members...), member)
	r.rooms[roomID] = room
	return nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, roomID string, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return domain.ErrNotFound
	}
	room.Status = status
	r.rooms[roomID] = room
	return nil
}

func (r *InMemoryRepository) RecordConversation(ctx context.Context, roomID, conversationID, scenario string, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return domain.ErrNotFound
	}
	room.Status = status
	room.LastConversationID = conversationID
	room.LastScenario = scenario
	r.rooms[roomID] = room
	return nil
}

func copyRoom(room domain.Room) domain.Room {
	room.Members = append([]domain.Member(nil), room.Members...)
	return room
}
