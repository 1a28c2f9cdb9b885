package conversation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "babel-bridge/internal/domain/conversation"
)

// InMemoryRepository is a thread-safe conversation store for tests and local
// runs without a database. CommitTurn honours the same compare-and-swap
// contract as the Postgres repository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	convs map[string]domain.Conversation
}

// NewInMemoryRepository creates an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{convs: make(map[string]domain.Conversation)}
}

func (r *InMemoryRepository) Create(ctx context.Context, conv domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.convs[conv.ID]; exists {
		return fmt.Errorf("conversation %s already exists", conv.ID)
	}
	r.convs[conv.ID] = copyConversation(conv)
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.convs[id]
	if !ok {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return copyConversation(conv), nil
}

func (r *InMemoryRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Conversation
	for _, conv := range r.convs {
		if conv.RoomID == roomID {
			out = append(out, copyConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) CommitTurn(ctx context.Context, expectedTurn int, next domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.convs[next.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status != domain.StatusActive || stored.CurrentTurn != expectedTurn {
		return domain.ErrConcurrentUpdate
	}
	r.convs[next.ID] = copyConversation(next)
	return nil
}

func copyConversation(conv domain.Conversation) domain.Conversation {
	conv.Participants = append([]domain.Participant(nil), conv.Participants...)
	turns := make([]domain.Turn, len(conv.Turns))
	for i, t := range conv.Turns {
		if t.Response != nil {
			resp := *t.Response
			t.Response = &resp
		}
		turns[i] = t
	}
	conv.Turns = turns
	return conv
}
