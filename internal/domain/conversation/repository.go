package conversation

import "context"

// Repository persists conversations.
type Repository interface {
	Create(ctx context.Context, conv Conversation) error
	FindByID(ctx context.Context, id string) (Conversation, error)
	ListByRoom(ctx context.Context, roomID string) ([]Conversation, error)
	// CommitTurn stores next only if the stored conversation is still active
	// on expectedTurn, otherwise it returns ErrConcurrentUpdate. Only the turn
	// numbered expectedTurn and the conversation's progress are written.
	CommitTurn(ctx context.Context, expectedTurn int, next Conversation) error
}
