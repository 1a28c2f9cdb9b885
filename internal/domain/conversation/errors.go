package conversation

import "errors"

var (
	ErrInvalidPartySize  = errors.New("invalid party size")
	ErrEmptyRoom         = errors.New("room has no members")
	ErrTurnMismatch      = errors.New("turn is not the current turn")
	ErrUnknownTurn       = errors.New("turn not found")
	ErrNotYourTurn       = errors.New("it is not your turn")
	ErrAlreadyCompleted  = errors.New("conversation is already completed")
	ErrEmptyResponseText = errors.New("response text is empty")

	// ErrConcurrentUpdate is returned by Repository.CommitTurn when the stored
	// turn moved on between read and write.
	ErrConcurrentUpdate = errors.New("conversation was updated concurrently")

	// ErrGeneratorContract is returned when generated lines do not match the turn plan.
	ErrGeneratorContract = errors.New("generated dialogue does not match the turn plan")

	ErrNotFound = errors.New("conversation not found")
)
