package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/room"
	"babel-bridge/internal/domain/scoring"
	"babel-bridge/internal/utils/platformerrors"
)

// Submission outcomes reported to the Recorder.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
)

// Config tunes conversation creation and submission.
type Config struct {
	TurnsPerConversation int
	SubmitMaxAttempts    int
}

// Recorder receives conversation lifecycle events.
type Recorder interface {
	ConversationStarted(language, level string)
	ConversationCompleted()
	TurnSubmitted(outcome string, score int)
	CommitConflict()
}

type nopRecorder struct{}

func (nopRecorder) ConversationStarted(string, string) {}
func (nopRecorder) ConversationCompleted()             {}
func (nopRecorder) TurnSubmitted(string, int)          {}
func (nopRecorder) CommitConflict()                    {}

// StartInput requests a new conversation in a room.
type StartInput struct {
	RoomID string
	UserID string
	Prompt string
}

// Service describes the conversation use cases.
type Service interface {
	Start(ctx context.Context, in StartInput) (Conversation, error)
	Get(ctx context.Context, roomID, conversationID, userID string) (Conversation, error)
	List(ctx context.Context, roomID, userID string) ([]Conversation, error)
	Submit(ctx context.Context, roomID, conversationID string, sub Submission) (Conversation, error)
}

type service struct {
	repo      Repository
	rooms     room.Service
	locker    room.Locker
	generator Generator
	catalog   *catalog.Catalog
	scorer    scoring.Scorer
	recorder  Recorder
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
}

// NewService wires the conversation service. A nil recorder disables event reporting.
func NewService(
	repo Repository,
	rooms room.Service,
	locker room.Locker,
	generator Generator,
	cat *catalog.Catalog,
	recorder Recorder,
	cfg Config,
	log zerolog.Logger,
) Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.TurnsPerConversation < 1 {
		cfg.TurnsPerConversation = 20
	}
	if cfg.SubmitMaxAttempts < 1 {
		cfg.SubmitMaxAttempts = 1
	}
	return &service{
		repo:      repo,
		rooms:     rooms,
		locker:    locker,
		generator: generator,
		catalog:   cat,
		scorer:    scoring.Engine{},
		recorder:  recorder,
		cfg:       cfg,
		log:       log.With().Str("component", "conversation-service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Start(ctx context.Context, in StartInput) (Conversation, error) {
	r, err := s.rooms.Get(ctx, in.RoomID, in.UserID)
	if err != nil {
		return Conversation{}, err
	}
	if r.CreatedBy != in.UserID {
		return Conversation{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "Only the room creator can start a conversation", nil, "590b18e4-e8fb-4c9f-8628-d6e34e384232")
	}

	var conv Conversation
	err = s.locker.WithLock(ctx, room.LockName(r.ID), func(ctx context.Context) error {
		current, err := s.rooms.Get(ctx, r.ID, in.UserID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "Room is completed", nil, "af468154-7ead-4097-b9c6-2a831758ec70")
		}

		members := make([]Member, len(current.Members))
		for i, m := range current.Members {
			members[i] = Member{UserID: m.UserID, Username: m.Username, DisplayName: m.DisplayName}
		}
		assignment, err := AssignRoles(members, current.MaxPlayers, CanonicalRoles, s.cfg.TurnsPerConversation)
		if err != nil {
			return s.domainError(ctx, err)
		}

		scenario := s.catalog.ResolveScenario(current.Language, current.Level, in.Prompt)
		lines, err := s.generator.Generate(ctx, GenerateRequest{
			Language:     current.Language,
			Level:        current.Level,
			Scenario:     scenario,
			Participants: assignment.Participants,
			Plan:         assignment.Plan,
		})
		if err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "AI generation failed", err, "7988fa18-b777-49f6-8ba4-635ba4541fd6")
		}

		built, err := Build(uuid.NewString(), current.ID, scenario, assignment, lines, s.now())
		if err != nil {
			return s.domainError(ctx, err)
		}
		if err := s.repo.Create(ctx, built); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create conversation")
		}
		if err := s.rooms.MarkActive(ctx, current.ID, built.ID, scenario); err != nil {
			return err
		}
		s.recorder.ConversationStarted(current.Language, current.Level)
		conv = built
		return nil
	})
	if err != nil {
		return Conversation{}, err
	}

	s.log.Info().
		Str("room_id", conv.RoomID).
		Str("conversation_id", conv.ID).
		Int("turns", len(conv.Turns)).
		Int("current_turn", conv.CurrentTurn).
		Msg("conversation started")
	return conv, nil
}

func (s *service) Get(ctx context.Context, roomID, conversationID, userID string) (Conversation, error) {
	if _, err := s.rooms.Get(ctx, roomID, userID); err != nil {
		return Conversation{}, err
	}
	return s.load(ctx, roomID, conversationID)
}

func (s *service) List(ctx context.Context, roomID, userID string) ([]Conversation, error) {
	if _, err := s.rooms.Get(ctx, roomID, userID); err != nil {
		return nil, err
	}
	convs, err := s.repo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list conversations")
	}
	return convs, nil
}

// Submit grades a response and commits it with a compare-and-swap on the
// current turn. A lost race re-reads the conversation and validates again, so
// the loser ends up with a turn mismatch or an already completed error.
func (s *service) Submit(ctx context.Context, roomID, conversationID string, sub Submission) (Conversation, error) {
	if _, err := s.rooms.Get(ctx, roomID, sub.UserID); err != nil {
		return Conversation{}, err
	}

	var next Conversation
	for attempt := 1; ; attempt++ {
		snapshot, err := s.load(ctx, roomID, conversationID)
		if err != nil {
			return Conversation{}, err
		}

		next, err = SubmitTurn(snapshot, sub, s.scorer, s.now())
		if err != nil {
			s.recorder.TurnSubmitted(OutcomeRejected, 0)
			return Conversation{}, s.domainError(ctx, err)
		}

		err = s.repo.CommitTurn(ctx, snapshot.CurrentTurn, next)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrConcurrentUpdate) {
			return Conversation{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "commit turn")
		}

		s.recorder.CommitConflict()
		s.log.Debug().
			Str("conversation_id", conversationID).
			Int("turn", sub.TurnNumber).
			Int("attempt", attempt).
			Msg("turn commit lost a race")
		if attempt >= s.cfg.SubmitMaxAttempts {
			s.recorder.TurnSubmitted(OutcomeConflict, 0)
			return Conversation{}, s.domainError(ctx, fmt.Errorf("%w: turn %d was taken by another submission", ErrTurnMismatch, sub.TurnNumber))
		}
	}

	turn, _ := next.Turn(sub.TurnNumber)
	s.recorder.TurnSubmitted(OutcomeAccepted, turn.Response.Score)

	if next.Status.IsTerminal() {
		s.recorder.ConversationCompleted()
		if err := s.rooms.MarkCompleted(ctx, roomID); err != nil {
			// the turn is already stored; the room catches up on the next completion
			s.log.Warn().Err(err).Str("room_id", roomID).Msg("mark room completed")
		}
		s.log.Info().Str("conversation_id", next.ID).Msg("conversation completed")
	}
	return next, nil
}

func (s *service) load(ctx context.Context, roomID, conversationID string) (Conversation, error) {
	conv, err := s.repo.FindByID(ctx, conversationID)
	if errors.Is(err, ErrNotFound) {
		return Conversation{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "Conversation not found", err, "39935392-74c1-4c14-90d7-c11a77bb2772")
	}
	if err != nil {
		return Conversation{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "find conversation")
	}
	if conv.RoomID != roomID {
		return Conversation{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "Conversation not found in this room", nil, "1edefe97-b43f-408a-8ce6-c6e776b43387")
	}
	return conv, nil
}

// domainError maps the conversation sentinels onto platform errors.
func (s *service) domainError(ctx context.Context, err error) error {
	var (
		errType platformerrors.ErrorType
		code    string
	)
	switch {
	case errors.Is(err, ErrTurnMismatch):
		errType, code = platformerrors.ErrorTypeConflict, "aa65d539-b854-4ccb-a581-3eb0cfa5120c"
	case errors.Is(err, ErrAlreadyCompleted):
		errType, code = platformerrors.ErrorTypeConflict, "48a4f249-cb67-4164-a2d6-37c3b99dbcf9"
	case errors.Is(err, ErrEmptyRoom):
		errType, code = platformerrors.ErrorTypeConflict, "b742a3ba-354c-47e8-bcaf-69479e6246e6"
	case errors.Is(err, ErrNotYourTurn):
		errType, code = platformerrors.ErrorTypeForbidden, "8ae7c643-f916-4e9d-b294-2a2901a7ab26"
	case errors.Is(err, ErrUnknownTurn):
		errType, code = platformerrors.ErrorTypeNotFound, "01453103-87b3-4a0a-afff-94d29abd63d2"
	case errors.Is(err, ErrEmptyResponseText):
		errType, code = platformerrors.ErrorTypeValidation, "8654777c-b7a7-4517-826f-292c35a58717"
	case errors.Is(err, ErrInvalidPartySize):
		errType, code = platformerrors.ErrorTypeValidation, "f5960e0c-fd5f-46b9-b683-2fc992027c0f"
	case errors.Is(err, ErrGeneratorContract):
		errType, code = platformerrors.ErrorTypeExternal, "e8a48a37-a0c4-45b7-88be-54c57c6361dd"
	default:
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, errType, messageFor(err), err, code)
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, ErrTurnMismatch):
		return detail(err, ErrTurnMismatch)
	case errors.Is(err, ErrAlreadyCompleted):
		return "Conversation is already completed"
	case errors.Is(err, ErrEmptyRoom):
		return "No members in room"
	case errors.Is(err, ErrNotYourTurn):
		return "It is not your turn"
	case errors.Is(err, ErrUnknownTurn):
		return "Turn not found"
	case errors.Is(err, ErrEmptyResponseText):
		return "Response text must not be empty"
	default:
		return err.Error()
	}
}

// detail returns the context wrapped around sentinel, capitalised for display.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
