package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/utils/platformerrors"
)

var (
	ErrNotAccepting  = errors.New("room is no longer accepting players")
	ErrAlreadyMember = errors.New("already a member of this room")
	ErrFull          = errors.New("room is full")
	ErrNotMember     = errors.New("not a member of this room")
)

// CreateInput carries the fields needed to open a room.
type CreateInput struct {
	UserID      string
	Username    string
	DisplayName string
	Language    string
	Level       string
	MaxPlayers  int
}

// JoinInput carries the fields needed to join a room by code.
type JoinInput struct {
	UserID      string
	Username    string
	DisplayName string
	JoinCode    string
}

// Service describes room lifecycle operations.
type Service interface {
	Create(ctx context.Context, in CreateInput) (Room, error)
	Join(ctx context.Context, in JoinInput) (Room, error)
	Get(ctx context.Context, roomID, userID string) (Room, error)
	ListForUser(ctx context.Context, userID string) ([]Room, error)
	MarkActive(ctx context.Context, roomID, conversationID, scenario string) error
	MarkCompleted(ctx context.Context, roomID string) error
}

type service struct {
	repo    Repository
	locker  Locker
	catalog *catalog.Catalog
	log     zerolog.Logger
	now     func() time.Time
}

// NewService wires the room service with its repository and lock provider.
func NewService(repo Repository, locker Locker, cat *catalog.Catalog, log zerolog.Logger) Service {
	return &service{
		repo:    repo,
		locker:  locker,
		catalog: cat,
		log:     log.With().Str("component", "room-service").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) (Room, error) {
	lang, ok := s.catalog.Language(in.Language)
	if !ok {
		return Room{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("unsupported language %q", in.Language), nil, "861c393a-ecda-401f-aa6e-88497a61d095")
	}
	lvl, ok := s.catalog.Level(in.Level)
	if !ok {
		return Room{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("unsupported level %q", in.Level), nil, "96c06111-dbdc-45c1-872f-bc3ab73fffce")
	}
	maxPlayers := in.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = MinPlayers
	}
	if maxPlayers < MinPlayers || maxPlayers > MaxPlayers {
		return Room{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("max_players must be between %d and %d", MinPlayers, MaxPlayers), nil, "c3746888-97fd-4283-9a2a-d0190a52cb7c")
	}
	displayName, err := validateDisplayName(ctx, in.DisplayName)
	if err != nil {
		return Room{}, err
	}

	code, err := s.uniqueJoinCode(ctx)
	if err != nil {
		return Room{}, err
	}

	now := s.now()
	room := Room{
		ID:         uuid.NewString(),
		Language:   lang.Code,
		Level:      lvl.Code,
		MaxPlayers: maxPlayers,
		JoinCode:   code,
		Status:     StatusWaiting,
		CreatedBy:  in.UserID,
		Members: []Member{{
			UserID:      in.UserID,
			Username:    in.Username,
			DisplayName: displayName,
			JoinedAt:    now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return Room{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create room")
	}

	s.log.Info().Str("room_id", room.ID).Str("language", room.Language).Str("level", room.Level).Msg("room created")
	return room, nil
}

func (s *service) uniqueJoinCode(ctx context.Context) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := GenerateJoinCode()
		if err != nil {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "generate join code", err, "ad95d62e-73f8-4daa-bb9a-c95b928b4140")
		}
		_, err = s.repo.FindByJoinCode(ctx, code)
		if errors.Is(err, ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "check join code")
		}
	}
	return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "could not generate a unique join code, try again", nil, "6815bd1f-f6b7-48e5-9ce7-fd309c641fcb")
}

func (s *service) Join(ctx context.Context, in JoinInput) (Room, error) {
	displayName, err := validateDisplayName(ctx, in.DisplayName)
	if err != nil {
		return Room{}, err
	}
	found, err := s.repo.FindByJoinCode(ctx, NormalizeJoinCode(in.JoinCode))
	if err != nil {
		return Room{}, s.notFoundOr(ctx, err, "find room by code")
	}

	var joined Room
	err = s.locker.WithLock(ctx, LockName(found.ID), func(ctx context.Context) error {
		// re-read under the lock so the member cap holds against racing joins
		current, err := s.repo.FindByID(ctx, found.ID)
		if err != nil {
			return s.notFoundOr(ctx, err, "reload room")
		}
		if current.Status != StatusWaiting {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "Room is no longer accepting players", ErrNotAccepting, "f5d76fff-0537-4755-826c-1ebb2c3dfbdc")
		}
		if current.IsMember(in.UserID) {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "You are already in this room", ErrAlreadyMember, "7c4407a5-2754-40be-8e9f-a40626e43aaa")
		}
		if current.IsFull() {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "Room is full", ErrFull, "226d4083-3004-46aa-bdcc-884e71b2e32e")
		}

		member := Member{
			UserID:      in.UserID,
			Username:    in.Username,
			DisplayName: displayName,
			JoinedAt:    s.now(),
		}
		if err := s.repo.AddMember(ctx, current.ID, member); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "add member")
		}
		current.Members = append(current.Members, member)
		joined = current
		return nil
	})
	if err != nil {
		return Room{}, err
	}

	s.log.Info().Str("room_id", joined.ID).Str("user_id", in.UserID).Int("members", len(joined.Members)).Msg("player joined room")
	return joined, nil
}

func (s *service) Get(ctx context.Context, roomID, userID string) (Room, error) {
	r, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return Room{}, s.notFoundOr(ctx, err, "find room")
	}
	if !r.IsMember(userID) {
		return Room{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "You are not a member of this room", ErrNotMember, "f4219e71-61da-4f04-9582-d10752ea8fa2")
	}
	return r, nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]Room, error) {
	rooms, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list rooms")
	}
	return rooms, nil
}

func (s *service) MarkActive(ctx context.Context, roomID, conversationID, scenario string) error {
	r, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return s.notFoundOr(ctx, err, "find room")
	}
	status := r.Status
	if status != StatusActive {
		if status, err = status.TransitionTo(StatusActive); err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, fmt.Sprintf("room is %s", r.Status), err, "5e20a1f6-bc1b-47f1-bfa8-620f157d8f69")
		}
	}
	if err := s.repo.RecordConversation(ctx, roomID, conversationID, scenario, status); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "record conversation")
	}
	return nil
}

func (s *service) MarkCompleted(ctx context.Context, roomID string) error {
	r, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return s.notFoundOr(ctx, err, "find room")
	}
	if r.Status == StatusCompleted {
		return nil
	}
	if _, err := r.Status.TransitionTo(StatusCompleted); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, fmt.Sprintf("room is %s", r.Status), err, "7e2bb7ec-7f12-402e-8213-e1f698a6cfed")
	}
	if err := s.repo.UpdateStatus(ctx, roomID, StatusCompleted); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "complete room")
	}
	s.log.Info().Str("room_id", roomID).Msg("room completed")
	return nil
}

func (s *service) notFoundOr(ctx context.Context, err error, message string) error {
	if errors.Is(err, ErrNotFound) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "Room not found", err, "dbd08261-396c-4f9e-acaa-2b984ae07e2d")
	}
	return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, message)
}

func validateDisplayName(ctx context.Context, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len([]rune(name)) > 32 {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "display_name must be 1-32 characters", nil, "1242e518-7ce8-4be1-a2b3-4f1e7025353e")
	}
	return name, nil
}
