package user

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"babel-bridge/internal/utils/platformerrors"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 6
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
)

// Service describes account operations.
type Service interface {
	Register(ctx context.Context, username, password string) (Token, error)
	Login(ctx context.Context, username, password string) (Token, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
	cost   int
	log    zerolog.Logger
	now    func() time.Time
}

// NewService wires the user service. cost is the bcrypt work factor; zero uses bcrypt.DefaultCost.
func NewService(repo Repository, tokens TokenIssuer, cost int, log zerolog.Logger) Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{
		repo:   repo,
		tokens: tokens,
		cost:   cost,
		log:    log.With().Str("component", "user-service").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Register(ctx context.Context, username, password string) (Token, error) {
	name := normalizeUsername(username)
	if n := utf8.RuneCountInString(name); n < minUsernameLength || n > maxUsernameLength {
		return Token{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "username must be 3-32 characters", nil, "67c52580-7cc3-443c-ba12-b20e325fd14e")
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordBytes {
		return Token{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "password must be 6-72 characters", nil, "36c92c7f-477a-469d-9ccf-c98a8cfd0ba5")
	}

	_, err := s.repo.FindByUsername(ctx, name)
	switch {
	case err == nil:
		return Token{}, s.taken(ctx)
	case !errors.Is(err, ErrNotFound):
		return Token{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "look up username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Token{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "hash password", err, "480f2d0c-0af5-402f-908d-8f99549e5a65")
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     name,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return Token{}, s.taken(ctx)
		}
		return Token{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create user")
	}

	s.log.Info().Str("user_id", u.ID).Str("username", u.Username).Msg("user registered")
	return s.issue(ctx, u)
}

func (s *service) Login(ctx context.Context, username, password string) (Token, error) {
	u, err := s.repo.FindByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, ErrNotFound) {
		return Token{}, s.invalidCredentials(ctx)
	}
	if err != nil {
		return Token{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "look up username")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Token{}, s.invalidCredentials(ctx)
	}
	return s.issue(ctx, u)
}

func (s *service) issue(ctx context.Context, u User) (Token, error) {
	token, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return Token{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "issue access token", err, "e365c5e6-ac20-44e1-80de-b8ed842d78be")
	}
	return Token{AccessToken: token, TokenType: "bearer", Username: u.Username}, nil
}

func (s *service) taken(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "Username already taken", ErrUsernameTaken, "ba6fece3-da13-4f3b-a165-7c4ddb2b7d59")
}

func (s *service) invalidCredentials(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "Invalid username or password", nil, "dd533b93-693b-4e43-ae44-e4d2187079c7")
}

func normalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
