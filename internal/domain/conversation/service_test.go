package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/domain/room"
	"babel-bridge/internal/infrastructure/cache"
	convrepo "babel-bridge/internal/infrastructure/repository/conversation"
	roomrepo "babel-bridge/internal/infrastructure/repository/room"
	"babel-bridge/internal/utils/platformerrors"
)

// scriptedGenerator returns "line N" for every planned turn.
type scriptedGenerator struct {
	err      error
	truncate bool
	calls    atomic.Int32
	last     conversation.GenerateRequest
}

func (g *scriptedGenerator) Generate(ctx context.Context, req conversation.GenerateRequest) ([]conversation.GeneratedLine, error) {
	g.calls.Add(1)
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	lines := make([]conversation.GeneratedLine, len(req.Plan))
	for i, role := range req.Plan {
		lines[i] = conversation.GeneratedLine{
			TurnNumber: i + 1,
			Speaker:    role,
			Line: conversation.Line{
				RomanText:   fmt.Sprintf("line %d", i+1),
				NativeText:  fmt.Sprintf("строка %d", i+1),
				EnglishText: fmt.Sprintf("line %d", i+1),
			},
		}
	}
	if g.truncate {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

type countingRecorder struct {
	mu        sync.Mutex
	started   int
	completed int
	outcomes  map[string]int
	conflicts int
}

func (r *countingRecorder) ConversationStarted(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *countingRecorder) ConversationCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *countingRecorder) TurnSubmitted(outcome string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[outcome]++
}

func (r *countingRecorder) CommitConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

// contestedRepository loses every compare-and-swap.
type contestedRepository struct {
	*convrepo.InMemoryRepository
}

func (contestedRepository) CommitTurn(context.Context, int, conversation.Conversation) error {
	return conversation.ErrConcurrentUpdate
}

type fixture struct {
	rooms     room.Service
	convs     conversation.Service
	generator *scriptedGenerator
	recorder  *countingRecorder
}

func newFixture(t *testing.T, repo conversation.Repository) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	if repo == nil {
		repo = convrepo.NewInMemoryRepository()
	}

	locker := cache.NewLocalLocker()
	rooms := room.NewService(roomrepo.NewInMemoryRepository(), locker, cat, zerolog.Nop())
	f := &fixture{
		rooms:     rooms,
		generator: &scriptedGenerator{},
		recorder:  &countingRecorder{},
	}
	f.convs = conversation.NewService(repo, rooms, locker, f.generator, cat, f.recorder,
		conversation.Config{TurnsPerConversation: 20, SubmitMaxAttempts: 3}, zerolog.Nop())
	return f
}

// room opens a room for u1 and seats the extra users in order.
func (f *fixture) room(t *testing.T, maxPlayers int, others ...string) room.Room {
	t.Helper()
	ctx := context.Background()
	r, err := f.rooms.Create(ctx, room.CreateInput{
		UserID: "u1", Username: "anna", DisplayName: "Anna",
		Language: "Russian", Level: "A1", MaxPlayers: maxPlayers,
	})
	require.NoError(t, err)
	for _, id := range others {
		r, err = f.rooms.Join(ctx, room.JoinInput{UserID: id, Username: id, DisplayName: "Player " + id, JoinCode: r.JoinCode})
		require.NoError(t, err)
	}
	return r
}

func submit(f *fixture, r room.Room, conv conversation.Conversation, userID string, turn int) (conversation.Conversation, error) {
	return f.convs.Submit(context.Background(), r.ID, conv.ID, conversation.Submission{
		TurnNumber: turn,
		UserID:     userID,
		Text:       fmt.Sprintf("line %d", turn),
	})
}

func TestStart(t *testing.T) {
	f := newFixture(t, nil)
	r := f.room(t, 2, "u2")

	_, err := f.convs.Start(context.Background(), conversation.StartInput{RoomID: r.ID, UserID: "u2"})
	assert.Equal(t, platformerrors.ErrorTypeForbidden, errorType(err), "only the creator starts")

	conv, err := f.convs.Start(context.Background(), conversation.StartInput{RoomID: r.ID, UserID: "u1", Prompt: "  Ordering coffee  "})
	require.NoError(t, err)

	assert.Equal(t, conversation.StatusActive, conv.Status)
	assert.Equal(t, 1, conv.CurrentTurn)
	assert.Equal(t, "Ordering coffee", conv.Scenario)
	assert.Len(t, conv.Turns, 20)
	require.Len(t, conv.Participants, 2)
	assert.Equal(t, "u1", conv.Participants[0].UserID)
	assert.Equal(t, "u2", conv.Participants[1].UserID)
	assert.Equal(t, "Ordering coffee", f.generator.last.Scenario)

	got, err := f.rooms.Get(context.Background(), r.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, room.StatusActive, got.Status)
	assert.Equal(t, conv.ID, got.LastConversationID)
	assert.Equal(t, 1, f.recorder.started)
}

func TestStartDefaultScenarioAndAISeats(t *testing.T) {
	f := newFixture(t, nil)
	r := f.room(t, 4)

	conv, err := f.convs.Start(context.Background(), conversation.StartInput{RoomID: r.ID, UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, "Two strangers introduce themselves at a bus stop.", conv.Scenario)
	require.Len(t, conv.Participants, 4)
	assert.False(t, conv.Participants[0].IsAI)
	for _, p := range conv.Participants[1:] {
		assert.True(t, p.IsAI, "role %s", p.Role)
	}

	// A speaks on 1, 5, 9, 13 and 17; everything else is AI.
	next, err := submit(f, r, conv, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 5, next.CurrentTurn)
}

func TestStartGeneratorFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*scriptedGenerator)
		contract bool
	}{
		{"upstream error", func(g *scriptedGenerator) { g.err = errors.New("quota exceeded") }, false},
		{"missing turn", func(g *scriptedGenerator) { g.truncate = true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			tt.setup(f.generator)
			r := f.room(t, 2, "u2")

			_, err := f.convs.Start(context.Background(), conversation.StartInput{RoomID: r.ID, UserID: "u1"})
			require.Error(t, err)
			assert.Equal(t, platformerrors.ErrorTypeExternal, errorType(err), "got %v", err)
			assert.Equal(t, tt.contract, errors.Is(err, conversation.ErrGeneratorContract))

			got, err := f.rooms.Get(context.Background(), r.ID, "u1")
			require.NoError(t, err)
			assert.Equal(t, room.StatusWaiting, got.Status)
		})
	}
}

func TestTwoPlayerConversationCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	r := f.room(t, 2, "u2")

	conv, err := f.convs.Start(ctx, conversation.StartInput{RoomID: r.ID, UserID: "u1"})
	require.NoError(t, err)

	for turn := 1; turn <= 20; turn++ {
		user := "u1"
		if turn%2 == 0 {
			user = "u2"
		}
		conv, err = submit(f, r, conv, user, turn)
		require.NoError(t, err, "turn %d", turn)
		got, _ := conv.Turn(turn)
		require.NotNil(t, got.Response)
		assert.Equal(t, 100, got.Response.Score)
	}

	assert.Equal(t, conversation.StatusCompleted, conv.Status)
	assert.Equal(t, 21, conv.CurrentTurn)
	assert.Equal(t, 1, f.recorder.completed)

	got, err := f.rooms.Get(ctx, r.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, room.StatusCompleted, got.Status)

	_, err = submit(f, r, conv, "u1", 21)
	assert.True(t, errors.Is(err, conversation.ErrAlreadyCompleted))

	_, err = f.convs.Start(ctx, conversation.StartInput{RoomID: r.ID, UserID: "u1"})
	assert.Equal(t, platformerrors.ErrorTypeConflict, errorType(err))
}

func TestSubmitErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	r := f.room(t, 2, "u2")
	conv, err := f.convs.Start(ctx, conversation.StartInput{RoomID: r.ID, UserID: "u1"})
	require.NoError(t, err)

	tests := []struct {
		name string
		sub  conversation.Submission
		want platformerrors.ErrorType
	}{
		{"wrong turn", conversation.Submission{TurnNumber: 2, UserID: "u2", Text: "hej"}, platformerrors.ErrorTypeConflict},
		{"not your turn", conversation.Submission{TurnNumber: 1, UserID: "u2", Text: "hej"}, platformerrors.ErrorTypeForbidden},
		{"blank text", conversation.Submission{TurnNumber: 1, UserID: "u1", Text: "  "}, platformerrors.ErrorTypeValidation},
		{"stranger", conversation.Submission{TurnNumber: 1, UserID: "u9", Text: "hej"}, platformerrors.ErrorTypeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.convs.Submit(ctx, r.ID, conv.ID, tt.sub)
			assert.Equal(t, tt.want, errorType(err), "got %v", err)
		})
	}

	stored, err := f.convs.Get(ctx, r.ID, conv.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentTurn)
	first, _ := stored.Turn(1)
	assert.Nil(t, first.Response)
}

func TestConcurrentSubmitsSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	r := f.room(t, 2, "u2")
	conv, err := f.convs.Start(ctx, conversation.StartInput{RoomID: r.ID, UserID: "u1"})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		rejected atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := submit(f, r, conv, "u1", 1)
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, conversation.ErrTurnMismatch):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, int32(7), rejected.Load())

	stored, err := f.convs.Get(ctx, r.ID, conv.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentTurn)
}

func TestSubmitGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, contestedRepository{convrepo.NewInMemoryRepository()})
	r := f.room(t, 2, "u2")
	conv, err := f.convs.Start(ctx, conversation.StartInput{RoomID: r.ID, UserID: "u1"})
	require.NoError(t, err)

	_, err = submit(f, r, conv, "u1", 1)
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeConflict, errorType(err))
	assert.True(t, errors.Is(err, conversation.ErrTurnMismatch))
	assert.Equal(t, 3, f.recorder.conflicts)
	assert.Equal(t, 1, f.recorder.outcomes[conversation.OutcomeConflict])
}

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	r := f.room(t, 2, "u2")
	other := f.room(t, 2)

	conv, err := f.convs.Start(ctx, conversation.StartInput{RoomID: r.ID, UserID: "u1"})
	require.NoError(t, err)

	got, err := f.convs.Get(ctx, r.ID, conv.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = f.convs.Get(ctx, other.ID, conv.ID, "u1")
	assert.Equal(t, platformerrors.ErrorTypeNotFound, errorType(err))

	_, err = f.convs.Get(ctx, r.ID, "missing", "u1")
	assert.Equal(t, platformerrors.ErrorTypeNotFound, errorType(err))

	_, err = f.convs.List(ctx, r.ID, "u9")
	assert.Equal(t, platformerrors.ErrorTypeForbidden, errorType(err))

	list, err := f.convs.List(ctx, r.ID, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, conv.ID, list[0].ID)
}

func errorType(err error) platformerrors.ErrorType {
	var pe *platformerrors.PlatformError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}
