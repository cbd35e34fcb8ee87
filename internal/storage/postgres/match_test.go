package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenfall/covenfall/internal/game/eventlog"
	"github.com/covenfall/covenfall/internal/storage/postgres"
	"github.com/covenfall/covenfall/internal/testutil"
)

func setupMatchRepo(t *testing.T) *postgres.MatchRepository {
	t.Helper()
	return postgres.NewMatchRepository(testutil.NewPool(t))
}

func sampleEvents() []eventlog.Entry {
	return []eventlog.Entry{
		{Type: eventlog.TypeAction, Public: true, AttackerID: "a-1", Message: "Aldric lashes out"},
		{Type: eventlog.TypeDamage, Public: true, AttackerID: "a-1", TargetID: "b-1", Message: "Brynn takes 20 damage"},
		{Type: eventlog.TypeFailure, TargetID: "a-1", PrivateMessage: "your focus slips"},
	}
}

func TestMatchRepository_StartAndGet(t *testing.T) {
	repo := setupMatchRepo(t)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, repo.StartMatch(ctx, id, "grave_troll"))

	m, err := repo.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, "grave_troll", m.MonsterID)
	assert.Empty(t, m.Winner)
	assert.Zero(t, m.Rounds)
	assert.False(t, m.StartedAt.IsZero())
	assert.Nil(t, m.FinishedAt)
}

func TestMatchRepository_StartDuplicate_ReturnsExists(t *testing.T) {
	repo := setupMatchRepo(t)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, repo.StartMatch(ctx, id, "grave_troll"))
	assert.ErrorIs(t, repo.StartMatch(ctx, id, "grave_troll"), postgres.ErrMatchExists)
}

func TestMatchRepository_GetMissing_ReturnsNotFound(t *testing.T) {
	repo := setupMatchRepo(t)
	_, err := repo.GetMatch(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrMatchNotFound)
}

func TestMatchRepository_SaveAndReadRound(t *testing.T) {
	repo := setupMatchRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, repo.StartMatch(ctx, id, "grave_troll"))

	events := sampleEvents()
	require.NoError(t, repo.SaveRound(ctx, id, 1, events))

	got, err := repo.RoundEvents(ctx, id, 1)
	require.NoError(t, err)
	require.Len(t, got, len(events))
	assert.Equal(t, events, got)
}

func TestMatchRepository_SaveRound_UnknownMatch_ReturnsNotFound(t *testing.T) {
	repo := setupMatchRepo(t)
	err := repo.SaveRound(context.Background(), uuid.NewString(), 1, sampleEvents())
	assert.ErrorIs(t, err, postgres.ErrMatchNotFound)
}

func TestMatchRepository_SaveRound_Twice_LastWriteWins(t *testing.T) {
	repo := setupMatchRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, repo.StartMatch(ctx, id, "grave_troll"))

	require.NoError(t, repo.SaveRound(ctx, id, 1, sampleEvents()))
	final := []eventlog.Entry{{Type: eventlog.TypeWin, Public: true, Message: "the loyal prevail"}}
	require.NoError(t, repo.SaveRound(ctx, id, 1, final))

	got, err := repo.RoundEvents(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, final, got)
}

func TestMatchRepository_RoundEvents_Missing_ReturnsNotFound(t *testing.T) {
	repo := setupMatchRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, repo.StartMatch(ctx, id, "grave_troll"))

	_, err := repo.RoundEvents(ctx, id, 7)
	assert.ErrorIs(t, err, postgres.ErrRoundNotFound)
}

func TestMatchRepository_Finish(t *testing.T) {
	repo := setupMatchRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, repo.StartMatch(ctx, id, "grave_troll"))

	require.NoError(t, repo.FinishMatch(ctx, id, "corrupted", 9))

	m, err := repo.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "corrupted", m.Winner)
	assert.Equal(t, 9, m.Rounds)
	require.NotNil(t, m.FinishedAt)
}

func TestMatchRepository_FinishMissing_ReturnsNotFound(t *testing.T) {
	repo := setupMatchRepo(t)
	err := repo.FinishMatch(context.Background(), uuid.NewString(), "loyal", 3)
	assert.ErrorIs(t, err, postgres.ErrMatchNotFound)
}

func TestMatchRepository_ListRecent_NewestFirst(t *testing.T) {
	repo := setupMatchRepo(t)
	ctx := context.Background()

	first := uuid.NewString()
	second := uuid.NewString()
	require.NoError(t, repo.StartMatch(ctx, first, "grave_troll"))
	require.NoError(t, repo.StartMatch(ctx, second, "bone_wyrm"))

	matches, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, second, matches[0].ID)
	assert.Equal(t, first, matches[1].ID)
}

func TestMatchRepository_ListRounds_Ordered(t *testing.T) {
	repo := setupMatchRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, repo.StartMatch(ctx, id, "grave_troll"))

	require.NoError(t, repo.SaveRound(ctx, id, 2, sampleEvents()))
	require.NoError(t, repo.SaveRound(ctx, id, 1, sampleEvents()))

	archives, err := repo.ListRounds(ctx, id)
	require.NoError(t, err)
	require.Len(t, archives, 2)
	assert.Equal(t, 1, archives[0].Round)
	assert.Equal(t, 2, archives[1].Round)
	assert.False(t, archives[0].SavedAt.IsZero())
}
