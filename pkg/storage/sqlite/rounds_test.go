package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	pkgerrors "github.com/absmach/fedstats/pkg/errors"
	"github.com/absmach/fedstats/round"
	"github.com/absmach/fedstats/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) RoundRepository {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "rounds.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewRoundRepository(db)
}

func testRound(id string) round.Round {
	now := time.Now().UTC().Truncate(time.Second)

	return round.Round{
		ID:               id,
		Name:             "ages",
		State:            round.Pending,
		SelectedFeatures: []string{"age"},
		Methods:          []string{"mean", "std"},
		FractionSample:   1.0,
		MinNodes:         1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestRoundRepositoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	r := testRound("round-1")

	created, err := repo.Create(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, r.ID, created.ID)

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Name, got.Name)
	assert.Equal(t, r.SelectedFeatures, got.SelectedFeatures)
	assert.Equal(t, r.Methods, got.Methods)
	assert.Equal(t, round.Pending, got.State)

	mean := 10.0
	got.State = round.Done
	got.ValidReplies = 2
	got.SampledNodes = []string{"node-1", "node-2"}
	got.Results = stats.GlobalStatistics{"age": {"mean": &mean, "std": nil}}
	got.FinishTime = time.Now().UTC().Truncate(time.Second)
	got.UpdatedAt = got.FinishTime
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, round.Done, updated.State)
	assert.Equal(t, 2, updated.ValidReplies)
	assert.Equal(t, []string{"node-1", "node-2"}, updated.SampledNodes)
	require.NotNil(t, updated.Results["age"]["mean"])
	assert.InDelta(t, mean, *updated.Results["age"]["mean"], 1e-9)
	assert.Nil(t, updated.Results["age"]["std"])
	assert.False(t, updated.FinishTime.IsZero())

	require.NoError(t, repo.Delete(ctx, r.ID))

	_, err = repo.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestRoundRepositoryNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRoundNotFound)
	// The API layer maps the shared sentinel to 404 regardless of backend.
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	assert.ErrorIs(t, repo.Update(ctx, testRound("missing")), ErrRoundNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrRoundNotFound)
}

func TestRoundRepositoryList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"round-1", "round-2", "round-3"} {
		r := testRound(id)
		r.CreatedAt = base.Add(time.Duration(i) * time.Second)
		r.UpdatedAt = r.CreatedAt
		_, err := repo.Create(ctx, r)
		require.NoError(t, err)
	}

	rounds, total, err := repo.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, rounds, 2)
	// Newest first.
	assert.Equal(t, "round-3", rounds[0].ID)
	assert.Equal(t, "round-2", rounds[1].ID)

	rounds, total, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, rounds, 1)
	assert.Equal(t, "round-1", rounds[0].ID)
}
