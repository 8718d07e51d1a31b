package coordinator

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/absmach/fedstats/pkg/errors"
	"github.com/absmach/fedstats/pkg/exchange/mocks"
	"github.com/absmach/fedstats/pkg/sampler"
	"github.com/absmach/fedstats/pkg/storage"
	"github.com/absmach/fedstats/round"
	"github.com/absmach/fedstats/stats"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(exch *mocks.Exchange) Service {
	logger := slog.Default()

	return NewService(
		storage.NewRoundMemoryRepository(),
		exch,
		sampler.NewUniform(rand.New(rand.NewSource(42)), time.Millisecond, time.Second, logger),
		stats.NewAggregator(logger),
		logger,
	)
}

func validRound() round.Round {
	return round.Round{
		Name:             "ages",
		SelectedFeatures: []string{"age"},
		Methods:          []string{"mean", "std"},
		FractionSample:   1.0,
		MinNodes:         1,
	}
}

func TestCreateRound(t *testing.T) {
	tests := []struct {
		name        string
		round       round.Round
		expectedErr bool
	}{
		{
			name:  "valid round",
			round: validRound(),
		},
		{
			name: "missing features",
			round: round.Round{
				Methods:        []string{"mean"},
				FractionSample: 1.0,
				MinNodes:       1,
			},
			expectedErr: true,
		},
		{
			name: "missing methods",
			round: round.Round{
				SelectedFeatures: []string{"age"},
				FractionSample:   1.0,
				MinNodes:         1,
			},
			expectedErr: true,
		},
		{
			name: "fraction out of range",
			round: round.Round{
				SelectedFeatures: []string{"age"},
				Methods:          []string{"mean"},
				FractionSample:   1.5,
				MinNodes:         1,
			},
			expectedErr: true,
		},
		{
			name: "min nodes below one",
			round: round.Round{
				SelectedFeatures: []string{"age"},
				Methods:          []string{"mean"},
				FractionSample:   1.0,
				MinNodes:         0,
			},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(new(mocks.Exchange))

			created, err := svc.CreateRound(context.Background(), tt.round)
			if tt.expectedErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, round.Pending, created.State)

			got, err := svc.GetRound(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
		})
	}
}

func TestStartRoundLifecycle(t *testing.T) {
	exch := new(mocks.Exchange)
	exch.On("AvailableNodeIDs", mock.Anything).Return([]string{"node-1", "node-2"}, nil)
	exch.On("SendAndReceive", mock.Anything, mock.Anything, mock.Anything).Return([]stats.NodeReply{
		{
			RoundID: "ignored",
			NodeID:  "node-1",
			Results: stats.PartialStatistics{
				"age": {
					"mean": {Sum: 30, Count: 3, SumSquares: 350},
					"std":  {Sum: 30, Count: 3, SumSquares: 350},
				},
			},
		},
		{
			RoundID: "ignored",
			NodeID:  "node-2",
			Results: stats.PartialStatistics{
				"age": {
					"mean": {Sum: 50, Count: 5, SumSquares: 600},
					"std":  {Sum: 50, Count: 5, SumSquares: 600},
				},
			},
		},
	}, nil)

	svc := newTestService(exch)

	created, err := svc.CreateRound(context.Background(), validRound())
	require.NoError(t, err)

	finished, err := svc.StartRound(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, round.Done, finished.State)
	assert.Equal(t, 2, finished.ValidReplies)
	assert.Len(t, finished.SampledNodes, 2)

	require.NotNil(t, finished.Results["age"]["mean"])
	assert.InDelta(t, 10.0, *finished.Results["age"]["mean"], 1e-9)

	persisted, err := svc.GetRound(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, round.Done, persisted.State)
	assert.False(t, persisted.FinishTime.IsZero())
}

func TestStartRoundTwice(t *testing.T) {
	exch := new(mocks.Exchange)
	exch.On("AvailableNodeIDs", mock.Anything).Return([]string{"node-1"}, nil)
	exch.On("SendAndReceive", mock.Anything, mock.Anything, mock.Anything).Return([]stats.NodeReply{
		{
			NodeID: "node-1",
			Results: stats.PartialStatistics{
				"age": {"mean": {Sum: 10, Count: 2, SumSquares: 52}, "std": {Sum: 10, Count: 2, SumSquares: 52}},
			},
		},
	}, nil)

	svc := newTestService(exch)

	created, err := svc.CreateRound(context.Background(), validRound())
	require.NoError(t, err)

	_, err = svc.StartRound(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.StartRound(context.Background(), created.ID)
	assert.Error(t, err)
}

func TestStartRoundAllRepliesErrored(t *testing.T) {
	exch := new(mocks.Exchange)
	exch.On("AvailableNodeIDs", mock.Anything).Return([]string{"node-1", "node-2"}, nil)
	exch.On("SendAndReceive", mock.Anything, mock.Anything, mock.Anything).Return([]stats.NodeReply{
		{NodeID: "node-1", Error: "feature not found"},
		{NodeID: "node-2", Error: "feature not found"},
	}, nil)

	svc := newTestService(exch)

	created, err := svc.CreateRound(context.Background(), validRound())
	require.NoError(t, err)

	_, err = svc.StartRound(context.Background(), created.ID)
	assert.ErrorIs(t, err, errors.ErrNoValidReplies)

	persisted, err := svc.GetRound(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, round.Failed, persisted.State)
	assert.NotEmpty(t, persisted.Error)
}

func TestStartRoundUnknown(t *testing.T) {
	svc := newTestService(new(mocks.Exchange))

	_, err := svc.StartRound(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListRounds(t *testing.T) {
	svc := newTestService(new(mocks.Exchange))

	for i := 0; i < 3; i++ {
		_, err := svc.CreateRound(context.Background(), validRound())
		require.NoError(t, err)
	}

	page, err := svc.ListRounds(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	assert.Len(t, page.Rounds, 2)
}

func TestDeleteRound(t *testing.T) {
	svc := newTestService(new(mocks.Exchange))

	created, err := svc.CreateRound(context.Background(), validRound())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRound(context.Background(), created.ID))

	_, err = svc.GetRound(context.Background(), created.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListNodes(t *testing.T) {
	exch := new(mocks.Exchange)
	exch.On("AvailableNodeIDs", mock.Anything).Return([]string{"node-b", "node-a", "node-c"}, nil)

	svc := newTestService(exch)

	page, err := svc.ListNodes(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	require.Len(t, page.Nodes, 2)
	assert.Equal(t, "node-a", page.Nodes[0].ID)
	assert.Equal(t, "node-b", page.Nodes[1].ID)

	page, err = svc.ListNodes(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Nodes)
}

func TestIngestReply(t *testing.T) {
	reply := stats.NodeReply{
		RoundID: "round-1",
		NodeID:  "node-1",
		Results: stats.PartialStatistics{
			"age": {"mean": {Sum: 10, Count: 2, SumSquares: 52}},
		},
	}
	data, err := cbor.Marshal(reply)
	require.NoError(t, err)

	exch := new(mocks.Exchange)
	exch.On("Collect", mock.Anything).Return()

	svc := newTestService(exch)

	require.NoError(t, svc.IngestReply(context.Background(), data))
	exch.AssertCalled(t, "Collect", mock.Anything)
}

func TestIngestReplyInvalid(t *testing.T) {
	svc := newTestService(new(mocks.Exchange))

	err := svc.IngestReply(context.Background(), []byte("not cbor"))
	assert.Error(t, err)

	data, err := cbor.Marshal(stats.NodeReply{NodeID: "node-1"})
	require.NoError(t, err)

	err = svc.IngestReply(context.Background(), data)
	assert.Error(t, err)
}
