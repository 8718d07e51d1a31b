package sampler

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	mu  sync.Mutex
	ids []string
}

func (l *staticLister) AvailableNodeIDs(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.ids))
	copy(out, l.ids)

	return out, nil
}

func (l *staticLister) set(ids []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = ids
}

func TestSampleFraction(t *testing.T) {
	tests := []struct {
		name        string
		nodes       []string
		fraction    float64
		minNodes    int
		expectedLen int
		expectedErr error
	}{
		{
			name:        "full fleet",
			nodes:       []string{"n1", "n2", "n3", "n4"},
			fraction:    1.0,
			minNodes:    1,
			expectedLen: 4,
		},
		{
			name:        "half fleet",
			nodes:       []string{"n1", "n2", "n3", "n4"},
			fraction:    0.5,
			minNodes:    1,
			expectedLen: 2,
		},
		{
			name:        "tiny fraction still picks one node",
			nodes:       []string{"n1", "n2", "n3"},
			fraction:    0.1,
			minNodes:    1,
			expectedLen: 1,
		},
		{
			name:        "zero fraction is invalid",
			nodes:       []string{"n1"},
			fraction:    0,
			minNodes:    1,
			expectedErr: ErrInvalidFraction,
		},
		{
			name:        "fraction above one is invalid",
			nodes:       []string{"n1"},
			fraction:    1.5,
			minNodes:    1,
			expectedErr: ErrInvalidFraction,
		},
		{
			name:        "zero min nodes is invalid",
			nodes:       []string{"n1"},
			fraction:    1.0,
			minNodes:    0,
			expectedErr: ErrInvalidMinNodes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewUniform(rand.New(rand.NewSource(42)), time.Millisecond, time.Second, slog.Default())
			lister := &staticLister{ids: tt.nodes}

			sampled, err := s.Sample(context.Background(), lister, tt.fraction, tt.minNodes)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Len(t, sampled, tt.expectedLen)

			seen := make(map[string]bool, len(sampled))
			for _, id := range sampled {
				assert.Contains(t, tt.nodes, id)
				assert.False(t, seen[id], "node sampled twice: %s", id)
				seen[id] = true
			}
		})
	}
}

func TestSampleDeterministicForSeed(t *testing.T) {
	nodes := []string{"n1", "n2", "n3", "n4", "n5"}

	first := NewUniform(rand.New(rand.NewSource(7)), time.Millisecond, time.Second, slog.Default())
	second := NewUniform(rand.New(rand.NewSource(7)), time.Millisecond, time.Second, slog.Default())

	a, err := first.Sample(context.Background(), &staticLister{ids: nodes}, 0.6, 1)
	require.NoError(t, err)
	b, err := second.Sample(context.Background(), &staticLister{ids: nodes}, 0.6, 1)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSampleWaitsForMinNodes(t *testing.T) {
	lister := &staticLister{ids: []string{"n1"}}
	s := NewUniform(rand.New(rand.NewSource(1)), time.Millisecond, time.Second, slog.Default())

	go func() {
		time.Sleep(20 * time.Millisecond)
		lister.set([]string{"n1", "n2", "n3"})
	}()

	sampled, err := s.Sample(context.Background(), lister, 1.0, 3)
	require.NoError(t, err)
	assert.Len(t, sampled, 3)
}

func TestSampleWaitTimeout(t *testing.T) {
	lister := &staticLister{ids: []string{"n1"}}
	s := NewUniform(rand.New(rand.NewSource(1)), time.Millisecond, 20*time.Millisecond, slog.Default())

	_, err := s.Sample(context.Background(), lister, 1.0, 5)
	assert.ErrorIs(t, err, ErrWaitAborted)
}

func TestSampleContextCancellation(t *testing.T) {
	lister := &staticLister{ids: []string{}}
	s := NewUniform(rand.New(rand.NewSource(1)), time.Millisecond, 0, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := s.Sample(ctx, lister, 1.0, 2)
	assert.ErrorIs(t, err, ErrWaitAborted)
}
