package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"
)

var (
	ErrInvalidFraction = errors.New("fraction must be in (0, 1]")
	ErrInvalidMinNodes = errors.New("minimum node count must be at least 1")
	ErrWaitAborted     = errors.New("aborted while waiting for nodes")
)

// NodeLister exposes the node IDs currently known to be available. Discovery
// itself is owned by the exchange layer.
type NodeLister interface {
	AvailableNodeIDs(ctx context.Context) ([]string, error)
}

// Sampler picks the subset of available nodes participating in one round.
type Sampler interface {
	Sample(ctx context.Context, lister NodeLister, fraction float64, minNodes int) ([]string, error)
}

type uniform struct {
	rng          *rand.Rand
	pollInterval time.Duration
	waitTimeout  time.Duration
	logger       *slog.Logger
}

// NewUniform samples uniformly at random without replacement. The random
// source is passed in explicitly so rounds can be replayed in tests. A zero
// waitTimeout waits indefinitely; cancel the context to abort.
func NewUniform(rng *rand.Rand, pollInterval, waitTimeout time.Duration, logger *slog.Logger) Sampler {
	return &uniform{
		rng:          rng,
		pollInterval: pollInterval,
		waitTimeout:  waitTimeout,
		logger:       logger,
	}
}

func (s *uniform) Sample(ctx context.Context, lister NodeLister, fraction float64, minNodes int) ([]string, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, ErrInvalidFraction
	}
	if minNodes < 1 {
		return nil, ErrInvalidMinNodes
	}

	if s.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.waitTimeout)
		defer cancel()
	}

	ids, err := s.waitForNodes(ctx, lister, minNodes)
	if err != nil {
		return nil, err
	}

	num := int(float64(len(ids)) * fraction)
	// A small fraction over a small fleet truncates to zero; a round with
	// no participants is useless, so always take at least one node.
	if num < 1 {
		num = 1
	}

	sort.Strings(ids)
	sampled := make([]string, 0, num)
	for _, i := range s.rng.Perm(len(ids))[:num] {
		sampled = append(sampled, ids[i])
	}

	return sampled, nil
}

func (s *uniform) waitForNodes(ctx context.Context, lister NodeLister, minNodes int) ([]string, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		ids, err := lister.AvailableNodeIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list available nodes: %w", err)
		}
		if len(ids) >= minNodes {
			return ids, nil
		}

		s.logger.Info("Waiting for nodes to connect",
			slog.Int("available", len(ids)),
			slog.Int("required", minNodes))

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrWaitAborted, ctx.Err())
		case <-ticker.C:
		}
	}
}
