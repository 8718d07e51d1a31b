package storage

import (
	"context"

	"github.com/absmach/fedstats/pkg/errors"
	"github.com/absmach/fedstats/round"
)

type roundMemoryRepo struct {
	store Storage
}

// NewRoundMemoryRepository adapts the generic in-memory storage to the round
// repository contract. Handy for tests and single-process setups.
func NewRoundMemoryRepository() RoundRepository {
	return &roundMemoryRepo{store: NewInMemoryStorage()}
}

func (r *roundMemoryRepo) Create(ctx context.Context, rnd round.Round) (round.Round, error) {
	if err := r.store.Create(ctx, rnd.ID, rnd); err != nil {
		return round.Round{}, err
	}

	return rnd, nil
}

func (r *roundMemoryRepo) Get(ctx context.Context, id string) (round.Round, error) {
	data, err := r.store.Get(ctx, id)
	if err != nil {
		return round.Round{}, err
	}
	rnd, ok := data.(round.Round)
	if !ok {
		return round.Round{}, errors.ErrInvalidData
	}

	return rnd, nil
}

func (r *roundMemoryRepo) Update(ctx context.Context, rnd round.Round) error {
	return r.store.Update(ctx, rnd.ID, rnd)
}

func (r *roundMemoryRepo) List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error) {
	data, total, err := r.store.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	rounds := make([]round.Round, 0, len(data))
	for i := range data {
		rnd, ok := data[i].(round.Round)
		if !ok {
			return nil, 0, errors.ErrInvalidData
		}
		rounds = append(rounds, rnd)
	}

	return rounds, total, nil
}

func (r *roundMemoryRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}
