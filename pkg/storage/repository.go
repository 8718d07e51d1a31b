package storage

import (
	"context"

	"github.com/absmach/fedstats/round"
)

type RoundRepository interface {
	Create(ctx context.Context, r round.Round) (round.Round, error)
	Get(ctx context.Context, id string) (round.Round, error)
	Update(ctx context.Context, r round.Round) error
	List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error)
	Delete(ctx context.Context, id string) error
}
