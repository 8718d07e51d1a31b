package coordinator

import (
	"context"

	"github.com/absmach/fedstats/node"
	"github.com/absmach/fedstats/round"
)

type Service interface {
	// CreateRound validates and stores a new round in Pending state.
	CreateRound(ctx context.Context, r round.Round) (round.Round, error)

	// StartRound drives one full round: sampling, dispatching, the reply
	// barrier and reduction. A round either ends Done with results
	// (possibly containing nil entries) or Failed.
	StartRound(ctx context.Context, roundID string) (round.Round, error)

	GetRound(ctx context.Context, roundID string) (round.Round, error)
	ListRounds(ctx context.Context, offset, limit uint64) (round.RoundPage, error)
	DeleteRound(ctx context.Context, roundID string) error

	ListNodes(ctx context.Context, offset, limit uint64) (node.NodePage, error)

	// IngestReply accepts a CBOR-encoded node reply posted over HTTP by
	// nodes that cannot hold an MQTT session open.
	IngestReply(ctx context.Context, data []byte) error

	Subscribe(ctx context.Context) error
}
