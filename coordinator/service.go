package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/absmach/fedstats/node"
	"github.com/absmach/fedstats/pkg/exchange"
	"github.com/absmach/fedstats/pkg/sampler"
	"github.com/absmach/fedstats/pkg/storage"
	"github.com/absmach/fedstats/round"
	"github.com/absmach/fedstats/stats"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

var errRoundNotPending = errors.New("round has already been started")

type service struct {
	roundsDB   storage.RoundRepository
	exchange   exchange.Exchange
	sampler    sampler.Sampler
	aggregator stats.Aggregator
	logger     *slog.Logger
}

func NewService(roundsDB storage.RoundRepository, exch exchange.Exchange, s sampler.Sampler, aggregator stats.Aggregator, logger *slog.Logger) Service {
	return &service{
		roundsDB:   roundsDB,
		exchange:   exch,
		sampler:    s,
		aggregator: aggregator,
		logger:     logger,
	}
}

func (svc *service) CreateRound(ctx context.Context, r round.Round) (round.Round, error) {
	if err := r.Validate(); err != nil {
		return round.Round{}, err
	}

	r.ID = uuid.NewString()
	r.State = round.Pending
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt

	return svc.roundsDB.Create(ctx, r)
}

func (svc *service) StartRound(ctx context.Context, roundID string) (round.Round, error) {
	r, err := svc.roundsDB.Get(ctx, roundID)
	if err != nil {
		return round.Round{}, err
	}
	if r.State != round.Pending {
		return round.Round{}, errRoundNotPending
	}

	r.StartTime = time.Now()

	if err := svc.transition(ctx, &r, round.Sampling); err != nil {
		return round.Round{}, err
	}
	sampled, err := svc.sampler.Sample(ctx, svc.exchange, r.FractionSample, r.MinNodes)
	if err != nil {
		return svc.fail(ctx, r, err)
	}
	r.SampledNodes = sampled
	svc.logger.Info("Sampled nodes for round",
		slog.String("round_id", r.ID),
		slog.Int("sampled", len(sampled)))

	if err := svc.transition(ctx, &r, round.Dispatching); err != nil {
		return round.Round{}, err
	}
	req := r.Request()

	if err := svc.transition(ctx, &r, round.AwaitingReplies); err != nil {
		return round.Round{}, err
	}
	replies, err := svc.exchange.SendAndReceive(ctx, req, sampled)
	if err != nil {
		return svc.fail(ctx, r, err)
	}

	if err := svc.transition(ctx, &r, round.Reducing); err != nil {
		return round.Round{}, err
	}
	results, valid, err := svc.aggregator.Aggregate(req, replies)
	if err != nil {
		return svc.fail(ctx, r, err)
	}

	r.Results = results
	r.ValidReplies = valid
	r.State = round.Done
	r.FinishTime = time.Now()
	r.UpdatedAt = r.FinishTime
	if err := svc.roundsDB.Update(ctx, r); err != nil {
		return round.Round{}, err
	}

	return r, nil
}

func (svc *service) GetRound(ctx context.Context, roundID string) (round.Round, error) {
	return svc.roundsDB.Get(ctx, roundID)
}

func (svc *service) ListRounds(ctx context.Context, offset, limit uint64) (round.RoundPage, error) {
	rounds, total, err := svc.roundsDB.List(ctx, offset, limit)
	if err != nil {
		return round.RoundPage{}, err
	}

	return round.RoundPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Rounds: rounds,
	}, nil
}

func (svc *service) DeleteRound(ctx context.Context, roundID string) error {
	return svc.roundsDB.Delete(ctx, roundID)
}

func (svc *service) ListNodes(ctx context.Context, offset, limit uint64) (node.NodePage, error) {
	ids, err := svc.exchange.AvailableNodeIDs(ctx)
	if err != nil {
		return node.NodePage{}, err
	}
	sort.Strings(ids)

	total := uint64(len(ids))
	if offset >= total {
		return node.NodePage{Offset: offset, Limit: limit, Total: total}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	nodes := make([]node.Node, 0, end-offset)
	for _, id := range ids[offset:end] {
		nodes = append(nodes, node.Node{
			ID:       id,
			Alive:    true,
			LastSeen: time.Now(),
		})
	}

	return node.NodePage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Nodes:  nodes,
	}, nil
}

func (svc *service) IngestReply(_ context.Context, data []byte) error {
	var reply stats.NodeReply
	if err := cbor.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("failed to decode CBOR reply: %w", err)
	}
	if reply.RoundID == "" || reply.NodeID == "" {
		return errors.New("reply must carry round_id and node_id")
	}

	svc.exchange.Collect(reply)

	return nil
}

func (svc *service) Subscribe(ctx context.Context) error {
	return svc.exchange.Subscribe(ctx)
}

func (svc *service) transition(ctx context.Context, r *round.Round, next round.State) error {
	r.State = next
	r.UpdatedAt = time.Now()

	return svc.roundsDB.Update(ctx, *r)
}

func (svc *service) fail(ctx context.Context, r round.Round, cause error) (round.Round, error) {
	r.State = round.Failed
	r.Error = cause.Error()
	r.FinishTime = time.Now()
	r.UpdatedAt = r.FinishTime
	if err := svc.roundsDB.Update(ctx, r); err != nil {
		svc.logger.Error("Failed to persist failed round",
			slog.String("round_id", r.ID),
			slog.Any("error", err))
	}

	return round.Round{}, cause
}
