package middleware

import (
	"context"
	"time"

	"github.com/absmach/fedstats/coordinator"
	"github.com/absmach/fedstats/node"
	"github.com/absmach/fedstats/round"
	"github.com/go-kit/kit/metrics"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) CreateRound(ctx context.Context, r round.Round) (round.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "create-round").Add(1)
		mm.latency.With("method", "create-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CreateRound(ctx, r)
}

func (mm *metricsMiddleware) StartRound(ctx context.Context, roundID string) (round.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "start-round").Add(1)
		mm.latency.With("method", "start-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.StartRound(ctx, roundID)
}

func (mm *metricsMiddleware) GetRound(ctx context.Context, roundID string) (round.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-round").Add(1)
		mm.latency.With("method", "get-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRound(ctx, roundID)
}

func (mm *metricsMiddleware) ListRounds(ctx context.Context, offset, limit uint64) (round.RoundPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-rounds").Add(1)
		mm.latency.With("method", "list-rounds").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListRounds(ctx, offset, limit)
}

func (mm *metricsMiddleware) DeleteRound(ctx context.Context, roundID string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "delete-round").Add(1)
		mm.latency.With("method", "delete-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.DeleteRound(ctx, roundID)
}

func (mm *metricsMiddleware) ListNodes(ctx context.Context, offset, limit uint64) (node.NodePage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-nodes").Add(1)
		mm.latency.With("method", "list-nodes").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListNodes(ctx, offset, limit)
}

func (mm *metricsMiddleware) IngestReply(ctx context.Context, data []byte) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "ingest-reply").Add(1)
		mm.latency.With("method", "ingest-reply").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.IngestReply(ctx, data)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "subscribe").Add(1)
		mm.latency.With("method", "subscribe").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Subscribe(ctx)
}
