package middleware

import (
	"context"

	"github.com/absmach/fedstats/coordinator"
	"github.com/absmach/fedstats/node"
	"github.com/absmach/fedstats/round"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) CreateRound(ctx context.Context, r round.Round) (round.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "create-round", trace.WithAttributes(
		attribute.String("name", r.Name),
	))
	defer span.End()

	return tm.svc.CreateRound(ctx, r)
}

func (tm *tracing) StartRound(ctx context.Context, roundID string) (round.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "start-round", trace.WithAttributes(
		attribute.String("id", roundID),
	))
	defer span.End()

	return tm.svc.StartRound(ctx, roundID)
}

func (tm *tracing) GetRound(ctx context.Context, roundID string) (round.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "get-round", trace.WithAttributes(
		attribute.String("id", roundID),
	))
	defer span.End()

	return tm.svc.GetRound(ctx, roundID)
}

func (tm *tracing) ListRounds(ctx context.Context, offset, limit uint64) (round.RoundPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-rounds", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListRounds(ctx, offset, limit)
}

func (tm *tracing) DeleteRound(ctx context.Context, roundID string) error {
	ctx, span := tm.tracer.Start(ctx, "delete-round", trace.WithAttributes(
		attribute.String("id", roundID),
	))
	defer span.End()

	return tm.svc.DeleteRound(ctx, roundID)
}

func (tm *tracing) ListNodes(ctx context.Context, offset, limit uint64) (node.NodePage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-nodes", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListNodes(ctx, offset, limit)
}

func (tm *tracing) IngestReply(ctx context.Context, data []byte) error {
	ctx, span := tm.tracer.Start(ctx, "ingest-reply", trace.WithAttributes(
		attribute.Int("data_size", len(data)),
	))
	defer span.End()

	return tm.svc.IngestReply(ctx, data)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}
