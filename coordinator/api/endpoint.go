package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"

	"github.com/absmach/fedstats/coordinator"
	pkgerrors "github.com/absmach/fedstats/pkg/errors"
)

func createRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(roundReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		r, err := svc.CreateRound(ctx, req.Round)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{
			Round:   r,
			created: true,
		}, nil
	}
}

func startRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		r, err := svc.StartRound(ctx, req.id)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{
			Round: r,
		}, nil
	}
}

func getRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		r, err := svc.GetRound(ctx, req.id)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{
			Round: r,
		}, nil
	}
}

func listRoundsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listRoundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listRoundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		rounds, err := svc.ListRounds(ctx, req.offset, req.limit)
		if err != nil {
			return listRoundResponse{}, err
		}

		return listRoundResponse{
			RoundPage: rounds,
		}, nil
	}
}

func deleteRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.DeleteRound(ctx, req.id); err != nil {
			return roundResponse{}, err
		}

		return roundResponse{
			deleted: true,
		}, nil
	}
}

func listNodesEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listNodeResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listNodeResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		nodes, err := svc.ListNodes(ctx, req.offset, req.limit)
		if err != nil {
			return listNodeResponse{}, err
		}

		return listNodeResponse{
			NodePage: nodes,
		}, nil
	}
}

func ingestReplyEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ingestReplyReq)
		if !ok {
			return ingestReplyResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return ingestReplyResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.IngestReply(ctx, req.data); err != nil {
			return ingestReplyResponse{}, err
		}

		return ingestReplyResponse{}, nil
	}
}
