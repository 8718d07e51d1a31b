package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/absmach/fedstats/coordinator"
	"github.com/absmach/fedstats/pkg/api"
)

const maxReplySize = 1024 * 1024

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/rounds", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			createRoundEndpoint(svc),
			decodeRoundReq,
			api.EncodeResponse,
			opts...,
		), "create-round").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listRoundsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-rounds").ServeHTTP)
		r.Route("/{roundID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getRoundEndpoint(svc),
				decodeEntityReq("roundID"),
				api.EncodeResponse,
				opts...,
			), "get-round").ServeHTTP)
			r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
				deleteRoundEndpoint(svc),
				decodeEntityReq("roundID"),
				api.EncodeResponse,
				opts...,
			), "delete-round").ServeHTTP)
			r.Post("/start", otelhttp.NewHandler(kithttp.NewServer(
				startRoundEndpoint(svc),
				decodeEntityReq("roundID"),
				api.EncodeResponse,
				opts...,
			), "start-round").ServeHTTP)
		})
	})

	mux.Get("/nodes", otelhttp.NewHandler(kithttp.NewServer(
		listNodesEndpoint(svc),
		decodeListEntityReq,
		api.EncodeResponse,
		opts...,
	), "list-nodes").ServeHTTP)

	// Out-of-band reply path for nodes posting CBOR over HTTP instead of
	// holding an MQTT session.
	mux.Post("/replies", otelhttp.NewHandler(kithttp.NewServer(
		ingestReplyEndpoint(svc),
		decodeIngestReplyReq,
		api.EncodeResponse,
		opts...,
	), "ingest-reply").ServeHTTP)

	mux.Get("/health", supermq.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeRoundReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req roundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeIngestReplyReq(_ context.Context, r *http.Request) (any, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxReplySize))
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return ingestReplyReq{
		data: data,
	}, nil
}
