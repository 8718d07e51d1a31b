package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"net/url"
	"os"
	"time"

	"github.com/absmach/fedstats/coordinator"
	"github.com/absmach/fedstats/coordinator/api"
	"github.com/absmach/fedstats/coordinator/middleware"
	"github.com/absmach/fedstats/pkg/exchange"
	"github.com/absmach/fedstats/pkg/mqtt"
	"github.com/absmach/fedstats/pkg/sampler"
	"github.com/absmach/fedstats/pkg/storage"
	"github.com/absmach/fedstats/stats"
	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "coordinator"
	defHTTPPort   = "7070"
	envPrefixHTTP = "COORDINATOR_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel         string        `env:"COORDINATOR_LOG_LEVEL"         envDefault:"info"`
	InstanceID       string        `env:"COORDINATOR_INSTANCE_ID"`
	MQTTAddress      string        `env:"COORDINATOR_MQTT_ADDRESS"      envDefault:"tcp://localhost:1883"`
	MQTTQoS          uint8         `env:"COORDINATOR_MQTT_QOS"          envDefault:"2"`
	MQTTTimeout      time.Duration `env:"COORDINATOR_MQTT_TIMEOUT"      envDefault:"30s"`
	ClientID         string        `env:"COORDINATOR_CLIENT_ID"`
	ClientKey        string        `env:"COORDINATOR_CLIENT_KEY"`
	ChannelID        string        `env:"COORDINATOR_CHANNEL_ID"`
	ReplyTimeout     time.Duration `env:"COORDINATOR_REPLY_TIMEOUT"     envDefault:"30s"`
	LivenessWindow   time.Duration `env:"COORDINATOR_LIVENESS_WINDOW"   envDefault:"1m"`
	SamplePollPeriod time.Duration `env:"COORDINATOR_SAMPLE_POLL"       envDefault:"1s"`
	SampleWait       time.Duration `env:"COORDINATOR_SAMPLE_WAIT"       envDefault:"2m"`
	SampleSeed       int64         `env:"COORDINATOR_SAMPLE_SEED"       envDefault:"0"`
	OTELURL          url.URL       `env:"COORDINATOR_OTEL_URL"`
	TraceRatio       float64       `env:"COORDINATOR_TRACE_RATIO"       envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, "", cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	mqttPubSub, err := mqtt.NewPubSub(cfg.MQTTAddress, cfg.MQTTQoS, svcName, cfg.ClientID, cfg.ClientKey, cfg.ChannelID, cfg.MQTTTimeout, logger)
	if err != nil {
		logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

		return
	}

	storageConfig := storage.Config{}
	if err := env.Parse(&storageConfig); err != nil {
		logger.Error("failed to load storage configuration", slog.String("error", err.Error()))

		return
	}
	roundsDB, closer, err := storage.NewRoundRepository(storageConfig)
	if err != nil {
		logger.Error("failed to initialize round storage", slog.String("error", err.Error()))

		return
	}
	if closer != nil {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("error closing round storage", slog.Any("error", err))
			}
		}()
	}

	seed := cfg.SampleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	exch := exchange.New(mqttPubSub, cfg.ChannelID, cfg.ReplyTimeout, cfg.LivenessWindow, logger)

	svc := coordinator.NewService(
		roundsDB,
		exch,
		sampler.NewUniform(rng, cfg.SamplePollPeriod, cfg.SampleWait, logger),
		stats.NewAggregator(logger),
		logger,
	)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if err := svc.Subscribe(ctx); err != nil {
		logger.Error("failed to subscribe to coordinator channel", slog.String("error", err.Error()))

		return
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
