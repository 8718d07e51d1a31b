package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/absmach/fedstats/node"
	"github.com/absmach/fedstats/pkg/mqtt"
)

const (
	mqttQoS          = 2
	mqttTimeout      = 30 * time.Second
	livenessInterval = 10 * time.Second
)

var (
	configPath string
	logLevel   slog.Level
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flag.StringVar(&configPath, "config", "node/config.json", "Path to the node configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := configureLogger("info")
	slog.SetDefault(logger)

	logger.Info("Starting node service")

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	cfg, err := node.LoadConfig(configPath)
	if err != nil {
		logger.Error("Failed to load configuration", slog.String("path", configPath), slog.Any("error", err))

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dataset, err := node.NewSQLDataset(cfg.DatasetPath, cfg.DatasetTable)
	if err != nil {
		logger.Error("Failed to open dataset", slog.String("path", cfg.DatasetPath), slog.Any("error", err))

		return fmt.Errorf("failed to open dataset: %w", err)
	}

	pubsub, err := mqtt.NewPubSub(cfg.BrokerURL, mqttQoS, cfg.NodeID, cfg.NodeID, cfg.Password, cfg.ChannelID, mqttTimeout, logger)
	if err != nil {
		logger.Error("Failed to initialize mqtt pubsub", slog.Any("error", err))

		return fmt.Errorf("failed to initialize mqtt pubsub: %w", err)
	}

	service, err := node.NewService(ctx, cfg.ChannelID, cfg.NodeID, cfg.NodeName, livenessInterval, pubsub, node.NewComputer(dataset, logger), logger)
	if err != nil {
		logger.Error("Error initializing service", slog.Any("error", err))

		return fmt.Errorf("service initialization error: %w", err)
	}

	if err := service.Run(ctx); err != nil {
		logger.Error("Error running service", slog.Any("error", err))

		return fmt.Errorf("service run error: %w", err)
	}

	return nil
}

func configureLogger(level string) *slog.Logger {
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		log.Printf("Invalid log level: %s. Defaulting to info.\n", level)
		logLevel = slog.LevelInfo
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(logHandler)
}
