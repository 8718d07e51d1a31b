package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/0x6flab/namegenerator"
	pkgmqtt "github.com/absmach/fedstats/pkg/mqtt"
	"github.com/absmach/fedstats/stats"
)

var (
	discoveryTopicTemplate = "channels/%s/messages/control/node/create"
	aliveTopicTemplate     = "channels/%s/messages/control/node/alive"
	requestTopicTemplate   = "channels/%s/messages/rounds/request/%s"
	replyTopicTemplate     = "channels/%s/messages/rounds/reply"

	namegen = namegenerator.NewGenerator()
)

// Service is the long-running node participant: it announces itself, keeps a
// liveness heartbeat, and answers aggregation requests with partial
// statistics computed over the local dataset.
type Service struct {
	channelID        string
	nodeID           string
	nodeName         string
	livenessInterval time.Duration
	pubsub           pkgmqtt.PubSub
	computer         *Computer
	logger           *slog.Logger
}

func NewService(ctx context.Context, channelID, nodeID, nodeName string, livenessInterval time.Duration, pubsub pkgmqtt.PubSub, computer *Computer, logger *slog.Logger) (*Service, error) {
	if nodeName == "" {
		nodeName = namegen.Generate()
	}

	topic := fmt.Sprintf(discoveryTopicTemplate, channelID)
	payload := map[string]any{
		"node_id":   nodeID,
		"node_name": nodeName,
	}
	if err := pubsub.Publish(ctx, topic, payload); err != nil {
		return nil, errors.Join(errors.New("failed to publish discovery"), err)
	}

	s := &Service{
		channelID:        channelID,
		nodeID:           nodeID,
		nodeName:         nodeName,
		livenessInterval: livenessInterval,
		pubsub:           pubsub,
		computer:         computer,
		logger:           logger,
	}

	go s.startLivenessUpdates(ctx)

	return s, nil
}

func (s *Service) startLivenessUpdates(ctx context.Context) {
	ticker := time.NewTicker(s.livenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping liveness updates")

			return
		case <-ticker.C:
			topic := fmt.Sprintf(aliveTopicTemplate, s.channelID)
			payload := map[string]any{
				"status":    "alive",
				"node_id":   s.nodeID,
				"node_name": s.nodeName,
			}

			if err := s.pubsub.Publish(ctx, topic, payload); err != nil {
				s.logger.Error("failed to publish liveness message", slog.Any("error", err))
			}

			s.logger.Debug("Published liveness message", slog.String("topic", topic))
		}
	}
}

func (s *Service) Run(ctx context.Context) error {
	topic := fmt.Sprintf(requestTopicTemplate, s.channelID, s.nodeID)
	if err := s.pubsub.Subscribe(ctx, topic, s.handleRequest(ctx)); err != nil {
		return fmt.Errorf("failed to subscribe to request topic: %w", err)
	}

	s.logger.Info("Node service is running.", slog.String("node_id", s.nodeID), slog.String("node_name", s.nodeName))
	<-ctx.Done()

	return nil
}

func (s *Service) handleRequest(ctx context.Context) pkgmqtt.Handler {
	return func(topic string, msg map[string]any) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}

		var req stats.AggregationRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("failed to parse aggregation request: %w", err)
		}

		reply := stats.NodeReply{
			RoundID: req.RoundID,
			NodeID:  s.nodeID,
		}

		results, err := s.computer.Compute(ctx, req)
		switch {
		case err != nil:
			s.logger.Warn("Partial statistics computation failed",
				slog.String("round_id", req.RoundID),
				slog.Any("error", err))
			reply.Error = err.Error()
		default:
			reply.Results = results
		}

		replyTopic := fmt.Sprintf(replyTopicTemplate, s.channelID)
		if err := s.pubsub.Publish(ctx, replyTopic, reply); err != nil {
			return fmt.Errorf("failed to publish node reply: %w", err)
		}

		s.logger.Info("Replied to aggregation request",
			slog.String("round_id", req.RoundID),
			slog.Bool("errored", reply.HasError()))

		return nil
	}
}
