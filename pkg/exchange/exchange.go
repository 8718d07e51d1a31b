package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/fedstats/pkg/mqtt"
	"github.com/absmach/fedstats/stats"
)

var (
	discoveryTopicTemplate = "channels/%s/messages/control/node/create"
	aliveTopicTemplate     = "channels/%s/messages/control/node/alive"
	requestTopicTemplate   = "channels/%s/messages/rounds/request/%s"
	replyTopicTemplate     = "channels/%s/messages/rounds/reply"
)

// Exchange delivers one AggregationRequest per sampled node and collects the
// replies of a round. It also owns node discovery: nodes announce themselves
// and publish periodic liveness updates, and AvailableNodeIDs reports the
// ones seen recently. Replies carry no ordering guarantee.
type Exchange interface {
	AvailableNodeIDs(ctx context.Context) ([]string, error)
	SendAndReceive(ctx context.Context, req stats.AggregationRequest, nodeIDs []string) ([]stats.NodeReply, error)
	Collect(reply stats.NodeReply)
	Subscribe(ctx context.Context) error
}

type collector struct {
	replies  []stats.NodeReply
	expected int
	sampled  map[string]bool
	seen     map[string]bool
	done     chan struct{}
}

type exchange struct {
	pubsub         mqtt.PubSub
	channelID      string
	replyTimeout   time.Duration
	livenessWindow time.Duration
	logger         *slog.Logger

	mu       sync.Mutex
	lastSeen map[string]time.Time
	pending  map[string]*collector
}

func New(pubsub mqtt.PubSub, channelID string, replyTimeout, livenessWindow time.Duration, logger *slog.Logger) Exchange {
	return &exchange{
		pubsub:         pubsub,
		channelID:      channelID,
		replyTimeout:   replyTimeout,
		livenessWindow: livenessWindow,
		logger:         logger,
		lastSeen:       make(map[string]time.Time),
		pending:        make(map[string]*collector),
	}
}

func (e *exchange) Subscribe(ctx context.Context) error {
	topic := fmt.Sprintf(discoveryTopicTemplate, e.channelID)
	if err := e.pubsub.Subscribe(ctx, topic, e.handlePresence); err != nil {
		return fmt.Errorf("failed to subscribe to discovery topic: %w", err)
	}

	topic = fmt.Sprintf(aliveTopicTemplate, e.channelID)
	if err := e.pubsub.Subscribe(ctx, topic, e.handlePresence); err != nil {
		return fmt.Errorf("failed to subscribe to alive topic: %w", err)
	}

	topic = fmt.Sprintf(replyTopicTemplate, e.channelID)
	if err := e.pubsub.Subscribe(ctx, topic, e.handleReply); err != nil {
		return fmt.Errorf("failed to subscribe to reply topic: %w", err)
	}

	return nil
}

func (e *exchange) AvailableNodeIDs(_ context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := time.Now().Add(-e.livenessWindow)
	ids := make([]string, 0, len(e.lastSeen))
	for id, seen := range e.lastSeen {
		if seen.After(cutoff) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (e *exchange) SendAndReceive(ctx context.Context, req stats.AggregationRequest, nodeIDs []string) ([]stats.NodeReply, error) {
	sampled := make(map[string]bool, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		sampled[nodeID] = true
	}
	c := &collector{
		replies:  make([]stats.NodeReply, 0, len(nodeIDs)),
		expected: len(nodeIDs),
		sampled:  sampled,
		seen:     make(map[string]bool, len(nodeIDs)),
		done:     make(chan struct{}),
	}
	e.mu.Lock()
	e.pending[req.RoundID] = c
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.pending, req.RoundID)
		e.mu.Unlock()
	}()

	sent := 0
	for _, nodeID := range nodeIDs {
		topic := fmt.Sprintf(requestTopicTemplate, e.channelID, nodeID)
		if err := e.pubsub.Publish(ctx, topic, req); err != nil {
			e.logger.Warn("Failed to deliver round request",
				slog.String("round_id", req.RoundID),
				slog.String("node_id", nodeID),
				slog.Any("error", err))

			continue
		}
		sent++
	}

	e.mu.Lock()
	c.expected = sent
	complete := len(c.replies) >= c.expected
	e.mu.Unlock()

	if !complete {
		timer := time.NewTimer(e.replyTimeout)
		defer timer.Stop()

		select {
		case <-c.done:
		case <-timer.C:
			e.logger.Warn("Reply barrier timed out",
				slog.String("round_id", req.RoundID),
				slog.Int("expected", sent))
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.mu.Lock()
	replies := make([]stats.NodeReply, len(c.replies))
	copy(replies, c.replies)
	e.mu.Unlock()

	e.logger.Info("Received round replies",
		slog.String("round_id", req.RoundID),
		slog.Int("received", len(replies)),
		slog.Int("sent", sent))

	return replies, nil
}

// Collect feeds a reply into the in-flight round it belongs to. It is called
// from the MQTT reply handler and from the HTTP ingest path for nodes that
// post replies out of band.
func (e *exchange) Collect(reply stats.NodeReply) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.pending[reply.RoundID]
	if !ok {
		e.logger.Warn("Dropping reply for unknown round",
			slog.String("round_id", reply.RoundID),
			slog.String("node_id", reply.NodeID))

		return
	}
	if !c.sampled[reply.NodeID] {
		e.logger.Warn("Dropping reply from unsampled node",
			slog.String("round_id", reply.RoundID),
			slog.String("node_id", reply.NodeID))

		return
	}
	// A node may answer over both MQTT and the HTTP ingest path; counting
	// it twice would skew the sufficient statistics.
	if c.seen[reply.NodeID] {
		e.logger.Warn("Dropping duplicate reply",
			slog.String("round_id", reply.RoundID),
			slog.String("node_id", reply.NodeID))

		return
	}
	c.seen[reply.NodeID] = true

	c.replies = append(c.replies, reply)
	if len(c.replies) >= c.expected {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
	}
}

func (e *exchange) handlePresence(_ string, msg map[string]any) error {
	nodeID, ok := msg["node_id"].(string)
	if !ok || nodeID == "" {
		return fmt.Errorf("presence message without node_id")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if status, ok := msg["status"].(string); ok && status == "offline" {
		delete(e.lastSeen, nodeID)
		e.logger.Info("Node went offline", slog.String("node_id", nodeID))

		return nil
	}

	e.lastSeen[nodeID] = time.Now()

	return nil
}

func (e *exchange) handleReply(_ string, msg map[string]any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	var reply stats.NodeReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("failed to parse node reply: %w", err)
	}

	e.Collect(reply)

	return nil
}
