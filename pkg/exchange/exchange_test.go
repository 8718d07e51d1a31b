package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/absmach/fedstats/pkg/mqtt/mocks"
	"github.com/absmach/fedstats/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testChannelID = "channel-1"

func newTestExchange(pubsub *mocks.PubSub, replyTimeout time.Duration) *exchange {
	return New(pubsub, testChannelID, replyTimeout, time.Minute, slog.Default()).(*exchange)
}

func TestSubscribe(t *testing.T) {
	pubsub := new(mocks.PubSub)
	pubsub.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	e := newTestExchange(pubsub, time.Second)
	require.NoError(t, e.Subscribe(context.Background()))

	pubsub.AssertNumberOfCalls(t, "Subscribe", 3)
}

func TestSubscribeFailure(t *testing.T) {
	pubsub := new(mocks.PubSub)
	pubsub.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	e := newTestExchange(pubsub, time.Second)
	assert.Error(t, e.Subscribe(context.Background()))
}

func TestPresenceTracking(t *testing.T) {
	e := newTestExchange(new(mocks.PubSub), time.Second)

	require.NoError(t, e.handlePresence("", map[string]any{"node_id": "node-1"}))
	require.NoError(t, e.handlePresence("", map[string]any{"node_id": "node-2", "status": "alive"}))

	ids, err := e.AvailableNodeIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"node-1", "node-2"}, ids)

	require.NoError(t, e.handlePresence("", map[string]any{"node_id": "node-1", "status": "offline"}))

	ids, err = e.AvailableNodeIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"node-2"}, ids)

	assert.Error(t, e.handlePresence("", map[string]any{"status": "alive"}))
}

func TestSendAndReceive(t *testing.T) {
	pubsub := new(mocks.PubSub)
	pubsub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	e := newTestExchange(pubsub, time.Second)

	req := stats.AggregationRequest{
		RoundID:          "round-1",
		SelectedFeatures: []string{"age"},
		Methods:          []string{"mean"},
	}

	go func() {
		for {
			e.mu.Lock()
			_, ok := e.pending[req.RoundID]
			e.mu.Unlock()
			if ok {
				break
			}
			time.Sleep(time.Millisecond)
		}
		e.Collect(stats.NodeReply{RoundID: "round-1", NodeID: "node-1"})
		e.Collect(stats.NodeReply{RoundID: "round-1", NodeID: "node-2"})
	}()

	replies, err := e.SendAndReceive(context.Background(), req, []string{"node-1", "node-2"})
	require.NoError(t, err)
	assert.Len(t, replies, 2)

	for _, nodeID := range []string{"node-1", "node-2"} {
		topic := fmt.Sprintf(requestTopicTemplate, testChannelID, nodeID)
		pubsub.AssertCalled(t, "Publish", mock.Anything, topic, req)
	}
}

func TestSendAndReceiveTimeout(t *testing.T) {
	pubsub := new(mocks.PubSub)
	pubsub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	e := newTestExchange(pubsub, 20*time.Millisecond)

	req := stats.AggregationRequest{RoundID: "round-2", SelectedFeatures: []string{"age"}, Methods: []string{"mean"}}

	replies, err := e.SendAndReceive(context.Background(), req, []string{"node-1"})
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestSendAndReceiveContextCancelled(t *testing.T) {
	pubsub := new(mocks.PubSub)
	pubsub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	e := newTestExchange(pubsub, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	req := stats.AggregationRequest{RoundID: "round-3", SelectedFeatures: []string{"age"}, Methods: []string{"mean"}}

	_, err := e.SendAndReceive(ctx, req, []string{"node-1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendAndReceivePublishFailure(t *testing.T) {
	pubsub := new(mocks.PubSub)
	failedTopic := fmt.Sprintf(requestTopicTemplate, testChannelID, "node-1")
	pubsub.On("Publish", mock.Anything, failedTopic, mock.Anything).Return(errors.New("broker down"))
	pubsub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	e := newTestExchange(pubsub, time.Second)

	req := stats.AggregationRequest{RoundID: "round-4", SelectedFeatures: []string{"age"}, Methods: []string{"mean"}}

	go func() {
		for {
			e.mu.Lock()
			_, ok := e.pending[req.RoundID]
			e.mu.Unlock()
			if ok {
				break
			}
			time.Sleep(time.Millisecond)
		}
		e.Collect(stats.NodeReply{RoundID: "round-4", NodeID: "node-2"})
	}()

	replies, err := e.SendAndReceive(context.Background(), req, []string{"node-1", "node-2"})
	require.NoError(t, err)
	assert.Len(t, replies, 1)
	assert.Equal(t, "node-2", replies[0].NodeID)
}

func TestCollectUnknownRound(t *testing.T) {
	e := newTestExchange(new(mocks.PubSub), time.Second)

	// Must not panic or block.
	e.Collect(stats.NodeReply{RoundID: "unknown", NodeID: "node-1"})
}

func TestCollectDuplicateReply(t *testing.T) {
	e := newTestExchange(new(mocks.PubSub), time.Second)

	c := &collector{
		expected: 2,
		sampled:  map[string]bool{"node-1": true, "node-2": true},
		seen:     make(map[string]bool),
		done:     make(chan struct{}),
	}
	e.mu.Lock()
	e.pending["round-6"] = c
	e.mu.Unlock()

	e.Collect(stats.NodeReply{RoundID: "round-6", NodeID: "node-1"})
	e.Collect(stats.NodeReply{RoundID: "round-6", NodeID: "node-1"})

	e.mu.Lock()
	require.Len(t, c.replies, 1)
	e.mu.Unlock()

	// The barrier must not close until node-2 answers too.
	select {
	case <-c.done:
		t.Fatal("reply barrier closed on a duplicate")
	default:
	}

	e.Collect(stats.NodeReply{RoundID: "round-6", NodeID: "node-2"})

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("reply barrier did not close")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Len(t, c.replies, 2)
}

func TestCollectUnsampledNode(t *testing.T) {
	e := newTestExchange(new(mocks.PubSub), time.Second)

	c := &collector{
		expected: 1,
		sampled:  map[string]bool{"node-1": true},
		seen:     make(map[string]bool),
		done:     make(chan struct{}),
	}
	e.mu.Lock()
	e.pending["round-7"] = c
	e.mu.Unlock()

	e.Collect(stats.NodeReply{RoundID: "round-7", NodeID: "node-9"})

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Empty(t, c.replies)
}

func TestHandleReply(t *testing.T) {
	e := newTestExchange(new(mocks.PubSub), time.Second)

	c := &collector{
		expected: 1,
		sampled:  map[string]bool{"node-1": true},
		seen:     make(map[string]bool),
		done:     make(chan struct{}),
	}
	e.mu.Lock()
	e.pending["round-5"] = c
	e.mu.Unlock()

	msg := map[string]any{
		"round_id": "round-5",
		"node_id":  "node-1",
		"results": map[string]any{
			"age": map[string]any{
				"mean": map[string]any{"sum": 10.0, "count": 2, "sum_of_squares": 52.0},
			},
		},
	}
	require.NoError(t, e.handleReply("", msg))

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("reply barrier did not close")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	require.Len(t, c.replies, 1)
	assert.Equal(t, "node-1", c.replies[0].NodeID)
	assert.InDelta(t, 10.0, c.replies[0].Results["age"]["mean"].Sum, 1e-9)
}
