package mocks

import (
	"context"

	"github.com/absmach/fedstats/stats"
	"github.com/stretchr/testify/mock"
)

// Exchange is a mock implementation of the exchange.Exchange interface for
// testing.
type Exchange struct {
	mock.Mock
}

func (m *Exchange) AvailableNodeIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	ids, _ := args.Get(0).([]string)

	return ids, args.Error(1)
}

func (m *Exchange) SendAndReceive(ctx context.Context, req stats.AggregationRequest, nodeIDs []string) ([]stats.NodeReply, error) {
	args := m.Called(ctx, req, nodeIDs)

	replies, _ := args.Get(0).([]stats.NodeReply)

	return replies, args.Error(1)
}

func (m *Exchange) Collect(reply stats.NodeReply) {
	m.Called(reply)
}

func (m *Exchange) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
