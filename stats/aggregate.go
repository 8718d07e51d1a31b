package stats

import (
	"log/slog"
	"math"

	"github.com/absmach/fedstats/pkg/errors"
)

// Aggregator reduces node replies into global statistics. Reduction is
// sequential and iterates features and methods in request order, so the
// result is deterministic for a fixed reply set.
type Aggregator interface {
	Aggregate(req AggregationRequest, replies []NodeReply) (GlobalStatistics, int, error)
}

type sufficientStatsAggregator struct {
	logger *slog.Logger
}

func NewAggregator(logger *slog.Logger) Aggregator {
	return &sufficientStatsAggregator{
		logger: logger,
	}
}

func (a *sufficientStatsAggregator) Aggregate(req AggregationRequest, replies []NodeReply) (GlobalStatistics, int, error) {
	totals := make(map[string]map[string]Partial, len(req.SelectedFeatures))
	for _, feature := range req.SelectedFeatures {
		totals[feature] = make(map[string]Partial, len(req.Methods))
	}

	valid := 0
	for _, reply := range replies {
		if reply.HasError() {
			a.logger.Warn("Skipping errored node reply",
				slog.String("round_id", reply.RoundID),
				slog.String("node_id", reply.NodeID),
				slog.String("error", reply.Error))

			continue
		}
		valid++

		for _, feature := range req.SelectedFeatures {
			for _, method := range req.Methods {
				partial, ok := reply.Results[feature][method]
				if !ok {
					continue
				}
				totals[feature][method] = totals[feature][method].Add(partial)
			}
		}
	}

	if valid == 0 {
		return nil, 0, errors.ErrNoValidReplies
	}

	global := make(GlobalStatistics, len(req.SelectedFeatures))
	for _, feature := range req.SelectedFeatures {
		global[feature] = make(map[string]*float64, len(req.Methods))
		for _, method := range req.Methods {
			value, err := finalize(method, totals[feature][method])
			if err != nil {
				a.logger.Warn("Could not compute global statistic",
					slog.String("feature", feature),
					slog.String("method", method),
					slog.Any("error", err))
				global[feature][method] = nil

				continue
			}
			global[feature][method] = &value
		}
	}

	return global, valid, nil
}

func finalize(method string, total Partial) (float64, error) {
	switch Method(method) {
	case Mean:
		if total.Count == 0 {
			return 0, errors.ErrInsufficientData
		}

		return total.Sum / float64(total.Count), nil
	case Std:
		// Sample standard deviation needs at least two rows.
		if total.Count <= 1 {
			return 0, errors.ErrInsufficientData
		}

		mean := total.Sum / float64(total.Count)
		variance := (total.SumSquares - float64(total.Count)*mean*mean) / float64(total.Count-1)
		// Floating-point cancellation can push a near-zero variance
		// slightly negative.
		if variance < 0 {
			variance = 0
		}

		return math.Sqrt(variance), nil
	default:
		return 0, errors.ErrUnsupportedMethod
	}
}
