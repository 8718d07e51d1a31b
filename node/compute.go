package node

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/absmach/fedstats/stats"
)

// Computer produces the node-local sufficient statistics for one
// AggregationRequest. It never mutates the dataset.
type Computer struct {
	dataset Dataset
	logger  *slog.Logger
}

func NewComputer(dataset Dataset, logger *slog.Logger) *Computer {
	return &Computer{
		dataset: dataset,
		logger:  logger,
	}
}

// Compute fails the whole reply when any selected feature is missing from
// the local dataset. Unrecognized methods are skipped with a warning.
func (c *Computer) Compute(ctx context.Context, req stats.AggregationRequest) (stats.PartialStatistics, error) {
	results := make(stats.PartialStatistics, len(req.SelectedFeatures))

	for _, feature := range req.SelectedFeatures {
		values, err := c.dataset.FeatureValues(ctx, feature)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", feature, err)
		}

		perMethod := make(map[string]stats.Partial, len(req.Methods))
		for _, method := range req.Methods {
			switch stats.Method(method) {
			case stats.Mean:
				perMethod[method] = sufficientStats(values, false)
			case stats.Std:
				perMethod[method] = sufficientStats(values, true)
			default:
				c.logger.Warn("Skipping unrecognized aggregation method",
					slog.String("round_id", req.RoundID),
					slog.String("method", method))
			}
		}
		results[feature] = perMethod
	}

	return results, nil
}

func sufficientStats(values []float64, squares bool) stats.Partial {
	p := stats.Partial{Count: int64(len(values))}
	for _, v := range values {
		p.Sum += v
		if squares {
			p.SumSquares += v * v
		}
	}

	return p
}
