package node

import (
	"context"

	"github.com/absmach/fedstats/pkg/errors"
)

// Dataset exposes the local numeric values of a named feature. Rows never
// leave the node; only the computed sufficient statistics do.
type Dataset interface {
	// FeatureValues returns the non-missing values of a feature, or
	// errors.ErrFeatureNotFound when the feature does not exist locally.
	FeatureValues(ctx context.Context, feature string) ([]float64, error)
}

type memoryDataset struct {
	features map[string][]float64
}

// NewMemoryDataset serves features from an in-memory map. Used in tests and
// embedded setups without a database.
func NewMemoryDataset(features map[string][]float64) Dataset {
	return &memoryDataset{features: features}
}

func (d *memoryDataset) FeatureValues(_ context.Context, feature string) ([]float64, error) {
	values, ok := d.features[feature]
	if !ok {
		return nil, errors.ErrFeatureNotFound
	}

	return values, nil
}
