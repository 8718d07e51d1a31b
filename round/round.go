package round

import (
	"errors"
	"time"

	"github.com/absmach/fedstats/stats"
)

type State uint8

const (
	Pending State = iota
	Sampling
	Dispatching
	AwaitingReplies
	Reducing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Sampling:
		return "Sampling"
	case Dispatching:
		return "Dispatching"
	case AwaitingReplies:
		return "AwaitingReplies"
	case Reducing:
		return "Reducing"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

type Round struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	State            State                  `json:"state"`
	SelectedFeatures []string               `json:"selected_features"`
	Methods          []string               `json:"aggregation_methods"`
	FractionSample   float64                `json:"fraction_sample"`
	MinNodes         int                    `json:"min_nodes"`
	SampledNodes     []string               `json:"sampled_nodes,omitempty"`
	ValidReplies     int                    `json:"valid_replies"`
	Results          stats.GlobalStatistics `json:"results,omitempty"`
	Error            string                 `json:"error,omitempty"`
	StartTime        time.Time              `json:"start_time"`
	FinishTime       time.Time              `json:"finish_time"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func (r Round) Validate() error {
	if len(r.SelectedFeatures) == 0 {
		return errors.New("selected_features is required")
	}
	if len(r.Methods) == 0 {
		return errors.New("aggregation_methods is required")
	}
	if r.FractionSample <= 0 || r.FractionSample > 1 {
		return errors.New("fraction_sample must be in (0, 1]")
	}
	if r.MinNodes < 1 {
		return errors.New("min_nodes must be at least 1")
	}

	return nil
}

func (r Round) Request() stats.AggregationRequest {
	return stats.AggregationRequest{
		RoundID:          r.ID,
		SelectedFeatures: r.SelectedFeatures,
		Methods:          r.Methods,
	}
}

type RoundPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}
