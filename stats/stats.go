package stats

type Method string

const (
	Mean Method = "mean"
	Std  Method = "std"
)

func (m Method) Known() bool {
	switch m {
	case Mean, Std:
		return true
	default:
		return false
	}
}

// AggregationRequest is built once per round by the coordinator and broadcast
// identically to every sampled node.
type AggregationRequest struct {
	RoundID          string   `json:"round_id"`
	SelectedFeatures []string `json:"selected_features"`
	Methods          []string `json:"aggregation_methods"`
}

// Partial holds the sufficient statistics for one (feature, method) pair
// computed over a single node's local rows. Summing partials across nodes
// yields the exact statistics of the union of their rows.
type Partial struct {
	Sum        float64 `json:"sum"`
	Count      int64   `json:"count"`
	SumSquares float64 `json:"sum_of_squares,omitempty"`
}

func (p Partial) Add(o Partial) Partial {
	return Partial{
		Sum:        p.Sum + o.Sum,
		Count:      p.Count + o.Count,
		SumSquares: p.SumSquares + o.SumSquares,
	}
}

// PartialStatistics maps feature name to method name to its partial.
type PartialStatistics map[string]map[string]Partial

type NodeReply struct {
	RoundID string            `json:"round_id"`
	NodeID  string            `json:"node_id"`
	Results PartialStatistics `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func (r NodeReply) HasError() bool {
	return r.Error != ""
}

// GlobalStatistics maps feature to method to the final value. A nil entry
// means the value could not be computed from the data received; a feature or
// method that was never requested is absent.
type GlobalStatistics map[string]map[string]*float64
