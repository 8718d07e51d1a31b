package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	roundsEndpoint = "rounds"
	nodesEndpoint  = "nodes"
)

type Round struct {
	ID               string                         `json:"id"`
	Name             string                         `json:"name"`
	State            uint8                          `json:"state"`
	SelectedFeatures []string                       `json:"selected_features"`
	Methods          []string                       `json:"aggregation_methods"`
	FractionSample   float64                        `json:"fraction_sample"`
	MinNodes         int                            `json:"min_nodes"`
	SampledNodes     []string                       `json:"sampled_nodes,omitempty"`
	ValidReplies     int                            `json:"valid_replies"`
	Results          map[string]map[string]*float64 `json:"results,omitempty"`
	Error            string                         `json:"error,omitempty"`
	StartTime        time.Time                      `json:"start_time"`
	FinishTime       time.Time                      `json:"finish_time"`
	CreatedAt        time.Time                      `json:"created_at"`
	UpdatedAt        time.Time                      `json:"updated_at"`
}

type RoundPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}

type Node struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Alive    bool      `json:"alive"`
	LastSeen time.Time `json:"last_seen"`
}

type NodePage struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
	Total  uint64 `json:"total"`
	Nodes  []Node `json:"nodes"`
}

func (sdk *fedSDK) CreateRound(round Round) (Round, error) {
	data, err := json.Marshal(round)
	if err != nil {
		return Round{}, err
	}

	url := fmt.Sprintf("%s/%s", sdk.coordinatorURL, roundsEndpoint)

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Round{}, err
	}

	var r Round
	if err := json.Unmarshal(body, &r); err != nil {
		return Round{}, err
	}

	return r, nil
}

func (sdk *fedSDK) StartRound(id string) (Round, error) {
	url := fmt.Sprintf("%s/%s/%s/start", sdk.coordinatorURL, roundsEndpoint, id)

	body, err := sdk.processRequest(http.MethodPost, url, nil, http.StatusOK)
	if err != nil {
		return Round{}, err
	}

	var r Round
	if err := json.Unmarshal(body, &r); err != nil {
		return Round{}, err
	}

	return r, nil
}

func (sdk *fedSDK) GetRound(id string) (Round, error) {
	url := fmt.Sprintf("%s/%s/%s", sdk.coordinatorURL, roundsEndpoint, id)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Round{}, err
	}

	var r Round
	if err := json.Unmarshal(body, &r); err != nil {
		return Round{}, err
	}

	return r, nil
}

func (sdk *fedSDK) ListRounds(offset, limit uint64) (RoundPage, error) {
	url := fmt.Sprintf("%s/%s?offset=%d&limit=%d", sdk.coordinatorURL, roundsEndpoint, offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return RoundPage{}, err
	}

	var page RoundPage
	if err := json.Unmarshal(body, &page); err != nil {
		return RoundPage{}, err
	}

	return page, nil
}

func (sdk *fedSDK) DeleteRound(id string) error {
	url := fmt.Sprintf("%s/%s/%s", sdk.coordinatorURL, roundsEndpoint, id)

	if _, err := sdk.processRequest(http.MethodDelete, url, nil, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}

func (sdk *fedSDK) ListNodes(offset, limit uint64) (NodePage, error) {
	url := fmt.Sprintf("%s/%s?offset=%d&limit=%d", sdk.coordinatorURL, nodesEndpoint, offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return NodePage{}, err
	}

	var page NodePage
	if err := json.Unmarshal(body, &page); err != nil {
		return NodePage{}, err
	}

	return page, nil
}
