package sdk

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
)

const CTJSON string = "application/json"

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// CreateRound registers a new aggregation round.
	//
	// example:
	//  round := sdk.Round{
	//    SelectedFeatures: []string{"age"},
	//    Methods:          []string{"mean", "std"},
	//    FractionSample:   1.0,
	//    MinNodes:         1,
	//  }
	//  round, _ := sdk.CreateRound(round)
	//  fmt.Println(round)
	CreateRound(round Round) (Round, error)

	// StartRound runs a round end to end and returns it with results.
	//
	// example:
	//  round, _ := sdk.StartRound("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(round.Results)
	StartRound(id string) (Round, error)

	// GetRound gets a round by id.
	//
	// example:
	//  round, _ := sdk.GetRound("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(round)
	GetRound(id string) (Round, error)

	// ListRounds lists rounds.
	//
	// example:
	//  roundPage, _ := sdk.ListRounds(0, 10)
	//  fmt.Println(roundPage)
	ListRounds(offset uint64, limit uint64) (RoundPage, error)

	// DeleteRound deletes a round.
	//
	// example:
	//  _ = sdk.DeleteRound("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	DeleteRound(id string) error

	// ListNodes lists the nodes currently known to the coordinator.
	//
	// example:
	//  nodePage, _ := sdk.ListNodes(0, 10)
	//  fmt.Println(nodePage)
	ListNodes(offset uint64, limit uint64) (NodePage, error)
}

type fedSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &fedSDK{
		coordinatorURL: cfg.CoordinatorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *fedSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
