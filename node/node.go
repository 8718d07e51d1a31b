package node

import "time"

// Node is the coordinator-side view of a participant.
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
