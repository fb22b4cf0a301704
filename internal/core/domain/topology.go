package domain

import "time"

// TopologyData is the graph projection sent to clients: the node set, the
// deduplicated edge list and the time of the last successful rebuild.
type TopologyData struct {
	Nodes       []SwitchNode `json:"nodes"`
	Edges       []LinkEdge   `json:"edges"`
	LastUpdated time.Time    `json:"last_updated"`
}

// DiscoveryEntry is one recorded poll outcome for a switch.
type DiscoveryEntry struct {
	SwitchID int       `json:"switch_id"`
	Success  bool      `json:"success"`
	Detail   string    `json:"detail"`
	At       time.Time `json:"at"`
}

// GraphStats summarizes an offline snapshot for the stats endpoint.
type GraphStats struct {
	NodeCount    int       `json:"node_count"`
	EdgeCount    int       `json:"edge_count"`
	CoreSwitches []int     `json:"core_switches"`
	BuiltAt      time.Time `json:"built_at"`
	IsValid      bool      `json:"is_valid"`
}
