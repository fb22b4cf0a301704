package domain

import "fmt"

// TraceHop is one switch on the path from root to endpoint. The ingress port
// faces the previous hop, the egress port faces the next hop; on the final
// hop the egress is the physical access port itself.
type TraceHop struct {
	SwitchID int    `json:"switch_id"`
	Hostname string `json:"hostname"`
	MgmtIP   string `json:"ip_address,omitempty"`
	Ingress  string `json:"ingress_port,omitempty"`
	Egress   string `json:"egress_port,omitempty"`
}

// TracePath is the ordered hop list for one MAC query. Ephemeral: computed
// per request, never persisted.
type TracePath struct {
	Mac      string     `json:"mac_address,omitempty"`
	Hops     []TraceHop `json:"path"`
	NodeIDs  []int      `json:"path_node_ids"`
	EdgeKeys []string   `json:"path_edge_keys"`

	// Degraded is set when root and endpoint were in disconnected components
	// and the path collapses to the endpoint alone ("path unknown, endpoint
	// only"). Callers must treat the hop list as partial.
	Degraded bool `json:"degraded,omitempty"`
}

// AppendHop adds a hop and maintains the node id list.
func (p *TracePath) AppendHop(h TraceHop) {
	p.Hops = append(p.Hops, h)
	p.NodeIDs = append(p.NodeIDs, h.SwitchID)
}

// AppendEdgeKeys records an edge in both directions for directed-list lookup.
func (p *TracePath) AppendEdgeKeys(fromID, toID int) {
	p.EdgeKeys = append(p.EdgeKeys,
		fmt.Sprintf("%d-%d", fromID, toID),
		fmt.Sprintf("%d-%d", toID, fromID),
	)
}
