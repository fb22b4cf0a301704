package domain

import (
	"fmt"
	"time"
)

// Protocol is the neighbor discovery protocol that produced a link claim.
type Protocol string

const (
	ProtoLLDP Protocol = "lldp"
	ProtoCDP  Protocol = "cdp"
)

// LinkConfidence grades a link by how it was corroborated. A claim seen from
// both endpoints is confirmed; a one-sided LLDP/CDP claim is kept but flagged.
type LinkConfidence string

const (
	ConfidenceConfirmed      LinkConfidence = "confirmed"
	ConfidenceUnidirectional LinkConfidence = "unidirectional"
)

// LinkEdge is a discovered inter-switch link. The pair (LocalID, RemoteID) is
// unordered for graph purposes; parallel physical links between the same two
// switches are distinct edges, keyed by their port names, never merged.
type LinkEdge struct {
	LocalID    int            `json:"from"`
	RemoteID   int            `json:"to"`
	LocalPort  string         `json:"local_port"`
	RemotePort string         `json:"remote_port,omitempty"`
	Protocol   Protocol       `json:"protocol"`
	Confidence LinkConfidence `json:"confidence,omitempty"`
	// Multiplicity counts parallel physical links collapsed into this edge
	// in the client projection. Zero means the edge was never collapsed.
	Multiplicity int       `json:"multiplicity,omitempty"`
	LastSeen     time.Time `json:"-"`
}

// PairKey returns an order-independent key for the switch pair.
func (e LinkEdge) PairKey() string {
	a, b := e.LocalID, e.RemoteID
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}

// EdgeKeys returns both directed keys for this edge, used by callers that
// match against a directed edge list (path highlighting).
func (e LinkEdge) EdgeKeys() []string {
	return []string{
		fmt.Sprintf("%d-%d", e.LocalID, e.RemoteID),
		fmt.Sprintf("%d-%d", e.RemoteID, e.LocalID),
	}
}

// Reversed returns the same physical link seen from the remote side.
func (e LinkEdge) Reversed() LinkEdge {
	return LinkEdge{
		LocalID:    e.RemoteID,
		RemoteID:   e.LocalID,
		LocalPort:  e.RemotePort,
		RemotePort: e.LocalPort,
		Protocol:   e.Protocol,
		Confidence: e.Confidence,
		LastSeen:   e.LastSeen,
	}
}
