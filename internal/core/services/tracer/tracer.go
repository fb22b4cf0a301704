package tracer

import (
	"fmt"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

// GraphView is the topology projection the tracer walks.
type GraphView interface {
	Nodes() map[int]domain.SwitchNode
	Adjacency() map[int][]int
	Edges() map[string][]domain.LinkEdge
}

// Service finds shortest paths between switches on the topology graph and
// annotates each hop with the physical ports the traffic crosses.
type Service struct {
	graph GraphView
}

func NewService(graph GraphView) *Service {
	return &Service{graph: graph}
}

// Trace returns the shortest hop path between two switches. When the two
// ends are in disconnected components the result is degraded: both
// endpoints are listed with no connecting edges, so a caller can still
// render where each side sits.
func (s *Service) Trace(fromID, toID int) (*domain.TracePath, error) {
	nodes := s.graph.Nodes()
	from, ok := nodes[fromID]
	if !ok {
		return nil, fmt.Errorf("switch %d not in graph", fromID)
	}
	to, ok := nodes[toID]
	if !ok {
		return nil, fmt.Errorf("switch %d not in graph", toID)
	}

	path := &domain.TracePath{}
	if fromID == toID {
		path.AppendHop(hop(from, "", ""))
		return path, nil
	}

	chain, found := s.shortestChain(fromID, toID)
	if !found {
		path.Degraded = true
		path.AppendHop(hop(from, "", ""))
		path.AppendHop(hop(to, "", ""))
		return path, nil
	}

	edges := s.graph.Edges()
	for i, id := range chain {
		ingress, egress := "", ""
		if i > 0 {
			_, ingress = portsBetween(edges, chain[i-1], id)
		}
		if i < len(chain)-1 {
			egress, _ = portsBetween(edges, id, chain[i+1])
			path.AppendEdgeKeys(id, chain[i+1])
		}
		path.AppendHop(hop(nodes[id], ingress, egress))
	}
	return path, nil
}

// TraceByHostname resolves both ends by hostname before tracing.
func (s *Service) TraceByHostname(fromHost, toHost string) (*domain.TracePath, error) {
	fromID, err := s.idByHostname(fromHost)
	if err != nil {
		return nil, err
	}
	toID, err := s.idByHostname(toHost)
	if err != nil {
		return nil, err
	}
	return s.Trace(fromID, toID)
}

func (s *Service) idByHostname(hostname string) (int, error) {
	for id, sw := range s.graph.Nodes() {
		if sw.Hostname == hostname {
			return id, nil
		}
	}
	return 0, fmt.Errorf("switch %q not in graph", hostname)
}

func (s *Service) shortestChain(fromID, toID int) ([]int, bool) {
	adjacency := s.graph.Adjacency()
	parent := map[int]int{fromID: fromID}
	queue := []int{fromID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == toID {
			break
		}
		for _, next := range adjacency[cur] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	if _, reached := parent[toID]; !reached {
		return nil, false
	}
	var rev []int
	for cur := toID; ; cur = parent[cur] {
		rev = append(rev, cur)
		if cur == fromID {
			break
		}
	}
	chain := make([]int, len(rev))
	for i, id := range rev {
		chain[len(rev)-1-i] = id
	}
	return chain, true
}

// portsBetween returns the local/remote ports of one edge between a and b,
// oriented from a's side. Parallel links all carry the same traffic for
// path purposes, so the first confirmed edge wins.
func portsBetween(edges map[string][]domain.LinkEdge, a, b int) (localPort, remotePort string) {
	probe := domain.LinkEdge{LocalID: a, RemoteID: b}
	group := edges[probe.PairKey()]
	var pick *domain.LinkEdge
	for i := range group {
		e := &group[i]
		if pick == nil || (pick.Confidence != domain.ConfidenceConfirmed && e.Confidence == domain.ConfidenceConfirmed) {
			pick = e
		}
	}
	if pick == nil {
		return "", ""
	}
	if pick.LocalID == a {
		return pick.LocalPort, pick.RemotePort
	}
	return pick.RemotePort, pick.LocalPort
}

func hop(sw domain.SwitchNode, ingress, egress string) domain.TraceHop {
	return domain.TraceHop{
		SwitchID: sw.ID,
		Hostname: sw.Hostname,
		MgmtIP:   sw.MgmtIP,
		Ingress:  ingress,
		Egress:   egress,
	}
}
