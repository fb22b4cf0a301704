package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
	"github.com/lcalzada-xor/switchmap/internal/telemetry"
)

// GraphSource is the live topology view the snapshot is exported from.
type GraphSource interface {
	Nodes() map[int]domain.SwitchNode
	Adjacency() map[int][]int
	Edges() map[string][]domain.LinkEdge
	LastUpdated() time.Time
}

// Snapshot is a frozen copy of the topology graph with per-node distances
// from the site cores precomputed. MAC queries run against it without
// touching any device, which makes them instant but only as fresh as the
// build they came from.
type Snapshot struct {
	nodes     map[int]domain.SwitchNode
	adjacency map[int][]int
	edges     map[string][]domain.LinkEdge
	cores     []int
	dist      map[int]int
	parent    map[int]int
	builtAt   time.Time
}

// Service builds snapshots and answers offline MAC queries.
type Service struct {
	graph      GraphSource
	inventory  ports.Inventory
	clock      clockwork.Clock
	staleAfter time.Duration
	log        *slog.Logger

	snap        atomic.Pointer[Snapshot]
	invalidated atomic.Bool
}

func NewService(graph GraphSource, inventory ports.Inventory, clock clockwork.Clock, staleAfter time.Duration, log *slog.Logger) *Service {
	return &Service{
		graph:      graph,
		inventory:  inventory,
		clock:      clock,
		staleAfter: staleAfter,
		log:        log,
	}
}

// Build exports the current graph into a new snapshot. Core membership
// comes from the switch records; distances are a multi-source BFS from all
// cores at once.
func (s *Service) Build(ctx context.Context) (domain.GraphStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.GraphStats{}, err
	}
	src := s.graph
	snap := &Snapshot{
		nodes:     src.Nodes(),
		adjacency: src.Adjacency(),
		edges:     src.Edges(),
		dist:      map[int]int{},
		parent:    map[int]int{},
		builtAt:   s.clock.Now(),
	}
	for id, sw := range snap.nodes {
		if sw.IsCoreSwitch() {
			snap.cores = append(snap.cores, id)
		}
	}
	sort.Ints(snap.cores)

	// Multi-source BFS: every core starts at distance zero.
	queue := make([]int, 0, len(snap.cores))
	for _, c := range snap.cores {
		snap.dist[c] = 0
		snap.parent[c] = c
		queue = append(queue, c)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range snap.adjacency[cur] {
			if _, seen := snap.dist[next]; seen {
				continue
			}
			snap.dist[next] = snap.dist[cur] + 1
			snap.parent[next] = cur
			queue = append(queue, next)
		}
	}

	s.snap.Store(snap)
	s.invalidated.Store(false)
	s.log.Info("graph snapshot built",
		"nodes", len(snap.nodes), "edges", len(snap.edges), "cores", len(snap.cores))
	return s.Stats(), nil
}

// Invalidate marks the current snapshot unusable without discarding it;
// callers still get answers, flagged stale, until the next build.
func (s *Service) Invalidate() {
	s.invalidated.Store(true)
}

// Stats describes the current snapshot.
func (s *Service) Stats() domain.GraphStats {
	snap := s.snap.Load()
	if snap == nil {
		return domain.GraphStats{}
	}
	edgeCount := 0
	for _, group := range snap.edges {
		edgeCount += len(group)
	}
	return domain.GraphStats{
		NodeCount:    len(snap.nodes),
		EdgeCount:    edgeCount,
		CoreSwitches: snap.cores,
		BuiltAt:      snap.builtAt,
		IsValid:      s.fresh(snap),
	}
}

func (s *Service) fresh(snap *Snapshot) bool {
	if s.invalidated.Load() {
		return false
	}
	if s.staleAfter <= 0 {
		return true
	}
	return s.clock.Since(snap.builtAt) <= s.staleAfter
}

// QueryMac locates a MAC on the snapshot. The stored sightings for the MAC
// are ranked: non-uplink sightings win, and among those the switch farthest
// from the cores wins, because the MAC bleeds upward onto every uplink
// between its access port and the core. The returned path runs core to
// access switch along BFS parents.
func (s *Service) QueryMac(ctx context.Context, mac string) (*domain.TracePath, *domain.Endpoint, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, nil, fmt.Errorf("graph snapshot not built")
	}

	sightings, err := s.inventory.SightingsForMac(ctx, mac)
	if err != nil {
		return nil, nil, fmt.Errorf("load sightings: %w", err)
	}

	best, ok := pickDeepest(snap, sightings)
	if !ok {
		telemetry.SnapshotQueries.WithLabelValues("miss").Inc()
		return nil, nil, fmt.Errorf("%w: %s not in snapshot", domain.ErrMacNotFound, mac)
	}
	telemetry.SnapshotQueries.WithLabelValues("hit").Inc()

	stale := !s.fresh(snap)
	path := s.pathFromCore(snap, mac, best.SwitchID, best.Port)
	sw := snap.nodes[best.SwitchID]
	ep := &domain.Endpoint{
		Mac:        mac,
		SwitchID:   best.SwitchID,
		Hostname:   sw.Hostname,
		SwitchIP:   sw.MgmtIP,
		Port:       best.Port,
		VlanID:     best.VlanID,
		IsEndpoint: !best.IsUplink,
		Confidence: domain.TierGraph,
		Stale:      stale,
		LastSeen:   best.LastSeen,
		TracePath:  path,
	}
	return path, ep, nil
}

// pickDeepest chooses the sighting that best represents the physical
// endpoint location.
func pickDeepest(snap *Snapshot, sightings []domain.MacSighting) (domain.MacSighting, bool) {
	var best domain.MacSighting
	found := false
	bestDepth := -1
	for _, sg := range sightings {
		if _, inGraph := snap.nodes[sg.SwitchID]; !inGraph {
			continue
		}
		depth, reachable := snap.dist[sg.SwitchID]
		if !reachable {
			depth = 0
		}
		switch {
		case !found:
		case !best.IsUplink && sg.IsUplink:
			continue
		case best.IsUplink && !sg.IsUplink:
			// non-uplink always beats uplink
		case depth < bestDepth:
			continue
		case depth == bestDepth && !sg.LastSeen.After(best.LastSeen):
			continue
		}
		best = sg
		bestDepth = depth
		found = true
	}
	return best, found
}

// pathFromCore rebuilds the core-to-switch hop list from BFS parents. Each
// hop carries the inter-switch ports from the frozen edges; the final hop's
// egress is the access port the MAC was seen on. A switch unreachable from
// any core yields a single-hop degraded path.
func (s *Service) pathFromCore(snap *Snapshot, mac string, switchID int, accessPort string) *domain.TracePath {
	path := &domain.TracePath{Mac: mac}
	if _, reachable := snap.dist[switchID]; !reachable {
		sw := snap.nodes[switchID]
		path.Degraded = true
		path.AppendHop(domain.TraceHop{SwitchID: sw.ID, Hostname: sw.Hostname, MgmtIP: sw.MgmtIP, Egress: accessPort})
		return path
	}

	// Walk up to the core, then reverse.
	var chain []int
	for cur := switchID; ; cur = snap.parent[cur] {
		chain = append(chain, cur)
		if snap.parent[cur] == cur {
			break
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		sw := snap.nodes[chain[i]]
		hop := domain.TraceHop{SwitchID: sw.ID, Hostname: sw.Hostname, MgmtIP: sw.MgmtIP}
		if i < len(chain)-1 {
			hop.Ingress, _ = linkPorts(snap.edges, chain[i], chain[i+1])
		}
		if i > 0 {
			hop.Egress, _ = linkPorts(snap.edges, chain[i], chain[i-1])
			path.AppendEdgeKeys(chain[i], chain[i-1])
		} else {
			hop.Egress = accessPort
		}
		path.AppendHop(hop)
	}
	return path
}

// linkPorts returns the ports of one edge between a and b, oriented from a's
// side. Parallel links carry the same traffic for path purposes, so the
// first confirmed edge wins.
func linkPorts(edges map[string][]domain.LinkEdge, a, b int) (localPort, remotePort string) {
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

