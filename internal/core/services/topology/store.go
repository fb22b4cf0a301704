package topology

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
	"github.com/lcalzada-xor/switchmap/internal/telemetry"
)

// graphState is one immutable generation of the topology graph. Rebuilds
// construct a fresh state and swap the pointer; readers never see a
// half-built graph.
type graphState struct {
	nodes       map[int]domain.SwitchNode
	byHostname  map[string]int
	edges       map[string][]domain.LinkEdge // pair key -> port pairs
	adjacency   map[int][]int
	uplinkPorts map[int]map[string]bool
	lastUpdated time.Time
}

func emptyState() *graphState {
	return &graphState{
		nodes:       map[int]domain.SwitchNode{},
		byHostname:  map[string]int{},
		edges:       map[string][]domain.LinkEdge{},
		adjacency:   map[int][]int{},
		uplinkPorts: map[int]map[string]bool{},
	}
}

// Store is the in-memory topology graph over the switch fleet, rebuilt from
// device polls and served lock-free to readers.
type Store struct {
	inventory   ports.Inventory
	adapter     ports.DeviceAdapter
	clock       clockwork.Clock
	log         *slog.Logger
	concurrency int

	state atomic.Pointer[graphState]
}

func NewStore(inventory ports.Inventory, adapter ports.DeviceAdapter, clock clockwork.Clock, concurrency int, log *slog.Logger) *Store {
	if concurrency <= 0 {
		concurrency = 8
	}
	s := &Store{
		inventory:   inventory,
		adapter:     adapter,
		clock:       clock,
		log:         log,
		concurrency: concurrency,
	}
	s.state.Store(emptyState())
	return s
}

// Load hydrates the graph from persisted switches and links without touching
// any device. Called at startup so queries work before the first poll.
func (s *Store) Load(ctx context.Context) error {
	switches, err := s.inventory.Switches(ctx, "")
	if err != nil {
		return fmt.Errorf("load switches: %w", err)
	}
	links, err := s.inventory.Links(ctx)
	if err != nil {
		return fmt.Errorf("load links: %w", err)
	}
	next := buildState(switches, links, s.clock.Now())
	s.state.Store(next)
	s.log.Info("topology loaded from inventory", "switches", len(switches), "links", len(links))
	return nil
}

// Rebuild polls every switch in the site (all sites when site is empty) and
// publishes a new graph generation. A switch that cannot be reached keeps
// its last known edges and is marked inactive. When every switch in a
// non-empty site fails the previous graph is retained and
// domain.ErrSiteRebuildFailed is returned.
func (s *Store) Rebuild(ctx context.Context, site string) error {
	start := s.clock.Now()
	switches, err := s.inventory.Switches(ctx, site)
	if err != nil {
		return fmt.Errorf("list switches: %w", err)
	}
	if len(switches) == 0 {
		return fmt.Errorf("no switches registered for site %q", site)
	}

	results := make([]*ports.PollResult, len(switches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, sw := range switches {
		g.Go(func() error {
			res, err := s.adapter.Poll(gctx, sw)
			if err != nil {
				s.log.Warn("poll failed", "switch", sw.Hostname, "err", err)
				telemetry.PollFailures.WithLabelValues(sw.SiteCode).Inc()
				_ = s.inventory.SetSwitchActive(gctx, sw.ID, false)
				_ = s.inventory.LogDiscovery(gctx, sw.ID, false, err.Error())
				return nil
			}
			results[i] = res
			_ = s.inventory.LogDiscovery(gctx, sw.ID, true,
				fmt.Sprintf("neighbors=%d macs=%d", len(res.Neighbors), len(res.Sightings)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	polled := 0
	for i, sw := range switches {
		res := results[i]
		if res == nil {
			sw.IsActive = false
			sw.LastPollSucceeded = false
			switches[i] = sw
			continue
		}
		polled++
		sw.IsActive = true
		sw.LastSeen = s.clock.Now()
		sw.LastPollSucceeded = true
		sw.MacCount = len(res.Sightings)
		switches[i] = sw
		if err := s.inventory.SaveSwitch(ctx, sw); err != nil {
			s.log.Error("save switch", "switch", sw.Hostname, "err", err)
		}
		if err := s.inventory.SaveSightings(ctx, res.Sightings); err != nil {
			s.log.Error("save sightings", "switch", sw.Hostname, "err", err)
		}
	}
	if polled == 0 {
		s.log.Error("rebuild kept previous graph", "site", site)
		return fmt.Errorf("%w: site %q: all %d switches unreachable",
			domain.ErrSiteRebuildFailed, site, len(switches))
	}

	links := s.mergeClaims(ctx, switches, results)
	prev := s.state.Load()
	if site != "" {
		links = append(links, carryEdges(prev, site)...)
	}
	next := buildState(s.overlay(ctx, site, switches, prev), links, s.clock.Now())
	s.state.Store(next)

	telemetry.RebuildDuration.WithLabelValues(site).Observe(s.clock.Since(start).Seconds())
	s.log.Info("topology rebuilt",
		"site", site, "polled", polled, "failed", len(switches)-polled,
		"nodes", len(next.nodes), "edges", len(next.edges))
	return nil
}

// overlay merges the freshly polled switches of one site over the previous
// generation's nodes, so a single-site rebuild does not drop other sites.
func (s *Store) overlay(ctx context.Context, site string, polled []domain.SwitchNode, prev *graphState) []domain.SwitchNode {
	merged := map[int]domain.SwitchNode{}
	if site != "" {
		for id, sw := range prev.nodes {
			if sw.SiteCode != site {
				merged[id] = sw
			}
		}
	}
	for _, sw := range polled {
		merged[sw.ID] = sw
	}
	out := make([]domain.SwitchNode, 0, len(merged))
	for _, sw := range merged {
		out = append(out, sw)
	}
	return out
}

// mergeClaims turns one-sided neighbor claims into edges. A claim confirmed
// from both ends becomes a confirmed edge; a claim only one side makes stays
// unidirectional. Unreachable switches contribute their persisted edges so
// one dead device does not amputate its subtree.
func (s *Store) mergeClaims(ctx context.Context, switches []domain.SwitchNode, results []*ports.PollResult) []domain.LinkEdge {
	byName := map[string]int{}
	for _, sw := range switches {
		byName[strings.ToLower(sw.Hostname)] = sw.ID
	}
	prev := s.state.Load()

	type claimKey struct {
		local, remote int
		localPort     string
	}
	seen := map[claimKey]domain.LinkEdge{}
	now := s.clock.Now()

	for i, sw := range switches {
		res := results[i]
		if res == nil {
			// Keep the last known edges of an unreachable switch.
			for _, edges := range prev.edges {
				for _, e := range edges {
					if e.LocalID == sw.ID {
						seen[claimKey{e.LocalID, e.RemoteID, e.LocalPort}] = e
					}
				}
			}
			continue
		}
		for _, c := range res.Neighbors {
			remoteID, ok := resolveSysName(byName, c.RemoteSysName)
			if !ok {
				continue // not a managed switch
			}
			seen[claimKey{sw.ID, remoteID, c.LocalPort}] = domain.LinkEdge{
				LocalID:    sw.ID,
				RemoteID:   remoteID,
				LocalPort:  c.LocalPort,
				RemotePort: c.RemotePort,
				Protocol:   c.Protocol,
				Confidence: domain.ConfidenceUnidirectional,
				LastSeen:   now,
			}
		}
	}

	// Upgrade claims that the remote side confirms. A mutual pair is one
	// physical link, so only the lower-id direction emits the edge.
	var out []domain.LinkEdge
	for k, e := range seen {
		if _, mutual := seen[claimKey{k.remote, k.local, e.RemotePort}]; mutual {
			if k.local > k.remote {
				continue
			}
			e.Confidence = domain.ConfidenceConfirmed
		}
		out = append(out, e)
	}

	// Persist per switch so a later restart can reload the same edges.
	bySwitch := map[int][]domain.LinkEdge{}
	for _, e := range out {
		bySwitch[e.LocalID] = append(bySwitch[e.LocalID], e)
	}
	for i, sw := range switches {
		if results[i] == nil {
			continue
		}
		if err := s.inventory.SaveLinks(ctx, sw.ID, bySwitch[sw.ID]); err != nil {
			s.log.Error("save links", "switch", sw.Hostname, "err", err)
		}
	}
	return out
}

// carryEdges returns the previous generation's edges whose endpoints both lie
// outside the rebuilt site. mergeClaims only sees the polled switches, so
// without this a single-site rebuild would wipe every other site's links.
func carryEdges(prev *graphState, site string) []domain.LinkEdge {
	var out []domain.LinkEdge
	for _, group := range prev.edges {
		for _, e := range group {
			if prev.nodes[e.LocalID].SiteCode != site && prev.nodes[e.RemoteID].SiteCode != site {
				out = append(out, e)
			}
		}
	}
	return out
}

func resolveSysName(byName map[string]int, sysName string) (int, bool) {
	name := strings.ToLower(strings.TrimSpace(sysName))
	if id, ok := byName[name]; ok {
		return id, true
	}
	if short, _, cut := strings.Cut(name, "."); cut {
		if id, ok := byName[short]; ok {
			return id, true
		}
	}
	return 0, false
}

func buildState(switches []domain.SwitchNode, links []domain.LinkEdge, at time.Time) *graphState {
	st := emptyState()
	st.lastUpdated = at
	for _, sw := range switches {
		st.nodes[sw.ID] = sw
		st.byHostname[strings.ToLower(sw.Hostname)] = sw.ID
	}
	adjSeen := map[string]bool{}
	for _, e := range links {
		if _, ok := st.nodes[e.LocalID]; !ok {
			continue
		}
		if _, ok := st.nodes[e.RemoteID]; !ok {
			continue
		}
		key := e.PairKey()
		st.edges[key] = append(st.edges[key], e)
		for _, k := range [2][2]int{{e.LocalID, e.RemoteID}, {e.RemoteID, e.LocalID}} {
			ak := fmt.Sprintf("%d-%d", k[0], k[1])
			if !adjSeen[ak] {
				adjSeen[ak] = true
				st.adjacency[k[0]] = append(st.adjacency[k[0]], k[1])
			}
		}
		if st.uplinkPorts[e.LocalID] == nil {
			st.uplinkPorts[e.LocalID] = map[string]bool{}
		}
		st.uplinkPorts[e.LocalID][e.LocalPort] = true
		if st.uplinkPorts[e.RemoteID] == nil {
			st.uplinkPorts[e.RemoteID] = map[string]bool{}
		}
		st.uplinkPorts[e.RemoteID][e.RemotePort] = true
	}
	return st
}

// Topology returns the client projection, optionally filtered to one site.
// Parallel links between the same pair collapse to the highest-confidence
// edge; the multiplicity is preserved on the edge itself.
func (s *Store) Topology(site string) domain.TopologyData {
	st := s.state.Load()
	data := domain.TopologyData{LastUpdated: st.lastUpdated}
	keep := map[int]bool{}
	for _, sw := range st.nodes {
		if site == "" || sw.SiteCode == site {
			data.Nodes = append(data.Nodes, sw)
			keep[sw.ID] = true
		}
	}
	for _, group := range st.edges {
		best := group[0]
		for _, e := range group[1:] {
			if best.Confidence != domain.ConfidenceConfirmed && e.Confidence == domain.ConfidenceConfirmed {
				best = e
			}
		}
		if keep[best.LocalID] && keep[best.RemoteID] {
			best.Multiplicity = len(group)
			data.Edges = append(data.Edges, best)
		}
	}
	return data
}

func (s *Store) Switch(id int) (domain.SwitchNode, bool) {
	sw, ok := s.state.Load().nodes[id]
	return sw, ok
}

func (s *Store) SwitchByHostname(hostname string) (domain.SwitchNode, bool) {
	st := s.state.Load()
	id, ok := st.byHostname[strings.ToLower(strings.TrimSpace(hostname))]
	if !ok {
		return domain.SwitchNode{}, false
	}
	return st.nodes[id], true
}

func (s *Store) CoreSwitches(site string) []domain.SwitchNode {
	var out []domain.SwitchNode
	for _, sw := range s.state.Load().nodes {
		if (site == "" || sw.SiteCode == site) && sw.IsCoreSwitch() && sw.IsActive {
			out = append(out, sw)
		}
	}
	return out
}

func (s *Store) UplinkPorts(switchID int) map[string]bool {
	return s.state.Load().uplinkPorts[switchID]
}

// Neighbors lists the switches adjacent to one node with the connecting
// edges, for the neighbors endpoint.
func (s *Store) Neighbors(switchID int) ([]domain.SwitchNode, []domain.LinkEdge, bool) {
	st := s.state.Load()
	if _, ok := st.nodes[switchID]; !ok {
		return nil, nil, false
	}
	var nodes []domain.SwitchNode
	var edges []domain.LinkEdge
	for _, peer := range st.adjacency[switchID] {
		nodes = append(nodes, st.nodes[peer])
	}
	for _, group := range st.edges {
		for _, e := range group {
			if e.LocalID == switchID || e.RemoteID == switchID {
				edges = append(edges, e)
			}
		}
	}
	return nodes, edges, true
}

// Adjacency exposes the raw neighbor lists for BFS consumers.
func (s *Store) Adjacency() map[int][]int {
	return s.state.Load().adjacency
}

// Edges returns all port-level edges keyed by node pair.
func (s *Store) Edges() map[string][]domain.LinkEdge {
	return s.state.Load().edges
}

// Nodes returns the current node set.
func (s *Store) Nodes() map[int]domain.SwitchNode {
	return s.state.Load().nodes
}

// LastUpdated reports when the current generation was published.
func (s *Store) LastUpdated() time.Time {
	return s.state.Load().lastUpdated
}
