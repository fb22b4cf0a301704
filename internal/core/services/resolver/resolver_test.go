package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

const mac = "00:18:6E:35:76:31"

type stubStrategy struct {
	tier  domain.ConfidenceTier
	ep    *domain.Endpoint
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubStrategy) Name() domain.ConfidenceTier { return s.tier }

func (s *stubStrategy) Resolve(ctx context.Context, _, _ string) (*domain.Endpoint, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.ep == nil {
		return nil, nil
	}
	cp := *s.ep
	return &cp, nil
}

type stubTopology struct {
	switches map[int]domain.SwitchNode
	uplinks  map[int]map[string]bool
}

func (s *stubTopology) Topology(string) domain.TopologyData { return domain.TopologyData{} }
func (s *stubTopology) Switch(id int) (domain.SwitchNode, bool) {
	sw, ok := s.switches[id]
	return sw, ok
}
func (s *stubTopology) SwitchByHostname(string) (domain.SwitchNode, bool) {
	return domain.SwitchNode{}, false
}
func (s *stubTopology) CoreSwitches(string) []domain.SwitchNode { return nil }
func (s *stubTopology) UplinkPorts(id int) map[string]bool      { return s.uplinks[id] }

type stubInventory struct {
	sightings  []domain.MacSighting
	portCounts map[int]map[string]int
}

func (s *stubInventory) Switches(context.Context, string) ([]domain.SwitchNode, error) {
	return nil, nil
}
func (s *stubInventory) Group(context.Context, int) (domain.SwitchGroup, error) {
	return domain.SwitchGroup{}, nil
}
func (s *stubInventory) SaveSwitch(context.Context, domain.SwitchNode) error       { return nil }
func (s *stubInventory) SetSwitchActive(context.Context, int, bool) error          { return nil }
func (s *stubInventory) SaveSightings(context.Context, []domain.MacSighting) error { return nil }
func (s *stubInventory) SightingsForMac(_ context.Context, m string) ([]domain.MacSighting, error) {
	var out []domain.MacSighting
	for _, sg := range s.sightings {
		if sg.Mac == m {
			out = append(out, sg)
		}
	}
	return out, nil
}
func (s *stubInventory) MacCountOnPort(_ context.Context, id int, port string) (int, error) {
	return s.portCounts[id][port], nil
}
func (s *stubInventory) SaveLinks(context.Context, int, []domain.LinkEdge) error  { return nil }
func (s *stubInventory) Links(context.Context) ([]domain.LinkEdge, error)         { return nil, nil }
func (s *stubInventory) LogDiscovery(context.Context, int, bool, string) error    { return nil }
func (s *stubInventory) Close() error                                             { return nil }

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(devNull{}, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }

func liveEndpoint() *domain.Endpoint {
	return &domain.Endpoint{
		Mac: mac, SwitchID: 3, Hostname: "3_sw_access_B", Port: "GE1/0/5",
		IsEndpoint: true, Confidence: domain.TierLive, LastSeen: time.Now(),
	}
}

func TestResolveFirstTierWins(t *testing.T) {
	live := &stubStrategy{tier: domain.TierLive, ep: liveEndpoint()}
	graph := &stubStrategy{tier: domain.TierGraph, ep: liveEndpoint()}
	r := New([]ports.ResolveStrategy{live, graph}, &stubInventory{}, &stubTopology{}, time.Second, 0, quiet())

	ep, err := r.Resolve(context.Background(), mac, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.TierLive, ep.Confidence)
	assert.Equal(t, int32(1), live.calls.Load())
	assert.Equal(t, int32(0), graph.calls.Load(), "chain stops at the first hit")
}

func TestResolveFallsThroughOnMissAndError(t *testing.T) {
	live := &stubStrategy{tier: domain.TierLive, err: fmt.Errorf("%w: 10.3.0.1", domain.ErrDeviceUnreachable)}
	graph := &stubStrategy{tier: domain.TierGraph} // miss
	sighting := &stubStrategy{tier: domain.TierSighting, ep: &domain.Endpoint{Mac: mac, SwitchID: 2, Port: "XGE1/0/50"}}
	r := New([]ports.ResolveStrategy{live, graph, sighting}, &stubInventory{}, &stubTopology{}, time.Second, 0, quiet())

	ep, err := r.Resolve(context.Background(), mac, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TierSighting, ep.Confidence, "tier is stamped by the resolver")
	assert.Equal(t, int32(1), live.calls.Load())
	assert.Equal(t, int32(1), graph.calls.Load())
}

func TestResolveAllTiersMiss(t *testing.T) {
	r := New([]ports.ResolveStrategy{
		&stubStrategy{tier: domain.TierLive},
		&stubStrategy{tier: domain.TierGraph},
	}, &stubInventory{}, &stubTopology{}, time.Second, 0, quiet())

	_, err := r.Resolve(context.Background(), mac, "")
	assert.ErrorIs(t, err, domain.ErrMacNotFound)
}

func TestResolveRejectsBadMac(t *testing.T) {
	r := New(nil, &stubInventory{}, &stubTopology{}, time.Second, 0, quiet())
	_, err := r.Resolve(context.Background(), "not-a-mac", "")
	assert.ErrorIs(t, err, domain.ErrInvalidMac)
}

func TestResolveCoalescesConcurrentCallers(t *testing.T) {
	live := &stubStrategy{tier: domain.TierLive, ep: liveEndpoint(), delay: 50 * time.Millisecond}
	r := New([]ports.ResolveStrategy{live}, &stubInventory{}, &stubTopology{}, time.Second, 0, quiet())

	const callers = 8
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ep, err := r.Resolve(context.Background(), mac, "3")
			assert.NoError(t, err)
			assert.NotNil(t, ep)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), live.calls.Load(), "concurrent identical queries share one trace")
}

func TestResolveCachesResult(t *testing.T) {
	live := &stubStrategy{tier: domain.TierLive, ep: liveEndpoint()}
	r := New([]ports.ResolveStrategy{live}, &stubInventory{}, &stubTopology{}, time.Second, time.Minute, quiet())

	for range 3 {
		_, err := r.Resolve(context.Background(), mac, "3")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), live.calls.Load())
}

func TestResolveTimeoutFallsThrough(t *testing.T) {
	slow := &stubStrategy{tier: domain.TierLive, ep: liveEndpoint(), delay: 500 * time.Millisecond}
	sighting := &stubStrategy{tier: domain.TierSighting, ep: &domain.Endpoint{Mac: mac, SwitchID: 2}}
	r := New([]ports.ResolveStrategy{slow, sighting}, &stubInventory{}, &stubTopology{}, 50*time.Millisecond, 0, quiet())

	// The deadline kills the live walk; the chain continues with whatever
	// time is left, and the sighting tier answers instantly.
	ep, err := r.Resolve(context.Background(), mac, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TierSighting, ep.Confidence)
}

func TestSightingStrategyPrefersNonUplinkOverNewer(t *testing.T) {
	now := time.Now()
	inv := &stubInventory{sightings: []domain.MacSighting{
		{Mac: mac, SwitchID: 1, Port: "XGE2/0/24", IsUplink: true, LastSeen: now},
		{Mac: mac, SwitchID: 3, Port: "GE1/0/5", LastSeen: now.Add(-time.Minute)},
	}}
	topo := &stubTopology{switches: map[int]domain.SwitchNode{
		1: {ID: 1, Hostname: "3_sw_core_L3", MgmtIP: "10.3.0.1"},
		3: {ID: 3, Hostname: "3_sw_access_B", MgmtIP: "10.3.0.3"},
	}}
	st := &SightingStrategy{Inventory: inv, Topology: topo}

	ep, err := st.Resolve(context.Background(), mac, "")
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.Equal(t, 3, ep.SwitchID, "a newer uplink row must not shadow the access port")
	assert.Equal(t, "GE1/0/5", ep.Port)
	assert.True(t, ep.IsEndpoint)
}

func TestSightingStrategyUplinkOnlyAnswersWithoutEndpointClaim(t *testing.T) {
	now := time.Now()
	inv := &stubInventory{sightings: []domain.MacSighting{
		{Mac: mac, SwitchID: 1, Port: "XGE2/0/24", IsUplink: true, LastSeen: now},
		{Mac: mac, SwitchID: 2, Port: "XGE1/0/50", IsUplink: true, LastSeen: now.Add(-time.Minute)},
	}}
	topo := &stubTopology{switches: map[int]domain.SwitchNode{
		1: {ID: 1, Hostname: "3_sw_core_L3", MgmtIP: "10.3.0.1"},
		2: {ID: 2, Hostname: "3_sw_dist_A", MgmtIP: "10.3.0.2"},
	}}
	st := &SightingStrategy{Inventory: inv, Topology: topo}

	ep, err := st.Resolve(context.Background(), mac, "")
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.Equal(t, 1, ep.SwitchID, "newest uplink row is the fallback")
	assert.False(t, ep.IsEndpoint)
}

func TestSightingStrategyCrowdedPortTreatedAsUplink(t *testing.T) {
	now := time.Now()
	inv := &stubInventory{
		sightings: []domain.MacSighting{
			{Mac: mac, SwitchID: 2, Port: "XGE1/0/50", LastSeen: now},
			{Mac: mac, SwitchID: 3, Port: "GE1/0/5", LastSeen: now.Add(-time.Minute)},
		},
		portCounts: map[int]map[string]int{
			2: {"XGE1/0/50": 37},
			3: {"GE1/0/5": 1},
		},
	}
	topo := &stubTopology{switches: map[int]domain.SwitchNode{
		2: {ID: 2, Hostname: "3_sw_dist_A", MgmtIP: "10.3.0.2"},
		3: {ID: 3, Hostname: "3_sw_access_B", MgmtIP: "10.3.0.3"},
	}}
	st := &SightingStrategy{Inventory: inv, Topology: topo}

	ep, err := st.Resolve(context.Background(), mac, "")
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.Equal(t, 3, ep.SwitchID, "a port hosting dozens of MACs is a trunk, not an endpoint")
	assert.True(t, ep.IsEndpoint)
}

func TestAllEndpointsRankedAndCrossChecked(t *testing.T) {
	now := time.Now()
	inv := &stubInventory{sightings: []domain.MacSighting{
		{Mac: mac, SwitchID: 1, Port: "XGE2/0/1", IsUplink: true, LastSeen: now.Add(-time.Minute)},
		{Mac: mac, SwitchID: 3, Port: "GE1/0/5", LastSeen: now},
		{Mac: mac, SwitchID: 2, Port: "XGE1/0/50", LastSeen: now.Add(-2 * time.Minute)},
	}}
	topo := &stubTopology{
		switches: map[int]domain.SwitchNode{
			1: {ID: 1, Hostname: "3_sw_core_L3", MgmtIP: "10.3.0.1"},
			2: {ID: 2, Hostname: "3_sw_dist_A", MgmtIP: "10.3.0.2"},
			3: {ID: 3, Hostname: "3_sw_access_B", MgmtIP: "10.3.0.3"},
		},
		uplinks: map[int]map[string]bool{
			2: {"XGE1/0/50": true},
		},
	}
	r := New(nil, inv, topo, time.Second, 0, quiet())

	eps, err := r.AllEndpoints(context.Background(), mac)
	require.NoError(t, err)
	require.Len(t, eps, 3)

	assert.Equal(t, "3_sw_access_B", eps[0].Hostname, "newest first")
	assert.True(t, eps[0].IsEndpoint)
	assert.False(t, eps[1].IsEndpoint, "uplink sighting flagged")
	assert.False(t, eps[2].IsEndpoint, "port known as uplink in the graph is not an endpoint")
}

func TestAllEndpointsUnknownMac(t *testing.T) {
	r := New(nil, &stubInventory{}, &stubTopology{}, time.Second, 0, quiet())
	_, err := r.AllEndpoints(context.Background(), mac)
	assert.ErrorIs(t, err, domain.ErrMacNotFound)
}
