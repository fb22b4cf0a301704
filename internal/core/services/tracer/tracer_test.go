package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

type fakeGraph struct {
	nodes map[int]domain.SwitchNode
	adj   map[int][]int
	edges map[string][]domain.LinkEdge
}

func (f *fakeGraph) Nodes() map[int]domain.SwitchNode    { return f.nodes }
func (f *fakeGraph) Adjacency() map[int][]int            { return f.adj }
func (f *fakeGraph) Edges() map[string][]domain.LinkEdge { return f.edges }

// triangle plus a tail: 1-2, 2-3, 1-3, 3-4. Island node 9.
func testGraph() *fakeGraph {
	return &fakeGraph{
		nodes: map[int]domain.SwitchNode{
			1: {ID: 1, Hostname: "3_sw_core_L3", MgmtIP: "10.3.0.1"},
			2: {ID: 2, Hostname: "3_sw_dist_A", MgmtIP: "10.3.0.2"},
			3: {ID: 3, Hostname: "3_sw_dist_B", MgmtIP: "10.3.0.3"},
			4: {ID: 4, Hostname: "3_sw_access_C", MgmtIP: "10.3.0.4"},
			9: {ID: 9, Hostname: "3_sw_island", MgmtIP: "10.3.0.9"},
		},
		adj: map[int][]int{
			1: {2, 3}, 2: {1, 3}, 3: {1, 2, 4}, 4: {3},
		},
		edges: map[string][]domain.LinkEdge{
			"1-2": {{LocalID: 1, RemoteID: 2, LocalPort: "XGE2/0/1", RemotePort: "XGE1/0/49", Confidence: domain.ConfidenceConfirmed}},
			"1-3": {{LocalID: 1, RemoteID: 3, LocalPort: "XGE2/0/2", RemotePort: "XGE1/0/49", Confidence: domain.ConfidenceConfirmed}},
			"2-3": {{LocalID: 2, RemoteID: 3, LocalPort: "XGE1/0/50", RemotePort: "XGE1/0/50", Confidence: domain.ConfidenceConfirmed}},
			"3-4": {{LocalID: 3, RemoteID: 4, LocalPort: "XGE1/0/51", RemotePort: "XGE1/0/49", Confidence: domain.ConfidenceConfirmed}},
		},
	}
}

func TestTraceShortestPathWithPorts(t *testing.T) {
	svc := NewService(testGraph())

	path, err := svc.Trace(1, 4)
	require.NoError(t, err)
	require.Len(t, path.Hops, 3, "1-3-4 beats 1-2-3-4")
	assert.False(t, path.Degraded)

	assert.Equal(t, "3_sw_core_L3", path.Hops[0].Hostname)
	assert.Equal(t, "", path.Hops[0].Ingress)
	assert.Equal(t, "XGE2/0/2", path.Hops[0].Egress)

	assert.Equal(t, "3_sw_dist_B", path.Hops[1].Hostname)
	assert.Equal(t, "XGE1/0/49", path.Hops[1].Ingress)
	assert.Equal(t, "XGE1/0/51", path.Hops[1].Egress)

	assert.Equal(t, "3_sw_access_C", path.Hops[2].Hostname)
	assert.Equal(t, "XGE1/0/49", path.Hops[2].Ingress)
	assert.Equal(t, "", path.Hops[2].Egress, "path ends at the access switch")

	assert.Contains(t, path.EdgeKeys, "1-3")
	assert.Contains(t, path.EdgeKeys, "3-4")
}

func TestTraceSameSwitch(t *testing.T) {
	svc := NewService(testGraph())
	path, err := svc.Trace(2, 2)
	require.NoError(t, err)
	require.Len(t, path.Hops, 1)
	assert.False(t, path.Degraded)
}

func TestTraceDisconnectedDegrades(t *testing.T) {
	svc := NewService(testGraph())
	path, err := svc.Trace(1, 9)
	require.NoError(t, err)
	assert.True(t, path.Degraded)
	require.Len(t, path.Hops, 2)
	assert.Empty(t, path.EdgeKeys)
}

func TestTraceUnknownSwitch(t *testing.T) {
	svc := NewService(testGraph())
	_, err := svc.Trace(1, 42)
	assert.Error(t, err)
}

func TestTraceByHostname(t *testing.T) {
	svc := NewService(testGraph())
	path, err := svc.TraceByHostname("3_sw_core_L3", "3_sw_access_C")
	require.NoError(t, err)
	assert.Len(t, path.Hops, 3)

	_, err = svc.TraceByHostname("3_sw_core_L3", "nope")
	assert.Error(t, err)
}
