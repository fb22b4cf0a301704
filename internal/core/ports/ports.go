package ports

import (
	"context"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

// NeighborClaim is a one-sided link statement from LLDP or CDP: "my port X
// sees remote system Y on its port Z". The remote side is identified by
// sysname only; the topology store resolves it to a switch id at rebuild and
// drops claims naming systems outside the managed fleet.
type NeighborClaim struct {
	LocalPort     string
	RemoteSysName string
	RemotePort    string
	Protocol      domain.Protocol
}

// PollResult is one device adapter's normalized output for a single switch:
// the neighbor claims it makes and the forwarding-table sightings it holds.
type PollResult struct {
	SwitchID  int
	Neighbors []NeighborClaim
	Sightings []domain.MacSighting
}

// DeviceAdapter translates raw device state (SNMP Bridge-MIB, LLDP/CDP
// tables, CLI output) into the normalized record set. One implementation per
// transport; vendor differences stay behind it.
type DeviceAdapter interface {
	// Poll reads the full link and MAC table state of one switch. It must
	// respect ctx deadlines; a switch that cannot be reached after bounded
	// retries returns domain.ErrDeviceUnreachable.
	Poll(ctx context.Context, sw domain.SwitchNode) (*PollResult, error)
}

// DeviceSession is a live CLI session against one switch, used by the
// follow-the-trail tracer. Implementations wrap an SSH channel.
type DeviceSession interface {
	// Run executes one command and returns its raw output.
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// SessionDialer opens CLI sessions. Kept narrow so the resolver can be
// tested against canned transcripts.
type SessionDialer interface {
	Dial(ctx context.Context, sw domain.SwitchNode, group domain.SwitchGroup) (DeviceSession, error)
}

// TopologyReader is the read side of the topology graph store.
type TopologyReader interface {
	Topology(site string) domain.TopologyData
	Switch(id int) (domain.SwitchNode, bool)
	SwitchByHostname(hostname string) (domain.SwitchNode, bool)
	CoreSwitches(site string) []domain.SwitchNode
	// UplinkPorts returns the set of local port names on a switch that face
	// other switches, for endpoint cross-checking.
	UplinkPorts(switchID int) map[string]bool
}

// SnapshotQuerier answers MAC queries from the offline graph.
type SnapshotQuerier interface {
	QueryMac(ctx context.Context, mac string) (*domain.TracePath, *domain.Endpoint, error)
	Stats() domain.GraphStats
}

// ResolveStrategy is one tier of the endpoint resolution chain. A strategy
// either produces an endpoint or reports a miss (nil, nil); real failures are
// returned as errors and treated as misses by the chain.
type ResolveStrategy interface {
	Name() domain.ConfidenceTier
	Resolve(ctx context.Context, mac, site string) (*domain.Endpoint, error)
}

// Inventory is the durable backing store for switches, credential groups and
// historical sightings.
type Inventory interface {
	Switches(ctx context.Context, site string) ([]domain.SwitchNode, error)
	Group(ctx context.Context, id int) (domain.SwitchGroup, error)
	SaveSwitch(ctx context.Context, sw domain.SwitchNode) error
	SetSwitchActive(ctx context.Context, id int, active bool) error

	SaveSightings(ctx context.Context, rows []domain.MacSighting) error
	SightingsForMac(ctx context.Context, mac string) ([]domain.MacSighting, error)
	MacCountOnPort(ctx context.Context, switchID int, port string) (int, error)

	SaveLinks(ctx context.Context, switchID int, links []domain.LinkEdge) error
	Links(ctx context.Context) ([]domain.LinkEdge, error)

	LogDiscovery(ctx context.Context, switchID int, ok bool, detail string) error
	Close() error
}
