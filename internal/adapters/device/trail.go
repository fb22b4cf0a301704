package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// maxTrailHops bounds a trace; a site tree is never deeper than this, so
// hitting the bound means a cabling loop or LLDP lying to us.
const maxTrailHops = 12

// FollowTrailTracer locates a MAC by walking live forwarding tables hop by
// hop: look the MAC up on a core switch, follow the learned port's LLDP
// neighbor to the next switch, repeat until the port has no switch behind
// it. That final port is where the endpoint is physically plugged in.
type FollowTrailTracer struct {
	dialer   ports.SessionDialer
	groups   GroupLookup
	topology ports.TopologyReader
	log      *slog.Logger
}

func NewFollowTrailTracer(dialer ports.SessionDialer, groups GroupLookup, topology ports.TopologyReader, log *slog.Logger) *FollowTrailTracer {
	return &FollowTrailTracer{dialer: dialer, groups: groups, topology: topology, log: log}
}

// Trace walks the trail for mac inside one site. It returns the hop path and
// the final access-port endpoint, or domain.ErrMacNotFound when no core
// switch in the site has the MAC in its table.
func (t *FollowTrailTracer) Trace(ctx context.Context, mac, site string) (*domain.TracePath, *domain.Endpoint, error) {
	cores := t.topology.CoreSwitches(site)
	if len(cores) == 0 {
		return nil, nil, fmt.Errorf("site %q: no core switch to start from", site)
	}

	var lastErr error
	for _, core := range cores {
		path, ep, err := t.traceFrom(ctx, mac, core)
		if err == nil {
			return path, ep, nil
		}
		lastErr = err
		if errors.Is(err, domain.ErrMacNotFound) {
			continue
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
	}
	return nil, nil, lastErr
}

func (t *FollowTrailTracer) traceFrom(ctx context.Context, mac string, start domain.SwitchNode) (*domain.TracePath, *domain.Endpoint, error) {
	path := &domain.TracePath{Mac: mac}
	visited := map[int]bool{}
	current := start
	ingress := ""

	for hop := 0; hop < maxTrailHops; hop++ {
		if visited[current.ID] {
			t.log.Warn("trail loop detected", "mac", mac, "switch", current.Hostname)
			break
		}
		visited[current.ID] = true

		port, vlan, neighbor, err := t.step(ctx, mac, current)
		if err != nil {
			return nil, nil, err
		}

		path.AppendHop(domain.TraceHop{
			SwitchID: current.ID,
			Hostname: current.Hostname,
			MgmtIP:   current.MgmtIP,
			Ingress:  ingress,
			Egress:   port,
		})

		if neighbor == nil {
			// No switch behind this port: the MAC is plugged in here.
			ep := &domain.Endpoint{
				Mac:        mac,
				SwitchID:   current.ID,
				Hostname:   current.Hostname,
				SwitchIP:   current.MgmtIP,
				Port:       port,
				VlanID:     vlan,
				IsEndpoint: true,
				Confidence: domain.TierLive,
				LastSeen:   time.Now(),
				TracePath:  path,
			}
			return path, ep, nil
		}

		path.AppendEdgeKeys(current.ID, neighbor.node.ID)
		ingress = neighbor.remotePort
		current = neighbor.node
	}
	return nil, nil, fmt.Errorf("trail for %s exceeded %d hops from %s", mac, maxTrailHops, start.Hostname)
}

type trailNeighbor struct {
	node       domain.SwitchNode
	remotePort string
}

func (t *FollowTrailTracer) step(ctx context.Context, mac string, sw domain.SwitchNode) (port string, vlan int, next *trailNeighbor, err error) {
	group, err := t.groups(ctx, sw.GroupID)
	if err != nil {
		return "", 0, nil, fmt.Errorf("credential group %d: %w", sw.GroupID, err)
	}
	sess, err := t.dialer.Dial(ctx, sw, group)
	if err != nil {
		return "", 0, nil, err
	}
	defer sess.Close()

	drv := DriverFor(sw.DeviceType)

	out, err := sess.Run(ctx, drv.MacLookupCmd(mac))
	if err != nil {
		return "", 0, nil, fmt.Errorf("mac lookup on %s: %w", sw.Hostname, err)
	}
	port, vlan, ok := drv.ParseMacLookup(out)
	if !ok {
		return "", 0, nil, fmt.Errorf("%w: %s not in table of %s", domain.ErrMacNotFound, mac, sw.Hostname)
	}

	// A LAG never has an endpoint on it. Query LLDP through a physical
	// member port instead.
	probePort := port
	if cmd, isAgg := drv.TrunkMembersCmd(port); isAgg {
		memberOut, err := sess.Run(ctx, cmd)
		if err != nil {
			return "", 0, nil, fmt.Errorf("trunk members on %s: %w", sw.Hostname, err)
		}
		members := drv.ParseTrunkMembers(memberOut)
		if len(members) == 0 {
			return "", 0, nil, fmt.Errorf("aggregate %s on %s has no up members", port, sw.Hostname)
		}
		probePort = members[0]
	}

	lldpOut, err := sess.Run(ctx, drv.LldpNeighborCmd(probePort))
	if err != nil {
		return "", 0, nil, fmt.Errorf("lldp neighbor on %s %s: %w", sw.Hostname, probePort, err)
	}
	sysName, remotePort, found := drv.ParseLldpNeighbor(lldpOut)
	if !found {
		return port, vlan, nil, nil
	}

	nextSw, known := t.lookupByName(sysName)
	if !known {
		// Neighbor is not a managed switch (AP, server with LLDP on).
		// The MAC still terminates on this port from our point of view.
		t.log.Debug("trail ends at unmanaged neighbor", "mac", mac, "neighbor", sysName)
		return port, vlan, nil, nil
	}
	return port, vlan, &trailNeighbor{node: nextSw, remotePort: remotePort}, nil
}

func (t *FollowTrailTracer) lookupByName(sysName string) (domain.SwitchNode, bool) {
	if sw, ok := t.topology.SwitchByHostname(sysName); ok {
		return sw, ok
	}
	// LLDP may advertise the FQDN while the inventory holds the short name.
	if short, _, cut := strings.Cut(sysName, "."); cut {
		return t.topology.SwitchByHostname(short)
	}
	return domain.SwitchNode{}, false
}
