package resolver

import (
	"context"
	"errors"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// LiveTracer walks devices hop by hop to locate a MAC right now.
type LiveTracer interface {
	Trace(ctx context.Context, mac, site string) (*domain.TracePath, *domain.Endpoint, error)
}

// LiveStrategy answers from a live device walk. Most accurate, slowest,
// and the only tier that can fail because hardware is down.
type LiveStrategy struct {
	Tracer LiveTracer
}

func (s *LiveStrategy) Name() domain.ConfidenceTier { return domain.TierLive }

func (s *LiveStrategy) Resolve(ctx context.Context, mac, site string) (*domain.Endpoint, error) {
	_, ep, err := s.Tracer.Trace(ctx, mac, site)
	if err != nil {
		if errors.Is(err, domain.ErrMacNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ep, nil
}

// GraphStrategy answers from the offline graph snapshot. Topology is
// optional; without it site filtering is skipped.
type GraphStrategy struct {
	Snapshot ports.SnapshotQuerier
	Topology ports.TopologyReader
}

func (s *GraphStrategy) Name() domain.ConfidenceTier { return domain.TierGraph }

func (s *GraphStrategy) Resolve(ctx context.Context, mac, site string) (*domain.Endpoint, error) {
	_, ep, err := s.Snapshot.QueryMac(ctx, mac)
	if err != nil {
		if errors.Is(err, domain.ErrMacNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if site != "" && ep != nil {
		if sw, ok := siteOf(s.Topology, ep.SwitchID); ok && sw != site {
			return nil, nil
		}
	}
	return ep, nil
}

func siteOf(topo ports.TopologyReader, switchID int) (string, bool) {
	if topo == nil {
		return "", false
	}
	sw, ok := topo.Switch(switchID)
	if !ok {
		return "", false
	}
	return sw.SiteCode, true
}

// A port carrying this many stored MACs is treated as a trunk even when the
// graph has no edge for it. Matches the live poll heuristic.
const uplinkMacThreshold = 5

// SightingStrategy is the last resort: the rawest stored sighting, with no
// graph reasoning at all. Uplink sightings are where a MAC was seen in
// transit, not where it is attached, so the newest non-uplink row wins and
// uplink rows only answer when nothing else exists.
type SightingStrategy struct {
	Inventory ports.Inventory
	Topology  ports.TopologyReader
}

func (s *SightingStrategy) Name() domain.ConfidenceTier { return domain.TierSighting }

func (s *SightingStrategy) Resolve(ctx context.Context, mac, site string) (*domain.Endpoint, error) {
	sightings, err := s.Inventory.SightingsForMac(ctx, mac)
	if err != nil {
		return nil, err
	}
	var fallback *domain.Endpoint
	for _, sg := range sightings { // already newest first
		sw, known := s.Topology.Switch(sg.SwitchID)
		if !known {
			continue
		}
		if site != "" && sw.SiteCode != site {
			continue
		}
		ep := &domain.Endpoint{
			Mac:        mac,
			SwitchID:   sg.SwitchID,
			Hostname:   sw.Hostname,
			SwitchIP:   sw.MgmtIP,
			Port:       sg.Port,
			VlanID:     sg.VlanID,
			Confidence: domain.TierSighting,
			LastSeen:   sg.LastSeen,
		}
		if s.onUplink(ctx, sg) {
			if fallback == nil {
				fallback = ep
			}
			continue
		}
		ep.IsEndpoint = true
		return ep, nil
	}
	return fallback, nil
}

func (s *SightingStrategy) onUplink(ctx context.Context, sg domain.MacSighting) bool {
	if sg.IsUplink || s.Topology.UplinkPorts(sg.SwitchID)[sg.Port] {
		return true
	}
	n, err := s.Inventory.MacCountOnPort(ctx, sg.SwitchID, sg.Port)
	return err == nil && n >= uplinkMacThreshold
}
