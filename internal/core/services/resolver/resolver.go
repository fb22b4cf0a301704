package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
	"github.com/lcalzada-xor/switchmap/internal/telemetry"
)

// Resolver locates a MAC's physical endpoint by walking an ordered chain of
// strategies, most trustworthy first. The tier that answered is recorded on
// the endpoint, so callers always know whether they got a live trace, a
// graph answer or just a raw sighting.
type Resolver struct {
	strategies []ports.ResolveStrategy
	inventory  ports.Inventory
	topology   ports.TopologyReader
	timeout    time.Duration
	log        *slog.Logger

	flight singleflight.Group
	cache  *gocache.Cache
}

// New builds a resolver over the given strategy chain. cacheTTL bounds how
// long a resolved endpoint is served without re-resolving; zero disables
// caching.
func New(strategies []ports.ResolveStrategy, inventory ports.Inventory, topology ports.TopologyReader, timeout, cacheTTL time.Duration, log *slog.Logger) *Resolver {
	var cache *gocache.Cache
	if cacheTTL > 0 {
		cache = gocache.New(cacheTTL, cacheTTL)
	}
	return &Resolver{
		strategies: strategies,
		inventory:  inventory,
		topology:   topology,
		timeout:    timeout,
		log:        log,
		cache:      cache,
	}
}

// Resolve finds where a MAC is plugged in. Concurrent requests for the same
// MAC and site coalesce into a single resolution; every waiter gets the one
// result.
func (r *Resolver) Resolve(ctx context.Context, rawMac, site string) (*domain.Endpoint, error) {
	mac, err := domain.NormalizeMac(rawMac)
	if err != nil {
		return nil, err
	}
	key := mac + "|" + site

	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return v.(*domain.Endpoint), nil
		}
	}

	ch := r.flight.DoChan(key, func() (any, error) {
		// The flight outlives the caller that started it: coalesced
		// waiters must not lose the result to the first hang-up.
		fctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return r.resolve(fctx, mac, site)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		ep := res.Val.(*domain.Endpoint)
		if r.cache != nil {
			r.cache.Set(key, ep, gocache.DefaultExpiration)
		}
		return ep, nil
	}
}

func (r *Resolver) resolve(ctx context.Context, mac, site string) (*domain.Endpoint, error) {
	for _, strat := range r.strategies {
		ep, err := strat.Resolve(ctx, mac, site)
		if err != nil {
			r.log.Warn("resolve tier failed, falling through",
				"tier", strat.Name(), "mac", mac, "err", err)
			continue
		}
		if ep == nil {
			continue
		}
		ep.Confidence = strat.Name()
		telemetry.TraceResolutions.WithLabelValues(string(strat.Name())).Inc()
		r.log.Info("mac resolved", "mac", mac, "tier", strat.Name(),
			"switch", ep.Hostname, "port", ep.Port)
		return ep, nil
	}
	telemetry.TraceMisses.Inc()
	return nil, fmt.Errorf("%w: %s", domain.ErrMacNotFound, mac)
}

// AllEndpoints returns every stored location for a MAC, newest first, each
// cross-checked against the known uplink ports so the caller can tell
// endpoint sightings from bleed-through on trunks.
func (r *Resolver) AllEndpoints(ctx context.Context, rawMac string) ([]domain.Endpoint, error) {
	mac, err := domain.NormalizeMac(rawMac)
	if err != nil {
		return nil, err
	}
	sightings, err := r.inventory.SightingsForMac(ctx, mac)
	if err != nil {
		return nil, err
	}
	if len(sightings) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMacNotFound, mac)
	}

	out := make([]domain.Endpoint, 0, len(sightings))
	for _, sg := range sightings {
		ep := domain.Endpoint{
			Mac:        mac,
			SwitchID:   sg.SwitchID,
			Port:       sg.Port,
			VlanID:     sg.VlanID,
			IsEndpoint: !sg.IsUplink,
			Confidence: domain.TierSighting,
			LastSeen:   sg.LastSeen,
		}
		if sw, ok := r.topology.Switch(sg.SwitchID); ok {
			ep.Hostname = sw.Hostname
			ep.SwitchIP = sw.MgmtIP
			if uplinks := r.topology.UplinkPorts(sg.SwitchID); uplinks[sg.Port] {
				ep.IsEndpoint = false
			}
		}
		out = append(out, ep)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out, nil
}
