package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// uplinkMacThreshold is the MAC count above which a port is treated as an
// uplink even without an LLDP neighbor on it. Access ports carry a handful
// of MACs; inter-switch ports carry the tables of everything behind them.
const uplinkMacThreshold = 5

// GroupLookup resolves a credential group id to its credentials.
type GroupLookup func(ctx context.Context, id int) (domain.SwitchGroup, error)

// CLIAdapter polls a switch over an SSH CLI session using the vendor driver
// matching its device type.
type CLIAdapter struct {
	dialer  ports.SessionDialer
	groups  GroupLookup
	retries int
	backoff time.Duration
	log     *slog.Logger
}

func NewCLIAdapter(dialer ports.SessionDialer, groups GroupLookup, log *slog.Logger) *CLIAdapter {
	return &CLIAdapter{
		dialer:  dialer,
		groups:  groups,
		retries: 2,
		backoff: 2 * time.Second,
		log:     log,
	}
}

func (a *CLIAdapter) Poll(ctx context.Context, sw domain.SwitchNode) (*ports.PollResult, error) {
	group, err := a.groups(ctx, sw.GroupID)
	if err != nil {
		return nil, fmt.Errorf("credential group %d: %w", sw.GroupID, err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.backoff * time.Duration(attempt)):
			}
			a.log.Debug("retrying poll", "switch", sw.Hostname, "attempt", attempt)
		}
		res, err := a.pollOnce(ctx, sw, group)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrDeviceUnreachable) {
			break
		}
	}
	return nil, lastErr
}

func (a *CLIAdapter) pollOnce(ctx context.Context, sw domain.SwitchNode, group domain.SwitchGroup) (*ports.PollResult, error) {
	sess, err := a.dialer.Dial(ctx, sw, group)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	drv := DriverFor(sw.DeviceType)
	res := &ports.PollResult{SwitchID: sw.ID}

	lldpOut, err := sess.Run(ctx, drv.LldpNeighborsCmd())
	if err != nil {
		return nil, fmt.Errorf("lldp neighbors on %s: %w", sw.Hostname, err)
	}
	res.Neighbors = drv.ParseLldpNeighbors(lldpOut)

	macOut, err := sess.Run(ctx, drv.MacTableCmd())
	if err != nil {
		return nil, fmt.Errorf("mac table on %s: %w", sw.Hostname, err)
	}
	entries := drv.ParseMacTable(macOut)

	now := time.Now()
	for _, e := range entries {
		res.Sightings = append(res.Sightings, domain.MacSighting{
			Mac:      e.Mac,
			SwitchID: sw.ID,
			Port:     e.Port,
			VlanID:   e.Vlan,
			LastSeen: now,
		})
	}
	markUplinks(res)
	return res, nil
}

// markUplinks flags sightings on ports that either carry an LLDP neighbor
// or learn more MACs than any access port reasonably does. Runs on the raw
// poll result so every transport shares the same heuristic.
func markUplinks(res *ports.PollResult) {
	marked := map[string]bool{}
	for _, c := range res.Neighbors {
		marked[NormalizePortName(c.LocalPort)] = true
	}
	counts := map[string]int{}
	for _, sg := range res.Sightings {
		counts[NormalizePortName(sg.Port)]++
	}
	for port, n := range counts {
		if n >= uplinkMacThreshold {
			marked[port] = true
		}
	}
	for i := range res.Sightings {
		res.Sightings[i].IsUplink = marked[NormalizePortName(res.Sightings[i].Port)]
	}
}
