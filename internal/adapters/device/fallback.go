package device

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// FallbackAdapter polls over the primary transport and retries over the
// secondary when the device cannot be reached. Switches with SSH disabled
// or broken credentials still get collected over SNMP.
type FallbackAdapter struct {
	primary   ports.DeviceAdapter
	secondary ports.DeviceAdapter
	log       *slog.Logger
}

func NewFallbackAdapter(primary, secondary ports.DeviceAdapter, log *slog.Logger) *FallbackAdapter {
	return &FallbackAdapter{primary: primary, secondary: secondary, log: log}
}

func (a *FallbackAdapter) Poll(ctx context.Context, sw domain.SwitchNode) (*ports.PollResult, error) {
	res, err := a.primary.Poll(ctx, sw)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, domain.ErrDeviceUnreachable) || a.secondary == nil {
		return nil, err
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	a.log.Warn("primary transport unreachable, trying fallback",
		"switch", sw.Hostname, "err", err)
	return a.secondary.Poll(ctx, sw)
}
