package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrMacNotFound means no tier of the resolver chain produced a sighting.
	ErrMacNotFound = errors.New("mac address not found")

	// ErrDeviceUnreachable is returned by device adapters after retries are
	// exhausted; the rebuild treats it as node inactivation, never as fatal.
	ErrDeviceUnreachable = errors.New("device unreachable")

	// ErrSiteRebuildFailed means every adapter in a site failed and the
	// previous graph was retained.
	ErrSiteRebuildFailed = errors.New("site rebuild failed, previous graph retained")

	ErrInvalidMac = errors.New("invalid mac address")
)

var hexOnlyRe = regexp.MustCompile(`^[0-9A-F]{12}$`)

// NormalizeMac canonicalizes a MAC address to upper-case colon form
// (AA:BB:CC:DD:EE:FF). Accepted inputs: colon, dash and dot separated pairs,
// Huawei 4-4-4 groups (0018-6e35-7631), and bare 12-digit hex.
func NormalizeMac(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(":", "", "-", "", ".", "").Replace(s)
	if !hexOnlyRe.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMac, raw)
	}
	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(s[i : i+2])
	}
	return b.String(), nil
}

// HuaweiMac renders a normalized MAC in the 4-4-4 form the Huawei CLI expects.
func HuaweiMac(mac string) string {
	s := strings.ToLower(strings.ReplaceAll(mac, ":", ""))
	if len(s) != 12 {
		return s
	}
	return s[0:4] + "-" + s[4:8] + "-" + s[8:12]
}

// MacSighting is one observation of a MAC in a switch forwarding table.
// A MAC flooded across the fabric produces a sighting on every switch along
// its path; which sighting is "the" endpoint is computed on demand by the
// resolver, never stored.
type MacSighting struct {
	Mac       string    `json:"mac_address"`
	SwitchID  int       `json:"switch_id"`
	Port      string    `json:"port_name"`
	VlanID    int       `json:"vlan_id,omitempty"`
	IsUplink  bool      `json:"is_uplink"`
	FirstSeen time.Time `json:"first_seen,omitempty"`
	LastSeen  time.Time `json:"last_seen,omitempty"`
}

// ConfidenceTier names the resolver tier that produced an endpoint.
type ConfidenceTier string

const (
	TierLive     ConfidenceTier = "live"     // live SSH/SNMP trace
	TierGraph    ConfidenceTier = "graph"    // offline snapshot BFS
	TierSighting ConfidenceTier = "sighting" // most recent raw sighting
)

// Endpoint is the resolved physical attachment point of a MAC.
type Endpoint struct {
	Mac        string         `json:"mac_address"`
	SwitchID   int            `json:"switch_id"`
	Hostname   string         `json:"switch_hostname"`
	SwitchIP   string         `json:"switch_ip"`
	Port       string         `json:"port_name"`
	VlanID     int            `json:"vlan_id,omitempty"`
	IsEndpoint bool           `json:"is_endpoint"`
	Confidence ConfidenceTier `json:"confidence"`
	// Stale marks an answer derived from a graph snapshot older than the
	// configured freshness window.
	Stale     bool       `json:"stale,omitempty"`
	LastSeen  time.Time  `json:"last_seen,omitempty"`
	TracePath *TracePath `json:"trace_path,omitempty"`
}
