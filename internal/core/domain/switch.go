package domain

import (
	"regexp"
	"strings"
	"time"
)

// DeviceType identifies the vendor family of a switch. Vendor-specific
// behavior (CLI command sets, SNMP quirks) is selected from this closed set;
// new vendors are added as new constants, never probed at runtime.
type DeviceType string

const (
	DeviceHuawei  DeviceType = "huawei"
	DeviceCisco   DeviceType = "cisco"
	DeviceExtreme DeviceType = "extreme"
)

// SwitchNode is a managed switch in the topology graph.
// Nodes are created on first discovery and updated on each poll cycle; they
// are never silently deleted, only deactivated when unreachable.
type SwitchNode struct {
	ID           int        `json:"id"`
	Hostname     string     `json:"hostname"`
	MgmtIP       string     `json:"ip_address"`
	DeviceType   DeviceType `json:"device_type"`
	SiteCode     string     `json:"site_code,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsCore       bool       `json:"is_core,omitempty"`
	MacCount     int        `json:"mac_count"`
	GroupID      int        `json:"-"`
	LastSeen     time.Time  `json:"last_seen,omitempty"`
	LastPollSucceeded bool  `json:"-"`
}

// SwitchGroup bundles switches sharing SSH credentials.
type SwitchGroup struct {
	ID       int
	Name     string
	Username string
	Password string
	SSHPort  int
}

var sitePrefixRe = regexp.MustCompile(`^(\d+)_`)

// ExtractSiteCode derives the site partition key from a hostname following
// the fleet naming convention, e.g. "07_L2_RACK01_181" -> "07".
// Returns "" when the hostname does not carry a site prefix.
func ExtractSiteCode(hostname string) string {
	m := sitePrefixRe.FindStringSubmatch(hostname)
	if m == nil {
		return ""
	}
	return m[1]
}

// LooksLikeCore reports whether a hostname follows the core/L3 naming
// convention. The explicit IsCore flag on SwitchNode always wins; this is
// the fallback for fleets that never set it.
func LooksLikeCore(hostname string) bool {
	upper := strings.ToUpper(hostname)
	return strings.Contains(upper, "L3") || strings.Contains(upper, "CORE")
}

// IsCoreSwitch applies the explicit flag first, then the naming convention.
func (s SwitchNode) IsCoreSwitch() bool {
	return s.IsCore || LooksLikeCore(s.Hostname)
}
