package device

import (
	"regexp"
	"strings"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// macEntry is one row of a parsed MAC forwarding table.
type macEntry struct {
	Mac  string
	Vlan int
	Port string
}

// Driver is the per-vendor command set and output grammar. The vendor set is
// closed: adding a vendor means adding a Driver implementation, not probing
// output shapes at runtime.
type Driver interface {
	// MacLookupCmd returns the CLI command locating one MAC, with the MAC
	// rendered in the vendor's native format.
	MacLookupCmd(mac string) string
	ParseMacLookup(output string) (port string, vlan int, ok bool)

	// MacTableCmd dumps the full dynamic forwarding table.
	MacTableCmd() string
	ParseMacTable(output string) []macEntry

	// TrunkMembersCmd resolves a LAG port to its physical members. ok is
	// false when the port is not an aggregate on this vendor.
	TrunkMembersCmd(port string) (cmd string, ok bool)
	ParseTrunkMembers(output string) []string

	// LldpNeighborCmd queries the neighbor behind a single port.
	LldpNeighborCmd(port string) string
	ParseLldpNeighbor(output string) (sysName, portID string, ok bool)

	// LldpNeighborsCmd dumps all neighbors for the full-table poll.
	LldpNeighborsCmd() string
	ParseLldpNeighbors(output string) []ports.NeighborClaim
}

// DriverFor selects the driver for a device type. Unknown types get the
// Huawei driver, the dominant vendor in the fleet.
func DriverFor(t domain.DeviceType) Driver {
	switch t {
	case domain.DeviceCisco:
		return ciscoDriver{}
	case domain.DeviceExtreme:
		return extremeDriver{}
	default:
		return huaweiDriver{}
	}
}

// IsAggregatePort reports whether a port name denotes a LAG rather than a
// physical interface (Eth-Trunk on Huawei, Port-channel on Cisco).
func IsAggregatePort(port string) bool {
	p := strings.ToLower(port)
	return strings.Contains(p, "trunk") ||
		strings.HasPrefix(p, "po") && !strings.HasPrefix(p, "port") ||
		strings.HasPrefix(p, "port-channel") ||
		strings.HasPrefix(p, "lag")
}

var portPrefixRe = regexp.MustCompile(`^(?i)(xgigabitethernet|gigabitethernet|tengigabitethernet|twentyfivegige|fortygige|ethernet|xge|ge|te|gi|eth)`)

// NormalizePortName strips vendor prefix variants so that XGE1/0/44 and
// XGigabitEthernet1/0/44 compare equal. Aggregate names pass through
// lower-cased.
func NormalizePortName(port string) string {
	p := strings.TrimSpace(port)
	if p == "" {
		return ""
	}
	if IsAggregatePort(p) {
		return strings.ToLower(p)
	}
	return strings.ToLower(portPrefixRe.ReplaceAllString(p, ""))
}

// ExpandHuaweiPort turns abbreviated CLI names into the full form the
// Huawei CLI accepts as a command argument (XGE2/0/1 -> XGigabitEthernet2/0/1).
func ExpandHuaweiPort(port string) string {
	up := strings.ToUpper(port)
	switch {
	case strings.HasPrefix(up, "XGE") && !strings.HasPrefix(up, "XGIGABIT"):
		return "XGigabitEthernet" + port[3:]
	case strings.HasPrefix(up, "GE") && !strings.HasPrefix(up, "GIGABIT"):
		return "GigabitEthernet" + port[2:]
	}
	return port
}
