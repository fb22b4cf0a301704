package device

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// huaweiDriver speaks VRP (S5700/S6700 class).
type huaweiDriver struct{}

func (huaweiDriver) MacLookupCmd(mac string) string {
	return "display mac-address " + domain.HuaweiMac(mac)
}

var huaweiMacRowRe = regexp.MustCompile(`(?i)^([0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4})\s+(\S+)\s+(\S+)\s`)

// ParseMacLookup reads a VRP mac-address table row:
//
//	MAC Address    VLAN/VSI/BD   Learned-From        Type
//	0018-6e35-7631 210/-/-       XGE2/0/1            dynamic
func (huaweiDriver) ParseMacLookup(output string) (string, int, bool) {
	for _, line := range strings.Split(output, "\n") {
		m := huaweiMacRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		return m[3], huaweiVlan(m[2]), true
	}
	return "", 0, false
}

func (huaweiDriver) MacTableCmd() string { return "display mac-address dynamic" }

func (huaweiDriver) ParseMacTable(output string) []macEntry {
	var entries []macEntry
	for _, line := range strings.Split(output, "\n") {
		m := huaweiMacRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		mac, err := domain.NormalizeMac(m[1])
		if err != nil {
			continue
		}
		entries = append(entries, macEntry{Mac: mac, Vlan: huaweiVlan(m[2]), Port: m[3]})
	}
	return entries
}

// huaweiVlan extracts the VLAN from the VLAN/VSI/BD column ("210/-/-").
func huaweiVlan(col string) int {
	v, _, _ := strings.Cut(col, "/")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

var ethTrunkRe = regexp.MustCompile(`(?i)^eth-trunk\s*(\d+)$`)

func (huaweiDriver) TrunkMembersCmd(port string) (string, bool) {
	m := ethTrunkRe.FindStringSubmatch(strings.TrimSpace(port))
	if m == nil {
		return "", false
	}
	return "display eth-trunk " + m[1], true
}

var huaweiTrunkMemberRe = regexp.MustCompile(`(?i)^((?:XGE|GE|25GE|40GE|100GE|Eth)\S+)\s+(Up|Down)\s+\d+`)

// ParseTrunkMembers reads the PortName/Status/Weight member section of
// "display eth-trunk N". Only Up members are returned.
func (huaweiDriver) ParseTrunkMembers(output string) []string {
	var members []string
	for _, line := range strings.Split(output, "\n") {
		m := huaweiTrunkMemberRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if strings.EqualFold(m[2], "Up") {
			members = append(members, m[1])
		}
	}
	return members
}

func (huaweiDriver) LldpNeighborCmd(port string) string {
	return "display lldp neighbor interface " + ExpandHuaweiPort(port)
}

var (
	huaweiSysNameRe = regexp.MustCompile(`(?i)system name\s*:\s*(\S+)`)
	huaweiPortIDRe  = regexp.MustCompile(`(?i)port id\s*:\s*(\S+)`)
)

func (huaweiDriver) ParseLldpNeighbor(output string) (string, string, bool) {
	sys := huaweiSysNameRe.FindStringSubmatch(output)
	if sys == nil {
		return "", "", false
	}
	portID := ""
	if m := huaweiPortIDRe.FindStringSubmatch(output); m != nil {
		portID = m[1]
	}
	return sys[1], portID, true
}

func (huaweiDriver) LldpNeighborsCmd() string { return "display lldp neighbor brief" }

var huaweiLldpBriefRe = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)\s+\d+`)

// ParseLldpNeighbors reads the brief table:
//
//	Local Intf    Neighbor Dev       Neighbor Intf    Exptime(s)
//	XGE2/0/3      3_sw_access_12     XGE1/0/49        96
func (huaweiDriver) ParseLldpNeighbors(output string) []ports.NeighborClaim {
	var claims []ports.NeighborClaim
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(strings.ToLower(line), "local") {
			continue
		}
		m := huaweiLldpBriefRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		claims = append(claims, ports.NeighborClaim{
			LocalPort:     m[1],
			RemoteSysName: m[2],
			RemotePort:    m[3],
			Protocol:      domain.ProtoLLDP,
		})
	}
	return claims
}
