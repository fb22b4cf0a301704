package device

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// ciscoDriver speaks IOS / IOS-XE.
type ciscoDriver struct{}

// ciscoMac renders a MAC as 0018.6e35.7631.
func ciscoMac(mac string) string {
	hex := strings.ToLower(strings.ReplaceAll(mac, ":", ""))
	return hex[0:4] + "." + hex[4:8] + "." + hex[8:12]
}

func (ciscoDriver) MacLookupCmd(mac string) string {
	return "show mac address-table address " + ciscoMac(mac)
}

var ciscoMacRowRe = regexp.MustCompile(`(?i)^\*?\s*(\d+)\s+([0-9a-f]{4}\.[0-9a-f]{4}\.[0-9a-f]{4})\s+\S+\s+(\S+)`)

// ParseMacLookup reads an IOS mac address-table row:
//
//	Vlan    Mac Address       Type        Ports
//	 210    0018.6e35.7631    DYNAMIC     Gi1/0/12
func (ciscoDriver) ParseMacLookup(output string) (string, int, bool) {
	for _, line := range strings.Split(output, "\n") {
		m := ciscoMacRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		vlan, _ := strconv.Atoi(m[1])
		return m[3], vlan, true
	}
	return "", 0, false
}

func (ciscoDriver) MacTableCmd() string { return "show mac address-table dynamic" }

func (ciscoDriver) ParseMacTable(output string) []macEntry {
	var entries []macEntry
	for _, line := range strings.Split(output, "\n") {
		m := ciscoMacRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		mac, err := domain.NormalizeMac(m[2])
		if err != nil {
			continue
		}
		vlan, _ := strconv.Atoi(m[1])
		entries = append(entries, macEntry{Mac: mac, Vlan: vlan, Port: m[3]})
	}
	return entries
}

var portChannelRe = regexp.MustCompile(`(?i)^po(?:rt-channel)?(\d+)$`)

func (ciscoDriver) TrunkMembersCmd(port string) (string, bool) {
	m := portChannelRe.FindStringSubmatch(strings.TrimSpace(port))
	if m == nil {
		return "", false
	}
	return "show etherchannel " + m[1] + " summary", true
}

var ciscoChannelMemberRe = regexp.MustCompile(`([A-Za-z]{2}\d+(?:/\d+)+)\((\w+)\)`)

// ParseTrunkMembers reads the member list of "show etherchannel N summary":
//
//	81     Po81(SU)        LACP      Te1/0/1(P)  Te1/0/2(P)
func (ciscoDriver) ParseTrunkMembers(output string) []string {
	var members []string
	for _, m := range ciscoChannelMemberRe.FindAllStringSubmatch(output, -1) {
		// P = bundled in the channel
		if strings.Contains(m[2], "P") {
			members = append(members, m[1])
		}
	}
	return members
}

func (ciscoDriver) LldpNeighborCmd(port string) string {
	return "show lldp neighbors " + port + " detail"
}

var (
	ciscoSysNameRe = regexp.MustCompile(`(?i)system name\s*:\s*(\S+)`)
	ciscoPortIDRe  = regexp.MustCompile(`(?i)port id\s*:\s*(\S+)`)
)

func (ciscoDriver) ParseLldpNeighbor(output string) (string, string, bool) {
	sys := ciscoSysNameRe.FindStringSubmatch(output)
	if sys == nil {
		return "", "", false
	}
	portID := ""
	if m := ciscoPortIDRe.FindStringSubmatch(output); m != nil {
		portID = m[1]
	}
	return sys[1], portID, true
}

func (ciscoDriver) LldpNeighborsCmd() string { return "show lldp neighbors" }

var ciscoLldpRowRe = regexp.MustCompile(`^(\S+)\s+(\S+)\s+\d+\s+[BRTCWPSO,]+\s+(\S+)$`)

// ParseLldpNeighbors reads the summary table:
//
//	Device ID        Local Intf   Hold-time  Capability   Port ID
//	3_sw_access_12   Gi1/0/24     120        B            Gi1/0/49
func (ciscoDriver) ParseLldpNeighbors(output string) []ports.NeighborClaim {
	var claims []ports.NeighborClaim
	for _, line := range strings.Split(output, "\n") {
		m := ciscoLldpRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		claims = append(claims, ports.NeighborClaim{
			LocalPort:     m[2],
			RemoteSysName: m[1],
			RemotePort:    m[3],
			Protocol:      domain.ProtoLLDP,
		})
	}
	return claims
}
