package device

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// extremeDriver speaks EXOS. Ports are bare slot:port numbers, so there is
// no prefix to normalize and no LAG naming convention to expand.
type extremeDriver struct{}

func (extremeDriver) MacLookupCmd(mac string) string {
	return "show fdb " + strings.ToLower(mac)
}

// Flags are space separated ("d m"), so the port is the last token.
var extremeFdbRowRe = regexp.MustCompile(`(?i)^([0-9a-f:]{17})\s+\S+\((\d+)\)\s+\d+\s+\S.*\s(\S+)$`)

// ParseMacLookup reads an EXOS fdb row:
//
//	Mac                     Vlan       Age  Flags         Port / Virtual Port List
//	00:18:6e:35:76:31   corp(0210)  0048 d m          14
func (extremeDriver) ParseMacLookup(output string) (string, int, bool) {
	for _, line := range strings.Split(output, "\n") {
		m := extremeFdbRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		vlan, _ := strconv.Atoi(m[2])
		return m[3], vlan, true
	}
	return "", 0, false
}

func (extremeDriver) MacTableCmd() string { return "show fdb" }

func (extremeDriver) ParseMacTable(output string) []macEntry {
	var entries []macEntry
	for _, line := range strings.Split(output, "\n") {
		m := extremeFdbRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		mac, err := domain.NormalizeMac(m[1])
		if err != nil {
			continue
		}
		vlan, _ := strconv.Atoi(m[2])
		entries = append(entries, macEntry{Mac: mac, Vlan: vlan, Port: m[3]})
	}
	return entries
}

var exosLagRe = regexp.MustCompile(`(?i)^lag\s*(\d+(?::\d+)?)$`)

func (extremeDriver) TrunkMembersCmd(port string) (string, bool) {
	m := exosLagRe.FindStringSubmatch(strings.TrimSpace(port))
	if m == nil {
		return "", false
	}
	return "show sharing", true
}

var exosSharingRowRe = regexp.MustCompile(`^(\d+(?::\d+)?)\s+\S+\s+\S+\s+\S+\s+(\d+(?::\d+)?)\s+(\S)`)

// ParseTrunkMembers reads "show sharing" member rows; the A flag marks
// active members.
func (extremeDriver) ParseTrunkMembers(output string) []string {
	var members []string
	for _, line := range strings.Split(output, "\n") {
		m := exosSharingRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if strings.EqualFold(m[3], "A") || strings.EqualFold(m[3], "Y") {
			members = append(members, m[2])
		}
	}
	return members
}

func (extremeDriver) LldpNeighborCmd(port string) string {
	return "show lldp ports " + port + " neighbors detailed"
}

var (
	exosSysNameRe = regexp.MustCompile(`(?i)system name\s*:\s*"?([^"\s]+)"?`)
	exosPortIDRe  = regexp.MustCompile(`(?i)port id\s*:\s*"?([^"\s]+)"?`)
)

func (extremeDriver) ParseLldpNeighbor(output string) (string, string, bool) {
	sys := exosSysNameRe.FindStringSubmatch(output)
	if sys == nil {
		return "", "", false
	}
	portID := ""
	if m := exosPortIDRe.FindStringSubmatch(output); m != nil {
		portID = m[1]
	}
	return sys[1], portID, true
}

func (extremeDriver) LldpNeighborsCmd() string { return "show lldp neighbors" }

var exosLldpRowRe = regexp.MustCompile(`^(\d+(?::\d+)?)\s+\S+\s+(\S+)\s+\d+\s+(\S+)`)

// ParseLldpNeighbors reads the neighbor summary:
//
//	Port     Chassis ID          Port ID      TTL   System Name
//	14       00:04:96:1f:a2:c0   1:49         120   3_sw_access_12
func (extremeDriver) ParseLldpNeighbors(output string) []ports.NeighborClaim {
	var claims []ports.NeighborClaim
	for _, line := range strings.Split(output, "\n") {
		m := exosLldpRowRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		claims = append(claims, ports.NeighborClaim{
			LocalPort:     m[1],
			RemoteSysName: m[3],
			RemotePort:    m[2],
			Protocol:      domain.ProtoLLDP,
		})
	}
	return claims
}
