package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

const (
	oidSysName            = ".1.3.6.1.2.1.1.5.0"
	oidIfName             = ".1.3.6.1.2.1.31.1.1.1.1"
	oidLldpRemSysName     = ".1.0.8802.1.1.2.1.4.1.1.9"
	oidLldpRemPortID      = ".1.0.8802.1.1.2.1.4.1.1.7"
	oidLldpRemLocPortNum  = ".1.0.8802.1.1.2.1.4.1.1.2"
	oidDot1dBasePortIfIdx = ".1.3.6.1.2.1.17.1.4.1.2"
	oidDot1qTpFdbPort     = ".1.3.6.1.2.1.17.7.1.2.2.1.2"
)

// SNMPAdapter polls LLDP neighbors and the Q-BRIDGE forwarding table over
// SNMP v2c. It is the fallback poller for switches without SSH reachability
// and the bulk path for full FDB collection.
type SNMPAdapter struct {
	Community string
	Port      uint16
	Timeout   time.Duration
	Retries   int
}

func NewSNMPAdapter(community string, port int, timeout time.Duration) *SNMPAdapter {
	if port <= 0 {
		port = 161
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SNMPAdapter{
		Community: community,
		Port:      uint16(port),
		Timeout:   timeout,
		Retries:   2,
	}
}

func (a *SNMPAdapter) Poll(ctx context.Context, sw domain.SwitchNode) (*ports.PollResult, error) {
	sn := &gosnmp.GoSNMP{
		Target:    sw.MgmtIP,
		Port:      a.Port,
		Community: a.Community,
		Version:   gosnmp.Version2c,
		Timeout:   a.Timeout,
		Retries:   a.Retries,
		MaxOids:   gosnmp.MaxOids,
		Context:   ctx,
	}
	if err := sn.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %s: snmp connect: %v", domain.ErrDeviceUnreachable, sw.MgmtIP, err)
	}
	defer sn.Conn.Close()

	res := &ports.PollResult{SwitchID: sw.ID}

	ifNames := walkStringIndex(sn, oidIfName)

	// LLDP remote table. Entries index by local port number, resolved to a
	// port name via ifName.
	remSysNames := walkString(sn, oidLldpRemSysName)
	remPortIDs := walkString(sn, oidLldpRemPortID)
	remLocalNums := walkInt(sn, oidLldpRemLocPortNum)
	for i := 0; i < len(remSysNames) && i < len(remPortIDs) && i < len(remLocalNums); i++ {
		localIf := ifNames[remLocalNums[i]]
		if localIf == "" {
			localIf = fmt.Sprintf("ifIndex%d", remLocalNums[i])
		}
		res.Neighbors = append(res.Neighbors, ports.NeighborClaim{
			LocalPort:     localIf,
			RemoteSysName: remSysNames[i],
			RemotePort:    remPortIDs[i],
			Protocol:      domain.ProtoLLDP,
		})
	}

	// Q-BRIDGE FDB. dot1qTpFdbPort values are bridge ports, mapped to
	// interfaces through dot1dBasePortIfIndex.
	baseToIf := walkIntIndex(sn, oidDot1dBasePortIfIdx)
	now := time.Now()
	err := sn.BulkWalk(oidDot1qTpFdbPort, func(pdu gosnmp.SnmpPDU) error {
		bridgePort := toInt(pdu.Value)
		if bridgePort <= 0 {
			return nil
		}
		vlan, mac := parseDot1qIndex(pdu.Name)
		if vlan == 0 || mac == "" || !isUnicastMac(mac) {
			return nil
		}
		norm, nerr := domain.NormalizeMac(mac)
		if nerr != nil {
			return nil
		}
		port := ifNames[baseToIf[bridgePort]]
		if port == "" {
			port = fmt.Sprintf("bridgePort%d", bridgePort)
		}
		res.Sightings = append(res.Sightings, domain.MacSighting{
			Mac:      norm,
			SwitchID: sw.ID,
			Port:     port,
			VlanID:   vlan,
			LastSeen: now,
		})
		return nil
	})
	if err != nil && len(res.Neighbors) == 0 && len(res.Sightings) == 0 {
		return nil, fmt.Errorf("%w: %s: snmp walk: %v", domain.ErrDeviceUnreachable, sw.MgmtIP, err)
	}
	markUplinks(res)
	return res, nil
}

// SysName fetches the device's advertised system name, used to verify the
// inventory hostname matches what LLDP peers will report.
func (a *SNMPAdapter) SysName(ctx context.Context, sw domain.SwitchNode) (string, error) {
	sn := &gosnmp.GoSNMP{
		Target:    sw.MgmtIP,
		Port:      a.Port,
		Community: a.Community,
		Version:   gosnmp.Version2c,
		Timeout:   a.Timeout,
		Retries:   a.Retries,
		Context:   ctx,
	}
	if err := sn.Connect(); err != nil {
		return "", fmt.Errorf("%w: %s: snmp connect: %v", domain.ErrDeviceUnreachable, sw.MgmtIP, err)
	}
	defer sn.Conn.Close()
	name := getString(sn, oidSysName)
	if name == "" {
		return "", fmt.Errorf("sysName empty for %s", sw.MgmtIP)
	}
	return name, nil
}

func getString(sn *gosnmp.GoSNMP, oid string) string {
	p, err := sn.Get([]string{oid})
	if err != nil || len(p.Variables) == 0 {
		return ""
	}
	return valueToString(p.Variables[0].Value)
}

func walkString(sn *gosnmp.GoSNMP, oid string) []string {
	var out []string
	_ = sn.BulkWalk(oid, func(pdu gosnmp.SnmpPDU) error {
		out = append(out, valueToString(pdu.Value))
		return nil
	})
	return out
}

func walkInt(sn *gosnmp.GoSNMP, oid string) []int {
	var out []int
	_ = sn.BulkWalk(oid, func(pdu gosnmp.SnmpPDU) error {
		out = append(out, toInt(pdu.Value))
		return nil
	})
	return out
}

func walkStringIndex(sn *gosnmp.GoSNMP, oid string) map[int]string {
	out := map[int]string{}
	_ = sn.BulkWalk(oid, func(pdu gosnmp.SnmpPDU) error {
		out[indexFromOid(pdu.Name)] = valueToString(pdu.Value)
		return nil
	})
	return out
}

func walkIntIndex(sn *gosnmp.GoSNMP, oid string) map[int]int {
	out := map[int]int{}
	_ = sn.BulkWalk(oid, func(pdu gosnmp.SnmpPDU) error {
		out[indexFromOid(pdu.Name)] = toInt(pdu.Value)
		return nil
	})
	return out
}

func indexFromOid(name string) int {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return 0
	}
	return toInt(name[i+1:])
}

// parseDot1qIndex splits a dot1qTpFdbPort OID suffix into vlan and MAC.
// The index is <vlan>.<six MAC octets>.
func parseDot1qIndex(oid string) (int, string) {
	parts := strings.Split(oid, ".")
	if len(parts) < 8 {
		return 0, ""
	}
	nums := make([]int, 0, 7)
	for i := len(parts) - 7; i < len(parts); i++ {
		var n int
		fmt.Sscanf(parts[i], "%d", &n)
		nums = append(nums, n)
	}
	vlan := nums[0]
	mac := fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		nums[1], nums[2], nums[3], nums[4], nums[5], nums[6])
	return vlan, mac
}

func isUnicastMac(m string) bool {
	if len(m) != 17 {
		return false
	}
	var b0 int
	_, _ = fmt.Sscanf(m[0:2], "%x", &b0)
	return b0&1 == 0
}

func toInt(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case string:
		var n int
		fmt.Sscanf(t, "%d", &n)
		return n
	default:
		return int(gosnmp.ToBigInt(v).Int64())
	}
}

func valueToString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
