package storage

import (
	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

func switchToDomain(m SwitchModel) domain.SwitchNode {
	return domain.SwitchNode{
		ID:                m.ID,
		Hostname:          m.Hostname,
		MgmtIP:            m.MgmtIP,
		DeviceType:        domain.DeviceType(m.DeviceType),
		SiteCode:          m.SiteCode,
		IsActive:          m.IsActive,
		IsCore:            m.IsCore,
		GroupID:           m.GroupID,
		LastSeen:          m.LastSeen,
		LastPollSucceeded: m.LastPollSucceeded,
	}
}

func switchToModel(sw domain.SwitchNode) SwitchModel {
	return SwitchModel{
		ID:                sw.ID,
		Hostname:          sw.Hostname,
		MgmtIP:            sw.MgmtIP,
		DeviceType:        string(sw.DeviceType),
		SiteCode:          sw.SiteCode,
		IsActive:          sw.IsActive,
		IsCore:            sw.IsCore,
		GroupID:           sw.GroupID,
		LastSeen:          sw.LastSeen,
		LastPollSucceeded: sw.LastPollSucceeded,
	}
}

func groupToDomain(m SwitchGroupModel) domain.SwitchGroup {
	return domain.SwitchGroup{
		ID:       m.ID,
		Name:     m.Name,
		Username: m.Username,
		Password: m.Password,
		SSHPort:  m.SSHPort,
	}
}

func groupToModel(g domain.SwitchGroup) SwitchGroupModel {
	return SwitchGroupModel{
		ID:       g.ID,
		Name:     g.Name,
		Username: g.Username,
		Password: g.Password,
		SSHPort:  g.SSHPort,
	}
}

func sightingToDomain(m SightingModel) domain.MacSighting {
	return domain.MacSighting{
		Mac:       m.Mac,
		SwitchID:  m.SwitchID,
		Port:      m.Port,
		VlanID:    m.VlanID,
		IsUplink:  m.IsUplink,
		FirstSeen: m.FirstSeen,
		LastSeen:  m.LastSeen,
	}
}

func sightingToModel(s domain.MacSighting) SightingModel {
	first := s.FirstSeen
	if first.IsZero() {
		first = s.LastSeen
	}
	return SightingModel{
		Mac:       s.Mac,
		SwitchID:  s.SwitchID,
		Port:      s.Port,
		VlanID:    s.VlanID,
		IsUplink:  s.IsUplink,
		FirstSeen: first,
		LastSeen:  s.LastSeen,
	}
}

func linkToDomain(m LinkModel) domain.LinkEdge {
	return domain.LinkEdge{
		LocalID:    m.LocalID,
		RemoteID:   m.RemoteID,
		LocalPort:  m.LocalPort,
		RemotePort: m.RemotePort,
		Protocol:   domain.Protocol(m.Protocol),
		Confidence: domain.LinkConfidence(m.Confidence),
		LastSeen:   m.LastSeen,
	}
}

func linkToModel(l domain.LinkEdge) LinkModel {
	return LinkModel{
		LocalID:    l.LocalID,
		RemoteID:   l.RemoteID,
		LocalPort:  l.LocalPort,
		RemotePort: l.RemotePort,
		Protocol:   string(l.Protocol),
		Confidence: string(l.Confidence),
		LastSeen:   l.LastSeen,
	}
}
