package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

// setupInMemoryDB creates a new SQLiteAdapter used for testing
func setupInMemoryDB(t *testing.T) *SQLiteAdapter {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&SwitchModel{}, &SwitchGroupModel{}, &SightingModel{}, &LinkModel{}, &DiscoveryLogModel{})
	require.NoError(t, err)

	return &SQLiteAdapter{db: db}
}

func TestSaveAndListSwitches(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	sw := domain.SwitchNode{
		ID:         1,
		Hostname:   "3_sw_access_12",
		MgmtIP:     "10.3.0.12",
		DeviceType: domain.DeviceHuawei,
		SiteCode:   "3",
		IsActive:   true,
		GroupID:    1,
		LastSeen:   time.Now(),
	}
	require.NoError(t, adapter.SaveSwitch(ctx, sw))
	require.NoError(t, adapter.SaveSwitch(ctx, domain.SwitchNode{
		ID: 2, Hostname: "7_sw_core_L3", MgmtIP: "10.7.0.1",
		DeviceType: domain.DeviceCisco, SiteCode: "7", IsActive: true, IsCore: true, GroupID: 1,
	}))

	all, err := adapter.Switches(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	site3, err := adapter.Switches(ctx, "3")
	require.NoError(t, err)
	require.Len(t, site3, 1)
	assert.Equal(t, "3_sw_access_12", site3[0].Hostname)
	assert.Equal(t, domain.DeviceHuawei, site3[0].DeviceType)
}

func TestSaveSwitchDerivesSiteCode(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	// Imports without an explicit site fall back to the hostname prefix.
	require.NoError(t, adapter.SaveSwitch(ctx, domain.SwitchNode{
		ID: 1, Hostname: "07_L2_RACK01_181", MgmtIP: "10.7.0.181", IsActive: true,
	}))
	require.NoError(t, adapter.SaveSwitch(ctx, domain.SwitchNode{
		ID: 2, Hostname: "lab-bench-sw", MgmtIP: "10.0.0.2", IsActive: true,
	}))

	site7, err := adapter.Switches(ctx, "07")
	require.NoError(t, err)
	require.Len(t, site7, 1)
	assert.Equal(t, "07_L2_RACK01_181", site7[0].Hostname)

	all, err := adapter.Switches(ctx, "")
	require.NoError(t, err)
	for _, sw := range all {
		if sw.ID == 2 {
			assert.Empty(t, sw.SiteCode, "no prefix, no site")
		}
	}
}

func TestSetSwitchActive(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, adapter.SaveSwitch(ctx, domain.SwitchNode{
		ID: 1, Hostname: "3_sw_access_12", SiteCode: "3", IsActive: true, LastPollSucceeded: true,
	}))
	require.NoError(t, adapter.SetSwitchActive(ctx, 1, false))

	got, err := adapter.Switches(ctx, "3")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsActive)
	assert.False(t, got[0].LastPollSucceeded)
}

func TestGroupRoundtrip(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, adapter.SaveGroup(ctx, domain.SwitchGroup{
		ID: 1, Name: "campus", Username: "ops", Password: "secret", SSHPort: 22,
	}))

	g, err := adapter.Group(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ops", g.Username)
	assert.Equal(t, 22, g.SSHPort)

	_, err = adapter.Group(ctx, 99)
	assert.Error(t, err)
}

func TestSaveSightingsUpsert(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	first := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, adapter.SaveSightings(ctx, []domain.MacSighting{
		{Mac: "00:18:6E:35:76:31", SwitchID: 1, Port: "GE1/0/5", VlanID: 210, LastSeen: first},
	}))

	// Re-poll of the same location must update in place, not duplicate.
	later := time.Now().Truncate(time.Second)
	require.NoError(t, adapter.SaveSightings(ctx, []domain.MacSighting{
		{Mac: "00:18:6E:35:76:31", SwitchID: 1, Port: "GE1/0/5", VlanID: 211, LastSeen: later},
	}))

	rows, err := adapter.SightingsForMac(ctx, "00:18:6E:35:76:31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 211, rows[0].VlanID)
	assert.Equal(t, first.Unix(), rows[0].FirstSeen.Unix())
	assert.Equal(t, later.Unix(), rows[0].LastSeen.Unix())
}

func TestSightingsForMacOrdering(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, adapter.SaveSightings(ctx, []domain.MacSighting{
		{Mac: "00:18:6E:35:76:31", SwitchID: 1, Port: "GE1/0/5", LastSeen: now.Add(-time.Hour)},
		{Mac: "00:18:6E:35:76:31", SwitchID: 2, Port: "GE1/0/7", LastSeen: now},
	}))

	rows, err := adapter.SightingsForMac(ctx, "00:18:6E:35:76:31")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].SwitchID, "most recent sighting first")
}

func TestMacCountOnPort(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, adapter.SaveSightings(ctx, []domain.MacSighting{
		{Mac: "00:18:6E:35:76:31", SwitchID: 1, Port: "XGE1/0/49", LastSeen: time.Now()},
		{Mac: "00:18:6E:35:76:32", SwitchID: 1, Port: "XGE1/0/49", LastSeen: time.Now()},
		{Mac: "00:18:6E:35:76:33", SwitchID: 1, Port: "GE1/0/5", LastSeen: time.Now()},
	}))

	n, err := adapter.MacCountOnPort(ctx, 1, "XGE1/0/49")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSaveLinksReplaces(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, adapter.SaveLinks(ctx, 1, []domain.LinkEdge{
		{LocalID: 1, RemoteID: 2, LocalPort: "XGE2/0/1", RemotePort: "XGE1/0/49", Protocol: domain.ProtoLLDP, LastSeen: time.Now()},
	}))
	// Switch recabled: old observation must disappear.
	require.NoError(t, adapter.SaveLinks(ctx, 1, []domain.LinkEdge{
		{LocalID: 1, RemoteID: 3, LocalPort: "XGE2/0/1", RemotePort: "XGE1/0/50", Protocol: domain.ProtoLLDP, LastSeen: time.Now()},
	}))

	links, err := adapter.Links(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 3, links[0].RemoteID)
}

func TestDiscoveryLog(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, adapter.LogDiscovery(ctx, 1, true, "poll ok"))
	require.NoError(t, adapter.LogDiscovery(ctx, 2, false, "ssh timeout"))

	entries, err := adapter.DiscoveryLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Success, "newest entry first")
}
