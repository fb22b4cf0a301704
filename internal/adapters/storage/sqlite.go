package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

// SQLiteAdapter implements ports.Inventory using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// SwitchModel is the GORM model for managed switches.
type SwitchModel struct {
	ID                int    `gorm:"primaryKey"`
	Hostname          string `gorm:"uniqueIndex"`
	MgmtIP            string `gorm:"index"`
	DeviceType        string
	SiteCode          string `gorm:"index"`
	IsActive          bool
	IsCore            bool
	GroupID           int
	LastSeen          time.Time
	LastPollSucceeded bool
}

// SwitchGroupModel holds shared CLI credentials for a set of switches.
type SwitchGroupModel struct {
	ID       int `gorm:"primaryKey"`
	Name     string
	Username string
	Password string
	SSHPort  int
}

// SightingModel is one observed (mac, switch, port) row from a forwarding
// table. The unique index makes re-polling an upsert instead of a pile-up.
type SightingModel struct {
	ID        uint   `gorm:"primaryKey"`
	Mac       string `gorm:"index;uniqueIndex:idx_sighting_loc"`
	SwitchID  int    `gorm:"uniqueIndex:idx_sighting_loc"`
	Port      string `gorm:"uniqueIndex:idx_sighting_loc"`
	VlanID    int
	IsUplink  bool
	FirstSeen time.Time
	LastSeen  time.Time
}

// LinkModel is one directed LLDP/CDP observation between two switches.
type LinkModel struct {
	ID         uint   `gorm:"primaryKey"`
	LocalID    int    `gorm:"index;uniqueIndex:idx_link_pair"`
	RemoteID   int    `gorm:"uniqueIndex:idx_link_pair"`
	LocalPort  string `gorm:"uniqueIndex:idx_link_pair"`
	RemotePort string
	Protocol   string
	Confidence string
	LastSeen   time.Time
}

// DiscoveryLogModel records per-switch poll outcomes for troubleshooting.
type DiscoveryLogModel struct {
	ID       uint `gorm:"primaryKey"`
	SwitchID int  `gorm:"index"`
	Success  bool
	Detail   string
	At       time.Time `gorm:"index"`
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&SwitchModel{}, &SwitchGroupModel{}, &SightingModel{},
		&LinkModel{}, &DiscoveryLogModel{},
	); err != nil {
		return nil, err
	}

	// Create Indices for Performance
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sightings_last_seen ON sighting_models(last_seen)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_switches_site ON switch_models(site_code, is_active)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_discovery_at ON discovery_log_models(at)")

	return &SQLiteAdapter{db: db}, nil
}

func (a *SQLiteAdapter) Switches(ctx context.Context, site string) ([]domain.SwitchNode, error) {
	query := a.db.WithContext(ctx)
	if site != "" {
		query = query.Where("site_code = ?", site)
	}
	var models []SwitchModel
	if err := query.Order("hostname").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.SwitchNode, len(models))
	for i, m := range models {
		out[i] = switchToDomain(m)
	}
	return out, nil
}

func (a *SQLiteAdapter) Group(ctx context.Context, id int) (domain.SwitchGroup, error) {
	var m SwitchGroupModel
	if err := a.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SwitchGroup{}, fmt.Errorf("switch group %d not found", id)
		}
		return domain.SwitchGroup{}, err
	}
	return groupToDomain(m), nil
}

// SaveGroup upserts a credential group.
func (a *SQLiteAdapter) SaveGroup(ctx context.Context, g domain.SwitchGroup) error {
	m := groupToModel(g)
	return a.db.WithContext(ctx).Save(&m).Error
}

func (a *SQLiteAdapter) SaveSwitch(ctx context.Context, sw domain.SwitchNode) error {
	if sw.SiteCode == "" {
		sw.SiteCode = domain.ExtractSiteCode(sw.Hostname)
	}
	m := switchToModel(sw)
	return a.db.WithContext(ctx).Save(&m).Error
}

func (a *SQLiteAdapter) SetSwitchActive(ctx context.Context, id int, active bool) error {
	return a.db.WithContext(ctx).Model(&SwitchModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "last_poll_succeeded": active}).Error
}

// SaveSightings upserts a poll's sightings in one transaction. FirstSeen
// survives the upsert; everything else reflects the latest poll.
func (a *SQLiteAdapter) SaveSightings(ctx context.Context, rows []domain.MacSighting) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]SightingModel, len(rows))
	for i, s := range rows {
		models[i] = sightingToModel(s)
	}
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "mac"}, {Name: "switch_id"}, {Name: "port"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"vlan_id", "is_uplink", "last_seen",
			}),
		}).CreateInBatches(models, 200).Error
	})
}

func (a *SQLiteAdapter) SightingsForMac(ctx context.Context, mac string) ([]domain.MacSighting, error) {
	var models []SightingModel
	if err := a.db.WithContext(ctx).
		Where("mac = ?", mac).
		Order("last_seen DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.MacSighting, len(models))
	for i, m := range models {
		out[i] = sightingToDomain(m)
	}
	return out, nil
}

func (a *SQLiteAdapter) MacCountOnPort(ctx context.Context, switchID int, port string) (int, error) {
	var n int64
	err := a.db.WithContext(ctx).Model(&SightingModel{}).
		Where("switch_id = ? AND port = ?", switchID, port).
		Count(&n).Error
	return int(n), err
}

// SaveLinks replaces the stored link observations originating at one switch.
// Replace-not-merge keeps contradicted cabling from lingering after a move.
func (a *SQLiteAdapter) SaveLinks(ctx context.Context, switchID int, links []domain.LinkEdge) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_id = ?", switchID).Delete(&LinkModel{}).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		models := make([]LinkModel, len(links))
		for i, l := range links {
			models[i] = linkToModel(l)
		}
		return tx.CreateInBatches(models, 200).Error
	})
}

func (a *SQLiteAdapter) Links(ctx context.Context) ([]domain.LinkEdge, error) {
	var models []LinkModel
	if err := a.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.LinkEdge, len(models))
	for i, m := range models {
		out[i] = linkToDomain(m)
	}
	return out, nil
}

func (a *SQLiteAdapter) LogDiscovery(ctx context.Context, switchID int, ok bool, detail string) error {
	return a.db.WithContext(ctx).Create(&DiscoveryLogModel{
		SwitchID: switchID,
		Success:  ok,
		Detail:   detail,
		At:       time.Now(),
	}).Error
}

// DiscoveryLog returns the most recent poll outcomes, newest first.
func (a *SQLiteAdapter) DiscoveryLog(ctx context.Context, limit int) ([]domain.DiscoveryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []DiscoveryLogModel
	if err := a.db.WithContext(ctx).Order("at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DiscoveryEntry, len(models))
	for i, m := range models {
		out[i] = domain.DiscoveryEntry{
			SwitchID: m.SwitchID,
			Success:  m.Success,
			Detail:   m.Detail,
			At:       m.At,
		}
	}
	return out, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
