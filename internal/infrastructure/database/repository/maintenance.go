package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type DefaultMaintainer struct {
	DB *gorm.DB
}

func NewDefaultMaintainer(db *gorm.DB) *DefaultMaintainer {
	return &DefaultMaintainer{DB: db}
}

func (m *DefaultMaintainer) Ping(ctx context.Context) error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *DefaultMaintainer) Vacuum(ctx context.Context) error {
	return m.DB.WithContext(ctx).Exec("VACUUM").Error
}

// Optimize refreshes planner statistics. On SQLite it also rebuilds indexes and
// returns the integrity_check report.
func (m *DefaultMaintainer) Optimize(ctx context.Context) ([]string, error) {
	db := m.DB.WithContext(ctx)
	if err := db.Exec("ANALYZE").Error; err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	if db.Dialector.Name() != "sqlite" {
		return nil, nil
	}
	if err := db.Exec("REINDEX").Error; err != nil {
		return nil, fmt.Errorf("reindex: %w", err)
	}
	var report []string
	if err := db.Raw("PRAGMA integrity_check").Scan(&report).Error; err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}
	return report, nil
}
