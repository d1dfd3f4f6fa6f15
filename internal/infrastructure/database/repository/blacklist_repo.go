package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/mappers"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultBlacklistRepository struct {
	DB *gorm.DB
}

func NewDefaultBlacklistRepository(db *gorm.DB) *DefaultBlacklistRepository {
	return &DefaultBlacklistRepository{DB: db}
}

// Add is idempotent on (serial, pin): the first reason wins.
func (r *DefaultBlacklistRepository) Add(ctx context.Context, e domain.BlacklistEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	model := models.BlacklistModel{
		Serial:    e.Serial,
		Pin:       e.Pin,
		CardType:  e.CardType,
		Reason:    e.Reason,
		CreatedAt: e.CreatedAt.UTC(),
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "serial"}, {Name: "pin"}}, DoNothing: true}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to blacklist card: %w", err)
	}
	return nil
}

func (r *DefaultBlacklistRepository) Find(ctx context.Context, secret domain.SecretFields) (*domain.BlacklistEntry, error) {
	var model models.BlacklistModel
	if err := r.DB.WithContext(ctx).
		Where("serial = ? AND pin = ?", secret.Serial, secret.Pin).
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mappers.ToDomainBlacklist(&model), nil
}

func (r *DefaultBlacklistRepository) Remove(ctx context.Context, secret domain.SecretFields) error {
	return r.DB.WithContext(ctx).
		Where("serial = ? AND pin = ?", secret.Serial, secret.Pin).
		Delete(&models.BlacklistModel{}).Error
}

func (r *DefaultBlacklistRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&models.BlacklistModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old blacklist entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}
