package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/mappers"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultInstrumentRepository struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewDefaultInstrumentRepository(db *gorm.DB) *DefaultInstrumentRepository {
	return &DefaultInstrumentRepository{DB: db, now: time.Now}
}

// WithClock replaces the time source used for created_at/updated_at.
func (r *DefaultInstrumentRepository) WithClock(now func() time.Time) *DefaultInstrumentRepository {
	r.now = now
	return r
}

func (r *DefaultInstrumentRepository) Create(ctx context.Context, in *domain.Instrument) error {
	ts := r.now().UTC()
	in.Status = domain.StatusPending
	if in.CreatedAt.IsZero() {
		in.CreatedAt = ts
	}
	in.CreatedAt = in.CreatedAt.UTC()
	in.UpdatedAt = ts

	model := mappers.ToGORMInstrument(in)
	model.ID = 0
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("instrument %s/%s: %w", in.Kind, in.ExternalRef, domain.ErrDuplicate)
		}
		return fmt.Errorf("failed to create instrument: %w", err)
	}
	in.ID = model.ID
	in.CreatedAt = in.CreatedAt.In(time.Local)
	in.UpdatedAt = in.UpdatedAt.In(time.Local)
	return nil
}

func (r *DefaultInstrumentRepository) Get(ctx context.Context, loc domain.Locator) (*domain.Instrument, error) {
	var model models.InstrumentModel
	if err := locate(r.DB.WithContext(ctx), loc).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("instrument %s: %w", loc, domain.ErrNotFound)
		}
		return nil, err
	}
	return mappers.ToDomainInstrument(&model), nil
}

func (r *DefaultInstrumentRepository) FindPendingByMatch(ctx context.Context, m domain.Match) (*domain.Instrument, error) {
	q := r.DB.WithContext(ctx).
		Where("kind = ? AND external_ref = ? AND status = ?", m.Kind, m.ExternalRef, domain.StatusPending)
	if m.Kind == domain.KindCard {
		q = q.Where("serial = ? AND pin = ?", m.Secret.Serial, m.Secret.Pin)
	}

	var model models.InstrumentModel
	if err := q.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("pending instrument %s/%s: %w", m.Kind, m.ExternalRef, domain.ErrNotFound)
		}
		return nil, err
	}
	if m.CardType != "" && !strings.EqualFold(model.CardType, m.CardType) {
		return nil, fmt.Errorf("pending instrument %s/%s card type mismatch: %w", m.Kind, m.ExternalRef, domain.ErrNotFound)
	}
	return mappers.ToDomainInstrument(&model), nil
}

// Transition moves a PENDING instrument to a terminal status inside one transaction.
// The conditional update on status keeps it atomic even without row locks.
func (r *DefaultInstrumentRepository) Transition(ctx context.Context, loc domain.Locator, t domain.Transition) (*domain.Instrument, error) {
	if !t.To.IsTerminal() {
		return nil, &domain.InvalidTransitionError{Locator: loc, From: domain.StatusPending, To: t.To}
	}

	var updated models.InstrumentModel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := locate(tx, loc)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var current models.InstrumentModel
		if err := q.Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("instrument %s: %w", loc, domain.ErrNotFound)
			}
			return err
		}
		if current.Status.IsTerminal() {
			return &domain.InvalidTransitionError{Locator: loc, From: current.Status, To: t.To}
		}

		updates := map[string]interface{}{
			"status":     t.To,
			"updated_at": r.now().UTC(),
		}
		if t.CorrectedAmount != nil {
			updates["actual_amount"] = *t.CorrectedAmount
		}
		if t.NetAmount != nil {
			updates["net_amount"] = *t.NetAmount
		}
		if t.RawPayload != "" {
			updates["raw_payload"] = t.RawPayload
		}
		if t.Reference != "" {
			updates["reference"] = t.Reference
		}
		if t.TransactionAt != "" {
			updates["transaction_at"] = t.TransactionAt
		}

		res := tx.Model(&models.InstrumentModel{}).
			Where("id = ? AND status = ?", current.ID, domain.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update instrument status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var latest models.InstrumentModel
			if err := tx.Take(&latest, current.ID).Error; err != nil {
				return err
			}
			return &domain.InvalidTransitionError{Locator: loc, From: latest.Status, To: t.To}
		}

		return tx.Take(&updated, current.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainInstrument(&updated), nil
}

func (r *DefaultInstrumentRepository) Search(ctx context.Context, f domain.SearchFilter) ([]*domain.Instrument, error) {
	q := r.DB.WithContext(ctx).Model(&models.InstrumentModel{})
	if f.ExternalRef != "" {
		q = q.Where(`external_ref LIKE ? ESCAPE '\'`, "%"+escapeLike(f.ExternalRef)+"%")
	}
	if f.Serial != "" {
		q = q.Where("serial = ?", f.Serial)
	}
	if f.Pin != "" {
		q = q.Where("pin = ?", f.Pin)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var list []models.InstrumentModel
	if err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(domain.ClampLimit(f.Limit)).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to search instruments: %w", err)
	}
	return mappers.ToDomainInstruments(list), nil
}

func (r *DefaultInstrumentRepository) History(ctx context.Context, limit int) ([]*domain.Instrument, error) {
	var list []models.InstrumentModel
	if err := r.DB.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(domain.ClampLimit(limit)).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return mappers.ToDomainInstruments(list), nil
}

// ListPending returns PENDING rows of kind created in (createdAfter, createdBefore]. Zero bounds are open.
func (r *DefaultInstrumentRepository) ListPending(ctx context.Context, kind domain.InstrumentKind, createdAfter, createdBefore time.Time) ([]*domain.Instrument, error) {
	q := r.DB.WithContext(ctx).Where("status = ?", domain.StatusPending)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if !createdAfter.IsZero() {
		q = q.Where("created_at > ?", createdAfter.UTC())
	}
	if !createdBefore.IsZero() {
		q = q.Where("created_at <= ?", createdBefore.UTC())
	}

	var list []models.InstrumentModel
	if err := q.Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending instruments: %w", err)
	}
	return mappers.ToDomainInstruments(list), nil
}

func (r *DefaultInstrumentRepository) LatestBySecret(ctx context.Context, secret domain.SecretFields, since time.Time) (*domain.Instrument, error) {
	var model models.InstrumentModel
	err := r.DB.WithContext(ctx).
		Where("kind = ? AND serial = ? AND pin = ? AND created_at >= ?", domain.KindCard, secret.Serial, secret.Pin, since.UTC()).
		Order("created_at DESC").Order("id DESC").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mappers.ToDomainInstrument(&model), nil
}

// DeleteSettledBefore removes terminal rows older than before. PENDING rows are never deleted.
func (r *DefaultInstrumentRepository) DeleteSettledBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("status <> ? AND created_at < ?", domain.StatusPending, before.UTC()).
		Delete(&models.InstrumentModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old instruments: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *DefaultInstrumentRepository) Stats(ctx context.Context, from, to time.Time) ([]domain.KindStats, error) {
	var rows []models.KindStatsRow
	err := r.DB.WithContext(ctx).Model(&models.InstrumentModel{}).
		Select(`kind,
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'SUCCESS' THEN 1 ELSE 0 END) AS success,
			SUM(CASE WHEN status = 'WRONG_AMOUNT' THEN 1 ELSE 0 END) AS wrong_amount,
			SUM(CASE WHEN status = 'FAILED' THEN 1 ELSE 0 END) AS failed,
			SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END) AS pending,
			SUM(CASE WHEN status = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled,
			COALESCE(SUM(CASE WHEN status IN ('SUCCESS', 'WRONG_AMOUNT') THEN COALESCE(actual_amount, declared_amount) ELSE 0 END), 0) AS success_amount`).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Group("kind").
		Order("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	out := make([]domain.KindStats, len(rows))
	for i, row := range rows {
		out[i] = mappers.ToDomainStats(row)
	}
	return out, nil
}

func locate(db *gorm.DB, loc domain.Locator) *gorm.DB {
	if id, ok := loc.ID(); ok {
		return db.Where("id = ?", id)
	}
	kind, ref, _ := loc.Ref()
	q := db.Where("external_ref = ?", ref)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	return q.Order("created_at DESC")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
