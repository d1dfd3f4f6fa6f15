package models

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

type InstrumentModel struct {
	ID             uint64                  `gorm:"primaryKey;autoIncrement"`
	Kind           domain.InstrumentKind   `gorm:"not null;uniqueIndex:idx_instruments_kind_ref,priority:1"`
	ExternalRef    string                  `gorm:"not null;uniqueIndex:idx_instruments_kind_ref,priority:2"`
	PayerName      string
	CardType       string
	DeclaredAmount int64                   `gorm:"not null"`
	ActualAmount   *int64
	NetAmount      *int64
	Serial         string                  `gorm:"index:idx_instruments_secret"`
	Pin            string                  `gorm:"index:idx_instruments_secret"`
	Status         domain.InstrumentStatus `gorm:"not null;index:idx_instruments_status_created"`
	Description    string
	CheckoutURL    string
	CallbackURL    string
	Reference      string
	TransactionAt  string
	RawPayload     string
	ClientIP       string
	UserAgent      string
	CreatedAt      time.Time               `gorm:"index:idx_instruments_status_created"`
	UpdatedAt      time.Time
}

func (InstrumentModel) TableName() string { return "instruments" }

type BlacklistModel struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Serial    string `gorm:"not null;uniqueIndex:idx_blacklist_secret"`
	Pin       string `gorm:"not null;uniqueIndex:idx_blacklist_secret"`
	CardType  string
	Reason    string
	CreatedAt time.Time `gorm:"index"`
}

func (BlacklistModel) TableName() string { return "card_blacklist" }

type KindStatsRow struct {
	Kind          domain.InstrumentKind
	Total         int64
	Success       int64
	WrongAmount   int64
	Failed        int64
	Pending       int64
	Cancelled     int64
	SuccessAmount int64
}
