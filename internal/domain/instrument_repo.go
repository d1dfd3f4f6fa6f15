package domain

import (
	"context"
	"time"
)

type InstrumentRepository interface {
	Create(ctx context.Context, in *Instrument) error
	Get(ctx context.Context, loc Locator) (*Instrument, error)
	FindPendingByMatch(ctx context.Context, m Match) (*Instrument, error)
	Transition(ctx context.Context, loc Locator, t Transition) (*Instrument, error)
	Search(ctx context.Context, f SearchFilter) ([]*Instrument, error)
	History(ctx context.Context, limit int) ([]*Instrument, error)
	ListPending(ctx context.Context, kind InstrumentKind, createdAfter, createdBefore time.Time) ([]*Instrument, error)
	LatestBySecret(ctx context.Context, secret SecretFields, since time.Time) (*Instrument, error)
	DeleteSettledBefore(ctx context.Context, before time.Time) (int64, error)
	Stats(ctx context.Context, from, to time.Time) ([]KindStats, error)
}

type BlacklistEntry struct {
	Serial    string
	Pin       string
	CardType  string
	Reason    string
	CreatedAt time.Time
}

type BlacklistRepository interface {
	Add(ctx context.Context, e BlacklistEntry) error
	Find(ctx context.Context, secret SecretFields) (*BlacklistEntry, error)
	Remove(ctx context.Context, secret SecretFields) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Maintainer runs storage housekeeping.
type Maintainer interface {
	Ping(ctx context.Context) error
	Vacuum(ctx context.Context) error
	Optimize(ctx context.Context) ([]string, error)
}
