package domain

import (
	"fmt"
	"strings"
	"time"
)

type InstrumentKind string

const (
	KindCard      InstrumentKind = "CARD"
	KindBankOrder InstrumentKind = "BANK_ORDER"
)

type InstrumentStatus string

const (
	StatusPending     InstrumentStatus = "PENDING"
	StatusSuccess     InstrumentStatus = "SUCCESS"
	StatusFailed      InstrumentStatus = "FAILED"
	StatusWrongAmount InstrumentStatus = "WRONG_AMOUNT"
	StatusCancelled   InstrumentStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s InstrumentStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusWrongAmount, StatusCancelled:
		return true
	}
	return false
}

// Settled is true for statuses that count toward accounting and the success log.
func (s InstrumentStatus) Settled() bool {
	return s == StatusSuccess || s == StatusWrongAmount
}

func ParseStatus(s string) (InstrumentStatus, bool) {
	st := InstrumentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusSuccess, StatusFailed, StatusWrongAmount, StatusCancelled:
		return st, true
	}
	return "", false
}

// SecretFields holds the card serial and pin. Never log it directly, use Masked.
type SecretFields struct {
	Serial string
	Pin    string
}

func (s SecretFields) Masked() SecretFields {
	return SecretFields{Serial: Mask(s.Serial), Pin: Mask(s.Pin)}
}

func (s SecretFields) IsZero() bool {
	return s.Serial == "" && s.Pin == ""
}

// Mask keeps the first 4 characters of v and redacts the rest.
func Mask(v string) string {
	r := []rune(v)
	if len(r) <= 4 {
		return string(r)
	}
	return string(r[:4]) + strings.Repeat("*", len(r)-4)
}

type Instrument struct {
	ID             uint64
	Kind           InstrumentKind
	ExternalRef    string
	PayerName      string
	CardType       string
	DeclaredAmount int64
	ActualAmount   *int64
	NetAmount      *int64
	Secret         SecretFields
	Status         InstrumentStatus
	Description    string
	CheckoutURL    string
	CallbackURL    string
	Reference      string
	TransactionAt  string
	RawPayload     string
	ClientIP       string
	UserAgent      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (i *Instrument) String() string {
	return fmt.Sprintf("%s#%d(%s, %s)", i.Kind, i.ID, i.ExternalRef, i.Status)
}

// Locator addresses a single instrument either by surrogate id or by (kind, externalRef).
type Locator struct {
	id   uint64
	kind InstrumentKind
	ref  string
}

func ByID(id uint64) Locator {
	return Locator{id: id}
}

func ByRef(kind InstrumentKind, ref string) Locator {
	return Locator{kind: kind, ref: ref}
}

func (l Locator) ID() (uint64, bool) {
	return l.id, l.id != 0
}

func (l Locator) Ref() (InstrumentKind, string, bool) {
	return l.kind, l.ref, l.id == 0 && l.ref != ""
}

func (l Locator) String() string {
	if l.id != 0 {
		return fmt.Sprintf("id=%d", l.id)
	}
	return fmt.Sprintf("%s/%s", l.kind, l.ref)
}

// Match carries every identifying field an inbound callback supplies.
type Match struct {
	Kind        InstrumentKind
	ExternalRef string
	CardType    string
	Secret      SecretFields
}

// Transition describes a status change and the settlement fields written with it.
type Transition struct {
	To              InstrumentStatus
	CorrectedAmount *int64
	NetAmount       *int64
	RawPayload      string
	Reference       string
	TransactionAt   string
}

type SearchFilter struct {
	ExternalRef string
	Serial      string
	Pin         string
	Status      InstrumentStatus
	Kind        InstrumentKind
	Limit       int
	Offset      int
}

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// ClampLimit applies the history default and hard cap.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

type KindStats struct {
	Kind          InstrumentKind
	Total         int64
	Success       int64
	WrongAmount   int64
	Failed        int64
	Pending       int64
	Cancelled     int64
	SuccessAmount int64
}
