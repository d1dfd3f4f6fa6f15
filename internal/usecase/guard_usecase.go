package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

var genericSecret = regexp.MustCompile(`^[A-Za-z0-9]{6,}$`)

type GuardResult struct {
	OK           bool       `json:"ok"`
	Errors       []string   `json:"errors,omitempty"`
	Warnings     []string   `json:"warnings,omitempty"`
	Blacklisted  bool       `json:"blacklisted"`
	DuplicateRef string     `json:"duplicateRef,omitempty"`
	DuplicateAt  *time.Time `json:"duplicateAt,omitempty"`
}

// Err folds hard failures into one error: ErrBlacklisted wins over format errors.
func (r *GuardResult) Err() error {
	if r.OK {
		return nil
	}
	if r.Blacklisted {
		return fmt.Errorf("%s: %w", r.Errors[len(r.Errors)-1], domain.ErrBlacklisted)
	}
	verr := &domain.ValidationError{}
	for i, e := range r.Errors {
		verr.Add(fmt.Sprintf("card.%d", i), e)
	}
	return verr
}

type GuardUsecase interface {
	Validate(ctx context.Context, cardType string, secret domain.SecretFields, duplicateWindowHours int) (*GuardResult, error)
	Blacklist(ctx context.Context, cardType string, secret domain.SecretFields, reason string) error
	Unblacklist(ctx context.Context, secret domain.SecretFields) error
}

type DefaultGuardUsecase struct {
	instrumentRepo domain.InstrumentRepository
	blacklistRepo  domain.BlacklistRepository
	formats        func(cardType string) (domain.CardFormat, bool)
	now            func() time.Time
}

// NewDefaultGuardUsecase builds the guard. formats may be nil, then only the generic rule applies.
func NewDefaultGuardUsecase(
	instrumentRepo domain.InstrumentRepository,
	blacklistRepo domain.BlacklistRepository,
	formats func(cardType string) (domain.CardFormat, bool),
) *DefaultGuardUsecase {
	return &DefaultGuardUsecase{
		instrumentRepo: instrumentRepo,
		blacklistRepo:  blacklistRepo,
		formats:        formats,
		now:            time.Now,
	}
}

// Validate checks format, blacklist and recent duplicates. It never writes.
func (uc *DefaultGuardUsecase) Validate(ctx context.Context, cardType string, secret domain.SecretFields, duplicateWindowHours int) (*GuardResult, error) {
	res := &GuardResult{}
	res.Errors = append(res.Errors, uc.formatErrors(cardType, secret)...)

	entry, err := uc.blacklistRepo.Find(ctx, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if entry != nil {
		reason := entry.Reason
		if reason == "" {
			reason = "used"
		}
		res.Blacklisted = true
		res.Errors = append(res.Errors, "card is blacklisted: "+reason)
	}

	if duplicateWindowHours <= 0 {
		duplicateWindowHours = 24
	}
	since := uc.now().Add(-time.Duration(duplicateWindowHours) * time.Hour)
	prior, err := uc.instrumentRepo.LatestBySecret(ctx, secret, since)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicates: %w", err)
	}
	if prior != nil {
		at := prior.CreatedAt
		res.DuplicateRef = prior.ExternalRef
		res.DuplicateAt = &at
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"card was already submitted at %s, transaction %s",
			at.Format(time.RFC3339), prior.ExternalRef,
		))
	}

	res.OK = len(res.Errors) == 0
	return res, nil
}

func (uc *DefaultGuardUsecase) formatErrors(cardType string, secret domain.SecretFields) []string {
	var errs []string
	if uc.formats != nil {
		if f, ok := uc.formats(cardType); ok {
			if !f.Serial.MatchString(secret.Serial) {
				errs = append(errs, fmt.Sprintf("invalid serial format for %s", cardType))
			}
			if !f.Pin.MatchString(secret.Pin) {
				errs = append(errs, fmt.Sprintf("invalid pin format for %s", cardType))
			}
			return errs
		}
	}
	if !genericSecret.MatchString(secret.Serial) {
		errs = append(errs, "serial must be at least 6 letters or digits")
	}
	if !genericSecret.MatchString(secret.Pin) {
		errs = append(errs, "pin must be at least 6 letters or digits")
	}
	return errs
}

// Blacklist is called only after a provider accepted the card.
func (uc *DefaultGuardUsecase) Blacklist(ctx context.Context, cardType string, secret domain.SecretFields, reason string) error {
	return uc.blacklistRepo.Add(ctx, domain.BlacklistEntry{
		Serial:    secret.Serial,
		Pin:       secret.Pin,
		CardType:  cardType,
		Reason:    reason,
		CreatedAt: uc.now(),
	})
}

func (uc *DefaultGuardUsecase) Unblacklist(ctx context.Context, secret domain.SecretFields) error {
	return uc.blacklistRepo.Remove(ctx, secret)
}
