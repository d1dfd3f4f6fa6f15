package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

const (
	CardSuccessLog = "cardsuccess.log"
	BankSuccessLog = "payossuccess.log"
)

// ProtectedLogs are audit files that log cleanup must never delete.
var ProtectedLogs = []string{CardSuccessLog, BankSuccessLog}

// FileSuccessLog appends one JSON line per settled instrument to a per-kind file.
type FileSuccessLog struct {
	mu      sync.Mutex
	files   map[domain.InstrumentKind]*os.File
	loggers map[domain.InstrumentKind]*slog.Logger
}

func NewFileSuccessLog(dir string) (*FileSuccessLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	s := &FileSuccessLog{
		files:   make(map[domain.InstrumentKind]*os.File),
		loggers: make(map[domain.InstrumentKind]*slog.Logger),
	}
	for kind, name := range map[domain.InstrumentKind]string{
		domain.KindCard:      CardSuccessLog,
		domain.KindBankOrder: BankSuccessLog,
	} {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		s.files[kind] = f
		s.loggers[kind] = slog.New(slog.NewJSONHandler(f, nil))
	}
	return s, nil
}

func (s *FileSuccessLog) Append(in *domain.Instrument, callbackStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loggers[in.Kind]
	if !ok {
		return fmt.Errorf("no success log for kind %s", in.Kind)
	}

	attrs := []any{
		"id", in.ID,
		"ref", in.ExternalRef,
		"status", in.Status,
		"declared_amount", in.DeclaredAmount,
	}
	if in.ActualAmount != nil {
		attrs = append(attrs, "actual_amount", *in.ActualAmount)
	}
	if in.NetAmount != nil {
		attrs = append(attrs, "net_amount", *in.NetAmount)
	}
	switch in.Kind {
	case domain.KindCard:
		masked := in.Secret.Masked()
		attrs = append(attrs,
			"payer", in.PayerName,
			"card_type", in.CardType,
			"serial", masked.Serial,
			"pin", masked.Pin,
			"callback_status", callbackStatus,
		)
	case domain.KindBankOrder:
		attrs = append(attrs,
			"description", in.Description,
			"reference", in.Reference,
			"transaction_at", in.TransactionAt,
			"provider_code", callbackStatus,
		)
	}
	l.Info("settled", attrs...)
	return nil
}

func (s *FileSuccessLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for kind, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.files, kind)
		delete(s.loggers, kind)
	}
	return firstErr
}
