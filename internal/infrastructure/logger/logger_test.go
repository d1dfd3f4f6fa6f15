package logger

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

func TestSuccessLogMasksSecrets(t *testing.T) {
	dir := t.TempDir()
	sl, err := NewFileSuccessLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer sl.Close()

	actual := int64(50000)
	in := &domain.Instrument{
		ID:             1,
		Kind:           domain.KindCard,
		ExternalRef:    "abc",
		PayerName:      "alice",
		CardType:       "Viettel",
		DeclaredAmount: 50000,
		ActualAmount:   &actual,
		Secret:         domain.SecretFields{Serial: "12345678901", Pin: "123456789012"},
		Status:         domain.StatusSuccess,
	}
	if err := sl.Append(in, "thanhcong"); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, CardSuccessLog))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "12345678901") || strings.Contains(string(raw), "123456789012") {
		t.Fatalf("secret leaked into success log: %s", raw)
	}

	var entry map[string]any
	sc := bufio.NewScanner(strings.NewReader(string(raw)))
	if !sc.Scan() {
		t.Fatal("empty success log")
	}
	if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["serial"] != "1234*******" || entry["pin"] != "1234********" {
		t.Fatalf("unexpected masking %v %v", entry["serial"], entry["pin"])
	}
	if entry["ref"] != "abc" {
		t.Fatalf("unexpected ref %v", entry["ref"])
	}
}

func TestSuccessLogAppendsPerKind(t *testing.T) {
	dir := t.TempDir()
	sl, err := NewFileSuccessLog(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := sl.Append(&domain.Instrument{Kind: domain.KindBankOrder, ExternalRef: "42", Status: domain.StatusSuccess}, "00"); err != nil {
			t.Fatal(err)
		}
	}
	sl.Close()

	raw, err := os.ReadFile(filepath.Join(dir, BankSuccessLog))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(raw), "\n"); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
	card, _ := os.ReadFile(filepath.Join(dir, CardSuccessLog))
	if len(card) != 0 {
		t.Fatalf("card log must stay empty, got %s", card)
	}
}

func TestPruneDirKeepsProtected(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-40 * 24 * time.Hour)
	for _, name := range []string{CardSuccessLog, BankSuccessLog, "app.log", "app-2024.log.gz"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "fresh.log"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := PruneDir(dir, time.Now().Add(-30*24*time.Hour), ProtectedLogs)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed files, got %d", removed)
	}
	for _, name := range []string{CardSuccessLog, BankSuccessLog, "fresh.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s must survive pruning: %v", name, err)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("warning") != slog.LevelWarn || ParseLevel("") != slog.LevelInfo {
		t.Fatal("unexpected level mapping")
	}
}
