package thesieutoc

import (
	"regexp"
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

var formats = map[string]domain.CardFormat{
	"viettel":      {Serial: regexp.MustCompile(`^\d{11,15}$`), Pin: regexp.MustCompile(`^\d{12,15}$`)},
	"mobifone":     {Serial: regexp.MustCompile(`^\d{12,15}$`), Pin: regexp.MustCompile(`^\d{12,14}$`)},
	"vinaphone":    {Serial: regexp.MustCompile(`^\d{12,14}$`), Pin: regexp.MustCompile(`^\d{12,14}$`)},
	"vietnamobile": {Serial: regexp.MustCompile(`^\d{12,15}$`), Pin: regexp.MustCompile(`^\d{12,15}$`)},
	"zing":         {Serial: regexp.MustCompile(`^\d{9,12}$`), Pin: regexp.MustCompile(`^\d{9,12}$`)},
	"gate":         {Serial: regexp.MustCompile(`^\d{10,15}$`), Pin: regexp.MustCompile(`^\d{10,15}$`)},
	"garena":       {Serial: regexp.MustCompile(`^[A-Za-z0-9]{10,20}$`), Pin: regexp.MustCompile(`^[A-Za-z0-9]{10,20}$`)},
	"vcoin":        {Serial: regexp.MustCompile(`^\d{10,15}$`), Pin: regexp.MustCompile(`^\d{10,15}$`)},
}

var CardTypes = []string{"Viettel", "Mobifone", "Vinaphone", "Vietnamobile", "Zing", "Gate", "Garena", "Vcoin"}

var CardAmounts = []int64{10000, 20000, 30000, 50000, 100000, 200000, 300000, 500000, 1000000, 2000000, 5000000}

// Format returns the serial/pin patterns for a card type, if known.
func Format(cardType string) (domain.CardFormat, bool) {
	f, ok := formats[strings.ToLower(strings.TrimSpace(cardType))]
	return f, ok
}

// CanonicalType maps a case-insensitive card type to the provider's spelling.
func CanonicalType(cardType string) (string, bool) {
	for _, t := range CardTypes {
		if strings.EqualFold(t, strings.TrimSpace(cardType)) {
			return t, true
		}
	}
	return "", false
}

func ValidAmount(amount int64) bool {
	for _, a := range CardAmounts {
		if a == amount {
			return true
		}
	}
	return false
}
