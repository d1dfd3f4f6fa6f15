package thesieutoc

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	SubmitAccepted      = "00"
	SubmitNoAPIKey      = "54"
	SubmitInvalidAPI    = "1"
	SubmitAccountLocked = "3"
	SubmitMaintenance   = "-1089"
	SubmitCardUsed      = "2"
	SubmitNoSerial      = "56"
	SubmitNoPin         = "55"
	SubmitNoAmount      = "52"
	SubmitUnknown       = "47"
)

const (
	CheckSuccess     = "00"
	CheckWrongAmount = "99"
	CheckFailed      = "-10"
	CheckPending     = "-9"
	CheckError       = "2"
)

const (
	CallbackSuccess     = "thanhcong"
	CallbackWrongAmount = "saimenhgia"
	CallbackFailed      = "thatbai"
)

var submitMessages = map[string]string{
	SubmitNoAPIKey:      "API key is missing",
	SubmitInvalidAPI:    "invalid API credentials",
	SubmitAccountLocked: "account is locked",
	SubmitMaintenance:   "card type is under maintenance",
	SubmitCardUsed:      "card has already been used",
	SubmitNoSerial:      "serial is missing",
	SubmitNoPin:         "pin is missing",
	SubmitNoAmount:      "amount is missing",
	SubmitUnknown:       "unknown error",
}

var checkMessages = map[string]string{
	CheckSuccess:     "card accepted",
	CheckWrongAmount: "card has a different face value",
	CheckFailed:      "card rejected",
	CheckPending:     "card is awaiting review",
	CheckError:       "status could not be checked",
}

// errorMessages are the card error codes the provider reports in msg/title.
var errorMessages = map[string]string{
	"-1":  "invalid amount",
	"-2":  "wrong pin or serial",
	"1":   "carrier error",
	"2":   "wrong amount",
	"3":   "card already used",
	"4":   "card locked",
	"100": "system error",
}

func SubmitMessage(code string) string {
	if msg, ok := submitMessages[code]; ok {
		return msg
	}
	return "error: " + code
}

func CheckMessage(code string) string {
	if msg, ok := checkMessages[code]; ok {
		return msg
	}
	return "status: " + code
}

func ErrorMessage(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "error: " + code
}

// NewTransactionRef returns an md5 hex correlation code built from the clock and random bytes.
func NewTransactionRef(now time.Time) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	sum := md5.Sum([]byte(strconv.FormatInt(now.UnixNano(), 10) + hex.EncodeToString(buf)))
	return hex.EncodeToString(sum[:])
}
