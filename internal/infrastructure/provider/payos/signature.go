package payos

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

func sign(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// requestSignature signs the fixed field set of a payment-link request.
func requestSignature(key string, orderCode, amount int64, description, returnURL, cancelURL string) string {
	data := "amount=" + strconv.FormatInt(amount, 10) +
		"&cancelUrl=" + cancelURL +
		"&description=" + description +
		"&orderCode=" + strconv.FormatInt(orderCode, 10) +
		"&returnUrl=" + returnURL
	return sign(key, data)
}

// canonicalData renders a JSON object as k=v pairs sorted by key and joined with &.
// Null becomes an empty string and nested values are JSON encoded.
func canonicalData(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return "", fmt.Errorf("failed to decode data: %w", err)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := canonicalValue(obj[k])
		if err != nil {
			return "", err
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "&"), nil
}

func canonicalValue(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		if t == "null" || t == "undefined" {
			return "", nil
		}
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("failed to encode nested value: %w", err)
		}
		return string(b), nil
	}
}

// verifyData checks signature against the canonical form of data.
func verifyData(key string, data json.RawMessage, signature string) (bool, error) {
	canonical, err := canonicalData(data)
	if err != nil {
		return false, err
	}
	expected := sign(key, canonical)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))), nil
}
