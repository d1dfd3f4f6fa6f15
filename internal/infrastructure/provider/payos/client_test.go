package payos

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

const testKey = "checksum-secret"

const webhookData = `{"orderCode":123,"amount":50000,"description":"Order 1","accountNumber":"12345678",` +
	`"reference":"TF230204212323","transactionDateTime":"2024-02-04 18:25:00","currency":"VND",` +
	`"paymentLinkId":"124c33293c43","code":"00","desc":"success","counterAccountBankId":"970422",` +
	`"counterAccountBankName":null,"counterAccountName":null,"counterAccountNumber":null,` +
	`"virtualAccountName":null,"virtualAccountNumber":null}`

func signedWebhook(t *testing.T, data string) []byte {
	t.Helper()
	canonical, err := canonicalData(json.RawMessage(data))
	if err != nil {
		t.Fatal(err)
	}
	body := `{"code":"00","desc":"success","success":true,"data":` + data + `,"signature":"` + sign(testKey, canonical) + `"}`
	return []byte(body)
}

func TestCanonicalData(t *testing.T) {
	got, err := canonicalData(json.RawMessage(`{"b":2,"a":"x","c":null,"d":[1,2],"e":{"z":1,"y":2},"f":true}`))
	if err != nil {
		t.Fatal(err)
	}
	want := `a=x&b=2&c=&d=[1,2]&e={"y":2,"z":1}&f=true`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestVerifyWebhookValid(t *testing.T) {
	c := NewClient(Options{ChecksumKey: testKey}, nil)
	data, err := c.VerifyWebhook(signedWebhook(t, webhookData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.OrderCode != 123 || data.Amount != 50000 || data.Reference != "TF230204212323" || data.Code != "00" {
		t.Fatalf("unexpected data %+v", data)
	}
	if data.CounterAccountBankID == nil || *data.CounterAccountBankID != "970422" || data.CounterAccountName != nil {
		t.Fatalf("unexpected counter account fields %+v", data)
	}
}

func TestVerifyWebhookTampered(t *testing.T) {
	c := NewClient(Options{ChecksumKey: testKey}, nil)
	body := signedWebhook(t, webhookData)
	tampered := []byte(strings.Replace(string(body), `"amount":50000`, `"amount":5000000`, 1))

	_, err := c.VerifyWebhook(tampered)
	if !errors.Is(err, domain.ErrSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}

	other := NewClient(Options{ChecksumKey: "another-key"}, nil)
	if _, err := other.VerifyWebhook(body); !errors.Is(err, domain.ErrSignature) {
		t.Fatalf("expected signature error with wrong key, got %v", err)
	}

	for _, bad := range []string{`not json`, `{"code":"00","data":null,"signature":"abc"}`, `{"code":"00","data":{"a":1}}`} {
		if _, err := c.VerifyWebhook([]byte(bad)); !errors.Is(err, domain.ErrSignature) {
			t.Fatalf("%s: expected signature error, got %v", bad, err)
		}
	}
}

func TestCreatePaymentLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/payment-requests" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-client-id") != "client" || r.Header.Get("x-api-key") != "api" {
			t.Errorf("missing credentials headers")
		}
		raw, _ := io.ReadAll(r.Body)
		var body createRequest
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Error(err)
		}
		want := sign(testKey, "amount=50000&cancelUrl=https://shop/cancel&description=Order 1&orderCode=42&returnUrl=https://shop/ok")
		if body.Signature != want {
			t.Errorf("signature %s, want %s", body.Signature, want)
		}
		if body.ExpiredAt != time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC).Unix() {
			t.Errorf("unexpected expiredAt %d", body.ExpiredAt)
		}
		w.Write([]byte(`{"code":"00","desc":"success","data":{"orderCode":42,"amount":50000,"checkoutUrl":"https://pay.payos.vn/web/abc","paymentLinkId":"abc","status":"PENDING"}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, ClientID: "client", APIKey: "api", ChecksumKey: testKey, LinkExpiry: time.Hour}, nil)
	c.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	link, err := c.CreatePaymentLink(context.Background(), domain.PaymentLinkRequest{
		OrderCode:   42,
		Amount:      50000,
		Description: "Order 1",
		ReturnURL:   "https://shop/ok",
		CancelURL:   "https://shop/cancel",
	})
	if err != nil {
		t.Fatal(err)
	}
	if link.CheckoutURL != "https://pay.payos.vn/web/abc" || link.OrderCode != 42 {
		t.Fatalf("unexpected link %+v", link)
	}
}

func TestProviderErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"231","desc":"order already exists","data":null}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL}, nil)
	_, err := c.GetPaymentInfo(context.Background(), 42)
	var up *domain.UpstreamError
	if !errors.As(err, &up) || up.Code != "231" || up.Op != "get_info" {
		t.Fatalf("unexpected error %v", err)
	}
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatal("provider errors must unwrap to ErrUpstream")
	}
}

func TestGetPaymentInfoAndOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/payment-requests/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"code":"00","desc":"success","data":{"id":"abc","orderCode":42,"amount":50000,"amountPaid":50000,"status":"PAID","transactions":[{"reference":"FT1","amount":50000,"transactionDateTime":"2024-01-01 10:00:00"}]}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL}, nil)
	info, err := c.GetPaymentInfo(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	paid, ok := InfoOutcome(info).(domain.BankPaid)
	if !ok || paid.Amount != 50000 || paid.Reference != "FT1" {
		t.Fatalf("unexpected outcome %+v", InfoOutcome(info))
	}

	cases := map[string]domain.InstrumentStatus{
		"CANCELLED":  domain.StatusCancelled,
		"EXPIRED":    domain.StatusCancelled,
		"PENDING":    domain.StatusPending,
		"PROCESSING": domain.StatusPending,
		"SOMETHING":  domain.StatusPending,
	}
	for status, want := range cases {
		if got := InfoOutcome(&domain.PaymentInfo{Status: status}).Status(); got != want {
			t.Fatalf("%s: got %s, want %s", status, got, want)
		}
	}
}

func TestWebhookOutcome(t *testing.T) {
	cases := map[string]domain.InstrumentStatus{
		"00": domain.StatusSuccess,
		"01": domain.StatusPending,
		"03": domain.StatusCancelled,
		"02": domain.StatusFailed,
		"99": domain.StatusFailed,
	}
	for code, want := range cases {
		if got := WebhookOutcome(&domain.WebhookData{Code: code}).Status(); got != want {
			t.Fatalf("code %s: got %s, want %s", code, got, want)
		}
	}
}
