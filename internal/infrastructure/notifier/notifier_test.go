package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

func TestSend(t *testing.T) {
	var got CallbackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	payload, _ := json.Marshal(NewCallbackPayload(&domain.Instrument{
		ID:          3,
		Kind:        domain.KindCard,
		ExternalRef: "ref-3",
		Status:      domain.StatusSuccess,
		Secret:      domain.SecretFields{Serial: "12345678901", Pin: "123456789012"},
	}))

	if err := NewHTTPSender(time.Second).Send(context.Background(), srv.URL, payload); err != nil {
		t.Fatal(err)
	}
	if got.ExternalRef != "ref-3" || got.Serial != "1234*******" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewHTTPSender(time.Second).Send(context.Background(), srv.URL, []byte(`{}`)); err == nil {
		t.Fatal("expected error for 502")
	}
}
