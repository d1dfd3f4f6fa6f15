package thesieutoc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

func TestSubmitAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chargingws/v2" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		if r.PostForm.Get("APIkey") != "key" || r.PostForm.Get("mathe") != "123456789012" ||
			r.PostForm.Get("seri") != "12345678901" || r.PostForm.Get("menhgia") != "50000" ||
			r.PostForm.Get("type") != "Viettel" || r.PostForm.Get("content") != "ref-1" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		w.Write([]byte(`{"status":"00","title":"ok","msg":"queued","transaction_id":"tx-9","amount":"50000"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", time.Second, nil)
	res, err := c.Submit(context.Background(), domain.CardSubmission{
		CardType:    "Viettel",
		Secret:      domain.SecretFields{Serial: "12345678901", Pin: "123456789012"},
		Amount:      50000,
		ExternalRef: "ref-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Code != SubmitAccepted || res.TransactionID != "tx-9" || res.Amount != 50000 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"2","msg":""}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", time.Second, nil)
	_, err := c.Submit(context.Background(), domain.CardSubmission{CardType: "Viettel", Amount: 10000, ExternalRef: "r"})
	var up *domain.UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if up.Code != SubmitCardUsed || up.Message != SubmitMessage(SubmitCardUsed) {
		t.Fatalf("unexpected upstream error %+v", up)
	}
}

func TestSubmitTimeoutIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 50*time.Millisecond, nil)
	_, err := c.Submit(context.Background(), domain.CardSubmission{CardType: "Viettel", Amount: 10000, ExternalRef: "r"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCheckStatusOutcomes(t *testing.T) {
	cases := []struct {
		body string
		want domain.InstrumentStatus
	}{
		{`{"status":"00","amount":50000}`, domain.StatusSuccess},
		{`{"status":"99","amount":"20000"}`, domain.StatusWrongAmount},
		{`{"status":"-10","msg":"bad card"}`, domain.StatusFailed},
		{`{"status":"-9"}`, domain.StatusPending},
		{`{"status":"2"}`, domain.StatusPending},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chargingws/status_card" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(tc.body))
		}))
		c := NewClient(srv.URL, "key", time.Second, nil)
		st, err := c.CheckStatus(context.Background(), "ref")
		srv.Close()
		if err != nil {
			t.Fatalf("%s: %v", tc.body, err)
		}
		if st.Outcome.Status() != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.body, st.Outcome.Status(), tc.want)
		}
		if wa, ok := st.Outcome.(domain.CardWrongAmount); ok && wa.Actual != 20000 {
			t.Fatalf("wrong amount not decoded: %+v", wa)
		}
	}
}

type recordingObserver struct {
	ops []string
}

func (o *recordingObserver) ObserveProviderCall(provider, op string, d time.Duration, err error) {
	o.ops = append(o.ops, provider+"/"+op)
}

func TestDiscount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/topup/discount/shop1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"card_type":"Viettel","discount":{"10000":"12"}}]`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := NewClient(srv.URL, "key", time.Second, obs)
	raw, err := c.Discount(context.Background(), "shop1")
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) == 0 || raw[0] != '[' {
		t.Fatalf("unexpected discount body %s", raw)
	}
	if len(obs.ops) != 1 || obs.ops[0] != "thesieutoc/discount" {
		t.Fatalf("call not observed: %v", obs.ops)
	}
}

func TestCallbackOutcome(t *testing.T) {
	base := Callback{Serial: "12345678901", Pin: "123456789012", CardType: "Viettel", Amount: "50000", RealAmount: "44000", Content: "ref"}

	ok := base
	ok.Status = CallbackSuccess
	out := ok.Outcome(50000)
	s, isSuccess := out.(domain.CardSuccess)
	if !isSuccess || s.Amount != 50000 || s.NetAmount == nil || *s.NetAmount != 44000 {
		t.Fatalf("unexpected success outcome %+v", out)
	}

	wrong := base
	wrong.Status = CallbackWrongAmount
	wrong.Amount = "20000"
	wa, isWrong := wrong.Outcome(50000).(domain.CardWrongAmount)
	if !isWrong || wa.Actual != 20000 || wa.Declared != 50000 {
		t.Fatalf("unexpected wrong-amount outcome %+v", wa)
	}

	for _, status := range []string{CallbackFailed, "something-new"} {
		other := base
		other.Status = status
		if got := other.Outcome(50000).Status(); got != domain.StatusFailed {
			t.Fatalf("status %q: expected FAILED, got %s", status, got)
		}
	}
}

func TestFormatsAndRef(t *testing.T) {
	f, ok := Format("viettel")
	if !ok {
		t.Fatal("viettel format missing")
	}
	if !f.Serial.MatchString("12345678901") || f.Serial.MatchString("1234567890") {
		t.Fatal("viettel serial range wrong")
	}
	if !f.Pin.MatchString("123456789012") || f.Pin.MatchString("12345678901") {
		t.Fatal("viettel pin range wrong")
	}
	if z, _ := Format("Zing"); !z.Serial.MatchString("123456789") {
		t.Fatal("zing serial must accept 9 digits")
	}
	if _, ok := Format("unknown"); ok {
		t.Fatal("unknown card type must have no format")
	}
	if name, ok := CanonicalType("VINAPHONE"); !ok || name != "Vinaphone" {
		t.Fatalf("unexpected canonical type %s", name)
	}
	if !ValidAmount(50000) || ValidAmount(15000) {
		t.Fatal("unexpected amount validation")
	}

	now := time.Now()
	a, b := NewTransactionRef(now), NewTransactionRef(now)
	if len(a) != 32 || a == b {
		t.Fatalf("refs must be 32-char hex and distinct: %s %s", a, b)
	}
}
