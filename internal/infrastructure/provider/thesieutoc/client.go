package thesieutoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

const providerName = "thesieutoc"

// Observer receives the duration and result of every upstream call.
type Observer interface {
	ObserveProviderCall(provider, op string, d time.Duration, err error)
}

type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	observer Observer
}

func NewClient(baseURL, apiKey string, timeout time.Duration, observer Observer) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		observer: observer,
	}
}

// flexInt accepts both JSON numbers and quoted numbers.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

// flexString accepts a JSON string or a bare number and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

type submitResponse struct {
	Status        flexString `json:"status"`
	TransactionID string     `json:"transaction_id"`
	Amount        flexInt    `json:"amount"`
	Title         string     `json:"title"`
	Msg           string     `json:"msg"`
}

type statusResponse struct {
	Status flexString `json:"status"`
	Amount flexInt    `json:"amount"`
	Msg    string     `json:"msg"`
}

// Submit sends a card for charging. A non-accepted status is returned as an UpstreamError
// carrying the provider code and a readable message.
func (c *Client) Submit(ctx context.Context, s domain.CardSubmission) (*domain.CardSubmitResult, error) {
	form := url.Values{
		"APIkey":  {c.apiKey},
		"mathe":   {s.Secret.Pin},
		"seri":    {s.Secret.Serial},
		"type":    {s.CardType},
		"menhgia": {strconv.FormatInt(s.Amount, 10)},
		"content": {s.ExternalRef},
	}

	var resp submitResponse
	if err := c.postForm(ctx, "submit", "/chargingws/v2", form, &resp); err != nil {
		return nil, err
	}

	res := &domain.CardSubmitResult{
		Code:          string(resp.Status),
		Title:         resp.Title,
		Message:       resp.Msg,
		TransactionID: resp.TransactionID,
		Amount:        int64(resp.Amount),
	}
	if res.Code != SubmitAccepted {
		msg := resp.Msg
		if msg == "" {
			msg = SubmitMessage(res.Code)
		}
		return res, &domain.UpstreamError{Provider: providerName, Op: "submit", Code: res.Code, Message: msg}
	}
	return res, nil
}

func (c *Client) CheckStatus(ctx context.Context, ref string) (*domain.CardStatus, error) {
	form := url.Values{
		"APIkey":  {c.apiKey},
		"content": {ref},
	}
	var resp statusResponse
	if err := c.postForm(ctx, "check_status", "/chargingws/status_card", form, &resp); err != nil {
		return nil, err
	}

	st := &domain.CardStatus{
		Code:    string(resp.Status),
		Message: resp.Msg,
		Amount:  int64(resp.Amount),
	}
	if st.Message == "" {
		st.Message = CheckMessage(st.Code)
	}
	st.Outcome = StatusOutcome(st.Code, st.Amount, st.Message)
	return st, nil
}

// StatusOutcome decodes a status-check code. Unknown codes and "2" leave the card pending.
func StatusOutcome(code string, amount int64, msg string) domain.Outcome {
	switch code {
	case CheckSuccess:
		return domain.CardSuccess{Amount: amount}
	case CheckWrongAmount:
		return domain.CardWrongAmount{Actual: amount}
	case CheckFailed:
		return domain.CardFailed{Reason: msg}
	default:
		return domain.StillPending{Reason: msg}
	}
}

func (c *Client) Discount(ctx context.Context, account string) (json.RawMessage, error) {
	path := "/topup/discount"
	if account != "" {
		path += "/" + url.PathEscape(account)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.do(req)
	c.observe("discount", start, err)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: providerName, Op: "discount", Err: err}
	}
	if !json.Valid(body) {
		return nil, &domain.UpstreamError{Provider: providerName, Op: "discount", Message: "invalid JSON response"}
	}
	return json.RawMessage(body), nil
}

func (c *Client) postForm(ctx context.Context, op, path string, form url.Values, out interface{}) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err == nil {
		if uerr := json.Unmarshal(body, out); uerr != nil {
			err = fmt.Errorf("failed to parse response: %w", uerr)
		}
	}
	c.observe(op, start, err)
	if err != nil {
		return &domain.UpstreamError{Provider: providerName, Op: op, Err: err}
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return body, nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.observer != nil {
		c.observer.ObserveProviderCall(providerName, op, time.Since(start), err)
	}
}
