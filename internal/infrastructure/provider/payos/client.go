package payos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

const (
	providerName = "payos"
	codeOK       = "00"
)

type Observer interface {
	ObserveProviderCall(provider, op string, d time.Duration, err error)
}

type Options struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	ChecksumKey string
	Timeout     time.Duration
	// LinkExpiry sets expiredAt on created links when positive.
	LinkExpiry time.Duration
}

type Client struct {
	opts     Options
	client   *http.Client
	observer Observer
	now      func() time.Time
}

func NewClient(opts Options, observer Observer) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		observer: observer,
		now:      time.Now,
	}
}

// envelope is the common response wrapper of the merchant API.
type envelope struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

type createRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	BuyerName   string `json:"buyerName,omitempty"`
	BuyerEmail  string `json:"buyerEmail,omitempty"`
	BuyerPhone  string `json:"buyerPhone,omitempty"`
	ExpiredAt   int64  `json:"expiredAt,omitempty"`
	Signature   string `json:"signature"`
}

func (c *Client) CreatePaymentLink(ctx context.Context, r domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	body := createRequest{
		OrderCode:   r.OrderCode,
		Amount:      r.Amount,
		Description: r.Description,
		ReturnURL:   r.ReturnURL,
		CancelURL:   r.CancelURL,
		BuyerName:   r.BuyerName,
		BuyerEmail:  r.BuyerEmail,
		BuyerPhone:  r.BuyerPhone,
		Signature:   requestSignature(c.opts.ChecksumKey, r.OrderCode, r.Amount, r.Description, r.ReturnURL, r.CancelURL),
	}
	if c.opts.LinkExpiry > 0 {
		body.ExpiredAt = c.now().Add(c.opts.LinkExpiry).Unix()
	}

	var link domain.PaymentLink
	if err := c.call(ctx, "create_link", http.MethodPost, "/v2/payment-requests", body, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) GetPaymentInfo(ctx context.Context, orderCode int64) (*domain.PaymentInfo, error) {
	var info domain.PaymentInfo
	path := "/v2/payment-requests/" + strconv.FormatInt(orderCode, 10)
	if err := c.call(ctx, "get_info", http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	info.Outcome = InfoOutcome(&info)
	return &info, nil
}

func (c *Client) CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*domain.PaymentInfo, error) {
	var body interface{}
	if reason != "" {
		body = map[string]string{"cancellationReason": reason}
	}
	var info domain.PaymentInfo
	path := "/v2/payment-requests/" + strconv.FormatInt(orderCode, 10) + "/cancel"
	if err := c.call(ctx, "cancel_link", http.MethodPost, path, body, &info); err != nil {
		return nil, err
	}
	info.Outcome = InfoOutcome(&info)
	return &info, nil
}

type webhookBody struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

// VerifyWebhook checks the HMAC signature of a webhook body and returns its data.
// Any mismatch or malformed body is reported as domain.ErrSignature.
func (c *Client) VerifyWebhook(body []byte) (*domain.WebhookData, error) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %v: %w", err, domain.ErrSignature)
	}
	if len(wb.Data) == 0 || string(wb.Data) == "null" || wb.Signature == "" {
		return nil, fmt.Errorf("webhook is missing data or signature: %w", domain.ErrSignature)
	}

	ok, err := verifyData(c.opts.ChecksumKey, wb.Data, wb.Signature)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrSignature)
	}
	if !ok {
		return nil, domain.ErrSignature
	}

	var data domain.WebhookData
	if err := json.Unmarshal(wb.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode webhook data: %v: %w", err, domain.ErrSignature)
	}
	if data.Code == "" {
		data.Code = wb.Code
	}
	if data.Desc == "" {
		data.Desc = wb.Desc
	}
	data.Outcome = WebhookOutcome(&data)
	return &data, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, in, out interface{}) error {
	start := time.Now()
	err := c.doCall(ctx, method, path, in, out)
	if c.observer != nil {
		c.observer.ObserveProviderCall(providerName, op, time.Since(start), err)
	}
	if err != nil {
		var up *domain.UpstreamError
		if errors.As(err, &up) {
			up.Op = op
			return up
		}
		return &domain.UpstreamError{Provider: providerName, Op: op, Err: err}
	}
	return nil
}

func (c *Client) doCall(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-client-id", c.opts.ClientID)
	req.Header.Set("x-api-key", c.opts.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("provider returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if env.Code != codeOK {
		return &domain.UpstreamError{Provider: providerName, Code: env.Code, Message: env.Desc}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse response data: %w", err)
		}
	}
	return nil
}
