package bankdir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type bank struct {
	Bin       string `json:"bin"`
	Code      string `json:"code"`
	ShortName string `json:"shortName"`
}

type banksResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data []bank `json:"data"`
}

// VietQRDirectory resolves bank bins and codes to short names. The list is fetched at most
// once per ttl, including failed attempts, and lookups fall back to the raw code.
type VietQRDirectory struct {
	url    string
	ttl    time.Duration
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	names     map[string]string
	lastFetch time.Time
}

func NewVietQRDirectory(url string, ttl time.Duration) *VietQRDirectory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &VietQRDirectory{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 5 * time.Second},
		now:    time.Now,
		names:  map[string]string{},
	}
}

func (d *VietQRDirectory) GetName() string {
	return "vietqr"
}

func (d *VietQRDirectory) Name(ctx context.Context, bin string) string {
	if bin == "" {
		return ""
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.now().Sub(d.lastFetch) >= d.ttl {
		d.lastFetch = d.now()
		names, err := d.fetch(ctx)
		if err != nil {
			slog.Warn("bank directory unavailable, using raw codes", "error", err)
		} else {
			d.names = names
			slog.Info("bank directory loaded", "banks", len(names))
		}
	}

	if name, ok := d.names[bin]; ok {
		return name
	}
	return bin
}

func (d *VietQRDirectory) fetch(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get banks from VietQR: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vietqr API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out banksResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse VietQR response: %w", err)
	}
	if out.Code != "00" {
		return nil, fmt.Errorf("vietqr API returned code %s: %s", out.Code, out.Desc)
	}

	names := make(map[string]string, len(out.Data)*2)
	for _, b := range out.Data {
		if b.Bin != "" {
			names[b.Bin] = b.ShortName
		}
		if b.Code != "" {
			names[b.Code] = b.ShortName
		}
	}
	return names, nil
}

func (d *VietQRDirectory) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := d.fetch(ctx)
	return err == nil
}
