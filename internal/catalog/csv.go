package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"packhouse/internal/config"
)

// CSVClient fetches the master sheet through its CSV export URL. Export
// endpoints throttle and shed load freely, so fetches are paced and retried
// with backoff.
type CSVClient struct {
	httpClient *http.Client
	limiter    *RateLimiter
	url        string
}

func NewCSVClient(cfg config.Config) *CSVClient {
	return &CSVClient{
		httpClient: &http.Client{Timeout: time.Duration(cfg.CatalogTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.CatalogRateRPS),
		url:        cfg.CatalogCSVURL,
	}
}

func (c *CSVClient) Fetch(ctx context.Context) (Table, error) {
	if c.url == "" {
		return Table{}, fmt.Errorf("catalog csv url not configured")
	}

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return Table{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return Table{}, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if isRetryableStatus(resp.StatusCode) {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("catalog fetch status %d", resp.StatusCode)
		} else if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return Table{}, fmt.Errorf("catalog fetch status %d: %s", resp.StatusCode, string(body))
		} else {
			table, err := readCSV(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return Table{}, err
			}
			return table, nil
		}

		if attempt < 5 {
			backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return Table{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return Table{}, fmt.Errorf("catalog fetch failed after retries: %w", lastErr)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func readCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse catalog csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("catalog csv is empty")
	}
	return Table{Headers: records[0], Rows: records[1:]}, nil
}
