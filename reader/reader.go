package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"quoteflow/config"
	"quoteflow/models"
)

// Connector fetches one normalized Record from a single venue. A failed
// fetch returns a typed error wrapping one of the kinds below; the caller
// decides how to log it. Connectors never panic and never retry.
type Connector interface {
	Name() string
	Fetch(ctx context.Context) (*models.Record, error)
}

// Failure kinds returned by connectors. Matched with errors.Is.
var (
	// ErrTransport covers unreachable or slow venues and non-2xx statuses.
	ErrTransport = errors.New("transport failure")
	// ErrMalformed covers responses missing required fields or carrying
	// non-numeric values where numbers are expected.
	ErrMalformed = errors.New("malformed response")
	// ErrRejected covers responses the venue itself flagged as failed.
	ErrRejected = errors.New("rejected response")
)

const userAgent = "QuoteFlow/1.0"

// venue carries the HTTP plumbing shared by all connectors: one pooled
// client and a request pacer.
type venue struct {
	client  *http.Client
	limiter *rate.Limiter
}

func newVenue(cfg *config.Config) venue {
	timeout := cfg.Reader.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rl := cfg.Reader.RateLimit
	rps := rl.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := rl.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return venue{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				MaxConnsPerHost: 5,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// get issues a GET request and returns the response body.
func (v *venue) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	return v.do(req)
}

// postJSON issues a POST request with a JSON body and extra headers.
func (v *venue) postJSON(ctx context.Context, url string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request body: %v", ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}
	return v.do(req)
}

func (v *venue) do(req *http.Request) ([]byte, error) {
	if v.limiter != nil {
		if err := v.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("%w: rate limiter wait: %v", ErrTransport, err)
		}
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %s", ErrTransport, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrTransport, err)
	}
	return body, nil
}

// parseDecimal coerces a JSON scalar, quoted or bare, into a decimal.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: non-numeric value %q", ErrMalformed, s)
	}
	return d, nil
}

// snippet trims a raw payload for inclusion in error messages.
func snippet(payload []byte) string {
	const max = 256
	s := string(payload)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
