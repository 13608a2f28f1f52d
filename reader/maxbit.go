package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quoteflow/config"
	"quoteflow/models"
)

// maxbitSuccessCode is the only responseCode the OTC desk treats as success.
const maxbitSuccessCode = "000"

// MaxbitConnector reads a single bid/ask quote from the MaxBit OTC desk.
// The desk authenticates with a fixed secret-api/secret-key header pair and
// wraps its result in a responseCode envelope.
type MaxbitConnector struct {
	venue
	cfg config.MaxbitSourceConfig
}

type maxbitResponse struct {
	ResponseCode string `json:"responseCode"`
	Result       *struct {
		Bid json.RawMessage `json:"bid"`
		Ask json.RawMessage `json:"ask"`
	} `json:"result"`
}

func NewMaxbit(cfg *config.Config) *MaxbitConnector {
	return &MaxbitConnector{
		venue: newVenue(cfg),
		cfg:   cfg.Source.Maxbit,
	}
}

func (c *MaxbitConnector) Name() string { return string(models.SourceMaxbit) }

func (c *MaxbitConnector) Fetch(ctx context.Context) (*models.Record, error) {
	headers := map[string]string{
		"secret-api": c.cfg.SecretAPI,
		"secret-key": c.cfg.SecretKey,
	}
	body := map[string]string{
		"groupid": c.cfg.GroupID,
		"symbol":  c.cfg.Symbol,
	}
	payload, err := c.postJSON(ctx, c.cfg.URL, headers, body)
	if err != nil {
		return nil, err
	}

	var res maxbitResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrMalformed, err)
	}
	if res.ResponseCode != maxbitSuccessCode || res.Result == nil {
		return nil, fmt.Errorf("%w: responseCode %q: %s", ErrRejected, res.ResponseCode, snippet(payload))
	}

	bid, err := parseDecimal(res.Result.Bid)
	if err != nil {
		return nil, fmt.Errorf("bid: %w", err)
	}
	ask, err := parseDecimal(res.Result.Ask)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}

	rec := models.NewQuoteRecord(models.SourceMaxbit, strings.ToUpper(c.cfg.Symbol), bid, ask, payload)
	return &rec, nil
}
