package reader

import (
	"context"
	"encoding/json"
	"fmt"

	"quoteflow/config"
	"quoteflow/models"
)

// FXConnector reads a currency rate table and extracts the configured
// destination currency's rate. The resulting Record has no bid/ask.
type FXConnector struct {
	venue
	cfg config.FXSourceConfig
}

type fxResponse struct {
	Rates map[string]json.RawMessage `json:"rates"`
}

func NewFX(cfg *config.Config) *FXConnector {
	return &FXConnector{
		venue: newVenue(cfg),
		cfg:   cfg.Source.FX,
	}
}

func (c *FXConnector) Name() string { return string(models.SourceFX) }

func (c *FXConnector) Fetch(ctx context.Context) (*models.Record, error) {
	payload, err := c.get(ctx, c.cfg.URL)
	if err != nil {
		return nil, err
	}

	var res fxResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("%w: decode rates: %v", ErrMalformed, err)
	}
	raw, ok := res.Rates[c.cfg.Currency]
	if !ok {
		return nil, fmt.Errorf("%w: rate for %s not present", ErrMalformed, c.cfg.Currency)
	}
	rate, err := parseDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("rate %s: %w", c.cfg.Currency, err)
	}

	rec := models.NewRateRecord(models.SourceFX, c.cfg.Symbol, rate, payload)
	return &rec, nil
}
