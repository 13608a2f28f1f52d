package reader

import (
	"context"
	"fmt"
	"net/url"

	"quoteflow/config"
	"quoteflow/models"
)

// BinanceTHConnector reads a depth snapshot from the Binance TH depth
// endpoint (symbol/limit query parameters, string [price, volume] pairs).
type BinanceTHConnector struct {
	venue
	cfg config.DepthSourceConfig
}

func NewBinanceTH(cfg *config.Config) *BinanceTHConnector {
	return &BinanceTHConnector{
		venue: newVenue(cfg),
		cfg:   cfg.Source.BinanceTH,
	}
}

func (c *BinanceTHConnector) Name() string { return string(models.SourceBinanceTH) }

func (c *BinanceTHConnector) Fetch(ctx context.Context) (*models.Record, error) {
	u := fmt.Sprintf("%s?symbol=%s&limit=%d", c.cfg.URL, url.QueryEscape(c.cfg.Symbol), c.cfg.Limit)
	payload, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	book, err := parseDepth(payload)
	if err != nil {
		return nil, err
	}
	rec := models.NewDepthRecord(models.SourceBinanceTH, c.cfg.Symbol, book, payload)
	return &rec, nil
}
