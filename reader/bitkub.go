package reader

import (
	"context"
	"fmt"
	"net/url"

	"quoteflow/config"
	"quoteflow/models"
)

// BitkubConnector reads a depth snapshot from the Bitkub market depth
// endpoint (sym/lmt query parameters, numeric [price, volume] pairs).
type BitkubConnector struct {
	venue
	cfg config.DepthSourceConfig
}

func NewBitkub(cfg *config.Config) *BitkubConnector {
	return &BitkubConnector{
		venue: newVenue(cfg),
		cfg:   cfg.Source.Bitkub,
	}
}

func (c *BitkubConnector) Name() string { return string(models.SourceBitkub) }

func (c *BitkubConnector) Fetch(ctx context.Context) (*models.Record, error) {
	u := fmt.Sprintf("%s?sym=%s&lmt=%d", c.cfg.URL, url.QueryEscape(c.cfg.Symbol), c.cfg.Limit)
	payload, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	book, err := parseDepth(payload)
	if err != nil {
		return nil, err
	}
	rec := models.NewDepthRecord(models.SourceBitkub, c.cfg.Symbol, book, payload)
	return &rec, nil
}
