package reader

import (
	"encoding/json"
	"fmt"

	"quoteflow/models"
)

// depthResponse is the wire shape shared by the Bitkub and Binance TH depth
// endpoints: each side is an array of [price, size] pairs, carried as JSON
// numbers or numeric strings. Pointer slices distinguish a missing key from
// an empty side.
type depthResponse struct {
	Bids *[][]json.RawMessage `json:"bids"`
	Asks *[][]json.RawMessage `json:"asks"`
}

// parseDepth decodes a depth payload into an OrderBook truncated to
// models.MaxBookDepth per side. Both keys must be present; a non-numeric
// level fails the whole parse.
func parseDepth(payload []byte) (models.OrderBook, error) {
	var res depthResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return models.OrderBook{}, fmt.Errorf("%w: decode depth: %v", ErrMalformed, err)
	}
	if res.Bids == nil || res.Asks == nil {
		return models.OrderBook{}, fmt.Errorf("%w: missing bids or asks", ErrMalformed)
	}
	bids, err := parseLevels(*res.Bids)
	if err != nil {
		return models.OrderBook{}, fmt.Errorf("bids: %w", err)
	}
	asks, err := parseLevels(*res.Asks)
	if err != nil {
		return models.OrderBook{}, fmt.Errorf("asks: %w", err)
	}
	return models.NewOrderBook(bids, asks), nil
}

func parseLevels(raw [][]json.RawMessage) ([]models.BookLevel, error) {
	if len(raw) > models.MaxBookDepth {
		raw = raw[:models.MaxBookDepth]
	}
	levels := make([]models.BookLevel, 0, len(raw))
	for i, pair := range raw {
		if len(pair) < 2 {
			return nil, fmt.Errorf("%w: level %d has %d elements", ErrMalformed, i, len(pair))
		}
		price, err := parseDecimal(pair[0])
		if err != nil {
			return nil, fmt.Errorf("level %d price: %w", i, err)
		}
		size, err := parseDecimal(pair[1])
		if err != nil {
			return nil, fmt.Errorf("level %d size: %w", i, err)
		}
		levels = append(levels, models.BookLevel{Price: price, Size: size})
	}
	return levels, nil
}
