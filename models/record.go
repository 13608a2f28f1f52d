package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies the venue a Record originated from.
type Source string

const (
	SourceBitkub    Source = "bitkub"
	SourceBinanceTH Source = "binance_th"
	SourceMaxbit    Source = "maxbit"
	SourceFX        Source = "fx"
	SourceBitazza   Source = "bitazza"
)

// MaxBookDepth is the number of levels kept per order book side.
const MaxBookDepth = 5

// BookLevel is a single price level in an order book.
type BookLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// OrderBook holds up to MaxBookDepth levels per side, best price first.
type OrderBook struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// NewOrderBook builds an OrderBook from raw level slices, truncating each
// side to MaxBookDepth entries taken from the front.
func NewOrderBook(bids, asks []BookLevel) OrderBook {
	if len(bids) > MaxBookDepth {
		bids = bids[:MaxBookDepth]
	}
	if len(asks) > MaxBookDepth {
		asks = asks[:MaxBookDepth]
	}
	return OrderBook{Bids: bids, Asks: asks}
}

// Record is the canonical normalized quote shape shared by the polling and
// chat ingestion paths. A Record is immutable after construction; it is
// created once per successful fetch or parse and handed to the writer.
type Record struct {
	Source    Source           `json:"source"`
	Symbol    string           `json:"symbol"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Bid       *decimal.Decimal `json:"bid,omitempty"`
	Ask       *decimal.Decimal `json:"ask,omitempty"`
	OrderBook *OrderBook       `json:"order_book,omitempty"`
	Raw       json.RawMessage  `json:"raw_data,omitempty"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Midpoint returns the arithmetic mean of bid and ask.
func Midpoint(bid, ask decimal.Decimal) decimal.Decimal {
	return bid.Add(ask).Div(decimal.NewFromInt(2))
}

// NewQuoteRecord builds a Record from a single bid/ask pair with no depth.
// Price is always the midpoint.
func NewQuoteRecord(source Source, symbol string, bid, ask decimal.Decimal, raw json.RawMessage) Record {
	mid := Midpoint(bid, ask)
	return Record{
		Source:    source,
		Symbol:    symbol,
		Price:     &mid,
		Bid:       &bid,
		Ask:       &ask,
		Raw:       raw,
		FetchedAt: time.Now().UTC(),
	}
}

// NewDepthRecord builds a Record from an order book. Best bid and ask are
// the first level of each side; price is their midpoint. When either side
// is empty the bid, ask and price stay unset and the partial book is kept.
func NewDepthRecord(source Source, symbol string, book OrderBook, raw json.RawMessage) Record {
	r := Record{
		Source:    source,
		Symbol:    symbol,
		OrderBook: &book,
		Raw:       raw,
		FetchedAt: time.Now().UTC(),
	}
	if len(book.Bids) > 0 && len(book.Asks) > 0 {
		bid := book.Bids[0].Price
		ask := book.Asks[0].Price
		mid := Midpoint(bid, ask)
		r.Bid = &bid
		r.Ask = &ask
		r.Price = &mid
	}
	return r
}

// NewRateRecord builds a bare-rate Record carrying a single quoted value
// with no bid/ask pair.
func NewRateRecord(source Source, symbol string, rate decimal.Decimal, raw json.RawMessage) Record {
	return Record{
		Source:    source,
		Symbol:    symbol,
		Price:     &rate,
		Raw:       raw,
		FetchedAt: time.Now().UTC(),
	}
}
