package writer

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"quoteflow/models"
)

func TestToRow(t *testing.T) {
	bid := decimal.RequireFromString("31.10")
	ask := decimal.RequireFromString("31.30")
	rec := models.NewDepthRecord(models.SourceBitkub, "THB_USDT", models.OrderBook{
		Bids: []models.BookLevel{{Price: bid, Size: decimal.NewFromInt(100)}},
		Asks: []models.BookLevel{{Price: ask, Size: decimal.NewFromInt(80)}},
	}, json.RawMessage(`{"bids":[[31.10,100]],"asks":[[31.30,80]]}`))

	row := toRow(rec)
	if row.Source != "bitkub" || row.Symbol != "THB_USDT" {
		t.Fatalf("unexpected identity: %s %s", row.Source, row.Symbol)
	}
	if row.Price == nil || row.Price.String() != "31.2" {
		t.Fatalf("unexpected price: %v", row.Price)
	}
	if row.OrderBook == nil {
		t.Fatal("expected order book json")
	}
	var book models.OrderBook
	if err := json.Unmarshal([]byte(*row.OrderBook), &book); err != nil {
		t.Fatalf("order book column must hold valid json: %v", err)
	}
	if len(book.Bids) != 1 || !book.Bids[0].Price.Equal(bid) {
		t.Fatalf("order book json does not round-trip: %+v", book)
	}
	if row.RawData == nil {
		t.Fatal("expected raw payload to be persisted")
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestToRowBareRate(t *testing.T) {
	rate := decimal.RequireFromString("35.5")
	rec := models.NewRateRecord(models.SourceFX, "USD_THB", rate, nil)

	row := toRow(rec)
	if row.Bid != nil || row.Ask != nil || row.OrderBook != nil {
		t.Fatal("bare rate rows must not carry bid/ask/order book")
	}
	if row.RawData != nil {
		t.Fatal("missing payload must stay null")
	}
}
