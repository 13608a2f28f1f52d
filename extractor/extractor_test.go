package extractor

import (
	"encoding/json"
	"strings"
	"testing"

	"quoteflow/models"
)

const broadcastBoth = `📌USDT
• อัตราเรทในการขาย USDT>THB (Bid) คือ 31.188
• อัตราเรทในการซื้อ THB>USDT (Ask) คือ 31.245
📌USDC
• อัตราเรทในการขาย USDC>THB (Bid) คือ 31.100
• อัตราเรทในการซื้อ THB>USDC (Ask) คือ 31.200`

func newTestExtractor() *Extractor {
	return New(models.SourceBitazza, DefaultMarkers())
}

func TestExtractBothSymbols(t *testing.T) {
	records := newTestExtractor().Extract(broadcastBoth)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Lexical symbol order: USDC before USDT.
	if records[0].Symbol != "USDC" || records[1].Symbol != "USDT" {
		t.Fatalf("unexpected symbols: %s, %s", records[0].Symbol, records[1].Symbol)
	}
}

func TestExtractMidpoint(t *testing.T) {
	text := `USDT>THB (Bid) คือ 31.188 and THB>USDT (Ask) คือ 31.245`
	records := newTestExtractor().Extract(text)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Price == nil || rec.Price.String() != "31.2165" {
		t.Fatalf("expected price 31.2165, got %v", rec.Price)
	}
	if rec.Source != models.SourceBitazza {
		t.Fatalf("unexpected source: %s", rec.Source)
	}
}

func TestExtractMissingAskYieldsNothing(t *testing.T) {
	text := `USDT>THB (Bid) คือ 31.188 only, no ask today`
	if records := newTestExtractor().Extract(text); len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}
}

func TestExtractIsolationBetweenSymbols(t *testing.T) {
	text := `USDT>THB (Bid) คือ 31.188 / THB>USDT (Ask) คือ 31.245`
	records := newTestExtractor().Extract(text)
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(records))
	}
	if records[0].Symbol != "USDT" {
		t.Fatalf("unexpected symbol: %s", records[0].Symbol)
	}
}

func TestExtractFirstMatchPerMarker(t *testing.T) {
	text := `USDT>THB (Bid) คือ 31.100 THB>USDT (Ask) คือ 31.300
repeat: USDT>THB (Bid) คือ 99.999 THB>USDT (Ask) คือ 99.999`
	records := newTestExtractor().Extract(text)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Bid.String() != "31.1" || records[0].Ask.String() != "31.3" {
		t.Fatalf("expected first matches, got bid=%s ask=%s", records[0].Bid, records[0].Ask)
	}
}

func TestExtractTrailingPunctuation(t *testing.T) {
	text := `USDT>THB (Bid) คือ 31.188. THB>USDT (Ask) คือ 31.245.`
	records := newTestExtractor().Extract(text)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Bid.String() != "31.188" {
		t.Fatalf("expected trailing period stripped, got %s", records[0].Bid)
	}
}

func TestExtractRawDataCarriesFullText(t *testing.T) {
	records := newTestExtractor().Extract(broadcastBoth)
	if len(records) == 0 {
		t.Fatal("expected records")
	}
	var raw map[string]string
	if err := json.Unmarshal(records[0].Raw, &raw); err != nil {
		t.Fatalf("raw payload must be JSON: %v", err)
	}
	if !strings.Contains(raw["full_text"], "📌USDT") {
		t.Fatal("raw payload must carry the full source text")
	}
}

func TestExtractNoMarkers(t *testing.T) {
	if records := newTestExtractor().Extract("nothing interesting here"); len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
