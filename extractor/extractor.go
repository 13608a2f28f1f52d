package extractor

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"quoteflow/models"
)

// Markers names the textual anchors preceding one symbol's quoted bid and
// ask values in a broadcast message.
type Markers struct {
	Bid string
	Ask string
}

// DefaultMarkers returns the marker table for the Bitazza Thai-language
// broadcast format. The bid marker precedes the venue's buying rate, the
// ask marker its selling rate.
func DefaultMarkers() map[string]Markers {
	return map[string]Markers{
		"USDT": {Bid: "USDT>THB (Bid) คือ", Ask: "THB>USDT (Ask) คือ"},
		"USDC": {Bid: "USDC>THB (Bid) คือ", Ask: "THB>USDC (Ask) คือ"},
	}
}

// Extractor pulls quote Records out of unstructured broadcast text using a
// per-symbol marker table. It is pure and stateless: a symbol contributes a
// Record only when both its markers are found, and only the first match per
// marker is used.
type Extractor struct {
	source  models.Source
	markers map[string]Markers
	symbols []string
}

// New builds an Extractor for the given source and marker table. Symbols
// are scanned in lexical order so batches are deterministic.
func New(source models.Source, markers map[string]Markers) *Extractor {
	symbols := make([]string, 0, len(markers))
	for sym := range markers {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return &Extractor{source: source, markers: markers, symbols: symbols}
}

// Extract returns zero or more Records found in text. The full source text
// is carried as each Record's raw payload for traceability.
func (e *Extractor) Extract(text string) []models.Record {
	var records []models.Record
	for _, sym := range e.symbols {
		m := e.markers[sym]
		bid, ok := decimalAfter(text, m.Bid)
		if !ok {
			continue
		}
		ask, ok := decimalAfter(text, m.Ask)
		if !ok {
			continue
		}
		raw, err := json.Marshal(map[string]string{"full_text": text})
		if err != nil {
			continue
		}
		records = append(records, models.NewQuoteRecord(e.source, sym, bid, ask, raw))
	}
	return records
}

// decimalAfter locates the first occurrence of marker in text and parses
// the decimal token that follows it. Matching is byte-oriented, which is
// safe for UTF-8 markers and surrounding multi-byte text.
func decimalAfter(text, marker string) (decimal.Decimal, bool) {
	if marker == "" {
		return decimal.Decimal{}, false
	}
	idx := strings.Index(text, marker)
	if idx < 0 {
		return decimal.Decimal{}, false
	}
	rest := strings.TrimLeft(text[idx+len(marker):], " \t")

	end := 0
	for end < len(rest) {
		c := rest[end]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		end++
	}
	// A sentence-final period is punctuation, not part of the number.
	token := strings.TrimRight(rest[:end], ".")
	if token == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
