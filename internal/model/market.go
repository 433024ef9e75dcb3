package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset ties a ticker symbol to the upstream coin identifier.
type Asset struct {
	ID     string `yaml:"id" json:"id"`
	Symbol string `yaml:"symbol" json:"symbol"`
	Name   string `yaml:"name" json:"name,omitempty"`
}

// Change windows reported by the upstream API.
const (
	Window1h  = "1h"
	Window24h = "24h"
	Window7d  = "7d"
	Window14d = "14d"
	Window30d = "30d"
)

// ChangeWindows lists the reported windows in display order.
var ChangeWindows = []string{Window1h, Window24h, Window7d, Window14d, Window30d}

// AssetQuote is a single price/volume observation for one asset.
type AssetQuote struct {
	Symbol    string             `json:"symbol"`
	Name      string             `json:"name"`
	Price     decimal.Decimal    `json:"price"`
	Volume    decimal.Decimal    `json:"volume"`
	Timestamp time.Time          `json:"timestamp"`
	Changes   map[string]float64 `json:"changes,omitempty"` // window -> percent, only when reported
}

// QuoteSet is a symbol -> quote mapping that remembers insertion order.
type QuoteSet struct {
	order  []string
	quotes map[string]AssetQuote
}

// NewQuoteSet creates an empty QuoteSet.
func NewQuoteSet() *QuoteSet {
	return &QuoteSet{quotes: make(map[string]AssetQuote)}
}

// Put stores q under its symbol. A new symbol is appended to the order,
// an existing one keeps its position.
func (s *QuoteSet) Put(q AssetQuote) {
	if _, ok := s.quotes[q.Symbol]; !ok {
		s.order = append(s.order, q.Symbol)
	}
	s.quotes[q.Symbol] = q
}

// Get returns the quote for symbol.
func (s *QuoteSet) Get(symbol string) (AssetQuote, bool) {
	if s == nil {
		return AssetQuote{}, false
	}
	q, ok := s.quotes[symbol]
	return q, ok
}

// Len returns the number of quotes.
func (s *QuoteSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Symbols returns the symbols in insertion order.
func (s *QuoteSet) Symbols() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Quotes returns the quotes in insertion order.
func (s *QuoteSet) Quotes() []AssetQuote {
	if s == nil {
		return nil
	}
	out := make([]AssetQuote, 0, len(s.order))
	for _, sym := range s.order {
		out = append(out, s.quotes[sym])
	}
	return out
}
