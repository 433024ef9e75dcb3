package collector

import (
	"errors"
	"math"
	"strings"
	"time"

	"CryptoDash/internal/model"

	"github.com/shopspring/decimal"
)

// MockFetcher returns controllable, deterministic quotes for development and
// testing. Each call advances an internal tick so successive refreshes move
// prices a little.
type MockFetcher struct {
	Prices map[string]float64 // base price per symbol; unknown symbols use 1.0
	Names  map[string]string
	Fail   map[string]bool // symbols that fail
	Now    func() time.Time

	tick  int
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuotes(symbols []string) (*model.QuoteSet, error) {
	m.Calls++
	m.tick++
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}

	set := model.NewQuoteSet()
	var failures []error
	attempted := 0
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		if seen[sym] {
			continue
		}
		seen[sym] = true
		attempted++
		if strings.TrimSpace(sym) == "" || m.Fail[sym] {
			failures = append(failures, &model.FetchError{Symbol: sym, Err: errors.New("mock failure")})
			continue
		}
		set.Put(m.quote(sym, now()))
	}
	if attempted > 0 && set.Len() == 0 {
		return nil, &model.FetchError{Err: errors.Join(failures...)}
	}
	return set, nil
}

func (m *MockFetcher) quote(sym string, ts time.Time) model.AssetQuote {
	base, ok := m.Prices[sym]
	if !ok {
		base = 1.0
	}
	drift := float64(m.tick%7-3) * 0.001
	price := base * (1 + drift)
	name := m.Names[sym]
	if name == "" {
		name = sym
	}
	change := math.Round(drift*100*100) / 100
	return model.AssetQuote{
		Symbol:    sym,
		Name:      name,
		Price:     decimal.NewFromFloat(price).Round(8),
		Volume:    decimal.NewFromFloat(base * 1000000),
		Timestamp: ts.UTC(),
		Changes:   map[string]float64{model.Window24h: change},
	}
}
