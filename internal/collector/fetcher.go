package collector

import "CryptoDash/internal/model"

// Fetcher defines the interface for fetching market data.
//
// FetchQuotes issues one request per symbol, sequentially, with a single
// attempt each. A failing symbol is left out of the returned set; only when
// every requested symbol fails is a batch *model.FetchError returned.
type Fetcher interface {
	FetchQuotes(symbols []string) (*model.QuoteSet, error)
	Name() string
}
