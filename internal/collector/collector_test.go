package collector

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"CryptoDash/internal/analyzer"
	"CryptoDash/internal/config"
	"CryptoDash/internal/insight"
	"CryptoDash/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAssets = []model.Asset{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	{ID: "solana", Symbol: "SOL", Name: "Solana"},
}

func coinJSON(id, symbol string, price, volume float64) string {
	return fmt.Sprintf(`[{"id":%q,"symbol":%q,"name":"","current_price":%g,"total_volume":%g,`+
		`"last_updated":"2025-03-01T09:30:00.000Z","price_change_percentage_24h_in_currency":-1.25}]`,
		id, symbol, price, volume)
}

// fakeCoinGecko serves /coins/markets from a map of coin id to response body.
// Ids without an entry get a 500.
func fakeCoinGecko(t *testing.T, bodies map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/coins/markets" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-cg-demo-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := bodies[r.URL.Query().Get("ids")]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"boom"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestFetcher(t *testing.T, baseURL string) *CoinGeckoFetcher {
	t.Helper()
	f, err := NewCoinGeckoFetcher(config.DataSource{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, testAssets, nil)
	require.NoError(t, err)
	return f
}

func TestNewCoinGeckoFetcherRequiresKey(t *testing.T) {
	_, err := NewCoinGeckoFetcher(config.DataSource{BaseURL: "http://localhost"}, testAssets, nil)
	var cfgErr *model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "data_source.api_key", cfgErr.Field)
}

func TestFetchQuotesMissingKeyMakesNoRequest(t *testing.T) {
	srv, hits := fakeCoinGecko(t, nil)
	f := newTestFetcher(t, srv.URL)
	f.cfg.APIKey = ""

	_, err := f.FetchQuotes([]string{"BTC"})
	var cfgErr *model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestFetchQuotesEmptyInput(t *testing.T) {
	srv, hits := fakeCoinGecko(t, nil)
	f := newTestFetcher(t, srv.URL)

	set, err := f.FetchQuotes(nil)
	require.NoError(t, err)
	assert.Zero(t, set.Len())
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestFetchQuotesSuccess(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "test-key", r.Header.Get("x-cg-demo-api-key"))
		fmt.Fprint(w, coinJSON("bitcoin", "btc", 64000.5, 1.2e10))
	}))
	defer srv.Close()
	f := newTestFetcher(t, srv.URL)

	set, err := f.FetchQuotes([]string{"BTC"})
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	q, ok := set.Get("BTC")
	require.True(t, ok)
	assert.Equal(t, "Bitcoin", q.Name)
	assert.Equal(t, "64000.5", q.Price.String())
	assert.Equal(t, "12000000000", q.Volume.String())
	assert.Equal(t, time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), q.Timestamp)
	assert.Equal(t, map[string]float64{model.Window24h: -1.25}, q.Changes)

	assert.Contains(t, gotQuery, "ids=bitcoin")
	assert.Contains(t, gotQuery, "vs_currency=usd")
	assert.Contains(t, gotQuery, "price_change_percentage=1h%2C24h%2C7d%2C14d%2C30d")
}

func TestFetchQuotesPartialFailureOmitsSymbol(t *testing.T) {
	srv, _ := fakeCoinGecko(t, map[string]string{
		"bitcoin": coinJSON("bitcoin", "btc", 64000, 1e10),
		"solana":  coinJSON("solana", "sol", 145, 2e9),
	})
	f := newTestFetcher(t, srv.URL)

	set, err := f.FetchQuotes([]string{"SOL", "ETH", "BTC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SOL", "BTC"}, set.Symbols())
	_, ok := set.Get("ETH")
	assert.False(t, ok)
}

func TestFetchQuotesAllFailing(t *testing.T) {
	srv, hits := fakeCoinGecko(t, nil)
	f := newTestFetcher(t, srv.URL)

	set, err := f.FetchQuotes([]string{"BTC", "ETH"})
	assert.Nil(t, set)
	var fetchErr *model.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Empty(t, fetchErr.Symbol)
	assert.Contains(t, err.Error(), "fetch BTC")
	assert.Contains(t, err.Error(), "fetch ETH")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits), "single attempt per symbol")
}

func TestFetchQuotesRejectsUnexpectedShape(t *testing.T) {
	cases := map[string]string{
		"missing price":   `[{"id":"bitcoin","symbol":"btc","total_volume":1,"last_updated":"2025-03-01T09:30:00Z"}]`,
		"negative volume": `[{"id":"bitcoin","symbol":"btc","current_price":1,"total_volume":-5,"last_updated":"2025-03-01T09:30:00Z"}]`,
		"bad timestamp":   `[{"id":"bitcoin","symbol":"btc","current_price":1,"total_volume":1,"last_updated":"yesterday"}]`,
		"wrong coin":      coinJSON("ethereum", "eth", 3000, 1),
		"not a list":      `{"bitcoin":{"usd":64000}}`,
		"empty list":      `[]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := fakeCoinGecko(t, map[string]string{"bitcoin": body})
			f := newTestFetcher(t, srv.URL)

			_, err := f.FetchQuotes([]string{"BTC"})
			var fetchErr *model.FetchError
			require.ErrorAs(t, err, &fetchErr)
		})
	}
}

func TestFetchQuotesDeduplicatesAndFallsBackToLowercaseID(t *testing.T) {
	srv, hits := fakeCoinGecko(t, map[string]string{
		"bitcoin": coinJSON("bitcoin", "btc", 64000, 1e10),
		"pepe":    coinJSON("pepe", "pepe", 0.00001, 1e6),
	})
	f := newTestFetcher(t, srv.URL)

	set, err := f.FetchQuotes([]string{"BTC", "PEPE", "BTC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "PEPE"}, set.Symbols())
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))

	q, _ := set.Get("PEPE")
	assert.Equal(t, "PEPE", q.Name)
}

func TestFetchQuotesEmptySymbolFails(t *testing.T) {
	srv, _ := fakeCoinGecko(t, map[string]string{"bitcoin": coinJSON("bitcoin", "btc", 1, 1)})
	f := newTestFetcher(t, srv.URL)

	set, err := f.FetchQuotes([]string{"", "BTC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC"}, set.Symbols())
}

func TestMockFetcher(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m := &MockFetcher{
		Prices: map[string]float64{"BTC": 100},
		Fail:   map[string]bool{"ETH": true},
		Now:    func() time.Time { return now },
	}

	set, err := m.FetchQuotes([]string{"BTC", "ETH", "BTC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC"}, set.Symbols())
	q, _ := set.Get("BTC")
	assert.Equal(t, now, q.Timestamp)

	_, err = m.FetchQuotes([]string{"ETH"})
	var fetchErr *model.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 2, m.Calls)
}

func TestCollectorRefresh(t *testing.T) {
	m := &MockFetcher{
		Prices: map[string]float64{"BTC": 100, "ETH": 10},
		Names:  map[string]string{"BTC": "Bitcoin", "ETH": "Ethereum"},
		Fail:   map[string]bool{"SOL": true},
	}
	an := analyzer.New(analyzer.Options{SMAWindow: 2}, nil)
	c := NewCollector(m, an, []string{"BTC", "SOL", "ETH"}, insight.Options{MajorCoins: []string{"Bitcoin"}}, nil)

	prior := map[string][]model.AssetQuote{
		"BTC": {{Symbol: "BTC", Price: decimal.NewFromInt(90), Timestamp: time.Now().Add(-time.Hour)}},
	}
	snap, err := c.Refresh(prior)
	require.NoError(t, err)

	require.Len(t, snap.Results, 2)
	assert.Equal(t, "BTC", snap.Results[0].Symbol)
	assert.Equal(t, "ETH", snap.Results[1].Symbol)
	assert.Equal(t, model.TrendUp, snap.Results[0].Trend)
	assert.Equal(t, model.TrendFlat, snap.Results[1].Trend)
	_, ok := snap.Results[0].Metric(model.MetricSMA)
	assert.True(t, ok)

	assert.Equal(t, "mock", snap.Source)
	assert.Len(t, snap.Quotes, 2)
	require.Len(t, snap.Warnings, 1)
	assert.Contains(t, snap.Warnings[0], "SOL")
	assert.NotEmpty(t, snap.Insight.Narrative)
	assert.True(t, strings.Contains(snap.Insight.Narrative, "Bitcoin"))
}

func TestCollectorRefreshBatchFailure(t *testing.T) {
	m := &MockFetcher{Fail: map[string]bool{"BTC": true}}
	c := NewCollector(m, analyzer.New(analyzer.Options{}, nil), []string{"BTC"}, insight.Options{}, nil)

	snap, err := c.Refresh(nil)
	assert.Nil(t, snap)
	var fetchErr *model.FetchError
	assert.True(t, errors.As(err, &fetchErr))
}
