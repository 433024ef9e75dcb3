package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CryptoDash/internal/config"
	"CryptoDash/internal/metrics"
	"CryptoDash/internal/model"

	"go.uber.org/zap"
)

// CoinGeckoFetcher implements Fetcher using the CoinGecko /coins/markets API.
type CoinGeckoFetcher struct {
	cfg       config.DataSource
	client    *http.Client
	symbolMap map[string]model.Asset // ticker -> asset
	logger    *zap.Logger
	now       func() time.Time
}

// NewCoinGeckoFetcher creates a fetcher for the given assets. It fails with a
// *model.ConfigurationError when no API key is configured.
func NewCoinGeckoFetcher(cfg config.DataSource, assets []model.Asset, logger *zap.Logger) (*CoinGeckoFetcher, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &model.ConfigurationError{Field: "data_source.api_key", Reason: "is required"}
	}
	if cfg.BaseURL == "" {
		return nil, &model.ConfigurationError{Field: "data_source.base_url", Reason: "is required"}
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "x-cg-demo-api-key"
	}
	if cfg.VsCurrency == "" {
		cfg.VsCurrency = "usd"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	symbolMap := make(map[string]model.Asset, len(assets))
	for _, a := range assets {
		symbolMap[a.Symbol] = a
	}

	return &CoinGeckoFetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		symbolMap: symbolMap,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// coinID maps a ticker to the upstream coin id; unknown tickers are tried
// lower-cased.
func (f *CoinGeckoFetcher) coinID(symbol string) string {
	if a, ok := f.symbolMap[symbol]; ok && a.ID != "" {
		return a.ID
	}
	return strings.ToLower(symbol)
}

// FetchQuotes fetches each symbol in turn. Duplicate symbols are fetched once.
func (f *CoinGeckoFetcher) FetchQuotes(symbols []string) (*model.QuoteSet, error) {
	if f == nil || strings.TrimSpace(f.cfg.APIKey) == "" {
		return nil, &model.ConfigurationError{Field: "data_source.api_key", Reason: "is required"}
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

		q, err := f.fetchSymbol(sym)
		if err != nil {
			ferr := &model.FetchError{Symbol: sym, Err: err}
			f.logger.Warn("symbol fetch failed, omitting", zap.String("symbol", sym), zap.Error(err))
			failures = append(failures, ferr)
			continue
		}
		set.Put(q)
	}

	if attempted > 0 && set.Len() == 0 {
		return nil, &model.FetchError{Err: errors.Join(failures...)}
	}
	return set, nil
}

func (f *CoinGeckoFetcher) fetchSymbol(symbol string) (model.AssetQuote, error) {
	if strings.TrimSpace(symbol) == "" {
		return model.AssetQuote{}, errors.New("empty symbol")
	}
	start := f.now()
	q, err := f.fetchMarket(symbol)
	metrics.FetchLatency.WithLabelValues(f.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FetchRequests.WithLabelValues(f.Name(), "error").Inc()
		return model.AssetQuote{}, err
	}
	metrics.FetchRequests.WithLabelValues(f.Name(), "ok").Inc()
	if a, ok := f.symbolMap[symbol]; ok && a.Name != "" {
		q.Name = a.Name
	}
	return q, nil
}

func (f *CoinGeckoFetcher) fetchMarket(symbol string) (model.AssetQuote, error) {
	id := f.coinID(symbol)
	params := url.Values{}
	params.Set("vs_currency", f.cfg.VsCurrency)
	params.Set("ids", id)
	params.Set("price_change_percentage", strings.Join(model.ChangeWindows, ","))
	u := f.cfg.BaseURL + "/coins/markets?" + params.Encode()

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return model.AssetQuote{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(f.cfg.APIKeyHeader, f.cfg.APIKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return model.AssetQuote{}, fmt.Errorf("coingecko request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.AssetQuote{}, fmt.Errorf("coingecko read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.AssetQuote{}, fmt.Errorf("coingecko: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var coins []marketCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return model.AssetQuote{}, fmt.Errorf("coingecko decode: %w", err)
	}
	if len(coins) == 0 {
		return model.AssetQuote{}, fmt.Errorf("coingecko: no data returned for %q", id)
	}
	return coins[0].toQuote(symbol, id)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
