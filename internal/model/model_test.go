package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuoteSetKeepsInsertionOrder(t *testing.T) {
	s := NewQuoteSet()
	s.Put(AssetQuote{Symbol: "ETH", Price: decimal.NewFromInt(3000)})
	s.Put(AssetQuote{Symbol: "BTC", Price: decimal.NewFromInt(64000)})
	s.Put(AssetQuote{Symbol: "ETH", Price: decimal.NewFromInt(3100)})

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"ETH", "BTC"}, s.Symbols())

	q, ok := s.Get("ETH")
	assert.True(t, ok)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(3100)))

	quotes := s.Quotes()
	assert.Equal(t, "ETH", quotes[0].Symbol)
	assert.Equal(t, "BTC", quotes[1].Symbol)
}

func TestQuoteSetNil(t *testing.T) {
	var s *QuoteSet
	_, ok := s.Get("BTC")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Nil(t, s.Symbols())
	assert.Nil(t, s.Quotes())
}

func TestAnalysisResultMetric(t *testing.T) {
	r := AnalysisResult{Metrics: map[string]float64{MetricPrice: 1}}
	v, ok := r.Metric(MetricPrice)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	_, ok = r.Metric(ChangeMetric(Window24h))
	assert.False(t, ok)
	assert.Equal(t, "change_24h", ChangeMetric(Window24h))
}

func TestErrors(t *testing.T) {
	cause := errors.New("timeout")
	err := &FetchError{Symbol: "BTC", Err: cause}
	assert.Equal(t, "fetch BTC: timeout", err.Error())
	assert.ErrorIs(t, err, cause)

	batch := &FetchError{Err: errors.Join(err)}
	assert.Contains(t, batch.Error(), "fetch failed")

	var target *FetchError
	assert.ErrorAs(t, batch, &target)

	assert.Equal(t, "configuration error: data_source.api_key is required",
		(&ConfigurationError{Field: "data_source.api_key", Reason: "is required"}).Error())
	assert.Equal(t, "analyze BTC: negative price", (&AnalysisError{Symbol: "BTC", Reason: "negative price"}).Error())
}
