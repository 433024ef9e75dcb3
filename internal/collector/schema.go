package collector

import (
	"fmt"
	"strings"
	"time"

	"CryptoDash/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// marketCoin is one row of the /coins/markets response.
type marketCoin struct {
	ID           string   `json:"id" validate:"required"`
	Symbol       string   `json:"symbol" validate:"required"`
	Name         string   `json:"name"`
	CurrentPrice *float64 `json:"current_price" validate:"required,gte=0"`
	TotalVolume  *float64 `json:"total_volume" validate:"required,gte=0"`
	LastUpdated  string   `json:"last_updated" validate:"required"`

	Change1h  *float64 `json:"price_change_percentage_1h_in_currency"`
	Change24h *float64 `json:"price_change_percentage_24h_in_currency"`
	Change7d  *float64 `json:"price_change_percentage_7d_in_currency"`
	Change14d *float64 `json:"price_change_percentage_14d_in_currency"`
	Change30d *float64 `json:"price_change_percentage_30d_in_currency"`
}

// toQuote validates the row and converts it into an AssetQuote for symbol.
func (c *marketCoin) toQuote(symbol, wantID string) (model.AssetQuote, error) {
	if err := validate.Struct(c); err != nil {
		return model.AssetQuote{}, fmt.Errorf("unexpected response shape: %s", describeValidation(err))
	}
	if wantID != "" && c.ID != wantID {
		return model.AssetQuote{}, fmt.Errorf("unexpected response shape: got coin %q, want %q", c.ID, wantID)
	}
	ts, err := time.Parse(time.RFC3339, c.LastUpdated)
	if err != nil {
		return model.AssetQuote{}, fmt.Errorf("unexpected response shape: last_updated: %w", err)
	}

	name := c.Name
	if name == "" {
		name = strings.ToUpper(c.Symbol)
	}
	q := model.AssetQuote{
		Symbol:    symbol,
		Name:      name,
		Price:     decimal.NewFromFloat(*c.CurrentPrice),
		Volume:    decimal.NewFromFloat(*c.TotalVolume),
		Timestamp: ts.UTC(),
	}

	changes := map[string]*float64{
		model.Window1h:  c.Change1h,
		model.Window24h: c.Change24h,
		model.Window7d:  c.Change7d,
		model.Window14d: c.Change14d,
		model.Window30d: c.Change30d,
	}
	for w, v := range changes {
		if v == nil {
			continue
		}
		if q.Changes == nil {
			q.Changes = make(map[string]float64, len(changes))
		}
		q.Changes[w] = *v
	}
	return q, nil
}

// describeValidation flattens validator errors into "field: tag" pairs.
func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
