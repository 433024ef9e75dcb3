package insight

import (
	"fmt"
	"math"
	"strings"

	"CryptoDash/internal/model"

	"github.com/dustin/go-humanize"
)

// NoDataMessage is the narrative used when a refresh produced no results.
const NoDataMessage = "No data available from the market data API. Please try again later."

const closing = "Volatility remains a defining characteristic of the current crypto landscape, so traders should stay vigilant."

// Options name the coins treated specially by the narrative. Entries match
// either the display name or the ticker, case-insensitively.
type Options struct {
	MajorCoins  []string
	Stablecoins []string
}

// FormatUSD renders a price the way the dashboard shows it, e.g. "$64,012.50".
func FormatUSD(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// Generate builds the narrative for one refresh cycle from the 24h change
// reported for each coin. Coins without a reported 24h change count as
// unchanged in the text but are ignored when picking the gainer and loser.
func Generate(results []model.AnalysisResult, opts Options) model.Insight {
	if len(results) == 0 {
		return model.Insight{Narrative: NoDataMessage}
	}

	var majors, stables, negative []string
	var out model.Insight
	metric := model.ChangeMetric(model.Window24h)

	for _, r := range results {
		change, reported := r.Metric(metric)
		price := FormatUSD(r.Metrics[model.MetricPrice])
		name := displayName(r)

		switch {
		case matches(r, opts.MajorCoins):
			majors = append(majors, describeMajor(name, price, change))
		case matches(r, opts.Stablecoins):
			stables = append(stables, fmt.Sprintf("%s remains relatively stable at %s", name, price))
		case change < 0:
			negative = append(negative, name)
		}

		if !reported {
			continue
		}
		if out.Gainer == nil || change > out.Gainer.Change {
			out.Gainer = &model.Mover{Symbol: r.Symbol, Name: name, Change: change}
		}
		if out.Loser == nil || change < out.Loser.Change {
			out.Loser = &model.Mover{Symbol: r.Symbol, Name: name, Change: change}
		}
	}

	var b strings.Builder
	b.WriteString("Insight: ")
	if len(majors) > 0 {
		b.WriteString(strings.Join(majors, " "))
		b.WriteString(", reflecting recent market movements. ")
	}
	if len(stables) > 0 {
		b.WriteString("Stablecoins like ")
		b.WriteString(strings.Join(stables, ", "))
		b.WriteString(", indicating a flight to safety among investors. ")
	}
	if out.Gainer != nil {
		b.WriteString(fmt.Sprintf("The biggest 24h gainer is %s (%.2f%%) and the biggest 24h loser is %s (%.2f%%). ",
			out.Gainer.Name, out.Gainer.Change, out.Loser.Name, out.Loser.Change))
	}
	if len(negative) > 0 {
		b.WriteString(strings.Join(negative, ", "))
		b.WriteString(" also reflect negative momentum, suggesting broader market hesitancy. ")
	}
	b.WriteString(closing)

	out.Narrative = b.String()
	return out
}

func describeMajor(name, price string, change float64) string {
	switch {
	case change < 0 && math.Abs(change) < 2:
		return fmt.Sprintf("%s has dipped slightly to %s", name, price)
	case change < 0:
		return fmt.Sprintf("%s has dropped %.2f%% to %s", name, math.Abs(change), price)
	case change > 0:
		return fmt.Sprintf("%s has risen %.2f%% to %s", name, change, price)
	default:
		return fmt.Sprintf("%s remains stable at %s", name, price)
	}
}

func displayName(r model.AnalysisResult) string {
	if r.Name != "" {
		return r.Name
	}
	return r.Symbol
}

func matches(r model.AnalysisResult, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(n, r.Name) || strings.EqualFold(n, r.Symbol) {
			return true
		}
	}
	return false
}
