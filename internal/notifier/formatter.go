package notifier

import (
	"fmt"
	"html"
	"strings"

	"CryptoDash/internal/insight"
	"CryptoDash/internal/model"
)

// FormatChange renders a percentage metric, or "N/A" when it is absent.
func FormatChange(r model.AnalysisResult, metric string) string {
	v, ok := r.Metric(metric)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%+.2f%%", v)
}

func trendIcon(t model.Trend) string {
	switch t {
	case model.TrendUp:
		return "▲"
	case model.TrendDown:
		return "▼"
	default:
		return "•"
	}
}

// FormatTable renders the snapshot as a plain-text table for terminals.
func FormatTable(snap *model.Snapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("CryptoDash | %s | source: %s\n\n", snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.Source))
	b.WriteString(fmt.Sprintf("%-8s %-20s %16s %9s %9s %9s %9s %9s %9s %-5s\n",
		"Symbol", "Name", "Price (USD)", "Refresh", "1h", "24h", "7d", "14d", "30d", "Trend"))
	for _, r := range snap.Results {
		b.WriteString(fmt.Sprintf("%-8s %-20s %16s %9s %9s %9s %9s %9s %9s %-5s\n",
			r.Symbol,
			r.Name,
			insight.FormatUSD(r.Metrics[model.MetricPrice]),
			FormatChange(r, model.MetricPctChange),
			FormatChange(r, model.ChangeMetric(model.Window1h)),
			FormatChange(r, model.ChangeMetric(model.Window24h)),
			FormatChange(r, model.ChangeMetric(model.Window7d)),
			FormatChange(r, model.ChangeMetric(model.Window14d)),
			FormatChange(r, model.ChangeMetric(model.Window30d)),
			string(r.Trend),
		))
	}

	if len(snap.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range snap.Warnings {
			b.WriteString("  - " + w + "\n")
		}
	}

	b.WriteString("\nMarket Insights:\n\n")
	b.WriteString(snap.Insight.Narrative)
	b.WriteString("\n")
	return b.String()
}

// FormatReport formats the snapshot into a Telegram HTML message.
func FormatReport(snap *model.Snapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>CryptoDash</b> | %s\n\n", snap.CreatedAt.Format("2006-01-02 15:04")))
	for _, r := range snap.Results {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s (24h %s)\n",
			trendIcon(r.Trend),
			html.EscapeString(r.Symbol),
			insight.FormatUSD(r.Metrics[model.MetricPrice]),
			FormatChange(r, model.ChangeMetric(model.Window24h)),
		))
	}

	if len(snap.Warnings) > 0 {
		b.WriteString("\n⚠️ ")
		b.WriteString(html.EscapeString(strings.Join(snap.Warnings, " ")))
		b.WriteString("\n")
	}

	b.WriteString("\n🤖 <b>Market Insights</b>\n")
	b.WriteString(html.EscapeString(snap.Insight.Narrative))
	return b.String()
}

// FormatError turns a refresh failure into a message for the user.
func FormatError(err error) string {
	return "❌ Refresh failed: " + html.EscapeString(err.Error())
}
