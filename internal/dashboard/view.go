package dashboard

import (
	"fmt"
	"html/template"

	"CryptoDash/internal/insight"
	"CryptoDash/internal/model"
	"CryptoDash/internal/notifier"
)

type rowView struct {
	Symbol    string
	Name      string
	Price     string
	Volume    string
	Refresh   string
	Change1h  string
	Change24h string
	Change7d  string
	Trend     string
	Class     string
	Highlight string
}

type pageView struct {
	Error     string
	Source    string
	UpdatedAt string
	Rows      []rowView
	Warnings  []string
	Narrative string
	Gainer    *model.Mover
	Loser     *model.Mover
}

func newPageView(snap *model.Snapshot, err error) pageView {
	v := pageView{Error: UserMessage(err)}
	if snap == nil {
		return v
	}
	v.Source = snap.Source
	v.UpdatedAt = snap.CreatedAt.Format("2006-01-02 15:04:05 MST")
	v.Warnings = snap.Warnings
	v.Narrative = snap.Insight.Narrative
	v.Gainer = snap.Insight.Gainer
	v.Loser = snap.Insight.Loser

	for _, r := range snap.Results {
		row := rowView{
			Symbol:    r.Symbol,
			Name:      r.Name,
			Price:     insight.FormatUSD(r.Metrics[model.MetricPrice]),
			Volume:    insight.FormatUSD(r.Metrics[model.MetricVolume]),
			Refresh:   notifier.FormatChange(r, model.MetricPctChange),
			Change1h:  notifier.FormatChange(r, model.ChangeMetric(model.Window1h)),
			Change24h: notifier.FormatChange(r, model.ChangeMetric(model.Window24h)),
			Change7d:  notifier.FormatChange(r, model.ChangeMetric(model.Window7d)),
			Trend:     string(r.Trend),
			Class:     changeClass(r),
		}
		switch {
		case v.Gainer != nil && v.Gainer.Symbol == r.Symbol:
			row.Highlight = "gainer"
		case v.Loser != nil && v.Loser.Symbol == r.Symbol:
			row.Highlight = "loser"
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

// changeClass colours a row by its 24h change, falling back to the trend.
func changeClass(r model.AnalysisResult) string {
	if c, ok := r.Metric(model.ChangeMetric(model.Window24h)); ok {
		switch {
		case c > 0:
			return "up"
		case c < 0:
			return "down"
		}
		return "flat"
	}
	return string(r.Trend)
}

var pageFuncs = template.FuncMap{
	"signed": func(v float64) string { return fmt.Sprintf("%+.2f%%", v) },
}

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Crypto Market Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #fafafa; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { padding: .4rem .6rem; border-bottom: 1px solid #ddd; text-align: right; }
th:first-child, td:first-child, th:nth-child(2), td:nth-child(2) { text-align: left; }
tr.up td.change { color: #1a7f37; }
tr.down td.change { color: #cf222e; }
tr.gainer { background: #e6f4ea; }
tr.loser { background: #fdecea; }
.error { color: #cf222e; font-weight: bold; }
.warnings { color: #9a6700; }
.insight { background: #fff; border: 1px solid #ddd; padding: 1rem; margin-top: 1.5rem; }
</style>
</head>
<body>
<h1>Crypto Market Dashboard</h1>
<form method="post" action="/refresh"><button type="submit">Refresh</button></form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .UpdatedAt}}<p>Last updated {{.UpdatedAt}} from {{.Source}}</p>{{end}}
{{if .Rows}}
<table>
<thead><tr><th>Symbol</th><th>Name</th><th>Price (USD)</th><th>Volume (24h)</th><th>Since refresh</th><th>1h</th><th>24h</th><th>7d</th><th>Trend</th></tr></thead>
<tbody>
{{range .Rows}}<tr class="{{.Class}} {{.Highlight}}"><td>{{.Symbol}}</td><td>{{.Name}}</td><td>{{.Price}}</td><td>{{.Volume}}</td><td class="change">{{.Refresh}}</td><td class="change">{{.Change1h}}</td><td class="change">{{.Change24h}}</td><td class="change">{{.Change7d}}</td><td>{{.Trend}}</td></tr>
{{end}}</tbody>
</table>
{{else}}<p>No market data to display.</p>{{end}}
{{if .Warnings}}<ul class="warnings">{{range .Warnings}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Narrative}}
<div class="insight">
<h2>Market Insights</h2>
{{if .Gainer}}<p>Top gainer: {{.Gainer.Name}} ({{.Gainer.Symbol}}) {{signed .Gainer.Change}}</p>{{end}}
{{if .Loser}}<p>Top loser: {{.Loser.Name}} ({{.Loser.Symbol}}) {{signed .Loser.Change}}</p>{{end}}
<p>{{.Narrative}}</p>
</div>
{{end}}
<p><a href="/history.csv">Download history (CSV)</a> · <a href="/api/analysis">JSON</a></p>
</body>
</html>
`
