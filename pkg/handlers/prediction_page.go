package handlers

import (
	"html/template"
	"strconv"

	"relief-dashboard-api/pkg/services"
)

var predictionPageTemplate = template.Must(template.New("predict").Funcs(template.FuncMap{
	"percent": func(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" },
	"number":  func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}).Parse(predictionPageHTML))

const predictionPageHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: {{.FontFamily}}; color: {{.FontColor}}; margin: 0 auto; max-width: 1200px; padding: 1rem; }
.charts { display: grid; grid-template-columns: 2fr 1fr; gap: 1rem; }
@media (max-width: 768px) { .charts { grid-template-columns: 1fr; } }
.chart-box { border: 1px solid #dee2e6; border-radius: 8px; padding: 1rem; }
.chart-box h3 { font-size: .875rem; margin: 0 0 .5rem; }
.chart-container { position: relative; width: 100%; }
.chart-container img { display: block; width: 100%; height: auto; }
.empty { color: #6c757d; font-size: .875rem; }
table.shortfalls { border-collapse: collapse; margin-top: 1rem; font-size: .875rem; }
table.shortfalls th, table.shortfalls td { border-bottom: 1px solid #dee2e6; padding: .25rem .75rem; text-align: right; }
table.shortfalls th:first-child, table.shortfalls td:first-child { text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<section class="charts">
{{- range .Sections}}
  <div class="chart-box" id="{{.ID}}-section">
    <h3>{{.Heading}}</h3>
    {{- if .Image}}
    <div class="chart-container">
      <img id="{{.ID}}" src="{{.Image}}" width="{{.Width}}" height="{{.Height}}" alt="{{.Alt}}">
    </div>
    {{- else}}
    <p class="empty">データがありません</p>
    {{- end}}
  </div>
{{- end}}
</section>
{{- with .Summary}}
<section class="summary" id="demandSummary">
  <p>在庫充足率: {{percent .CoverageRatio}}（在庫 {{number .TotalStock}} / 予測需要 {{number .TotalDemand}}）</p>
  {{- if .Shortfalls}}
  <table class="shortfalls">
    <thead><tr><th>品目</th><th>現在庫</th><th>予測需要</th><th>不足数</th></tr></thead>
    <tbody>
    {{- range .Shortfalls}}
      <tr><td>{{.Name}}</td><td>{{number .Stock}}</td><td>{{number .Demand}}</td><td>{{number .Gap}}</td></tr>
    {{- end}}
    </tbody>
  </table>
  {{- end}}
</section>
{{- end}}
</body>
</html>
`

type predictionPageData struct {
	Title      string
	FontFamily template.CSS
	FontColor  template.CSS
	Sections   []predictionPageSection
	Summary    *services.SeriesSummary
}

type predictionPageSection struct {
	ID      string
	Heading string
	Image   template.URL
	Width   int
	Height  int
	Alt     string
}
