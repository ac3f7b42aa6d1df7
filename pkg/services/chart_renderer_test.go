package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief-dashboard-api/pkg/chart"
	"relief-dashboard-api/pkg/models"
)

func newTestRenderer(ids ...string) (*Renderer, *chart.Document, *fakeEngine, *recordingObserver) {
	doc := chart.NewDocument()
	for _, id := range ids {
		doc.AddSurface(id, 400, 300)
	}
	engine := newFakeEngine()
	observer := &recordingObserver{}
	return NewRenderer(doc, engine, observer), doc, engine, observer
}

func TestRiskLevelColor(t *testing.T) {
	testCases := []struct {
		level string
		want  string
	}{
		{"High", "#dc3545"},
		{"Medium", "#ffc107"},
		{"Low", "#28a745"},
		{"", "#28a745"},
		{"high", "#28a745"},
		{"Critical", "#28a745"},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			assert.Equal(t, tc.want, RiskLevelColor(tc.level))
		})
	}
}

func TestNewGaugeSpec(t *testing.T) {
	testCases := []struct {
		name      string
		score     float64
		level     string
		filled    float64
		remainder float64
		color     string
	}{
		{"typical", 72, "High", 72, 28, RiskHighColor},
		{"zero", 0, "Low", 0, 100, RiskLowColor},
		{"full", 100, "Medium", 100, 0, RiskMediumColor},
		{"above range", 120, "High", 120, -20, RiskHighColor},
		{"below range", -5, "Low", -5, 105, RiskLowColor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGaugeSpec(tc.score, tc.level)
			assert.Equal(t, tc.filled, g.FilledPercentage)
			assert.Equal(t, tc.remainder, g.Remainder)
			assert.Equal(t, GaugeMax, g.FilledPercentage+g.Remainder)
			assert.Equal(t, tc.color, g.Color)
		})
	}
}

func TestDemandChartConfig(t *testing.T) {
	cfg := DemandChartConfig(ChartSeries{
		Names:  []string{"Water", "Food"},
		Stock:  []float64{50, 120},
		Demand: []float64{80, 90},
	})

	assert.Equal(t, chart.KindBar, cfg.Kind)
	assert.Equal(t, []string{"Water", "Food"}, cfg.Data.Labels)
	require.Len(t, cfg.Data.Datasets, 2)

	stock, demand := cfg.Data.Datasets[0], cfg.Data.Datasets[1]
	assert.Equal(t, "Current Stock", stock.Label)
	assert.Equal(t, []float64{50, 120}, stock.Data)
	assert.Equal(t, StockFillColor, stock.ColorAt(1))
	assert.Equal(t, StockBorderColor, stock.BorderAt(0))
	assert.Equal(t, 1, stock.BorderWidth)

	assert.Equal(t, "Predicted Demand", demand.Label)
	assert.Equal(t, []float64{80, 90}, demand.Data)
	assert.Equal(t, DemandFillColor, demand.ColorAt(0))
	assert.Equal(t, DemandBorderColor, demand.BorderAt(0))

	opts := cfg.Options
	assert.True(t, opts.Responsive)
	assert.False(t, opts.MaintainAspectRatio)
	assert.True(t, opts.Plugins.Legend.Display)
	assert.Equal(t, "top", opts.Plugins.Legend.Position)
	assert.Equal(t, "Demand Forecasting Analysis", opts.Plugins.Title.Text)
	require.NotNil(t, opts.Scales)
	assert.True(t, opts.Scales.Y.BeginAtZero)
	assert.Equal(t, "Quantity", opts.Scales.Y.Title.Text)
	assert.Equal(t, "Items", opts.Scales.X.Title.Text)
}

func TestRiskGaugeConfig(t *testing.T) {
	cfg := RiskGaugeConfig(NewGaugeSpec(72, "High"))

	assert.Equal(t, chart.KindDoughnut, cfg.Kind)
	require.Len(t, cfg.Data.Datasets, 1)
	ds := cfg.Data.Datasets[0]
	assert.Equal(t, []float64{72, 28}, ds.Data)
	assert.Equal(t, []string{RiskHighColor, GaugeTrackColor}, ds.BackgroundColor)
	assert.Equal(t, 0, ds.BorderWidth)
	assert.Equal(t, "70%", cfg.Options.Cutout)
	assert.False(t, cfg.Options.Plugins.Legend.Display)
	assert.False(t, cfg.Options.Plugins.Tooltip.Enabled)
}

func TestRenderDemandChartEmptySet(t *testing.T) {
	r, _, engine, observer := newTestRenderer(DemandChartID)

	ok := r.RenderDemandChart(DemandChartID, models.NewPredictionSet())

	require.True(t, ok)
	require.Len(t, engine.created, 1)
	cfg := engine.created[0].cfg
	assert.Empty(t, cfg.Data.Labels)
	assert.Empty(t, cfg.Data.Datasets[0].Data)
	assert.Empty(t, cfg.Data.Datasets[1].Data)
	require.Len(t, observer.events, 1)
	assert.Empty(t, observer.events[0].Error)
}

func TestRenderDemandChartNilSet(t *testing.T) {
	r, _, engine, observer := newTestRenderer(DemandChartID)

	assert.False(t, r.RenderDemandChart(DemandChartID, nil))
	assert.Empty(t, engine.created)
	assert.Empty(t, observer.events)
}

func TestRenderOnAbsentSurface(t *testing.T) {
	r, doc, engine, observer := newTestRenderer()

	set := models.NewPredictionSet()
	set.Set("water", models.ItemPrediction{ItemName: "Water", CurrentStock: 1, PredictedDemand: 2})

	assert.False(t, r.RenderDemandChart(DemandChartID, set))
	assert.False(t, r.RenderRiskGauge(RiskGaugeID, 50, "Medium"))
	assert.Empty(t, engine.created)
	assert.Empty(t, observer.events)
	assert.Empty(t, doc.Overlays())
}

func TestRenderRiskGaugeComposesOverlay(t *testing.T) {
	r, doc, engine, _ := newTestRenderer(RiskGaugeID)

	require.True(t, r.RenderRiskGauge(RiskGaugeID, 72, "High"))

	require.Len(t, engine.created, 1)
	ds := engine.created[0].cfg.Data.Datasets[0]
	assert.Equal(t, []float64{72, 28}, ds.Data)
	assert.Equal(t, "#dc3545", ds.ColorAt(0))

	surface, _ := doc.Surface(RiskGaugeID)
	assert.Equal(t, "relative", surface.Parent.Position)

	overlays := surface.Parent.Overlays()
	require.Len(t, overlays, 1)
	o := overlays[0]
	assert.Equal(t, "72", o.Primary.Text)
	assert.Equal(t, "#dc3545", o.Primary.Color)
	assert.True(t, o.Primary.Bold)
	assert.Equal(t, "High", o.Secondary.Text)
	assert.Equal(t, "50%", o.Style["top"])
	assert.Equal(t, "50%", o.Style["left"])
	assert.Equal(t, "absolute", o.Style["position"])

	got, ok := r.Overlay(RiskGaugeID)
	require.True(t, ok)
	assert.Same(t, o, got)
}

func TestRenderRiskGaugeOutOfRange(t *testing.T) {
	r, doc, engine, _ := newTestRenderer(RiskGaugeID)

	require.True(t, r.RenderRiskGauge(RiskGaugeID, 120, "High"))

	assert.Equal(t, []float64{120, -20}, engine.created[0].cfg.Data.Datasets[0].Data)
	overlays := doc.Overlays()
	require.Len(t, overlays, 1)
	assert.Equal(t, "120", overlays[0].Primary.Text)
}

func TestRerenderReplacesInstanceAndOverlay(t *testing.T) {
	r, doc, engine, _ := newTestRenderer(RiskGaugeID)

	require.True(t, r.RenderRiskGauge(RiskGaugeID, 30, "Low"))
	require.True(t, r.RenderRiskGauge(RiskGaugeID, 80, "High"))

	require.Len(t, engine.created, 2)
	assert.Equal(t, 1, engine.created[0].destroyed)
	assert.Equal(t, 0, engine.created[1].destroyed)
	assert.Equal(t, 1, engine.live())

	overlays := doc.Overlays()
	require.Len(t, overlays, 1)
	assert.Equal(t, "80", overlays[0].Primary.Text)
	assert.Equal(t, "High", overlays[0].Secondary.Text)

	inst, ok := r.Instance(RiskGaugeID)
	require.True(t, ok)
	assert.Same(t, engine.created[1], inst)
}

func TestRenderFailureIsSilent(t *testing.T) {
	r, doc, engine, observer := newTestRenderer(RiskGaugeID)
	engine.err = errors.New("no context")

	assert.False(t, r.RenderRiskGauge(RiskGaugeID, 72, "High"))

	_, ok := r.Instance(RiskGaugeID)
	assert.False(t, ok)
	assert.Empty(t, doc.Overlays())
	require.Len(t, observer.events, 1)
	assert.Equal(t, RiskGaugeID, observer.events[0].SurfaceID)
	assert.Equal(t, chart.KindDoughnut, observer.events[0].Kind)
	assert.Equal(t, "no context", observer.events[0].Error)
}

func TestReleaseRemovesEverything(t *testing.T) {
	r, doc, engine, _ := newTestRenderer(RiskGaugeID)
	require.True(t, r.RenderRiskGauge(RiskGaugeID, 40, "Medium"))

	r.Release(RiskGaugeID)
	r.Release(RiskGaugeID)

	assert.Equal(t, 1, engine.created[0].destroyed)
	assert.Empty(t, doc.Overlays())
	_, ok := r.Overlay(RiskGaugeID)
	assert.False(t, ok)
}

func TestFormatScore(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{72, "72"},
		{72.5, "72.5"},
		{0, "0"},
		{-3, "-3"},
		{100, "100"},
		{math.Copysign(0, -1), "0"},
		{1e23, "1e+23"},
		{1.5e21, "1.5e+21"},
		{1e21, "1e+21"},
		{999999999999999900000, "999999999999999900000"},
		{1e-7, "1e-7"},
		{-2.5e-10, "-2.5e-10"},
		{0.000001, "0.000001"},
		{math.MaxFloat64, "1.7976931348623157e+308"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatScore(tc.in))
		})
	}
}
