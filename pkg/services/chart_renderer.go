package services

import (
	"log"
	"time"

	"relief-dashboard-api/pkg/chart"
	"relief-dashboard-api/pkg/models"
)

// 系列・リスクレベルの配色
const (
	StockFillColor    = "rgba(54, 162, 235, 0.6)"
	StockBorderColor  = "rgba(54, 162, 235, 1)"
	DemandFillColor   = "rgba(255, 206, 86, 0.6)"
	DemandBorderColor = "rgba(255, 206, 86, 1)"

	RiskHighColor   = "#dc3545"
	RiskMediumColor = "#ffc107"
	RiskLowColor    = "#28a745"
	GaugeTrackColor = "#e9ecef"
)

const (
	// GaugeMax ゲージの最大値
	GaugeMax = 100.0

	// GaugeCutout ゲージの穴の大きさ（半径比）
	GaugeCutout = "70%"
)

// RiskLevelColor はリスクレベルに対応する色を返します。大文字小文字は区別し、未知の値は Low と同じ緑です。
func RiskLevelColor(level string) string {
	switch level {
	case "High":
		return RiskHighColor
	case "Medium":
		return RiskMediumColor
	default:
		return RiskLowColor
	}
}

// GaugeSpec ゲージの塗り分け
type GaugeSpec struct {
	FilledPercentage float64 `json:"filledPercentage"`
	Remainder        float64 `json:"remainder"`
	Color            string  `json:"color"`
}

// NewGaugeSpec はスコアをそのまま塗り部分に使います。0〜100 の範囲外でも丸めません。
func NewGaugeSpec(riskScore float64, riskLevel string) GaugeSpec {
	return GaugeSpec{
		FilledPercentage: riskScore,
		Remainder:        GaugeMax - riskScore,
		Color:            RiskLevelColor(riskLevel),
	}
}

// DemandChartConfig 在庫と予測需要のグループ棒グラフ定義
func DemandChartConfig(series ChartSeries) chart.Config {
	return chart.Config{
		Kind: chart.KindBar,
		Data: chart.Data{
			Labels: series.Names,
			Datasets: []chart.Dataset{
				{
					Label:           "Current Stock",
					Data:            series.Stock,
					BackgroundColor: []string{StockFillColor},
					BorderColor:     []string{StockBorderColor},
					BorderWidth:     1,
				},
				{
					Label:           "Predicted Demand",
					Data:            series.Demand,
					BackgroundColor: []string{DemandFillColor},
					BorderColor:     []string{DemandBorderColor},
					BorderWidth:     1,
				},
			},
		},
		Options: chart.Options{
			Responsive:          true,
			MaintainAspectRatio: false,
			Plugins: chart.PluginOptions{
				Legend:  chart.LegendOptions{Display: true, Position: "top"},
				Title:   chart.TitleOptions{Display: true, Text: "Demand Forecasting Analysis"},
				Tooltip: chart.TooltipOptions{Enabled: true},
			},
			Scales: &chart.Scales{
				X: chart.Axis{Title: chart.AxisTitle{Display: true, Text: "Items"}},
				Y: chart.Axis{BeginAtZero: true, Title: chart.AxisTitle{Display: true, Text: "Quantity"}},
			},
		},
	}
}

// RiskGaugeConfig ドーナツをゲージとして使う定義
func RiskGaugeConfig(g GaugeSpec) chart.Config {
	return chart.Config{
		Kind: chart.KindDoughnut,
		Data: chart.Data{
			Datasets: []chart.Dataset{{
				Data:            []float64{g.FilledPercentage, g.Remainder},
				BackgroundColor: []string{g.Color, GaugeTrackColor},
				BorderWidth:     0,
			}},
		},
		Options: chart.Options{
			Responsive:          true,
			MaintainAspectRatio: false,
			Cutout:              GaugeCutout,
			Plugins: chart.PluginOptions{
				Legend:  chart.LegendOptions{Display: false},
				Tooltip: chart.TooltipOptions{Enabled: false},
			},
		},
	}
}

// RenderEvent はグラフ1枚の描画結果です。
type RenderEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SurfaceID string        `json:"surfaceId"`
	Kind      chart.Kind    `json:"kind"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// RenderObserver は描画結果の通知先です（モニタリングなど）。
type RenderObserver interface {
	RecordRender(event RenderEvent)
}

// Renderer はグラフ定義を組み立ててエンジンに渡します。
// 描画面IDごとにインスタンスとオーバーレイを保持し、再描画時は前回分を破棄してから作り直します。
// 並行利用はできません。
type Renderer struct {
	doc        *chart.Document
	engine     chart.Engine
	compositor *OverlayCompositor
	observer   RenderObserver

	instances map[string]chart.Instance
	overlays  map[string]*chart.Overlay
}

// NewRenderer 新しいレンダラーを作成。observer は nil でもよい
func NewRenderer(doc *chart.Document, engine chart.Engine, observer RenderObserver) *Renderer {
	return &Renderer{
		doc:        doc,
		engine:     engine,
		compositor: NewOverlayCompositor(engine),
		observer:   observer,
		instances:  make(map[string]chart.Instance),
		overlays:   make(map[string]*chart.Overlay),
	}
}

// RenderDemandChart は需要比較グラフを描画します。
// 描画面が無い、または予測セットが nil の場合は何もしません。
func (r *Renderer) RenderDemandChart(surfaceID string, set *models.PredictionSet) bool {
	surface, ok := r.doc.Surface(surfaceID)
	if !ok || set == nil {
		return false
	}
	_, ok = r.instantiate(surface, DemandChartConfig(ExtractSeries(set)))
	return ok
}

// RenderRiskGauge はリスクゲージを描画し、中央にスコアとレベルを重ねます。
// 描画面が無い場合は何もしません。
func (r *Renderer) RenderRiskGauge(surfaceID string, riskScore float64, riskLevel string) bool {
	surface, ok := r.doc.Surface(surfaceID)
	if !ok {
		return false
	}
	gauge := NewGaugeSpec(riskScore, riskLevel)
	if _, ok := r.instantiate(surface, RiskGaugeConfig(gauge)); !ok {
		return false
	}
	r.overlays[surfaceID] = r.compositor.Compose(surface, riskScore, riskLevel, gauge.Color)
	return true
}

// Instance 描画面に結び付いているインスタンス
func (r *Renderer) Instance(surfaceID string) (chart.Instance, bool) {
	inst, ok := r.instances[surfaceID]
	return inst, ok
}

// Overlay 描画面に重ねているオーバーレイ
func (r *Renderer) Overlay(surfaceID string) (*chart.Overlay, bool) {
	o, ok := r.overlays[surfaceID]
	return o, ok
}

// Release は描画面のインスタンスとオーバーレイを破棄します。
func (r *Renderer) Release(surfaceID string) {
	if inst, ok := r.instances[surfaceID]; ok {
		inst.Destroy()
		delete(r.instances, surfaceID)
	}
	if o, ok := r.overlays[surfaceID]; ok {
		r.doc.RemoveOverlay(o)
		delete(r.overlays, surfaceID)
	}
}

func (r *Renderer) instantiate(surface *chart.Surface, cfg chart.Config) (chart.Instance, bool) {
	r.Release(surface.ID)

	start := time.Now()
	inst, err := r.engine.New(surface, cfg)
	event := RenderEvent{
		Timestamp: start,
		SurfaceID: surface.ID,
		Kind:      cfg.Kind,
		Duration:  time.Since(start),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if r.observer != nil {
		r.observer.RecordRender(event)
	}

	if err != nil {
		// 描画失敗は呼び出し元には返さない（グラフが表示されないだけ）
		log.Printf("[Renderer] グラフの描画に失敗しました (%s): %v", surface.ID, err)
		return nil, false
	}
	r.instances[surface.ID] = inst
	return inst, true
}
