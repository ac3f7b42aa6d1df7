package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"relief-dashboard-api/pkg/chart"
	"relief-dashboard-api/pkg/models"
)

// 描画面ID
const (
	DemandChartID = "demandChart"
	RiskGaugeID   = "riskGauge"
)

// Dashboard はページ1回分のグラフ描画をまとめます。
type Dashboard struct {
	doc      *chart.Document
	engine   chart.Engine
	renderer *Renderer
}

// NewDashboard はエンジンにフォント既定値を一度だけ設定してからダッシュボードを組み立てます。
func NewDashboard(doc *chart.Document, engine chart.Engine, defaults chart.Defaults, observer RenderObserver) *Dashboard {
	engine.SetDefaults(defaults)
	return &Dashboard{
		doc:      doc,
		engine:   engine,
		renderer: NewRenderer(doc, engine, observer),
	}
}

// Renderer 内部のレンダラー
func (d *Dashboard) Renderer() *Renderer {
	return d.renderer
}

// Document 描画先ドキュメント
func (d *Dashboard) Document() *chart.Document {
	return d.doc
}

// Ready はページ準備完了時に一度だけ呼ばれます。
// 需要グラフの描画面が無いページ、またはペイロードが無い場合は何もしません。
func (d *Dashboard) Ready(mlData *models.MLData) {
	if _, ok := d.doc.Surface(DemandChartID); !ok {
		return
	}
	if mlData == nil {
		return
	}
	d.InitPredictionCharts(mlData)
}

// InitPredictionCharts はペイロードにあるグラフだけを描画します。片方が欠けてももう片方は描画します。
func (d *Dashboard) InitPredictionCharts(mlData *models.MLData) {
	if mlData == nil {
		return
	}
	if mlData.DemandPredictions != nil {
		d.renderer.RenderDemandChart(DemandChartID, mlData.DemandPredictions)
	}
	if ra := mlData.RiskAssessment; ra != nil {
		d.renderer.RenderRiskGauge(RiskGaugeID, ra.RiskScore, ra.RiskLevel)
	}
}

// RenderedSurface 描画済みの描画面
type RenderedSurface struct {
	ID     string     `json:"id"`
	Kind   chart.Kind `json:"kind"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	PNG    []byte     `json:"png,omitempty"`
}

// DashboardResult は描画結果のスナップショットです。
type DashboardResult struct {
	Surfaces []RenderedSurface       `json:"surfaces"`
	Overlays []*chart.Overlay        `json:"overlays"`
	Configs  map[string]chart.Config `json:"configs"`
}

// Result は描画済みの描画面・オーバーレイ・グラフ定義をまとめて返します。
func (d *Dashboard) Result() DashboardResult {
	result := DashboardResult{
		Surfaces: []RenderedSurface{},
		Overlays: d.doc.Overlays(),
		Configs:  make(map[string]chart.Config),
	}
	if result.Overlays == nil {
		result.Overlays = []*chart.Overlay{}
	}
	for _, s := range d.doc.Surfaces() {
		inst, ok := d.renderer.Instance(s.ID)
		if !ok {
			continue
		}
		rs := RenderedSurface{ID: s.ID, Kind: inst.Kind(), Width: s.Width, Height: s.Height}
		if data, err := s.PNG(); err == nil {
			rs.PNG = data
		} else if !errors.Is(err, chart.ErrNotRendered) {
			log.Printf("[Dashboard] PNGのエンコードに失敗しました (%s): %v", s.ID, err)
		}
		result.Surfaces = append(result.Surfaces, rs)
		result.Configs[s.ID] = inst.Config()
	}
	return result
}

// Sections ページに含めるセクション
type Sections struct {
	Demand bool
	Risk   bool
}

// AllSections 両方のセクション
var AllSections = Sections{Demand: true, Risk: true}

// ParseSections は "demand,risk" 形式を解釈します。空なら両方です。
func ParseSections(s string) (Sections, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AllSections, nil
	}
	var out Sections
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "demand":
			out.Demand = true
		case "risk":
			out.Risk = true
		case "":
		default:
			return Sections{}, fmt.Errorf("不明なセクションです: %q", part)
		}
	}
	return out, nil
}

// ChartLayout 描画面のサイズ
type ChartLayout struct {
	DemandWidth  int
	DemandHeight int
	GaugeSize    int
}

// PredictionChartService はリクエストごとにドキュメントとエンジンを用意してダッシュボードを描画します。
type PredictionChartService struct {
	defaults chart.Defaults
	layout   ChartLayout
	observer RenderObserver
}

// NewPredictionChartService 新しいサービスを作成
func NewPredictionChartService(defaults chart.Defaults, layout ChartLayout, observer RenderObserver) *PredictionChartService {
	return &PredictionChartService{defaults: defaults, layout: layout, observer: observer}
}

// Layout 描画面のサイズ
func (s *PredictionChartService) Layout() ChartLayout {
	return s.layout
}

// NewDocument はセクションに応じた描画面を持つドキュメントを作ります。
func (s *PredictionChartService) NewDocument(sections Sections) *chart.Document {
	doc := chart.NewDocument()
	if sections.Demand {
		doc.AddSurface(DemandChartID, s.layout.DemandWidth, s.layout.DemandHeight)
	}
	if sections.Risk {
		doc.AddSurface(RiskGaugeID, s.layout.GaugeSize, s.layout.GaugeSize)
	}
	return doc
}

// RenderRaster はPNGラスタとしてダッシュボードを描画します。
func (s *PredictionChartService) RenderRaster(mlData *models.MLData, sections Sections) *Dashboard {
	dashboard := NewDashboard(s.NewDocument(sections), chart.NewRasterEngine(), s.defaults, s.observer)
	dashboard.Ready(mlData)
	return dashboard
}

// ExportWorkbook はExcelのネイティブグラフとしてダッシュボードを書き出します。
func (s *PredictionChartService) ExportWorkbook(mlData *models.MLData, w io.Writer) error {
	engine := chart.NewWorkbookEngine()
	defer func() {
		if err := engine.Close(); err != nil {
			log.Printf("[PredictionChartService] ブックのクローズに失敗しました: %v", err)
		}
	}()

	dashboard := NewDashboard(s.NewDocument(AllSections), engine, s.defaults, s.observer)
	dashboard.Ready(mlData)

	if err := engine.WriteTo(w); err != nil {
		return fmt.Errorf("ブックの書き出しに失敗: %w", err)
	}
	return nil
}
