package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"

	"relief-dashboard-api/pkg/chart"
	"relief-dashboard-api/pkg/models"
	"relief-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PredictionChartHandler 予測グラフハンドラー
type PredictionChartHandler struct {
	chartService *services.PredictionChartService
	defaults     chart.Defaults
}

// NewPredictionChartHandler 新しい予測グラフハンドラーを作成
func NewPredictionChartHandler(chartService *services.PredictionChartService, defaults chart.Defaults) *PredictionChartHandler {
	return &PredictionChartHandler{chartService: chartService, defaults: defaults}
}

// bindMLData はリクエストボディをMLDataとして読み込みます。
// ボディが空の場合はペイロード無し（nil）として扱います。
func (h *PredictionChartHandler) bindMLData(c *gin.Context) (*models.MLData, bool) {
	var data models.MLData
	if err := c.ShouldBindJSON(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, true
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "リクエストの解析に失敗しました: " + err.Error(),
		})
		return nil, false
	}
	return &data, true
}

func (h *PredictionChartHandler) sections(c *gin.Context) (services.Sections, bool) {
	sections, err := services.ParseSections(c.Query("sections"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.Sections{}, false
	}
	return sections, true
}

// RenderCharts はダッシュボードを描画し、PNG（base64）とオーバーレイ・系列データを返します。
func (h *PredictionChartHandler) RenderCharts(c *gin.Context) {
	mlData, ok := h.bindMLData(c)
	if !ok {
		return
	}
	sections, ok := h.sections(c)
	if !ok {
		return
	}

	dashboard := h.chartService.RenderRaster(mlData, sections)
	result := dashboard.Result()

	response := gin.H{
		"surfaces": result.Surfaces,
		"overlays": result.Overlays,
		"configs":  result.Configs,
	}
	if mlData != nil && mlData.DemandPredictions != nil {
		series := services.ExtractSeries(mlData.DemandPredictions)
		response["series"] = series
		response["summary"] = services.SummarizeSeries(series)
	}
	if mlData != nil && mlData.RiskAssessment != nil {
		response["gauge"] = services.NewGaugeSpec(mlData.RiskAssessment.RiskScore, mlData.RiskAssessment.RiskLevel)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
	})
}

// RenderSurface は指定した描画面だけをPNGで返します。
func (h *PredictionChartHandler) RenderSurface(c *gin.Context) {
	surfaceID := strings.TrimSuffix(c.Param("surface"), ".png")
	mlData, ok := h.bindMLData(c)
	if !ok {
		return
	}

	dashboard := h.chartService.RenderRaster(mlData, services.AllSections)
	surface, exists := dashboard.Document().Surface(surfaceID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "描画面が見つかりません: " + surfaceID})
		return
	}
	data, err := surface.PNG()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "グラフは描画されていません: " + surfaceID})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// RenderPage は両グラフを埋め込んだHTMLページを返します。
func (h *PredictionChartHandler) RenderPage(c *gin.Context) {
	mlData, ok := h.bindMLData(c)
	if !ok {
		return
	}
	sections, ok := h.sections(c)
	if !ok {
		return
	}

	dashboard := h.chartService.RenderRaster(mlData, sections)
	page := predictionPageData{
		Title:      "ML Predictions",
		FontFamily: template.CSS(h.defaults.FontFamily),
		FontColor:  template.CSS(h.defaults.FontColor),
	}
	headings := map[string]string{
		services.DemandChartID: "Demand Forecasting Analysis",
		services.RiskGaugeID:   "Risk Assessment",
	}
	for _, s := range dashboard.Document().Surfaces() {
		section := predictionPageSection{ID: s.ID, Heading: headings[s.ID], Width: s.Width, Height: s.Height, Alt: headings[s.ID]}
		if data, err := s.PNG(); err == nil {
			section.Image = dataURL(data)
		}
		if o, ok := dashboard.Renderer().Overlay(s.ID); ok {
			section.Alt = headings[s.ID] + ": " + o.Primary.Text + " " + o.Secondary.Text
		}
		page.Sections = append(page.Sections, section)
	}
	if mlData != nil && mlData.DemandPredictions != nil && sections.Demand {
		summary := services.SummarizeSeries(services.ExtractSeries(mlData.DemandPredictions))
		page.Summary = &summary
	}

	var buf bytes.Buffer
	if err := predictionPageTemplate.Execute(&buf, page); err != nil {
		log.Printf("[PredictionChartHandler] ページの生成に失敗しました: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ページの生成に失敗しました"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// ExportWorkbook はExcelのグラフ付きブックをダウンロードさせます。
func (h *PredictionChartHandler) ExportWorkbook(c *gin.Context) {
	mlData, ok := h.bindMLData(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.chartService.ExportWorkbook(mlData, &buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "ブックの作成に失敗しました: " + err.Error(),
		})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="predictions.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func dataURL(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
