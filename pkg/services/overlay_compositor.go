package services

import (
	"log"
	"math"
	"strconv"
	"strings"

	"relief-dashboard-api/pkg/chart"
)

const (
	overlayPrimarySize   = 32
	overlaySecondarySize = 14
	overlaySecondaryText = "#6c757d"
)

// OverlayCompositor はゲージ中央のスコア表示を合成します。
// ドーナツグラフには中央ラベルの機能が無いため、描画面の親コンテナに要素を重ねます。
type OverlayCompositor struct {
	engine chart.Engine
}

// NewOverlayCompositor 新しいコンポジターを作成
func NewOverlayCompositor(engine chart.Engine) *OverlayCompositor {
	return &OverlayCompositor{engine: engine}
}

// Compose は親コンテナを位置決めの基準にしたうえで、スコアとレベルの2行を中央に重ねます。
// 呼ぶたびに要素を追加します。置き換えは Renderer 側で行います。
func (oc *OverlayCompositor) Compose(surface *chart.Surface, riskScore float64, riskLevel, color string) *chart.Overlay {
	container := surface.Parent
	container.Position = "relative"

	overlay := &chart.Overlay{
		SurfaceID: surface.ID,
		Primary: chart.TextLine{
			Text:     FormatScore(riskScore),
			Color:    color,
			FontSize: overlayPrimarySize,
			Bold:     true,
		},
		Secondary: chart.TextLine{
			Text:     riskLevel,
			Color:    overlaySecondaryText,
			FontSize: overlaySecondarySize,
		},
		Style: map[string]string{
			"position":       "absolute",
			"top":            "50%",
			"left":           "50%",
			"transform":      "translate(-50%, -50%)",
			"text-align":     "center",
			"pointer-events": "none",
		},
	}
	container.Append(overlay)

	// ラスタなど描画面に直接描けるエンジンでは同じ内容を焼き込む
	if c, ok := oc.engine.(chart.Compositor); ok {
		if err := c.Composite(surface, overlay); err != nil {
			log.Printf("[OverlayCompositor] オーバーレイの合成に失敗しました (%s): %v", surface.ID, err)
		}
	}
	return overlay
}

// FormatScore はスコアをブラウザの数値表記と同じ形にします
// （72 → "72", 72.5 → "72.5", 1e23 → "1e+23", 1e-7 → "1e-7"）。
func FormatScore(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		// -0 も "0"
		return "0"
	}
	if abs := math.Abs(v); abs >= 1e21 || abs < 1e-6 {
		return exponentNotation(v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// exponentNotation は指数部の先頭0を除いた "1.5e+23" 形式を返します。
func exponentNotation(v float64) string {
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok || len(exp) < 2 {
		return s
	}
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + exp[:1] + digits
}
