package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	legendSwatch  = 12
	legendGap     = 16
	legendTop     = 34
	defaultCutout = 0.5

	defaultFontSize = 12.0
)

var defaultFontColor = drawing.Color{R: 0x49, G: 0x50, B: 0x57, A: 255}

// RasterEngine は go-chart でグラフをPNGラスタに描画するエンジンです。
type RasterEngine struct {
	defaults   Defaults
	background drawing.Color
}

// NewRasterEngine はフォント既定値が未設定のエンジンを作成します。
// 既定値は SetDefaults で一度だけ設定し、未設定の項目は描画時に補います。
func NewRasterEngine() *RasterEngine {
	return &RasterEngine{background: drawing.ColorWhite}
}

// SetDefaults フォント既定値を設定
// go-chart は埋め込みフォントしか使えないため FontFamily は記録のみです。
func (e *RasterEngine) SetDefaults(d Defaults) {
	e.defaults = d
}

// Defaults 設定済みのフォント既定値
func (e *RasterEngine) Defaults() Defaults {
	return e.defaults
}

func (e *RasterEngine) fontSize() float64 {
	if e.defaults.FontSize <= 0 {
		return defaultFontSize
	}
	return e.defaults.FontSize
}

func (e *RasterEngine) fontColor() drawing.Color {
	return MustColor(e.defaults.FontColor, defaultFontColor)
}

// New はグラフを描画して描画面に書き込みます。
func (e *RasterEngine) New(surface *Surface, cfg Config) (Instance, error) {
	if err := checkSurface(surface); err != nil {
		return nil, err
	}

	var (
		img image.Image
		err error
	)
	switch cfg.Kind {
	case KindBar:
		img, err = e.renderBar(surface, cfg)
	case KindDoughnut:
		img, err = e.renderDoughnut(surface, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s の描画に失敗: %w", surface.ID, err)
	}

	surface.SetRaster(img)
	return &instance{cfg: cfg, surface: surface, onDestroy: surface.Clear}, nil
}

// Composite はオーバーレイの2行を描画面の中央に直接描き込みます。
func (e *RasterEngine) Composite(surface *Surface, o *Overlay) error {
	if err := checkSurface(surface); err != nil {
		return err
	}
	dst := surface.Raster()
	if dst == nil {
		return ErrNotRendered
	}

	_, h1 := MeasureText(o.Primary.Text, o.Primary.FontSize, o.Primary.Bold)
	_, h2 := MeasureText(o.Secondary.Text, o.Secondary.FontSize, o.Secondary.Bold)
	gap := 0
	if h1 > 0 && h2 > 0 {
		gap = 4
	}
	b := dst.Bounds()
	cx := b.Min.X + b.Dx()/2
	top := b.Min.Y + (b.Dy()-(h1+gap+h2))/2

	DrawTextCentered(dst, o.Primary.Text, cx, top+h1/2, MustColor(o.Primary.Color, e.fontColor()), o.Primary.FontSize, o.Primary.Bold)
	DrawTextCentered(dst, o.Secondary.Text, cx, top+h1+gap+h2/2, MustColor(o.Secondary.Color, e.fontColor()), o.Secondary.FontSize, o.Secondary.Bold)
	return nil
}

// renderBar は系列ごとの棒を項目単位で並べたグループ棒グラフを描きます。
func (e *RasterEngine) renderBar(s *Surface, cfg Config) (image.Image, error) {
	padding := gochart.Box{Top: 64, Left: 36, Right: 16, Bottom: 44}
	bars := groupedBars(cfg.Data)
	if len(bars) == 0 {
		return e.renderEmptyBar(s, cfg, padding)
	}

	minV, maxV := valueBounds(cfg.Data)
	lo := math.Min(0, minV)
	hi := niceCeil(maxV)
	if hi <= lo {
		hi = lo + 1
	}
	// 軸の幅が float64 に収まらないと go-chart の座標計算が発散する
	if !isFinite(lo) || !isFinite(hi) || !isFinite(hi-lo) {
		return nil, fmt.Errorf("値の範囲が大きすぎます: [%g, %g]", minV, maxV)
	}

	inner := s.Width - padding.Left - padding.Right - 48
	spacing := 2
	barWidth := inner/len(bars) - spacing
	if barWidth < 2 {
		barWidth = 2
	}

	bc := gochart.BarChart{
		Title:      titleText(cfg),
		TitleStyle: gochart.Style{FontSize: e.fontSize() + 4, FontColor: e.fontColor()},
		Width:      s.Width,
		Height:     s.Height,
		Background: gochart.Style{Padding: padding, FillColor: e.background},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		XAxis:      gochart.Style{FontSize: e.fontSize() - 2, FontColor: e.fontColor()},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
			Style: gochart.Style{FontSize: e.fontSize() - 2, FontColor: e.fontColor()},
		},
		Bars: bars,
	}
	bc.Elements = []gochart.Renderable{e.barDecorations(s, cfg)}

	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// renderEmptyBar はデータ0件のとき、棒のない枠・タイトル・凡例・軸タイトルだけを描きます。
func (e *RasterEngine) renderEmptyBar(s *Surface, cfg Config, padding gochart.Box) (image.Image, error) {
	r, err := gochart.PNG(s.Width, s.Height)
	if err != nil {
		return nil, err
	}
	fillRect(r, 0, 0, s.Width, s.Height, e.background)

	canvas := gochart.Box{Top: padding.Top, Left: padding.Left, Right: s.Width - padding.Right, Bottom: s.Height - padding.Bottom}
	r.SetStrokeColor(e.fontColor())
	r.SetStrokeWidth(1)
	r.MoveTo(canvas.Left, canvas.Bottom)
	r.LineTo(canvas.Right, canvas.Bottom)
	r.Stroke()

	if title := titleText(cfg); title != "" {
		if err := e.setFont(r, e.fontSize()+4); err != nil {
			return nil, err
		}
		tb := r.MeasureText(title)
		r.Text(title, (s.Width-tb.Width())/2, 10+tb.Height())
	}
	e.barDecorations(s, cfg)(r, canvas, gochart.Style{})

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// barDecorations は go-chart の BarChart が持たない凡例と軸タイトルを描きます。
func (e *RasterEngine) barDecorations(s *Surface, cfg Config) gochart.Renderable {
	return func(r gochart.Renderer, canvas gochart.Box, _ gochart.Style) {
		if err := e.setFont(r, e.fontSize()); err != nil {
			return
		}
		legend := cfg.Options.Plugins.Legend
		if legend.Display {
			y := legendTop
			if legend.Position == "bottom" {
				y = s.Height - legendSwatch - 4
			}
			e.drawLegend(r, cfg.Data.Datasets, s.Width, y)
		}

		if cfg.Options.Scales == nil {
			return
		}
		r.SetFontColor(e.fontColor())
		if x := cfg.Options.Scales.X.Title; x.Display && x.Text != "" {
			tb := r.MeasureText(x.Text)
			r.Text(x.Text, canvas.Left+(canvas.Width()-tb.Width())/2, s.Height-8)
		}
		if y := cfg.Options.Scales.Y.Title; y.Display && y.Text != "" {
			tb := r.MeasureText(y.Text)
			r.SetTextRotation(3 * math.Pi / 2)
			r.Text(y.Text, 16, canvas.Top+(canvas.Height()+tb.Width())/2)
			r.ClearTextRotation()
		}
	}
}

func (e *RasterEngine) drawLegend(r gochart.Renderer, datasets []Dataset, width, y int) {
	total := 0
	for i, ds := range datasets {
		if i > 0 {
			total += legendGap
		}
		total += legendSwatch + 4 + r.MeasureText(ds.Label).Width()
	}

	x := (width - total) / 2
	for _, ds := range datasets {
		fill := MustColor(ds.ColorAt(0), e.fontColor())
		border := MustColor(ds.BorderAt(0), fill)
		r.SetFillColor(fill)
		r.SetStrokeColor(border)
		r.SetStrokeWidth(1)
		r.MoveTo(x, y)
		r.LineTo(x+legendSwatch, y)
		r.LineTo(x+legendSwatch, y+legendSwatch)
		r.LineTo(x, y+legendSwatch)
		r.Close()
		r.FillStroke()

		r.SetFontColor(e.fontColor())
		r.Text(ds.Label, x+legendSwatch+4, y+legendSwatch-1)
		x += legendSwatch + 4 + r.MeasureText(ds.Label).Width() + legendGap
	}
}

func (e *RasterEngine) setFont(r gochart.Renderer, size float64) error {
	f, err := gochart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetFont(f)
	r.SetFontSize(size)
	r.SetFontColor(e.fontColor())
	return nil
}

// renderDoughnut は12時の位置から時計回りにセグメントを描き、cutout 分の穴を抜きます。
// 負の値は絶対値で扱います。
func (e *RasterEngine) renderDoughnut(s *Surface, cfg Config) (image.Image, error) {
	r, err := gochart.PNG(s.Width, s.Height)
	if err != nil {
		return nil, err
	}
	fillRect(r, 0, 0, s.Width, s.Height, e.background)

	cx, cy := s.Width/2, s.Height/2
	radius := float64(min(s.Width, s.Height))/2 - 4

	if len(cfg.Data.Datasets) > 0 {
		ds := cfg.Data.Datasets[0]
		// 最大値で割ってから合計し、巨大な値でも合計が溢れないようにする
		peak := 0.0
		for _, v := range ds.Data {
			if isFinite(v) {
				peak = math.Max(peak, math.Abs(v))
			}
		}
		total := 0.0
		for _, v := range ds.Data {
			if isFinite(v) && peak > 0 {
				total += math.Abs(v) / peak
			}
		}
		start := -math.Pi / 2
		for i, v := range ds.Data {
			if total == 0 || !isFinite(v) || v == 0 {
				continue
			}
			delta := math.Abs(v) / peak / total * 2 * math.Pi
			if delta == 0 {
				continue
			}
			col := MustColor(ds.ColorAt(i), e.fontColor())
			r.SetFillColor(col)
			r.SetStrokeColor(col)
			r.MoveTo(cx, cy)
			r.ArcTo(cx, cy, radius, radius, start, delta)
			r.LineTo(cx, cy)
			r.Close()
			r.Fill()
			start += delta
		}
	}

	r.SetFillColor(e.background)
	r.SetStrokeColor(e.background)
	r.Circle(radius*parseCutout(cfg.Options.Cutout), cx, cy)
	r.Fill()

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// groupedBars は項目ごとに全系列の棒を並べ、項目の間に透明な区切りを挟みます。
func groupedBars(data Data) []gochart.Value {
	var bars []gochart.Value
	for i, label := range data.Labels {
		if i > 0 {
			bars = append(bars, gochart.Value{Style: gochart.Style{FillColor: drawing.ColorTransparent, StrokeColor: drawing.ColorTransparent}})
		}
		for j, ds := range data.Datasets {
			v := 0.0
			// 有限でない値は高さ0の棒にする
			if i < len(ds.Data) && isFinite(ds.Data[i]) {
				v = ds.Data[i]
			}
			fill := MustColor(ds.ColorAt(i), drawing.ColorBlack)
			bar := gochart.Value{
				Value: v,
				Style: gochart.Style{
					FillColor:   fill,
					StrokeColor: MustColor(ds.BorderAt(i), fill),
					StrokeWidth: float64(ds.BorderWidth),
				},
			}
			if j == 0 {
				bar.Label = label
			}
			bars = append(bars, bar)
		}
	}
	return bars
}

func valueBounds(data Data) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, ds := range data.Datasets {
		for _, v := range ds.Data {
			if !isFinite(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// niceCeil は 1, 2, 5 × 10^n の刻みで切り上げた上限値を返します。
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, step := range []float64{1, 2, 5, 10} {
		if c := step * mag; v <= c {
			if math.IsInf(c, 1) {
				return v
			}
			return c
		}
	}
	return v
}

// parseCutout は "70%" や "0.7" を半径に対する比率に変換します。
func parseCutout(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultCutout
	}
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return defaultCutout
	}
	if pct || v > 1 {
		v /= 100
	}
	if v < 0 || v >= 1 {
		return defaultCutout
	}
	return v
}

func titleText(cfg Config) string {
	if !cfg.Options.Plugins.Title.Display {
		return ""
	}
	return cfg.Options.Plugins.Title.Text
}

func fillRect(r gochart.Renderer, x0, y0, x1, y1 int, c drawing.Color) {
	r.SetFillColor(c)
	r.SetStrokeColor(c)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
