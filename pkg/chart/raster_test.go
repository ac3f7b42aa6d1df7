package chart

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	red   = color.RGBA{R: 220, G: 53, B: 69, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func gaugeConfig(score float64) Config {
	return Config{
		Kind: KindDoughnut,
		Data: Data{Datasets: []Dataset{{
			Data:            []float64{score, 100 - score},
			BackgroundColor: []string{"#dc3545", "#e9ecef"},
		}}},
		Options: Options{Cutout: "70%"},
	}
}

func barConfig(labels []string, stock, demand []float64) Config {
	return Config{
		Kind: KindBar,
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{
				{Label: "Current Stock", Data: stock, BackgroundColor: []string{"rgba(54, 162, 235, 0.6)"}, BorderColor: []string{"rgba(54, 162, 235, 1)"}, BorderWidth: 1},
				{Label: "Predicted Demand", Data: demand, BackgroundColor: []string{"rgba(255, 206, 86, 0.6)"}, BorderColor: []string{"rgba(255, 206, 86, 1)"}, BorderWidth: 1},
			},
		},
		Options: Options{
			Plugins: PluginOptions{
				Legend: LegendOptions{Display: true, Position: "top"},
				Title:  TitleOptions{Display: true, Text: "Demand Forecasting Analysis"},
			},
			Scales: &Scales{
				X: Axis{Title: AxisTitle{Display: true, Text: "Items"}},
				Y: Axis{BeginAtZero: true, Title: AxisTitle{Display: true, Text: "Quantity"}},
			},
		},
	}
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -3 && d <= 3
}

func TestRasterEngineDoughnut(t *testing.T) {
	engine := NewRasterEngine()
	s := NewDocument().AddSurface("riskGauge", 200, 200)

	inst, err := engine.New(s, gaugeConfig(72))
	require.NoError(t, err)
	assert.Equal(t, KindDoughnut, inst.Kind())
	assert.Same(t, s, inst.Surface())

	img := s.Raster()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())

	// 下端（50%地点）は塗り部分、中心は穴
	radius := 96.0
	assert.Equal(t, red, img.RGBAAt(100, 100+int(radius*0.85)))
	assert.Equal(t, white, img.RGBAAt(100, 100))
}

func TestRasterEngineDestroyClearsSurface(t *testing.T) {
	engine := NewRasterEngine()
	s := NewDocument().AddSurface("riskGauge", 100, 100)

	inst, err := engine.New(s, gaugeConfig(10))
	require.NoError(t, err)
	inst.Destroy()
	inst.Destroy()

	assert.Nil(t, s.Raster())
}

func TestRasterEngineBar(t *testing.T) {
	engine := NewRasterEngine()
	s := NewDocument().AddSurface("demandChart", 640, 320)

	_, err := engine.New(s, barConfig([]string{"Water", "Food"}, []float64{50, 120}, []float64{80, 90}))
	require.NoError(t, err)

	img := s.Raster()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 640, 320), img.Bounds())

	// 半透明の青が白背景に重なった色の棒があること
	found := false
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !found; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if near(c.R, 134) && near(c.G, 199) && near(c.B, 243) {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "stock bar fill not found")
}

func TestRasterEngineEmptyBar(t *testing.T) {
	engine := NewRasterEngine()
	s := NewDocument().AddSurface("demandChart", 400, 300)

	_, err := engine.New(s, barConfig([]string{}, []float64{}, []float64{}))
	require.NoError(t, err)
	require.NotNil(t, s.Raster())
	assert.Equal(t, image.Rect(0, 0, 400, 300), s.Raster().Bounds())
}

func TestRasterEngineErrors(t *testing.T) {
	engine := NewRasterEngine()

	_, err := engine.New(NewDocument().AddSurface("x", 100, 100), Config{Kind: "pie"})
	assert.True(t, errors.Is(err, ErrUnknownKind))

	_, err = engine.New(NewDocument().AddSurface("x", 0, 100), gaugeConfig(50))
	assert.True(t, errors.Is(err, ErrSurfaceDetached))

	_, err = engine.New(nil, gaugeConfig(50))
	assert.True(t, errors.Is(err, ErrSurfaceDetached))
}

func TestRasterEngineComposite(t *testing.T) {
	engine := NewRasterEngine()
	s := NewDocument().AddSurface("riskGauge", 200, 200)

	o := &Overlay{
		SurfaceID: "riskGauge",
		Primary:   TextLine{Text: "72", Color: "#dc3545", FontSize: 32, Bold: true},
		Secondary: TextLine{Text: "High", Color: "#6c757d", FontSize: 14},
	}
	assert.True(t, errors.Is(engine.Composite(s, o), ErrNotRendered))

	_, err := engine.New(s, gaugeConfig(72))
	require.NoError(t, err)
	require.NoError(t, engine.Composite(s, o))

	// 穴の内側にスコアの文字色が描かれていること
	img := s.Raster()
	found := false
	for y := 70; y < 130 && !found; y++ {
		for x := 70; x < 130; x++ {
			if img.RGBAAt(x, y) == red {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "score text not composited")
}

func TestRasterEngineDefaults(t *testing.T) {
	engine := NewRasterEngine()

	// 未設定のときは描画時に補う
	assert.Equal(t, Defaults{}, engine.Defaults())
	assert.Equal(t, defaultFontSize, engine.fontSize())
	assert.Equal(t, defaultFontColor, engine.fontColor())

	engine.SetDefaults(Defaults{FontFamily: "Segoe UI", FontSize: 0, FontColor: "#111111"})

	d := engine.Defaults()
	assert.Equal(t, "Segoe UI", d.FontFamily)
	assert.Zero(t, d.FontSize)
	assert.Equal(t, defaultFontSize, engine.fontSize())
	assert.Equal(t, drawing.Color{R: 0x11, G: 0x11, B: 0x11, A: 255}, engine.fontColor())
}

// renderWithin は描画が制限時間内に終わることを確認し、結果を返します。
func renderWithin(t *testing.T, engine *RasterEngine, s *Surface, cfg Config) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := engine.New(s, cfg)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatalf("render of %s did not finish", s.ID)
		return nil
	}
}

func TestRasterEngineOutOfRangeGauge(t *testing.T) {
	testCases := []struct {
		name  string
		score float64
	}{
		{"above 100", 120},
		{"negative", -5},
		{"huge", 1.7e308},
		{"huge negative", -1.7e308},
		{"max float", math.MaxFloat64},
		{"tiny", 5e-324},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewRasterEngine()
			s := NewDocument().AddSurface("riskGauge", 120, 120)

			err := renderWithin(t, engine, s, gaugeConfig(tc.score))

			require.NoError(t, err)
			require.NotNil(t, s.Raster())
			// 穴の中心は常に背景色
			assert.Equal(t, white, s.Raster().RGBAAt(60, 60))
		})
	}
}

func TestRasterEngineGaugeAboveRangeFillsRing(t *testing.T) {
	engine := NewRasterEngine()
	s := NewDocument().AddSurface("riskGauge", 200, 200)

	// [120, -20] は絶対値の比率 120:20 で描く。下端（50%地点）は塗り部分
	require.NoError(t, renderWithin(t, engine, s, gaugeConfig(120)))
	outer := 96.0
	assert.Equal(t, red, s.Raster().RGBAAt(100, 100+int(outer*0.85)))
}

func TestRasterEngineExtremeBars(t *testing.T) {
	testCases := []struct {
		name   string
		stock  []float64
		demand []float64
	}{
		{"negative", []float64{-40, 10}, []float64{20, -5}},
		{"just above 1e308", []float64{1.1e308, 1}, []float64{1, 1}},
		{"max float", []float64{math.MaxFloat64, 1}, []float64{1, 1}},
		{"opposite extremes", []float64{-1.7e308, 1}, []float64{1.7e308, 1}},
		{"non-finite", []float64{math.Inf(1), math.NaN()}, []float64{math.Inf(-1), 3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewRasterEngine()
			s := NewDocument().AddSurface("demandChart", 400, 240)

			err := renderWithin(t, engine, s, barConfig([]string{"Water", "Food"}, tc.stock, tc.demand))

			// 描画できた場合はラスタが、できなかった場合はエラーが返る
			if err != nil {
				assert.Nil(t, s.Raster())
				return
			}
			require.NotNil(t, s.Raster())
			assert.Equal(t, image.Rect(0, 0, 400, 240), s.Raster().Bounds())
		})
	}
}

func TestRasterEngineRejectsUnrepresentableRange(t *testing.T) {
	engine := NewRasterEngine()
	s := NewDocument().AddSurface("demandChart", 400, 240)

	err := renderWithin(t, engine, s, barConfig([]string{"A", "B"}, []float64{-math.MaxFloat64, 1}, []float64{math.MaxFloat64, 1}))

	assert.Error(t, err)
	assert.Nil(t, s.Raster())
}

func TestParseCutout(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
	}{
		{"70%", 0.7},
		{"50%", 0.5},
		{"0.6", 0.6},
		{"", defaultCutout},
		{"abc", defaultCutout},
		{"100%", defaultCutout},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.InDelta(t, tc.want, parseCutout(tc.in), 1e-9)
		})
	}
}

func TestNiceCeil(t *testing.T) {
	testCases := []struct {
		in   float64
		want float64
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{7, 10},
		{120, 200},
		{90, 100},
		{450, 500},
		{1e308, 1e308},
		{1.1e308, 1.1e308},
		{math.MaxFloat64, math.MaxFloat64},
	}
	for _, tc := range testCases {
		assert.InEpsilon(t, tc.want, niceCeil(tc.in), 1e-9, "niceCeil(%v)", tc.in)
		assert.False(t, math.IsInf(niceCeil(tc.in), 0))
	}
}

func TestGroupedBars(t *testing.T) {
	cfg := barConfig([]string{"Water", "Food"}, []float64{50, 120}, []float64{80})

	bars := groupedBars(cfg.Data)

	// 2品目 × 2系列 + 区切り1本
	require.Len(t, bars, 5)
	assert.Equal(t, "Water", bars[0].Label)
	assert.Equal(t, 50.0, bars[0].Value)
	assert.Equal(t, 80.0, bars[1].Value)
	assert.Equal(t, "Food", bars[3].Label)
	assert.Equal(t, 120.0, bars[3].Value)
	// 足りないデータは0
	assert.Equal(t, 0.0, bars[4].Value)
}

func TestMeasureText(t *testing.T) {
	w, h := MeasureText("", 14, false)
	assert.Zero(t, w)
	assert.Zero(t, h)

	w1, h1 := MeasureText("72", 13, false)
	w2, h2 := MeasureText("72", 26, false)
	assert.Equal(t, w1*2, w2)
	assert.Equal(t, h1*2, h2)
}
