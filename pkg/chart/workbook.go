package chart

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	workbookChartCol   = 6 // F列にグラフを配置
	workbookChartWidth = 640
	defaultSheetName   = "Sheet1"
)

// WorkbookEngine は描画面ごとにシートを作り、Excelのネイティブグラフとして出力するエンジンです。
type WorkbookEngine struct {
	file     *excelize.File
	defaults Defaults
}

// NewWorkbookEngine 空のブックでエンジンを作成
func NewWorkbookEngine() *WorkbookEngine {
	return &WorkbookEngine{file: excelize.NewFile()}
}

// SetDefaults フォント既定値を設定
func (e *WorkbookEngine) SetDefaults(d Defaults) {
	e.defaults = d
}

// File 内部のブック
func (e *WorkbookEngine) File() *excelize.File {
	return e.file
}

// New は描画面名のシートに表データを書き込み、グラフを追加します。
func (e *WorkbookEngine) New(surface *Surface, cfg Config) (Instance, error) {
	if err := checkSurface(surface); err != nil {
		return nil, err
	}
	var chartType excelize.ChartType
	switch cfg.Kind {
	case KindBar:
		chartType = excelize.Col
	case KindDoughnut:
		chartType = excelize.Doughnut
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}

	sheet := surface.ID
	if err := e.resetSheet(sheet); err != nil {
		return nil, err
	}
	if err := e.writeTable(sheet, cfg.Data); err != nil {
		return nil, fmt.Errorf("%s の表データ書き込みに失敗: %w", sheet, err)
	}

	anchor, err := excelize.CoordinatesToCellName(workbookChartCol, 2)
	if err != nil {
		return nil, err
	}
	inst := &instance{cfg: cfg, surface: surface}

	// データ0件でも表のヘッダーは残し、グラフだけ作らない
	if rowCount(cfg.Data) == 0 {
		return inst, nil
	}

	xc := &excelize.Chart{
		Type:      chartType,
		Series:    e.series(sheet, cfg),
		Dimension: excelize.ChartDimension{Width: uint(workbookChartWidth), Height: uint(surface.Height)},
		Legend:    excelize.ChartLegend{Position: legendPosition(cfg.Options.Plugins.Legend)},
	}
	if title := titleText(cfg); title != "" {
		xc.Title = []excelize.RichTextRun{{Text: title, Font: e.font(true)}}
	}
	switch cfg.Kind {
	case KindBar:
		if sc := cfg.Options.Scales; sc != nil {
			if sc.X.Title.Display {
				xc.XAxis.Title = []excelize.RichTextRun{{Text: sc.X.Title.Text}}
			}
			if sc.Y.Title.Display {
				xc.YAxis.Title = []excelize.RichTextRun{{Text: sc.Y.Title.Text}}
			}
			if sc.Y.BeginAtZero {
				zero := 0.0
				xc.YAxis.Minimum = &zero
			}
		}
		xc.YAxis.MajorGridLines = true
	case KindDoughnut:
		xc.HoleSize = int(parseCutout(cfg.Options.Cutout) * 100)
	}

	if err := e.file.AddChart(sheet, anchor, xc); err != nil {
		return nil, fmt.Errorf("%s のグラフ追加に失敗: %w", sheet, err)
	}
	inst.onDestroy = func() {
		_ = e.file.DeleteChart(sheet, anchor)
	}
	return inst, nil
}

// Composite はオーバーレイの2行をグラフ下のセルに色付きで書き込みます。
func (e *WorkbookEngine) Composite(surface *Surface, o *Overlay) error {
	if err := checkSurface(surface); err != nil {
		return err
	}
	sheet := surface.ID
	if idx, err := e.file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return ErrNotRendered
	}

	lines := []TextLine{o.Primary, o.Secondary}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, 20+i)
		if err != nil {
			return err
		}
		if err := e.file.SetCellValue(sheet, cell, line.Text); err != nil {
			return err
		}
		font := e.font(line.Bold)
		font.Size = line.FontSize
		if hex := HexRGB(line.Color); hex != "" {
			font.Color = hex
		}
		style, err := e.file.NewStyle(&excelize.Style{
			Font:      font,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return err
		}
		if err := e.file.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo はブックを書き出します。既定シートは削除されます。
func (e *WorkbookEngine) WriteTo(w io.Writer) error {
	if len(e.file.GetSheetList()) > 1 {
		if err := e.file.DeleteSheet(defaultSheetName); err != nil {
			return err
		}
	}
	return e.file.Write(w)
}

// Close ブックの一時ファイルを解放
func (e *WorkbookEngine) Close() error {
	return e.file.Close()
}

func (e *WorkbookEngine) resetSheet(sheet string) error {
	idx, err := e.file.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx >= 0 {
		if err := e.file.DeleteSheet(sheet); err != nil {
			return err
		}
	}
	_, err = e.file.NewSheet(sheet)
	return err
}

// writeTable は A列にラベル、B列以降に系列を書き込みます。
func (e *WorkbookEngine) writeTable(sheet string, data Data) error {
	header := []interface{}{"Label"}
	for _, ds := range data.Datasets {
		header = append(header, ds.Label)
	}
	if err := e.file.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := 0; i < rowCount(data); i++ {
		label := ""
		if i < len(data.Labels) {
			label = data.Labels[i]
		}
		row := []interface{}{label}
		for _, ds := range data.Datasets {
			if i < len(ds.Data) {
				row = append(row, ds.Data[i])
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := e.file.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (e *WorkbookEngine) series(sheet string, cfg Config) []excelize.ChartSeries {
	last := rowCount(cfg.Data) + 1
	categories := fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, last)
	out := make([]excelize.ChartSeries, 0, len(cfg.Data.Datasets))
	for j, ds := range cfg.Data.Datasets {
		col, err := excelize.ColumnNumberToName(j + 2)
		if err != nil {
			continue
		}
		s := excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$%s$1", sheet, col),
			Categories: categories,
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, col, col, last),
		}
		// 単色の系列だけ塗りを固定する。点ごとの色はExcelの配色に任せる
		if len(ds.BackgroundColor) == 1 {
			if hex := HexRGB(ds.BackgroundColor[0]); hex != "" {
				s.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}}
			}
		}
		out = append(out, s)
	}
	return out
}

func (e *WorkbookEngine) font(bold bool) *excelize.Font {
	f := &excelize.Font{Bold: bold, Family: e.defaults.FontFamily, Size: e.defaults.FontSize}
	if hex := HexRGB(e.defaults.FontColor); hex != "" {
		f.Color = hex
	}
	return f
}

// rowCount はラベル数と系列の長さのうち大きい方です。ゲージのようにラベルの無いグラフもあります。
func rowCount(data Data) int {
	n := len(data.Labels)
	for _, ds := range data.Datasets {
		if len(ds.Data) > n {
			n = len(ds.Data)
		}
	}
	return n
}

func legendPosition(l LegendOptions) string {
	if !l.Display {
		return "none"
	}
	if l.Position == "" {
		return "top"
	}
	return l.Position
}
