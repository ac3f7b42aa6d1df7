package chart

// Kind はグラフ種別のタグです。
type Kind string

const (
	KindBar      Kind = "bar"
	KindDoughnut Kind = "doughnut"
)

// Config はエンジンに渡すグラフ定義（種別・データ・オプション）です。
type Config struct {
	Kind    Kind    `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

// Data ラベルと系列
type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset は1系列分の値と配色です。
// BackgroundColor は1色なら系列全体、複数色ならデータ点ごとに使われます。
type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     []string  `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth"`
}

// ColorAt はデータ点 i の塗り色を返します。
func (ds Dataset) ColorAt(i int) string {
	return pick(ds.BackgroundColor, i)
}

// BorderAt はデータ点 i の枠線色を返します。
func (ds Dataset) BorderAt(i int) string {
	return pick(ds.BorderColor, i)
}

func pick(colors []string, i int) string {
	switch {
	case len(colors) == 0:
		return ""
	case len(colors) == 1:
		return colors[0]
	case i < len(colors):
		return colors[i]
	default:
		return colors[i%len(colors)]
	}
}

// Options 表示オプション
type Options struct {
	Responsive          bool          `json:"responsive"`
	MaintainAspectRatio bool          `json:"maintainAspectRatio"`
	Cutout              string        `json:"cutout,omitempty"` // 例: "70%"
	Plugins             PluginOptions `json:"plugins"`
	Scales              *Scales       `json:"scales,omitempty"`
}

// PluginOptions 凡例・タイトル・ツールチップ
type PluginOptions struct {
	Legend  LegendOptions  `json:"legend"`
	Title   TitleOptions   `json:"title"`
	Tooltip TooltipOptions `json:"tooltip"`
}

type LegendOptions struct {
	Display  bool   `json:"display"`
	Position string `json:"position,omitempty"`
}

type TitleOptions struct {
	Display bool   `json:"display"`
	Text    string `json:"text,omitempty"`
}

type TooltipOptions struct {
	Enabled bool `json:"enabled"`
}

// Scales 軸設定
type Scales struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

type Axis struct {
	BeginAtZero bool      `json:"beginAtZero"`
	Title       AxisTitle `json:"title"`
}

type AxisTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text,omitempty"`
}

// Defaults はエンジン全体に効くフォント既定値です。起動時に一度だけ設定します。
type Defaults struct {
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontColor  string  `json:"fontColor"`
}
