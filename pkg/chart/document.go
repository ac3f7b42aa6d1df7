package chart

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
)

// Document はリクエスト単位の描画先（ページ）です。描画面をIDで引けるようにします。
// 並行利用は想定していません。
type Document struct {
	surfaces map[string]*Surface
	order    []string
}

// NewDocument 空のドキュメントを作成
func NewDocument() *Document {
	return &Document{surfaces: make(map[string]*Surface)}
}

// AddSurface は描画面を専用のコンテナに入れて登録します。同じIDは置き換えます。
func (d *Document) AddSurface(id string, width, height int) *Surface {
	if _, exists := d.surfaces[id]; !exists {
		d.order = append(d.order, id)
	}
	s := &Surface{ID: id, Width: width, Height: height}
	s.Parent = &Container{surface: s}
	d.surfaces[id] = s
	return s
}

// Surface IDで描画面を取得
func (d *Document) Surface(id string) (*Surface, bool) {
	if d == nil {
		return nil, false
	}
	s, ok := d.surfaces[id]
	return s, ok
}

// Surfaces 登録順の描画面一覧
func (d *Document) Surfaces() []*Surface {
	out := make([]*Surface, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.surfaces[id])
	}
	return out
}

// Overlays はドキュメント内の全オーバーレイを描画面の登録順で返します。
func (d *Document) Overlays() []*Overlay {
	var out []*Overlay
	for _, s := range d.Surfaces() {
		out = append(out, s.Parent.Overlays()...)
	}
	return out
}

// RemoveOverlay はオーバーレイを親コンテナから取り外します。
func (d *Document) RemoveOverlay(o *Overlay) bool {
	if o == nil {
		return false
	}
	s, ok := d.surfaces[o.SurfaceID]
	if !ok {
		return false
	}
	return s.Parent.remove(o)
}

// Surface はグラフ1枚分の描画面（canvas相当）です。
type Surface struct {
	ID     string
	Width  int
	Height int
	Parent *Container

	raster *image.RGBA
}

// Raster 描画済みのラスタ。未描画ならnil
func (s *Surface) Raster() *image.RGBA {
	return s.raster
}

// SetRaster は描画結果を描画面に書き込みます。
func (s *Surface) SetRaster(img image.Image) {
	if img == nil {
		s.raster = nil
		return
	}
	if rgba, ok := img.(*image.RGBA); ok {
		s.raster = rgba
		return
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	s.raster = rgba
}

// Clear 描画内容を破棄
func (s *Surface) Clear() {
	s.raster = nil
}

// PNG はラスタをPNGにエンコードします。未描画なら ErrNotRendered を返します。
func (s *Surface) PNG() ([]byte, error) {
	if s.raster == nil {
		return nil, ErrNotRendered
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.raster); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Container は描画面の親要素です。オーバーレイはここに兄弟要素として追加されます。
type Container struct {
	// Position が "relative" のとき、オーバーレイの位置決めの基準になります。
	Position string

	surface  *Surface
	overlays []*Overlay
}

// Append オーバーレイを末尾に追加
func (c *Container) Append(o *Overlay) {
	c.overlays = append(c.overlays, o)
}

// Overlays 追加順のオーバーレイ一覧
func (c *Container) Overlays() []*Overlay {
	out := make([]*Overlay, len(c.overlays))
	copy(out, c.overlays)
	return out
}

func (c *Container) remove(o *Overlay) bool {
	for i, existing := range c.overlays {
		if existing == o {
			c.overlays = append(c.overlays[:i], c.overlays[i+1:]...)
			return true
		}
	}
	return false
}

// Overlay はグラフ上に重ねるテキスト要素です。
type Overlay struct {
	SurfaceID string            `json:"surfaceId"`
	Primary   TextLine          `json:"primary"`
	Secondary TextLine          `json:"secondary"`
	Style     map[string]string `json:"style"`
}

// TextLine オーバーレイの1行
type TextLine struct {
	Text     string  `json:"text"`
	Color    string  `json:"color"`
	FontSize float64 `json:"fontSize"`
	Bold     bool    `json:"bold"`
}
