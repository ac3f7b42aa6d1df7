package chart

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// basicfont.Face7x13 の行の高さ
const baseTextHeight = 13

// textScale は指定フォントサイズを 7x13 フォントの整数倍率に丸めます。
func textScale(fontSize float64) int {
	s := int(math.Round(fontSize / baseTextHeight))
	if s < 1 {
		return 1
	}
	return s
}

// textBlock は文字列を透明背景の小さな画像に描きます。bold は1px ずらして重ね描きします。
func textBlock(text string, col color.Color, bold bool) *image.RGBA {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	dr := &font.Drawer{Face: face}
	w := dr.MeasureString(text).Ceil()
	if bold {
		w++
	}
	h := (metrics.Ascent + metrics.Descent).Ceil()
	block := image.NewRGBA(image.Rect(0, 0, w, h))

	dr.Dst = block
	dr.Src = image.NewUniform(col)
	dr.Dot = fixed.Point26_6{X: 0, Y: metrics.Ascent}
	dr.DrawString(text)
	if bold {
		dr.Dot = fixed.Point26_6{X: fixed.I(1), Y: metrics.Ascent}
		dr.DrawString(text)
	}
	return block
}

// MeasureText は倍率適用後の文字列の幅と高さを返します。
func MeasureText(text string, fontSize float64, bold bool) (int, int) {
	if text == "" {
		return 0, 0
	}
	b := textBlock(text, color.Black, bold).Bounds()
	s := textScale(fontSize)
	return b.Dx() * s, b.Dy() * s
}

// DrawTextCentered は (cx, cy) を中心に文字列を dst へ重ねて描きます。
func DrawTextCentered(dst *image.RGBA, text string, cx, cy int, col color.Color, fontSize float64, bold bool) image.Rectangle {
	if dst == nil || text == "" {
		return image.Rectangle{}
	}
	block := textBlock(text, col, bold)
	s := textScale(fontSize)
	w, h := block.Bounds().Dx()*s, block.Bounds().Dy()*s
	rect := image.Rect(cx-w/2, cy-h/2, cx-w/2+w, cy-h/2+h)
	xdraw.NearestNeighbor.Scale(dst, rect, block, block.Bounds(), xdraw.Over, nil)
	return rect
}
