package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ParseColor は "#rrggbb" / "#rgb" / "rgb(r, g, b)" / "rgba(r, g, b, a)" を解釈します。
func ParseColor(s string) (drawing.Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		hex := strings.TrimPrefix(s, "#")
		if len(hex) != 3 && len(hex) != 6 {
			return drawing.Color{}, fmt.Errorf("不正な色指定です: %q", s)
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return drawing.Color{}, fmt.Errorf("不正な色指定です: %q", s)
		}
		return drawing.ColorFromHex(hex), nil
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		body := s[strings.Index(s, "(")+1:]
		body = strings.TrimSuffix(body, ")")
		parts := strings.Split(body, ",")
		if len(parts) != 3 && len(parts) != 4 {
			return drawing.Color{}, fmt.Errorf("不正な色指定です: %q", s)
		}
		var rgb [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || v < 0 || v > 255 {
				return drawing.Color{}, fmt.Errorf("不正な色指定です: %q", s)
			}
			rgb[i] = uint8(v)
		}
		alpha := uint8(255)
		if len(parts) == 4 {
			a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if err != nil || a < 0 || a > 1 {
				return drawing.Color{}, fmt.Errorf("不正な色指定です: %q", s)
			}
			alpha = uint8(math.Round(a * 255))
		}
		return drawing.Color{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}, nil
	}
	return drawing.Color{}, fmt.Errorf("不正な色指定です: %q", s)
}

// MustColor は解釈できない色を fallback に置き換えます。
func MustColor(s string, fallback drawing.Color) drawing.Color {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// HexRGB はアルファを捨てた "RRGGBB" 形式を返します（Excel向け）。
func HexRGB(s string) string {
	c, err := ParseColor(s)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}
