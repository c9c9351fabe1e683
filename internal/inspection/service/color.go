package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidColor = errors.New("invalid color")

// CustomColorName 调色板中没有足够接近的颜色时使用的名称
const CustomColorName = "Custom Color"

// colorMatchThreshold RGB欧氏距离严格小于该值才算匹配
const colorMatchThreshold = 30.0

type namedColor struct {
	name    string
	r, g, b int
}

var colorPalette = []namedColor{
	{"Red", 255, 0, 0},
	{"Green", 0, 128, 0},
	{"Lime", 0, 255, 0},
	{"Blue", 0, 0, 255},
	{"Yellow", 255, 255, 0},
	{"Orange", 255, 165, 0},
	{"Purple", 128, 0, 128},
	{"Black", 0, 0, 0},
	{"White", 255, 255, 255},
	{"Gray", 128, 128, 128},
	{"Cyan", 0, 255, 255},
	{"Magenta", 255, 0, 255},
	{"Brown", 165, 42, 42},
	{"Pink", 255, 192, 203},
	{"Navy", 0, 0, 128},
	{"Maroon", 128, 0, 0},
	{"Olive", 128, 128, 0},
	{"Teal", 0, 128, 128},
	{"Silver", 192, 192, 192},
}

// NearestColorName 返回调色板中最接近的颜色名称
func NearestColorName(r, g, b int) string {
	best := CustomColorName
	bestDist := math.MaxFloat64
	for _, c := range colorPalette {
		dr, dg, db := float64(r-c.r), float64(g-c.g), float64(b-c.b)
		d := math.Sqrt(dr*dr + dg*dg + db*db)
		if d < bestDist {
			bestDist = d
			best = c.name
		}
	}
	if bestDist < colorMatchThreshold {
		return best
	}
	return CustomColorName
}

// ParseHexColor 解析 #RRGGBB / RRGGBB / #RGB
func ParseHexColor(hex string) (r, g, b int, err error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("%q: %w", hex, ErrInvalidColor)
	}
	v, perr := strconv.ParseUint(s, 16, 32)
	if perr != nil {
		return 0, 0, 0, fmt.Errorf("%q: %w", hex, ErrInvalidColor)
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), nil
}

// HexColor 将RGB格式化为 #RRGGBB
func HexColor(r, g, b int) string {
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

func validRGB(vals ...int) bool {
	for _, v := range vals {
		if v < 0 || v > 255 {
			return false
		}
	}
	return true
}
