package report

import (
	"strconv"
	"strings"
)

// RGB 颜色
type RGB struct {
	R, G, B int
}

// Hex 返回 #RRGGBB
func (c RGB) Hex() string {
	const digits = "0123456789ABCDEF"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []int{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4&0xF]
		b[2+i*2] = digits[v&0xF]
	}
	return string(b)
}

var (
	colorRed    = RGB{220, 38, 38}
	colorOrange = RGB{249, 115, 22}
	colorYellow = RGB{234, 179, 8}
	colorGreen  = RGB{22, 163, 74}
	colorGrey   = RGB{156, 163, 175}
)

// NormalizePriority 统一优先级标签：大写、去掉空白和分隔符，"PRIORITY 1" 归一为 "P1"
func NormalizePriority(label string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(label)) {
		if r == ' ' || r == '-' || r == '_' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()
	if rest := strings.TrimPrefix(s, "PRIORITY"); rest != s && rest != "" {
		s = "P" + rest
	}
	return s
}

// fallbackColor 内置调色板
func fallbackColor(label string) RGB {
	switch NormalizePriority(label) {
	case "P1", "HIGH", "CRITICAL":
		return colorRed
	case "P2", "MEDIUM":
		return colorOrange
	case "P3", "LOW":
		return colorYellow
	case "P4", "OBSERVATION", "INFO":
		return colorGreen
	}
	return colorGrey
}

// ResolvePriorityColor 缺陷行颜色：记录自带颜色 → 主数据颜色表 → 内置调色板
func ResolvePriorityColor(recordColor, priority string, library map[string]string) RGB {
	if c, ok := parseHex(recordColor); ok {
		return c
	}
	if library != nil {
		for _, key := range []string{strings.ToUpper(strings.TrimSpace(priority)), NormalizePriority(priority)} {
			if c, ok := parseHex(library[key]); ok {
				return c
			}
		}
	}
	return fallbackColor(priority)
}

func parseHex(s string) (RGB, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)}, true
}

// textColorFor 按背景亮度选择黑色或白色文字
func textColorFor(bg RGB) RGB {
	lum := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if lum > 150 {
		return RGB{0, 0, 0}
	}
	return RGB{255, 255, 255}
}
