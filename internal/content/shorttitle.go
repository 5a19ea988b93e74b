package content

import (
	"strings"
	"unicode"
)

const (
	DefaultShortTitleMin = 6
	DefaultShortTitleMax = 16
)

// 短标题允许保留的符号
const shortTitleAllowed = "《》:+?%°"

// ShortTitle 由标题生成短标题：保留字母数字与少量符号，逗号换成空格，
// 其余标点删除，再按字符数截断到 max 或用空格补齐到 min
func ShortTitle(title string, min, max int) string {
	if min <= 0 {
		min = DefaultShortTitleMin
	}
	if max <= 0 {
		max = DefaultShortTitleMax
	}

	var b strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune(shortTitleAllowed, r):
			b.WriteRune(r)
		case r == ',':
			b.WriteRune(' ')
		}
	}

	runes := []rune(b.String())
	if len(runes) > max {
		runes = runes[:max]
	}
	for len(runes) < min {
		runes = append(runes, ' ')
	}
	return string(runes)
}
