package writer

import (
	"strings"
	"unicode"
)

const maxSlugLen = 255

// Slugify 从主题生成确定性的 URL slug
func Slugify(s string) string {
	slug := make([]rune, 0, len(s))
	for _, ch := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(ch) || unicode.IsDigit(ch):
			slug = append(slug, ch)
		case len(slug) > 0 && slug[len(slug)-1] != '-':
			slug = append(slug, '-')
		}
	}

	out := strings.Trim(string(slug), "-")
	if len(out) > maxSlugLen {
		out = strings.TrimRight(out[:maxSlugLen], "-")
	}
	if out == "" {
		out = "untitled"
	}
	return out
}
